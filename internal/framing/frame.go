package framing

import (
	"encoding/binary"
	"errors"
	"fmt"

	"go429/internal/arinc"
)

// Encapsulation used by the Aspen gateway:
//
//	2 bytes big-endian payload length | 0x00 0x02 | payload of ARINC-429 words
const (
	HeaderSize = 4
	MarkerHi   = 0x00
	MarkerLo   = 0x02

	// MaxPayload is the largest payload a 16-bit length can announce,
	// rounded down to whole words
	MaxPayload = 0xFFFC
)

var (
	// ErrBadMarker is returned when the type marker is not 0x00 0x02
	ErrBadMarker = errors.New("invalid frame marker")
	// ErrBadLength is returned when the payload length is not a whole number of words
	ErrBadLength = errors.New("frame length not a multiple of word size")
)

// Header is the fixed four-byte frame header
type Header struct {
	Length uint16
	Marker [2]byte
}

// ParseHeader decodes and validates a frame header
func ParseHeader(b [HeaderSize]byte) (Header, error) {
	h := Header{
		Length: binary.BigEndian.Uint16(b[0:2]),
		Marker: [2]byte{b[2], b[3]},
	}
	if h.Marker[0] != MarkerHi || h.Marker[1] != MarkerLo {
		return h, fmt.Errorf("%w: 0x%02x 0x%02x", ErrBadMarker, h.Marker[0], h.Marker[1])
	}
	if h.Length%arinc.WordSize != 0 {
		return h, fmt.Errorf("%w: %d bytes", ErrBadLength, h.Length)
	}
	return h, nil
}

// Words returns how many words the frame payload holds
func (h Header) Words() int {
	return int(h.Length) / arinc.WordSize
}

// Encode builds one frame carrying the given words
func Encode(words []arinc.RawWord) ([]byte, error) {
	payload := len(words) * arinc.WordSize
	if payload > MaxPayload {
		return nil, fmt.Errorf("frame payload too large: %d bytes", payload)
	}

	frame := make([]byte, HeaderSize, HeaderSize+payload)
	binary.BigEndian.PutUint16(frame[0:2], uint16(payload))
	frame[2] = MarkerHi
	frame[3] = MarkerLo
	for _, w := range words {
		frame = append(frame, w[:]...)
	}
	return frame, nil
}
