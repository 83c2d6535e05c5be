package arinc

import "fmt"

// RawWord is one ARINC-429 word as delivered by the gateway, in wire order.
//
// Byte 3 carries the label with its bit order reversed relative to the bus,
// bytes 0-2 carry the sign and the 18-bit data field.
type RawWord [WordSize]byte

// Word is the bit-level content of a RawWord
type Word struct {
	Label     int
	Magnitude uint32
	Negative  bool
}

// String renders the word for debug logs
func (w Word) String() string {
	sign := "+"
	if w.Negative {
		sign = "-"
	}
	return fmt.Sprintf("label=%03d data=%s0x%05X", w.Label, sign, w.Magnitude)
}

// Label extracts the label as three octal digits combined as decimal digits
func (w RawWord) Label() int {
	b3 := w[3]
	hundreds := int((b3 >> 6) & 0x03)
	tens := int((b3 >> 3) & 0x07)
	units := int(b3 & 0x07)
	return hundreds*100 + tens*10 + units
}

// Magnitude extracts the 18-bit data field
func (w RawWord) Magnitude() uint32 {
	b0, b1, b2 := uint32(w[0]), uint32(w[1]), uint32(w[2])
	return ((b0 & 0x0F) << 14) | ((b1 << 6) & 0x3FFF) | ((b2 >> 2) & 0x3F)
}

// Negative reports whether the sign bit is set
func (w RawWord) Negative() bool {
	return w[0]&SignMask != 0
}

// Decode splits a raw word into label, magnitude and sign
func Decode(w RawWord) Word {
	return Word{
		Label:     w.Label(),
		Magnitude: w.Magnitude(),
		Negative:  w.Negative(),
	}
}

// Scale converts a magnitude and sign into an engineering value for a label
// with full-scale range r.
//
// The gateway encodes negative values as magnitude offset by the full range:
// value = magnitude/2^18*r, minus r when the sign bit is set. This is not the
// textbook two's-complement BNR interpretation and must stay as is.
// The fractional part is truncated.
func Scale(magnitude uint32, negative bool, r int) int {
	value := int((uint64(magnitude&MagnitudeMask) * uint64(r)) / FullScale)
	if negative {
		value -= r
	}
	return value
}
