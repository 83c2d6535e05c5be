package framing

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"go429/internal/arinc"
)

// deadliner is implemented by net.Conn
type deadliner interface {
	SetReadDeadline(t time.Time) error
}

// Reader reads gateway frames from a byte stream
type Reader struct {
	r           io.Reader
	dl          deadliner
	readTimeout time.Duration
	logger      *logrus.Logger

	header [HeaderSize]byte
	word   arinc.RawWord

	frames uint64
	words  uint64
}

// NewReader creates a frame reader. When r supports read deadlines and
// readTimeout is positive, every blocking read gets its own deadline.
func NewReader(r io.Reader, readTimeout time.Duration, logger *logrus.Logger) *Reader {
	fr := &Reader{
		r:           r,
		readTimeout: readTimeout,
		logger:      logger,
	}
	if dl, ok := r.(deadliner); ok && readTimeout > 0 {
		fr.dl = dl
	}
	return fr
}

// ReadFrame reads exactly one frame and hands each word to visit as soon as
// it has been read. Words read before a failure have already been visited.
//
// On a bad header nothing past the header is consumed. Any error means the
// stream can no longer be trusted and the caller should stop.
func (r *Reader) ReadFrame(visit func(arinc.RawWord)) error {
	if err := r.readFull(r.header[:]); err != nil {
		return fmt.Errorf("read frame header: %w", err)
	}

	h, err := ParseHeader(r.header)
	if err != nil {
		r.logger.WithFields(logrus.Fields{
			"header": fmt.Sprintf("% x", r.header[:]),
		}).Debug("Rejecting frame")
		return err
	}

	r.logger.WithFields(logrus.Fields{
		"length": h.Length,
		"words":  h.Words(),
	}).Debug("Frame header")

	for i := 0; i < h.Words(); i++ {
		if err := r.readFull(r.word[:]); err != nil {
			return fmt.Errorf("read word %d of %d: %w", i+1, h.Words(), err)
		}
		r.words++
		visit(r.word)
	}

	r.frames++
	return nil
}

// Stats returns the number of complete frames and words read so far
func (r *Reader) Stats() (frames, words uint64) {
	return r.frames, r.words
}

func (r *Reader) readFull(buf []byte) error {
	if r.dl != nil {
		if err := r.dl.SetReadDeadline(time.Now().Add(r.readTimeout)); err != nil {
			return fmt.Errorf("set read deadline: %w", err)
		}
	}
	_, err := io.ReadFull(r.r, buf)
	return err
}
