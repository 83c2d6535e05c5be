package simulator

import (
	"context"
	"io"
	"net"
	"time"

	"go429/internal/arinc"
	"go429/internal/avionics"
	"go429/internal/framing"
)

// FeedFunc writes the data stream for one client connection.
// session counts accepted connections from zero.
type FeedFunc func(ctx context.Context, conn net.Conn, session int) error

// LabelGroundSpeed is sent alongside the sample so clients see labels
// they do not decode
const LabelGroundSpeed = 312

// SampleFrame encodes one frame carrying altitude, an unrelated label and SAT
func SampleFrame(d avionics.Data) ([]byte, error) {
	alt, err := arinc.EncodeValue(arinc.LabelAltitude, d.Altitude, arinc.AltitudeRange)
	if err != nil {
		return nil, err
	}
	gs, err := arinc.Encode(LabelGroundSpeed, 0x1F40, false)
	if err != nil {
		return nil, err
	}
	sat, err := arinc.EncodeValue(arinc.LabelOutsideAirTemp, d.OutsideTemp, arinc.OutsideAirTempRange)
	if err != nil {
		return nil, err
	}
	return framing.Encode([]arinc.RawWord{alt, gs, sat})
}

// ValueFrame encodes one frame carrying a single scaled label value
func ValueFrame(label, value, r int) ([]byte, error) {
	w, err := arinc.EncodeValue(label, value, r)
	if err != nil {
		return nil, err
	}
	return framing.Encode([]arinc.RawWord{w})
}

// SampleFeed sends d every interval until the client goes away
func SampleFeed(d avionics.Data, interval time.Duration) (FeedFunc, error) {
	frame, err := SampleFrame(d)
	if err != nil {
		return nil, err
	}
	return RepeatFeed(interval, frame), nil
}

// RepeatFeed sends frame every interval until the client goes away
func RepeatFeed(interval time.Duration, frame []byte) FeedFunc {
	return func(ctx context.Context, conn net.Conn, _ int) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			if _, err := conn.Write(frame); err != nil {
				return err
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
	}
}

// BytesFeed writes chunks once and then keeps the connection open and idle
// until the client closes it
func BytesFeed(chunks ...[]byte) FeedFunc {
	return func(ctx context.Context, conn net.Conn, _ int) error {
		for _, c := range chunks {
			if _, err := conn.Write(c); err != nil {
				return err
			}
		}
		_, err := io.Copy(io.Discard, conn)
		return err
	}
}

// SequenceFeed serves feeds[n] to the n-th connection and the last feed to
// every connection after that
func SequenceFeed(feeds ...FeedFunc) FeedFunc {
	return func(ctx context.Context, conn net.Conn, session int) error {
		if len(feeds) == 0 {
			return nil
		}
		i := session
		if i >= len(feeds) {
			i = len(feeds) - 1
		}
		return feeds[i](ctx, conn, session)
	}
}
