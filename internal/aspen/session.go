package aspen

import (
	"context"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"go429/internal/arinc"
	"go429/internal/avionics"
	"go429/internal/framing"
)

// DialFunc opens the TCP data channel
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Session reads one connection's worth of frames from the gateway.
// A Session is used for a single Acquire call.
type Session struct {
	id          string
	addr        string
	readTimeout time.Duration
	budget      time.Duration
	labels      arinc.LabelTable
	dial        DialFunc
	now         func() time.Time
	logger      *logrus.Logger
}

// Outcome describes how a session ended
type Outcome string

const (
	OutcomeComplete   Outcome = "complete"
	OutcomeConnect    Outcome = "connect_failed"
	OutcomeStream     Outcome = "stream_error"
	OutcomeBudget     Outcome = "budget_elapsed"
	OutcomeCancelled  Outcome = "cancelled"
	OutcomeIncomplete Outcome = "incomplete"
)

// Acquire connects, reads frames until both quantities are known, the frame
// stream fails, the session budget elapses or ctx is done, and returns the
// sample when complete. The connection is always closed before returning.
func (s *Session) Acquire(ctx context.Context) *avionics.Data {
	data, _ := s.acquire(ctx)
	return data
}

func (s *Session) acquire(ctx context.Context) (*avionics.Data, Outcome) {
	log := s.logger.WithFields(logrus.Fields{
		"session": s.id,
		"addr":    s.addr,
	})

	dialCtx, cancel := context.WithTimeout(ctx, s.readTimeout)
	conn, err := s.dial(dialCtx, "tcp", s.addr)
	cancel()
	if err != nil {
		log.WithError(err).Warn("Gateway connection error")
		return nil, OutcomeConnect
	}
	defer conn.Close()

	// closing the connection is the only way to interrupt a blocked read
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	acc := avionics.NewAccumulator()
	reader := framing.NewReader(conn, s.readTimeout, s.logger)
	visit := func(w arinc.RawWord) {
		r, ok := s.labels.Decode(w)
		if !ok {
			return
		}
		log.WithFields(logrus.Fields{
			"label":    r.Label,
			"quantity": r.Quantity.String(),
			"value":    r.Value,
		}).Debug("ARINC-429 reading")
		acc.Observe(r)
	}

	start := s.now()
	outcome := OutcomeIncomplete
	for {
		if err := reader.ReadFrame(visit); err != nil {
			if ctx.Err() != nil {
				outcome = OutcomeCancelled
			} else {
				outcome = OutcomeStream
				log.WithError(err).Debug("Frame loop stopped")
			}
			break
		}
		if acc.Complete() {
			outcome = OutcomeComplete
			break
		}
		if s.now().Sub(start) >= s.budget {
			outcome = OutcomeBudget
			break
		}
		if ctx.Err() != nil {
			outcome = OutcomeCancelled
			break
		}
	}

	frames, words := reader.Stats()
	fields := logrus.Fields{
		"outcome":  string(outcome),
		"frames":   frames,
		"words":    words,
		"readings": acc.Observed(),
		"elapsed":  s.now().Sub(start).String(),
	}

	data, ok := acc.Data()
	if !ok {
		log.WithFields(fields).Debug("Session ended without a complete sample")
		return nil, outcome
	}

	log.WithFields(fields).WithFields(logrus.Fields{
		"altitude":     data.Altitude,
		"outside_temp": data.OutsideTemp,
	}).Debug("Session complete")
	return &data, OutcomeComplete
}

func newSessionID() string {
	return uuid.NewString()
}
