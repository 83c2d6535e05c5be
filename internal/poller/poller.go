package poller

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"go429/internal/avionics"
)

// Default polling parameters
const (
	DefaultInterval = 5 * time.Second
	DefaultMaxAge   = 5 * time.Minute // samples older than this are stale
)

// Config holds polling parameters
type Config struct {
	Interval time.Duration `yaml:"interval"`
	MaxAge   time.Duration `yaml:"max_age"`
}

// DefaultConfig returns the default polling parameters
func DefaultConfig() Config {
	return Config{
		Interval: DefaultInterval,
		MaxAge:   DefaultMaxAge,
	}
}

// Sample is a successful result stamped with the time it arrived
type Sample struct {
	Data       avionics.Data
	ReceivedAt time.Time
}

// Publisher receives every successful sample
type Publisher interface {
	Publish(ctx context.Context, s Sample) error
}

// Status is a snapshot of the poller state
type Status struct {
	Latest    *Sample
	Age       time.Duration
	Stale     bool
	Polls     uint64
	Successes uint64
	Failures  uint64
}

// Poller calls a Source on a fixed cadence and keeps the latest sample.
// Requests are issued one at a time from the Run goroutine.
type Poller struct {
	source     avionics.Source
	cfg        Config
	publishers []Publisher
	logger     *logrus.Logger
	now        func() time.Time

	mu        sync.RWMutex
	latest    *Sample
	polls     uint64
	successes uint64
	failures  uint64
}

// New creates a poller
func New(source avionics.Source, cfg Config, logger *logrus.Logger, publishers ...Publisher) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	return &Poller{
		source:     source,
		cfg:        cfg,
		publishers: publishers,
		logger:     logger,
		now:        time.Now,
	}
}

// Run polls immediately and then every interval until ctx is done
func (p *Poller) Run(ctx context.Context) error {
	p.logger.WithFields(logrus.Fields{
		"interval": p.cfg.Interval.String(),
		"max_age":  p.cfg.MaxAge.String(),
	}).Info("Starting avionics poller")

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		p.PollOnce(ctx)

		select {
		case <-ctx.Done():
			p.logger.Info("Avionics poller stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// PollOnce issues one request, records the outcome and publishes a success
func (p *Poller) PollOnce(ctx context.Context) *avionics.Data {
	data := p.source.RequestData(ctx)

	p.mu.Lock()
	p.polls++
	if data == nil {
		p.failures++
		p.mu.Unlock()

		if ctx.Err() == nil {
			p.logger.Debug("No avionics data this cycle")
		}
		return nil
	}
	sample := Sample{Data: *data, ReceivedAt: p.now()}
	p.latest = &sample
	p.successes++
	p.mu.Unlock()

	p.logger.WithFields(logrus.Fields{
		"altitude":     data.Altitude,
		"outside_temp": data.OutsideTemp,
	}).Info("Avionics data received")

	for _, pub := range p.publishers {
		if err := pub.Publish(ctx, sample); err != nil {
			p.logger.WithError(err).Warn("Failed to publish sample")
		}
	}
	return data
}

// Status returns the latest sample with its age and staleness
func (p *Poller) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	st := Status{
		Polls:     p.polls,
		Successes: p.successes,
		Failures:  p.failures,
		Stale:     true,
	}
	if p.latest != nil {
		latest := *p.latest
		st.Latest = &latest
		st.Age = p.now().Sub(latest.ReceivedAt)
		st.Stale = st.Age > p.cfg.MaxAge
	}
	return st
}
