package aspen

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"go429/internal/arinc"
	"go429/internal/avionics"
)

// Gateway is the Aspen CG100 implementation of avionics.Source:
// an HTTP ping followed by ARINC-429 words over TCP.
type Gateway struct {
	cfg    Config
	labels arinc.LabelTable
	probe  *Probe
	dial   DialFunc
	now    func() time.Time
	logger *logrus.Logger

	requests  atomic.Uint64
	absent    atomic.Uint64
	sessions  atomic.Uint64
	successes atomic.Uint64
}

var _ avionics.Source = (*Gateway)(nil)

// Stats are counters over the lifetime of a Gateway
type Stats struct {
	Requests  uint64 // RequestData calls
	Absent    uint64 // probe reported no gateway
	Sessions  uint64 // TCP sessions attempted
	Successes uint64 // complete samples returned
}

// NewGateway creates a gateway source. A nil label table selects the
// default altitude and SAT labels.
func NewGateway(cfg Config, labels arinc.LabelTable, logger *logrus.Logger) *Gateway {
	if labels == nil {
		labels = arinc.DefaultLabelTable()
	}
	dialer := &net.Dialer{}
	return &Gateway{
		cfg:    cfg,
		labels: labels,
		probe:  NewProbe(cfg, logger),
		dial:   dialer.DialContext,
		now:    time.Now,
		logger: logger,
	}
}

// RequestData probes the gateway and, when present, reads one sample.
// It returns nil when the gateway is absent or the sample is incomplete.
func (g *Gateway) RequestData(ctx context.Context) *avionics.Data {
	g.requests.Add(1)

	if !g.probe.Probe(ctx) {
		g.absent.Add(1)
		return nil
	}

	g.sessions.Add(1)
	data := g.NewSession().Acquire(ctx)
	if data != nil {
		g.successes.Add(1)
	}
	return data
}

// NewSession creates a session with a fresh accumulator
func (g *Gateway) NewSession() *Session {
	return &Session{
		id:          newSessionID(),
		addr:        g.cfg.DataAddr(),
		readTimeout: g.cfg.SocketTimeout,
		budget:      g.cfg.SessionTimeout,
		labels:      g.labels,
		dial:        g.dial,
		now:         g.now,
		logger:      g.logger,
	}
}

// Stats returns a snapshot of the gateway counters
func (g *Gateway) Stats() Stats {
	return Stats{
		Requests:  g.requests.Load(),
		Absent:    g.absent.Load(),
		Sessions:  g.sessions.Load(),
		Successes: g.successes.Load(),
	}
}
