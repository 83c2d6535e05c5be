package aspen

import (
	"context"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Probe checks whether a gateway answers on its HTTP ping endpoint
type Probe struct {
	client     *http.Client
	url        string
	credential string
	logger     *logrus.Logger
}

// NewProbe creates a probe. The underlying http.Client is shared by all calls.
func NewProbe(cfg Config, logger *logrus.Logger) *Probe {
	return &Probe{
		client:     &http.Client{Timeout: cfg.ProbeTimeout},
		url:        cfg.ProbeURL(),
		credential: cfg.Credential,
		logger:     logger,
	}
}

// Probe reports whether the gateway responded with a 2xx status.
// Timeouts, connection errors and other statuses all report false.
func (p *Probe) Probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		p.logger.WithError(err).Error("Failed to build probe request")
		return false
	}
	req.Header.Set("Authorization", "Basic "+p.credential)

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.WithError(err).WithField("url", p.url).Debug("Gateway probe failed")
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.logger.WithFields(logrus.Fields{
			"url":    p.url,
			"status": resp.StatusCode,
		}).Debug("Gateway probe rejected")
		return false
	}

	p.logger.WithField("url", p.url).Debug("Found gateway")
	return true
}
