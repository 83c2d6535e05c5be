package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"go429/internal/poller"
)

// DefaultSubject is the subject samples are published on
const DefaultSubject = "avionics.aspen"

// Config holds NATS settings; an empty URL disables publishing
type Config struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
	Name    string `yaml:"name"`
}

// Message is the JSON payload of a published sample
type Message struct {
	Altitude    int       `json:"altitude"`
	OutsideTemp int       `json:"outside_temp"`
	ReceivedAt  time.Time `json:"received_at"`
}

// NewMessage converts a poller sample to its wire payload
func NewMessage(s poller.Sample) Message {
	return Message{
		Altitude:    s.Data.Altitude,
		OutsideTemp: s.Data.OutsideTemp,
		ReceivedAt:  s.ReceivedAt.UTC(),
	}
}

// NATSPublisher publishes samples to a NATS subject
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	logger  *logrus.Logger
}

var _ poller.Publisher = (*NATSPublisher)(nil)

// Connect dials the NATS server
func Connect(cfg Config, logger *logrus.Logger) (*NATSPublisher, error) {
	if cfg.Subject == "" {
		cfg.Subject = DefaultSubject
	}
	if cfg.Name == "" {
		cfg.Name = "go429"
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.WithError(err).Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.WithField("url", c.ConnectedUrl()).Info("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"url":     nc.ConnectedUrl(),
		"subject": cfg.Subject,
	}).Info("Connected to NATS")

	return &NATSPublisher{conn: nc, subject: cfg.Subject, logger: logger}, nil
}

// Publish sends one sample
func (p *NATSPublisher) Publish(_ context.Context, s poller.Sample) error {
	payload, err := json.Marshal(NewMessage(s))
	if err != nil {
		return fmt.Errorf("marshal sample: %w", err)
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("publish to %s: %w", p.subject, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection
func (p *NATSPublisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return fmt.Errorf("drain NATS connection: %w", err)
	}
	return nil
}
