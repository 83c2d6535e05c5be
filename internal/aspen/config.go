package aspen

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Factory settings of the Aspen CG100 gateway
const (
	DefaultAddress        = "10.22.44.1"
	DefaultProbePort      = 8188
	DefaultProbePath      = "/wdls/ping"
	DefaultSocketPort     = 9399
	DefaultProbeTimeout   = 1 * time.Second
	DefaultSocketTimeout  = 3 * time.Second
	DefaultSessionTimeout = 3 * time.Second
	DefaultCredential     = "SG9uZXl3ZWxsUDpYUmZ0UFprUXkyZVpiSmphNjVuc0pVMis="
)

// Config holds the network parameters of one gateway
type Config struct {
	Address        string        `yaml:"address"`
	ProbePort      int           `yaml:"probe_port"`
	ProbePath      string        `yaml:"probe_path"`
	SocketPort     int           `yaml:"socket_port"`
	ProbeTimeout   time.Duration `yaml:"probe_timeout"`
	SocketTimeout  time.Duration `yaml:"socket_timeout"`  // per blocking read
	SessionTimeout time.Duration `yaml:"session_timeout"` // whole frame loop
	Credential     string        `yaml:"credential"`      // base64 Basic-auth token
}

// DefaultConfig returns the gateway factory settings
func DefaultConfig() Config {
	return Config{
		Address:        DefaultAddress,
		ProbePort:      DefaultProbePort,
		ProbePath:      DefaultProbePath,
		SocketPort:     DefaultSocketPort,
		ProbeTimeout:   DefaultProbeTimeout,
		SocketTimeout:  DefaultSocketTimeout,
		SessionTimeout: DefaultSessionTimeout,
		Credential:     DefaultCredential,
	}
}

// Validate checks the configuration for obvious mistakes
func (c Config) Validate() error {
	if c.Address == "" {
		return errors.New("gateway address is empty")
	}
	if err := validPort(c.ProbePort); err != nil {
		return fmt.Errorf("probe port: %w", err)
	}
	if err := validPort(c.SocketPort); err != nil {
		return fmt.Errorf("socket port: %w", err)
	}
	if c.ProbePath == "" || c.ProbePath[0] != '/' {
		return fmt.Errorf("probe path %q must start with /", c.ProbePath)
	}
	if c.ProbeTimeout <= 0 || c.SocketTimeout <= 0 || c.SessionTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	return nil
}

// ProbeURL returns the URL of the ping endpoint
func (c Config) ProbeURL() string {
	return "http://" + net.JoinHostPort(c.Address, strconv.Itoa(c.ProbePort)) + c.ProbePath
}

// DataAddr returns the host:port of the TCP data channel
func (c Config) DataAddr() string {
	return net.JoinHostPort(c.Address, strconv.Itoa(c.SocketPort))
}

func validPort(p int) error {
	if p <= 0 || p > 65535 {
		return fmt.Errorf("invalid port %d", p)
	}
	return nil
}
