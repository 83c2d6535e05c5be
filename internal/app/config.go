package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"go429/internal/arinc"
	"go429/internal/aspen"
	"go429/internal/logging"
	"go429/internal/poller"
	"go429/internal/publish"
	"go429/internal/status"
)

// Default simulator settings
const (
	DefaultSimProbeListen = ":8188"
	DefaultSimDataListen  = ":9399"
	DefaultSimAltitude    = 12500 // ft
	DefaultSimOutsideTemp = -10   // °C
	DefaultSimInterval    = 250 * time.Millisecond
)

// LabelConfig is one entry of the recognized-label table
type LabelConfig struct {
	Label    int    `yaml:"label"`
	Quantity string `yaml:"quantity"`
	Range    int    `yaml:"range"`
}

// Config holds application configuration
type Config struct {
	Gateway aspen.Config   `yaml:"gateway"`
	Labels  []LabelConfig  `yaml:"labels"`
	Poll    poller.Config  `yaml:"poll"`
	Status  status.Config  `yaml:"status"`
	NATS    publish.Config `yaml:"nats"`
	Log     logging.Config `yaml:"log"`

	Verbose     bool `yaml:"-"`
	ShowVersion bool `yaml:"-"`
}

// DefaultConfig returns the configuration used without a config file
func DefaultConfig() Config {
	return Config{
		Gateway: aspen.DefaultConfig(),
		Labels: []LabelConfig{
			{Label: arinc.LabelAltitude, Quantity: arinc.QuantityAltitude.String(), Range: arinc.AltitudeRange},
			{Label: arinc.LabelOutsideAirTemp, Quantity: arinc.QuantityOutsideAirTemp.String(), Range: arinc.OutsideAirTempRange},
		},
		Poll: poller.DefaultConfig(),
		Status: status.Config{
			Listen: status.DefaultListen,
		},
		NATS: publish.Config{
			Subject: publish.DefaultSubject,
		},
		Log: logging.DefaultConfig(),
	}
}

// LoadConfig reads a YAML file over the defaults and applies environment
// overrides. An empty path yields the defaults with overrides.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("GO429_GATEWAY_ADDRESS"); addr != "" {
		c.Gateway.Address = addr
	}
	if cred := os.Getenv("GO429_GATEWAY_CREDENTIAL"); cred != "" {
		c.Gateway.Credential = cred
	}
	if natsURL := os.Getenv("GO429_NATS_URL"); natsURL != "" {
		c.NATS.URL = natsURL
	}
	if level := os.Getenv("GO429_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// Validate checks the whole configuration
func (c Config) Validate() error {
	if err := c.Gateway.Validate(); err != nil {
		return fmt.Errorf("gateway: %w", err)
	}
	if _, err := c.LabelTable(); err != nil {
		return fmt.Errorf("labels: %w", err)
	}
	if c.Poll.Interval < 0 || c.Poll.MaxAge < 0 {
		return errors.New("poll: durations must not be negative")
	}
	return nil
}

// LabelTable builds the recognized-label table
func (c Config) LabelTable() (arinc.LabelTable, error) {
	specs := make([]arinc.LabelSpec, 0, len(c.Labels))
	for _, l := range c.Labels {
		q, err := arinc.ParseQuantity(l.Quantity)
		if err != nil {
			return nil, fmt.Errorf("label %03d: %w", l.Label, err)
		}
		specs = append(specs, arinc.LabelSpec{Label: l.Label, Quantity: q, Range: l.Range})
	}
	return arinc.NewLabelTable(specs)
}
