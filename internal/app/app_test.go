package app

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go429/internal/arinc"
	"go429/internal/aspen"
	"go429/internal/avionics"
	"go429/internal/simulator"
)

// TestDefaultConfig tests the configuration used without a file
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, aspen.DefaultConfig(), cfg.Gateway)
	assert.Equal(t, 5*time.Minute, cfg.Poll.MaxAge)
	assert.Equal(t, "info", cfg.Log.Level)

	table, err := cfg.LabelTable()
	require.NoError(t, err)
	assert.Equal(t, arinc.DefaultLabelTable(), table)
}

// TestLoadConfig tests YAML loading over defaults
func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		check   func(t *testing.T, cfg Config)
		wantErr bool
	}{
		{
			name: "Partial gateway override",
			yaml: `
gateway:
  address: 192.168.4.1
  socket_timeout: 5s
poll:
  interval: 2s
`,
			check: func(t *testing.T, cfg Config) {
				assert.Equal(t, "192.168.4.1", cfg.Gateway.Address)
				assert.Equal(t, 5*time.Second, cfg.Gateway.SocketTimeout)
				assert.Equal(t, aspen.DefaultProbePort, cfg.Gateway.ProbePort)
				assert.Equal(t, aspen.DefaultCredential, cfg.Gateway.Credential)
				assert.Equal(t, 2*time.Second, cfg.Poll.Interval)
				assert.Len(t, cfg.Labels, 2)
			},
		},
		{
			name: "Custom label table",
			yaml: `
labels:
  - label: 204
    quantity: altitude
    range: 131072
  - label: 213
    quantity: sat
    range: 512
`,
			check: func(t *testing.T, cfg Config) {
				table, err := cfg.LabelTable()
				require.NoError(t, err)
				assert.Contains(t, table, 204)
				assert.NotContains(t, table, 203)
			},
		},
		{
			name: "Unknown quantity",
			yaml: `
labels:
  - label: 203
    quantity: torque
    range: 100
`,
			wantErr: true,
		},
		{
			name:    "Bad port",
			yaml:    "gateway:\n  socket_port: 0\n",
			wantErr: true,
		},
		{
			name:    "Malformed YAML",
			yaml:    "gateway: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "go429.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0644))

			cfg, err := LoadConfig(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

// TestLoadConfig_MissingFile tests the error for a missing file
func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// TestLoadConfig_EnvOverrides tests environment variable overrides
func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("GO429_GATEWAY_ADDRESS", "10.0.0.9")
	t.Setenv("GO429_NATS_URL", "nats://127.0.0.1:4222")
	t.Setenv("GO429_LOG_LEVEL", "debug")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.9", cfg.Gateway.Address)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATS.URL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

// TestShowVersion tests the version display functionality
func TestShowVersion(t *testing.T) {
	var buf bytes.Buffer
	ShowVersion(&buf)
	assert.Contains(t, buf.String(), "Version: "+Version)
}

// TestNewApplication tests the application constructor
func TestNewApplication(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Verbose = true

	app, err := NewApplication(cfg)
	require.NoError(t, err)
	assert.NotNil(t, app.Logger())
	assert.Equal(t, "debug", app.Logger().GetLevel().String())

	cfg.Verbose = false
	cfg.Log.Level = "loud"
	_, err = NewApplication(cfg)
	assert.Error(t, err)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Gateway.Address = "127.0.0.1"
	cfg.Status.Listen = ""
	return cfg
}

// startSimulator serves want and points the application's gateway at it
func startSimulator(t *testing.T, app *Application, want avionics.Data) {
	t.Helper()
	feed, err := simulator.SampleFeed(want, 20*time.Millisecond)
	require.NoError(t, err)

	sim := simulator.New(simulator.Config{
		ProbeAddr:  "127.0.0.1:0",
		DataAddr:   "127.0.0.1:0",
		ProbePath:  app.config.Gateway.ProbePath,
		Credential: app.config.Gateway.Credential,
		Feed:       feed,
	}, app.logger)
	require.NoError(t, sim.Start())
	t.Cleanup(func() { sim.Close() })

	app.config.Gateway.ProbePort = sim.ProbePort()
	app.config.Gateway.SocketPort = sim.DataPort()
}

func quietApplication(t *testing.T, cfg Config) *Application {
	t.Helper()
	app, err := NewApplication(cfg)
	require.NoError(t, err)
	app.logger.SetOutput(io.Discard)
	return app
}

// TestApplication_RequestOnce tests a single request against a simulated gateway
func TestApplication_RequestOnce(t *testing.T) {
	want := avionics.Data{Altitude: 8000, OutsideTemp: 3}
	cfg := testConfig()

	app := quietApplication(t, cfg)
	startSimulator(t, app, want)

	got, err := app.RequestOnce(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)
}

// TestApplication_Run tests the polling loop end to end
func TestApplication_Run(t *testing.T) {
	want := avionics.Data{Altitude: 14500, OutsideTemp: -9}
	cfg := testConfig()
	cfg.Poll.Interval = 50 * time.Millisecond

	app := quietApplication(t, cfg)
	startSimulator(t, app, want)
	require.NoError(t, app.initializeComponents())

	done := make(chan error, 1)
	go func() { done <- app.run() }()

	assert.Eventually(t, func() bool {
		return app.poller.Status().Successes >= 2
	}, 5*time.Second, 20*time.Millisecond)

	app.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("application did not stop")
	}

	st := app.poller.Status()
	require.NotNil(t, st.Latest)
	assert.Equal(t, want, st.Latest.Data)
	assert.False(t, st.Stale)
}
