package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go429/internal/aspen"
	"go429/internal/avionics"
	"go429/internal/simulator"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "go429.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestVersionFlag tests the version output
func TestVersionFlag(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCommand(&out)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Version:")
}

// TestPrintData tests JSON output of the once command
func TestPrintData(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printData(&out, &avionics.Data{Altitude: 11000, OutsideTemp: -7}))
	assert.JSONEq(t, `{"altitude":11000,"outside_temp":-7}`, out.String())

	err := printData(&out, nil)
	assert.True(t, errors.Is(err, errNoData))
}

// TestLoadConfig_Overrides tests that flags override the config file
func TestLoadConfig_Overrides(t *testing.T) {
	path := writeConfig(t, "gateway:\n  address: 10.1.1.1\npoll:\n  interval: 9s\n")

	tests := []struct {
		name     string
		args     []string
		address  string
		interval time.Duration
		status   string
		natsURL  string
	}{
		{
			name:     "File only",
			args:     []string{"--config", path},
			address:  "10.1.1.1",
			interval: 9 * time.Second,
			status:   "127.0.0.1:8429",
		},
		{
			name:     "Flags win",
			args:     []string{"--config", path, "--address", "10.2.2.2", "--interval", "3s", "--nats-url", "nats://127.0.0.1:4222"},
			address:  "10.2.2.2",
			interval: 3 * time.Second,
			status:   "127.0.0.1:8429",
			natsURL:  "nats://127.0.0.1:4222",
		},
		{
			name:     "Status disabled",
			args:     []string{"--config", path, "--status-listen", "off"},
			address:  "10.1.1.1",
			interval: 9 * time.Second,
			status:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts options
			cmd := newPollCommand(&opts)
			cmd.Flags().StringVarP(&opts.configFile, "config", "c", "", "")
			require.NoError(t, cmd.ParseFlags(tt.args))

			cfg, err := loadConfig(cmd, &opts)
			require.NoError(t, err)
			assert.Equal(t, tt.address, cfg.Gateway.Address)
			assert.Equal(t, tt.interval, cfg.Poll.Interval)
			assert.Equal(t, tt.status, cfg.Status.Listen)
			assert.Equal(t, tt.natsURL, cfg.NATS.URL)
		})
	}
}

// TestOnceCommand tests a single request against a simulated gateway
func TestOnceCommand(t *testing.T) {
	want := avionics.Data{Altitude: 16500, OutsideTemp: -14}
	feed, err := simulator.SampleFeed(want, 20*time.Millisecond)
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	sim := simulator.New(simulator.Config{
		ProbeAddr:  "127.0.0.1:0",
		DataAddr:   "127.0.0.1:0",
		ProbePath:  aspen.DefaultProbePath,
		Credential: aspen.DefaultCredential,
		Feed:       feed,
	}, logger)
	require.NoError(t, sim.Start())
	defer sim.Close()

	path := writeConfig(t, fmt.Sprintf(`
gateway:
  address: 127.0.0.1
  probe_port: %d
  socket_port: %d
log:
  level: error
`, sim.ProbePort(), sim.DataPort()))

	var out bytes.Buffer
	cmd := newRootCommand(&out)
	cmd.SetArgs([]string{"once", "--config", path})
	require.NoError(t, cmd.Execute())

	var got avionics.Data
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, want, got)
}
