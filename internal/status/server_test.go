package status

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go429/internal/avionics"
	"go429/internal/poller"
)

type fixedProvider struct {
	status poller.Status
}

func (f fixedProvider) Status() poller.Status {
	return f.status
}

func newTestServer(st poller.Status, origins ...string) *httptest.Server {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	s := NewServer(Config{AllowedOrigins: origins}, fixedProvider{status: st}, logger)
	return httptest.NewServer(s.Routes())
}

// TestAvionics_NoSample tests the response before any sample arrived
func TestAvionics_NoSample(t *testing.T) {
	ts := newTestServer(poller.Status{Stale: true, Polls: 4, Failures: 4})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/avionics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"altitude": null,
		"outside_temp": null,
		"received_at": null,
		"age_seconds": null,
		"stale": true,
		"polls": 4,
		"successes": 0,
		"failures": 4
	}`, string(body))
}

// TestAvionics_WithSample tests the response carrying a sample
func TestAvionics_WithSample(t *testing.T) {
	at := time.Date(2024, 6, 2, 8, 0, 0, 0, time.UTC)
	ts := newTestServer(poller.Status{
		Latest: &poller.Sample{
			Data:       avionics.Data{Altitude: 21000, OutsideTemp: -22},
			ReceivedAt: at,
		},
		Age:       90 * time.Second,
		Polls:     10,
		Successes: 7,
		Failures:  3,
	})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/avionics")
	require.NoError(t, err)
	defer resp.Body.Close()

	var got Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.NotNil(t, got.Altitude)
	require.NotNil(t, got.OutsideTemp)
	require.NotNil(t, got.AgeSeconds)
	require.NotNil(t, got.ReceivedAt)
	assert.Equal(t, 21000, *got.Altitude)
	assert.Equal(t, -22, *got.OutsideTemp)
	assert.Equal(t, 90.0, *got.AgeSeconds)
	assert.True(t, at.Equal(*got.ReceivedAt))
	assert.False(t, got.Stale)
	assert.Equal(t, uint64(7), got.Successes)
}

// TestHealthz tests the liveness endpoint
func TestHealthz(t *testing.T) {
	ts := newTestServer(poller.Status{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

// TestCORS tests allowed origins on the status API
func TestCORS(t *testing.T) {
	ts := newTestServer(poller.Status{}, "http://efb.local")
	defer ts.Close()

	tests := []struct {
		name     string
		origin   string
		expected string
	}{
		{name: "Allowed origin", origin: "http://efb.local", expected: "http://efb.local"},
		{name: "Other origin", origin: "http://evil.example", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/avionics", nil)
			require.NoError(t, err)
			req.Header.Set("Origin", tt.origin)

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.expected, resp.Header.Get("Access-Control-Allow-Origin"))
		})
	}
}
