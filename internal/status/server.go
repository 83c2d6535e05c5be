package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"go429/internal/poller"
)

// DefaultListen is the default status API address
const DefaultListen = "127.0.0.1:8429"

// Config holds status API settings; an empty Listen disables the server
type Config struct {
	Listen         string   `yaml:"listen"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// StatusProvider is implemented by poller.Poller
type StatusProvider interface {
	Status() poller.Status
}

// Response is the JSON body of the avionics endpoint.
// Pointer fields are null until the first sample arrives.
type Response struct {
	Altitude    *int       `json:"altitude"`
	OutsideTemp *int       `json:"outside_temp"`
	ReceivedAt  *time.Time `json:"received_at"`
	AgeSeconds  *float64   `json:"age_seconds"`
	Stale       bool       `json:"stale"`
	Polls       uint64     `json:"polls"`
	Successes   uint64     `json:"successes"`
	Failures    uint64     `json:"failures"`
}

// NewResponse converts a poller status to its JSON form
func NewResponse(st poller.Status) Response {
	resp := Response{
		Stale:     st.Stale,
		Polls:     st.Polls,
		Successes: st.Successes,
		Failures:  st.Failures,
	}
	if st.Latest != nil {
		alt := st.Latest.Data.Altitude
		oat := st.Latest.Data.OutsideTemp
		at := st.Latest.ReceivedAt.UTC()
		age := st.Age.Seconds()
		resp.Altitude = &alt
		resp.OutsideTemp = &oat
		resp.ReceivedAt = &at
		resp.AgeSeconds = &age
	}
	return resp
}

// Server exposes the latest avionics sample over HTTP
type Server struct {
	cfg      Config
	provider StatusProvider
	logger   *logrus.Logger
	srv      *http.Server
}

// NewServer creates a status server
func NewServer(cfg Config, provider StatusProvider, logger *logrus.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		provider: provider,
		logger:   logger,
	}
	s.srv = &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Routes returns the HTTP handler
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/avionics", s.handleAvionics)
	})
	return r
}

func (s *Server) handleAvionics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(NewResponse(s.provider.Status())); err != nil {
		s.logger.WithError(err).Debug("Failed to write status response")
	}
}

// Run serves until ctx is done
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("status listen: %w", err)
	}
	s.logger.WithField("addr", ln.Addr().String()).Info("Status API listening")

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("status server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("status shutdown: %w", err)
	}
	return nil
}
