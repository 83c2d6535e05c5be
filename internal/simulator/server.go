package simulator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// Config describes a simulated gateway
type Config struct {
	ProbeAddr   string        // HTTP listen address, e.g. "127.0.0.1:0"
	DataAddr    string        // TCP listen address
	ProbePath   string        // ping endpoint
	Credential  string        // expected Basic-auth token; empty accepts anything
	ProbeStatus int           // status returned by a valid ping, 200 when zero
	ProbeDelay  time.Duration // artificial latency of the ping endpoint
	Feed        FeedFunc
}

// Server is a fake Aspen gateway: an HTTP ping endpoint and a framed TCP feed
type Server struct {
	cfg    Config
	logger *logrus.Logger

	httpLn  net.Listener
	dataLn  net.Listener
	httpSrv *http.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	pings    atomic.Int64
	sessions atomic.Int64
}

// New creates a simulator; call Start to begin listening
func New(cfg Config, logger *logrus.Logger) *Server {
	if cfg.ProbePath == "" {
		cfg.ProbePath = "/wdls/ping"
	}
	if cfg.ProbeStatus == 0 {
		cfg.ProbeStatus = http.StatusOK
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:    cfg,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start opens both listeners and begins serving
func (s *Server) Start() error {
	var err error

	s.httpLn, err = net.Listen("tcp", s.cfg.ProbeAddr)
	if err != nil {
		return fmt.Errorf("listen probe: %w", err)
	}

	s.dataLn, err = net.Listen("tcp", s.cfg.DataAddr)
	if err != nil {
		s.httpLn.Close()
		return fmt.Errorf("listen data: %w", err)
	}

	s.httpSrv = &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		if err := s.httpSrv.Serve(s.httpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("Simulator HTTP server failed")
		}
	}()
	go func() {
		defer s.wg.Done()
		s.acceptLoop()
	}()

	s.logger.WithFields(logrus.Fields{
		"probe": s.httpLn.Addr().String(),
		"data":  s.dataLn.Addr().String(),
	}).Info("Gateway simulator listening")
	return nil
}

// Run starts the simulator and blocks until ctx is done
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Close()
}

// Close stops both listeners and waits for open connections to finish
func (s *Server) Close() error {
	s.cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var err error
	if s.httpSrv != nil {
		err = s.httpSrv.Shutdown(shutdownCtx)
	}
	if s.dataLn != nil {
		s.dataLn.Close()
	}
	s.wg.Wait()
	return err
}

// ProbePort returns the bound HTTP port
func (s *Server) ProbePort() int {
	return s.httpLn.Addr().(*net.TCPAddr).Port
}

// DataPort returns the bound TCP data port
func (s *Server) DataPort() int {
	return s.dataLn.Addr().(*net.TCPAddr).Port
}

// Pings returns how many ping requests were received
func (s *Server) Pings() int {
	return int(s.pings.Load())
}

// Sessions returns how many data connections were accepted
func (s *Server) Sessions() int {
	return int(s.sessions.Load())
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get(s.cfg.ProbePath, s.handlePing)
	return r
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	s.pings.Add(1)

	if s.cfg.ProbeDelay > 0 {
		select {
		case <-time.After(s.cfg.ProbeDelay):
		case <-r.Context().Done():
			return
		}
	}

	if s.cfg.Credential != "" && r.Header.Get("Authorization") != "Basic "+s.cfg.Credential {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	w.WriteHeader(s.cfg.ProbeStatus)
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.dataLn.Accept()
		if err != nil {
			if s.ctx.Err() == nil {
				s.logger.WithError(err).Error("Simulator accept failed")
			}
			return
		}

		session := int(s.sessions.Add(1) - 1)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(conn, session)
		}()
	}
}

func (s *Server) serveConn(conn net.Conn, session int) {
	defer conn.Close()
	stop := context.AfterFunc(s.ctx, func() { conn.Close() })
	defer stop()

	log := s.logger.WithFields(logrus.Fields{
		"session": session,
		"remote":  conn.RemoteAddr().String(),
	})
	log.Debug("Simulator client connected")

	if s.cfg.Feed == nil {
		return
	}
	if err := s.cfg.Feed(s.ctx, conn, session); err != nil {
		log.WithError(err).Debug("Simulator feed ended")
	}
}
