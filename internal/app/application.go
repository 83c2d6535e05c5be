package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"go429/internal/aspen"
	"go429/internal/avionics"
	"go429/internal/logging"
	"go429/internal/poller"
	"go429/internal/publish"
	"go429/internal/simulator"
	"go429/internal/status"
)

// statsInterval is how often counters are logged while polling
const statsInterval = 30 * time.Second

// SimulatorOptions configures the simulate command
type SimulatorOptions struct {
	ProbeListen string
	DataListen  string
	Sample      avionics.Data
	Interval    time.Duration
}

// Application represents the main application
type Application struct {
	config    Config
	logger    *logrus.Logger
	logCloser io.Closer
	gateway   *aspen.Gateway
	poller    *poller.Poller
	status    *status.Server
	publisher *publish.NATSPublisher
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewApplication creates a new application instance
func NewApplication(config Config) (*Application, error) {
	logCfg := config.Log
	if config.Verbose {
		logCfg.Level = logrus.DebugLevel.String()
	}

	logger, closer, err := logging.New(logCfg, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Application{
		config:    config,
		logger:    logger,
		logCloser: closer,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Logger returns the application logger
func (app *Application) Logger() *logrus.Logger {
	return app.logger
}

// Start polls the gateway until SIGINT or SIGTERM
func (app *Application) Start() error {
	app.logger.WithFields(logrus.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
		"gateway":    app.config.Gateway.Address,
	}).Info("Starting Aspen gateway client")

	if err := app.initializeComponents(); err != nil {
		return fmt.Errorf("failed to initialize components: %w", err)
	}
	defer app.shutdown()

	app.handleSignals()

	if err := app.run(); err != nil {
		app.logger.WithError(err).Error("Application error")
		return err
	}
	return nil
}

// Stop cancels a running Start or Simulate
func (app *Application) Stop() {
	app.cancel()
}

// RequestOnce performs a single probe and session
func (app *Application) RequestOnce(ctx context.Context) (*avionics.Data, error) {
	defer app.logCloser.Close()

	if err := app.initializeGateway(); err != nil {
		return nil, err
	}
	return app.gateway.RequestData(ctx), nil
}

// Simulate runs a fake gateway until SIGINT or SIGTERM
func (app *Application) Simulate(opts SimulatorOptions) error {
	defer app.logCloser.Close()

	if opts.Interval <= 0 {
		opts.Interval = DefaultSimInterval
	}
	feed, err := simulator.SampleFeed(opts.Sample, opts.Interval)
	if err != nil {
		return fmt.Errorf("invalid simulated sample: %w", err)
	}

	sim := simulator.New(simulator.Config{
		ProbeAddr:  opts.ProbeListen,
		DataAddr:   opts.DataListen,
		ProbePath:  app.config.Gateway.ProbePath,
		Credential: app.config.Gateway.Credential,
		Feed:       feed,
	}, app.logger)

	app.handleSignals()
	app.logger.WithFields(logrus.Fields{
		"altitude":     opts.Sample.Altitude,
		"outside_temp": opts.Sample.OutsideTemp,
		"interval":     opts.Interval.String(),
	}).Info("Starting gateway simulator")
	return sim.Run(app.ctx)
}

// handleSignals cancels the application context on SIGINT or SIGTERM
func (app *Application) handleSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			app.logger.Info("Received shutdown signal")
			app.cancel()
		case <-app.ctx.Done():
		}
	}()
}

// initializeGateway builds the avionics source from configuration
func (app *Application) initializeGateway() error {
	labels, err := app.config.LabelTable()
	if err != nil {
		return fmt.Errorf("invalid label table: %w", err)
	}
	app.gateway = aspen.NewGateway(app.config.Gateway, labels, app.logger)
	return nil
}

// initializeComponents initializes all application components
func (app *Application) initializeComponents() error {
	if err := app.initializeGateway(); err != nil {
		return err
	}

	var publishers []poller.Publisher
	if app.config.NATS.URL != "" {
		pub, err := publish.Connect(app.config.NATS, app.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize publisher: %w", err)
		}
		app.publisher = pub
		publishers = append(publishers, pub)
	}

	app.poller = poller.New(app.gateway, app.config.Poll, app.logger, publishers...)

	if app.config.Status.Listen != "" {
		app.status = status.NewServer(app.config.Status, app.poller, app.logger)
	}

	return nil
}

// run runs the poller, status API and statistics until the context ends
func (app *Application) run() error {
	g, ctx := errgroup.WithContext(app.ctx)

	g.Go(func() error {
		return app.poller.Run(ctx)
	})

	if app.status != nil {
		g.Go(func() error {
			return app.status.Run(ctx)
		})
	}

	g.Go(func() error {
		app.reportStatistics(ctx)
		return nil
	})

	app.logger.Info("All components started successfully")
	return g.Wait()
}

// reportStatistics reports gateway statistics periodically
func (app *Application) reportStatistics(ctx context.Context) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			gw := app.gateway.Stats()
			st := app.poller.Status()

			fields := logrus.Fields{
				"requests":  gw.Requests,
				"absent":    gw.Absent,
				"sessions":  gw.Sessions,
				"successes": gw.Successes,
				"stale":     st.Stale,
			}
			if st.Latest != nil {
				fields["sample_age"] = st.Age.Round(time.Second).String()
			}
			if gw.Sessions > 0 {
				fields["session_success_rate"] = fmt.Sprintf("%.2f%%", float64(gw.Successes)/float64(gw.Sessions)*100)
			}
			app.logger.WithFields(fields).Info("Gateway statistics")
		}
	}
}

// shutdown releases resources
func (app *Application) shutdown() {
	app.logger.Info("Shutting down application")
	app.cancel()

	if app.publisher != nil {
		if err := app.publisher.Close(); err != nil {
			app.logger.WithError(err).Warn("Failed to close publisher")
		}
	}

	app.logger.Info("Shutdown completed")
	if app.logCloser != nil {
		app.logCloser.Close()
	}
}
