package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"go429/internal/app"
	"go429/internal/avionics"
)

// errNoData is returned by the once command when no sample was obtained
var errNoData = errors.New("no avionics data")

type options struct {
	configFile string
	verbose    bool

	address      string
	interval     time.Duration
	statusListen string
	natsURL      string

	sim app.SimulatorOptions
}

func main() {
	if err := newRootCommand(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	var (
		opts        options
		showVersion bool
	)

	rootCmd := &cobra.Command{
		Use:   "go429",
		Short: "Aspen CG100 avionics gateway client",
		Long: `Client for the Aspen CG100 Wi-Fi avionics gateway.

Probes the gateway's HTTP ping endpoint, then reads ARINC-429 words from its
framed TCP feed and decodes barometric altitude (label 203) and outside air
temperature (label 213).

Example usage:
  go429 poll --config go429.yaml
  go429 once --address 10.22.44.1
  go429 simulate --altitude 12500 --oat -10`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				app.ShowVersion(out)
				return nil
			}
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show version information")

	rootCmd.AddCommand(newPollCommand(&opts), newOnceCommand(&opts, out), newSimulateCommand(&opts))
	return rootCmd
}

func newPollCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Poll the gateway continuously and serve the latest sample",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			application, err := app.NewApplication(config)
			if err != nil {
				return err
			}
			return application.Start()
		},
	}

	cmd.Flags().StringVarP(&opts.address, "address", "a", "", "Gateway address (overrides config)")
	cmd.Flags().DurationVarP(&opts.interval, "interval", "i", 0, "Polling interval (overrides config)")
	cmd.Flags().StringVar(&opts.statusListen, "status-listen", "", "Status API listen address, \"off\" to disable (overrides config)")
	cmd.Flags().StringVar(&opts.natsURL, "nats-url", "", "NATS server URL for sample publication (overrides config)")
	return cmd
}

func newOnceCommand(opts *options, out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "once",
		Short: "Request one sample and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			application, err := app.NewApplication(config)
			if err != nil {
				return err
			}
			data, err := application.RequestOnce(context.Background())
			if err != nil {
				return err
			}
			return printData(out, data)
		},
	}

	cmd.Flags().StringVarP(&opts.address, "address", "a", "", "Gateway address (overrides config)")
	return cmd
}

func newSimulateCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a fake gateway serving a fixed sample",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			application, err := app.NewApplication(config)
			if err != nil {
				return err
			}
			return application.Simulate(opts.sim)
		},
	}

	cmd.Flags().StringVar(&opts.sim.ProbeListen, "probe-listen", app.DefaultSimProbeListen, "HTTP ping listen address")
	cmd.Flags().StringVar(&opts.sim.DataListen, "data-listen", app.DefaultSimDataListen, "TCP feed listen address")
	cmd.Flags().IntVar(&opts.sim.Sample.Altitude, "altitude", app.DefaultSimAltitude, "Simulated altitude (ft)")
	cmd.Flags().IntVar(&opts.sim.Sample.OutsideTemp, "oat", app.DefaultSimOutsideTemp, "Simulated outside air temperature (°C)")
	cmd.Flags().DurationVar(&opts.sim.Interval, "interval", app.DefaultSimInterval, "Frame interval")
	return cmd
}

// loadConfig reads the config file and applies command-line overrides
func loadConfig(cmd *cobra.Command, opts *options) (app.Config, error) {
	config, err := app.LoadConfig(opts.configFile)
	if err != nil {
		return config, err
	}

	config.Verbose = opts.verbose

	flags := cmd.Flags()
	if flags.Changed("address") {
		config.Gateway.Address = opts.address
	}
	if cmd.Name() == "poll" && flags.Changed("interval") {
		config.Poll.Interval = opts.interval
	}
	if flags.Changed("status-listen") {
		config.Status.Listen = opts.statusListen
		if opts.statusListen == "off" {
			config.Status.Listen = ""
		}
	}
	if flags.Changed("nats-url") {
		config.NATS.URL = opts.natsURL
	}

	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

// printData writes the sample as JSON, failing when there is none
func printData(out io.Writer, data *avionics.Data) error {
	if data == nil {
		return errNoData
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
