package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/telemetryfleet/collector-inspector/internal/config"
	"github.com/telemetryfleet/collector-inspector/internal/config/validation"
	"github.com/telemetryfleet/collector-inspector/internal/logger"
	"github.com/telemetryfleet/collector-inspector/internal/metrics"
	"github.com/telemetryfleet/collector-inspector/internal/server"
	"github.com/telemetryfleet/collector-inspector/internal/topology"
)

func main() {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:   "inspector",
		Short: "Collector configuration inspection engine",
		Long:  "Validates collector configurations and renders their pipeline topology.",
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	validateCmd := &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a collector configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args[0], newLogger(logLevel))
		},
	}

	var promAddress string

	topologyCmd := &cobra.Command{
		Use:   "topology <config-file>",
		Short: "Print the pipeline topology graph of a configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTopology(args[0], promAddress, newLogger(logLevel))
		},
	}

	topologyCmd.Flags().StringVar(&promAddress, "prometheus-address", "", "Prometheus base URL for live metrics enrichment")

	var listenAddress string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the inspection API for the dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(listenAddress, promAddress, newLogger(logLevel))
		},
	}

	serveCmd.Flags().StringVar(&listenAddress, "listen-address", ":8088", "Address to serve the inspection API on")
	serveCmd.Flags().StringVar(&promAddress, "prometheus-address", "", "Prometheus base URL for live metrics enrichment")

	rootCmd.AddCommand(validateCmd, topologyCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) *zap.Logger {
	atomicLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		atomicLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return logger.New(atomicLevel)
}

func runValidate(file string, log *zap.Logger) error {
	raw, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}

	cfg, err := config.Parse(string(raw))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", file, err)
	}

	runner := validation.NewRunner(validation.WithLogger(log))
	result := runner.Run(string(raw), cfg)

	if err := printJSON(result); err != nil {
		return err
	}

	if !result.Valid {
		os.Exit(1)
	}

	return nil
}

func runTopology(file, promAddress string, log *zap.Logger) error {
	raw, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}

	var records []metrics.ComponentMetrics

	if promAddress != "" {
		fetcher, err := metrics.NewFetcher(promAddress, metrics.WithFetcherLogger(log))
		if err != nil {
			return err
		}

		records, err = fetcher.FetchAll(context.Background(), pipelineTypes(string(raw)))
		if err != nil {
			log.Warn("failed to fetch component metrics, rendering topology without them", zap.Error(err))
			records = nil
		}
	}

	return printJSON(topology.Build(string(raw), records))
}

func runServe(listenAddress, promAddress string, log *zap.Logger) error {
	opts := []server.Option{server.WithLogger(log)}

	if promAddress != "" {
		fetcher, err := metrics.NewFetcher(promAddress, metrics.WithFetcherLogger(log))
		if err != nil {
			return err
		}

		opts = append(opts, server.WithMetricsFetcher(fetcher))
	}

	log.Info("Serving inspection API", zap.String("address", listenAddress))

	return server.New(opts...).Router().Run(listenAddress)
}

func pipelineTypes(raw string) []string {
	cfg, err := config.Parse(raw)
	if err != nil {
		return nil
	}

	return cfg.PipelineTypes()
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	return encoder.Encode(v)
}
