package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dataops-studio/dataops-mcp/internal/client"
	"github.com/dataops-studio/dataops-mcp/internal/config"
	"github.com/dataops-studio/dataops-mcp/internal/journal"
	"github.com/dataops-studio/dataops-mcp/internal/logging"
	"github.com/dataops-studio/dataops-mcp/internal/mcp"
	"github.com/dataops-studio/dataops-mcp/internal/metrics"
	"github.com/dataops-studio/dataops-mcp/internal/telemetry"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

type serveFlags struct {
	configPath string
	overrides  config.Overrides
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags serveFlags

	root := &cobra.Command{
		Use:   "dataops-mcp",
		Short: "DataOps Studio MCP server",
		Long: "Exposes the DataOps Studio REST API to AI agents as MCP tools and resources.\n" +
			"Speaks MCP on stdin/stdout; logs go to stderr.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
	addServeFlags(root, &flags)

	serve := &cobra.Command{
		Use:          "serve",
		Short:        "Serve MCP over stdio (default)",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
	addServeFlags(serve, &flags)

	root.AddCommand(serve, newJournalCmd(), newVersionCmd())
	return root
}

func addServeFlags(cmd *cobra.Command, flags *serveFlags) {
	f := cmd.Flags()
	f.StringVar(&flags.configPath, "config", "", "path to a YAML config file (env "+config.EnvConfigPath+")")
	f.StringVar(&flags.overrides.APIBase, "api-base", "", "backend API base URL (env "+config.EnvAPIBase+")")
	f.StringVar(&flags.overrides.LogLevel, "log-level", "", "log level: debug, info, warn, error (env "+config.EnvLogLevel+")")
	f.StringVar(&flags.overrides.MetricsAddr, "metrics-addr", "", "serve Prometheus /metrics on this address (env "+config.EnvMetricsAddr+")")
	f.StringVar(&flags.overrides.JournalPath, "journal", "", "record calls to this SQLite file (env "+config.EnvJournalPath+")")
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Run: func(cmd *cobra.Command, _ []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}

func newJournalCmd() *cobra.Command {
	var configPath string
	var overrides config.Overrides

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Maintain the call journal database",
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (env "+config.EnvConfigPath+")")
	cmd.PersistentFlags().StringVar(&overrides.JournalPath, "journal", "", "journal SQLite file (env "+config.EnvJournalPath+")")

	rollback := &cobra.Command{
		Use:          "rollback",
		Short:        "Revert the newest journal schema migration",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath, overrides)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.JournalPath == "" {
				return fmt.Errorf("no journal configured: pass --journal or set %s", config.EnvJournalPath)
			}

			v, err := journal.Rollback(cmd.Context(), cfg.JournalPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Journal %s rolled back to schema %s\n", cfg.JournalPath, v)
			return nil
		},
	}
	cmd.AddCommand(rollback)
	return cmd
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "DataOps Studio MCP Server\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Build Mode: %s\n", journal.BuildMode)
	fmt.Fprintf(w, "SQLite Driver: %s\n", journal.DriverName)
}

func runServe(parent context.Context, flags serveFlags) error {
	cfg, err := config.Load(flags.configPath, flags.overrides)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupProvider(ctx, cfg.Tracing, version)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to set up tracing")
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn().Err(err).Msg("failed to flush traces")
		}
	}()

	rec := metrics.NewRecorder()
	if cfg.MetricsAddr != "" {
		ln, err := metrics.Listen(cfg.MetricsAddr)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to start metrics listener")
			return err
		}
		go func() {
			if err := rec.Serve(ctx, ln, logger); err != nil {
				logger.Error().Err(err).Str("addr", cfg.MetricsAddr).Msg("metrics listener stopped")
			}
		}()
	}

	api, err := client.New(cfg.APIBase,
		client.WithLogger(logger.With().Str("component", "client").Logger()),
		client.WithObserver(rec),
	)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create API client")
		return err
	}
	logger.Info().
		Str("version", version).
		Str("api_base", api.BaseURL()).
		Str("build_mode", journal.BuildMode).
		Msg("DataOps Studio MCP server starting")

	opts := mcp.Options{
		Logger:  logger.With().Str("component", "mcp").Logger(),
		Metrics: rec,
	}
	if cfg.JournalPath != "" {
		j, err := journal.Open(cfg.JournalPath)
		if err != nil {
			logger.Error().Err(err).Str("path", cfg.JournalPath).Msg("Failed to open call journal")
			return err
		}
		defer func() { _ = j.Close() }()
		opts.Journal = j
		logger.Info().Str("path", cfg.JournalPath).Str("driver", journal.DriverName).Msg("call journal enabled")
	}

	server, err := mcp.NewServer(api, opts)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create MCP server")
		return err
	}

	if err := server.Serve(ctx); err != nil {
		logger.Error().Err(err).Msg("Server error")
		return err
	}

	logStop(ctx, logger)
	return nil
}

func logStop(ctx context.Context, logger zerolog.Logger) {
	if ctx.Err() != nil {
		logger.Info().Msg("Received shutdown signal, server stopped")
		return
	}
	logger.Info().Msg("stdin closed, server stopped")
}
