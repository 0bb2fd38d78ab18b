// Package main provides the indexbench CLI, which measures how much a set of
// graph indexes speeds up a suite of Cypher queries.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vanshika/indexbench/internal/bench"
	"github.com/vanshika/indexbench/internal/config"
	"github.com/vanshika/indexbench/internal/logging"
	"github.com/vanshika/indexbench/internal/observability"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root := newRootCmd(&app{stderr: os.Stderr})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "indexbench: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

type globalFlags struct {
	uri       string
	username  string
	password  string
	database  string
	logLevel  string
	logFormat string
}

// app carries what every subcommand needs once flags are parsed.
type app struct {
	stderr  io.Writer
	globals globalFlags
	cfg     config.Config
	logger  *slog.Logger
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "indexbench",
		Short: "Benchmark Cypher queries before and after index creation",
		Long: `indexbench drops a suite's indexes, times every query, creates the
indexes and times the queries again, then prints a before/after comparison.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.globals.uri, "uri", "",
		"Graph endpoint, e.g. neo4j://localhost:7687 (default $GRAPH_URI or $NEO4J_URI)")
	flags.StringVar(&a.globals.username, "username", "",
		"Database user (default $GRAPH_USERNAME or $NEO4J_USERNAME)")
	flags.StringVar(&a.globals.password, "password", "",
		"Database password (default $GRAPH_PASSWORD or $NEO4J_PASSWORD)")
	flags.StringVar(&a.globals.database, "database", "",
		"Database name (default: server default)")
	flags.StringVar(&a.globals.logLevel, "log-level", "",
		"Log level: debug, info, warn, error")
	flags.StringVar(&a.globals.logFormat, "log-format", "",
		"Log format: text or json")

	root.AddCommand(
		newRunCmd(a),
		newQueryCmd(a),
		newIndexesCmd(a),
		newSeedCmd(a),
		newHistoryCmd(a),
	)
	return root
}

// load reads the environment and applies flag overrides.
func (a *app) load() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	overrides := []struct {
		flag   string
		target *string
	}{
		{a.globals.uri, &cfg.Graph.URI},
		{a.globals.username, &cfg.Graph.Username},
		{a.globals.password, &cfg.Graph.Password},
		{a.globals.database, &cfg.Graph.Database},
		{a.globals.logLevel, &cfg.Logging.Level},
		{a.globals.logFormat, &cfg.Logging.Format},
	}
	for _, o := range overrides {
		if o.flag != "" {
			*o.target = o.flag
		}
	}

	stderr := a.stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	a.cfg = cfg
	a.logger = logging.NewWithWriter(stderr, cfg.Logging).With("component", "indexbench")
	return nil
}

// openHarness connects to the configured graph. The returned cleanup closes
// the harness and flushes traces.
func (a *app) openHarness(ctx context.Context, opts ...bench.Option) (*bench.Harness, func(), error) {
	if err := a.cfg.Graph.Validate(); err != nil {
		return nil, nil, err
	}

	tracer, shutdown, err := observability.SetupTracing(ctx, a.cfg.Tracing)
	if err != nil {
		return nil, nil, err
	}

	h, err := bench.Open(ctx, bench.Config{
		URI:            a.cfg.Graph.URI,
		Username:       a.cfg.Graph.Username,
		Password:       a.cfg.Graph.Password,
		Database:       a.cfg.Graph.Database,
		MaxConnections: a.cfg.Graph.MaxConnections,
		ConnectTimeout: a.cfg.Graph.ConnectTimeout,
		Tracer:         tracer,
	}, append([]bench.Option{bench.WithLogger(a.logger)}, opts...)...)
	if err != nil {
		_ = shutdown(context.Background())
		return nil, nil, err
	}
	a.logger.Info("connected to graph", "uri", a.cfg.Graph.URI, "database", a.cfg.Graph.Database)

	cleanup := func() {
		if err := h.Close(context.Background()); err != nil {
			a.logger.Warn("closing harness failed", "error", err)
		}
		if err := shutdown(context.Background()); err != nil {
			a.logger.Warn("flushing traces failed", "error", err)
		}
	}
	return h, cleanup, nil
}

func loadSuite(path string) (bench.Suite, error) {
	if path == "" {
		return bench.DefaultSuite()
	}
	return bench.LoadSuite(path)
}
