package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"time"

	"github.com/spf13/cobra"

	"github.com/vanshika/indexbench/internal/bench"
	"github.com/vanshika/indexbench/internal/report"
	"github.com/vanshika/indexbench/internal/results"
)

type runConfig struct {
	suitePath  string
	repeat     int
	format     string
	timeout    time.Duration
	searchTerm string
	noSinks    bool
}

func newRunCmd(a *app) *cobra.Command {
	var cfg runConfig

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a benchmark suite and print the comparison",
		Long: `Drop the suite's indexes, time every query, create the indexes, time the
queries again and finish with the full-text query. Individual query failures
are reported without failing the command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runBenchmark(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.suitePath, "suite", "",
		"Suite YAML file (default: built-in books suite)")
	flags.IntVar(&cfg.repeat, "repeat", 1,
		"Runs per query and phase; the median is reported")
	flags.StringVar(&cfg.format, "format", "markdown",
		"Report format: markdown or json")
	flags.DurationVar(&cfg.timeout, "timeout", 0,
		"Abort the whole run after this long (0 = no limit)")
	flags.StringVar(&cfg.searchTerm, "search-term", "",
		"Override the full-text search term")
	flags.BoolVar(&cfg.noSinks, "no-sinks", false,
		"Do not store or publish the finished run")

	return cmd
}

func (a *app) runBenchmark(ctx context.Context, out io.Writer, cfg runConfig) error {
	render, err := renderer(cfg.format)
	if err != nil {
		return err
	}
	if cfg.repeat < 1 {
		return fmt.Errorf("--repeat must be at least 1, got %d", cfg.repeat)
	}

	suite, err := loadSuite(cfg.suitePath)
	if err != nil {
		return err
	}
	if cfg.searchTerm != "" {
		params := maps.Clone(suite.FulltextParams)
		if params == nil {
			params = make(map[string]any, 1)
		}
		params["search_term"] = cfg.searchTerm
		suite.FulltextParams = params
	}

	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	h, cleanup, err := a.openHarness(ctx, bench.WithRepeat(cfg.repeat))
	if err != nil {
		return err
	}
	defer cleanup()

	a.logger.InfoContext(ctx, "starting benchmark",
		"suite", suite.Name,
		"queries", len(suite.Queries),
		"indexes", len(suite.Indexes),
		"repeat", cfg.repeat,
	)
	rep, runErr := h.Run(ctx, suite)
	if rep == nil {
		return runErr
	}

	if err := render(out, rep); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	if runErr != nil {
		return runErr
	}

	if !cfg.noSinks {
		a.deliver(ctx, results.FromReport(rep))
	}
	return nil
}

func renderer(format string) (func(io.Writer, *bench.SuiteReport) error, error) {
	switch format {
	case "markdown", "md", "":
		return report.Generate, nil
	case "json":
		return report.GenerateJSON, nil
	default:
		return nil, fmt.Errorf("unknown report format %q (want markdown or json)", format)
	}
}

// deliver sends run to every configured sink. Sink failures never fail the run.
func (a *app) deliver(ctx context.Context, run results.Run) {
	fanout := a.openSinks(ctx)
	if fanout.Len() == 0 {
		return
	}
	defer func() {
		if err := fanout.Close(); err != nil {
			a.logger.Warn("closing result sinks failed", "error", err)
		}
	}()
	_ = fanout.Send(ctx, run)
}

func (a *app) openSinks(ctx context.Context) *results.Fanout {
	var sinks []results.Sink
	rc := a.cfg.Results

	if rc.RedisAddr != "" {
		store, err := results.OpenRedisStore(ctx, results.RedisOptions{
			Addr:     rc.RedisAddr,
			Password: rc.RedisPassword,
			DB:       rc.RedisDB,
			Keep:     rc.RedisKeep,
		})
		if err != nil {
			a.logger.Warn("redis sink unavailable", "addr", rc.RedisAddr, "error", err)
		} else {
			sinks = append(sinks, store)
		}
	}

	if rc.NATSURL != "" {
		pub, err := results.ConnectNATS(rc.NATSURL, rc.NATSSubject)
		if err != nil {
			a.logger.Warn("nats sink unavailable", "url", rc.NATSURL, "error", err)
		} else {
			sinks = append(sinks, pub)
		}
	}

	return results.NewFanout(a.logger, sinks...)
}
