package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/vanshika/indexbench/internal/report"
	"github.com/vanshika/indexbench/internal/results"
)

var errNoHistoryStore = errors.New("RESULTS_REDIS_ADDR is not set; no run history is stored")

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs stored in Redis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.history(cmd.Context(), cmd.OutOrStdout(), limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of runs to show")
	return cmd
}

func (a *app) history(ctx context.Context, out io.Writer, limit int) error {
	rc := a.cfg.Results
	if rc.RedisAddr == "" {
		return errNoHistoryStore
	}
	store, err := results.OpenRedisStore(ctx, results.RedisOptions{
		Addr:     rc.RedisAddr,
		Password: rc.RedisPassword,
		DB:       rc.RedisDB,
		Keep:     rc.RedisKeep,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	return writeHistory(out, runs)
}

func writeHistory(out io.Writer, runs []results.Run) error {
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs recorded")
		return nil
	}

	fmt.Fprintln(out, "| Run | Suite | Started | Queries | Failed | Best speedup |")
	fmt.Fprintln(out, "|-----|-------|---------|---------|--------|--------------|")
	for _, run := range runs {
		failed, best := 0, 0.0
		for _, q := range run.Queries {
			if len(q.Errors) > 0 {
				failed++
			}
			best = max(best, q.Speedup)
		}
		fmt.Fprintf(out, "| %s | %s | %s | %d | %d | %.2fx |\n",
			run.ID,
			report.EscapeCell(run.Suite),
			run.StartedAt.Format(time.RFC3339),
			len(run.Queries),
			failed,
			best,
		)
	}
	return nil
}
