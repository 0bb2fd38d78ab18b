// Package results persists and publishes finished benchmark runs.
package results

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/vanshika/indexbench/internal/bench"
	"github.com/vanshika/indexbench/internal/report"
)

// Run is the stored summary of one suite run.
type Run struct {
	ID string `json:"id"`
	report.Document
}

// FromReport assigns a fresh run ID to r.
func FromReport(r *bench.SuiteReport) Run {
	return Run{ID: uuid.NewString(), Document: report.Build(r)}
}

// Sink receives finished runs.
type Sink interface {
	Name() string
	Send(ctx context.Context, run Run) error
	Close() error
}

// Fanout delivers a run to every sink. A failing sink is logged and skipped.
type Fanout struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewFanout returns a Fanout over sinks.
func NewFanout(logger *slog.Logger, sinks ...Sink) *Fanout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fanout{sinks: sinks, logger: logger}
}

// Len reports how many sinks are configured.
func (f *Fanout) Len() int { return len(f.sinks) }

// Send delivers run to each sink and returns the joined failures.
func (f *Fanout) Send(ctx context.Context, run Run) error {
	var errs []error
	for _, sink := range f.sinks {
		if err := sink.Send(ctx, run); err != nil {
			f.logger.Warn("result sink failed", "sink", sink.Name(), "run_id", run.ID, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
			continue
		}
		f.logger.Info("run delivered", "sink", sink.Name(), "run_id", run.ID)
	}
	return errors.Join(errs...)
}

// Close closes every sink.
func (f *Fanout) Close() error {
	var errs []error
	for _, sink := range f.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}
