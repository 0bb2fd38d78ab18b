package bench

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/vanshika/indexbench/internal/graph"
)

// Phase labels when a query was timed relative to index creation.
type Phase string

const (
	PhaseBefore   Phase = "before"
	PhaseAfter    Phase = "after"
	PhaseFulltext Phase = "fulltext"
)

// Timing is the outcome of benchmarking one query in one phase.
type Timing struct {
	Query    string
	Phase    Phase
	Rows     []graph.Record
	RowCount int
	// Elapsed is the median of Samples.
	Elapsed time.Duration
	Samples []time.Duration
	// ServerTime is what the engine reported for the last sample.
	ServerTime time.Duration
	Err        error
}

// Failed reports whether the query errored.
func (t Timing) Failed() bool { return t.Err != nil }

// SuiteReport collects every timing of a suite run.
type SuiteReport struct {
	Suite       string
	StartedAt   time.Time
	Duration    time.Duration
	Repeat      int
	Before      []Timing
	After       []Timing
	Fulltext    *Timing
	IndexErrors []error
}

// Failures returns the timings that errored, in run order.
func (r *SuiteReport) Failures() []Timing {
	var out []Timing
	for _, t := range r.all() {
		if t.Failed() {
			out = append(out, t)
		}
	}
	return out
}

// Succeeded returns the number of timings that completed.
func (r *SuiteReport) Succeeded() int {
	n := 0
	for _, t := range r.all() {
		if !t.Failed() {
			n++
		}
	}
	return n
}

func (r *SuiteReport) all() []Timing {
	out := make([]Timing, 0, len(r.Before)+len(r.After)+1)
	out = append(out, r.Before...)
	out = append(out, r.After...)
	if r.Fulltext != nil {
		out = append(out, *r.Fulltext)
	}
	return out
}

// RunBenchmarkSuite drops the harness indexes, times queries, creates the
// indexes, times queries again and finally times the full-text query with
// fulltextParams. Failing queries are recorded and skipped; only connection
// loss, a closed harness, cancellation or a caller bug end the run early, in
// which case the partial report is returned with the error.
func (h *Harness) RunBenchmarkSuite(ctx context.Context, queries []NamedQuery, fulltext NamedQuery, fulltextParams map[string]any) (*SuiteReport, error) {
	return h.runSuite(ctx, "", h.indexes, queries, fulltext.WithParams(fulltextParams))
}

// Run executes s using its own index set.
func (h *Harness) Run(ctx context.Context, s Suite) (*SuiteReport, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid suite: %w", err)
	}
	return h.runSuite(ctx, s.Name, s.Indexes, s.Queries, s.Fulltext.WithParams(s.FulltextParams))
}

func (h *Harness) runSuite(ctx context.Context, name string, indexes []IndexDescriptor, queries []NamedQuery, fulltext NamedQuery) (*SuiteReport, error) {
	if err := h.ensureOpen("run suite"); err != nil {
		return nil, err
	}

	report := &SuiteReport{Suite: name, StartedAt: time.Now(), Repeat: h.repeat}
	start := h.clock()
	defer func() { report.Duration = h.clock().Sub(start) }()

	h.logger.Info("dropping existing indexes", "count", len(indexes))
	if err := h.DropIndexes(ctx, IndexNames(indexes)); err != nil {
		if IsFatal(err) {
			return report, err
		}
		report.IndexErrors = append(report.IndexErrors, unjoin(err)...)
	}

	before, err := h.runPhase(ctx, PhaseBefore, queries)
	report.Before = before
	if err != nil {
		return report, err
	}

	h.logger.Info("creating indexes", "count", len(indexes))
	if err := h.CreateIndexes(ctx, indexes); err != nil {
		if IsFatal(err) {
			return report, err
		}
		report.IndexErrors = append(report.IndexErrors, unjoin(err)...)
	}

	after, err := h.runPhase(ctx, PhaseAfter, queries)
	report.After = after
	if err != nil {
		return report, err
	}

	if fulltext.Cypher != "" {
		t, err := h.timeQuery(ctx, PhaseFulltext, fulltext)
		report.Fulltext = &t
		if err != nil {
			return report, err
		}
	}

	h.logger.Info("benchmark complete",
		"succeeded", report.Succeeded(),
		"failed", len(report.Failures()),
		"index_errors", len(report.IndexErrors),
	)
	return report, nil
}

func (h *Harness) runPhase(ctx context.Context, phase Phase, queries []NamedQuery) ([]Timing, error) {
	h.logger.Info("running phase", "phase", string(phase), "queries", len(queries))
	timings := make([]Timing, 0, len(queries))
	for _, q := range queries {
		t, err := h.timeQuery(ctx, phase, q)
		timings = append(timings, t)
		if err != nil {
			return timings, err
		}
	}
	return timings, nil
}

// timeQuery returns a non-nil error only when the run must stop; a rejected
// query is reported through Timing.Err.
func (h *Harness) timeQuery(ctx context.Context, phase Phase, q NamedQuery) (Timing, error) {
	t := Timing{Query: q.Name, Phase: phase}
	for i := 0; i < h.repeat; i++ {
		res, elapsed, err := h.executeTimed(ctx, q)
		if err != nil {
			var qe *QueryError
			if !errors.As(err, &qe) {
				t.Err = err
				return t, err
			}
			t.Err = qe
			h.logger.Error("query failed", "phase", string(phase), "query", q.Name, "error", qe.Err)
			return t, nil
		}
		t.Samples = append(t.Samples, elapsed)
		t.Rows = res.Records
		t.RowCount = len(res.Records)
		t.ServerTime = res.Summary.AvailableAfter + res.Summary.ConsumedAfter
	}
	t.Elapsed = median(t.Samples)

	h.logger.Info("query timed",
		"phase", string(phase),
		"query", q.Name,
		"elapsed", FormatSeconds(t.Elapsed),
		"rows", t.RowCount,
	)
	return t, nil
}

// FormatSeconds renders d as seconds with ten decimals.
func FormatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.10f", d.Seconds())
}

func median(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := slices.Clone(samples)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func unjoin(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
