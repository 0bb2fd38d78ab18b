// Package report formats suite runs into before/after comparison tables.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/vanshika/indexbench/internal/bench"
)

// Row pairs the before and after timings of one query.
type Row struct {
	Query   string         `json:"query"`
	Rows    int            `json:"rows"`
	Before  *time.Duration `json:"before_ns,omitempty"`
	After   *time.Duration `json:"after_ns,omitempty"`
	Speedup float64        `json:"speedup,omitempty"`
	Errors  []string       `json:"errors,omitempty"`
}

// Document is the JSON form of a report.
type Document struct {
	Suite       string         `json:"suite"`
	StartedAt   time.Time      `json:"started_at"`
	DurationNs  time.Duration  `json:"duration_ns"`
	Repeat      int            `json:"repeat"`
	Queries     []Row          `json:"queries"`
	Fulltext    *FulltextEntry `json:"fulltext,omitempty"`
	IndexErrors []string       `json:"index_errors,omitempty"`
}

// FulltextEntry is the full-text query outcome.
type FulltextEntry struct {
	Query     string        `json:"query"`
	Rows      int           `json:"rows"`
	ElapsedNs time.Duration `json:"elapsed_ns"`
	Error     string        `json:"error,omitempty"`
}

// Generate writes a markdown comparison table for r.
func Generate(w io.Writer, r *bench.SuiteReport) error {
	if r == nil {
		return fmt.Errorf("no report to render")
	}
	doc := Build(r)

	title := doc.Suite
	if title == "" {
		title = "benchmark"
	}
	fmt.Fprintf(w, "## Index benchmark: %s\n", title)
	fmt.Fprintln(w)
	if doc.Repeat > 1 {
		fmt.Fprintf(w, "Median of %d runs per query.\n\n", doc.Repeat)
	}

	fmt.Fprintln(w, "| Query | Rows | Before | After | Speedup |")
	fmt.Fprintln(w, "|-------|------|--------|-------|---------|")
	for _, row := range doc.Queries {
		fmt.Fprintf(w, "| %s | %d | %s | %s | %s |\n",
			EscapeCell(row.Query),
			row.Rows,
			formatTiming(row.Before),
			formatTiming(row.After),
			formatSpeedup(row.Speedup),
		)
	}

	if ft := doc.Fulltext; ft != nil {
		fmt.Fprintln(w)
		if ft.Error != "" {
			fmt.Fprintf(w, "Full-text `%s`: **failed**\n", ft.Query)
		} else {
			fmt.Fprintf(w, "Full-text `%s`: %ss, %d rows\n", ft.Query, bench.FormatSeconds(ft.ElapsedNs), ft.Rows)
		}
	}

	errs := collectErrors(doc)
	if len(errs) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "### Errors")
		fmt.Fprintln(w)
		for _, e := range errs {
			fmt.Fprintf(w, "- %s\n", e)
		}
	}
	return nil
}

var cellEscaper = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ", "\r", " ")

// EscapeCell makes free text safe inside a markdown table cell.
func EscapeCell(s string) string {
	return cellEscaper.Replace(s)
}

// GenerateJSON writes r as indented JSON to w.
func GenerateJSON(w io.Writer, r *bench.SuiteReport) error {
	if r == nil {
		return fmt.Errorf("no report to render")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(Build(r))
}

// Build pairs the before and after phases by query name, keeping suite order.
func Build(r *bench.SuiteReport) Document {
	doc := Document{
		Suite:      r.Suite,
		StartedAt:  r.StartedAt,
		DurationNs: r.Duration,
		Repeat:     r.Repeat,
	}

	index := make(map[string]int)
	row := func(name string) *Row {
		if i, ok := index[name]; ok {
			return &doc.Queries[i]
		}
		index[name] = len(doc.Queries)
		doc.Queries = append(doc.Queries, Row{Query: name})
		return &doc.Queries[len(doc.Queries)-1]
	}

	for _, t := range r.Before {
		entry := row(t.Query)
		if t.Failed() {
			entry.Errors = append(entry.Errors, fmt.Sprintf("before: %v", t.Err))
			continue
		}
		elapsed := t.Elapsed
		entry.Before = &elapsed
		entry.Rows = t.RowCount
	}
	for _, t := range r.After {
		entry := row(t.Query)
		if t.Failed() {
			entry.Errors = append(entry.Errors, fmt.Sprintf("after: %v", t.Err))
			continue
		}
		elapsed := t.Elapsed
		entry.After = &elapsed
		entry.Rows = t.RowCount
	}
	for i := range doc.Queries {
		q := &doc.Queries[i]
		if q.Before != nil && q.After != nil && *q.After > 0 {
			q.Speedup = float64(*q.Before) / float64(*q.After)
		}
	}

	if ft := r.Fulltext; ft != nil {
		entry := &FulltextEntry{Query: ft.Query, Rows: ft.RowCount, ElapsedNs: ft.Elapsed}
		if ft.Failed() {
			entry.Error = ft.Err.Error()
		}
		doc.Fulltext = entry
	}
	for _, err := range r.IndexErrors {
		doc.IndexErrors = append(doc.IndexErrors, err.Error())
	}
	return doc
}

func collectErrors(doc Document) []string {
	var out []string
	for _, e := range doc.IndexErrors {
		out = append(out, "index: "+e)
	}
	for _, q := range doc.Queries {
		for _, e := range q.Errors {
			out = append(out, q.Query+" "+e)
		}
	}
	if doc.Fulltext != nil && doc.Fulltext.Error != "" {
		out = append(out, doc.Fulltext.Query+": "+doc.Fulltext.Error)
	}
	return out
}

func formatTiming(d *time.Duration) string {
	if d == nil {
		return "-"
	}
	return bench.FormatSeconds(*d) + "s"
}

func formatSpeedup(s float64) string {
	if s == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2fx", s)
}
