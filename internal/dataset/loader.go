package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/vanshika/indexbench/internal/graph"
)

// UpsertBooksCypher merges a batch of books by id.
const UpsertBooksCypher = `UNWIND $books AS b
MERGE (x:Book {id: b.id})
SET x += b`

const (
	defaultBatchSize = 1000
	defaultWorkers   = 4
)

// TaskError accumulates the batch failures of one load.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d batches failed:", len(e.Errors))
	for _, err := range e.Errors {
		msg += " " + err.Error() + ";"
	}
	return msg
}

// Unwrap exposes the batch failures to errors.Is and errors.As.
func (e *TaskError) Unwrap() []error { return e.Errors }

func (e *TaskError) append(err error) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err)
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// BulkLoader writes books to the graph in batches using a worker pool.
type BulkLoader struct {
	client    graph.Client
	logger    *slog.Logger
	batchSize int
	workers   int
}

// NewBulkLoader creates a BulkLoader. Non-positive sizes fall back to defaults.
func NewBulkLoader(client graph.Client, logger *slog.Logger, batchSize, workers int) *BulkLoader {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if workers <= 0 {
		workers = defaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BulkLoader{client: client, logger: logger, batchSize: batchSize, workers: workers}
}

// Load upserts every book and returns how many were written.
func (bl *BulkLoader) Load(ctx context.Context, books []Book) (int, error) {
	batches := chunk(books, bl.batchSize)
	var written atomic.Int64

	err := bl.run(ctx, len(batches), func(idx int) error {
		batch := batches[idx]
		rows := make([]any, len(batch))
		for i, b := range batch {
			rows[i] = b.Properties()
		}
		if _, err := bl.client.ExecuteWrite(ctx, UpsertBooksCypher, map[string]any{"books": rows}); err != nil {
			return fmt.Errorf("batch %d: %w", idx, err)
		}
		n := written.Add(int64(len(batch)))
		bl.logger.Debug("batch loaded", "batch", idx, "size", len(batch), "written", n)
		return nil
	})
	return int(written.Load()), err
}

// run hands every batch index to bl.workers goroutines. Failures are kept per
// batch and reported in batch order; cancellation outranks them.
func (bl *BulkLoader) run(ctx context.Context, total int, load func(idx int) error) error {
	pending := make(chan int, total)
	for i := 0; i < total; i++ {
		pending <- i
	}
	close(pending)

	failures := make([]error, total)
	var wg sync.WaitGroup
	for n := min(bl.workers, total); n > 0; n-- {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range pending {
				if ctx.Err() != nil {
					return
				}
				failures[idx] = load(idx)
			}
		}()
	}
	wg.Wait()

	var taskErr TaskError
	for _, err := range append(failures, ctx.Err()) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		taskErr.append(err)
	}
	return taskErr.asError()
}

func chunk(books []Book, size int) [][]Book {
	var out [][]Book
	for start := 0; start < len(books); start += size {
		end := min(start+size, len(books))
		out = append(out, books[start:end])
	}
	return out
}
