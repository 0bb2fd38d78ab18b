// Package bench times Cypher queries against a graph database before and
// after a set of indexes is created.
package bench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/vanshika/indexbench/internal/graph"
)

// Config carries the connection settings for Open.
type Config struct {
	URI            string
	Username       string
	Password       string
	Database       string
	MaxConnections int
	ConnectTimeout time.Duration
	// Tracer, when set, wraps the connection so every statement gets a span.
	Tracer trace.Tracer
}

// Harness owns a single graph connection and runs benchmark operations on it
// one at a time. It must not be shared between goroutines issuing queries.
type Harness struct {
	client  graph.Client
	logger  *slog.Logger
	indexes []IndexDescriptor
	repeat  int
	clock   func() time.Time

	mu     sync.Mutex
	closed bool
}

// Option customises a Harness.
type Option func(*Harness)

// WithLogger sets the logger used for per-query and per-index lines.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithIndexes sets the indexes RunBenchmarkSuite drops and creates.
func WithIndexes(descriptors []IndexDescriptor) Option {
	return func(h *Harness) {
		h.indexes = append([]IndexDescriptor(nil), descriptors...)
	}
}

// WithRepeat runs every suite query n times per phase and reports the median.
func WithRepeat(n int) Option {
	return func(h *Harness) {
		if n > 0 {
			h.repeat = n
		}
	}
}

// WithClock replaces the time source. The default is time.Now, whose readings
// carry the monotonic clock.
func WithClock(clock func() time.Time) Option {
	return func(h *Harness) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// Open connects to the database described by cfg. An unreachable endpoint or
// rejected credentials yield a *ConnectionError.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Harness, error) {
	client, err := graph.NewNeo4jClient(ctx, graph.Options{
		URI:            cfg.URI,
		Database:       cfg.Database,
		Username:       cfg.Username,
		Password:       cfg.Password,
		MaxConnections: cfg.MaxConnections,
		ConnectTimeout: cfg.ConnectTimeout,
	})
	if err != nil {
		if errors.Is(err, graph.ErrUnavailable) {
			return nil, &ConnectionError{Op: "open", Err: err}
		}
		return nil, fmt.Errorf("open harness: %w", err)
	}
	if cfg.Tracer != nil {
		client = graph.NewTracedClient(client, cfg.Tracer)
	}
	return New(client, opts...), nil
}

// New wraps an already connected client.
func New(client graph.Client, opts ...Option) *Harness {
	h := &Harness{
		client: client,
		logger: slog.Default(),
		repeat: 1,
		clock:  time.Now,
	}
	if suite, err := DefaultSuite(); err == nil {
		h.indexes = suite.Indexes
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Close releases the connection. Calls after the first are no-ops.
func (h *Harness) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	if err := h.client.Close(ctx); err != nil {
		return fmt.Errorf("close graph client: %w", err)
	}
	return nil
}

func (h *Harness) ensureOpen(op string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return &ClosedHandleError{Op: op}
	}
	return nil
}

// Ping verifies the connection is still usable.
func (h *Harness) Ping(ctx context.Context) error {
	if err := h.ensureOpen("ping"); err != nil {
		return err
	}
	if err := h.client.VerifyConnectivity(ctx); err != nil {
		return &ConnectionError{Op: "ping", Err: err}
	}
	return nil
}

// ExecuteTimed runs q, materialises every record and returns the rows with
// the time spent between submitting the statement and holding the last row.
func (h *Harness) ExecuteTimed(ctx context.Context, q NamedQuery) ([]graph.Record, time.Duration, error) {
	res, elapsed, err := h.executeTimed(ctx, q)
	if err != nil {
		return nil, elapsed, err
	}
	return res.Records, elapsed, nil
}

func (h *Harness) executeTimed(ctx context.Context, q NamedQuery) (graph.Result, time.Duration, error) {
	if err := h.ensureOpen("execute " + q.Name); err != nil {
		return graph.Result{}, 0, err
	}
	if strings.TrimSpace(q.Cypher) == "" {
		return graph.Result{}, 0, &QueryError{Query: q.Name, Err: ErrEmptyStatement}
	}

	execute := h.client.ExecuteRead
	if q.Write {
		execute = h.client.ExecuteWrite
	}

	start := h.clock()
	res, err := execute(ctx, q.Cypher, q.Params)
	elapsed := h.clock().Sub(start)
	if err != nil {
		return graph.Result{}, elapsed, classify("execute", q.Name, err)
	}
	return res, elapsed, nil
}

// DropIndexes drops each named index if it exists. A failure on one index is
// logged and does not stop the rest; the per-index failures are returned
// joined. Connection loss and closed-handle errors stop the loop immediately.
func (h *Harness) DropIndexes(ctx context.Context, names []string) error {
	if err := h.ensureOpen("drop indexes"); err != nil {
		return err
	}
	if err := validateIndexNames(names); err != nil {
		return err
	}

	var errs []error
	for _, name := range names {
		if err := h.dropIndex(ctx, name); err != nil {
			if IsFatal(err) {
				return err
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CreateIndexes creates each index unless it already exists, in order.
// Full-text indexes are dropped first because the engine cannot redefine
// them in place. Failures are handled as in DropIndexes.
func (h *Harness) CreateIndexes(ctx context.Context, descriptors []IndexDescriptor) error {
	if err := h.ensureOpen("create indexes"); err != nil {
		return err
	}
	if err := validateIndexes(descriptors); err != nil {
		return err
	}

	var errs []error
	for _, d := range descriptors {
		if d.Kind == KindFulltext {
			if err := h.dropIndex(ctx, d.Name); err != nil {
				if IsFatal(err) {
					return err
				}
				errs = append(errs, err)
			}
		}
		if err := h.createIndex(ctx, d); err != nil {
			if IsFatal(err) {
				return err
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Indexes lists the index names the server currently knows about.
func (h *Harness) Indexes(ctx context.Context) ([]string, error) {
	res, _, err := h.executeTimed(ctx, NamedQuery{
		Name:   "show indexes",
		Cypher: "SHOW INDEXES YIELD name RETURN name ORDER BY name",
	})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(res.Records))
	for _, rec := range res.Records {
		if name, ok := rec["name"].(string); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

func (h *Harness) dropIndex(ctx context.Context, name string) error {
	_, err := h.client.ExecuteWrite(ctx, DropStatement(name), nil)
	switch {
	case err == nil:
		h.logger.Debug("dropped index", "index", name)
		return nil
	case graph.IsSchemaNotFound(err):
		h.logger.Debug("index already absent", "index", name)
		return nil
	}
	return h.indexFailure("drop", name, err)
}

func (h *Harness) createIndex(ctx context.Context, d IndexDescriptor) error {
	_, err := h.client.ExecuteWrite(ctx, d.CreateStatement(), nil)
	switch {
	case err == nil:
		h.logger.Info("created index", "index", d.Name, "kind", string(d.Kind))
		return nil
	case graph.IsSchemaExists(err):
		h.logger.Info("index already exists", "index", d.Name)
		return nil
	}
	return h.indexFailure("create", d.Name, err)
}

func (h *Harness) indexFailure(op, name string, err error) error {
	classified := classify(op+" index", name, err)
	var qe *QueryError
	if !errors.As(classified, &qe) {
		return classified
	}
	ie := &IndexOperationError{Op: op, Index: name, Err: qe.Err}
	h.logger.Error("index operation failed", "op", op, "index", name, "error", qe.Err)
	return ie
}
