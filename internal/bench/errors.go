package bench

import (
	"context"
	"errors"
	"fmt"

	"github.com/vanshika/indexbench/internal/graph"
)

// ErrClosed is matched by every error returned from a closed Harness.
var ErrClosed = errors.New("harness is closed")

// ErrEmptyStatement is wrapped in the QueryError returned for a query with no
// Cypher text. It is never sent to the server.
var ErrEmptyStatement = errors.New("statement is empty")

// ConnectionError reports that the database could not be reached or the
// connection was lost. It is fatal to the benchmark run.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: connection error: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryError reports a statement the engine rejected or failed to execute.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %q: %v", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// IndexOperationError reports a drop or create that failed for a reason other
// than the index already being absent or present.
type IndexOperationError struct {
	Op    string
	Index string
	Err   error
}

func (e *IndexOperationError) Error() string {
	return fmt.Sprintf("%s index %s: %v", e.Op, e.Index, e.Err)
}

func (e *IndexOperationError) Unwrap() error { return e.Err }

// ClosedHandleError is returned for any operation attempted after Close.
type ClosedHandleError struct {
	Op string
}

func (e *ClosedHandleError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, ErrClosed)
}

func (e *ClosedHandleError) Unwrap() error { return ErrClosed }

// classify maps a client error onto the harness taxonomy. Errors that did not
// come from the backend are returned unchanged so that caller bugs surface.
func classify(op, query string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, graph.ErrUnavailable), errors.Is(err, graph.ErrClosed):
		return &ConnectionError{Op: op, Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case graph.IsServerError(err):
		return &QueryError{Query: query, Err: err}
	default:
		return err
	}
}

// IsFatal reports whether err must stop a benchmark run: anything except a
// per-query or per-index failure.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var qe *QueryError
	var ie *IndexOperationError
	return !errors.As(err, &qe) && !errors.As(err, &ie)
}
