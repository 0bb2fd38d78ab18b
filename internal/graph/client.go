package graph

import (
	"context"
	"errors"
	"time"
)

// Client defines the minimal contract the benchmark harness and the dataset
// loader need from the underlying graph database.
type Client interface {
	ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (Result, error)
	ExecuteRead(ctx context.Context, cypher string, params map[string]any) (Result, error)
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// Result is a fully materialised query response.
type Result struct {
	Keys    []string
	Records []Record
	Summary Summary
}

// Summary carries the timings reported by the server for a statement.
type Summary struct {
	AvailableAfter time.Duration
	ConsumedAfter  time.Duration
}

// Record groups key-value pairs returned from the graph engine.
type Record map[string]any

// Options configures a graph client implementation.
type Options struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
	ConnectTimeout time.Duration
}

var (
	// ErrMissingURI indicates the graph URI is not provided.
	ErrMissingURI = errors.New("graph URI is required")

	// ErrUnavailable marks failures to reach or stay connected to the server,
	// including rejected credentials.
	ErrUnavailable = errors.New("graph database unavailable")

	// ErrClosed is returned by clients used after Close.
	ErrClosed = errors.New("graph client closed")
)
