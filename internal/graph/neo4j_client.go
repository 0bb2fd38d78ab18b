package graph

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// NewNeo4jClient establishes a Bolt connection using the official Neo4j driver
// and verifies it before returning. Unreachable endpoints and rejected
// credentials are reported as ErrUnavailable.
func NewNeo4jClient(ctx context.Context, opts Options) (Client, error) {
	if opts.URI == "" {
		return nil, ErrMissingURI
	}

	auth := neo4j.NoAuth()
	if opts.Username != "" {
		auth = neo4j.BasicAuth(opts.Username, opts.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(opts.URI, auth, func(c *neo4j.Config) {
		if opts.MaxConnections > 0 {
			c.MaxConnectionPoolSize = opts.MaxConnections
		}
		if opts.ConnectTimeout > 0 {
			c.ConnectionAcquisitionTimeout = opts.ConnectTimeout
			c.SocketConnectTimeout = opts.ConnectTimeout
		}
	})
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify graph connectivity: %w", unavailable(err))
	}

	return &neo4jClient{
		driver:   driver,
		database: opts.Database,
	}, nil
}

type neo4jClient struct {
	driver   neo4j.DriverWithContext
	database string
	closed   atomic.Bool
}

func (c *neo4jClient) ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	return c.run(ctx, neo4j.AccessModeWrite, cypher, params)
}

func (c *neo4jClient) ExecuteRead(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	return c.run(ctx, neo4j.AccessModeRead, cypher, params)
}

// run submits the statement as an auto-commit transaction. Schema commands
// such as CREATE INDEX are rejected inside managed transactions, so every
// statement goes through session.Run.
func (c *neo4jClient) run(ctx context.Context, mode neo4j.AccessMode, cypher string, params map[string]any) (Result, error) {
	if c.closed.Load() {
		return Result{}, ErrClosed
	}

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.database,
		AccessMode:   mode,
	})
	defer session.Close(ctx)

	res, err := session.Run(ctx, cypher, params)
	if err != nil {
		return Result{}, classify(err)
	}

	out, err := consumeResult(ctx, res)
	if err != nil {
		return Result{}, classify(err)
	}
	return out, nil
}

func (c *neo4jClient) VerifyConnectivity(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	return classify(c.driver.VerifyConnectivity(ctx))
}

func (c *neo4jClient) Close(ctx context.Context) error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.driver.Close(ctx)
}

func consumeResult(ctx context.Context, res neo4j.ResultWithContext) (Result, error) {
	keys, err := res.Keys()
	if err != nil {
		return Result{}, err
	}

	records := make([]Record, 0)
	for res.Next(ctx) {
		rec := res.Record()
		record := make(Record, len(rec.Keys))
		for i, key := range rec.Keys {
			record[key] = rec.Values[i]
		}
		records = append(records, record)
	}
	if err := res.Err(); err != nil {
		return Result{}, err
	}

	out := Result{Keys: keys, Records: records}
	summary, err := res.Consume(ctx)
	if err != nil {
		return Result{}, err
	}
	if summary != nil {
		out.Summary = Summary{
			AvailableAfter: summary.ResultAvailableAfter(),
			ConsumedAfter:  summary.ResultConsumedAfter(),
		}
	}
	return out, nil
}
