//go:build integration

package bench_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/vanshika/indexbench/internal/bench"
	"github.com/vanshika/indexbench/internal/dataset"
	"github.com/vanshika/indexbench/internal/graph"
	"github.com/vanshika/indexbench/internal/logging"
)

const (
	neo4jUser     = "neo4j"
	neo4jPassword = "indexbench-test"
)

// startNeo4j runs a throwaway server and returns its bolt URI.
func startNeo4j(t *testing.T, ctx context.Context) string {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "neo4j:5",
		ExposedPorts: []string{"7687/tcp"},
		Env: map[string]string{
			"NEO4J_AUTH": neo4jUser + "/" + neo4jPassword,
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("7687/tcp"),
			wait.ForLog("Started."),
		).WithDeadline(2 * time.Minute),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "start neo4j container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "7687/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("neo4j://%s:%s", host, port.Port())
}

func seedBooks(t *testing.T, ctx context.Context, uri string, n int) {
	t.Helper()
	client, err := graph.NewNeo4jClient(ctx, graph.Options{URI: uri, Username: neo4jUser, Password: neo4jPassword})
	require.NoError(t, err)
	defer client.Close(ctx)

	books, err := dataset.New(dataset.Config{NumBooks: n, Seed: 11}).Generate(ctx)
	require.NoError(t, err)
	written, err := dataset.NewBulkLoader(client, logging.Discard(), 200, 2).Load(ctx, books)
	require.NoError(t, err)
	require.Equal(t, n, written)
}

func TestIntegration_Neo4j(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	uri := startNeo4j(t, ctx)
	seedBooks(t, ctx, uri, 1000)

	h, err := bench.Open(ctx, bench.Config{URI: uri, Username: neo4jUser, Password: neo4jPassword},
		bench.WithLogger(logging.Discard()))
	require.NoError(t, err)
	defer h.Close(ctx)

	t.Run("return one", func(t *testing.T) {
		rows, elapsed, err := h.ExecuteTimed(ctx, bench.NamedQuery{Name: "one", Cypher: "RETURN 1 as x"})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, int64(1), rows[0]["x"])
		assert.Positive(t, elapsed)
	})

	t.Run("syntax error", func(t *testing.T) {
		_, _, err := h.ExecuteTimed(ctx, bench.NamedQuery{Name: "broken", Cypher: "MATCH (b:Book RETURN b"})
		var qe *bench.QueryError
		require.ErrorAs(t, err, &qe)
		assert.Equal(t, graph.CodeSyntaxError, graph.ErrorCode(err))
	})

	t.Run("default suite", func(t *testing.T) {
		suite, err := bench.DefaultSuite()
		require.NoError(t, err)

		report, err := h.Run(ctx, suite)
		require.NoError(t, err)
		assert.Len(t, report.Before, len(suite.Queries))
		assert.Len(t, report.After, len(suite.Queries))
		assert.Empty(t, report.Failures())
		assert.Empty(t, report.IndexErrors)
		require.NotNil(t, report.Fulltext)

		names, err := h.Indexes(ctx)
		require.NoError(t, err)
		assert.Subset(t, names, bench.IndexNames(suite.Indexes))

		// a second run starts from the same state
		require.NoError(t, h.CreateIndexes(ctx, suite.Indexes))
		require.NoError(t, h.DropIndexes(ctx, bench.IndexNames(suite.Indexes)))
		require.NoError(t, h.DropIndexes(ctx, bench.IndexNames(suite.Indexes)))
	})

	t.Run("malformed query among valid ones", func(t *testing.T) {
		suite, err := bench.DefaultSuite()
		require.NoError(t, err)
		queries := append([]bench.NamedQuery{{Name: "broken", Cypher: "MATCH (b:Book RETURN b"}}, suite.Queries[:5]...)

		report, err := h.RunBenchmarkSuite(ctx, queries, suite.Fulltext, suite.FulltextParams)
		require.NoError(t, err)
		assert.Len(t, report.Failures(), 2)
		assert.Equal(t, 11, report.Succeeded())
	})
}

func TestIntegration_ConnectionFailures(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	_, err := bench.Open(ctx, bench.Config{URI: "neo4j://127.0.0.1:1", ConnectTimeout: 2 * time.Second})
	var ce *bench.ConnectionError
	require.ErrorAs(t, err, &ce)

	uri := startNeo4j(t, ctx)
	_, err = bench.Open(ctx, bench.Config{URI: uri, Username: neo4jUser, Password: "wrong"})
	require.ErrorAs(t, err, &ce)
}
