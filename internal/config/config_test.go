package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into an empty temp dir so a developer's .env cannot leak in.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t)
	t.Setenv("GRAPH_URI", "bolt://localhost:7687")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "bolt://localhost:7687", cfg.Graph.URI)
	assert.Equal(t, defaultGraphMaxSessions, cfg.Graph.MaxConnections)
	assert.Equal(t, defaultConnectTimeout, cfg.Graph.ConnectTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, defaultNATSSubject, cfg.Results.NATSSubject)
	assert.Equal(t, defaultRedisKeep, cfg.Results.RedisKeep)
	assert.NoError(t, cfg.Graph.Validate())
}

func TestLoad_Neo4jFallbackVariables(t *testing.T) {
	chdir(t)
	t.Setenv("GRAPH_URI", "")
	t.Setenv("NEO4J_URI", "neo4j://db:7687")
	t.Setenv("NEO4J_USERNAME", "neo4j")
	t.Setenv("NEO4J_PASSWORD", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "neo4j://db:7687", cfg.Graph.URI)
	assert.Equal(t, "neo4j", cfg.Graph.Username)
	assert.Equal(t, "secret", cfg.Graph.Password)
}

func TestLoad_InvalidValues(t *testing.T) {
	chdir(t)
	t.Setenv("GRAPH_CONNECT_TIMEOUT", "soon")
	_, err := Load()
	assert.ErrorContains(t, err, "GRAPH_CONNECT_TIMEOUT")

	t.Setenv("GRAPH_CONNECT_TIMEOUT", "5s")
	t.Setenv("RESULTS_REDIS_DB", "two")
	_, err = Load()
	assert.ErrorContains(t, err, "RESULTS_REDIS_DB")

	t.Setenv("RESULTS_REDIS_DB", "2")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Graph.ConnectTimeout)
	assert.Equal(t, 2, cfg.Results.RedisDB)
}

func TestLoad_DotEnvFromParent(t *testing.T) {
	dir := chdir(t)
	t.Setenv("GRAPH_URI", "")
	t.Setenv("NEO4J_URI", "")
	// godotenv never overrides a variable that is present, even when empty.
	require.NoError(t, os.Unsetenv("NEO4J_URI"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("NEO4J_URI=bolt://from-dotenv:7687\n"), 0o600))

	child := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(child, 0o755))
	require.NoError(t, os.Chdir(child))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "bolt://from-dotenv:7687", cfg.Graph.URI)
}

func TestGraphConfig_Validate(t *testing.T) {
	assert.ErrorIs(t, GraphConfig{}.Validate(), ErrMissingGraphURI)
	assert.Error(t, GraphConfig{URI: "bolt://x", ConnectTimeout: -time.Second}.Validate())
}
