package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates application configuration values.
type Config struct {
	Graph   GraphConfig
	Logging LoggingConfig
	Results ResultsConfig
	Tracing TracingConfig
}

// GraphConfig describes connectivity to the Neo4j server under test.
type GraphConfig struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
	ConnectTimeout time.Duration
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

// ResultsConfig selects where finished runs are sent besides stdout.
type ResultsConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKeep     int
	NATSURL       string
	NATSSubject   string
}

// TracingConfig enables OTLP span export when Endpoint is set.
type TracingConfig struct {
	Endpoint    string
	ServiceName string
}

const (
	defaultLoggingLevel     = "info"
	defaultLoggingFormat    = "text"
	defaultGraphMaxSessions = 10
	defaultConnectTimeout   = 30 * time.Second
	defaultRedisKeep        = 100
	defaultNATSSubject      = "indexbench.runs.completed"
	defaultServiceName      = "indexbench"
	envSearchDepth          = 3
)

// ErrMissingGraphURI is returned by Validate when no endpoint was configured.
var ErrMissingGraphURI = errors.New("GRAPH_URI (or NEO4J_URI) is required")

// Load reads configuration from environment variables, applying defaults.
// A .env file in the working directory or one of its parents is loaded first;
// variables already present in the environment take precedence.
func Load() (Config, error) {
	if _, err := LoadEnvFile(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
		Graph: GraphConfig{
			URI:            firstEnv("GRAPH_URI", "NEO4J_URI"),
			Database:       firstEnv("GRAPH_DATABASE", "NEO4J_DATABASE"),
			Username:       firstEnv("GRAPH_USERNAME", "NEO4J_USERNAME"),
			Password:       firstEnv("GRAPH_PASSWORD", "NEO4J_PASSWORD"),
			MaxConnections: parseIntWithDefault("GRAPH_MAX_CONNECTIONS", defaultGraphMaxSessions),
			ConnectTimeout: defaultConnectTimeout,
		},
		Results: ResultsConfig{
			RedisAddr:     os.Getenv("RESULTS_REDIS_ADDR"),
			RedisPassword: os.Getenv("RESULTS_REDIS_PASSWORD"),
			RedisKeep:     parseIntWithDefault("RESULTS_REDIS_KEEP", defaultRedisKeep),
			NATSURL:       os.Getenv("RESULTS_NATS_URL"),
			NATSSubject:   valueOrDefault("RESULTS_NATS_SUBJECT", defaultNATSSubject),
		},
		Tracing: TracingConfig{
			Endpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName: valueOrDefault("OTEL_SERVICE_NAME", defaultServiceName),
		},
	}

	if v := os.Getenv("GRAPH_CONNECT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid GRAPH_CONNECT_TIMEOUT: %w", err)
		}
		cfg.Graph.ConnectTimeout = d
	}

	db, err := parseIntStrict("RESULTS_REDIS_DB", 0)
	if err != nil {
		return Config{}, err
	}
	cfg.Results.RedisDB = db

	return cfg, nil
}

// Validate checks the settings required to open a benchmark connection.
func (g GraphConfig) Validate() error {
	if g.URI == "" {
		return ErrMissingGraphURI
	}
	if g.ConnectTimeout < 0 {
		return fmt.Errorf("connect timeout %s must not be negative", g.ConnectTimeout)
	}
	return nil
}

// LoadEnvFile loads the nearest .env file, searching the working directory
// and up to three parents. It returns the path loaded, or "" when none exists.
func LoadEnvFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}

	for i := 0; i <= envSearchDepth; i++ {
		path := filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				return "", fmt.Errorf("load %s: %w", path, err)
			}
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", nil
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseIntStrict(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		return val, nil
	}
	return fallback, nil
}
