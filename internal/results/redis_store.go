package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	runKeyPrefix = "indexbench:run:"
	runListKey   = "indexbench:runs"
)

// RedisStore keeps the most recent runs in Redis.
type RedisStore struct {
	client *redis.Client
	keep   int
}

// RedisOptions configures OpenRedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Keep     int
}

// OpenRedisStore connects and pings the server.
func OpenRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return NewRedisStore(client, opts.Keep), nil
}

// NewRedisStore wraps an existing client. keep <= 0 retains every run.
func NewRedisStore(client *redis.Client, keep int) *RedisStore {
	return &RedisStore{client: client, keep: keep}
}

func runKey(id string) string { return runKeyPrefix + id }

// Name implements Sink.
func (s *RedisStore) Name() string { return "redis" }

// Send implements Sink.
func (s *RedisStore) Send(ctx context.Context, run Run) error {
	return s.Save(ctx, run)
}

// Save stores run and trims the history to the configured size.
func (s *RedisStore) Save(ctx context.Context, run Run) error {
	if run.ID == "" {
		return errors.New("run has no id")
	}
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, runKey(run.ID), data, 0)
		pipe.LPush(ctx, runListKey, run.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}

	if s.keep <= 0 {
		return nil
	}
	evicted, err := s.client.LRange(ctx, runListKey, int64(s.keep), -1).Result()
	if err != nil {
		return fmt.Errorf("list evicted runs: %w", err)
	}
	if len(evicted) == 0 {
		return nil
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		keys := make([]string, 0, len(evicted))
		for _, id := range evicted {
			keys = append(keys, runKey(id))
		}
		pipe.Del(ctx, keys...)
		pipe.LTrim(ctx, runListKey, 0, int64(s.keep-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("trim run history: %w", err)
	}
	return nil
}

// Recent returns up to n runs, newest first.
func (s *RedisStore) Recent(ctx context.Context, n int) ([]Run, error) {
	if n <= 0 {
		return nil, nil
	}
	ids, err := s.client.LRange(ctx, runListKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = runKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load runs: %w", err)
	}

	runs := make([]Run, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var run Run
		if err := json.Unmarshal([]byte(raw), &run); err != nil {
			return nil, fmt.Errorf("decode run %s: %w", ids[i], err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// Close implements Sink.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
