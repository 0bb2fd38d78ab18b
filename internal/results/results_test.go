package results

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/indexbench/internal/bench"
)

func sampleRun(t *testing.T) Run {
	t.Helper()
	return FromReport(&bench.SuiteReport{
		Suite:     "books",
		StartedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Repeat:    1,
		Before:    []bench.Timing{{Query: "q", RowCount: 3, Elapsed: 20 * time.Millisecond}},
		After:     []bench.Timing{{Query: "q", RowCount: 3, Elapsed: 5 * time.Millisecond}},
	})
}

func newTestStore(t *testing.T, keep int) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	store := NewRedisStore(client, keep)
	t.Cleanup(func() { _ = store.Close() })
	return store, m
}

func TestFromReport(t *testing.T) {
	a := sampleRun(t)
	b := sampleRun(t)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "books", a.Suite)

	data, err := json.Marshal(a)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, a.ID, decoded["id"])
	assert.Equal(t, "books", decoded["suite"])
}

func TestRedisStore_SaveAndRecent(t *testing.T) {
	ctx := context.Background()
	store, m := newTestStore(t, 2)

	first, second, third := sampleRun(t), sampleRun(t), sampleRun(t)
	for _, run := range []Run{first, second, third} {
		require.NoError(t, store.Save(ctx, run))
	}

	runs, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, third.ID, runs[0].ID)
	assert.Equal(t, second.ID, runs[1].ID)
	assert.Equal(t, 20*time.Millisecond, *runs[0].Queries[0].Before)

	assert.False(t, m.Exists(runKey(first.ID)))
	assert.True(t, m.Exists(runKey(third.ID)))
	ids, err := m.List(runListKey)
	require.NoError(t, err)
	assert.Equal(t, []string{third.ID, second.ID}, ids)
}

func TestRedisStore_RecentLimit(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, 0)

	for i := 0; i < 4; i++ {
		require.NoError(t, store.Send(ctx, sampleRun(t)))
	}
	runs, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)

	none, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRedisStore_RejectsMissingID(t *testing.T) {
	store, _ := newTestStore(t, 5)
	assert.Error(t, store.Save(context.Background(), Run{}))
}

func TestOpenRedisStore_Unreachable(t *testing.T) {
	m := miniredis.RunT(t)
	addr := m.Addr()
	m.Close()

	_, err := OpenRedisStore(context.Background(), RedisOptions{Addr: addr})
	assert.Error(t, err)
}

type fakeConn struct {
	subject    string
	data       []byte
	publishErr error
	deadline   bool
	closed     bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.subject = subject
	f.data = data
	return nil
}

func (f *fakeConn) FlushWithContext(ctx context.Context) error {
	_, f.deadline = ctx.Deadline()
	return nil
}

func (f *fakeConn) Close() { f.closed = true }

func TestNATSPublisher_Send(t *testing.T) {
	conn := &fakeConn{}
	pub := NewNATSPublisher(conn, "")
	assert.Equal(t, DefaultSubject, pub.Subject())

	run := sampleRun(t)
	require.NoError(t, pub.Send(context.Background(), run))
	assert.Equal(t, DefaultSubject, conn.subject)
	assert.True(t, conn.deadline)

	var decoded Run
	require.NoError(t, json.Unmarshal(conn.data, &decoded))
	assert.Equal(t, run.ID, decoded.ID)

	require.NoError(t, pub.Close())
	assert.True(t, conn.closed)
}

func TestNATSPublisher_PublishError(t *testing.T) {
	pub := NewNATSPublisher(&fakeConn{publishErr: errors.New("nats: connection closed")}, "custom.subject")
	err := pub.Send(context.Background(), sampleRun(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "custom.subject")
}

type recordingSink struct {
	name string
	err  error
	runs []Run
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Send(_ context.Context, run Run) error {
	if s.err != nil {
		return s.err
	}
	s.runs = append(s.runs, run)
	return nil
}

func (s *recordingSink) Close() error { return nil }

func TestFanout_ContinuesPastFailingSink(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	broken := &recordingSink{name: "broken", err: errors.New("unreachable")}
	healthy := &recordingSink{name: "healthy"}
	fanout := NewFanout(logger, broken, healthy)
	assert.Equal(t, 2, fanout.Len())

	run := sampleRun(t)
	err := fanout.Send(context.Background(), run)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	require.Len(t, healthy.runs, 1)
	assert.Equal(t, run.ID, healthy.runs[0].ID)
	assert.Contains(t, logs.String(), "result sink failed")
	assert.NoError(t, fanout.Close())
}

func TestFanout_RedisSink(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, 10)
	fanout := NewFanout(nil, store)

	run := sampleRun(t)
	require.NoError(t, fanout.Send(ctx, run))
	runs, err := store.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
}
