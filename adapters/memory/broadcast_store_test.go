package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastStore_PublishAndTail(t *testing.T) {
	ctx := context.Background()
	s := NewBroadcastStore(DefaultCappedSize)

	require.NoError(t, s.Publish(ctx, "events", []byte("a")))
	require.NoError(t, s.Publish(ctx, "events", []byte("b")))

	cur, err := s.Tail(ctx, "events", 0)
	require.NoError(t, err)
	defer cur.Close(ctx)

	payload, ok, err := cur.TryNext(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("a"), payload)

	payload, ok, err = cur.TryNext(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("b"), payload)

	_, ok, err = cur.TryNext(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// The cursor picks up entries appended after it caught up.
	require.NoError(t, s.Publish(ctx, "events", []byte("c")))
	payload, ok, err = cur.TryNext(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("c"), payload)
}

func TestBroadcastStore_TailSkipsExistingEntries(t *testing.T) {
	ctx := context.Background()
	s := NewBroadcastStore(DefaultCappedSize)

	require.NoError(t, s.Publish(ctx, "events", []byte("old-1")))
	require.NoError(t, s.Publish(ctx, "events", []byte("old-2")))

	count, err := s.Count(ctx, "events")
	require.NoError(t, err)

	cur, err := s.Tail(ctx, "events", count)
	require.NoError(t, err)
	defer cur.Close(ctx)

	_, ok, err := cur.TryNext(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "history before the tail position must not be visible")

	require.NoError(t, s.Publish(ctx, "events", []byte("new")))
	payload, ok, err := cur.TryNext(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("new"), payload)
}

func TestBroadcastStore_CursorsAreIndependent(t *testing.T) {
	ctx := context.Background()
	s := NewBroadcastStore(DefaultCappedSize)

	require.NoError(t, s.Publish(ctx, "events", []byte("m1")))
	require.NoError(t, s.Publish(ctx, "events", []byte("m2")))

	first, err := s.Tail(ctx, "events", 0)
	require.NoError(t, err)
	defer first.Close(ctx)
	second, err := s.Tail(ctx, "events", 0)
	require.NoError(t, err)
	defer second.Close(ctx)

	payload, ok, err := first.TryNext(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("m1"), payload)

	// Advancing the first cursor does not move the second.
	payload, ok, err = second.TryNext(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("m1"), payload)
}

func TestBroadcastStore_EvictsOldestWhenCapExceeded(t *testing.T) {
	ctx := context.Background()
	s := NewBroadcastStore(10)

	require.NoError(t, s.Publish(ctx, "events", []byte("aaaa")))
	require.NoError(t, s.Publish(ctx, "events", []byte("bbbb")))
	require.NoError(t, s.Publish(ctx, "events", []byte("cccc")))

	count, err := s.Count(ctx, "events")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count, "the oldest entry should have been evicted")

	cur, err := s.Tail(ctx, "events", 0)
	require.NoError(t, err)
	defer cur.Close(ctx)

	payload, ok, err := cur.TryNext(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("bbbb"), payload)
}

func TestBroadcastStore_CursorBehindEvictionHorizonJumpsForward(t *testing.T) {
	ctx := context.Background()
	s := NewBroadcastStore(10)

	require.NoError(t, s.Publish(ctx, "events", []byte("aaaa")))

	cur, err := s.Tail(ctx, "events", 0)
	require.NoError(t, err)
	defer cur.Close(ctx)

	// Push the first entry past the eviction horizon before the cursor reads.
	require.NoError(t, s.Publish(ctx, "events", []byte("bbbb")))
	require.NoError(t, s.Publish(ctx, "events", []byte("cccc")))

	payload, ok, err := cur.TryNext(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("bbbb"), payload, "cursor resumes at the oldest surviving entry")
}

func TestBroadcastStore_NewestEntryAlwaysSurvives(t *testing.T) {
	ctx := context.Background()
	s := NewBroadcastStore(4)

	require.NoError(t, s.Publish(ctx, "events", []byte("oversized-payload")))

	count, err := s.Count(ctx, "events")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestBroadcastStore_ExchangesAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := NewBroadcastStore(DefaultCappedSize)

	require.NoError(t, s.Publish(ctx, "events", []byte("event")))
	require.NoError(t, s.Publish(ctx, "alerts", []byte("alert")))

	cur, err := s.Tail(ctx, "alerts", 0)
	require.NoError(t, err)
	defer cur.Close(ctx)

	payload, ok, err := cur.TryNext(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("alert"), payload)

	_, ok, err = cur.TryNext(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBroadcastStore_ClosedCursorFails(t *testing.T) {
	ctx := context.Background()
	s := NewBroadcastStore(DefaultCappedSize)

	cur, err := s.Tail(ctx, "events", 0)
	require.NoError(t, err)
	require.NoError(t, cur.Close(ctx))

	_, _, err = cur.TryNext(ctx)
	assert.Error(t, err)
}
