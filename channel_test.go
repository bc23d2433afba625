package mongomq_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/mongomq"
	"github.com/coregx/mongomq/adapters/memory"
	"github.com/coregx/mongomq/model"
)

func newTestChannel(t *testing.T) *mongomq.Channel {
	t.Helper()
	ch, err := mongomq.NewChannel(mongomq.WithStores(memory.NewStores(0)))
	require.NoError(t, err)
	return ch
}

func TestNewChannel_RequiresStores(t *testing.T) {
	_, err := mongomq.NewChannel()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QueueStore is required")
}

func TestChannel_PutGetFIFO(t *testing.T) {
	ctx := context.Background()
	ch := newTestChannel(t)

	require.NoError(t, ch.QueueDeclare("orders"))
	for _, body := range []string{"first", "second", "third"} {
		require.NoError(t, ch.Put(ctx, "orders", body))
	}

	for _, expected := range []string{"first", "second", "third"} {
		var got string
		require.NoError(t, ch.Get(ctx, "orders", &got))
		assert.Equal(t, expected, got)
	}

	var got string
	err := ch.Get(ctx, "orders", &got)
	assert.True(t, mongomq.IsNoMessage(err), "drained queue reports no message, got %v", err)
}

func TestChannel_GetOnEmptyQueueIsNotAFailure(t *testing.T) {
	ctx := context.Background()
	ch := newTestChannel(t)

	var got string
	err := ch.Get(ctx, "never-used", &got)
	require.Error(t, err)
	assert.True(t, mongomq.IsNoMessage(err))
	assert.False(t, mongomq.IsChannelError(err))
	assert.False(t, mongomq.IsConnectionError(err))
}

func TestChannel_Size(t *testing.T) {
	ctx := context.Background()
	ch := newTestChannel(t)

	size, err := ch.Size(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, int64(0), size)

	require.NoError(t, ch.Put(ctx, "orders", "a"))
	require.NoError(t, ch.Put(ctx, "orders", "b"))

	size, err = ch.Size(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, int64(2), size)
}

func TestChannel_PurgeReturnsPriorCount(t *testing.T) {
	ctx := context.Background()
	ch := newTestChannel(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, ch.Put(ctx, "orders", i))
	}

	purged, err := ch.Purge(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, int64(3), purged)

	size, err := ch.Size(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, int64(0), size)

	// Purging an already-empty queue reports zero, not an error.
	purged, err = ch.Purge(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, int64(0), purged)
}

func TestChannel_PublishEmptyExchangeAddressesQueueDirectly(t *testing.T) {
	ctx := context.Background()
	ch := newTestChannel(t)

	require.NoError(t, ch.Publish(ctx, "", "orders", "direct-body"))

	var got string
	require.NoError(t, ch.Get(ctx, "orders", &got))
	assert.Equal(t, "direct-body", got)
}

func TestChannel_PublishRoutesByRoutingKey(t *testing.T) {
	ctx := context.Background()
	ch := newTestChannel(t)

	require.NoError(t, ch.ExchangeDeclare(model.Exchange{Name: "orders-ex", Type: model.ExchangeDirect}))
	require.NoError(t, ch.QueueBind(ctx, "orders-ex", "created", "", "audit"))
	require.NoError(t, ch.QueueBind(ctx, "orders-ex", "created", "", "billing"))
	require.NoError(t, ch.QueueBind(ctx, "orders-ex", "deleted", "", "cleanup"))

	require.NoError(t, ch.Publish(ctx, "orders-ex", "created", "payload"))

	for _, queue := range []string{"audit", "billing"} {
		var got string
		require.NoError(t, ch.Get(ctx, queue, &got), "queue %s", queue)
		assert.Equal(t, "payload", got)
	}

	var got string
	err := ch.Get(ctx, "cleanup", &got)
	assert.True(t, mongomq.IsNoMessage(err), "non-matching routing key must not deliver")
}

func TestChannel_FanoutDeliversToAllBoundQueues(t *testing.T) {
	ctx := context.Background()
	ch := newTestChannel(t)

	require.NoError(t, ch.ExchangeDeclare(model.Exchange{Name: "events", Type: model.ExchangeFanout}))
	require.NoError(t, ch.QueueBind(ctx, "events", "", "", "subscriber-a"))
	require.NoError(t, ch.QueueBind(ctx, "events", "", "", "subscriber-b"))

	require.NoError(t, ch.Publish(ctx, "events", "", "broadcast-body"))

	for _, queue := range []string{"subscriber-a", "subscriber-b"} {
		var got string
		require.NoError(t, ch.Get(ctx, queue, &got), "queue %s", queue)
		assert.Equal(t, "broadcast-body", got)
	}
}

func TestChannel_FanoutConsumersAreIndependent(t *testing.T) {
	ctx := context.Background()
	ch := newTestChannel(t)

	require.NoError(t, ch.ExchangeDeclare(model.Exchange{Name: "events", Type: model.ExchangeFanout}))
	require.NoError(t, ch.QueueBind(ctx, "events", "", "", "fast"))
	require.NoError(t, ch.QueueBind(ctx, "events", "", "", "slow"))

	require.NoError(t, ch.Publish(ctx, "events", "", "m1"))
	require.NoError(t, ch.Publish(ctx, "events", "", "m2"))

	// The fast subscriber drains both messages.
	for _, expected := range []string{"m1", "m2"} {
		var got string
		require.NoError(t, ch.Get(ctx, "fast", &got))
		assert.Equal(t, expected, got)
	}

	// The slow subscriber still sees everything.
	for _, expected := range []string{"m1", "m2"} {
		var got string
		require.NoError(t, ch.Get(ctx, "slow", &got))
		assert.Equal(t, expected, got)
	}
}

func TestChannel_FanoutBindSkipsHistory(t *testing.T) {
	ctx := context.Background()
	ch := newTestChannel(t)

	require.NoError(t, ch.ExchangeDeclare(model.Exchange{Name: "events", Type: model.ExchangeFanout}))
	require.NoError(t, ch.QueueBind(ctx, "events", "", "", "early"))

	require.NoError(t, ch.Publish(ctx, "events", "", "before-late-bind"))

	require.NoError(t, ch.QueueBind(ctx, "events", "", "", "late"))

	var got string
	err := ch.Get(ctx, "late", &got)
	assert.True(t, mongomq.IsNoMessage(err), "a late binder never replays history")

	require.NoError(t, ch.Publish(ctx, "events", "", "after-late-bind"))
	require.NoError(t, ch.Get(ctx, "late", &got))
	assert.Equal(t, "after-late-bind", got)
}

func TestChannel_FanoutSize(t *testing.T) {
	ctx := context.Background()
	ch := newTestChannel(t)

	require.NoError(t, ch.ExchangeDeclare(model.Exchange{Name: "events", Type: model.ExchangeFanout}))
	require.NoError(t, ch.QueueBind(ctx, "events", "", "", "audit"))

	require.NoError(t, ch.Publish(ctx, "events", "", "m1"))
	require.NoError(t, ch.Publish(ctx, "events", "", "m2"))

	size, err := ch.Size(ctx, "audit")
	require.NoError(t, err)
	assert.Equal(t, int64(2), size)

	var got string
	require.NoError(t, ch.Get(ctx, "audit", &got))

	size, err = ch.Size(ctx, "audit")
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)
}

func TestChannel_FanoutPurgeSkipsUnreadWithoutDeleting(t *testing.T) {
	ctx := context.Background()
	ch := newTestChannel(t)

	require.NoError(t, ch.ExchangeDeclare(model.Exchange{Name: "events", Type: model.ExchangeFanout}))
	require.NoError(t, ch.QueueBind(ctx, "events", "", "", "purged"))
	require.NoError(t, ch.QueueBind(ctx, "events", "", "", "untouched"))

	require.NoError(t, ch.Publish(ctx, "events", "", "m1"))
	require.NoError(t, ch.Publish(ctx, "events", "", "m2"))

	purgedCount, err := ch.Purge(ctx, "purged")
	require.NoError(t, err)
	assert.Equal(t, int64(2), purgedCount)

	size, err := ch.Size(ctx, "purged")
	require.NoError(t, err)
	assert.Equal(t, int64(0), size)

	var got string
	err = ch.Get(ctx, "purged", &got)
	assert.True(t, mongomq.IsNoMessage(err))

	// Another subscriber's purge removes nothing from the broadcast log.
	for _, expected := range []string{"m1", "m2"} {
		require.NoError(t, ch.Get(ctx, "untouched", &got))
		assert.Equal(t, expected, got)
	}

	// The purged subscriber receives messages published afterwards.
	require.NoError(t, ch.Publish(ctx, "events", "", "m3"))
	require.NoError(t, ch.Get(ctx, "purged", &got))
	assert.Equal(t, "m3", got)
}

func TestChannel_QueueBindIsIdempotent(t *testing.T) {
	ctx := context.Background()
	ch := newTestChannel(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, ch.QueueBind(ctx, "orders-ex", "created", "", "audit"))
	}

	entries, err := ch.GetTable(ctx, "orders-ex")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "audit", entries[0].Queue)
	assert.Equal(t, "created", entries[0].RoutingKey)
}

func TestChannel_GetTableMergesLocalAndDurableBindings(t *testing.T) {
	ctx := context.Background()
	stores := memory.NewStores(0)

	first, err := mongomq.NewChannel(mongomq.WithStores(stores))
	require.NoError(t, err)
	require.NoError(t, first.QueueBind(ctx, "orders-ex", "created", "", "audit"))

	// A second channel over the same stores sees the durable binding plus
	// its own local one.
	second, err := mongomq.NewChannel(mongomq.WithStores(stores))
	require.NoError(t, err)
	require.NoError(t, second.QueueBind(ctx, "orders-ex", "updated", "", "billing"))

	entries, err := second.GetTable(ctx, "orders-ex")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestChannel_QueueDeleteRemovesBindingsAndMessages(t *testing.T) {
	ctx := context.Background()
	ch := newTestChannel(t)

	require.NoError(t, ch.QueueBind(ctx, "orders-ex", "created", "", "audit"))
	require.NoError(t, ch.Put(ctx, "audit", "pending"))

	require.NoError(t, ch.QueueDelete(ctx, "audit"))

	size, err := ch.Size(ctx, "audit")
	require.NoError(t, err)
	assert.Equal(t, int64(0), size)

	entries, err := ch.GetTable(ctx, "orders-ex")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestChannel_QueueDeleteDropsFanoutSubscription(t *testing.T) {
	ctx := context.Background()
	ch := newTestChannel(t)

	require.NoError(t, ch.ExchangeDeclare(model.Exchange{Name: "events", Type: model.ExchangeFanout}))
	require.NoError(t, ch.QueueBind(ctx, "events", "", "", "audit"))
	require.NoError(t, ch.QueueDelete(ctx, "audit"))

	require.NoError(t, ch.Publish(ctx, "events", "", "after-delete"))

	// The deleted queue reads point-to-point again and is empty.
	var got string
	err := ch.Get(ctx, "audit", &got)
	assert.True(t, mongomq.IsNoMessage(err))
}

func TestChannel_ClosedChannelRejectsOperations(t *testing.T) {
	ctx := context.Background()
	ch := newTestChannel(t)

	require.NoError(t, ch.Close(ctx))
	require.NoError(t, ch.Close(ctx), "closing twice is safe")

	assert.ErrorIs(t, ch.Put(ctx, "orders", "x"), mongomq.ErrChannelClosed)

	var got string
	assert.ErrorIs(t, ch.Get(ctx, "orders", &got), mongomq.ErrChannelClosed)

	_, err := ch.Size(ctx, "orders")
	assert.ErrorIs(t, err, mongomq.ErrChannelClosed)

	_, err = ch.Purge(ctx, "orders")
	assert.ErrorIs(t, err, mongomq.ErrChannelClosed)
}

func TestChannel_ValidationErrors(t *testing.T) {
	ctx := context.Background()
	ch := newTestChannel(t)

	assert.Error(t, ch.QueueDeclare(""))
	assert.Error(t, ch.Put(ctx, "", "x"))
	assert.Error(t, ch.PutFanout(ctx, "", "x"))
	assert.Error(t, ch.ExchangeDeclare(model.Exchange{Name: "", Type: model.ExchangeFanout}))
	assert.Error(t, ch.ExchangeDeclare(model.Exchange{Name: "bad", Type: "bogus"}))

	_, err := ch.GetTable(ctx, "")
	assert.Error(t, err)
}

func TestChannel_CodecRoundTripsStructs(t *testing.T) {
	ctx := context.Background()
	ch := newTestChannel(t)

	type order struct {
		ID    int    `json:"id"`
		State string `json:"state"`
	}

	require.NoError(t, ch.Put(ctx, "orders", order{ID: 42, State: "created"}))

	var got order
	require.NoError(t, ch.Get(ctx, "orders", &got))
	assert.Equal(t, order{ID: 42, State: "created"}, got)
}
