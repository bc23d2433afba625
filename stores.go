package mongomq

import (
	"context"

	"github.com/coregx/mongomq/model"
)

// QueueStore defines the persistence interface for point-to-point messages.
// One stored message is visible to exactly one successful dequeue; the
// implementation must back DequeueOldest with an atomic find-and-remove so
// two concurrent consumers never receive the same document.
//
// Implementations must be safe for concurrent use.
type QueueStore interface {
	// Enqueue appends a message to the queue. Ordering is by the store's
	// monotonically increasing document identifier, which equals enqueue
	// order.
	Enqueue(ctx context.Context, queue string, payload []byte) error

	// DequeueOldest atomically removes and returns the oldest message in
	// the queue. Returns ErrNoMessage if the queue is empty.
	DequeueOldest(ctx context.Context, queue string) ([]byte, error)

	// Count returns the number of messages currently in the queue.
	// Best-effort: may be stale relative to concurrent operations.
	Count(ctx context.Context, queue string) (int64, error)

	// DeleteAll removes every message in the queue and returns the number
	// removed.
	DeleteAll(ctx context.Context, queue string) (int64, error)
}

// BroadcastStore defines the persistence interface for fanout messages
// backed by a capped, insertion-ordered collection. Published messages are
// never explicitly deleted; the collection evicts its oldest entries once the
// configured byte size is reached.
type BroadcastStore interface {
	// Publish appends a broadcast message for the exchange.
	Publish(ctx context.Context, exchange string, payload []byte) error

	// Count returns the number of broadcast messages currently stored for
	// the exchange.
	Count(ctx context.Context, exchange string) (int64, error)

	// Tail opens a tailing cursor over the exchange's broadcast messages in
	// insertion order, positioned past the first skip entries. The cursor
	// keeps producing entries appended after it reaches the end.
	Tail(ctx context.Context, exchange string, skip int64) (BroadcastCursor, error)
}

// BroadcastCursor iterates an exchange's broadcast messages. Advancing is
// non-blocking: an exhausted cursor reports "no more data" and can produce
// again once new messages are appended.
type BroadcastCursor interface {
	// TryNext advances the cursor one step. It returns the next payload and
	// true, or ok=false when no further message is currently available.
	// The ok=false outcome is ordinary, not an error.
	TryNext(ctx context.Context) (payload []byte, ok bool, err error)

	// Close releases store-side resources held by the open cursor.
	Close(ctx context.Context) error
}

// RoutingStore defines the persistence interface for durable exchange-to-queue
// bindings. Binding identity is the full 4-tuple; Bind is an upsert.
type RoutingStore interface {
	// Bind upserts a binding. Repeated binds with identical fields leave
	// exactly one row.
	Bind(ctx context.Context, binding model.Binding) error

	// DeleteByQueue removes all bindings routed to the queue.
	DeleteByQueue(ctx context.Context, queue string) error

	// FindByExchange returns all durable bindings for the exchange.
	// Returns an empty slice if none exist.
	FindByExchange(ctx context.Context, exchange string) ([]model.Binding, error)
}

// Stores bundles the three store interfaces a channel operates on.
type Stores struct {
	Queue     QueueStore
	Broadcast BroadcastStore
	Routing   RoutingStore
}
