package mongomq

import (
	"context"
	"fmt"
	"sync"

	"github.com/coregx/mongomq/model"
)

// cursorState tracks one fanout subscriber's position in the broadcast
// collection: the open tailing cursor plus how many matching documents it has
// consumed or skipped. Private to the owning channel, never shared.
type cursorState struct {
	cursor    BroadcastCursor
	readCount int64
}

// Channel is the unit of queue and exchange operations for one logical
// connection. It orchestrates the point-to-point queue store, the fanout
// broadcast store, and the durable routing table.
//
// All fanout registries and cursor caches are owned by the channel instance.
// Multiple channels, in the same process or not, may share the same store
// concurrently: the collections are the only shared mutable state.
//
// Thread safety: safe for concurrent use. Point-to-point delivery correctness
// relies on the store's atomic find-and-remove, not on channel locking.
type Channel struct {
	stores              Stores
	codec               Codec
	logger              Logger
	notificationService NotificationService

	mu           sync.Mutex
	exchanges    map[string]model.Exchange          // declared exchanges, channel-local
	queues       map[string]bool                    // declared queue names
	localTables  map[string]*model.Table            // channel-local binding cache per exchange
	fanoutQueues map[string]string                  // queue -> exchange
	cursors      map[string]*cursorState            // queue -> tailing cursor state
	closed       bool
}

// ChannelOption configures a Channel.
type ChannelOption func(*Channel) error

// NewChannel creates a new Channel with the provided options.
//
// Required options:
//   - WithStores: queue, broadcast, and routing stores
//
// Optional options:
//   - WithChannelLogger: logger instance (default: NoopLogger)
//   - WithChannelCodec: payload codec (default: JSONCodec)
//
// Example:
//
//	channel, err := mongomq.NewChannel(
//	    mongomq.WithStores(conn.Stores()),
//	    mongomq.WithChannelLogger(logger),
//	)
func NewChannel(opts ...ChannelOption) (*Channel, error) {
	ch := &Channel{
		codec:               JSONCodec{},
		logger:              &NoopLogger{},
		notificationService: &NoOpNotificationService{},
		exchanges:           make(map[string]model.Exchange),
		queues:              make(map[string]bool),
		localTables:         make(map[string]*model.Table),
		fanoutQueues:        make(map[string]string),
		cursors:             make(map[string]*cursorState),
	}

	for _, opt := range opts {
		if err := opt(ch); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply channel option", err)
		}
	}

	// Validate required dependencies
	if ch.stores.Queue == nil {
		return nil, NewError(ErrCodeConfiguration, "QueueStore is required (use WithStores)")
	}
	if ch.stores.Broadcast == nil {
		return nil, NewError(ErrCodeConfiguration, "BroadcastStore is required (use WithStores)")
	}
	if ch.stores.Routing == nil {
		return nil, NewError(ErrCodeConfiguration, "RoutingStore is required (use WithStores)")
	}

	return ch, nil
}

// WithStores sets the required store dependencies for the channel.
func WithStores(stores Stores) ChannelOption {
	return func(ch *Channel) error {
		if stores.Queue == nil {
			return fmt.Errorf("queue store cannot be nil")
		}
		if stores.Broadcast == nil {
			return fmt.Errorf("broadcast store cannot be nil")
		}
		if stores.Routing == nil {
			return fmt.Errorf("routing store cannot be nil")
		}
		ch.stores = stores
		return nil
	}
}

// WithChannelLogger sets the logger instance for the channel.
func WithChannelLogger(logger Logger) ChannelOption {
	return func(ch *Channel) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		ch.logger = logger
		return nil
	}
}

// WithChannelCodec sets the payload codec applied to every message body.
func WithChannelCodec(codec Codec) ChannelOption {
	return func(ch *Channel) error {
		if codec == nil {
			return fmt.Errorf("codec cannot be nil")
		}
		ch.codec = codec
		return nil
	}
}

// WithChannelNotifications sets the notification service for queue lifecycle
// events.
func WithChannelNotifications(service NotificationService) ChannelOption {
	return func(ch *Channel) error {
		if service == nil {
			return fmt.Errorf("notification service cannot be nil")
		}
		ch.notificationService = service
		return nil
	}
}

// ExchangeDeclare registers an exchange on this channel. Declarations are
// channel-local; the routing collection stores bindings only.
func (ch *Channel) ExchangeDeclare(exchange model.Exchange) error {
	if err := exchange.Validate(); err != nil {
		return NewErrorWithCause(ErrCodeValidation, "invalid exchange declaration", err)
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.closed {
		return ErrChannelClosed
	}
	ch.exchanges[exchange.Name] = exchange
	return nil
}

// QueueDeclare registers a queue name on this channel. Queues need no store
// side effect: a point-to-point queue exists implicitly through its messages.
func (ch *Channel) QueueDeclare(queue string) error {
	if queue == "" {
		return NewError(ErrCodeValidation, "queue name is required")
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.closed {
		return ErrChannelClosed
	}
	ch.queues[queue] = true
	return nil
}

// QueueBind binds a queue to an exchange, upserting the durable routing row
// keyed by the full (exchange, queue, routing key, pattern) tuple. Binding an
// identical tuple twice leaves exactly one row.
//
// If the exchange was declared fanout, the bind also opens the queue's
// tailing cursor positioned past all broadcast history present at bind time,
// so the queue never replays messages published before its bind.
func (ch *Channel) QueueBind(ctx context.Context, exchange, routingKey, pattern, queue string) error {
	binding := model.NewBinding(exchange, routingKey, pattern, queue)
	if err := binding.Validate(); err != nil {
		return NewErrorWithCause(ErrCodeValidation, "invalid binding", err)
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.closed {
		return ErrChannelClosed
	}

	if ex, ok := ch.exchanges[exchange]; ok && ex.IsFanout() {
		ch.fanoutQueues[queue] = exchange
		if err := ch.ensureCursorLocked(ctx, queue); err != nil {
			return err
		}
	}

	table, ok := ch.localTables[exchange]
	if !ok {
		table = model.NewTable()
		ch.localTables[exchange] = table
	}
	table.Add(binding.Entry())

	if err := ch.stores.Routing.Bind(ctx, binding); err != nil {
		return NewErrorWithCause(ErrCodeStore, "failed to save binding", err)
	}

	ch.logger.Debugf("Queue bound: exchange=%s, queue=%s, routing_key=%s", exchange, queue, routingKey)
	if err := ch.notificationService.NotifyQueueBound(ctx, exchange, queue); err != nil {
		ch.logger.Warnf("Failed to send queue-bound notification: %v", err)
	}
	return nil
}

// Put enqueues a message body onto a point-to-point queue. The body is
// encoded with the channel codec before storage.
func (ch *Channel) Put(ctx context.Context, queue string, message interface{}) error {
	if queue == "" {
		return NewError(ErrCodeValidation, "queue name is required")
	}
	if ch.isClosed() {
		return ErrChannelClosed
	}

	payload, err := ch.codec.Marshal(message)
	if err != nil {
		return NewErrorWithCause(ErrCodeChannel, "failed to encode message", err)
	}
	if err := ch.stores.Queue.Enqueue(ctx, queue, payload); err != nil {
		return NewErrorWithCause(ErrCodeStore, "failed to enqueue message", err)
	}
	return nil
}

// PutFanout publishes a message body to every queue bound to a fanout
// exchange. Delivery is independent per subscriber: one queue reading the
// message never consumes it for another.
func (ch *Channel) PutFanout(ctx context.Context, exchange string, message interface{}) error {
	if exchange == "" {
		return NewError(ErrCodeValidation, "exchange name is required")
	}
	if ch.isClosed() {
		return ErrChannelClosed
	}

	payload, err := ch.codec.Marshal(message)
	if err != nil {
		return NewErrorWithCause(ErrCodeChannel, "failed to encode message", err)
	}
	if err := ch.stores.Broadcast.Publish(ctx, exchange, payload); err != nil {
		return NewErrorWithCause(ErrCodeStore, "failed to publish broadcast", err)
	}
	return nil
}

// Publish routes a message through an exchange. Fanout exchanges broadcast;
// an empty exchange name addresses the queue named by the routing key
// directly; any other exchange routes to every bound queue whose routing key
// matches.
func (ch *Channel) Publish(ctx context.Context, exchange, routingKey string, message interface{}) error {
	if exchange == "" {
		return ch.Put(ctx, routingKey, message)
	}

	ch.mu.Lock()
	ex, declared := ch.exchanges[exchange]
	ch.mu.Unlock()

	if declared && ex.IsFanout() {
		return ch.PutFanout(ctx, exchange, message)
	}

	entries, err := ch.GetTable(ctx, exchange)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.RoutingKey != routingKey {
			continue
		}
		if err := ch.Put(ctx, e.Queue, message); err != nil {
			return err
		}
	}
	return nil
}

// Get dequeues the next message from a queue and decodes it into v.
// Fanout-bound queues advance their tailing cursor; any other queue is an
// atomic oldest-first removal from the messages collection.
//
// Returns ErrNoMessage when nothing is available. That outcome is ordinary:
// callers poll again on their own interval rather than block.
func (ch *Channel) Get(ctx context.Context, queue string, v interface{}) error {
	payload, err := ch.getPayload(ctx, queue)
	if err != nil {
		return err
	}
	if err := ch.codec.Unmarshal(payload, v); err != nil {
		return NewErrorWithCause(ErrCodeChannel, "failed to decode message", err)
	}
	return nil
}

// getPayload fetches the next raw payload for a queue without decoding.
func (ch *Channel) getPayload(ctx context.Context, queue string) ([]byte, error) {
	if queue == "" {
		return nil, NewError(ErrCodeValidation, "queue name is required")
	}

	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		return nil, ErrChannelClosed
	}
	_, isFanout := ch.fanoutQueues[queue]
	if isFanout {
		defer ch.mu.Unlock()
		return ch.getFanoutLocked(ctx, queue)
	}
	ch.mu.Unlock()

	payload, err := ch.stores.Queue.DequeueOldest(ctx, queue)
	if err != nil {
		if IsNoMessage(err) {
			return nil, ErrNoMessage
		}
		return nil, NewErrorWithCause(ErrCodeStore, "failed to dequeue message", err)
	}
	return payload, nil
}

// getFanoutLocked advances the queue's tailing cursor one step.
// Caller holds ch.mu.
func (ch *Channel) getFanoutLocked(ctx context.Context, queue string) ([]byte, error) {
	if err := ch.ensureCursorLocked(ctx, queue); err != nil {
		return nil, err
	}

	state := ch.cursors[queue]
	payload, ok, err := state.cursor.TryNext(ctx)
	if err != nil {
		return nil, NewErrorWithCause(ErrCodeStore, "failed to advance broadcast cursor", err)
	}
	if !ok {
		return nil, ErrNoMessage
	}
	state.readCount++
	return payload, nil
}

// Size returns the number of messages waiting in a queue. For fanout-bound
// queues this is the subscriber's unread broadcast count; otherwise it is a
// best-effort document count that may be stale under concurrent traffic.
func (ch *Channel) Size(ctx context.Context, queue string) (int64, error) {
	if queue == "" {
		return 0, NewError(ErrCodeValidation, "queue name is required")
	}

	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		return 0, ErrChannelClosed
	}
	exchange, isFanout := ch.fanoutQueues[queue]
	if isFanout {
		defer ch.mu.Unlock()
		if err := ch.ensureCursorLocked(ctx, queue); err != nil {
			return 0, err
		}
		total, err := ch.stores.Broadcast.Count(ctx, exchange)
		if err != nil {
			return 0, NewErrorWithCause(ErrCodeStore, "failed to count broadcasts", err)
		}
		return total - ch.cursors[queue].readCount, nil
	}
	ch.mu.Unlock()

	n, err := ch.stores.Queue.Count(ctx, queue)
	if err != nil {
		return 0, NewErrorWithCause(ErrCodeStore, "failed to count messages", err)
	}
	return n, nil
}

// Purge discards every message waiting in a queue and returns the count that
// existed immediately before removal.
//
// Point-to-point purge is a count followed by a delete, not one atomic step:
// an enqueue landing between the two survives the purge but is not reflected
// in the returned count. Fanout purge never deletes anything - the capped
// collection cannot be pruned per subscriber - it fast-forwards the cursor
// past everything currently stored instead.
func (ch *Channel) Purge(ctx context.Context, queue string) (int64, error) {
	if queue == "" {
		return 0, NewError(ErrCodeValidation, "queue name is required")
	}

	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		return 0, ErrChannelClosed
	}
	exchange, isFanout := ch.fanoutQueues[queue]
	if isFanout {
		defer ch.mu.Unlock()
		return ch.purgeFanoutLocked(ctx, queue, exchange)
	}
	ch.mu.Unlock()

	size, err := ch.stores.Queue.Count(ctx, queue)
	if err != nil {
		return 0, NewErrorWithCause(ErrCodeStore, "failed to count messages", err)
	}
	if _, err := ch.stores.Queue.DeleteAll(ctx, queue); err != nil {
		return 0, NewErrorWithCause(ErrCodeStore, "failed to purge queue", err)
	}
	return size, nil
}

// purgeFanoutLocked repositions the subscriber cursor past all stored
// broadcasts. Caller holds ch.mu.
func (ch *Channel) purgeFanoutLocked(ctx context.Context, queue, exchange string) (int64, error) {
	if err := ch.ensureCursorLocked(ctx, queue); err != nil {
		return 0, err
	}

	total, err := ch.stores.Broadcast.Count(ctx, exchange)
	if err != nil {
		return 0, NewErrorWithCause(ErrCodeStore, "failed to count broadcasts", err)
	}
	state := ch.cursors[queue]
	size := total - state.readCount

	if err := state.cursor.Close(ctx); err != nil {
		ch.logger.Warnf("Failed to close cursor for queue %s: %v", queue, err)
	}
	cursor, err := ch.stores.Broadcast.Tail(ctx, exchange, total)
	if err != nil {
		delete(ch.cursors, queue)
		return 0, NewErrorWithCause(ErrCodeStore, "failed to reopen broadcast cursor", err)
	}
	state.cursor = cursor
	state.readCount = total

	return size, nil
}

// QueueDelete removes a queue: all durable bindings routed to it, any
// messages still waiting in the messages collection, and the channel's fanout
// cursor state for it.
func (ch *Channel) QueueDelete(ctx context.Context, queue string) error {
	if queue == "" {
		return NewError(ErrCodeValidation, "queue name is required")
	}
	if ch.isClosed() {
		return ErrChannelClosed
	}

	if err := ch.stores.Routing.DeleteByQueue(ctx, queue); err != nil {
		return NewErrorWithCause(ErrCodeStore, "failed to delete bindings", err)
	}
	if _, err := ch.stores.Queue.DeleteAll(ctx, queue); err != nil {
		return NewErrorWithCause(ErrCodeStore, "failed to purge queue", err)
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()
	delete(ch.queues, queue)
	if state, ok := ch.cursors[queue]; ok {
		if err := state.cursor.Close(ctx); err != nil {
			ch.logger.Warnf("Failed to close cursor for queue %s: %v", queue, err)
		}
		delete(ch.cursors, queue)
	}
	delete(ch.fanoutQueues, queue)

	ch.logger.Infof("Queue deleted: %s", queue)
	if err := ch.notificationService.NotifyQueueDeleted(ctx, queue); err != nil {
		ch.logger.Warnf("Failed to send queue-deleted notification: %v", err)
	}
	return nil
}

// GetTable returns the routing table for an exchange: the union of this
// channel's local binding cache and all durable binding rows, deduplicated by
// (routing key, pattern, queue). No caching layer sits in front of the
// durable read - every call sees bindings created by other processes.
func (ch *Channel) GetTable(ctx context.Context, exchange string) ([]model.BindingEntry, error) {
	if exchange == "" {
		return nil, NewError(ErrCodeValidation, "exchange name is required")
	}
	if ch.isClosed() {
		return nil, ErrChannelClosed
	}

	merged := model.NewTable()

	ch.mu.Lock()
	if local, ok := ch.localTables[exchange]; ok {
		for _, e := range local.Entries() {
			merged.Add(e)
		}
	}
	ch.mu.Unlock()

	durable, err := ch.stores.Routing.FindByExchange(ctx, exchange)
	if err != nil {
		return nil, NewErrorWithCause(ErrCodeStore, "failed to load bindings", err)
	}
	for _, b := range durable {
		merged.Add(b.Entry())
	}

	return merged.Entries(), nil
}

// Close shuts the channel down, closing every open tailing cursor and
// discarding per-channel state. Safe to call more than once.
func (ch *Channel) Close(ctx context.Context) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.closed {
		return nil
	}
	ch.closed = true

	for queue, state := range ch.cursors {
		if err := state.cursor.Close(ctx); err != nil {
			ch.logger.Warnf("Failed to close cursor for queue %s: %v", queue, err)
		}
	}
	ch.cursors = make(map[string]*cursorState)
	ch.fanoutQueues = make(map[string]string)
	ch.localTables = make(map[string]*model.Table)

	ch.logger.Info("Channel closed")
	return nil
}

// isClosed reports whether Close has been called.
func (ch *Channel) isClosed() bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.closed
}

// ensureCursorLocked opens the tailing cursor for a fanout-bound queue if it
// is not already open, skipping all broadcast history present at open time.
// Caller holds ch.mu.
func (ch *Channel) ensureCursorLocked(ctx context.Context, queue string) error {
	if _, ok := ch.cursors[queue]; ok {
		return nil
	}
	exchange, ok := ch.fanoutQueues[queue]
	if !ok {
		return NewError(ErrCodeChannel, fmt.Sprintf("queue %q is not bound to a fanout exchange", queue))
	}

	count, err := ch.stores.Broadcast.Count(ctx, exchange)
	if err != nil {
		return NewErrorWithCause(ErrCodeStore, "failed to count broadcasts", err)
	}
	cursor, err := ch.stores.Broadcast.Tail(ctx, exchange, count)
	if err != nil {
		return NewErrorWithCause(ErrCodeStore, "failed to open broadcast cursor", err)
	}

	ch.cursors[queue] = &cursorState{cursor: cursor, readCount: count}
	return nil
}
