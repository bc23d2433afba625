package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/coregx/mongomq"
	"github.com/coregx/mongomq/model"
)

// BroadcastStore implements mongomq.BroadcastStore on the capped broadcast
// collection. Inserts never delete anything; the capped collection evicts the
// oldest documents itself once its byte size is reached.
type BroadcastStore struct {
	coll *mongo.Collection
}

// NewBroadcastStore creates a BroadcastStore over the given database.
func NewBroadcastStore(db *mongo.Database) *BroadcastStore {
	return &BroadcastStore{coll: db.Collection(model.CollectionBroadcast)}
}

// Publish appends a broadcast message for the exchange.
func (s *BroadcastStore) Publish(ctx context.Context, exchange string, payload []byte) error {
	msg := model.NewBroadcastMessage(exchange, payload)
	if err := msg.Validate(); err != nil {
		return mongomq.NewErrorWithCause(mongomq.ErrCodeValidation, "invalid broadcast message", err)
	}
	if _, err := s.coll.InsertOne(ctx, msg); err != nil {
		return mongomq.NewErrorWithCause(mongomq.ErrCodeStore, "failed to publish broadcast message", err)
	}
	return nil
}

// Count returns the number of broadcast messages currently stored for the
// exchange.
func (s *BroadcastStore) Count(ctx context.Context, exchange string) (int64, error) {
	count, err := s.coll.CountDocuments(ctx, bson.D{{Key: "queue", Value: exchange}})
	if err != nil {
		return 0, mongomq.NewErrorWithCause(mongomq.ErrCodeStore, "failed to count broadcast messages", err)
	}
	return count, nil
}

// Tail opens a tailable cursor over the exchange's broadcast messages in
// natural (insertion) order, positioned past the first skip entries. The
// cursor stays open at the end of the collection and produces documents
// appended later.
func (s *BroadcastStore) Tail(ctx context.Context, exchange string, skip int64) (mongomq.BroadcastCursor, error) {
	opts := options.Find().SetCursorType(options.Tailable)
	if skip > 0 {
		opts = opts.SetSkip(skip)
	}
	cur, err := s.coll.Find(ctx, bson.D{{Key: "queue", Value: exchange}}, opts)
	if err != nil {
		return nil, mongomq.NewErrorWithCause(mongomq.ErrCodeStore, "failed to open broadcast cursor", err)
	}
	return &broadcastCursor{cur: cur}, nil
}

// broadcastCursor adapts the driver's tailable cursor to
// mongomq.BroadcastCursor.
type broadcastCursor struct {
	cur *mongo.Cursor
}

// TryNext advances the cursor without blocking for new data.
func (c *broadcastCursor) TryNext(ctx context.Context) ([]byte, bool, error) {
	if !c.cur.TryNext(ctx) {
		if err := c.cur.Err(); err != nil {
			return nil, false, mongomq.NewErrorWithCause(mongomq.ErrCodeStore, "broadcast cursor failed", err)
		}
		return nil, false, nil
	}
	var msg model.BroadcastMessage
	if err := c.cur.Decode(&msg); err != nil {
		return nil, false, mongomq.NewErrorWithCause(mongomq.ErrCodeStore, "failed to decode broadcast message", err)
	}
	return msg.Payload, true, nil
}

// Close releases the server-side cursor.
func (c *broadcastCursor) Close(ctx context.Context) error {
	if err := c.cur.Close(ctx); err != nil {
		return mongomq.NewErrorWithCause(mongomq.ErrCodeStore, "failed to close broadcast cursor", err)
	}
	return nil
}
