package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/coregx/mongomq"
	"github.com/coregx/mongomq/model"
)

// QueueStore implements mongomq.QueueStore on the plain messages collection.
type QueueStore struct {
	coll *mongo.Collection
}

// NewQueueStore creates a QueueStore over the given database.
func NewQueueStore(db *mongo.Database) *QueueStore {
	return &QueueStore{coll: db.Collection(model.CollectionMessages)}
}

// Enqueue appends a message to the queue. Ordering comes from the inserted
// ObjectID, which increases monotonically.
func (s *QueueStore) Enqueue(ctx context.Context, queue string, payload []byte) error {
	msg := model.NewQueueMessage(queue, payload)
	if err := msg.Validate(); err != nil {
		return mongomq.NewErrorWithCause(mongomq.ErrCodeValidation, "invalid queue message", err)
	}
	if _, err := s.coll.InsertOne(ctx, msg); err != nil {
		return mongomq.NewErrorWithCause(mongomq.ErrCodeStore, "failed to enqueue message", err)
	}
	return nil
}

// DequeueOldest atomically removes and returns the oldest message in the
// queue via findAndModify with remove. Two concurrent callers never receive
// the same document: the server removes it inside the same operation that
// finds it.
func (s *QueueStore) DequeueOldest(ctx context.Context, queue string) ([]byte, error) {
	var msg model.QueueMessage
	err := s.coll.FindOneAndDelete(ctx,
		bson.D{{Key: "queue", Value: queue}},
		options.FindOneAndDelete().SetSort(bson.D{{Key: "_id", Value: 1}}),
	).Decode(&msg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, mongomq.ErrNoMessage
	}
	if err != nil {
		return nil, mongomq.NewErrorWithCause(mongomq.ErrCodeStore, "failed to dequeue message", err)
	}
	return msg.Payload, nil
}

// Count returns the number of messages currently in the queue.
func (s *QueueStore) Count(ctx context.Context, queue string) (int64, error) {
	count, err := s.coll.CountDocuments(ctx, bson.D{{Key: "queue", Value: queue}})
	if err != nil {
		return 0, mongomq.NewErrorWithCause(mongomq.ErrCodeStore, "failed to count messages", err)
	}
	return count, nil
}

// DeleteAll removes every message in the queue and returns the number removed.
func (s *QueueStore) DeleteAll(ctx context.Context, queue string) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.D{{Key: "queue", Value: queue}})
	if err != nil {
		return 0, mongomq.NewErrorWithCause(mongomq.ErrCodeStore, "failed to delete messages", err)
	}
	return res.DeletedCount, nil
}
