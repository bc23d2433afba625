package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/coregx/mongomq"
	"github.com/coregx/mongomq/model"
)

// RoutingStore implements mongomq.RoutingStore on the routing collection.
type RoutingStore struct {
	coll *mongo.Collection
}

// NewRoutingStore creates a RoutingStore over the given database.
func NewRoutingStore(db *mongo.Database) *RoutingStore {
	return &RoutingStore{coll: db.Collection(model.CollectionRouting)}
}

// Bind upserts a binding keyed by its full 4-tuple. Binding the same tuple
// again replaces the existing row, so repeated binds leave exactly one.
func (s *RoutingStore) Bind(ctx context.Context, binding model.Binding) error {
	if err := binding.Validate(); err != nil {
		return mongomq.NewErrorWithCause(mongomq.ErrCodeValidation, "invalid binding", err)
	}
	filter := bson.D{
		{Key: "exchange", Value: binding.Exchange},
		{Key: "queue", Value: binding.Queue},
		{Key: "routing_key", Value: binding.RoutingKey},
		{Key: "pattern", Value: binding.Pattern},
	}
	_, err := s.coll.ReplaceOne(ctx, filter, binding, options.Replace().SetUpsert(true))
	if err != nil {
		return mongomq.NewErrorWithCause(mongomq.ErrCodeStore, "failed to store binding", err)
	}
	return nil
}

// DeleteByQueue removes all bindings routed to the queue.
func (s *RoutingStore) DeleteByQueue(ctx context.Context, queue string) error {
	_, err := s.coll.DeleteMany(ctx, bson.D{{Key: "queue", Value: queue}})
	if err != nil {
		return mongomq.NewErrorWithCause(mongomq.ErrCodeStore, "failed to delete bindings", err)
	}
	return nil
}

// FindByExchange returns all durable bindings for the exchange.
func (s *RoutingStore) FindByExchange(ctx context.Context, exchange string) ([]model.Binding, error) {
	cur, err := s.coll.Find(ctx, bson.D{{Key: "exchange", Value: exchange}})
	if err != nil {
		return nil, mongomq.NewErrorWithCause(mongomq.ErrCodeStore, "failed to query bindings", err)
	}
	defer cur.Close(ctx)

	bindings := []model.Binding{}
	if err := cur.All(ctx, &bindings); err != nil {
		return nil, mongomq.NewErrorWithCause(mongomq.ErrCodeStore, "failed to decode bindings", err)
	}
	return bindings, nil
}
