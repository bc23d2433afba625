package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BroadcastMessage represents a fanout message stored in the capped broadcast
// collection. The Queue field holds the exchange name, not a queue name: every
// queue bound to that exchange reads the same document through its own tailing
// cursor.
//
// Broadcast messages are never explicitly deleted. The capped collection
// evicts the oldest documents once its configured byte size is reached, which
// bounds fanout history; subscribers that fall behind the eviction horizon
// miss those messages.
type BroadcastMessage struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Queue   string             `bson:"queue" json:"queue"` // exchange name
	Payload []byte             `bson:"payload" json:"payload"`
}

// CollectionName returns the capped collection BroadcastMessage documents
// live in.
func (m BroadcastMessage) CollectionName() string {
	return CollectionBroadcast
}

// NewBroadcastMessage creates a broadcast message for a fanout publish on
// the given exchange.
func NewBroadcastMessage(exchange string, payload []byte) BroadcastMessage {
	return BroadcastMessage{
		Queue:   exchange,
		Payload: payload,
	}
}

// Validate checks that the broadcast message is storable.
func (m BroadcastMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Queue, validation.Required, validation.Length(1, 255)),
		validation.Field(&m.Payload, validation.Required),
	)
}
