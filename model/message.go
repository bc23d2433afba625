package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names used by the channel. The broadcast and routing collections
// deliberately share the "messages." prefix so all channel state groups
// together in the database.
const (
	CollectionMessages  = "messages"
	CollectionBroadcast = "messages.broadcast"
	CollectionRouting   = "messages.routing"
)

// QueueMessage represents a point-to-point message stored in the plain
// messages collection. Messages are immutable once enqueued: a message is
// created on enqueue and removed by the single successful dequeue (or a
// purge). The document identifier provides the FIFO ordering - ObjectIDs
// increase monotonically, so oldest-by-_id equals enqueue order.
type QueueMessage struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Queue   string             `bson:"queue" json:"queue"`
	Payload []byte             `bson:"payload" json:"payload"`
}

// CollectionName returns the collection QueueMessage documents live in.
func (m QueueMessage) CollectionName() string {
	return CollectionMessages
}

// NewQueueMessage creates a message for enqueueing into a queue.
// The payload is an already-encoded message body; the channel's codec
// produces it.
func NewQueueMessage(queue string, payload []byte) QueueMessage {
	return QueueMessage{
		Queue:   queue,
		Payload: payload,
	}
}

// Validate checks that the message is storable.
func (m QueueMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Queue, validation.Required, validation.Length(1, 255)),
		validation.Field(&m.Payload, validation.Required),
	)
}
