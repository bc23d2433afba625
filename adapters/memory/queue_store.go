package memory

import (
	"context"
	"sync"

	"github.com/coregx/mongomq"
)

// QueueStore is an in-memory mongomq.QueueStore. Messages are held per queue
// in enqueue order; DequeueOldest removes the head under the store lock, so
// concurrent consumers never receive the same message.
type QueueStore struct {
	mu     sync.Mutex
	queues map[string][][]byte
}

// NewQueueStore creates an empty in-memory queue store.
func NewQueueStore() *QueueStore {
	return &QueueStore{queues: make(map[string][][]byte)}
}

// Enqueue appends a message to the queue.
func (s *QueueStore) Enqueue(_ context.Context, queue string, payload []byte) error {
	buf := make([]byte, len(payload))
	copy(buf, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[queue] = append(s.queues[queue], buf)
	return nil
}

// DequeueOldest removes and returns the oldest message in the queue.
func (s *QueueStore) DequeueOldest(_ context.Context, queue string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.queues[queue]
	if len(msgs) == 0 {
		return nil, mongomq.ErrNoMessage
	}
	payload := msgs[0]
	s.queues[queue] = msgs[1:]
	return payload, nil
}

// Count returns the number of messages currently in the queue.
func (s *QueueStore) Count(_ context.Context, queue string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.queues[queue])), nil
}

// DeleteAll removes every message in the queue and returns the number removed.
func (s *QueueStore) DeleteAll(_ context.Context, queue string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := int64(len(s.queues[queue]))
	delete(s.queues, queue)
	return count, nil
}
