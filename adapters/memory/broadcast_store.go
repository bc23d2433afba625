package memory

import (
	"context"
	"sync"

	"github.com/coregx/mongomq"
)

// DefaultCappedSize is the default byte cap per exchange log, matching the
// MongoDB adapter's default capped collection size.
const DefaultCappedSize = 100000

// BroadcastStore is an in-memory mongomq.BroadcastStore emulating a capped
// collection. Each exchange keeps an insertion-ordered log; once the byte cap
// is exceeded, the oldest entries are evicted. The newest entry always stays,
// even when it alone exceeds the cap.
type BroadcastStore struct {
	cappedSize int64

	mu   sync.Mutex
	logs map[string]*broadcastLog
}

// broadcastLog holds one exchange's entries. firstSeq is the absolute
// sequence number of entries[0]; eviction advances it without renumbering
// surviving entries, which is what keeps open cursors stable.
type broadcastLog struct {
	entries  [][]byte
	firstSeq int64
	bytes    int64
}

func (l *broadcastLog) nextSeq() int64 {
	return l.firstSeq + int64(len(l.entries))
}

// NewBroadcastStore creates a broadcast store with the given byte cap per
// exchange. A cap <= 0 uses DefaultCappedSize.
func NewBroadcastStore(cappedSize int64) *BroadcastStore {
	if cappedSize <= 0 {
		cappedSize = DefaultCappedSize
	}
	return &BroadcastStore{
		cappedSize: cappedSize,
		logs:       make(map[string]*broadcastLog),
	}
}

// Publish appends a broadcast message for the exchange, evicting the oldest
// entries if the byte cap is exceeded.
func (s *BroadcastStore) Publish(_ context.Context, exchange string, payload []byte) error {
	buf := make([]byte, len(payload))
	copy(buf, payload)

	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.logs[exchange]
	if l == nil {
		l = &broadcastLog{}
		s.logs[exchange] = l
	}

	l.entries = append(l.entries, buf)
	l.bytes += int64(len(buf))
	for l.bytes > s.cappedSize && len(l.entries) > 1 {
		l.bytes -= int64(len(l.entries[0]))
		l.entries = l.entries[1:]
		l.firstSeq++
	}
	return nil
}

// Count returns the number of broadcast messages currently stored for the
// exchange.
func (s *BroadcastStore) Count(_ context.Context, exchange string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := s.logs[exchange]
	if l == nil {
		return 0, nil
	}
	return int64(len(l.entries)), nil
}

// Tail opens a cursor positioned past the first skip entries currently
// stored for the exchange. The cursor produces entries appended later.
func (s *BroadcastStore) Tail(_ context.Context, exchange string, skip int64) (mongomq.BroadcastCursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := skip
	if l := s.logs[exchange]; l != nil {
		pos = l.firstSeq + skip
	}
	return &broadcastCursor{store: s, exchange: exchange, pos: pos}, nil
}

// broadcastCursor reads one exchange's log by absolute sequence number.
type broadcastCursor struct {
	store    *BroadcastStore
	exchange string
	pos      int64
	closed   bool
}

// TryNext returns the entry at the cursor position, or ok=false when the
// cursor has caught up with the log. A position behind the eviction horizon
// jumps forward to the oldest surviving entry.
func (c *broadcastCursor) TryNext(_ context.Context) ([]byte, bool, error) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	if c.closed {
		return nil, false, mongomq.NewError(mongomq.ErrCodeStore, "broadcast cursor is closed")
	}

	l := c.store.logs[c.exchange]
	if l == nil {
		return nil, false, nil
	}
	if c.pos < l.firstSeq {
		c.pos = l.firstSeq
	}
	if c.pos >= l.nextSeq() {
		return nil, false, nil
	}

	payload := l.entries[c.pos-l.firstSeq]
	c.pos++
	return payload, true, nil
}

// Close marks the cursor closed.
func (c *broadcastCursor) Close(_ context.Context) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	c.closed = true
	return nil
}
