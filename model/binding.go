package model

import (
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Binding represents a durable exchange-to-queue routing rule stored in the
// routing collection. The identity of a binding is the full 4-tuple
// (exchange, queue, routing key, pattern); binding the same tuple twice is an
// upsert and leaves exactly one row.
//
// Bindings are created by QueueBind and removed when their queue is deleted.
type Binding struct {
	Exchange   string `bson:"exchange" json:"exchange"`
	Queue      string `bson:"queue" json:"queue"`
	RoutingKey string `bson:"routing_key" json:"routingKey"`
	Pattern    string `bson:"pattern" json:"pattern"`
}

// CollectionName returns the collection Binding documents live in.
func (b Binding) CollectionName() string {
	return CollectionRouting
}

// NewBinding creates a binding rule for the given exchange and queue.
func NewBinding(exchange, routingKey, pattern, queue string) Binding {
	return Binding{
		Exchange:   exchange,
		Queue:      queue,
		RoutingKey: routingKey,
		Pattern:    pattern,
	}
}

// Validate checks that the binding has the fields required for durable
// storage. RoutingKey and Pattern may be empty (fanout bindings carry
// neither).
func (b Binding) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Exchange, validation.Required, validation.Length(1, 255)),
		validation.Field(&b.Queue, validation.Required, validation.Length(1, 255)),
	)
}

// Entry returns the binding's routing-table entry. Within a table for one
// exchange, entries are deduplicated by this value.
func (b Binding) Entry() BindingEntry {
	return BindingEntry{
		RoutingKey: b.RoutingKey,
		Pattern:    b.Pattern,
		Queue:      b.Queue,
	}
}

// BindingEntry is one row of an exchange's routing table: the binding tuple
// minus the exchange, which is implicit in the table it belongs to.
type BindingEntry struct {
	RoutingKey string `json:"routingKey"`
	Pattern    string `json:"pattern"`
	Queue      string `json:"queue"`
}

// Table is a deduplicated set of routing-table entries for one exchange.
// It merges the channel-local cache with durable bindings at lookup time.
type Table struct {
	entries map[BindingEntry]struct{}
}

// NewTable creates an empty routing table.
func NewTable() *Table {
	return &Table{entries: make(map[BindingEntry]struct{})}
}

// Add inserts an entry; duplicates collapse to a single row.
func (t *Table) Add(e BindingEntry) {
	t.entries[e] = struct{}{}
}

// Contains reports whether the entry is present.
func (t *Table) Contains(e BindingEntry) bool {
	_, ok := t.entries[e]
	return ok
}

// Len returns the number of distinct entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Entries returns the table rows in a deterministic order
// (queue, then routing key, then pattern).
func (t *Table) Entries() []BindingEntry {
	out := make([]BindingEntry, 0, len(t.entries))
	for e := range t.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Queue != out[j].Queue {
			return out[i].Queue < out[j].Queue
		}
		if out[i].RoutingKey != out[j].RoutingKey {
			return out[i].RoutingKey < out[j].RoutingKey
		}
		return out[i].Pattern < out[j].Pattern
	})
	return out
}
