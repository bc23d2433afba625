// Package memory provides in-memory implementations of mongomq's store
// interfaces for tests and embedders that want channel semantics without a
// MongoDB server.
//
// The broadcast store emulates a capped collection: each exchange keeps an
// insertion-ordered log with a byte cap, and once the cap is exceeded the
// oldest entries are evicted. Cursors address entries by absolute sequence
// number, so eviction never shifts what a cursor has already consumed.
//
//	stores := memory.NewStores(memory.DefaultCappedSize)
//	channel, _ := mongomq.NewChannel(mongomq.WithStores(stores))
package memory
