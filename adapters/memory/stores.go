package memory

import (
	"context"

	"github.com/coregx/mongomq"
)

// NewStores creates a full in-memory store bundle with the given broadcast
// byte cap. A cap <= 0 uses DefaultCappedSize.
func NewStores(cappedSize int64) mongomq.Stores {
	return mongomq.Stores{
		Queue:     NewQueueStore(),
		Broadcast: NewBroadcastStore(cappedSize),
		Routing:   NewRoutingStore(),
	}
}

// Connector is an in-memory mongomq.Connector handing out a fixed store
// bundle. Useful for exercising Transport without a server.
type Connector struct {
	stores mongomq.Stores
}

// NewConnector creates a Connector over in-memory stores with the given
// broadcast byte cap.
func NewConnector(cappedSize int64) *Connector {
	return &Connector{stores: NewStores(cappedSize)}
}

// Connect implements mongomq.Connector.
func (c *Connector) Connect(_ context.Context) (mongomq.Stores, error) {
	return c.stores, nil
}

// Close implements mongomq.Connector.
func (c *Connector) Close(_ context.Context) error {
	return nil
}
