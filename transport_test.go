package mongomq_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/mongomq"
	"github.com/coregx/mongomq/adapters/memory"
)

// countingConnector wraps the in-memory connector and records connect calls.
type countingConnector struct {
	inner    *memory.Connector
	connects int
	fail     error
}

func (c *countingConnector) Connect(ctx context.Context) (mongomq.Stores, error) {
	c.connects++
	if c.fail != nil {
		return mongomq.Stores{}, c.fail
	}
	return c.inner.Connect(ctx)
}

func (c *countingConnector) Close(ctx context.Context) error {
	return c.inner.Close(ctx)
}

func TestNewTransport_RequiresConnector(t *testing.T) {
	_, err := mongomq.NewTransport()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Connector is required")
}

func TestTransport_CapabilityFlags(t *testing.T) {
	transport, err := mongomq.NewTransport(mongomq.WithConnector(memory.NewConnector(0)))
	require.NoError(t, err)

	assert.True(t, transport.SupportsFanout())
	assert.Equal(t, mongomq.DefaultPollingInterval, transport.PollingInterval())
}

func TestTransport_PollingIntervalOption(t *testing.T) {
	transport, err := mongomq.NewTransport(
		mongomq.WithConnector(memory.NewConnector(0)),
		mongomq.WithPollingInterval(250*time.Millisecond),
	)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, transport.PollingInterval())

	_, err = mongomq.NewTransport(
		mongomq.WithConnector(memory.NewConnector(0)),
		mongomq.WithPollingInterval(0),
	)
	assert.Error(t, err)
}

func TestTransport_ConnectsOnceAndReuses(t *testing.T) {
	ctx := context.Background()
	connector := &countingConnector{inner: memory.NewConnector(0)}

	transport, err := mongomq.NewTransport(mongomq.WithConnector(connector))
	require.NoError(t, err)

	first, err := transport.Channel(ctx)
	require.NoError(t, err)
	second, err := transport.Channel(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, connector.connects, "connection is established once and reused")

	// Channels over the same stores share durable state.
	require.NoError(t, first.Put(ctx, "orders", "shared"))
	var got string
	require.NoError(t, second.Get(ctx, "orders", &got))
	assert.Equal(t, "shared", got)
}

func TestTransport_FailedConnectIsNotCached(t *testing.T) {
	ctx := context.Background()
	connector := &countingConnector{
		inner: memory.NewConnector(0),
		fail:  mongomq.NewError(mongomq.ErrCodeConnection, "server unreachable"),
	}

	transport, err := mongomq.NewTransport(mongomq.WithConnector(connector))
	require.NoError(t, err)

	_, err = transport.Channel(ctx)
	require.Error(t, err)
	assert.True(t, mongomq.IsConnectionError(err))

	// The next attempt tries again instead of reusing the failure.
	connector.fail = nil
	_, err = transport.Channel(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, connector.connects)
}

func TestTransport_CompatibilityErrorSurfacesUnchanged(t *testing.T) {
	ctx := context.Background()
	gateErr := mongomq.NewError(mongomq.ErrCodeCompatibility, "MongoDB version 3.6.23 is not supported, minimum is 4.0")
	connector := &countingConnector{inner: memory.NewConnector(0), fail: gateErr}

	transport, err := mongomq.NewTransport(mongomq.WithConnector(connector))
	require.NoError(t, err)

	_, err = transport.Channel(ctx)
	require.Error(t, err)
	assert.True(t, mongomq.IsCompatibilityError(err))

	var mqErr *mongomq.Error
	require.True(t, errors.As(err, &mqErr))
	assert.Equal(t, mongomq.ErrCodeCompatibility, mqErr.Code)
}

func TestTransport_Close(t *testing.T) {
	ctx := context.Background()
	transport, err := mongomq.NewTransport(mongomq.WithConnector(memory.NewConnector(0)))
	require.NoError(t, err)

	_, err = transport.Channel(ctx)
	require.NoError(t, err)
	assert.NoError(t, transport.Close(ctx))
}
