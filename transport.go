package mongomq

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Transport defaults advertised to the surrounding broker framework.
const (
	// DefaultPort is the store's standard network port.
	DefaultPort = 27017

	// DriverName identifies the transport driver.
	DriverName = "mongodb"

	// DefaultPollingInterval is the interval the surrounding polling loop
	// should drain channels at. Operations never block waiting for data;
	// the loop retries on this interval instead.
	DefaultPollingInterval = 1 * time.Second
)

// Connector opens the backing store and produces the stores a channel
// operates on. adapters/mongo provides the production implementation;
// adapters/memory provides one for tests.
type Connector interface {
	// Connect opens (or validates) the store connection, ensures required
	// collections and indexes exist, and returns the ready stores.
	// Connection failures surface as CONNECTION_ERROR; an unsupported
	// server version surfaces as COMPATIBILITY_ERROR and is never retried.
	Connect(ctx context.Context) (Stores, error)

	// Close releases the store connection.
	Close(ctx context.Context) error
}

// Transport creates channels over a shared store connection. The connection
// is established lazily on the first channel request and then reused: an
// explicit connect-or-reuse step, not a hidden side effect of field access.
//
// Thread safety: safe for concurrent use.
type Transport struct {
	connector           Connector
	logger              Logger
	codec               Codec
	notificationService NotificationService
	pollingInterval     time.Duration

	mu     sync.Mutex
	stores *Stores // cached after the first successful connect
}

// TransportOption configures a Transport.
type TransportOption func(*Transport) error

// NewTransport creates a new Transport with the provided options.
//
// Required options:
//   - WithConnector: the store connector
//
// Optional options:
//   - WithTransportLogger: logger instance (default: NoopLogger)
//   - WithTransportCodec: payload codec handed to channels (default: JSONCodec)
//   - WithTransportNotifications: notification service handed to channels
//     (default: no-op)
//   - WithPollingInterval: advertised polling interval (default: 1s)
func NewTransport(opts ...TransportOption) (*Transport, error) {
	t := &Transport{
		logger:              &NoopLogger{},
		codec:               JSONCodec{},
		notificationService: &NoOpNotificationService{},
		pollingInterval:     DefaultPollingInterval,
	}

	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply transport option", err)
		}
	}

	if t.connector == nil {
		return nil, NewError(ErrCodeConfiguration, "Connector is required (use WithConnector)")
	}

	return t, nil
}

// WithConnector sets the store connector.
func WithConnector(connector Connector) TransportOption {
	return func(t *Transport) error {
		if connector == nil {
			return fmt.Errorf("connector cannot be nil")
		}
		t.connector = connector
		return nil
	}
}

// WithTransportLogger sets the logger instance for the transport and the
// channels it creates.
func WithTransportLogger(logger Logger) TransportOption {
	return func(t *Transport) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		t.logger = logger
		return nil
	}
}

// WithTransportCodec sets the payload codec handed to channels.
func WithTransportCodec(codec Codec) TransportOption {
	return func(t *Transport) error {
		if codec == nil {
			return fmt.Errorf("codec cannot be nil")
		}
		t.codec = codec
		return nil
	}
}

// WithTransportNotifications sets the notification service handed to the
// channels this transport creates.
func WithTransportNotifications(service NotificationService) TransportOption {
	return func(t *Transport) error {
		if service == nil {
			return fmt.Errorf("notification service cannot be nil")
		}
		t.notificationService = service
		return nil
	}
}

// WithPollingInterval sets the polling interval advertised to consumers.
func WithPollingInterval(interval time.Duration) TransportOption {
	return func(t *Transport) error {
		if interval <= 0 {
			return fmt.Errorf("polling interval must be > 0, got %v", interval)
		}
		t.pollingInterval = interval
		return nil
	}
}

// SupportsFanout reports the fanout capability flag. The MongoDB transport
// delivers fanout through the capped broadcast collection.
func (t *Transport) SupportsFanout() bool {
	return true
}

// PollingInterval returns the advertised polling interval.
func (t *Transport) PollingInterval() time.Duration {
	return t.pollingInterval
}

// Channel creates a new channel over the transport's store connection,
// connecting on first use.
func (t *Transport) Channel(ctx context.Context) (*Channel, error) {
	stores, err := t.connect(ctx)
	if err != nil {
		return nil, err
	}
	return NewChannel(
		WithStores(stores),
		WithChannelLogger(t.logger),
		WithChannelCodec(t.codec),
		WithChannelNotifications(t.notificationService),
	)
}

// connect establishes the store connection once and reuses it afterwards.
// A failed attempt is not cached: the next call tries again, but retry
// policy belongs to the caller, not this layer.
func (t *Transport) connect(ctx context.Context) (Stores, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stores != nil {
		return *t.stores, nil
	}

	stores, err := t.connector.Connect(ctx)
	if err != nil {
		return Stores{}, err
	}
	t.stores = &stores

	t.logger.Infof("Transport connected (driver=%s)", DriverName)
	return stores, nil
}

// Close releases the store connection.
func (t *Transport) Close(ctx context.Context) error {
	t.mu.Lock()
	t.stores = nil
	t.mu.Unlock()
	return t.connector.Close(ctx)
}
