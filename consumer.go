package mongomq

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/coregx/mongomq/retry"
)

// Delivery is one message handed to a Handler: the raw stored payload plus
// the queue it came from. The consumer that dequeued it is its sole owner.
type Delivery struct {
	Queue   string
	Payload []byte

	codec Codec
}

// Decode decodes the payload into v using the channel's codec.
func (d Delivery) Decode(v interface{}) error {
	return d.codec.Unmarshal(d.Payload, v)
}

// Handler processes dequeued messages. Returning an error marks the delivery
// failed; the message is not requeued, since the dequeue already removed it
// from the store.
type Handler interface {
	HandleMessage(ctx context.Context, delivery Delivery) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, delivery Delivery) error

// HandleMessage implements Handler.
func (f HandlerFunc) HandleMessage(ctx context.Context, delivery Delivery) error {
	return f(ctx, delivery)
}

// Consumer polls one queue on a channel and hands messages to a Handler.
// Dequeue never blocks waiting for data: an empty queue ends the drain pass
// and the consumer sleeps until the next tick. Consecutive store failures
// widen the interval according to the backoff strategy, then the interval
// snaps back on the first successful pass.
//
// This method of consumption works for point-to-point and fanout-bound
// queues alike; the channel picks the right dequeue path.
//
// Thread safety: a Consumer owns its poll loop; run one goroutine per
// Consumer.
type Consumer struct {
	channel             *Channel
	queue               string
	handler             Handler
	logger              Logger
	notificationService NotificationService
	backoff             retry.Strategy
	drainLimit          int
	tag                 string
}

// NewConsumer creates a new queue consumer with the provided options.
//
// Required options:
//   - WithConsumerChannel: the channel and queue to consume
//   - WithHandler: the message handler
//
// Optional options:
//   - WithConsumerLogger: logger instance (default: NoopLogger)
//   - WithBackoffStrategy: poll backoff (default: retry.DefaultStrategy())
//   - WithDrainLimit: messages per drain pass (default: 100)
//   - WithConsumerNotifications: notification service (default: no-op)
//
// Example:
//
//	consumer, err := mongomq.NewConsumer(
//	    mongomq.WithConsumerChannel(channel, "orders"),
//	    mongomq.WithHandler(handler),
//	    mongomq.WithConsumerLogger(logger),
//	)
//	go consumer.Run(ctx, transport.PollingInterval())
func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	c := &Consumer{
		logger:              &NoopLogger{},
		notificationService: &NoOpNotificationService{},
		backoff:             retry.DefaultStrategy(),
		drainLimit:          100,
		tag:                 fmt.Sprintf("ctag-%s", uuid.NewString()),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply consumer option", err)
		}
	}

	// Validate required dependencies
	if c.channel == nil {
		return nil, NewError(ErrCodeConfiguration, "Channel is required (use WithConsumerChannel)")
	}
	if c.handler == nil {
		return nil, NewError(ErrCodeConfiguration, "Handler is required (use WithHandler)")
	}

	return c, nil
}

// Tag returns the consumer's generated tag, used in logs to tell concurrent
// consumers of the same queue apart.
func (c *Consumer) Tag() string {
	return c.tag
}

// Drain dequeues messages until the queue signals empty or the drain limit is
// reached, handing each to the handler. Handler failures are logged and
// notified but do not stop the pass; the message is already consumed.
//
// Returns the number of messages handled successfully. A store failure stops
// the pass and is returned for the caller's backoff handling.
func (c *Consumer) Drain(ctx context.Context) (int, error) {
	delivered := 0
	for i := 0; i < c.drainLimit; i++ {
		payload, err := c.channel.getPayload(ctx, c.queue)
		if err != nil {
			if IsNoMessage(err) {
				return delivered, nil
			}
			return delivered, err
		}

		delivery := Delivery{Queue: c.queue, Payload: payload, codec: c.channel.codec}
		if err := c.handler.HandleMessage(ctx, delivery); err != nil {
			c.logger.Errorf("Handler failed for queue %s (consumer=%s): %v", c.queue, c.tag, err)
			if nerr := c.notificationService.NotifyDeliveryFailure(ctx, c.queue, err); nerr != nil {
				c.logger.Warnf("Failed to send delivery failure notification: %v", nerr)
			}
			continue
		}
		delivered++
	}
	return delivered, nil
}

// Run starts the poll loop and blocks until the context is canceled.
// Typically run in a goroutine.
func (c *Consumer) Run(ctx context.Context, interval time.Duration) {
	c.logger.Infof("Consumer started: tag=%s, queue=%s, interval=%v", c.tag, c.queue, interval)

	failures := 0
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Infof("Consumer stopped: tag=%s", c.tag)
			return
		case <-timer.C:
			delivered, err := c.Drain(ctx)
			if err != nil {
				failures++
				delay := c.backoff.Delay(failures)
				if delay < interval {
					delay = interval
				}
				c.logger.Errorf("Drain failed for queue %s (consecutive_failures=%d): %v", c.queue, failures, err)
				if nerr := c.notificationService.NotifyPollBackoff(ctx, c.queue, failures, delay); nerr != nil {
					c.logger.Warnf("Failed to send backoff notification: %v", nerr)
				}
				timer.Reset(delay)
				continue
			}

			if delivered > 0 {
				c.logger.Debugf("Drained %d messages from queue %s", delivered, c.queue)
			}
			failures = 0
			timer.Reset(interval)
		}
	}
}
