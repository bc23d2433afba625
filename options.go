package mongomq

import (
	"fmt"

	"github.com/coregx/mongomq/retry"
)

// ConsumerOption configures a Consumer.
type ConsumerOption func(*Consumer) error

// WithConsumerChannel sets the channel and queue the consumer drains.
func WithConsumerChannel(channel *Channel, queue string) ConsumerOption {
	return func(c *Consumer) error {
		if channel == nil {
			return fmt.Errorf("channel cannot be nil")
		}
		if queue == "" {
			return fmt.Errorf("queue cannot be empty")
		}
		c.channel = channel
		c.queue = queue
		return nil
	}
}

// WithHandler sets the message handler.
func WithHandler(handler Handler) ConsumerOption {
	return func(c *Consumer) error {
		if handler == nil {
			return fmt.Errorf("handler cannot be nil")
		}
		c.handler = handler
		return nil
	}
}

// WithConsumerLogger sets the logger instance.
func WithConsumerLogger(logger Logger) ConsumerOption {
	return func(c *Consumer) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithBackoffStrategy sets the backoff strategy applied after consecutive
// drain failures.
func WithBackoffStrategy(strategy retry.Strategy) ConsumerOption {
	return func(c *Consumer) error {
		if strategy.BaseDelay <= 0 {
			return fmt.Errorf("backoff base delay must be > 0, got %v", strategy.BaseDelay)
		}
		c.backoff = strategy
		return nil
	}
}

// WithDrainLimit caps the number of messages handled per drain pass.
func WithDrainLimit(limit int) ConsumerOption {
	return func(c *Consumer) error {
		if limit <= 0 {
			return fmt.Errorf("drain limit must be > 0, got %d", limit)
		}
		c.drainLimit = limit
		return nil
	}
}

// WithConsumerNotifications sets the notification service for consumer events.
func WithConsumerNotifications(service NotificationService) ConsumerOption {
	return func(c *Consumer) error {
		if service == nil {
			return fmt.Errorf("notification service cannot be nil")
		}
		c.notificationService = service
		return nil
	}
}
