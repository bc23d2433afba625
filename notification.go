package mongomq

import (
	"context"
	"time"
)

// NotificationService defines an optional interface for observing consumer
// events (handler failures, poll backoff).
//
// Implementations might send emails, Slack messages, or log to monitoring
// systems.
type NotificationService interface {
	// NotifyDeliveryFailure is called when a handler returns an error for a
	// dequeued message. The message is not requeued; redelivery is out of
	// scope for this transport.
	NotifyDeliveryFailure(ctx context.Context, queue string, err error) error

	// NotifyPollBackoff is called when consecutive store failures widen the
	// consumer's polling interval.
	NotifyPollBackoff(ctx context.Context, queue string, failures int, delay time.Duration) error

	// NotifyQueueBound is called after a queue is bound to an exchange.
	NotifyQueueBound(ctx context.Context, exchange, queue string) error

	// NotifyQueueDeleted is called after a queue and its bindings are removed.
	NotifyQueueDeleted(ctx context.Context, queue string) error
}

// NoOpNotificationService is a no-op implementation of NotificationService.
// Use this when notifications are not needed.
type NoOpNotificationService struct{}

// NotifyDeliveryFailure does nothing.
func (n *NoOpNotificationService) NotifyDeliveryFailure(_ context.Context, _ string, _ error) error {
	return nil
}

// NotifyPollBackoff does nothing.
func (n *NoOpNotificationService) NotifyPollBackoff(_ context.Context, _ string, _ int, _ time.Duration) error {
	return nil
}

// NotifyQueueBound does nothing.
func (n *NoOpNotificationService) NotifyQueueBound(_ context.Context, _, _ string) error {
	return nil
}

// NotifyQueueDeleted does nothing.
func (n *NoOpNotificationService) NotifyQueueDeleted(_ context.Context, _ string) error {
	return nil
}

// LoggingNotificationService is a simple implementation that logs notifications.
type LoggingNotificationService struct {
	logger Logger
}

// NewLoggingNotificationService creates a new LoggingNotificationService.
func NewLoggingNotificationService(logger Logger) *LoggingNotificationService {
	return &LoggingNotificationService{logger: logger}
}

// NotifyDeliveryFailure logs the handler failure.
func (n *LoggingNotificationService) NotifyDeliveryFailure(_ context.Context, queue string, err error) error {
	n.logger.Warnf("Delivery failed: queue=%s, error=%v", queue, err)
	return nil
}

// NotifyPollBackoff logs the widened polling interval.
func (n *LoggingNotificationService) NotifyPollBackoff(_ context.Context, queue string, failures int, delay time.Duration) error {
	n.logger.Warnf("Polling backed off: queue=%s, consecutive_failures=%d, delay=%v", queue, failures, delay)
	return nil
}

// NotifyQueueBound logs the new binding.
func (n *LoggingNotificationService) NotifyQueueBound(_ context.Context, exchange, queue string) error {
	n.logger.Infof("Queue bound: exchange=%s, queue=%s", exchange, queue)
	return nil
}

// NotifyQueueDeleted logs the queue removal.
func (n *LoggingNotificationService) NotifyQueueDeleted(_ context.Context, queue string) error {
	n.logger.Infof("Queue deleted: %s", queue)
	return nil
}
