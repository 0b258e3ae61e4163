// Package notification prints order status updates from the notifications fanout.
package notification

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/messaging"
	"restaurant-pos/internal/models"
)

const timestampLayout = "2006-01-02 15:04:05"

// Consumer delivers notification messages
type Consumer interface {
	StartConsuming(ctx context.Context, handler messaging.MessageHandler) error
	Close() error
}

// Subscriber handles notification messages
type Subscriber struct {
	consumer Consumer
	logger   *logger.Logger
	out      io.Writer
}

// NewSubscriber creates a new notification subscriber printing to stdout
func NewSubscriber(consumer Consumer, log *logger.Logger) *Subscriber {
	return &Subscriber{consumer: consumer, logger: log, out: os.Stdout}
}

// Start consumes until ctx is cancelled
func (s *Subscriber) Start(ctx context.Context) error {
	requestID := logger.GenerateRequestID()
	s.logger.Info("service_started", "Notification subscriber started", requestID, nil)

	err := s.consumer.StartConsuming(ctx, s.handleNotification)
	if closeErr := s.consumer.Close(); closeErr != nil {
		s.logger.Warn("consumer_close_failed", "Failed to cancel consumer", requestID, map[string]interface{}{"error": closeErr.Error()})
	}
	s.logger.Info("graceful_shutdown", "Notification subscriber stopped", requestID, nil)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// handleNotification processes incoming status update notifications
func (s *Subscriber) handleNotification(ctx context.Context, body []byte) error {
	requestID := logger.RequestIDFromContext(ctx)

	var statusUpdate models.StatusUpdateMessage
	if err := messaging.ParseMessage(body, &statusUpdate); err != nil {
		s.logger.Error("message_parsing_failed", "Failed to parse notification message", requestID, err, nil)
		return err
	}

	s.logger.Debug("notification_received", "Received status update notification", requestID, map[string]interface{}{
		"order_number": statusUpdate.OrderNumber,
		"new_status":   statusUpdate.NewStatus,
		"changed_by":   statusUpdate.ChangedBy,
	})

	if _, err := fmt.Fprintln(s.out, formatNotification(&statusUpdate)); err != nil {
		return fmt.Errorf("failed to print notification: %w", err)
	}

	s.logger.Info("notification_displayed", "Notification displayed to user", requestID, map[string]interface{}{
		"order_number": statusUpdate.OrderNumber,
		"old_status":   statusUpdate.OldStatus,
		"new_status":   statusUpdate.NewStatus,
		"changed_by":   statusUpdate.ChangedBy,
		"timestamp":    statusUpdate.Timestamp.Format(timestampLayout),
	})
	return nil
}

// formatNotification creates a human-readable notification message
func formatNotification(u *models.StatusUpdateMessage) string {
	timestamp := u.Timestamp.Format(timestampLayout)
	name := u.OrderNumber
	if u.Label != "" {
		name = fmt.Sprintf("%s (%s)", u.OrderNumber, u.Label)
	}

	switch models.OrderStatus(u.NewStatus) {
	case models.StatusProcessing:
		if u.EstimatedTime != "" {
			return fmt.Sprintf("[%s] Order %s is now being prepared. Estimated delivery: %s", timestamp, name, u.EstimatedTime)
		}
		return fmt.Sprintf("[%s] Order %s is now being prepared.", timestamp, name)
	case models.StatusCompleted:
		return fmt.Sprintf("[%s] Order %s has been completed. Thank you for your business.", timestamp, name)
	case models.StatusCancelled:
		return fmt.Sprintf("[%s] Order %s has been cancelled.", timestamp, name)
	default:
		return fmt.Sprintf("[%s] Order %s status changed from '%s' to '%s' by %s.", timestamp, name, u.OldStatus, u.NewStatus, u.ChangedBy)
	}
}
