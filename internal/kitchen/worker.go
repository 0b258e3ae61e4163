package kitchen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/messaging"
	"restaurant-pos/internal/models"
)

// ErrNotForStation is returned for tickets another station should take.
// The message is requeued.
var ErrNotForStation = errors.New("order is not shown on this station")

// Consumer delivers kitchen queue messages
type Consumer interface {
	StartConsuming(ctx context.Context, handler messaging.MessageHandler) error
	Close() error
}

// Recorder counts tickets handled by a station
type Recorder interface {
	TicketSeen(station string, status models.OrderStatus)
}

// Worker drives a kitchen display board from the kitchen queue
type Worker struct {
	board             *Board
	consumer          Consumer
	recorder          Recorder
	logger            *logger.Logger
	heartbeatInterval time.Duration
	now               func() time.Time
}

// NewWorker creates a kitchen display worker
func NewWorker(board *Board, consumer Consumer, recorder Recorder, log *logger.Logger, heartbeatInterval time.Duration) *Worker {
	if heartbeatInterval <= 0 {
		heartbeatInterval = 30 * time.Second
	}
	return &Worker{
		board:             board,
		consumer:          consumer,
		recorder:          recorder,
		logger:            log,
		heartbeatInterval: heartbeatInterval,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

// Board returns the board the worker maintains
func (w *Worker) Board() *Board {
	return w.board
}

// Start consumes until ctx is cancelled
func (w *Worker) Start(ctx context.Context) error {
	requestID := logger.GenerateRequestID()
	station := w.board.Station()

	w.logger.Info("worker_started", fmt.Sprintf("Kitchen display %s started", station.Name), requestID, map[string]interface{}{
		"station":            station.Name,
		"dining_modes":       station.Modes,
		"heartbeat_interval": w.heartbeatInterval.Seconds(),
	})

	go w.heartbeatLoop(ctx)

	err := w.consumer.StartConsuming(ctx, w.HandleMessage)
	if closeErr := w.consumer.Close(); closeErr != nil {
		w.logger.Warn("consumer_close_failed", "Failed to cancel consumer", requestID, map[string]interface{}{"error": closeErr.Error()})
	}
	w.logger.Info("graceful_shutdown", "Kitchen display stopped", requestID, map[string]interface{}{
		"station":      station.Name,
		"open_tickets": w.board.Len(),
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// HandleMessage applies one order event to the board
func (w *Worker) HandleMessage(ctx context.Context, body []byte) error {
	requestID := logger.RequestIDFromContext(ctx)

	var ev models.Event
	if err := messaging.ParseMessage(body, &ev); err != nil {
		w.logger.Error("message_parsing_failed", "Failed to parse order event", requestID, err, nil)
		return err
	}
	if ev.Order == nil {
		return fmt.Errorf("%w: event %s carries no order", messaging.ErrDiscard, ev.Type)
	}
	order := *ev.Order

	station := w.board.Station()
	if !w.board.Accepts(order.DiningMode) {
		w.logger.Debug("order_rejected", fmt.Sprintf("Station %s does not show %s orders", station.Name, order.DiningMode), requestID, map[string]interface{}{
			"order_number": order.Number,
			"dining_mode":  order.DiningMode,
			"station":      station.Name,
		})
		return ErrNotForStation
	}

	if !w.board.Apply(order, w.now()) {
		w.logger.Debug("ticket_unchanged", fmt.Sprintf("Ignoring %s for order %s", ev.Type, order.Number), requestID, map[string]interface{}{
			"order_number": order.Number,
			"status":       order.Status,
		})
		return nil
	}
	if w.recorder != nil {
		w.recorder.TicketSeen(station.Name, order.Status)
	}

	w.logger.Debug("ticket_updated", fmt.Sprintf("Order %s is %s", order.Number, order.Status), requestID, map[string]interface{}{
		"order_number": order.Number,
		"label":        order.Label,
		"status":       order.Status,
		"event":        ev.Type,
		"open_tickets": w.board.Len(),
	})
	return nil
}

// heartbeatLoop logs the board size periodically
func (w *Worker) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(w.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			station := w.board.Station()
			w.logger.Debug("heartbeat_sent", "Kitchen display alive", "", map[string]interface{}{
				"station":      station.Name,
				"open_tickets": w.board.Len(),
				"tickets_seen": station.TicketsSeen,
			})
		}
	}
}
