package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/models"
)

// publishChannel is the part of an AMQP channel the publisher needs
type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// channelSource hands out a live channel
type channelSource interface {
	publishChannel(ctx context.Context) (publishChannel, error)
}

func (c *Connection) publishChannel(ctx context.Context) (publishChannel, error) {
	return c.Channel(ctx)
}

// Publisher publishes engine events to RabbitMQ
type Publisher struct {
	mu       sync.Mutex
	source   channelSource
	topology Topology
	logger   *logger.Logger
	timeout  time.Duration
}

// NewPublisher creates a new message publisher
func NewPublisher(conn *Connection, log *logger.Logger) *Publisher {
	return newPublisher(conn, conn.Topology(), log)
}

func newPublisher(source channelSource, topology Topology, log *logger.Logger) *Publisher {
	return &Publisher{
		source:   source,
		topology: topology,
		logger:   log,
		timeout:  10 * time.Second,
	}
}

// Notify publishes the event on the topic exchange under its routing key.
// Order status changes are also fanned out as StatusUpdateMessage.
func (p *Publisher) Notify(ctx context.Context, ev models.Event) error {
	var priority uint8
	if ev.Order != nil {
		priority = clampPriority(ev.Order.Priority)
	}
	if err := p.PublishEvent(ctx, ev.RoutingKey(), ev, priority, ev.RequestID); err != nil {
		return err
	}
	if ev.Status != nil {
		return p.PublishNotification(ctx, ev.Status, ev.RequestID)
	}
	return nil
}

// PublishEvent publishes a message to the events topic exchange
func (p *Publisher) PublishEvent(ctx context.Context, routingKey string, msg interface{}, priority uint8, requestID string) error {
	return p.publishMessage(ctx, EventsExchange, routingKey, msg, priority, true, requestID)
}

// PublishNotification publishes a status update message to the notifications fanout exchange
func (p *Publisher) PublishNotification(ctx context.Context, msg *models.StatusUpdateMessage, requestID string) error {
	return p.publishMessage(ctx, NotificationsExchange, "", msg, 0, false, requestID)
}

func (p *Publisher) publishMessage(ctx context.Context, exchange, routingKey string, message interface{}, priority uint8, persistent bool, requestID string) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	deliveryMode := amqp091.Transient
	if persistent {
		deliveryMode = amqp091.Persistent
	}
	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: deliveryMode,
		Priority:     priority,
		Timestamp:    time.Now().UTC(),
		MessageId:    requestID,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.source.publishChannel(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := ch.PublishWithContext(ctx, exchange, routingKey, false, false, publishing); err != nil {
		p.logger.Error("message_publish_failed",
			fmt.Sprintf("Failed to publish message to exchange %s", exchange),
			requestID, err, map[string]interface{}{
				"exchange":    exchange,
				"routing_key": routingKey,
			})
		return fmt.Errorf("failed to publish message: %w", err)
	}

	p.logger.Debug("message_published",
		fmt.Sprintf("Published message to exchange %s", exchange),
		requestID, map[string]interface{}{
			"exchange":     exchange,
			"routing_key":  routingKey,
			"message_size": len(body),
			"queues":       p.topology.Routes(exchange, routingKey),
		})
	return nil
}

func clampPriority(p int) uint8 {
	switch {
	case p < 0:
		return 0
	case p > MaxPriority:
		return MaxPriority
	default:
		return uint8(p)
	}
}
