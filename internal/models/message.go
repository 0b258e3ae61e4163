package models

import "time"

// EventType names a domain event; it doubles as the routing key
type EventType string

const (
	EventOrderPlaced          EventType = "order.placed"
	EventOrderStatusChanged   EventType = "order.status_changed"
	EventOrderPaid            EventType = "order.paid"
	EventDeliveryAssigned     EventType = "delivery.assigned"
	EventDeliveryCompleted    EventType = "delivery.completed"
	EventTableStatusChanged   EventType = "table.status_changed"
	EventReservationCreated   EventType = "reservation.created"
	EventReservationUpdated   EventType = "reservation.updated"
	EventReservationCancelled EventType = "reservation.cancelled"
	EventReservationCompleted EventType = "reservation.completed"
	EventLedgerRecorded       EventType = "ledger.recorded"
)

// Event is published after a command commits. Only the fields relevant to
// Type are set.
type Event struct {
	Type        EventType            `json:"type"`
	OccurredAt  time.Time            `json:"occurred_at"`
	RequestID   string               `json:"request_id,omitempty"`
	Order       *Order               `json:"order,omitempty"`
	Table       *Table               `json:"table,omitempty"`
	Driver      *Driver              `json:"driver,omitempty"`
	Reservation *Reservation         `json:"reservation,omitempty"`
	Transaction *Transaction         `json:"transaction,omitempty"`
	Status      *StatusUpdateMessage `json:"status,omitempty"`
}

// RoutingKey returns the topic routing key for the event
func (e Event) RoutingKey() string {
	return string(e.Type)
}

// IsOrderEvent reports whether the event concerns an order ticket
func (e Event) IsOrderEvent() bool {
	return e.Order != nil
}

// StatusUpdateMessage represents a status update notification
type StatusUpdateMessage struct {
	OrderID       string    `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	Label         string    `json:"label"`
	OldStatus     string    `json:"old_status"`
	NewStatus     string    `json:"new_status"`
	ChangedBy     string    `json:"changed_by"`
	Timestamp     time.Time `json:"timestamp"`
	EstimatedTime string    `json:"estimated_time,omitempty"`
}

// CreateStatusUpdateMessage creates a StatusUpdateMessage for order status changes
func CreateStatusUpdateMessage(order Order, oldStatus, newStatus, changedBy string) *StatusUpdateMessage {
	msg := &StatusUpdateMessage{
		OrderID:     order.ID,
		OrderNumber: order.Number,
		Label:       order.Label,
		OldStatus:   oldStatus,
		NewStatus:   newStatus,
		ChangedBy:   changedBy,
		Timestamp:   time.Now().UTC(),
	}
	if order.Delivery != nil {
		msg.EstimatedTime = order.Delivery.EstimatedTime
	}
	return msg
}
