package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/models"
)

type published struct {
	exchange string
	key      string
	msg      amqp091.Publishing
}

type fakeChannel struct {
	sent []published
	err  error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

type fakeSource struct {
	ch  *fakeChannel
	err error
}

func (f *fakeSource) publishChannel(context.Context) (publishChannel, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ch, nil
}

func testLogger() *logger.Logger {
	return logger.NewWithWriter("messaging-test", io.Discard, slog.LevelDebug)
}

func TestTopology_Routes(t *testing.T) {
	topo := DefaultTopology()

	tests := []struct {
		exchange string
		key      string
		want     []string
	}{
		{EventsExchange, string(models.EventOrderPlaced), []string{KitchenQueue}},
		{EventsExchange, string(models.EventOrderStatusChanged), []string{KitchenQueue}},
		{EventsExchange, string(models.EventOrderPaid), []string{KitchenQueue}},
		{EventsExchange, string(models.EventTableStatusChanged), nil},
		{EventsExchange, string(models.EventReservationCreated), nil},
		{EventsExchange, string(models.EventLedgerRecorded), nil},
		{NotificationsExchange, "", []string{NotificationsQueue}},
		{NotificationsExchange, "anything", []string{NotificationsQueue}},
		{"unknown", "order.placed", nil},
	}
	for _, tt := range tests {
		t.Run(tt.exchange+"/"+tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, topo.Routes(tt.exchange, tt.key))
		})
	}
}

func TestTopicMatches(t *testing.T) {
	tests := []struct {
		pattern, key string
		want         bool
	}{
		{"order.*", "order.placed", true},
		{"order.*", "order.placed.extra", false},
		{"order.*", "order", false},
		{"order.#", "order", true},
		{"order.#", "order.a.b", true},
		{"#", "delivery.assigned", true},
		{"*.completed", "delivery.completed", true},
		{"*.completed", "reservation.cancelled", false},
		{"table.status_changed", "table.status_changed", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, topicMatches(tt.pattern, tt.key), "%s ~ %s", tt.pattern, tt.key)
	}
}

func TestNotify_PublishesEventAndStatusFanout(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(&fakeSource{ch: ch}, DefaultTopology(), testLogger())

	order := models.Order{ID: "o1", Number: "ORD_20250325_006", Label: "T5", Priority: 5}
	ev := models.Event{
		Type:      models.EventOrderStatusChanged,
		RequestID: "req-1",
		Order:     &order,
		Status:    models.CreateStatusUpdateMessage(order, "Pending", "Processing", "pos-service"),
	}
	require.NoError(t, p.Notify(context.Background(), ev))
	require.Len(t, ch.sent, 2)

	first := ch.sent[0]
	assert.Equal(t, EventsExchange, first.exchange)
	assert.Equal(t, "order.status_changed", first.key)
	assert.Equal(t, uint8(5), first.msg.Priority)
	assert.Equal(t, amqp091.Persistent, first.msg.DeliveryMode)
	assert.Equal(t, "req-1", first.msg.MessageId)
	assert.Equal(t, "application/json", first.msg.ContentType)

	var decoded models.Event
	require.NoError(t, json.Unmarshal(first.msg.Body, &decoded))
	assert.Equal(t, models.EventOrderStatusChanged, decoded.Type)
	assert.Equal(t, "o1", decoded.Order.ID)

	second := ch.sent[1]
	assert.Equal(t, NotificationsExchange, second.exchange)
	assert.Empty(t, second.key)
	var status models.StatusUpdateMessage
	require.NoError(t, json.Unmarshal(second.msg.Body, &status))
	assert.Equal(t, "Processing", status.NewStatus)
	assert.Equal(t, "T5", status.Label)
}

func TestNotify_NonOrderEvent(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(&fakeSource{ch: ch}, DefaultTopology(), testLogger())

	table := models.Table{ID: "5", Status: models.TableOccupied}
	require.NoError(t, p.Notify(context.Background(), models.Event{Type: models.EventTableStatusChanged, Table: &table}))
	require.Len(t, ch.sent, 1)
	assert.Equal(t, "table.status_changed", ch.sent[0].key)
	assert.Equal(t, uint8(0), ch.sent[0].msg.Priority)
}

func TestNotify_Errors(t *testing.T) {
	boom := errors.New("channel closed")

	p := newPublisher(&fakeSource{ch: &fakeChannel{err: boom}}, DefaultTopology(), testLogger())
	err := p.Notify(context.Background(), models.Event{Type: models.EventOrderPlaced})
	assert.ErrorIs(t, err, boom)

	p = newPublisher(&fakeSource{err: boom}, DefaultTopology(), testLogger())
	err = p.Notify(context.Background(), models.Event{Type: models.EventOrderPlaced})
	assert.ErrorIs(t, err, boom)
}

func TestClampPriority(t *testing.T) {
	assert.Equal(t, uint8(0), clampPriority(-3))
	assert.Equal(t, uint8(1), clampPriority(1))
	assert.Equal(t, uint8(10), clampPriority(10))
	assert.Equal(t, uint8(10), clampPriority(42))
}

func TestSettle(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		ack     bool
		requeue bool
	}{
		{"success", nil, true, false},
		{"transient failure", errors.New("db down"), false, true},
		{"poison message", fmt.Errorf("bad ticket: %w", ErrDiscard), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack, requeue := settle(tt.err)
			assert.Equal(t, tt.ack, ack)
			assert.Equal(t, tt.requeue, requeue)
		})
	}
}

func TestParseMessage(t *testing.T) {
	var ev models.Event
	require.NoError(t, ParseMessage([]byte(`{"type":"order.placed"}`), &ev))
	assert.Equal(t, models.EventOrderPlaced, ev.Type)

	err := ParseMessage([]byte(`{not json`), &ev)
	assert.ErrorIs(t, err, ErrDiscard)
}
