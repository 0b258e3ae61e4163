package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusPending, StatusPending, false},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusProcessing, StatusPending, false},
		{StatusCompleted, StatusProcessing, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusProcessing, false},
		{StatusCancelled, StatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrderStatus_Terminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusProcessing.Terminal())
}

func TestCalculatePriority(t *testing.T) {
	tests := []struct {
		total float64
		want  int
	}{
		{21.00, 1},
		{49.99, 1},
		{50.00, 5},
		{100.00, 5},
		{100.01, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CalculatePriority(NewMoney(tt.total)), "total %v", tt.total)
	}
}

func TestGenerateOrderNumber(t *testing.T) {
	date := time.Date(2025, 3, 25, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "ORD_20250325_007", GenerateOrderNumber(date, 7))
}

func TestOrderLabel(t *testing.T) {
	assert.Equal(t, "T5", OrderLabel(DineIn, "5", 3))
	assert.Equal(t, "TA3", OrderLabel(TakeAway, "", 3))
	assert.Equal(t, "D2", OrderLabel(Delivery, "", 2))
}

func TestMenuItem_DiscountedPrice(t *testing.T) {
	item := MenuItem{Price: NewMoney(17.99), Discount: 20}
	assert.Equal(t, "14.39", item.DiscountedPrice().StringFixed(2))

	item.Discount = 0
	assert.Equal(t, "17.99", item.DiscountedPrice().StringFixed(2))
}

func TestOrder_CloneIsDeep(t *testing.T) {
	order := Order{
		Items:    []LineItem{{Item: MenuItem{ID: "1", Ingredients: []string{"Egg"}}, Quantity: 2}},
		Delivery: &DeliveryInfo{Address: "123 Main St"},
	}

	clone := order.Clone()
	clone.Items[0].Quantity = 9
	clone.Items[0].Item.Ingredients[0] = "Milk"
	clone.Delivery.DriverID = "1"

	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.Equal(t, "Egg", order.Items[0].Item.Ingredients[0])
	assert.Empty(t, order.Delivery.DriverID)
	assert.Equal(t, 2, order.ItemCount())
}

func TestReservation_Window(t *testing.T) {
	r := Reservation{Date: "2025-03-25", Time: "19:00", Duration: 120}
	start, end, err := r.Window()
	require.NoError(t, err)
	assert.Equal(t, 19, start.Hour())
	assert.Equal(t, 21, end.Hour())

	_, _, err = Reservation{Date: "25/03/2025", Time: "19:00"}.Window()
	assert.Error(t, err)
}

func TestOverlaps(t *testing.T) {
	at := func(h, m int) time.Time { return time.Date(2025, 3, 25, h, m, 0, 0, time.UTC) }

	assert.True(t, Overlaps(at(19, 0), at(21, 0), at(20, 0), at(22, 0)))
	assert.True(t, Overlaps(at(19, 0), at(21, 0), at(19, 30), at(20, 0)))
	assert.False(t, Overlaps(at(19, 0), at(21, 0), at(21, 0), at(22, 0)))
	assert.False(t, Overlaps(at(10, 0), at(11, 0), at(12, 0), at(13, 0)))
}

func TestParseDiningModes(t *testing.T) {
	assert.Nil(t, ParseDiningModes(""))
	assert.Equal(t, []DiningMode{DineIn, Delivery}, ParseDiningModes("dine_in, delivery, bogus"))
	assert.Equal(t, []DiningMode{TakeAway}, ParseDiningModes("takeout"))
}

func TestStation_Accepts(t *testing.T) {
	all := &Station{Name: "main"}
	assert.True(t, all.Accepts(Delivery))

	bar := &Station{Name: "bar", Modes: []DiningMode{DineIn}}
	assert.True(t, bar.Accepts(DineIn))
	assert.False(t, bar.Accepts(TakeAway))
}

func TestCreateStatusUpdateMessage(t *testing.T) {
	order := Order{ID: "9", Number: "ORD_20250325_001", Label: "D1", Delivery: &DeliveryInfo{EstimatedTime: "30-45 minutes"}}
	msg := CreateStatusUpdateMessage(order, "Pending", "Processing", "pos-service")

	assert.Equal(t, "9", msg.OrderID)
	assert.Equal(t, "D1", msg.Label)
	assert.Equal(t, "30-45 minutes", msg.EstimatedTime)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestComputeTotals(t *testing.T) {
	lines := []LineItem{
		{Item: MenuItem{ID: "1", Price: NewMoney(17.99)}, Quantity: 2},
		{Item: MenuItem{ID: "2", Price: NewMoney(23.99)}, Quantity: 1},
	}

	subtotal, tax, total := ComputeTotals(lines, NewMoney(0.05))
	assert.Equal(t, "59.97", subtotal.StringFixed(2))
	assert.Equal(t, "3.00", tax.StringFixed(2))
	assert.Equal(t, "62.97", total.StringFixed(2))

	subtotal, tax, total = ComputeTotals(nil, NewMoney(0.05))
	assert.True(t, subtotal.IsZero())
	assert.True(t, tax.IsZero())
	assert.True(t, total.IsZero())
}
