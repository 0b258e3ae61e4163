package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DiningMode determines which auxiliary entity an order requires
type DiningMode string

const (
	DineIn   DiningMode = "Dine in"
	TakeAway DiningMode = "Take Away"
	Delivery DiningMode = "Delivery"
)

// Valid reports whether m is a known dining mode
func (m DiningMode) Valid() bool {
	switch m {
	case DineIn, TakeAway, Delivery:
		return true
	}
	return false
}

// OrderStatus represents the status of an order
type OrderStatus string

const (
	StatusPending    OrderStatus = "Pending"
	StatusProcessing OrderStatus = "Processing"
	StatusCompleted  OrderStatus = "Completed"
	StatusCancelled  OrderStatus = "Cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusCancelled},
}

// Valid reports whether s is a known order status
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether next is reachable from s in one step
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentStatus is the settlement state of an order
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "Unpaid"
	PaymentPartial PaymentStatus = "Partial"
	PaymentPaid    PaymentStatus = "Paid"
)

// PaymentMethod is how a transaction was settled
type PaymentMethod string

const (
	MethodCash   PaymentMethod = "Cash"
	MethodCard   PaymentMethod = "Card"
	MethodQRCode PaymentMethod = "QR Code"
	MethodOther  PaymentMethod = "Other"
)

// Valid reports whether m is a known payment method
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodCard, MethodQRCode, MethodOther:
		return true
	}
	return false
}

// LineItem is a menu item snapshot with a quantity, used by carts and orders
type LineItem struct {
	Item     MenuItem `json:"item"`
	Quantity int      `json:"quantity"`
	Notes    string   `json:"notes,omitempty"`
}

// Total returns price times quantity
func (l LineItem) Total() Money {
	return l.Item.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// DeliveryInfo is attached to Delivery orders only
type DeliveryInfo struct {
	Address       string `json:"address"`
	ContactName   string `json:"contact_name"`
	ContactPhone  string `json:"contact_phone"`
	Notes         string `json:"notes,omitempty"`
	EstimatedTime string `json:"estimated_time,omitempty"`
	DriverID      string `json:"driver_id,omitempty"`
}

// Order represents a placed customer order
type Order struct {
	ID            string        `json:"id"`
	Number        string        `json:"order_number"`
	Label         string        `json:"label"`
	TableID       string        `json:"table_id,omitempty"`
	DiningMode    DiningMode    `json:"dining_mode"`
	Status        OrderStatus   `json:"status"`
	Items         []LineItem    `json:"items"`
	Subtotal      Money         `json:"subtotal"`
	Tax           Money         `json:"tax"`
	Total         Money         `json:"total"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentMethod PaymentMethod `json:"payment_method,omitempty"`
	Server        string        `json:"server,omitempty"`
	Delivery      *DeliveryInfo `json:"delivery,omitempty"`
	Priority      int           `json:"priority"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
}

// ItemCount returns the number of units across all lines
func (o Order) ItemCount() int {
	n := 0
	for _, l := range o.Items {
		n += l.Quantity
	}
	return n
}

// Clone returns a deep copy of o
func (o Order) Clone() Order {
	items := make([]LineItem, len(o.Items))
	for i, l := range o.Items {
		l.Item = l.Item.Clone()
		items[i] = l
	}
	o.Items = items
	if o.Delivery != nil {
		d := *o.Delivery
		o.Delivery = &d
	}
	if o.CompletedAt != nil {
		t := *o.CompletedAt
		o.CompletedAt = &t
	}
	return o
}

// CalculatePriority calculates the kitchen priority based on total amount
func CalculatePriority(total Money) int {
	if total.GreaterThan(decimal.NewFromInt(100)) {
		return 10
	}
	if total.GreaterThanOrEqual(decimal.NewFromInt(50)) {
		return 5
	}
	return 1
}

// GenerateOrderNumber generates a unique order number in format ORD_YYYYMMDD_NNN
func GenerateOrderNumber(date time.Time, sequence int) string {
	dateStr := date.Format("20060102")
	return fmt.Sprintf("ORD_%s_%03d", dateStr, sequence)
}

// OrderLabel returns the display label shown on tickets: T<table>, TA<seq> or D<seq>
func OrderLabel(mode DiningMode, tableNumber string, sequence int) string {
	switch mode {
	case DineIn:
		return "T" + tableNumber
	case Delivery:
		return fmt.Sprintf("D%d", sequence)
	default:
		return fmt.Sprintf("TA%d", sequence)
	}
}
