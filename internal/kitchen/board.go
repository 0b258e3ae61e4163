// Package kitchen keeps the kitchen display board in sync with order events.
package kitchen

import (
	"sort"
	"sync"
	"time"

	"restaurant-pos/internal/models"
)

// Ticket is one order as the kitchen sees it
type Ticket struct {
	OrderID    string             `json:"order_id"`
	Number     string             `json:"number"`
	Label      string             `json:"label"`
	DiningMode models.DiningMode  `json:"dining_mode"`
	Status     models.OrderStatus `json:"status"`
	Items      []models.LineItem  `json:"items"`
	Priority   int                `json:"priority"`
	PlacedAt   time.Time          `json:"placed_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// Board holds the open tickets of one station
type Board struct {
	mu      sync.RWMutex
	station models.Station
	tickets map[string]Ticket
}

// NewBoard creates an empty board for a station
func NewBoard(station models.Station) *Board {
	return &Board{station: station, tickets: make(map[string]Ticket)}
}

// Station returns a copy of the station state
func (b *Board) Station() models.Station {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s := b.station
	s.Modes = append([]models.DiningMode(nil), b.station.Modes...)
	return s
}

// Accepts reports whether the station shows orders of this dining mode
func (b *Board) Accepts(mode models.DiningMode) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.station.Accepts(mode)
}

// Apply folds an order snapshot into the board. Pending and Processing
// orders are upserted, terminal orders leave the board. Snapshots older than
// the ticket already shown are ignored. It returns false when nothing changed.
func (b *Board) Apply(order models.Order, at time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.station.LastSeen = at
	current, exists := b.tickets[order.ID]
	if exists && order.UpdatedAt.Before(current.UpdatedAt) {
		return false
	}

	if order.Status.Terminal() {
		if !exists {
			return false
		}
		delete(b.tickets, order.ID)
		return true
	}

	if !exists {
		b.station.TicketsSeen++
	}
	items := make([]models.LineItem, len(order.Items))
	for i, l := range order.Items {
		l.Item = l.Item.Clone()
		items[i] = l
	}
	b.tickets[order.ID] = Ticket{
		OrderID:    order.ID,
		Number:     order.Number,
		Label:      order.Label,
		DiningMode: order.DiningMode,
		Status:     order.Status,
		Items:      items,
		Priority:   order.Priority,
		PlacedAt:   order.CreatedAt,
		UpdatedAt:  order.UpdatedAt,
	}
	return true
}

// Tickets returns the open tickets oldest first; equal placement times put
// the higher priority first
func (b *Board) Tickets() []Ticket {
	b.mu.RLock()
	out := make([]Ticket, 0, len(b.tickets))
	for _, t := range b.tickets {
		out = append(out, t)
	}
	b.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].PlacedAt.Equal(out[j].PlacedAt) {
			return out[i].PlacedAt.Before(out[j].PlacedAt)
		}
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].OrderID < out[j].OrderID
	})
	return out
}

// Len returns the number of open tickets
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.tickets)
}
