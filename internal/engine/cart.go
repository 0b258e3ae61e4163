package engine

import (
	"sync"

	"github.com/shopspring/decimal"

	"restaurant-pos/internal/apperr"
	"restaurant-pos/internal/models"
)

// CartOptions controls cart aggregation
type CartOptions struct {
	TaxRate        decimal.Decimal
	StrictQuantity bool
	ApplyDiscounts bool
}

// Totals is the computed price summary of a set of lines
type Totals struct {
	Subtotal  models.Money `json:"subtotal"`
	Tax       models.Money `json:"tax"`
	Total     models.Money `json:"total"`
	ItemCount int          `json:"item_count"`
}

// Cart is a session-scoped list of lines. Totals are derived on every read.
type Cart struct {
	mu    sync.Mutex
	opts  CartOptions
	lines []models.LineItem
}

// NewCart creates an empty cart
func NewCart(opts CartOptions) *Cart {
	return &Cart{opts: opts}
}

// AddItem increments the line for item, or appends a new line with quantity 1.
// The line holds a copy of item taken now.
func (c *Cart) AddItem(item models.MenuItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].Item.ID == item.ID {
			c.lines[i].Quantity++
			return
		}
	}

	snapshot := item.Clone()
	if c.opts.ApplyDiscounts {
		snapshot.Price = item.DiscountedPrice()
	}
	c.lines = append(c.lines, models.LineItem{Item: snapshot, Quantity: 1})
}

// RemoveItem deletes the line for itemID; missing lines are ignored
func (c *Cart) RemoveItem(itemID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.remove(itemID)
}

func (c *Cart) remove(itemID string) bool {
	for i := range c.lines {
		if c.lines[i].Item.ID == itemID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return true
		}
	}
	return false
}

// SetQuantity sets the quantity of a line; qty <= 0 removes it. A missing
// line is ignored unless the cart runs in strict mode.
func (c *Cart) SetQuantity(itemID string, qty int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.index(itemID)
	if idx < 0 {
		if c.opts.StrictQuantity {
			return apperr.Wrap(apperr.ErrLineNotFound, "item %s is not in the cart", itemID)
		}
		return nil
	}
	if qty <= 0 {
		c.remove(itemID)
		return nil
	}
	c.lines[idx].Quantity = qty
	return nil
}

// SetNotes attaches kitchen notes to a line
func (c *Cart) SetNotes(itemID, notes string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.index(itemID)
	if idx < 0 {
		return apperr.Wrap(apperr.ErrLineNotFound, "item %s is not in the cart", itemID)
	}
	c.lines[idx].Notes = notes
	return nil
}

func (c *Cart) index(itemID string) int {
	for i := range c.lines {
		if c.lines[i].Item.ID == itemID {
			return i
		}
	}
	return -1
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

// Drain returns the current lines and empties the cart in one step
func (c *Cart) Drain() []models.LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.lines
	c.lines = nil
	return out
}

// Restore puts drained lines back in front of any added since. A line for an
// item that was added again keeps both quantities.
func (c *Cart) Restore(lines []models.LineItem) {
	if len(lines) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	merged := append([]models.LineItem(nil), lines...)
	for _, l := range c.lines {
		found := false
		for i := range merged {
			if merged[i].Item.ID == l.Item.ID {
				merged[i].Quantity += l.Quantity
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, l)
		}
	}
	c.lines = merged
}

// Lines returns a copy of the current lines
func (c *Cart) Lines() []models.LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Cart) snapshot() []models.LineItem {
	out := make([]models.LineItem, len(c.lines))
	for i, l := range c.lines {
		l.Item = l.Item.Clone()
		out[i] = l
	}
	return out
}

// Len returns the number of lines
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// Totals computes subtotal, tax and total from the current lines
func (c *Cart) Totals() Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return computeTotals(c.lines, c.opts.TaxRate)
}

func computeTotals(lines []models.LineItem, rate decimal.Decimal) Totals {
	subtotal, tax, total := models.ComputeTotals(lines, rate)
	count := 0
	for _, l := range lines {
		count += l.Quantity
	}
	return Totals{Subtotal: subtotal, Tax: tax, Total: total, ItemCount: count}
}

// Carts is the registry of session carts used by the HTTP surface
type Carts struct {
	mu    sync.Mutex
	opts  CartOptions
	newID func() string
	carts map[string]*Cart
}

// NewCarts creates an empty registry
func NewCarts(opts CartOptions, newID func() string) *Carts {
	return &Carts{opts: opts, newID: newID, carts: make(map[string]*Cart)}
}

// Create registers a new empty cart and returns its id
func (r *Carts) Create() (string, *Cart) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.newID()
	c := NewCart(r.opts)
	r.carts[id] = c
	return id, c
}

// Get returns the cart registered under id
func (r *Carts) Get(id string) (*Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[id]
	if !ok {
		return nil, apperr.Wrap(apperr.ErrCartNotFound, "cart %s not found", id)
	}
	return c, nil
}

// Delete drops a cart; unknown ids are ignored
func (r *Carts) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, id)
}
