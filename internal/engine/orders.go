package engine

import (
	"context"
	"sort"

	"restaurant-pos/internal/apperr"
	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/models"
	"restaurant-pos/internal/store"
	"restaurant-pos/internal/validation"
)

// PlaceOrderRequest carries everything needed to turn a cart into an order
type PlaceOrderRequest struct {
	Cart       *Cart
	DiningMode models.DiningMode
	TableID    string
	Delivery   *models.DeliveryInfo
	Server     string
}

// OrderFilter narrows ListOrders; zero fields match everything
type OrderFilter struct {
	Status     models.OrderStatus
	TableID    string
	DiningMode models.DiningMode
}

func (f OrderFilter) match(o models.Order) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.TableID != "" && o.TableID != f.TableID {
		return false
	}
	if f.DiningMode != "" && o.DiningMode != f.DiningMode {
		return false
	}
	return true
}

// AddToCart looks up a catalog item and adds it to the session cart
func (e *Engine) AddToCart(ctx context.Context, cart *Cart, menuItemID string) error {
	item, err := e.GetMenuItem(ctx, menuItemID)
	if err != nil {
		return err
	}
	if !item.Available {
		return apperr.Wrap(apperr.ErrItemUnavailable, "menu item %s is not available", menuItemID)
	}
	cart.AddItem(item)
	return nil
}

// PlaceOrder snapshots the cart into a Pending order. For dine-in orders the
// table becomes Occupied and points at the new order. The cart's lines are
// taken when the order is built and handed back if it cannot be stored.
func (e *Engine) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (models.Order, error) {
	if req.Cart == nil || req.Cart.Len() == 0 {
		return models.Order{}, apperr.ErrEmptyCart
	}
	if !req.DiningMode.Valid() {
		return models.Order{}, apperr.Invalid(validation.ValidationError{Field: "dining_mode", Message: "invalid dining mode"})
	}

	var delivery *models.DeliveryInfo
	switch req.DiningMode {
	case models.DineIn:
		if req.TableID == "" {
			return models.Order{}, apperr.ErrNoTableSelected
		}
	case models.Delivery:
		if req.Delivery == nil {
			return models.Order{}, apperr.ErrMissingDeliveryInfo
		}
		if err := validation.ValidateDeliveryInfo(req.Delivery); err != nil {
			return models.Order{}, apperr.Invalid(err)
		}
		d := *req.Delivery
		d.DriverID = ""
		if d.EstimatedTime == "" {
			d.EstimatedTime = e.opts.DefaultEstimate
		}
		delivery = &d
	}

	server := req.Server
	if server == "" {
		server = "Unknown"
	}

	lines := req.Cart.Drain()
	if len(lines) == 0 {
		return models.Order{}, apperr.ErrEmptyCart
	}
	totals := computeTotals(lines, e.opts.TaxRate)
	now := e.now()

	var order models.Order
	err := e.update(ctx, "order_placed", func(r store.Repos) ([]models.Event, error) {
		var table models.Table
		if req.DiningMode == models.DineIn {
			var err error
			table, err = getTable(ctx, r, req.TableID)
			if err != nil {
				return nil, err
			}
			if err := ensureTableFree(ctx, r, table, ""); err != nil {
				return nil, err
			}
		}

		seq, err := r.NextSequence(ctx, "orders:"+now.Format("20060102"))
		if err != nil {
			return nil, err
		}

		order = models.Order{
			ID:            e.newID(),
			Number:        models.GenerateOrderNumber(now, seq),
			Label:         models.OrderLabel(req.DiningMode, table.Number, seq),
			TableID:       table.ID,
			DiningMode:    req.DiningMode,
			Status:        models.StatusPending,
			Items:         lines,
			Subtotal:      totals.Subtotal,
			Tax:           totals.Tax,
			Total:         totals.Total,
			PaymentStatus: models.PaymentUnpaid,
			Server:        server,
			Delivery:      delivery,
			Priority:      models.CalculatePriority(totals.Total),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := r.Orders().Save(ctx, order); err != nil {
			return nil, err
		}

		events := []models.Event{{Type: models.EventOrderPlaced, Order: ptr(order.Clone())}}
		if req.DiningMode == models.DineIn {
			table.Status = models.TableOccupied
			table.CurrentOrderID = order.ID
			if err := r.Tables().Save(ctx, table); err != nil {
				return nil, err
			}
			events = append(events, models.Event{Type: models.EventTableStatusChanged, Table: ptr(table)})
		}
		return events, nil
	})
	if err != nil {
		req.Cart.Restore(lines)
		return models.Order{}, err
	}

	e.metrics.OrderPlaced(order.DiningMode)
	e.log.Info("order_placed", "Order placed", logger.RequestIDFromContext(ctx), map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.Number,
		"label":        order.Label,
		"total":        order.Total.StringFixed(2),
	})
	return order, nil
}

// UpdateStatus moves an order along Pending -> Processing -> Completed, or to
// Cancelled from either non-terminal state
func (e *Engine) UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus) (models.Order, error) {
	if !status.Valid() {
		return models.Order{}, apperr.Invalid(validation.ValidationError{Field: "status", Message: "invalid order status"})
	}

	var order models.Order
	err := e.update(ctx, "order_status_changed", func(r store.Repos) ([]models.Event, error) {
		var err error
		order, err = getOrder(ctx, r, orderID)
		if err != nil {
			return nil, err
		}
		return e.transition(ctx, r, &order, status)
	})
	if err != nil {
		return models.Order{}, err
	}
	e.metrics.OrderTransitioned(status)
	return order, nil
}

// transition applies a status change and its table side effects inside a unit of work
func (e *Engine) transition(ctx context.Context, r store.Repos, order *models.Order, status models.OrderStatus) ([]models.Event, error) {
	if !order.Status.CanTransitionTo(status) {
		return nil, apperr.Wrap(apperr.ErrInvalidTransition, "cannot move order %s from %s to %s", order.ID, order.Status, status)
	}

	old := order.Status
	now := e.now()
	order.Status = status
	order.UpdatedAt = now
	if status == models.StatusCompleted {
		order.CompletedAt = &now
	}
	if err := r.Orders().Save(ctx, *order); err != nil {
		return nil, err
	}

	events := []models.Event{{
		Type:   models.EventOrderStatusChanged,
		Order:  ptr(order.Clone()),
		Status: models.CreateStatusUpdateMessage(*order, string(old), string(status), "pos-service"),
	}}

	freeTable := status == models.StatusCompleted ||
		(status == models.StatusCancelled && e.opts.FreeTableOnCancel)
	if order.DiningMode == models.DineIn && order.TableID != "" && freeTable {
		table, ok, err := r.Tables().Get(ctx, order.TableID)
		if err != nil {
			return nil, err
		}
		if ok && (table.CurrentOrderID == order.ID || table.CurrentOrderID == "") {
			table.Status = models.TableAvailable
			table.Customer = ""
			table.CurrentOrderID = ""
			if err := r.Tables().Save(ctx, table); err != nil {
				return nil, err
			}
			events = append(events, models.Event{Type: models.EventTableStatusChanged, Table: ptr(table)})
		}
	}
	return events, nil
}

// RecordPayment records a Sale for the order and marks it Paid
func (e *Engine) RecordPayment(ctx context.Context, orderID string, in models.TransactionInput) (models.Order, models.Transaction, error) {
	if in.Type == "" {
		in.Type = models.TxSale
	}
	if in.Type != models.TxSale {
		return models.Order{}, models.Transaction{}, apperr.Invalid(validation.ValidationError{Field: "type", Message: "payments must be Sale transactions"})
	}
	if orderID == "" {
		return models.Order{}, models.Transaction{}, apperr.Wrap(apperr.ErrOrderNotFound, "order id is required")
	}
	in.OrderID = orderID

	tx, err := e.RecordTransaction(ctx, in)
	if err != nil {
		return models.Order{}, models.Transaction{}, err
	}
	order, err := e.GetOrder(ctx, orderID)
	if err != nil {
		return models.Order{}, models.Transaction{}, err
	}
	return order, tx, nil
}

// GetOrder returns one order
func (e *Engine) GetOrder(ctx context.Context, id string) (models.Order, error) {
	var order models.Order
	err := e.view(ctx, func(r store.Repos) error {
		var err error
		order, err = getOrder(ctx, r, id)
		return err
	})
	return order, err
}

func getOrder(ctx context.Context, r store.Repos, id string) (models.Order, error) {
	order, ok, err := r.Orders().Get(ctx, id)
	if err != nil {
		return order, err
	}
	if !ok {
		return order, apperr.Wrap(apperr.ErrOrderNotFound, "order %s not found", id)
	}
	return order, nil
}

// ListOrders returns orders matching filter in placement order
func (e *Engine) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	var out []models.Order
	err := e.view(ctx, func(r store.Repos) error {
		orders, err := r.Orders().List(ctx)
		if err != nil {
			return err
		}
		for _, o := range orders {
			if filter.match(o) {
				out = append(out, o)
			}
		}
		return nil
	})
	return out, err
}

// KitchenQueue returns Pending and Processing orders, oldest first
func (e *Engine) KitchenQueue(ctx context.Context) ([]models.Order, error) {
	orders, err := e.ListOrders(ctx, OrderFilter{})
	if err != nil {
		return nil, err
	}
	queue := orders[:0]
	for _, o := range orders {
		if !o.Status.Terminal() {
			queue = append(queue, o)
		}
	}
	sort.SliceStable(queue, func(i, j int) bool {
		return queue[i].CreatedAt.Before(queue[j].CreatedAt)
	})
	return queue, nil
}

// ActiveOrders returns the non-terminal orders placed at a table
func (e *Engine) ActiveOrders(ctx context.Context, tableID string) ([]models.Order, error) {
	orders, err := e.ListOrders(ctx, OrderFilter{TableID: tableID})
	if err != nil {
		return nil, err
	}
	active := orders[:0]
	for _, o := range orders {
		if !o.Status.Terminal() {
			active = append(active, o)
		}
	}
	return active, nil
}

func ptr[T any](v T) *T {
	return &v
}
