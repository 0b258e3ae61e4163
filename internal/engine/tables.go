package engine

import (
	"context"

	"restaurant-pos/internal/apperr"
	"restaurant-pos/internal/models"
	"restaurant-pos/internal/store"
	"restaurant-pos/internal/validation"
)

// TableStatusRequest is a direct staff change of a table's status.
// Customer nil keeps the current name. OrderID seats an existing order at
// the table and is only meaningful with StatusOccupied.
type TableStatusRequest struct {
	Status   models.TableStatus `json:"status"`
	Customer *string            `json:"customer,omitempty"`
	OrderID  string             `json:"order_id,omitempty"`
}

// ListTables returns all tables, or those of one section
func (e *Engine) ListTables(ctx context.Context, section models.Section) ([]models.Table, error) {
	var out []models.Table
	err := e.view(ctx, func(r store.Repos) error {
		tables, err := r.Tables().List(ctx)
		if err != nil {
			return err
		}
		for _, t := range tables {
			if section == "" || t.Section == section {
				out = append(out, t)
			}
		}
		return nil
	})
	return out, err
}

// GetTable returns one table
func (e *Engine) GetTable(ctx context.Context, id string) (models.Table, error) {
	var table models.Table
	err := e.view(ctx, func(r store.Repos) error {
		var err error
		table, err = getTable(ctx, r, id)
		return err
	})
	return table, err
}

func getTable(ctx context.Context, r store.Repos, id string) (models.Table, error) {
	table, ok, err := r.Tables().Get(ctx, id)
	if err != nil {
		return table, err
	}
	if !ok {
		return table, apperr.Wrap(apperr.ErrTableNotFound, "table %s not found", id)
	}
	return table, nil
}

// CreateTable adds a table; numbers are unique
func (e *Engine) CreateTable(ctx context.Context, table models.Table) (models.Table, error) {
	if table.Status == "" {
		table.Status = models.TableAvailable
	}
	table.CurrentOrderID = ""
	if err := validation.ValidateTable(table); err != nil {
		return models.Table{}, apperr.Invalid(err)
	}

	err := e.update(ctx, "table_created", func(r store.Repos) ([]models.Event, error) {
		tables, err := r.Tables().List(ctx)
		if err != nil {
			return nil, err
		}
		for _, t := range tables {
			if t.Number == table.Number {
				return nil, apperr.Wrap(apperr.ErrDuplicateTable, "table number %s already exists", table.Number)
			}
		}
		table.ID = e.newID()
		if err := r.Tables().Save(ctx, table); err != nil {
			return nil, err
		}
		return []models.Event{{Type: models.EventTableStatusChanged, Table: ptr(table)}}, nil
	})
	if err != nil {
		return models.Table{}, err
	}
	return table, nil
}

// SetTableStatus writes a table status. Any status may follow any other,
// except that a table cannot be given to an order while a different active
// order holds it, and only an active dine-in order placed at this table (or
// at none) can hold it. Available and Reserved clear the current order.
func (e *Engine) SetTableStatus(ctx context.Context, tableID string, req TableStatusRequest) (models.Table, error) {
	if err := validation.ValidateTableStatus(req.Status); err != nil {
		return models.Table{}, apperr.Invalid(err)
	}

	var table models.Table
	err := e.update(ctx, "table_status_changed", func(r store.Repos) ([]models.Event, error) {
		var err error
		table, err = getTable(ctx, r, tableID)
		if err != nil {
			return nil, err
		}

		switch req.Status {
		case models.TableOccupied:
			if req.OrderID != "" {
				order, err := getOrder(ctx, r, req.OrderID)
				if err != nil {
					return nil, err
				}
				if err := ensureTableFree(ctx, r, table, req.OrderID); err != nil {
					return nil, err
				}
				if err := seatOrder(ctx, r, table, order); err != nil {
					return nil, err
				}
				table.CurrentOrderID = req.OrderID
			}
		default:
			table.CurrentOrderID = ""
		}
		table.Status = req.Status
		if req.Customer != nil {
			table.Customer = *req.Customer
		}

		if err := r.Tables().Save(ctx, table); err != nil {
			return nil, err
		}
		return []models.Event{{Type: models.EventTableStatusChanged, Table: ptr(table)}}, nil
	})
	return table, err
}

// seatOrder checks that order may hold table and binds an order placed
// without a table to it
func seatOrder(ctx context.Context, r store.Repos, table models.Table, order models.Order) error {
	if order.DiningMode != models.DineIn || order.Status.Terminal() {
		return apperr.Wrap(apperr.ErrOrderNotSeatable, "order %s is a %s %s order", order.ID, order.Status, order.DiningMode)
	}
	switch order.TableID {
	case table.ID:
		return nil
	case "":
		order.TableID = table.ID
		return r.Orders().Save(ctx, order)
	default:
		return apperr.Wrap(apperr.ErrOrderNotSeatable, "order %s is placed at table %s", order.ID, order.TableID)
	}
}

// ensureTableFree fails with TableConflict when the table's current order is
// a non-terminal order other than allowedOrderID
func ensureTableFree(ctx context.Context, r store.Repos, table models.Table, allowedOrderID string) error {
	if table.CurrentOrderID == "" || table.CurrentOrderID == allowedOrderID {
		return nil
	}
	current, ok, err := r.Orders().Get(ctx, table.CurrentOrderID)
	if err != nil {
		return err
	}
	if ok && !current.Status.Terminal() {
		return apperr.Wrap(apperr.ErrTableConflict, "table %s already holds active order %s", table.Number, current.ID)
	}
	return nil
}

// holdsActiveOrder reports whether the table's current order is non-terminal
func holdsActiveOrder(ctx context.Context, r store.Repos, table models.Table) (bool, error) {
	if table.CurrentOrderID == "" {
		return false, nil
	}
	current, ok, err := r.Orders().Get(ctx, table.CurrentOrderID)
	if err != nil {
		return false, err
	}
	return ok && !current.Status.Terminal(), nil
}
