package engine

import (
	"context"

	"restaurant-pos/internal/apperr"
	"restaurant-pos/internal/models"
	"restaurant-pos/internal/store"
	"restaurant-pos/internal/validation"
)

// ListDrivers returns every driver
func (e *Engine) ListDrivers(ctx context.Context) ([]models.Driver, error) {
	return e.listDrivers(ctx, "")
}

// AvailableDrivers returns drivers free to take a delivery
func (e *Engine) AvailableDrivers(ctx context.Context) ([]models.Driver, error) {
	return e.listDrivers(ctx, models.DriverAvailable)
}

func (e *Engine) listDrivers(ctx context.Context, status models.DriverStatus) ([]models.Driver, error) {
	var out []models.Driver
	err := e.view(ctx, func(r store.Repos) error {
		drivers, err := r.Drivers().List(ctx)
		if err != nil {
			return err
		}
		for _, d := range drivers {
			if status == "" || d.Status == status {
				out = append(out, d)
			}
		}
		return nil
	})
	return out, err
}

// GetDriver returns one driver
func (e *Engine) GetDriver(ctx context.Context, id string) (models.Driver, error) {
	var driver models.Driver
	err := e.view(ctx, func(r store.Repos) error {
		var err error
		driver, err = getDriver(ctx, r, id)
		return err
	})
	return driver, err
}

func getDriver(ctx context.Context, r store.Repos, id string) (models.Driver, error) {
	driver, ok, err := r.Drivers().Get(ctx, id)
	if err != nil {
		return driver, err
	}
	if !ok {
		return driver, apperr.Wrap(apperr.ErrDriverNotFound, "driver %s not found", id)
	}
	return driver, nil
}

// CreateDriver registers an Available driver
func (e *Engine) CreateDriver(ctx context.Context, driver models.Driver) (models.Driver, error) {
	if err := validation.ValidateDriver(driver); err != nil {
		return models.Driver{}, apperr.Invalid(err)
	}
	driver.ID = e.newID()
	driver.Status = models.DriverAvailable
	driver.CurrentOrderID = ""

	err := e.update(ctx, "driver_created", func(r store.Repos) ([]models.Event, error) {
		return nil, r.Drivers().Save(ctx, driver)
	})
	if err != nil {
		return models.Driver{}, err
	}
	return driver, nil
}

// SetDriverDuty puts a driver on or off duty. A driver on a delivery cannot
// go off duty.
func (e *Engine) SetDriverDuty(ctx context.Context, driverID string, onDuty bool) (models.Driver, error) {
	var driver models.Driver
	err := e.update(ctx, "driver_duty_changed", func(r store.Repos) ([]models.Event, error) {
		var err error
		driver, err = getDriver(ctx, r, driverID)
		if err != nil {
			return nil, err
		}

		switch {
		case onDuty && driver.Status == models.DriverOffDuty:
			driver.Status = models.DriverAvailable
		case !onDuty && driver.Status == models.DriverOnDelivery:
			return nil, apperr.Wrap(apperr.ErrDriverBusy, "driver %s is delivering order %s", driver.ID, driver.CurrentOrderID)
		case !onDuty:
			driver.Status = models.DriverOffDuty
		default:
			return nil, nil
		}
		return nil, r.Drivers().Save(ctx, driver)
	})
	return driver, err
}

// AssignDriver puts an Available driver on a delivery order
func (e *Engine) AssignDriver(ctx context.Context, orderID, driverID string) (models.Driver, models.Order, error) {
	var (
		driver models.Driver
		order  models.Order
	)
	err := e.update(ctx, "driver_assigned", func(r store.Repos) ([]models.Event, error) {
		var err error
		driver, err = getDriver(ctx, r, driverID)
		if err != nil {
			return nil, err
		}
		order, err = getOrder(ctx, r, orderID)
		if err != nil {
			return nil, err
		}
		if order.DiningMode != models.Delivery {
			return nil, apperr.Wrap(apperr.ErrNotDeliveryOrder, "order %s is a %s order", order.ID, order.DiningMode)
		}
		if order.Status.Terminal() {
			return nil, apperr.Wrap(apperr.ErrInvalidTransition, "order %s is already %s", order.ID, order.Status)
		}
		if driver.Status != models.DriverAvailable {
			return nil, apperr.Wrap(apperr.ErrDriverUnavailable, "driver %s is %s", driver.ID, driver.Status)
		}

		if order.Delivery == nil {
			order.Delivery = &models.DeliveryInfo{}
		}

		// Release a previous driver still bound to this order
		if prev := order.Delivery.DriverID; prev != "" && prev != driver.ID {
			old, ok, err := r.Drivers().Get(ctx, prev)
			if err != nil {
				return nil, err
			}
			if ok && old.CurrentOrderID == order.ID {
				old.Status = models.DriverAvailable
				old.CurrentOrderID = ""
				if err := r.Drivers().Save(ctx, old); err != nil {
					return nil, err
				}
			}
		}

		driver.Status = models.DriverOnDelivery
		driver.CurrentOrderID = order.ID
		order.Delivery.DriverID = driver.ID
		order.UpdatedAt = e.now()
		if err := r.Drivers().Save(ctx, driver); err != nil {
			return nil, err
		}
		if err := r.Orders().Save(ctx, order); err != nil {
			return nil, err
		}
		return []models.Event{{Type: models.EventDeliveryAssigned, Driver: ptr(driver), Order: ptr(order.Clone())}}, nil
	})
	if err != nil {
		return models.Driver{}, models.Order{}, err
	}
	return driver, order, nil
}

// CompleteDelivery frees the driver. The linked order is completed too when
// the engine runs with CompleteOrderOnDelivery.
func (e *Engine) CompleteDelivery(ctx context.Context, driverID string) (models.Driver, error) {
	var driver models.Driver
	var completed bool
	err := e.update(ctx, "delivery_completed", func(r store.Repos) ([]models.Event, error) {
		var err error
		driver, err = getDriver(ctx, r, driverID)
		if err != nil {
			return nil, err
		}

		orderID := driver.CurrentOrderID
		driver.Status = models.DriverAvailable
		driver.CurrentOrderID = ""
		if err := r.Drivers().Save(ctx, driver); err != nil {
			return nil, err
		}

		events := []models.Event{{Type: models.EventDeliveryCompleted, Driver: ptr(driver)}}
		if !e.opts.CompleteOrderOnDelivery || orderID == "" {
			return events, nil
		}

		order, ok, err := r.Orders().Get(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if !ok || order.Status.Terminal() {
			return events, nil
		}
		// A delivered order may skip Processing
		if order.Status == models.StatusPending {
			order.Status = models.StatusProcessing
		}
		more, err := e.transition(ctx, r, &order, models.StatusCompleted)
		if err != nil {
			return nil, err
		}
		events[0].Order = ptr(order.Clone())
		completed = true
		return append(events, more...), nil
	})
	if err != nil {
		return models.Driver{}, err
	}
	if completed {
		e.metrics.OrderTransitioned(models.StatusCompleted)
	}
	return driver, nil
}
