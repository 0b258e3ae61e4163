package engine

import (
	"context"
	"strings"
	"time"

	"restaurant-pos/internal/apperr"
	"restaurant-pos/internal/models"
	"restaurant-pos/internal/store"
	"restaurant-pos/internal/validation"
)

// ReservationPatch holds the fields to change on a reservation; nil means keep
type ReservationPatch struct {
	TableID      *string                   `json:"table_id,omitempty"`
	CustomerName *string                   `json:"customer_name,omitempty"`
	ContactPhone *string                   `json:"contact_phone,omitempty"`
	Email        *string                   `json:"email,omitempty"`
	Date         *string                   `json:"date,omitempty"`
	Time         *string                   `json:"time,omitempty"`
	Duration     *int                      `json:"duration,omitempty"`
	PartySize    *int                      `json:"party_size,omitempty"`
	Status       *models.ReservationStatus `json:"status,omitempty"`
	Notes        *string                   `json:"notes,omitempty"`
}

func (p ReservationPatch) apply(r *models.Reservation) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&r.TableID, p.TableID)
	set(&r.CustomerName, p.CustomerName)
	set(&r.ContactPhone, p.ContactPhone)
	set(&r.Email, p.Email)
	set(&r.Date, p.Date)
	set(&r.Time, p.Time)
	set(&r.Notes, p.Notes)
	if p.Duration != nil {
		r.Duration = *p.Duration
	}
	if p.PartySize != nil {
		r.PartySize = *p.PartySize
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
}

// Default slot used by AvailableTables when the caller leaves it out
const (
	DefaultReservationDuration = 120
	DefaultPartySize           = 2
)

// ListReservations returns every reservation
func (e *Engine) ListReservations(ctx context.Context) ([]models.Reservation, error) {
	return e.ReservationsByDate(ctx, "")
}

// ReservationsByDate returns the reservations on a YYYY-MM-DD date; "" means all
func (e *Engine) ReservationsByDate(ctx context.Context, date string) ([]models.Reservation, error) {
	var out []models.Reservation
	err := e.view(ctx, func(r store.Repos) error {
		all, err := r.Reservations().List(ctx)
		if err != nil {
			return err
		}
		for _, res := range all {
			if date == "" || res.Date == date {
				out = append(out, res)
			}
		}
		return nil
	})
	return out, err
}

// GetReservation returns one reservation
func (e *Engine) GetReservation(ctx context.Context, id string) (models.Reservation, error) {
	var res models.Reservation
	err := e.view(ctx, func(r store.Repos) error {
		var err error
		res, err = getReservation(ctx, r, id)
		return err
	})
	return res, err
}

func getReservation(ctx context.Context, r store.Repos, id string) (models.Reservation, error) {
	res, ok, err := r.Reservations().Get(ctx, id)
	if err != nil {
		return res, err
	}
	if !ok {
		return res, apperr.Wrap(apperr.ErrReservationNotFound, "reservation %s not found", id)
	}
	return res, nil
}

// CreateReservation stores a reservation and marks its table Reserved
func (e *Engine) CreateReservation(ctx context.Context, res models.Reservation) (models.Reservation, error) {
	if res.Status == "" {
		res.Status = models.ReservationConfirmed
	}
	if err := validateReservation(res); err != nil {
		return models.Reservation{}, err
	}

	err := e.update(ctx, "reservation_created", func(r store.Repos) ([]models.Event, error) {
		table, err := getTable(ctx, r, res.TableID)
		if err != nil {
			return nil, err
		}
		res.ID = e.newID()
		if err := e.checkSlot(ctx, r, table, res); err != nil {
			return nil, err
		}
		if err := r.Reservations().Save(ctx, res); err != nil {
			return nil, err
		}

		events := []models.Event{{Type: models.EventReservationCreated, Reservation: ptr(res)}}
		ev, err := reserveTable(ctx, r, table, res.CustomerName)
		if err != nil {
			return nil, err
		}
		return append(events, ev...), nil
	})
	if err != nil {
		return models.Reservation{}, err
	}
	return res, nil
}

// UpdateReservation applies a patch. Moving to another table frees the old
// one and reserves the new one.
func (e *Engine) UpdateReservation(ctx context.Context, id string, patch ReservationPatch) (models.Reservation, error) {
	var res models.Reservation
	err := e.update(ctx, "reservation_updated", func(r store.Repos) ([]models.Event, error) {
		var err error
		res, err = getReservation(ctx, r, id)
		if err != nil {
			return nil, err
		}
		if !res.Status.Active() {
			return nil, apperr.Wrap(apperr.ErrReservationClosed, "reservation %s is %s", res.ID, res.Status)
		}

		oldTableID := res.TableID
		patch.apply(&res)
		if err := validateReservation(res); err != nil {
			return nil, err
		}

		table, err := getTable(ctx, r, res.TableID)
		if err != nil {
			return nil, err
		}
		if err := e.checkSlot(ctx, r, table, res); err != nil {
			return nil, err
		}
		if err := r.Reservations().Save(ctx, res); err != nil {
			return nil, err
		}

		events := []models.Event{{Type: models.EventReservationUpdated, Reservation: ptr(res)}}
		if res.TableID == oldTableID {
			return events, nil
		}

		ev, err := releaseTableByID(ctx, r, oldTableID)
		if err != nil {
			return nil, err
		}
		events = append(events, ev...)
		ev, err = reserveTable(ctx, r, table, res.CustomerName)
		if err != nil {
			return nil, err
		}
		return append(events, ev...), nil
	})
	if err != nil {
		return models.Reservation{}, err
	}
	return res, nil
}

// CancelReservation marks an active reservation Cancelled and frees its
// table, even when another reservation also names that table. Completed and
// Cancelled reservations are left untouched.
func (e *Engine) CancelReservation(ctx context.Context, id string) (models.Reservation, error) {
	return e.closeReservation(ctx, id, models.ReservationCancelled, models.EventReservationCancelled)
}

// CompleteReservation marks an active reservation Completed and frees its table
func (e *Engine) CompleteReservation(ctx context.Context, id string) (models.Reservation, error) {
	return e.closeReservation(ctx, id, models.ReservationCompleted, models.EventReservationCompleted)
}

func (e *Engine) closeReservation(ctx context.Context, id string, status models.ReservationStatus, evType models.EventType) (models.Reservation, error) {
	var res models.Reservation
	err := e.update(ctx, "reservation_"+strings.ToLower(string(status)), func(r store.Repos) ([]models.Event, error) {
		var err error
		res, err = getReservation(ctx, r, id)
		if err != nil {
			return nil, err
		}
		if !res.Status.Active() {
			return nil, apperr.Wrap(apperr.ErrReservationClosed, "reservation %s is %s", res.ID, res.Status)
		}

		res.Status = status
		if err := r.Reservations().Save(ctx, res); err != nil {
			return nil, err
		}
		events := []models.Event{{Type: evType, Reservation: ptr(res)}}
		ev, err := releaseTableByID(ctx, r, res.TableID)
		if err != nil {
			return nil, err
		}
		return append(events, ev...), nil
	})
	if err != nil {
		return models.Reservation{}, err
	}
	return res, nil
}

// AvailableTables returns tables that seat partySize and have no active
// reservation overlapping the requested slot on that date
func (e *Engine) AvailableTables(ctx context.Context, date, at string, duration, partySize int) ([]models.Table, error) {
	if duration <= 0 {
		duration = DefaultReservationDuration
	}
	if partySize <= 0 {
		partySize = DefaultPartySize
	}
	slot := models.Reservation{Date: date, Time: at, Duration: duration}
	start, end, err := slot.Window()
	if err != nil {
		return nil, apperr.Invalid(validation.ValidationError{Field: "date", Message: "date and time must be YYYY-MM-DD and HH:MM"})
	}

	var out []models.Table
	err = e.view(ctx, func(r store.Repos) error {
		tables, err := r.Tables().List(ctx)
		if err != nil {
			return err
		}
		reservations, err := r.Reservations().List(ctx)
		if err != nil {
			return err
		}
		for _, t := range tables {
			if t.Capacity < partySize {
				continue
			}
			if !overlapsAny(reservations, t.ID, date, "", start, end) {
				out = append(out, t)
			}
		}
		return nil
	})
	return out, err
}

func validateReservation(res models.Reservation) error {
	if err := validation.ValidateReservation(res); err != nil {
		return apperr.Invalid(err)
	}
	if !res.Status.Active() {
		return apperr.Invalid(validation.ValidationError{Field: "status", Message: "status must be Confirmed or Pending"})
	}
	return nil
}

// checkSlot enforces the optional capacity and double-booking rules
func (e *Engine) checkSlot(ctx context.Context, r store.Repos, table models.Table, res models.Reservation) error {
	if e.opts.EnforceCapacity && res.PartySize > table.Capacity {
		return apperr.Wrap(apperr.ErrCapacityExceeded, "party of %d exceeds capacity %d of table %s", res.PartySize, table.Capacity, table.Number)
	}
	if !e.opts.DetectOverlap {
		return nil
	}
	start, end, err := res.Window()
	if err != nil {
		return apperr.Invalid(err)
	}
	all, err := r.Reservations().List(ctx)
	if err != nil {
		return err
	}
	if overlapsAny(all, table.ID, res.Date, res.ID, start, end) {
		return apperr.Wrap(apperr.ErrReservationConflict, "table %s is already reserved around %s %s", table.Number, res.Date, res.Time)
	}
	return nil
}

func overlapsAny(all []models.Reservation, tableID, date, skipID string, start, end time.Time) bool {
	for _, other := range all {
		if other.ID == skipID || other.TableID != tableID || other.Date != date || !other.Status.Active() {
			continue
		}
		oStart, oEnd, err := other.Window()
		if err != nil {
			continue
		}
		if models.Overlaps(start, end, oStart, oEnd) {
			return true
		}
	}
	return false
}

// reserveTable marks a table Reserved for customer. A table serving an
// active order keeps its Occupied status.
func reserveTable(ctx context.Context, r store.Repos, table models.Table, customer string) ([]models.Event, error) {
	busy, err := holdsActiveOrder(ctx, r, table)
	if err != nil || busy {
		return nil, err
	}
	table.Status = models.TableReserved
	table.Customer = customer
	table.CurrentOrderID = ""
	if err := r.Tables().Save(ctx, table); err != nil {
		return nil, err
	}
	return []models.Event{{Type: models.EventTableStatusChanged, Table: ptr(table)}}, nil
}

// releaseTableByID returns a table to Available unless it serves an active order
func releaseTableByID(ctx context.Context, r store.Repos, tableID string) ([]models.Event, error) {
	table, ok, err := r.Tables().Get(ctx, tableID)
	if err != nil || !ok {
		return nil, err
	}
	busy, err := holdsActiveOrder(ctx, r, table)
	if err != nil || busy {
		return nil, err
	}
	table.Status = models.TableAvailable
	table.Customer = ""
	table.CurrentOrderID = ""
	if err := r.Tables().Save(ctx, table); err != nil {
		return nil, err
	}
	return []models.Event{{Type: models.EventTableStatusChanged, Table: ptr(table)}}, nil
}
