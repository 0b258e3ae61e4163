package models

import (
	"fmt"
	"time"
)

// ReservationStatus is the lifecycle state of a reservation
type ReservationStatus string

const (
	ReservationConfirmed ReservationStatus = "Confirmed"
	ReservationPending   ReservationStatus = "Pending"
	ReservationCompleted ReservationStatus = "Completed"
	ReservationCancelled ReservationStatus = "Cancelled"
)

// Active reports whether the reservation still holds its table
func (s ReservationStatus) Active() bool {
	return s == ReservationConfirmed || s == ReservationPending
}

// Date and time layouts used by reservations
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Reservation binds a party to a table for a time slot
type Reservation struct {
	ID           string            `json:"id"`
	TableID      string            `json:"table_id"`
	CustomerName string            `json:"customer_name"`
	ContactPhone string            `json:"contact_phone"`
	Email        string            `json:"email,omitempty"`
	Date         string            `json:"date"`
	Time         string            `json:"time"`
	Duration     int               `json:"duration"`
	PartySize    int               `json:"party_size"`
	Status       ReservationStatus `json:"status"`
	Notes        string            `json:"notes,omitempty"`
}

// Clone returns a copy of r
func (r Reservation) Clone() Reservation { return r }

// Window returns the reservation's start and end instants
func (r Reservation) Window() (time.Time, time.Time, error) {
	start, err := time.Parse(DateLayout+" "+TimeLayout, r.Date+" "+r.Time)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid reservation slot %q %q: %w", r.Date, r.Time, err)
	}
	return start, start.Add(time.Duration(r.Duration) * time.Minute), nil
}

// Overlaps reports whether two slots share any instant. Both must be valid.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
