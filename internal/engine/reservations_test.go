package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-pos/internal/apperr"
	"restaurant-pos/internal/models"
)

func booking(tableID, date, at string, party int) models.Reservation {
	return models.Reservation{
		TableID:      tableID,
		CustomerName: "Grace Hopper",
		ContactPhone: "555-0101",
		Email:        "grace@example.com",
		Date:         date,
		Time:         at,
		Duration:     120,
		PartySize:    party,
	}
}

func TestCreateReservation_ReservesTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.eng.CreateReservation(ctx, booking("12", "2025-03-28", "19:00", 4))
	require.NoError(t, err)
	assert.Equal(t, models.ReservationConfirmed, res.Status)
	assert.NotEmpty(t, res.ID)

	table, err := f.eng.GetTable(ctx, "12")
	require.NoError(t, err)
	assert.Equal(t, models.TableReserved, table.Status)
	assert.Equal(t, "Grace Hopper", table.Customer)
	assert.Equal(t, []models.EventType{models.EventReservationCreated, models.EventTableStatusChanged}, f.notifier.types())

	_, err = f.eng.CancelReservation(ctx, res.ID)
	require.NoError(t, err)
	table, err = f.eng.GetTable(ctx, "12")
	require.NoError(t, err)
	assert.Equal(t, models.TableAvailable, table.Status)
	assert.Empty(t, table.Customer)
}

func TestCreateReservation_KeepsOccupiedTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.eng.CreateReservation(ctx, booking("4", "2025-03-28", "21:00", 2))
	require.NoError(t, err)

	table, err := f.eng.GetTable(ctx, "4")
	require.NoError(t, err)
	assert.Equal(t, models.TableOccupied, table.Status)
	assert.Equal(t, "1", table.CurrentOrderID)
}

func TestCreateReservation_Hardening(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
		res    models.Reservation
		want   *apperr.Error
	}{
		{"party too large", nil, booking("5", "2025-03-28", "19:00", 5), apperr.ErrCapacityExceeded},
		{"party too large allowed when off", func(o *Options) { o.EnforceCapacity = false }, booking("5", "2025-03-28", "19:00", 5), nil},
		{"overlaps seeded booking", nil, booking("3", "2025-03-25", "20:00", 4), apperr.ErrReservationConflict},
		{"touching slot is fine", nil, booking("3", "2025-03-25", "21:00", 4), nil},
		{"earlier adjacent slot is fine", nil, booking("3", "2025-03-25", "17:00", 4), nil},
		{"overlap allowed when off", func(o *Options) { o.DetectOverlap = false }, booking("3", "2025-03-25", "20:00", 4), nil},
		{"cancelled booking does not block", nil, booking("9", "2025-03-27", "20:00", 4), nil},
		{"unknown table", nil, booking("99", "2025-03-28", "19:00", 2), apperr.ErrTableNotFound},
		{"bad date", nil, booking("5", "03/28/2025", "19:00", 2), apperr.ErrInvalidInput},
		{"zero party", nil, booking("5", "2025-03-28", "19:00", 0), apperr.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mutate []func(*Options)
			if tt.mutate != nil {
				mutate = append(mutate, tt.mutate)
			}
			f := newFixture(t, mutate...)
			_, err := f.eng.CreateReservation(context.Background(), tt.res)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreateReservation_RejectsClosedStatus(t *testing.T) {
	f := newFixture(t)
	res := booking("12", "2025-03-28", "19:00", 2)
	res.Status = models.ReservationCompleted
	_, err := f.eng.CreateReservation(context.Background(), res)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestUpdateReservation_MovesTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	newTable := "10"
	party := 5
	res, err := f.eng.UpdateReservation(ctx, "1", ReservationPatch{TableID: &newTable, PartySize: &party})
	require.NoError(t, err)
	assert.Equal(t, "10", res.TableID)
	assert.Equal(t, 5, res.PartySize)

	old, err := f.eng.GetTable(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, models.TableAvailable, old.Status)

	moved, err := f.eng.GetTable(ctx, "10")
	require.NoError(t, err)
	assert.Equal(t, models.TableReserved, moved.Status)
	assert.Equal(t, "Robert Johnson", moved.Customer)
}

func TestUpdateReservation_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.eng.UpdateReservation(ctx, "5", ReservationPatch{})
	assert.ErrorIs(t, err, apperr.ErrReservationClosed)

	_, err = f.eng.UpdateReservation(ctx, "missing", ReservationPatch{})
	assert.ErrorIs(t, err, apperr.ErrReservationNotFound)

	// Moving reservation 1 onto table 7 collides with reservation 2
	seven := "7"
	_, err = f.eng.UpdateReservation(ctx, "1", ReservationPatch{TableID: &seven})
	assert.ErrorIs(t, err, apperr.ErrReservationConflict)

	completed := models.ReservationCompleted
	_, err = f.eng.UpdateReservation(ctx, "1", ReservationPatch{Status: &completed})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	// Shifting its own slot does not conflict with itself
	later := "19:30"
	res, err := f.eng.UpdateReservation(ctx, "1", ReservationPatch{Time: &later})
	require.NoError(t, err)
	assert.Equal(t, "19:30", res.Time)
}

func TestCompleteAndCancelReservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.eng.CompleteReservation(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, models.ReservationCompleted, res.Status)
	table, err := f.eng.GetTable(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, models.TableAvailable, table.Status)

	_, err = f.eng.CompleteReservation(ctx, "2")
	assert.ErrorIs(t, err, apperr.ErrReservationClosed)

	_, err = f.eng.CompleteReservation(ctx, "5")
	assert.ErrorIs(t, err, apperr.ErrReservationClosed)

	_, err = f.eng.CancelReservation(ctx, "5")
	assert.ErrorIs(t, err, apperr.ErrReservationClosed)

	res, err = f.eng.CancelReservation(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, models.ReservationCancelled, res.Status)
	table, err = f.eng.GetTable(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, models.TableAvailable, table.Status)
}

func TestCancelReservation_ClosedKeepsLaterBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.eng.CompleteReservation(ctx, "2")
	require.NoError(t, err)
	later, err := f.eng.CreateReservation(ctx, booking("7", "2025-03-29", "19:00", 4))
	require.NoError(t, err)
	f.notifier.reset()

	_, err = f.eng.CancelReservation(ctx, "2")
	require.ErrorIs(t, err, apperr.ErrReservationClosed)
	assert.Empty(t, f.notifier.types())

	res, err := f.eng.GetReservation(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, models.ReservationCompleted, res.Status)

	table, err := f.eng.GetTable(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, models.TableReserved, table.Status)
	assert.Equal(t, later.CustomerName, table.Customer)
}

func TestReservationsByDate(t *testing.T) {
	f := newFixture(t)
	got, err := f.eng.ReservationsByDate(context.Background(), "2025-03-26")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "3", got[0].ID)
	assert.Equal(t, "4", got[1].ID)
}

func TestAvailableTables(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tables, err := f.eng.AvailableTables(ctx, "2025-03-25", "19:00", 120, 6)
	require.NoError(t, err)
	ids := make([]string, 0, len(tables))
	for _, tb := range tables {
		ids = append(ids, tb.ID)
	}
	assert.Equal(t, []string{"10"}, ids)

	tables, err = f.eng.AvailableTables(ctx, "2025-03-25", "23:00", 0, 7)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "7", tables[0].ID)

	_, err = f.eng.AvailableTables(ctx, "tomorrow", "19:00", 60, 2)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}
