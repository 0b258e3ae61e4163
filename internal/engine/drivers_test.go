package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-pos/internal/apperr"
	"restaurant-pos/internal/models"
)

func placeDelivery(t *testing.T, f *fixture) models.Order {
	t.Helper()
	order, err := f.eng.PlaceOrder(context.Background(), PlaceOrderRequest{
		Cart:       cartWith(f.eng, testItem("a", "12.00")),
		DiningMode: models.Delivery,
		Delivery:   &models.DeliveryInfo{Address: "9 Oak Ave", ContactName: "Bo", ContactPhone: "555-9999"},
	})
	require.NoError(t, err)
	return order
}

func TestAssignDriver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := placeDelivery(t, f)
	f.notifier.reset()

	driver, updated, err := f.eng.AssignDriver(ctx, order.ID, "2")
	require.NoError(t, err)
	assert.Equal(t, models.DriverOnDelivery, driver.Status)
	assert.Equal(t, order.ID, driver.CurrentOrderID)
	assert.Equal(t, "2", updated.Delivery.DriverID)
	assert.Equal(t, []models.EventType{models.EventDeliveryAssigned}, f.notifier.types())

	available, err := f.eng.AvailableDrivers(ctx)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "4", available[0].ID)
}

func TestAssignDriver_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := placeDelivery(t, f)

	tests := []struct {
		name     string
		orderID  string
		driverID string
		want     *apperr.Error
	}{
		{"unknown driver", order.ID, "99", apperr.ErrDriverNotFound},
		{"unknown order", "99", "2", apperr.ErrOrderNotFound},
		{"dine in order", "1", "2", apperr.ErrNotDeliveryOrder},
		{"take away order", "2", "2", apperr.ErrNotDeliveryOrder},
		{"driver on delivery", order.ID, "1", apperr.ErrDriverUnavailable},
		{"driver off duty", order.ID, "3", apperr.ErrDriverUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.eng.AssignDriver(ctx, tt.orderID, tt.driverID)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := f.eng.UpdateStatus(ctx, order.ID, models.StatusCancelled)
	require.NoError(t, err)
	_, _, err = f.eng.AssignDriver(ctx, order.ID, "2")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	driver, err := f.eng.GetDriver(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, models.DriverAvailable, driver.Status, "rejected assignments leave the driver untouched")
}

func TestAssignDriver_ReplacesPreviousDriver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Order 4 is out with driver 1
	_, order, err := f.eng.AssignDriver(ctx, "4", "2")
	require.NoError(t, err)
	assert.Equal(t, "2", order.Delivery.DriverID)

	previous, err := f.eng.GetDriver(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, models.DriverAvailable, previous.Status)
	assert.Empty(t, previous.CurrentOrderID)
}

func TestCompleteDelivery(t *testing.T) {
	tests := []struct {
		name     string
		complete bool
		want     models.OrderStatus
	}{
		{"driver only", false, models.StatusProcessing},
		{"completes the order", true, models.StatusCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, func(o *Options) { o.CompleteOrderOnDelivery = tt.complete })
			ctx := context.Background()

			driver, err := f.eng.CompleteDelivery(ctx, "1")
			require.NoError(t, err)
			assert.Equal(t, models.DriverAvailable, driver.Status)
			assert.Empty(t, driver.CurrentOrderID)

			order, err := f.eng.GetOrder(ctx, "4")
			require.NoError(t, err)
			assert.Equal(t, tt.want, order.Status)
			assert.Equal(t, models.EventDeliveryCompleted, f.notifier.events[0].Type)
		})
	}
}

func TestCompleteDelivery_PendingOrderSkipsProcessing(t *testing.T) {
	f := newFixture(t, func(o *Options) { o.CompleteOrderOnDelivery = true })
	ctx := context.Background()
	order := placeDelivery(t, f)

	_, _, err := f.eng.AssignDriver(ctx, order.ID, "4")
	require.NoError(t, err)
	_, err = f.eng.CompleteDelivery(ctx, "4")
	require.NoError(t, err)

	got, err := f.eng.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
}

func TestCompleteDelivery_UnknownDriver(t *testing.T) {
	f := newFixture(t)
	_, err := f.eng.CompleteDelivery(context.Background(), "nobody")
	assert.ErrorIs(t, err, apperr.ErrDriverNotFound)
}

func TestSetDriverDuty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.eng.SetDriverDuty(ctx, "1", false)
	assert.ErrorIs(t, err, apperr.ErrDriverBusy)

	d, err := f.eng.SetDriverDuty(ctx, "3", true)
	require.NoError(t, err)
	assert.Equal(t, models.DriverAvailable, d.Status)

	d, err = f.eng.SetDriverDuty(ctx, "2", false)
	require.NoError(t, err)
	assert.Equal(t, models.DriverOffDuty, d.Status)

	d, err = f.eng.SetDriverDuty(ctx, "1", true)
	require.NoError(t, err)
	assert.Equal(t, models.DriverOnDelivery, d.Status, "going on duty leaves an active delivery alone")
}

func TestCreateDriver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.eng.CreateDriver(ctx, models.Driver{Name: "Pat", Phone: "555-1212", Status: models.DriverOnDelivery, CurrentOrderID: "x"})
	require.NoError(t, err)
	assert.Equal(t, models.DriverAvailable, d.Status)
	assert.Empty(t, d.CurrentOrderID)

	_, err = f.eng.CreateDriver(ctx, models.Driver{Phone: "555"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	all, err := f.eng.ListDrivers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}
