package models

// DriverStatus is the duty state of a delivery driver
type DriverStatus string

const (
	DriverAvailable  DriverStatus = "Available"
	DriverOnDelivery DriverStatus = "On Delivery"
	DriverOffDuty    DriverStatus = "Off Duty"
)

// Driver delivers orders; CurrentOrderID is set iff Status is DriverOnDelivery
type Driver struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Phone          string       `json:"phone"`
	Vehicle        string       `json:"vehicle,omitempty"`
	Status         DriverStatus `json:"status"`
	CurrentOrderID string       `json:"current_order_id,omitempty"`
}

// Clone returns a copy of d
func (d Driver) Clone() Driver { return d }
