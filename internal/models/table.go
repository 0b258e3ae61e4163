package models

// TableStatus is the occupancy state of a table
type TableStatus string

const (
	TableAvailable TableStatus = "Available"
	TableOccupied  TableStatus = "Occupied"
	TableReserved  TableStatus = "Reserved"
)

// Valid reports whether s is a known table status
func (s TableStatus) Valid() bool {
	switch s {
	case TableAvailable, TableOccupied, TableReserved:
		return true
	}
	return false
}

// Section is the restaurant area a table belongs to
type Section string

const (
	SectionMain    Section = "Main"
	SectionOutdoor Section = "Outdoor"
	SectionPrivate Section = "Private"
	SectionBar     Section = "Bar"
)

// Valid reports whether s is a known section
func (s Section) Valid() bool {
	switch s {
	case SectionMain, SectionOutdoor, SectionPrivate, SectionBar:
		return true
	}
	return false
}

// Table is a seating spot
type Table struct {
	ID             string      `json:"id"`
	Number         string      `json:"number"`
	Section        Section     `json:"section"`
	Capacity       int         `json:"capacity"`
	Status         TableStatus `json:"status"`
	Customer       string      `json:"customer"`
	CurrentOrderID string      `json:"current_order_id,omitempty"`
}

// Clone returns a copy of t
func (t Table) Clone() Table { return t }
