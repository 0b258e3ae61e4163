package models

import "github.com/shopspring/decimal"

// FoodType is the dietary classification of a menu item
type FoodType string

const (
	Veg    FoodType = "Veg"
	NonVeg FoodType = "Non Veg"
)

// CategoryAll is the pseudo-category that matches every menu item
const CategoryAll = "all"

// MenuItem is a catalog entry
type MenuItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Image       string   `json:"image,omitempty"`
	Price       Money    `json:"price"`
	Discount    int      `json:"discount,omitempty"`
	Type        FoodType `json:"type"`
	Category    string   `json:"category"`
	Description string   `json:"description,omitempty"`
	Ingredients []string `json:"ingredients,omitempty"`
	Allergens   []string `json:"allergens,omitempty"`
	Available   bool     `json:"available"`
}

// DiscountedPrice returns the price after the percentage discount
func (m MenuItem) DiscountedPrice() Money {
	if m.Discount <= 0 {
		return m.Price
	}
	factor := decimal.NewFromInt(int64(100 - m.Discount)).Div(decimal.NewFromInt(100))
	return RoundCents(m.Price.Mul(factor))
}

// Clone returns a copy that shares no slices with m
func (m MenuItem) Clone() MenuItem {
	m.Ingredients = append([]string(nil), m.Ingredients...)
	m.Allergens = append([]string(nil), m.Allergens...)
	return m
}

// Category groups menu items; Items is derived from the catalog on read
type Category struct {
	ID    string `json:"id"`
	Icon  string `json:"icon,omitempty"`
	Label string `json:"label"`
	Items int    `json:"items"`
}

// Clone returns a copy of c
func (c Category) Clone() Category { return c }
