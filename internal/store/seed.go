package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"restaurant-pos/internal/models"
)

// PINHasher turns a plain PIN into the stored credential
type PINHasher func(pin string) ([]byte, error)

// Seed loads the demo restaurant into an empty store. It is a no-op when
// any table already exists.
func Seed(ctx context.Context, s Store, now time.Time, taxRate decimal.Decimal, hash PINHasher) error {
	return s.Update(ctx, func(r Repos) error {
		existing, err := r.Tables().List(ctx)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return nil
		}

		for _, c := range seedCategories() {
			if err := r.Categories().Save(ctx, c); err != nil {
				return fmt.Errorf("failed to seed category %s: %w", c.ID, err)
			}
		}
		menu := seedMenu()
		for _, m := range menu {
			if err := r.MenuItems().Save(ctx, m); err != nil {
				return fmt.Errorf("failed to seed menu item %s: %w", m.ID, err)
			}
		}
		for _, t := range seedTables() {
			if err := r.Tables().Save(ctx, t); err != nil {
				return fmt.Errorf("failed to seed table %s: %w", t.ID, err)
			}
		}
		orders, err := seedOrders(ctx, r, menu, now, taxRate)
		if err != nil {
			return err
		}
		for _, o := range orders {
			if err := r.Orders().Save(ctx, o); err != nil {
				return fmt.Errorf("failed to seed order %s: %w", o.ID, err)
			}
		}
		for _, d := range seedDrivers() {
			if err := r.Drivers().Save(ctx, d); err != nil {
				return fmt.Errorf("failed to seed driver %s: %w", d.ID, err)
			}
		}
		for _, res := range seedReservations() {
			if err := r.Reservations().Save(ctx, res); err != nil {
				return fmt.Errorf("failed to seed reservation %s: %w", res.ID, err)
			}
		}
		users, err := seedUsers(hash)
		if err != nil {
			return err
		}
		for _, u := range users {
			if err := r.Users().Save(ctx, u); err != nil {
				return fmt.Errorf("failed to seed user %s: %w", u.ID, err)
			}
		}
		for _, tx := range seedTransactions(now) {
			if err := r.Transactions().Append(ctx, tx); err != nil {
				return fmt.Errorf("failed to seed transaction %s: %w", tx.ID, err)
			}
		}
		return nil
	})
}

func seedCategories() []models.Category {
	return []models.Category{
		{ID: "breakfast", Icon: "Coffee", Label: "Breakfast"},
		{ID: "soups", Icon: "Soup", Label: "Soups"},
		{ID: "pasta", Icon: "UtensilsCrossed", Label: "Pasta"},
		{ID: "main-course", Icon: "ChefHat", Label: "Main Course"},
		{ID: "burges", Icon: "Sandwich", Label: "Burges"},
	}
}

func seedMenu() []models.MenuItem {
	item := func(id, title string, price float64, discount int, typ models.FoodType, category, desc string, ingredients, allergens []string) models.MenuItem {
		return models.MenuItem{
			ID:          id,
			Title:       title,
			Price:       models.NewMoney(price),
			Discount:    discount,
			Type:        typ,
			Category:    category,
			Description: desc,
			Ingredients: ingredients,
			Allergens:   allergens,
			Available:   true,
		}
	}

	return []models.MenuItem{
		item("1", "Tasty Vegetable Salad Healthy Diet", 17.99, 20, models.Veg, "Breakfast",
			"Fresh mixed vegetables with our special house dressing",
			[]string{"Lettuce", "Tomato", "Cucumber", "Bell Pepper", "Olive Oil"}, []string{"Nuts"}),
		item("2", "Original Chess Meat Burger With Chips", 23.99, 0, models.NonVeg, "Burges",
			"Juicy beef patty with melted cheese and crispy fries",
			[]string{"Beef", "Cheese", "Lettuce", "Tomato", "Bun", "Potatoes"}, []string{"Gluten", "Dairy"}),
		item("3", "Tacos Salsa With Chickens Grilled", 14.99, 0, models.NonVeg, "Main Course",
			"Grilled chicken tacos with fresh salsa and guacamole",
			[]string{"Chicken", "Tortilla", "Tomato", "Onion", "Cilantro"}, []string{"Gluten"}),
		item("4", "Fresh Orange Juice With Basil Seed", 12.99, 0, models.Veg, "Breakfast",
			"Freshly squeezed orange juice with basil seeds",
			[]string{"Orange", "Basil Seeds", "Sugar"}, nil),
		item("5", "Meat Sushi Maki With Tuna, Ship And Other", 9.99, 0, models.NonVeg, "Main Course",
			"Assorted sushi rolls with fresh tuna and shrimp",
			[]string{"Rice", "Tuna", "Shrimp", "Nori", "Avocado"}, []string{"Seafood", "Soy"}),
		item("6", "Original Chess Burger With French Fries", 10.59, 20, models.Veg, "Burges",
			"Vegetarian burger with cheese and crispy french fries",
			[]string{"Plant-based Patty", "Cheese", "Lettuce", "Tomato", "Bun", "Potatoes"}, []string{"Gluten", "Dairy"}),
		item("7", "Creamy Tomato Soup with Croutons", 8.99, 0, models.Veg, "Soups",
			"Rich tomato soup with cream and crunchy croutons",
			[]string{"Tomato", "Cream", "Onion", "Garlic", "Bread"}, []string{"Dairy", "Gluten"}),
		item("8", "Spaghetti Carbonara with Bacon", 16.99, 0, models.NonVeg, "Pasta",
			"Classic carbonara with crispy bacon and parmesan",
			[]string{"Pasta", "Bacon", "Egg", "Parmesan", "Black Pepper"}, []string{"Gluten", "Dairy", "Egg"}),
		item("9", "Chicken Noodle Soup", 9.99, 0, models.NonVeg, "Soups",
			"Hearty chicken soup with vegetables and noodles",
			[]string{"Chicken", "Noodles", "Carrot", "Celery", "Onion"}, []string{"Gluten"}),
	}
}

func seedTables() []models.Table {
	t := func(id string, customer string, status models.TableStatus, capacity int, section models.Section, orderID string) models.Table {
		return models.Table{ID: id, Number: id, Customer: customer, Status: status, Capacity: capacity, Section: section, CurrentOrderID: orderID}
	}

	return []models.Table{
		t("1", "John Doe", models.TableOccupied, 4, models.SectionMain, ""),
		t("2", "Jane Smith", models.TableAvailable, 2, models.SectionMain, ""),
		t("3", "Robert Johnson", models.TableReserved, 6, models.SectionPrivate, ""),
		t("4", "Floyd Miles", models.TableOccupied, 4, models.SectionMain, "1"),
		t("5", "", models.TableAvailable, 2, models.SectionOutdoor, ""),
		t("6", "", models.TableAvailable, 4, models.SectionOutdoor, ""),
		t("7", "Michael Brown", models.TableReserved, 8, models.SectionPrivate, ""),
		t("8", "Sarah Wilson", models.TableOccupied, 2, models.SectionBar, "3"),
		t("9", "", models.TableAvailable, 4, models.SectionMain, ""),
		t("10", "", models.TableAvailable, 6, models.SectionMain, ""),
		t("11", "David Lee", models.TableOccupied, 2, models.SectionBar, ""),
		t("12", "", models.TableAvailable, 4, models.SectionOutdoor, ""),
	}
}

func seedOrders(ctx context.Context, r Repos, menu []models.MenuItem, now time.Time, taxRate decimal.Decimal) ([]models.Order, error) {
	line := func(idx, qty int) models.LineItem {
		return models.LineItem{Item: menu[idx].Clone(), Quantity: qty}
	}

	type seedOrder struct {
		id       string
		tableID  string
		mode     models.DiningMode
		status   models.OrderStatus
		lines    []models.LineItem
		payment  models.PaymentStatus
		method   models.PaymentMethod
		server   string
		delivery *models.DeliveryInfo
		age      time.Duration
	}

	fixtures := []seedOrder{
		{id: "1", tableID: "4", mode: models.DineIn, status: models.StatusProcessing,
			lines: []models.LineItem{line(0, 2), line(3, 1), line(6, 3)}, payment: models.PaymentUnpaid, server: "Emma Johnson"},
		{id: "2", mode: models.TakeAway, status: models.StatusPending,
			lines: []models.LineItem{line(1, 2), line(4, 2)}, payment: models.PaymentUnpaid, server: "James Smith"},
		{id: "3", tableID: "8", mode: models.DineIn, status: models.StatusPending,
			lines: []models.LineItem{line(2, 1), line(5, 2)}, payment: models.PaymentUnpaid, server: "Emma Johnson"},
		{id: "4", mode: models.Delivery, status: models.StatusProcessing,
			lines:   []models.LineItem{line(1, 2), line(3, 1), line(8, 2)},
			payment: models.PaymentPaid, method: models.MethodCard, server: "James Smith",
			delivery: &models.DeliveryInfo{
				Address:       "123 Main St, Anytown, USA",
				ContactName:   "Lisa Johnson",
				ContactPhone:  "555-123-4567",
				Notes:         "Apartment 4B, ring twice",
				EstimatedTime: "30-45 minutes",
				DriverID:      "1",
			}},
		{id: "5", tableID: "11", mode: models.DineIn, status: models.StatusCompleted,
			lines: []models.LineItem{line(7, 1), line(4, 1)}, payment: models.PaymentPaid, method: models.MethodCash,
			server: "Emma Johnson", age: time.Hour},
	}

	day := now.Format("20060102")
	orders := make([]models.Order, 0, len(fixtures))
	for _, s := range fixtures {
		seq, err := r.NextSequence(ctx, "orders:"+day)
		if err != nil {
			return nil, fmt.Errorf("failed to seed order sequence: %w", err)
		}

		createdAt := now.Add(-s.age)
		subtotal, tax, total := models.ComputeTotals(s.lines, taxRate)
		tableNumber := s.tableID
		o := models.Order{
			ID:            s.id,
			Number:        models.GenerateOrderNumber(now, seq),
			Label:         models.OrderLabel(s.mode, tableNumber, seq),
			TableID:       s.tableID,
			DiningMode:    s.mode,
			Status:        s.status,
			Items:         s.lines,
			Subtotal:      subtotal,
			Tax:           tax,
			Total:         total,
			PaymentStatus: s.payment,
			PaymentMethod: s.method,
			Server:        s.server,
			Delivery:      s.delivery,
			Priority:      models.CalculatePriority(total),
			CreatedAt:     createdAt,
			UpdatedAt:     createdAt,
		}
		if s.status == models.StatusCompleted {
			o.CompletedAt = &createdAt
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func seedDrivers() []models.Driver {
	return []models.Driver{
		{ID: "1", Name: "Alex Martinez", Phone: "555-111-2222", Status: models.DriverOnDelivery, CurrentOrderID: "4", Vehicle: "Motorcycle"},
		{ID: "2", Name: "Samantha Lee", Phone: "555-222-3333", Status: models.DriverAvailable, Vehicle: "Car"},
		{ID: "3", Name: "Carlos Rodriguez", Phone: "555-333-4444", Status: models.DriverOffDuty, Vehicle: "Bicycle"},
		{ID: "4", Name: "Jessica Kim", Phone: "555-444-5555", Status: models.DriverAvailable, Vehicle: "Motorcycle"},
	}
}

func seedReservations() []models.Reservation {
	return []models.Reservation{
		{ID: "1", TableID: "3", CustomerName: "Robert Johnson", ContactPhone: "555-987-6543", Email: "robert@example.com",
			Date: "2025-03-25", Time: "19:00", Duration: 120, PartySize: 6, Status: models.ReservationConfirmed, Notes: "Anniversary celebration"},
		{ID: "2", TableID: "7", CustomerName: "Michael Brown", ContactPhone: "555-456-7890", Email: "michael@example.com",
			Date: "2025-03-25", Time: "20:00", Duration: 180, PartySize: 8, Status: models.ReservationConfirmed, Notes: "Birthday party, needs cake service"},
		{ID: "3", TableID: "10", CustomerName: "Jennifer Davis", ContactPhone: "555-789-0123", Email: "jennifer@example.com",
			Date: "2025-03-26", Time: "18:30", Duration: 90, PartySize: 4, Status: models.ReservationPending, Notes: "Prefers window seating"},
		{ID: "4", TableID: "5", CustomerName: "William Wilson", ContactPhone: "555-234-5678", Email: "william@example.com",
			Date: "2025-03-26", Time: "19:30", Duration: 120, PartySize: 2, Status: models.ReservationConfirmed, Notes: "Allergic to nuts"},
		{ID: "5", TableID: "9", CustomerName: "Elizabeth Taylor", ContactPhone: "555-345-6789", Email: "elizabeth@example.com",
			Date: "2025-03-27", Time: "20:00", Duration: 120, PartySize: 4, Status: models.ReservationCancelled, Notes: "Cancelled due to illness"},
	}
}

func seedUsers(hash PINHasher) ([]models.User, error) {
	raw := []struct {
		id, name string
		role     models.Role
		email    string
		pin      string
	}{
		{"1", "Admin User", models.RoleAdmin, "admin@chilipos.com", "1234"},
		{"2", "Emma Johnson", models.RoleServer, "emma@chilipos.com", "2345"},
		{"3", "James Smith", models.RoleServer, "james@chilipos.com", "3456"},
		{"4", "Maria Garcia", models.RoleKitchen, "maria@chilipos.com", "4567"},
		{"5", "David Lee", models.RoleManager, "david@chilipos.com", "5678"},
		{"6", "Sarah Wilson", models.RoleCashier, "sarah@chilipos.com", "6789"},
	}

	users := make([]models.User, 0, len(raw))
	for _, u := range raw {
		h, err := hash(u.pin)
		if err != nil {
			return nil, fmt.Errorf("failed to hash pin for user %s: %w", u.id, err)
		}
		users = append(users, models.User{ID: u.id, Name: u.name, Role: u.role, Email: u.email, PINHash: h, Active: true})
	}
	return users, nil
}

func seedTransactions(now time.Time) []models.Transaction {
	return []models.Transaction{
		{ID: "1", OrderID: "5", Type: models.TxSale, Amount: models.NewMoney(28.28), Method: models.MethodCash,
			Timestamp: now.Add(-time.Hour), Description: "Table 11 payment", StaffID: "6"},
		{ID: "2", OrderID: "4", Type: models.TxSale, Amount: models.NewMoney(81.95), Method: models.MethodCard,
			Timestamp: now.Add(-2 * time.Hour), Description: "Delivery order payment", StaffID: "6"},
		{ID: "3", Type: models.TxExpense, Amount: models.NewMoney(150), Method: models.MethodCard,
			Timestamp: now.Add(-24 * time.Hour), Description: "Grocery supplies", Category: "Inventory", StaffID: "5"},
		{ID: "4", Type: models.TxExpense, Amount: models.NewMoney(75.5), Method: models.MethodCash,
			Timestamp: now.Add(-48 * time.Hour), Description: "Cleaning supplies", Category: "Maintenance", StaffID: "5"},
		{ID: "5", OrderID: "old-order-1", Type: models.TxRefund, Amount: models.NewMoney(23.99), Method: models.MethodCard,
			Timestamp: now.Add(-72 * time.Hour), Description: "Customer complaint - wrong order", StaffID: "5"},
	}
}
