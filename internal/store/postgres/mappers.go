package postgres

import (
	"github.com/jackc/pgx/v5"

	"restaurant-pos/internal/models"
)

var menuItemMapper = mapper[models.MenuItem]{
	table:   "menu_items",
	columns: []string{"id", "title", "image", "price", "discount", "type", "category", "description", "ingredients", "allergens", "available"},
	key:     func(v models.MenuItem) string { return v.ID },
	values: func(v models.MenuItem) []any {
		return []any{v.ID, v.Title, v.Image, v.Price, v.Discount, string(v.Type), v.Category, v.Description, v.Ingredients, v.Allergens, v.Available}
	},
	scan: func(row pgx.Row) (models.MenuItem, error) {
		var v models.MenuItem
		var typ string
		err := row.Scan(&v.ID, &v.Title, &v.Image, &v.Price, &v.Discount, &typ, &v.Category, &v.Description, &v.Ingredients, &v.Allergens, &v.Available)
		v.Type = models.FoodType(typ)
		return v, err
	},
}

var categoryMapper = mapper[models.Category]{
	table:   "categories",
	columns: []string{"id", "icon", "label"},
	key:     func(v models.Category) string { return v.ID },
	values:  func(v models.Category) []any { return []any{v.ID, v.Icon, v.Label} },
	scan: func(row pgx.Row) (models.Category, error) {
		var v models.Category
		err := row.Scan(&v.ID, &v.Icon, &v.Label)
		return v, err
	},
}

var tableMapper = mapper[models.Table]{
	table:   "restaurant_tables",
	columns: []string{"id", "number", "section", "capacity", "status", "customer", "current_order_id"},
	key:     func(v models.Table) string { return v.ID },
	values: func(v models.Table) []any {
		return []any{v.ID, v.Number, string(v.Section), v.Capacity, string(v.Status), v.Customer, v.CurrentOrderID}
	},
	scan: func(row pgx.Row) (models.Table, error) {
		var v models.Table
		var section, status string
		err := row.Scan(&v.ID, &v.Number, &section, &v.Capacity, &status, &v.Customer, &v.CurrentOrderID)
		v.Section = models.Section(section)
		v.Status = models.TableStatus(status)
		return v, err
	},
}

var orderMapper = mapper[models.Order]{
	table: "orders",
	columns: []string{"id", "number", "label", "table_id", "dining_mode", "status", "items", "subtotal", "tax", "total",
		"payment_status", "payment_method", "server", "delivery", "priority", "created_at", "updated_at", "completed_at"},
	key: func(v models.Order) string { return v.ID },
	values: func(v models.Order) []any {
		items := v.Items
		if items == nil {
			items = []models.LineItem{}
		}
		return []any{v.ID, v.Number, v.Label, v.TableID, string(v.DiningMode), string(v.Status), items, v.Subtotal, v.Tax, v.Total,
			string(v.PaymentStatus), string(v.PaymentMethod), v.Server, v.Delivery, v.Priority, v.CreatedAt, v.UpdatedAt, v.CompletedAt}
	},
	scan: func(row pgx.Row) (models.Order, error) {
		var v models.Order
		var mode, status, payStatus, payMethod string
		err := row.Scan(&v.ID, &v.Number, &v.Label, &v.TableID, &mode, &status, &v.Items, &v.Subtotal, &v.Tax, &v.Total,
			&payStatus, &payMethod, &v.Server, &v.Delivery, &v.Priority, &v.CreatedAt, &v.UpdatedAt, &v.CompletedAt)
		v.DiningMode = models.DiningMode(mode)
		v.Status = models.OrderStatus(status)
		v.PaymentStatus = models.PaymentStatus(payStatus)
		v.PaymentMethod = models.PaymentMethod(payMethod)
		return v, err
	},
}

var driverMapper = mapper[models.Driver]{
	table:   "drivers",
	columns: []string{"id", "name", "phone", "vehicle", "status", "current_order_id"},
	key:     func(v models.Driver) string { return v.ID },
	values: func(v models.Driver) []any {
		return []any{v.ID, v.Name, v.Phone, v.Vehicle, string(v.Status), v.CurrentOrderID}
	},
	scan: func(row pgx.Row) (models.Driver, error) {
		var v models.Driver
		var status string
		err := row.Scan(&v.ID, &v.Name, &v.Phone, &v.Vehicle, &status, &v.CurrentOrderID)
		v.Status = models.DriverStatus(status)
		return v, err
	},
}

var reservationMapper = mapper[models.Reservation]{
	table: "reservations",
	columns: []string{"id", "table_id", "customer_name", "contact_phone", "email", "date", "time", "duration",
		"party_size", "status", "notes"},
	key: func(v models.Reservation) string { return v.ID },
	values: func(v models.Reservation) []any {
		return []any{v.ID, v.TableID, v.CustomerName, v.ContactPhone, v.Email, v.Date, v.Time, v.Duration,
			v.PartySize, string(v.Status), v.Notes}
	},
	scan: func(row pgx.Row) (models.Reservation, error) {
		var v models.Reservation
		var status string
		err := row.Scan(&v.ID, &v.TableID, &v.CustomerName, &v.ContactPhone, &v.Email, &v.Date, &v.Time, &v.Duration,
			&v.PartySize, &status, &v.Notes)
		v.Status = models.ReservationStatus(status)
		return v, err
	},
}

var userMapper = mapper[models.User]{
	table:   "users",
	columns: []string{"id", "name", "role", "email", "pin_hash", "active"},
	key:     func(v models.User) string { return v.ID },
	values: func(v models.User) []any {
		return []any{v.ID, v.Name, string(v.Role), v.Email, v.PINHash, v.Active}
	},
	scan: func(row pgx.Row) (models.User, error) {
		var v models.User
		var role string
		err := row.Scan(&v.ID, &v.Name, &role, &v.Email, &v.PINHash, &v.Active)
		v.Role = models.Role(role)
		return v, err
	},
}

var transactionMapper = mapper[models.Transaction]{
	table:   "transactions",
	columns: []string{"id", "order_id", "type", "amount", "method", "timestamp", "description", "category", "staff_id"},
	key:     func(v models.Transaction) string { return v.ID },
	values: func(v models.Transaction) []any {
		return []any{v.ID, v.OrderID, string(v.Type), v.Amount, string(v.Method), v.Timestamp, v.Description, v.Category, v.StaffID}
	},
	scan: func(row pgx.Row) (models.Transaction, error) {
		var v models.Transaction
		var typ, method string
		err := row.Scan(&v.ID, &v.OrderID, &typ, &v.Amount, &method, &v.Timestamp, &v.Description, &v.Category, &v.StaffID)
		v.Type = models.TransactionType(typ)
		v.Method = models.PaymentMethod(method)
		return v, err
	},
}
