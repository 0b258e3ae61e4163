package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"time"

	"restaurant-pos/internal/models"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var pinPattern = regexp.MustCompile(`^[0-9]{4,6}$`)

func required(field, value string) error {
	if value == "" {
		return ValidationError{Field: field, Message: field + " is required"}
	}
	return nil
}

func maxLen(field, value string, n int) error {
	if len(value) > n {
		return ValidationError{Field: field, Message: fmt.Sprintf("%s must be less than %d characters", field, n)}
	}
	return nil
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func ValidateMenuItem(item models.MenuItem) error {
	if err := firstError(
		required("title", item.Title),
		maxLen("title", item.Title, 100),
		required("category", item.Category),
	); err != nil {
		return err
	}

	if item.Price.IsNegative() {
		return ValidationError{Field: "price", Message: "price must not be negative"}
	}
	if item.Discount < 0 || item.Discount > 100 {
		return ValidationError{Field: "discount", Message: "discount must be between 0 and 100"}
	}
	if item.Type != models.Veg && item.Type != models.NonVeg {
		return ValidationError{Field: "type", Message: "invalid food type"}
	}
	return nil
}

func ValidateTable(table models.Table) error {
	if err := required("number", table.Number); err != nil {
		return err
	}
	if table.Capacity < 1 {
		return ValidationError{Field: "capacity", Message: "capacity must be at least 1"}
	}
	if !table.Section.Valid() {
		return ValidationError{Field: "section", Message: "invalid section"}
	}
	if table.Status != "" && !table.Status.Valid() {
		return ValidationError{Field: "status", Message: "invalid table status"}
	}
	return nil
}

func ValidateTableStatus(status models.TableStatus) error {
	if !status.Valid() {
		return ValidationError{Field: "status", Message: "invalid table status"}
	}
	return nil
}

func ValidateDeliveryInfo(info *models.DeliveryInfo) error {
	if info == nil {
		return ValidationError{Field: "delivery", Message: "delivery info is required for delivery orders"}
	}
	return firstError(
		required("address", info.Address),
		maxLen("address", info.Address, 200),
		required("contact_name", info.ContactName),
		required("contact_phone", info.ContactPhone),
	)
}

func ValidateDriver(driver models.Driver) error {
	return firstError(
		required("name", driver.Name),
		maxLen("name", driver.Name, 100),
		required("phone", driver.Phone),
	)
}

func ValidateReservation(r models.Reservation) error {
	if err := firstError(
		required("table_id", r.TableID),
		required("customer_name", r.CustomerName),
		maxLen("customer_name", r.CustomerName, 100),
		required("contact_phone", r.ContactPhone),
	); err != nil {
		return err
	}

	if _, err := time.Parse(models.DateLayout, r.Date); err != nil {
		return ValidationError{Field: "date", Message: "date must be formatted as YYYY-MM-DD"}
	}
	if _, err := time.Parse(models.TimeLayout, r.Time); err != nil {
		return ValidationError{Field: "time", Message: "time must be formatted as HH:MM"}
	}
	if r.Duration <= 0 {
		return ValidationError{Field: "duration", Message: "duration must be greater than 0"}
	}
	if r.PartySize < 1 {
		return ValidationError{Field: "party_size", Message: "party size must be at least 1"}
	}
	if r.Email != "" {
		if _, err := mail.ParseAddress(r.Email); err != nil {
			return ValidationError{Field: "email", Message: "invalid email address"}
		}
	}
	return nil
}

// ValidateTransaction checks a ledger entry before it is appended
func ValidateTransaction(in models.TransactionInput) error {
	if !in.Type.Valid() {
		return ValidationError{Field: "type", Message: "invalid transaction type"}
	}
	if !in.Amount.IsPositive() {
		return ValidationError{Field: "amount", Message: "amount must be greater than 0"}
	}
	if !in.Method.Valid() {
		return ValidationError{Field: "method", Message: "invalid payment method"}
	}
	return required("staff_id", in.StaffID)
}

// ValidateUser checks a user record; pin is validated only when non-empty
func ValidateUser(user models.User, pin string) error {
	if err := firstError(
		required("name", user.Name),
		maxLen("name", user.Name, 100),
		required("email", user.Email),
	); err != nil {
		return err
	}

	if _, err := mail.ParseAddress(user.Email); err != nil {
		return ValidationError{Field: "email", Message: "invalid email address"}
	}
	if !user.Role.Valid() {
		return ValidationError{Field: "role", Message: "invalid role"}
	}
	if pin != "" {
		return ValidatePIN(pin)
	}
	return nil
}

// ValidatePIN checks a staff PIN
func ValidatePIN(pin string) error {
	if !pinPattern.MatchString(pin) {
		return ValidationError{Field: "pin", Message: "pin must be 4 to 6 digits"}
	}
	return nil
}
