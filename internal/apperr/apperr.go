// Package apperr defines the error kinds callers branch on.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the broad class of a failure
type Kind string

const (
	NotFound     Kind = "NotFound"
	InvalidState Kind = "InvalidState"
	Validation   Kind = "Validation"
	Internal     Kind = "Internal"
)

// Error is a classified engine error. Two errors match under errors.Is
// when their codes are equal.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Code so wrapped variants of a sentinel compare equal
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinel errors
var (
	ErrOrderNotFound       = &Error{Kind: NotFound, Code: "OrderNotFound", Message: "order not found"}
	ErrTableNotFound       = &Error{Kind: NotFound, Code: "TableNotFound", Message: "table not found"}
	ErrDriverNotFound      = &Error{Kind: NotFound, Code: "DriverNotFound", Message: "driver not found"}
	ErrReservationNotFound = &Error{Kind: NotFound, Code: "ReservationNotFound", Message: "reservation not found"}
	ErrUserNotFound        = &Error{Kind: NotFound, Code: "UserNotFound", Message: "user not found"}
	ErrMenuItemNotFound    = &Error{Kind: NotFound, Code: "MenuItemNotFound", Message: "menu item not found"}
	ErrCartNotFound        = &Error{Kind: NotFound, Code: "CartNotFound", Message: "cart not found"}
	ErrLineNotFound        = &Error{Kind: NotFound, Code: "LineNotFound", Message: "item is not in the cart"}

	ErrInvalidTransition   = &Error{Kind: InvalidState, Code: "InvalidTransition", Message: "status transition not allowed"}
	ErrDriverUnavailable   = &Error{Kind: InvalidState, Code: "DriverUnavailable", Message: "driver is not available"}
	ErrDriverBusy          = &Error{Kind: InvalidState, Code: "DriverBusy", Message: "driver is on a delivery"}
	ErrNotDeliveryOrder    = &Error{Kind: InvalidState, Code: "NotDeliveryOrder", Message: "order is not a delivery order"}
	ErrTableConflict       = &Error{Kind: InvalidState, Code: "TableConflict", Message: "table already holds another active order"}
	ErrOrderNotSeatable    = &Error{Kind: InvalidState, Code: "OrderNotSeatable", Message: "order cannot be seated at this table"}
	ErrDuplicateTable      = &Error{Kind: InvalidState, Code: "DuplicateTableNumber", Message: "table number already exists"}
	ErrCapacityExceeded    = &Error{Kind: InvalidState, Code: "CapacityExceeded", Message: "party size exceeds table capacity"}
	ErrReservationConflict = &Error{Kind: InvalidState, Code: "ReservationConflict", Message: "table already reserved for an overlapping slot"}
	ErrReservationClosed   = &Error{Kind: InvalidState, Code: "ReservationClosed", Message: "reservation is no longer active"}
	ErrInvalidCredentials  = &Error{Kind: InvalidState, Code: "InvalidCredentials", Message: "invalid email or pin"}
	ErrDuplicateEmail      = &Error{Kind: InvalidState, Code: "DuplicateEmail", Message: "email already in use"}
	ErrItemUnavailable     = &Error{Kind: InvalidState, Code: "MenuItemUnavailable", Message: "menu item is not available"}

	ErrEmptyCart           = &Error{Kind: Validation, Code: "EmptyCart", Message: "cart is empty"}
	ErrNoTableSelected     = &Error{Kind: Validation, Code: "NoTableSelected", Message: "dine-in orders require a table"}
	ErrMissingDeliveryInfo = &Error{Kind: Validation, Code: "MissingDeliveryInfo", Message: "delivery orders require delivery info"}
	ErrInvalidInput        = &Error{Kind: Validation, Code: "ValidationError", Message: "invalid input"}
)

// Wrap returns a copy of sentinel with a more specific message
func Wrap(sentinel *Error, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    sentinel.Kind,
		Code:    sentinel.Code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Invalid classifies err as a validation failure, keeping it for errors.As
func Invalid(err error) *Error {
	return &Error{
		Kind:    Validation,
		Code:    ErrInvalidInput.Code,
		Message: ErrInvalidInput.Message,
		Err:     err,
	}
}

// InternalError classifies an infrastructure failure
func InternalError(message string, err error) *Error {
	return &Error{Kind: Internal, Code: "Internal", Message: message, Err: err}
}

// KindOf returns the kind of err, Internal for unclassified errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// CodeOf returns the code of err, "Internal" for unclassified errors
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "Internal"
}
