package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors shared across services. Handlers translate these (and the
// typed errors below) to HTTP statuses; services never touch status codes.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrUsernameExists     = errors.New("username already in use")
	ErrEmailExists        = errors.New("email already in use")
	ErrBarcodeExists      = errors.New("a product with that barcode already exists")
	ErrSelfDeactivation   = errors.New("you cannot deactivate your own account")
	ErrSaleNotFound       = errors.New("sale not found")
)

// ValidationError marks caller mistakes detected before any mutation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func newValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ProductNotFoundError names the missing product, by id or by barcode.
type ProductNotFoundError struct {
	ProductID uuid.UUID
	Barcode   string
}

func (e *ProductNotFoundError) Error() string {
	if e.Barcode != "" {
		return fmt.Sprintf("product with barcode %q not found", e.Barcode)
	}
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InsufficientStockError aborts a sale when a line requests more units than
// the product has at the moment of processing.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
		e.Name, e.Requested, e.Available)
}

// IsNotFound reports whether err names an absent entity.
func IsNotFound(err error) bool {
	var pnf *ProductNotFoundError
	return errors.As(err, &pnf) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrSaleNotFound)
}

// IsConflict reports whether err is a state conflict (duplicate unique field,
// insufficient stock, self-deactivation).
func IsConflict(err error) bool {
	var ins *InsufficientStockError
	return errors.As(err, &ins) ||
		errors.Is(err, ErrUsernameExists) ||
		errors.Is(err, ErrEmailExists) ||
		errors.Is(err, ErrBarcodeExists) ||
		errors.Is(err, ErrSelfDeactivation)
}

// IsInsufficientStock reports whether err is a stock shortage specifically.
func IsInsufficientStock(err error) bool {
	var ins *InsufficientStockError
	return errors.As(err, &ins)
}

// IsValidation reports whether err is a caller validation failure.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
