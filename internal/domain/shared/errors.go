package shared

import (
	"fmt"
	"maps"
)

// DomainError represents a domain-level error. Two DomainErrors match under
// errors.Is when their codes are equal, so detailed instances built by the
// New*Error helpers still satisfy errors.Is(err, ErrX).
type DomainError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithMessage returns a copy of e carrying a more specific message
func (e *DomainError) WithMessage(format string, args ...any) *DomainError {
	return &DomainError{Code: e.Code, Message: fmt.Sprintf(format, args...), Details: maps.Clone(e.Details)}
}

// WithDetail returns a copy of e with key set in Details
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	details := maps.Clone(e.Details)
	if details == nil {
		details = make(map[string]any, 1)
	}
	details[key] = value
	return &DomainError{Code: e.Code, Message: e.Message, Details: details}
}

// Error codes
const (
	CodeInvalidQuantity          = "INVALID_QUANTITY"
	CodeProductInactive          = "PRODUCT_INACTIVE"
	CodeProductNotFound          = "PRODUCT_NOT_FOUND"
	CodeNoOpenSession            = "NO_OPEN_SESSION"
	CodeConcurrentOpenSession    = "CONCURRENT_OPEN_SESSION_CONFLICT"
	CodeUnauthorized             = "UNAUTHORIZED"
	CodeInvalidPin               = "INVALID_PIN"
	CodeInsufficientStock        = "INSUFFICIENT_STOCK"
	CodePaymentMismatch          = "PAYMENT_MISMATCH"
	CodeConstraintViolation      = "CONSTRAINT_VIOLATION"
	CodeNotFound                 = "NOT_FOUND"
	CodeInvalidInput             = "INVALID_INPUT"
	CodeInvalidState             = "INVALID_STATE"
	CodeSessionClosedForDay      = "SESSION_CLOSED_FOR_DAY"
	CodeReturnExceedsEligibleQty = "RETURN_EXCEEDS_ELIGIBLE_QTY"
	CodeConcurrencyConflict      = "CONCURRENCY_CONFLICT"
)

// Domain errors
var (
	ErrInvalidQuantity       = NewDomainError(CodeInvalidQuantity, "Quantity must be greater than zero")
	ErrProductInactive       = NewDomainError(CodeProductInactive, "Product is inactive")
	ErrProductNotFound       = NewDomainError(CodeProductNotFound, "Product not found")
	ErrNoOpenSession         = NewDomainError(CodeNoOpenSession, "No open quick sales session")
	ErrConcurrentOpenSession = NewDomainError(CodeConcurrentOpenSession, "Another request opened the session concurrently")
	ErrUnauthorized          = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrInvalidPin            = NewDomainError(CodeInvalidPin, "Invalid manager PIN")
	ErrInsufficientStock     = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrPaymentMismatch       = NewDomainError(CodePaymentMismatch, "Payments do not match the invoice total")
	ErrConstraintViolation   = NewDomainError(CodeConstraintViolation, "Storage constraint violated")
	ErrNotFound              = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput          = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrInvalidState          = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrSessionClosedForDay   = NewDomainError(CodeSessionClosedForDay, "Today's quick sales session is already closed")
	ErrReturnExceedsEligible = NewDomainError(CodeReturnExceedsEligibleQty, "Return quantity exceeds the eligible quantity")
	ErrConcurrencyConflict   = NewDomainError(CodeConcurrencyConflict, "Concurrent update detected, please retry")
)

// NewInsufficientStockError names the product and the quantities involved
func NewInsufficientStockError(productID, sku string, requested, available fmt.Stringer) *DomainError {
	return ErrInsufficientStock.
		WithMessage("Insufficient stock for %s: requested %s, available %s", sku, requested, available).
		WithDetail("product_id", productID).
		WithDetail("sku", sku).
		WithDetail("requested", requested.String()).
		WithDetail("available", available.String())
}

// NewPaymentMismatchError names the expected and received amounts
func NewPaymentMismatchError(expected, received fmt.Stringer) *DomainError {
	return ErrPaymentMismatch.
		WithMessage("Payments total %s but invoice net total is %s", received, expected).
		WithDetail("expected", expected.String()).
		WithDetail("received", received.String())
}

// NewConstraintViolationError describes which constraint failed
func NewConstraintViolationError(format string, args ...any) *DomainError {
	return ErrConstraintViolation.WithMessage(format, args...)
}

// NewInvalidInputError describes a rejected input
func NewInvalidInputError(format string, args ...any) *DomainError {
	return ErrInvalidInput.WithMessage(format, args...)
}
