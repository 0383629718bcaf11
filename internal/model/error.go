package model

import (
	"errors"
	"fmt"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeInsufficientStock = "INSUFFICIENT_STOCK"
	ErrCodeDuplicate         = "DUPLICATE"
	ErrCodeUnauthorised      = "UNAUTHORIZED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so sentinel values work with errors.Is.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails attaches structured details exposed to API clients.
func (e *DomainError) WithDetails(details any) *DomainError {
	e.Details = details
	return e
}

// NewValidationError reports malformed or missing input.
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(ErrCodeValidation, fmt.Sprintf(format, args...))
}

// NewNotFoundError reports a referenced entity that does not exist.
func NewNotFoundError(entity, id string) *DomainError {
	return NewDomainError(ErrCodeNotFound, fmt.Sprintf("%s %s not found", entity, id)).
		WithDetails(map[string]string{"entity": entity, "id": id})
}

// NewInsufficientStockError reports a requested quantity above the available stock.
func NewInsufficientStockError(productID, productName string, remaining int) *DomainError {
	return NewDomainError(
		ErrCodeInsufficientStock,
		fmt.Sprintf("insufficient stock for %s: %d remaining", productName, remaining),
	).WithDetails(map[string]any{"productId": productID, "remaining": remaining})
}

// NewDuplicateError reports a uniqueness violation such as a reused email.
func NewDuplicateError(message string) *DomainError {
	return NewDomainError(ErrCodeDuplicate, message)
}

// NewAuthError reports bad credentials or a missing/invalid token.
func NewAuthError(message string) *DomainError {
	return NewDomainError(ErrCodeUnauthorised, message)
}

// Sentinels for errors.Is checks; they compare by code only.
var (
	ErrValidation        = NewDomainError(ErrCodeValidation, "validation failed")
	ErrNotFound          = NewDomainError(ErrCodeNotFound, "resource not found")
	ErrInsufficientStock = NewDomainError(ErrCodeInsufficientStock, "insufficient stock")
	ErrDuplicate         = NewDomainError(ErrCodeDuplicate, "resource already exists")
	ErrUnauthorised      = NewDomainError(ErrCodeUnauthorised, "unauthorised")
	ErrInvalidQuantity   = NewDomainError(ErrCodeValidation, "quantity must be greater than zero")
	ErrEmptyCart         = NewDomainError(ErrCodeValidation, "order must contain at least one item")
)

// AsDomainError extracts a DomainError from an error chain.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
