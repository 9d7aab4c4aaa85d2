package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound         = errors.New("invoice_not_found")
	ErrInvalidPageToken = errors.New("invalid_page_token")
)

// ValidationError rejects a request before anything is written.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Fields, ", "))
}

func NewMissingFieldsError(fields ...string) *ValidationError {
	return &ValidationError{Message: "missing required fields", Fields: fields}
}

func NewValidationError(message string, fields ...string) *ValidationError {
	return &ValidationError{Message: message, Fields: fields}
}

// ReferenceNotFoundError names a product, service, staff member or customer
// referenced by the request that does not exist.
type ReferenceNotFoundError struct {
	Entity string
	ID     string
}

func (e *ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// StockError reports a product line that asks for more than is on hand.
type StockError struct {
	ProductID   string
	ProductName string
	Available   int
	Requested   int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d", e.ProductName, e.Available, e.Requested)
}
