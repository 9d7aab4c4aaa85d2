package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/barberdesk/pkg/db/pagination"
)

type ListCustomerRequest struct {
	PageToken     string
	PageSize      int
	Name          string
	Phone         string
	MinTotalSpent *float64
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
}

// ListCustomerFilter is the normalized form the repository queries with.
type ListCustomerFilter struct {
	Name          string
	Phone         string
	MinTotalSpent *float64
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

type CreateCustomerRequest struct {
	Name  string
	Phone string
	Email string
}

// UpdateCustomerRequest changes contact details only. Spend and visit
// counters move with invoices.
type UpdateCustomerRequest struct {
	Name  *string
	Phone *string
	Email *string
}

type Service interface {
	Create(context.Context, CreateCustomerRequest) (Customer, error)
	Update(context.Context, string, UpdateCustomerRequest) (Customer, error)
	List(context.Context, ListCustomerRequest) (ListCustomerResponse, error)
	GetByID(context.Context, string) (Customer, error)
}

var (
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidPhone    = errors.New("invalid_phone")
	ErrInvalidEmail    = errors.New("invalid_email")
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidMinSpent = errors.New("invalid_min_total_spent")
	ErrEmptyUpdate     = errors.New("empty_update")
	ErrPhoneTaken      = errors.New("phone_taken")
	ErrNotFound        = errors.New("not_found")
)
