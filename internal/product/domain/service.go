package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/barberdesk/pkg/db/pagination"
)

type CreateRequest struct {
	SKU            string   `json:"sku"`
	Name           string   `json:"name"`
	Description    *string  `json:"description"`
	Price          float64  `json:"price"`
	Stock          int      `json:"stock"`
	CommissionRate *float64 `json:"commission_rate"`
	Active         *bool    `json:"active"`
}

type ListRequest struct {
	Name      string
	Active    *bool
	LowStock  *int
	PageToken string
	PageSize  int
}

type Response struct {
	ID             string    `json:"id"`
	SKU            string    `json:"sku"`
	Name           string    `json:"name"`
	Description    *string   `json:"description,omitempty"`
	Price          float64   `json:"price"`
	Stock          int       `json:"stock"`
	CommissionRate float64   `json:"commission_rate"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type ListResponse struct {
	pagination.PageInfo
	Products []Response `json:"products"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	Get(ctx context.Context, id string) (*Response, error)
}

var (
	ErrInvalidSKU            = errors.New("invalid_sku")
	ErrInvalidName           = errors.New("invalid_name")
	ErrInvalidPrice          = errors.New("invalid_price")
	ErrInvalidStock          = errors.New("invalid_stock")
	ErrInvalidCommissionRate = errors.New("invalid_commission_rate")
	ErrInvalidID             = errors.New("invalid_id")
	ErrSKUTaken              = errors.New("sku_taken")
	ErrNotFound              = errors.New("not_found")
)
