package domain

import (
	"context"
	"errors"
)

type CreateRequest struct {
	Name            string  `json:"name"`
	Code            string  `json:"code"`
	Description     string  `json:"description"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"duration_minutes"`
	CommissionRate  float64 `json:"commission_rate"`
	IsTipEligible   *bool   `json:"is_tip_eligible"`
	Active          *bool   `json:"active"`
}

type ListRequest struct {
	Active *bool
}

type Service interface {
	Create(context.Context, CreateRequest) (*SalonService, error)
	List(context.Context, ListRequest) ([]SalonService, error)
	GetByID(context.Context, string) (*SalonService, error)
}

var (
	ErrInvalidName           = errors.New("invalid_name")
	ErrInvalidPrice          = errors.New("invalid_price")
	ErrInvalidDuration       = errors.New("invalid_duration")
	ErrInvalidCommissionRate = errors.New("invalid_commission_rate")
	ErrInvalidID             = errors.New("invalid_id")
	ErrCodeTaken             = errors.New("code_taken")
	ErrNotFound              = errors.New("not_found")
)
