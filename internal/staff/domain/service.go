package domain

import (
	"context"
	"errors"
)

type CreateStaffRequest struct {
	Name                 string  `json:"name"`
	Phone                string  `json:"phone"`
	Email                string  `json:"email"`
	CommissionPercentage float64 `json:"commission_percentage"`
	Role                 string  `json:"role"`
	PIN                  string  `json:"pin"`
	Active               *bool   `json:"active"`
}

type ListStaffRequest struct {
	Active *bool
}

type Service interface {
	Create(context.Context, CreateStaffRequest) (*Staff, error)
	List(context.Context, ListStaffRequest) ([]Staff, error)
	GetByID(context.Context, string) (*Staff, error)
	VerifyPIN(ctx context.Context, id string, code string) (*Staff, error)
}

var (
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidCommission = errors.New("invalid_commission_percentage")
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidRole       = errors.New("invalid_role")
	ErrInvalidPIN        = errors.New("invalid_pin")
	ErrInvalidCredential = errors.New("invalid_credentials")
	ErrNotFound          = errors.New("not_found")
)
