package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/barberdesk/internal/auth/pin"
	"github.com/smallbiznis/barberdesk/internal/authorization"
	"github.com/smallbiznis/barberdesk/internal/staff/domain"
	"github.com/smallbiznis/barberdesk/pkg/db/option"
	"github.com/smallbiznis/barberdesk/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	staffrepo repository.Repository[domain.Staff]
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("staff.service"),
		genID:     p.GenID,
		staffrepo: repository.ProvideStore[domain.Staff](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateStaffRequest) (*domain.Staff, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if req.CommissionPercentage < 0 || req.CommissionPercentage > 100 {
		return nil, domain.ErrInvalidCommission
	}
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role == "" {
		role = authorization.RoleCashier
	}
	if !authorization.KnownRole(role) {
		return nil, domain.ErrInvalidRole
	}
	var pinHash string
	if code := strings.TrimSpace(req.PIN); code != "" {
		hashed, err := pin.Hash(code)
		if err != nil {
			return nil, domain.ErrInvalidPIN
		}
		pinHash = hashed
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := time.Now().UTC()
	staff := &domain.Staff{
		ID:                   s.genID.Generate(),
		Name:                 name,
		Phone:                strings.TrimSpace(req.Phone),
		Email:                strings.TrimSpace(req.Email),
		CommissionPercentage: req.CommissionPercentage,
		Role:                 role,
		PINHash:              pinHash,
		Active:               active,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.staffrepo.Create(ctx, staff); err != nil {
		return nil, err
	}
	// gorm skips zero-valued defaults on insert.
	if !active {
		if err := s.staffrepo.Update(ctx, staff.ID, map[string]any{"active": false}); err != nil {
			return nil, err
		}
	}

	s.log.Info("staff created",
		zap.String("staff_id", staff.ID.String()),
		zap.String("role", role),
	)
	return staff, nil
}

func (s *Service) List(ctx context.Context, req domain.ListStaffRequest) ([]domain.Staff, error) {
	opts := []option.QueryOption{option.WithOrder("name asc")}
	if req.Active != nil {
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "active", Value: *req.Active}))
	}

	items, err := s.staffrepo.Find(ctx, nil, opts...)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Staff, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	return out, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.Staff, error) {
	staffID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || staffID == 0 {
		return nil, domain.ErrInvalidID
	}

	item, err := s.staffrepo.FindOne(ctx, &domain.Staff{ID: staffID})
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

// VerifyPIN fails the same way for unknown, inactive and mismatched staff.
func (s *Service) VerifyPIN(ctx context.Context, id string, code string) (*domain.Staff, error) {
	item, err := s.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidID) {
			return nil, domain.ErrInvalidCredential
		}
		return nil, err
	}
	if !item.Active || item.PINHash == "" || !pin.Verify(strings.TrimSpace(code), item.PINHash) {
		return nil, domain.ErrInvalidCredential
	}
	return item, nil
}
