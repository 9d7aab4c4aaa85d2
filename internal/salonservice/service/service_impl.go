package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/barberdesk/internal/money"
	"github.com/smallbiznis/barberdesk/internal/salonservice/domain"
	"github.com/smallbiznis/barberdesk/pkg/db"
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
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	servicerepo repository.Repository[domain.SalonService]
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("salonservice.service"),
		genID:       p.GenID,
		servicerepo: repository.ProvideStore[domain.SalonService](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.SalonService, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if req.Price < 0 || math.IsNaN(req.Price) || math.IsInf(req.Price, 0) {
		return nil, domain.ErrInvalidPrice
	}
	if req.DurationMinutes < 0 {
		return nil, domain.ErrInvalidDuration
	}
	if req.CommissionRate < 0 || req.CommissionRate > 100 {
		return nil, domain.ErrInvalidCommissionRate
	}

	code := slug.Make(strings.TrimSpace(req.Code))
	if code == "" {
		code = slug.Make(name)
	}

	tipEligible := true
	if req.IsTipEligible != nil {
		tipEligible = *req.IsTipEligible
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := time.Now().UTC()
	item := &domain.SalonService{
		ID:              s.genID.Generate(),
		Code:            code,
		Name:            name,
		Description:     strings.TrimSpace(req.Description),
		Price:           money.Round2(req.Price),
		DurationMinutes: req.DurationMinutes,
		CommissionRate:  req.CommissionRate,
		IsTipEligible:   tipEligible,
		Active:          active,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.servicerepo.WithTrx(tx)
		if err := repo.Create(ctx, item); err != nil {
			return err
		}
		// zero-valued booleans fall back to the column default on insert
		fields := map[string]any{}
		if !tipEligible {
			fields["is_tip_eligible"] = false
		}
		if !active {
			fields["active"] = false
		}
		return repo.Update(ctx, item.ID, fields)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrCodeTaken
		}
		return nil, err
	}

	s.log.Info("salon service created", zap.String("service_id", item.ID.String()), zap.String("code", code))
	return item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.SalonService, error) {
	opts := []option.QueryOption{option.WithOrder("name asc")}
	if req.Active != nil {
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "active", Value: *req.Active}))
	}

	items, err := s.servicerepo.Find(ctx, nil, opts...)
	if err != nil {
		return nil, err
	}

	out := make([]domain.SalonService, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	return out, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.SalonService, error) {
	serviceID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || serviceID == 0 {
		return nil, domain.ErrInvalidID
	}

	item, err := s.servicerepo.FindOne(ctx, &domain.SalonService{ID: serviceID})
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}
