package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/barberdesk/internal/money"
	"github.com/smallbiznis/barberdesk/internal/product/domain"
	"github.com/smallbiznis/barberdesk/pkg/db"
	"github.com/smallbiznis/barberdesk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("product.service"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	sku := strings.ToUpper(strings.TrimSpace(req.SKU))
	if sku == "" {
		return nil, domain.ErrInvalidSKU
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if req.Price < 0 || math.IsNaN(req.Price) || math.IsInf(req.Price, 0) {
		return nil, domain.ErrInvalidPrice
	}
	if req.Stock < 0 {
		return nil, domain.ErrInvalidStock
	}
	commissionRate := 0.0
	if req.CommissionRate != nil {
		commissionRate = *req.CommissionRate
		if commissionRate < 0 || commissionRate > 100 {
			return nil, domain.ErrInvalidCommissionRate
		}
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:             s.genID.Generate(),
		SKU:            sku,
		Name:           name,
		Description:    trimOptional(req.Description),
		Price:          money.Round2(req.Price),
		Stock:          req.Stock,
		CommissionRate: commissionRate,
		Active:         active,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, s.db, product); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSKUTaken
		}
		return nil, err
	}

	s.log.Info("product created", zap.String("product_id", product.ID.String()), zap.String("sku", sku))
	resp := toResponse(product)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	filter := domain.ListRequest{
		Name:     strings.ToLower(strings.TrimSpace(req.Name)),
		Active:   req.Active,
		LowStock: req.LowStock,
	}
	page := pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize}

	items, err := s.repo.List(ctx, s.db, filter, page)
	if err != nil {
		return domain.ListResponse{}, err
	}

	items, pageInfo := pagination.Trim(items, pagination.NormalizePageSize(req.PageSize), func(p *domain.Product) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        p.ID.String(),
			CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})

	resp := make([]domain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, toResponse(item))
	}
	return domain.ListResponse{PageInfo: pageInfo, Products: resp}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	productID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || productID == 0 {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	resp := toResponse(item)
	return &resp, nil
}

func toResponse(p *domain.Product) domain.Response {
	return domain.Response{
		ID:             p.ID.String(),
		SKU:            p.SKU,
		Name:           p.Name,
		Description:    p.Description,
		Price:          p.Price,
		Stock:          p.Stock,
		CommissionRate: p.CommissionRate,
		Active:         p.Active,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
