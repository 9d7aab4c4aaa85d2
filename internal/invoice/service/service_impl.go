package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/barberdesk/internal/audit/domain"
	"github.com/smallbiznis/barberdesk/internal/cache"
	"github.com/smallbiznis/barberdesk/internal/clock"
	"github.com/smallbiznis/barberdesk/internal/config"
	customerdomain "github.com/smallbiznis/barberdesk/internal/customer/domain"
	"github.com/smallbiznis/barberdesk/internal/events"
	invoicedomain "github.com/smallbiznis/barberdesk/internal/invoice/domain"
	"github.com/smallbiznis/barberdesk/internal/observability/metrics"
	productdomain "github.com/smallbiznis/barberdesk/internal/product/domain"
	salondomain "github.com/smallbiznis/barberdesk/internal/salonservice/domain"
	staffdomain "github.com/smallbiznis/barberdesk/internal/staff/domain"
	"github.com/smallbiznis/barberdesk/pkg/db/pagination"
	"github.com/smallbiznis/barberdesk/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         invoicedomain.Repository
	CustomerRepo customerdomain.Repository
	ProductRepo  productdomain.Repository
	AuditSvc     auditdomain.Service
	InvoicingCfg *config.InvoicingConfigHolder
	Publisher    events.Publisher
	Cache        cache.InvoiceCache
	Metrics      *metrics.Metrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         invoicedomain.Repository
	customerRepo customerdomain.Repository
	productRepo  productdomain.Repository
	auditSvc     auditdomain.Service
	invoicingCfg *config.InvoicingConfigHolder
	publisher    events.Publisher
	cache        cache.InvoiceCache
	metrics      *metrics.Metrics

	staffrepo        repository.Repository[staffdomain.Staff]
	servicerepo      repository.Repository[salondomain.SalonService]
	serviceLineRepo  repository.Repository[invoicedomain.InvoiceServiceLine]
	productLineRepo  repository.Repository[invoicedomain.InvoiceProductLine]
	taxComponentRepo repository.Repository[invoicedomain.TaxComponent]
}

func NewService(p Params) invoicedomain.Service {
	svc := &Service{
		db:           p.DB,
		log:          p.Log.Named("invoice.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		customerRepo: p.CustomerRepo,
		productRepo:  p.ProductRepo,
		auditSvc:     p.AuditSvc,
		invoicingCfg: p.InvoicingCfg,
		publisher:    p.Publisher,
		cache:        p.Cache,
		metrics:      p.Metrics,

		staffrepo:        repository.ProvideStore[staffdomain.Staff](p.DB),
		servicerepo:      repository.ProvideStore[salondomain.SalonService](p.DB),
		serviceLineRepo:  repository.ProvideStore[invoicedomain.InvoiceServiceLine](p.DB),
		productLineRepo:  repository.ProvideStore[invoicedomain.InvoiceProductLine](p.DB),
		taxComponentRepo: repository.ProvideStore[invoicedomain.TaxComponent](p.DB),
	}
	if svc.clock == nil {
		svc.clock = clock.SystemClock{}
	}
	if svc.publisher == nil {
		svc.publisher = events.NoopPublisher{}
	}
	if svc.cache == nil {
		svc.cache = cache.NoopInvoiceCache{}
	}
	return svc
}

func (s *Service) GetByID(ctx context.Context, id string) (*invoicedomain.InvoiceResponse, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invoicedomain.ErrNotFound
	}
	if cached, ok := s.cache.Get(ctx, id); ok {
		return cached, nil
	}

	inv, err := s.repo.FindByID(ctx, s.db, id, false)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, invoicedomain.ErrNotFound
	}

	resp, err := s.loadResponse(ctx, s.db, inv)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, resp)
	return resp, nil
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	filter := invoicedomain.ListFilter{
		Status:   strings.ToLower(strings.TrimSpace(req.Status)),
		DateFrom: req.DateFrom,
		DateTo:   req.DateTo,
	}
	if raw := strings.TrimSpace(req.CustomerID); raw != "" {
		customerID, err := snowflake.ParseString(raw)
		if err != nil {
			return invoicedomain.ListInvoiceResponse{}, invoicedomain.NewValidationError("invalid customer_id", "customer_id")
		}
		filter.CustomerID = customerID
	}
	if filter.Status != "" && !invoicedomain.InvoiceStatus(filter.Status).Valid() {
		return invoicedomain.ListInvoiceResponse{}, invoicedomain.NewValidationError("invalid status", "status")
	}
	if token := strings.TrimSpace(req.PageToken); token != "" {
		if _, err := pagination.DecodeCursor(token); err != nil {
			return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidPageToken
		}
	}

	pageSize := pagination.NormalizePageSize(req.PageSize)
	items, err := s.repo.List(ctx, s.db, filter, req.Pagination)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	items, pageInfo := pagination.Trim(items, pageSize, func(inv *invoicedomain.Invoice) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        inv.ID,
			CreatedAt: inv.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})

	invoices, err := s.loadResponses(ctx, s.db, items)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}
	return invoicedomain.ListInvoiceResponse{PageInfo: pageInfo, Invoices: invoices}, nil
}
