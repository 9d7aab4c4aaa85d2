package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/barberdesk/internal/clock"
	"github.com/smallbiznis/barberdesk/internal/customer/domain"
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
	Clock clock.Clock `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
	clock clock.Clock
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("customer.service"),
		genID: p.GenID,
		repo:  p.Repo,
		clock: clk,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCustomerRequest) (domain.Customer, error) {
	contact, err := normalizeContact(req.Name, req.Phone, req.Email)
	if err != nil {
		return domain.Customer{}, err
	}
	if err := s.ensurePhoneFree(ctx, contact.Phone, 0); err != nil {
		return domain.Customer{}, err
	}

	now := s.clock.Now().UTC()
	contact.ID = s.genID.Generate()
	contact.CreatedAt = now
	contact.UpdatedAt = now
	if err := s.repo.Insert(ctx, s.db, &contact); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Customer{}, domain.ErrPhoneTaken
		}
		return domain.Customer{}, err
	}

	s.log.Info("customer created", zap.String("customer_id", contact.ID.String()))
	return contact, nil
}

// Update applies the non-nil fields. A phone change must stay unique.
func (s *Service) Update(ctx context.Context, rawID string, req domain.UpdateCustomerRequest) (domain.Customer, error) {
	if req.Name == nil && req.Phone == nil && req.Email == nil {
		return domain.Customer{}, domain.ErrEmptyUpdate
	}
	current, err := s.GetByID(ctx, rawID)
	if err != nil {
		return domain.Customer{}, err
	}

	name, phone, email := current.Name, current.Phone, current.Email
	if req.Name != nil {
		name = *req.Name
	}
	if req.Phone != nil {
		phone = *req.Phone
	}
	if req.Email != nil {
		email = *req.Email
	}
	next, err := normalizeContact(name, phone, email)
	if err != nil {
		return domain.Customer{}, err
	}
	if next.Phone != current.Phone {
		if err := s.ensurePhoneFree(ctx, next.Phone, current.ID); err != nil {
			return domain.Customer{}, err
		}
	}

	current.Name, current.Phone, current.Email = next.Name, next.Phone, next.Email
	current.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.UpdateContact(ctx, s.db, &current); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Customer{}, domain.ErrPhoneTaken
		}
		return domain.Customer{}, err
	}

	s.log.Info("customer updated", zap.String("customer_id", current.ID.String()))
	return current, nil
}

func (s *Service) List(ctx context.Context, req domain.ListCustomerRequest) (domain.ListCustomerResponse, error) {
	if req.MinTotalSpent != nil && *req.MinTotalSpent < 0 {
		return domain.ListCustomerResponse{}, domain.ErrInvalidMinSpent
	}

	size := pagination.NormalizePageSize(req.PageSize)
	rows, err := s.repo.List(ctx, s.db, domain.ListCustomerFilter{
		Name:          strings.ToLower(strings.TrimSpace(req.Name)),
		Phone:         NormalizePhone(req.Phone),
		MinTotalSpent: req.MinTotalSpent,
		CreatedFrom:   req.CreatedFrom,
		CreatedTo:     req.CreatedTo,
	}, pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize})
	if err != nil {
		return domain.ListCustomerResponse{}, err
	}

	rows, pageInfo := pagination.Trim(rows, size, cursorFor)

	out := domain.ListCustomerResponse{PageInfo: pageInfo, Customers: make([]domain.Customer, 0, len(rows))}
	for _, row := range rows {
		if row != nil {
			out.Customers = append(out.Customers, *row)
		}
	}
	return out, nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Customer, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil || id == 0 {
		return domain.Customer{}, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if item == nil {
		return domain.Customer{}, domain.ErrNotFound
	}
	return *item, nil
}

// ensurePhoneFree fails when phone belongs to a customer other than self.
func (s *Service) ensurePhoneFree(ctx context.Context, phone string, self snowflake.ID) error {
	holder, err := s.repo.FindByPhone(ctx, s.db, phone)
	if err != nil {
		return err
	}
	if holder != nil && holder.ID != self {
		return domain.ErrPhoneTaken
	}
	return nil
}

func normalizeContact(name, phone, email string) (domain.Customer, error) {
	out := domain.Customer{
		Name:  strings.TrimSpace(name),
		Phone: NormalizePhone(phone),
		Email: strings.TrimSpace(email),
	}
	if out.Name == "" {
		return domain.Customer{}, domain.ErrInvalidName
	}
	if out.Phone == "" {
		return domain.Customer{}, domain.ErrInvalidPhone
	}
	if out.Email != "" {
		addr, err := mail.ParseAddress(out.Email)
		if err != nil {
			return domain.Customer{}, domain.ErrInvalidEmail
		}
		out.Email = addr.Address
	}
	return out, nil
}

func cursorFor(c *domain.Customer) string {
	token, err := pagination.EncodeCursor(pagination.Cursor{
		ID:        c.ID.String(),
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return ""
	}
	return token
}

// NormalizePhone keeps digits and a leading plus so lookups ignore spacing
// and punctuation.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
