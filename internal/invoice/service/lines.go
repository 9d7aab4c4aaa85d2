package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/smallbiznis/barberdesk/internal/invoice/domain"
	"github.com/smallbiznis/barberdesk/internal/money"
	productdomain "github.com/smallbiznis/barberdesk/internal/product/domain"
	salondomain "github.com/smallbiznis/barberdesk/internal/salonservice/domain"
	staffdomain "github.com/smallbiznis/barberdesk/internal/staff/domain"
	"gorm.io/gorm"
)

// lineResolver looks up the master records behind line inputs once per
// request and fills in names, prices and commission before anything is saved.
type lineResolver struct {
	s        *Service
	tx       *gorm.DB
	staff    map[snowflake.ID]*staffdomain.Staff
	services map[snowflake.ID]*salondomain.SalonService
	products map[snowflake.ID]*productdomain.Product
}

func (s *Service) newResolver(tx *gorm.DB) *lineResolver {
	return &lineResolver{
		s:        s,
		tx:       tx,
		staff:    map[snowflake.ID]*staffdomain.Staff{},
		services: map[snowflake.ID]*salondomain.SalonService{},
		products: map[snowflake.ID]*productdomain.Product{},
	}
}

func (r *lineResolver) staffMember(ctx context.Context, raw invoicedomain.FlexibleID, field string) (*staffdomain.Staff, error) {
	if raw.String() == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(raw.String())
	if err != nil || id == 0 {
		return nil, invoicedomain.NewValidationError("invalid staff id", field)
	}
	if cached, ok := r.staff[id]; ok {
		return cached, nil
	}
	item, err := r.s.staffrepo.WithTrx(r.tx).FindOne(ctx, &staffdomain.Staff{ID: id})
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, &invoicedomain.ReferenceNotFoundError{Entity: "staff", ID: raw.String()}
	}
	r.staff[id] = item
	return item, nil
}

func (r *lineResolver) salonService(ctx context.Context, id snowflake.ID) (*salondomain.SalonService, error) {
	if cached, ok := r.services[id]; ok {
		return cached, nil
	}
	item, err := r.s.servicerepo.WithTrx(r.tx).FindOne(ctx, &salondomain.SalonService{ID: id})
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, &invoicedomain.ReferenceNotFoundError{Entity: "service", ID: id.String()}
	}
	r.services[id] = item
	return item, nil
}

func (r *lineResolver) product(ctx context.Context, id snowflake.ID) (*productdomain.Product, error) {
	if cached, ok := r.products[id]; ok {
		return cached, nil
	}
	item, err := r.s.productRepo.FindByID(ctx, r.tx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, &invoicedomain.ReferenceNotFoundError{Entity: "product", ID: id.String()}
	}
	r.products[id] = item
	return item, nil
}

// tipEligible reads the flag from the service master; a vanished service
// keeps its lines eligible.
func (r *lineResolver) tipEligible(ctx context.Context, id snowflake.ID) (bool, error) {
	item, err := r.salonService(ctx, id)
	if err != nil {
		var notFound *invoicedomain.ReferenceNotFoundError
		if errors.As(err, &notFound) {
			return true, nil
		}
		return false, err
	}
	return item.IsTipEligible, nil
}

func (r *lineResolver) serviceLines(ctx context.Context, invoiceID string, inputs []invoicedomain.ServiceLineInput, now time.Time) ([]*invoicedomain.InvoiceServiceLine, error) {
	lines := make([]*invoicedomain.InvoiceServiceLine, 0, len(inputs))
	for i, in := range inputs {
		field := fmt.Sprintf("invoiceServices[%d]", i)
		serviceID, err := parseLineRef(in.ServiceID, field+".service_id")
		if err != nil {
			return nil, err
		}
		quantity, err := lineQuantity(in.Quantity, field+".quantity")
		if err != nil {
			return nil, err
		}
		tipAmount := 0.0
		if in.TipAmount != nil {
			if *in.TipAmount < 0 || !isFinite(*in.TipAmount) {
				return nil, invoicedomain.NewValidationError("tip amount cannot be negative", field+".tip_amount")
			}
			tipAmount = money.Round2(*in.TipAmount)
		}

		svc, err := r.salonService(ctx, serviceID)
		if err != nil {
			return nil, err
		}
		staff, err := r.staffMember(ctx, in.StaffID, field+".staff_id")
		if err != nil {
			return nil, err
		}
		price, err := linePrice(in.Price, svc.Price, field+".price")
		if err != nil {
			return nil, err
		}

		total := money.LineTotal(price, quantity, in.Total)
		rate := resolveCommissionRate(staff, svc.CommissionRate)
		line := &invoicedomain.InvoiceServiceLine{
			ID:               r.s.genID.Generate(),
			InvoiceID:        invoiceID,
			Position:         i,
			ServiceID:        svc.ID,
			ServiceName:      svc.Name,
			Price:            price,
			Quantity:         quantity,
			Total:            total,
			TipAmount:        tipAmount,
			CommissionRate:   rate,
			CommissionAmount: money.Percent(total, rate),
			CreatedAt:        now,
		}
		if staff != nil {
			staffID := staff.ID
			line.StaffID = &staffID
			line.StaffName = staff.Name
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (r *lineResolver) productLines(ctx context.Context, invoiceID string, inputs []invoicedomain.ProductLineInput, now time.Time) ([]*invoicedomain.InvoiceProductLine, error) {
	lines := make([]*invoicedomain.InvoiceProductLine, 0, len(inputs))
	for i, in := range inputs {
		field := fmt.Sprintf("invoiceProducts[%d]", i)
		productID, err := parseLineRef(in.ProductID, field+".product_id")
		if err != nil {
			return nil, err
		}
		quantity, err := lineQuantity(in.Quantity, field+".quantity")
		if err != nil {
			return nil, err
		}

		product, err := r.product(ctx, productID)
		if err != nil {
			return nil, err
		}
		staff, err := r.staffMember(ctx, in.StaffID, field+".staff_id")
		if err != nil {
			return nil, err
		}
		price, err := linePrice(in.Price, product.Price, field+".price")
		if err != nil {
			return nil, err
		}

		total := money.LineTotal(price, quantity, in.Total)
		rate := resolveCommissionRate(staff, product.CommissionRate)
		line := &invoicedomain.InvoiceProductLine{
			ID:               r.s.genID.Generate(),
			InvoiceID:        invoiceID,
			Position:         i,
			ProductID:        product.ID,
			ProductName:      product.Name,
			Price:            price,
			Quantity:         quantity,
			Total:            total,
			CommissionRate:   rate,
			CommissionAmount: money.Percent(total, rate),
			CreatedAt:        now,
		}
		if staff != nil {
			staffID := staff.ID
			line.StaffID = &staffID
			line.StaffName = staff.Name
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// checkStock validates the combined quantity per product against the stock
// read inside the transaction, before any row is written.
func (r *lineResolver) checkStock(lines []*invoicedomain.InvoiceProductLine) error {
	requested := map[snowflake.ID]int{}
	order := make([]snowflake.ID, 0, len(lines))
	for _, line := range lines {
		if _, ok := requested[line.ProductID]; !ok {
			order = append(order, line.ProductID)
		}
		requested[line.ProductID] += line.Quantity
	}
	for _, id := range order {
		product := r.products[id]
		if product == nil {
			continue
		}
		if product.Stock < requested[id] {
			return &invoicedomain.StockError{
				ProductID:   id.String(),
				ProductName: product.Name,
				Available:   product.Stock,
				Requested:   requested[id],
			}
		}
	}
	return nil
}

// decrementStock applies the conditional decrement per line so a concurrent
// sale can never push stock below zero.
func (s *Service) decrementStock(ctx context.Context, tx *gorm.DB, lines []*invoicedomain.InvoiceProductLine) error {
	for _, line := range lines {
		ok, err := s.productRepo.DecrementStock(ctx, tx, line.ProductID, line.Quantity)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		available := 0
		if current, err := s.productRepo.FindByID(ctx, tx, line.ProductID); err == nil && current != nil {
			available = current.Stock
		}
		return &invoicedomain.StockError{
			ProductID:   line.ProductID.String(),
			ProductName: line.ProductName,
			Available:   available,
			Requested:   line.Quantity,
		}
	}
	return nil
}

func (s *Service) restoreStock(ctx context.Context, tx *gorm.DB, lines []*invoicedomain.InvoiceProductLine) error {
	for _, line := range lines {
		if err := s.productRepo.RestoreStock(ctx, tx, line.ProductID, line.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// resolveCommissionRate prefers the staff member's own percentage, then the
// item's rate.
func resolveCommissionRate(staff *staffdomain.Staff, itemRate float64) float64 {
	if staff != nil && staff.CommissionPercentage > 0 {
		return staff.CommissionPercentage
	}
	if itemRate > 0 {
		return itemRate
	}
	return 0
}

func parseLineRef(raw invoicedomain.FlexibleID, field string) (snowflake.ID, error) {
	if raw.String() == "" {
		return 0, invoicedomain.NewMissingFieldsError(field)
	}
	id, err := snowflake.ParseString(raw.String())
	if err != nil || id == 0 {
		return 0, invoicedomain.NewValidationError("invalid id", field)
	}
	return id, nil
}

func lineQuantity(quantity int, field string) (int, error) {
	if quantity < 0 {
		return 0, invoicedomain.NewValidationError("quantity cannot be negative", field)
	}
	if quantity == 0 {
		return 1, nil
	}
	return quantity, nil
}

func linePrice(input *float64, master float64, field string) (float64, error) {
	if input == nil {
		return money.Round2(master), nil
	}
	if *input < 0 || !isFinite(*input) {
		return 0, invoicedomain.NewValidationError("price cannot be negative", field)
	}
	return money.Round2(*input), nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
