package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/barberdesk/internal/audit/domain"
	customerdomain "github.com/smallbiznis/barberdesk/internal/customer/domain"
	customerservice "github.com/smallbiznis/barberdesk/internal/customer/service"
	"github.com/smallbiznis/barberdesk/internal/events"
	"github.com/smallbiznis/barberdesk/internal/invoice/calc"
	invoicedomain "github.com/smallbiznis/barberdesk/internal/invoice/domain"
	"github.com/smallbiznis/barberdesk/internal/invoice/format"
	"github.com/smallbiznis/barberdesk/internal/money"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxInvoiceIDAttempts = 5

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

func (s *Service) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (*invoicedomain.InvoiceResponse, error) {
	cfg := s.invoicingCfg.Get()

	header, err := s.validateCreate(req)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	var inv *invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customer, err := s.resolveCustomer(ctx, tx, req, now)
		if err != nil {
			return err
		}

		invoiceID, err := s.nextInvoiceID(ctx, tx, cfg.IDPrefix, cfg.IDLength)
		if err != nil {
			return err
		}

		resolver := s.newResolver(tx)
		services, err := resolver.serviceLines(ctx, invoiceID, req.ServiceLines(), now)
		if err != nil {
			return err
		}
		products, err := resolver.productLines(ctx, invoiceID, req.ProductLines(), now)
		if err != nil {
			return err
		}
		if err := resolver.checkStock(products); err != nil {
			return err
		}

		totals := calc.Compute(lineTotals(services, products), header.discount, calc.Tax{
			Rate:       header.taxRate,
			Components: header.components,
		})

		inv = &invoicedomain.Invoice{
			ID:             invoiceID,
			CustomerID:     customer.ID,
			CustomerName:   customer.Name,
			Date:           header.date,
			Subtotal:       totals.Subtotal,
			DiscountType:   string(header.discount.Type),
			DiscountValue:  header.discount.Value,
			DiscountAmount: totals.DiscountAmount,
			TaxRate:        header.taxRate,
			TaxAmount:      totals.TaxAmount,
			Total:          totals.Total,
			PaymentMethod:  header.paymentMethod,
			Status:         header.status,
			Notes:          strings.TrimSpace(req.Notes),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.repo.Insert(ctx, tx, inv); err != nil {
			return err
		}
		if err := s.serviceLineRepo.WithTrx(tx).BatchCreate(ctx, services); err != nil {
			return err
		}
		if err := s.productLineRepo.WithTrx(tx).BatchCreate(ctx, products); err != nil {
			return err
		}
		if err := s.insertComponents(ctx, tx, invoiceID, totals.Components, now); err != nil {
			return err
		}
		if err := s.decrementStock(ctx, tx, products); err != nil {
			return err
		}

		totalTip := 0.0
		if req.TipAmount != nil {
			totalTip = money.Round2(*req.TipAmount)
		}
		if _, err := s.allocateTips(ctx, tx, resolver, services, lineTips(services), totalTip); err != nil {
			return err
		}

		inv.Total = calc.GrandTotal(totals.TaxableBase, totals.TaxAmount, lineTips(services)...)
		if err := s.repo.Save(ctx, tx, inv); err != nil {
			return err
		}
		return s.customerRepo.RecordVisit(ctx, tx, customer.ID, inv.Total, header.date)
	})
	if err != nil {
		s.recordFailure(ctx, "create", err)
		return nil, err
	}

	resp, err := s.loadResponse(ctx, s.db, inv)
	if err != nil {
		return nil, err
	}

	s.log.Info("invoice created",
		zap.String("invoice_id", inv.ID),
		zap.String("customer_id", inv.CustomerID.String()),
		zap.Float64("total", inv.Total),
	)
	s.metrics.RecordInvoiceCreated(ctx, inv.PaymentMethod, string(inv.Status), inv.Total)
	s.afterCommit(ctx, auditdomain.ActionInvoiceCreated, events.EventTypeInvoiceCreated, resp)
	return resp, nil
}

type validatedHeader struct {
	date          time.Time
	paymentMethod string
	status        invoicedomain.InvoiceStatus
	discount      calc.Discount
	taxRate       float64
	components    []calc.Component
}

func (s *Service) validateCreate(req invoicedomain.CreateInvoiceRequest) (validatedHeader, error) {
	cfg := s.invoicingCfg.Get()
	var header validatedHeader

	missing := []string{}
	if strings.TrimSpace(req.Date) == "" {
		missing = append(missing, "date")
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		missing = append(missing, "payment_method")
	}
	if req.CustomerID.String() == "" {
		details := req.CustomerDetails
		switch {
		case details == nil:
			missing = append(missing, "customer_id")
		default:
			if strings.TrimSpace(details.Name) == "" {
				missing = append(missing, "customer_details.name")
			}
			if customerservice.NormalizePhone(details.Phone) == "" {
				missing = append(missing, "customer_details.phone")
			}
		}
	}
	if len(missing) > 0 {
		return header, invoicedomain.NewMissingFieldsError(missing...)
	}

	if len(req.ServiceLines()) == 0 && len(req.ProductLines()) == 0 {
		return header, invoicedomain.NewValidationError("invoice must contain at least one service or product", "invoiceServices", "invoiceProducts")
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return header, invoicedomain.NewValidationError("invalid date", "date")
	}
	header.date = date

	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if !cfg.AllowsPaymentMethod(method) {
		return header, invoicedomain.NewValidationError("unsupported payment method", "payment_method")
	}
	header.paymentMethod = method

	header.status = invoicedomain.InvoiceStatus(cfg.DefaultStatus)
	if raw := strings.ToLower(strings.TrimSpace(req.Status)); raw != "" {
		header.status = invoicedomain.InvoiceStatus(raw)
	}
	if !header.status.Valid() {
		return header, invoicedomain.NewValidationError("invalid status", "status")
	}

	var discountType *string
	if strings.TrimSpace(req.DiscountType) != "" {
		discountType = &req.DiscountType
	}
	header.discount, err = buildDiscount(discountType, req.DiscountValue, req.DiscountAmount, calc.Discount{})
	if err != nil {
		return header, err
	}

	if req.Tax != nil {
		if *req.Tax < 0 || !isFinite(*req.Tax) {
			return header, invoicedomain.NewValidationError("tax rate cannot be negative", "tax")
		}
		header.taxRate = *req.Tax
	}
	header.components, err = buildComponents(req.TaxComponents)
	if err != nil {
		return header, err
	}

	if req.TipAmount != nil && (*req.TipAmount < 0 || !isFinite(*req.TipAmount)) {
		return header, invoicedomain.NewValidationError("tip amount cannot be negative", "tip_amount")
	}
	return header, nil
}

// resolveCustomer loads the referenced customer or finds one by phone,
// creating it when the phone is new.
func (s *Service) resolveCustomer(ctx context.Context, tx *gorm.DB, req invoicedomain.CreateInvoiceRequest, now time.Time) (*customerdomain.Customer, error) {
	if raw := req.CustomerID.String(); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil || id == 0 {
			return nil, invoicedomain.NewValidationError("invalid customer id", "customer_id")
		}
		customer, err := s.customerRepo.FindByID(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if customer == nil {
			return nil, &invoicedomain.ReferenceNotFoundError{Entity: "customer", ID: raw}
		}
		return customer, nil
	}

	details := req.CustomerDetails
	phone := customerservice.NormalizePhone(details.Phone)
	existing, err := s.customerRepo.FindByPhone(ctx, tx, phone)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	customer := &customerdomain.Customer{
		ID:        s.genID.Generate(),
		Name:      strings.TrimSpace(details.Name),
		Phone:     phone,
		Email:     strings.TrimSpace(details.Email),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.customerRepo.Insert(ctx, tx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *Service) nextInvoiceID(ctx context.Context, tx *gorm.DB, prefix string, length int) (string, error) {
	for attempt := 0; attempt < maxInvoiceIDAttempts; attempt++ {
		id, err := format.NewInvoiceID(prefix, length)
		if err != nil {
			return "", err
		}
		existing, err := s.repo.FindByID(ctx, tx, id, false)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return id, nil
		}
	}
	return "", errors.New("could not allocate a unique invoice id")
}

func (s *Service) insertComponents(ctx context.Context, tx *gorm.DB, invoiceID string, components []calc.Component, now time.Time) error {
	if len(components) == 0 {
		return nil
	}
	rows := make([]*invoicedomain.TaxComponent, 0, len(components))
	for i, c := range components {
		amount := 0.0
		if c.Amount != nil {
			amount = *c.Amount
		}
		rows = append(rows, &invoicedomain.TaxComponent{
			ID:        s.genID.Generate(),
			InvoiceID: invoiceID,
			Position:  i,
			Name:      c.Name,
			Rate:      c.Rate,
			Amount:    amount,
			CreatedAt: now,
		})
	}
	return s.taxComponentRepo.WithTrx(tx).BatchCreate(ctx, rows)
}

// afterCommit runs the side effects that must not roll back the invoice.
func (s *Service) afterCommit(ctx context.Context, action string, eventType events.EventType, resp *invoicedomain.InvoiceResponse) {
	targetID := resp.ID
	if err := s.auditSvc.AuditLog(ctx, "", nil, action, "invoice", &targetID, map[string]any{
		"customer_id":    resp.CustomerID,
		"status":         resp.Status,
		"payment_method": resp.PaymentMethod,
		"total":          resp.Total,
		"tip_amount":     resp.TipAmount,
	}); err != nil {
		s.log.Warn("audit log failed", zap.String("invoice_id", resp.ID), zap.Error(err))
	}

	event := events.NewInvoiceEvent(ctx, eventType, s.clock.Now())
	event.InvoiceID = resp.ID
	event.CustomerID = resp.CustomerID
	event.Status = resp.Status
	event.PaymentMethod = resp.PaymentMethod
	event.Total = resp.Total
	event.TipAmount = resp.TipAmount
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn("invoice event not published", zap.String("invoice_id", resp.ID), zap.Error(err))
	}

	s.cache.Set(ctx, resp)
}

func (s *Service) recordFailure(ctx context.Context, operation string, err error) {
	var stockErr *invoicedomain.StockError
	if errors.As(err, &stockErr) {
		s.metrics.RecordStockRejection(ctx, operation)
	}
}

func buildDiscount(rawType *string, value, amount *float64, current calc.Discount) (calc.Discount, error) {
	discount := current
	if rawType != nil {
		parsed, ok := calc.ParseDiscountType(*rawType)
		if !ok {
			return discount, invoicedomain.NewValidationError("invalid discount type", "discount_type")
		}
		discount.Type = parsed
	}
	if value != nil {
		if *value < 0 || !isFinite(*value) {
			return discount, invoicedomain.NewValidationError("discount value cannot be negative", "discount_value")
		}
		discount.Value = *value
	}
	if amount != nil {
		if *amount < 0 || !isFinite(*amount) {
			return discount, invoicedomain.NewValidationError("discount amount cannot be negative", "discount_amount")
		}
		discount.Amount = *amount
	}
	if discount.Type == calc.DiscountPercentage && discount.Value > 100 {
		return discount, invoicedomain.NewValidationError("percentage discount cannot exceed 100", "discount_value")
	}
	return discount, nil
}

func buildComponents(inputs []invoicedomain.TaxComponentInput) ([]calc.Component, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	out := make([]calc.Component, 0, len(inputs))
	for _, in := range inputs {
		if strings.TrimSpace(in.Name) == "" {
			return nil, invoicedomain.NewMissingFieldsError("tax_components.name")
		}
		if in.Rate < 0 || !isFinite(in.Rate) {
			return nil, invoicedomain.NewValidationError("tax component rate cannot be negative", "tax_components.rate")
		}
		if in.Amount != nil && (*in.Amount < 0 || !isFinite(*in.Amount)) {
			return nil, invoicedomain.NewValidationError("tax component amount cannot be negative", "tax_components.amount")
		}
		out = append(out, calc.Component{Name: in.Name, Rate: in.Rate, Amount: in.Amount})
	}
	return out, nil
}

func lineTotals(services []*invoicedomain.InvoiceServiceLine, products []*invoicedomain.InvoiceProductLine) []float64 {
	totals := make([]float64, 0, len(services)+len(products))
	for _, line := range services {
		totals = append(totals, line.Total)
	}
	for _, line := range products {
		totals = append(totals, line.Total)
	}
	return totals
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
