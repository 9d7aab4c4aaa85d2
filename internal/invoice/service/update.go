package service

import (
	"context"
	"math"
	"strings"
	"time"

	auditdomain "github.com/smallbiznis/barberdesk/internal/audit/domain"
	"github.com/smallbiznis/barberdesk/internal/events"
	"github.com/smallbiznis/barberdesk/internal/invoice/calc"
	invoicedomain "github.com/smallbiznis/barberdesk/internal/invoice/domain"
	"github.com/smallbiznis/barberdesk/internal/money"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (s *Service) Update(ctx context.Context, id string, req invoicedomain.UpdateInvoiceRequest) (*invoicedomain.InvoiceResponse, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invoicedomain.ErrNotFound
	}
	if req.TipAmount != nil && (*req.TipAmount < 0 || !isFinite(*req.TipAmount)) {
		return nil, invoicedomain.NewValidationError("tip amount cannot be negative", "tip_amount")
	}

	var inv *invoicedomain.Invoice
	var previousTotal float64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		inv, err = s.repo.FindByID(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if inv == nil {
			return invoicedomain.ErrNotFound
		}
		previousTotal = inv.Total

		if err := s.applyHeader(inv, req); err != nil {
			return err
		}

		now := s.clock.Now().UTC()
		resolver := s.newResolver(tx)

		services, err := s.repo.ServiceLines(ctx, tx, inv.ID)
		if err != nil {
			return err
		}
		products, err := s.repo.ProductLines(ctx, tx, inv.ID)
		if err != nil {
			return err
		}
		persistedTips := sumTips(services)

		if inputs := req.ProductLines(); inputs != nil {
			products, err = s.replaceProducts(ctx, tx, resolver, inv.ID, products, *inputs, now)
			if err != nil {
				return err
			}
		}

		replaced := false
		if inputs := req.ServiceLines(); inputs != nil {
			replaced = true
			if _, err := s.serviceLineRepo.WithTrx(tx).DeleteWhere(ctx, "invoice_id", inv.ID); err != nil {
				return err
			}
			services, err = resolver.serviceLines(ctx, inv.ID, *inputs, now)
			if err != nil {
				return err
			}
			if err := s.serviceLineRepo.WithTrx(tx).BatchCreate(ctx, services); err != nil {
				return err
			}
		}
		if len(services) == 0 && len(products) == 0 {
			return invoicedomain.NewValidationError("invoice must contain at least one service or product", "invoiceServices", "invoiceProducts")
		}

		subtotal := money.Sum(lineTotals(services, products)...)
		inv.Subtotal = subtotal
		inv.DiscountAmount = calc.DiscountAmount(subtotal, calc.Discount{
			Type:   calc.DiscountType(inv.DiscountType),
			Value:  inv.DiscountValue,
			Amount: inv.DiscountAmount,
		})
		taxableBase := calc.TaxableBase(subtotal, inv.DiscountAmount)

		inv.TaxAmount, err = s.updateTax(ctx, tx, inv, req.TaxComponents, taxableBase, now)
		if err != nil {
			return err
		}

		// An explicit tip zeroes every line and is allocated alone. Replaced
		// lines keep their own tips and take the rest of the persisted pool.
		// Untouched lines keep their persisted tips.
		switch {
		case req.TipAmount != nil:
			base := make([]float64, len(services))
			if _, err := s.allocateTips(ctx, tx, resolver, services, base, money.Round2(*req.TipAmount)); err != nil {
				return err
			}
		case replaced:
			base := lineTips(services)
			pool := math.Max(0, money.Round2(persistedTips-money.Sum(base...)))
			if _, err := s.allocateTips(ctx, tx, resolver, services, base, pool); err != nil {
				return err
			}
		}

		inv.Total = calc.GrandTotal(taxableBase, inv.TaxAmount, lineTips(services)...)
		inv.UpdatedAt = now
		if err := s.repo.Save(ctx, tx, inv); err != nil {
			return err
		}

		if delta := money.Round2(inv.Total - previousTotal); delta != 0 {
			return s.customerRepo.AdjustSpent(ctx, tx, inv.CustomerID, delta)
		}
		return nil
	})
	if err != nil {
		s.recordFailure(ctx, "update", err)
		return nil, err
	}

	s.cache.Delete(ctx, inv.ID)
	resp, err := s.loadResponse(ctx, s.db, inv)
	if err != nil {
		return nil, err
	}

	s.log.Info("invoice updated",
		zap.String("invoice_id", inv.ID),
		zap.Float64("previous_total", previousTotal),
		zap.Float64("total", inv.Total),
	)
	s.metrics.RecordInvoiceUpdated(ctx, string(inv.Status))
	s.afterCommit(ctx, auditdomain.ActionInvoiceUpdated, events.EventTypeInvoiceUpdated, resp)
	return resp, nil
}

// applyHeader copies the whitelisted header fields onto inv.
func (s *Service) applyHeader(inv *invoicedomain.Invoice, req invoicedomain.UpdateInvoiceRequest) error {
	cfg := s.invoicingCfg.Get()

	if req.Status != nil {
		status := invoicedomain.InvoiceStatus(strings.ToLower(strings.TrimSpace(*req.Status)))
		if !status.Valid() {
			return invoicedomain.NewValidationError("invalid status", "status")
		}
		inv.Status = status
	}
	if req.PaymentMethod != nil {
		method := strings.ToLower(strings.TrimSpace(*req.PaymentMethod))
		if !cfg.AllowsPaymentMethod(method) {
			return invoicedomain.NewValidationError("unsupported payment method", "payment_method")
		}
		inv.PaymentMethod = method
	}

	current := calc.Discount{
		Type:   calc.DiscountType(inv.DiscountType),
		Value:  inv.DiscountValue,
		Amount: inv.DiscountAmount,
	}
	discount, err := buildDiscount(req.DiscountType, req.DiscountValue, req.DiscountAmount, current)
	if err != nil {
		return err
	}
	inv.DiscountType = string(discount.Type)
	inv.DiscountValue = discount.Value
	inv.DiscountAmount = discount.Amount

	if req.Notes != nil {
		inv.Notes = strings.TrimSpace(*req.Notes)
	}
	return nil
}

// replaceProducts returns the removed lines' stock before validating and
// decrementing for the new ones.
func (s *Service) replaceProducts(ctx context.Context, tx *gorm.DB, r *lineResolver, invoiceID string, existing []*invoicedomain.InvoiceProductLine, inputs []invoicedomain.ProductLineInput, now time.Time) ([]*invoicedomain.InvoiceProductLine, error) {
	if err := s.restoreStock(ctx, tx, existing); err != nil {
		return nil, err
	}
	if _, err := s.productLineRepo.WithTrx(tx).DeleteWhere(ctx, "invoice_id", invoiceID); err != nil {
		return nil, err
	}

	lines, err := r.productLines(ctx, invoiceID, inputs, now)
	if err != nil {
		return nil, err
	}
	if err := r.checkStock(lines); err != nil {
		return nil, err
	}
	if err := s.productLineRepo.WithTrx(tx).BatchCreate(ctx, lines); err != nil {
		return nil, err
	}
	if err := s.decrementStock(ctx, tx, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// updateTax replaces components when inputs is set. Otherwise persisted
// components keep their rate and take a new amount from the base; without
// components the flat rate applies.
func (s *Service) updateTax(ctx context.Context, tx *gorm.DB, inv *invoicedomain.Invoice, inputs *[]invoicedomain.TaxComponentInput, base float64, now time.Time) (float64, error) {
	if inputs != nil {
		components, err := buildComponents(*inputs)
		if err != nil {
			return 0, err
		}
		if _, err := s.taxComponentRepo.WithTrx(tx).DeleteWhere(ctx, "invoice_id", inv.ID); err != nil {
			return 0, err
		}
		amount, resolved := calc.TaxAmount(base, calc.Tax{Rate: inv.TaxRate, Components: components})
		if err := s.insertComponents(ctx, tx, inv.ID, resolved, now); err != nil {
			return 0, err
		}
		return amount, nil
	}

	persisted, err := s.repo.TaxComponents(ctx, tx, inv.ID)
	if err != nil {
		return 0, err
	}
	if len(persisted) == 0 {
		amount, _ := calc.TaxAmount(base, calc.Tax{Rate: inv.TaxRate})
		return amount, nil
	}

	components := make([]calc.Component, 0, len(persisted))
	for _, c := range persisted {
		components = append(components, calc.Component{Name: c.Name, Rate: c.Rate})
	}
	amount, resolved := calc.RecomputeComponents(base, components)
	store := s.taxComponentRepo.WithTrx(tx)
	for i, c := range persisted {
		next := *resolved[i].Amount
		if next == c.Amount {
			continue
		}
		if err := store.Update(ctx, c.ID, map[string]any{"amount": next}); err != nil {
			return 0, err
		}
	}
	return amount, nil
}
