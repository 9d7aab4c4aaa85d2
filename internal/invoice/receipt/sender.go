// Package receipt emails rendered invoice receipts to customers.
package receipt

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	auditdomain "github.com/smallbiznis/barberdesk/internal/audit/domain"
	"github.com/smallbiznis/barberdesk/internal/config"
	customerdomain "github.com/smallbiznis/barberdesk/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/barberdesk/internal/invoice/domain"
	"github.com/smallbiznis/barberdesk/internal/invoice/render"
	"github.com/smallbiznis/barberdesk/internal/providers/email"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	ErrNoRecipient      = errors.New("no_recipient")
	ErrInvalidRecipient = errors.New("invalid_recipient")
)

type Params struct {
	fx.In

	Log          *zap.Logger
	Invoices     invoicedomain.Service
	Customers    customerdomain.Service
	Renderer     render.Renderer
	Email        email.Provider
	InvoicingCfg *config.InvoicingConfigHolder
	AuditSvc     auditdomain.Service `optional:"true"`
}

type Sender struct {
	log          *zap.Logger
	invoices     invoicedomain.Service
	customers    customerdomain.Service
	renderer     render.Renderer
	email        email.Provider
	invoicingCfg *config.InvoicingConfigHolder
	auditSvc     auditdomain.Service
}

func NewSender(p Params) *Sender {
	return &Sender{
		log:          p.Log.Named("invoice.receipt"),
		invoices:     p.Invoices,
		customers:    p.Customers,
		renderer:     p.Renderer,
		email:        p.Email,
		invoicingCfg: p.InvoicingCfg,
		auditSvc:     p.AuditSvc,
	}
}

// Send mails the receipt for invoiceID. An empty to falls back to the
// customer's email on file. It returns the address used.
func (s *Sender) Send(ctx context.Context, invoiceID, to string) (string, error) {
	invoice, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return "", err
	}

	to = strings.TrimSpace(to)
	if to == "" {
		customer, err := s.customers.GetByID(ctx, invoice.CustomerID)
		if err != nil && !errors.Is(err, customerdomain.ErrNotFound) {
			return "", err
		}
		to = strings.TrimSpace(customer.Email)
	}
	if to == "" {
		return "", ErrNoRecipient
	}
	if _, err := mail.ParseAddress(to); err != nil {
		return "", ErrInvalidRecipient
	}

	cfg := s.invoicingCfg.Get()
	body, err := s.renderer.RenderHTML(invoice, render.BrandingFrom(cfg))
	if err != nil {
		return "", err
	}

	subject := "Your receipt " + invoice.ID
	if shop := strings.TrimSpace(cfg.ShopName); shop != "" {
		subject = shop + ": receipt " + invoice.ID
	}
	if err := s.email.Send(ctx, []string{to}, subject, body); err != nil {
		s.log.Warn("receipt email failed", zap.String("invoice_id", invoice.ID), zap.Error(err))
		return "", err
	}

	s.log.Info("receipt emailed", zap.String("invoice_id", invoice.ID))
	if s.auditSvc != nil {
		targetID := invoice.ID
		if err := s.auditSvc.AuditLog(ctx, "", nil, auditdomain.ActionReceiptEmailed, "invoice", &targetID, map[string]any{
			"email": to,
		}); err != nil {
			s.log.Warn("receipt audit failed", zap.String("invoice_id", invoice.ID), zap.Error(err))
		}
	}
	return to, nil
}
