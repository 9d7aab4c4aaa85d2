package pdf

import (
	"context"
	"io"

	invoicedomain "github.com/smallbiznis/barberdesk/internal/invoice/domain"
	"github.com/smallbiznis/barberdesk/internal/invoice/render"
	"go.uber.org/fx"
)

// Provider renders invoice documents. Paid invoices get a receipt, anything
// else an invoice showing the amount due.
type Provider interface {
	GenerateInvoice(ctx context.Context, invoice *invoicedomain.InvoiceResponse, branding render.Branding) (io.Reader, error)
	GenerateReceipt(ctx context.Context, invoice *invoicedomain.InvoiceResponse, branding render.Branding) (io.Reader, error)
}

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)

type NoOpProvider struct{}

func (p *NoOpProvider) GenerateInvoice(context.Context, *invoicedomain.InvoiceResponse, render.Branding) (io.Reader, error) {
	return nil, nil
}

func (p *NoOpProvider) GenerateReceipt(context.Context, *invoicedomain.InvoiceResponse, render.Branding) (io.Reader, error) {
	return nil, nil
}

// Generate picks the document kind from the invoice status.
func Generate(ctx context.Context, p Provider, invoice *invoicedomain.InvoiceResponse, branding render.Branding) (io.Reader, error) {
	if invoice.Status == string(invoicedomain.InvoiceStatusPaid) {
		return p.GenerateReceipt(ctx, invoice, branding)
	}
	return p.GenerateInvoice(ctx, invoice, branding)
}
