package pdf

import (
	"context"
	"io"

	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	invoicedomain "github.com/smallbiznis/barberdesk/internal/invoice/domain"
	"github.com/smallbiznis/barberdesk/internal/invoice/render"
)

func (p *PDFProvider) GenerateReceipt(ctx context.Context, invoice *invoicedomain.InvoiceResponse, branding render.Branding) (io.Reader, error) {
	if invoice == nil {
		return nil, errNilInvoice
	}

	m := newDocument()
	addHeader(m, "Receipt", invoice, branding)
	m.AddRow(15,
		text.NewCol(12, amount(invoice.Total, branding)+" paid on "+invoice.Date.UTC().Format("2006-01-02"), props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   5,
		}),
	)
	addLines(m, invoice, branding)
	addTotals(m, invoice, branding)
	addFooter(m, invoice, branding)

	return generate(m)
}
