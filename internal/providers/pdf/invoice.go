package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	invoicedomain "github.com/smallbiznis/barberdesk/internal/invoice/domain"
	"github.com/smallbiznis/barberdesk/internal/invoice/render"
	"github.com/smallbiznis/barberdesk/internal/money"
)

var errNilInvoice = errors.New("pdf: invoice is required")

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateInvoice(ctx context.Context, invoice *invoicedomain.InvoiceResponse, branding render.Branding) (io.Reader, error) {
	if invoice == nil {
		return nil, errNilInvoice
	}

	m := newDocument()
	addHeader(m, "Invoice", invoice, branding)
	m.AddRow(15,
		text.NewCol(12, amount(invoice.Total, branding)+" due", props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   5,
		}),
	)
	addLines(m, invoice, branding)
	addTotals(m, invoice, branding)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Amount due", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, amount(invoice.Total, branding), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	addFooter(m, invoice, branding)

	return generate(m)
}

func newDocument() core.Maroto {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()
	return maroto.New(cfg)
}

func addHeader(m core.Maroto, title string, invoice *invoicedomain.InvoiceResponse, branding render.Branding) {
	shop := strings.TrimSpace(branding.ShopName)
	if shop == "" {
		shop = title
	}

	m.AddRow(14,
		text.NewCol(8, shop, props.Text{Size: 18, Style: fontstyle.Bold, Align: align.Left}),
		text.NewCol(4, title, props.Text{Size: 14, Style: fontstyle.Bold, Align: align.Right}),
	)

	m.AddRow(24,
		col.New(6).Add(
			text.New("Invoice number: "+invoice.ID, props.Text{Top: 0}),
			text.New("Date: "+invoice.Date.UTC().Format("2006-01-02"), props.Text{Top: 4}),
			text.New("Payment method: "+invoice.PaymentMethod, props.Text{Top: 8}),
			text.New("Status: "+invoice.Status, props.Text{Top: 12}),
		),
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold, Align: align.Right}),
			text.New(invoice.CustomerName, props.Text{Top: 5, Align: align.Right}),
			text.New(staffLabel(invoice.StaffName), props.Text{Top: 10, Size: 8, Align: align.Right}),
		),
	)
}

func addLines(m core.Maroto, invoice *invoicedomain.InvoiceResponse, branding render.Branding) {
	m.AddRow(10,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))

	for _, item := range invoice.InvoiceServices {
		addLine(m, item.ServiceName, item.StaffName, item.Quantity, item.Price, item.Total, branding)
	}
	for _, item := range invoice.InvoiceProducts {
		addLine(m, item.ProductName, item.StaffName, item.Quantity, item.Price, item.Total, branding)
	}
	m.AddRow(2, line.NewCol(12))
}

func addLine(m core.Maroto, description, staff string, qty int, price, total float64, branding render.Branding) {
	if staff != "" {
		description = fmt.Sprintf("%s (%s)", description, staff)
	}
	m.AddRow(8,
		text.NewCol(6, description, props.Text{Size: 9}),
		text.NewCol(2, fmt.Sprintf("%d", qty), props.Text{Size: 9, Align: align.Right}),
		text.NewCol(2, amount(price, branding), props.Text{Size: 9, Align: align.Right}),
		text.NewCol(2, amount(total, branding), props.Text{Size: 9, Align: align.Right}),
	)
}

func addTotals(m core.Maroto, invoice *invoicedomain.InvoiceResponse, branding render.Branding) {
	totalRow(m, "Subtotal", invoice.Subtotal, branding)
	if invoice.DiscountAmount > 0 {
		totalRow(m, "Discount", -invoice.DiscountAmount, branding)
	}
	if len(invoice.TaxComponents) > 0 {
		for _, c := range invoice.TaxComponents {
			totalRow(m, fmt.Sprintf("%s (%s%%)", c.Name, trimRate(c.Rate)), c.Amount, branding)
		}
	} else if invoice.TaxAmount > 0 {
		totalRow(m, fmt.Sprintf("Tax (%s%%)", trimRate(invoice.TaxRate)), invoice.TaxAmount, branding)
	}
	if invoice.TipAmount > 0 {
		totalRow(m, "Tip", invoice.TipAmount, branding)
	}
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, amount(invoice.Total, branding), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
}

func totalRow(m core.Maroto, label string, value float64, branding render.Branding) {
	m.AddRow(7,
		col.New(8),
		text.NewCol(2, label, props.Text{Size: 9}),
		text.NewCol(2, amount(value, branding), props.Text{Size: 9, Align: align.Right}),
	)
}

func addFooter(m core.Maroto, invoice *invoicedomain.InvoiceResponse, branding render.Branding) {
	notes := strings.TrimSpace(strings.Join([]string{invoice.Notes, branding.FooterNotes}, "\n"))
	if notes == "" {
		return
	}
	m.AddRow(20,
		text.NewCol(12, notes, props.Text{Size: 8, Top: 8}),
	)
}

func generate(m core.Maroto) (io.Reader, error) {
	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}

func amount(v float64, branding render.Branding) string {
	currency := strings.ToUpper(strings.TrimSpace(branding.Currency))
	if currency == "" {
		currency = "USD"
	}
	if v < 0 {
		return "-" + currency + " " + money.Format(-v)
	}
	return currency + " " + money.Format(v)
}

func trimRate(rate float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", rate), "0"), ".")
}

func staffLabel(names string) string {
	if names == "" {
		return ""
	}
	return "Served by " + names
}
