// Package render turns an invoice read model into a printable HTML receipt.
package render

import (
	"bytes"
	"html/template"
	"regexp"
	"strings"
	"time"

	"github.com/smallbiznis/barberdesk/internal/config"
	invoicedomain "github.com/smallbiznis/barberdesk/internal/invoice/domain"
	"github.com/smallbiznis/barberdesk/internal/money"
)

const receiptHTMLTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Receipt {{.Invoice.ID}}</title>
  <style>
    :root {
      --primary: {{.Branding.PrimaryColor}};
      --font: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
    }
    * { box-sizing: border-box; }
    body { margin: 0; padding: 32px; font-family: var(--font); color: #1a1f36; background: #f7f9fc; }
    .receipt { background: #ffffff; max-width: 640px; margin: 0 auto; padding: 40px; border-radius: 4px; border-top: 4px solid var(--primary); }
    .header { display: flex; justify-content: space-between; margin-bottom: 28px; }
    .header h1 { margin: 0; font-size: 22px; }
    .label { font-size: 11px; text-transform: uppercase; color: #8792a2; font-weight: 600; margin-bottom: 4px; }
    .value { font-size: 14px; line-height: 1.5; }
    .meta { display: flex; justify-content: space-between; margin-bottom: 28px; }
    .status { text-transform: uppercase; font-size: 12px; font-weight: 700; color: var(--primary); }
    table { width: 100%; border-collapse: collapse; margin-bottom: 24px; }
    th { text-align: left; text-transform: uppercase; font-size: 11px; color: #8792a2; border-bottom: 1px solid #e3e8ee; padding: 8px 0; }
    td { padding: 12px 0; border-bottom: 1px solid #e3e8ee; font-size: 14px; vertical-align: top; }
    .right { text-align: right; }
    .sub { font-size: 12px; color: #697386; }
    .totals { display: flex; flex-direction: column; align-items: flex-end; }
    .row { display: flex; justify-content: space-between; width: 260px; padding: 4px 0; font-size: 14px; }
    .row span:first-child { color: #697386; }
    .final { border-top: 1px solid #e3e8ee; margin-top: 8px; padding-top: 8px; font-weight: 700; font-size: 16px; }
    .footer { margin-top: 40px; font-size: 12px; color: #8792a2; border-top: 1px solid #e3e8ee; padding-top: 16px; }
  </style>
</head>
<body>
  <div class="receipt">
    <div class="header">
      <div>
        <h1>{{.Branding.ShopName}}</h1>
        <div class="sub">Receipt {{.Invoice.ID}}</div>
      </div>
      <div class="status">{{.Invoice.Status}}</div>
    </div>

    <div class="meta">
      <div>
        <div class="label">Customer</div>
        <div class="value"><strong>{{.Invoice.CustomerName}}</strong></div>
        {{if .Invoice.StaffName}}<div class="sub">Served by {{.Invoice.StaffName}}</div>{{end}}
      </div>
      <div class="right">
        <div class="label">Date</div>
        <div class="value">{{formatDate .Invoice.Date}}</div>
        <div class="label" style="margin-top: 12px;">Payment</div>
        <div class="value">{{.Invoice.PaymentMethod}}</div>
      </div>
    </div>

    <table>
      <thead>
        <tr>
          <th style="width: 50%;">Item</th>
          <th class="right">Qty</th>
          <th class="right">Price</th>
          <th class="right">Amount</th>
        </tr>
      </thead>
      <tbody>
        {{range .Items}}
        <tr>
          <td>
            <div>{{.Title}}</div>
            {{if .Staff}}<div class="sub">{{.Staff}}</div>{{end}}
          </td>
          <td class="right">{{.Quantity}}</td>
          <td class="right">{{formatMoney .Price $.Branding.Currency}}</td>
          <td class="right">{{formatMoney .Total $.Branding.Currency}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>

    <div class="totals">
      <div class="row"><span>Subtotal</span><span>{{formatMoney .Invoice.Subtotal .Branding.Currency}}</span></div>
      {{if gt .Invoice.DiscountAmount 0.0}}
      <div class="row"><span>Discount</span><span>-{{formatMoney .Invoice.DiscountAmount .Branding.Currency}}</span></div>
      {{end}}
      {{if .Invoice.TaxComponents}}
        {{range .Invoice.TaxComponents}}
        <div class="row"><span>{{.Name}} ({{.Rate}}%)</span><span>{{formatMoney .Amount $.Branding.Currency}}</span></div>
        {{end}}
      {{else if gt .Invoice.TaxAmount 0.0}}
      <div class="row"><span>Tax ({{.Invoice.TaxRate}}%)</span><span>{{formatMoney .Invoice.TaxAmount .Branding.Currency}}</span></div>
      {{end}}
      {{if gt .Invoice.TipAmount 0.0}}
      <div class="row"><span>Tip</span><span>{{formatMoney .Invoice.TipAmount .Branding.Currency}}</span></div>
      {{end}}
      <div class="row final"><span>Total</span><span>{{formatMoney .Invoice.Total .Branding.Currency}}</span></div>
    </div>

    {{if or .Invoice.Notes .Branding.FooterNotes}}
    <div class="footer">
      {{.Invoice.Notes}}
      {{if .Branding.FooterNotes}}<br><br>{{.Branding.FooterNotes}}{{end}}
    </div>
    {{end}}
  </div>
</body>
</html>
`

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type Branding struct {
	ShopName     string
	Currency     string
	PrimaryColor string
	FooterNotes  string
}

// BrandingFrom reads receipt branding off the invoicing policy.
func BrandingFrom(cfg config.InvoicingConfig) Branding {
	return Branding{
		ShopName:     cfg.ShopName,
		Currency:     cfg.Currency,
		PrimaryColor: cfg.PrimaryColor,
		FooterNotes:  cfg.FooterNotes,
	}
}

type receiptItem struct {
	Title    string
	Staff    string
	Quantity int
	Price    float64
	Total    float64
}

type receiptView struct {
	Invoice  *invoicedomain.InvoiceResponse
	Branding Branding
	Items    []receiptItem
}

type Renderer interface {
	RenderHTML(invoice *invoicedomain.InvoiceResponse, branding Branding) (string, error)
}

type HTMLRenderer struct {
	tpl *template.Template
}

func NewRenderer() Renderer {
	funcs := template.FuncMap{
		"formatMoney": formatMoney,
		"formatDate":  formatDate,
	}
	return &HTMLRenderer{
		tpl: template.Must(template.New("receipt").Funcs(funcs).Parse(receiptHTMLTemplate)),
	}
}

func (r *HTMLRenderer) RenderHTML(invoice *invoicedomain.InvoiceResponse, branding Branding) (string, error) {
	branding.PrimaryColor = sanitizeColor(branding.PrimaryColor)
	if strings.TrimSpace(branding.ShopName) == "" {
		branding.ShopName = "Receipt"
	}

	view := receiptView{Invoice: invoice, Branding: branding}
	for _, line := range invoice.InvoiceServices {
		view.Items = append(view.Items, receiptItem{
			Title:    line.ServiceName,
			Staff:    line.StaffName,
			Quantity: line.Quantity,
			Price:    line.Price,
			Total:    line.Total,
		})
	}
	for _, line := range invoice.InvoiceProducts {
		view.Items = append(view.Items, receiptItem{
			Title:    line.ProductName,
			Staff:    line.StaffName,
			Quantity: line.Quantity,
			Price:    line.Price,
			Total:    line.Total,
		})
	}

	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func formatMoney(amount float64, currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "USD"
	}
	return currency + " " + money.Format(amount)
}

func formatDate(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return value.UTC().Format("2006-01-02")
}

func sanitizeColor(value string) string {
	trimmed := strings.TrimSpace(value)
	if hexColorPattern.MatchString(trimmed) {
		return trimmed
	}
	return "#111827"
}
