package render

import (
	"testing"
	"time"

	invoicedomain "github.com/smallbiznis/barberdesk/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInvoice() *invoicedomain.InvoiceResponse {
	return &invoicedomain.InvoiceResponse{
		ID:            "INV-7K2M9QXA",
		CustomerName:  "Dana Reyes",
		Date:          time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		Subtotal:      60,
		TaxRate:       10,
		TaxAmount:     6,
		TipAmount:     5,
		Total:         71,
		PaymentMethod: "card",
		Status:        "paid",
		StaffName:     "Ana",
		InvoiceServices: []invoicedomain.ServiceLineResponse{
			{ServiceName: "Skin Fade", StaffName: "Ana", Price: 35, Quantity: 1, Total: 35},
		},
		InvoiceProducts: []invoicedomain.ProductLineResponse{
			{ProductName: "Matte Clay <b>", Price: 12.5, Quantity: 2, Total: 25},
		},
	}
}

func TestRenderHTMLIncludesLinesAndTotals(t *testing.T) {
	html, err := NewRenderer().RenderHTML(sampleInvoice(), Branding{ShopName: "Fade Street", Currency: "usd"})
	require.NoError(t, err)

	assert.Contains(t, html, "Fade Street")
	assert.Contains(t, html, "INV-7K2M9QXA")
	assert.Contains(t, html, "Skin Fade")
	assert.Contains(t, html, "USD 12.50")
	assert.Contains(t, html, "USD 71.00")
	assert.Contains(t, html, "2026-03-14")
	assert.Contains(t, html, "Tip")
	assert.Contains(t, html, "Matte Clay &lt;b&gt;")
}

func TestRenderHTMLSanitizesColor(t *testing.T) {
	html, err := NewRenderer().RenderHTML(sampleInvoice(), Branding{PrimaryColor: "red;}</style>"})
	require.NoError(t, err)

	assert.Contains(t, html, "--primary: #111827")
	assert.Contains(t, html, "<h1>Receipt</h1>")
}

func TestRenderHTMLListsTaxComponents(t *testing.T) {
	inv := sampleInvoice()
	inv.TaxComponents = []invoicedomain.TaxComponentResponse{{Name: "State", Rate: 6, Amount: 3.6}}

	html, err := NewRenderer().RenderHTML(inv, Branding{})
	require.NoError(t, err)
	assert.Contains(t, html, "State (6%)")
	assert.Contains(t, html, "USD 3.60")
}
