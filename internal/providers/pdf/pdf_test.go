package pdf

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	invoicedomain "github.com/smallbiznis/barberdesk/internal/invoice/domain"
	"github.com/smallbiznis/barberdesk/internal/invoice/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInvoice(status string) *invoicedomain.InvoiceResponse {
	return &invoicedomain.InvoiceResponse{
		ID:             "INV-7K2M9QXA",
		CustomerName:   "Dana Reyes",
		Date:           time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		Subtotal:       60,
		DiscountAmount: 5,
		TaxableBase:    55,
		TaxComponents: []invoicedomain.TaxComponentResponse{
			{Name: "State", Rate: 6, Amount: 3.3},
		},
		TaxAmount:     3.3,
		TipAmount:     8,
		Total:         66.3,
		PaymentMethod: "cash",
		Status:        status,
		StaffName:     "Ana, Ben",
		InvoiceServices: []invoicedomain.ServiceLineResponse{
			{ServiceName: "Skin Fade", StaffName: "Ana", Price: 35, Quantity: 1, Total: 35, TipAmount: 8},
		},
		InvoiceProducts: []invoicedomain.ProductLineResponse{
			{ProductName: "Matte Clay", StaffName: "Ben", Price: 12.5, Quantity: 2, Total: 25},
		},
	}
}

func readAll(t *testing.T, r io.Reader) []byte {
	t.Helper()
	require.NotNil(t, r)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return data
}

func TestGenerateReceiptProducesPDF(t *testing.T) {
	r, err := New().GenerateReceipt(context.Background(), sampleInvoice("paid"), render.Branding{ShopName: "Fade Street", Currency: "usd"})
	require.NoError(t, err)

	data := readAll(t, r)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestGeneratePicksDocumentByStatus(t *testing.T) {
	provider := New()
	ctx := context.Background()

	paid, err := Generate(ctx, provider, sampleInvoice("paid"), render.Branding{})
	require.NoError(t, err)
	pending, err := Generate(ctx, provider, sampleInvoice("pending"), render.Branding{})
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(readAll(t, paid), []byte("%PDF")))
	assert.True(t, bytes.HasPrefix(readAll(t, pending), []byte("%PDF")))
}

func TestGenerateRejectsNilInvoice(t *testing.T) {
	_, err := New().GenerateInvoice(context.Background(), nil, render.Branding{})
	assert.ErrorIs(t, err, errNilInvoice)
}

func TestAmountFormatting(t *testing.T) {
	assert.Equal(t, "USD 12.50", amount(12.5, render.Branding{}))
	assert.Equal(t, "-IDR 5.00", amount(-5, render.Branding{Currency: "idr"}))
	assert.Equal(t, "8.25", trimRate(8.25))
	assert.Equal(t, "6", trimRate(6))
}
