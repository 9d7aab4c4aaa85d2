package receipt

import (
	"context"
	"testing"

	auditdomain "github.com/smallbiznis/barberdesk/internal/audit/domain"
	"github.com/smallbiznis/barberdesk/internal/config"
	customerdomain "github.com/smallbiznis/barberdesk/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/barberdesk/internal/invoice/domain"
	"github.com/smallbiznis/barberdesk/internal/invoice/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type invoiceServiceMock struct {
	mock.Mock
	invoicedomain.Service
}

func (m *invoiceServiceMock) GetByID(ctx context.Context, id string) (*invoicedomain.InvoiceResponse, error) {
	args := m.Called(ctx, id)
	resp, _ := args.Get(0).(*invoicedomain.InvoiceResponse)
	return resp, args.Error(1)
}

type customerServiceMock struct {
	mock.Mock
	customerdomain.Service
}

func (m *customerServiceMock) GetByID(ctx context.Context, id string) (customerdomain.Customer, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(customerdomain.Customer), args.Error(1)
}

type auditMock struct {
	mock.Mock
	auditdomain.Service
}

func (m *auditMock) AuditLog(ctx context.Context, actorType string, actorID *string, action string, targetType string, targetID *string, metadata map[string]any) error {
	args := m.Called(ctx, action, targetType, *targetID, metadata)
	return args.Error(0)
}

type emailMock struct {
	mock.Mock
}

func (m *emailMock) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	args := m.Called(ctx, to, subject, htmlBody)
	return args.Error(0)
}

func newSender(invoices *invoiceServiceMock, customers *customerServiceMock, mailer *emailMock) *Sender {
	return NewSender(Params{
		Log:          zap.NewNop(),
		Invoices:     invoices,
		Customers:    customers,
		Renderer:     render.NewRenderer(),
		Email:        mailer,
		InvoicingCfg: config.NewStaticInvoicingConfigHolder(config.DefaultInvoicingConfig()),
	})
}

func TestSendFallsBackToCustomerEmail(t *testing.T) {
	ctx := context.Background()
	invoices := &invoiceServiceMock{}
	customers := &customerServiceMock{}
	mailer := &emailMock{}

	invoices.On("GetByID", ctx, "INV-AAAA1111").Return(&invoicedomain.InvoiceResponse{
		ID:           "INV-AAAA1111",
		CustomerID:   "42",
		CustomerName: "Dana",
		Total:        40,
		Status:       "paid",
	}, nil)
	customers.On("GetByID", ctx, "42").Return(customerdomain.Customer{Email: "dana@example.com"}, nil)
	mailer.On("Send", ctx, []string{"dana@example.com"}, "Barberdesk: receipt INV-AAAA1111", mock.MatchedBy(func(body string) bool {
		return assert.Contains(t, body, "USD 40.00")
	})).Return(nil)

	to, err := newSender(invoices, customers, mailer).Send(ctx, "INV-AAAA1111", "")
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", to)
	mailer.AssertExpectations(t)
}

func TestSendRejectsMissingRecipient(t *testing.T) {
	ctx := context.Background()
	invoices := &invoiceServiceMock{}
	customers := &customerServiceMock{}

	invoices.On("GetByID", ctx, "INV-AAAA1111").Return(&invoicedomain.InvoiceResponse{ID: "INV-AAAA1111", CustomerID: "42"}, nil)
	customers.On("GetByID", ctx, "42").Return(customerdomain.Customer{}, nil)

	_, err := newSender(invoices, customers, &emailMock{}).Send(ctx, "INV-AAAA1111", "")
	assert.ErrorIs(t, err, ErrNoRecipient)

	_, err = newSender(invoices, customers, &emailMock{}).Send(ctx, "INV-AAAA1111", "not-an-address")
	assert.ErrorIs(t, err, ErrInvalidRecipient)
}

func TestSendPropagatesMissingInvoice(t *testing.T) {
	ctx := context.Background()
	invoices := &invoiceServiceMock{}
	invoices.On("GetByID", ctx, "INV-NOPE").Return(nil, invoicedomain.ErrNotFound)

	_, err := newSender(invoices, &customerServiceMock{}, &emailMock{}).Send(ctx, "INV-NOPE", "x@example.com")
	assert.ErrorIs(t, err, invoicedomain.ErrNotFound)
}

func TestSendAuditsDelivery(t *testing.T) {
	ctx := context.Background()
	invoices := &invoiceServiceMock{}
	mailer := &emailMock{}
	audits := &auditMock{}

	invoices.On("GetByID", ctx, "INV-BBBB2222").Return(&invoicedomain.InvoiceResponse{ID: "INV-BBBB2222", CustomerID: "42", Total: 12.5}, nil)
	mailer.On("Send", ctx, []string{"lee@example.com"}, mock.Anything, mock.Anything).Return(nil)
	audits.On("AuditLog", ctx, auditdomain.ActionReceiptEmailed, "invoice", "INV-BBBB2222",
		map[string]any{"email": "lee@example.com"}).Return(nil).Once()

	sender := newSender(invoices, &customerServiceMock{}, mailer)
	sender.auditSvc = audits

	to, err := sender.Send(ctx, "INV-BBBB2222", " lee@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "lee@example.com", to)
	audits.AssertExpectations(t)
}
