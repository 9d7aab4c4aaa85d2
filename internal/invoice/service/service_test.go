package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/smallbiznis/barberdesk/internal/audit/domain"
	auditrepository "github.com/smallbiznis/barberdesk/internal/audit/repository"
	auditservice "github.com/smallbiznis/barberdesk/internal/audit/service"
	"github.com/smallbiznis/barberdesk/internal/clock"
	"github.com/smallbiznis/barberdesk/internal/config"
	customerdomain "github.com/smallbiznis/barberdesk/internal/customer/domain"
	customerrepository "github.com/smallbiznis/barberdesk/internal/customer/repository"
	"github.com/smallbiznis/barberdesk/internal/events"
	invoicedomain "github.com/smallbiznis/barberdesk/internal/invoice/domain"
	"github.com/smallbiznis/barberdesk/internal/invoice/repository"
	"github.com/smallbiznis/barberdesk/internal/observability/metrics"
	productdomain "github.com/smallbiznis/barberdesk/internal/product/domain"
	productrepository "github.com/smallbiznis/barberdesk/internal/product/repository"
	salondomain "github.com/smallbiznis/barberdesk/internal/salonservice/domain"
	staffdomain "github.com/smallbiznis/barberdesk/internal/staff/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

type recordingPublisher struct {
	events []events.InvoiceEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event events.InvoiceEvent) error {
	p.events = append(p.events, event)
	return nil
}

type fixture struct {
	svc       *Service
	db        *gorm.DB
	node      *snowflake.Node
	publisher *recordingPublisher
}

func setup(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:invoice_%d?mode=memory&cache=shared", dbSeq.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, conn.AutoMigrate(
		&customerdomain.Customer{},
		&productdomain.Product{},
		&staffdomain.Staff{},
		&salondomain.SalonService{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceServiceLine{},
		&invoicedomain.InvoiceProductLine{},
		&invoicedomain.TaxComponent{},
		&auditdomain.AuditLog{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zaptest.NewLogger(t)
	publisher := &recordingPublisher{}

	svc := NewService(Params{
		DB:           conn,
		Log:          log,
		GenID:        node,
		Clock:        clock.NewFakeClock(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)),
		Repo:         repository.Provide(),
		CustomerRepo: customerrepository.Provide(),
		ProductRepo:  productrepository.Provide(),
		AuditSvc: auditservice.NewService(auditservice.Params{
			DB:    conn,
			Log:   log,
			GenID: node,
			Repo:  auditrepository.Provide(),
		}),
		InvoicingCfg: config.NewStaticInvoicingConfigHolder(config.DefaultInvoicingConfig()),
		Publisher:    publisher,
		Metrics:      metrics.NewNoop(),
	}).(*Service)

	return &fixture{svc: svc, db: conn, node: node, publisher: publisher}
}

func (f *fixture) staff(t *testing.T, name string, commission float64) string {
	t.Helper()
	item := &staffdomain.Staff{ID: f.node.Generate(), Name: name, CommissionPercentage: commission, Active: true}
	require.NoError(t, f.db.Create(item).Error)
	return item.ID.String()
}

func (f *fixture) service(t *testing.T, name string, price float64, tipEligible bool) string {
	t.Helper()
	item := &salondomain.SalonService{
		ID:             f.node.Generate(),
		Code:           name,
		Name:           name,
		Price:          price,
		CommissionRate: 40,
		IsTipEligible:  true,
		Active:         true,
	}
	require.NoError(t, f.db.Create(item).Error)
	if !tipEligible {
		require.NoError(t, f.db.Model(item).Update("is_tip_eligible", false).Error)
	}
	return item.ID.String()
}

func (f *fixture) product(t *testing.T, sku string, price float64, stock int) string {
	t.Helper()
	item := &productdomain.Product{ID: f.node.Generate(), SKU: sku, Name: sku, Price: price, Stock: stock, CommissionRate: 10, Active: true}
	require.NoError(t, f.db.Create(item).Error)
	return item.ID.String()
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	var product productdomain.Product
	require.NoError(t, f.db.Where("id = ?", id).First(&product).Error)
	return product.Stock
}

func (f *fixture) customer(t *testing.T, phone string) customerdomain.Customer {
	t.Helper()
	var customer customerdomain.Customer
	require.NoError(t, f.db.Where("phone = ?", phone).First(&customer).Error)
	return customer
}

func ptr(v float64) *float64 { return &v }

func newCustomerRequest() invoicedomain.CreateInvoiceRequest {
	return invoicedomain.CreateInvoiceRequest{
		IsNewCustomer:   true,
		CustomerDetails: &invoicedomain.CustomerDetails{Name: "Dana Reyes", Phone: "+1 (555) 010-2030"},
		Date:            "2026-03-14",
		PaymentMethod:   "card",
	}
}

func serviceLine(serviceID, staffID string) invoicedomain.ServiceLineInput {
	return invoicedomain.ServiceLineInput{
		ServiceID: invoicedomain.FlexibleID(serviceID),
		StaffID:   invoicedomain.FlexibleID(staffID),
		Quantity:  1,
	}
}

func tips(resp *invoicedomain.InvoiceResponse) []float64 {
	out := make([]float64, 0, len(resp.InvoiceServices))
	for _, line := range resp.InvoiceServices {
		out = append(out, line.TipAmount)
	}
	return out
}

func assertReconciles(t *testing.T, resp *invoicedomain.InvoiceResponse) {
	t.Helper()
	var tipSum float64
	for _, line := range resp.InvoiceServices {
		tipSum += line.TipAmount
	}
	expected := resp.TaxableBase + resp.TaxAmount + tipSum
	assert.InDelta(t, expected, resp.Total, 0.0001)
}

func TestCreateSingleStaffTipSplitsAcrossAllLines(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	ana := f.staff(t, "Ana", 0)
	cut := f.service(t, "cut", 25, true)
	beard := f.service(t, "beard", 25, false)
	wash := f.service(t, "wash", 25, true)

	req := newCustomerRequest()
	req.InvoiceServices = []invoicedomain.ServiceLineInput{
		serviceLine(cut, ana),
		serviceLine(beard, ana),
		serviceLine(wash, ana),
	}
	req.Tax = ptr(10)
	req.TipAmount = ptr(10)

	resp, err := f.svc.Create(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, 75.0, resp.Subtotal)
	assert.Equal(t, 7.5, resp.TaxAmount)
	assert.Equal(t, []float64{3.33, 3.33, 3.34}, tips(resp))
	assert.Equal(t, 10.0, resp.TipAmount)
	assert.Equal(t, 92.5, resp.Total)
	assert.Equal(t, "Ana", resp.StaffName)
	assert.Equal(t, "paid", resp.Status)
	assert.Len(t, resp.Services, 3)
	assertReconciles(t, resp)

	customer := f.customer(t, "+15550102030")
	assert.Equal(t, "Dana Reyes", customer.Name)
	assert.Equal(t, 92.5, customer.TotalSpent)
	assert.Equal(t, 1, customer.VisitCount)
	require.NotNil(t, customer.LastVisit)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, events.EventTypeInvoiceCreated, f.publisher.events[0].Type)
	assert.Equal(t, resp.ID, f.publisher.events[0].InvoiceID)

	var audits []auditdomain.AuditLog
	require.NoError(t, f.db.Find(&audits).Error)
	require.Len(t, audits, 1)
	assert.Equal(t, auditdomain.ActionInvoiceCreated, audits[0].Action)
}

func TestCreateMultiStaffTipIsEqualPerStaffThenProportional(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	ana := f.staff(t, "Ana", 0)
	ben := f.staff(t, "Ben", 0)
	svc := f.service(t, "cut", 0, true)

	req := newCustomerRequest()
	req.InvoiceServices = []invoicedomain.ServiceLineInput{
		{ServiceID: invoicedomain.FlexibleID(svc), StaffID: invoicedomain.FlexibleID(ana), Price: ptr(20)},
		{ServiceID: invoicedomain.FlexibleID(svc), StaffID: invoicedomain.FlexibleID(ben), Price: ptr(10)},
		{ServiceID: invoicedomain.FlexibleID(svc), StaffID: invoicedomain.FlexibleID(ben), Price: ptr(30)},
	}
	req.TipAmount = ptr(10)

	resp, err := f.svc.Create(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, []float64{5, 1.25, 3.75}, tips(resp))
	assert.Equal(t, "Ana, Ben", resp.StaffName)
	assert.Equal(t, 70.0, resp.Total)
	assertReconciles(t, resp)
}

func TestCreateMultiStaffSkipsIneligibleStaff(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	ana := f.staff(t, "Ana", 0)
	cleo := f.staff(t, "Cleo", 0)
	cut := f.service(t, "cut", 30, true)
	color := f.service(t, "color", 50, false)

	req := newCustomerRequest()
	req.InvoiceServices = []invoicedomain.ServiceLineInput{
		serviceLine(cut, ana),
		serviceLine(color, cleo),
	}
	req.TipAmount = ptr(12)

	resp, err := f.svc.Create(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, []float64{12, 0}, tips(resp))
	assertReconciles(t, resp)
}

func TestCreateResolvesCommissionAndLineTotals(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	ana := f.staff(t, "Ana", 50)
	cut := f.service(t, "cut", 25, true)
	clay := f.product(t, "CLAY", 12.5, 10)

	req := newCustomerRequest()
	req.Services = []invoicedomain.ServiceLineInput{
		{ServiceID: invoicedomain.FlexibleID(cut), Quantity: 2},
	}
	req.Products = []invoicedomain.ProductLineInput{
		{ProductID: invoicedomain.FlexibleID(clay), StaffID: invoicedomain.FlexibleID(ana), Quantity: 3, Total: ptr(30)},
	}

	resp, err := f.svc.Create(ctx, req)
	require.NoError(t, err)

	require.Len(t, resp.InvoiceServices, 1)
	svcLine := resp.InvoiceServices[0]
	assert.Equal(t, 50.0, svcLine.Total)
	assert.Equal(t, 40.0, svcLine.CommissionRate)
	assert.Equal(t, 20.0, svcLine.CommissionAmount)
	assert.Nil(t, svcLine.StaffID)

	require.Len(t, resp.InvoiceProducts, 1)
	productLine := resp.InvoiceProducts[0]
	assert.Equal(t, 30.0, productLine.Total)
	assert.Equal(t, 50.0, productLine.CommissionRate)
	assert.Equal(t, 15.0, productLine.CommissionAmount)

	assert.Equal(t, 80.0, resp.Subtotal)
	assert.Equal(t, 7, f.stock(t, clay))
}

func TestCreateRejectsInsufficientStockWithoutWriting(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	clay := f.product(t, "CLAY", 12.5, 3)

	req := newCustomerRequest()
	req.InvoiceProducts = []invoicedomain.ProductLineInput{
		{ProductID: invoicedomain.FlexibleID(clay), Quantity: 2},
		{ProductID: invoicedomain.FlexibleID(clay), Quantity: 2},
	}

	_, err := f.svc.Create(ctx, req)
	var stockErr *invoicedomain.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 3, stockErr.Available)
	assert.Equal(t, 4, stockErr.Requested)
	assert.Equal(t, "CLAY", stockErr.ProductName)

	var invoices, customers int64
	require.NoError(t, f.db.Model(&invoicedomain.Invoice{}).Count(&invoices).Error)
	require.NoError(t, f.db.Model(&customerdomain.Customer{}).Count(&customers).Error)
	assert.Zero(t, invoices)
	assert.Zero(t, customers)
	assert.Equal(t, 3, f.stock(t, clay))
	assert.Empty(t, f.publisher.events)
}

func TestCreateValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cut := f.service(t, "cut", 25, true)

	_, err := f.svc.Create(ctx, invoicedomain.CreateInvoiceRequest{})
	var validation *invoicedomain.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.ElementsMatch(t, []string{"date", "payment_method", "customer_id"}, validation.Fields)

	req := newCustomerRequest()
	_, err = f.svc.Create(ctx, req)
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Message, "at least one")

	req.InvoiceServices = []invoicedomain.ServiceLineInput{serviceLine(cut, "")}
	req.PaymentMethod = "barter"
	_, err = f.svc.Create(ctx, req)
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, []string{"payment_method"}, validation.Fields)

	req.PaymentMethod = "cash"
	req.InvoiceServices = []invoicedomain.ServiceLineInput{serviceLine("999", "")}
	_, err = f.svc.Create(ctx, req)
	var missing *invoicedomain.ReferenceNotFoundError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "service", missing.Entity)

	req.InvoiceServices = []invoicedomain.ServiceLineInput{{ServiceID: invoicedomain.FlexibleID(cut), Quantity: -1}}
	_, err = f.svc.Create(ctx, req)
	require.ErrorAs(t, err, &validation)
}

func TestCreateReusesCustomerByPhone(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cut := f.service(t, "cut", 25, true)

	req := newCustomerRequest()
	req.InvoiceServices = []invoicedomain.ServiceLineInput{serviceLine(cut, "")}
	first, err := f.svc.Create(ctx, req)
	require.NoError(t, err)

	req.CustomerDetails.Phone = "+1 555 010 2030"
	second, err := f.svc.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.CustomerID, second.CustomerID)

	customer := f.customer(t, "+15550102030")
	assert.Equal(t, 2, customer.VisitCount)
	assert.Equal(t, 50.0, customer.TotalSpent)
}

func TestDiscountLargerThanSubtotalClampsToTipOnly(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ana := f.staff(t, "Ana", 0)
	cut := f.service(t, "cut", 20, true)

	req := newCustomerRequest()
	req.InvoiceServices = []invoicedomain.ServiceLineInput{serviceLine(cut, ana)}
	req.DiscountType = "fixed"
	req.DiscountValue = ptr(50)
	req.Tax = ptr(10)
	req.TipAmount = ptr(4)

	resp, err := f.svc.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 50.0, resp.DiscountAmount)
	assert.Equal(t, 0.0, resp.TaxableBase)
	assert.Equal(t, 0.0, resp.TaxAmount)
	assert.Equal(t, 4.0, resp.Total)
	assertReconciles(t, resp)
}

func TestTaxComponentsOverrideFlatRate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cut := f.service(t, "cut", 100, true)

	req := newCustomerRequest()
	req.InvoiceServices = []invoicedomain.ServiceLineInput{serviceLine(cut, "")}
	req.Tax = ptr(50)
	req.TaxComponents = []invoicedomain.TaxComponentInput{
		{Name: "State", Rate: 6},
		{Name: "City", Rate: 2.5, Amount: ptr(3)},
	}

	resp, err := f.svc.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 9.0, resp.TaxAmount)
	assert.Equal(t, 109.0, resp.Total)
	require.Len(t, resp.TaxComponents, 2)
	assert.Equal(t, 6.0, resp.TaxComponents[0].Amount)
	assert.Equal(t, 3.0, resp.TaxComponents[1].Amount)
}

func TestUpdateRecomputesStickyComponentRates(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cut := f.service(t, "cut", 100, true)

	req := newCustomerRequest()
	req.InvoiceServices = []invoicedomain.ServiceLineInput{serviceLine(cut, "")}
	req.TaxComponents = []invoicedomain.TaxComponentInput{
		{Name: "State", Rate: 6, Amount: ptr(6)},
		{Name: "City", Rate: 2.5},
	}
	created, err := f.svc.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 8.5, created.TaxAmount)

	discountType := "fixed"
	updated, err := f.svc.Update(ctx, created.ID, invoicedomain.UpdateInvoiceRequest{
		DiscountType:  &discountType,
		DiscountValue: ptr(20),
	})
	require.NoError(t, err)

	assert.Equal(t, 80.0, updated.TaxableBase)
	require.Len(t, updated.TaxComponents, 2)
	assert.Equal(t, 4.8, updated.TaxComponents[0].Amount)
	assert.Equal(t, 2.0, updated.TaxComponents[1].Amount)
	assert.Equal(t, 6.8, updated.TaxAmount)
	assert.Equal(t, 86.8, updated.Total)
	assertReconciles(t, updated)

	customer := f.customer(t, "+15550102030")
	assert.InDelta(t, 86.8, customer.TotalSpent, 0.001)
}

func TestUpdateWithoutTipIsIdempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ana := f.staff(t, "Ana", 0)
	cut := f.service(t, "cut", 25, true)

	req := newCustomerRequest()
	req.InvoiceServices = []invoicedomain.ServiceLineInput{
		serviceLine(cut, ana),
		serviceLine(cut, ana),
		serviceLine(cut, ana),
	}
	req.TipAmount = ptr(10)
	created, err := f.svc.Create(ctx, req)
	require.NoError(t, err)

	notes := "walk-in"
	for i := 0; i < 2; i++ {
		updated, err := f.svc.Update(ctx, created.ID, invoicedomain.UpdateInvoiceRequest{Notes: &notes})
		require.NoError(t, err)
		assert.Equal(t, []float64{3.33, 3.33, 3.34}, tips(updated))
		assert.Equal(t, created.Total, updated.Total)
		assert.Equal(t, "walk-in", updated.Notes)
	}

	updated, err := f.svc.Update(ctx, created.ID, invoicedomain.UpdateInvoiceRequest{TipAmount: ptr(6)})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 2, 2}, tips(updated))
	assert.Equal(t, 81.0, updated.Total)
	assertReconciles(t, updated)

	customer := f.customer(t, "+15550102030")
	assert.InDelta(t, 81.0, customer.TotalSpent, 0.001)
}

func TestUpdateReplacingServicesReallocatesPersistedTip(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ana := f.staff(t, "Ana", 0)
	cut := f.service(t, "cut", 25, true)

	req := newCustomerRequest()
	req.InvoiceServices = []invoicedomain.ServiceLineInput{serviceLine(cut, ana)}
	req.TipAmount = ptr(9)
	created, err := f.svc.Create(ctx, req)
	require.NoError(t, err)

	lines := []invoicedomain.ServiceLineInput{serviceLine(cut, ana), serviceLine(cut, ana)}
	updated, err := f.svc.Update(ctx, created.ID, invoicedomain.UpdateInvoiceRequest{InvoiceServices: &lines})
	require.NoError(t, err)

	assert.Equal(t, []float64{4.5, 4.5}, tips(updated))
	assert.Equal(t, 50.0, updated.Subtotal)
	assert.Equal(t, 59.0, updated.Total)
	assertReconciles(t, updated)

	var count int64
	require.NoError(t, f.db.Model(&invoicedomain.InvoiceServiceLine{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestUpdateNotesKeepsPerLineTips(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ana := f.staff(t, "Ana", 0)
	ben := f.staff(t, "Ben", 0)
	color := f.service(t, "color", 20, false)

	anaLine := serviceLine(color, ana)
	anaLine.TipAmount = ptr(5)
	benLine := serviceLine(color, ben)
	benLine.TipAmount = ptr(3)

	req := newCustomerRequest()
	req.InvoiceServices = []invoicedomain.ServiceLineInput{anaLine, benLine}
	created, err := f.svc.Create(ctx, req)
	require.NoError(t, err)
	require.Equal(t, []float64{5, 3}, tips(created))
	require.Equal(t, 48.0, created.Total)

	notes := "regular"
	for i := 0; i < 2; i++ {
		updated, err := f.svc.Update(ctx, created.ID, invoicedomain.UpdateInvoiceRequest{Notes: &notes})
		require.NoError(t, err)
		assert.Equal(t, []float64{5, 3}, tips(updated))
		assert.Equal(t, 8.0, updated.TipAmount)
		assert.Equal(t, 48.0, updated.Total)
		assertReconciles(t, updated)
	}

	customer := f.customer(t, "+15550102030")
	assert.InDelta(t, 48.0, customer.TotalSpent, 0.001)
}

func TestUpdateNotesKeepsUnevenSingleStaffTips(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ana := f.staff(t, "Ana", 0)
	cut := f.service(t, "cut", 25, true)

	first := serviceLine(cut, ana)
	first.TipAmount = ptr(5)

	req := newCustomerRequest()
	req.InvoiceServices = []invoicedomain.ServiceLineInput{first, serviceLine(cut, ana)}
	created, err := f.svc.Create(ctx, req)
	require.NoError(t, err)
	require.Equal(t, []float64{5, 0}, tips(created))

	notes := "paid in cash"
	updated, err := f.svc.Update(ctx, created.ID, invoicedomain.UpdateInvoiceRequest{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 0}, tips(updated))
	assert.Equal(t, created.Total, updated.Total)
}

func TestUpdateExplicitTipOverridesReplacedLineTips(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ana := f.staff(t, "Ana", 0)
	cut := f.service(t, "cut", 25, true)

	req := newCustomerRequest()
	req.InvoiceServices = []invoicedomain.ServiceLineInput{serviceLine(cut, ana)}
	req.TipAmount = ptr(4)
	created, err := f.svc.Create(ctx, req)
	require.NoError(t, err)

	tipped := serviceLine(cut, ana)
	tipped.TipAmount = ptr(2)
	lines := []invoicedomain.ServiceLineInput{tipped, serviceLine(cut, ana)}
	updated, err := f.svc.Update(ctx, created.ID, invoicedomain.UpdateInvoiceRequest{
		InvoiceServices: &lines,
		TipAmount:       ptr(10),
	})
	require.NoError(t, err)

	assert.Equal(t, []float64{5, 5}, tips(updated))
	assert.Equal(t, 10.0, updated.TipAmount)
	assert.Equal(t, 60.0, updated.Total)
	assertReconciles(t, updated)
}

func TestUpdateProductReplacementRestoresStock(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	clay := f.product(t, "CLAY", 10, 5)
	wax := f.product(t, "WAX", 8, 2)

	req := newCustomerRequest()
	req.InvoiceProducts = []invoicedomain.ProductLineInput{{ProductID: invoicedomain.FlexibleID(clay), Quantity: 2}}
	created, err := f.svc.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 3, f.stock(t, clay))

	lines := []invoicedomain.ProductLineInput{{ProductID: invoicedomain.FlexibleID(clay), Quantity: 5}}
	updated, err := f.svc.Update(ctx, created.ID, invoicedomain.UpdateInvoiceRequest{InvoiceProducts: &lines})
	require.NoError(t, err)
	assert.Equal(t, 0, f.stock(t, clay))
	assert.Equal(t, 50.0, updated.Total)

	tooMany := []invoicedomain.ProductLineInput{
		{ProductID: invoicedomain.FlexibleID(clay), Quantity: 1},
		{ProductID: invoicedomain.FlexibleID(wax), Quantity: 3},
	}
	_, err = f.svc.Update(ctx, created.ID, invoicedomain.UpdateInvoiceRequest{InvoiceProducts: &tooMany})
	var stockErr *invoicedomain.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "WAX", stockErr.ProductName)

	assert.Equal(t, 0, f.stock(t, clay))
	assert.Equal(t, 2, f.stock(t, wax))
	got, err := f.svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, got.InvoiceProducts, 1)
	assert.Equal(t, 5, got.InvoiceProducts[0].Quantity)
}

func TestUpdateRejectsUnknownInvoiceAndBadHeader(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cut := f.service(t, "cut", 25, true)

	_, err := f.svc.Update(ctx, "INV-MISSING0", invoicedomain.UpdateInvoiceRequest{})
	assert.ErrorIs(t, err, invoicedomain.ErrNotFound)

	req := newCustomerRequest()
	req.InvoiceServices = []invoicedomain.ServiceLineInput{serviceLine(cut, "")}
	created, err := f.svc.Create(ctx, req)
	require.NoError(t, err)

	status := "refunded"
	_, err = f.svc.Update(ctx, created.ID, invoicedomain.UpdateInvoiceRequest{Status: &status})
	var validation *invoicedomain.ValidationError
	require.ErrorAs(t, err, &validation)

	status = "cancelled"
	updated, err := f.svc.Update(ctx, created.ID, invoicedomain.UpdateInvoiceRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", updated.Status)
}

func TestListFiltersByStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cut := f.service(t, "cut", 25, true)

	for _, status := range []string{"paid", "pending", "paid"} {
		req := newCustomerRequest()
		req.Status = status
		req.InvoiceServices = []invoicedomain.ServiceLineInput{serviceLine(cut, "")}
		_, err := f.svc.Create(ctx, req)
		require.NoError(t, err)
	}

	resp, err := f.svc.List(ctx, invoicedomain.ListInvoiceRequest{Status: "paid"})
	require.NoError(t, err)
	assert.Len(t, resp.Invoices, 2)
	for _, inv := range resp.Invoices {
		assert.Equal(t, "paid", inv.Status)
		assert.Len(t, inv.InvoiceServices, 1)
	}

	_, err = f.svc.List(ctx, invoicedomain.ListInvoiceRequest{Status: "draft"})
	var validation *invoicedomain.ValidationError
	assert.ErrorAs(t, err, &validation)

	_, err = f.svc.GetByID(ctx, "INV-NOPE0000")
	assert.ErrorIs(t, err, invoicedomain.ErrNotFound)
}
