package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/barberdesk/internal/customer/domain"
	"github.com/smallbiznis/barberdesk/internal/customer/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

func setup(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:customer_%d?mode=memory&cache=shared", dbSeq.Add(1))), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, conn.AutoMigrate(&domain.Customer{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	svc := New(Params{DB: conn, Log: zap.NewNop(), GenID: node, Repo: repository.Provide()}).(*Service)
	return svc, conn
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+628115566", NormalizePhone(" +62 811-5566 "))
	assert.Equal(t, "0811", NormalizePhone("(0811)"))
	assert.Equal(t, "62", NormalizePhone("6+2"))
	assert.Equal(t, "", NormalizePhone("abc"))
}

func TestCreateCustomer(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, domain.CreateCustomerRequest{Name: "Rina", Phone: "0811 222 333", Email: "rina@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "0811222333", c.Phone)
	assert.Zero(t, c.TotalSpent)

	_, err = svc.Create(ctx, domain.CreateCustomerRequest{Name: "Other", Phone: "0811-222-333"})
	assert.ErrorIs(t, err, domain.ErrPhoneTaken)

	_, err = svc.Create(ctx, domain.CreateCustomerRequest{Name: "", Phone: "1"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
	_, err = svc.Create(ctx, domain.CreateCustomerRequest{Name: "x", Phone: "--"})
	assert.ErrorIs(t, err, domain.ErrInvalidPhone)
	_, err = svc.Create(ctx, domain.CreateCustomerRequest{Name: "x", Phone: "1", Email: "nope"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	got, err := svc.GetByID(ctx, c.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Rina", got.Name)
}

func TestRecordVisitAndAdjustSpent(t *testing.T) {
	svc, conn := setup(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, domain.CreateCustomerRequest{Name: "Dewi", Phone: "0812"})
	require.NoError(t, err)

	visit := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, svc.repo.RecordVisit(ctx, conn, c.ID, 150.25, visit))
	require.NoError(t, svc.repo.AdjustSpent(ctx, conn, c.ID, -50.25))

	got, err := svc.repo.FindByID(ctx, conn, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.InDelta(t, 100.0, got.TotalSpent, 1e-9)
	assert.Equal(t, 1, got.VisitCount)
	require.NotNil(t, got.LastVisit)
	assert.True(t, visit.Equal(got.LastVisit.UTC()))

	byPhone, err := svc.repo.FindByPhone(ctx, conn, "0812")
	require.NoError(t, err)
	require.NotNil(t, byPhone)
	assert.Equal(t, c.ID, byPhone.ID)

	missing, err := svc.repo.FindByPhone(ctx, conn, "0000")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListCustomers(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, domain.CreateCustomerRequest{Name: fmt.Sprintf("Guest %d", i), Phone: fmt.Sprintf("0800%d", i)})
		require.NoError(t, err)
	}

	resp, err := svc.List(ctx, domain.ListCustomerRequest{PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, resp.Customers, 2)
	assert.True(t, resp.HasMore)
	assert.NotEmpty(t, resp.NextPageToken)

	resp, err = svc.List(ctx, domain.ListCustomerRequest{Phone: "08001"})
	require.NoError(t, err)
	require.Len(t, resp.Customers, 1)
	assert.Equal(t, "Guest 1", resp.Customers[0].Name)
}

func TestUpdateCustomer(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	rina, err := svc.Create(ctx, domain.CreateCustomerRequest{Name: "Rina", Phone: "0811"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateCustomerRequest{Name: "Dewi", Phone: "0812"})
	require.NoError(t, err)

	email := " Rina <rina@example.com> "
	name := "Rina S"
	got, err := svc.Update(ctx, rina.ID.String(), domain.UpdateCustomerRequest{Name: &name, Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "Rina S", got.Name)
	assert.Equal(t, "rina@example.com", got.Email)
	assert.Equal(t, "0811", got.Phone)

	stored, err := svc.GetByID(ctx, rina.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Rina S", stored.Name)

	taken := "0812"
	_, err = svc.Update(ctx, rina.ID.String(), domain.UpdateCustomerRequest{Phone: &taken})
	assert.ErrorIs(t, err, domain.ErrPhoneTaken)

	same := "0811"
	_, err = svc.Update(ctx, rina.ID.String(), domain.UpdateCustomerRequest{Phone: &same})
	assert.NoError(t, err)

	_, err = svc.Update(ctx, rina.ID.String(), domain.UpdateCustomerRequest{})
	assert.ErrorIs(t, err, domain.ErrEmptyUpdate)

	blank := " "
	_, err = svc.Update(ctx, rina.ID.String(), domain.UpdateCustomerRequest{Name: &blank})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Update(ctx, "123", domain.UpdateCustomerRequest{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListCustomersByMinimumSpend(t *testing.T) {
	svc, conn := setup(t)
	ctx := context.Background()

	big, err := svc.Create(ctx, domain.CreateCustomerRequest{Name: "Regular", Phone: "0801"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateCustomerRequest{Name: "Walk-in", Phone: "0802"})
	require.NoError(t, err)
	require.NoError(t, svc.repo.RecordVisit(ctx, conn, big.ID, 320, time.Now().UTC()))

	floor := 100.0
	resp, err := svc.List(ctx, domain.ListCustomerRequest{MinTotalSpent: &floor})
	require.NoError(t, err)
	require.Len(t, resp.Customers, 1)
	assert.Equal(t, big.ID, resp.Customers[0].ID)

	negative := -1.0
	_, err = svc.List(ctx, domain.ListCustomerRequest{MinTotalSpent: &negative})
	assert.ErrorIs(t, err, domain.ErrInvalidMinSpent)
}
