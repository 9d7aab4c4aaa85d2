package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/barberdesk/internal/salonservice/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

func newTestService(t *testing.T) domain.Service {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:salonservice_%d?mode=memory&cache=shared", dbSeq.Add(1))), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, conn.AutoMigrate(&domain.SalonService{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return New(Params{DB: conn, Log: zap.NewNop(), GenID: node})
}

func TestCreateDerivesCodeFromName(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, domain.CreateRequest{Name: "Hot Towel Shave", Price: 75.5, DurationMinutes: 30, CommissionRate: 20})
	require.NoError(t, err)
	assert.Equal(t, "hot-towel-shave", item.Code)
	assert.True(t, item.IsTipEligible)

	_, err = svc.Create(ctx, domain.CreateRequest{Name: "Hot towel shave"})
	assert.ErrorIs(t, err, domain.ErrCodeTaken)
}

func TestCreatePersistsDisabledFlags(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	no := false
	item, err := svc.Create(ctx, domain.CreateRequest{Name: "Hair Wash", Code: "WASH", IsTipEligible: &no})
	require.NoError(t, err)
	assert.Equal(t, "wash", item.Code)

	got, err := svc.GetByID(ctx, item.ID.String())
	require.NoError(t, err)
	assert.False(t, got.IsTipEligible)
	assert.True(t, got.Active)
}

func TestSalonServiceValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateRequest{Name: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.CreateRequest{Name: "Cut", Price: -5})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	_, err = svc.Create(ctx, domain.CreateRequest{Name: "Cut", CommissionRate: 150})
	assert.ErrorIs(t, err, domain.ErrInvalidCommissionRate)

	_, err = svc.GetByID(ctx, "999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
