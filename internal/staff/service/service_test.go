package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/barberdesk/internal/staff/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

func newTestService(t *testing.T) domain.Service {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:staff_%d?mode=memory&cache=shared", dbSeq.Add(1))), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Staff{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return New(Params{DB: conn, Log: zap.NewNop(), GenID: node})
}

func TestStaffCreateListGet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	inactive := false
	bima, err := svc.Create(ctx, domain.CreateStaffRequest{Name: " Bima ", CommissionPercentage: 40})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateStaffRequest{Name: "Adi", Active: &inactive})
	require.NoError(t, err)

	all, err := svc.List(ctx, domain.ListStaffRequest{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Adi", all[0].Name)

	active := true
	onlyActive, err := svc.List(ctx, domain.ListStaffRequest{Active: &active})
	require.NoError(t, err)
	require.Len(t, onlyActive, 1)
	assert.Equal(t, "Bima", onlyActive[0].Name)

	got, err := svc.GetByID(ctx, bima.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 40.0, got.CommissionPercentage)
}

func TestStaffValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateStaffRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.CreateStaffRequest{Name: "x", CommissionPercentage: 101})
	assert.ErrorIs(t, err, domain.ErrInvalidCommission)

	_, err = svc.GetByID(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.GetByID(ctx, "42")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStaffRoleAndPIN(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	owner, err := svc.Create(ctx, domain.CreateStaffRequest{Name: "Rina", Role: " Owner ", PIN: "2468"})
	require.NoError(t, err)
	assert.Equal(t, "owner", owner.Role)
	assert.NotEmpty(t, owner.PINHash)

	cashier, err := svc.Create(ctx, domain.CreateStaffRequest{Name: "Dodi"})
	require.NoError(t, err)
	assert.Equal(t, "cashier", cashier.Role)

	_, err = svc.Create(ctx, domain.CreateStaffRequest{Name: "x", Role: "stylist"})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)
	_, err = svc.Create(ctx, domain.CreateStaffRequest{Name: "x", PIN: "12"})
	assert.ErrorIs(t, err, domain.ErrInvalidPIN)

	got, err := svc.VerifyPIN(ctx, owner.ID.String(), "2468")
	require.NoError(t, err)
	assert.Equal(t, owner.ID, got.ID)

	_, err = svc.VerifyPIN(ctx, owner.ID.String(), "0000")
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)
	_, err = svc.VerifyPIN(ctx, cashier.ID.String(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)
	_, err = svc.VerifyPIN(ctx, "999", "2468")
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)
}
