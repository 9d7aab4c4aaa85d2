package authorization

import (
	"context"
	"testing"

	auditdomain "github.com/smallbiznis/barberdesk/internal/audit/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type auditMock struct {
	mock.Mock
}

func (m *auditMock) AuditLog(ctx context.Context, actorType string, actorID *string, action string, targetType string, targetID *string, metadata map[string]any) error {
	args := m.Called(ctx, actorType, actorID, action, targetType, targetID, metadata)
	return args.Error(0)
}

func (m *auditMock) List(ctx context.Context, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(auditdomain.ListAuditLogResponse), args.Error(1)
}

func newTestService(t *testing.T, audit auditdomain.Service) Service {
	t.Helper()
	enforcer, err := NewEnforcer(nil)
	require.NoError(t, err)
	return NewService(Params{Log: zap.NewNop(), Enforcer: enforcer, AuditSvc: audit})
}

func TestAuthorizeRoleMatrix(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	cases := []struct {
		role    string
		object  string
		action  string
		allowed bool
	}{
		{RoleCashier, ObjectInvoice, ActionInvoiceView, true},
		{RoleCashier, ObjectInvoice, ActionInvoiceCreate, true},
		{RoleCashier, ObjectInvoice, ActionInvoiceUpdate, false},
		{RoleCashier, ObjectAuditLog, ActionAuditLogView, false},
		{RoleCashier, ObjectProduct, ActionProductCreate, false},
		{RoleManager, ObjectInvoice, ActionInvoiceUpdate, true},
		{RoleManager, ObjectInvoice, ActionInvoiceCreate, true},
		{RoleManager, ObjectProduct, ActionProductCreate, true},
		{RoleManager, ObjectAuditLog, ActionAuditLogView, false},
		{RoleOwner, ObjectInvoice, ActionInvoiceUpdate, true},
		{RoleOwner, ObjectAuditLog, ActionAuditLogView, true},
		{RoleOwner, ObjectStaff, ActionStaffCreate, true},
	}

	for _, tc := range cases {
		t.Run(tc.role+"/"+tc.action, func(t *testing.T) {
			err := svc.Authorize(ctx, tc.role, tc.object, tc.action)
			if tc.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrForbidden)
			}
		})
	}
}

func TestAuthorizeRejectsBadInput(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Authorize(ctx, "stylist", ObjectInvoice, ActionInvoiceView), ErrInvalidRole)
	assert.ErrorIs(t, svc.Authorize(ctx, RoleOwner, " ", ActionInvoiceView), ErrInvalidObject)
	assert.ErrorIs(t, svc.Authorize(ctx, RoleOwner, ObjectInvoice, ""), ErrInvalidAction)
	assert.NoError(t, svc.Authorize(ctx, " Manager ", ObjectInvoice, ActionInvoiceUpdate))
}

func TestAuthorizeAuditsDenials(t *testing.T) {
	audit := &auditMock{}
	audit.On("AuditLog", mock.Anything, "", (*string)(nil), auditdomain.ActionAuthorizationDenied, "authorization", mock.Anything, mock.Anything).
		Return(nil).Once()

	svc := newTestService(t, audit)
	err := svc.Authorize(context.Background(), RoleCashier, ObjectInvoice, ActionInvoiceUpdate)
	require.ErrorIs(t, err, ErrForbidden)
	audit.AssertExpectations(t)
}

func TestSeedPoliciesIsIdempotent(t *testing.T) {
	enforcer, err := NewEnforcer(nil)
	require.NoError(t, err)
	before, err := enforcer.GetPolicy()
	require.NoError(t, err)

	require.NoError(t, seedPolicies(enforcer))
	after, err := enforcer.GetPolicy()
	require.NoError(t, err)
	assert.Len(t, after, len(before))
}
