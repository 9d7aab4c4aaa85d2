package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	auditdomain "github.com/smallbiznis/barberdesk/internal/audit/domain"
	"github.com/smallbiznis/barberdesk/internal/auditcontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	auditSvc auditdomain.Service
}

// NewEnforcer persists policies through the gorm adapter. A nil db keeps them
// in memory.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}

	var enforcer *casbin.SyncedEnforcer
	if db == nil {
		enforcer, err = casbin.NewSyncedEnforcer(m)
	} else {
		adapter, adapterErr := gormadapter.NewAdapterByDB(db)
		if adapterErr != nil {
			return nil, adapterErr
		}
		enforcer, err = casbin.NewSyncedEnforcer(m, adapter)
	}
	if err != nil {
		return nil, err
	}

	enforcer.EnableAutoBuildRoleLinks(true)
	if db != nil {
		enforcer.EnableAutoSave(true)
		if err := enforcer.LoadPolicy(); err != nil {
			return nil, err
		}
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, role string, object string, action string) error {
	role = strings.ToLower(strings.TrimSpace(role))
	if !KnownRole(role) {
		return ErrInvalidRole
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	allowed, err := s.enforcer.Enforce(roleSubject(role), object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("authorization denied",
			zap.String("role", role),
			zap.String("object", object),
			zap.String("action", action),
		)
		s.auditDenied(ctx, role, object, action)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) auditDenied(ctx context.Context, role string, object string, action string) {
	if s.auditSvc == nil {
		return
	}
	actorType, actorID := auditcontext.ActorFromContext(ctx)
	var actorIDPtr *string
	if actorID != "" {
		actorIDPtr = &actorID
	}
	targetID := object
	_ = s.auditSvc.AuditLog(ctx, actorType, actorIDPtr, auditdomain.ActionAuthorizationDenied, "authorization", &targetID, map[string]any{
		"object": object,
		"action": action,
		"role":   role,
	})
}

func roleSubject(role string) string {
	return fmt.Sprintf("role:%s", role)
}

// seedPolicies is idempotent; AddPolicy skips rules that already exist.
func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	grouping := [][]string{
		// owner inherits manager inherits cashier
		{roleSubject(RoleOwner), roleSubject(RoleManager)},
		{roleSubject(RoleManager), roleSubject(RoleCashier)},
	}
	for _, rule := range grouping {
		if _, err := enforcer.AddGroupingPolicy(rule); err != nil {
			return err
		}
	}

	policies := [][]string{
		// Cashier: front desk
		{roleSubject(RoleCashier), ObjectInvoice, ActionInvoiceView},
		{roleSubject(RoleCashier), ObjectInvoice, ActionInvoiceCreate},
		{roleSubject(RoleCashier), ObjectInvoice, ActionInvoiceSend},
		{roleSubject(RoleCashier), ObjectCustomer, ActionCustomerView},
		{roleSubject(RoleCashier), ObjectCustomer, ActionCustomerCreate},
		{roleSubject(RoleCashier), ObjectCustomer, ActionCustomerUpdate},
		{roleSubject(RoleCashier), ObjectProduct, ActionProductView},
		{roleSubject(RoleCashier), ObjectStaff, ActionStaffView},
		{roleSubject(RoleCashier), ObjectService, ActionServiceView},

		// Manager
		{roleSubject(RoleManager), ObjectInvoice, ActionInvoiceUpdate},
		{roleSubject(RoleManager), ObjectProduct, ActionProductCreate},
		{roleSubject(RoleManager), ObjectService, ActionServiceCreate},

		// Owner
		{roleSubject(RoleOwner), ObjectStaff, ActionStaffCreate},
		{roleSubject(RoleOwner), ObjectAuditLog, ActionAuditLogView},
	}
	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
