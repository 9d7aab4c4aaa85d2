package authorization

import (
	"context"
	"errors"
)

const (
	RoleOwner   = "owner"
	RoleManager = "manager"
	RoleCashier = "cashier"
)

const (
	ObjectInvoice  = "invoice"
	ObjectCustomer = "customer"
	ObjectProduct  = "product"
	ObjectStaff    = "staff"
	ObjectService  = "service"
	ObjectAuditLog = "audit_log"
)

const (
	ActionInvoiceView   = "invoice.view"
	ActionInvoiceCreate = "invoice.create"
	ActionInvoiceUpdate = "invoice.update"
	ActionInvoiceSend   = "invoice.send"

	ActionCustomerView   = "customer.view"
	ActionCustomerCreate = "customer.create"
	ActionCustomerUpdate = "customer.update"

	ActionProductView   = "product.view"
	ActionProductCreate = "product.create"

	ActionStaffView   = "staff.view"
	ActionStaffCreate = "staff.create"

	ActionServiceView   = "service.view"
	ActionServiceCreate = "service.create"

	ActionAuditLogView = "audit_log.view"
)

type Service interface {
	Authorize(ctx context.Context, role string, object string, action string) error
}

var (
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidRole   = errors.New("invalid_role")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
)

// KnownRole reports whether role is one the policy set grants anything to.
func KnownRole(role string) bool {
	switch role {
	case RoleOwner, RoleManager, RoleCashier:
		return true
	default:
		return false
	}
}
