package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/barberdesk/internal/audit/domain"
	"github.com/smallbiznis/barberdesk/internal/auth"
	"github.com/smallbiznis/barberdesk/internal/authorization"
	customerdomain "github.com/smallbiznis/barberdesk/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/barberdesk/internal/invoice/domain"
	"github.com/smallbiznis/barberdesk/internal/invoice/receipt"
	productdomain "github.com/smallbiznis/barberdesk/internal/product/domain"
	salonservicedomain "github.com/smallbiznis/barberdesk/internal/salonservice/domain"
	staffdomain "github.com/smallbiznis/barberdesk/internal/staff/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Errors  []ValidationError `json:"errors,omitempty"`
	Details map[string]any    `json:"details,omitempty"`
}

type errorResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Error   errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrTooManyRequests    = errors.New("too_many_requests")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

// ErrorHandlingMiddleware renders the last handler error as the failure
// envelope unless a response was already written.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, message, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{
			Success: false,
			Message: message,
			Error:   payload,
		})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, string, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, "internal server error", errorPayload{Type: "internal_error"}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, "validation error", errorPayload{
			Type:   "validation_error",
			Errors: vErr.Errors,
		}
	}

	var invoiceErr *invoicedomain.ValidationError
	if errors.As(err, &invoiceErr) {
		fields := make([]ValidationError, 0, len(invoiceErr.Fields))
		for _, field := range invoiceErr.Fields {
			fields = append(fields, ValidationError{
				Field:   field,
				Code:    "invalid_" + field,
				Message: invoiceErr.Message,
			})
		}
		return http.StatusBadRequest, invoiceErr.Error(), errorPayload{
			Type:   "validation_error",
			Errors: fields,
		}
	}

	var refErr *invoicedomain.ReferenceNotFoundError
	if errors.As(err, &refErr) {
		return http.StatusBadRequest, refErr.Error(), errorPayload{
			Type: "reference_not_found",
			Details: map[string]any{
				"entity": refErr.Entity,
				"id":     refErr.ID,
			},
		}
	}

	var stockErr *invoicedomain.StockError
	if errors.As(err, &stockErr) {
		return http.StatusBadRequest, stockErr.Error(), errorPayload{
			Type: "stock_error",
			Details: map[string]any{
				"product_id":   stockErr.ProductID,
				"product_name": stockErr.ProductName,
				"available":    stockErr.Available,
				"requested":    stockErr.Requested,
			},
		}
	}

	if isValidationError(err) {
		code := err.Error()
		return http.StatusBadRequest, "validation error", errorPayload{
			Type: "validation_error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, staffdomain.ErrInvalidCredential):
		return http.StatusUnauthorized, "unauthorized", errorPayload{Type: "unauthorized"}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, authorization.ErrInvalidRole):
		return http.StatusForbidden, "forbidden", errorPayload{Type: "forbidden"}
	case errors.Is(err, ErrConflict),
		errors.Is(err, customerdomain.ErrPhoneTaken),
		errors.Is(err, productdomain.ErrSKUTaken),
		errors.Is(err, salonservicedomain.ErrCodeTaken):
		return http.StatusConflict, conflictMessage(err), errorPayload{Type: "conflict"}
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, "too many requests", errorPayload{Type: "rate_limited"}
	case isNotFoundError(err):
		return http.StatusNotFound, notFoundMessage(err), errorPayload{Type: "not_found"}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, "service unavailable", errorPayload{Type: "service_unavailable"}
	default:
		return http.StatusInternalServerError, "internal server error", errorPayload{Type: "internal_error"}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, invoicedomain.ErrInvalidPageToken),
		errors.Is(err, auditdomain.ErrInvalidPageToken),
		errors.Is(err, auditdomain.ErrInvalidTimeRange),
		errors.Is(err, auditdomain.ErrInvalidAction),
		errors.Is(err, receipt.ErrNoRecipient),
		errors.Is(err, receipt.ErrInvalidRecipient),
		errors.Is(err, auth.ErrDisabled):
		return true
	case isCustomerValidationError(err),
		isStaffValidationError(err),
		isServiceValidationError(err),
		isProductValidationError(err):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, invoicedomain.ErrNotFound),
		errors.Is(err, customerdomain.ErrNotFound),
		errors.Is(err, staffdomain.ErrNotFound),
		errors.Is(err, salonservicedomain.ErrNotFound),
		errors.Is(err, productdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func notFoundMessage(err error) string {
	if errors.Is(err, invoicedomain.ErrNotFound) {
		return "invoice not found"
	}
	return "not found"
}

func conflictMessage(err error) string {
	if errors.Is(err, ErrConflict) {
		return "conflict"
	}
	return strings.ReplaceAll(err.Error(), "_", " ")
}

func validationErrorField(code string) string {
	switch code {
	case "invalid_request":
		return "request"
	case "no_recipient", "invalid_recipient":
		return "to"
	case "invalid_page_token":
		return "page_token"
	}
	if field, ok := strings.CutPrefix(code, "invalid_"); ok {
		return field
	}
	return ""
}

// classifyErrorForLog feeds the request logger's error_type/error_code fields.
func classifyErrorForLog(err error) (string, string) {
	_, _, payload := mapError(err)
	code := ""
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func isCustomerValidationError(err error) bool {
	switch err {
	case customerdomain.ErrInvalidName,
		customerdomain.ErrInvalidPhone,
		customerdomain.ErrInvalidEmail,
		customerdomain.ErrInvalidID,
		customerdomain.ErrInvalidMinSpent,
		customerdomain.ErrEmptyUpdate:
		return true
	default:
		return false
	}
}

func isStaffValidationError(err error) bool {
	switch err {
	case staffdomain.ErrInvalidName,
		staffdomain.ErrInvalidCommission,
		staffdomain.ErrInvalidID,
		staffdomain.ErrInvalidRole,
		staffdomain.ErrInvalidPIN:
		return true
	default:
		return false
	}
}

func isServiceValidationError(err error) bool {
	switch err {
	case salonservicedomain.ErrInvalidName,
		salonservicedomain.ErrInvalidPrice,
		salonservicedomain.ErrInvalidDuration,
		salonservicedomain.ErrInvalidCommissionRate,
		salonservicedomain.ErrInvalidID:
		return true
	default:
		return false
	}
}

func isProductValidationError(err error) bool {
	switch err {
	case productdomain.ErrInvalidSKU,
		productdomain.ErrInvalidName,
		productdomain.ErrInvalidPrice,
		productdomain.ErrInvalidStock,
		productdomain.ErrInvalidCommissionRate,
		productdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
