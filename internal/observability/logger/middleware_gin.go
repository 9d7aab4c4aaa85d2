package logger

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	auditcontext "github.com/smallbiznis/barberdesk/internal/auditcontext"
	obscontext "github.com/smallbiznis/barberdesk/internal/observability/context"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Gin context keys handlers set so the request log line can name the invoice
// it touched.
const (
	KeyInvoiceID    = "invoice_id"
	KeyInvoiceTotal = "invoice_total"
	keyRequestID    = "request_id"
)

const headerRequestID = "X-Request-Id"

type MiddlewareConfig struct {
	Debug           bool
	ErrorClassifier func(err error) (string, string)
}

// GinMiddleware writes one "http_request" line per request.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := requestIDFor(c)

		ctx := obscontext.WithRequestID(c.Request.Context(), requestID)
		ctx = auditcontext.WithRequestID(ctx, requestID)
		ctx = auditcontext.WithIPAddress(ctx, c.ClientIP())
		ctx = auditcontext.WithUserAgent(ctx, c.Request.UserAgent())
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		route := routeOf(c)
		status := c.Writer.Status()
		fields := requestFields(c, route, status, time.Since(start))

		var errorType string
		if lastErr := c.Errors.Last(); lastErr != nil {
			var errorCode string
			if cfg.ErrorClassifier != nil {
				errorType, errorCode = cfg.ErrorClassifier(lastErr.Err)
			}
			fields = append(fields, zap.String("error_type", errorType), zap.String("error_code", errorCode))
			if cfg.Debug {
				fields = append(fields, zap.Stack("stack"))
			}
		}

		log := FromContext(c.Request.Context())
		if log == nil {
			return
		}
		if ce := log.Check(levelFor(route, status, errorType), "http_request"); ce != nil {
			ce.Write(fields...)
		}
	}
}

func requestFields(c *gin.Context, route string, status int, elapsed time.Duration) []zap.Field {
	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("route", route),
		zap.Int("status", status),
		zap.Int64("duration_ms", elapsed.Milliseconds()),
		zap.Int64("bytes_in", max(c.Request.ContentLength, 0)),
		zap.Int("bytes_out", max(c.Writer.Size(), 0)),
	}
	if role := obscontext.StaffRoleFromContext(c.Request.Context()); role != "" {
		fields = append(fields, zap.String("staff_role", role))
	}
	if invoiceID := strings.TrimSpace(c.GetString(KeyInvoiceID)); invoiceID != "" {
		fields = append(fields, zap.String("invoice_id", invoiceID))
	}
	if total, ok := c.Get(KeyInvoiceTotal); ok {
		if v, ok := total.(float64); ok {
			fields = append(fields, zap.Float64("invoice_total", v))
		}
	}
	if c.GetHeader("Idempotency-Key") != "" {
		fields = append(fields, zap.Bool("idempotent", true))
	}
	return fields
}

func requestIDFor(c *gin.Context) string {
	requestID := strings.TrimSpace(c.GetHeader(headerRequestID))
	if requestID == "" {
		requestID = strings.TrimSpace(c.GetString(keyRequestID))
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(keyRequestID, requestID)
	c.Header(headerRequestID, requestID)
	return requestID
}

func routeOf(c *gin.Context) string {
	if route := strings.TrimSpace(c.FullPath()); route != "" {
		return route
	}
	return "unknown"
}

// warnTypes are client errors an operator should still notice: a till that
// cannot sell because of stock, or someone probing without permission.
var warnTypes = map[string]bool{
	"stock_error":  true,
	"rate_limited": true,
	"forbidden":    true,
}

func levelFor(route string, status int, errorType string) zapcore.Level {
	switch {
	case route == "/health" || route == "/metrics":
		return zapcore.DebugLevel
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case warnTypes[errorType]:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}
