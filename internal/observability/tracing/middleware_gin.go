package tracing

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/barberdesk/internal/observability/context"
	"github.com/smallbiznis/barberdesk/internal/observability/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "barberdesk/http"

// GinMiddleware opens a server span per request. It runs after the request
// logger so the request id is already on the context.
func GinMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer(tracerName)
	return func(c *gin.Context) {
		method := strings.ToUpper(c.Request.Method)
		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, "HTTP "+method, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
			ctx = withRequestBaggage(ctx, requestID)
			span.SetAttributes(attribute.String("request_id", requestID))
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()
		span.SetName("HTTP " + method + " " + route)
		span.SetAttributes(SafeAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)...)
		span.SetAttributes(invoiceAttributes(c)...)

		if lastErr := c.Errors.Last(); lastErr != nil && status >= http.StatusBadRequest {
			span.RecordError(SafeError(lastErr.Err))
		}
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

// invoiceAttributes reads what the handlers left on the gin context. The
// staff role comes from the request context, set after authentication.
func invoiceAttributes(c *gin.Context) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if id := c.GetString(logger.KeyInvoiceID); id != "" {
		attrs = append(attrs, attribute.String("invoice.id", id))
	}
	if total, ok := c.Get(logger.KeyInvoiceTotal); ok {
		if v, ok := total.(float64); ok {
			attrs = append(attrs, attribute.Float64("invoice.total", v))
		}
	}
	if role := obscontext.StaffRoleFromContext(c.Request.Context()); role != "" {
		attrs = append(attrs, attribute.String("staff.role", role))
	}
	return attrs
}

func withRequestBaggage(ctx context.Context, requestID string) context.Context {
	member, err := baggage.NewMember("request_id", requestID)
	if err != nil {
		return ctx
	}
	bag, err := baggage.New(member)
	if err != nil {
		return ctx
	}
	return baggage.ContextWithBaggage(ctx, bag)
}
