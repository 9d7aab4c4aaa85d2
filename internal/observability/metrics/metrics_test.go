package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("payment_method", "cash"),
		attribute.String("customer_id", "456"),
		attribute.String("status", "paid"),
	)
	require.Len(t, attrs, 2)
	assert.Equal(t, attribute.Key("payment_method"), attrs[0].Key)
	assert.Equal(t, attribute.Key("status"), attrs[1].Key)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordInvoiceCreated(ctx, "cash", "paid", 10)
		m.RecordInvoiceUpdated(ctx, "paid")
		m.RecordStockRejection(ctx, "create")
		m.RecordTipAllocated(ctx, "multi_staff", 5)
	})
}

func TestNoopMetricsRecord(t *testing.T) {
	m := NewNoop()
	require.NotNil(t, m)
	assert.NotPanics(t, func() {
		m.RecordInvoiceCreated(context.Background(), "card", "paid", 42.5)
	})
}

func TestGinMiddlewareCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m, err := newHTTPMetrics(reg)
	require.NoError(t, err)

	r := gin.New()
	r.Use(GinMiddleware(m))
	r.GET("/invoices/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/invoices/INV-1", nil))
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(m.requests.WithLabelValues("/invoices/:id", "GET", "200")))
}

func TestHTTPMetricsReuseRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := newHTTPMetrics(reg)
	require.NoError(t, err)
	second, err := newHTTPMetrics(reg)
	require.NoError(t, err)
	assert.Same(t, first.requests, second.requests)
}

func TestGinMiddlewareObservesLatencyPerRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m, err := newHTTPMetrics(reg)
	require.NoError(t, err)

	r := gin.New()
	r.Use(GinMiddleware(m))
	r.POST("/invoices", func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/invoices", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	families, err := reg.Gather()
	require.NoError(t, err)

	var histogram *dto.MetricFamily
	for _, mf := range families {
		if mf.GetName() == "barberdesk_http_request_duration_seconds" {
			histogram = mf
		}
	}
	require.NotNil(t, histogram)

	routes := map[string]uint64{}
	for _, metric := range histogram.GetMetric() {
		for _, label := range metric.GetLabel() {
			if label.GetName() == "route" {
				routes[label.GetValue()] = metric.GetHistogram().GetSampleCount()
			}
		}
	}
	assert.Equal(t, map[string]uint64{"/invoices": 1, "unknown": 1}, routes)
}
