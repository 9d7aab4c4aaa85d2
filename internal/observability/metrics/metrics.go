package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes invoicing instruments.
type Metrics struct {
	invoicesCreated metric.Int64Counter
	invoicesUpdated metric.Int64Counter
	stockRejections metric.Int64Counter
	tipsAllocated   metric.Float64Counter
	invoiceRevenue  metric.Float64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(15*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				log.Info("shutting down meter provider")
				return provider.Shutdown(ctx)
			},
		})
	}

	log.Info("metrics initialized",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)
	return provider, nil
}

// New builds the domain instruments from provider.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "barberdesk"
	}
	meter := provider.Meter(name)

	invoicesCreated, err := meter.Int64Counter("barberdesk_invoices_created_total")
	if err != nil {
		return nil, err
	}
	invoicesUpdated, err := meter.Int64Counter("barberdesk_invoices_updated_total")
	if err != nil {
		return nil, err
	}
	stockRejections, err := meter.Int64Counter("barberdesk_stock_rejections_total")
	if err != nil {
		return nil, err
	}
	tipsAllocated, err := meter.Float64Counter("barberdesk_tips_allocated_amount")
	if err != nil {
		return nil, err
	}
	invoiceRevenue, err := meter.Float64Counter("barberdesk_invoice_revenue_amount")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		invoicesCreated: invoicesCreated,
		invoicesUpdated: invoicesUpdated,
		stockRejections: stockRejections,
		tipsAllocated:   tipsAllocated,
		invoiceRevenue:  invoiceRevenue,
	}, nil
}

// NewNoop returns instruments backed by the noop provider.
func NewNoop() *Metrics {
	m, _ := New(Config{}, noop.NewMeterProvider())
	return m
}

func (m *Metrics) RecordInvoiceCreated(ctx context.Context, paymentMethod, status string, total float64) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("payment_method", strings.TrimSpace(paymentMethod)),
		attribute.String("status", strings.TrimSpace(status)),
	)
	m.invoicesCreated.Add(ctx, 1, metric.WithAttributes(attrs...))
	if total > 0 {
		m.invoiceRevenue.Add(ctx, total, metric.WithAttributes(attrs...))
	}
}

func (m *Metrics) RecordInvoiceUpdated(ctx context.Context, status string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("status", strings.TrimSpace(status)))
	m.invoicesUpdated.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordStockRejection(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("operation", strings.TrimSpace(operation)))
	m.stockRejections.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordTipAllocated(ctx context.Context, mode string, amount float64) {
	if m == nil || amount <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("tip_mode", strings.TrimSpace(mode)))
	m.tipsAllocated.Add(ctx, amount, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"payment_method": {},
	"status":         {},
	"operation":      {},
	"tip_mode":       {},
	"route":          {},
	"method":         {},
	"status_code":    {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
