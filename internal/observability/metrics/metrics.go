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

const exportInterval = 10 * time.Second

type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics holds the OTLP counters for invoicing and the log sinks.
type Metrics struct {
	invoicesGenerated metric.Int64Counter
	invoicesManual    metric.Int64Counter
	changeLogEntries  metric.Int64Counter
	errorLogEntries   metric.Int64Counter
}

// NewProvider installs the global meter provider. Disabled export yields a
// no-op provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(context.Background(), cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, fmt.Errorf("metric exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(exportInterval))),
	)
	otel.SetMeterProvider(provider)
	if lc != nil {
		lc.Append(fx.StopHook(provider.Shutdown))
	}
	log.Info("otlp metrics enabled",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)
	return provider, nil
}

func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "collections"
	}
	meter := provider.Meter(name)

	m := &Metrics{}
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.invoicesGenerated, "collections_invoices_generated_total", "Invoices created by monthly generation."},
		{&m.invoicesManual, "collections_invoices_manual_total", "Invoices created by hand."},
		{&m.changeLogEntries, "collections_change_log_entries_total", "Change log writes by entity kind and outcome."},
		{&m.errorLogEntries, "collections_error_log_entries_total", "Error log writes by transaction and outcome."},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", c.name, err)
		}
		*c.dst = counter
	}
	return m, nil
}

func (m *Metrics) RecordInvoicesGenerated(ctx context.Context, orgID string, count int) {
	if m == nil || count <= 0 {
		return
	}
	add(ctx, m.invoicesGenerated, int64(count), attribute.String("org_id", orgID))
}

func (m *Metrics) RecordManualInvoice(ctx context.Context, orgID string) {
	if m == nil {
		return
	}
	add(ctx, m.invoicesManual, 1, attribute.String("org_id", orgID))
}

// RecordChangeLog counts a change log write. outcome is written, dropped or failed.
func (m *Metrics) RecordChangeLog(ctx context.Context, entityKind, outcome string) {
	if m == nil {
		return
	}
	add(ctx, m.changeLogEntries, 1,
		attribute.String("entity_kind", entityKind),
		attribute.String("outcome", outcome),
	)
}

func (m *Metrics) RecordErrorLog(ctx context.Context, transaction, outcome string) {
	if m == nil {
		return
	}
	add(ctx, m.errorLogEntries, 1,
		attribute.String("transaction", transaction),
		attribute.String("outcome", outcome),
	)
}

func add(ctx context.Context, counter metric.Int64Counter, n int64, attrs ...attribute.KeyValue) {
	counter.Add(ctx, n, metric.WithAttributes(FilterAttributes(attrs...)...))
}

func newExporter(ctx context.Context, protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		var opts []otlpmetrichttp.Option
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(ctx, opts...)
	case "", "grpc", "grpc/protobuf":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(ctx, opts...)
	}
	return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
}

// allowedLabelKeys keeps renter, stall and invoice ids out of metric labels.
var allowedLabelKeys = map[attribute.Key]bool{
	"org_id":      true,
	"endpoint":    true,
	"status_code": true,
	"entity_kind": true,
	"transaction": true,
	"outcome":     true,
	"reason":      true,
}

// FilterAttributes drops disallowed keys and blank values.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if !allowedLabelKeys[attr.Key] {
			continue
		}
		if attr.Value.Type() == attribute.STRING {
			v := strings.TrimSpace(attr.Value.AsString())
			if v == "" {
				continue
			}
			attr = attr.Key.String(v)
		}
		out = append(out, attr)
	}
	return out
}
