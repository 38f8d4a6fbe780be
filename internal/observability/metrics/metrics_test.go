package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("org_id", "123"),
		attribute.String("renter_id", "456"),
		attribute.String("entity_kind", "stall"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "org_id" && attrs[1].Key != "org_id" {
		t.Fatalf("expected org_id to be retained")
	}
	if attrs[0].Key != "entity_kind" && attrs[1].Key != "entity_kind" {
		t.Fatalf("expected entity_kind to be retained")
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordInvoicesGenerated(ctx, "1", 3)
	m.RecordManualInvoice(ctx, "1")
	m.RecordChangeLog(ctx, "stall", "written")
	m.RecordErrorLog(ctx, "Generate invoices", "written")
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{ServiceName: "collections"}, noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.RecordInvoicesGenerated(context.Background(), "1", 2)
}

func TestFilterAttributesDropsBlankValues(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("org_id", "  "),
		attribute.String("outcome", " written "),
	)
	if len(attrs) != 1 {
		t.Fatalf("expected 1 attribute, got %d", len(attrs))
	}
	if got := attrs[0].Value.AsString(); got != "written" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
}

func TestNewProviderDisabledIsNoop(t *testing.T) {
	provider, err := NewProvider(nil, Config{}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := provider.(noop.MeterProvider); !ok {
		t.Fatalf("expected noop provider, got %T", provider)
	}
}
