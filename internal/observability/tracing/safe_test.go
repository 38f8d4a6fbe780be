package tracing

import (
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributesDropsSensitiveKeys(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("email", "someone@example.com"),
		attribute.String("http.route", "/api/invoices"),
		attribute.String("payload", strings.Repeat("x", 400)),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "http.route" {
		t.Fatalf("expected http.route first, got %s", attrs[0].Key)
	}
	if got := len(attrs[1].Value.AsString()); got != maxAttributeLength {
		t.Fatalf("expected truncated payload of %d, got %d", maxAttributeLength, got)
	}
}

func TestSafeError(t *testing.T) {
	if SafeError(nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
	if SafeError(errors.New("   ")) != nil {
		t.Fatalf("expected nil for blank error")
	}
	if got := SafeError(errors.New("boom")); got == nil || got.Error() != "boom" {
		t.Fatalf("unexpected error %v", got)
	}
}
