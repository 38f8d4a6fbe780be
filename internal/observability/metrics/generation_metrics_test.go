package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	invoicedomain "github.com/smallbiznis/collections/internal/invoice/domain"
	"gorm.io/gorm"
)

func TestClassifyGenerationReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "already_generated", err: invoicedomain.ErrAlreadyGenerated, want: GenerationReasonAlreadyGenerated},
		{name: "no_billable_units", err: invoicedomain.ErrNoBillableUnits, want: GenerationReasonNoBillableUnits},
		{name: "in_progress", err: invoicedomain.ErrGenerationInProgress, want: GenerationReasonInProgress},
		{name: "deadline", err: context.DeadlineExceeded, want: GenerationReasonDeadlineExceeded},
		{name: "db_lock_timeout", err: &pgconn.PgError{Code: "55P03"}, want: GenerationReasonDBLockTimeout},
		{name: "serialization_failure", err: &pgconn.PgError{Code: "40001"}, want: GenerationReasonSerializationFailure},
		{name: "unique_violation", err: gorm.ErrDuplicatedKey, want: GenerationReasonUniqueViolation},
		{name: "persistence", err: fmt.Errorf("%w: disk full", invoicedomain.ErrPersistence), want: GenerationReasonPersistence},
		{name: "unknown", err: errors.New("boom"), want: GenerationReasonUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyGenerationReason(tc.err); got != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, got)
			}
		})
	}
}

func TestObserveRun(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newGenerationMetrics(registry, Config{ServiceName: "collections", Environment: "test"})

	m.ObserveRun(time.Second, 3, 4500, nil)
	m.ObserveRun(time.Millisecond, 0, 0, invoicedomain.ErrAlreadyGenerated)
	m.ObserveRun(time.Millisecond, 0, 0, errors.New("boom"))

	if got := testutil.ToFloat64(m.runs.WithLabelValues(GenerationOutcomeSuccess)); got != 1 {
		t.Fatalf("expected 1 successful run, got %v", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues(GenerationOutcomeSkipped)); got != 1 {
		t.Fatalf("expected 1 skipped run, got %v", got)
	}
	if got := testutil.ToFloat64(m.errors.WithLabelValues(GenerationReasonUnknown)); got != 1 {
		t.Fatalf("expected 1 unknown error, got %v", got)
	}
	if got := testutil.ToFloat64(m.invoices); got != 3 {
		t.Fatalf("expected 3 invoices, got %v", got)
	}

	var sample dto.Metric
	if err := m.duration.(prometheus.Histogram).Write(&sample); err != nil {
		t.Fatalf("write histogram: %v", err)
	}
	if got := sample.GetHistogram().GetSampleCount(); got != 3 {
		t.Fatalf("expected 3 duration samples, got %d", got)
	}
	if got := sample.GetHistogram().GetSampleSum(); got < 1 {
		t.Fatalf("expected duration sum of at least 1s, got %v", got)
	}
}

func TestRegisterOrExistingReusesCollector(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := newHTTPMetrics(registry, Config{})
	second := newHTTPMetrics(registry, Config{})
	if first.requests != second.requests {
		t.Fatalf("expected existing collector to be reused")
	}
}
