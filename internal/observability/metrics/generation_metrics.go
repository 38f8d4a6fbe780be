package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	invoicedomain "github.com/smallbiznis/collections/internal/invoice/domain"
	"gorm.io/gorm"
)

const (
	GenerationOutcomeSuccess = "success"
	GenerationOutcomeSkipped = "skipped"
	GenerationOutcomeFailed  = "failed"
)

const (
	GenerationReasonAlreadyGenerated     = "already_generated"
	GenerationReasonNoBillableUnits      = "no_billable_units"
	GenerationReasonInProgress           = "in_progress"
	GenerationReasonDeadlineExceeded     = "deadline_exceeded"
	GenerationReasonDBLockTimeout        = "db_lock_timeout"
	GenerationReasonSerializationFailure = "serialization_failure"
	GenerationReasonUniqueViolation      = "unique_violation"
	GenerationReasonPersistence          = "persistence"
	GenerationReasonUnknown              = "unknown"
)

// GenerationMetrics captures rent invoice generation health.
type GenerationMetrics struct {
	runs     *prometheus.CounterVec
	duration prometheus.Observer
	errors   *prometheus.CounterVec
	invoices prometheus.Counter
	amount   prometheus.Counter
}

func NewGenerationMetrics(cfg Config) *GenerationMetrics {
	return newGenerationMetrics(prometheus.DefaultRegisterer, cfg)
}

func newGenerationMetrics(registerer prometheus.Registerer, cfg Config) *GenerationMetrics {
	constLabels := constLabelsFor(cfg)

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "collections_invoice_generation_runs_total",
		Help:        "Invoice generation runs by outcome.",
		ConstLabels: constLabels,
	}, []string{"outcome"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "collections_invoice_generation_duration_seconds",
		Help:        "Invoice generation latency.",
		Buckets:     []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		ConstLabels: constLabels,
	})
	errs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "collections_invoice_generation_errors_total",
		Help:        "Invoice generation errors by low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"reason"})
	invoices := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "collections_invoice_generation_invoices_total",
		Help:        "Invoices created by generation runs.",
		ConstLabels: constLabels,
	})
	amount := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "collections_invoice_generation_amount_total",
		Help:        "Sum of invoice amounts created by generation runs.",
		ConstLabels: constLabels,
	})

	return &GenerationMetrics{
		runs:     registerOrExisting(registerer, runs).(*prometheus.CounterVec),
		duration: registerOrExisting(registerer, duration).(prometheus.Histogram),
		errors:   registerOrExisting(registerer, errs).(*prometheus.CounterVec),
		invoices: registerOrExisting(registerer, invoices).(prometheus.Counter),
		amount:   registerOrExisting(registerer, amount).(prometheus.Counter),
	}
}

// ObserveRun records a finished generation run. err is nil on success.
func (m *GenerationMetrics) ObserveRun(duration time.Duration, created int, amount float64, err error) {
	if m == nil {
		return
	}
	m.duration.Observe(duration.Seconds())

	if err == nil {
		m.runs.WithLabelValues(GenerationOutcomeSuccess).Inc()
		if created > 0 {
			m.invoices.Add(float64(created))
		}
		if amount > 0 {
			m.amount.Add(amount)
		}
		return
	}

	reason := ClassifyGenerationReason(err)
	switch reason {
	case GenerationReasonAlreadyGenerated, GenerationReasonNoBillableUnits, GenerationReasonInProgress:
		m.runs.WithLabelValues(GenerationOutcomeSkipped).Inc()
	default:
		m.runs.WithLabelValues(GenerationOutcomeFailed).Inc()
	}
	m.errors.WithLabelValues(reason).Inc()
}

// ClassifyGenerationReason maps generation errors to low-cardinality reasons.
func ClassifyGenerationReason(err error) string {
	switch {
	case err == nil:
		return GenerationReasonUnknown
	case errors.Is(err, invoicedomain.ErrAlreadyGenerated):
		return GenerationReasonAlreadyGenerated
	case errors.Is(err, invoicedomain.ErrNoBillableUnits):
		return GenerationReasonNoBillableUnits
	case errors.Is(err, invoicedomain.ErrGenerationInProgress):
		return GenerationReasonInProgress
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return GenerationReasonDeadlineExceeded
	case hasPGCode(err, "55P03"):
		return GenerationReasonDBLockTimeout
	case hasPGCode(err, "40001"):
		return GenerationReasonSerializationFailure
	case errors.Is(err, gorm.ErrDuplicatedKey), hasPGCode(err, "23505"):
		return GenerationReasonUniqueViolation
	case errors.Is(err, invoicedomain.ErrPersistence):
		return GenerationReasonPersistence
	default:
		return GenerationReasonUnknown
	}
}

func hasPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}
