package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/collections/internal/auditcontext"
	"github.com/smallbiznis/collections/internal/clock"
	"github.com/smallbiznis/collections/internal/config"
	errorlogdomain "github.com/smallbiznis/collections/internal/errorlog/domain"
	"github.com/smallbiznis/collections/internal/invoice/domain"
	"github.com/smallbiznis/collections/internal/lock"
	"github.com/smallbiznis/collections/internal/observability/metrics"
	"github.com/smallbiznis/collections/internal/orgcontext"
	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
	dbpkg "github.com/smallbiznis/collections/pkg/db"
	"github.com/smallbiznis/collections/pkg/rls"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const generateTransaction = "Generate invoices"

type GeneratorParams struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	ErrorLog   errorlogdomain.Service
	Invoicing  *config.InvoicingConfigHolder `optional:"true"`
	Locker     *lock.Locker                  `optional:"true"`
	Metrics    *metrics.Metrics              `optional:"true"`
	GenMetrics *metrics.GenerationMetrics    `optional:"true"`
}

type Generator struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	errorLog   errorlogdomain.Service
	invoicing  *config.InvoicingConfigHolder
	locker     *lock.Locker
	metrics    *metrics.Metrics
	genMetrics *metrics.GenerationMetrics
	number     func(digits int) string
}

func NewGenerator(p GeneratorParams) domain.Generator {
	return &Generator{
		db:         p.DB,
		log:        p.Log.Named("invoice.generator"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		errorLog:   p.ErrorLog,
		invoicing:  p.Invoicing,
		locker:     p.Locker,
		metrics:    p.Metrics,
		genMetrics: p.GenMetrics,
		number:     randomNumber,
	}
}

// Generate bills every active stall with an active occupant for the period.
// The invoices and the generation record are written in one transaction.
func (g *Generator) Generate(ctx context.Context, req domain.GenerateRequest) (domain.GenerateResult, error) {
	started := time.Now()
	result, err := g.generate(ctx, req)
	amount, _ := result.Amount.Float64()
	g.genMetrics.ObserveRun(time.Since(started), result.Count, amount, err)
	return result, err
}

func (g *Generator) generate(ctx context.Context, req domain.GenerateRequest) (domain.GenerateResult, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.GenerateResult{}, domain.ErrInvalidOrganization
	}
	if err := req.Period.Validate(); err != nil {
		return domain.GenerateResult{}, err
	}

	cfg := g.invoicing.Get()
	key := req.Period.Key()
	log := g.log.With(zap.String("org_id", orgID.String()), zap.String("period", key))

	release, err := g.acquire(ctx, log, orgID, key, time.Duration(cfg.LockTTLSeconds)*time.Second)
	if err != nil {
		return domain.GenerateResult{}, err
	}
	defer release()

	var actorID *snowflake.ID
	if id, ok := auditcontext.AccountIDFromContext(ctx); ok {
		actorID = &id
	}
	firstDate, lastDate := req.Period.Bounds()
	totalDays := decimal.NewFromInt(int64(req.Period.Days()))

	result := domain.GenerateResult{Period: key, Amount: decimal.Zero}
	var invoices []*domain.Invoice
	failedTable := ""
	err = rls.Transaction(ctx, g.db, orgID, func(tx *gorm.DB) error {
		existing, err := g.repo.FindGeneration(ctx, tx, orgID, key)
		if err != nil {
			failedTable = "generated_invoices"
			return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
		}
		if existing != nil {
			return domain.ErrAlreadyGenerated
		}

		units, err := g.repo.BillableUnits(ctx, tx, orgID)
		if err != nil {
			failedTable = "stalls"
			return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
		}
		if len(units) == 0 {
			return domain.ErrNoBillableUnits
		}

		now := g.clock.Now().UTC()
		invoices = make([]*domain.Invoice, 0, len(units))
		for _, unit := range units {
			if !unit.Billable() {
				result.Skipped++
				continue
			}
			amount := unit.Rent
			if unit.RentType == referencedomain.RentTypeDaily {
				amount = unit.Rent.Mul(totalDays)
			}
			amount = amount.Round(2)
			invoices = append(invoices, &domain.Invoice{
				ID:            g.genID.Generate(),
				OrgID:         orgID,
				RenterID:      *unit.RenterID,
				Type:          cfg.InvoiceType,
				InvoiceDate:   firstDate,
				DueDate:       lastDate,
				InvoiceNumber: g.number(cfg.InvoiceNumberDigits),
				Amount:        amount,
				Generated:     true,
				CreatedBy:     actorID,
				CreatedAt:     now,
				UpdatedAt:     now,
			})
			result.Amount = result.Amount.Add(amount)
		}

		if len(invoices) == 0 && !cfg.RecordEmptyRuns {
			return nil
		}
		if err := g.repo.BatchInsert(ctx, tx, invoices); err != nil {
			failedTable = "invoices"
			return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
		}

		record := domain.GenerationRecord{
			ID:           g.genID.Generate(),
			OrgID:        orgID,
			Period:       key,
			GeneratedBy:  actorID,
			InvoiceCount: len(invoices),
			CreatedAt:    now,
		}
		if err := g.repo.InsertGeneration(ctx, tx, &record); err != nil {
			if dbpkg.IsDuplicateKeyErr(err) {
				log.Info("generation raced with another writer", zap.String("constraint", dbpkg.ConstraintName(err)))
				return domain.ErrAlreadyGenerated
			}
			failedTable = "generated_invoices"
			return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrPersistence) {
			log.Error("invoice generation failed", zap.String("table", failedTable), zap.Int("invoices", len(invoices)), zap.Error(err))
			g.reportFailure(ctx, req.Period, failedTable, len(invoices), err)
		}
		return domain.GenerateResult{}, err
	}

	result.Count = len(invoices)
	g.metrics.RecordInvoicesGenerated(ctx, orgID.String(), result.Count)
	log.Info("invoices generated", zap.Int("count", result.Count), zap.Int("skipped", result.Skipped))
	return result, nil
}

// acquire takes the per-period redis lock when one is configured. A redis
// failure is logged and generation proceeds; the unique index still guards
// the period.
func (g *Generator) acquire(ctx context.Context, log *zap.Logger, orgID snowflake.ID, period string, ttl time.Duration) (func(), error) {
	noop := func() {}
	if !g.locker.Enabled() {
		return noop, nil
	}

	key := fmt.Sprintf("invoice-generation:%s:%s", orgID.String(), period)
	token, ok, err := g.locker.TryLock(ctx, key, ttl)
	if err != nil {
		log.Warn("generation lock unavailable", zap.Error(err))
		return noop, nil
	}
	if !ok {
		return noop, domain.ErrGenerationInProgress
	}
	return func() {
		if err := g.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			log.Warn("failed to release generation lock", zap.Error(err))
		}
	}, nil
}

func (g *Generator) reportFailure(ctx context.Context, period domain.Period, table string, count int, cause error) {
	g.errorLog.Record(ctx, errorlogdomain.Entry{
		Transaction: generateTransaction,
		Table:       table,
		Data: map[string]any{
			"period":   period.Key(),
			"invoices": count,
		},
		Err: cause,
	})
}
