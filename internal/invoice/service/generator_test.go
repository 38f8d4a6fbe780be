package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/collections/internal/clock"
	"github.com/smallbiznis/collections/internal/config"
	"github.com/smallbiznis/collections/internal/invoice/domain"
	"github.com/smallbiznis/collections/internal/invoice/repository"
	"github.com/smallbiznis/collections/internal/lock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var february2024 = domain.Period{Month: 2, Year: 2024}

func newGenerator(t *testing.T, db *gorm.DB, repo domain.Repository, sink *errorSink, cfg config.InvoicingConfig) *Generator {
	t.Helper()
	gen := NewGenerator(GeneratorParams{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     newNode(t),
		Clock:     clock.NewFakeClock(time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)),
		Repo:      repo,
		ErrorLog:  sink,
		Invoicing: config.NewStaticInvoicingConfigHolder(cfg),
	}).(*Generator)
	gen.number = func(int) string { return "00042" }
	return gen
}

func seedMarket(t *testing.T, db *gorm.DB) {
	t.Helper()
	seedRenter(t, db, 10, "Ana", "Active")
	seedRenter(t, db, 11, "Ben", "Inactive")
	seedRenter(t, db, 12, "Cara", "Active")

	seedStall(t, db, 1, ptr(10), 100, "Daily", "Active")
	seedStall(t, db, 2, ptr(12), 5000, "Monthly", "Active")
	seedStall(t, db, 3, ptr(11), 3000, "Monthly", "Active")
	seedStall(t, db, 4, nil, 2000, "Monthly", "Active")
	seedStall(t, db, 5, ptr(10), 50, "Daily", "Inactive")
}

func TestGenerateBillsActiveOccupiedStalls(t *testing.T) {
	db := openDB(t)
	seedMarket(t, db)
	sink := &errorSink{}
	gen := newGenerator(t, db, repository.Provide(), sink, config.DefaultInvoicingConfig())

	result, err := gen.Generate(orgCtx(), domain.GenerateRequest{Period: february2024, Confirmed: true})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, "2/2024", result.Period)
	assert.True(t, decimal.NewFromInt(7900).Equal(result.Amount))

	var invoices []domain.Invoice
	require.NoError(t, db.Order("renter_id asc").Find(&invoices).Error)
	require.Len(t, invoices, 2)

	daily := invoices[0]
	assert.Equal(t, snowflake.ID(10), daily.RenterID)
	assert.True(t, decimal.NewFromInt(2900).Equal(daily.Amount), daily.Amount.String())
	assert.Equal(t, "Monthly Rent", daily.Type)
	assert.Equal(t, "2024-02-01", daily.InvoiceDate.Format(dateLayout))
	assert.Equal(t, "2024-02-29", daily.DueDate.Format(dateLayout))
	assert.Equal(t, "00042", daily.InvoiceNumber)
	assert.True(t, daily.Generated)
	require.NotNil(t, daily.CreatedBy)
	assert.Equal(t, snowflake.ID(900), *daily.CreatedBy)

	monthly := invoices[1]
	assert.Equal(t, snowflake.ID(12), monthly.RenterID)
	assert.True(t, decimal.NewFromInt(5000).Equal(monthly.Amount), monthly.Amount.String())

	var record domain.GenerationRecord
	require.NoError(t, db.Where("period = ?", "2/2024").Take(&record).Error)
	assert.Equal(t, 2, record.InvoiceCount)
	require.NotNil(t, record.GeneratedBy)
	assert.Equal(t, snowflake.ID(900), *record.GeneratedBy)
	assert.Empty(t, sink.Entries())
}

func TestGenerateTwiceForSamePeriod(t *testing.T) {
	db := openDB(t)
	seedMarket(t, db)
	gen := newGenerator(t, db, repository.Provide(), &errorSink{}, config.DefaultInvoicingConfig())

	_, err := gen.Generate(orgCtx(), domain.GenerateRequest{Period: february2024, Confirmed: true})
	require.NoError(t, err)

	_, err = gen.Generate(orgCtx(), domain.GenerateRequest{Period: february2024, Confirmed: true})
	assert.ErrorIs(t, err, domain.ErrAlreadyGenerated)

	var count int64
	require.NoError(t, db.Model(&domain.Invoice{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	_, err = gen.Generate(orgCtx(), domain.GenerateRequest{Period: domain.Period{Month: 3, Year: 2024}, Confirmed: true})
	require.NoError(t, err)
	require.NoError(t, db.Model(&domain.Invoice{}).Count(&count).Error)
	assert.Equal(t, int64(4), count)
}

func TestGenerateWithoutActiveStalls(t *testing.T) {
	db := openDB(t)
	seedRenter(t, db, 10, "Ana", "Active")
	seedStall(t, db, 1, ptr(10), 100, "Daily", "Inactive")
	gen := newGenerator(t, db, repository.Provide(), &errorSink{}, config.DefaultInvoicingConfig())

	_, err := gen.Generate(orgCtx(), domain.GenerateRequest{Period: february2024})
	assert.ErrorIs(t, err, domain.ErrNoBillableUnits)

	var count int64
	require.NoError(t, db.Model(&domain.GenerationRecord{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGenerateEmptyRun(t *testing.T) {
	for _, recordEmpty := range []bool{true, false} {
		t.Run(map[bool]string{true: "recorded", false: "not_recorded"}[recordEmpty], func(t *testing.T) {
			db := openDB(t)
			seedStall(t, db, 1, nil, 100, "Daily", "Active")
			cfg := config.DefaultInvoicingConfig()
			cfg.RecordEmptyRuns = recordEmpty
			gen := newGenerator(t, db, repository.Provide(), &errorSink{}, cfg)

			result, err := gen.Generate(orgCtx(), domain.GenerateRequest{Period: february2024})
			require.NoError(t, err)
			assert.Zero(t, result.Count)
			assert.Equal(t, 1, result.Skipped)

			var count int64
			require.NoError(t, db.Model(&domain.GenerationRecord{}).Count(&count).Error)
			if recordEmpty {
				assert.Equal(t, int64(1), count)
			} else {
				assert.Zero(t, count)
			}
		})
	}
}

type failingInserts struct {
	domain.Repository
}

func (failingInserts) BatchInsert(context.Context, *gorm.DB, []*domain.Invoice) error {
	return errors.New("connection reset by peer")
}

func TestGeneratePersistenceFailure(t *testing.T) {
	db := openDB(t)
	seedMarket(t, db)
	sink := &errorSink{}
	gen := newGenerator(t, db, failingInserts{Repository: repository.Provide()}, sink, config.DefaultInvoicingConfig())

	_, err := gen.Generate(orgCtx(), domain.GenerateRequest{Period: february2024})
	assert.ErrorIs(t, err, domain.ErrPersistence)

	var count int64
	require.NoError(t, db.Model(&domain.GenerationRecord{}).Count(&count).Error)
	assert.Zero(t, count)

	entries := sink.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "Generate invoices", entries[0].Transaction)
	assert.Equal(t, "invoices", entries[0].Table)
	assert.ErrorContains(t, entries[0].Err, "connection reset by peer")
}

type failingReads struct {
	domain.Repository
	generations bool
}

func (r failingReads) FindGeneration(ctx context.Context, db *gorm.DB, orgID snowflake.ID, period string) (*domain.GenerationRecord, error) {
	if r.generations {
		return nil, errors.New("connection reset by peer")
	}
	return r.Repository.FindGeneration(ctx, db, orgID, period)
}

func (failingReads) BillableUnits(context.Context, *gorm.DB, snowflake.ID) ([]domain.BillableUnit, error) {
	return nil, errors.New("connection reset by peer")
}

func TestGenerateReadFailure(t *testing.T) {
	for name, tc := range map[string]struct {
		generations bool
		table       string
	}{
		"generation lookup": {generations: true, table: "generated_invoices"},
		"billable units":    {generations: false, table: "stalls"},
	} {
		t.Run(name, func(t *testing.T) {
			db := openDB(t)
			seedMarket(t, db)
			sink := &errorSink{}
			gen := newGenerator(t, db, failingReads{Repository: repository.Provide(), generations: tc.generations}, sink, config.DefaultInvoicingConfig())

			_, err := gen.Generate(orgCtx(), domain.GenerateRequest{Period: february2024})
			assert.ErrorIs(t, err, domain.ErrPersistence)
			assert.ErrorContains(t, err, "connection reset by peer")

			var count int64
			require.NoError(t, db.Model(&domain.Invoice{}).Count(&count).Error)
			assert.Zero(t, count)

			entries := sink.Entries()
			require.Len(t, entries, 1)
			assert.Equal(t, "Generate invoices", entries[0].Transaction)
			assert.Equal(t, tc.table, entries[0].Table)
		})
	}
}

type failingRecord struct {
	domain.Repository
}

func (failingRecord) InsertGeneration(context.Context, *gorm.DB, *domain.GenerationRecord) error {
	return errors.New("disk full")
}

func TestGenerateRecordFailureRollsBackInvoices(t *testing.T) {
	db := openDB(t)
	seedMarket(t, db)
	sink := &errorSink{}
	gen := newGenerator(t, db, failingRecord{Repository: repository.Provide()}, sink, config.DefaultInvoicingConfig())

	_, err := gen.Generate(orgCtx(), domain.GenerateRequest{Period: february2024})
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.NotErrorIs(t, err, domain.ErrAlreadyGenerated)

	var invoices, records int64
	require.NoError(t, db.Model(&domain.Invoice{}).Count(&invoices).Error)
	require.NoError(t, db.Model(&domain.GenerationRecord{}).Count(&records).Error)
	assert.Zero(t, invoices)
	assert.Zero(t, records)

	entries := sink.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "generated_invoices", entries[0].Table)
	assert.Equal(t, 2, entries[0].Data.(map[string]any)["invoices"])
	assert.ErrorContains(t, entries[0].Err, "disk full")
}

// blindReads never sees an existing generation record, so only the unique
// index can stop a second run.
type blindReads struct {
	domain.Repository
}

func (blindReads) FindGeneration(context.Context, *gorm.DB, snowflake.ID, string) (*domain.GenerationRecord, error) {
	return nil, nil
}

func TestGenerateRaceResolvedByUniqueIndex(t *testing.T) {
	db := openDB(t)
	seedMarket(t, db)
	first := newGenerator(t, db, repository.Provide(), &errorSink{}, config.DefaultInvoicingConfig())
	_, err := first.Generate(orgCtx(), domain.GenerateRequest{Period: february2024})
	require.NoError(t, err)

	sink := &errorSink{}
	second := newGenerator(t, db, blindReads{Repository: repository.Provide()}, sink, config.DefaultInvoicingConfig())
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	second.genID = node
	_, err = second.Generate(orgCtx(), domain.GenerateRequest{Period: february2024})
	assert.ErrorIs(t, err, domain.ErrAlreadyGenerated)

	var count int64
	require.NoError(t, db.Model(&domain.Invoice{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
	assert.Empty(t, sink.Entries())
}

func TestGenerateHonoursLock(t *testing.T) {
	db := openDB(t)
	seedMarket(t, db)
	mr := miniredis.RunT(t)
	gen := newGenerator(t, db, repository.Provide(), &errorSink{}, config.DefaultInvoicingConfig())
	gen.locker = lock.NewLocker(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	require.NoError(t, mr.Set("invoice-generation:1:2/2024", "other-run"))
	_, err := gen.Generate(orgCtx(), domain.GenerateRequest{Period: february2024})
	assert.ErrorIs(t, err, domain.ErrGenerationInProgress)

	mr.Del("invoice-generation:1:2/2024")
	result, err := gen.Generate(orgCtx(), domain.GenerateRequest{Period: february2024})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
	assert.False(t, mr.Exists("invoice-generation:1:2/2024"))
}

func TestGenerateRequiresOrganization(t *testing.T) {
	db := openDB(t)
	gen := newGenerator(t, db, repository.Provide(), &errorSink{}, config.DefaultInvoicingConfig())

	_, err := gen.Generate(context.Background(), domain.GenerateRequest{Period: february2024})
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)

	_, err = gen.Generate(orgCtx(), domain.GenerateRequest{Period: domain.Period{Month: 13, Year: 2024}})
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
}
