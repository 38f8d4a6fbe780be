package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/collections/internal/changelog/changelogtest"
	changelogdomain "github.com/smallbiznis/collections/internal/changelog/domain"
	"github.com/smallbiznis/collections/internal/clock"
	"github.com/smallbiznis/collections/internal/invoice/domain"
	"github.com/smallbiznis/collections/internal/invoice/repository"
	"github.com/smallbiznis/collections/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*Service, *gorm.DB, *changelogtest.Recorder) {
	t.Helper()
	db := openDB(t)
	seedRenter(t, db, 10, "Ana", "Active")
	seedRenter(t, db, 11, "Ben", "Active")

	recorder := &changelogtest.Recorder{}
	svc := New(Params{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     newNode(t),
		Clock:     clock.NewFakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)),
		Repo:      repository.Provide(),
		ChangeLog: recorder,
	}).(*Service)
	return svc, db, recorder
}

func manualInvoice(renterID string) domain.CreateInvoiceRequest {
	return domain.CreateInvoiceRequest{
		RenterID:    renterID,
		Type:        "electricity bill",
		InvoiceDate: "2024-03-01",
		DueDate:     "2024-03-15",
		Amount:      "1250.5",
	}
}

func TestCreateManualInvoice(t *testing.T) {
	svc, _, _ := setup(t)

	row, err := svc.Create(orgCtx(), manualInvoice("10"))
	require.NoError(t, err)
	assert.Equal(t, "Electricity Bill", row.Type)
	assert.Equal(t, "Ana", row.RenterName)
	assert.False(t, row.Generated)
	assert.Len(t, row.InvoiceNumber, 5)
	assert.True(t, decimal.RequireFromString("1250.50").Equal(row.Amount))
	require.NotNil(t, row.CreatedBy)
	assert.Equal(t, snowflake.ID(900), *row.CreatedBy)

	got, err := svc.Get(orgCtx(), row.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.RenterName)
	assert.Equal(t, row.InvoiceNumber, got.InvoiceNumber)
}

func TestCreateManualInvoiceValidation(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := orgCtx()

	cases := []struct {
		name   string
		mutate func(*domain.CreateInvoiceRequest)
		err    error
	}{
		{"unknown renter", func(r *domain.CreateInvoiceRequest) { r.RenterID = "99" }, domain.ErrInvalidRenter},
		{"bad renter", func(r *domain.CreateInvoiceRequest) { r.RenterID = "x" }, domain.ErrInvalidRenter},
		{"type", func(r *domain.CreateInvoiceRequest) { r.Type = "Parking" }, domain.ErrInvalidType},
		{"invoice date", func(r *domain.CreateInvoiceRequest) { r.InvoiceDate = "03/01/2024" }, domain.ErrInvalidInvoiceDate},
		{"due before invoice", func(r *domain.CreateInvoiceRequest) { r.DueDate = "2024-02-28" }, domain.ErrInvalidDueDate},
		{"zero amount", func(r *domain.CreateInvoiceRequest) { r.Amount = "0" }, domain.ErrInvalidAmount},
		{"negative amount", func(r *domain.CreateInvoiceRequest) { r.Amount = "-5" }, domain.ErrInvalidAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := manualInvoice("10")
			tc.mutate(&req)
			_, err := svc.Create(ctx, req)
			assert.ErrorIs(t, err, tc.err)
		})
	}

	_, err := svc.Create(context.Background(), manualInvoice("10"))
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)
}

func TestUpdateInvoiceRecordsChanges(t *testing.T) {
	svc, _, recorder := setup(t)
	ctx := orgCtx()

	row, err := svc.Create(ctx, manualInvoice("10"))
	require.NoError(t, err)

	req := domain.UpdateInvoiceRequest{ID: row.ID.String(), CreateInvoiceRequest: manualInvoice("11")}
	req.Amount = "1300"
	updated, err := svc.Update(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(11), updated.RenterID)
	assert.Equal(t, "Ben", updated.RenterName)
	assert.Equal(t, row.InvoiceNumber, updated.InvoiceNumber)

	entries := recorder.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, changelogdomain.EntityInvoice, entries[0].Ref.Kind)
	fields := make([]string, 0, len(entries[0].Diffs))
	for _, diff := range entries[0].Diffs {
		fields = append(fields, diff.Field)
	}
	assert.Equal(t, []string{"renter_id", "amount"}, fields)

	_, err = svc.Update(ctx, domain.UpdateInvoiceRequest{ID: "12345", CreateInvoiceRequest: manualInvoice("10")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListInvoicesByRenter(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := orgCtx()

	for _, renter := range []string{"10", "10", "11"} {
		_, err := svc.Create(ctx, manualInvoice(renter))
		require.NoError(t, err)
	}

	resp, err := svc.List(ctx, domain.ListInvoiceRequest{Range: pagination.Range{Limit: 10}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Total)
	require.Len(t, resp.Invoices, 3)
	assert.Equal(t, "Ben", resp.Invoices[0].RenterName)

	resp, err = svc.List(ctx, domain.ListInvoiceRequest{Range: pagination.Range{Limit: 1}, RenterID: "10"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Total)
	assert.Len(t, resp.Invoices, 1)
	assert.True(t, resp.HasMore)
}

func TestStatementCollectsEveryInvoice(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := orgCtx()

	for i := 0; i < statementPageSize+5; i++ {
		_, err := svc.Create(ctx, manualInvoice("10"))
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, manualInvoice("11"))
	require.NoError(t, err)

	statement, err := svc.Statement(ctx, "10")
	require.NoError(t, err)
	assert.Equal(t, "Ana", statement.Renter.Name)
	assert.Len(t, statement.Invoices, statementPageSize+5)
	expected := decimal.RequireFromString("1250.50").Mul(decimal.NewFromInt(statementPageSize + 5))
	assert.True(t, expected.Equal(statement.Total), statement.Total.String())

	_, err = svc.Statement(ctx, "99")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListGenerations(t *testing.T) {
	svc, db, _ := setup(t)
	for i, period := range []string{"1/2024", "2/2024"} {
		require.NoError(t, db.Create(&domain.GenerationRecord{
			ID:        snowflake.ID(i + 1),
			OrgID:     1,
			Period:    period,
			CreatedAt: time.Date(2024, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC),
		}).Error)
	}

	resp, err := svc.ListGenerations(orgCtx(), domain.ListGenerationRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Total)
	require.Len(t, resp.Generations, 2)
	assert.Equal(t, "2/2024", resp.Generations[0].Period)
}
