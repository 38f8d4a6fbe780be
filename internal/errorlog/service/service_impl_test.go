package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/collections/internal/auditcontext"
	"github.com/smallbiznis/collections/internal/clock"
	"github.com/smallbiznis/collections/internal/config"
	"github.com/smallbiznis/collections/internal/errorlog/domain"
	"github.com/smallbiznis/collections/internal/errorlog/repository"
	"github.com/smallbiznis/collections/internal/orgcontext"
	"github.com/smallbiznis/collections/pkg/async"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var loggedAt = time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *gorm.DB, *async.Queue) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.ErrorLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	queue := async.NewQueue(zap.NewNop(), async.Config{Workers: 1, BufferSize: 4})
	svc := New(Params{
		DB:     db,
		Log:    zap.NewNop(),
		GenID:  node,
		Clock:  clock.NewFakeClock(loggedAt),
		Repo:   repository.Provide(),
		Queue:  queue,
		Config: config.Config{SystemTag: "collections"},
	}).(*Service)
	return svc, db, queue
}

func testContext() context.Context {
	ctx := orgcontext.WithOrgID(context.Background(), snowflake.ID(100))
	ctx = auditcontext.WithActor(ctx, auditcontext.ActorTypeAccount, "42")
	return auditcontext.WithRequestID(ctx, "req-1")
}

func TestWriteStoresEntry(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := testContext()

	err := svc.Write(ctx, domain.Entry{
		Transaction: "Generate Invoices",
		Table:       "invoices",
		Data:        map[string]any{"period": "2/2024"},
		Err:         errors.New("connection reset"),
	})
	require.NoError(t, err)

	var rows []domain.ErrorLog
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "collections", rows[0].System)
	assert.Equal(t, "Generate Invoices", rows[0].Transaction)
	assert.Equal(t, "invoices", rows[0].Table)
	assert.Equal(t, "connection reset", rows[0].Error)
	assert.JSONEq(t, `{"period":"2/2024"}`, string(rows[0].Data))
	assert.Equal(t, snowflake.ID(100), rows[0].OrgID)
	assert.Equal(t, "req-1", rows[0].RequestID)
	require.NotNil(t, rows[0].ActorID)
	assert.Equal(t, snowflake.ID(42), *rows[0].ActorID)
	assert.True(t, loggedAt.Equal(rows[0].CreatedAt), "created_at %s", rows[0].CreatedAt)
}

func TestWriteRejectsMissingTransaction(t *testing.T) {
	svc, _, _ := newTestService(t)
	err := svc.Write(testContext(), domain.Entry{Table: "invoices"})
	assert.ErrorIs(t, err, domain.ErrInvalidTransaction)
}

func TestRecordIsAsyncAndListed(t *testing.T) {
	svc, _, queue := newTestService(t)
	ctx := testContext()

	svc.Record(ctx, domain.Entry{Transaction: "Log Changes", Table: "change_logs", Err: errors.New("boom")})
	svc.Record(ctx, domain.Entry{Transaction: "Log Changes", Table: "change_logs", Err: errors.New("boom again")})
	require.NoError(t, queue.Close(context.Background()))

	resp, err := svc.List(ctx, domain.ListErrorLogRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.ErrorLogs, 2)
	assert.False(t, resp.HasMore)
	assert.Empty(t, resp.NextPageToken)
}

func TestListPagesWithToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := testContext()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Write(ctx, domain.Entry{Transaction: "Add Invoice", Table: "invoices"}))
	}

	req := domain.ListErrorLogRequest{}
	req.PageSize = 2
	resp, err := svc.List(ctx, req)
	require.NoError(t, err)
	assert.Len(t, resp.ErrorLogs, 2)
	assert.True(t, resp.HasMore)
	assert.NotEmpty(t, resp.NextPageToken)
}

func TestListRequiresOrganization(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.List(context.Background(), domain.ListErrorLogRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)
}

func TestListRejectsBadToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	req := domain.ListErrorLogRequest{}
	req.PageToken = "not-a-token"
	_, err := svc.List(testContext(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)
}
