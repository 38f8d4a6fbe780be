package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/collections/internal/auditcontext"
	"github.com/smallbiznis/collections/internal/changelog/domain"
	"github.com/smallbiznis/collections/internal/changelog/repository"
	"github.com/smallbiznis/collections/internal/clock"
	errorlogdomain "github.com/smallbiznis/collections/internal/errorlog/domain"
	"github.com/smallbiznis/collections/internal/orgcontext"
	"github.com/smallbiznis/collections/pkg/async"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Insert(ctx context.Context, db *gorm.DB, entry *domain.ChangeLog) error {
	return m.Called(ctx, db, entry).Error(0)
}

func (m *mockRepo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.ChangeLog, error) {
	args := m.Called(ctx, db, filter)
	return args.Get(0).([]*domain.ChangeLog), args.Error(1)
}

type mockErrorLog struct {
	mock.Mock
}

func (m *mockErrorLog) Record(ctx context.Context, entry errorlogdomain.Entry) {
	m.Called(ctx, entry)
}

func (m *mockErrorLog) Write(ctx context.Context, entry errorlogdomain.Entry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockErrorLog) List(ctx context.Context, req errorlogdomain.ListErrorLogRequest) (errorlogdomain.ListErrorLogResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(errorlogdomain.ListErrorLogResponse), args.Error(1)
}

var recordedAt = time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.ChangeLog{}))
	require.NoError(t, db.Exec(`CREATE TABLE IF NOT EXISTS accounts (id INTEGER PRIMARY KEY, first_name TEXT, last_name TEXT)`).Error)
	return db
}

func newService(t *testing.T, db *gorm.DB, repo domain.Repository, errorLog errorlogdomain.Service) (*Service, *async.Queue) {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	queue := async.NewQueue(zap.NewNop(), async.Config{Workers: 1, BufferSize: 8})
	svc := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clock.NewFakeClock(recordedAt),
		Repo:     repo,
		Queue:    queue,
		ErrorLog: errorLog,
	}).(*Service)
	return svc, queue
}

func actorContext() context.Context {
	ctx := orgcontext.WithOrgID(context.Background(), snowflake.ID(7))
	return auditcontext.WithActor(ctx, auditcontext.ActorTypeAccount, "55")
}

func stallRef() domain.EntityRef {
	return domain.EntityRef{Kind: domain.EntityStall, ID: snowflake.ID(1001)}
}

func TestRecordChangesIdenticalWritesNothing(t *testing.T) {
	db := newDB(t)
	svc, queue := newService(t, db, repository.Provide(), nil)
	values := domain.Values{{Name: "name", Value: "Stall 1"}, {Name: "status", Value: "Active"}}

	res, err := svc.RecordChanges(actorContext(), domain.RecordRequest{New: values, Original: values, Ref: stallRef()})
	require.NoError(t, err)
	assert.False(t, res.Dispatched)
	require.NoError(t, queue.Close(context.Background()))

	var count int64
	require.NoError(t, db.Model(&domain.ChangeLog{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRecordChangesWritesOneEntry(t *testing.T) {
	db := newDB(t)
	svc, queue := newService(t, db, repository.Provide(), nil)
	require.NoError(t, db.Exec(`INSERT INTO accounts (id, first_name, last_name) VALUES (55, 'Maria', 'Santos')`).Error)

	res, err := svc.RecordChanges(actorContext(), domain.RecordRequest{
		Original: domain.Values{{Name: "name", Value: "Stall 1"}, {Name: "status", Value: "Active"}},
		New:      domain.Values{{Name: "name", Value: "Stall 1A"}, {Name: "status", Value: "Active"}},
		Ref:      stallRef(),
	})
	require.NoError(t, err)
	assert.True(t, res.Dispatched)
	require.Len(t, res.Diffs, 1)
	require.NoError(t, queue.Close(context.Background()))

	resp, err := svc.List(actorContext(), domain.ListChangeLogRequest{EntityKind: "stall", EntityID: "1001"})
	require.NoError(t, err)
	require.Len(t, resp.ChangeLogs, 1)
	entry := resp.ChangeLogs[0]
	assert.Equal(t, domain.EntityStall, entry.EntityKind)
	assert.Equal(t, snowflake.ID(7), entry.OrgID)
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, snowflake.ID(55), *entry.ActorID)
	assert.Equal(t, "Maria", entry.ActorFirstName)
	assert.Equal(t, "Santos", entry.ActorLastName)
	require.Len(t, entry.Changes, 1)
	assert.Equal(t, "name", entry.Changes[0].Field)
	assert.Equal(t, "Stall 1", entry.Changes[0].OldValue)
	assert.Equal(t, "Stall 1A", entry.Changes[0].NewValue)
	assert.True(t, recordedAt.Equal(entry.CreatedAt), "created_at %s", entry.CreatedAt)
}

func TestRecordChangesTwiceWritesTwoEntries(t *testing.T) {
	db := newDB(t)
	svc, queue := newService(t, db, repository.Provide(), nil)
	req := domain.RecordRequest{
		Original: domain.Values{{Name: "status", Value: "Active"}},
		New:      domain.Values{{Name: "status", Value: "Inactive"}},
		Ref:      stallRef(),
	}

	_, err := svc.RecordChanges(actorContext(), req)
	require.NoError(t, err)
	_, err = svc.RecordChanges(actorContext(), req)
	require.NoError(t, err)
	require.NoError(t, queue.Close(context.Background()))

	var count int64
	require.NoError(t, db.Model(&domain.ChangeLog{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestRecordChangesInsertFailureGoesToErrorLog(t *testing.T) {
	repo := &mockRepo{}
	repo.On("Insert", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("disk full"))
	errorLog := &mockErrorLog{}
	errorLog.On("Write", mock.Anything, mock.MatchedBy(func(entry errorlogdomain.Entry) bool {
		return entry.Transaction == "Log Changes" && entry.Table == "change_logs" && entry.Err != nil
	})).Return(nil).Once()

	svc, queue := newService(t, nil, repo, errorLog)
	res, err := svc.RecordChanges(actorContext(), domain.RecordRequest{
		Original: domain.Values{{Name: "name", Value: "A"}},
		New:      domain.Values{{Name: "name", Value: "B"}},
		Ref:      stallRef(),
	})
	require.NoError(t, err)
	assert.True(t, res.Dispatched)
	require.NoError(t, queue.Close(context.Background()))

	repo.AssertExpectations(t)
	errorLog.AssertExpectations(t)
}

func TestRecordChangesRejectsUnknownKind(t *testing.T) {
	svc, _ := newService(t, nil, &mockRepo{}, nil)
	_, err := svc.RecordChanges(actorContext(), domain.RecordRequest{
		Ref: domain.EntityRef{Kind: "table_name", ID: 1},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidEntityKind)

	_, err = svc.RecordChanges(actorContext(), domain.RecordRequest{
		Ref: domain.EntityRef{Kind: domain.EntityRenter},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidEntityID)
}

func TestListRejectsBadEntity(t *testing.T) {
	svc, _ := newService(t, nil, &mockRepo{}, nil)
	_, err := svc.List(actorContext(), domain.ListChangeLogRequest{EntityKind: "stall", EntityID: "abc"})
	assert.ErrorIs(t, err, domain.ErrInvalidEntityID)
}
