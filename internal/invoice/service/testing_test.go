package service

import (
	"context"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/collections/internal/auditcontext"
	errorlogdomain "github.com/smallbiznis/collections/internal/errorlog/domain"
	"github.com/smallbiznis/collections/internal/invoice/domain"
	"github.com/smallbiznis/collections/internal/orgcontext"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Invoice{}, &domain.GenerationRecord{}))
	require.NoError(t, db.Exec(`CREATE TABLE renters (id INTEGER PRIMARY KEY, org_id INTEGER, name TEXT, status TEXT)`).Error)
	require.NoError(t, db.Exec(`CREATE TABLE stalls (id INTEGER PRIMARY KEY, org_id INTEGER, section_id INTEGER, renter_id INTEGER, name TEXT, rent NUMERIC, rent_type TEXT, status TEXT)`).Error)
	return db
}

func newNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
}

func orgCtx() context.Context {
	ctx := orgcontext.WithOrgID(context.Background(), snowflake.ID(1))
	return auditcontext.WithActor(ctx, auditcontext.ActorTypeAccount, "900")
}

func seedRenter(t *testing.T, db *gorm.DB, id int64, name, status string) {
	t.Helper()
	require.NoError(t, db.Exec(`INSERT INTO renters (id, org_id, name, status) VALUES (?, 1, ?, ?)`, id, name, status).Error)
}

func seedStall(t *testing.T, db *gorm.DB, id int64, renterID *int64, rent int64, rentType, status string) {
	t.Helper()
	require.NoError(t, db.Exec(
		`INSERT INTO stalls (id, org_id, section_id, renter_id, name, rent, rent_type, status) VALUES (?, 1, 1, ?, ?, ?, ?, ?)`,
		id, renterID, "Stall", rent, rentType, status,
	).Error)
}

type errorSink struct {
	mu      sync.Mutex
	entries []errorlogdomain.Entry
}

func (s *errorSink) Record(_ context.Context, entry errorlogdomain.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
}

func (s *errorSink) Write(ctx context.Context, entry errorlogdomain.Entry) error {
	s.Record(ctx, entry)
	return nil
}

func (s *errorSink) List(context.Context, errorlogdomain.ListErrorLogRequest) (errorlogdomain.ListErrorLogResponse, error) {
	return errorlogdomain.ListErrorLogResponse{}, nil
}

func (s *errorSink) Entries() []errorlogdomain.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]errorlogdomain.Entry(nil), s.entries...)
}

func ptr(v int64) *int64 { return &v }
