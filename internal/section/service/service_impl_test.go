package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/collections/internal/changelog/changelogtest"
	changelogdomain "github.com/smallbiznis/collections/internal/changelog/domain"
	"github.com/smallbiznis/collections/internal/clock"
	"github.com/smallbiznis/collections/internal/orgcontext"
	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
	"github.com/smallbiznis/collections/internal/section/domain"
	"github.com/smallbiznis/collections/internal/section/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	northID = "501"
	southID = "502"
)

func setup(t *testing.T) (*Service, *changelogtest.Recorder) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Section{}))
	require.NoError(t, db.Exec(`CREATE TABLE locations (id INTEGER PRIMARY KEY, org_id INTEGER, name TEXT, status TEXT)`).Error)
	require.NoError(t, db.Exec(`INSERT INTO locations (id, org_id, name, status) VALUES (501, 1, 'North', 'Active'), (502, 1, 'South', 'Active'), (503, 2, 'Elsewhere', 'Active')`).Error)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	recorder := &changelogtest.Recorder{}
	svc := New(Params{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     clock.NewFakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)),
		Repo:      repository.Provide(),
		ChangeLog: recorder,
	}).(*Service)
	return svc, recorder
}

func orgCtx() context.Context {
	return orgcontext.WithOrgID(context.Background(), snowflake.ID(1))
}

func TestCreateSectionValidatesLocation(t *testing.T) {
	svc, _ := setup(t)
	ctx := orgCtx()

	section, err := svc.Create(ctx, domain.CreateSectionRequest{LocationID: northID, Name: "Fish Lane"})
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(501), section.LocationID)

	_, err = svc.Create(ctx, domain.CreateSectionRequest{LocationID: "503", Name: "Wrong Org"})
	assert.ErrorIs(t, err, domain.ErrInvalidLocation)

	_, err = svc.Create(ctx, domain.CreateSectionRequest{LocationID: "", Name: "No Location"})
	assert.ErrorIs(t, err, domain.ErrInvalidLocation)
}

func TestListSectionsByLocation(t *testing.T) {
	svc, _ := setup(t)
	ctx := orgCtx()

	_, err := svc.Create(ctx, domain.CreateSectionRequest{LocationID: northID, Name: "Fish Lane"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateSectionRequest{LocationID: southID, Name: "Meat Lane"})
	require.NoError(t, err)

	resp, err := svc.List(ctx, domain.ListSectionRequest{LocationID: southID})
	require.NoError(t, err)
	require.Len(t, resp.Sections, 1)
	assert.Equal(t, "Meat Lane", resp.Sections[0].Name)
	assert.Equal(t, "South", resp.Sections[0].LocationName)

	resp, err = svc.List(ctx, domain.ListSectionRequest{Keyword: "LANE"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Total)
}

func TestUpdateSectionMovesLocation(t *testing.T) {
	svc, recorder := setup(t)
	ctx := orgCtx()

	section, err := svc.Create(ctx, domain.CreateSectionRequest{LocationID: northID, Name: "Fish Lane"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, domain.UpdateSectionRequest{ID: section.ID.String(), LocationID: southID, Name: "Fish Lane"})
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(502), updated.LocationID)

	_, err = svc.SetStatus(ctx, section.ID.String(), referencedomain.StatusInactive)
	require.NoError(t, err)

	entries := recorder.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, changelogdomain.EntitySection, entries[0].Ref.Kind)
	assert.Equal(t, []changelogdomain.FieldDiff{{Field: "location_id", OldValue: "501", NewValue: "502"}}, entries[0].Diffs)
	assert.Equal(t, "status", entries[1].Diffs[0].Field)

	_, err = svc.Update(ctx, domain.UpdateSectionRequest{ID: section.ID.String(), LocationID: "503", Name: "Fish Lane"})
	assert.ErrorIs(t, err, domain.ErrInvalidLocation)
}
