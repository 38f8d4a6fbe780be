package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/collections/internal/account/domain"
	"github.com/smallbiznis/collections/internal/account/repository"
	"github.com/smallbiznis/collections/internal/auditcontext"
	"github.com/smallbiznis/collections/internal/changelog/changelogtest"
	changelogdomain "github.com/smallbiznis/collections/internal/changelog/domain"
	"github.com/smallbiznis/collections/internal/clock"
	"github.com/smallbiznis/collections/internal/config"
	"github.com/smallbiznis/collections/internal/orgcontext"
	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
	"github.com/smallbiznis/collections/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*Service, *gorm.DB, *changelogtest.Recorder) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Account{}, &domain.SystemAccess{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	recorder := &changelogtest.Recorder{}
	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)),
		Config: config.Config{
			SystemTag:        "collections",
			SuperAdminEmails: []string{"root@example.com"},
		},
		Repo:      repository.Provide(),
		ChangeLog: recorder,
	}).(*Service)
	return svc, db, recorder
}

func orgCtx() context.Context {
	ctx := orgcontext.WithOrgID(context.Background(), snowflake.ID(1))
	return auditcontext.WithActor(ctx, auditcontext.ActorTypeAccount, "900")
}

func TestCreateAccount(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := orgCtx()

	row, err := svc.Create(ctx, domain.CreateAccountRequest{
		FirstName:   " Ana ",
		LastName:    "Reyes",
		Email:       "Ana@Example.com",
		GrantAccess: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana", row.FirstName)
	assert.Equal(t, "ana@example.com", row.Email)
	assert.Equal(t, referencedomain.StatusActive, row.Status)
	assert.True(t, row.HasAccess)
	assert.Equal(t, "Ana Reyes", row.FullName())

	got, err := svc.Get(ctx, row.ID.String())
	require.NoError(t, err)
	assert.True(t, got.HasAccess)

	_, err = svc.Create(ctx, domain.CreateAccountRequest{FirstName: "Other", LastName: "Person", Email: "ana@example.com"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	_, err = svc.Create(ctx, domain.CreateAccountRequest{FirstName: "", LastName: "X", Email: "x@example.com"})
	assert.ErrorIs(t, err, domain.ErrInvalidFirstName)
	_, err = svc.Create(ctx, domain.CreateAccountRequest{FirstName: "X", LastName: " ", Email: "x@example.com"})
	assert.ErrorIs(t, err, domain.ErrInvalidLastName)
	_, err = svc.Create(ctx, domain.CreateAccountRequest{FirstName: "X", LastName: "Y", Email: "not-an-email"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)
}

func TestListAccountsHidesSuperAdmins(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := orgCtx()

	_, err := svc.Create(ctx, domain.CreateAccountRequest{FirstName: "Root", LastName: "Admin", Email: "root@example.com"})
	require.NoError(t, err)
	ana, err := svc.Create(ctx, domain.CreateAccountRequest{FirstName: "Ana", LastName: "Reyes", Email: "ana@example.com", GrantAccess: true})
	require.NoError(t, err)
	ben, err := svc.Create(ctx, domain.CreateAccountRequest{FirstName: "Ben", LastName: "Cruz", Email: "ben@example.com"})
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, ben.ID.String(), referencedomain.StatusInactive)
	require.NoError(t, err)

	resp, err := svc.List(ctx, domain.ListAccountRequest{Range: pagination.Range{Limit: 10}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Total)
	require.Len(t, resp.Accounts, 2)
	assert.Equal(t, ben.ID, resp.Accounts[0].ID)
	assert.False(t, resp.Accounts[0].HasAccess)
	assert.True(t, resp.Accounts[1].HasAccess)

	resp, err = svc.List(ctx, domain.ListAccountRequest{Range: pagination.Range{Limit: 10}, Status: "Active"})
	require.NoError(t, err)
	require.Len(t, resp.Accounts, 1)
	assert.Equal(t, ana.ID, resp.Accounts[0].ID)

	resp, err = svc.List(ctx, domain.ListAccountRequest{Range: pagination.Range{Limit: 10}, ID: ben.ID.String()})
	require.NoError(t, err)
	require.Len(t, resp.Accounts, 1)
	assert.Equal(t, ben.ID, resp.Accounts[0].ID)

	_, err = svc.List(ctx, domain.ListAccountRequest{ID: "abc"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestGrantAndRevokeAccessRecordsChanges(t *testing.T) {
	svc, db, recorder := setup(t)
	ctx := orgCtx()

	row, err := svc.Create(ctx, domain.CreateAccountRequest{FirstName: "Ana", LastName: "Reyes", Email: "ana@example.com"})
	require.NoError(t, err)
	assert.False(t, row.HasAccess)

	granted, err := svc.GrantAccess(ctx, row.ID.String())
	require.NoError(t, err)
	assert.True(t, granted.HasAccess)

	var count int64
	require.NoError(t, db.Model(&domain.SystemAccess{}).Where("account_id = ?", row.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	_, err = svc.GrantAccess(ctx, row.ID.String())
	require.NoError(t, err)
	require.NoError(t, db.Model(&domain.SystemAccess{}).Where("account_id = ?", row.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	revoked, err := svc.RevokeAccess(ctx, row.ID.String())
	require.NoError(t, err)
	assert.False(t, revoked.HasAccess)

	entries := recorder.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, changelogdomain.EntityAccount, entries[0].Ref.Kind)
	require.Len(t, entries[0].Diffs, 1)
	assert.Equal(t, "system_access", entries[0].Diffs[0].Field)
	assert.Equal(t, false, entries[0].Diffs[0].OldValue)
	assert.Equal(t, true, entries[0].Diffs[0].NewValue)
}

func TestUpdateAccount(t *testing.T) {
	svc, _, recorder := setup(t)
	ctx := orgCtx()

	ana, err := svc.Create(ctx, domain.CreateAccountRequest{FirstName: "Ana", LastName: "Reyes", Email: "ana@example.com"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateAccountRequest{FirstName: "Ben", LastName: "Cruz", Email: "ben@example.com"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, domain.UpdateAccountRequest{
		ID:         ana.ID.String(),
		FirstName:  "Ana",
		MiddleName: "Luz",
		LastName:   "Reyes",
		Email:      "ana@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "Luz", updated.MiddleName)

	_, err = svc.Update(ctx, domain.UpdateAccountRequest{
		ID:        ana.ID.String(),
		FirstName: "Ana",
		LastName:  "Reyes",
		Email:     "ben@example.com",
	})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	_, err = svc.Update(ctx, domain.UpdateAccountRequest{ID: "999", FirstName: "A", LastName: "B", Email: "c@example.com"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	entries := recorder.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "middlename", entries[0].Diffs[0].Field)
}
