package authorization

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	accountdomain "github.com/smallbiznis/collections/internal/account/domain"
	"github.com/smallbiznis/collections/internal/config"
	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type accounts map[snowflake.ID]accountdomain.AccountRow

func (a accounts) Lookup(_ context.Context, _ snowflake.ID, id snowflake.ID) (accountdomain.AccountRow, error) {
	row, ok := a[id]
	if !ok {
		return accountdomain.AccountRow{}, accountdomain.ErrNotFound
	}
	return row, nil
}

func account(id int64, email string, status referencedomain.Status, access bool) accountdomain.AccountRow {
	return accountdomain.AccountRow{
		Account:   accountdomain.Account{ID: snowflake.ID(id), Email: email, Status: status},
		HasAccess: access,
	}
}

func setup(t *testing.T) *ServiceImpl {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	enforcer, err := NewEnforcer(db)
	require.NoError(t, err)

	lookup := accounts{
		1: account(1, "root@example.com", referencedomain.StatusActive, false),
		2: account(2, "ana@example.com", referencedomain.StatusActive, true),
		3: account(3, "ben@example.com", referencedomain.StatusActive, false),
		4: account(4, "cara@example.com", referencedomain.StatusInactive, true),
	}
	cfg := config.Config{SuperAdminEmails: []string{"root@example.com"}}
	return newService(zap.NewNop(), cfg, enforcer, lookup)
}

func TestResolveActor(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	actor, err := svc.ResolveActor(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, RoleSuperAdmin, actor.Role)

	actor, err = svc.ResolveActor(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, RoleMember, actor.Role)

	_, err = svc.ResolveActor(ctx, 1, 3)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.ResolveActor(ctx, 1, 4)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.ResolveActor(ctx, 1, 99)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.ResolveActor(ctx, 0, 2)
	assert.ErrorIs(t, err, ErrInvalidOrganization)
	_, err = svc.ResolveActor(ctx, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidActor)
}

func TestAuthorizeByRole(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	root, err := svc.ResolveActor(ctx, 1, 1)
	require.NoError(t, err)
	member, err := svc.ResolveActor(ctx, 1, 2)
	require.NoError(t, err)

	assert.NoError(t, svc.Authorize(ctx, root, ObjectAccount, ActionAccountAccess))
	assert.NoError(t, svc.Authorize(ctx, root, ObjectInvoice, ActionInvoiceGenerate))

	assert.NoError(t, svc.Authorize(ctx, member, ObjectInvoice, ActionInvoiceGenerate))
	assert.NoError(t, svc.Authorize(ctx, member, ObjectStall, ActionStatus))
	assert.NoError(t, svc.Authorize(ctx, member, ObjectChangeLog, ActionView))
	assert.ErrorIs(t, svc.Authorize(ctx, member, ObjectAccount, ActionView), ErrForbidden)
	assert.ErrorIs(t, svc.Authorize(ctx, member, ObjectAccount, ActionAccountAccess), ErrForbidden)

	assert.ErrorIs(t, svc.Authorize(ctx, member, "", ActionView), ErrInvalidObject)
	assert.ErrorIs(t, svc.Authorize(ctx, member, ObjectStall, " "), ErrInvalidAction)
	assert.ErrorIs(t, svc.Authorize(ctx, Actor{}, ObjectStall, ActionView), ErrInvalidActor)
}

func TestAuthorizeFollowsRoleChange(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	actor := Actor{AccountID: 2, OrgID: 1, Role: RoleSuperAdmin}
	require.NoError(t, svc.Authorize(ctx, actor, ObjectAccount, ActionView))

	actor.Role = RoleMember
	assert.ErrorIs(t, svc.Authorize(ctx, actor, ObjectAccount, ActionView), ErrForbidden)

	roles, err := svc.enforcer.GetRolesForUser("account:2", "org:1")
	require.NoError(t, err)
	assert.Equal(t, []string{"role:member"}, roles)
}

func TestSeedPoliciesIsIdempotent(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	first, err := NewEnforcer(db)
	require.NoError(t, err)
	before, err := first.GetPolicy()
	require.NoError(t, err)

	second, err := NewEnforcer(db)
	require.NoError(t, err)
	after, err := second.GetPolicy()
	require.NoError(t, err)
	assert.Len(t, after, len(before))
}
