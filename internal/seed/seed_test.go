package seed

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	accountdomain "github.com/smallbiznis/collections/internal/account/domain"
	"github.com/smallbiznis/collections/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEnsureBootstrapAdmin(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&accountdomain.Account{}, &accountdomain.SystemAccess{}))
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := config.Config{
		DefaultOrgID: 7,
		SystemTag:    "collections",
		Bootstrap: config.BootstrapConfig{
			AdminEmail:     " Admin@Example.com ",
			AdminFirstName: "System",
			AdminLastName:  "Admin",
		},
	}
	require.NoError(t, EnsureBootstrapAdmin(db, cfg, node))
	require.NoError(t, EnsureBootstrapAdmin(db, cfg, node))

	var accounts []accountdomain.Account
	require.NoError(t, db.Find(&accounts).Error)
	require.Len(t, accounts, 1)
	assert.Equal(t, "admin@example.com", accounts[0].Email)
	assert.Equal(t, snowflake.ID(7), accounts[0].OrgID)

	var access []accountdomain.SystemAccess
	require.NoError(t, db.Find(&access).Error)
	require.Len(t, access, 1)
	assert.Equal(t, accounts[0].ID, access[0].AccountID)
	assert.Equal(t, "collections", access[0].Type)
}

func TestEnsureBootstrapAdminSkipsWithoutConfig(t *testing.T) {
	assert.NoError(t, EnsureBootstrapAdmin(&gorm.DB{}, config.Config{}, nil))
	assert.Error(t, EnsureBootstrapAdmin(nil, config.Config{}, nil))
}
