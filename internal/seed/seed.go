package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/collections/internal/account/domain"
	"github.com/smallbiznis/collections/internal/config"
	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
	"github.com/smallbiznis/collections/pkg/rls"
	"gorm.io/gorm"
)

// EnsureBootstrapAdmin creates the configured admin account in the default
// organization and grants it access to this system. It is a no-op when no
// admin email or default organization is configured.
func EnsureBootstrapAdmin(db *gorm.DB, cfg config.Config, node *snowflake.Node) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	email := strings.ToLower(strings.TrimSpace(cfg.Bootstrap.AdminEmail))
	if email == "" || cfg.DefaultOrgID == 0 {
		return nil
	}
	if node == nil {
		return errors.New("seed id generator is required")
	}

	orgID := snowflake.ID(cfg.DefaultOrgID)
	ctx := context.Background()
	return rls.Transaction(ctx, db, orgID, func(tx *gorm.DB) error {
		account, err := ensureAccountTx(ctx, tx, node, orgID, email, cfg.Bootstrap)
		if err != nil {
			return err
		}
		return ensureSystemAccessTx(ctx, tx, node, orgID, account.ID, cfg.SystemTag)
	})
}

func ensureAccountTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, orgID snowflake.ID, email string, bootstrap config.BootstrapConfig) (accountdomain.Account, error) {
	var account accountdomain.Account
	err := tx.WithContext(ctx).
		Where("org_id = ? AND email = ?", orgID, email).
		First(&account).Error
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return accountdomain.Account{}, err
	}

	now := time.Now().UTC()
	account = accountdomain.Account{
		ID:        node.Generate(),
		OrgID:     orgID,
		FirstName: strings.TrimSpace(bootstrap.AdminFirstName),
		LastName:  strings.TrimSpace(bootstrap.AdminLastName),
		Email:     email,
		Status:    referencedomain.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&account).Error; err != nil {
		return accountdomain.Account{}, err
	}
	return account, nil
}

func ensureSystemAccessTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, orgID, accountID snowflake.ID, system string) error {
	var count int64
	err := tx.WithContext(ctx).
		Model(&accountdomain.SystemAccess{}).
		Where("org_id = ? AND account_id = ? AND type = ?", orgID, accountID, system).
		Count(&count).Error
	if err != nil || count > 0 {
		return err
	}

	return tx.WithContext(ctx).Create(&accountdomain.SystemAccess{
		ID:        node.Generate(),
		OrgID:     orgID,
		AccountID: accountID,
		Type:      system,
		CreatedAt: time.Now().UTC(),
	}).Error
}
