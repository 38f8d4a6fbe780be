package rls

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

func WithTenant(tx *gorm.DB, tenantID snowflake.ID) error {
	return tx.Exec(
		"SELECT set_config('app.current_org_id', ?, true)",
		tenantID.String(),
	).Error
}

// Transaction runs fn inside a transaction scoped to tenantID. The row level
// security setting only exists on PostgreSQL and is skipped elsewhere.
func Transaction(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector != nil && tx.Dialector.Name() == "postgres" {
			if err := WithTenant(tx, tenantID); err != nil {
				return err
			}
		}
		return fn(tx)
	})
}
