package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, account *Account) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Account, error)
	FindByEmail(ctx context.Context, db *gorm.DB, orgID snowflake.ID, email string) (*Account, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Account, int64, error)
	Update(ctx context.Context, db *gorm.DB, account *Account) error

	InsertAccess(ctx context.Context, db *gorm.DB, access *SystemAccess) error
	DeleteAccess(ctx context.Context, db *gorm.DB, orgID, accountID snowflake.ID, system string) (int64, error)
	// AccessHolders returns the subset of accountIDs that hold access to system.
	AccessHolders(ctx context.Context, db *gorm.DB, orgID snowflake.ID, system string, accountIDs []snowflake.ID) ([]snowflake.ID, error)
}
