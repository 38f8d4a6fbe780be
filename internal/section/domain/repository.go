package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, section *Section) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Section, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Section, int64, error)
	Update(ctx context.Context, db *gorm.DB, section *Section) error
	// LocationNames maps location ids to names; unknown ids are absent.
	LocationNames(ctx context.Context, db *gorm.DB, orgID snowflake.ID, ids []snowflake.ID) (map[snowflake.ID]string, error)
}
