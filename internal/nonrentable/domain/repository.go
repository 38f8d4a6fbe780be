package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, item *Nonrentable) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Nonrentable, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Nonrentable, int64, error)
	Update(ctx context.Context, db *gorm.DB, item *Nonrentable) error
	SectionNames(ctx context.Context, db *gorm.DB, orgID snowflake.ID, ids []snowflake.ID) (map[snowflake.ID]string, error)
}
