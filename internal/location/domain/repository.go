package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, location *Location) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Location, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Location, int64, error)
	ListSections(ctx context.Context, db *gorm.DB, orgID snowflake.ID, locationIDs []snowflake.ID) ([]SectionSummary, error)
	Update(ctx context.Context, db *gorm.DB, location *Location) error
}
