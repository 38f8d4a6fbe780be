package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, renter *Renter) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Renter, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Renter, int64, error)
	Update(ctx context.Context, db *gorm.DB, renter *Renter) error
	OccupiedStalls(ctx context.Context, db *gorm.DB, orgID snowflake.ID, renterIDs []snowflake.ID) ([]OccupiedStall, error)
	// StallOccupant reports whether the stall exists and who occupies it.
	StallOccupant(ctx context.Context, db *gorm.DB, orgID, stallID snowflake.ID) (bool, *snowflake.ID, error)
	// AssignStall vacates any stall held by the renter, then occupies stallID when set.
	AssignStall(ctx context.Context, db *gorm.DB, orgID, renterID snowflake.ID, stallID *snowflake.ID) error
}
