package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, stall *Stall) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Stall, error)
	FindRow(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*StallRow, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*StallRow, int64, error)
	Update(ctx context.Context, db *gorm.DB, stall *Stall) error
	SectionExists(ctx context.Context, db *gorm.DB, orgID, sectionID snowflake.ID) (bool, error)
	// RenterStatus returns the renter's status, or "" when the renter does not exist.
	RenterStatus(ctx context.Context, db *gorm.DB, orgID, renterID snowflake.ID) (referencedomain.Status, error)
	// OccupiedBy returns the id of the stall the renter occupies, if any.
	OccupiedBy(ctx context.Context, db *gorm.DB, orgID, renterID snowflake.ID) (*snowflake.ID, error)
}
