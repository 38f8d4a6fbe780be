package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Repository serves the small lookup lists used to populate selects.
type Repository interface {
	ListLocationOptions(ctx context.Context, orgID snowflake.ID) ([]Option, error)
	ListSectionOptions(ctx context.Context, orgID snowflake.ID, locationID *snowflake.ID) ([]Option, error)
	ListActiveRenterOptions(ctx context.Context, orgID snowflake.ID) ([]Option, error)
	ListVacantStallOptions(ctx context.Context, orgID snowflake.ID, sectionID *snowflake.ID) ([]Option, error)
}
