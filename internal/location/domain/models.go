package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
	"github.com/smallbiznis/collections/pkg/db/pagination"
)

type Location struct {
	ID        snowflake.ID           `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID           `gorm:"not null;index" json:"organization_id"`
	Name      string                 `gorm:"not null" json:"name"`
	Status    referencedomain.Status `gorm:"type:varchar(16);not null;default:'Active'" json:"status"`
	CreatedBy *snowflake.ID          `json:"created_by,omitempty"`
	CreatedAt time.Time              `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time              `gorm:"not null" json:"updated_at"`
}

func (Location) TableName() string { return "locations" }

// SectionSummary is the slice of a section shown under its location.
type SectionSummary struct {
	ID         snowflake.ID           `json:"id"`
	LocationID snowflake.ID           `json:"location_id"`
	Name       string                 `json:"name"`
	Status     referencedomain.Status `json:"status"`
}

type LocationRow struct {
	Location
	Sections []SectionSummary `json:"sections"`
}

type ListFilter struct {
	OrgID   snowflake.ID
	Keyword string
	Status  referencedomain.Status
	Range   pagination.Range
}
