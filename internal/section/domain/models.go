package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
	"github.com/smallbiznis/collections/pkg/db/pagination"
)

type Section struct {
	ID         snowflake.ID           `gorm:"primaryKey" json:"id"`
	OrgID      snowflake.ID           `gorm:"not null;index" json:"organization_id"`
	LocationID snowflake.ID           `gorm:"not null;index" json:"location_id"`
	Name       string                 `gorm:"not null" json:"name"`
	Status     referencedomain.Status `gorm:"type:varchar(16);not null;default:'Active'" json:"status"`
	CreatedBy  *snowflake.ID          `json:"created_by,omitempty"`
	CreatedAt  time.Time              `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time              `gorm:"not null" json:"updated_at"`
}

func (Section) TableName() string { return "sections" }

type SectionRow struct {
	Section
	LocationName string `json:"location_name"`
}

type ListFilter struct {
	OrgID      snowflake.ID
	Keyword    string
	Status     referencedomain.Status
	LocationID *snowflake.ID
	Range      pagination.Range
}
