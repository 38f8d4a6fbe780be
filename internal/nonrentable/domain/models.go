package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
	"github.com/smallbiznis/collections/pkg/db/pagination"
)

// Nonrentable is space inside a section that is never billed, such as
// restrooms or loading bays.
type Nonrentable struct {
	ID        snowflake.ID           `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID           `gorm:"not null;index" json:"organization_id"`
	SectionID snowflake.ID           `gorm:"not null;index" json:"section_id"`
	Name      string                 `gorm:"not null" json:"name"`
	Status    referencedomain.Status `gorm:"type:varchar(16);not null;default:'Active'" json:"status"`
	CreatedBy *snowflake.ID          `json:"created_by,omitempty"`
	CreatedAt time.Time              `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time              `gorm:"not null" json:"updated_at"`
}

func (Nonrentable) TableName() string { return "nonrentables" }

type NonrentableRow struct {
	Nonrentable
	SectionName string `json:"section_name"`
}

type ListFilter struct {
	OrgID     snowflake.ID
	Status    referencedomain.Status
	SectionID *snowflake.ID
	Range     pagination.Range
}
