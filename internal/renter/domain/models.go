package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
	"github.com/smallbiznis/collections/pkg/db/pagination"
)

type Renter struct {
	ID        snowflake.ID           `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID           `gorm:"not null;index" json:"organization_id"`
	Name      string                 `gorm:"not null" json:"name"`
	Status    referencedomain.Status `gorm:"type:varchar(16);not null;default:'Active'" json:"status"`
	CreatedBy *snowflake.ID          `json:"created_by,omitempty"`
	CreatedAt time.Time              `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time              `gorm:"not null" json:"updated_at"`
}

func (Renter) TableName() string { return "renters" }

// OccupiedStall is the stall a renter occupies together with its rent terms.
type OccupiedStall struct {
	ID           snowflake.ID             `json:"id"`
	RenterID     snowflake.ID             `json:"-"`
	Name         string                   `json:"name"`
	SectionID    snowflake.ID             `json:"section_id"`
	SectionName  string                   `json:"section_name"`
	LocationName string                   `json:"location_name"`
	Rent         decimal.Decimal          `json:"rent"`
	RentType     referencedomain.RentType `json:"rent_type"`
	OccupancyFee decimal.Decimal          `json:"occupancy_fee"`
	Status       referencedomain.Status   `json:"status"`
}

type RenterRow struct {
	Renter
	Stall *OccupiedStall `json:"stall,omitempty"`
}

type ListFilter struct {
	OrgID     snowflake.ID
	ID        *snowflake.ID
	Keyword   string
	Status    referencedomain.Status
	SectionID *snowflake.ID
	Range     pagination.Range
}
