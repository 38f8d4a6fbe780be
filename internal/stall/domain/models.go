package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
	"github.com/smallbiznis/collections/pkg/db/pagination"
)

// Stall is a rentable unit. RenterID is the current occupant, if any.
type Stall struct {
	ID                     snowflake.ID             `gorm:"primaryKey" json:"id"`
	OrgID                  snowflake.ID             `gorm:"not null;index" json:"organization_id"`
	SectionID              snowflake.ID             `gorm:"not null;index" json:"section_id"`
	RenterID               *snowflake.ID            `gorm:"index" json:"renter_id,omitempty"`
	Name                   string                   `gorm:"not null" json:"name"`
	Rent                   decimal.Decimal          `gorm:"type:numeric(12,2);not null" json:"rent"`
	RentType               referencedomain.RentType `gorm:"type:varchar(16);not null" json:"rent_type"`
	OccupancyFee           decimal.Decimal          `gorm:"type:numeric(12,2);not null;default:0" json:"occupancy_fee"`
	OccupancyRenewalPeriod string                   `json:"occupancy_renewal_period,omitempty"`
	Status                 referencedomain.Status   `gorm:"type:varchar(16);not null;default:'Active'" json:"status"`
	CreatedBy              *snowflake.ID            `json:"created_by,omitempty"`
	CreatedAt              time.Time                `gorm:"not null" json:"created_at"`
	UpdatedAt              time.Time                `gorm:"not null" json:"updated_at"`
}

func (Stall) TableName() string { return "stalls" }

// StallRow is a stall with the names of what it belongs to and who occupies it.
type StallRow struct {
	Stall
	SectionName  string                  `gorm:"->;-:migration" json:"section_name"`
	LocationName string                  `gorm:"->;-:migration" json:"location_name"`
	RenterName   *string                 `gorm:"->;-:migration" json:"renter_name,omitempty"`
	RenterStatus *referencedomain.Status `gorm:"->;-:migration" json:"renter_status,omitempty"`
}

type ListFilter struct {
	OrgID     snowflake.ID
	SectionID *snowflake.ID
	RenterID  *snowflake.ID
	Status    referencedomain.Status
	Range     pagination.Range
}
