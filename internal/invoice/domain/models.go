// Package domain contains persistence models for rent invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
	"github.com/smallbiznis/collections/pkg/db/pagination"
)

const (
	InvoiceTypeMonthlyRent     = "Monthly Rent"
	InvoiceTypeElectricityBill = "Electricity Bill"
	InvoiceTypeOccupancyFee    = "Occupancy Fee"
)

func InvoiceTypes() []string {
	return []string{InvoiceTypeElectricityBill, InvoiceTypeMonthlyRent, InvoiceTypeOccupancyFee}
}

// Invoice is a charge issued to a renter. Generated marks invoices created
// by a monthly generation run.
type Invoice struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	OrgID         snowflake.ID    `gorm:"not null;index" json:"organization_id"`
	RenterID      snowflake.ID    `gorm:"not null;index" json:"renter_id"`
	Type          string          `gorm:"type:varchar(64);not null" json:"type"`
	InvoiceDate   time.Time       `gorm:"type:date;not null" json:"invoice_date"`
	DueDate       time.Time       `gorm:"type:date;not null" json:"due_date"`
	InvoiceNumber string          `gorm:"type:varchar(32);not null;index" json:"invoice_number"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Generated     bool            `gorm:"not null;default:false" json:"generated"`
	CreatedBy     *snowflake.ID   `json:"created_by,omitempty"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

type InvoiceRow struct {
	Invoice
	RenterName string `gorm:"->;-:migration" json:"renter_name"`
}

// GenerationRecord marks a period as generated. (org_id, period) is unique
// and is the authoritative guard against generating a period twice.
type GenerationRecord struct {
	ID           snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID        snowflake.ID  `gorm:"not null;uniqueIndex:ux_generated_invoices_org_period,priority:1" json:"organization_id"`
	Period       string        `gorm:"type:varchar(8);not null;uniqueIndex:ux_generated_invoices_org_period,priority:2" json:"period"`
	GeneratedBy  *snowflake.ID `json:"generated_by,omitempty"`
	InvoiceCount int           `gorm:"not null;default:0" json:"invoice_count"`
	CreatedAt    time.Time     `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (GenerationRecord) TableName() string { return "generated_invoices" }

// BillableUnit is an active stall joined with its occupant, if any.
type BillableUnit struct {
	StallID      snowflake.ID
	StallName    string
	Rent         decimal.Decimal
	RentType     referencedomain.RentType
	RenterID     *snowflake.ID
	RenterStatus *referencedomain.Status
}

// Billable reports whether the unit has an active occupant.
func (u BillableUnit) Billable() bool {
	return u.RenterID != nil && u.RenterStatus != nil && *u.RenterStatus == referencedomain.StatusActive
}

type ListFilter struct {
	OrgID    snowflake.ID
	RenterID *snowflake.ID
	Range    pagination.Range
}

// RenterSummary is the statement header.
type RenterSummary struct {
	ID     snowflake.ID           `json:"id"`
	Name   string                 `json:"name"`
	Status referencedomain.Status `json:"status"`
}
