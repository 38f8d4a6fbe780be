package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collections/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	BatchInsert(ctx context.Context, db *gorm.DB, invoices []*Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Invoice, error)
	FindRow(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*InvoiceRow, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]InvoiceRow, int64, error)
	Update(ctx context.Context, db *gorm.DB, invoice *Invoice) error

	FindRenter(ctx context.Context, db *gorm.DB, orgID, renterID snowflake.ID) (*RenterSummary, error)

	// BillableUnits returns every active stall with its occupant, ordered by id.
	BillableUnits(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]BillableUnit, error)
	FindGeneration(ctx context.Context, db *gorm.DB, orgID snowflake.ID, period string) (*GenerationRecord, error)
	InsertGeneration(ctx context.Context, db *gorm.DB, record *GenerationRecord) error
	ListGenerations(ctx context.Context, db *gorm.DB, orgID snowflake.ID, page pagination.Range) ([]*GenerationRecord, int64, error)
}
