package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/collections/internal/invoice/domain"
	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
	"github.com/smallbiznis/collections/pkg/db/option"
	"github.com/smallbiznis/collections/pkg/db/pagination"
	"github.com/smallbiznis/collections/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return repository.ProvideStore[domain.Invoice](db).Create(ctx, invoice)
}

func (r *repo) BatchInsert(ctx context.Context, db *gorm.DB, invoices []*domain.Invoice) error {
	return repository.ProvideStore[domain.Invoice](db).BatchCreate(ctx, invoices)
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Invoice, error) {
	return repository.ProvideStore[domain.Invoice](db).FindOne(ctx, &domain.Invoice{ID: id, OrgID: orgID})
}

func (r *repo) FindRow(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.InvoiceRow, error) {
	var row domain.InvoiceRow
	err := rowQuery(ctx, db, orgID).
		Where("invoices.id = ?", id).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.InvoiceRow, int64, error) {
	var opts []option.QueryOption
	if filter.RenterID != nil {
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "invoices.renter_id", Operator: option.Equal, Value: *filter.RenterID}))
	}

	var total int64
	count := db.WithContext(ctx).Table("invoices").Where("invoices.org_id = ?", filter.OrgID)
	for _, opt := range opts {
		count = opt.Apply(count)
	}
	if err := count.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.InvoiceRow{}, 0, nil
	}

	var rows []domain.InvoiceRow
	stmt := rowQuery(ctx, db, filter.OrgID)
	for _, opt := range opts {
		stmt = opt.Apply(stmt)
	}
	stmt = option.ApplyRange(filter.Range).Apply(stmt)
	if err := stmt.Order("invoices.id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	_, err := repository.ProvideStore[domain.Invoice](db).Update(ctx,
		&domain.Invoice{ID: invoice.ID, OrgID: invoice.OrgID},
		map[string]any{
			"renter_id":    invoice.RenterID,
			"type":         invoice.Type,
			"invoice_date": invoice.InvoiceDate,
			"due_date":     invoice.DueDate,
			"amount":       invoice.Amount,
			"updated_at":   invoice.UpdatedAt,
		},
	)
	return err
}

func (r *repo) FindRenter(ctx context.Context, db *gorm.DB, orgID, renterID snowflake.ID) (*domain.RenterSummary, error) {
	var summary domain.RenterSummary
	err := db.WithContext(ctx).
		Table("renters").
		Select("id, name, status").
		Where("org_id = ? AND id = ?", orgID, renterID).
		Take(&summary).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &summary, nil
}

type billableRow struct {
	StallID      snowflake.ID
	StallName    string
	Rent         decimal.Decimal
	RentType     string
	RenterID     *snowflake.ID
	RenterStatus *string
}

func (r *repo) BillableUnits(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]domain.BillableUnit, error) {
	var rows []billableRow
	err := db.WithContext(ctx).
		Table("stalls").
		Select(`stalls.id AS stall_id,
			stalls.name AS stall_name,
			stalls.rent AS rent,
			stalls.rent_type AS rent_type,
			renters.id AS renter_id,
			renters.status AS renter_status`).
		Joins("LEFT JOIN renters ON renters.id = stalls.renter_id AND renters.org_id = stalls.org_id").
		Where("stalls.org_id = ? AND stalls.status = ?", orgID, referencedomain.StatusActive).
		Order("stalls.id asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	units := make([]domain.BillableUnit, 0, len(rows))
	for _, row := range rows {
		unit := domain.BillableUnit{
			StallID:   row.StallID,
			StallName: row.StallName,
			Rent:      row.Rent,
			RentType:  referencedomain.RentType(row.RentType),
			RenterID:  row.RenterID,
		}
		if row.RenterStatus != nil {
			status := referencedomain.Status(*row.RenterStatus)
			unit.RenterStatus = &status
		}
		units = append(units, unit)
	}
	return units, nil
}

func (r *repo) FindGeneration(ctx context.Context, db *gorm.DB, orgID snowflake.ID, period string) (*domain.GenerationRecord, error) {
	return repository.ProvideStore[domain.GenerationRecord](db).
		FindOne(ctx, &domain.GenerationRecord{OrgID: orgID, Period: period})
}

func (r *repo) InsertGeneration(ctx context.Context, db *gorm.DB, record *domain.GenerationRecord) error {
	return repository.ProvideStore[domain.GenerationRecord](db).Create(ctx, record)
}

func (r *repo) ListGenerations(ctx context.Context, db *gorm.DB, orgID snowflake.ID, page pagination.Range) ([]*domain.GenerationRecord, int64, error) {
	return repository.ProvideStore[domain.GenerationRecord](db).
		FindPage(ctx, &domain.GenerationRecord{OrgID: orgID}, page)
}

func rowQuery(ctx context.Context, db *gorm.DB, orgID snowflake.ID) *gorm.DB {
	return db.WithContext(ctx).
		Table("invoices").
		Select("invoices.*, renters.name AS renter_name").
		Joins("LEFT JOIN renters ON renters.id = invoices.renter_id").
		Where("invoices.org_id = ?", orgID)
}
