package reference

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collections/internal/reference/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

type optionRow struct {
	ID    int64  `gorm:"column:id"`
	Label string `gorm:"column:label"`
}

func (r *repository) ListLocationOptions(ctx context.Context, orgID snowflake.ID) ([]domain.Option, error) {
	var rows []optionRow
	err := r.db.WithContext(ctx).
		Raw(`SELECT id, name AS label FROM locations WHERE org_id = ? AND status = ? ORDER BY name`,
			orgID, domain.StatusActive).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toOptions(rows), nil
}

func (r *repository) ListSectionOptions(ctx context.Context, orgID snowflake.ID, locationID *snowflake.ID) ([]domain.Option, error) {
	stmt := r.db.WithContext(ctx).
		Table("sections").
		Select("id, name AS label").
		Where("org_id = ? AND status = ?", orgID, domain.StatusActive)
	if locationID != nil {
		stmt = stmt.Where("location_id = ?", *locationID)
	}

	var rows []optionRow
	if err := stmt.Order("name").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toOptions(rows), nil
}

func (r *repository) ListActiveRenterOptions(ctx context.Context, orgID snowflake.ID) ([]domain.Option, error) {
	var rows []optionRow
	err := r.db.WithContext(ctx).
		Raw(`SELECT id, name AS label FROM renters WHERE org_id = ? AND status = ? ORDER BY name`,
			orgID, domain.StatusActive).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toOptions(rows), nil
}

func (r *repository) ListVacantStallOptions(ctx context.Context, orgID snowflake.ID, sectionID *snowflake.ID) ([]domain.Option, error) {
	stmt := r.db.WithContext(ctx).
		Table("stalls").
		Select("id, name AS label").
		Where("org_id = ? AND status = ? AND renter_id IS NULL", orgID, domain.StatusActive)
	if sectionID != nil {
		stmt = stmt.Where("section_id = ?", *sectionID)
	}

	var rows []optionRow
	if err := stmt.Order("name").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toOptions(rows), nil
}

func toOptions(rows []optionRow) []domain.Option {
	out := make([]domain.Option, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Option{ID: snowflake.ID(row.ID), Label: row.Label})
	}
	return out
}
