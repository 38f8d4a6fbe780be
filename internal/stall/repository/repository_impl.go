package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	referencedomain "github.com/smallbiznis/collections/internal/reference/domain"
	"github.com/smallbiznis/collections/internal/stall/domain"
	"github.com/smallbiznis/collections/pkg/db/option"
	"github.com/smallbiznis/collections/pkg/repository"
	"gorm.io/gorm"
)

const rowColumns = `stalls.*,
	sections.name AS section_name,
	locations.name AS location_name,
	renters.name AS renter_name,
	renters.status AS renter_status`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, stall *domain.Stall) error {
	return repository.ProvideStore[domain.Stall](db).Create(ctx, stall)
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Stall, error) {
	return repository.ProvideStore[domain.Stall](db).FindOne(ctx, &domain.Stall{ID: id, OrgID: orgID})
}

func (r *repo) FindRow(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.StallRow, error) {
	var row domain.StallRow
	err := rowQuery(ctx, db, orgID).
		Where("stalls.id = ?", id).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.StallRow, int64, error) {
	opts := filterOptions(filter)

	var total int64
	count := db.WithContext(ctx).Table("stalls").Where("stalls.org_id = ?", filter.OrgID)
	for _, opt := range opts {
		count = opt.Apply(count)
	}
	if err := count.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []*domain.StallRow{}, 0, nil
	}

	var rows []*domain.StallRow
	stmt := rowQuery(ctx, db, filter.OrgID)
	for _, opt := range opts {
		stmt = opt.Apply(stmt)
	}
	stmt = option.ApplyRange(filter.Range).Apply(stmt)
	if err := stmt.Order("stalls.id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, stall *domain.Stall) error {
	_, err := repository.ProvideStore[domain.Stall](db).Update(ctx,
		&domain.Stall{ID: stall.ID, OrgID: stall.OrgID},
		map[string]any{
			"section_id":               stall.SectionID,
			"renter_id":                stall.RenterID,
			"name":                     stall.Name,
			"rent":                     stall.Rent,
			"rent_type":                stall.RentType,
			"occupancy_fee":            stall.OccupancyFee,
			"occupancy_renewal_period": stall.OccupancyRenewalPeriod,
			"status":                   stall.Status,
			"updated_at":               stall.UpdatedAt,
		},
	)
	return err
}

func (r *repo) SectionExists(ctx context.Context, db *gorm.DB, orgID, sectionID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Table("sections").
		Where("org_id = ? AND id = ?", orgID, sectionID).
		Count(&count).Error
	return count > 0, err
}

func (r *repo) RenterStatus(ctx context.Context, db *gorm.DB, orgID, renterID snowflake.ID) (referencedomain.Status, error) {
	var statuses []string
	err := db.WithContext(ctx).
		Table("renters").
		Where("org_id = ? AND id = ?", orgID, renterID).
		Pluck("status", &statuses).Error
	if err != nil || len(statuses) == 0 {
		return "", err
	}
	return referencedomain.Status(statuses[0]), nil
}

func (r *repo) OccupiedBy(ctx context.Context, db *gorm.DB, orgID, renterID snowflake.ID) (*snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).
		Table("stalls").
		Where("org_id = ? AND renter_id = ?", orgID, renterID).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	return &ids[0], nil
}

func rowQuery(ctx context.Context, db *gorm.DB, orgID snowflake.ID) *gorm.DB {
	return db.WithContext(ctx).
		Table("stalls").
		Select(rowColumns).
		Joins("LEFT JOIN sections ON sections.id = stalls.section_id").
		Joins("LEFT JOIN locations ON locations.id = sections.location_id").
		Joins("LEFT JOIN renters ON renters.id = stalls.renter_id").
		Where("stalls.org_id = ?", orgID)
}

func filterOptions(filter domain.ListFilter) []option.QueryOption {
	var opts []option.QueryOption
	if filter.SectionID != nil {
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field: "stalls.section_id", Operator: option.Equal, Value: *filter.SectionID,
		}))
	}
	if filter.RenterID != nil {
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field: "stalls.renter_id", Operator: option.Equal, Value: *filter.RenterID,
		}))
	}
	if filter.Status != "" {
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field: "stalls.status", Operator: option.Equal, Value: filter.Status,
		}))
	}
	return opts
}
