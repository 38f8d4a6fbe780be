package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collections/internal/renter/domain"
	"github.com/smallbiznis/collections/pkg/db/option"
	"github.com/smallbiznis/collections/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, renter *domain.Renter) error {
	return repository.ProvideStore[domain.Renter](db).Create(ctx, renter)
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Renter, error) {
	return repository.ProvideStore[domain.Renter](db).FindOne(ctx, &domain.Renter{ID: id, OrgID: orgID})
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Renter, int64, error) {
	var opts []option.QueryOption
	if filter.ID != nil {
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "id", Operator: option.Equal, Value: *filter.ID}))
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "name", Operator: option.Contains, Value: keyword}))
	}
	if filter.Status != "" {
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "status", Operator: option.Equal, Value: filter.Status}))
	}
	if filter.SectionID != nil {
		sectionID := *filter.SectionID
		opts = append(opts, option.QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
			return db.Where("EXISTS (SELECT 1 FROM stalls WHERE stalls.renter_id = renters.id AND stalls.section_id = ?)", sectionID)
		}))
	}
	return repository.ProvideStore[domain.Renter](db).
		FindPage(ctx, &domain.Renter{OrgID: filter.OrgID}, filter.Range, opts...)
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, renter *domain.Renter) error {
	_, err := repository.ProvideStore[domain.Renter](db).Update(ctx,
		&domain.Renter{ID: renter.ID, OrgID: renter.OrgID},
		map[string]any{
			"name":       renter.Name,
			"status":     renter.Status,
			"updated_at": renter.UpdatedAt,
		},
	)
	return err
}

func (r *repo) OccupiedStalls(ctx context.Context, db *gorm.DB, orgID snowflake.ID, renterIDs []snowflake.ID) ([]domain.OccupiedStall, error) {
	if len(renterIDs) == 0 {
		return nil, nil
	}
	var stalls []domain.OccupiedStall
	err := db.WithContext(ctx).
		Table("stalls").
		Select(`stalls.id, stalls.renter_id, stalls.name, stalls.section_id,
			sections.name AS section_name, locations.name AS location_name,
			stalls.rent, stalls.rent_type, stalls.occupancy_fee, stalls.status`).
		Joins("LEFT JOIN sections ON sections.id = stalls.section_id").
		Joins("LEFT JOIN locations ON locations.id = sections.location_id").
		Where("stalls.org_id = ? AND stalls.renter_id IN ?", orgID, renterIDs).
		Scan(&stalls).Error
	if err != nil {
		return nil, err
	}
	return stalls, nil
}

func (r *repo) StallOccupant(ctx context.Context, db *gorm.DB, orgID, stallID snowflake.ID) (bool, *snowflake.ID, error) {
	var rows []struct {
		ID       snowflake.ID
		RenterID *snowflake.ID
	}
	err := db.WithContext(ctx).
		Table("stalls").
		Select("id, renter_id").
		Where("org_id = ? AND id = ?", orgID, stallID).
		Scan(&rows).Error
	if err != nil || len(rows) == 0 {
		return false, nil, err
	}
	return true, rows[0].RenterID, nil
}

func (r *repo) AssignStall(ctx context.Context, db *gorm.DB, orgID, renterID snowflake.ID, stallID *snowflake.ID) error {
	err := db.WithContext(ctx).
		Table("stalls").
		Where("org_id = ? AND renter_id = ?", orgID, renterID).
		Update("renter_id", nil).Error
	if err != nil {
		return err
	}
	if stallID == nil {
		return nil
	}
	res := db.WithContext(ctx).
		Table("stalls").
		Where("org_id = ? AND id = ? AND renter_id IS NULL", orgID, *stallID).
		Update("renter_id", renterID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrStallOccupied
	}
	return nil
}
