package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collections/internal/location/domain"
	"github.com/smallbiznis/collections/pkg/db/option"
	"github.com/smallbiznis/collections/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, location *domain.Location) error {
	return repository.ProvideStore[domain.Location](db).Create(ctx, location)
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Location, error) {
	return repository.ProvideStore[domain.Location](db).FindOne(ctx, &domain.Location{ID: id, OrgID: orgID})
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Location, int64, error) {
	var opts []option.QueryOption
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field:    "name",
			Operator: option.Contains,
			Value:    keyword,
		}))
	}
	if filter.Status != "" {
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field:    "status",
			Operator: option.Equal,
			Value:    filter.Status,
		}))
	}
	return repository.ProvideStore[domain.Location](db).
		FindPage(ctx, &domain.Location{OrgID: filter.OrgID}, filter.Range, opts...)
}

func (r *repo) ListSections(ctx context.Context, db *gorm.DB, orgID snowflake.ID, locationIDs []snowflake.ID) ([]domain.SectionSummary, error) {
	if len(locationIDs) == 0 {
		return nil, nil
	}
	var sections []domain.SectionSummary
	err := db.WithContext(ctx).
		Table("sections").
		Select("id, location_id, name, status").
		Where("org_id = ? AND location_id IN ?", orgID, locationIDs).
		Order("name").
		Scan(&sections).Error
	if err != nil {
		return nil, err
	}
	return sections, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, location *domain.Location) error {
	_, err := repository.ProvideStore[domain.Location](db).Update(ctx,
		&domain.Location{ID: location.ID, OrgID: location.OrgID},
		map[string]any{
			"name":       location.Name,
			"status":     location.Status,
			"updated_at": location.UpdatedAt,
		},
	)
	return err
}
