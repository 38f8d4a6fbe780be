package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collections/internal/section/domain"
	"github.com/smallbiznis/collections/pkg/db/option"
	"github.com/smallbiznis/collections/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, section *domain.Section) error {
	return repository.ProvideStore[domain.Section](db).Create(ctx, section)
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Section, error) {
	return repository.ProvideStore[domain.Section](db).FindOne(ctx, &domain.Section{ID: id, OrgID: orgID})
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Section, int64, error) {
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
	if filter.LocationID != nil {
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field:    "location_id",
			Operator: option.Equal,
			Value:    *filter.LocationID,
		}))
	}
	return repository.ProvideStore[domain.Section](db).
		FindPage(ctx, &domain.Section{OrgID: filter.OrgID}, filter.Range, opts...)
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, section *domain.Section) error {
	_, err := repository.ProvideStore[domain.Section](db).Update(ctx,
		&domain.Section{ID: section.ID, OrgID: section.OrgID},
		map[string]any{
			"location_id": section.LocationID,
			"name":        section.Name,
			"status":      section.Status,
			"updated_at":  section.UpdatedAt,
		},
	)
	return err
}

func (r *repo) LocationNames(ctx context.Context, db *gorm.DB, orgID snowflake.ID, ids []snowflake.ID) (map[snowflake.ID]string, error) {
	names := make(map[snowflake.ID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var rows []struct {
		ID   snowflake.ID
		Name string
	}
	err := db.WithContext(ctx).
		Table("locations").
		Select("id, name").
		Where("org_id = ? AND id IN ?", orgID, ids).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}
