package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collections/internal/nonrentable/domain"
	"github.com/smallbiznis/collections/pkg/db/option"
	"github.com/smallbiznis/collections/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, item *domain.Nonrentable) error {
	return repository.ProvideStore[domain.Nonrentable](db).Create(ctx, item)
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Nonrentable, error) {
	return repository.ProvideStore[domain.Nonrentable](db).FindOne(ctx, &domain.Nonrentable{ID: id, OrgID: orgID})
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Nonrentable, int64, error) {
	var opts []option.QueryOption
	if filter.Status != "" {
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field:    "status",
			Operator: option.Equal,
			Value:    filter.Status,
		}))
	}
	if filter.SectionID != nil {
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field:    "section_id",
			Operator: option.Equal,
			Value:    *filter.SectionID,
		}))
	}
	return repository.ProvideStore[domain.Nonrentable](db).
		FindPage(ctx, &domain.Nonrentable{OrgID: filter.OrgID}, filter.Range, opts...)
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, item *domain.Nonrentable) error {
	_, err := repository.ProvideStore[domain.Nonrentable](db).Update(ctx,
		&domain.Nonrentable{ID: item.ID, OrgID: item.OrgID},
		map[string]any{
			"section_id": item.SectionID,
			"name":       item.Name,
			"status":     item.Status,
			"updated_at": item.UpdatedAt,
		},
	)
	return err
}

func (r *repo) SectionNames(ctx context.Context, db *gorm.DB, orgID snowflake.ID, ids []snowflake.ID) (map[snowflake.ID]string, error) {
	names := make(map[snowflake.ID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var rows []struct {
		ID   snowflake.ID
		Name string
	}
	err := db.WithContext(ctx).
		Table("sections").
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
