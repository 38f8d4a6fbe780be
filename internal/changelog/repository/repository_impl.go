package repository

import (
	"context"

	"github.com/smallbiznis/collections/internal/changelog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.ChangeLog) error {
	if entry == nil {
		return nil
	}
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.ChangeLog, error) {
	var logs []*domain.ChangeLog
	stmt := db.WithContext(ctx).
		Table("change_logs").
		Select("change_logs.*, accounts.first_name AS actor_first_name, accounts.last_name AS actor_last_name").
		Joins("LEFT JOIN accounts ON accounts.id = change_logs.actor_id").
		Where("change_logs.org_id = ?", filter.OrgID)

	if filter.Ref != nil {
		stmt = stmt.Where("change_logs.entity_kind = ? AND change_logs.entity_id = ?", filter.Ref.Kind, filter.Ref.ID)
	}
	if filter.Cursor != nil {
		stmt = stmt.Where("(change_logs.created_at < ?) OR (change_logs.created_at = ? AND change_logs.id < ?)",
			filter.Cursor.CreatedAt,
			filter.Cursor.CreatedAt,
			filter.Cursor.ID,
		)
	}

	stmt = stmt.Order("change_logs.created_at desc, change_logs.id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	if err := stmt.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
