package repository

import (
	"context"
	"strings"

	"github.com/smallbiznis/collections/internal/errorlog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.ErrorLog) error {
	if entry == nil {
		return nil
	}
	return db.WithContext(ctx).Create(entry).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.ErrorLog, error) {
	var logs []*domain.ErrorLog
	stmt := db.WithContext(ctx).Model(&domain.ErrorLog{}).
		Where("org_id = ?", filter.OrgID)

	if transaction := strings.TrimSpace(filter.Transaction); transaction != "" {
		stmt = stmt.Where("transaction_name = ?", transaction)
	}
	if table := strings.TrimSpace(filter.Table); table != "" {
		stmt = stmt.Where("table_name = ?", table)
	}
	if filter.Cursor != nil {
		stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt,
			filter.Cursor.CreatedAt,
			filter.Cursor.ID,
		)
	}

	stmt = stmt.Order("created_at desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	if err := stmt.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
