package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collections/internal/account/domain"
	"github.com/smallbiznis/collections/pkg/db/option"
	"github.com/smallbiznis/collections/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, account *domain.Account) error {
	return repository.ProvideStore[domain.Account](db).Create(ctx, account)
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Account, error) {
	return repository.ProvideStore[domain.Account](db).FindOne(ctx, &domain.Account{ID: id, OrgID: orgID})
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, orgID snowflake.ID, email string) (*domain.Account, error) {
	return repository.ProvideStore[domain.Account](db).FindOne(ctx, &domain.Account{OrgID: orgID, Email: email})
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Account, int64, error) {
	var opts []option.QueryOption
	if filter.ID != nil {
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "id", Operator: option.Equal, Value: *filter.ID}))
	}
	if filter.Status != "" {
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "status", Operator: option.Equal, Value: filter.Status}))
	}
	if keyword := strings.ToLower(strings.TrimSpace(filter.Keyword)); keyword != "" {
		like := "%" + keyword + "%"
		opts = append(opts, option.QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
			return db.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?", like, like, like)
		}))
	}
	if len(filter.ExcludeEmails) > 0 {
		excluded := filter.ExcludeEmails
		opts = append(opts, option.QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
			return db.Where("LOWER(email) NOT IN ?", excluded)
		}))
	}
	return repository.ProvideStore[domain.Account](db).
		FindPage(ctx, &domain.Account{OrgID: filter.OrgID}, filter.Range, opts...)
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, account *domain.Account) error {
	_, err := repository.ProvideStore[domain.Account](db).Update(ctx,
		&domain.Account{ID: account.ID, OrgID: account.OrgID},
		map[string]any{
			"first_name":  account.FirstName,
			"middle_name": account.MiddleName,
			"last_name":   account.LastName,
			"email":       account.Email,
			"status":      account.Status,
			"updated_at":  account.UpdatedAt,
		},
	)
	return err
}

func (r *repo) InsertAccess(ctx context.Context, db *gorm.DB, access *domain.SystemAccess) error {
	return repository.ProvideStore[domain.SystemAccess](db).Create(ctx, access)
}

func (r *repo) DeleteAccess(ctx context.Context, db *gorm.DB, orgID, accountID snowflake.ID, system string) (int64, error) {
	res := db.WithContext(ctx).
		Where("org_id = ? AND account_id = ? AND type = ?", orgID, accountID, system).
		Delete(&domain.SystemAccess{})
	return res.RowsAffected, res.Error
}

func (r *repo) AccessHolders(ctx context.Context, db *gorm.DB, orgID snowflake.ID, system string, accountIDs []snowflake.ID) ([]snowflake.ID, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}
	var ids []snowflake.ID
	err := db.WithContext(ctx).
		Model(&domain.SystemAccess{}).
		Where("org_id = ? AND type = ? AND account_id IN ?", orgID, system, accountIDs).
		Pluck("account_id", &ids).Error
	return ids, err
}
