package repository

import (
	"context"

	"github.com/smallbiznis/collections/pkg/db/option"
	"github.com/smallbiznis/collections/pkg/db/pagination"
	"gorm.io/gorm"
)

// Repository is a generic gorm-backed store. Zero-valued fields of the query
// struct are ignored, so `&T{OrgID: id}` scopes a call to one organization.
type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	FindPage(ctx context.Context, query *T, r pagination.Range, opts ...option.QueryOption) ([]*T, int64, error)
	Create(ctx context.Context, resource *T) error
	Update(ctx context.Context, query *T, values map[string]any) (int64, error)
	Delete(ctx context.Context, query *T) error
	Count(ctx context.Context, query *T, opts ...option.QueryOption) (int64, error)
	BatchCreate(ctx context.Context, resources []*T) error
}
