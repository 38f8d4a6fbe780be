package pagination

import (
	"context"
	"errors"
	"sync"
)

// RangeFetcher loads one page of items and the exact total count.
type RangeFetcher[T any] func(ctx context.Context, r Range) ([]T, int64, error)

var ErrNilFetcher = errors.New("pagination: nil fetcher")

// QueryState accumulates pages of a single listing for one consumer.
// Refresh starts over from the first page; LoadMore appends the next one.
type QueryState[T any] struct {
	mu       sync.Mutex
	fetch    RangeFetcher[T]
	pageSize int
	items    []T
	total    int64
	loaded   bool
}

func NewQueryState[T any](fetch RangeFetcher[T], pageSize int) *QueryState[T] {
	return &QueryState[T]{
		fetch:    fetch,
		pageSize: Range{Limit: pageSize}.Normalize().Limit,
	}
}

// Refresh discards accumulated items and loads the first page.
func (q *QueryState[T]) Refresh(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.fetch == nil {
		return ErrNilFetcher
	}
	items, total, err := q.fetch(ctx, Range{Offset: 0, Limit: q.pageSize})
	if err != nil {
		return err
	}
	q.items = append([]T(nil), items...)
	q.total = total
	q.loaded = true
	return nil
}

// LoadMore appends the next page. It returns false when nothing was left to load.
func (q *QueryState[T]) LoadMore(ctx context.Context) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.fetch == nil {
		return false, ErrNilFetcher
	}
	if q.loaded && int64(len(q.items)) >= q.total {
		return false, nil
	}
	items, total, err := q.fetch(ctx, Range{Offset: len(q.items), Limit: q.pageSize})
	if err != nil {
		return false, err
	}
	q.items = append(q.items, items...)
	q.total = total
	q.loaded = true
	return len(items) > 0, nil
}

// LoadAll pages until every row counted by the fetcher is loaded.
func (q *QueryState[T]) LoadAll(ctx context.Context) ([]T, error) {
	if err := q.Refresh(ctx); err != nil {
		return nil, err
	}
	for q.HasMore() {
		more, err := q.LoadMore(ctx)
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
	}
	return q.CurrentItems(), nil
}

func (q *QueryState[T]) CurrentItems() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]T(nil), q.items...)
}

func (q *QueryState[T]) Total() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.total
}

func (q *QueryState[T]) HasMore() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return !q.loaded || int64(len(q.items)) < q.total
}
