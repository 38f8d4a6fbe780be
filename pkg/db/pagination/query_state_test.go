package pagination

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sliceFetcher(rows []int, calls *int) RangeFetcher[int] {
	return func(ctx context.Context, r Range) ([]int, int64, error) {
		*calls++
		if r.Offset >= len(rows) {
			return nil, int64(len(rows)), nil
		}
		end := r.Offset + r.Limit
		if end > len(rows) {
			end = len(rows)
		}
		return rows[r.Offset:end], int64(len(rows)), nil
	}
}

func TestQueryStateRefreshAndLoadMore(t *testing.T) {
	calls := 0
	state := NewQueryState(sliceFetcher([]int{1, 2, 3, 4, 5}, &calls), 2)
	ctx := context.Background()

	require.NoError(t, state.Refresh(ctx))
	assert.Equal(t, []int{1, 2}, state.CurrentItems())
	assert.Equal(t, int64(5), state.Total())
	assert.True(t, state.HasMore())

	more, err := state.LoadMore(ctx)
	require.NoError(t, err)
	assert.True(t, more)
	assert.Equal(t, []int{1, 2, 3, 4}, state.CurrentItems())

	more, err = state.LoadMore(ctx)
	require.NoError(t, err)
	assert.True(t, more)
	assert.False(t, state.HasMore())

	more, err = state.LoadMore(ctx)
	require.NoError(t, err)
	assert.False(t, more)
	assert.Equal(t, 3, calls)

	require.NoError(t, state.Refresh(ctx))
	assert.Equal(t, []int{1, 2}, state.CurrentItems())
}

func TestQueryStateLoadAll(t *testing.T) {
	calls := 0
	state := NewQueryState(sliceFetcher([]int{1, 2, 3, 4, 5, 6, 7}, &calls), 3)

	items, err := state.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, items)
	assert.Equal(t, 3, calls)
}

func TestQueryStateFetchError(t *testing.T) {
	boom := errors.New("boom")
	state := NewQueryState(func(ctx context.Context, r Range) ([]string, int64, error) {
		return nil, 0, boom
	}, 10)

	assert.ErrorIs(t, state.Refresh(context.Background()), boom)
	assert.Empty(t, state.CurrentItems())
}

func TestBuildRangePage(t *testing.T) {
	page := BuildRangePage(Range{Offset: 10, Limit: 10}, 10, 25)
	assert.True(t, page.HasMore)
	assert.Equal(t, int64(25), page.Total)

	page = BuildRangePage(Range{Offset: 20, Limit: 10}, 5, 25)
	assert.False(t, page.HasMore)

	assert.Equal(t, Range{Offset: 0, Limit: DefaultRangeLimit}, Range{Offset: -3}.Normalize())
	assert.Equal(t, MaxRangeLimit, Range{Limit: 10000}.Normalize().Limit)
}

func TestCursorRoundTrip(t *testing.T) {
	at := time.Date(2024, 2, 1, 8, 30, 0, 0, time.UTC)
	token, err := EncodeCursor(Cursor{ID: 42, CreatedAt: at})
	require.NoError(t, err)
	assert.NotContains(t, token, "=")

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(42), cursor.ID)
	assert.True(t, at.Equal(cursor.CreatedAt))

	cursor, err = DecodeCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, cursor)

	_, err = DecodeCursor("not base64!")
	assert.ErrorIs(t, err, ErrInvalidCursor)
}

func TestPaginate(t *testing.T) {
	type row struct{ id snowflake.ID }
	rows := []*row{{id: 3}, {id: 2}, {id: 1}}
	cursorOf := func(r *row) Cursor { return Cursor{ID: r.id, CreatedAt: time.Unix(0, 0)} }

	items, info := Paginate(rows, 2, cursorOf)
	assert.Len(t, items, 2)
	assert.True(t, info.HasMore)
	cursor, err := DecodeCursor(info.NextPageToken)
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(2), cursor.ID)

	items, info = Paginate(rows, 5, cursorOf)
	assert.Len(t, items, 3)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)
}

func TestPaginationSize(t *testing.T) {
	assert.Equal(t, DefaultPageSize, Pagination{}.Size())
	assert.Equal(t, MaxPageSize, Pagination{PageSize: 9000}.Size())
	assert.Equal(t, 7, Pagination{PageSize: 7}.Size())
}
