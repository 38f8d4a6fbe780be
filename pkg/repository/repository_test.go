package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/collections/pkg/db/option"
	"github.com/smallbiznis/collections/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type widget struct {
	ID     int64  `gorm:"primaryKey"`
	OrgID  int64  `gorm:"index"`
	Name   string `gorm:"not null"`
	Status string `gorm:"not null"`
}

func newTestStore(t *testing.T) (*gorm.DB, Repository[widget]) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&widget{}))
	return db, ProvideStore[widget](db)
}

func TestStoreFindPageCountsAndOrders(t *testing.T) {
	_, store := newTestStore(t)
	ctx := context.Background()

	rows := []*widget{}
	for i := 1; i <= 7; i++ {
		rows = append(rows, &widget{ID: int64(i), OrgID: 1, Name: fmt.Sprintf("Stall %d", i), Status: "Active"})
	}
	rows = append(rows, &widget{ID: 100, OrgID: 2, Name: "Other org", Status: "Active"})
	require.NoError(t, store.BatchCreate(ctx, rows))

	items, total, err := store.FindPage(ctx, &widget{OrgID: 1}, pagination.Range{Offset: 0, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(7), total)
	require.Len(t, items, 3)
	assert.Equal(t, int64(7), items[0].ID)

	items, total, err = store.FindPage(ctx, &widget{OrgID: 1}, pagination.Range{Offset: 6, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(7), total)
	require.Len(t, items, 1)
	assert.Equal(t, int64(1), items[0].ID)
}

func TestStoreFindWithContainsOperator(t *testing.T) {
	_, store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.BatchCreate(ctx, []*widget{
		{ID: 1, OrgID: 1, Name: "North Wing", Status: "Active"},
		{ID: 2, OrgID: 1, Name: "South Wing", Status: "Inactive"},
		{ID: 3, OrgID: 1, Name: "Food Court", Status: "Active"},
	}))

	items, err := store.Find(ctx, &widget{OrgID: 1}, option.ApplyOperator(option.Condition{
		Field:    "name",
		Operator: option.Contains,
		Value:    "wing",
	}))
	require.NoError(t, err)
	assert.Len(t, items, 2)

	count, err := store.Count(ctx, &widget{OrgID: 1, Status: "Active"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestStoreUpdateAndFindOne(t *testing.T) {
	_, store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, &widget{ID: 1, OrgID: 1, Name: "A", Status: "Active"}))

	affected, err := store.Update(ctx, &widget{ID: 1, OrgID: 1}, map[string]any{"status": "Inactive"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = store.Update(ctx, &widget{ID: 1, OrgID: 2}, map[string]any{"status": "Active"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	item, err := store.FindOne(ctx, &widget{ID: 1})
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "Inactive", item.Status)

	missing, err := store.FindOne(ctx, &widget{ID: 99})
	require.NoError(t, err)
	assert.Nil(t, missing)
}
