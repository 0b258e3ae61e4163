package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-pos/internal/apperr"
	"restaurant-pos/internal/models"
)

func itemIDs(items []models.MenuItem) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}

func TestListCategories_CountsLiveItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cats, err := f.eng.ListCategories(ctx)
	require.NoError(t, err)
	counts := make(map[string]int)
	for _, c := range cats {
		counts[c.ID] = c.Items
	}
	assert.Equal(t, models.CategoryAll, cats[0].ID)
	assert.Equal(t, map[string]int{
		"all": 9, "breakfast": 2, "soups": 2, "pasta": 1, "main-course": 2, "burges": 2,
	}, counts)

	require.NoError(t, f.eng.DeleteMenuItem(ctx, "8"))
	cats, err = f.eng.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, cats[0].Items)
	for _, c := range cats {
		if c.ID == "pasta" {
			assert.Equal(t, 0, c.Items)
		}
	}
}

func TestListMenuItems_ByCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		category string
		want     []string
	}{
		{"", []string{"1", "2", "3", "4", "5", "6", "7", "8", "9"}},
		{"all", []string{"1", "2", "3", "4", "5", "6", "7", "8", "9"}},
		{"soups", []string{"7", "9"}},
		{"Main Course", []string{"3", "5"}},
		{"desserts", nil},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			items, err := f.eng.ListMenuItems(ctx, tt.category)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, items)
				return
			}
			assert.Equal(t, tt.want, itemIDs(items))
		})
	}
}

func TestSearchMenuItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	items, err := f.eng.SearchMenuItems(ctx, "BURGER", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "6"}, itemIDs(items))

	items, err = f.eng.SearchMenuItems(ctx, "guacamole", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, itemIDs(items))

	items, err = f.eng.SearchMenuItems(ctx, "burger", "breakfast")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMenuItemCRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.eng.CreateMenuItem(ctx, models.MenuItem{Title: "Lemonade", Price: money("3.50"), Type: models.Veg, Category: "Breakfast", Available: true})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	_, err = f.eng.CreateMenuItem(ctx, models.MenuItem{Price: money("1"), Type: models.Veg, Category: "Breakfast"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	price := money("4.00")
	updated, err := f.eng.UpdateMenuItem(ctx, created.ID, MenuItemPatch{Price: &price})
	require.NoError(t, err)
	assertMoney(t, "4.00", updated.Price)
	assert.Equal(t, "Lemonade", updated.Title)

	bad := 150
	_, err = f.eng.UpdateMenuItem(ctx, created.ID, MenuItemPatch{Discount: &bad})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	got, err := f.eng.GetMenuItem(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Discount, "rejected patch is not stored")

	require.NoError(t, f.eng.DeleteMenuItem(ctx, created.ID))
	_, err = f.eng.GetMenuItem(ctx, created.ID)
	assert.ErrorIs(t, err, apperr.ErrMenuItemNotFound)
	assert.ErrorIs(t, f.eng.DeleteMenuItem(ctx, created.ID), apperr.ErrMenuItemNotFound)
}

func TestUpdateMenuItem_DoesNotTouchPlacedOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	price := money("99.99")
	_, err := f.eng.UpdateMenuItem(ctx, "1", MenuItemPatch{Price: &price})
	require.NoError(t, err)

	order, err := f.eng.GetOrder(ctx, "1")
	require.NoError(t, err)
	assertMoney(t, "17.99", order.Items[0].Item.Price)
}
