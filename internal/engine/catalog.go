package engine

import (
	"context"
	"strings"

	"restaurant-pos/internal/apperr"
	"restaurant-pos/internal/models"
	"restaurant-pos/internal/store"
	"restaurant-pos/internal/validation"
)

// MenuItemPatch holds the fields to change on a menu item; nil means keep
type MenuItemPatch struct {
	Title       *string          `json:"title,omitempty"`
	Image       *string          `json:"image,omitempty"`
	Price       *models.Money    `json:"price,omitempty"`
	Discount    *int             `json:"discount,omitempty"`
	Type        *models.FoodType `json:"type,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Description *string          `json:"description,omitempty"`
	Ingredients *[]string        `json:"ingredients,omitempty"`
	Allergens   *[]string        `json:"allergens,omitempty"`
	Available   *bool            `json:"available,omitempty"`
}

func (p MenuItemPatch) apply(m *models.MenuItem) {
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Image != nil {
		m.Image = *p.Image
	}
	if p.Price != nil {
		m.Price = *p.Price
	}
	if p.Discount != nil {
		m.Discount = *p.Discount
	}
	if p.Type != nil {
		m.Type = *p.Type
	}
	if p.Category != nil {
		m.Category = *p.Category
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	if p.Ingredients != nil {
		m.Ingredients = append([]string(nil), (*p.Ingredients)...)
	}
	if p.Allergens != nil {
		m.Allergens = append([]string(nil), (*p.Allergens)...)
	}
	if p.Available != nil {
		m.Available = *p.Available
	}
}

// ListMenuItems returns the items of a category, given by id or label.
// An empty category or "all" returns every item.
func (e *Engine) ListMenuItems(ctx context.Context, category string) ([]models.MenuItem, error) {
	return e.SearchMenuItems(ctx, "", category)
}

// SearchMenuItems filters by category and a case-insensitive substring of
// the title or description
func (e *Engine) SearchMenuItems(ctx context.Context, query, category string) ([]models.MenuItem, error) {
	var out []models.MenuItem
	err := e.view(ctx, func(r store.Repos) error {
		label, err := categoryLabel(ctx, r, category)
		if err != nil {
			return err
		}
		items, err := r.MenuItems().List(ctx)
		if err != nil {
			return err
		}
		q := strings.ToLower(strings.TrimSpace(query))
		for _, item := range items {
			if label != "" && item.Category != label {
				continue
			}
			if q != "" && !strings.Contains(strings.ToLower(item.Title), q) &&
				!strings.Contains(strings.ToLower(item.Description), q) {
				continue
			}
			out = append(out, item)
		}
		return nil
	})
	return out, err
}

// categoryLabel resolves a category id or label to the label items carry.
// Unknown names are used verbatim so free-form categories still filter.
func categoryLabel(ctx context.Context, r store.Repos, category string) (string, error) {
	if category == "" || category == models.CategoryAll {
		return "", nil
	}
	c, ok, err := r.Categories().Get(ctx, category)
	if err != nil {
		return "", err
	}
	if ok {
		return c.Label, nil
	}
	return category, nil
}

// GetMenuItem returns one menu item
func (e *Engine) GetMenuItem(ctx context.Context, id string) (models.MenuItem, error) {
	var item models.MenuItem
	err := e.view(ctx, func(r store.Repos) error {
		var err error
		item, err = getMenuItem(ctx, r, id)
		return err
	})
	return item, err
}

func getMenuItem(ctx context.Context, r store.Repos, id string) (models.MenuItem, error) {
	item, ok, err := r.MenuItems().Get(ctx, id)
	if err != nil {
		return item, err
	}
	if !ok {
		return item, apperr.Wrap(apperr.ErrMenuItemNotFound, "menu item %s not found", id)
	}
	return item, nil
}

// CreateMenuItem adds an item to the catalog with a generated id
func (e *Engine) CreateMenuItem(ctx context.Context, item models.MenuItem) (models.MenuItem, error) {
	item.ID = e.newID()
	if err := validation.ValidateMenuItem(item); err != nil {
		return models.MenuItem{}, apperr.Invalid(err)
	}

	err := e.update(ctx, "menu_item_created", func(r store.Repos) ([]models.Event, error) {
		return nil, r.MenuItems().Save(ctx, item)
	})
	if err != nil {
		return models.MenuItem{}, err
	}
	return item, nil
}

// UpdateMenuItem changes catalog fields. Placed orders keep their own copy
// of the item and are not affected.
func (e *Engine) UpdateMenuItem(ctx context.Context, id string, patch MenuItemPatch) (models.MenuItem, error) {
	var item models.MenuItem
	err := e.update(ctx, "menu_item_updated", func(r store.Repos) ([]models.Event, error) {
		var err error
		item, err = getMenuItem(ctx, r, id)
		if err != nil {
			return nil, err
		}
		patch.apply(&item)
		if err := validation.ValidateMenuItem(item); err != nil {
			return nil, apperr.Invalid(err)
		}
		return nil, r.MenuItems().Save(ctx, item)
	})
	return item, err
}

// DeleteMenuItem removes an item from the catalog
func (e *Engine) DeleteMenuItem(ctx context.Context, id string) error {
	return e.update(ctx, "menu_item_deleted", func(r store.Repos) ([]models.Event, error) {
		if _, err := getMenuItem(ctx, r, id); err != nil {
			return nil, err
		}
		return nil, r.MenuItems().Delete(ctx, id)
	})
}

// ListCategories returns the "all" pseudo-category followed by every stored
// category, with item counts computed from the current catalog
func (e *Engine) ListCategories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	err := e.view(ctx, func(r store.Repos) error {
		items, err := r.MenuItems().List(ctx)
		if err != nil {
			return err
		}
		categories, err := r.Categories().List(ctx)
		if err != nil {
			return err
		}

		counts := make(map[string]int)
		for _, item := range items {
			counts[item.Category]++
		}

		out = append(out, models.Category{ID: models.CategoryAll, Icon: "Grid", Label: "All", Items: len(items)})
		for _, c := range categories {
			c.Items = counts[c.Label]
			out = append(out, c)
		}
		return nil
	})
	return out, err
}
