package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/sidhant-sriv/home-catalog/models"
	"gorm.io/gorm"
)

// Item is an item definition annotated with its status in one catalog group.
type Item struct {
	models.ItemDefinition
	EntryID *uint   `json:"entry_id"`
	ToBuy   bool    `json:"to_buy"`
	Count   float64 `json:"count"`
}

func itemsQuery(ctx context.Context, db *gorm.DB, terms []string) *gorm.DB {
	return db.WithContext(ctx).Model(&models.ItemDefinition{}).Scopes(SearchScope(terms))
}

// ListItems returns one page of item definitions matching the search terms,
// annotated with the buy status in group (which may be nil).
func ListItems(ctx context.Context, db *gorm.DB, group *models.CatalogGroup, terms []string, page Page) ([]Item, int64, error) {
	var total int64
	if err := itemsQuery(ctx, db, terms).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}

	var defs []models.ItemDefinition
	q := itemsQuery(ctx, db, terms).
		Preload("Groups", func(db *gorm.DB) *gorm.DB { return db.Order("item_groups.title") }).
		Order("item_definitions.name")
	if err := page.apply(q).Find(&defs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list items: %w", err)
	}

	items, err := annotate(ctx, db, group, defs)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// GetItem returns one item definition annotated with its status in group.
func GetItem(ctx context.Context, db *gorm.DB, group *models.CatalogGroup, id uint) (*Item, error) {
	var def models.ItemDefinition
	err := db.WithContext(ctx).
		Preload("Groups", func(db *gorm.DB) *gorm.DB { return db.Order("item_groups.title") }).
		First(&def, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load item: %w", err)
	}
	items, err := annotate(ctx, db, group, []models.ItemDefinition{def})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

func annotate(ctx context.Context, db *gorm.DB, group *models.CatalogGroup, defs []models.ItemDefinition) ([]Item, error) {
	items := make([]Item, len(defs))
	for i, d := range defs {
		items[i] = Item{ItemDefinition: d}
	}
	if group == nil || len(defs) == 0 {
		return items, nil
	}

	ids := make([]uint, len(defs))
	for i, d := range defs {
		ids[i] = d.ID
	}
	var entries []models.CatalogEntry
	err := db.WithContext(ctx).
		Where("catalog_group_id = ? AND item_definition_id IN ?", group.ID, ids).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}

	byDef := make(map[uint]models.CatalogEntry, len(entries))
	for _, e := range entries {
		byDef[e.ItemDefinitionID] = e
	}
	for i := range items {
		if e, ok := byDef[items[i].ID]; ok {
			id := e.ID
			items[i].EntryID = &id
			items[i].ToBuy = e.ToBuy
			items[i].Count = e.Count
		}
	}
	return items, nil
}
