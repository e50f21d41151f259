package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sidhant-sriv/home-catalog/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Page selects one page of a listing. A zero Size disables paging.
type Page struct {
	Number int
	Size   int
}

func (p Page) apply(db *gorm.DB) *gorm.DB {
	if p.Size <= 0 {
		return db
	}
	number := p.Number
	if number < 1 {
		number = 1
	}
	return db.Offset((number - 1) * p.Size).Limit(p.Size)
}

// NewEntry describes an entry to add to a catalog group.
type NewEntry struct {
	Name string
	// GroupIDs attaches existing item groups.
	GroupIDs []uint
	// GroupTitles attaches item groups by title, creating missing ones.
	GroupTitles []string
	// CatalogGroupID overrides the request's current group.
	CatalogGroupID *uint
	ToBuy          bool
	Count          float64
}

// EntryPatch carries the mutable fields of an entry; nil means unchanged.
type EntryPatch struct {
	ToBuy *bool
	Count *float64
}

func entriesQuery(ctx context.Context, db *gorm.DB) *gorm.DB {
	return db.WithContext(ctx).
		Model(&models.CatalogEntry{}).
		Joins("JOIN item_definitions ON item_definitions.id = catalog_entries.item_definition_id")
}

func loadEntries(q *gorm.DB) *gorm.DB {
	return q.Select("catalog_entries.*").
		Preload("ItemDefinition.Groups", func(db *gorm.DB) *gorm.DB { return db.Order("item_groups.title") }).
		Preload("CatalogGroup").
		Order("item_definitions.name").
		Order("catalog_entries.id")
}

// ListEntries returns one page of the entries matching filter and search
// terms, ordered by item name, plus the total match count.
func ListEntries(ctx context.Context, db *gorm.DB, filter Filter, terms []string, page Page) ([]models.CatalogEntry, int64, error) {
	var total int64
	if err := entriesQuery(ctx, db).Scopes(filter.Entries(), SearchScope(terms)).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count entries: %w", err)
	}

	var entries []models.CatalogEntry
	q := loadEntries(entriesQuery(ctx, db).Scopes(filter.Entries(), SearchScope(terms)))
	if err := page.apply(q).Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list entries: %w", err)
	}
	return entries, total, nil
}

// ListPickerGroups returns the item groups offered by the group picker.
func ListPickerGroups(ctx context.Context, db *gorm.DB, filter Filter) ([]models.ItemGroup, error) {
	var groups []models.ItemGroup
	if err := db.WithContext(ctx).Scopes(filter.Groups()).Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("failed to list item groups: %w", err)
	}
	return groups, nil
}

// GetEntry returns an entry of a group the user owns. Entries of other
// groups are reported as missing unless the user is a superuser.
func GetEntry(ctx context.Context, db *gorm.DB, user *models.User, id uint) (*models.CatalogEntry, error) {
	q := loadEntries(entriesQuery(ctx, db)).Where("catalog_entries.id = ?", id)
	if !user.IsSuperuser {
		q = q.Where("catalog_entries.catalog_group_id IN (?)", ownedGroupIDs(db, user.ID))
	}
	var entry models.CatalogEntry
	err := q.First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load entry: %w", err)
	}
	return &entry, nil
}

// CreateEntry adds an item to a catalog group. The item definition and any
// item groups named by title are created on demand.
func CreateEntry(ctx context.Context, db *gorm.DB, user *models.User, current *models.CatalogGroup, in NewEntry, now time.Time) (*models.CatalogEntry, error) {
	target := current
	if in.CatalogGroupID != nil {
		group, err := authorizeGroup(ctx, db, user, *in.CatalogGroupID)
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, fieldError("catalog_group", fmt.Sprintf("Invalid pk %q - object does not exist.", fmt.Sprint(*in.CatalogGroupID)))
		case err != nil:
			return nil, err
		}
		target = group
	}
	if target == nil {
		return nil, fieldError(NonFieldErrors, MsgNoCatalogGroup)
	}

	name, verr := cleanName("name", in.Name)
	if verr != nil {
		return nil, verr
	}
	titles := make([]string, 0, len(in.GroupTitles))
	for _, raw := range in.GroupTitles {
		title, verr := cleanName("new_group", raw)
		if verr != nil {
			return nil, verr
		}
		titles = append(titles, title)
	}

	var entryID uint
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		def, err := definitionByName(tx, name)
		if err != nil {
			return err
		}

		groups, err := resolveItemGroups(tx, in.GroupIDs, titles)
		if err != nil {
			return err
		}
		if len(groups) > 0 {
			if err := tx.Model(def).Association("Groups").Append(groups); err != nil {
				return fmt.Errorf("failed to attach item groups: %w", err)
			}
		}

		var dup int64
		if err := tx.Model(&models.CatalogEntry{}).
			Where("item_definition_id = ? AND catalog_group_id = ?", def.ID, target.ID).
			Count(&dup).Error; err != nil {
			return fmt.Errorf("failed to check for existing entry: %w", err)
		}
		if dup > 0 {
			return fieldError("name", MsgEntryExists)
		}

		entry := models.CatalogEntry{
			ItemDefinitionID: def.ID,
			CatalogGroupID:   &target.ID,
			ToBuy:            in.ToBuy,
			Count:            in.Count,
			PubDate:          now,
		}
		err = tx.Omit(clause.Associations).Create(&entry).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fieldError("name", MsgEntryExists)
		}
		if err != nil {
			return fmt.Errorf("failed to create entry: %w", err)
		}
		entryID = entry.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return GetEntry(ctx, db, user, entryID)
}

// definitionByName returns the item definition called name, inserting it
// first when missing. A concurrent insert of the same name is absorbed by
// the conflict clause and the row is read back.
func definitionByName(tx *gorm.DB, name string) (*models.ItemDefinition, error) {
	def := models.ItemDefinition{Name: name}
	err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Omit(clause.Associations).
		Create(&def).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create item definition: %w", err)
	}
	var found models.ItemDefinition
	if err := tx.Where("name = ?", name).First(&found).Error; err != nil {
		return nil, fmt.Errorf("failed to load item definition: %w", err)
	}
	return &found, nil
}

func resolveItemGroups(tx *gorm.DB, ids []uint, titles []string) ([]models.ItemGroup, error) {
	var groups []models.ItemGroup
	for _, id := range ids {
		var g models.ItemGroup
		err := tx.First(&g, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fieldError("group", fmt.Sprintf(MsgItemGroupNotFound, id))
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load item group: %w", err)
		}
		groups = append(groups, g)
	}
	for _, title := range titles {
		var g models.ItemGroup
		if err := tx.Where(models.ItemGroup{Title: title}).FirstOrCreate(&g).Error; err != nil {
			return nil, fmt.Errorf("failed to find or create item group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// UpdateEntry applies patch to an entry the user may modify.
func UpdateEntry(ctx context.Context, db *gorm.DB, user *models.User, id uint, patch EntryPatch) (*models.CatalogEntry, error) {
	entry, err := GetEntry(ctx, db, user, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if patch.ToBuy != nil {
		updates["to_buy"] = *patch.ToBuy
	}
	if patch.Count != nil {
		updates["count"] = *patch.Count
	}
	if len(updates) > 0 {
		if err := db.WithContext(ctx).Model(&models.CatalogEntry{}).Where("id = ?", entry.ID).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update entry: %w", err)
		}
	}
	return GetEntry(ctx, db, user, id)
}

// ToggleEntry flips the to_buy flag of an entry the user may modify.
func ToggleEntry(ctx context.Context, db *gorm.DB, user *models.User, id uint) (*models.CatalogEntry, error) {
	entry, err := GetEntry(ctx, db, user, id)
	if err != nil {
		return nil, err
	}
	toBuy := !entry.ToBuy
	return UpdateEntry(ctx, db, user, id, EntryPatch{ToBuy: &toBuy})
}

// DeleteEntry removes an entry the user may modify.
func DeleteEntry(ctx context.Context, db *gorm.DB, user *models.User, id uint) error {
	entry, err := GetEntry(ctx, db, user, id)
	if err != nil {
		return err
	}
	if err := db.WithContext(ctx).Delete(&models.CatalogEntry{}, entry.ID).Error; err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

// SetToBuy records the buy status of an item definition within group,
// creating the entry the first time the item is touched.
func SetToBuy(ctx context.Context, db *gorm.DB, group *models.CatalogGroup, definitionID uint, toBuy bool, count *float64, now time.Time) (*models.CatalogEntry, error) {
	if group == nil {
		return nil, fieldError(NonFieldErrors, MsgNoCatalogGroup)
	}

	var def models.ItemDefinition
	err := db.WithContext(ctx).First(&def, definitionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load item definition: %w", err)
	}

	entry := models.CatalogEntry{
		ItemDefinitionID: def.ID,
		CatalogGroupID:   &group.ID,
		ToBuy:            toBuy,
		PubDate:          now,
	}
	update := []string{"to_buy"}
	if count != nil {
		entry.Count = *count
		update = append(update, "count")
	}
	err = db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "item_definition_id"}, {Name: "catalog_group_id"}},
			DoUpdates: clause.AssignmentColumns(update),
		}).
		Create(&entry).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save entry: %w", err)
	}

	var saved models.CatalogEntry
	err = loadEntries(entriesQuery(ctx, db)).
		Where("catalog_entries.item_definition_id = ? AND catalog_entries.catalog_group_id = ?", def.ID, group.ID).
		First(&saved).Error
	if err != nil {
		return nil, fmt.Errorf("failed to reload entry: %w", err)
	}
	return &saved, nil
}
