package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/sidhant-sriv/home-catalog/models"
	"gorm.io/gorm"
)

func ListItemGroups(ctx context.Context, db *gorm.DB) ([]models.ItemGroup, error) {
	var groups []models.ItemGroup
	if err := db.WithContext(ctx).Order("title").Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("failed to list item groups: %w", err)
	}
	return groups, nil
}

func GetItemGroup(ctx context.Context, db *gorm.DB, id uint) (*models.ItemGroup, error) {
	var group models.ItemGroup
	err := db.WithContext(ctx).First(&group, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load item group: %w", err)
	}
	return &group, nil
}

// CreateItemGroup returns the item group with the given title, creating it
// when none exists yet.
func CreateItemGroup(ctx context.Context, db *gorm.DB, rawTitle string) (*models.ItemGroup, error) {
	title, verr := cleanName("title", rawTitle)
	if verr != nil {
		return nil, verr
	}
	var group models.ItemGroup
	if err := db.WithContext(ctx).Where(models.ItemGroup{Title: title}).FirstOrCreate(&group).Error; err != nil {
		return nil, fmt.Errorf("failed to create item group: %w", err)
	}
	return &group, nil
}

// RenameItemGroup retitles a shared item group. Item groups are global, so
// only superusers may change them.
func RenameItemGroup(ctx context.Context, db *gorm.DB, user *models.User, id uint, rawTitle string) (*models.ItemGroup, error) {
	if !user.IsSuperuser {
		return nil, ErrForbidden
	}
	group, err := GetItemGroup(ctx, db, id)
	if err != nil {
		return nil, err
	}
	title, verr := cleanName("title", rawTitle)
	if verr != nil {
		return nil, verr
	}
	group.Title = title
	if err := db.WithContext(ctx).Save(group).Error; err != nil {
		return nil, fmt.Errorf("failed to update item group: %w", err)
	}
	return group, nil
}

// DeleteItemGroup removes an item group no definition refers to.
func DeleteItemGroup(ctx context.Context, db *gorm.DB, user *models.User, id uint) error {
	if !user.IsSuperuser {
		return ErrForbidden
	}
	group, err := GetItemGroup(ctx, db, id)
	if err != nil {
		return err
	}

	var linked int64
	if err := db.WithContext(ctx).Table("item_definition_groups").Where("item_group_id = ?", group.ID).Count(&linked).Error; err != nil {
		return fmt.Errorf("failed to count linked definitions: %w", err)
	}
	if linked > 0 {
		return ErrItemGroupInUse
	}
	if err := db.WithContext(ctx).Delete(group).Error; err != nil {
		return fmt.Errorf("failed to delete item group: %w", err)
	}
	return nil
}
