package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/sidhant-sriv/home-catalog/models"
	"gorm.io/gorm"
)

// IsOwnerOrAdmin is the single authorization predicate for catalog group
// mutations: superusers pass, everybody else must be listed as an owner.
func IsOwnerOrAdmin(ctx context.Context, db *gorm.DB, user *models.User, groupID uint) (bool, error) {
	if user == nil {
		return false, nil
	}
	if user.IsSuperuser {
		return true, nil
	}
	var n int64
	err := db.WithContext(ctx).
		Model(&models.CatalogGroupOwner{}).
		Where("catalog_group_id = ? AND user_id = ?", groupID, user.ID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to check group ownership: %w", err)
	}
	return n > 0, nil
}

// CurrentGroup resolves the catalog group a request acts on: the first group
// the user owns, ordered by name. It returns nil when the user owns none.
func CurrentGroup(ctx context.Context, db *gorm.DB, userID uint) (*models.CatalogGroup, error) {
	var group models.CatalogGroup
	err := db.WithContext(ctx).
		Where("id IN (?)", ownedGroupIDs(db, userID)).
		Order("name").
		First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve catalog group: %w", err)
	}
	return &group, nil
}

// ownedGroupIDs is a subquery yielding the ids of the groups userID owns.
func ownedGroupIDs(db *gorm.DB, userID uint) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true}).
		Model(&models.CatalogGroupOwner{}).
		Select("catalog_group_id").
		Where("user_id = ?", userID)
}

// otherOwnedGroup returns a group owned by userID other than exceptID.
func otherOwnedGroup(tx *gorm.DB, userID, exceptID uint) (*models.CatalogGroup, error) {
	var group models.CatalogGroup
	err := tx.Where("id IN (?) AND id <> ?", ownedGroupIDs(tx, userID), exceptID).
		Order("name").
		First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func findGroup(ctx context.Context, db *gorm.DB, id uint) (*models.CatalogGroup, error) {
	var group models.CatalogGroup
	err := db.WithContext(ctx).First(&group, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog group: %w", err)
	}
	return &group, nil
}

// authorizeGroup loads the group and checks the user may modify it.
func authorizeGroup(ctx context.Context, db *gorm.DB, user *models.User, id uint) (*models.CatalogGroup, error) {
	group, err := findGroup(ctx, db, id)
	if err != nil {
		return nil, err
	}
	ok, err := IsOwnerOrAdmin(ctx, db, user, group.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	return group, nil
}
