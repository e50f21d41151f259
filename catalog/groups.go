package catalog

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/sidhant-sriv/home-catalog/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxNameLength = 200

var strictPolicy = bluemonday.StrictPolicy()

// cleanName strips markup and surrounding space from user supplied names.
// The strict policy entity-encodes what it keeps, so the result is unescaped
// again: templates escape on output.
func cleanName(field, raw string) (string, ValidationErrors) {
	name := strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(raw)))
	if name == "" {
		return "", fieldError(field, MsgRequired)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", fieldError(field, fmt.Sprintf("Ensure this field has no more than %d characters.", maxNameLength))
	}
	return name, nil
}

// CreateGroup creates a catalog group owned by user. A non-superuser who
// already owns a group is refused.
func CreateGroup(ctx context.Context, db *gorm.DB, user *models.User, rawName string) (*models.CatalogGroup, error) {
	name, verr := cleanName("name", rawName)
	if verr != nil {
		return nil, verr
	}

	var group *models.CatalogGroup
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if !user.IsSuperuser {
			var owned int64
			if err := tx.Model(&models.CatalogGroupOwner{}).Where("user_id = ?", user.ID).Count(&owned).Error; err != nil {
				return fmt.Errorf("failed to count owned groups: %w", err)
			}
			if owned > 0 {
				return fieldError(NonFieldErrors, MsgSingleGroup)
			}
		}
		if err := checkGroupName(tx, name, 0); err != nil {
			return err
		}

		group = &models.CatalogGroup{Name: name}
		if err := tx.Omit(clause.Associations).Create(group).Error; err != nil {
			return nameTaken(err, "failed to create catalog group")
		}
		return addOwner(tx, group.ID, user.ID)
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

func checkGroupName(tx *gorm.DB, name string, exceptID uint) error {
	var n int64
	q := tx.Model(&models.CatalogGroup{}).Where("name = ?", name)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return fmt.Errorf("failed to check group name: %w", err)
	}
	if n > 0 {
		return fieldError("name", MsgGroupNameTaken)
	}
	return nil
}

// nameTaken reports a unique name violation as a field error. The name check
// runs before the write, so this only fires when two requests race for it.
func nameTaken(err error, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fieldError("name", MsgGroupNameTaken)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func addOwner(tx *gorm.DB, groupID, userID uint) error {
	owner := models.CatalogGroupOwner{CatalogGroupID: groupID, UserID: userID}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&owner).Error; err != nil {
		return fmt.Errorf("failed to add group owner: %w", err)
	}
	return nil
}

// ListOwnGroups returns the groups user owns, ordered by name.
func ListOwnGroups(ctx context.Context, db *gorm.DB, userID uint) ([]models.CatalogGroup, error) {
	var groups []models.CatalogGroup
	err := db.WithContext(ctx).
		Where("id IN (?)", ownedGroupIDs(db, userID)).
		Order("name").
		Find(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog groups: %w", err)
	}
	return groups, nil
}

// GetGroup returns a group the user owns (or any group for a superuser).
func GetGroup(ctx context.Context, db *gorm.DB, user *models.User, id uint) (*models.CatalogGroup, error) {
	return authorizeGroup(ctx, db, user, id)
}

// OwnerIDs returns the owner ids of each requested group.
func OwnerIDs(ctx context.Context, db *gorm.DB, groupIDs ...uint) (map[uint][]uint, error) {
	out := make(map[uint][]uint, len(groupIDs))
	if len(groupIDs) == 0 {
		return out, nil
	}
	var rows []models.CatalogGroupOwner
	err := db.WithContext(ctx).
		Where("catalog_group_id IN ?", groupIDs).
		Order("user_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load group owners: %w", err)
	}
	for _, r := range rows {
		out[r.CatalogGroupID] = append(out[r.CatalogGroupID], r.UserID)
	}
	return out, nil
}

// RenameGroup changes the name of a group the user may modify.
func RenameGroup(ctx context.Context, db *gorm.DB, user *models.User, id uint, rawName string) (*models.CatalogGroup, error) {
	group, err := authorizeGroup(ctx, db, user, id)
	if err != nil {
		return nil, err
	}
	name, verr := cleanName("name", rawName)
	if verr != nil {
		return nil, verr
	}
	if err := checkGroupName(db.WithContext(ctx), name, group.ID); err != nil {
		return nil, err
	}

	group.Name = name
	if err := db.WithContext(ctx).Omit(clause.Associations).Save(group).Error; err != nil {
		return nil, nameTaken(err, "failed to update catalog group")
	}
	return group, nil
}

// DeleteGroup removes a group together with its entries, owner rows and
// invitations.
func DeleteGroup(ctx context.Context, db *gorm.DB, user *models.User, id uint) error {
	group, err := authorizeGroup(ctx, db, user, id)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("catalog_group_id = ?", group.ID).Delete(&models.CatalogEntry{}).Error; err != nil {
			return fmt.Errorf("failed to delete entries: %w", err)
		}
		if err := tx.Where("catalog_group_id = ?", group.ID).Delete(&models.CatalogGroupInvitation{}).Error; err != nil {
			return fmt.Errorf("failed to delete invitations: %w", err)
		}
		if err := tx.Where("catalog_group_id = ?", group.ID).Delete(&models.CatalogGroupOwner{}).Error; err != nil {
			return fmt.Errorf("failed to delete owners: %w", err)
		}
		if err := tx.Delete(group).Error; err != nil {
			return fmt.Errorf("failed to delete catalog group: %w", err)
		}
		return nil
	})
}
