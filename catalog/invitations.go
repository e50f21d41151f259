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

// CreateInvitation issues a new invitation to join groupID.
func CreateInvitation(ctx context.Context, db *gorm.DB, user *models.User, groupID uint) (*models.CatalogGroupInvitation, error) {
	group, err := authorizeGroup(ctx, db, user, groupID)
	if err != nil {
		return nil, err
	}
	inv := &models.CatalogGroupInvitation{CatalogGroupID: group.ID, InvitedByID: user.ID}
	if err := db.WithContext(ctx).Omit(clause.Associations).Create(inv).Error; err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}
	inv.CatalogGroup = *group
	return inv, nil
}

// GetInvitation loads an invitation with its group.
func GetInvitation(ctx context.Context, db *gorm.DB, id string) (*models.CatalogGroupInvitation, error) {
	var inv models.CatalogGroupInvitation
	err := db.WithContext(ctx).Preload("CatalogGroup").Where("id = ?", id).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load invitation: %w", err)
	}
	return &inv, nil
}

// CheckAcceptance decides whether user may accept inv at now. existing is
// another group the user already owns, or nil. The checks run in order and
// the first failure wins.
func CheckAcceptance(inv *models.CatalogGroupInvitation, user *models.User, existing *models.CatalogGroup, leave bool, now time.Time, ttl time.Duration) error {
	if inv.IsAccepted() {
		return ErrInvitationAccepted
	}
	if inv.IsExpired(now, ttl) {
		return ErrInvitationExpired
	}
	if existing != nil && !user.IsSuperuser && !leave {
		return &OwnershipConflictError{GroupName: existing.Name}
	}
	return nil
}

// AcceptRequest carries the inputs of an invitation acceptance.
type AcceptRequest struct {
	InvitationID string
	User         *models.User
	// LeaveExisting confirms giving up the groups the user already owns.
	LeaveExisting bool
	Now           time.Time
	TTL           time.Duration
}

// AcceptInvitation makes the user an owner of the invitation's group. Leaving
// the old group, joining the new one and stamping the invitation commit
// together or not at all.
func AcceptInvitation(ctx context.Context, db *gorm.DB, req AcceptRequest) (*models.CatalogGroupInvitation, error) {
	user := req.User
	var inv models.CatalogGroupInvitation

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", req.InvitationID).
			First(&inv).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load invitation: %w", err)
		}

		existing, err := otherOwnedGroup(tx, user.ID, inv.CatalogGroupID)
		if err != nil {
			return fmt.Errorf("failed to look up owned groups: %w", err)
		}
		if err := CheckAcceptance(&inv, user, existing, req.LeaveExisting, req.Now, req.TTL); err != nil {
			return err
		}

		res := tx.Model(&models.CatalogGroupInvitation{}).
			Where("id = ? AND accepted_by_id IS NULL", inv.ID).
			Update("accepted_by_id", user.ID)
		if res.Error != nil {
			return fmt.Errorf("failed to mark invitation accepted: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrInvitationAccepted
		}

		if existing != nil && !user.IsSuperuser {
			err := tx.Where("user_id = ? AND catalog_group_id <> ?", user.ID, inv.CatalogGroupID).
				Delete(&models.CatalogGroupOwner{}).Error
			if err != nil {
				return fmt.Errorf("failed to leave previous group: %w", err)
			}
		}
		return addOwner(tx, inv.CatalogGroupID, user.ID)
	})
	if err != nil {
		return nil, err
	}
	return GetInvitation(ctx, db, inv.ID)
}
