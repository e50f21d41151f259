package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// CatalogGroup is the tenant boundary: a household catalog shared by its owners.
type CatalogGroup struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:200;not null" json:"name"`
	Owners    []User    `gorm:"many2many:catalog_group_owners;" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (g *CatalogGroup) String() string {
	return g.Name
}

// CatalogGroupOwner is the join row between a catalog group and one owner.
type CatalogGroupOwner struct {
	CatalogGroupID uint `gorm:"primaryKey"`
	UserID         uint `gorm:"primaryKey"`
}

func (CatalogGroupOwner) TableName() string {
	return "catalog_group_owners"
}

// ItemGroup is a category tag shared by every catalog.
type ItemGroup struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Title string `gorm:"size:200;not null" json:"title"`
	Slug  string `gorm:"size:200;index" json:"slug"`
}

func (g *ItemGroup) BeforeSave(tx *gorm.DB) error {
	g.Slug = slug.Make(g.Title)
	return nil
}

func (g *ItemGroup) String() string {
	return g.Title
}

// ItemDefinition is a globally shared named item such as "milk".
type ItemDefinition struct {
	ID     uint        `gorm:"primaryKey" json:"id"`
	Name   string      `gorm:"uniqueIndex;size:200;not null" json:"name"`
	Slug   string      `gorm:"size:200;index" json:"slug"`
	Groups []ItemGroup `gorm:"many2many:item_definition_groups;" json:"groups"`
}

func (d *ItemDefinition) BeforeSave(tx *gorm.DB) error {
	d.Slug = slug.Make(d.Name)
	return nil
}

// String renders "[Dairy][Fresh] milk"; groups must be preloaded.
func (d *ItemDefinition) String() string {
	var b strings.Builder
	for _, g := range d.Groups {
		b.WriteString("[" + g.Title + "]")
	}
	if b.Len() == 0 {
		return d.Name
	}
	return b.String() + " " + d.Name
}

// CatalogEntry carries the per-catalog buy status of an item definition.
type CatalogEntry struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	ItemDefinitionID uint           `gorm:"not null;uniqueIndex:idx_entry_definition_group" json:"item_definition_id"`
	ItemDefinition   ItemDefinition `gorm:"foreignKey:ItemDefinitionID" json:"item_definition"`
	CatalogGroupID   *uint          `gorm:"uniqueIndex:idx_entry_definition_group" json:"catalog_group"`
	CatalogGroup     *CatalogGroup  `gorm:"foreignKey:CatalogGroupID" json:"-"`
	Count            float64        `gorm:"type:decimal(20,5);not null;default:0" json:"count"`
	ToBuy            bool           `gorm:"not null;default:false;index" json:"to_buy"`
	PubDate          time.Time      `json:"pub_date"`
}

// String renders "<item> in <catalog>"; both relations must be loaded.
func (e *CatalogEntry) String() string {
	if e.CatalogGroup == nil {
		return e.ItemDefinition.Name
	}
	return fmt.Sprintf("%s in %s", e.ItemDefinition.Name, e.CatalogGroup.Name)
}

// CatalogGroupInvitation lets one user join a catalog group. The ID is the
// opaque token handed to the invitee.
type CatalogGroupInvitation struct {
	ID             string       `gorm:"type:varchar(36);primaryKey" json:"id"`
	CatalogGroupID uint         `gorm:"not null;index" json:"catalog_group"`
	CatalogGroup   CatalogGroup `gorm:"foreignKey:CatalogGroupID" json:"-"`
	InvitedByID    uint         `gorm:"not null" json:"invited_by"`
	InvitedBy      User         `gorm:"foreignKey:InvitedByID" json:"-"`
	AcceptedByID   *uint        `json:"accepted_by"`
	AcceptedBy     *User        `gorm:"foreignKey:AcceptedByID" json:"-"`
	CreatedAt      time.Time    `json:"created_at"`
}

func (i *CatalogGroupInvitation) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

func (i *CatalogGroupInvitation) IsAccepted() bool {
	return i.AcceptedByID != nil
}

func (i *CatalogGroupInvitation) ExpiresAt(ttl time.Duration) time.Time {
	return i.CreatedAt.Add(ttl)
}

// IsExpired reports whether now lies past the validity window.
func (i *CatalogGroupInvitation) IsExpired(now time.Time, ttl time.Duration) bool {
	return now.After(i.ExpiresAt(ttl))
}
