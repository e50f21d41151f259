package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sidhant-sriv/home-catalog/config"
	"github.com/sidhant-sriv/home-catalog/db"
	"github.com/sidhant-sriv/home-catalog/models"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{
		DBDriver:   "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "catalog.db"),
		LogLevel:   "error",
	}
	conn, err := db.Connect(cfg)
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(conn) })
	if err := db.MakeMigration(conn); err != nil {
		t.Fatalf("MakeMigration failed: %v", err)
	}
	return conn
}

func mustUser(t *testing.T, conn *gorm.DB, username string, superuser bool) *models.User {
	t.Helper()
	u := &models.User{Username: username, Password: "x", IsSuperuser: superuser}
	if err := conn.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func mustGroup(t *testing.T, conn *gorm.DB, owner *models.User, name string) *models.CatalogGroup {
	t.Helper()
	g, err := CreateGroup(context.Background(), conn, owner, name)
	if err != nil {
		t.Fatalf("create group %s: %v", name, err)
	}
	return g
}

func ownedNames(t *testing.T, conn *gorm.DB, u *models.User) []string {
	t.Helper()
	groups, err := ListOwnGroups(context.Background(), conn, u.ID)
	if err != nil {
		t.Fatalf("ListOwnGroups: %v", err)
	}
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Name
	}
	return names
}

func entryNames(entries []models.CatalogEntry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.ItemDefinition.Name
	}
	return names
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
