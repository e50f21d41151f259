package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sidhant-sriv/home-catalog/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func TestCreateGroupSingleOwnership(t *testing.T) {
	ctx := context.Background()
	conn := newTestDB(t)

	alice := mustUser(t, conn, "alice", false)
	mustGroup(t, conn, alice, "Home")

	_, err := CreateGroup(ctx, conn, alice, "Cottage")
	var verr ValidationErrors
	if !errors.As(err, &verr) {
		t.Fatalf("second group: got %v, want ValidationErrors", err)
	}
	if got := verr[NonFieldErrors]; len(got) != 1 || got[0] != MsgSingleGroup {
		t.Errorf("non_field_errors = %v", got)
	}
	if names := ownedNames(t, conn, alice); !equalStrings(names, []string{"Home"}) {
		t.Errorf("alice owns %v", names)
	}

	root := mustUser(t, conn, "root", true)
	mustGroup(t, conn, root, "Admin one")
	mustGroup(t, conn, root, "Admin two")
	if names := ownedNames(t, conn, root); len(names) != 2 {
		t.Errorf("superuser should own two groups, owns %v", names)
	}
}

func TestCreateGroupValidation(t *testing.T) {
	ctx := context.Background()
	conn := newTestDB(t)

	alice := mustUser(t, conn, "alice", false)
	bob := mustUser(t, conn, "bob", false)
	mustGroup(t, conn, alice, "Home")

	tests := []struct {
		name string
		in   string
		msg  string
	}{
		{"duplicate", "Home", MsgGroupNameTaken},
		{"blank", "   ", MsgRequired},
		{"markup only", "<b></b>", MsgRequired},
		{"too long", strings.Repeat("x", 201), "Ensure this field has no more than 200 characters."},
	}
	for _, tt := range tests {
		_, err := CreateGroup(ctx, conn, bob, tt.in)
		var verr ValidationErrors
		if !errors.As(err, &verr) {
			t.Errorf("%s: got %v, want ValidationErrors", tt.name, err)
			continue
		}
		if got := verr["name"]; len(got) != 1 || got[0] != tt.msg {
			t.Errorf("%s: name errors = %v, want %q", tt.name, got, tt.msg)
		}
	}

	g, err := CreateGroup(ctx, conn, bob, "<i>Bob</i> & Co")
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if g.Name != "Bob & Co" {
		t.Errorf("sanitized name = %q", g.Name)
	}
}

func TestGroupPermissions(t *testing.T) {
	ctx := context.Background()
	conn := newTestDB(t)

	alice := mustUser(t, conn, "alice", false)
	bob := mustUser(t, conn, "bob", false)
	root := mustUser(t, conn, "root", true)
	home := mustGroup(t, conn, alice, "Home")

	if _, err := RenameGroup(ctx, conn, bob, home.ID, "Mine"); !errors.Is(err, ErrForbidden) {
		t.Errorf("rename by stranger: got %v", err)
	}
	if err := DeleteGroup(ctx, conn, bob, home.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("delete by stranger: got %v", err)
	}
	if _, err := GetGroup(ctx, conn, bob, home.ID+50); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing group: got %v", err)
	}

	renamed, err := RenameGroup(ctx, conn, alice, home.ID, "Home sweet home")
	if err != nil {
		t.Fatalf("rename by owner: %v", err)
	}
	if renamed.Name != "Home sweet home" {
		t.Errorf("name = %q", renamed.Name)
	}
	if _, err := RenameGroup(ctx, conn, root, home.ID, "Home"); err != nil {
		t.Errorf("rename by superuser: %v", err)
	}
	if _, err := RenameGroup(ctx, conn, alice, home.ID, "Home"); err != nil {
		t.Errorf("keeping the same name must not count as a duplicate: %v", err)
	}

	owners, err := OwnerIDs(ctx, conn, home.ID)
	if err != nil {
		t.Fatalf("OwnerIDs: %v", err)
	}
	if ids := owners[home.ID]; len(ids) != 1 || ids[0] != alice.ID {
		t.Errorf("owners = %v", ids)
	}
}

func TestDeleteGroupRemovesDependents(t *testing.T) {
	ctx := context.Background()
	conn := newTestDB(t)

	alice := mustUser(t, conn, "alice", false)
	home := mustGroup(t, conn, alice, "Home")
	if _, err := CreateEntry(ctx, conn, alice, home, NewEntry{Name: "milk"}, time.Now()); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if _, err := CreateInvitation(ctx, conn, alice, home.ID); err != nil {
		t.Fatalf("CreateInvitation: %v", err)
	}

	if err := DeleteGroup(ctx, conn, alice, home.ID); err != nil {
		t.Fatalf("DeleteGroup: %v", err)
	}

	for _, model := range []interface{}{
		&models.CatalogGroup{}, &models.CatalogEntry{}, &models.CatalogGroupOwner{}, &models.CatalogGroupInvitation{},
	} {
		var n int64
		if err := conn.Model(model).Count(&n).Error; err != nil {
			t.Fatalf("count %T: %v", model, err)
		}
		if n != 0 {
			t.Errorf("%T rows left: %d", model, n)
		}
	}

	var defs int64
	conn.Model(&models.ItemDefinition{}).Count(&defs)
	if defs != 1 {
		t.Errorf("item definitions are shared and must survive, got %d", defs)
	}

	if _, err := CreateGroup(ctx, conn, alice, "Fresh start"); err != nil {
		t.Errorf("alice owns nothing now and may create a group: %v", err)
	}
}

func TestCurrentGroup(t *testing.T) {
	ctx := context.Background()
	conn := newTestDB(t)

	alice := mustUser(t, conn, "alice", false)
	if g, err := CurrentGroup(ctx, conn, alice.ID); err != nil || g != nil {
		t.Fatalf("no group: got %v, %v", g, err)
	}
	mustGroup(t, conn, alice, "Home")
	g, err := CurrentGroup(ctx, conn, alice.ID)
	if err != nil || g == nil || g.Name != "Home" {
		t.Fatalf("CurrentGroup = %v, %v", g, err)
	}

	ok, err := IsOwnerOrAdmin(ctx, conn, alice, g.ID)
	if err != nil || !ok {
		t.Errorf("owner check = %v, %v", ok, err)
	}
	ok, _ = IsOwnerOrAdmin(ctx, conn, &models.User{ID: alice.ID + 99}, g.ID)
	if ok {
		t.Error("stranger must not pass the owner check")
	}
	ok, _ = IsOwnerOrAdmin(ctx, conn, &models.User{ID: 1000, IsSuperuser: true}, g.ID)
	if !ok {
		t.Error("superuser must pass the owner check")
	}
	if ok, _ := IsOwnerOrAdmin(ctx, conn, nil, g.ID); ok {
		t.Error("anonymous must not pass the owner check")
	}
}

func TestCreateGroupConcurrentSameName(t *testing.T) {
	ctx := context.Background()
	conn := newTestDB(t)

	const n = 6
	users := make([]*models.User, n)
	for i := range users {
		users[i] = mustUser(t, conn, fmt.Sprintf("root%d", i), true)
	}

	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make([]error, n)
	for i, u := range users {
		wg.Add(1)
		go func(i int, u *models.User) {
			defer wg.Done()
			<-start
			_, errs[i] = CreateGroup(ctx, conn, u, "Shared")
		}(i, u)
	}
	close(start)
	wg.Wait()

	created := 0
	for _, err := range errs {
		var verr ValidationErrors
		switch {
		case err == nil:
			created++
		case errors.As(err, &verr):
			if got := verr["name"]; len(got) != 1 || got[0] != MsgGroupNameTaken {
				t.Errorf("name errors = %v", got)
			}
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if created != 1 {
		t.Fatalf("%d groups created, want 1 (errors %v)", created, errs)
	}
}

func TestUniqueNameViolationIsFieldError(t *testing.T) {
	ctx := context.Background()
	conn := newTestDB(t)
	alice := mustUser(t, conn, "alice", false)
	bob := mustUser(t, conn, "bob", false)
	mustGroup(t, conn, alice, "Home")
	cottage := mustGroup(t, conn, bob, "Cottage")

	// Write past the name check, as a racing request would.
	err := conn.WithContext(ctx).Create(&models.CatalogGroup{Name: "Home"}).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("duplicate insert: got %v, want gorm.ErrDuplicatedKey", err)
	}
	var verr ValidationErrors
	if !errors.As(nameTaken(err, "failed to create catalog group"), &verr) || !equalStrings(verr["name"], []string{MsgGroupNameTaken}) {
		t.Errorf("nameTaken(%v) = %v", err, verr)
	}

	cottage.Name = "Home"
	err = conn.WithContext(ctx).Omit(clause.Associations).Save(cottage).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("duplicate rename: got %v, want gorm.ErrDuplicatedKey", err)
	}

	other := errors.New("disk full")
	got := nameTaken(other, "failed to update catalog group")
	var asField ValidationErrors
	if !errors.Is(got, other) || errors.As(got, &asField) {
		t.Errorf("nameTaken(%v) = %v, want the error wrapped", other, got)
	}
}
