package identitystore_test

import (
	"testing"

	identitystore "github.com/teambase/teambase/internal/app/store/identities"
	"github.com/teambase/teambase/internal/domain/models"
	"github.com/teambase/teambase/internal/testutil"
)

func TestStore_Upsert(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := identitystore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Upsert(ctx, "uid-1", "one@test.com"); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := store.Get(ctx, "uid-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Email != "one@test.com" {
		t.Errorf("Email: got %q, want %q", got.Email, "one@test.com")
	}
	if got.DomainIDs == nil {
		t.Error("expected DomainIDs map to be initialized")
	}

	// Upserting again refreshes the email without clobbering claims.
	if err := store.SetDomainRoles(ctx, "uid-1", "dom-1", []string{models.RoleBoardUsers}); err != nil {
		t.Fatalf("SetDomainRoles failed: %v", err)
	}
	if err := store.Upsert(ctx, "uid-1", "renamed@test.com"); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}
	got, err = store.Get(ctx, "uid-1")
	if err != nil {
		t.Fatalf("Get after second Upsert failed: %v", err)
	}
	if got.Email != "renamed@test.com" {
		t.Errorf("Email: got %q, want %q", got.Email, "renamed@test.com")
	}
	if len(got.RolesFor("dom-1")) != 1 {
		t.Error("expected existing claims preserved across Upsert")
	}
}

func TestStore_SetDomainRoles(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := identitystore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Upsert(ctx, "uid-1", "one@test.com"); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if err := store.SetDomainRoles(ctx, "uid-1", "dom-1", models.BuiltinRoles()); err != nil {
		t.Fatalf("SetDomainRoles failed: %v", err)
	}
	if err := store.SetDomainRoles(ctx, "uid-1", "dom-2", []string{models.RoleBoardUsers}); err != nil {
		t.Fatalf("SetDomainRoles for second domain failed: %v", err)
	}

	got, err := store.Get(ctx, "uid-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got.RolesFor("dom-1")) != 3 {
		t.Errorf("dom-1 roles: got %v, want 3 roles", got.RolesFor("dom-1"))
	}
	if len(got.RolesFor("dom-2")) != 1 {
		t.Errorf("dom-2 roles: got %v, want 1 role", got.RolesFor("dom-2"))
	}
	// First membership becomes the primary domain and stays there.
	if got.DomainID != "dom-1" {
		t.Errorf("DomainID: got %q, want %q", got.DomainID, "dom-1")
	}

	err = store.SetDomainRoles(ctx, "uid-missing", "dom-1", nil)
	if err != identitystore.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_RemoveDomain(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := identitystore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Upsert(ctx, "uid-1", "one@test.com"); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := store.SetDomainRoles(ctx, "uid-1", "dom-1", models.BuiltinRoles()); err != nil {
		t.Fatalf("SetDomainRoles failed: %v", err)
	}
	if err := store.SetDomainRoles(ctx, "uid-1", "dom-2", []string{models.RoleBoardUsers}); err != nil {
		t.Fatalf("SetDomainRoles failed: %v", err)
	}

	if err := store.RemoveDomain(ctx, "uid-1", "dom-1"); err != nil {
		t.Fatalf("RemoveDomain failed: %v", err)
	}

	got, err := store.Get(ctx, "uid-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.RolesFor("dom-1") != nil {
		t.Error("expected dom-1 claim removed")
	}
	if len(got.RolesFor("dom-2")) != 1 {
		t.Error("expected dom-2 claim preserved")
	}
}

func TestStore_FetchIdentity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := identitystore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Upsert(ctx, "uid-1", "one@test.com"); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	ident, err := store.FetchIdentity(ctx, "uid-1")
	if err != nil {
		t.Fatalf("FetchIdentity failed: %v", err)
	}
	if ident.UID != "uid-1" {
		t.Errorf("UID: got %q, want %q", ident.UID, "uid-1")
	}

	if _, err := store.FetchIdentity(ctx, "uid-missing"); err != identitystore.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
