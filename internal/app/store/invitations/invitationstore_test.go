package invitationstore_test

import (
	"testing"

	invitationstore "github.com/teambase/teambase/internal/app/store/invitations"
	"github.com/teambase/teambase/internal/domain/models"
	"github.com/teambase/teambase/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := invitationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Invitation{
		ID:      "invite-1",
		Name:    "Acme",
		Invitee: "new@test.com",
		Inviter: "owner@test.com",
		Domain:  primitive.NewObjectID().Hex(),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.Status != models.InviteStatusPending {
		t.Errorf("Status: got %q, want %q", created.Status, models.InviteStatusPending)
	}
	if created.UID != nil {
		t.Error("expected UID to be nil on a fresh invitation")
	}
	if created.Created.IsZero() {
		t.Error("expected Created to be set")
	}
}

func TestStore_Accept(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := invitationstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	domainID := primitive.NewObjectID()
	inv := fixtures.CreateInvitation(ctx, domainID, "Acme", "new@test.com", "owner@test.com")

	accepted, err := store.Accept(ctx, inv.ID, "uid-new")
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if accepted.Status != models.InviteStatusAccepted {
		t.Errorf("Status: got %q, want %q", accepted.Status, models.InviteStatusAccepted)
	}
	if accepted.UID == nil || *accepted.UID != "uid-new" {
		t.Error("expected accepting uid recorded on the invitation")
	}
}

func TestStore_Accept_OnlyOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := invitationstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	domainID := primitive.NewObjectID()
	inv := fixtures.CreateInvitation(ctx, domainID, "Acme", "new@test.com", "owner@test.com")

	if _, err := store.Accept(ctx, inv.ID, "uid-first"); err != nil {
		t.Fatalf("first Accept failed: %v", err)
	}

	_, err := store.Accept(ctx, inv.ID, "uid-second")
	if err != invitationstore.ErrNotPending {
		t.Errorf("expected ErrNotPending for second accept, got %v", err)
	}

	_, err = store.Accept(ctx, "missing-invite", "uid-x")
	if err != invitationstore.ErrNotFound {
		t.Errorf("expected ErrNotFound for missing invitation, got %v", err)
	}
}

func TestStore_DeleteAllForDomain(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := invitationstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	doomed := primitive.NewObjectID()
	other := primitive.NewObjectID()
	inv1 := fixtures.CreateInvitation(ctx, doomed, "Doomed", "a@test.com", "owner@test.com")
	inv2 := fixtures.CreateInvitation(ctx, other, "Other", "b@test.com", "owner@test.com")

	if err := store.DeleteAllForDomain(ctx, doomed.Hex()); err != nil {
		t.Fatalf("DeleteAllForDomain failed: %v", err)
	}

	if _, err := store.Get(ctx, inv1.ID); err != invitationstore.ErrNotFound {
		t.Errorf("expected doomed domain's invitation gone, got %v", err)
	}
	if _, err := store.Get(ctx, inv2.ID); err != nil {
		t.Errorf("expected other domain's invitation to survive, got %v", err)
	}
}
