package domainpolicy_test

import (
	"testing"

	"github.com/teambase/teambase/internal/app/policy/domainpolicy"
	"github.com/teambase/teambase/internal/domain/models"
	"github.com/teambase/teambase/internal/testutil"
)

func TestIsAdminOnRecord(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	dom := fixtures.CreateDomain(ctx, "acme", "uid-owner")
	fixtures.CreateMember(ctx, dom.ID, "uid-admin", "admin@test.com", models.RoleAdministrators, models.RoleBoardUsers)
	fixtures.CreateMember(ctx, dom.ID, "uid-user", "user@test.com", models.RoleBoardUsers)

	ok, err := domainpolicy.IsAdminOnRecord(ctx, db, dom.ID, "uid-admin")
	if err != nil {
		t.Fatalf("IsAdminOnRecord failed: %v", err)
	}
	if !ok {
		t.Error("expected uid-admin to be admin on record")
	}

	ok, err = domainpolicy.IsAdminOnRecord(ctx, db, dom.ID, "uid-user")
	if err != nil {
		t.Fatalf("IsAdminOnRecord failed: %v", err)
	}
	if ok {
		t.Error("expected uid-user not to be admin on record")
	}

	ok, err = domainpolicy.IsAdminOnRecord(ctx, db, dom.ID, "uid-missing")
	if err != nil {
		t.Fatalf("IsAdminOnRecord failed: %v", err)
	}
	if ok {
		t.Error("expected unknown uid not to be admin on record")
	}
}

func TestCanUpdateDomain(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	dom := fixtures.CreateDomain(ctx, "acme", "uid-owner")
	fixtures.CreateMember(ctx, dom.ID, "uid-admin", "admin@test.com", models.RoleAdministrators)

	// Owner passes without any member record.
	ok, err := domainpolicy.CanUpdateDomain(ctx, db, testutil.OwnerIdentity("uid-owner", dom.ID), dom)
	if err != nil || !ok {
		t.Errorf("owner: got (%v, %v), want (true, nil)", ok, err)
	}

	// Admin claims backed by a member record pass.
	ok, err = domainpolicy.CanUpdateDomain(ctx, db, testutil.AdminIdentity("uid-admin", dom.ID), dom)
	if err != nil || !ok {
		t.Errorf("on-record admin: got (%v, %v), want (true, nil)", ok, err)
	}

	// Admin claims with no backing record fail: the claim is stale.
	ok, err = domainpolicy.CanUpdateDomain(ctx, db, testutil.AdminIdentity("uid-revoked", dom.ID), dom)
	if err != nil {
		t.Fatalf("revoked admin check failed: %v", err)
	}
	if ok {
		t.Error("expected stale admin claim to be rejected")
	}

	// Plain user claims fail without a database round trip.
	ok, err = domainpolicy.CanUpdateDomain(ctx, db, testutil.UserIdentity("uid-user", dom.ID), dom)
	if err != nil || ok {
		t.Errorf("plain user: got (%v, %v), want (false, nil)", ok, err)
	}

	ok, err = domainpolicy.CanUpdateDomain(ctx, db, nil, dom)
	if err != nil || ok {
		t.Errorf("nil identity: got (%v, %v), want (false, nil)", ok, err)
	}
}

func TestCanSendInvites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	dom := fixtures.CreateDomain(ctx, "acme", "uid-owner")
	fixtures.CreateMember(ctx, dom.ID, "uid-admin", "admin@test.com", models.RoleAdministrators)

	ok, err := domainpolicy.CanSendInvites(ctx, db, testutil.OwnerIdentity("uid-owner", dom.ID), dom)
	if err != nil || !ok {
		t.Errorf("owner: got (%v, %v), want (true, nil)", ok, err)
	}

	ok, err = domainpolicy.CanSendInvites(ctx, db, testutil.AdminIdentity("uid-admin", dom.ID), dom)
	if err != nil || !ok {
		t.Errorf("on-record admin: got (%v, %v), want (true, nil)", ok, err)
	}

	// Even administrator claims are ignored without a member record.
	ok, err = domainpolicy.CanSendInvites(ctx, db, testutil.AdminIdentity("uid-ghost", dom.ID), dom)
	if err != nil {
		t.Fatalf("ghost admin check failed: %v", err)
	}
	if ok {
		t.Error("expected unbacked admin claim to be rejected")
	}
}
