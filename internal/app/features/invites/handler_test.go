package invites_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/teambase/teambase/internal/app/features/invites"
	domainstore "github.com/teambase/teambase/internal/app/store/domains"
	groupstore "github.com/teambase/teambase/internal/app/store/groups"
	identitystore "github.com/teambase/teambase/internal/app/store/identities"
	invitationstore "github.com/teambase/teambase/internal/app/store/invitations"
	memberstore "github.com/teambase/teambase/internal/app/store/members"
	"github.com/teambase/teambase/internal/domain/models"
	"github.com/teambase/teambase/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*invites.Handler, *mongo.Database, *testutil.FakeMailer) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	fake := &testutil.FakeMailer{}
	h := invites.NewHandler(db, domainstore.New(db), groupstore.New(db),
		memberstore.New(db), invitationstore.New(db), identitystore.New(db),
		fake, zap.NewNop())
	return h, db, fake
}

func TestHandleSend(t *testing.T) {
	h, db, fake := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	dom := fixtures.CreateDomain(ctx, "acme", "uid-owner")

	body := strings.NewReader(`{
		"domain": "` + dom.ID.Hex() + `",
		"domainName": "Acme",
		"inviter": "owner@test.com",
		"invitees": ["a@test.com", "b@test.com"]
	}`)
	req := testutil.NewAuthenticatedRequest("POST", "/", body, testutil.OwnerIdentity("uid-owner", dom.ID))
	rec := testutil.NewRecorder()

	h.HandleSend(rec, req)

	rec.AssertStatus(t, http.StatusCreated)

	var created []models.Invitation
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 invitations, got %d", len(created))
	}
	for _, inv := range created {
		if inv.Status != models.InviteStatusPending {
			t.Errorf("Status: got %q, want %q", inv.Status, models.InviteStatusPending)
		}
	}
	if len(fake.Sent) != 2 {
		t.Errorf("expected 2 emails sent, got %d", len(fake.Sent))
	}
}

func TestHandleSend_MissingFields(t *testing.T) {
	h, db, _ := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	dom := fixtures.CreateDomain(ctx, "acme", "uid-owner")

	body := strings.NewReader(`{"domain": "` + dom.ID.Hex() + `", "invitees": []}`)
	req := testutil.NewAuthenticatedRequest("POST", "/", body, testutil.OwnerIdentity("uid-owner", dom.ID))
	rec := testutil.NewRecorder()

	h.HandleSend(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestHandleSend_RequiresAdminOnRecord(t *testing.T) {
	h, db, fake := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	dom := fixtures.CreateDomain(ctx, "acme", "uid-owner")
	if err := domainstore.New(db).AddUser(ctx, dom.ID, "uid-claimed"); err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}
	// Administrator claims without a backing member record.

	body := strings.NewReader(`{
		"domain": "` + dom.ID.Hex() + `",
		"domainName": "Acme",
		"inviter": "claimed@test.com",
		"invitees": ["a@test.com"]
	}`)
	req := testutil.NewAuthenticatedRequest("POST", "/", body, testutil.AdminIdentity("uid-claimed", dom.ID))
	rec := testutil.NewRecorder()

	h.HandleSend(rec, req)

	rec.AssertStatus(t, http.StatusUnauthorized)
	if len(fake.Sent) != 0 {
		t.Errorf("expected no emails sent, got %d", len(fake.Sent))
	}
}

func TestHandleAccept(t *testing.T) {
	h, db, _ := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	dom := fixtures.CreateDomain(ctx, "acme", "uid-owner")
	fixtures.CreateBuiltinGroups(ctx, dom.ID, "uid-owner")
	inv := fixtures.CreateInvitation(ctx, dom.ID, "Acme", "new@test.com", "owner@test.com")

	ident := testutil.StrangerIdentity()
	body := strings.NewReader(`{"inviteId": "` + inv.ID + `"}`)
	req := testutil.NewAuthenticatedRequest("POST", "/", body, ident)
	req = testutil.WithChiURLParam(req, "id", dom.ID.Hex())
	rec := testutil.NewRecorder()

	h.HandleAccept(rec, req)

	rec.AssertStatus(t, http.StatusOK)

	// Domain membership all the way through: users array, member
	// record, Users group, identity claims.
	got, err := domainstore.New(db).GetByID(ctx, dom.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.HasUser(ident.UID) {
		t.Error("expected accepting uid added to the domain users")
	}

	mem, err := memberstore.New(db).GetByUID(ctx, dom.ID, ident.UID)
	if err != nil {
		t.Fatalf("GetByUID failed: %v", err)
	}
	if mem.Status != models.MemberStatusActive {
		t.Errorf("member Status: got %q, want %q", mem.Status, models.MemberStatusActive)
	}

	grp, err := groupstore.New(db).Get(ctx, dom.ID, models.RoleBoardUsers)
	if err != nil {
		t.Fatalf("group Get failed: %v", err)
	}
	joined := false
	for _, m := range grp.Members {
		if m == ident.UID {
			joined = true
		}
	}
	if !joined {
		t.Error("expected accepting uid in the Users group")
	}

	rec2, err := identitystore.New(db).Get(ctx, ident.UID)
	if err != nil {
		t.Fatalf("identity Get failed: %v", err)
	}
	roles := rec2.RolesFor(dom.ID.Hex())
	if len(roles) != 1 || roles[0] != models.RoleBoardUsers {
		t.Errorf("claims: got %v, want [BOARD_USERS]", roles)
	}
}

func TestHandleAccept_ReplayRejected(t *testing.T) {
	h, db, _ := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	dom := fixtures.CreateDomain(ctx, "acme", "uid-owner")
	fixtures.CreateBuiltinGroups(ctx, dom.ID, "uid-owner")
	inv := fixtures.CreateInvitation(ctx, dom.ID, "Acme", "new@test.com", "owner@test.com")

	first := testutil.StrangerIdentity()
	body := strings.NewReader(`{"inviteId": "` + inv.ID + `"}`)
	req := testutil.NewAuthenticatedRequest("POST", "/", body, first)
	req = testutil.WithChiURLParam(req, "id", dom.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleAccept(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	// A second accept of the same invitation fails.
	second := testutil.StrangerIdentity()
	body = strings.NewReader(`{"inviteId": "` + inv.ID + `"}`)
	req = testutil.NewAuthenticatedRequest("POST", "/", body, second)
	req = testutil.WithChiURLParam(req, "id", dom.ID.Hex())
	rec = testutil.NewRecorder()
	h.HandleAccept(rec, req)
	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestHandleAccept_WrongDomain(t *testing.T) {
	h, db, _ := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	dom := fixtures.CreateDomain(ctx, "acme", "uid-owner")
	other := fixtures.CreateDomain(ctx, "other", "uid-other")
	inv := fixtures.CreateInvitation(ctx, dom.ID, "Acme", "new@test.com", "owner@test.com")

	body := strings.NewReader(`{"inviteId": "` + inv.ID + `"}`)
	req := testutil.NewAuthenticatedRequest("POST", "/", body, testutil.StrangerIdentity())
	req = testutil.WithChiURLParam(req, "id", other.ID.Hex())
	rec := testutil.NewRecorder()

	h.HandleAccept(rec, req)

	rec.AssertStatus(t, http.StatusNotFound)
}
