package groups_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/teambase/teambase/internal/app/features/groups"
	domainstore "github.com/teambase/teambase/internal/app/store/domains"
	groupstore "github.com/teambase/teambase/internal/app/store/groups"
	memberstore "github.com/teambase/teambase/internal/app/store/members"
	"github.com/teambase/teambase/internal/domain/models"
	"github.com/teambase/teambase/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*groups.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	h := groups.NewHandler(domainstore.New(db), groupstore.New(db), memberstore.New(db), zap.NewNop())
	return h, db
}

func TestHandleList_AnyMember(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	dom := fixtures.CreateDomain(ctx, "acme", "uid-owner")
	fixtures.CreateBuiltinGroups(ctx, dom.ID, "uid-owner")

	req := testutil.NewAuthenticatedRequest("GET", "/", nil, testutil.UserIdentity("uid-owner", dom.ID))
	req = testutil.WithChiURLParam(req, "id", dom.ID.Hex())
	rec := testutil.NewRecorder()

	h.HandleList(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Administrators")
}

func TestHandleList_NonMemberSees404(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	dom := fixtures.CreateDomain(ctx, "acme", "uid-owner")

	req := testutil.NewAuthenticatedRequest("GET", "/", nil, testutil.StrangerIdentity())
	req = testutil.WithChiURLParam(req, "id", dom.ID.Hex())
	rec := testutil.NewRecorder()

	h.HandleList(rec, req)

	rec.AssertStatus(t, http.StatusNotFound)
}

func TestHandleGet(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	dom := fixtures.CreateDomain(ctx, "acme", "uid-owner")
	grp := fixtures.CreateGroup(ctx, dom.ID, "Engineering", "uid-owner")

	req := testutil.NewAuthenticatedRequest("GET", "/", nil, testutil.UserIdentity("uid-owner", dom.ID))
	req = testutil.WithChiURLParam(req, "id", dom.ID.Hex())
	req = testutil.WithChiURLParam(req, "groupID", grp.ID)
	rec := testutil.NewRecorder()

	h.HandleGet(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Engineering")
}

func TestHandleGet_UnknownGroup(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	dom := fixtures.CreateDomain(ctx, "acme", "uid-owner")

	req := testutil.NewAuthenticatedRequest("GET", "/", nil, testutil.UserIdentity("uid-owner", dom.ID))
	req = testutil.WithChiURLParam(req, "id", dom.ID.Hex())
	req = testutil.WithChiURLParam(req, "groupID", "no-such-group")
	rec := testutil.NewRecorder()

	h.HandleGet(rec, req)

	rec.AssertStatus(t, http.StatusNotFound)
}

func TestHandleCreate(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	dom := fixtures.CreateDomain(ctx, "acme", "uid-owner")

	body := strings.NewReader(`{"name": "Engineering"}`)
	req := testutil.NewAuthenticatedRequest("POST", "/", body, testutil.OwnerIdentity("uid-owner", dom.ID))
	req = testutil.WithChiURLParam(req, "id", dom.ID.Hex())
	rec := testutil.NewRecorder()

	h.HandleCreate(rec, req)

	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, "Engineering")

	list, err := groupstore.New(db).ListForDomain(ctx, dom.ID)
	if err != nil {
		t.Fatalf("ListForDomain failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 group, got %d", len(list))
	}
	if len(list[0].Members) != 1 || list[0].Members[0] != "uid-owner" {
		t.Errorf("expected creator seeded as first member, got %v", list[0].Members)
	}
}

func TestHandleCreate_ReservedName(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	dom := fixtures.CreateDomain(ctx, "acme", "uid-owner")

	for _, name := range []string{"Administrators", "administrators", "BOARD_USERS", "creators"} {
		body := strings.NewReader(`{"name": "` + name + `"}`)
		req := testutil.NewAuthenticatedRequest("POST", "/", body, testutil.OwnerIdentity("uid-owner", dom.ID))
		req = testutil.WithChiURLParam(req, "id", dom.ID.Hex())
		rec := testutil.NewRecorder()

		h.HandleCreate(rec, req)

		rec.AssertStatus(t, http.StatusForbidden)
	}
}

func TestHandleCreate_DuplicateName(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	dom := fixtures.CreateDomain(ctx, "acme", "uid-owner")
	fixtures.CreateGroup(ctx, dom.ID, "Engineering")

	body := strings.NewReader(`{"name": "engineering"}`)
	req := testutil.NewAuthenticatedRequest("POST", "/", body, testutil.OwnerIdentity("uid-owner", dom.ID))
	req = testutil.WithChiURLParam(req, "id", dom.ID.Hex())
	rec := testutil.NewRecorder()

	h.HandleCreate(rec, req)

	rec.AssertStatus(t, http.StatusForbidden)
}

func TestHandleCreate_RequiresAdmin(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	dom := fixtures.CreateDomain(ctx, "acme", "uid-owner")
	// Put the plain user in the domain so the 404 path is not taken.
	if err := domainstore.New(db).AddUser(ctx, dom.ID, "uid-user"); err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}

	body := strings.NewReader(`{"name": "Engineering"}`)
	req := testutil.NewAuthenticatedRequest("POST", "/", body, testutil.UserIdentity("uid-user", dom.ID))
	req = testutil.WithChiURLParam(req, "id", dom.ID.Hex())
	rec := testutil.NewRecorder()

	h.HandleCreate(rec, req)

	rec.AssertStatus(t, http.StatusUnauthorized)
}

func TestHandleRename(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	dom := fixtures.CreateDomain(ctx, "acme", "uid-owner")
	grp := fixtures.CreateGroup(ctx, dom.ID, "Old Name")

	body := strings.NewReader(`{"name": "New Name", "version": 1}`)
	req := testutil.NewAuthenticatedRequest("PUT", "/", body, testutil.OwnerIdentity("uid-owner", dom.ID))
	req = testutil.WithChiURLParam(req, "id", dom.ID.Hex())
	req = testutil.WithChiURLParam(req, "groupID", grp.ID)
	rec := testutil.NewRecorder()

	h.HandleRename(rec, req)

	rec.AssertStatus(t, http.StatusNoContent)

	got, err := groupstore.New(db).Get(ctx, dom.ID, grp.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "New Name" {
		t.Errorf("Name: got %q, want %q", got.Name, "New Name")
	}
}

func TestHandleRename_Builtin(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	dom := fixtures.CreateDomain(ctx, "acme", "uid-owner")
	fixtures.CreateBuiltinGroups(ctx, dom.ID, "uid-owner")

	body := strings.NewReader(`{"name": "Bosses", "version": 1}`)
	req := testutil.NewAuthenticatedRequest("PUT", "/", body, testutil.OwnerIdentity("uid-owner", dom.ID))
	req = testutil.WithChiURLParam(req, "id", dom.ID.Hex())
	req = testutil.WithChiURLParam(req, "groupID", models.RoleAdministrators)
	rec := testutil.NewRecorder()

	h.HandleRename(rec, req)

	rec.AssertStatus(t, http.StatusForbidden)
}

func TestHandleRename_StaleVersion(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	dom := fixtures.CreateDomain(ctx, "acme", "uid-owner")
	grp := fixtures.CreateGroup(ctx, dom.ID, "Contested")

	body := strings.NewReader(`{"name": "Too Late", "version": 99}`)
	req := testutil.NewAuthenticatedRequest("PUT", "/", body, testutil.OwnerIdentity("uid-owner", dom.ID))
	req = testutil.WithChiURLParam(req, "id", dom.ID.Hex())
	req = testutil.WithChiURLParam(req, "groupID", grp.ID)
	rec := testutil.NewRecorder()

	h.HandleRename(rec, req)

	rec.AssertStatus(t, http.StatusConflict)
}

func TestHandleDelete(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	dom := fixtures.CreateDomain(ctx, "acme", "uid-owner")
	grp := fixtures.CreateGroup(ctx, dom.ID, "Doomed")
	member := fixtures.CreateMember(ctx, dom.ID, "uid-member", "member@test.com", grp.ID, models.RoleBoardUsers)

	req := testutil.NewAuthenticatedRequest("DELETE", "/", nil, testutil.OwnerIdentity("uid-owner", dom.ID))
	req = testutil.WithChiURLParam(req, "id", dom.ID.Hex())
	req = testutil.WithChiURLParam(req, "groupID", grp.ID)
	rec := testutil.NewRecorder()

	h.HandleDelete(rec, req)

	rec.AssertStatus(t, http.StatusNoContent)

	if _, err := groupstore.New(db).Get(ctx, dom.ID, grp.ID); err != groupstore.ErrNotFound {
		t.Errorf("expected group gone, got %v", err)
	}
	got, err := memberstore.New(db).Get(ctx, dom.ID, member.ID)
	if err != nil {
		t.Fatalf("member Get failed: %v", err)
	}
	if got.InGroup(grp.ID) {
		t.Error("expected deleted group stripped from member record")
	}
}

func TestHandleDelete_Builtin(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	dom := fixtures.CreateDomain(ctx, "acme", "uid-owner")
	fixtures.CreateBuiltinGroups(ctx, dom.ID, "uid-owner")

	req := testutil.NewAuthenticatedRequest("DELETE", "/", nil, testutil.OwnerIdentity("uid-owner", dom.ID))
	req = testutil.WithChiURLParam(req, "id", dom.ID.Hex())
	req = testutil.WithChiURLParam(req, "groupID", models.RoleBoardUsers)
	rec := testutil.NewRecorder()

	h.HandleDelete(rec, req)

	rec.AssertStatus(t, http.StatusForbidden)
}
