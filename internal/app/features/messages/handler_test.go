package messages_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/teambase/teambase/internal/app/features/messages"
	domainstore "github.com/teambase/teambase/internal/app/store/domains"
	messagestore "github.com/teambase/teambase/internal/app/store/messages"
	"github.com/teambase/teambase/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*messages.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	h := messages.NewHandler(domainstore.New(db), messagestore.New(db), zap.NewNop())
	return h, db
}

func TestHandleList(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	dom := fixtures.CreateDomain(ctx, "Acme", "owner-1")
	fixtures.CreateMessage(ctx, dom.ID, "owner-1", "Welcome", "Your team is ready.")
	fixtures.CreateMessage(ctx, dom.ID, "someone-else", "Private", "Not yours.")

	req := testutil.NewAuthenticatedRequest("GET", "/", nil, testutil.OwnerIdentity("owner-1", dom.ID))
	req = testutil.WithChiURLParam(req, "id", dom.ID.Hex())
	rec := testutil.NewRecorder()

	h.HandleList(rec, req)

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Welcome")
	if body := rec.Body.String(); strings.Contains(body, "Private") {
		t.Errorf("response leaked another member's message: %s", body)
	}
}

func TestHandleList_NonMember(t *testing.T) {
	h, db := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	dom := fixtures.CreateDomain(ctx, "Acme", "owner-1")

	req := testutil.NewAuthenticatedRequest("GET", "/", nil, testutil.StrangerIdentity())
	req = testutil.WithChiURLParam(req, "id", dom.ID.Hex())
	rec := testutil.NewRecorder()

	h.HandleList(rec, req)

	rec.AssertStatus(t, http.StatusNotFound)
}

func TestHandleList_BadDomainID(t *testing.T) {
	h, _ := newTestHandler(t)

	req := testutil.NewAuthenticatedRequest("GET", "/", nil, testutil.StrangerIdentity())
	req = testutil.WithChiURLParam(req, "id", "not-an-object-id")
	rec := testutil.NewRecorder()

	h.HandleList(rec, req)

	rec.AssertStatus(t, http.StatusNotFound)
}
