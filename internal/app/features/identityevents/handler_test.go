package identityevents_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/teambase/teambase/internal/app/features/identityevents"
	domainstore "github.com/teambase/teambase/internal/app/store/domains"
	groupstore "github.com/teambase/teambase/internal/app/store/groups"
	identitystore "github.com/teambase/teambase/internal/app/store/identities"
	invitationstore "github.com/teambase/teambase/internal/app/store/invitations"
	memberstore "github.com/teambase/teambase/internal/app/store/members"
	messagestore "github.com/teambase/teambase/internal/app/store/messages"
	subscriptionstore "github.com/teambase/teambase/internal/app/store/subscriptions"
	"github.com/teambase/teambase/internal/app/system/billing"
	"github.com/teambase/teambase/internal/app/system/lifecycle"
	"github.com/teambase/teambase/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const testSecret = "hook-secret"

func newTestHandler(t *testing.T) (*identityevents.Handler, *mongo.Database, *testutil.FakeBilling) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	fake := &testutil.FakeBilling{}
	lc := lifecycle.New(lifecycle.Deps{
		Client:     db.Client(),
		Domains:    domainstore.New(db),
		Groups:     groupstore.New(db),
		Members:    memberstore.New(db),
		Invites:    invitationstore.New(db),
		Identities: identitystore.New(db),
		Subs:       subscriptionstore.New(db),
		Messages:   messagestore.New(db),
		Billing:    fake,
		Log:        zap.NewNop(),
	})
	return identityevents.NewHandler(lc, testSecret, zap.NewNop()), db, fake
}

func postEvent(t *testing.T, h *identityevents.Handler, secret, body string) *testutil.ResponseRecorder {
	t.Helper()
	req := testutil.NewRequest("POST", "/events/identity", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(identityevents.SecretHeader, secret)
	}
	rec := testutil.NewRecorder()
	h.HandleEvent(rec, req)
	return rec
}

func TestHandleEvent_UserCreated(t *testing.T) {
	h, db, fake := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fake.Customer = billing.Customer{ID: "cus_new"}

	rec := postEvent(t, h, testSecret,
		`{"type": "user.created", "uid": "uid-1", "email": "new@example.com", "countryCode": "GB", "region": "Europe"}`)
	rec.AssertStatus(t, http.StatusNoContent)

	if len(fake.CreatedCustomers) != 1 {
		t.Fatalf("expected 1 billing customer created, got %d", len(fake.CreatedCustomers))
	}
	if fake.CreatedCustomers[0].CountryCode != "GB" {
		t.Errorf("country code = %q, want GB", fake.CreatedCustomers[0].CountryCode)
	}

	customerID, err := subscriptionstore.New(db).GetCustomer(ctx, "uid-1")
	if err != nil {
		t.Fatalf("GetCustomer: %v", err)
	}
	if customerID != "cus_new" {
		t.Errorf("customer mapping = %q, want cus_new", customerID)
	}

	ident, err := identitystore.New(db).FetchIdentity(ctx, "uid-1")
	if err != nil {
		t.Fatalf("FetchIdentity: %v", err)
	}
	if ident.Email != "new@example.com" {
		t.Errorf("identity email = %q", ident.Email)
	}

	// A starter domain is provisioned with a placeholder display name.
	doms, err := domainstore.New(db).ListForUser(ctx, "uid-1")
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(doms) != 1 {
		t.Fatalf("expected 1 starter domain, got %d", len(doms))
	}
	if doms[0].DisplayName != identityevents.DefaultTeamDisplayName {
		t.Errorf("display name = %q, want %q", doms[0].DisplayName, identityevents.DefaultTeamDisplayName)
	}
}

func TestHandleEvent_UserCreatedIdempotent(t *testing.T) {
	h, _, fake := newTestHandler(t)

	fake.Customer = billing.Customer{ID: "cus_new"}

	body := `{"type": "user.created", "uid": "uid-1", "email": "new@example.com"}`
	postEvent(t, h, testSecret, body).AssertStatus(t, http.StatusNoContent)
	postEvent(t, h, testSecret, body).AssertStatus(t, http.StatusNoContent)

	if len(fake.CreatedCustomers) != 1 {
		t.Errorf("expected 1 billing customer across replays, got %d", len(fake.CreatedCustomers))
	}
}

func TestHandleEvent_UserDeleted(t *testing.T) {
	h, db, fake := newTestHandler(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	dom := fixtures.CreateDomain(ctx, "Acme", "uid-1")
	fixtures.CreateBuiltinGroups(ctx, dom.ID, "uid-1")
	fixtures.CreateMember(ctx, dom.ID, "uid-1", "owner@example.com")
	fixtures.CreateIdentity(ctx, "uid-1", "owner@example.com", nil)
	fixtures.CreateBillingCustomer(ctx, "uid-1", "cus_1")
	fixtures.CreateSubscriptionRecord(ctx, dom.ID, "cus_1", "sub_1", billing.StatusActive)

	rec := postEvent(t, h, testSecret, `{"type": "user.deleted", "uid": "uid-1"}`)
	rec.AssertStatus(t, http.StatusNoContent)

	if len(fake.DeletedCustomers) != 1 || fake.DeletedCustomers[0] != "cus_1" {
		t.Errorf("expected cus_1 deleted at provider, got %v", fake.DeletedCustomers)
	}
	if doms, _ := domainstore.New(db).ListForUser(ctx, "uid-1"); len(doms) != 0 {
		t.Errorf("expected owned domains removed, got %d", len(doms))
	}
	if _, err := identitystore.New(db).FetchIdentity(ctx, "uid-1"); err == nil {
		t.Error("expected identity deleted")
	}
	if _, err := subscriptionstore.New(db).GetCustomer(ctx, "uid-1"); err != subscriptionstore.ErrCustomerNotFound {
		t.Errorf("expected customer mapping removed, got err %v", err)
	}
}

func TestHandleEvent_Rejections(t *testing.T) {
	h, _, _ := newTestHandler(t)

	postEvent(t, h, "", `{"type": "user.created", "uid": "u", "email": "e@x.com"}`).
		AssertStatus(t, http.StatusUnauthorized)
	postEvent(t, h, "wrong", `{"type": "user.created", "uid": "u", "email": "e@x.com"}`).
		AssertStatus(t, http.StatusUnauthorized)
	postEvent(t, h, testSecret, `{"type": "user.created", "email": "e@x.com"}`).
		AssertStatus(t, http.StatusBadRequest)
	postEvent(t, h, testSecret, `{"type": "user.created", "uid": "u"}`).
		AssertStatus(t, http.StatusBadRequest)
	postEvent(t, h, testSecret, `{"type": "user.vaporized", "uid": "u"}`).
		AssertStatus(t, http.StatusBadRequest)
}

func TestHandleEvent_EmptyConfiguredSecret(t *testing.T) {
	h, _, _ := newTestHandler(t)
	h.Secret = ""

	postEvent(t, h, "", `{"type": "user.deleted", "uid": "u"}`).
		AssertStatus(t, http.StatusUnauthorized)
}
