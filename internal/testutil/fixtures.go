package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"github.com/teambase/teambase/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateDomain creates a test domain owned by ownerUID. The owner is also
// placed in the admins and users arrays, matching what provisioning does.
func (f *Fixtures) CreateDomain(ctx context.Context, name, ownerUID string) models.Domain {
	f.t.Helper()

	now := time.Now().UTC()
	dom := models.Domain{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		DisplayName: name,
		Owner:       ownerUID,
		Admins:      []string{ownerUID},
		Users:       []string{ownerUID},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := f.db.Collection("domains").InsertOne(ctx, dom); err != nil {
		f.t.Fatalf("failed to create test domain: %v", err)
	}

	return dom
}

// CreateGroup creates a custom group in the given domain.
func (f *Fixtures) CreateGroup(ctx context.Context, domainID primitive.ObjectID, name string, memberUIDs ...string) models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	if memberUIDs == nil {
		memberUIDs = []string{}
	}
	grp := models.Group{
		ID:        uuid.NewString(),
		DomainID:  domainID,
		Name:      name,
		NameCI:    text.Fold(name),
		Members:   memberUIDs,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("domain_groups").InsertOne(ctx, grp); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}

	return grp
}

// CreateBuiltinGroups creates the three built-in groups for a domain with
// ownerUID as the sole member of each, mirroring provisioning.
func (f *Fixtures) CreateBuiltinGroups(ctx context.Context, domainID primitive.ObjectID, ownerUID string) []models.Group {
	f.t.Helper()

	now := time.Now().UTC()
	var out []models.Group
	for _, role := range models.BuiltinRoles() {
		grp := models.Group{
			ID:        role,
			DomainID:  domainID,
			Name:      models.BuiltinGroupName(role),
			NameCI:    text.Fold(models.BuiltinGroupName(role)),
			Builtin:   true,
			Members:   []string{ownerUID},
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := f.db.Collection("domain_groups").InsertOne(ctx, grp); err != nil {
			f.t.Fatalf("failed to create builtin group %s: %v", role, err)
		}
		out = append(out, grp)
	}
	return out
}

// CreateMember creates an active member record in the given domain.
func (f *Fixtures) CreateMember(ctx context.Context, domainID primitive.ObjectID, uid, email string, memberOf ...string) models.Member {
	f.t.Helper()

	now := time.Now().UTC()
	if memberOf == nil {
		memberOf = []string{models.RoleBoardUsers}
	}
	m := models.Member{
		ID:        uuid.NewString(),
		DomainID:  domainID,
		UID:       &uid,
		Email:     email,
		Status:    models.MemberStatusActive,
		MemberOf:  memberOf,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("domain_members").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test member: %v", err)
	}

	return m
}

// CreatePendingMember creates a member record without a uid, as written
// when an invitation is sent but not yet accepted.
func (f *Fixtures) CreatePendingMember(ctx context.Context, domainID primitive.ObjectID, email string) models.Member {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.Member{
		ID:        uuid.NewString(),
		DomainID:  domainID,
		Email:     email,
		Status:    models.MemberStatusPending,
		MemberOf:  []string{models.RoleBoardUsers},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("domain_members").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create pending test member: %v", err)
	}

	return m
}

// CreateInvitation creates a pending invitation to the given domain.
func (f *Fixtures) CreateInvitation(ctx context.Context, domainID primitive.ObjectID, domainName, invitee, inviter string) models.Invitation {
	f.t.Helper()

	inv := models.Invitation{
		ID:        uuid.NewString(),
		Name:      domainName,
		Invitee:   invitee,
		Inviter:   inviter,
		Status:    models.InviteStatusPending,
		Domain:    domainID.Hex(),
		Created:   time.Now().UTC(),
		CreatedBy: inviter,
	}

	if _, err := f.db.Collection("member_invites").InsertOne(ctx, inv); err != nil {
		f.t.Fatalf("failed to create test invitation: %v", err)
	}

	return inv
}

// CreateIdentity creates an identity record with the given domain claims.
func (f *Fixtures) CreateIdentity(ctx context.Context, uid, email string, claims map[string]models.DomainClaim) models.Identity {
	f.t.Helper()

	now := time.Now().UTC()
	if claims == nil {
		claims = map[string]models.DomainClaim{}
	}
	ident := models.Identity{
		UID:       uid,
		Email:     email,
		DomainIDs: claims,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("identities").InsertOne(ctx, ident); err != nil {
		f.t.Fatalf("failed to create test identity: %v", err)
	}

	return ident
}

// CreateSubscriptionRecord stores a subscription record for a domain.
func (f *Fixtures) CreateSubscriptionRecord(ctx context.Context, domainID primitive.ObjectID, customerID, subID, status string) models.SubscriptionRecord {
	f.t.Helper()

	rec := models.SubscriptionRecord{
		DomainID:   domainID,
		CustomerID: customerID,
		SubID:      subID,
		Visible: models.SubscriptionInfo{
			ID:     subID,
			Status: status,
		},
		UpdatedAt: time.Now().UTC(),
	}

	if _, err := f.db.Collection("subscriptions").InsertOne(ctx, rec); err != nil {
		f.t.Fatalf("failed to create test subscription record: %v", err)
	}

	return rec
}

// CreateBillingCustomer maps a uid onto a billing customer id.
func (f *Fixtures) CreateBillingCustomer(ctx context.Context, uid, customerID string) models.BillingCustomer {
	f.t.Helper()

	cust := models.BillingCustomer{
		UID:        uid,
		CustomerID: customerID,
		CreatedAt:  time.Now().UTC(),
	}

	if _, err := f.db.Collection("billing_customers").InsertOne(ctx, cust); err != nil {
		f.t.Fatalf("failed to create test billing customer: %v", err)
	}

	return cust
}

// CreateMessage writes an in-app message addressed to uid.
func (f *Fixtures) CreateMessage(ctx context.Context, domainID primitive.ObjectID, uid, subject, body string) models.Message {
	f.t.Helper()

	msg := models.Message{
		ID:       primitive.NewObjectID(),
		DomainID: domainID,
		UID:      uid,
		From:     "teambase",
		To:       []string{uid},
		Subject:  subject,
		Body:     body,
		Status:   "sent",
		Created:  time.Now().UTC(),
		Author:   "teambase",
	}

	if _, err := f.db.Collection("domain_messages").InsertOne(ctx, msg); err != nil {
		f.t.Fatalf("failed to create test message: %v", err)
	}

	return msg
}
