// internal/app/system/lifecycle/lifecycle.go

// Package lifecycle orchestrates the multi-collection writes that create
// and destroy domains and user accounts. Document writes run inside a
// Mongo transaction; billing and claims follow once the documents commit.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/teambase/teambase/internal/app/store/domains"
	"github.com/teambase/teambase/internal/app/store/groups"
	"github.com/teambase/teambase/internal/app/store/identities"
	"github.com/teambase/teambase/internal/app/store/invitations"
	"github.com/teambase/teambase/internal/app/store/members"
	"github.com/teambase/teambase/internal/app/store/messages"
	"github.com/teambase/teambase/internal/app/store/subscriptions"
	"github.com/teambase/teambase/internal/app/system/billing"
	"github.com/teambase/teambase/internal/app/system/txn"
	"github.com/teambase/teambase/internal/domain/models"
)

// Deps bundles everything the lifecycle manager writes to.
type Deps struct {
	Client     *mongo.Client
	Domains    *domainstore.Store
	Groups     *groupstore.Store
	Members    *memberstore.Store
	Invites    *invitationstore.Store
	Identities *identitystore.Store
	Subs       *subscriptionstore.Store
	Messages   *messagestore.Store
	Billing    billing.Provider
	Log        *zap.Logger
}

type Manager struct {
	d Deps
}

func New(d Deps) *Manager {
	return &Manager{d: d}
}

// ProvisionDomain creates a domain with its three built-in groups, an
// active owner member record, and a welcome message, then grants the
// owner the built-in roles on their identity.
func (m *Manager) ProvisionDomain(ctx context.Context, uid, email, name, displayName string) (models.Domain, error) {
	var dom models.Domain

	err := txn.WithTransaction(ctx, m.d.Client, func(ctx context.Context) error {
		d, err := m.d.Domains.Create(ctx, models.Domain{
			Name:        name,
			DisplayName: displayName,
			Owner:       uid,
			Admins:      []string{uid},
			Users:       []string{uid},
		})
		if err != nil {
			return err
		}

		for _, role := range models.BuiltinRoles() {
			if _, err := m.d.Groups.Create(ctx, models.Group{
				ID:       role,
				DomainID: d.ID,
				Name:     models.BuiltinGroupName(role),
				Builtin:  true,
				Members:  []string{uid},
			}); err != nil {
				return fmt.Errorf("create builtin group %s: %w", role, err)
			}
		}

		owner := uid
		if _, err := m.d.Members.Add(ctx, models.Member{
			ID:       uuid.NewString(),
			DomainID: d.ID,
			UID:      &owner,
			Email:    email,
			Status:   models.MemberStatusActive,
			MemberOf: models.BuiltinRoles(),
		}); err != nil {
			return fmt.Errorf("create owner member: %w", err)
		}

		if _, err := m.d.Messages.Create(ctx, models.Message{
			DomainID: d.ID,
			UID:      uid,
			From:     name,
			To:       []string{uid},
			Subject:  "Welcome to " + name,
			Body:     "Your team " + name + " is ready. Invite members from the team settings page.",
			Status:   "sent",
			Created:  time.Now().UTC(),
			Author:   "system",
		}); err != nil {
			return fmt.Errorf("create welcome message: %w", err)
		}

		dom = d
		return nil
	})
	if err != nil {
		return models.Domain{}, err
	}

	if err := m.d.Identities.Upsert(ctx, uid, email); err != nil {
		return models.Domain{}, fmt.Errorf("upsert identity: %w", err)
	}
	if err := m.d.Identities.SetDomainRoles(ctx, uid, dom.ID.Hex(), models.BuiltinRoles()); err != nil {
		return models.Domain{}, fmt.Errorf("grant owner roles: %w", err)
	}

	m.d.Log.Info("domain provisioned",
		zap.String("domain_id", dom.ID.Hex()),
		zap.String("owner", uid),
		zap.String("name", name))
	return dom, nil
}

// ProvisionUser records a new account: an identity document plus a
// billing customer keyed to the uid.
func (m *Manager) ProvisionUser(ctx context.Context, uid, email, countryCode, region, vatNumber string) error {
	if err := m.d.Identities.Upsert(ctx, uid, email); err != nil {
		return fmt.Errorf("upsert identity: %w", err)
	}

	if _, err := m.d.Subs.GetCustomer(ctx, uid); err == nil {
		return nil // already provisioned
	} else if !errors.Is(err, subscriptionstore.ErrCustomerNotFound) {
		return err
	}

	cust, err := m.d.Billing.CreateCustomer(ctx, billing.CreateCustomerParams{
		Email:       email,
		CountryCode: countryCode,
		Region:      region,
		VATNumber:   vatNumber,
	})
	if err != nil {
		return fmt.Errorf("create billing customer: %w", err)
	}
	if err := m.d.Subs.SetCustomer(ctx, uid, cust.ID); err != nil {
		return fmt.Errorf("store billing customer: %w", err)
	}

	m.d.Log.Info("user provisioned",
		zap.String("uid", uid),
		zap.String("customer_id", cust.ID))
	return nil
}

// RemoveDomain deletes a domain and every record hanging off it, then
// strips the domain from the identities of its former members.
func (m *Manager) RemoveDomain(ctx context.Context, dom models.Domain) error {
	formerMembers, err := m.d.Members.ListForDomain(ctx, dom.ID)
	if err != nil {
		return fmt.Errorf("list members: %w", err)
	}

	err = txn.WithTransaction(ctx, m.d.Client, func(ctx context.Context) error {
		if err := m.d.Messages.DeleteAllForDomain(ctx, dom.ID); err != nil {
			return err
		}
		if err := m.d.Members.DeleteAllForDomain(ctx, dom.ID); err != nil {
			return err
		}
		if err := m.d.Groups.DeleteAllForDomain(ctx, dom.ID); err != nil {
			return err
		}
		if err := m.d.Invites.DeleteAllForDomain(ctx, dom.ID.Hex()); err != nil {
			return err
		}
		if err := m.d.Subs.Delete(ctx, dom.ID); err != nil && !errors.Is(err, subscriptionstore.ErrNotFound) {
			return err
		}
		return m.d.Domains.Delete(ctx, dom.ID)
	})
	if err != nil {
		return err
	}

	for _, mem := range formerMembers {
		if mem.UID == nil {
			continue
		}
		if err := m.d.Identities.RemoveDomain(ctx, *mem.UID, dom.ID.Hex()); err != nil {
			m.d.Log.Warn("strip domain claim failed",
				zap.String("uid", *mem.UID),
				zap.String("domain_id", dom.ID.Hex()),
				zap.Error(err))
		}
	}

	m.d.Log.Info("domain removed",
		zap.String("domain_id", dom.ID.Hex()),
		zap.String("owner", dom.Owner))
	return nil
}

// StripToOwner deletes every member except the owner, pulling the
// departed members out of the domain's groups, user list, and identity
// claims. Used when a trial subscription is canceled outright.
func (m *Manager) StripToOwner(ctx context.Context, dom models.Domain) error {
	removed, err := m.d.Members.DeleteAllExcept(ctx, dom.ID, dom.Owner)
	if err != nil {
		return fmt.Errorf("delete members: %w", err)
	}

	for _, mem := range removed {
		if mem.UID == nil || *mem.UID == dom.Owner {
			continue
		}
		uid := *mem.UID
		if err := m.d.Groups.RemoveMemberFromAll(ctx, dom.ID, uid); err != nil {
			return fmt.Errorf("remove %s from groups: %w", uid, err)
		}
		if err := m.d.Domains.RemoveUser(ctx, dom.ID, uid); err != nil {
			return fmt.Errorf("remove %s from domain: %w", uid, err)
		}
		if err := m.d.Identities.RemoveDomain(ctx, uid, dom.ID.Hex()); err != nil {
			m.d.Log.Warn("strip domain claim failed",
				zap.String("uid", uid), zap.Error(err))
		}
	}
	return nil
}

// TeardownUser removes a deleted account: its owned domains (canceling
// any live subscriptions), its billing customer, and its identity.
func (m *Manager) TeardownUser(ctx context.Context, uid string) error {
	owned, err := m.d.Domains.ListOwnedBy(ctx, uid)
	if err != nil {
		return fmt.Errorf("list owned domains: %w", err)
	}

	for _, dom := range owned {
		if err := m.cancelDomainBilling(ctx, dom.ID); err != nil {
			m.d.Log.Warn("cancel subscription during teardown failed",
				zap.String("domain_id", dom.ID.Hex()), zap.Error(err))
		}
		if err := m.RemoveDomain(ctx, dom); err != nil {
			return fmt.Errorf("remove domain %s: %w", dom.ID.Hex(), err)
		}
	}

	customerID, err := m.d.Subs.GetCustomer(ctx, uid)
	switch {
	case err == nil:
		if err := m.d.Billing.DeleteCustomer(ctx, customerID); err != nil {
			m.d.Log.Warn("delete billing customer failed",
				zap.String("customer_id", customerID), zap.Error(err))
		}
		if err := m.d.Subs.DeleteCustomer(ctx, uid); err != nil {
			return fmt.Errorf("delete customer mapping: %w", err)
		}
	case errors.Is(err, subscriptionstore.ErrCustomerNotFound):
		// nothing to clean up
	default:
		return err
	}

	if err := m.d.Identities.Delete(ctx, uid); err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}

	m.d.Log.Info("user torn down", zap.String("uid", uid))
	return nil
}

func (m *Manager) cancelDomainBilling(ctx context.Context, domainID primitive.ObjectID) error {
	rec, err := m.d.Subs.Get(ctx, domainID)
	if errors.Is(err, subscriptionstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if rec.SubID == "" {
		return nil
	}
	if err := m.d.Billing.ClearPendingInvoiceItems(ctx, rec.CustomerID); err != nil {
		return err
	}
	_, err = m.d.Billing.CancelNow(ctx, rec.SubID)
	return err
}
