// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	domainsfeature "github.com/teambase/teambase/internal/app/features/domains"
	groupsfeature "github.com/teambase/teambase/internal/app/features/groups"
	healthfeature "github.com/teambase/teambase/internal/app/features/health"
	identityeventsfeature "github.com/teambase/teambase/internal/app/features/identityevents"
	invitesfeature "github.com/teambase/teambase/internal/app/features/invites"
	membersfeature "github.com/teambase/teambase/internal/app/features/members"
	messagesfeature "github.com/teambase/teambase/internal/app/features/messages"
	paymentmethodsfeature "github.com/teambase/teambase/internal/app/features/paymentmethods"
	setupintentsfeature "github.com/teambase/teambase/internal/app/features/setupintents"
	subscriptionsfeature "github.com/teambase/teambase/internal/app/features/subscriptions"
	webhooksfeature "github.com/teambase/teambase/internal/app/features/webhooks"
	"github.com/teambase/teambase/internal/app/store/domains"
	"github.com/teambase/teambase/internal/app/store/groups"
	"github.com/teambase/teambase/internal/app/store/identities"
	"github.com/teambase/teambase/internal/app/store/invitations"
	"github.com/teambase/teambase/internal/app/store/members"
	"github.com/teambase/teambase/internal/app/store/messages"
	"github.com/teambase/teambase/internal/app/store/subscriptions"
	"github.com/teambase/teambase/internal/app/system/auth"
	"github.com/teambase/teambase/internal/app/system/billing"
	"github.com/teambase/teambase/internal/app/system/lifecycle"
	"github.com/teambase/teambase/internal/app/system/mailer"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE
// app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and any Startup hooks have completed. It builds the stores, the Stripe
// and Mailgun clients, the auth middleware, and the lifecycle manager,
// then mounts every feature router.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	// Stores
	domains := domainstore.New(db)
	groups := groupstore.New(db)
	members := memberstore.New(db)
	invites := invitationstore.New(db)
	identities := identitystore.New(db)
	subs := subscriptionstore.New(db)
	messages := messagestore.New(db)

	// Providers
	stripe := billing.NewStripe(appCfg.StripeAPIKey, appCfg.StripeWebhookSecret, appCfg.StripeEUTaxRate, logger)
	plans := billing.Config{
		PlanGBP:   appCfg.StripePlanGBP,
		PlanUSD:   appCfg.StripePlanUSD,
		EUTaxRate: appCfg.StripeEUTaxRate,
	}
	sender := mailer.NewMailgun(mailer.MailgunConfig{
		Domain:   appCfg.MailgunDomain,
		APIKey:   appCfg.MailgunAPIKey,
		From:     appCfg.MailFrom,
		Template: appCfg.MailgunTemplate,
		BaseURL:  appCfg.BaseURL,
	}, logger)

	// The auth manager re-reads the caller's identity document on every
	// request, so revoked roles take effect immediately.
	authMgr := auth.NewManager(auth.NewTokenVerifier(appCfg.TokenSecret), identities, logger)

	lc := lifecycle.New(lifecycle.Deps{
		Client:     deps.MongoClient,
		Domains:    domains,
		Groups:     groups,
		Members:    members,
		Invites:    invites,
		Identities: identities,
		Subs:       subs,
		Messages:   messages,
		Billing:    stripe,
		Log:        logger,
	})

	// Feature handlers
	domainsH := domainsfeature.NewHandler(db, domains, lc, logger)
	groupsH := groupsfeature.NewHandler(domains, groups, members, logger)
	membersH := membersfeature.NewHandler(db, domains, groups, members, identities, subs, stripe, logger)
	invitesH := invitesfeature.NewHandler(db, domains, groups, members, invites, identities, sender, logger)
	subsH := subscriptionsfeature.NewHandler(domains, members, subs, stripe, plans, lc, logger)
	pmH := paymentmethodsfeature.NewHandler(subs, stripe, logger)
	siH := setupintentsfeature.NewHandler(domains, subs, stripe, plans, logger)
	whH := webhooksfeature.NewHandler(domains, subs, stripe, logger)
	msgsH := messagesfeature.NewHandler(domains, messages, logger)
	ieH := identityeventsfeature.NewHandler(lc, appCfg.IdentityEventsSecret, logger)
	healthH := healthfeature.NewHandler(deps.MongoClient, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Unauthenticated surface
	r.Mount("/health", healthfeature.Routes(healthH))
	r.Group(func(pr chi.Router) {
		pr.Use(httprate.LimitByIP(120, time.Minute))
		pr.Mount("/stripe-webhook", webhooksfeature.Routes(whH))
		pr.Mount("/identity-events", identityeventsfeature.Routes(ieH))
	})

	// Bearer-authenticated API
	r.Group(func(pr chi.Router) {
		pr.Use(authMgr.RequireBearer)

		pr.Mount("/domains", domainsfeature.Routes(domainsH,
			invitesH.HandleAccept,
			groupsfeature.Routes(groupsH),
			membersfeature.Routes(membersH),
			messagesfeature.Routes(msgsH)))

		pr.Group(func(ir chi.Router) {
			ir.Use(httprate.LimitByIP(30, time.Minute))
			ir.Mount("/invites", invitesfeature.Routes(invitesH))
		})

		pr.Mount("/subscriptions", subscriptionsfeature.Routes(subsH))
		pr.Mount("/payment-methods", paymentmethodsfeature.Routes(pmH))
		pr.Mount("/setup-intents", setupintentsfeature.Routes(siH))
	})

	return r, nil
}
