// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for Teambase.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, stripe_api_key, etc.
//   - Environment variables: TEAMBASE_MONGO_URI, TEAMBASE_STRIPE_API_KEY, etc.
//   - Command-line flags: --mongo_uri, --stripe_api_key, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "teambase", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Bearer tokens
	{Name: "token_secret", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "HMAC secret for verifying bearer tokens (must be strong in production)"},

	// Stripe
	{Name: "stripe_api_key", Default: "", Desc: "Stripe secret API key"},
	{Name: "stripe_webhook_secret", Default: "", Desc: "Stripe webhook endpoint secret"},
	{Name: "stripe_plan_gbp", Default: "", Desc: "Stripe plan id billed in GBP"},
	{Name: "stripe_plan_usd", Default: "", Desc: "Stripe plan id billed in USD"},
	{Name: "stripe_eu_tax_rate", Default: "", Desc: "Stripe tax rate id for European customers"},

	// Mailgun
	{Name: "mailgun_domain", Default: "", Desc: "Mailgun sending domain"},
	{Name: "mailgun_api_key", Default: "", Desc: "Mailgun private API key"},
	{Name: "mail_from", Default: "noreply@teambase.app", Desc: "From address for invitation mail"},
	{Name: "mailgun_template", Default: "", Desc: "Mailgun stored template for invitations (blank uses built-in body)"},

	// Identity provider callbacks
	{Name: "identity_events_secret", Default: "", Desc: "Shared secret for the /identity-events endpoint"},

	// Base URL for invitation links
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for invitation links"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, TEAMBASE_* for app), and
// command-line flags, merged with precedence flags > env > files >
// defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "TEAMBASE", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		TokenSecret: appValues.String("token_secret"),

		StripeAPIKey:        appValues.String("stripe_api_key"),
		StripeWebhookSecret: appValues.String("stripe_webhook_secret"),
		StripePlanGBP:       appValues.String("stripe_plan_gbp"),
		StripePlanUSD:       appValues.String("stripe_plan_usd"),
		StripeEUTaxRate:     appValues.String("stripe_eu_tax_rate"),

		MailgunDomain:   appValues.String("mailgun_domain"),
		MailgunAPIKey:   appValues.String("mailgun_api_key"),
		MailFrom:        appValues.String("mail_from"),
		MailgunTemplate: appValues.String("mailgun_template"),

		IdentityEventsSecret: appValues.String("identity_events_secret"),

		BaseURL: appValues.String("base_url"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The MongoDB URI is checked up front so a typo fails fast instead of
// hanging on connect. Provider credentials are required in prod only;
// local development runs fine without Stripe or Mailgun keys as long as
// those endpoints are not exercised.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if coreCfg.Env == "prod" {
		switch {
		case appCfg.TokenSecret == "" || appCfg.TokenSecret == "dev-only-change-me-please-0123456789ABCDEF":
			return fmt.Errorf("token_secret must be set to a strong value in production")
		case appCfg.StripeAPIKey == "":
			return fmt.Errorf("stripe_api_key is required in production")
		case appCfg.StripeWebhookSecret == "":
			return fmt.Errorf("stripe_webhook_secret is required in production")
		case appCfg.StripePlanGBP == "" || appCfg.StripePlanUSD == "":
			return fmt.Errorf("stripe_plan_gbp and stripe_plan_usd are required in production")
		case appCfg.MailgunDomain == "" || appCfg.MailgunAPIKey == "":
			return fmt.Errorf("mailgun_domain and mailgun_api_key are required in production")
		case appCfg.IdentityEventsSecret == "":
			return fmt.Errorf("identity_events_secret is required in production")
		}
	}

	if appCfg.StripeAPIKey == "" {
		logger.Warn("stripe_api_key not set; billing endpoints will fail")
	}
	if appCfg.MailgunAPIKey == "" {
		logger.Warn("mailgun_api_key not set; invitation mail will fail")
	}

	return nil
}
