// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP/HTTPS
// ports, TLS, logging level, and request limits. AppConfig is where
// everything specific to this application lives: database connection
// strings, payment and mail provider credentials, and shared secrets.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Bearer token verification
	TokenSecret string // HMAC secret for verifying API bearer tokens

	// Stripe configuration
	StripeAPIKey        string // Secret API key
	StripeWebhookSecret string // Endpoint secret for webhook signature checks
	StripePlanGBP       string // Seat plan id billed in GBP (UK customers)
	StripePlanUSD       string // Seat plan id billed in USD (everyone else)
	StripeEUTaxRate     string // Tax rate id applied to European subscriptions

	// Mailgun configuration
	MailgunDomain   string // Sending domain registered with Mailgun
	MailgunAPIKey   string // Private API key
	MailFrom        string // From address for invitation mail
	MailgunTemplate string // Stored template name (blank uses the built-in body)

	// Identity provider callbacks
	IdentityEventsSecret string // Shared secret for /identity-events

	// Base URL used in invitation links
	BaseURL string // e.g., "https://teambase.app" or "http://localhost:3000"
}
