// internal/app/system/auth/auth.go

// Package auth validates bearer credentials and resolves them to a fresh
// identity record for each request.
//
// The bearer token only proves who the caller is. Roles and domain
// memberships come from the identities collection via the IdentityFetcher,
// loaded per request, so revocations and role changes apply immediately
// instead of waiting for the caller's next token refresh.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/teambase/teambase/internal/app/system/webutil"
	"github.com/teambase/teambase/internal/domain/models"
	"go.uber.org/zap"
)

// IdentityFetcher loads the identity record for a verified uid.
// Implemented by the identities store; faked in handler tests.
type IdentityFetcher interface {
	FetchIdentity(ctx context.Context, uid string) (*models.Identity, error)
}

type ctxKey string

const currentIdentityKey ctxKey = "currentIdentity"

// Manager bundles token verification with identity resolution.
type Manager struct {
	verifier *TokenVerifier
	fetcher  IdentityFetcher
	log      *zap.Logger
}

// NewManager constructs an auth Manager.
func NewManager(verifier *TokenVerifier, fetcher IdentityFetcher, logger *zap.Logger) *Manager {
	return &Manager{verifier: verifier, fetcher: fetcher, log: logger}
}

// CurrentIdentity returns the authenticated identity and a found flag.
func CurrentIdentity(r *http.Request) (*models.Identity, bool) {
	ident, ok := r.Context().Value(currentIdentityKey).(*models.Identity)
	return ident, ok
}

// WithIdentity returns a request carrying the given identity in context.
// Handler tests use this to bypass the middleware.
func WithIdentity(r *http.Request, ident *models.Identity) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentIdentityKey, ident))
}

// RequireBearer authenticates every request.
//
// CORS preflight requests pass through unauthenticated: browsers never
// attach Authorization headers to OPTIONS, and rejecting them breaks the
// preflight before the real request can be made.
func (m *Manager) RequireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		raw := bearerToken(r)
		if raw == "" {
			webutil.Error(w, http.StatusUnauthorized, "missing authorization")
			return
		}

		verified, err := m.verifier.Verify(raw)
		if err != nil {
			webutil.Error(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ident, err := m.fetcher.FetchIdentity(r.Context(), verified.UID)
		if err != nil {
			// Token is valid but the identity record is gone or
			// unreachable. Fail closed.
			m.log.Warn("identity resolution failed",
				zap.String("uid", verified.UID), zap.Error(err))
			webutil.Error(w, http.StatusUnauthorized, "unknown identity")
			return
		}
		if ident.Email == "" {
			ident.Email = verified.Email
		}

		next.ServeHTTP(w, WithIdentity(r, ident))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
