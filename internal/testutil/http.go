package testutil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/teambase/teambase/internal/app/system/auth"
	"github.com/teambase/teambase/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// OwnerIdentity returns an identity holding all built-in roles for the
// given domain, as the domain owner would after provisioning.
func OwnerIdentity(uid string, domainID primitive.ObjectID) *models.Identity {
	hex := domainID.Hex()
	return &models.Identity{
		UID:      uid,
		Email:    uid + "@test.com",
		DomainID: hex,
		DomainIDs: map[string]models.DomainClaim{
			hex: {Roles: models.BuiltinRoles()},
		},
	}
}

// AdminIdentity returns an identity holding the administrator role for
// the given domain.
func AdminIdentity(uid string, domainID primitive.ObjectID) *models.Identity {
	hex := domainID.Hex()
	return &models.Identity{
		UID:      uid,
		Email:    uid + "@test.com",
		DomainID: hex,
		DomainIDs: map[string]models.DomainClaim{
			hex: {Roles: []string{models.RoleAdministrators, models.RoleBoardUsers}},
		},
	}
}

// UserIdentity returns an identity holding only the user role for the
// given domain.
func UserIdentity(uid string, domainID primitive.ObjectID) *models.Identity {
	hex := domainID.Hex()
	return &models.Identity{
		UID:      uid,
		Email:    uid + "@test.com",
		DomainID: hex,
		DomainIDs: map[string]models.DomainClaim{
			hex: {Roles: []string{models.RoleBoardUsers}},
		},
	}
}

// StrangerIdentity returns an identity with no domain claims at all.
func StrangerIdentity() *models.Identity {
	uid := uuid.NewString()
	return &models.Identity{
		UID:       uid,
		Email:     uid + "@test.com",
		DomainIDs: map[string]models.DomainClaim{},
	}
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string, body io.Reader) *http.Request {
	return httptest.NewRequest(method, target, body)
}

// NewAuthenticatedRequest creates an HTTP request with an identity in
// context, bypassing the bearer middleware.
func NewAuthenticatedRequest(method, target string, body io.Reader, ident *models.Identity) *http.Request {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return auth.WithIdentity(req, ident)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d", r.Code, expected)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body %q does not contain %q", r.Body.String(), expected)
	}
}
