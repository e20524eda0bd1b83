package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/captainsofcommerce/events-api/internal/auth"
	"github.com/captainsofcommerce/events-api/internal/model"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestParseExtractsClaims(t *testing.T) {
	v := auth.NewVerifier(testSecret)
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":          "auth0|abc",
		"email":        "pat@example.com",
		"given_name":   "Pat",
		"family_name":  "Lee",
		auth.RolesClaim: []any{"ADMIN", "STAFF"},
	})

	claims, err := v.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "auth0|abc", claims.Subject)
	assert.Equal(t, "pat@example.com", claims.Email)
	assert.Equal(t, "Pat", claims.FirstName)
	assert.Equal(t, "Lee", claims.LastName)
	assert.Equal(t, []string{"ADMIN", "STAFF"}, claims.Roles)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	v := auth.NewVerifier(testSecret)
	token := signToken(t, "some-other-secret", jwt.MapClaims{"sub": "auth0|abc"})

	_, err := v.Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsWrongAlgorithm(t *testing.T) {
	v := auth.NewVerifier(testSecret)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"sub": "auth0|abc"}).
		SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = v.Parse(token)
	assert.Error(t, err)
}

func TestParseRequiresSubject(t *testing.T) {
	v := auth.NewVerifier(testSecret)
	token := signToken(t, testSecret, jwt.MapClaims{"email": "pat@example.com"})

	_, err := v.Parse(token)
	assert.Error(t, err)
}

func TestHasRole(t *testing.T) {
	claims := &auth.Claims{Roles: []string{"STAFF"}}
	assert.True(t, claims.HasRole(model.RoleStaff))
	assert.True(t, claims.HasRole(model.RoleAdmin, model.RoleStaff))
	assert.False(t, claims.HasRole(model.RoleAdmin))

	empty := &auth.Claims{}
	assert.False(t, empty.HasRole(model.RoleAdmin, model.RoleStaff))
}

func TestAuthenticateMiddleware(t *testing.T) {
	v := auth.NewVerifier(testSecret)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.FromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, "auth0|abc", claims.Subject)
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc123", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized},
		{"valid token", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": "auth0|abc"}), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			v.Authenticate(next).ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	middleware := auth.RequireRole(model.RoleAdmin, model.RoleStaff)

	t.Run("missing claims", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		middleware(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("insufficient role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(auth.WithClaims(req.Context(), &auth.Claims{Subject: "u", Roles: []string{"DONOR"}}))
		rec := httptest.NewRecorder()
		middleware(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "ADMIN or STAFF access required")
	})

	t.Run("allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(auth.WithClaims(req.Context(), &auth.Claims{Subject: "u", Roles: []string{"STAFF"}}))
		rec := httptest.NewRecorder()
		middleware(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
