// Package auth verifies identity-provider session tokens and enforces
// role-based access. Token issuance lives entirely at the provider; this
// package only validates what it signed.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/captainsofcommerce/events-api/internal/model"
)

// RolesClaim is the custom claim namespace the identity provider uses to
// attach roles to a session token.
const RolesClaim = "https://captainsofcommerce.org/roles"

type contextKey struct{}

var claimsKey contextKey

// Claims are the identity fields extracted from a verified token.
type Claims struct {
	Subject   string
	Email     string
	FirstName string
	LastName  string
	Roles     []string
}

// HasRole reports whether the token carries any of the given roles.
func (c *Claims) HasRole(roles ...model.UserRole) bool {
	for _, have := range c.Roles {
		for _, want := range roles {
			if have == string(want) {
				return true
			}
		}
	}
	return false
}

// Verifier validates HMAC-signed bearer tokens.
type Verifier struct {
	secret []byte
}

// NewVerifier constructs a Verifier over the shared signing secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Parse verifies the token signature and extracts the identity claims.
func (v *Verifier) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("unexpected token claims type")
	}

	claims := &Claims{}
	claims.Subject, _ = mapClaims["sub"].(string)
	claims.Email, _ = mapClaims["email"].(string)
	claims.FirstName, _ = mapClaims["given_name"].(string)
	claims.LastName, _ = mapClaims["family_name"].(string)
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}

	if rawRoles, ok := mapClaims[RolesClaim].([]any); ok {
		for _, r := range rawRoles {
			if role, ok := r.(string); ok {
				claims.Roles = append(claims.Roles, role)
			}
		}
	}
	return claims, nil
}

// FromContext returns the verified claims attached by Authenticate.
func FromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}

// WithClaims returns a context carrying the given claims. Exposed for
// handler tests.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.ErrorResponse{Error: msg})
}

// Authenticate rejects requests without a valid bearer token and attaches
// the verified claims to the request context.
func (v *Verifier) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			writeAuthError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		claims, err := v.Parse(tokenString)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// RequireRole rejects authenticated requests whose token lacks all of the
// given roles.
func RequireRole(roles ...model.UserRole) func(http.Handler) http.Handler {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	forbiddenMsg := "Forbidden - " + strings.Join(names, " or ") + " access required"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := FromContext(r.Context())
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if !claims.HasRole(roles...) {
				writeAuthError(w, http.StatusForbidden, forbiddenMsg)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
