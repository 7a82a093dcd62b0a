/*
auth.go - Session tokens and identity middleware

PURPOSE:
  Replaces ambient server-side session state with explicit request-scoped
  identity. The external OAuth provider verifies the email; this layer
  mints a signed session token for it and, on every request, resolves the
  bearer token back to a User placed on the request context.

TOKEN FORMAT:
  HS256 JWT with the verified email as subject plus issued-at/expiry.
  Tokens are stateless; logout is a client-side discard.

MIDDLEWARE CHAIN:
  withIdentity  - best-effort: attaches the user when a valid token is
                  present, otherwise passes through anonymously
  requireUser   - 401 without an authenticated user
  requireAdmin  - 403 unless the user holds the administrator role
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/leavedesk/leavedesk/leave"
)

// Auth issues and verifies session tokens.
type Auth struct {
	secret []byte
	ttl    time.Duration
}

// NewAuth creates a token authority with the given HMAC secret and TTL.
func NewAuth(secret string, ttl time.Duration) *Auth {
	return &Auth{secret: []byte(secret), ttl: ttl}
}

// IssueToken mints a session token for a verified email.
func (a *Auth) IssueToken(email string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// VerifyToken validates a raw token and returns the subject email.
func (a *Auth) VerifyToken(raw string) (string, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return "", err
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("token has no subject")
	}
	return sub, nil
}

// =============================================================================
// REQUEST-SCOPED IDENTITY
// =============================================================================

type ctxKey int

const userKey ctxKey = iota

// CurrentUser returns the authenticated user on the context, or nil.
func CurrentUser(ctx context.Context) *leave.User {
	u, _ := ctx.Value(userKey).(*leave.User)
	return u
}

// withIdentity resolves a bearer token to a user when one is present.
// Anonymous requests pass through; gating happens downstream.
func (h *Handler) withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		email, err := h.Auth.VerifyToken(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid session token", err)
			return
		}

		u, err := h.Store.GetUserByEmail(r.Context(), email)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to resolve identity", err)
			return
		}
		if u == nil {
			// Token outlived the account (declined registration).
			writeError(w, http.StatusUnauthorized, "Unknown account", nil)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
	})
}

func (h *Handler) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentUser(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "Authentication required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := CurrentUser(r.Context())
		if u == nil || !leave.CanAdministrate(u.Role) {
			writeError(w, http.StatusForbidden, "Administrator role required", nil)
			return
		}
		next.ServeHTTP(w, r)
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
