package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

// AccessVerifier validates access tokens and returns their claims.
type AccessVerifier interface {
	VerifyAccess(raw string) (auth.AccessClaims, error)
}

// UserLoader resolves the user a verified token refers to.
type UserLoader interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// AccessTokenCookie is the cookie protected routes read the access token from.
const AccessTokenCookie = "accessToken"

// Session extracts a bearer access token from the cookie or Authorization
// header, verifies it, loads the referenced user, and attaches the sanitized
// identity to the request context. Requests without a valid token are
// rejected before the handler runs.
func Session(verifier AccessVerifier, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := ExtractAccessToken(r)
			if raw == "" {
				rejectUnauthorized(w, r, "missing access token")
				return
			}

			claims, err := verifier.VerifyAccess(raw)
			if err != nil {
				rejectUnauthorized(w, r, "invalid access token")
				return
			}

			user, err := users.FindByID(r.Context(), claims.Subject)
			if err != nil {
				rejectUnauthorized(w, r, "invalid access token")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), user)))
		})
	}
}

// ExtractAccessToken pulls the bearer token from the access cookie or the
// Authorization header, preferring the cookie.
func ExtractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func rejectUnauthorized(w http.ResponseWriter, r *http.Request, message string) {
	logging.FromContext(r.Context()).Warn("request rejected", "reason", message)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  http.StatusUnauthorized,
		"message": message,
	})
}
