package handlers

import (
	"net/http"
	"time"

	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/models"
)

const refreshTokenCookie = "refreshToken"

// setAuthCookies delivers both tokens as http-only secure cookies alongside
// the JSON body.
func setAuthCookies(w http.ResponseWriter, pair models.TokenPair) {
	setTokenCookie(w, middleware.AccessTokenCookie, pair.AccessToken, pair.AccessExpiresAt)
	setTokenCookie(w, refreshTokenCookie, pair.RefreshToken, pair.RefreshExpiresAt)
}

// clearAuthCookies expires both token cookies.
func clearAuthCookies(w http.ResponseWriter) {
	expireTokenCookie(w, middleware.AccessTokenCookie)
	expireTokenCookie(w, refreshTokenCookie)
}

func setTokenCookie(w http.ResponseWriter, name, value string, expires time.Time) {
	maxAge := int(time.Until(expires).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires.UTC(),
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func expireTokenCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}
