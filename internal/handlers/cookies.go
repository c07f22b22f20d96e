package handlers

import (
	"net/http"
	"time"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/models"
)

func setSessionCookies(w http.ResponseWriter, tokens models.SessionTokens, sameSite http.SameSite) {
	http.SetCookie(w, sessionCookie(auth.AccessTokenCookie, tokens.AccessToken, tokens.AccessExpiresAt, sameSite))
	http.SetCookie(w, sessionCookie(auth.RefreshTokenCookie, tokens.RefreshToken, tokens.RefreshExpiresAt, sameSite))
}

func clearSessionCookies(w http.ResponseWriter, sameSite http.SameSite) {
	for _, name := range []string{auth.AccessTokenCookie, auth.RefreshTokenCookie} {
		cookie := sessionCookie(name, "", time.Unix(0, 0), sameSite)
		cookie.MaxAge = -1
		http.SetCookie(w, cookie)
	}
}

func sessionCookie(name, value string, expires time.Time, sameSite http.SameSite) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   true,
		SameSite: sameSite,
	}
}
