package middleware

import (
	"net/http"
	"time"
)

// Handshake cookies carry the sealed OAuth state and PKCE verifier between
// the start redirect and the provider callback.
const (
	OAuthStateCookie    = "oauth_state"
	OAuthVerifierCookie = "oauth_code_verifier"

	handshakeCookiePath = "/api/auth"
)

func SetHandshakeCookie(w http.ResponseWriter, name, value string, maxAge time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     handshakeCookiePath,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearHandshakeCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:   name,
		Value:  "",
		Path:   handshakeCookiePath,
		MaxAge: -1,
	})
}
