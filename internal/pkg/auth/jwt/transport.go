package jwt

import (
	"net/http"
	"strings"
	"time"
)

// AuthCookieName is the HTTP-only cookie holding the identity token for browser clients.
const AuthCookieName = "auth_token"

// TokenFromRequest extracts the identity token supplied with an HTTP request.
// It checks, in order: the "token" query parameter (used by the WebSocket handshake,
// where custom headers are unavailable to browsers), the Authorization Bearer header,
// and finally the auth cookie. An empty string means no token was supplied.
func TokenFromRequest(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}

	if cookie, err := r.Cookie(AuthCookieName); err == nil {
		return cookie.Value
	}

	return ""
}

// SetAuthCookie stores the identity token in an HTTP-only cookie on the response.
func SetAuthCookie(w http.ResponseWriter, token string, secure bool, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearAuthCookie removes the identity cookie from the client.
func ClearAuthCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
