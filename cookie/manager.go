package cookie

import (
	"net/http"
	"time"
)

const (
	sessionPrefix = "session-"
	secretPrefix  = "secret-"
)

// SessionCookieName returns the name of the session-id cookie for a hash.
func SessionCookieName(hash string) string {
	return sessionPrefix + hash
}

// SecretCookieName returns the name of the secret cookie for a hash.
func SecretCookieName(hash string) string {
	return secretPrefix + hash
}

// SplitSessionCookieName extracts the hash suffix from a session cookie name.
func SplitSessionCookieName(name string) (hash string, ok bool) {
	if len(name) <= len(sessionPrefix) || name[:len(sessionPrefix)] != sessionPrefix {
		return "", false
	}
	return name[len(sessionPrefix):], true
}

// Manager writes and removes the session/secret cookie pair.
//
// Manager instances are configured once and safe for concurrent use.
type Manager struct {
	ttl         time.Duration
	autologin   bool
	forceSecure bool
	path        string
}

// NewManager creates a cookie [Manager]. ttl is the cookie lifetime applied
// only when autologin is enabled; with autologin disabled every cookie is
// session-only. forceSecure marks cookies Secure even on plain HTTP requests
// (TLS-terminating proxy deployments).
func NewManager(ttl time.Duration, autologin, forceSecure bool) *Manager {
	return &Manager{
		ttl:         ttl,
		autologin:   autologin,
		forceSecure: forceSecure,
		path:        "/",
	}
}

// WriteSessionCookie sets session-<hash> to the session id.
func (m *Manager) WriteSessionCookie(w http.ResponseWriter, r *http.Request, hash, sessionID string) {
	http.SetCookie(w, m.cookie(r, SessionCookieName(hash), sessionID))
}

// WriteSecretCookie sets secret-<hash> to the session secret.
func (m *Manager) WriteSecretCookie(w http.ResponseWriter, r *http.Request, hash, secret string) {
	http.SetCookie(w, m.cookie(r, SecretCookieName(hash), secret))
}

// RemoveSessionCookies expires both cookies for a hash. Used on logout,
// IP-check failure, and invalid-cookie recovery.
func (m *Manager) RemoveSessionCookies(w http.ResponseWriter, r *http.Request, hash string) {
	for _, name := range []string{SessionCookieName(hash), SecretCookieName(hash)} {
		c := m.cookie(r, name, "")
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func (m *Manager) cookie(r *http.Request, name, value string) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     m.path,
		HttpOnly: true,
		Secure:   m.forceSecure || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	}
	// Unlimited-lifetime cookies are only acceptable when the deployment
	// opted into autologin; otherwise the pair dies with the browser.
	if m.autologin && m.ttl > 0 {
		c.MaxAge = int(m.ttl.Seconds())
	}
	return c
}
