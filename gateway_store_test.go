package sessiongate

import (
	"net/http"
	"testing"

	"github.com/sessiongate-io/sessiongate/cookie"
)

func TestStoreRequiresAutologin(t *testing.T) {
	gw, _ := newTestGateway(t, nil)
	desc, _ := login(t, gw)

	rec := doAction(t, gw, "/ajax/login?action=store&session="+desc.SessionID+"&client=desktop", nil)
	wantCode(t, rec, http.StatusForbidden, CodeFlowDisabled)
}

func TestStoreWritesSessionCookie(t *testing.T) {
	gw, _ := newTestGateway(t, func(c *Config) {
		c.Cookie.Autologin = true
	})
	desc, _ := login(t, gw)

	rec := doAction(t, gw, "/ajax/login?action=store&session="+desc.SessionID+"&client=desktop", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("store status %d: %s", rec.Code, rec.Body.String())
	}

	hash := gw.hasher.HashForClient("desktop", testUserAgent)
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookie.SessionCookieName(hash) {
			if c.Value != desc.SessionID {
				t.Fatalf("session cookie carries %q, want %q", c.Value, desc.SessionID)
			}
			if c.MaxAge <= 0 {
				t.Fatal("autologin session cookie must be persistent")
			}
			return
		}
	}
	t.Fatal("session cookie not set")
}

func TestRefreshSecretWorksWithoutAutologin(t *testing.T) {
	gw, _ := newTestGateway(t, nil)
	desc, _ := login(t, gw)

	rec := doAction(t, gw, "/ajax/login?action=refreshSecret&session="+desc.SessionID+"&client=desktop", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("refreshSecret status %d: %s", rec.Code, rec.Body.String())
	}

	sess := sessionFromRegistry(t, gw, desc.SessionID)
	hash := gw.hasher.HashForClient("desktop", testUserAgent)
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookie.SecretCookieName(hash) {
			if c.Value != sess.Secret {
				t.Fatal("refreshed secret cookie must carry the session secret")
			}
			return
		}
	}
	t.Fatal("secret cookie not set")
}

func TestStoreUnknownSession(t *testing.T) {
	gw, _ := newTestGateway(t, func(c *Config) {
		c.Cookie.Autologin = true
	})

	rec := doAction(t, gw, "/ajax/login?action=store&session=unknown&client=desktop", nil)
	wantCode(t, rec, http.StatusOK, CodeSessionExpired)
}
