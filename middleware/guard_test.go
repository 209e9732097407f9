package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	sessiongate "github.com/sessiongate-io/sessiongate"
	"github.com/sessiongate-io/sessiongate/cookie"
)

type passwordValidator struct{}

func (passwordValidator) Validate(_ context.Context, creds sessiongate.Credentials) (*sessiongate.Identity, error) {
	if creds.Login != "alice" || creds.Password != "hunter22xx" {
		return nil, context.DeadlineExceeded
	}
	return &sessiongate.Identity{ContextID: 1, UserID: 42, LoginName: "alice"}, nil
}

func newTestGateway(t *testing.T) *sessiongate.Gateway {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	gw, err := sessiongate.New().
		WithRedis(rdb).
		WithValidator(passwordValidator{}).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(gw.Close)

	return gw
}

// establishSession logs in through the gateway handler and returns the
// session id and the cookie pair for gated requests.
func establishSession(t *testing.T, gw *sessiongate.Gateway) (string, []*http.Cookie) {
	t.Helper()

	r := httptest.NewRequest("POST", "/ajax/login?action=login&login=alice&password=hunter22xx&client=desktop", nil)
	r.Header.Set("User-Agent", "Mozilla/5.0 (test)")
	rec := httptest.NewRecorder()
	gw.Handler().ServeHTTP(rec, r)

	var env struct {
		Data sessiongate.SessionDescriptor `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if env.Data.SessionID == "" {
		t.Fatalf("login failed: %s", rec.Body.String())
	}

	// Obtain the session cookie through the refreshSecret path plus a
	// manual session cookie, mirroring the login/store handshake.
	cookies := rec.Result().Cookies()
	for _, c := range cookies {
		if hash, ok := splitSecret(c.Name); ok {
			cookies = append(cookies, &http.Cookie{
				Name:  cookie.SessionCookieName(hash),
				Value: env.Data.SessionID,
			})
		}
	}

	return env.Data.SessionID, cookies
}

func splitSecret(name string) (string, bool) {
	const prefix = "secret-"
	if len(name) <= len(prefix) || name[:len(prefix)] != prefix {
		return "", false
	}
	return name[len(prefix):], true
}

func TestGuardAdmitsAndPublishesSession(t *testing.T) {
	gw := newTestGateway(t)
	sessionID, cookies := establishSession(t, gw)

	var seen bool
	h := Guard(gw)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFromContext(r.Context())
		if !ok {
			t.Fatal("guarded handler must see the session")
		}
		if sess.ID != sessionID || sess.LoginName != "alice" {
			t.Fatalf("unexpected session %+v", sess)
		}
		seen = true
	}))

	r := httptest.NewRequest("GET", "/api/data?session="+sessionID+"&client=desktop", nil)
	r.Header.Set("User-Agent", "Mozilla/5.0 (test)")
	for _, c := range cookies {
		r.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	if !seen {
		t.Fatalf("handler never ran: %d %s", rec.Code, rec.Body.String())
	}
}

func TestGuardRejectsWithoutSession(t *testing.T) {
	gw := newTestGateway(t)

	h := Guard(gw)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	r := httptest.NewRequest("GET", "/api/data", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing session parameter, got %d", rec.Code)
	}

	var env struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Code != sessiongate.CodeMissingParameter {
		t.Fatalf("expected MISSING_PARAMETER, got %s", env.Code)
	}
}

func TestGuardNilGateway(t *testing.T) {
	h := Guard(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSessionFromContextMissing(t *testing.T) {
	if _, ok := SessionFromContext(context.Background()); ok {
		t.Fatal("empty context must not yield a session")
	}
}
