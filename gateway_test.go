package sessiongate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/sessiongate-io/sessiongate/session"
)

const testUserAgent = "Mozilla/5.0 (test)"

type stubValidator struct {
	users map[string]string
	calls int
}

func (v *stubValidator) Validate(_ context.Context, creds Credentials) (*Identity, error) {
	v.calls++
	pw, ok := v.users[creds.Login]
	if !ok || pw != creds.Password {
		return nil, errors.New("bad credentials")
	}
	return &Identity{ContextID: 1, UserID: 42, LoginName: creds.Login}, nil
}

type stubContexts struct {
	disabled map[int]bool
	err      error
}

func (p *stubContexts) IsEnabled(_ context.Context, contextID int) (bool, error) {
	if p.err != nil {
		return false, p.err
	}
	return !p.disabled[contextID], nil
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return mr, rdb
}

func newTestGateway(t *testing.T, mutate func(*Config), opts ...func(*Builder)) (*Gateway, *miniredis.Miniredis) {
	t.Helper()

	mr, rdb := newTestRedis(t)

	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	b := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithValidator(&stubValidator{users: map[string]string{"alice": "hunter22xx"}})
	for _, opt := range opts {
		opt(b)
	}

	gw, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(gw.Close)

	return gw, mr
}

// doAction runs one dispatched action through the gateway handler.
func doAction(t *testing.T, gw *Gateway, target string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	r := httptest.NewRequest("POST", target, nil)
	r.Header.Set("User-Agent", testUserAgent)
	for _, c := range cookies {
		r.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	gw.Handler().ServeHTTP(rec, r)
	return rec
}

// newRecorderFor runs a prepared request through the gateway handler.
func newRecorderFor(t *testing.T, gw *Gateway, r *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	gw.Handler().ServeHTTP(rec, r)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()

	var env responseEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	return env
}

func decodeDescriptor(t *testing.T, rec *httptest.ResponseRecorder) SessionDescriptor {
	t.Helper()

	var env struct {
		Data  SessionDescriptor `json:"data"`
		Error string            `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode descriptor: %v (body %q)", err, rec.Body.String())
	}
	if env.Error != "" {
		t.Fatalf("unexpected error response: %s", env.Error)
	}
	return env.Data
}

// login performs a credential login and returns the descriptor and the
// cookies the flow set.
func login(t *testing.T, gw *Gateway) (SessionDescriptor, []*http.Cookie) {
	t.Helper()

	rec := doAction(t, gw, "/ajax/login?action=login&login=alice&password=hunter22xx&client=desktop", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status %d: %s", rec.Code, rec.Body.String())
	}

	return decodeDescriptor(t, rec), rec.Result().Cookies()
}

func sessionFromRegistry(t *testing.T, gw *Gateway, sessionID string) *session.Session {
	t.Helper()

	sess, err := gw.registry.Peek(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("registry peek %s: %v", sessionID, err)
	}
	return sess
}

func wantCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()

	if rec.Code != status {
		t.Fatalf("expected status %d, got %d (body %q)", status, rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env.Code != code {
		t.Fatalf("expected code %s, got %s (error %q)", code, env.Code, env.Error)
	}
}

func TestHandlerRequiresAction(t *testing.T) {
	gw, _ := newTestGateway(t, nil)

	rec := doAction(t, gw, "/ajax/login", nil)
	wantCode(t, rec, http.StatusBadRequest, CodeMissingParameter)
}

func TestHandlerRejectsUnknownAction(t *testing.T) {
	gw, _ := newTestGateway(t, nil)

	rec := doAction(t, gw, "/ajax/login?action=frobnicate", nil)
	wantCode(t, rec, http.StatusBadRequest, CodeUnknownAction)
}

func TestHandlerDisablesCaching(t *testing.T) {
	gw, _ := newTestGateway(t, nil)

	rec := doAction(t, gw, "/ajax/login?action=login&login=alice&password=hunter22xx&client=desktop", nil)

	cc := rec.Header().Get("Cache-Control")
	if !strings.Contains(cc, "no-store") {
		t.Fatalf("expected no-store Cache-Control, got %q", cc)
	}
	if rec.Header().Get("Pragma") != "no-cache" {
		t.Fatal("expected Pragma no-cache")
	}
}

func TestServiceUnavailableHidesDetails(t *testing.T) {
	gw, mr := newTestGateway(t, nil)
	addr := mr.Addr()
	mr.Close()

	rec := doAction(t, gw, "/ajax/login?action=logout&session=whatever", nil)
	env := decodeEnvelope(t, rec)
	if env.Code != CodeServiceUnavailable {
		t.Fatalf("expected SERVICE_UNAVAILABLE, got %s", env.Code)
	}
	if strings.Contains(env.Error, addr) {
		t.Fatalf("error message leaks infrastructure details: %q", env.Error)
	}
}
