package sessiongate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sessiongate-io/sessiongate/cookie"
	"github.com/sessiongate-io/sessiongate/session"
)

// Gateway is the assembled authentication layer: the action dispatcher for
// the login surface plus the per-request gate. Construct it through
// [Builder.Build]; a zero Gateway is not usable.
//
// All methods are safe for concurrent use.
type Gateway struct {
	config    Config
	registry  Registry
	validator CredentialValidator
	contexts  ContextProvider

	cookies *cookie.Manager
	hasher  *cookie.Calculator
	ipcheck *ipChecker
	actions map[string]actionFunc

	audit   *auditDispatcher
	metrics *Metrics
	log     *slog.Logger
}

// Metrics exposes the gateway's counter set for scraping.
func (g *Gateway) Metrics() *Metrics {
	return g.metrics
}

// Close stops background workers and drains pending audit events.
func (g *Gateway) Close() {
	g.audit.close()
}

// remoteIP extracts the client address of a request, without the port. The
// raw RemoteAddr is used as-is when it carries no port, which happens in
// tests and with unix-socket listeners.
func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// requireParam reads a form or query parameter, wrapping [ErrMissingParameter]
// with the parameter name when absent.
func requireParam(r *http.Request, name string) (string, error) {
	v := r.FormValue(name)
	if v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingParameter, name)
	}
	return v, nil
}

// descriptor builds the client-facing session representation. The secret
// stays server-side; the random token is included only while one is pending.
func descriptor(sess *session.Session) SessionDescriptor {
	return SessionDescriptor{
		SessionID:   sess.ID,
		UserID:      sess.UserID,
		ContextID:   sess.ContextID,
		LoginName:   sess.LoginName,
		Client:      sess.Client,
		RandomToken: sess.RandomToken,
	}
}

// requestHash derives the cookie-name hash for an incoming request. With
// calculated hashes this is pure; with remembered hashes the session record
// is the source of truth, so sess may be consulted when available.
func (g *Gateway) requestHash(r *http.Request, sess *session.Session) string {
	if g.hasher.Remembered() && sess != nil {
		return sess.Hash
	}
	return g.hasher.Hash(r)
}

// contextEnabled consults the context provider. A nil provider means every
// context is enabled. Provider failures count as infrastructure errors, not
// as a locked context.
func (g *Gateway) contextEnabled(ctx context.Context, contextID int) (bool, error) {
	if g.contexts == nil {
		return true, nil
	}
	enabled, err := g.contexts.IsEnabled(ctx, contextID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	return enabled, nil
}

// translateRegistryErr converts registry sentinels to flow errors: a missing
// record means the session expired, anything else is infrastructure.
func translateRegistryErr(err error) error {
	if errors.Is(err, session.ErrNotFound) {
		return ErrSessionExpired
	}
	return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
}

func (g *Gateway) auditEvent(ctx context.Context, eventType string, sess *session.Session, ip string, err error) {
	if g.audit == nil {
		return
	}
	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		IP:        ip,
		Success:   err == nil,
	}
	if sess != nil {
		event.ContextID = sess.ContextID
		event.UserID = sess.UserID
		event.SessionID = sess.ID
		event.Client = sess.Client
		event.AuthID = sess.AuthID
	}
	if err != nil {
		event.Error = errorCode(err)
	}
	g.audit.emit(ctx, event)
}

// logFlowError records a flow outcome at a severity matching its nature:
// client mistakes at debug, infrastructure failures at error.
func (g *Gateway) logFlowError(r *http.Request, action string, err error) {
	attrs := []any{
		slog.String("action", action),
		slog.String("code", errorCode(err)),
		slog.String("remote_ip", remoteIP(r)),
	}
	if errorCode(err) == CodeServiceUnavailable {
		g.log.Error("flow failed", append(attrs, slog.Any("error", err))...)
		return
	}
	g.log.Debug("flow rejected", attrs...)
}
