package sessiongate

import (
	"errors"
	"net/http"

	"github.com/sessiongate-io/sessiongate/cookie"
	"github.com/sessiongate-io/sessiongate/internal"
	"github.com/sessiongate-io/sessiongate/session"
)

// Authenticate is the per-request gate. It decides whether r is attached to
// a valid, un-tampered, correctly-located session and returns that session,
// refreshed. The request must carry the session id as the "session"
// parameter AND prove cookie possession; the id alone never authenticates.
//
// The steps, in order:
//
//  1. the "session" parameter must be present;
//  2. the session cookie for the request's hash must resolve in the
//     registry, with a fallback lookup through the (hash, address) cache
//     that re-issues the lost cookie on a hit;
//  3. the resolved session must be the one the parameter names;
//  4. the secret cookie must match the session's secret;
//  5. the session's context must be enabled, and the client address must
//     satisfy the configured IP policy.
//
// Failed checks may expire cookies or remove the session as documented on
// the returned sentinel errors. Authenticate writes cookies but never a
// response body or status; rendering the rejection is the caller's job,
// typically through [middleware.Guard].
func (g *Gateway) Authenticate(w http.ResponseWriter, r *http.Request) (*session.Session, error) {
	if g == nil || g.registry == nil {
		return nil, ErrGatewayNotReady
	}

	sess, err := g.authenticate(w, r)
	if err != nil {
		g.metrics.Inc(MetricGateReject)
		g.auditEvent(r.Context(), AuditGate, sess, remoteIP(r), err)
		g.logFlowError(r, "gate", err)
		return nil, err
	}

	g.metrics.Inc(MetricGateSuccess)
	return sess, nil
}

func (g *Gateway) authenticate(w http.ResponseWriter, r *http.Request) (*session.Session, error) {
	sessionID, err := requireParam(r, "session")
	if err != nil {
		return nil, err
	}
	ip := remoteIP(r)

	hash, err := g.gateHash(r, sessionID)
	if err != nil {
		return nil, err
	}

	sess, err := g.resolveGateSession(w, r, hash, ip)
	if err != nil {
		return nil, err
	}

	// The cookie must belong to the session the request names. A stale
	// cookie pointing at some other live session is treated as expired,
	// never silently substituted.
	if sess.ID != sessionID {
		return nil, ErrSessionExpired
	}

	secret, err := r.Cookie(cookie.SecretCookieName(hash))
	if err != nil || !internal.ConstantTimeEquals(secret.Value, sess.Secret) {
		g.cookies.RemoveSessionCookies(w, r, hash)
		g.metrics.Inc(MetricSecretMismatch)
		return sess, ErrSecretMismatch
	}

	if ok, err := g.contextEnabled(r.Context(), sess.ContextID); err != nil {
		return sess, err
	} else if !ok {
		if err := g.registry.Remove(r.Context(), sess.ID); err != nil {
			return sess, translateRegistryErr(err)
		}
		g.cookies.RemoveSessionCookies(w, r, hash)
		g.metrics.Inc(MetricSessionRemoved)
		return sess, ErrContextLocked
	}

	if sess.LocalIP != ip {
		if g.config.IPCheck.Enabled {
			if !g.ipcheck.permitted(sess.LocalIP, ip) {
				g.cookies.RemoveSessionCookies(w, r, hash)
				g.metrics.Inc(MetricIPMismatch)
				return sess, ErrIPMismatch
			}
		} else {
			if sess, err = g.registry.UpdateLocalIP(r.Context(), sess.ID, ip); err != nil {
				return sess, translateRegistryErr(err)
			}
		}
	}

	return sess, nil
}

// gateHash determines the cookie hash for a gated request. With remembered
// hashes the session record itself is the only source, so the record is
// peeked by the id the request names; the later cookie checks still decide
// whether the request actually owns it.
func (g *Gateway) gateHash(r *http.Request, sessionID string) (string, error) {
	if !g.hasher.Remembered() {
		return g.hasher.Hash(r), nil
	}

	sess, err := g.registry.Peek(r.Context(), sessionID)
	if err != nil {
		return "", translateRegistryErr(err)
	}
	return sess.Hash, nil
}

// resolveGateSession finds the session for a hash: first through the session
// cookie, then through the (hash, address) cache for clients that lost the
// cookie mid-session. A cache hit re-issues the session cookie.
func (g *Gateway) resolveGateSession(w http.ResponseWriter, r *http.Request, hash, ip string) (*session.Session, error) {
	if c, err := r.Cookie(cookie.SessionCookieName(hash)); err == nil && c.Value != "" {
		sess, err := g.registry.Get(r.Context(), c.Value)
		if err != nil {
			return nil, translateRegistryErr(err)
		}
		return sess, nil
	}

	sess, err := g.registry.GetByAlternative(r.Context(), hash, ip)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrCookieMissing
		}
		return nil, translateRegistryErr(err)
	}

	g.cookies.WriteSessionCookie(w, r, hash, sess.ID)
	return sess, nil
}
