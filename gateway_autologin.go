package sessiongate

import (
	"errors"
	"net/http"

	"github.com/sessiongate-io/sessiongate/cookie"
	"github.com/sessiongate-io/sessiongate/internal"
	"github.com/sessiongate-io/sessiongate/session"
)

// handleAutologin silently re-authenticates from the cookie pair alone, with
// no session parameter. It is all-or-nothing: the session cookie must
// resolve to a live session AND the secret cookie must match it; any gap
// expires both cookies and rejects, so half-valid pairs cannot linger. A
// strict-policy address mismatch additionally removes the session from the
// registry, closing the door on retry from the rejected address.
func (g *Gateway) handleAutologin(w http.ResponseWriter, r *http.Request) error {
	if !g.config.Cookie.Autologin {
		return ErrFlowDisabled
	}
	ip := remoteIP(r)

	sess, hash, err := g.resolveCookiePair(r)
	if err != nil {
		if hash != "" {
			g.cookies.RemoveSessionCookies(w, r, hash)
		}
		g.metrics.Inc(MetricAutologinFailure)
		g.auditEvent(r.Context(), AuditAutologin, sess, ip, err)
		return err
	}

	if ok, err := g.contextEnabled(r.Context(), sess.ContextID); err != nil {
		return err
	} else if !ok {
		if err := g.registry.Remove(r.Context(), sess.ID); err != nil {
			return translateRegistryErr(err)
		}
		g.cookies.RemoveSessionCookies(w, r, hash)
		g.metrics.Inc(MetricAutologinFailure)
		g.metrics.Inc(MetricSessionRemoved)
		g.auditEvent(r.Context(), AuditAutologin, sess, ip, ErrContextLocked)
		return ErrContextLocked
	}

	if sess.LocalIP != ip {
		if g.config.IPCheck.Enabled {
			if !g.ipcheck.permitted(sess.LocalIP, ip) {
				// Active removal, not just rejection. A stolen cookie
				// pair from a wrong address must not stay redeemable.
				if err := g.registry.Remove(r.Context(), sess.ID); err != nil {
					return translateRegistryErr(err)
				}
				g.cookies.RemoveSessionCookies(w, r, hash)
				g.metrics.Inc(MetricAutologinFailure)
				g.metrics.Inc(MetricIPMismatch)
				g.metrics.Inc(MetricSessionRemoved)
				g.auditEvent(r.Context(), AuditAutologin, sess, ip, ErrIPMismatch)
				g.log.Info("autologin address rejected",
					"session_id", sess.ID,
					"bound_ip", sess.LocalIP,
					"remote_ip", ip,
				)
				return ErrIPMismatch
			}
		} else {
			if sess, err = g.registry.UpdateLocalIP(r.Context(), sess.ID, ip); err != nil {
				return translateRegistryErr(err)
			}
		}
	}

	g.cookies.WriteSessionCookie(w, r, hash, sess.ID)
	g.cookies.WriteSecretCookie(w, r, hash, sess.Secret)

	g.metrics.Inc(MetricAutologinSuccess)
	g.auditEvent(r.Context(), AuditAutologin, sess, ip, nil)
	g.log.Debug("autologin accepted", "session_id", sess.ID, "remote_ip", ip)

	writeData(w, descriptor(sess))
	return nil
}

// resolveCookiePair scans the request cookies for a session/secret pair and
// resolves it against the registry. The returned hash names the cookie pair
// the failure was observed on, so the caller can expire it.
func (g *Gateway) resolveCookiePair(r *http.Request) (*session.Session, string, error) {
	remembered := g.hasher.Remembered()
	wantHash := ""
	if !remembered {
		wantHash = g.hasher.Hash(r)
	}

	for _, c := range r.Cookies() {
		hash, ok := cookie.SplitSessionCookieName(c.Name)
		if !ok || c.Value == "" {
			continue
		}
		if !remembered && hash != wantHash {
			continue
		}

		sess, err := g.registry.Get(r.Context(), c.Value)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				return nil, hash, ErrInvalidCookie
			}
			return nil, "", translateRegistryErr(err)
		}
		if remembered && sess.Hash != hash {
			return nil, hash, ErrInvalidCookie
		}

		secret, err := r.Cookie(cookie.SecretCookieName(hash))
		if err != nil || !internal.ConstantTimeEquals(secret.Value, sess.Secret) {
			return sess, hash, ErrInvalidCookie
		}

		return sess, hash, nil
	}

	return nil, wantHash, ErrCookieMissing
}
