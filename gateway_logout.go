package sessiongate

import (
	"net/http"

	"github.com/sessiongate-io/sessiongate/cookie"
	"github.com/sessiongate-io/sessiongate/internal"
)

// handleLogout destroys a session. The caller must present the matching
// secret cookie: a session id alone, which travels in requests and logs,
// must not suffice to kill someone else's session. On a secret mismatch the
// session stays intact.
func (g *Gateway) handleLogout(w http.ResponseWriter, r *http.Request) error {
	sessionID, err := requireParam(r, "session")
	if err != nil {
		return err
	}
	ip := remoteIP(r)

	sess, err := g.registry.Get(r.Context(), sessionID)
	if err != nil {
		return translateRegistryErr(err)
	}

	hash := g.requestHash(r, sess)
	c, err := r.Cookie(cookie.SecretCookieName(hash))
	if err != nil || !internal.ConstantTimeEquals(c.Value, sess.Secret) {
		g.metrics.Inc(MetricSecretMismatch)
		g.auditEvent(r.Context(), AuditLogout, sess, ip, ErrSecretMismatch)
		return ErrSecretMismatch
	}

	if err := g.registry.Remove(r.Context(), sess.ID); err != nil {
		return translateRegistryErr(err)
	}
	g.cookies.RemoveSessionCookies(w, r, hash)

	g.metrics.Inc(MetricLogout)
	g.metrics.Inc(MetricSessionRemoved)
	g.auditEvent(r.Context(), AuditLogout, sess, ip, nil)
	g.log.Info("session removed",
		"session_id", sess.ID,
		"context_id", sess.ContextID,
		"user_id", sess.UserID,
		"remote_ip", ip,
	)

	writeData(w, map[string]bool{"logout": true})
	return nil
}
