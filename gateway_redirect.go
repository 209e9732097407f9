package sessiongate

import (
	"errors"
	"net/http"

	"github.com/sessiongate-io/sessiongate/session"
)

// handleRedirect consumes a random token and sends the browser into the web
// UI already attached to the session. The session id travels only in the URL
// fragment: fragments never leave the browser, so the id cannot leak through
// proxy logs or Referer headers the way a query parameter would.
func (g *Gateway) handleRedirect(w http.ResponseWriter, r *http.Request) error {
	sess, err := g.redeemToken(w, r)
	if err != nil {
		return err
	}

	store := r.FormValue("store") == "true"
	if store && g.config.Cookie.Autologin {
		g.cookies.WriteSessionCookie(w, r, sess.Hash, sess.ID)
	}

	g.redirectToUI(w, r, sess, store)
	return nil
}

// handleRedeem is the non-browser variant of the handoff: same single-use
// token consumption, but the caller gets the session descriptor as JSON
// instead of a redirect.
func (g *Gateway) handleRedeem(w http.ResponseWriter, r *http.Request) error {
	sess, err := g.redeemToken(w, r)
	if err != nil {
		return err
	}

	writeData(w, descriptor(sess))
	return nil
}

// redeemToken consumes the randomToken parameter and rebinds the session to
// the redeeming side: new address, and, when the caller declares one, a new
// client id with a freshly derived cookie hash. The registry invalidates the
// token in the same step as the lookup, so a replayed redirect URL fails
// here with [ErrTokenInvalid].
func (g *Gateway) redeemToken(w http.ResponseWriter, r *http.Request) (*session.Session, error) {
	token, err := requireParam(r, "randomToken")
	if err != nil {
		return nil, err
	}
	ip := remoteIP(r)

	sess, err := g.registry.Redeem(r.Context(), token)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			g.metrics.Inc(MetricTokenRejected)
			g.auditEvent(r.Context(), AuditRedeem, nil, ip, ErrTokenInvalid)
			g.log.Info("token redemption rejected", "remote_ip", ip)
			return nil, ErrTokenInvalid
		}
		return nil, translateRegistryErr(err)
	}

	if client := r.FormValue("client"); client != "" && client != sess.Client {
		hash := sess.Hash
		if !g.hasher.Remembered() {
			hash = g.hasher.HashForClient(client, r.UserAgent())
		}
		version := r.FormValue("version")
		if version == "" {
			version = sess.Version
		}
		if sess, err = g.registry.UpdateClient(r.Context(), sess.ID, client, version, hash); err != nil {
			return nil, translateRegistryErr(err)
		}
	}

	if sess.LocalIP != ip {
		if sess, err = g.registry.UpdateLocalIP(r.Context(), sess.ID, ip); err != nil {
			return nil, translateRegistryErr(err)
		}
	}

	g.cookies.WriteSecretCookie(w, r, sess.Hash, sess.Secret)

	g.metrics.Inc(MetricTokenRedeemed)
	g.auditEvent(r.Context(), AuditRedeem, sess, ip, nil)
	g.log.Info("token redeemed",
		"session_id", sess.ID,
		"client", sess.Client,
		"remote_ip", ip,
	)

	return sess, nil
}

// redirectToUI issues the post-login redirect. Fragment parameters only.
func (g *Gateway) redirectToUI(w http.ResponseWriter, r *http.Request, sess *session.Session, store bool) {
	target := g.config.Redirect.UIWebPath + "#session=" + sess.ID
	if store {
		target += "&store=true"
	}
	http.Redirect(w, r, target, http.StatusFound)
}
