package sessiongate

import (
	"net/http"

	"github.com/sessiongate-io/sessiongate/session"
)

// handleStore re-issues the session cookie for an already-known session, the
// second half of the login handshake when the client opts into autologin.
// Disabled autologin disables this flow entirely.
func (g *Gateway) handleStore(w http.ResponseWriter, r *http.Request) error {
	if !g.config.Cookie.Autologin {
		return ErrFlowDisabled
	}

	sess, err := g.resolveForReissue(r)
	if err != nil {
		return err
	}

	g.cookies.WriteSessionCookie(w, r, g.requestHash(r, sess), sess.ID)

	writeData(w, map[string]bool{"store": true})
	return nil
}

// handleRefreshSecret re-issues the secret cookie for an already-known
// session, e.g. after the client detects the cookie got lost. Available
// regardless of the autologin setting.
func (g *Gateway) handleRefreshSecret(w http.ResponseWriter, r *http.Request) error {
	sess, err := g.resolveForReissue(r)
	if err != nil {
		return err
	}

	g.cookies.WriteSecretCookie(w, r, g.requestHash(r, sess), sess.Secret)

	writeData(w, map[string]bool{"refresh": true})
	return nil
}

func (g *Gateway) resolveForReissue(r *http.Request) (*session.Session, error) {
	sessionID, err := requireParam(r, "session")
	if err != nil {
		return nil, err
	}

	sess, err := g.registry.Get(r.Context(), sessionID)
	if err != nil {
		return nil, translateRegistryErr(err)
	}
	return sess, nil
}
