package sessiongate

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sessiongate-io/sessiongate/internal"
	"github.com/sessiongate-io/sessiongate/session"
)

// handleLogin is the interactive credential login. On success it answers
// with the session descriptor and sets only the secret cookie; the session
// cookie is issued later through the store flow or autologin.
func (g *Gateway) handleLogin(w http.ResponseWriter, r *http.Request) error {
	creds, err := formCredentials(r)
	if err != nil {
		return err
	}

	sess, err := g.createSession(w, r, creds)
	if err != nil {
		return err
	}

	writeData(w, descriptor(sess))
	return nil
}

// HTTPAuthHandler returns the HTTP basic-auth entry point. Credentials come
// from the Authorization header; client and version fall back to the
// configured defaults. Success redirects into the web UI instead of
// answering JSON; a missing header answers 401 with a challenge.
func (g *Gateway) HTTPAuthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		login, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="login"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		creds := Credentials{
			Login:    login,
			Password: password,
			Client:   g.config.HTTPAuth.DefaultClient,
			Version:  g.config.HTTPAuth.DefaultVersion,
		}

		sess, err := g.createSession(w, r, creds)
		if err != nil {
			g.logFlowError(r, "httpauth", err)
			w.Header().Set("WWW-Authenticate", `Basic realm="login"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		g.redirectToUI(w, r, sess, false)
	})
}

// FormLoginHandler returns the plain HTML form entry point: same credential
// and session path as login, but failures render the configured error page
// and success redirects into the web UI.
func (g *Gateway) FormLoginHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		creds, err := formCredentials(r)
		if err == nil {
			if creds.Client == "" {
				creds.Client = g.config.HTTPAuth.DefaultClient
			}
			if creds.Version == "" {
				creds.Version = g.config.HTTPAuth.DefaultVersion
			}
			var sess *session.Session
			if sess, err = g.createSession(w, r, creds); err == nil {
				g.redirectToUI(w, r, sess, false)
				return
			}
		}

		g.logFlowError(r, "formlogin", err)
		renderErrorPage(w, g.config.Redirect.ErrorPageTemplate, err)
	})
}

func formCredentials(r *http.Request) (Credentials, error) {
	login, err := requireParam(r, "login")
	if err != nil {
		return Credentials{}, err
	}
	password, err := requireParam(r, "password")
	if err != nil {
		return Credentials{}, err
	}

	return Credentials{
		Login:    login,
		Password: password,
		Client:   r.FormValue("client"),
		Version:  r.FormValue("version"),
		AuthID:   r.FormValue("authId"),
	}, nil
}

// createSession is the shared creation path of all login flavors: validate
// credentials, mint the id/secret/token material, derive the cookie hash,
// persist, and set the secret cookie.
func (g *Gateway) createSession(w http.ResponseWriter, r *http.Request, creds Credentials) (*session.Session, error) {
	ip := remoteIP(r)

	if creds.AuthID == "" {
		creds.AuthID = uuid.NewString()
	}

	identity, err := g.validator.Validate(r.Context(), creds)
	if err != nil || identity == nil {
		g.metrics.Inc(MetricLoginFailure)
		g.auditEvent(r.Context(), AuditLogin, nil, ip, ErrInvalidCredentials)
		g.log.Info("login rejected",
			"login", creds.Login,
			"client", creds.Client,
			"remote_ip", ip,
			"auth_id", creds.AuthID,
		)
		return nil, ErrInvalidCredentials
	}

	sid, err := internal.NewSessionID()
	if err != nil {
		return nil, err
	}
	secret, err := internal.NewSecret()
	if err != nil {
		return nil, err
	}
	token, err := internal.NewRandomToken()
	if err != nil {
		return nil, err
	}

	hash := g.hasher.HashForClient(creds.Client, r.UserAgent())
	if g.hasher.Remembered() {
		if hash, err = internal.NewRememberedHash(); err != nil {
			return nil, err
		}
	}

	sess := &session.Session{
		ID:          sid.String(),
		Secret:      secret,
		ContextID:   identity.ContextID,
		UserID:      identity.UserID,
		LoginName:   identity.LoginName,
		Client:      creds.Client,
		Version:     creds.Version,
		Hash:        hash,
		LocalIP:     ip,
		AuthID:      creds.AuthID,
		RandomToken: token,
		CreatedAt:   time.Now().Unix(),
	}

	if err := g.registry.Add(r.Context(), sess); err != nil {
		return nil, translateRegistryErr(err)
	}

	g.cookies.WriteSecretCookie(w, r, sess.Hash, sess.Secret)

	g.metrics.Inc(MetricLoginSuccess)
	g.metrics.Inc(MetricSessionCreated)
	g.auditEvent(r.Context(), AuditLogin, sess, ip, nil)
	g.log.Info("session created",
		"session_id", sess.ID,
		"context_id", sess.ContextID,
		"user_id", sess.UserID,
		"client", sess.Client,
		"remote_ip", ip,
		"auth_id", sess.AuthID,
	)

	return sess, nil
}
