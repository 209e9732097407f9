package sessiongate

import (
	"fmt"
	"net/http"
)

// actionFunc is one entry point of the login surface. It writes its own
// success response; a returned error is rendered by the dispatcher.
type actionFunc func(w http.ResponseWriter, r *http.Request) error

// actionTable binds action parameter values to their handlers. Built once in
// Build; never mutated afterwards.
func (g *Gateway) actionTable() map[string]actionFunc {
	return map[string]actionFunc{
		"login":         g.handleLogin,
		"logout":        g.handleLogout,
		"store":         g.handleStore,
		"refreshSecret": g.handleRefreshSecret,
		"autologin":     g.handleAutologin,
		"redirect":      g.handleRedirect,
		"redeem":        g.handleRedeem,
	}
}

// Handler returns the HTTP handler of the login surface. It dispatches on
// the action parameter and stamps every response uncacheable: session ids
// and secrets must never land in a shared cache.
func (g *Gateway) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Cache-Control", "no-store, no-cache, must-revalidate")
		h.Set("Pragma", "no-cache")
		h.Set("Expires", "0")

		action := r.FormValue("action")
		if action == "" {
			err := fmt.Errorf("%w: action", ErrMissingParameter)
			g.logFlowError(r, "", err)
			writeError(w, err)
			return
		}

		fn, ok := g.actions[action]
		if !ok {
			err := fmt.Errorf("%w: %s", ErrUnknownAction, action)
			g.logFlowError(r, action, err)
			writeError(w, err)
			return
		}

		if err := fn(w, r); err != nil {
			g.logFlowError(r, action, err)
			writeError(w, err)
		}
	})
}
