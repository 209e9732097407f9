package middleware

import (
	"context"
	"net/http"

	sessiongate "github.com/sessiongate-io/sessiongate"
	"github.com/sessiongate-io/sessiongate/session"
)

type sessionContextKey struct{}

// SessionFromContext returns the session the Guard resolved for this request.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*session.Session)
	return sess, ok
}

// Guard runs the authentication gate in front of next. Admitted requests
// carry the resolved session in their context; rejected ones get the JSON
// error envelope and never reach next.
func Guard(gw *sessiongate.Gateway) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if gw == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			sess, err := gw.Authenticate(w, r)
			if err != nil {
				sessiongate.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
