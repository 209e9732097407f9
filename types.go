package sessiongate

import (
	"context"

	"github.com/sessiongate-io/sessiongate/session"
)

// Credentials is the input to a login attempt. Client, Version, and AuthID
// are optional and defaulted by the orchestrator when absent.
type Credentials struct {
	Login    string
	Password string
	Client   string
	Version  string
	AuthID   string
}

// Identity is the result of successful credential validation: the
// tenant/user binding a new session will carry.
type Identity struct {
	ContextID int
	UserID    int
	LoginName string
}

// CredentialValidator is the external authentication collaborator. Validate
// returns the authenticated identity or an error; any validator error is
// reported to the caller as invalid credentials and never creates a session.
type CredentialValidator interface {
	Validate(ctx context.Context, creds Credentials) (*Identity, error)
}

// ContextProvider reports whether a tenant context is enabled. Sessions in
// disabled contexts are removed on sight. A nil provider treats every
// context as enabled.
type ContextProvider interface {
	IsEnabled(ctx context.Context, contextID int) (bool, error)
}

// Registry is the session registry contract this core consumes. The
// default implementation is [session.Store]; deployments may substitute
// their own as long as the operations stay atomic under concurrent requests
// referencing the same session id. Redeem in particular must make token
// lookup and invalidation inseparable.
type Registry interface {
	Add(ctx context.Context, sess *session.Session) error
	Get(ctx context.Context, sessionID string) (*session.Session, error)
	Peek(ctx context.Context, sessionID string) (*session.Session, error)
	GetByAlternative(ctx context.Context, hash, ip string) (*session.Session, error)
	Redeem(ctx context.Context, token string) (*session.Session, error)
	Remove(ctx context.Context, sessionID string) error
	UpdateLocalIP(ctx context.Context, sessionID, ip string) (*session.Session, error)
	UpdateClient(ctx context.Context, sessionID, client, version, hash string) (*session.Session, error)
}

// SessionDescriptor is the JSON session representation returned by login,
// autologin, and redeem. It never includes the secret.
type SessionDescriptor struct {
	SessionID   string `json:"session"`
	UserID      int    `json:"user_id"`
	ContextID   int    `json:"context_id"`
	LoginName   string `json:"user"`
	Client      string `json:"client,omitempty"`
	RandomToken string `json:"random,omitempty"`
}
