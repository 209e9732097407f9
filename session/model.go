package session

// Session binds a user and context to an opaque id plus a server-chosen
// secret. Exactly one secret exists per id; a request is authenticated only
// when the id resolves to a live record and the presented secret matches.
type Session struct {
	// ID is the registry's primary key, echoed by clients in the session
	// request parameter and in the session cookie.
	ID string `json:"id"`

	// Secret is carried only in the secret cookie and never appears in a
	// URL or response body.
	Secret string `json:"secret"`

	ContextID int    `json:"context_id"`
	UserID    int    `json:"user_id"`
	LoginName string `json:"login_name"`

	// Client and Version identify the declared client type; Hash is the
	// cookie-name hash cached for it and recomputed when Client changes.
	Client  string `json:"client"`
	Version string `json:"version,omitempty"`
	Hash    string `json:"hash"`

	// LocalIP is the address the session was bound to at the last
	// IP-consistent request. Advisory unless the IP check is enabled.
	LocalIP string `json:"local_ip"`

	// AuthID correlates all log records of the login attempt that created
	// the session.
	AuthID string `json:"auth_id"`

	// RandomToken is the optional single-use redirect/redeem handoff token.
	// It is consumed atomically by Store.Redeem.
	RandomToken string `json:"random_token,omitempty"`

	CreatedAt int64 `json:"created_at"`
}
