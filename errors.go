package sessiongate

import "errors"

var (
	// ErrMissingParameter is returned when a required request parameter is
	// absent or empty. The wrapping error names the parameter.
	ErrMissingParameter = errors.New("missing request parameter")
	// ErrInvalidCredentials is returned when the credential validator
	// rejects a login/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionExpired is returned when a presented session id does not
	// resolve to a live registry entry.
	ErrSessionExpired = errors.New("session expired")
	// ErrCookieMissing is returned when neither the session cookie nor the
	// alternative (hash, address) lookup can locate a session.
	ErrCookieMissing = errors.New("session cookie missing")
	// ErrInvalidCookie is returned by autologin when the cookie pair is
	// incomplete or inconsistent; both cookies are removed alongside it.
	ErrInvalidCookie = errors.New("invalid session cookies")
	// ErrSecretMismatch is returned when the secret cookie does not match
	// the resolved session's secret.
	ErrSecretMismatch = errors.New("session secret mismatch")
	// ErrIPMismatch is returned when the IP check rejects a request from an
	// address outside the session's binding and all allow-listed ranges.
	ErrIPMismatch = errors.New("request address does not match session")
	// ErrContextLocked is returned when the session's owning context is
	// disabled; the session is removed from the registry alongside it.
	ErrContextLocked = errors.New("context locked")
	// ErrFlowDisabled is returned when configuration disables the requested
	// flow (autologin, store).
	ErrFlowDisabled = errors.New("flow disabled by configuration")
	// ErrTokenInvalid is returned when a random token is unknown, expired,
	// or already redeemed.
	ErrTokenInvalid = errors.New("invalid random token")
	// ErrServiceUnavailable is returned when the session registry cannot be
	// reached. It is reported, never silently retried.
	ErrServiceUnavailable = errors.New("session registry unavailable")
	// ErrUnknownAction is returned for unrecognized action parameters.
	ErrUnknownAction = errors.New("unknown action")
	// ErrGatewayNotReady is returned when a Gateway is used before Build.
	ErrGatewayNotReady = errors.New("gateway not initialized")
)
