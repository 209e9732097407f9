package sessiongate

import (
	"errors"
	"net/netip"
	"strings"
	"time"

	"github.com/sessiongate-io/sessiongate/cookie"
)

// Config holds the full gateway configuration. It is read once at Build and
// never re-read per request; treat instances as immutable after Build.
type Config struct {
	Cookie   CookieConfig
	IPCheck  IPCheckConfig
	HTTPAuth HTTPAuthConfig
	Redirect RedirectConfig
	Registry RegistryConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

// CookieConfig controls cookie lifetime, security flags, and how the cookie
// name hash is derived.
type CookieConfig struct {
	// TTL is the cookie max-age applied only when Autologin is enabled;
	// otherwise cookies are session-only.
	TTL time.Duration
	// Autologin enables the silent cookie-based re-authentication flow and
	// the store flow, and switches cookies to persistent lifetime.
	Autologin bool
	// ForceHTTPS marks cookies Secure even on plain HTTP requests, for
	// deployments behind a TLS-terminating proxy.
	ForceHTTPS bool
	// HashSource is cookie.SourceCalculate or cookie.SourceRemember.
	HashSource string
	// HashUserAgent mixes the User-Agent header into calculated hashes.
	HashUserAgent bool
}

// IPCheckConfig controls the address-consistency policy of §IP handling:
// disabled means a changed address silently rebinds the session; enabled
// means a mismatch is rejected unless either side is allow-listed.
type IPCheckConfig struct {
	Enabled bool
	// AllowList holds CIDR ranges (or bare addresses) exempt from the
	// check, e.g. proxy pools and office egress ranges.
	AllowList []string
}

// HTTPAuthConfig supplies the client identity assumed for HTTP basic-auth
// and form logins, which carry no client parameter of their own.
type HTTPAuthConfig struct {
	DefaultClient  string
	DefaultVersion string
}

// RedirectConfig controls where browser-facing flows send the client.
type RedirectConfig struct {
	// UIWebPath is the base path of the web UI; redirect flows append the
	// session id as a fragment parameter, never a query parameter.
	UIWebPath string
	// ErrorPageTemplate is the HTML page rendered on browser-facing flow
	// failures; the literal ERROR_MESSAGE is replaced with the cause.
	ErrorPageTemplate string
}

// RegistryConfig parameterizes the bundled Redis registry.
type RegistryConfig struct {
	KeyPrefix       string
	SessionLifetime time.Duration
	// RandomTokenTTL bounds how long an unredeemed redirect token lives.
	RandomTokenTTL time.Duration
}

// AuditConfig controls the asynchronous audit event dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles the lock-free counter set.
type MetricsConfig struct {
	Enabled bool
}

const defaultErrorPage = `<!DOCTYPE html>
<html><head><title>Login failed</title></head>
<body><h1>Login failed</h1><p>ERROR_MESSAGE</p></body></html>`

// DefaultConfig returns the baseline configuration: calculated cookie hashes
// including the user agent, autologin off, IP check off, one-week cookies,
// one-hour sliding sessions, 30-second redirect tokens.
func DefaultConfig() Config {
	return Config{
		Cookie: CookieConfig{
			TTL:           7 * 24 * time.Hour,
			Autologin:     false,
			ForceHTTPS:    false,
			HashSource:    cookie.SourceCalculate,
			HashUserAgent: true,
		},
		IPCheck: IPCheckConfig{
			Enabled: false,
		},
		HTTPAuth: HTTPAuthConfig{
			DefaultClient:  "browser",
			DefaultVersion: "unknown",
		},
		Redirect: RedirectConfig{
			UIWebPath:         "/ui",
			ErrorPageTemplate: defaultErrorPage,
		},
		Registry: RegistryConfig{
			KeyPrefix:       "sg",
			SessionLifetime: time.Hour,
			RandomTokenTTL:  30 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.IPCheck.AllowList = append([]string(nil), cfg.IPCheck.AllowList...)
	return out
}

// Validate checks internal consistency. It is called by [Builder.Build];
// calling it directly is useful when configuration comes from files.
func (c *Config) Validate() error {
	switch c.Cookie.HashSource {
	case cookie.SourceCalculate, cookie.SourceRemember:
		// valid
	default:
		return errors.New("Cookie HashSource must be 'calculate' or 'remember'")
	}
	if c.Cookie.Autologin && c.Cookie.TTL <= 0 {
		return errors.New("Cookie TTL must be > 0 when Autologin is enabled")
	}

	for _, entry := range c.IPCheck.AllowList {
		if err := validateRange(entry); err != nil {
			return err
		}
	}

	if !strings.HasPrefix(c.Redirect.UIWebPath, "/") {
		return errors.New("Redirect UIWebPath must be absolute")
	}

	if c.Registry.KeyPrefix == "" {
		return errors.New("Registry KeyPrefix is required")
	}
	if c.Registry.SessionLifetime <= 0 {
		return errors.New("Registry SessionLifetime must be > 0")
	}
	if c.Registry.RandomTokenTTL <= 0 {
		return errors.New("Registry RandomTokenTTL must be > 0")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}

func validateRange(entry string) error {
	if strings.Contains(entry, "/") {
		if _, err := netip.ParsePrefix(entry); err != nil {
			return errors.New("IPCheck AllowList entry is not a valid CIDR range: " + entry)
		}
		return nil
	}
	if _, err := netip.ParseAddr(entry); err != nil {
		return errors.New("IPCheck AllowList entry is not a valid address: " + entry)
	}
	return nil
}
