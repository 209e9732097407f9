package cookie

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
)

// Hash source selection. Calculate derives the hash from client-identifying
// request attributes; Remember leaves derivation to the caller, which stores
// a random hash on the session at login.
const (
	SourceCalculate = "calculate"
	SourceRemember  = "remember"
)

const hashHexLen = 16

// Calculator derives the short cookie-name hash from the declared client id
// and, optionally, the user-agent string. Hash and HashForClient are pure:
// identical inputs always yield identical hashes and no state is touched.
type Calculator struct {
	source       string
	useUserAgent bool
}

// NewCalculator creates a [Calculator]. source is SourceCalculate or
// SourceRemember; useUserAgent mixes the User-Agent header into calculated
// hashes.
func NewCalculator(source string, useUserAgent bool) *Calculator {
	if source == "" {
		source = SourceCalculate
	}
	return &Calculator{source: source, useUserAgent: useUserAgent}
}

// Remembered reports whether hashes are generated at login and carried on the
// session instead of being recomputed per request.
func (c *Calculator) Remembered() bool {
	return c.source == SourceRemember
}

// Hash derives the cookie hash for an incoming request from its declared
// client id ("client" parameter) and user agent.
func (c *Calculator) Hash(r *http.Request) string {
	return c.HashForClient(r.URL.Query().Get("client"), r.UserAgent())
}

// HashForClient is the explicit-client overload, used when a flow rebinds the
// session to a different client after creation (redirect/redeem).
func (c *Calculator) HashForClient(client, userAgent string) string {
	h := sha256.New()
	h.Write([]byte(client))
	if c.useUserAgent {
		h.Write([]byte{0})
		h.Write([]byte(userAgent))
	}
	return hex.EncodeToString(h.Sum(nil))[:hashHexLen]
}
