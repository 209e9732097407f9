package sessiongate

import (
	"net/netip"
	"strings"
)

// ipChecker implements the address-consistency policy. The allow-list is
// parsed once at Build; permitted is called on every gated request and does
// no allocation.
type ipChecker struct {
	enabled bool
	allowed []netip.Prefix
}

func newIPChecker(cfg IPCheckConfig) (*ipChecker, error) {
	c := &ipChecker{enabled: cfg.Enabled}
	for _, entry := range cfg.AllowList {
		p, err := parseRange(entry)
		if err != nil {
			return nil, err
		}
		c.allowed = append(c.allowed, p)
	}
	return c, nil
}

func parseRange(entry string) (netip.Prefix, error) {
	if strings.Contains(entry, "/") {
		return netip.ParsePrefix(entry)
	}
	addr, err := netip.ParseAddr(entry)
	if err != nil {
		return netip.Prefix{}, err
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// permitted reports whether a request from observed may use a session bound
// to bound. Disabled means always yes. With the check enabled, the addresses
// must match exactly unless either one falls inside an allow-listed range.
func (c *ipChecker) permitted(bound, observed string) bool {
	if c == nil || !c.enabled {
		return true
	}
	if bound == observed {
		return true
	}
	return c.allowListed(bound) || c.allowListed(observed)
}

// allowListed reports whether addr falls in any allow-listed range. An
// unparseable address is never allow-listed.
func (c *ipChecker) allowListed(addr string) bool {
	if c == nil {
		return false
	}
	a, err := netip.ParseAddr(addr)
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, p := range c.allowed {
		if p.Contains(a) {
			return true
		}
	}
	return false
}
