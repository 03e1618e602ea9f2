// Package urlguard vets user-supplied URLs before the server fetches them and
// wraps the fetch itself with a timeout. It exists to stop server-side request
// forgery: a URL that fails Validate never reaches the network.
package urlguard

import (
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Rejection messages. They are shown to the admin as-is.
const (
	MsgRequired     = "URL is required"
	MsgInvalid      = "Invalid URL format"
	MsgScheme       = "Only HTTP and HTTPS URLs are allowed"
	MsgLocalhost    = "Cannot fetch from localhost"
	MsgLoopback     = "Cannot fetch from loopback addresses"
	MsgPrivate      = "Cannot fetch from private network"
	MsgLinkLocal    = "Cannot fetch from link-local addresses"
	MsgLocalIPv6    = "Cannot fetch from local IPv6 addresses"
	MsgBlockedAddrs = "Cannot fetch from private or local addresses"
)

// Validation is the outcome of Validate. URL is nil unless Valid.
type Validation struct {
	Valid bool
	URL   *url.URL
	Err   string
}

type hostRule struct {
	match func(host string) bool
	msg   string
}

var (
	reLoopback  = regexp.MustCompile(`^127\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)
	rePrivate10 = regexp.MustCompile(`^10\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)
	rePrivate17 = regexp.MustCompile(`^172\.(1[6-9]|2\d|3[01])\.\d{1,3}\.\d{1,3}$`)
	rePrivate19 = regexp.MustCompile(`^192\.168\.\d{1,3}\.\d{1,3}$`)
	reLinkLocal = regexp.MustCompile(`^169\.254\.\d{1,3}\.\d{1,3}$`)
)

// hostRules are checked in order; the first match decides the message.
var hostRules = []hostRule{
	{func(h string) bool { return h == "localhost" || h == "0.0.0.0" }, MsgLocalhost},
	{reLoopback.MatchString, MsgLoopback},
	{rePrivate10.MatchString, MsgPrivate},
	{rePrivate17.MatchString, MsgPrivate},
	{rePrivate19.MatchString, MsgPrivate},
	{reLinkLocal.MatchString, MsgLinkLocal},
	{isLocalIPv6, MsgLocalIPv6},
}

// Validate checks scheme and hostname of raw. Hostnames are compared as
// literals; no DNS lookup happens here (see Config.ResolveHosts for that).
func Validate(raw string) Validation {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return reject(MsgRequired)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return reject(MsgInvalid)
	}
	if !isWebScheme(u.Scheme) {
		return reject(MsgScheme)
	}
	host := canonicalHost(u.Hostname())
	if host == "" {
		return reject(MsgInvalid)
	}
	for _, r := range hostRules {
		if r.match(host) {
			return reject(r.msg)
		}
	}
	return Validation{Valid: true, URL: u}
}

// AsError returns the validation failure as a *ValidationError, or nil.
func (v Validation) AsError() error {
	if v.Valid {
		return nil
	}
	return &ValidationError{Reason: v.Err}
}

// isLocalIPv6 covers ::1 and the whole fe80::/10 block, not just the fe80:
// prefix.
func isLocalIPv6(h string) bool {
	if h == "::1" || strings.HasPrefix(h, "fe80:") {
		return true
	}
	ip := net.ParseIP(h)
	return ip != nil && ip.To4() == nil && ip.IsLinkLocalUnicast()
}

func reject(msg string) Validation { return Validation{Err: msg} }

func isWebScheme(s string) bool {
	s = strings.ToLower(s)
	return s == "http" || s == "https"
}

// canonicalHost lowercases the host, drops a trailing root dot and rewrites
// IPv4-mapped IPv6 literals (::ffff:10.0.0.1) and numeric IPv4 shorthands
// (2130706433, 0x7f.1, 0177.0.0.1) to dotted form so the rules above see the
// address they actually denote.
func canonicalHost(h string) string {
	h = strings.TrimSuffix(strings.ToLower(h), ".")
	if ip := net.ParseIP(h); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			return v4.String()
		}
		return ip.String()
	}
	if ip, ok := parseNumericIPv4(h); ok {
		return ip.String()
	}
	return h
}

// parseNumericIPv4 accepts the inet_aton forms: one to four dot-separated
// parts, each decimal, 0x hex or leading-zero octal, the last part filling
// the remaining bytes.
func parseNumericIPv4(h string) (net.IP, bool) {
	parts := strings.Split(h, ".")
	if len(parts) > 4 {
		return nil, false
	}
	vals := make([]uint64, len(parts))
	for i, p := range parts {
		v, ok := parseIPv4Part(p)
		if !ok {
			return nil, false
		}
		vals[i] = v
	}
	last := len(vals) - 1
	for _, v := range vals[:last] {
		if v > 255 {
			return nil, false
		}
	}
	if vals[last] >= 1<<(8*(4-last)) {
		return nil, false
	}
	n := vals[last]
	for i, v := range vals[:last] {
		n |= v << (8 * (3 - i))
	}
	return net.IPv4(byte(n>>24), byte(n>>16), byte(n>>8), byte(n)), true
}

func parseIPv4Part(p string) (uint64, bool) {
	if p == "" {
		return 0, false
	}
	base := 10
	switch {
	case strings.HasPrefix(p, "0x"):
		base, p = 16, p[2:]
		if p == "" {
			return 0, true
		}
	case len(p) > 1 && p[0] == '0':
		base, p = 8, p[1:]
	}
	v, err := strconv.ParseUint(p, base, 32)
	return v, err == nil
}
