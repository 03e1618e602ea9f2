package urlguard

import (
	"context"
	"fmt"
	"net"
)

var blockedNets []*net.IPNet

func init() {
	for _, cidr := range []string{
		"0.0.0.0/8",      // "this" network
		"127.0.0.0/8",    // IPv4 loopback
		"10.0.0.0/8",     // RFC1918
		"172.16.0.0/12",  // RFC1918
		"192.168.0.0/16", // RFC1918
		"169.254.0.0/16", // RFC3927 link-local, cloud metadata
		"::1/128",        // IPv6 loopback
		"fe80::/10",      // IPv6 link-local
		"fc00::/7",       // IPv6 unique local
	} {
		_, block, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Errorf("parse error on %q: %v", cidr, err))
		}
		blockedNets = append(blockedNets, block)
	}
}

// IsBlockedIP reports whether ip is loopback, private, link-local or
// unspecified.
func IsBlockedIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
		return true
	}
	for _, block := range blockedNets {
		if block.Contains(ip) {
			return true
		}
	}
	return false
}

type lookupFunc func(ctx context.Context, host string) ([]net.IPAddr, error)

// safeDialContext resolves the host itself, skips blocked addresses and
// dials the first acceptable IP directly so the connection cannot be
// re-resolved to something else between check and dial.
func safeDialContext(dialer *net.Dialer, lookup lookupFunc) func(context.Context, string, string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}
		addrs, err := lookup(ctx, host)
		if err != nil {
			return nil, err
		}
		for _, a := range addrs {
			if !IsBlockedIP(a.IP) {
				return dialer.DialContext(ctx, network, net.JoinHostPort(a.IP.String(), port))
			}
		}
		return nil, &ValidationError{Reason: fmt.Sprintf("%s (%s)", MsgBlockedAddrs, host)}
	}
}
