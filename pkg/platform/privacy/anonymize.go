// Package privacy reduces client identifiers before they reach logs or the
// audit trail.
package privacy

import "net/netip"

const (
	ipv4Prefix = 24
	ipv6Prefix = 48
)

// AnonymizeIP masks an address to its /24 (IPv4) or /48 (IPv6) network, so
// "192.168.1.47" becomes "192.168.1.0". IPv4-mapped IPv6 addresses are
// treated as IPv4 and zones are dropped.
//
// Returns "unknown" for an empty input and "invalid" when it does not parse.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}

	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "invalid"
	}
	addr = addr.Unmap().WithZone("")

	bits := ipv6Prefix
	if addr.Is4() {
		bits = ipv4Prefix
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.Addr().String()
}
