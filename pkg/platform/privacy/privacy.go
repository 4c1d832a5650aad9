// Package privacy masks personal data before it reaches logs or audit sinks.
package privacy

import (
	"net/netip"
	"strings"
)

// AnonymizeIP keeps the /24 network of an IPv4 address or the /48 prefix of an
// IPv6 address. Empty input yields "unknown" and unparseable input "invalid".
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "invalid"
	}
	addr = addr.Unmap()
	bits := 48
	if addr.Is4() {
		bits = 24
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.Addr().String()
}

// RedactIdentifier shows only the last four characters of a document number.
func RedactIdentifier(value string) string {
	value = strings.TrimSpace(value)
	if len(value) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}
