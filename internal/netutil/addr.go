// File: internal/netutil/addr.go (complete file)

package netutil

import "net/netip"

// AddrClass is a coarse routing scope of an address.
type AddrClass string

const (
	ClassUnspecified AddrClass = "unspecified"
	ClassLoopback    AddrClass = "loopback"
	ClassLinkLocal   AddrClass = "link-local"
	ClassPrivate     AddrClass = "private"
	ClassUniqueLocal AddrClass = "unique-local"
	ClassShared      AddrClass = "shared"
	ClassMulticast   AddrClass = "multicast"
	ClassPublic      AddrClass = "public"
)

// RFC 6598 carrier-grade NAT space.
var sharedPrefix = netip.MustParsePrefix("100.64.0.0/10")

// Classify reports the routing scope of a. IPv4-mapped IPv6 addresses are
// classified as their IPv4 form.
func Classify(a netip.Addr) AddrClass {
	a = a.Unmap()
	switch {
	case !a.IsValid(), a.IsUnspecified():
		return ClassUnspecified
	case a.IsLoopback():
		return ClassLoopback
	case a.IsLinkLocalUnicast(), a.IsLinkLocalMulticast():
		return ClassLinkLocal
	case a.IsMulticast():
		return ClassMulticast
	case a.Is4() && a.IsPrivate():
		return ClassPrivate
	// fc00::/7
	case a.Is6() && a.IsPrivate():
		return ClassUniqueLocal
	case sharedPrefix.Contains(a):
		return ClassShared
	default:
		return ClassPublic
	}
}

// IsPublic reports whether s parses as a globally routable address.
func IsPublic(s string) bool {
	a, err := netip.ParseAddr(s)
	if err != nil {
		return false
	}
	return Classify(a) == ClassPublic
}
