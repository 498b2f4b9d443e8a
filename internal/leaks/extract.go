// File: internal/leaks/extract.go (complete file)

package leaks

import (
	"net/netip"
	"regexp"
)

// addrPattern matches IPv6 tokens (full, compressed, or with a dotted IPv4
// tail) before falling back to dotted IPv4. Matches are only candidates;
// the boundary check and ParseAddr decide.
var addrPattern = regexp.MustCompile(
	`(?i)(?:[0-9a-f]{0,4}:){2,7}(?:(?:\d{1,3}\.){3}\d{1,3}|[0-9a-f]{0,4})` +
		`|(?:\d{1,3}\.){3}\d{1,3}`,
)

// ExtractAddresses returns the literal IP addresses embedded in a candidate
// description, in order of appearance, without duplicates. A match that is
// only part of a longer address-like token is ignored. IPv4-mapped IPv6
// addresses are reported in their IPv4 form. Unspecified addresses (0.0.0.0,
// ::) carry no identity and are skipped.
func ExtractAddresses(s string) []string {
	var out []string
	seen := map[string]bool{}

	for _, loc := range addrPattern.FindAllStringIndex(s, -1) {
		if !standalone(s, loc[0], loc[1]) {
			continue
		}
		addr, ok := canonicalAddr(s[loc[0]:loc[1]])
		if !ok || seen[addr] {
			continue
		}
		seen[addr] = true
		out = append(out, addr)
	}
	return out
}

// canonicalAddr parses tok and returns the form used to compare addresses.
func canonicalAddr(tok string) (string, bool) {
	a, err := netip.ParseAddr(tok)
	if err != nil {
		return "", false
	}
	a = a.Unmap()
	if a.IsUnspecified() {
		return "", false
	}
	return a.String(), true
}

// standalone reports whether s[start:end] is not glued to more address
// characters on either side.
func standalone(s string, start, end int) bool {
	if start > 0 && addrByte(s[start-1]) {
		return false
	}
	if end < len(s) && addrByte(s[end]) {
		return false
	}
	return true
}

func addrByte(c byte) bool {
	switch {
	case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		return true
	case c == '.', c == ':':
		return true
	}
	return false
}
