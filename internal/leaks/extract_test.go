// File: internal/leaks/extract_test.go (complete file)

package leaks

import (
	"reflect"
	"testing"
)

func TestExtractAddresses(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{{
		name: "host ipv4",
		in:   "candidate:1966762134 1 udp 2122260223 192.168.1.20 54321 typ host generation 0",
		want: []string{"192.168.1.20"},
	}, {
		name: "srflx with related address",
		in:   "candidate:842163049 1 udp 1677729535 203.0.113.9 61234 typ srflx raddr 192.168.1.20 rport 54321",
		want: []string{"203.0.113.9", "192.168.1.20"},
	}, {
		name: "unspecified related address skipped",
		in:   "candidate:1 1 udp 1677729535 198.51.100.2 5000 typ srflx raddr 0.0.0.0 rport 0",
		want: []string{"198.51.100.2"},
	}, {
		name: "compressed ipv6",
		in:   "candidate:2 1 udp 2122194687 2001:db8::1 50000 typ host",
		want: []string{"2001:db8::1"},
	}, {
		name: "full ipv6 canonicalised",
		in:   "candidate:3 1 UDP 2122194687 2001:0DB8:0000:0000:0000:ff00:0042:8329 50000 typ host",
		want: []string{"2001:db8::ff00:42:8329"},
	}, {
		name: "link local ipv6",
		in:   "candidate:4 1 udp 2122129151 fe80::1c2a:3bff:fe4d:5e6f 50001 typ host",
		want: []string{"fe80::1c2a:3bff:fe4d:5e6f"},
	}, {
		name: "ipv4 mapped tail",
		in:   "c=IN IP6 ::ffff:192.0.2.128",
		want: []string{"192.0.2.128"},
	}, {
		name: "mapped and plain forms collapse",
		in:   "candidate:6 1 udp 1677729535 ::ffff:10.0.0.1 5000 typ srflx raddr 10.0.0.1 rport 5000",
		want: []string{"10.0.0.1"},
	}, {
		name: "ipv4 inside a longer number",
		in:   "id 1234.5.6.7 x",
		want: nil,
	}, {
		name: "ipv4 followed by another octet",
		in:   "v 10.0.0.1.5",
		want: nil,
	}, {
		name: "ipv4 inside a hex token",
		in:   "ufrag ab10.0.0.1",
		want: nil,
	}, {
		name: "zone and port separators are boundaries",
		in:   "fe80::1%eth0 and 198.51.100.4/24",
		want: []string{"fe80::1", "198.51.100.4"},
	}, {
		name: "mdns hostname",
		in:   "candidate:5 1 udp 2122260223 3f1c2a4e-1b2c-4d5e-8f90-123456789abc.local 54321 typ host",
		want: nil,
	}, {
		name: "invalid octets and timestamps",
		in:   "at 12:34:56 saw 300.1.2.3 and 1.2.3",
		want: nil,
	}, {
		name: "duplicates collapse",
		in:   "198.51.100.7 198.51.100.7",
		want: []string{"198.51.100.7"},
	}}

	for _, test := range tests {
		got := ExtractAddresses(test.in)
		if !reflect.DeepEqual(got, test.want) {
			t.Errorf("%q: got %v, want %v", test.name, got, test.want)
		}
	}
}
