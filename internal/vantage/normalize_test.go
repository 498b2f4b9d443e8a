// File: internal/vantage/normalize_test.go (complete file)

package vantage

import (
	"errors"
	"testing"

	"github.com/davecgh/go-spew/spew"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		body string
		want Result
	}{{
		name: "local exit full",
		kind: KindLocalExit,
		body: `{"ip":"203.0.113.7","city":"Berlin","region":"Land Berlin","country":"DE","org":"AS3320 Deutsche Telekom AG"}`,
		want: Result{
			Address:  "203.0.113.7",
			Location: "Berlin, Land Berlin, DE",
			Operator: "AS3320 Deutsche Telekom AG",
		},
	}, {
		name: "local exit missing address",
		kind: KindLocalExit,
		body: `{"city":"Lyon","region":"Auvergne-Rhone-Alpes","country":"FR","isp":"Orange"}`,
		want: Result{
			Address:  Unknown,
			Location: "Lyon, Auvergne-Rhone-Alpes, FR",
			Operator: "Orange",
		},
	}, {
		name: "local exit empty object",
		kind: KindLocalExit,
		body: `{}`,
		want: Result{Address: Unknown, Location: Unknown, Operator: Unknown},
	}, {
		name: "global exit",
		kind: KindGlobalExit,
		body: `{"status":"success","country":"Japan","regionName":"Tokyo","city":"Chiyoda","isp":"NTT","query":"198.51.100.4"}`,
		want: Result{
			Address:  "198.51.100.4",
			Location: "Chiyoda, Tokyo, Japan",
			Operator: "NTT",
		},
	}, {
		name: "global exit ignores local keys",
		kind: KindGlobalExit,
		body: `{"ip":"198.51.100.4","country":"Japan"}`,
		want: Result{Address: Unknown, Location: "Japan", Operator: Unknown},
	}, {
		name: "global exit numeric as",
		kind: KindGlobalExit,
		body: `{"query":"2001:db8::1","as":13335}`,
		want: Result{Address: "2001:db8::1", Location: Unknown, Operator: "13335"},
	}, {
		name: "trace",
		kind: KindAccelerationNode,
		body: "fl=29f\nh=www.cloudflare.com\nip=192.0.2.44\nts=1700000000.1\nvisit_scheme=https\ncolo=FRA\nloc=DE\ntls=TLSv1.3\n",
		want: Result{Address: "192.0.2.44", Location: "DE", Operator: "edge FRA"},
	}, {
		name: "trace prefix not exact key",
		kind: KindAccelerationNode,
		body: "ipv=4\nip=192.0.2.44\n",
		want: Result{Address: "192.0.2.44", Location: Unknown, Operator: Unknown},
	}, {
		name: "trace crlf and missing loc",
		kind: KindAccelerationNode,
		body: "ip=2001:db8::9\r\ncolo=AMS\r\n",
		want: Result{Address: "2001:db8::9", Location: Unknown, Operator: "edge AMS"},
	}}

	for _, test := range tests {
		got, err := Normalize(test.kind, []byte(test.body))
		if err != nil {
			t.Errorf("%q: unexpected error: %v", test.name, err)
			continue
		}
		if got != test.want {
			t.Errorf("%q: mismatched result:\ngot: %s\nwant: %s", test.name,
				spew.Sdump(got), spew.Sdump(test.want))
		}
	}
}

func TestNormalize_Malformed(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		body string
	}{
		{"local exit html", KindLocalExit, "<html>rate limited</html>"},
		{"local exit truncated", KindLocalExit, `{"ip":"1.2.3.4"`},
		{"local exit array", KindLocalExit, `["1.2.3.4"]`},
		{"local exit null", KindLocalExit, `null`},
		{"global exit empty", KindGlobalExit, "   "},
		{"trace no pairs", KindAccelerationNode, "service unavailable\n"},
		{"trace binary", KindAccelerationNode, "\xff\xfe\x00ip=1.2.3.4"},
	}

	for _, test := range tests {
		_, err := Normalize(test.kind, []byte(test.body))
		if !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("%q: got error %v, want ErrMalformedResponse", test.name, err)
		}
	}
}

func TestNormalize_UnknownKind(t *testing.T) {
	_, err := Normalize(Kind("satellite"), []byte(`{}`))
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("got error %v, want ErrUnknownKind", err)
	}
}
