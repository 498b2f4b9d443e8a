// File: internal/leaks/geoip.go (complete file)

package leaks

import (
	"net"
	"net/netip"

	"github.com/oschwald/geoip2-golang"
)

// GeoIP is a Locator backed by a local MaxMind City database.
type GeoIP struct {
	db *geoip2.Reader
}

func OpenGeoIP(path string) (*GeoIP, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return &GeoIP{db: db}, nil
}

func (g *GeoIP) Locate(addr netip.Addr) (string, string, bool) {
	rec, err := g.db.City(net.IP(addr.AsSlice()))
	if err != nil {
		return "", "", false
	}
	country := rec.Country.IsoCode
	city := rec.City.Names["en"]
	if country == "" && city == "" {
		return "", "", false
	}
	return country, city, true
}

func (g *GeoIP) Close() error {
	return g.db.Close()
}
