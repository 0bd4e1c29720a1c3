package geo

import (
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/oschwald/maxminddb-golang"
)

type Result struct {
	Country string
	City    string
}

type Reader struct {
	db *maxminddb.Reader
}

// Open opens a MaxMind .mmdb file. An empty path gives a reader that only
// consults edge headers.
func Open(path string) (*Reader, error) {
	if path == "" {
		return &Reader{}, nil
	}
	db, err := maxminddb.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{db: db}, nil
}

func (r *Reader) Close() {
	if r != nil && r.db != nil {
		r.db.Close()
	}
}

// Enabled reports whether a database is loaded.
func (r *Reader) Enabled() bool {
	return r != nil && r.db != nil
}

// Lookup resolves an IP to geo data. Returns empty Result if reader has no db.
func (r *Reader) Lookup(ipStr string) Result {
	if !r.Enabled() {
		return Result{}
	}
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return Result{}
	}

	var record struct {
		Country struct {
			ISOCode string `maxminddb:"iso_code"`
		} `maxminddb:"country"`
		City struct {
			Names map[string]string `maxminddb:"names"`
		} `maxminddb:"city"`
	}

	if err := r.db.Lookup(ip, &record); err != nil {
		return Result{}
	}
	return Result{
		Country: record.Country.ISOCode,
		City:    record.City.Names["en"],
	}
}

// Country and city headers set by the CDN in front of the service.
var (
	countryHeaders = []string{"CF-IPCountry", "X-Vercel-IP-Country", "CloudFront-Viewer-Country"}
	cityHeaders    = []string{"X-Vercel-IP-City", "CF-IPCity"}
)

// Resolve prefers the database and fills gaps from edge headers.
func (r *Reader) Resolve(ip string, h http.Header) Result {
	res := r.Lookup(ip)
	if res.Country == "" {
		res.Country = firstHeader(h, countryHeaders)
		// Cloudflare's markers for unknown and Tor
		if res.Country == "XX" || res.Country == "T1" {
			res.Country = ""
		}
	}
	if res.City == "" {
		city := firstHeader(h, cityHeaders)
		if dec, err := url.QueryUnescape(city); err == nil {
			city = dec
		}
		res.City = city
	}
	return res
}

// Headers lists every edge header Resolve reads.
func Headers() []string {
	return append(append([]string{}, countryHeaders...), cityHeaders...)
}

func firstHeader(h http.Header, keys []string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(h.Get(k)); v != "" {
			return v
		}
	}
	return ""
}
