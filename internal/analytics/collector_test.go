package analytics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/linksgo/linksgo/internal/db"
	"github.com/linksgo/linksgo/internal/geo"
	"github.com/linksgo/linksgo/internal/models"
)

const chromeDesktop = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type fixture struct {
	db      *db.DB
	profile *models.Profile
	link    *models.Link
}

func setup(t *testing.T) fixture {
	t.Helper()
	database, err := db.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })

	ctx := context.Background()
	p, err := models.ProvisionProfile(ctx, database, models.Identity{Provider: "google", Subject: "1", Email: "alice@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	l, err := models.CreateLink(ctx, database, p.ID, models.LinkInput{Title: "Blog", URL: "https://blog.example.com"})
	if err != nil {
		t.Fatal(err)
	}
	return fixture{db: database, profile: p, link: l}
}

func newCollector(f fixture, size int, interval time.Duration) *Collector {
	geoReader, _ := geo.Open("")
	return NewCollector(f.db, geoReader, zap.NewNop(), size, interval)
}

func count(t *testing.T, d *db.DB, table string) int {
	t.Helper()
	var n int
	if err := d.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatal(err)
	}
	return n
}

func TestCollector_FlushOnShutdown(t *testing.T) {
	f := setup(t)
	c := newCollector(f, 1000, time.Hour)

	for range 5 {
		c.Push(Event{Kind: PageView, ProfileID: f.profile.ID, At: time.Now()})
	}
	for range 2 {
		c.Push(Event{Kind: LinkClick, ProfileID: f.profile.ID, LinkID: f.link.ID, At: time.Now()})
	}
	c.Shutdown()

	if n := count(t, f.db, "page_views"); n != 5 {
		t.Fatalf("page_views = %d, want 5", n)
	}
	if n := count(t, f.db, "link_clicks"); n != 2 {
		t.Fatalf("link_clicks = %d, want 2", n)
	}
}

func TestCollector_PushNonBlockingWhenFull(t *testing.T) {
	f := setup(t)
	c := newCollector(f, 1, time.Hour)

	// only one fits; the rest are dropped without blocking
	for range 5 {
		c.Push(Event{Kind: PageView, ProfileID: f.profile.ID, At: time.Now()})
	}
	c.Shutdown()

	if n := count(t, f.db, "page_views"); n > 1 {
		t.Fatalf("page_views = %d, want at most 1", n)
	}
}

func TestCollector_FlushOnTicker(t *testing.T) {
	f := setup(t)
	c := newCollector(f, 1000, 50*time.Millisecond)

	for range 3 {
		c.Push(Event{Kind: PageView, ProfileID: f.profile.ID, At: time.Now()})
	}

	time.Sleep(200 * time.Millisecond)

	if n := count(t, f.db, "page_views"); n == 0 {
		t.Fatal("expected page views to be flushed by ticker, got 0")
	}
	c.Shutdown()
}

func TestCollector_DropsOnlyOrphanedEvents(t *testing.T) {
	f := setup(t)
	c := newCollector(f, 1000, time.Hour)

	c.Push(Event{Kind: LinkClick, ProfileID: f.profile.ID, LinkID: f.link.ID, At: time.Now()})
	c.Push(Event{Kind: LinkClick, ProfileID: f.profile.ID, LinkID: 424242, At: time.Now()})
	c.Push(Event{Kind: PageView, ProfileID: "deleted-profile", At: time.Now()})
	c.Push(Event{Kind: PageView, ProfileID: f.profile.ID, At: time.Now()})
	c.Shutdown()

	if n := count(t, f.db, "link_clicks"); n != 1 {
		t.Errorf("link_clicks = %d, want 1", n)
	}
	if n := count(t, f.db, "page_views"); n != 1 {
		t.Errorf("page_views = %d, want 1", n)
	}
}

func TestCollector_Enriches(t *testing.T) {
	f := setup(t)
	c := newCollector(f, 1000, time.Hour)

	r := httptest.NewRequest(http.MethodGet, "/alice", nil)
	r.RemoteAddr = "203.0.113.7:5555"
	r.Header.Set("User-Agent", chromeDesktop)
	r.Header.Set("Referer", "https://www.Instagram.com/p/abc")
	r.Header.Set("CF-IPCountry", "DE")
	e := FromRequest(r, PageView)
	e.ProfileID = f.profile.ID
	c.Push(e)
	c.Shutdown()

	var browser, osName, device, domain, country, visitor string
	err := f.db.QueryRow(`SELECT browser, os, device_type, referrer_domain, country, visitor_id FROM page_views LIMIT 1`).
		Scan(&browser, &osName, &device, &domain, &country, &visitor)
	if err != nil {
		t.Fatal(err)
	}
	if browser != "Chrome" {
		t.Errorf("browser = %q, want %q", browser, "Chrome")
	}
	if osName != "Windows" {
		t.Errorf("os = %q, want %q", osName, "Windows")
	}
	if device != "desktop" {
		t.Errorf("device_type = %q, want %q", device, "desktop")
	}
	if domain != "instagram.com" {
		t.Errorf("referrer_domain = %q, want %q", domain, "instagram.com")
	}
	if country != "DE" {
		t.Errorf("country = %q, want %q", country, "DE")
	}
	if visitor != VisitorID("203.0.113.7", chromeDesktop) {
		t.Errorf("visitor_id = %q, want hash of ip and user agent", visitor)
	}
}

func TestCollector_KeepsClientVisitorID(t *testing.T) {
	f := setup(t)
	c := newCollector(f, 1000, time.Hour)

	c.Push(Event{Kind: PageView, ProfileID: f.profile.ID, At: time.Now(), Visit: models.Visit{VisitorID: "cookie-id", Country: "FR"}})
	c.Shutdown()

	var visitor, country, device string
	if err := f.db.QueryRow(`SELECT visitor_id, country, device_type FROM page_views`).Scan(&visitor, &country, &device); err != nil {
		t.Fatal(err)
	}
	if visitor != "cookie-id" || country != "FR" || device != "desktop" {
		t.Errorf("visitor/country/device = %q/%q/%q", visitor, country, device)
	}
}

type hostingSet map[string]bool

func (h hostingSet) Contains(ip string) bool { return h[ip] }

func TestCollector_HostingNetworksAreBots(t *testing.T) {
	f := setup(t)
	geoReader, _ := geo.Open("")
	c := NewCollector(f.db, geoReader, zap.NewNop(), 1000, time.Hour, WithHostingNetworks(hostingSet{"198.51.100.9": true}))

	c.Push(Event{Kind: PageView, ProfileID: f.profile.ID, At: time.Now(), IP: "198.51.100.9", Visit: models.Visit{UserAgent: chromeDesktop}})
	c.Push(Event{Kind: PageView, ProfileID: f.profile.ID, At: time.Now(), IP: "203.0.113.7", Visit: models.Visit{UserAgent: chromeDesktop}})
	c.Shutdown()

	var bots int
	f.db.QueryRow(`SELECT COUNT(*) FROM page_views WHERE device_type = 'bot'`).Scan(&bots)
	if bots != 1 {
		t.Errorf("bot page views = %d, want 1", bots)
	}
}

func TestFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/go/1", nil)
	r.RemoteAddr = "[2001:db8::1]:443"
	r.Header.Set("X-Vercel-IP-Country", "US")
	r.Header.Set("Cookie", "secret=1; "+VisitorCookie+"=vid-123")

	e := FromRequest(r, LinkClick)
	if e.Kind != LinkClick || e.IP != "2001:db8::1" {
		t.Errorf("event = %+v", e)
	}
	if e.GeoHeaders.Get("X-Vercel-IP-Country") != "US" || e.GeoHeaders.Get("Cookie") != "" {
		t.Errorf("geo headers = %v", e.GeoHeaders)
	}
	if e.Visit.VisitorID != "vid-123" {
		t.Errorf("visitor id = %q, want vid-123", e.Visit.VisitorID)
	}
	if e.At.IsZero() {
		t.Error("At is zero")
	}
}

func TestDeviceType(t *testing.T) {
	tests := []struct {
		ua   string
		want string
	}{
		{"", "desktop"},
		{chromeDesktop, "desktop"},
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1", "mobile"},
		{"Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1", "tablet"},
		{"Mozilla/5.0 (Linux; Android 13; SM-X700) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36", "tablet"},
		{"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", "bot"},
		{"facebookexternalhit/1.1", "bot"},
	}
	for _, tt := range tests {
		if got := DeviceType(tt.ua); got != tt.want {
			t.Errorf("DeviceType(%q) = %q, want %q", tt.ua, got, tt.want)
		}
	}
}

func TestVisitorID_Stable(t *testing.T) {
	a := VisitorID("1.2.3.4", "ua")
	if a != VisitorID("1.2.3.4", "ua") {
		t.Error("VisitorID not deterministic")
	}
	if a == VisitorID("1.2.3.5", "ua") {
		t.Error("VisitorID ignores ip")
	}
	if len(a) != 64 {
		t.Errorf("len = %d, want 64 hex chars", len(a))
	}
}
