package analytics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mssola/useragent"
	"go.uber.org/zap"

	"github.com/linksgo/linksgo/internal/db"
	"github.com/linksgo/linksgo/internal/geo"
	"github.com/linksgo/linksgo/internal/models"
)

// VisitorCookie holds the device-persisted anonymous visitor id.
const VisitorCookie = "linksgo_vid"

type Kind int

const (
	PageView Kind = iota
	LinkClick
)

// Event is an unenriched analytics event as captured on the request path.
type Event struct {
	Kind      Kind
	ProfileID string
	LinkID    int64
	At        time.Time
	IP        string

	// Visit carries whatever the client reported; the collector fills the
	// rest from the user agent, referrer and geo data.
	Visit models.Visit

	// GeoHeaders holds the CDN geo headers of the originating request.
	GeoHeaders http.Header
}

// FromRequest captures the visitor context of r for an event of kind k.
func FromRequest(r *http.Request, k Kind) Event {
	e := Event{
		Kind: k,
		At:   time.Now().UTC(),
		IP:   clientIP(r.RemoteAddr),
		Visit: models.Visit{
			UserAgent: r.UserAgent(),
			Referrer:  r.Referer(),
		},
	}
	if c, err := r.Cookie(VisitorCookie); err == nil {
		e.Visit.VisitorID = c.Value
	}
	for _, key := range geo.Headers() {
		if v := r.Header.Get(key); v != "" {
			if e.GeoHeaders == nil {
				e.GeoHeaders = http.Header{}
			}
			e.GeoHeaders.Set(key, v)
		}
	}
	return e
}

func clientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}

// VisitorID derives a stable anonymous id from the client address and user
// agent, for events that arrive without a visitor cookie.
func VisitorID(ip, userAgent string) string {
	sum := sha256.Sum256([]byte(ip + "-" + userAgent))
	return hex.EncodeToString(sum[:])
}

// HostingNetworks reports whether an IP belongs to a cloud or hosting
// provider.
type HostingNetworks interface {
	Contains(ip string) bool
}

type Option func(*Collector)

// WithHostingNetworks classifies events from hosting IPs as bot traffic.
func WithHostingNetworks(h HostingNetworks) Option {
	return func(c *Collector) { c.hosting = h }
}

type Collector struct {
	ch      chan Event
	stop    chan struct{}
	db      *db.DB
	geo     *geo.Reader
	hosting HostingNetworks
	log     *zap.Logger
	done    chan struct{}
}

func NewCollector(d *db.DB, geoReader *geo.Reader, log *zap.Logger, bufferSize int, flushInterval time.Duration, opts ...Option) *Collector {
	c := &Collector{
		ch:   make(chan Event, bufferSize),
		stop: make(chan struct{}),
		db:   d,
		geo:  geoReader,
		log:  log,
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.run(flushInterval)
	return c
}

// Push queues an event without blocking. Drops the event if the buffer is full.
func (c *Collector) Push(e Event) {
	select {
	case c.ch <- e:
	default:
		c.log.Warn("analytics buffer full, dropping event", zap.Int("kind", int(e.Kind)))
	}
}

// Shutdown flushes remaining events and returns.
func (c *Collector) Shutdown() {
	close(c.stop)
	<-c.done
}

func (c *Collector) run(interval time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.flush()
		case <-c.stop:
			c.flush()
			return
		}
	}
}

func (c *Collector) flush() {
	var batch []Event
	for {
		select {
		case e := <-c.ch:
			batch = append(batch, e)
		default:
			goto done
		}
	}
done:
	if len(batch) == 0 {
		return
	}

	var views []models.PageView
	var clicks []models.LinkClick
	for _, e := range batch {
		visit := c.enrich(e)
		switch e.Kind {
		case PageView:
			views = append(views, models.PageView{ProfileID: e.ProfileID, Visit: visit, CreatedAt: e.At})
		case LinkClick:
			clicks = append(clicks, models.LinkClick{LinkID: e.LinkID, ProfileID: e.ProfileID, Visit: visit, CreatedAt: e.At})
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := models.BatchInsertPageViews(ctx, c.db, views); err != nil {
		c.log.Error("analytics flush page views", zap.Error(err), zap.Int("count", len(views)))
		views = c.insertViewsOneByOne(ctx, views)
	}
	if err := models.BatchInsertLinkClicks(ctx, c.db, clicks); err != nil {
		c.log.Error("analytics flush link clicks", zap.Error(err), zap.Int("count", len(clicks)))
		clicks = c.insertClicksOneByOne(ctx, clicks)
	}
	c.log.Debug("analytics flushed", zap.Int("page_views", len(views)), zap.Int("link_clicks", len(clicks)))
}

// insertViewsOneByOne retries a failed batch row by row so an event for a
// since-deleted profile does not take the rest of the batch with it.
func (c *Collector) insertViewsOneByOne(ctx context.Context, views []models.PageView) []models.PageView {
	var kept []models.PageView
	for _, v := range views {
		if err := models.BatchInsertPageViews(ctx, c.db, []models.PageView{v}); err != nil {
			c.log.Warn("drop page view", zap.String("profile_id", v.ProfileID), zap.Error(err))
			continue
		}
		kept = append(kept, v)
	}
	return kept
}

func (c *Collector) insertClicksOneByOne(ctx context.Context, clicks []models.LinkClick) []models.LinkClick {
	var kept []models.LinkClick
	for _, lc := range clicks {
		if err := models.BatchInsertLinkClicks(ctx, c.db, []models.LinkClick{lc}); err != nil {
			c.log.Warn("drop link click", zap.Int64("link_id", lc.LinkID), zap.Error(err))
			continue
		}
		kept = append(kept, lc)
	}
	return kept
}

func (c *Collector) enrich(e Event) models.Visit {
	v := e.Visit

	if v.UserAgent != "" {
		ua := useragent.New(v.UserAgent)
		browserName, _ := ua.Browser()
		v.DeviceType = DeviceType(v.UserAgent)
		if browserName != "" {
			v.Browser = browserName
		}
		if osName := ua.OSInfo().Name; osName != "" {
			v.OS = osName
		}
	}
	if v.DeviceType == "" {
		v.DeviceType = "desktop"
	}
	if c.hosting != nil && c.hosting.Contains(e.IP) {
		v.DeviceType = "bot"
	}

	if v.Referrer != "" && v.ReferrerDomain == "" {
		if u, err := url.Parse(v.Referrer); err == nil {
			v.ReferrerDomain = strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		}
	}

	g := c.geo.Resolve(e.IP, e.GeoHeaders)
	if g.Country != "" {
		v.Country = g.Country
	}
	if g.City != "" {
		v.City = g.City
	}

	if v.VisitorID == "" {
		v.VisitorID = VisitorID(e.IP, v.UserAgent)
	}
	return v
}

// DeviceType classifies a user agent as bot, tablet, mobile or desktop.
func DeviceType(rawUA string) string {
	if rawUA == "" {
		return "desktop"
	}
	if IsBot(rawUA) {
		return "bot"
	}
	if strings.Contains(rawUA, "iPad") || (strings.Contains(rawUA, "Android") && !strings.Contains(rawUA, "Mobile")) {
		return "tablet"
	}
	if useragent.New(rawUA).Mobile() {
		return "mobile"
	}
	return "desktop"
}
