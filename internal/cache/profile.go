package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/linksgo/linksgo/internal/db"
	"github.com/linksgo/linksgo/internal/models"
)

// Page is everything the public profile page reads from the store.
type Page struct {
	Profile    models.Profile
	Links      []models.Link
	Appearance models.Appearance
}

// VisibleLinks filters links that expired after the page was cached.
func (p *Page) VisibleLinks(now time.Time) []models.Link {
	out := make([]models.Link, 0, len(p.Links))
	for _, l := range p.Links {
		if l.Visible(now) {
			out = append(out, l)
		}
	}
	return out
}

// Loader reads a page from the store by lowercase username.
type Loader func(ctx context.Context, username string) (*Page, error)

// ProfileCache is a read-through cache of public pages keyed by username.
type ProfileCache struct {
	c     *expirable.LRU[string, *Page]
	group singleflight.Group
	load  Loader

	mu sync.Mutex
	// gen counts invalidations per key; a load only fills the cache if no
	// invalidation happened while it ran.
	gen map[string]uint64
}

func New(size int, ttl time.Duration, load Loader) *ProfileCache {
	return &ProfileCache{
		c:    expirable.NewLRU[string, *Page](size, nil, ttl),
		load: load,
		gen:  make(map[string]uint64),
	}
}

func key(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Get returns the cached page or loads it. Concurrent misses for the same
// username share one load. Errors are not cached.
func (pc *ProfileCache) Get(ctx context.Context, username string) (*Page, error) {
	k := key(username)
	if p, ok := pc.c.Get(k); ok {
		return p, nil
	}

	v, err, _ := pc.group.Do(k, func() (any, error) {
		start := pc.generation(k)
		p, err := pc.load(context.WithoutCancel(ctx), k)
		if err != nil {
			return nil, err
		}

		pc.mu.Lock()
		if pc.gen[k] == start {
			pc.c.Add(k, p)
		}
		pc.mu.Unlock()
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Page), nil
}

func (pc *ProfileCache) generation(k string) uint64 {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.gen[k]
}

// Invalidate drops the cached page for username. A load already in flight
// still answers its callers but is not cached, and the next Get reloads.
func (pc *ProfileCache) Invalidate(username string) {
	k := key(username)
	pc.mu.Lock()
	pc.gen[k]++
	pc.c.Remove(k)
	pc.mu.Unlock()
	pc.group.Forget(k)
}

func (pc *ProfileCache) Len() int {
	return pc.c.Len()
}

// StoreLoader loads pages straight from the database.
func StoreLoader(d *db.DB) Loader {
	return func(ctx context.Context, username string) (*Page, error) {
		p, err := models.GetProfileByUsername(ctx, d, username)
		if err != nil {
			return nil, err
		}
		links, err := models.ListVisibleLinks(ctx, d, p.ID, time.Now())
		if err != nil {
			return nil, err
		}
		a, err := models.GetAppearance(ctx, d, p.ID)
		if err != nil {
			return nil, err
		}
		return &Page{Profile: *p, Links: links, Appearance: *a}, nil
	}
}
