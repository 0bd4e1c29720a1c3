package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/linksgo/linksgo/internal/db"
	"github.com/linksgo/linksgo/internal/logging"
	"github.com/linksgo/linksgo/internal/models"
)

type seedLink struct {
	title       string
	url         string
	description string
	oneTime     bool
	// weight controls relative click volume (higher = more clicks)
	weight float64
}

type seedProfile struct {
	email   string
	name    string
	bio     string
	theme   string
	links   []seedLink
	traffic float64
}

var profiles = []seedProfile{
	{
		email:   "maya@example.com",
		name:    "Maya Chen",
		bio:     "Illustrator and zine maker. Commissions open.",
		theme:   "valentine",
		traffic: 1.5,
		links: []seedLink{
			{"Portfolio", "https://maya.example.com", "Selected work 2020-2026", false, 5},
			{"Shop", "https://shop.example.com/maya", "Prints and zines", false, 4},
			{"Instagram", "https://instagram.com/maya.draws", "", false, 3},
			{"Commission form", "https://forms.example.com/maya", "Two slots left this month", false, 2},
			{"Secret sketchbook", "https://drive.example.com/sketches", "First visitor only", true, 1},
		},
	},
	{
		email:   "dev.raj@example.com",
		name:    "Raj Patel",
		bio:     "Backend engineer. Writing about databases.",
		theme:   "smart",
		traffic: 1,
		links: []seedLink{
			{"Blog", "https://raj.example.dev", "Notes on storage engines", false, 5},
			{"GitHub", "https://github.com/rajpatel", "", false, 4},
			{"Talk slides", "https://slides.example.com/raj/btrees", "B-trees in practice", false, 2},
		},
	},
	{
		email:   "neon.nights@example.com",
		name:    "Neon Nights",
		bio:     "Synthwave every Friday.",
		theme:   "neon_mobile_unstable",
		traffic: 0.6,
		links: []seedLink{
			{"Listen", "https://music.example.com/neon", "", false, 5},
			{"Tour dates", "https://tour.example.com/neon", "", false, 3},
		},
	},
}

type weighted struct {
	value  string
	weight float64
}

var referrers = []weighted{
	{"instagram.com", 30},
	{"", 25}, // direct traffic
	{"twitter.com", 12},
	{"tiktok.com", 10},
	{"google.com", 8},
	{"youtube.com", 6},
	{"reddit.com", 4},
	{"linkedin.com", 3},
	{"t.co", 2},
}

var countries = []weighted{
	{"US", 25}, {"IN", 20}, {"DE", 8}, {"GB", 7}, {"BR", 6},
	{"FR", 5}, {"CA", 4}, {"AU", 3}, {"JP", 3}, {"NL", 2},
	{"SG", 2}, {"ID", 2}, {"ES", 2}, {"MX", 1}, {"NG", 1},
}

var browsers = []weighted{
	{"Chrome", 50}, {"Safari", 30}, {"Firefox", 8}, {"Edge", 7}, {"Samsung Internet", 5},
}

var oses = []weighted{
	{"Android", 35}, {"iOS", 30}, {"Windows", 20}, {"macOS", 10}, {"Linux", 5},
}

var deviceTypes = []weighted{
	{"mobile", 70}, {"desktop", 25}, {"tablet", 5},
}

func pick(items []weighted, rng *rand.Rand) string {
	var total float64
	for _, item := range items {
		total += item.weight
	}
	v := rng.Float64() * total
	for _, item := range items {
		v -= item.weight
		if v <= 0 {
			return item.value
		}
	}
	return items[len(items)-1].value
}

func main() {
	log, err := logging.New("development")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	dsn := os.Getenv("LINKSGO_DATABASE_URL")
	if dsn == "" {
		dsn = "./linksgo.db"
	}

	database, err := db.Open(dsn)
	if err != nil {
		log.Fatal("open db", zap.Error(err))
	}
	defer database.Close()

	ctx := context.Background()
	rng := rand.New(rand.NewSource(42)) // deterministic seed
	now := time.Now().UTC()
	start := now.AddDate(0, -2, 0)

	var totalViews, totalClicks int
	for _, sp := range profiles {
		p, err := models.ProvisionProfile(ctx, database, models.Identity{
			Provider: "seed",
			Subject:  sp.email,
			Email:    sp.email,
			Name:     sp.name,
		})
		if err != nil {
			log.Fatal("provision profile", zap.String("email", sp.email), zap.Error(err))
		}
		if _, err := models.UpdateProfile(ctx, database, p.ID, models.ProfileUpdate{Bio: &sp.bio}); err != nil {
			log.Fatal("update profile", zap.String("username", p.Username), zap.Error(err))
		}
		theme := sp.theme
		if _, err := models.UpsertAppearance(ctx, database, p.ID, models.AppearanceUpdate{Theme: &theme}); err != nil {
			log.Fatal("save appearance", zap.String("username", p.Username), zap.Error(err))
		}

		existing, err := models.ListLinks(ctx, database, p.ID)
		if err != nil {
			log.Fatal("list links", zap.Error(err))
		}
		if len(existing) > 0 {
			fmt.Printf("  /%s already seeded, skipping\n", p.Username)
			continue
		}

		links := make([]*models.Link, 0, len(sp.links))
		for _, sl := range sp.links {
			l, err := models.CreateLink(ctx, database, p.ID, models.LinkInput{
				Title:       sl.title,
				URL:         sl.url,
				Description: sl.description,
				IsOneTime:   sl.oneTime,
			})
			if err != nil {
				log.Fatal("create link", zap.String("title", sl.title), zap.Error(err))
			}
			links = append(links, l)
		}

		var views []models.PageView
		var clicks []models.LinkClick
		clickCounts := make(map[int64]int64)

		for day := start; day.Before(now); day = day.Add(24 * time.Hour) {
			// ±40% daily variance, weekend bump for creator pages
			variance := 0.6 + rng.Float64()*0.8
			weekday := 1.0
			if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
				weekday = 1.3
			}
			viewsToday := int(40 * sp.traffic * variance * weekday)

			for j := 0; j < viewsToday; j++ {
				hour := rng.NormFloat64()*4 + 19 // evenings, UTC
				if hour < 0 {
					hour = 0
				}
				if hour >= 24 {
					hour = 23
				}
				at := time.Date(day.Year(), day.Month(), day.Day(), int(hour), rng.Intn(60), rng.Intn(60), 0, time.UTC)
				if at.After(now) {
					continue
				}

				ref := pick(referrers, rng)
				visit := models.Visit{
					VisitorID:      uuid.NewString(),
					ReferrerDomain: ref,
					DeviceType:     pick(deviceTypes, rng),
					Browser:        pick(browsers, rng),
					OS:             pick(oses, rng),
					Country:        pick(countries, rng),
				}
				if ref != "" {
					visit.Referrer = "https://" + ref + "/"
				}
				views = append(views, models.PageView{ProfileID: p.ID, Visit: visit, CreatedAt: at})

				// roughly a third of visitors click through
				if rng.Float64() > 0.35 {
					continue
				}
				l := pickLink(sp.links, links, rng)
				if l == nil {
					continue
				}
				clicks = append(clicks, models.LinkClick{
					LinkID:    l.ID,
					ProfileID: p.ID,
					Visit:     visit,
					CreatedAt: at.Add(time.Duration(rng.Intn(90)+5) * time.Second),
				})
				clickCounts[l.ID]++
			}
		}

		if err := models.BatchInsertPageViews(ctx, database, views); err != nil {
			log.Fatal("insert page views", zap.Error(err))
		}
		if err := models.BatchInsertLinkClicks(ctx, database, clicks); err != nil {
			log.Fatal("insert link clicks", zap.Error(err))
		}
		for id, n := range clickCounts {
			if _, err := database.ExecContext(ctx, database.Rebind(`UPDATE links SET click_count = ? WHERE id = ?`), n, id); err != nil {
				log.Fatal("set click count", zap.Int64("link_id", id), zap.Error(err))
			}
		}
		for _, l := range links {
			if l.IsOneTime && !l.IsActive {
				off := false
				if _, err := models.UpdateLink(ctx, database, p.ID, l.ID, models.LinkUpdate{IsActive: &off}); err != nil {
					log.Fatal("deactivate one-time link", zap.Int64("link_id", l.ID), zap.Error(err))
				}
			}
		}

		totalViews += len(views)
		totalClicks += len(clicks)
		fmt.Printf("  /%-16s %d links, %d views, %d clicks\n", p.Username, len(links), len(views), len(clicks))
	}

	fmt.Printf("\nDone! %d page views and %d link clicks.\n", totalViews, totalClicks)
	fmt.Printf("Database: %s\n", dsn)
}

// pickLink chooses a link by weight. A one-time link is only clicked once.
func pickLink(seeds []seedLink, links []*models.Link, rng *rand.Rand) *models.Link {
	var total float64
	for i, sl := range seeds {
		if links[i].IsActive {
			total += sl.weight
		}
	}
	if total == 0 {
		return nil
	}
	v := rng.Float64() * total
	for i, sl := range seeds {
		if !links[i].IsActive {
			continue
		}
		v -= sl.weight
		if v <= 0 {
			if links[i].IsOneTime {
				links[i].IsActive = false
			}
			return links[i]
		}
	}
	return nil
}
