package models

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/linksgo/linksgo/internal/db"
)

// Timeframe is a trailing reporting window.
type Timeframe string

const (
	Timeframe24h Timeframe = "24h"
	Timeframe7d  Timeframe = "7d"
	Timeframe30d Timeframe = "30d"
	Timeframe1y  Timeframe = "1y"
)

// ParseTimeframe accepts 24h, 7d, 30d or 1y; empty means 7d.
func ParseTimeframe(s string) (Timeframe, error) {
	switch tf := Timeframe(s); tf {
	case "":
		return Timeframe7d, nil
	case Timeframe24h, Timeframe7d, Timeframe30d, Timeframe1y:
		return tf, nil
	}
	return "", invalid("timeframe", "timeframe must be one of 24h, 7d, 30d, 1y")
}

// Since returns the start of the window ending at now.
func (tf Timeframe) Since(now time.Time) time.Time {
	switch tf {
	case Timeframe24h:
		return now.Add(-24 * time.Hour)
	case Timeframe30d:
		return now.AddDate(0, 0, -30)
	case Timeframe1y:
		return now.AddDate(-1, 0, 0)
	default:
		return now.AddDate(0, 0, -7)
	}
}

// Days is the divisor for daily averages.
func (tf Timeframe) Days() int {
	switch tf {
	case Timeframe24h:
		return 1
	case Timeframe30d:
		return 30
	case Timeframe1y:
		return 365
	default:
		return 7
	}
}

// Counts maps a dimension value to its event count.
type Counts map[string]int64

type PageViewStats struct {
	Total        int64   `json:"total"`
	DailyAverage float64 `json:"daily_average"`
	ByDevice     Counts  `json:"by_device"`
	ByCountry    Counts  `json:"by_country"`
	ByBrowser    Counts  `json:"by_browser"`
	ByOS         Counts  `json:"by_os"`
}

type LinkClickStats struct {
	Total        int64   `json:"total"`
	DailyAverage float64 `json:"daily_average"`
	ByDevice     Counts  `json:"by_device"`
	ByCountry    Counts  `json:"by_country"`
	ByLink       Counts  `json:"by_link"`
}

type Summary struct {
	ProfileID  string         `json:"profile_id"`
	Timeframe  Timeframe      `json:"timeframe"`
	Since      time.Time      `json:"since"`
	PageViews  PageViewStats  `json:"page_views"`
	LinkClicks LinkClickStats `json:"link_clicks"`
}

// Columns that may be grouped on; group-by queries are built from these only.
var (
	pageViewDimensions  = map[string]bool{"device_type": true, "country": true, "browser": true, "os": true}
	linkClickDimensions = map[string]bool{"device_type": true, "country": true, "link_id": true}
)

// Summarize counts a profile's page views and link clicks in the window
// ending at now, one dimension per query.
func Summarize(ctx context.Context, d *db.DB, profileID string, tf Timeframe, now time.Time) (*Summary, error) {
	now = now.UTC()
	since := tf.Since(now)
	s := &Summary{ProfileID: profileID, Timeframe: tf, Since: since}

	g, ctx := errgroup.WithContext(ctx)
	total := func(table string, dst *int64) {
		g.Go(func() error {
			return d.QueryRowContext(ctx, d.Rebind(
				`SELECT COUNT(*) FROM `+table+` WHERE profile_id = ? AND created_at >= ? AND created_at <= ?`),
				profileID, since, now,
			).Scan(dst)
		})
	}
	group := func(table, column string, dst *Counts) {
		g.Go(func() error {
			c, err := countBy(ctx, d, table, column, profileID, since, now)
			*dst = c
			return err
		})
	}

	total("page_views", &s.PageViews.Total)
	group("page_views", "device_type", &s.PageViews.ByDevice)
	group("page_views", "country", &s.PageViews.ByCountry)
	group("page_views", "browser", &s.PageViews.ByBrowser)
	group("page_views", "os", &s.PageViews.ByOS)

	total("link_clicks", &s.LinkClicks.Total)
	group("link_clicks", "device_type", &s.LinkClicks.ByDevice)
	group("link_clicks", "country", &s.LinkClicks.ByCountry)
	group("link_clicks", "link_id", &s.LinkClicks.ByLink)

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("summarize analytics: %w", err)
	}

	days := float64(tf.Days())
	s.PageViews.DailyAverage = float64(s.PageViews.Total) / days
	s.LinkClicks.DailyAverage = float64(s.LinkClicks.Total) / days
	return s, nil
}

func countBy(ctx context.Context, d *db.DB, table, column, profileID string, since, until time.Time) (Counts, error) {
	dims := pageViewDimensions
	if table == "link_clicks" {
		dims = linkClickDimensions
	}
	if !dims[column] {
		return nil, fmt.Errorf("count by: unknown column %s.%s", table, column)
	}

	filter := column + ` != ''`
	if column == "link_id" {
		filter = `link_id IS NOT NULL`
	}
	rows, err := d.QueryContext(ctx, d.Rebind(
		`SELECT `+column+`, COUNT(*) FROM `+table+`
		WHERE profile_id = ? AND created_at >= ? AND created_at <= ? AND `+filter+`
		GROUP BY `+column), profileID, since, until)
	if err != nil {
		return nil, fmt.Errorf("count %s by %s: %w", table, column, err)
	}
	defer rows.Close()

	counts := Counts{}
	for rows.Next() {
		var key any
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("scan %s count: %w", column, err)
		}
		counts[dimensionKey(key)] = n
	}
	return counts, rows.Err()
}

func dimensionKey(v any) string {
	switch k := v.(type) {
	case int64:
		return strconv.FormatInt(k, 10)
	case []byte:
		return string(k)
	case string:
		return k
	default:
		return fmt.Sprint(k)
	}
}

// LinkClicksSince returns per-link click counts for a profile's window, used
// next to the all-time click_count on the dashboard.
func LinkClicksSince(ctx context.Context, d *db.DB, profileID string, since time.Time) (map[int64]int64, error) {
	rows, err := d.QueryContext(ctx, d.Rebind(
		`SELECT link_id, COUNT(*) FROM link_clicks WHERE profile_id = ? AND created_at >= ? GROUP BY link_id`),
		profileID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("link clicks since: %w", err)
	}
	defer rows.Close()

	counts := map[int64]int64{}
	for rows.Next() {
		var id, n int64
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan link click count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
