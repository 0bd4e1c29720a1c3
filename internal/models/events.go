package models

import (
	"context"
	"fmt"
	"time"

	"github.com/linksgo/linksgo/internal/db"
)

// Visit holds the visitor context shared by page views and link clicks.
type Visit struct {
	VisitorID      string `json:"visitor_id"`
	UserAgent      string `json:"user_agent"`
	Referrer       string `json:"referrer"`
	ReferrerDomain string `json:"referrer_domain"`
	DeviceType     string `json:"device_type"`
	Browser        string `json:"browser"`
	OS             string `json:"os"`
	Country        string `json:"country"`
	City           string `json:"city"`
}

type PageView struct {
	ID        int64
	ProfileID string
	Visit
	CreatedAt time.Time
}

type LinkClick struct {
	ID        int64
	LinkID    int64
	ProfileID string
	Visit
	CreatedAt time.Time
}

func BatchInsertPageViews(ctx context.Context, d *db.DB, views []PageView) error {
	if len(views) == 0 {
		return nil
	}
	return d.InTx(ctx, func(tx *db.Tx) error {
		stmt, err := tx.PrepareContext(ctx, tx.Rebind(
			`INSERT INTO page_views (profile_id, visitor_id, user_agent, referrer, referrer_domain, device_type, browser, os, country, city, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
		if err != nil {
			return fmt.Errorf("prepare: %w", err)
		}
		defer stmt.Close()

		for _, v := range views {
			_, err := stmt.ExecContext(ctx,
				v.ProfileID, v.VisitorID, v.UserAgent, v.Referrer, v.ReferrerDomain,
				v.DeviceType, v.Browser, v.OS, v.Country, v.City, v.CreatedAt.UTC(),
			)
			if err != nil {
				return fmt.Errorf("insert page view: %w", err)
			}
		}
		return nil
	})
}

func BatchInsertLinkClicks(ctx context.Context, d *db.DB, clicks []LinkClick) error {
	if len(clicks) == 0 {
		return nil
	}
	return d.InTx(ctx, func(tx *db.Tx) error {
		stmt, err := tx.PrepareContext(ctx, tx.Rebind(
			`INSERT INTO link_clicks (link_id, profile_id, visitor_id, user_agent, referrer, referrer_domain, device_type, browser, os, country, city, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
		if err != nil {
			return fmt.Errorf("prepare: %w", err)
		}
		defer stmt.Close()

		for _, c := range clicks {
			_, err := stmt.ExecContext(ctx,
				c.LinkID, c.ProfileID, c.VisitorID, c.UserAgent, c.Referrer, c.ReferrerDomain,
				c.DeviceType, c.Browser, c.OS, c.Country, c.City, c.CreatedAt.UTC(),
			)
			if err != nil {
				return fmt.Errorf("insert link click: %w", err)
			}
		}
		return nil
	})
}
