package web

import (
	"context"
	"time"

	"github.com/linksgo/linksgo/internal/models"
)

// LinkRow is a link as the dashboard lists it.
type LinkRow struct {
	models.Link
	// RecentClicks counts clicks in the dashboard's window; ClickCount on
	// the link is all-time.
	RecentClicks int64
	Expired      bool
}

func (h *Handler) linkRows(ctx context.Context, ownerID string, since, now time.Time) ([]LinkRow, error) {
	links, err := models.ListLinks(ctx, h.db, ownerID)
	if err != nil {
		return nil, err
	}
	recent, err := models.LinkClicksSince(ctx, h.db, ownerID, since)
	if err != nil {
		return nil, err
	}

	rows := make([]LinkRow, len(links))
	for i, l := range links {
		rows[i] = LinkRow{
			Link:         l,
			RecentClicks: recent[l.ID],
			Expired:      l.Expired(now),
		}
	}
	return rows, nil
}
