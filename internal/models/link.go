package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/linksgo/linksgo/internal/db"
)

// MaxLinksPerProfile is the product cap on links per profile.
const MaxLinksPerProfile = 5

const (
	maxTitleLen       = 100
	maxDescriptionLen = 500
)

type Link struct {
	ID          int64      `json:"id"`
	ProfileID   string     `json:"profile_id"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Description string     `json:"description"`
	IsActive    bool       `json:"is_active"`
	IsOneTime   bool       `json:"is_one_time"`
	Position    int        `json:"position"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	ClickCount  int64      `json:"click_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Expired reports whether the link's expiry has passed at now.
func (l *Link) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && !l.ExpiresAt.After(now)
}

// Visible reports whether the link should appear on the public page.
func (l *Link) Visible(now time.Time) bool {
	return l.IsActive && !l.Expired(now)
}

type LinkInput struct {
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Description string     `json:"description"`
	IsActive    *bool      `json:"is_active"`
	IsOneTime   bool       `json:"is_one_time"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// LinkUpdate holds a partial edit; nil fields are left as they are.
type LinkUpdate struct {
	Title       *string    `json:"title"`
	URL         *string    `json:"url"`
	Description *string    `json:"description"`
	IsActive    *bool      `json:"is_active"`
	IsOneTime   *bool      `json:"is_one_time"`
	ExpiresAt   *time.Time `json:"expires_at"`
	ClearExpiry bool       `json:"clear_expiry"`
}

// ClickResult is the outcome of crediting a click to an active link.
type ClickResult struct {
	Link Link
	// Deactivated is true for exactly one click on a one-time link.
	Deactivated bool
}

var allowedSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"mailto": true,
	"tel":    true,
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil || !allowedSchemes[strings.ToLower(u.Scheme)] {
		return false
	}
	return u.Host != "" || u.Opaque != ""
}

// NormalizeURL accepts an absolute URL as-is and otherwise retries with an
// https:// prefix, so "example.com" becomes "https://example.com".
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", invalid("url", "url is required")
	}
	if isAbsoluteURL(raw) {
		return raw, nil
	}
	if !strings.Contains(raw, "://") {
		if prefixed := "https://" + raw; isAbsoluteURL(prefixed) {
			return prefixed, nil
		}
	}
	return "", invalid("url", "url must be a valid URL")
}

func cleanTitle(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", invalid("title", "title is required")
	}
	if len([]rune(s)) > maxTitleLen {
		return "", invalid("title", "title is too long")
	}
	return s, nil
}

func cleanDescription(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len([]rune(s)) > maxDescriptionLen {
		return "", invalid("description", "description is too long")
	}
	return s, nil
}

const linkColumns = `id, profile_id, title, url, description, is_active, is_one_time, position, expires_at, click_count, created_at, updated_at`

// CreateLink validates in and appends it after the owner's last link. The
// cap check and position read share one transaction with the insert.
func CreateLink(ctx context.Context, d *db.DB, ownerID string, in LinkInput) (*Link, error) {
	title, err := cleanTitle(in.Title)
	if err != nil {
		return nil, err
	}
	target, err := NormalizeURL(in.URL)
	if err != nil {
		return nil, err
	}
	desc, err := cleanDescription(in.Description)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	l := &Link{
		ProfileID:   ownerID,
		Title:       title,
		URL:         target,
		Description: desc,
		IsActive:    true,
		IsOneTime:   in.IsOneTime,
		ExpiresAt:   utcPtr(in.ExpiresAt),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.IsActive != nil {
		l.IsActive = *in.IsActive
	}

	err = d.InTx(ctx, func(tx *db.Tx) error {
		if lock := d.LockProfileSQL(); lock != "" {
			var id string
			if err := tx.QueryRowContext(ctx, lock, ownerID).Scan(&id); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return ErrNotFound
				}
				return fmt.Errorf("lock profile: %w", err)
			}
		}

		var count, next int
		err := tx.QueryRowContext(ctx, tx.Rebind(
			`SELECT COUNT(*), COALESCE(MAX(position), -1) + 1 FROM links WHERE profile_id = ?`), ownerID,
		).Scan(&count, &next)
		if err != nil {
			return fmt.Errorf("count links: %w", err)
		}
		if count >= MaxLinksPerProfile {
			return ErrLinkLimit
		}
		l.Position = next

		err = tx.QueryRowContext(ctx, tx.Rebind(
			`INSERT INTO links (profile_id, title, url, description, is_active, is_one_time, position, expires_at, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
			l.ProfileID, l.Title, l.URL, l.Description, l.IsActive, l.IsOneTime, l.Position, l.ExpiresAt, l.CreatedAt, l.UpdatedAt,
		).Scan(&l.ID)
		if err != nil {
			return fmt.Errorf("insert link: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

// GetLink loads a link owned by ownerID.
func GetLink(ctx context.Context, d *db.DB, ownerID string, id int64) (*Link, error) {
	row := d.QueryRowContext(ctx, d.Rebind(`SELECT `+linkColumns+` FROM links WHERE id = ? AND profile_id = ?`), id, ownerID)
	return scanLink(row)
}

// GetLinkByID loads a link regardless of owner, for public routes.
func GetLinkByID(ctx context.Context, d *db.DB, id int64) (*Link, error) {
	row := d.QueryRowContext(ctx, d.Rebind(`SELECT `+linkColumns+` FROM links WHERE id = ?`), id)
	return scanLink(row)
}

// ListLinks returns all of the owner's links ordered by position.
func ListLinks(ctx context.Context, d *db.DB, ownerID string) ([]Link, error) {
	rows, err := d.QueryContext(ctx, d.Rebind(`SELECT `+linkColumns+` FROM links WHERE profile_id = ? ORDER BY position, id`), ownerID)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return collectLinks(rows)
}

// ListVisibleLinks returns active, unexpired links ordered by position.
func ListVisibleLinks(ctx context.Context, d *db.DB, ownerID string, now time.Time) ([]Link, error) {
	rows, err := d.QueryContext(ctx, d.Rebind(
		`SELECT `+linkColumns+` FROM links
		WHERE profile_id = ? AND is_active AND (expires_at IS NULL OR expires_at > ?)
		ORDER BY position, id`), ownerID, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("list visible links: %w", err)
	}
	return collectLinks(rows)
}

// UpdateLink applies the non-nil fields of u to a link owned by ownerID.
func UpdateLink(ctx context.Context, d *db.DB, ownerID string, id int64, u LinkUpdate) (*Link, error) {
	var updated *Link
	err := d.InTx(ctx, func(tx *db.Tx) error {
		row := tx.QueryRowContext(ctx, tx.Rebind(`SELECT `+linkColumns+` FROM links WHERE id = ? AND profile_id = ?`), id, ownerID)
		l, err := scanLink(row)
		if err != nil {
			return err
		}

		if u.Title != nil {
			if l.Title, err = cleanTitle(*u.Title); err != nil {
				return err
			}
		}
		if u.URL != nil {
			if l.URL, err = NormalizeURL(*u.URL); err != nil {
				return err
			}
		}
		if u.Description != nil {
			if l.Description, err = cleanDescription(*u.Description); err != nil {
				return err
			}
		}
		if u.IsActive != nil {
			l.IsActive = *u.IsActive
		}
		if u.IsOneTime != nil {
			l.IsOneTime = *u.IsOneTime
		}
		if u.ExpiresAt != nil {
			l.ExpiresAt = utcPtr(u.ExpiresAt)
		}
		if u.ClearExpiry {
			l.ExpiresAt = nil
		}
		l.UpdatedAt = time.Now().UTC()

		_, err = tx.ExecContext(ctx, tx.Rebind(
			`UPDATE links SET title = ?, url = ?, description = ?, is_active = ?, is_one_time = ?, expires_at = ?, updated_at = ?
			WHERE id = ? AND profile_id = ?`),
			l.Title, l.URL, l.Description, l.IsActive, l.IsOneTime, l.ExpiresAt, l.UpdatedAt, id, ownerID,
		)
		if err != nil {
			return fmt.Errorf("update link: %w", err)
		}
		updated = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ReorderLinks sets each link's position to its index in ids. ids must name
// every link the owner has, exactly once.
func ReorderLinks(ctx context.Context, d *db.DB, ownerID string, ids []int64) ([]Link, error) {
	err := d.InTx(ctx, func(tx *db.Tx) error {
		existing, err := ownerLinkIDs(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		if !sameIDSet(existing, ids) {
			return invalid("ids", "ids must list each of your links exactly once")
		}

		now := time.Now().UTC()
		for pos, id := range ids {
			_, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE links SET position = ?, updated_at = ? WHERE id = ? AND profile_id = ?`), pos, now, id, ownerID)
			if err != nil {
				return fmt.Errorf("update position: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ListLinks(ctx, d, ownerID)
}

// DeleteLink removes a link and closes the gap it leaves in the positions.
func DeleteLink(ctx context.Context, d *db.DB, ownerID string, id int64) error {
	return d.InTx(ctx, func(tx *db.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM links WHERE id = ? AND profile_id = ?`), id, ownerID)
		if err != nil {
			return fmt.Errorf("delete link: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}

		remaining, err := ownerLinkIDs(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		for pos, linkID := range remaining {
			_, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE links SET position = ? WHERE id = ? AND position != ?`), pos, linkID, pos)
			if err != nil {
				return fmt.Errorf("repack positions: %w", err)
			}
		}
		return nil
	})
}

// RecordClick credits one click to an active link. A one-time link is
// deactivated by the same conditional update, so only the first of any
// number of concurrent clicks succeeds.
func RecordClick(ctx context.Context, d *db.DB, id int64, now time.Time) (*ClickResult, error) {
	row := d.QueryRowContext(ctx, d.Rebind(
		`UPDATE links
		SET click_count = click_count + 1,
		    is_active = CASE WHEN is_one_time THEN FALSE ELSE is_active END
		WHERE id = ? AND is_active AND (expires_at IS NULL OR expires_at > ?)
		RETURNING `+linkColumns), id, now.UTC())
	l, err := scanLink(row)
	if errors.Is(err, ErrNotFound) {
		if _, err := GetLinkByID(ctx, d, id); err != nil {
			return nil, err
		}
		return nil, ErrLinkInactive
	}
	if err != nil {
		return nil, fmt.Errorf("record click: %w", err)
	}
	return &ClickResult{Link: *l, Deactivated: l.IsOneTime}, nil
}

func ownerLinkIDs(ctx context.Context, tx *db.Tx, ownerID string) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, tx.Rebind(`SELECT id FROM links WHERE profile_id = ? ORDER BY position, id`), ownerID)
	if err != nil {
		return nil, fmt.Errorf("list link ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan link id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func sameIDSet(existing, proposed []int64) bool {
	if len(existing) != len(proposed) {
		return false
	}
	want := make(map[int64]bool, len(existing))
	for _, id := range existing {
		want[id] = true
	}
	for _, id := range proposed {
		if !want[id] {
			return false
		}
		delete(want, id)
	}
	return len(want) == 0
}

func collectLinks(rows *sql.Rows) ([]Link, error) {
	defer rows.Close()
	links := []Link{}
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *l)
	}
	return links, rows.Err()
}

func scanLink(row scanner) (*Link, error) {
	l := &Link{}
	var expires sql.NullTime
	err := row.Scan(&l.ID, &l.ProfileID, &l.Title, &l.URL, &l.Description, &l.IsActive, &l.IsOneTime,
		&l.Position, &expires, &l.ClickCount, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan link: %w", err)
	}
	if expires.Valid {
		t := expires.Time.UTC()
		l.ExpiresAt = &t
	}
	return l, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
