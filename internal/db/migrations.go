package db

import (
	"context"
	"fmt"
)

// Migrate creates any missing tables and indexes for the handle's dialect.
func Migrate(ctx context.Context, d *DB) error {
	stmts := sqliteSchema
	if d.Dialect == Postgres {
		stmts = postgresSchema
	}
	for _, stmt := range stmts {
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec schema: %w", err)
		}
	}
	return nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
    id            TEXT PRIMARY KEY,
    identity      TEXT NOT NULL UNIQUE,
    email         TEXT NOT NULL DEFAULT '',
    username      TEXT NOT NULL UNIQUE,
    display_name  TEXT NOT NULL DEFAULT '',
    bio           TEXT NOT NULL DEFAULT '',
    avatar_url    TEXT NOT NULL DEFAULT '',
    created_at    DATETIME NOT NULL,
    updated_at    DATETIME NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS links (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    profile_id    TEXT    NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    title         TEXT    NOT NULL,
    url           TEXT    NOT NULL,
    description   TEXT    NOT NULL DEFAULT '',
    is_active     BOOLEAN NOT NULL DEFAULT TRUE,
    is_one_time   BOOLEAN NOT NULL DEFAULT FALSE,
    position      INTEGER NOT NULL,
    expires_at    DATETIME,
    click_count   INTEGER NOT NULL DEFAULT 0,
    created_at    DATETIME NOT NULL,
    updated_at    DATETIME NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_links_profile_position ON links(profile_id, position)`,
	`CREATE TABLE IF NOT EXISTS appearance_settings (
    profile_id            TEXT PRIMARY KEY REFERENCES profiles(id) ON DELETE CASCADE,
    theme                 TEXT NOT NULL,
    primary_color         TEXT NOT NULL,
    background_color      TEXT NOT NULL,
    text_color            TEXT NOT NULL,
    font_family           TEXT NOT NULL,
    button_style          TEXT NOT NULL,
    background_image      TEXT NOT NULL DEFAULT '',
    mobile_background_url TEXT NOT NULL DEFAULT '',
    updated_at            DATETIME NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS page_views (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    profile_id      TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    visitor_id      TEXT NOT NULL DEFAULT '',
    user_agent      TEXT NOT NULL DEFAULT '',
    referrer        TEXT NOT NULL DEFAULT '',
    referrer_domain TEXT NOT NULL DEFAULT '',
    device_type     TEXT NOT NULL DEFAULT '',
    browser         TEXT NOT NULL DEFAULT '',
    os              TEXT NOT NULL DEFAULT '',
    country         TEXT NOT NULL DEFAULT '',
    city            TEXT NOT NULL DEFAULT '',
    created_at      DATETIME NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_page_views_profile_created ON page_views(profile_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS link_clicks (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    link_id         INTEGER NOT NULL REFERENCES links(id) ON DELETE CASCADE,
    profile_id      TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    visitor_id      TEXT NOT NULL DEFAULT '',
    user_agent      TEXT NOT NULL DEFAULT '',
    referrer        TEXT NOT NULL DEFAULT '',
    referrer_domain TEXT NOT NULL DEFAULT '',
    device_type     TEXT NOT NULL DEFAULT '',
    browser         TEXT NOT NULL DEFAULT '',
    os              TEXT NOT NULL DEFAULT '',
    country         TEXT NOT NULL DEFAULT '',
    city            TEXT NOT NULL DEFAULT '',
    created_at      DATETIME NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_link_clicks_profile_created ON link_clicks(profile_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_link_clicks_link_id ON link_clicks(link_id)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
    id            TEXT PRIMARY KEY,
    identity      TEXT NOT NULL UNIQUE,
    email         TEXT NOT NULL DEFAULT '',
    username      TEXT NOT NULL UNIQUE,
    display_name  TEXT NOT NULL DEFAULT '',
    bio           TEXT NOT NULL DEFAULT '',
    avatar_url    TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS links (
    id            BIGSERIAL PRIMARY KEY,
    profile_id    TEXT    NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    title         TEXT    NOT NULL,
    url           TEXT    NOT NULL,
    description   TEXT    NOT NULL DEFAULT '',
    is_active     BOOLEAN NOT NULL DEFAULT TRUE,
    is_one_time   BOOLEAN NOT NULL DEFAULT FALSE,
    position      INTEGER NOT NULL,
    expires_at    TIMESTAMPTZ,
    click_count   BIGINT  NOT NULL DEFAULT 0,
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_links_profile_position ON links(profile_id, position)`,
	`CREATE TABLE IF NOT EXISTS appearance_settings (
    profile_id            TEXT PRIMARY KEY REFERENCES profiles(id) ON DELETE CASCADE,
    theme                 TEXT NOT NULL,
    primary_color         TEXT NOT NULL,
    background_color      TEXT NOT NULL,
    text_color            TEXT NOT NULL,
    font_family           TEXT NOT NULL,
    button_style          TEXT NOT NULL,
    background_image      TEXT NOT NULL DEFAULT '',
    mobile_background_url TEXT NOT NULL DEFAULT '',
    updated_at            TIMESTAMPTZ NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS page_views (
    id              BIGSERIAL PRIMARY KEY,
    profile_id      TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    visitor_id      TEXT NOT NULL DEFAULT '',
    user_agent      TEXT NOT NULL DEFAULT '',
    referrer        TEXT NOT NULL DEFAULT '',
    referrer_domain TEXT NOT NULL DEFAULT '',
    device_type     TEXT NOT NULL DEFAULT '',
    browser         TEXT NOT NULL DEFAULT '',
    os              TEXT NOT NULL DEFAULT '',
    country         TEXT NOT NULL DEFAULT '',
    city            TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_page_views_profile_created ON page_views(profile_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS link_clicks (
    id              BIGSERIAL PRIMARY KEY,
    link_id         BIGINT NOT NULL REFERENCES links(id) ON DELETE CASCADE,
    profile_id      TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
    visitor_id      TEXT NOT NULL DEFAULT '',
    user_agent      TEXT NOT NULL DEFAULT '',
    referrer        TEXT NOT NULL DEFAULT '',
    referrer_domain TEXT NOT NULL DEFAULT '',
    device_type     TEXT NOT NULL DEFAULT '',
    browser         TEXT NOT NULL DEFAULT '',
    os              TEXT NOT NULL DEFAULT '',
    country         TEXT NOT NULL DEFAULT '',
    city            TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_link_clicks_profile_created ON link_clicks(profile_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_link_clicks_link_id ON link_clicks(link_id)`,
}
