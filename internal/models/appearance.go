package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/linksgo/linksgo/internal/db"
	"github.com/linksgo/linksgo/internal/theme"
)

// Appearance is a profile's saved look. Theme is a theme identifier, possibly
// carrying the mobile-unstable suffix.
type Appearance struct {
	ProfileID           string    `json:"profile_id"`
	Theme               string    `json:"theme"`
	PrimaryColor        string    `json:"primary_color"`
	BackgroundColor     string    `json:"background_color"`
	TextColor           string    `json:"text_color"`
	FontFamily          string    `json:"font_family"`
	ButtonStyle         string    `json:"button_style"`
	BackgroundImage     string    `json:"background_image"`
	MobileBackgroundURL string    `json:"mobile_background_url"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Palette is the subset of the appearance the theme resolver reads.
func (a *Appearance) Palette() theme.Palette {
	return theme.Palette{
		Primary:     a.PrimaryColor,
		Background:  a.BackgroundColor,
		Text:        a.TextColor,
		Font:        a.FontFamily,
		ButtonStyle: a.ButtonStyle,
	}
}

// DefaultAppearance is what a profile without saved settings renders with.
func DefaultAppearance(profileID string) *Appearance {
	return &Appearance{
		ProfileID:       profileID,
		Theme:           theme.DefaultTheme,
		PrimaryColor:    theme.DefaultPrimary,
		BackgroundColor: theme.DefaultBackground,
		TextColor:       theme.DefaultText,
		FontFamily:      theme.DefaultFont,
		ButtonStyle:     theme.DefaultButtonStyle,
	}
}

// AppearanceUpdate is merged over the current settings; nil fields keep
// their value.
type AppearanceUpdate struct {
	Theme               *string `json:"theme"`
	PrimaryColor        *string `json:"primary_color"`
	BackgroundColor     *string `json:"background_color"`
	TextColor           *string `json:"text_color"`
	FontFamily          *string `json:"font_family"`
	ButtonStyle         *string `json:"button_style"`
	BackgroundImage     *string `json:"background_image"`
	MobileBackgroundURL *string `json:"mobile_background_url"`
}

var fontFamilyRe = regexp.MustCompile(`^[A-Za-z0-9 -]{1,64}$`)

const appearanceColumns = `profile_id, theme, primary_color, background_color, text_color, font_family, button_style, background_image, mobile_background_url, updated_at`

// GetAppearance returns the saved settings, or unsaved defaults when the
// profile has none.
func GetAppearance(ctx context.Context, d *db.DB, profileID string) (*Appearance, error) {
	a, err := scanAppearance(d.QueryRowContext(ctx, d.Rebind(`SELECT `+appearanceColumns+` FROM appearance_settings WHERE profile_id = ?`), profileID))
	if errors.Is(err, ErrNotFound) {
		return DefaultAppearance(profileID), nil
	}
	return a, err
}

// EnsureAppearance returns the saved settings, inserting the defaults first
// if the profile has none.
func EnsureAppearance(ctx context.Context, d *db.DB, profileID string) (*Appearance, error) {
	def := DefaultAppearance(profileID)
	_, err := d.ExecContext(ctx, d.Rebind(
		`INSERT INTO appearance_settings (`+appearanceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (profile_id) DO NOTHING`),
		def.ProfileID, def.Theme, def.PrimaryColor, def.BackgroundColor, def.TextColor,
		def.FontFamily, def.ButtonStyle, def.BackgroundImage, def.MobileBackgroundURL, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("ensure appearance: %w", err)
	}
	return scanAppearance(d.QueryRowContext(ctx, d.Rebind(`SELECT `+appearanceColumns+` FROM appearance_settings WHERE profile_id = ?`), profileID))
}

// UpsertAppearance validates u merged over the current settings and writes
// the result. Each profile keeps exactly one row.
func UpsertAppearance(ctx context.Context, d *db.DB, profileID string, u AppearanceUpdate) (*Appearance, error) {
	a, err := GetAppearance(ctx, d, profileID)
	if err != nil {
		return nil, err
	}

	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&a.Theme, u.Theme)
	set(&a.PrimaryColor, u.PrimaryColor)
	set(&a.BackgroundColor, u.BackgroundColor)
	set(&a.TextColor, u.TextColor)
	set(&a.FontFamily, u.FontFamily)
	set(&a.ButtonStyle, u.ButtonStyle)
	set(&a.BackgroundImage, u.BackgroundImage)
	set(&a.MobileBackgroundURL, u.MobileBackgroundURL)
	a.Theme = strings.ToLower(a.Theme)

	if err := validateAppearance(a); err != nil {
		return nil, err
	}
	a.UpdatedAt = time.Now().UTC()

	_, err = d.ExecContext(ctx, d.Rebind(
		`INSERT INTO appearance_settings (`+appearanceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (profile_id) DO UPDATE SET
			theme = excluded.theme,
			primary_color = excluded.primary_color,
			background_color = excluded.background_color,
			text_color = excluded.text_color,
			font_family = excluded.font_family,
			button_style = excluded.button_style,
			background_image = excluded.background_image,
			mobile_background_url = excluded.mobile_background_url,
			updated_at = excluded.updated_at`),
		profileID, a.Theme, a.PrimaryColor, a.BackgroundColor, a.TextColor,
		a.FontFamily, a.ButtonStyle, a.BackgroundImage, a.MobileBackgroundURL, a.UpdatedAt,
	)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("upsert appearance: %w", err)
	}
	return a, nil
}

func validateAppearance(a *Appearance) error {
	if !theme.Known(a.Theme) {
		return invalid("theme", "unknown theme")
	}
	colors := []struct{ field, value string }{
		{"primary_color", a.PrimaryColor},
		{"background_color", a.BackgroundColor},
		{"text_color", a.TextColor},
	}
	for _, c := range colors {
		if !isHexColor(c.value) {
			return invalid(c.field, strings.ReplaceAll(c.field, "_", " ")+" must be a #rrggbb color")
		}
	}
	if !fontFamilyRe.MatchString(a.FontFamily) {
		return invalid("font_family", "font family must be letters, digits, spaces or dashes")
	}
	if !theme.ValidButtonStyle(a.ButtonStyle) {
		return invalid("button_style", "button style must be one of "+strings.Join(theme.ButtonStyles(), ", "))
	}
	if a.BackgroundImage != "" && !isHTTPURL(a.BackgroundImage) {
		return invalid("background_image", "background image must be an http(s) URL")
	}
	if a.MobileBackgroundURL != "" && !isHTTPURL(a.MobileBackgroundURL) {
		return invalid("mobile_background_url", "mobile background must be an http(s) URL")
	}
	return nil
}

func scanAppearance(row scanner) (*Appearance, error) {
	a := &Appearance{}
	err := row.Scan(&a.ProfileID, &a.Theme, &a.PrimaryColor, &a.BackgroundColor, &a.TextColor,
		&a.FontFamily, &a.ButtonStyle, &a.BackgroundImage, &a.MobileBackgroundURL, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan appearance: %w", err)
	}
	return a, nil
}
