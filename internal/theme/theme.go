// Package theme turns a stored theme identifier plus the visitor's context
// into the token set a public profile page is rendered with.
package theme

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Scheme is a light/dark color scheme.
type Scheme string

const (
	Light Scheme = "light"
	Dark  Scheme = "dark"
)

// Device is the coarse device class of a visitor.
type Device string

const (
	Desktop Device = "desktop"
	Mobile  Device = "mobile"
	Tablet  Device = "tablet"
	Bot     Device = "bot"
)

// Live says which contextual signal the page must keep tracking after load.
type Live int

const (
	LiveNone Live = iota
	LiveSystem
	LiveSmart
)

const (
	System = "system"
	Smart  = "smart"
	Custom = "custom"

	// MobileUnstableSuffix marks beta, mobile-optimised variants of a theme.
	MobileUnstableSuffix = "_mobile_unstable"
	mobileUnstable       = "mobile_unstable"
)

// Stored defaults for a profile that never saved appearance settings.
const (
	DefaultTheme       = "light"
	DefaultFont        = "Plus Jakarta Sans"
	DefaultPrimary     = "#000000"
	DefaultBackground  = "#ffffff"
	DefaultText        = "#000000"
	DefaultButtonStyle = "rounded"
)

var buttonRadius = map[string]string{
	"rounded": "0.75rem",
	"square":  "0",
	"pill":    "9999px",
}

// ButtonStyles lists the accepted button style values.
func ButtonStyles() []string {
	return []string{"rounded", "square", "pill"}
}

// ValidButtonStyle reports whether s is a known button style.
func ValidButtonStyle(s string) bool {
	_, ok := buttonRadius[s]
	return ok
}

// Themes that paint verbatim from Assets and get the decorated overlay.
var visualThemes = map[string]bool{
	"valentine":  true,
	"neon":       true,
	"metal":      true,
	"cyberpunk":  true,
	"psychopath": true,
	"ajith":      true,
	"vijay":      true,
	Custom:       true,
}

// Identifiers lists every base identifier an owner may pick.
func Identifiers() []string {
	return []string{
		"light", "dark", System, Smart,
		"valentine", "neon", "metal", "cyberpunk", "psychopath", "ajith", "vijay", Custom,
	}
}

// Known reports whether id is a selectable theme, optionally carrying the
// mobile-unstable suffix.
func Known(id string) bool {
	base := strings.TrimSuffix(id, MobileUnstableSuffix)
	switch base {
	case "light", "dark", System, Smart:
		return true
	}
	return visualThemes[base]
}

// Palette is the owner's stored colors and typography.
type Palette struct {
	Primary     string
	Background  string
	Text        string
	Font        string
	ButtonStyle string
}

// Input is everything resolution depends on.
type Input struct {
	Stored string
	// Now is the visitor's wall-clock time, or the server's best guess.
	Now time.Time
	// Scheme is the visitor's OS color scheme; empty when unknown.
	Scheme Scheme
	Device Device

	Palette          Palette
	BackgroundImage  string
	MobileBackground string
}

type Resolved struct {
	Stored string
	// Name is the theme painted right now: light, dark or a visual theme.
	Name   string
	Visual Visual
	Live   Live
	// Alternate holds the opposite scheme's tokens for system and smart.
	Alternate *Visual
	// Beta asks the page for the time-limited mobile-variant notice.
	Beta bool
	// Overlay is set for the visual themes that paint over an image.
	Overlay bool
}

// SmartScheme is dark from 19:00 to 06:59 and light otherwise.
func SmartScheme(now time.Time) Scheme {
	h := now.Hour()
	if h >= 19 || h < 7 {
		return Dark
	}
	return Light
}

// ResolveName is the pure identifier mapping without any tokens.
func ResolveName(stored string, now time.Time, scheme Scheme) string {
	return Resolve(Input{Stored: stored, Now: now, Scheme: scheme}).Name
}

// Resolve maps in to the visual configuration for one render.
func Resolve(in Input) Resolved {
	stored := strings.ToLower(strings.TrimSpace(in.Stored))
	r := Resolved{Stored: in.Stored}

	base := stored
	if strings.Contains(stored, mobileUnstable) {
		r.Beta = true
		base = strings.TrimSuffix(stored, MobileUnstableSuffix)
	}

	switch {
	case base == "light" || base == "dark":
		r.Name = base
	case base == System:
		r.Live = LiveSystem
		r.Name = string(Light)
		if in.Scheme == Dark {
			r.Name = string(Dark)
		}
	case base == Smart:
		r.Live = LiveSmart
		r.Name = string(SmartScheme(in.Now))
	case visualThemes[base]:
		r.Name = base
		r.Overlay = base != "psychopath"
	default:
		r.Name = DefaultTheme
	}

	r.Visual = paint(r.Name, in)
	if r.Live != LiveNone {
		other := string(Dark)
		if r.Name == string(Dark) {
			other = string(Light)
		}
		alt := paint(other, in)
		r.Alternate = &alt
	}
	return r
}

func paint(name string, in Input) Visual {
	v := Assets[name]

	switch name {
	case "light", "dark":
		applyPalette(&v, in.Palette)
	case Custom:
		if bg := pickBackground(in); bg != "" {
			v.BackgroundImage = cssURL(bg)
		}
	}

	if radius, ok := buttonRadius[in.Palette.ButtonStyle]; ok {
		v.ButtonRadius = radius
	}
	return v.withDefaults()
}

// pickBackground prefers the owner's mobile background on every device; the
// desktop image only fills in when no mobile URL is set.
func pickBackground(in Input) string {
	if mobile := safeImageURL(in.MobileBackground); mobile != "" {
		return mobile
	}
	return safeImageURL(in.BackgroundImage)
}

var (
	hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	fontRe     = regexp.MustCompile(`^[A-Za-z0-9 -]{1,64}$`)
)

// applyPalette lets owner colors override the plain themes where they differ
// from the stored defaults.
func applyPalette(v *Visual, p Palette) {
	if hexColorRe.MatchString(p.Background) && !strings.EqualFold(p.Background, DefaultBackground) {
		v.BackgroundColor = p.Background
	}
	if hexColorRe.MatchString(p.Text) && !strings.EqualFold(p.Text, DefaultText) {
		v.TextColor = p.Text
		v.ButtonText = p.Text
	}
	if hexColorRe.MatchString(p.Primary) && !strings.EqualFold(p.Primary, DefaultPrimary) {
		v.AccentColor = p.Primary
		v.ButtonBorder = p.Primary
	}
	if fontRe.MatchString(p.Font) && p.Font != DefaultFont {
		v.FontFamily = "'" + p.Font + "', sans-serif"
	}
}

func safeImageURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return u.String()
}

// cssURL quotes raw as a CSS url() value that cannot break out of a style block.
func cssURL(raw string) string {
	var b strings.Builder
	b.WriteString(`url("`)
	for _, r := range raw {
		switch r {
		case '"', '\\', '<', '>', '\n', '\r', '\f':
			fmt.Fprintf(&b, `\%x `, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteString(`")`)
	return b.String()
}
