package theme

import (
	"strings"
	"testing"
	"time"
)

func at(hour int) time.Time {
	return time.Date(2025, 2, 14, hour, 30, 0, 0, time.UTC)
}

func TestResolveName(t *testing.T) {
	tests := []struct {
		stored string
		hour   int
		scheme Scheme
		want   string
	}{
		{"light", 12, Dark, "light"},
		{"dark", 12, Light, "dark"},
		{"smart", 20, "", "dark"},
		{"smart", 10, "", "light"},
		{"smart", 19, "", "dark"},
		{"smart", 6, "", "dark"},
		{"smart", 7, "", "light"},
		{"smart", 18, Dark, "light"},
		{"system", 12, Dark, "dark"},
		{"system", 12, Light, "light"},
		{"system", 12, "", "light"},
		{"valentine", 23, Dark, "valentine"},
		{"psychopath", 3, Light, "psychopath"},
		{"custom", 12, Dark, "custom"},
		{"ajith_mobile_unstable", 12, Dark, "ajith"},
		{"unknown_theme", 12, Dark, "light"},
		{"", 2, Dark, "light"},
		{"DARK", 12, Light, "dark"},
	}
	for _, tt := range tests {
		if got := ResolveName(tt.stored, at(tt.hour), tt.scheme); got != tt.want {
			t.Errorf("ResolveName(%q, %02d:30, %q) = %q, want %q", tt.stored, tt.hour, tt.scheme, got, tt.want)
		}
	}
}

func TestResolve_ValentineIgnoresScheme(t *testing.T) {
	for _, scheme := range []Scheme{Light, Dark, ""} {
		r := Resolve(Input{Stored: "valentine", Now: at(22), Scheme: scheme})
		if r.Visual.AccentColor != "#f43f5e" {
			t.Errorf("accent = %q, want #f43f5e", r.Visual.AccentColor)
		}
		if r.Visual.BackgroundImage != "linear-gradient(135deg, #f43f5e33 0%, #ec489933 100%)" {
			t.Errorf("background = %q", r.Visual.BackgroundImage)
		}
		if r.Live != LiveNone || r.Alternate != nil {
			t.Errorf("valentine should not track live signals")
		}
		if !r.Overlay || !r.Visual.Animated() {
			t.Errorf("overlay = %v, animated = %v, want both true", r.Overlay, r.Visual.Animated())
		}
	}
}

func TestResolve_LiveModesCarryAlternate(t *testing.T) {
	sys := Resolve(Input{Stored: "system", Scheme: Dark, Now: at(12)})
	if sys.Live != LiveSystem {
		t.Fatalf("live = %v, want LiveSystem", sys.Live)
	}
	if sys.Alternate == nil || sys.Alternate.BackgroundColor != "#ffffff" {
		t.Fatalf("alternate = %+v, want light tokens", sys.Alternate)
	}
	if sys.Visual.BackgroundColor != "#000000" {
		t.Errorf("visual background = %q, want dark #000000", sys.Visual.BackgroundColor)
	}

	smart := Resolve(Input{Stored: "smart", Now: at(10)})
	if smart.Live != LiveSmart || smart.Name != "light" {
		t.Fatalf("smart = %v/%q, want LiveSmart/light", smart.Live, smart.Name)
	}
	if smart.Alternate == nil || smart.Alternate.BackgroundColor != "#000000" {
		t.Errorf("alternate = %+v, want dark tokens", smart.Alternate)
	}
}

func TestResolve_MobileUnstableShowsNotice(t *testing.T) {
	r := Resolve(Input{Stored: "vijay_mobile_unstable", Now: at(12)})
	if !r.Beta {
		t.Error("Beta = false, want true")
	}
	if r.Visual.AccentColor != Assets["vijay"].AccentColor {
		t.Errorf("accent = %q, want vijay's", r.Visual.AccentColor)
	}
	if Resolve(Input{Stored: "vijay", Now: at(12)}).Beta {
		t.Error("plain vijay should not show the notice")
	}
}

func TestResolve_CustomBackground(t *testing.T) {
	r := Resolve(Input{Stored: "custom", MobileBackground: "https://img.example.com/bg.jpg", Device: Mobile})
	if r.Visual.BackgroundImage != `url("https://img.example.com/bg.jpg")` {
		t.Errorf("background = %q", r.Visual.BackgroundImage)
	}

	r = Resolve(Input{Stored: "custom", MobileBackground: "https://img.example.com/m.jpg", BackgroundImage: "https://img.example.com/d.jpg", Device: Desktop})
	if r.Visual.BackgroundImage != `url("https://img.example.com/m.jpg")` {
		t.Errorf("desktop background = %q, want the mobile URL", r.Visual.BackgroundImage)
	}

	r = Resolve(Input{Stored: "custom", BackgroundImage: "https://img.example.com/d.jpg", Device: Desktop})
	if r.Visual.BackgroundImage != `url("https://img.example.com/d.jpg")` {
		t.Errorf("fallback background = %q", r.Visual.BackgroundImage)
	}

	r = Resolve(Input{Stored: "custom", MobileBackground: "javascript:alert(1)"})
	if r.Visual.BackgroundImage != "none" {
		t.Errorf("unsafe background = %q, want none", r.Visual.BackgroundImage)
	}

	r = Resolve(Input{Stored: "custom", MobileBackground: `https://img.example.com/a.jpg?x="</style>`})
	if strings.Contains(r.Visual.BackgroundImage, "</style>") || strings.Count(r.Visual.BackgroundImage, `"`) != 2 {
		t.Errorf("background not escaped: %q", r.Visual.BackgroundImage)
	}

	r = Resolve(Input{Stored: "valentine", MobileBackground: "https://img.example.com/bg.jpg"})
	if strings.Contains(r.Visual.BackgroundImage, "img.example.com") {
		t.Error("only the custom theme takes the owner background")
	}
}

func TestResolve_PaletteAppliesToPlainThemes(t *testing.T) {
	p := Palette{Primary: "#ff0080", Background: "#1a1a2e", Text: DefaultText, Font: "Inter", ButtonStyle: "pill"}

	r := Resolve(Input{Stored: "light", Palette: p})
	if r.Visual.BackgroundColor != "#1a1a2e" {
		t.Errorf("background = %q, want #1a1a2e", r.Visual.BackgroundColor)
	}
	if r.Visual.TextColor != Assets["light"].TextColor {
		t.Errorf("default text color should keep the table value, got %q", r.Visual.TextColor)
	}
	if r.Visual.AccentColor != "#ff0080" || r.Visual.FontFamily != "'Inter', sans-serif" {
		t.Errorf("accent/font = %q/%q", r.Visual.AccentColor, r.Visual.FontFamily)
	}
	if r.Visual.ButtonRadius != "9999px" {
		t.Errorf("radius = %q, want 9999px", r.Visual.ButtonRadius)
	}

	neon := Resolve(Input{Stored: "neon", Palette: p})
	if neon.Visual.BackgroundColor != "#000000" || neon.Visual.AccentColor != "#22d3ee" {
		t.Error("visual themes must ignore the owner palette")
	}

	bad := Resolve(Input{Stored: "light", Palette: Palette{Font: "x;}</style>"}})
	if bad.Visual.FontFamily != Assets["light"].FontFamily {
		t.Errorf("font = %q, want table font", bad.Visual.FontFamily)
	}
}

func TestResolve_DefaultsFilled(t *testing.T) {
	for _, id := range Identifiers() {
		v := Resolve(Input{Stored: id, Now: at(12)}).Visual
		if v.BackgroundImage == "" || v.BackgroundSize == "" || v.ButtonHoverBackground == "" || v.ButtonRadius == "" {
			t.Errorf("%s: missing defaults in %+v", id, v)
		}
	}
}

func TestKnown(t *testing.T) {
	for _, id := range Identifiers() {
		if !Known(id) {
			t.Errorf("Known(%q) = false", id)
		}
		if !Known(id + MobileUnstableSuffix) {
			t.Errorf("Known(%q) = false", id+MobileUnstableSuffix)
		}
	}
	for _, id := range []string{"", "sepia", "mobile_unstable", "light_mobile"} {
		if Known(id) {
			t.Errorf("Known(%q) = true", id)
		}
	}
}

func TestCSS(t *testing.T) {
	css := Resolve(Input{Stored: "valentine"}).CSS()
	if !strings.HasPrefix(css, ":root{") || !strings.Contains(css, "--lg-accent:#f43f5e;") {
		t.Errorf("css = %q", css)
	}

	sys := Resolve(Input{Stored: "system"}).CSS()
	if !strings.Contains(sys, "@media (prefers-color-scheme: dark){:root{--lg-bg-image:none;--lg-bg-color:#000000;") {
		t.Errorf("system css missing dark media block: %q", sys)
	}

	smart := Resolve(Input{Stored: "smart", Now: at(21)}).CSS()
	if !strings.Contains(smart, `:root[data-scheme="light"]{`) || !strings.Contains(smart, `:root[data-scheme="dark"]{`) {
		t.Errorf("smart css missing scheme selectors: %q", smart)
	}
}

func TestColorFor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "hsl(0, 70%, 50%)"},
		{"a", "hsl(97, 70%, 50%)"},
		{"bob", "hsl(157, 70%, 50%)"},
		{"johndoe", "hsl(271, 70%, 50%)"},
		{"alice_end", "hsl(260, 70%, 50%)"},
		{"zzzzzzzzzzzzzzzzzzzzz", "hsl(-158, 70%, 50%)"},
	}
	for _, tt := range tests {
		if got := ColorFor(tt.in); got != tt.want {
			t.Errorf("ColorFor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if ColorFor("bob") != ColorFor("bob") {
		t.Error("ColorFor not deterministic")
	}
}

func TestInitial(t *testing.T) {
	tests := []struct {
		display, username, want string
	}{
		{"alice Smith", "alice", "A"},
		{"", "bob", "B"},
		{"  ", "élan", "É"},
		{"", "", "?"},
	}
	for _, tt := range tests {
		if got := Initial(tt.display, tt.username); got != tt.want {
			t.Errorf("Initial(%q, %q) = %q, want %q", tt.display, tt.username, got, tt.want)
		}
	}
}

func TestAvatarBackground(t *testing.T) {
	got := AvatarBackground("bob", "")
	want := "linear-gradient(135deg, hsl(157, 70%, 50%), " + ColorFor("bob_end") + ")"
	if got != want {
		t.Errorf("AvatarBackground = %q, want %q", got, want)
	}
	if got := AvatarBackground("bob", "#f43f5e"); !strings.HasSuffix(got, "#f43f5e)") {
		t.Errorf("AvatarBackground with accent = %q", got)
	}
}
