package theme

import "strings"

// CSS renders the custom properties the profile stylesheet reads. System
// themes defer to prefers-color-scheme; smart themes switch on the
// data-scheme attribute the page script keeps current.
func (r Resolved) CSS() string {
	var b strings.Builder
	switch r.Live {
	case LiveSystem:
		light, dark := r.pair()
		writeVars(&b, ":root", light)
		b.WriteString("@media (prefers-color-scheme: dark){")
		writeVars(&b, ":root", dark)
		b.WriteString("}")
	case LiveSmart:
		light, dark := r.pair()
		writeVars(&b, ":root", r.Visual)
		writeVars(&b, `:root[data-scheme="light"]`, light)
		writeVars(&b, `:root[data-scheme="dark"]`, dark)
	default:
		writeVars(&b, ":root", r.Visual)
	}
	return b.String()
}

func (r Resolved) pair() (light, dark Visual) {
	if r.Alternate == nil {
		return r.Visual, r.Visual
	}
	if r.Name == string(Dark) {
		return *r.Alternate, r.Visual
	}
	return r.Visual, *r.Alternate
}

func writeVars(b *strings.Builder, selector string, v Visual) {
	b.WriteString(selector)
	b.WriteString("{")
	for _, kv := range [][2]string{
		{"--lg-bg-image", v.BackgroundImage},
		{"--lg-bg-color", v.BackgroundColor},
		{"--lg-bg-size", v.BackgroundSize},
		{"--lg-bg-position", v.BackgroundPosition},
		{"--lg-bg-repeat", v.BackgroundRepeat},
		{"--lg-bg-attachment", v.BackgroundAttachment},
		{"--lg-overlay", v.OverlayColor},
		{"--lg-font", v.FontFamily},
		{"--lg-accent", v.AccentColor},
		{"--lg-text", v.TextColor},
		{"--lg-secondary", v.SecondaryColor},
		{"--lg-btn-bg", v.ButtonBackground},
		{"--lg-btn-border", v.ButtonBorder},
		{"--lg-btn-text", v.ButtonText},
		{"--lg-btn-hover", v.ButtonHoverBackground},
		{"--lg-btn-radius", v.ButtonRadius},
	} {
		b.WriteString(kv[0])
		b.WriteString(":")
		b.WriteString(kv[1])
		b.WriteString(";")
	}
	b.WriteString("}")
}
