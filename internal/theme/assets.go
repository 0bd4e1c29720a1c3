package theme

// Visual is the concrete token set a public page is painted with.
type Visual struct {
	BackgroundImage       string
	BackgroundColor       string
	OverlayColor          string
	FontFamily            string
	AccentColor           string
	TextColor             string
	SecondaryColor        string
	ButtonBackground      string
	ButtonBorder          string
	ButtonText            string
	ButtonHoverBackground string
	BackgroundSize        string
	BackgroundPosition    string
	BackgroundRepeat      string
	BackgroundAttachment  string
	ButtonRadius          string

	// Decoration names the animated title/link style for the theme, if any.
	Decoration string
}

// Animated reports whether the theme carries keyframe animations.
func (v Visual) Animated() bool {
	return v.Decoration != ""
}

const jakarta = "'Plus Jakarta Sans', sans-serif"

// Assets maps every paintable theme identifier to its tokens.
var Assets = map[string]Visual{
	"light": {
		BackgroundImage:       "none",
		BackgroundColor:       "#ffffff",
		OverlayColor:          "rgba(255, 255, 255, 0)",
		FontFamily:            jakarta,
		AccentColor:           "#1f2937",
		TextColor:             "#111827",
		SecondaryColor:        "#4b5563",
		ButtonBackground:      "#f3f4f6",
		ButtonBorder:          "#e5e7eb",
		ButtonText:            "#111827",
		ButtonHoverBackground: "#f9fafb",
	},
	"dark": {
		BackgroundImage:  "none",
		BackgroundColor:  "#000000",
		OverlayColor:     "rgba(0, 0, 0, 0.5)",
		FontFamily:       jakarta,
		AccentColor:      "#f9fafb",
		TextColor:        "#f9fafb",
		SecondaryColor:   "#9ca3af",
		ButtonBackground: "rgba(17, 24, 39, 0.8)",
		ButtonBorder:     "#374151",
		ButtonText:       "#f9fafb",
	},
	"valentine": {
		BackgroundImage:  "linear-gradient(135deg, #f43f5e33 0%, #ec489933 100%)",
		BackgroundColor:  "#fda4af",
		OverlayColor:     "rgba(255, 255, 255, 0.1)",
		FontFamily:       jakarta,
		AccentColor:      "#f43f5e",
		TextColor:        "#fff1f2",
		SecondaryColor:   "#ffe4e6",
		ButtonBackground: "rgba(255, 255, 255, 0.2)",
		ButtonBorder:     "#fecdd3",
		ButtonText:       "#fff1f2",
		Decoration:       "valentine",
	},
	"neon": {
		BackgroundImage:  "linear-gradient(to bottom, #000000, #0a0a0a)",
		BackgroundColor:  "#000000",
		OverlayColor:     "rgba(6, 182, 212, 0.1)",
		FontFamily:       "'Orbitron', sans-serif",
		AccentColor:      "#22d3ee",
		TextColor:        "#22d3ee",
		SecondaryColor:   "#67e8f9",
		ButtonBackground: "rgba(0, 0, 0, 0.7)",
		ButtonBorder:     "#22d3ee",
		ButtonText:       "#22d3ee",
		Decoration:       "neon",
	},
	"metal": {
		BackgroundImage:  "linear-gradient(135deg, #334155 0%, #1e293b 100%)",
		BackgroundColor:  "#334155",
		OverlayColor:     "rgba(0, 0, 0, 0.3)",
		FontFamily:       jakarta,
		AccentColor:      "#e2e8f0",
		TextColor:        "#f8fafc",
		SecondaryColor:   "#cbd5e1",
		ButtonBackground: "rgba(15, 23, 42, 0.8)",
		ButtonBorder:     "#475569",
		ButtonText:       "#f8fafc",
		Decoration:       "metal",
	},
	"cyberpunk": {
		BackgroundImage:       `url("https://i.pinimg.com/736x/72/fc/cc/72fccc4be2b895a4ef2c4969d1ac392f.jpg")`,
		BackgroundColor:       "#000000",
		OverlayColor:          "rgba(0, 0, 0, 0.5)",
		FontFamily:            "'Rajdhani', sans-serif",
		AccentColor:           "#fcee0a",
		TextColor:             "#fcee0a",
		SecondaryColor:        "#fef9c3",
		ButtonBackground:      "rgba(0, 0, 0, 0.7)",
		ButtonBorder:          "#fcee0a",
		ButtonText:            "#fcee0a",
		ButtonHoverBackground: "rgba(252, 238, 10, 0.1)",
		BackgroundSize:        "cover",
		BackgroundPosition:    "center",
		BackgroundRepeat:      "no-repeat",
		BackgroundAttachment:  "fixed",
		Decoration:            "cyberpunk",
	},
	"psychopath": {
		BackgroundImage:       "none",
		BackgroundColor:       "transparent",
		OverlayColor:          "transparent",
		FontFamily:            jakarta,
		AccentColor:           "#ffffff",
		TextColor:             "#ffffff",
		SecondaryColor:        "rgba(255, 255, 255, 0.9)",
		ButtonBackground:      "rgba(255, 255, 255, 0.1)",
		ButtonBorder:          "rgba(255, 255, 255, 0.2)",
		ButtonText:            "#ffffff",
		ButtonHoverBackground: "rgba(255, 255, 255, 0.2)",
		BackgroundSize:        "400% 400%",
		Decoration:            "psycho",
	},
	"ajith": {
		BackgroundImage:  `url("https://w0.peakpx.com/wallpaper/600/432/HD-wallpaper-thala-ajith-billa-movie-sidelook-actor-ajith-kumar.jpg")`,
		BackgroundColor:  "#000000",
		OverlayColor:     "rgba(0, 0, 0, 0.4)",
		FontFamily:       jakarta,
		AccentColor:      "#3b82f6",
		TextColor:        "#ffffff",
		SecondaryColor:   "#93c5fd",
		ButtonBackground: "rgba(0, 0, 0, 0.6)",
		ButtonBorder:     "#3b82f6",
		ButtonText:       "#ffffff",
	},
	"vijay": {
		BackgroundImage:  `url("https://i.pinimg.com/736x/8d/01/e8/8d01e8307ee0066b0425a90706de1a5f.jpg")`,
		BackgroundColor:  "#000000",
		OverlayColor:     "rgba(0, 0, 0, 0.4)",
		FontFamily:       jakarta,
		AccentColor:      "#eab308",
		TextColor:        "#ffffff",
		SecondaryColor:   "#fde047",
		ButtonBackground: "rgba(0, 0, 0, 0.6)",
		ButtonBorder:     "#eab308",
		ButtonText:       "#ffffff",
	},
	"custom": {
		BackgroundImage:       "none",
		BackgroundColor:       "#ffffff",
		OverlayColor:          "rgba(0, 0, 0, 0.3)",
		FontFamily:            jakarta,
		AccentColor:           "#ffffff",
		TextColor:             "#ffffff",
		SecondaryColor:        "#e5e7eb",
		ButtonBackground:      "rgba(255, 255, 255, 0.1)",
		ButtonBorder:          "rgba(255, 255, 255, 0.2)",
		ButtonText:            "#ffffff",
		ButtonHoverBackground: "rgba(255, 255, 255, 0.2)",
		BackgroundSize:        "cover",
		BackgroundPosition:    "center",
		BackgroundRepeat:      "no-repeat",
		BackgroundAttachment:  "fixed",
	},
}

// withDefaults fills the layout tokens the table leaves open.
func (v Visual) withDefaults() Visual {
	if v.BackgroundImage == "" {
		v.BackgroundImage = "none"
	}
	if v.BackgroundSize == "" {
		v.BackgroundSize = "cover"
	}
	if v.BackgroundPosition == "" {
		v.BackgroundPosition = "center"
	}
	if v.BackgroundRepeat == "" {
		v.BackgroundRepeat = "no-repeat"
	}
	if v.BackgroundAttachment == "" {
		v.BackgroundAttachment = "fixed"
	}
	if v.ButtonHoverBackground == "" {
		v.ButtonHoverBackground = v.ButtonBackground
	}
	if v.ButtonRadius == "" {
		v.ButtonRadius = buttonRadius[DefaultButtonStyle]
	}
	return v
}
