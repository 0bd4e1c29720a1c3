package theme

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf16"
)

// ColorFor derives a stable hsl() color from s. The hash walks UTF-16 code
// units with 32-bit shifts, so browsers computing the same hash agree.
func ColorFor(s string) string {
	if s == "" {
		return "hsl(0, 70%, 50%)"
	}
	var hash int64
	for _, c := range utf16.Encode([]rune(s)) {
		shifted := int64(int32(uint32(int32(hash)) << 5))
		hash = int64(c) + shifted - hash
	}
	return fmt.Sprintf("hsl(%d, 70%%, 50%%)", hash%360)
}

// AvatarBackground is the gradient shown when a profile has no avatar image.
func AvatarBackground(username, accent string) string {
	end := accent
	if end == "" {
		end = ColorFor(username + "_end")
	}
	return "linear-gradient(135deg, " + ColorFor(username) + ", " + end + ")"
}

// Initial is the uppercased first letter of the display name or username.
func Initial(displayName, username string) string {
	for _, s := range []string{displayName, username} {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		for _, r := range s {
			return string(unicode.ToUpper(r))
		}
	}
	return "?"
}
