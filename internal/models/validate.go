package models

import (
	"net/url"
	"regexp"
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func isHexColor(s string) bool {
	return hexColorRe.MatchString(s)
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
