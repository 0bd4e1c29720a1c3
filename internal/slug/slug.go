// Package slug builds the URL-safe usernames that profiles are served under.
package slug

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
)

const charset = "abcdefghijklmnopqrstuvwxyz0123456789"

// MaxLen bounds usernames so /{username} stays short.
const MaxLen = 32

var maxIdx = big.NewInt(int64(len(charset)))

var validRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{1,31}$`)

// Random returns n random lowercase alphanumeric characters.
func Random(n int) (string, error) {
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, maxIdx)
		if err != nil {
			return "", err
		}
		b[i] = charset[idx.Int64()]
	}
	return string(b), nil
}

// Clean lowercases s and drops everything outside [a-z0-9].
func Clean(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) > MaxLen-5 {
		out = out[:MaxLen-5]
	}
	return out
}

// FromEmail derives a base username from the local part of an email address.
func FromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return Clean(local)
}

// Valid reports whether s is an acceptable username as typed by an owner.
func Valid(s string) bool {
	return validRe.MatchString(s)
}
