package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/linksgo/linksgo/internal/db"
	"github.com/linksgo/linksgo/internal/slug"
)

type Profile struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Bio         string    `json:"bio"`
	AvatarURL   string    `json:"avatar_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Name is what the public page shows as the heading.
func (p *Profile) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Username
}

// Identity is an account as reported by the OAuth provider.
type Identity struct {
	Provider  string
	Subject   string
	Email     string
	Name      string
	AvatarURL string
}

func (i Identity) key() string {
	return i.Provider + ":" + i.Subject
}

// ProfileUpdate carries the owner-editable fields; nil means unchanged.
type ProfileUpdate struct {
	Username    *string `json:"username"`
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	AvatarURL   *string `json:"avatar_url"`
}

const (
	usernameSuffixLen   = 4
	usernameAttempts    = 5
	usernameFallbackLen = 8
	provisionRounds     = 3

	maxDisplayNameLen = 100
	maxBioLen         = 500
)

// Usernames that would shadow application routes under /{username}.
var reservedUsernames = map[string]bool{
	"admin":       true,
	"api":         true,
	"auth":        true,
	"dashboard":   true,
	"favicon.ico": true,
	"go":          true,
	"healthz":     true,
	"login":       true,
	"logout":      true,
	"settings":    true,
	"signin":      true,
	"static":      true,
}

// IsReservedUsername reports whether name collides with an application route.
func IsReservedUsername(name string) bool {
	return reservedUsernames[name]
}

const profileColumns = `id, email, username, display_name, bio, avatar_url, created_at, updated_at`

// ProvisionProfile returns the profile for an OAuth identity, creating it on
// first sign-in. Retried or concurrent calls for the same identity converge on
// a single row.
func ProvisionProfile(ctx context.Context, d *db.DB, id Identity) (*Profile, error) {
	if id.Provider == "" || id.Subject == "" {
		return nil, invalid("identity", "identity is incomplete")
	}

	p, err := getProfileByIdentity(ctx, d, id.key())
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	base := slug.FromEmail(id.Email)
	for round := 0; round < provisionRounds; round++ {
		username, err := pickUsername(ctx, d, base)
		if err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		_, err = d.ExecContext(ctx, d.Rebind(
			`INSERT INTO profiles (id, identity, email, username, display_name, avatar_url, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (identity) DO NOTHING`),
			uuid.NewString(), id.key(), id.Email, username, truncateRunes(id.Name, maxDisplayNameLen), id.AvatarURL, now, now,
		)
		if err != nil {
			if db.IsUniqueViolation(err) {
				// a concurrent callback for this identity, or another
				// profile claiming the username between probe and insert
				if p, err := getProfileByIdentity(ctx, d, id.key()); err == nil {
					return p, nil
				}
				continue
			}
			return nil, fmt.Errorf("insert profile: %w", err)
		}
		return getProfileByIdentity(ctx, d, id.key())
	}
	return nil, fmt.Errorf("provision profile: no free username after %d rounds", provisionRounds)
}

func pickUsername(ctx context.Context, d *db.DB, base string) (string, error) {
	if base != "" && !reservedUsernames[base] {
		taken, err := UsernameTaken(ctx, d, base)
		if err != nil {
			return "", err
		}
		if !taken {
			return base, nil
		}
		for i := 0; i < usernameAttempts; i++ {
			suffix, err := slug.Random(usernameSuffixLen)
			if err != nil {
				return "", fmt.Errorf("random suffix: %w", err)
			}
			taken, err := UsernameTaken(ctx, d, base+suffix)
			if err != nil {
				return "", err
			}
			if !taken {
				return base + suffix, nil
			}
		}
	}
	suffix, err := slug.Random(usernameFallbackLen)
	if err != nil {
		return "", fmt.Errorf("random username: %w", err)
	}
	return "user" + suffix, nil
}

func UsernameTaken(ctx context.Context, d *db.DB, username string) (bool, error) {
	var count int
	err := d.QueryRowContext(ctx, d.Rebind(`SELECT COUNT(*) FROM profiles WHERE username = ?`), username).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("probe username: %w", err)
	}
	return count > 0, nil
}

func getProfileByIdentity(ctx context.Context, d *db.DB, identity string) (*Profile, error) {
	row := d.QueryRowContext(ctx, d.Rebind(`SELECT `+profileColumns+` FROM profiles WHERE identity = ?`), identity)
	return scanProfile(row)
}

func GetProfileByID(ctx context.Context, d *db.DB, id string) (*Profile, error) {
	row := d.QueryRowContext(ctx, d.Rebind(`SELECT `+profileColumns+` FROM profiles WHERE id = ?`), id)
	return scanProfile(row)
}

// GetProfileByUsername matches the lowercased name exactly.
func GetProfileByUsername(ctx context.Context, d *db.DB, username string) (*Profile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, ErrNotFound
	}
	row := d.QueryRowContext(ctx, d.Rebind(`SELECT `+profileColumns+` FROM profiles WHERE username = ?`), username)
	return scanProfile(row)
}

// UpdateProfile applies the non-nil fields of u and returns the new row.
func UpdateProfile(ctx context.Context, d *db.DB, id string, u ProfileUpdate) (*Profile, error) {
	var sets []string
	var args []any

	if u.Username != nil {
		name := strings.ToLower(strings.TrimSpace(*u.Username))
		if !slug.Valid(name) || reservedUsernames[name] {
			return nil, invalid("username", "username must be 2-32 characters of a-z, 0-9, _ or - and not a reserved word")
		}
		sets = append(sets, "username = ?")
		args = append(args, name)
	}
	if u.DisplayName != nil {
		name := strings.TrimSpace(*u.DisplayName)
		if len([]rune(name)) > maxDisplayNameLen {
			return nil, invalid("display_name", "display name is too long")
		}
		sets = append(sets, "display_name = ?")
		args = append(args, name)
	}
	if u.Bio != nil {
		bio := strings.TrimSpace(*u.Bio)
		if len([]rune(bio)) > maxBioLen {
			return nil, invalid("bio", "bio is too long")
		}
		sets = append(sets, "bio = ?")
		args = append(args, bio)
	}
	if u.AvatarURL != nil {
		avatar := strings.TrimSpace(*u.AvatarURL)
		if avatar != "" && !isHTTPURL(avatar) {
			return nil, invalid("avatar_url", "avatar url must be an http(s) URL")
		}
		sets = append(sets, "avatar_url = ?")
		args = append(args, avatar)
	}

	if len(sets) == 0 {
		return GetProfileByID(ctx, d, id)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)
	res, err := d.ExecContext(ctx, d.Rebind(`UPDATE profiles SET `+strings.Join(sets, ", ")+` WHERE id = ?`), args...)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, invalid("username", "username is taken")
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return GetProfileByID(ctx, d, id)
}

// DeleteProfile removes a profile; links, appearance and analytics cascade.
func DeleteProfile(ctx context.Context, d *db.DB, id string) error {
	res, err := d.ExecContext(ctx, d.Rebind(`DELETE FROM profiles WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProfile(row scanner) (*Profile, error) {
	p := &Profile{}
	err := row.Scan(&p.ID, &p.Email, &p.Username, &p.DisplayName, &p.Bio, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	return p, nil
}

func truncateRunes(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n])
}
