package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestProvisionProfile_UsesEmailLocalPart(t *testing.T) {
	d := testDB(t)
	p, err := ProvisionProfile(context.Background(), d, Identity{
		Provider: "google", Subject: "1", Email: "Alice.Smith+x@example.com", Name: "Alice Smith",
	})
	if err != nil {
		t.Fatal(err)
	}
	if p.Username != "alicesmithx" {
		t.Errorf("Username = %q, want alicesmithx", p.Username)
	}
	if p.DisplayName != "Alice Smith" || p.Email != "Alice.Smith+x@example.com" {
		t.Errorf("profile = %+v", p)
	}
	if p.ID == "" {
		t.Error("ID is empty")
	}
}

func TestProvisionProfile_IdempotentForSameIdentity(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	id := Identity{Provider: "google", Subject: "42", Email: "alice@example.com"}

	first, err := ProvisionProfile(ctx, d, id)
	if err != nil {
		t.Fatal(err)
	}
	second, err := ProvisionProfile(ctx, d, id)
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID || second.Username != "alice" {
		t.Errorf("second = %+v, want same profile as %+v", second, first)
	}

	var count int
	if err := d.QueryRow(`SELECT COUNT(*) FROM profiles`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("profiles = %d, want 1", count)
	}
}

func TestProvisionProfile_ConcurrentSameIdentity(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	id := Identity{Provider: "google", Subject: "7", Email: "carol@example.com"}

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := ProvisionProfile(ctx, d, id)
			if err != nil {
				t.Errorf("ProvisionProfile: %v", err)
				return
			}
			ids[i] = p.ID
		}(i)
	}
	wg.Wait()

	for i, got := range ids {
		if got != ids[0] {
			t.Errorf("ids[%d] = %q, want %q", i, got, ids[0])
		}
	}
}

func TestProvisionProfile_CollidingLocalPartsGetDistinctUsernames(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	names := make([]string, 6)
	for i := range names {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := ProvisionProfile(ctx, d, Identity{
				Provider: "google",
				Subject:  fmt.Sprintf("alice-%d", i),
				Email:    fmt.Sprintf("alice@mail%d.example.com", i),
			})
			if err != nil {
				t.Errorf("ProvisionProfile: %v", err)
				return
			}
			names[i] = p.Username
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	plain := 0
	for _, n := range names {
		if seen[n] {
			t.Errorf("username %q assigned twice", n)
		}
		seen[n] = true
		if n == "alice" {
			plain++
		} else if !strings.HasPrefix(n, "alice") && !strings.HasPrefix(n, "user") {
			t.Errorf("username = %q, want alice-prefixed or random fallback", n)
		}
	}
	if plain != 1 {
		t.Errorf("profiles named alice = %d, want 1", plain)
	}
}

func TestProvisionProfile_ReservedOrEmptyBase(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	for i, email := range []string{"api@example.com", "...@example.com", ""} {
		p, err := ProvisionProfile(ctx, d, Identity{Provider: "google", Subject: fmt.Sprint(i), Email: email})
		if err != nil {
			t.Fatal(err)
		}
		if IsReservedUsername(p.Username) || p.Username == "" {
			t.Errorf("email %q got username %q", email, p.Username)
		}
	}

	if _, err := ProvisionProfile(ctx, d, Identity{Email: "x@example.com"}); !IsValidation(err) {
		t.Errorf("incomplete identity err = %v, want ValidationError", err)
	}
}

func TestGetProfileByUsername_CaseInsensitive(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	p := testProfile(t, d, "alice@example.com")

	got, err := GetProfileByUsername(ctx, d, "  ALICE ")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != p.ID {
		t.Errorf("ID = %q, want %q", got.ID, p.ID)
	}
	if _, err := GetProfileByUsername(ctx, d, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	alice := testProfile(t, d, "alice@example.com")
	testProfile(t, d, "bob@example.com")

	got, err := UpdateProfile(ctx, d, alice.ID, ProfileUpdate{
		Username:    strPtr("Alice_2"),
		DisplayName: strPtr(" Alice "),
		Bio:         strPtr("hello"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Username != "alice_2" || got.DisplayName != "Alice" || got.Bio != "hello" {
		t.Errorf("profile = %+v", got)
	}

	tests := []struct {
		name  string
		u     ProfileUpdate
		field string
	}{
		{"taken", ProfileUpdate{Username: strPtr("bob")}, "username"},
		{"reserved", ProfileUpdate{Username: strPtr("dashboard")}, "username"},
		{"bad chars", ProfileUpdate{Username: strPtr("a b")}, "username"},
		{"long bio", ProfileUpdate{Bio: strPtr(strings.Repeat("x", 501))}, "bio"},
		{"avatar scheme", ProfileUpdate{AvatarURL: strPtr("ftp://x.example.com/a.png")}, "avatar_url"},
	}
	for _, tt := range tests {
		_, err := UpdateProfile(ctx, d, alice.ID, tt.u)
		var ve *ValidationError
		if !errors.As(err, &ve) || ve.Field != tt.field {
			t.Errorf("%s: err = %v, want ValidationError on %s", tt.name, err, tt.field)
		}
	}

	if _, err := UpdateProfile(ctx, d, "missing", ProfileUpdate{Bio: strPtr("x")}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing profile err = %v, want ErrNotFound", err)
	}
}

func TestDeleteProfile_Cascades(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()
	p := testProfile(t, d, "alice@example.com")
	mustCreateLink(t, d, p.ID, "a")
	if _, err := EnsureAppearance(ctx, d, p.ID); err != nil {
		t.Fatal(err)
	}

	if err := DeleteProfile(ctx, d, p.ID); err != nil {
		t.Fatal(err)
	}
	for _, table := range []string{"links", "appearance_settings"} {
		var n int
		if err := d.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
			t.Fatal(err)
		}
		if n != 0 {
			t.Errorf("%s rows = %d, want 0", table, n)
		}
	}
	if err := DeleteProfile(ctx, d, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}
