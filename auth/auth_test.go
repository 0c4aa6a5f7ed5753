// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/danielhkuo/quickly-survey/models"
)

const testPepper = "test-pepper"

func TestGenerateID(t *testing.T) {
	id1 := GenerateID()
	id2 := GenerateID()
	if len(id1) != 36 {
		t.Errorf("GenerateID() length = %d, want 36", len(id1))
	}
	if id1 == id2 {
		t.Error("GenerateID() produced duplicate IDs (extremely unlikely)")
	}
	if NewSubmissionToken() == NewSubmissionToken() {
		t.Error("NewSubmissionToken() produced duplicate tokens")
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("secret", testPepper)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=1,p=4$") {
		t.Errorf("HashPassword() = %q, unexpected format", hash)
	}
	if strings.Contains(hash, "secret") {
		t.Error("HashPassword() leaked the password")
	}

	// Salted: same password hashes differently
	hash2, _ := HashPassword("secret", testPepper)
	if hash == hash2 {
		t.Error("HashPassword() is not salted")
	}
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("secret", testPepper)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	tests := []struct {
		name     string
		password string
		pepper   string
		want     bool
	}{
		{"correct", "secret", testPepper, true},
		{"wrong password", "Secret", testPepper, false},
		{"empty password", "", testPepper, false},
		{"wrong pepper", "secret", "other", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := VerifyPassword(tt.password, tt.pepper, hash)
			if err != nil {
				t.Fatalf("VerifyPassword() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("VerifyPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVerifyPasswordRejectsMalformed(t *testing.T) {
	tests := []string{
		"",
		"secret",
		"$bcrypt$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA",
		"$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$",
	}

	for _, encoded := range tests {
		if _, err := VerifyPassword("x", testPepper, encoded); !errors.Is(err, ErrInvalidHash) {
			t.Errorf("VerifyPassword(%q) error = %v, want ErrInvalidHash", encoded, err)
		}
	}
}

func TestVerifyAccess(t *testing.T) {
	hash, err := HashPassword("x", testPepper)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	private := models.Survey{ID: "s1", IsPrivate: true, PasswordHash: hash}
	public := models.Survey{ID: "s2"}

	tests := []struct {
		name     string
		survey   models.Survey
		supplied string
		wantErr  error
	}{
		{"private correct password", private, "x", nil},
		{"private wrong password", private, "y", models.ErrWrongPassword},
		{"private empty password", private, "", models.ErrWrongPassword},
		{"public empty password", public, "", nil},
		{"public any password", public, "whatever", nil},
		{"private without stored hash", models.Survey{IsPrivate: true}, "", models.ErrWrongPassword},
		{"private with corrupt hash", models.Survey{IsPrivate: true, PasswordHash: "x"}, "x", models.ErrWrongPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyAccess(tt.survey, tt.supplied, testPepper)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("VerifyAccess() = %v, want grant", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("VerifyAccess() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequireCreator(t *testing.T) {
	s := models.Survey{ID: "s1", CreatorID: "alice"}

	if err := RequireCreator(s, "alice"); err != nil {
		t.Errorf("RequireCreator(creator) = %v", err)
	}
	for _, user := range []string{"bob", "", "alice "} {
		if err := RequireCreator(s, user); !errors.Is(err, models.ErrForbidden) {
			t.Errorf("RequireCreator(%q) = %v, want ErrForbidden", user, err)
		}
	}
}
