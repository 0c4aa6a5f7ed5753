// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"github.com/danielhkuo/quickly-survey/models"
)

var ErrInvalidHash = errors.New("invalid password hash format")

// Argon2id parameters
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// GenerateID creates a random UUID for database records
func GenerateID() string {
	return uuid.NewString()
}

// NewSubmissionToken mints an idempotency token for one submission attempt.
// Retries of the same attempt must reuse the token.
func NewSubmissionToken() string {
	return uuid.NewString()
}

// HashPassword hashes a survey password with argon2id.
// Format: $argon2id$v=19$m=65536,t=1,p=4$salt$hash
func HashPassword(password, pepper string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password+pepper), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash)), nil
}

// VerifyPassword checks password against an encoded argon2id hash in constant time
func VerifyPassword(password, pepper, encoded string) (bool, error) {
	p, salt, hash, err := parseHash(encoded)
	if err != nil {
		return false, err
	}

	other := argon2.IDKey([]byte(password+pepper), salt, p.time, p.memory, p.threads, uint32(len(hash)))
	return subtle.ConstantTimeCompare(hash, other) == 1, nil
}

type hashParams struct {
	memory  uint32
	time    uint32
	threads uint8
}

func parseHash(encoded string) (hashParams, []byte, []byte, error) {
	var p hashParams

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, fmt.Errorf("%w: unsupported version %q", ErrInvalidHash, parts[2])
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return p, nil, nil, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("%w: salt: %v", ErrInvalidHash, err)
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(hash) == 0 {
		return p, nil, nil, fmt.Errorf("%w: hash", ErrInvalidHash)
	}

	return p, salt, hash, nil
}

// VerifyAccess gates a respondent's read of a survey's questions.
// Public surveys always pass. Private surveys pass only when supplied
// verifies against the stored hash; a private survey with no stored hash
// never passes.
func VerifyAccess(s models.Survey, supplied, pepper string) error {
	if !s.IsPrivate {
		return nil
	}
	if s.PasswordHash == "" {
		return models.ErrWrongPassword
	}

	ok, err := VerifyPassword(supplied, pepper, s.PasswordHash)
	if err != nil {
		return fmt.Errorf("%w: stored hash unreadable: %v", models.ErrWrongPassword, err)
	}
	if !ok {
		return models.ErrWrongPassword
	}
	return nil
}

// RequireCreator allows only the survey's creator through
func RequireCreator(s models.Survey, userID string) error {
	if userID == "" || subtle.ConstantTimeCompare([]byte(s.CreatorID), []byte(userID)) != 1 {
		return models.ErrForbidden
	}
	return nil
}
