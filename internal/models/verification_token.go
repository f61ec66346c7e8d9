package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

type VerificationToken struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Token     string    `json:"-"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"created_at"`
}

// NewVerificationToken issues an unused token for userID with 32 random bytes, hex encoded.
func NewVerificationToken(userID uuid.UUID, now time.Time) (*VerificationToken, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}

	return &VerificationToken{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     hex.EncodeToString(b),
		CreatedAt: now,
	}, nil
}

func (t *VerificationToken) ExpiresAt(ttl time.Duration) time.Time {
	return t.CreatedAt.Add(ttl)
}

// IsExpired reports whether now is strictly past CreatedAt+ttl.
func (t *VerificationToken) IsExpired(now time.Time, ttl time.Duration) bool {
	return now.After(t.ExpiresAt(ttl))
}

// IsActive reports whether the token is unused and unexpired.
func (t *VerificationToken) IsActive(now time.Time, ttl time.Duration) bool {
	return !t.Used && !t.IsExpired(now, ttl)
}
