package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVerificationToken(t *testing.T) {
	owner := uuid.New()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	a, err := NewVerificationToken(owner, now)
	require.NoError(t, err)
	b, err := NewVerificationToken(owner, now)
	require.NoError(t, err)

	assert.Len(t, a.Token, 64)
	assert.NotEqual(t, a.Token, b.Token)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, owner, a.UserID)
	assert.False(t, a.Used)
	assert.Equal(t, now, a.CreatedAt)
}

func TestVerificationTokenExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tok, err := NewVerificationToken(uuid.New(), now)
	require.NoError(t, err)
	ttl := 10 * time.Minute

	assert.Equal(t, now.Add(ttl), tok.ExpiresAt(ttl))
	assert.False(t, tok.IsExpired(now.Add(ttl), ttl))
	assert.True(t, tok.IsExpired(now.Add(ttl+time.Nanosecond), ttl))

	assert.True(t, tok.IsActive(now, ttl))
	tok.Used = true
	assert.False(t, tok.IsActive(now, ttl))
}

func TestUserJSONHidesSecrets(t *testing.T) {
	u := &User{ID: uuid.New(), Email: "a@x.com", PasswordHash: "secret"}
	u.MarkVerified()
	u.TouchEmailSent(time.Now())

	raw, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
	assert.True(t, u.IsVerified)

	tok := &VerificationToken{Token: "abcdef"}
	raw, err = json.Marshal(tok)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "abcdef")

	pub := u.ToPublic()
	assert.Equal(t, u.Email, pub.Email)
	assert.True(t, pub.IsVerified)
}
