package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhanserikAmangeldi/apex-be/auth-service/internal/models"
)

func newUser(email string) *models.User {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return &models.User{ID: uuid.New(), Email: email, PasswordHash: "hash", CreatedAt: now, UpdatedAt: now}
}

func TestMemoryStoreCommitAndRollback(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	u := newUser("a@x.com")

	err := store.WithinTx(ctx, func(ctx context.Context, repos Repos) error {
		return repos.Users.Save(ctx, u)
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.WithinTx(ctx, func(ctx context.Context, repos Repos) error {
		require.NoError(t, repos.Users.Save(ctx, newUser("b@x.com")))
		tok, err := models.NewVerificationToken(u.ID, u.CreatedAt)
		require.NoError(t, err)
		require.NoError(t, repos.Tokens.Save(ctx, tok))
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = store.WithinTx(ctx, func(ctx context.Context, repos Repos) error {
		exists, err := repos.Users.ExistsByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repos.Users.ExistsByEmail(ctx, "b@x.com")
		require.NoError(t, err)
		assert.False(t, exists, "rolled back user must not be visible")

		_, err = repos.Tokens.FindByUser(ctx, u.ID)
		assert.ErrorIs(t, err, ErrTokenNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStoreUsers(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	err := store.WithinTx(ctx, func(ctx context.Context, repos Repos) error {
		u := newUser("a@x.com")
		require.NoError(t, repos.Users.Save(ctx, u))

		_, err := repos.Users.FindByEmail(ctx, "A@x.com")
		assert.ErrorIs(t, err, ErrUserNotFound, "email lookup is case-sensitive")

		dup := newUser("a@x.com")
		assert.ErrorIs(t, repos.Users.Save(ctx, dup), ErrUserAlreadyExists)

		found, err := repos.Users.FindByID(ctx, u.ID)
		require.NoError(t, err)
		found.IsVerified = true
		require.NoError(t, repos.Users.Save(ctx, found))

		found.IsVerified = false
		require.NoError(t, repos.Users.Save(ctx, found))

		again, err := repos.Users.FindByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		assert.True(t, again.IsVerified, "verified flag never reverts")
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStoreTokens(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	owner := uuid.New()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	err := store.WithinTx(ctx, func(ctx context.Context, repos Repos) error {
		older, err := models.NewVerificationToken(owner, base)
		require.NoError(t, err)
		newer, err := models.NewVerificationToken(owner, base.Add(time.Minute))
		require.NoError(t, err)
		require.NoError(t, repos.Tokens.Save(ctx, older))
		require.NoError(t, repos.Tokens.Save(ctx, newer))

		latest, err := repos.Tokens.FindByUser(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, newer.Token, latest.Token)

		newer.Used = true
		require.NoError(t, repos.Tokens.Save(ctx, newer))
		latest, err = repos.Tokens.FindByUser(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, older.Token, latest.Token, "used tokens are skipped")

		byToken, err := repos.Tokens.FindByToken(ctx, newer.Token)
		require.NoError(t, err)
		assert.True(t, byToken.Used)

		n, err := repos.Tokens.DeleteStale(ctx, base.Add(30*time.Second))
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		require.NoError(t, repos.Tokens.DeleteByUser(ctx, owner))
		_, err = repos.Tokens.FindByToken(ctx, newer.Token)
		assert.ErrorIs(t, err, ErrTokenNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStoreSerializesTransactions(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	u := newUser("a@x.com")
	require.NoError(t, store.WithinTx(ctx, func(ctx context.Context, repos Repos) error {
		return repos.Users.Save(ctx, u)
	}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.WithinTx(ctx, func(ctx context.Context, repos Repos) error {
				if prev, err := repos.Tokens.FindByUser(ctx, u.ID); err == nil {
					prev.Used = true
					if err := repos.Tokens.Save(ctx, prev); err != nil {
						return err
					}
				}
				tok, err := models.NewVerificationToken(u.ID, time.Now())
				if err != nil {
					return err
				}
				return repos.Tokens.Save(ctx, tok)
			})
		}()
	}
	wg.Wait()

	require.NoError(t, store.WithinTx(ctx, func(ctx context.Context, repos Repos) error {
		active := 0
		for _, tok := range repos.Tokens.(*memTokens).st.tokens {
			if !tok.Used {
				active++
			}
		}
		assert.Equal(t, 1, active, "exactly one unused token after concurrent supersedes")
		return nil
	}))
}

func TestMemoryStoreCancelledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := store.WithinTx(ctx, func(ctx context.Context, repos Repos) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
