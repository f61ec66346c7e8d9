package repository

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhanserikAmangeldi/apex-be/auth-service/internal/models"
)

// MemoryStore keeps users and tokens in process. Transactions are serialized and work on
// a private copy of the data that replaces the committed state only on success.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState
}

type memState struct {
	users  map[uuid.UUID]models.User
	tokens map[uuid.UUID]models.VerificationToken
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: &memState{
			users:  make(map[uuid.UUID]models.User),
			tokens: make(map[uuid.UUID]models.VerificationToken),
		},
	}
}

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := &memState{
		users:  maps.Clone(s.state.users),
		tokens: maps.Clone(s.state.tokens),
	}

	if err := fn(ctx, Repos{Users: &memUsers{work}, Tokens: &memTokens{work}}); err != nil {
		return err
	}

	s.state = work
	return nil
}

type memUsers struct {
	st *memState
}

func (r *memUsers) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, ok := r.byEmail(email)
	return ok, nil
}

func (r *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := r.byEmail(email)
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (r *memUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := r.st.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (r *memUsers) Save(_ context.Context, user *models.User) error {
	if other, ok := r.byEmail(user.Email); ok && other.ID != user.ID {
		return ErrUserAlreadyExists
	}

	stored := *user
	if prev, ok := r.st.users[user.ID]; ok && prev.IsVerified {
		stored.IsVerified = true
	}
	if stored.LastEmailSentAt != nil {
		at := *stored.LastEmailSentAt
		stored.LastEmailSentAt = &at
	}
	r.st.users[user.ID] = stored
	return nil
}

func (r *memUsers) byEmail(email string) (models.User, bool) {
	for _, u := range r.st.users {
		if u.Email == email {
			return u, true
		}
	}
	return models.User{}, false
}

type memTokens struct {
	st *memState
}

func (r *memTokens) FindByToken(_ context.Context, token string) (*models.VerificationToken, error) {
	for _, t := range r.st.tokens {
		if t.Token == token {
			return &t, nil
		}
	}
	return nil, ErrTokenNotFound
}

func (r *memTokens) FindByUser(_ context.Context, userID uuid.UUID) (*models.VerificationToken, error) {
	var unused []models.VerificationToken
	for _, t := range r.st.tokens {
		if t.UserID == userID && !t.Used {
			unused = append(unused, t)
		}
	}
	if len(unused) == 0 {
		return nil, ErrTokenNotFound
	}

	sort.Slice(unused, func(i, j int) bool {
		return unused[i].CreatedAt.After(unused[j].CreatedAt)
	})
	return &unused[0], nil
}

func (r *memTokens) Save(_ context.Context, t *models.VerificationToken) error {
	stored := *t
	if prev, ok := r.st.tokens[t.ID]; ok && prev.Used {
		stored.Used = true
	}
	r.st.tokens[t.ID] = stored
	return nil
}

func (r *memTokens) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	for id, t := range r.st.tokens {
		if t.UserID == userID {
			delete(r.st.tokens, id)
		}
	}
	return nil
}

func (r *memTokens) DeleteStale(_ context.Context, createdBefore time.Time) (int64, error) {
	var n int64
	for id, t := range r.st.tokens {
		if t.CreatedAt.Before(createdBefore) {
			delete(r.st.tokens, id)
			n++
		}
	}
	return n, nil
}
