package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/zhanserikAmangeldi/apex-be/auth-service/internal/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrTokenNotFound     = errors.New("verification token not found")
)

type UserStore interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// Save inserts the user or updates it by ID.
	Save(ctx context.Context, user *models.User) error
}

type TokenStore interface {
	FindByToken(ctx context.Context, token string) (*models.VerificationToken, error)
	// FindByUser returns the most recent unused token of the user.
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.VerificationToken, error)
	// Save inserts the token or updates its used flag by ID.
	Save(ctx context.Context, token *models.VerificationToken) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
	// DeleteStale removes tokens created before the cutoff and reports how many were removed.
	DeleteStale(ctx context.Context, createdBefore time.Time) (int64, error)
}

// Repos is the set of stores bound to one transaction.
type Repos struct {
	Users  UserStore
	Tokens TokenStore
}

// Transactor runs fn as one atomic unit. Writes made through repos are committed only
// when fn returns nil.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error
}
