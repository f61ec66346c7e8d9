package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/zhanserikAmangeldi/apex-be/auth-service/internal/models"
)

type VerificationTokenRepository struct {
	db querier
}

func (r *VerificationTokenRepository) FindByToken(ctx context.Context, token string) (*models.VerificationToken, error) {
	query := `
		SELECT id, user_id, token, used, created_at
		FROM verification_tokens
		WHERE token = $1
	`
	return r.findOne(ctx, query, token)
}

func (r *VerificationTokenRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.VerificationToken, error) {
	query := `
		SELECT id, user_id, token, used, created_at
		FROM verification_tokens
		WHERE user_id = $1 AND used = FALSE
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.findOne(ctx, query, userID)
}

func (r *VerificationTokenRepository) Save(ctx context.Context, t *models.VerificationToken) error {
	query := `
		INSERT INTO verification_tokens (id, user_id, token, used, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			used = verification_tokens.used OR EXCLUDED.used
	`

	_, err := r.db.Exec(ctx, query, t.ID, t.UserID, t.Token, t.Used, t.CreatedAt)
	return err
}

func (r *VerificationTokenRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM verification_tokens WHERE user_id = $1`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}

func (r *VerificationTokenRepository) DeleteStale(ctx context.Context, createdBefore time.Time) (int64, error) {
	query := `DELETE FROM verification_tokens WHERE created_at < $1`

	result, err := r.db.Exec(ctx, query, createdBefore)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}

func (r *VerificationTokenRepository) findOne(ctx context.Context, query string, arg any) (*models.VerificationToken, error) {
	t := &models.VerificationToken{}
	err := r.db.QueryRow(ctx, query, arg).Scan(&t.ID, &t.UserID, &t.Token, &t.Used, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return t, nil
}
