package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/careaxis/clinic-api/internal/repository"
	"github.com/careaxis/clinic-api/pkg/apperror"
)

type tokenRepository struct {
	BaseRepository
}

func NewTokenRepository(base BaseRepository) repository.TokenRepository {
	return &tokenRepository{base}
}

func (r *tokenRepository) StoreVerificationToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO user_tokens (user_id, token, type, expires_at, created_at)
			VALUES ($1, $2, 'verification', $3, NOW())
			ON CONFLICT (user_id, type) DO UPDATE
			SET token = $2, expires_at = $3, used_at = NULL, updated_at = NOW()
		`
		_, err := tx.ExecContext(ctx, query, userID, token, expiry)
		return err
	})
}

func (r *tokenRepository) ValidateVerificationToken(ctx context.Context, token string) (uuid.UUID, error) {
	query := `
		SELECT user_id
		FROM user_tokens
		WHERE token = $1
		AND type = 'verification'
		AND expires_at > NOW()
		AND used_at IS NULL
	`

	var userID uuid.UUID
	if err := r.GetDB().GetContext(ctx, &userID, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, apperror.Validation("invalid or expired verification token")
		}
		return uuid.Nil, fmt.Errorf("failed to validate verification token: %w", err)
	}
	return userID, nil
}

func (r *tokenRepository) InvalidateVerificationToken(ctx context.Context, token string) error {
	query := `
		UPDATE user_tokens
		SET used_at = NOW()
		WHERE token = $1 AND type = 'verification'
	`
	if _, err := r.GetDB().ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}
	return nil
}
