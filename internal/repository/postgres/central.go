package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careaxis/clinic-api/internal/model"
	"github.com/careaxis/clinic-api/internal/repository"
	"github.com/careaxis/clinic-api/pkg/apperror"
)

type centralUserRepository struct {
	BaseRepository
}

func NewCentralUserRepository(base BaseRepository) repository.CentralUserRepository {
	return &centralUserRepository{base}
}

// Create inserts the user as given: identity and timestamps are
// assigned by the caller.
func (r *centralUserRepository) Create(ctx context.Context, user *model.CentralUser) error {
	query := `
		INSERT INTO central_users (
			id, email, name, password_hash, is_verified, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.IsVerified,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "central_users_email_key") {
			return apperror.Conflict("email already registered")
		}
		if isUniqueViolation(err, "central_users_name_key") {
			return apperror.Conflict("name already in use")
		}
		return fmt.Errorf("failed to create central user: %w", err)
	}
	return nil
}

func (r *centralUserRepository) Get(ctx context.Context, id uuid.UUID) (*model.CentralUser, error) {
	query := `
		SELECT id, email, name, password_hash, is_verified,
		       refresh_token_hash, created_at, updated_at, deleted_at
		FROM central_users
		WHERE id = $1 AND deleted_at IS NULL
	`
	var user model.CentralUser
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user")
		}
		return nil, fmt.Errorf("failed to get central user: %w", err)
	}
	return &user, nil
}

func (r *centralUserRepository) GetByEmail(ctx context.Context, email string) (*model.CentralUser, error) {
	query := `
		SELECT id, email, name, password_hash, is_verified,
		       refresh_token_hash, created_at, updated_at, deleted_at
		FROM central_users
		WHERE email = $1 AND deleted_at IS NULL
	`
	var user model.CentralUser
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user")
		}
		return nil, fmt.Errorf("failed to get central user by email: %w", err)
	}
	return &user, nil
}

func (r *centralUserRepository) Update(ctx context.Context, user *model.CentralUser) error {
	query := `
		UPDATE central_users SET
			email = $1, name = $2, password_hash = $3, updated_at = $4
		WHERE id = $5 AND deleted_at IS NULL
	`
	user.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update central user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("user")
	}
	return nil
}

func (r *centralUserRepository) SetVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	query := `
		UPDATE central_users
		SET is_verified = $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, verified, id)
	if err != nil {
		return fmt.Errorf("failed to update verification status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("user")
	}
	return nil
}

func (r *centralUserRepository) SetRefreshTokenHash(ctx context.Context, id uuid.UUID, hash *string) error {
	query := `
		UPDATE central_users
		SET refresh_token_hash = $1, updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, hash, id)
	if err != nil {
		return fmt.Errorf("failed to set refresh token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("user")
	}
	return nil
}
