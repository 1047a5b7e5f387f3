package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/careaxis/clinic-api/internal/model"
	"github.com/careaxis/clinic-api/internal/repository"
	"github.com/careaxis/clinic-api/pkg/apperror"
)

type organizationRepository struct {
	BaseRepository
}

func NewOrganizationRepository(base BaseRepository) repository.OrganizationRepository {
	return &organizationRepository{base}
}

// Create inserts the organization as given: identity and timestamps are
// assigned by the caller.
func (r *organizationRepository) Create(ctx context.Context, tx *sqlx.Tx, org *model.Organization) error {
	query := `
		INSERT INTO organizations (
			id, name, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.ext(tx).ExecContext(ctx, query,
		org.ID,
		org.Name,
		org.Status,
		org.CreatedAt,
		org.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "organizations_name_key") {
			return apperror.Conflict("organization name already in use")
		}
		return fmt.Errorf("failed to create organization: %w", err)
	}
	return nil
}

func (r *organizationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	query := `
		SELECT id, name, status, created_at, updated_at, deleted_at
		FROM organizations
		WHERE id = $1 AND deleted_at IS NULL
	`
	var org model.Organization
	if err := r.db.GetContext(ctx, &org, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("organization")
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return &org, nil
}

func (r *organizationRepository) Update(ctx context.Context, org *model.Organization) error {
	query := `
		UPDATE organizations
		SET name = $1, status = $2, updated_at = $3
		WHERE id = $4 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		org.Name,
		org.Status,
		org.UpdatedAt,
		org.ID,
	)
	if err != nil {
		if isUniqueViolation(err, "organizations_name_key") {
			return apperror.Conflict("organization name already in use")
		}
		return fmt.Errorf("failed to update organization: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("organization")
	}
	return nil
}

func (r *organizationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE organizations
		SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("organization")
	}
	return nil
}

func (r *organizationRepository) List(ctx context.Context) ([]*model.Organization, error) {
	query := `
		SELECT id, name, status, created_at, updated_at, deleted_at
		FROM organizations
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
	`
	var orgs []*model.Organization
	if err := r.db.SelectContext(ctx, &orgs, query); err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return orgs, nil
}
