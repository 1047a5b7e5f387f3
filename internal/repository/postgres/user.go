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

type organizationUserRepository struct {
	BaseRepository
}

func NewOrganizationUserRepository(base BaseRepository) repository.OrganizationUserRepository {
	return &organizationUserRepository{base}
}

const orgUserColumns = `
	id, organization_id, email, password_hash, first_name, last_name,
	refresh_token_hash, doctor_profile_id, patient_profile_id,
	admin_profile_id, created_at, updated_at, deleted_at
`

// Create inserts the profile row and the user row on the caller's
// transaction. Identity and timestamps are assigned by the caller.
func (r *organizationUserRepository) Create(ctx context.Context, tx *sqlx.Tx, user *model.OrganizationUser) error {
	ext := r.ext(tx)

	if user.DoctorProfile != nil {
		if err := insertDoctorProfile(ctx, ext, user.DoctorProfile); err != nil {
			return err
		}
	}
	if user.PatientProfile != nil {
		if err := insertPatientProfile(ctx, ext, user.PatientProfile); err != nil {
			return err
		}
	}
	if user.AdminProfile != nil {
		if err := insertAdminProfile(ctx, ext, user.AdminProfile); err != nil {
			return err
		}
	}

	query := `
		INSERT INTO organization_users (
			id, organization_id, email, password_hash, first_name,
			last_name, doctor_profile_id, patient_profile_id,
			admin_profile_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := ext.ExecContext(ctx, query,
		user.ID,
		user.OrganizationID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.DoctorProfileID,
		user.PatientProfileID,
		user.AdminProfileID,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "organization_users_org_email_key") {
			return apperror.Conflict("email already in use in this organization")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *organizationUserRepository) Get(ctx context.Context, orgID, id uuid.UUID) (*model.OrganizationUser, error) {
	query := `
		SELECT ` + orgUserColumns + `
		FROM organization_users
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
	`
	var user model.OrganizationUser
	if err := r.db.GetContext(ctx, &user, query, id, orgID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *organizationUserRepository) GetByEmail(ctx context.Context, orgID uuid.UUID, email string) (*model.OrganizationUser, error) {
	query := `
		SELECT ` + orgUserColumns + `
		FROM organization_users
		WHERE organization_id = $1 AND email = $2 AND deleted_at IS NULL
	`
	var user model.OrganizationUser
	if err := r.db.GetContext(ctx, &user, query, orgID, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user")
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

func (r *organizationUserRepository) Update(ctx context.Context, user *model.OrganizationUser) error {
	query := `
		UPDATE organization_users SET
			email = $1,
			password_hash = $2,
			first_name = $3,
			last_name = $4,
			updated_at = $5
		WHERE id = $6 AND organization_id = $7 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.UpdatedAt,
		user.ID,
		user.OrganizationID,
	)
	if err != nil {
		if isUniqueViolation(err, "organization_users_org_email_key") {
			return apperror.Conflict("email already in use in this organization")
		}
		return fmt.Errorf("failed to update user: %w", err)
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

func (r *organizationUserRepository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	query := `
		UPDATE organization_users
		SET deleted_at = NOW()
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
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

func (r *organizationUserRepository) List(ctx context.Context, filters *model.OrganizationUserFilters) ([]*model.OrganizationUser, error) {
	query := `
		SELECT ` + orgUserColumns + `
		FROM organization_users
		WHERE organization_id = $1 AND deleted_at IS NULL
	`
	args := []interface{}{filters.OrganizationID}

	switch filters.Role {
	case model.ProfileKindDoctor:
		query += " AND doctor_profile_id IS NOT NULL"
	case model.ProfileKindPatient:
		query += " AND patient_profile_id IS NOT NULL"
	case model.ProfileKindAdmin:
		query += " AND admin_profile_id IS NOT NULL"
	}

	if filters.SearchTerm != "" {
		query += fmt.Sprintf(" AND (first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d)",
			len(args)+1, len(args)+1, len(args)+1)
		args = append(args, "%"+filters.SearchTerm+"%")
	}

	query += " ORDER BY created_at DESC"

	var users []*model.OrganizationUser
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// LoadProfiles resolves the user's profile references into records.
func (r *organizationUserRepository) LoadProfiles(ctx context.Context, user *model.OrganizationUser) error {
	if user.DoctorProfileID != nil {
		var p model.DoctorProfile
		query := `SELECT id, specialization, license_number, phone, created_at, updated_at, deleted_at FROM doctor_profiles WHERE id = $1`
		if err := r.db.GetContext(ctx, &p, query, *user.DoctorProfileID); err != nil {
			return fmt.Errorf("failed to load doctor profile: %w", err)
		}
		user.DoctorProfile = &p
	}
	if user.PatientProfileID != nil {
		var p model.PatientProfile
		query := `
			SELECT id, date_of_birth, phone, address, emergency_contact,
			       blood_type, allergies, chronic_conditions,
			       created_at, updated_at, deleted_at
			FROM patient_profiles WHERE id = $1
		`
		if err := r.db.GetContext(ctx, &p, query, *user.PatientProfileID); err != nil {
			return fmt.Errorf("failed to load patient profile: %w", err)
		}
		user.PatientProfile = &p
	}
	if user.AdminProfileID != nil {
		var p model.AdminProfile
		query := `SELECT id, created_at, updated_at, deleted_at FROM admin_profiles WHERE id = $1`
		if err := r.db.GetContext(ctx, &p, query, *user.AdminProfileID); err != nil {
			return fmt.Errorf("failed to load admin profile: %w", err)
		}
		user.AdminProfile = &p
	}
	return nil
}

func (r *organizationUserRepository) ReplaceDoctorProfile(ctx context.Context, userID uuid.UUID, profile *model.DoctorProfile) error {
	query := `
		UPDATE doctor_profiles dp
		SET specialization = $1, license_number = $2, phone = $3, updated_at = NOW()
		FROM organization_users u
		WHERE u.id = $4 AND u.doctor_profile_id = dp.id
	`
	result, err := r.db.ExecContext(ctx, query,
		profile.Specialization,
		profile.LicenseNumber,
		profile.Phone,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update doctor profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("doctor profile")
	}
	return nil
}

func (r *organizationUserRepository) ReplacePatientProfile(ctx context.Context, userID uuid.UUID, profile *model.PatientProfile) error {
	query := `
		UPDATE patient_profiles pp
		SET date_of_birth = $1, phone = $2, address = $3,
		    emergency_contact = $4, blood_type = $5, allergies = $6,
		    chronic_conditions = $7, updated_at = NOW()
		FROM organization_users u
		WHERE u.id = $8 AND u.patient_profile_id = pp.id
	`
	result, err := r.db.ExecContext(ctx, query,
		profile.DateOfBirth,
		profile.Phone,
		profile.Address,
		profile.EmergencyContact,
		profile.BloodType,
		profile.Allergies,
		profile.ChronicConditions,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update patient profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("patient profile")
	}
	return nil
}

func (r *organizationUserRepository) SetRefreshTokenHash(ctx context.Context, id uuid.UUID, hash *string) error {
	query := `
		UPDATE organization_users
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

func insertDoctorProfile(ctx context.Context, ext sqlx.ExtContext, p *model.DoctorProfile) error {
	query := `
		INSERT INTO doctor_profiles (id, specialization, license_number, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := ext.ExecContext(ctx, query, p.ID, p.Specialization, p.LicenseNumber, p.Phone, p.CreatedAt, p.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create doctor profile: %w", err)
	}
	return nil
}

func insertPatientProfile(ctx context.Context, ext sqlx.ExtContext, p *model.PatientProfile) error {
	query := `
		INSERT INTO patient_profiles (
			id, date_of_birth, phone, address, emergency_contact,
			blood_type, allergies, chronic_conditions, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if _, err := ext.ExecContext(ctx, query,
		p.ID, p.DateOfBirth, p.Phone, p.Address, p.EmergencyContact,
		p.BloodType, p.Allergies, p.ChronicConditions, p.CreatedAt, p.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create patient profile: %w", err)
	}
	return nil
}

func insertAdminProfile(ctx context.Context, ext sqlx.ExtContext, p *model.AdminProfile) error {
	query := `INSERT INTO admin_profiles (id, created_at, updated_at) VALUES ($1, $2, $3)`
	if _, err := ext.ExecContext(ctx, query, p.ID, p.CreatedAt, p.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create admin profile: %w", err)
	}
	return nil
}
