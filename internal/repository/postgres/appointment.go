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

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

// Create inserts the appointment as given: identity and timestamps are
// assigned by the caller.
func (r *appointmentRepository) Create(ctx context.Context, tx *sqlx.Tx, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, organization_id, patient_id, doctor_id,
			appointment_datetime, status, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.ext(tx).ExecContext(ctx, query,
		appointment.ID,
		appointment.OrganizationID,
		appointment.PatientID,
		appointment.DoctorID,
		appointment.AppointmentDateTime,
		appointment.Status,
		appointment.Notes,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, orgID, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, organization_id, patient_id, doctor_id,
		       appointment_datetime, status, notes,
		       created_at, updated_at, deleted_at
		FROM appointments
		WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL
	`
	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id, orgID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("appointment")
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `
		SELECT id, organization_id, patient_id, doctor_id,
		       appointment_datetime, status, notes,
		       created_at, updated_at, deleted_at
		FROM appointments
		WHERE organization_id = $1 AND deleted_at IS NULL
	`
	args := []interface{}{filters.OrganizationID}

	if filters.PatientID != uuid.Nil {
		query += fmt.Sprintf(" AND patient_id = $%d", len(args)+1)
		args = append(args, filters.PatientID)
	}

	if filters.DoctorID != uuid.Nil {
		query += fmt.Sprintf(" AND doctor_id = $%d", len(args)+1)
		args = append(args, filters.DoctorID)
	}

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, filters.Status)
	}

	if !filters.StartDate.IsZero() {
		query += fmt.Sprintf(" AND appointment_datetime >= $%d", len(args)+1)
		args = append(args, filters.StartDate)
	}

	if !filters.EndDate.IsZero() {
		query += fmt.Sprintf(" AND appointment_datetime <= $%d", len(args)+1)
		args = append(args, filters.EndDate)
	}

	query += " ORDER BY appointment_datetime ASC"

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// UpdateStatus is the compare-and-set write all lifecycle transitions go
// through. The WHERE clause pins the expected current status, so of two
// concurrent transitions exactly one observes a row to update.
func (r *appointmentRepository) UpdateStatus(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, from, to model.AppointmentStatus) (bool, error) {
	query := `
		UPDATE appointments
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3 AND deleted_at IS NULL
	`
	result, err := r.ext(tx).ExecContext(ctx, query, to, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to update appointment status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}
