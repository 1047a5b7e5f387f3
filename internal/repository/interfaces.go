package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/careaxis/clinic-api/internal/model"
)

// Transactor runs a function inside a database transaction. Write paths
// that pair a domain mutation with an outbox event go through it so both
// commit or roll back together.
type Transactor interface {
	WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error
}

type OrganizationRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, org *model.Organization) error
	Get(ctx context.Context, id uuid.UUID) (*model.Organization, error)
	Update(ctx context.Context, org *model.Organization) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*model.Organization, error)
}

type OrganizationUserRepository interface {
	// Create persists the user together with its single profile on the
	// caller's transaction.
	Create(ctx context.Context, tx *sqlx.Tx, user *model.OrganizationUser) error
	Get(ctx context.Context, orgID, id uuid.UUID) (*model.OrganizationUser, error)
	GetByEmail(ctx context.Context, orgID uuid.UUID, email string) (*model.OrganizationUser, error)
	Update(ctx context.Context, user *model.OrganizationUser) error
	Delete(ctx context.Context, orgID, id uuid.UUID) error
	List(ctx context.Context, filters *model.OrganizationUserFilters) ([]*model.OrganizationUser, error)
	LoadProfiles(ctx context.Context, user *model.OrganizationUser) error
	ReplaceDoctorProfile(ctx context.Context, userID uuid.UUID, profile *model.DoctorProfile) error
	ReplacePatientProfile(ctx context.Context, userID uuid.UUID, profile *model.PatientProfile) error
	SetRefreshTokenHash(ctx context.Context, id uuid.UUID, hash *string) error
}

type CentralUserRepository interface {
	Create(ctx context.Context, user *model.CentralUser) error
	Get(ctx context.Context, id uuid.UUID) (*model.CentralUser, error)
	GetByEmail(ctx context.Context, email string) (*model.CentralUser, error)
	Update(ctx context.Context, user *model.CentralUser) error
	SetVerified(ctx context.Context, id uuid.UUID, verified bool) error
	SetRefreshTokenHash(ctx context.Context, id uuid.UUID, hash *string) error
}

type AppointmentRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, appointment *model.Appointment) error
	Get(ctx context.Context, orgID, id uuid.UUID) (*model.Appointment, error)
	List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
	// UpdateStatus performs a compare-and-set: the row is updated only if
	// its status still equals from. It reports whether a row was updated.
	UpdateStatus(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, from, to model.AppointmentStatus) (bool, error)
}

type TokenRepository interface {
	StoreVerificationToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error
	ValidateVerificationToken(ctx context.Context, token string) (uuid.UUID, error)
	InvalidateVerificationToken(ctx context.Context, token string) error
}

type OutboxRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, event *model.OutboxEvent) error
	GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}
