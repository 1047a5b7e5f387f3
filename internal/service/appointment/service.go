package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/careaxis/clinic-api/internal/model"
	"github.com/careaxis/clinic-api/internal/repository"
	"github.com/careaxis/clinic-api/internal/service/event"
	"github.com/careaxis/clinic-api/pkg/apperror"
	"github.com/careaxis/clinic-api/pkg/metrics"
)

// Actor identifies the authenticated organization user performing an
// appointment operation.
type Actor struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
	Role           model.ProfileKind
}

type AppointmentServicer interface {
	CreateAppointment(ctx context.Context, actor Actor, req *model.CreateAppointmentRequest) (*model.Appointment, error)
	GetAppointment(ctx context.Context, actor Actor, id uuid.UUID) (*model.Appointment, error)
	ListAppointments(ctx context.Context, actor Actor, filters *model.AppointmentFilters) ([]*model.Appointment, error)
	Transition(ctx context.Context, actor Actor, id uuid.UUID, action model.AppointmentAction) (*model.Appointment, error)
}

type Service struct {
	repo     repository.AppointmentRepository
	userRepo repository.OrganizationUserRepository
	tx       repository.Transactor
	emitter  event.Emitter
	now      func() time.Time
}

func NewService(repo repository.AppointmentRepository, userRepo repository.OrganizationUserRepository, tx repository.Transactor, emitter event.Emitter) *Service {
	return &Service{
		repo:     repo,
		userRepo: userRepo,
		tx:       tx,
		emitter:  emitter,
		now:      time.Now,
	}
}

// CreateAppointment books a PENDING appointment. Patients book for
// themselves; admins may book on a patient's behalf.
func (s *Service) CreateAppointment(ctx context.Context, actor Actor, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	patientID := req.PatientID
	switch actor.Role {
	case model.ProfileKindPatient:
		if patientID != uuid.Nil && patientID != actor.UserID {
			return nil, apperror.Authorization("patients may only book their own appointments")
		}
		patientID = actor.UserID
	case model.ProfileKindAdmin:
		if patientID == uuid.Nil {
			return nil, apperror.Validation("patient_id is required")
		}
	default:
		return nil, apperror.Authorization("doctors may not book appointments")
	}

	if !req.AppointmentDateTime.After(s.now()) {
		return nil, apperror.Validation("appointment_datetime must be in the future")
	}

	patient, err := s.userRepo.Get(ctx, actor.OrganizationID, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	if patient.Role() != model.ProfileKindPatient {
		return nil, apperror.Validation("patient_id must reference a patient")
	}

	doctor, err := s.userRepo.Get(ctx, actor.OrganizationID, req.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	if doctor.Role() != model.ProfileKindDoctor {
		return nil, apperror.Validation("doctor_id must reference a doctor")
	}

	now := s.now()
	appointment := &model.Appointment{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		OrganizationID:      actor.OrganizationID,
		PatientID:           patient.ID,
		DoctorID:            doctor.ID,
		AppointmentDateTime: req.AppointmentDateTime,
		Status:              model.AppointmentStatusPending,
		Notes:               req.Notes,
	}

	// The event rides the appointment's transaction.
	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.Create(ctx, tx, appointment); err != nil {
			return fmt.Errorf("failed to create appointment: %w", err)
		}
		if err := s.emitter.Emit(ctx, tx, model.EventAppointmentCreated, appointment); err != nil {
			return fmt.Errorf("failed to emit event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return appointment, nil
}

func (s *Service) GetAppointment(ctx context.Context, actor Actor, id uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, actor.OrganizationID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	if err := s.authorizeRead(actor, appointment); err != nil {
		return nil, err
	}
	return appointment, nil
}

// ListAppointments scopes results to the caller: doctors and patients
// see their own schedule, admins see the whole organization.
func (s *Service) ListAppointments(ctx context.Context, actor Actor, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	if filters == nil {
		filters = &model.AppointmentFilters{}
	}
	filters.OrganizationID = actor.OrganizationID

	switch actor.Role {
	case model.ProfileKindDoctor:
		filters.DoctorID = actor.UserID
	case model.ProfileKindPatient:
		filters.PatientID = actor.UserID
	}

	appointments, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// Transition performs one lifecycle action. Ownership is checked before
// the lifecycle graph so a non-participant gets an authorization error
// even for an action that would also be illegal from the current state.
// The status write is a compare-and-set, so of two concurrent calls on
// the same appointment exactly one wins.
func (s *Service) Transition(ctx context.Context, actor Actor, id uuid.UUID, action model.AppointmentAction) (*model.Appointment, error) {
	appointment, err := s.repo.Get(ctx, actor.OrganizationID, id)
	if err != nil {
		metrics.AppointmentTransitions.WithLabelValues(string(action), "error").Inc()
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	from := appointment.Status
	to, requiredRole, ok := model.ResolveTransition(from, action)

	actorRole := requiredRole
	if !ok {
		// Still enforce ownership first: derive the acting role from
		// the action itself.
		actorRole = actionRole(action)
	}

	if err := s.authorizeTransition(actor, appointment, actorRole); err != nil {
		metrics.AppointmentTransitions.WithLabelValues(string(action), "forbidden").Inc()
		return nil, err
	}

	if !ok {
		metrics.AppointmentTransitions.WithLabelValues(string(action), "illegal").Inc()
		return nil, apperror.Statef("cannot %s an appointment in status %s", action, from)
	}

	// The compare-and-set and the event share one transaction, so a
	// recorded transition always has its event and vice versa.
	var updated bool
	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		ok, err := s.repo.UpdateStatus(ctx, tx, id, from, to)
		if err != nil {
			return fmt.Errorf("failed to update appointment status: %w", err)
		}
		updated = ok
		if !updated {
			return nil
		}
		if err := s.emitter.Emit(ctx, tx, model.EventAppointmentUpdated, map[string]interface{}{
			"appointment_id":  appointment.ID,
			"organization_id": appointment.OrganizationID,
			"action":          action,
			"from":            from,
			"to":              to,
		}); err != nil {
			return fmt.Errorf("failed to emit event: %w", err)
		}
		return nil
	})
	if err != nil {
		metrics.AppointmentTransitions.WithLabelValues(string(action), "error").Inc()
		return nil, err
	}
	if !updated {
		// Lost the race: someone moved the appointment first.
		metrics.AppointmentTransitions.WithLabelValues(string(action), "conflict").Inc()
		current, err := s.repo.Get(ctx, actor.OrganizationID, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get appointment: %w", err)
		}
		return nil, apperror.Statef("cannot %s an appointment in status %s", action, current.Status)
	}

	appointment.Status = to
	appointment.UpdatedAt = s.now()
	metrics.AppointmentTransitions.WithLabelValues(string(action), "ok").Inc()

	return appointment, nil
}

func (s *Service) authorizeRead(actor Actor, appointment *model.Appointment) error {
	switch actor.Role {
	case model.ProfileKindAdmin:
		return nil
	case model.ProfileKindDoctor:
		if appointment.DoctorID == actor.UserID {
			return nil
		}
	case model.ProfileKindPatient:
		if appointment.PatientID == actor.UserID {
			return nil
		}
	}
	return apperror.Authorization("not a participant of this appointment")
}

func (s *Service) authorizeTransition(actor Actor, appointment *model.Appointment, requiredRole model.ProfileKind) error {
	if actor.Role != requiredRole {
		return apperror.Authorization("action not permitted for this role")
	}
	switch requiredRole {
	case model.ProfileKindDoctor:
		if appointment.DoctorID != actor.UserID {
			return apperror.Authorization("not the doctor of this appointment")
		}
	case model.ProfileKindPatient:
		if appointment.PatientID != actor.UserID {
			return apperror.Authorization("not the patient of this appointment")
		}
	}
	return nil
}

// actionRole maps an action to the role that owns it, independent of
// the current status.
func actionRole(action model.AppointmentAction) model.ProfileKind {
	if action == model.AppointmentActionCancel {
		return model.ProfileKindPatient
	}
	return model.ProfileKindDoctor
}
