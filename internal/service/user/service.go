package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/careaxis/clinic-api/internal/model"
	"github.com/careaxis/clinic-api/internal/repository"
	"github.com/careaxis/clinic-api/internal/service/event"
	"github.com/careaxis/clinic-api/pkg/apperror"
	"github.com/careaxis/clinic-api/pkg/security"
)

type UserServicer interface {
	CreateUser(ctx context.Context, orgID uuid.UUID, req *model.CreateOrganizationUserRequest) (*model.OrganizationUser, error)
	GetUser(ctx context.Context, orgID, id uuid.UUID) (*model.OrganizationUser, error)
	UpdateUser(ctx context.Context, orgID, id uuid.UUID, req *model.UpdateOrganizationUserRequest) (*model.OrganizationUser, error)
	DeleteUser(ctx context.Context, orgID, id uuid.UUID) error
	ListUsers(ctx context.Context, filters *model.OrganizationUserFilters) ([]*model.OrganizationUser, error)
	ReplaceProfile(ctx context.Context, orgID, id uuid.UUID, req *model.UpdateProfileRequest) (*model.OrganizationUser, error)
}

type Service struct {
	repo    repository.OrganizationUserRepository
	orgRepo repository.OrganizationRepository
	tx      repository.Transactor
	hasher  security.PasswordHasher
	emitter event.Emitter
}

func NewService(repo repository.OrganizationUserRepository, orgRepo repository.OrganizationRepository, tx repository.Transactor, hasher security.PasswordHasher, emitter event.Emitter) *Service {
	return &Service{
		repo:    repo,
		orgRepo: orgRepo,
		tx:      tx,
		hasher:  hasher,
		emitter: emitter,
	}
}

// validateProfilePayload enforces that a create request carries exactly
// one profile kind. A user's role is derived from its single profile, so
// zero and two-or-more are both rejected before anything is written.
func validateProfilePayload(req *model.CreateOrganizationUserRequest) error {
	n := 0
	if req.DoctorProfile != nil {
		n++
	}
	if req.PatientProfile != nil {
		n++
	}
	if req.AdminProfile != nil {
		n++
	}
	switch {
	case n == 0:
		return apperror.Validation("exactly one profile is required: doctor_profile, patient_profile, or admin_profile")
	case n > 1:
		return apperror.Validation("a user may hold only one profile kind")
	}
	return nil
}

func (s *Service) CreateUser(ctx context.Context, orgID uuid.UUID, req *model.CreateOrganizationUserRequest) (*model.OrganizationUser, error) {
	if err := validateProfilePayload(req); err != nil {
		return nil, err
	}

	if _, err := s.orgRepo.Get(ctx, orgID); err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperror.Validation("password does not meet requirements")
	}

	now := time.Now()
	user := &model.OrganizationUser{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		OrganizationID: orgID,
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash:   hash,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
	}

	base := model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
	switch {
	case req.DoctorProfile != nil:
		user.DoctorProfile = &model.DoctorProfile{
			Base:           base,
			Specialization: req.DoctorProfile.Specialization,
			LicenseNumber:  req.DoctorProfile.LicenseNumber,
			Phone:          req.DoctorProfile.Phone,
		}
		user.DoctorProfileID = &base.ID
	case req.PatientProfile != nil:
		user.PatientProfile = &model.PatientProfile{
			Base:              base,
			DateOfBirth:       req.PatientProfile.DateOfBirth,
			Phone:             req.PatientProfile.Phone,
			Address:           req.PatientProfile.Address,
			EmergencyContact:  req.PatientProfile.EmergencyContact,
			BloodType:         req.PatientProfile.BloodType,
			Allergies:         req.PatientProfile.Allergies,
			ChronicConditions: req.PatientProfile.ChronicConditions,
		}
		user.PatientProfileID = &base.ID
	default:
		user.AdminProfile = &model.AdminProfile{Base: base}
		user.AdminProfileID = &base.ID
	}

	// Profile row, user row, and the event share one transaction.
	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.Create(ctx, tx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		if err := s.emitter.Emit(ctx, tx, model.EventUserCreated, map[string]interface{}{
			"user_id":         user.ID,
			"organization_id": user.OrganizationID,
			"role":            user.Role(),
		}); err != nil {
			return fmt.Errorf("failed to emit event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) GetUser(ctx context.Context, orgID, id uuid.UUID) (*model.OrganizationUser, error) {
	user, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if err := s.repo.LoadProfiles(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}
	return user, nil
}

func (s *Service) UpdateUser(ctx context.Context, orgID, id uuid.UUID, req *model.UpdateOrganizationUserRequest) (*model.OrganizationUser, error) {
	user, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Password != nil {
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, apperror.Validation("password does not meet requirements")
		}
		user.PasswordHash = hash
	}

	user.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (s *Service) DeleteUser(ctx context.Context, orgID, id uuid.UUID) error {
	if _, err := s.repo.Get(ctx, orgID, id); err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if err := s.repo.Delete(ctx, orgID, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *Service) ListUsers(ctx context.Context, filters *model.OrganizationUserFilters) ([]*model.OrganizationUser, error) {
	users, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// ReplaceProfile updates the attributes of the user's existing profile.
// It never changes the profile kind: a doctor stays a doctor. Sending a
// payload for a kind the user does not hold is rejected.
func (s *Service) ReplaceProfile(ctx context.Context, orgID, id uuid.UUID, req *model.UpdateProfileRequest) (*model.OrganizationUser, error) {
	if req.DoctorProfile != nil && req.PatientProfile != nil {
		return nil, apperror.Validation("a user may hold only one profile kind")
	}
	if req.DoctorProfile == nil && req.PatientProfile == nil {
		return nil, apperror.Validation("a profile payload is required")
	}

	user, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	switch {
	case req.DoctorProfile != nil:
		if user.DoctorProfileID == nil {
			return nil, apperror.Validation("user does not hold a doctor profile")
		}
		profile := &model.DoctorProfile{
			Specialization: req.DoctorProfile.Specialization,
			LicenseNumber:  req.DoctorProfile.LicenseNumber,
			Phone:          req.DoctorProfile.Phone,
		}
		if err := s.repo.ReplaceDoctorProfile(ctx, user.ID, profile); err != nil {
			return nil, fmt.Errorf("failed to replace doctor profile: %w", err)
		}
	default:
		if user.PatientProfileID == nil {
			return nil, apperror.Validation("user does not hold a patient profile")
		}
		profile := &model.PatientProfile{
			DateOfBirth:       req.PatientProfile.DateOfBirth,
			Phone:             req.PatientProfile.Phone,
			Address:           req.PatientProfile.Address,
			EmergencyContact:  req.PatientProfile.EmergencyContact,
			BloodType:         req.PatientProfile.BloodType,
			Allergies:         req.PatientProfile.Allergies,
			ChronicConditions: req.PatientProfile.ChronicConditions,
		}
		if err := s.repo.ReplacePatientProfile(ctx, user.ID, profile); err != nil {
			return nil, fmt.Errorf("failed to replace patient profile: %w", err)
		}
	}

	return s.GetUser(ctx, orgID, id)
}
