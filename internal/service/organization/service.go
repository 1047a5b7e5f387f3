package organization

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
)

type OrganizationServicer interface {
	CreateOrganization(ctx context.Context, req *model.CreateOrganizationRequest) (*model.Organization, error)
	GetOrganization(ctx context.Context, id uuid.UUID) (*model.Organization, error)
	UpdateOrganization(ctx context.Context, id uuid.UUID, req *model.UpdateOrganizationRequest) (*model.Organization, error)
	DeleteOrganization(ctx context.Context, id uuid.UUID) error
	ListOrganizations(ctx context.Context) ([]*model.Organization, error)
}

type Service struct {
	repo    repository.OrganizationRepository
	tx      repository.Transactor
	emitter event.Emitter
}

func NewService(repo repository.OrganizationRepository, tx repository.Transactor, emitter event.Emitter) *Service {
	return &Service{
		repo:    repo,
		tx:      tx,
		emitter: emitter,
	}
}

func (s *Service) CreateOrganization(ctx context.Context, req *model.CreateOrganizationRequest) (*model.Organization, error) {
	name := strings.TrimSpace(req.Name)
	if err := validateName(name); err != nil {
		return nil, err
	}

	now := time.Now()
	org := &model.Organization{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:   name,
		Status: model.OrganizationStatusActive,
	}

	// The event rides the organization's transaction: a failed outbox
	// insert rolls the create back too.
	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.repo.Create(ctx, tx, org); err != nil {
			return fmt.Errorf("failed to create organization: %w", err)
		}
		if err := s.emitter.Emit(ctx, tx, model.EventOrganizationCreated, org); err != nil {
			return fmt.Errorf("failed to emit event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return org, nil
}

func (s *Service) GetOrganization(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	org, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return org, nil
}

func (s *Service) UpdateOrganization(ctx context.Context, id uuid.UUID, req *model.UpdateOrganizationRequest) (*model.Organization, error) {
	org, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if err := validateName(name); err != nil {
			return nil, err
		}
		org.Name = name
	}
	if req.Status != nil {
		org.Status = *req.Status
	}

	org.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}
	return org, nil
}

func (s *Service) DeleteOrganization(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return fmt.Errorf("failed to get organization: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}
	return nil
}

func (s *Service) ListOrganizations(ctx context.Context) ([]*model.Organization, error) {
	orgs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return orgs, nil
}

func validateName(name string) error {
	if len(name) < model.MinOrganizationNameLen {
		return apperror.Validationf("organization name must be at least %d characters", model.MinOrganizationNameLen)
	}
	return nil
}
