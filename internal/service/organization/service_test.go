package organization

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careaxis/clinic-api/internal/model"
	"github.com/careaxis/clinic-api/pkg/apperror"
)

type mockOrgRepo struct {
	createFn func(ctx context.Context, tx *sqlx.Tx, org *model.Organization) error
	getFn    func(ctx context.Context, id uuid.UUID) (*model.Organization, error)
	updateFn func(ctx context.Context, org *model.Organization) error
	deleteFn func(ctx context.Context, id uuid.UUID) error
	listFn   func(ctx context.Context) ([]*model.Organization, error)
}

func (m *mockOrgRepo) Create(ctx context.Context, tx *sqlx.Tx, org *model.Organization) error {
	return m.createFn(ctx, tx, org)
}
func (m *mockOrgRepo) Get(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	return m.getFn(ctx, id)
}
func (m *mockOrgRepo) Update(ctx context.Context, org *model.Organization) error {
	return m.updateFn(ctx, org)
}
func (m *mockOrgRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}
func (m *mockOrgRepo) List(ctx context.Context) ([]*model.Organization, error) {
	return m.listFn(ctx)
}

type mockEmitter struct {
	events []string
	tx     *sqlx.Tx
	err    error
}

func (m *mockEmitter) Emit(ctx context.Context, tx *sqlx.Tx, eventType string, payload interface{}) error {
	m.events = append(m.events, eventType)
	m.tx = tx
	return m.err
}

// mockTransactor hands the callback a sentinel transaction and records
// whether the callback failed, which would roll the real one back.
type mockTransactor struct {
	tx         *sqlx.Tx
	rolledBack bool
}

func (m *mockTransactor) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	m.tx = &sqlx.Tx{}
	if err := fn(m.tx); err != nil {
		m.rolledBack = true
		return err
	}
	return nil
}

func TestCreateOrganization(t *testing.T) {
	emitter := &mockEmitter{}
	txm := &mockTransactor{}
	var created *model.Organization
	var createTx *sqlx.Tx
	repo := &mockOrgRepo{
		createFn: func(ctx context.Context, tx *sqlx.Tx, org *model.Organization) error {
			created = org
			createTx = tx
			return nil
		},
	}
	svc := NewService(repo, txm, emitter)

	org, err := svc.CreateOrganization(context.Background(), &model.CreateOrganizationRequest{Name: "Mercy Clinic"})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "Mercy Clinic", org.Name)
	assert.Equal(t, model.OrganizationStatusActive, org.Status)
	assert.NotEqual(t, uuid.Nil, org.ID)
	assert.Equal(t, created.ID, org.ID)
	assert.Equal(t, []string{model.EventOrganizationCreated}, emitter.events)

	// The row and the event share the organization's transaction.
	assert.Same(t, txm.tx, createTx)
	assert.Same(t, txm.tx, emitter.tx)
}

func TestCreateOrganizationRollsBackWhenEventInsertFails(t *testing.T) {
	txm := &mockTransactor{}
	repo := &mockOrgRepo{
		createFn: func(ctx context.Context, tx *sqlx.Tx, org *model.Organization) error {
			return nil
		},
	}
	emitter := &mockEmitter{err: errors.New("outbox insert failed")}
	svc := NewService(repo, txm, emitter)

	_, err := svc.CreateOrganization(context.Background(), &model.CreateOrganizationRequest{Name: "Mercy Clinic"})
	require.Error(t, err)
	// The failed event insert fails the whole transaction, so the
	// organization row is never committed.
	assert.True(t, txm.rolledBack)
}

func TestCreateOrganizationNameTooShort(t *testing.T) {
	svc := NewService(&mockOrgRepo{}, &mockTransactor{}, &mockEmitter{})

	_, err := svc.CreateOrganization(context.Background(), &model.CreateOrganizationRequest{Name: "abc"})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestCreateOrganizationTrimsWhitespaceBeforeLengthCheck(t *testing.T) {
	svc := NewService(&mockOrgRepo{}, &mockTransactor{}, &mockEmitter{})

	// Four characters only because of padding.
	_, err := svc.CreateOrganization(context.Background(), &model.CreateOrganizationRequest{Name: "  ab  "})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestCreateOrganizationDuplicateName(t *testing.T) {
	repo := &mockOrgRepo{
		createFn: func(ctx context.Context, tx *sqlx.Tx, org *model.Organization) error {
			return apperror.Conflict("organization name already in use")
		},
	}
	svc := NewService(repo, &mockTransactor{}, &mockEmitter{})

	_, err := svc.CreateOrganization(context.Background(), &model.CreateOrganizationRequest{Name: "Mercy Clinic"})
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestUpdateOrganizationValidatesNewName(t *testing.T) {
	id := uuid.New()
	repo := &mockOrgRepo{
		getFn: func(ctx context.Context, got uuid.UUID) (*model.Organization, error) {
			return &model.Organization{Base: model.Base{ID: id}, Name: "Mercy Clinic"}, nil
		},
	}
	svc := NewService(repo, &mockTransactor{}, &mockEmitter{})

	short := "ab"
	_, err := svc.UpdateOrganization(context.Background(), id, &model.UpdateOrganizationRequest{Name: &short})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestGetOrganizationNotFound(t *testing.T) {
	repo := &mockOrgRepo{
		getFn: func(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
			return nil, apperror.NotFound("organization")
		},
	}
	svc := NewService(repo, &mockTransactor{}, &mockEmitter{})

	_, err := svc.GetOrganization(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}
