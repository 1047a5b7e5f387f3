package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careaxis/clinic-api/internal/model"
	"github.com/careaxis/clinic-api/pkg/apperror"
	"github.com/careaxis/clinic-api/pkg/security"
)

type mockUserRepo struct {
	createFn                func(ctx context.Context, tx *sqlx.Tx, user *model.OrganizationUser) error
	getFn                   func(ctx context.Context, orgID, id uuid.UUID) (*model.OrganizationUser, error)
	getByEmailFn            func(ctx context.Context, orgID uuid.UUID, email string) (*model.OrganizationUser, error)
	updateFn                func(ctx context.Context, user *model.OrganizationUser) error
	deleteFn                func(ctx context.Context, orgID, id uuid.UUID) error
	listFn                  func(ctx context.Context, filters *model.OrganizationUserFilters) ([]*model.OrganizationUser, error)
	loadProfilesFn          func(ctx context.Context, user *model.OrganizationUser) error
	replaceDoctorProfileFn  func(ctx context.Context, userID uuid.UUID, profile *model.DoctorProfile) error
	replacePatientProfileFn func(ctx context.Context, userID uuid.UUID, profile *model.PatientProfile) error
	setRefreshTokenHashFn   func(ctx context.Context, id uuid.UUID, hash *string) error
}

func (m *mockUserRepo) Create(ctx context.Context, tx *sqlx.Tx, user *model.OrganizationUser) error {
	return m.createFn(ctx, tx, user)
}
func (m *mockUserRepo) Get(ctx context.Context, orgID, id uuid.UUID) (*model.OrganizationUser, error) {
	return m.getFn(ctx, orgID, id)
}
func (m *mockUserRepo) GetByEmail(ctx context.Context, orgID uuid.UUID, email string) (*model.OrganizationUser, error) {
	return m.getByEmailFn(ctx, orgID, email)
}
func (m *mockUserRepo) Update(ctx context.Context, user *model.OrganizationUser) error {
	return m.updateFn(ctx, user)
}
func (m *mockUserRepo) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	return m.deleteFn(ctx, orgID, id)
}
func (m *mockUserRepo) List(ctx context.Context, filters *model.OrganizationUserFilters) ([]*model.OrganizationUser, error) {
	return m.listFn(ctx, filters)
}
func (m *mockUserRepo) LoadProfiles(ctx context.Context, user *model.OrganizationUser) error {
	if m.loadProfilesFn == nil {
		return nil
	}
	return m.loadProfilesFn(ctx, user)
}
func (m *mockUserRepo) ReplaceDoctorProfile(ctx context.Context, userID uuid.UUID, profile *model.DoctorProfile) error {
	return m.replaceDoctorProfileFn(ctx, userID, profile)
}
func (m *mockUserRepo) ReplacePatientProfile(ctx context.Context, userID uuid.UUID, profile *model.PatientProfile) error {
	return m.replacePatientProfileFn(ctx, userID, profile)
}
func (m *mockUserRepo) SetRefreshTokenHash(ctx context.Context, id uuid.UUID, hash *string) error {
	return m.setRefreshTokenHashFn(ctx, id, hash)
}

type mockOrgRepo struct {
	getFn func(ctx context.Context, id uuid.UUID) (*model.Organization, error)
}

func (m *mockOrgRepo) Create(ctx context.Context, tx *sqlx.Tx, org *model.Organization) error {
	return nil
}
func (m *mockOrgRepo) Get(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return &model.Organization{Base: model.Base{ID: id}, Name: "Mercy Clinic"}, nil
}
func (m *mockOrgRepo) Update(ctx context.Context, org *model.Organization) error { return nil }
func (m *mockOrgRepo) Delete(ctx context.Context, id uuid.UUID) error            { return nil }
func (m *mockOrgRepo) List(ctx context.Context) ([]*model.Organization, error)   { return nil, nil }

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

func newTestService(repo *mockUserRepo) (*Service, *mockEmitter) {
	emitter := &mockEmitter{}
	// Minimum bcrypt cost keeps hashing fast in tests.
	return NewService(repo, &mockOrgRepo{}, &mockTransactor{}, security.NewBcryptHasher(4), emitter), emitter
}

func doctorRequest() *model.CreateOrganizationUserRequest {
	return &model.CreateOrganizationUserRequest{
		Email:     "Doc@Example.com",
		Password:  "str0ngpass",
		FirstName: "Dana",
		LastName:  "Reyes",
		DoctorProfile: &model.DoctorProfileInput{
			Specialization: "cardiology",
			LicenseNumber:  "LIC-1042",
		},
	}
}

func TestCreateUserDoctor(t *testing.T) {
	var created *model.OrganizationUser
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, tx *sqlx.Tx, user *model.OrganizationUser) error {
			created = user
			return nil
		},
	}
	svc, emitter := newTestService(repo)
	orgID := uuid.New()

	user, err := svc.CreateUser(context.Background(), orgID, doctorRequest())
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "doc@example.com", user.Email)
	assert.Equal(t, model.ProfileKindDoctor, user.Role())
	require.NotNil(t, user.DoctorProfile)
	assert.Equal(t, "cardiology", user.DoctorProfile.Specialization)
	assert.Nil(t, user.PatientProfileID)
	assert.Nil(t, user.AdminProfileID)
	assert.Equal(t, []string{model.EventUserCreated}, emitter.events)
}

func TestCreateUserRejectsNoProfile(t *testing.T) {
	svc, _ := newTestService(&mockUserRepo{})

	req := doctorRequest()
	req.DoctorProfile = nil
	_, err := svc.CreateUser(context.Background(), uuid.New(), req)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestCreateUserRejectsMultipleProfiles(t *testing.T) {
	svc, _ := newTestService(&mockUserRepo{})

	req := doctorRequest()
	req.PatientProfile = &model.PatientProfileInput{
		DateOfBirth: time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC),
		Phone:       "555-0101",
		Address:     "12 Elm St",
	}
	_, err := svc.CreateUser(context.Background(), uuid.New(), req)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestCreateUserRejectsAdminPlusDoctor(t *testing.T) {
	svc, _ := newTestService(&mockUserRepo{})

	req := doctorRequest()
	req.AdminProfile = &struct{}{}
	_, err := svc.CreateUser(context.Background(), uuid.New(), req)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestCreateUserRollsBackWhenEventInsertFails(t *testing.T) {
	txm := &mockTransactor{}
	emitter := &mockEmitter{err: errors.New("outbox insert failed")}
	var createTx *sqlx.Tx
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, tx *sqlx.Tx, user *model.OrganizationUser) error {
			createTx = tx
			return nil
		},
	}
	svc := NewService(repo, &mockOrgRepo{}, txm, security.NewBcryptHasher(4), emitter)

	_, err := svc.CreateUser(context.Background(), uuid.New(), doctorRequest())
	require.Error(t, err)
	assert.True(t, txm.rolledBack)
	// User rows and the event share one transaction.
	assert.Same(t, txm.tx, createTx)
	assert.Same(t, txm.tx, emitter.tx)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, tx *sqlx.Tx, user *model.OrganizationUser) error {
			return apperror.Conflict("email already in use in this organization")
		},
	}
	svc, _ := newTestService(repo)

	_, err := svc.CreateUser(context.Background(), uuid.New(), doctorRequest())
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestReplaceProfileKeepsKind(t *testing.T) {
	orgID := uuid.New()
	userID := uuid.New()
	profileID := uuid.New()
	repo := &mockUserRepo{
		getFn: func(ctx context.Context, gotOrg, gotID uuid.UUID) (*model.OrganizationUser, error) {
			return &model.OrganizationUser{
				Base:             model.Base{ID: userID},
				OrganizationID:   orgID,
				PatientProfileID: &profileID,
			}, nil
		},
	}
	svc, _ := newTestService(repo)

	// A patient cannot be turned into a doctor through a profile update.
	_, err := svc.ReplaceProfile(context.Background(), orgID, userID, &model.UpdateProfileRequest{
		DoctorProfile: &model.DoctorProfileInput{Specialization: "gp", LicenseNumber: "LIC-9"},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestReplacePatientProfile(t *testing.T) {
	orgID := uuid.New()
	userID := uuid.New()
	profileID := uuid.New()
	var replaced *model.PatientProfile
	repo := &mockUserRepo{
		getFn: func(ctx context.Context, gotOrg, gotID uuid.UUID) (*model.OrganizationUser, error) {
			return &model.OrganizationUser{
				Base:             model.Base{ID: userID},
				OrganizationID:   orgID,
				PatientProfileID: &profileID,
			}, nil
		},
		replacePatientProfileFn: func(ctx context.Context, gotID uuid.UUID, profile *model.PatientProfile) error {
			replaced = profile
			return nil
		},
	}
	svc, _ := newTestService(repo)

	_, err := svc.ReplaceProfile(context.Background(), orgID, userID, &model.UpdateProfileRequest{
		PatientProfile: &model.PatientProfileInput{
			DateOfBirth: time.Date(1984, 2, 10, 0, 0, 0, 0, time.UTC),
			Phone:       "555-0102",
			Address:     "99 Oak Ave",
			BloodType:   "O+",
		},
	})
	require.NoError(t, err)
	require.NotNil(t, replaced)
	assert.Equal(t, "O+", replaced.BloodType)
}
