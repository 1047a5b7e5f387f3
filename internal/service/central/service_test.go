package central

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careaxis/clinic-api/internal/email"
	"github.com/careaxis/clinic-api/internal/model"
	"github.com/careaxis/clinic-api/pkg/apperror"
	"github.com/careaxis/clinic-api/pkg/auth"
	"github.com/careaxis/clinic-api/pkg/logger"
	"github.com/careaxis/clinic-api/pkg/security"
)

type mockCentralRepo struct {
	users map[uuid.UUID]*model.CentralUser
}

func newMockCentralRepo() *mockCentralRepo {
	return &mockCentralRepo{users: make(map[uuid.UUID]*model.CentralUser)}
}

func (m *mockCentralRepo) Create(ctx context.Context, user *model.CentralUser) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return apperror.Conflict("email already registered")
		}
		if u.Name == user.Name {
			return apperror.Conflict("name already registered")
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockCentralRepo) Get(ctx context.Context, id uuid.UUID) (*model.CentralUser, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user")
	}
	return u, nil
}

func (m *mockCentralRepo) GetByEmail(ctx context.Context, email string) (*model.CentralUser, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperror.NotFound("user")
}

func (m *mockCentralRepo) Update(ctx context.Context, user *model.CentralUser) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockCentralRepo) SetVerified(ctx context.Context, id uuid.UUID, verified bool) error {
	u, ok := m.users[id]
	if !ok {
		return apperror.NotFound("user")
	}
	u.IsVerified = verified
	return nil
}

func (m *mockCentralRepo) SetRefreshTokenHash(ctx context.Context, id uuid.UUID, hash *string) error {
	u, ok := m.users[id]
	if !ok {
		return apperror.NotFound("user")
	}
	u.RefreshTokenHash = hash
	return nil
}

type mockTokenRepo struct {
	tokens map[string]uuid.UUID
}

func newMockTokenRepo() *mockTokenRepo {
	return &mockTokenRepo{tokens: make(map[string]uuid.UUID)}
}

func (m *mockTokenRepo) StoreVerificationToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error {
	m.tokens[token] = userID
	return nil
}

func (m *mockTokenRepo) ValidateVerificationToken(ctx context.Context, token string) (uuid.UUID, error) {
	id, ok := m.tokens[token]
	if !ok {
		return uuid.Nil, apperror.NotFound("token")
	}
	return id, nil
}

func (m *mockTokenRepo) InvalidateVerificationToken(ctx context.Context, token string) error {
	delete(m.tokens, token)
	return nil
}

type capturingEmail struct {
	to    string
	token string
}

func (c *capturingEmail) SendVerificationEmail(to, name, token string) error {
	c.to = to
	c.token = token
	return nil
}

func newTestService() (*Service, *mockCentralRepo, *mockTokenRepo, *capturingEmail) {
	repo := newMockCentralRepo()
	tokenRepo := newMockTokenRepo()
	mail := &capturingEmail{}
	svc := NewService(
		repo,
		tokenRepo,
		auth.NewJWTService(auth.Config{Secret: "central-access", RefreshSecret: "central-refresh"}),
		security.NewBcryptHasher(4),
		mail,
		logger.NewLogger(nil),
	)
	return svc, repo, tokenRepo, mail
}

func registerRequest() *model.RegisterCentralUserRequest {
	return &model.RegisterCentralUserRequest{
		Email:    "Ops@Example.com",
		Name:     "platform-ops",
		Password: "str0ngpass",
	}
}

func TestRegisterSendsVerification(t *testing.T) {
	svc, _, _, mail := newTestService()

	user, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", user.Email)
	assert.False(t, user.IsVerified)
	assert.Equal(t, "ops@example.com", mail.to)
	assert.NotEmpty(t, mail.token)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), registerRequest())
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestLoginRequiresVerifiedEmail(t *testing.T) {
	svc, _, _, mail := newTestService()

	_, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), &model.CentralLoginRequest{
		Email:    "ops@example.com",
		Password: "str0ngpass",
	})
	require.Error(t, err)
	assert.True(t, apperror.IsAuthorization(err))

	require.NoError(t, svc.VerifyEmail(context.Background(), mail.token))

	tokens, err := svc.Login(context.Background(), &model.CentralLoginRequest{
		Email:    "ops@example.com",
		Password: "str0ngpass",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
}

func TestVerifyEmailInvalidToken(t *testing.T) {
	svc, _, _, _ := newTestService()

	err := svc.VerifyEmail(context.Background(), "bogus")
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestVerificationTokenSingleUse(t *testing.T) {
	svc, _, _, mail := newTestService()

	_, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	require.NoError(t, svc.VerifyEmail(context.Background(), mail.token))
	err = svc.VerifyEmail(context.Background(), mail.token)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestCentralRefresh(t *testing.T) {
	svc, _, _, mail := newTestService()

	_, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)
	require.NoError(t, svc.VerifyEmail(context.Background(), mail.token))

	tokens, err := svc.Login(context.Background(), &model.CentralLoginRequest{
		Email:    "ops@example.com",
		Password: "str0ngpass",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	claims, err := auth.NewJWTService(auth.Config{Secret: "central-access"}).ValidateToken(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, auth.RealmCentral, claims.Realm)
	assert.Nil(t, claims.OrganizationID)
}

var _ email.Service = (*capturingEmail)(nil)
