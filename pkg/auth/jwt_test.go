package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() JWTService {
	return NewJWTService(Config{
		Secret:        "access-secret",
		RefreshSecret: "refresh-secret",
		AccessExpiry:  time.Minute,
		RefreshExpiry: time.Hour,
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := newTestService()
	orgID := uuid.New()

	token, err := svc.GenerateAccessToken(&Claims{
		UserID:         uuid.New(),
		OrganizationID: &orgID,
		Email:          "doctor@clinic.test",
		Realm:          RealmOrganization,
		Role:           "doctor",
	})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "doctor@clinic.test", claims.Email)
	assert.Equal(t, RealmOrganization, claims.Realm)
	assert.Equal(t, "doctor", claims.Role)
	require.NotNil(t, claims.OrganizationID)
	assert.Equal(t, orgID, *claims.OrganizationID)
}

func TestRefreshSecretIsNotAccessSecret(t *testing.T) {
	svc := newTestService()

	refresh, err := svc.GenerateRefreshToken(&Claims{
		UserID: uuid.New(),
		Email:  "admin@platform.test",
		Realm:  RealmCentral,
	})
	require.NoError(t, err)

	// A refresh token must not validate as an access token.
	_, err = svc.ValidateToken(refresh)
	assert.Error(t, err)

	claims, err := svc.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, RealmCentral, claims.Realm)
	assert.Nil(t, claims.OrganizationID)
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := NewJWTService(Config{
		Secret:        "access-secret",
		RefreshSecret: "refresh-secret",
		AccessExpiry:  -time.Minute,
	})

	token, err := svc.GenerateAccessToken(&Claims{UserID: uuid.New(), Realm: RealmCentral})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}
