package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/careaxis/clinic-api/internal/model"
	"github.com/careaxis/clinic-api/internal/repository"
	"github.com/careaxis/clinic-api/pkg/apperror"
	"github.com/careaxis/clinic-api/pkg/auth"
	"github.com/careaxis/clinic-api/pkg/security"
)

// Service authenticates organization users. Central users have their
// own flow in the central service.
type Service struct {
	userRepo repository.OrganizationUserRepository
	jwtSvc   auth.JWTService
	hasher   security.PasswordHasher
}

type AuthServicer interface {
	Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error)
	Logout(ctx context.Context, orgID, userID uuid.UUID) error
}

func NewService(userRepo repository.OrganizationUserRepository, jwtSvc auth.JWTService, hasher security.PasswordHasher) *Service {
	return &Service{
		userRepo: userRepo,
		jwtSvc:   jwtSvc,
		hasher:   hasher,
	}
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.userRepo.GetByEmail(ctx, req.OrganizationID, email)
	if err != nil {
		// Same response for unknown email and wrong password.
		return nil, apperror.Authorization("invalid credentials")
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperror.Authorization("invalid credentials")
	}

	return s.issueTokens(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil || claims.Realm != auth.RealmOrganization || claims.OrganizationID == nil {
		return nil, apperror.Authorization("invalid refresh token")
	}

	user, err := s.userRepo.Get(ctx, *claims.OrganizationID, claims.UserID)
	if err != nil {
		return nil, apperror.Authorization("invalid refresh token")
	}

	// The token must match the one most recently issued. Logout and
	// rotation both invalidate older tokens.
	if user.RefreshTokenHash == nil || !tokenHashMatches(*user.RefreshTokenHash, refreshToken) {
		return nil, apperror.Authorization("invalid refresh token")
	}

	return s.issueTokens(ctx, user)
}

func (s *Service) Logout(ctx context.Context, orgID, userID uuid.UUID) error {
	if err := s.userRepo.SetRefreshTokenHash(ctx, userID, nil); err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	return nil
}

func (s *Service) issueTokens(ctx context.Context, user *model.OrganizationUser) (*model.TokenResponse, error) {
	orgID := user.OrganizationID
	claims := &auth.Claims{
		UserID:         user.ID,
		OrganizationID: &orgID,
		Email:          user.Email,
		Realm:          auth.RealmOrganization,
		Role:           string(user.Role()),
	}

	accessToken, err := s.jwtSvc.GenerateAccessToken(claims)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := s.jwtSvc.GenerateRefreshToken(claims)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	hash := HashToken(refreshToken)
	if err := s.userRepo.SetRefreshTokenHash(ctx, user.ID, &hash); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &model.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// HashToken digests a refresh token for at-rest storage. Tokens exceed
// bcrypt's input limit, so a plain SHA-256 digest is used instead.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func tokenHashMatches(stored, token string) bool {
	computed := HashToken(token)
	return subtle.ConstantTimeCompare([]byte(stored), []byte(computed)) == 1
}
