package central

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/careaxis/clinic-api/internal/email"
	"github.com/careaxis/clinic-api/internal/model"
	"github.com/careaxis/clinic-api/internal/repository"
	authsvc "github.com/careaxis/clinic-api/internal/service/auth"
	"github.com/careaxis/clinic-api/pkg/apperror"
	"github.com/careaxis/clinic-api/pkg/auth"
	"github.com/careaxis/clinic-api/pkg/logger"
	"github.com/careaxis/clinic-api/pkg/security"
)

const verificationTokenExpiry = 24 * time.Hour

// Service covers the central realm: operator accounts with email
// verification and token issuance for organization provisioning.
type Service struct {
	repo      repository.CentralUserRepository
	tokenRepo repository.TokenRepository
	jwtSvc    auth.JWTService
	hasher    security.PasswordHasher
	emailSvc  email.Service
	logger    *logger.Logger
}

type CentralServicer interface {
	Register(ctx context.Context, req *model.RegisterCentralUserRequest) (*model.CentralUser, error)
	VerifyEmail(ctx context.Context, token string) error
	Login(ctx context.Context, req *model.CentralLoginRequest) (*model.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error)
}

func NewService(repo repository.CentralUserRepository, tokenRepo repository.TokenRepository, jwtSvc auth.JWTService, hasher security.PasswordHasher, emailSvc email.Service, logger *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		tokenRepo: tokenRepo,
		jwtSvc:    jwtSvc,
		hasher:    hasher,
		emailSvc:  emailSvc,
		logger:    logger,
	}
}

func (s *Service) Register(ctx context.Context, req *model.RegisterCentralUserRequest) (*model.CentralUser, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperror.Validation("password does not meet requirements")
	}

	now := time.Now()
	user := &model.CentralUser{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create central user: %w", err)
	}

	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification token: %w", err)
	}
	if err := s.tokenRepo.StoreVerificationToken(ctx, user.ID, token, now.Add(verificationTokenExpiry)); err != nil {
		return nil, fmt.Errorf("failed to store verification token: %w", err)
	}

	// Registration succeeds even if the mail provider is down; the
	// token stays valid and the mail can be resent.
	if err := s.emailSvc.SendVerificationEmail(user.Email, user.Name, token); err != nil {
		s.logger.Error(err, "failed to send verification email")
	}

	return user, nil
}

func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	userID, err := s.tokenRepo.ValidateVerificationToken(ctx, token)
	if err != nil {
		return apperror.Validation("invalid or expired verification token")
	}

	if err := s.repo.SetVerified(ctx, userID, true); err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}
	if err := s.tokenRepo.InvalidateVerificationToken(ctx, token); err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}
	return nil
}

func (s *Service) Login(ctx context.Context, req *model.CentralLoginRequest) (*model.TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.Authorization("invalid credentials")
	}
	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperror.Authorization("invalid credentials")
	}
	if !user.IsVerified {
		return nil, apperror.Authorization("email not verified")
	}

	return s.issueTokens(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil || claims.Realm != auth.RealmCentral {
		return nil, apperror.Authorization("invalid refresh token")
	}

	user, err := s.repo.Get(ctx, claims.UserID)
	if err != nil {
		return nil, apperror.Authorization("invalid refresh token")
	}
	if user.RefreshTokenHash == nil || *user.RefreshTokenHash != authsvc.HashToken(refreshToken) {
		return nil, apperror.Authorization("invalid refresh token")
	}

	return s.issueTokens(ctx, user)
}

func (s *Service) issueTokens(ctx context.Context, user *model.CentralUser) (*model.TokenResponse, error) {
	claims := &auth.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Realm:  auth.RealmCentral,
	}

	accessToken, err := s.jwtSvc.GenerateAccessToken(claims)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := s.jwtSvc.GenerateRefreshToken(claims)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	hash := authsvc.HashToken(refreshToken)
	if err := s.repo.SetRefreshTokenHash(ctx, user.ID, &hash); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &model.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
