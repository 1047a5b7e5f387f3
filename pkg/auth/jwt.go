package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Realm separates the two authentication domains of the platform.
const (
	RealmCentral      = "central"
	RealmOrganization = "organization"
)

// Claims carried by both access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
	UserID         uuid.UUID  `json:"user_id"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
	Email          string     `json:"email"`
	Realm          string     `json:"realm"`
	Role           string     `json:"role,omitempty"`
}

// Config holds signing keys and token lifetimes.
type Config struct {
	Secret        string        `yaml:"secret"`
	RefreshSecret string        `yaml:"refresh_secret"`
	AccessExpiry  time.Duration `yaml:"access_expiry"`
	RefreshExpiry time.Duration `yaml:"refresh_expiry"`
}

// JWTService issues and validates platform tokens.
type JWTService interface {
	GenerateAccessToken(claims *Claims) (string, error)
	GenerateRefreshToken(claims *Claims) (string, error)
	ValidateToken(token string) (*Claims, error)
	ValidateRefreshToken(token string) (*Claims, error)
}

type jwtService struct {
	cfg Config
}

func NewJWTService(cfg Config) JWTService {
	if cfg.AccessExpiry == 0 {
		cfg.AccessExpiry = 15 * time.Minute
	}
	if cfg.RefreshExpiry == 0 {
		cfg.RefreshExpiry = 7 * 24 * time.Hour
	}
	return &jwtService{cfg: cfg}
}

func (s *jwtService) GenerateAccessToken(claims *Claims) (string, error) {
	return s.sign(claims, s.cfg.AccessExpiry, s.cfg.Secret)
}

func (s *jwtService) GenerateRefreshToken(claims *Claims) (string, error) {
	return s.sign(claims, s.cfg.RefreshExpiry, s.cfg.RefreshSecret)
}

func (s *jwtService) ValidateToken(token string) (*Claims, error) {
	return s.parse(token, s.cfg.Secret)
}

func (s *jwtService) ValidateRefreshToken(token string) (*Claims, error) {
	return s.parse(token, s.cfg.RefreshSecret)
}

func (s *jwtService) sign(claims *Claims, expiry time.Duration, secret string) (string, error) {
	now := time.Now()
	c := *claims
	c.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.UserID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &c)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *jwtService) parse(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
