package model

// CentralUser is a platform operator, distinct from any organization's
// users. Central users provision organizations.
type CentralUser struct {
	Base
	Email            string  `json:"email" db:"email"`
	Name             string  `json:"name" db:"name"`
	PasswordHash     string  `json:"-" db:"password_hash"`
	IsVerified       bool    `json:"is_verified" db:"is_verified"`
	RefreshTokenHash *string `json:"-" db:"refresh_token_hash"`
}

type RegisterCentralUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required,min=3"`
	Password string `json:"password" binding:"required,min=8"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}
