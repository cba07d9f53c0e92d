package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity describes the authenticated user held by a session.
type Identity struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Name  string   `json:"name"`
	Role  UserRole `json:"role"`
}

// RequestMeta carries client details recorded in audit logs.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordRecoveryRequest starts the password recovery flow.
type PasswordRecoveryRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetRequest completes the password recovery flow.
type PasswordResetRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// PasswordResetToken records an issued reset token so it can be used once.
type PasswordResetToken struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	UsedAt    *time.Time `db:"used_at" json:"used_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// PasswordResetClaims is the signed payload of a reset link.
type PasswordResetClaims struct {
	UserID  string `json:"user_id"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// PasswordResetPurpose tags reset tokens so no other signed token can be replayed as one.
const PasswordResetPurpose = "password_reset"
