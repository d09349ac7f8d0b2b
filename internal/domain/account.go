package domain

import "time"

// AccountStatus representa el estado de ciclo de vida de una cuenta.
type AccountStatus string

const (
	StatusActive    AccountStatus = "active"
	StatusInactive  AccountStatus = "inactive"
	StatusSuspended AccountStatus = "suspended"
	StatusDeleted   AccountStatus = "deleted"
)

// LoginAttempts acumula el estado de intentos fallidos y bloqueo temporal.
type LoginAttempts struct {
	Count         int        `json:"count"`
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
	LockedUntil   *time.Time `json:"locked_until,omitempty"`
}

// Account es la entidad de credenciales; solo el subsistema de auth la muta.
type Account struct {
	ID                          string        `json:"id"`
	Email                       string        `json:"email"`
	Name                        string        `json:"name"`
	PasswordHash                string        `json:"-"`
	Status                      AccountStatus `json:"status"`
	LoginAttempts               LoginAttempts `json:"-"`
	LastLoginAt                 *time.Time    `json:"last_login_at,omitempty"`
	PasswordResetSecretHash     string        `json:"-"`
	PasswordResetExpiresAt      *time.Time    `json:"-"`
	EmailVerificationSecretHash string        `json:"-"`
	EmailVerificationExpiresAt  *time.Time    `json:"-"`
	IsEmailVerified             bool          `json:"is_email_verified"`
	CreatedAt                   time.Time     `json:"created_at"`
}
