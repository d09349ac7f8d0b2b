package service

import (
	"time"

	"fintrack/internal/domain"
)

const (
	maxLoginFailures   = 5
	failureDecayWindow = 2 * time.Hour
	lockoutDuration    = 30 * time.Minute
)

// LockoutGuard administra el contador de intentos fallidos y el bloqueo
// temporal sobre los campos de la cuenta.
type LockoutGuard struct{}

// Admit indica si la cuenta puede intentar autenticarse. Cuando está
// bloqueada devuelve el tiempo restante del bloqueo.
func (LockoutGuard) Admit(acct domain.Account) (time.Duration, bool) {
	until := acct.LoginAttempts.LockedUntil
	if until == nil {
		return 0, true
	}
	now := time.Now().UTC()
	if now.Before(*until) {
		return until.Sub(now), false
	}
	return 0, true
}

// RecordFailure registra un intento fallido. Los fallos con más de dos horas
// de antigüedad no cuentan; al quinto fallo consecutivo la cuenta se bloquea.
func (LockoutGuard) RecordFailure(acct *domain.Account) {
	now := time.Now().UTC()
	la := &acct.LoginAttempts
	if la.LastAttemptAt != nil && now.Sub(*la.LastAttemptAt) > failureDecayWindow {
		la.Count = 0
	}
	la.Count++
	la.LastAttemptAt = &now
	if la.Count >= maxLoginFailures {
		until := now.Add(lockoutDuration)
		la.LockedUntil = &until
	}
}

// RecordSuccess limpia el estado de fallos y marca el último login.
func (LockoutGuard) RecordSuccess(acct *domain.Account) {
	now := time.Now().UTC()
	acct.LoginAttempts.Count = 0
	acct.LoginAttempts.LastAttemptAt = nil
	acct.LoginAttempts.LockedUntil = nil
	acct.LastLoginAt = &now
}
