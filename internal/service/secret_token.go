package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"time"

	"fintrack/internal/domain"
)

// SecretKind identifica la clase de secreto de un solo uso.
type SecretKind string

const (
	SecretPasswordReset     SecretKind = "password_reset"
	SecretEmailVerification SecretKind = "email_verification"
)

const (
	passwordResetTTL     = 10 * time.Minute
	emailVerificationTTL = 24 * time.Hour
)

var (
	ErrSecretInvalid = errors.New("secret invalid")
	ErrSecretExpired = errors.New("secret expired")
)

// SecretTokenManager emite y consume secretos de un solo uso para reset de
// contraseña y verificación de email. Solo el sha256 del secreto se guarda
// en la cuenta; el valor crudo viaja fuera de banda.
type SecretTokenManager struct{}

// IssuePasswordReset genera un secreto de reset y deja su digest y expiración
// en la cuenta. El caller persiste y entrega el valor crudo.
func (SecretTokenManager) IssuePasswordReset(acct *domain.Account) (string, error) {
	raw, digest, err := newSecret()
	if err != nil {
		return "", err
	}
	expiresAt := time.Now().UTC().Add(passwordResetTTL)
	acct.PasswordResetSecretHash = digest
	acct.PasswordResetExpiresAt = &expiresAt
	return raw, nil
}

// IssueEmailVerification genera un secreto de verificación de email.
func (SecretTokenManager) IssueEmailVerification(acct *domain.Account) (string, error) {
	raw, digest, err := newSecret()
	if err != nil {
		return "", err
	}
	expiresAt := time.Now().UTC().Add(emailVerificationTTL)
	acct.EmailVerificationSecretHash = digest
	acct.EmailVerificationExpiresAt = &expiresAt
	return raw, nil
}

// Consume valida el secreto crudo contra el digest guardado. Tanto el consumo
// exitoso como la expiración limpian los campos; el mismo valor crudo no
// puede consumirse dos veces. El caller debe persistir la cuenta.
func (m SecretTokenManager) Consume(acct *domain.Account, rawSecret string, kind SecretKind) error {
	var storedHash string
	var expiresAt *time.Time
	switch kind {
	case SecretPasswordReset:
		storedHash = acct.PasswordResetSecretHash
		expiresAt = acct.PasswordResetExpiresAt
	case SecretEmailVerification:
		storedHash = acct.EmailVerificationSecretHash
		expiresAt = acct.EmailVerificationExpiresAt
	default:
		return ErrSecretInvalid
	}

	if storedHash == "" || expiresAt == nil || rawSecret == "" {
		return ErrSecretInvalid
	}
	if subtle.ConstantTimeCompare([]byte(digestSecret(rawSecret)), []byte(storedHash)) != 1 {
		return ErrSecretInvalid
	}
	if time.Now().UTC().After(*expiresAt) {
		m.clear(acct, kind)
		return ErrSecretExpired
	}
	m.clear(acct, kind)
	return nil
}

func (SecretTokenManager) clear(acct *domain.Account, kind SecretKind) {
	switch kind {
	case SecretPasswordReset:
		acct.PasswordResetSecretHash = ""
		acct.PasswordResetExpiresAt = nil
	case SecretEmailVerification:
		acct.EmailVerificationSecretHash = ""
		acct.EmailVerificationExpiresAt = nil
	}
}

// newSecret devuelve un secreto de 256 bits en base64url y su sha256 en hex.
func newSecret() (string, string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	raw := base64.RawURLEncoding.EncodeToString(buf)
	return raw, digestSecret(raw), nil
}

func digestSecret(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
