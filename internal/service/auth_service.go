package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"fintrack/internal/domain"
	"fintrack/internal/email"
	"fintrack/internal/repository"
)

// AuthService orquesta registro, login, refresh y los flujos de secretos de
// un solo uso, componiendo hasher, lockout, tokens y el repositorio de
// cuentas.
type AuthService struct {
	logger      *zap.Logger
	accounts    repository.AccountRepository
	hasher      PasswordHasher
	lockout     LockoutGuard
	secrets     SecretTokenManager
	tokens      *TokenService
	emailSender email.Sender
	mailLimiter MailRateLimiter
}

func NewAuthService(logger *zap.Logger, accounts repository.AccountRepository, hasher PasswordHasher, tokens *TokenService, emailSender email.Sender, mailLimiter MailRateLimiter) *AuthService {
	if mailLimiter == nil {
		mailLimiter = NewMailRateLimiter(10*time.Minute, 3)
	}
	return &AuthService{
		logger:      logger,
		accounts:    accounts,
		hasher:      hasher,
		tokens:      tokens,
		emailSender: emailSender,
		mailLimiter: mailLimiter,
	}
}

var (
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("password must be at least 8 characters with an uppercase letter, a digit and a symbol")
	ErrInvalidName        = errors.New("name must be between 2 and 50 characters")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account temporarily locked")
	ErrRateLimited        = errors.New("rate limited")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Register valida entrada, hashea la contraseña y crea la cuenta. Deja
// pendiente un secreto de verificación de email y lo envía best-effort.
func (s *AuthService) Register(ctx context.Context, emailAddr, password, name string) (domain.Account, error) {
	if s.accounts == nil {
		return domain.Account{}, errors.New("auth service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	// La contraseña se recorta igual que en Login: un espacio accidental al
	// pegar no debe producir una cuenta a la que nunca se puede entrar.
	password = strings.TrimSpace(password)
	name = strings.TrimSpace(name)
	if !emailPattern.MatchString(emailAddr) {
		return domain.Account{}, ErrInvalidEmail
	}
	if !isValidPassword(password) {
		return domain.Account{}, ErrWeakPassword
	}
	if n := utf8.RuneCountInString(name); n < 2 || n > 50 {
		return domain.Account{}, ErrInvalidName
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return domain.Account{}, err
	}

	acct := domain.Account{
		ID:           uuid.NewString(),
		Email:        emailAddr,
		Name:         name,
		PasswordHash: hash,
		Status:       domain.StatusActive,
		CreatedAt:    time.Now().UTC(),
	}

	rawSecret, err := s.secrets.IssueEmailVerification(&acct)
	if err != nil {
		return domain.Account{}, err
	}

	if err := s.accounts.Create(ctx, acct); err != nil {
		return domain.Account{}, err
	}

	if s.emailSender != nil && acct.EmailVerificationExpiresAt != nil {
		if err := s.emailSender.SendEmailVerification(ctx, emailAddr, rawSecret, *acct.EmailVerificationExpiresAt); err != nil {
			s.logger.Warn("send verification email failed", zap.Error(err), zap.String("email", emailAddr))
		}
	}

	return acct, nil
}

// Login autentica email y contraseña aplicando el control de bloqueo. Las
// mutaciones del contador se persisten aunque el intento falle.
func (s *AuthService) Login(ctx context.Context, emailAddr, password string) (domain.Account, error) {
	if s.accounts == nil {
		return domain.Account{}, errors.New("auth service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	password = strings.TrimSpace(password)
	if emailAddr == "" || password == "" {
		return domain.Account{}, ErrInvalidCredentials
	}

	acct, err := s.accounts.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Misma respuesta que una contraseña incorrecta.
			return domain.Account{}, ErrInvalidCredentials
		}
		return domain.Account{}, err
	}

	if retryAfter, ok := s.lockout.Admit(acct); !ok {
		s.logger.Warn("login denied: account locked",
			zap.String("account_id", acct.ID),
			zap.Duration("retry_after", retryAfter),
		)
		return domain.Account{}, ErrAccountLocked
	}

	if acct.Status != domain.StatusActive {
		s.logger.Info("login denied: account not active",
			zap.String("account_id", acct.ID),
			zap.String("status", string(acct.Status)),
		)
		return domain.Account{}, ErrInvalidCredentials
	}

	if !s.hasher.Verify(password, acct.PasswordHash) {
		s.lockout.RecordFailure(&acct)
		if err := s.accounts.Save(ctx, acct); err != nil {
			s.logger.Warn("persist failed attempt", zap.Error(err), zap.String("account_id", acct.ID))
		}
		s.logger.Warn("login failed: bad password",
			zap.String("account_id", acct.ID),
			zap.Bool("locked", acct.LoginAttempts.LockedUntil != nil),
		)
		return domain.Account{}, ErrInvalidCredentials
	}

	s.lockout.RecordSuccess(&acct)
	if err := s.accounts.Save(ctx, acct); err != nil {
		s.logger.Warn("persist successful login", zap.Error(err), zap.String("account_id", acct.ID))
	}

	return acct, nil
}

// Refresh valida un refresh token y devuelve la cuenta si sigue activa y sin
// bloqueo. El refresh token no rota; el caller emite solo un access nuevo.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.Account, error) {
	if s.accounts == nil || s.tokens == nil {
		return domain.Account{}, errors.New("auth service not configured")
	}

	claims, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return domain.Account{}, err
	}

	acct, err := s.accounts.GetByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Account{}, ErrTokenInvalid
		}
		return domain.Account{}, err
	}
	if acct.Status != domain.StatusActive {
		return domain.Account{}, ErrTokenInvalid
	}
	if _, ok := s.lockout.Admit(acct); !ok {
		return domain.Account{}, ErrAccountLocked
	}
	return acct, nil
}

// RequestPasswordReset emite un secreto de reset y lo envía por correo. Para
// un email desconocido responde éxito sin enviar nada.
func (s *AuthService) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	if s.accounts == nil {
		return errors.New("auth service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return ErrInvalidEmail
	}
	if s.mailLimiter != nil && !s.mailLimiter.Allow(emailAddr) {
		return ErrRateLimited
	}

	acct, err := s.accounts.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}
	if acct.Status != domain.StatusActive {
		return nil
	}

	rawSecret, err := s.secrets.IssuePasswordReset(&acct)
	if err != nil {
		return err
	}
	if err := s.accounts.Save(ctx, acct); err != nil {
		return err
	}

	s.logger.Info("password reset issued", zap.String("account_id", acct.ID))

	// El envío es best-effort: un fallo del correo no puede cambiar la
	// respuesta, o distinguiría emails registrados de desconocidos.
	if s.emailSender != nil {
		if err := s.emailSender.SendPasswordReset(ctx, emailAddr, rawSecret, *acct.PasswordResetExpiresAt); err != nil {
			s.logger.Warn("send reset email failed", zap.Error(err), zap.String("email", emailAddr))
		}
	}
	return nil
}

// ResetPassword consume el secreto de reset y cambia la contraseña. También
// limpia el estado de bloqueo: el dueño acaba de probar control del correo.
func (s *AuthService) ResetPassword(ctx context.Context, emailAddr, rawSecret, newPassword string) error {
	if s.accounts == nil {
		return errors.New("auth service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	newPassword = strings.TrimSpace(newPassword)
	if emailAddr == "" {
		return ErrInvalidEmail
	}
	if !isValidPassword(newPassword) {
		return ErrWeakPassword
	}

	acct, err := s.accounts.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSecretInvalid
		}
		return err
	}

	if err := s.secrets.Consume(&acct, rawSecret, SecretPasswordReset); err != nil {
		if errors.Is(err, ErrSecretExpired) {
			// Campos ya limpiados por Consume; persistir la limpieza.
			if saveErr := s.accounts.Save(ctx, acct); saveErr != nil {
				s.logger.Warn("persist expired reset secret", zap.Error(saveErr), zap.String("account_id", acct.ID))
			}
		}
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	acct.PasswordHash = hash
	acct.LoginAttempts.Count = 0
	acct.LoginAttempts.LastAttemptAt = nil
	acct.LoginAttempts.LockedUntil = nil

	if err := s.accounts.Save(ctx, acct); err != nil {
		return err
	}
	s.logger.Info("password reset consumed", zap.String("account_id", acct.ID))
	return nil
}

// RequestEmailVerification emite un secreto de verificación y lo envía.
func (s *AuthService) RequestEmailVerification(ctx context.Context, emailAddr string) error {
	if s.accounts == nil {
		return errors.New("auth service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return ErrInvalidEmail
	}
	if s.mailLimiter != nil && !s.mailLimiter.Allow(emailAddr) {
		return ErrRateLimited
	}

	acct, err := s.accounts.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}
	if acct.Status != domain.StatusActive || acct.IsEmailVerified {
		return nil
	}

	rawSecret, err := s.secrets.IssueEmailVerification(&acct)
	if err != nil {
		return err
	}
	if err := s.accounts.Save(ctx, acct); err != nil {
		return err
	}

	// Best-effort, igual que el reset: la respuesta no depende del correo.
	if s.emailSender != nil {
		if err := s.emailSender.SendEmailVerification(ctx, emailAddr, rawSecret, *acct.EmailVerificationExpiresAt); err != nil {
			s.logger.Warn("send verification email failed", zap.Error(err), zap.String("email", emailAddr))
		}
	}
	return nil
}

// ConfirmEmailVerification consume el secreto y marca el email verificado.
func (s *AuthService) ConfirmEmailVerification(ctx context.Context, emailAddr, rawSecret string) error {
	if s.accounts == nil {
		return errors.New("auth service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return ErrInvalidEmail
	}

	acct, err := s.accounts.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSecretInvalid
		}
		return err
	}

	if err := s.secrets.Consume(&acct, rawSecret, SecretEmailVerification); err != nil {
		if errors.Is(err, ErrSecretExpired) {
			if saveErr := s.accounts.Save(ctx, acct); saveErr != nil {
				s.logger.Warn("persist expired verification secret", zap.Error(saveErr), zap.String("account_id", acct.ID))
			}
		}
		return err
	}

	acct.IsEmailVerified = true
	if err := s.accounts.Save(ctx, acct); err != nil {
		return err
	}
	s.logger.Info("email verified", zap.String("account_id", acct.ID))
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// isValidPassword exige mínimo 8 caracteres con mayúscula, dígito y símbolo.
func isValidPassword(password string) bool {
	if utf8.RuneCountInString(password) < 8 {
		return false
	}
	var hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasDigit && hasSymbol
}
