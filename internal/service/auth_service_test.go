package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/domain"
	"fintrack/internal/repository"
)

type mockAccountRepo struct {
	byID    map[string]domain.Account
	byEmail map[string]string
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{
		byID:    make(map[string]domain.Account),
		byEmail: make(map[string]string),
	}
}

func (m *mockAccountRepo) Create(_ context.Context, acct domain.Account) error {
	if _, exists := m.byEmail[acct.Email]; exists {
		return repository.ErrDuplicateAccount
	}
	m.byID[acct.ID] = acct
	m.byEmail[acct.Email] = acct.ID
	return nil
}

func (m *mockAccountRepo) GetByID(_ context.Context, id string) (domain.Account, error) {
	acct, ok := m.byID[id]
	if !ok {
		return domain.Account{}, pgx.ErrNoRows
	}
	return acct, nil
}

func (m *mockAccountRepo) GetByEmail(_ context.Context, email string) (domain.Account, error) {
	id, ok := m.byEmail[email]
	if !ok {
		return domain.Account{}, pgx.ErrNoRows
	}
	return m.GetByID(context.Background(), id)
}

func (m *mockAccountRepo) Save(_ context.Context, acct domain.Account) error {
	if _, ok := m.byID[acct.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.byID[acct.ID] = acct
	return nil
}

type mockSecuritySender struct {
	lastResetTo       string
	lastResetSecret   string
	lastResetExpires  time.Time
	lastVerifyTo      string
	lastVerifySecret  string
	lastVerifyExpires time.Time
	err               error
}

func (m *mockSecuritySender) SendPasswordReset(_ context.Context, toEmail, secret string, expiresAt time.Time) error {
	m.lastResetTo = toEmail
	m.lastResetSecret = secret
	m.lastResetExpires = expiresAt
	return m.err
}

func (m *mockSecuritySender) SendEmailVerification(_ context.Context, toEmail, secret string, expiresAt time.Time) error {
	m.lastVerifyTo = toEmail
	m.lastVerifySecret = secret
	m.lastVerifyExpires = expiresAt
	return m.err
}

func newTestAuthService(repo *mockAccountRepo, sender *mockSecuritySender) *AuthService {
	tokens := NewTokenService("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	return NewAuthService(zap.NewNop(), repo, NewPasswordHasher(bcrypt.MinCost), tokens, sender, nil)
}

func TestAuthServiceRegister(t *testing.T) {
	repo := newMockAccountRepo()
	sender := &mockSecuritySender{}
	svc := newTestAuthService(repo, sender)

	acct, err := svc.Register(context.Background(), "a@b.com", "Aa1!aaaa", "A B")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if acct.PasswordHash == "" {
		t.Fatalf("expected password hash set")
	}
	if acct.PasswordHash == "Aa1!aaaa" {
		t.Fatalf("hash must not equal plaintext")
	}
	if acct.Status != domain.StatusActive {
		t.Fatalf("expected active status, got %s", acct.Status)
	}
	if sender.lastVerifyTo != "a@b.com" || sender.lastVerifySecret == "" {
		t.Fatalf("expected verification email to be sent")
	}

	stored, err := repo.GetByEmail(context.Background(), "a@b.com")
	if err != nil {
		t.Fatalf("expected account stored, got %v", err)
	}
	if stored.EmailVerificationSecretHash == "" || stored.EmailVerificationExpiresAt == nil {
		t.Fatalf("expected pending verification secret")
	}
}

func TestAuthServiceRegister_Validation(t *testing.T) {
	svc := newTestAuthService(newMockAccountRepo(), &mockSecuritySender{})
	ctx := context.Background()

	cases := []struct {
		name     string
		email    string
		password string
		userName string
		want     error
	}{
		{"bad email", "not-an-email", "Aa1!aaaa", "A B", ErrInvalidEmail},
		{"short password", "a@b.com", "Aa1!a", "A B", ErrWeakPassword},
		{"no uppercase", "a@b.com", "aa1!aaaa", "A B", ErrWeakPassword},
		{"no digit", "a@b.com", "Aaa!aaaa", "A B", ErrWeakPassword},
		{"no symbol", "a@b.com", "Aa1aaaaa", "A B", ErrWeakPassword},
		{"short name", "a@b.com", "Aa1!aaaa", "A", ErrInvalidName},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tc.email, tc.password, tc.userName); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestAuthServiceRegister_Duplicate(t *testing.T) {
	svc := newTestAuthService(newMockAccountRepo(), &mockSecuritySender{})
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@b.com", "Aa1!aaaa", "A B"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, "A@B.com ", "Aa1!aaaa", "A B"); !errors.Is(err, repository.ErrDuplicateAccount) {
		t.Fatalf("expected duplicate, got %v", err)
	}
}

func TestAuthServiceLogin_Success(t *testing.T) {
	repo := newMockAccountRepo()
	svc := newTestAuthService(repo, &mockSecuritySender{})
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@b.com", "Aa1!aaaa", "A B"); err != nil {
		t.Fatalf("register: %v", err)
	}

	acct, err := svc.Login(ctx, "a@b.com", "Aa1!aaaa")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if acct.LastLoginAt == nil {
		t.Fatalf("expected last login set")
	}

	stored, _ := repo.GetByEmail(ctx, "a@b.com")
	if stored.LoginAttempts.Count != 0 {
		t.Fatalf("expected counter reset, got %d", stored.LoginAttempts.Count)
	}
}

func TestAuthServiceLogin_PasswordWithWhitespace(t *testing.T) {
	repo := newMockAccountRepo()
	svc := newTestAuthService(repo, &mockSecuritySender{})
	ctx := context.Background()

	// Registro y login recortan por igual: el mismo string con espacio
	// accidental debe entrar siempre.
	if _, err := svc.Register(ctx, "a@b.com", "Aa1!aaaa ", "A B"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Login(ctx, "a@b.com", "Aa1!aaaa "); err != nil {
		t.Fatalf("login with the exact registered password failed: %v", err)
	}
	if _, err := svc.Login(ctx, "a@b.com", "Aa1!aaaa"); err != nil {
		t.Fatalf("login with the trimmed password failed: %v", err)
	}

	stored, _ := repo.GetByEmail(ctx, "a@b.com")
	if stored.LoginAttempts.Count != 0 {
		t.Fatalf("expected no failed attempts, got %d", stored.LoginAttempts.Count)
	}
}

func TestAuthServiceResetPassword_TrimsLikeLogin(t *testing.T) {
	repo := newMockAccountRepo()
	sender := &mockSecuritySender{}
	svc := newTestAuthService(repo, sender)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@b.com", "Aa1!aaaa", "A B"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.RequestPasswordReset(ctx, "a@b.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if err := svc.ResetPassword(ctx, "a@b.com", sender.lastResetSecret, " Bb2@bbbb "); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := svc.Login(ctx, "a@b.com", "Bb2@bbbb"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}

func TestAuthServiceLogin_UnknownEmail(t *testing.T) {
	svc := newTestAuthService(newMockAccountRepo(), &mockSecuritySender{})

	if _, err := svc.Login(context.Background(), "ghost@b.com", "Aa1!aaaa"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestAuthServiceLogin_LockoutAfterFiveFailures(t *testing.T) {
	repo := newMockAccountRepo()
	svc := newTestAuthService(repo, &mockSecuritySender{})
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@b.com", "Aa1!aaaa", "A B"); err != nil {
		t.Fatalf("register: %v", err)
	}

	for i := 1; i <= 5; i++ {
		if _, err := svc.Login(ctx, "a@b.com", "Wrong1!aaaa"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected invalid credentials, got %v", i, err)
		}
	}

	// El sexto intento se rechaza aunque la contraseña sea correcta.
	if _, err := svc.Login(ctx, "a@b.com", "Aa1!aaaa"); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected account locked, got %v", err)
	}

	stored, _ := repo.GetByEmail(ctx, "a@b.com")
	if stored.LoginAttempts.Count != 5 {
		t.Fatalf("expected count 5, got %d", stored.LoginAttempts.Count)
	}
	if stored.LoginAttempts.LockedUntil == nil {
		t.Fatalf("expected lock persisted")
	}
}

func TestAuthServiceLogin_AfterLockExpires(t *testing.T) {
	repo := newMockAccountRepo()
	svc := newTestAuthService(repo, &mockSecuritySender{})
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@b.com", "Aa1!aaaa", "A B"); err != nil {
		t.Fatalf("register: %v", err)
	}

	stored, _ := repo.GetByEmail(ctx, "a@b.com")
	past := time.Now().UTC().Add(-time.Minute)
	recent := time.Now().UTC().Add(-40 * time.Minute)
	stored.LoginAttempts.Count = 5
	stored.LoginAttempts.LastAttemptAt = &recent
	stored.LoginAttempts.LockedUntil = &past
	if err := repo.Save(ctx, stored); err != nil {
		t.Fatalf("save: %v", err)
	}

	acct, err := svc.Login(ctx, "a@b.com", "Aa1!aaaa")
	if err != nil {
		t.Fatalf("expected login after lock expiry, got %v", err)
	}
	if acct.LoginAttempts.Count != 0 {
		t.Fatalf("expected counter reset, got %d", acct.LoginAttempts.Count)
	}
}

func TestAuthServiceLogin_InactiveAccount(t *testing.T) {
	repo := newMockAccountRepo()
	svc := newTestAuthService(repo, &mockSecuritySender{})
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@b.com", "Aa1!aaaa", "A B"); err != nil {
		t.Fatalf("register: %v", err)
	}
	stored, _ := repo.GetByEmail(ctx, "a@b.com")
	stored.Status = domain.StatusSuspended
	if err := repo.Save(ctx, stored); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Mismo error genérico que una contraseña incorrecta.
	if _, err := svc.Login(ctx, "a@b.com", "Aa1!aaaa"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestAuthServiceRefresh(t *testing.T) {
	repo := newMockAccountRepo()
	tokens := NewTokenService("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	svc := NewAuthService(zap.NewNop(), repo, NewPasswordHasher(bcrypt.MinCost), tokens, &mockSecuritySender{}, nil)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "a@b.com", "Aa1!aaaa", "A B")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	refreshToken, err := tokens.IssueRefreshToken(registered)
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}

	acct, err := svc.Refresh(ctx, refreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if acct.ID != registered.ID {
		t.Fatalf("unexpected account: %s", acct.ID)
	}

	t.Run("foreign key rejected", func(t *testing.T) {
		other := NewTokenService("access-secret", "other-refresh", 15*time.Minute, 7*24*time.Hour)
		forged, err := other.IssueRefreshToken(registered)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		if _, err := svc.Refresh(ctx, forged); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("expected invalid token, got %v", err)
		}
	})

	t.Run("inactive account rejected", func(t *testing.T) {
		stored, _ := repo.GetByEmail(ctx, "a@b.com")
		stored.Status = domain.StatusDeleted
		if err := repo.Save(ctx, stored); err != nil {
			t.Fatalf("save: %v", err)
		}
		if _, err := svc.Refresh(ctx, refreshToken); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("expected invalid token, got %v", err)
		}
	})
}

func TestAuthServicePasswordResetFlow(t *testing.T) {
	repo := newMockAccountRepo()
	sender := &mockSecuritySender{}
	svc := newTestAuthService(repo, sender)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@b.com", "Aa1!aaaa", "A B"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.RequestPasswordReset(ctx, "a@b.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if sender.lastResetSecret == "" {
		t.Fatalf("expected reset secret delivered")
	}

	if err := svc.ResetPassword(ctx, "a@b.com", sender.lastResetSecret, "Bb2@bbbb"); err != nil {
		t.Fatalf("reset password: %v", err)
	}

	if _, err := svc.Login(ctx, "a@b.com", "Aa1!aaaa"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected old password rejected, got %v", err)
	}
	if _, err := svc.Login(ctx, "a@b.com", "Bb2@bbbb"); err != nil {
		t.Fatalf("expected new password accepted, got %v", err)
	}

	// El mismo secreto no puede consumirse dos veces.
	if err := svc.ResetPassword(ctx, "a@b.com", sender.lastResetSecret, "Cc3#cccc"); !errors.Is(err, ErrSecretInvalid) {
		t.Fatalf("expected consumed secret rejected, got %v", err)
	}
}

func TestAuthServicePasswordReset_Expired(t *testing.T) {
	repo := newMockAccountRepo()
	sender := &mockSecuritySender{}
	svc := newTestAuthService(repo, sender)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@b.com", "Aa1!aaaa", "A B"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.RequestPasswordReset(ctx, "a@b.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}

	stored, _ := repo.GetByEmail(ctx, "a@b.com")
	past := time.Now().UTC().Add(-time.Minute)
	stored.PasswordResetExpiresAt = &past
	if err := repo.Save(ctx, stored); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := svc.ResetPassword(ctx, "a@b.com", sender.lastResetSecret, "Bb2@bbbb"); !errors.Is(err, ErrSecretExpired) {
		t.Fatalf("expected expired, got %v", err)
	}

	stored, _ = repo.GetByEmail(ctx, "a@b.com")
	if stored.PasswordResetSecretHash != "" || stored.PasswordResetExpiresAt != nil {
		t.Fatalf("expected expired secret cleared from account")
	}
}

func TestAuthServicePasswordReset_ClearsLockout(t *testing.T) {
	repo := newMockAccountRepo()
	sender := &mockSecuritySender{}
	svc := newTestAuthService(repo, sender)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@b.com", "Aa1!aaaa", "A B"); err != nil {
		t.Fatalf("register: %v", err)
	}
	for i := 0; i < 5; i++ {
		_, _ = svc.Login(ctx, "a@b.com", "Wrong1!aaaa")
	}
	if err := svc.RequestPasswordReset(ctx, "a@b.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if err := svc.ResetPassword(ctx, "a@b.com", sender.lastResetSecret, "Bb2@bbbb"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if _, err := svc.Login(ctx, "a@b.com", "Bb2@bbbb"); err != nil {
		t.Fatalf("expected login after reset, got %v", err)
	}
}

func TestAuthServiceRequestReset_UnknownEmailSilent(t *testing.T) {
	sender := &mockSecuritySender{}
	svc := newTestAuthService(newMockAccountRepo(), sender)

	if err := svc.RequestPasswordReset(context.Background(), "ghost@b.com"); err != nil {
		t.Fatalf("expected silent success, got %v", err)
	}
	if sender.lastResetSecret != "" {
		t.Fatalf("expected no email for unknown address")
	}
}

func TestAuthServiceRequestReset_SendFailureSilent(t *testing.T) {
	repo := newMockAccountRepo()
	sender := &mockSecuritySender{}
	svc := newTestAuthService(repo, sender)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@b.com", "Aa1!aaaa", "A B"); err != nil {
		t.Fatalf("register: %v", err)
	}
	sender.err = errors.New("smtp down")

	// Un fallo de envío responde igual que un email desconocido; de otro
	// modo la respuesta delataría qué direcciones están registradas.
	if err := svc.RequestPasswordReset(ctx, "a@b.com"); err != nil {
		t.Fatalf("expected silent success for known email, got %v", err)
	}
	if err := svc.RequestPasswordReset(ctx, "ghost@b.com"); err != nil {
		t.Fatalf("expected silent success for unknown email, got %v", err)
	}
	if err := svc.RequestEmailVerification(ctx, "a@b.com"); err != nil {
		t.Fatalf("expected silent success for verification request, got %v", err)
	}

	// El secreto queda emitido aunque el correo no haya salido.
	stored, _ := repo.GetByEmail(ctx, "a@b.com")
	if stored.PasswordResetSecretHash == "" || stored.PasswordResetExpiresAt == nil {
		t.Fatalf("expected pending reset secret despite send failure")
	}
}

func TestAuthServiceRequestReset_RateLimited(t *testing.T) {
	repo := newMockAccountRepo()
	sender := &mockSecuritySender{}
	svc := NewAuthService(zap.NewNop(), repo, NewPasswordHasher(bcrypt.MinCost), nil, sender, NewMailRateLimiter(time.Minute, 1))
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@b.com", "Aa1!aaaa", "A B"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.RequestPasswordReset(ctx, "a@b.com"); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if err := svc.RequestPasswordReset(ctx, "a@b.com"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected rate limited, got %v", err)
	}
}

func TestAuthServiceEmailVerificationFlow(t *testing.T) {
	repo := newMockAccountRepo()
	sender := &mockSecuritySender{}
	svc := newTestAuthService(repo, sender)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@b.com", "Aa1!aaaa", "A B"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if sender.lastVerifySecret == "" {
		t.Fatalf("expected verification secret from register")
	}

	if err := svc.ConfirmEmailVerification(ctx, "a@b.com", sender.lastVerifySecret); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	stored, _ := repo.GetByEmail(ctx, "a@b.com")
	if !stored.IsEmailVerified {
		t.Fatalf("expected email verified")
	}
	if stored.EmailVerificationSecretHash != "" || stored.EmailVerificationExpiresAt != nil {
		t.Fatalf("expected verification fields cleared")
	}

	if err := svc.ConfirmEmailVerification(ctx, "a@b.com", sender.lastVerifySecret); !errors.Is(err, ErrSecretInvalid) {
		t.Fatalf("expected consumed secret rejected, got %v", err)
	}
}
