package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fintrack/internal/domain"
)

// ErrDuplicateAccount indica colisión de email en el registro.
var ErrDuplicateAccount = errors.New("account already exists")

// AccountRepository define el contrato de persistencia para cuentas.
type AccountRepository interface {
	Create(ctx context.Context, acct domain.Account) error
	GetByID(ctx context.Context, id string) (domain.Account, error)
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	Save(ctx context.Context, acct domain.Account) error
}

// PgAccountRepository implementa AccountRepository usando pgxpool.
type PgAccountRepository struct {
	pool *pgxpool.Pool
}

func NewPgAccountRepository(pool *pgxpool.Pool) *PgAccountRepository {
	return &PgAccountRepository{pool: pool}
}

const accountColumns = `
	id, email, name, password_hash, status,
	login_count, last_attempt_at, locked_until, last_login_at,
	password_reset_secret_hash, password_reset_expires_at,
	email_verification_secret_hash, email_verification_expires_at,
	is_email_verified, created_at
`

func (r *PgAccountRepository) Create(ctx context.Context, acct domain.Account) error {
	const query = `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.pool.Exec(ctx, query,
		acct.ID,
		acct.Email,
		acct.Name,
		acct.PasswordHash,
		acct.Status,
		acct.LoginAttempts.Count,
		acct.LoginAttempts.LastAttemptAt,
		acct.LoginAttempts.LockedUntil,
		acct.LastLoginAt,
		acct.PasswordResetSecretHash,
		acct.PasswordResetExpiresAt,
		acct.EmailVerificationSecretHash,
		acct.EmailVerificationExpiresAt,
		acct.IsEmailVerified,
		acct.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateAccount
	}
	return err
}

func (r *PgAccountRepository) GetByID(ctx context.Context, id string) (domain.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.scanAccount(r.pool.QueryRow(ctx, query, id))
}

func (r *PgAccountRepository) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return r.scanAccount(r.pool.QueryRow(ctx, query, email))
}

// Save persiste los campos mutables de auth de la cuenta.
func (r *PgAccountRepository) Save(ctx context.Context, acct domain.Account) error {
	const query = `
		UPDATE accounts SET
			email = $2,
			name = $3,
			password_hash = $4,
			status = $5,
			login_count = $6,
			last_attempt_at = $7,
			locked_until = $8,
			last_login_at = $9,
			password_reset_secret_hash = $10,
			password_reset_expires_at = $11,
			email_verification_secret_hash = $12,
			email_verification_expires_at = $13,
			is_email_verified = $14
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query,
		acct.ID,
		acct.Email,
		acct.Name,
		acct.PasswordHash,
		acct.Status,
		acct.LoginAttempts.Count,
		acct.LoginAttempts.LastAttemptAt,
		acct.LoginAttempts.LockedUntil,
		acct.LastLoginAt,
		acct.PasswordResetSecretHash,
		acct.PasswordResetExpiresAt,
		acct.EmailVerificationSecretHash,
		acct.EmailVerificationExpiresAt,
		acct.IsEmailVerified,
	)
	return err
}

func (r *PgAccountRepository) scanAccount(row pgx.Row) (domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.ID,
		&a.Email,
		&a.Name,
		&a.PasswordHash,
		&a.Status,
		&a.LoginAttempts.Count,
		&a.LoginAttempts.LastAttemptAt,
		&a.LoginAttempts.LockedUntil,
		&a.LastLoginAt,
		&a.PasswordResetSecretHash,
		&a.PasswordResetExpiresAt,
		&a.EmailVerificationSecretHash,
		&a.EmailVerificationExpiresAt,
		&a.IsEmailVerified,
		&a.CreatedAt,
	)
	if err != nil {
		return domain.Account{}, err
	}
	return a, nil
}
