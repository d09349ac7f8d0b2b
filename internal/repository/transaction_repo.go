package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fintrack/internal/domain"
)

// TransactionRepository define el contrato de persistencia para movimientos.
type TransactionRepository interface {
	Create(ctx context.Context, tx domain.Transaction) error
	GetByID(ctx context.Context, accountID, id string) (domain.Transaction, error)
	ListByAccount(ctx context.Context, accountID string, limit int) ([]domain.Transaction, error)
	Update(ctx context.Context, tx domain.Transaction) error
	Delete(ctx context.Context, accountID, id string) error
	Totals(ctx context.Context, accountID string, from, to time.Time) (incomeCents, expenseCents int64, err error)
	SummarizeByCategory(ctx context.Context, accountID string, from, to time.Time) ([]domain.CategorySummary, error)
}

// PgTransactionRepository implementa TransactionRepository usando pgxpool.
type PgTransactionRepository struct {
	pool *pgxpool.Pool
}

func NewPgTransactionRepository(pool *pgxpool.Pool) *PgTransactionRepository {
	return &PgTransactionRepository{pool: pool}
}

func (r *PgTransactionRepository) Create(ctx context.Context, tx domain.Transaction) error {
	const query = `
		INSERT INTO transactions (id, account_id, category_id, type, amount_cents, note, occurred_at, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		tx.ID,
		tx.AccountID,
		tx.CategoryID,
		tx.Type,
		tx.AmountCents,
		tx.Note,
		tx.OccurredAt,
		tx.CreatedAt,
	)
	return err
}

func (r *PgTransactionRepository) GetByID(ctx context.Context, accountID, id string) (domain.Transaction, error) {
	const query = `
		SELECT id, account_id, COALESCE(category_id, ''), type, amount_cents, note, occurred_at, created_at
		FROM transactions
		WHERE id = $1 AND account_id = $2
	`
	var t domain.Transaction
	err := r.pool.QueryRow(ctx, query, id, accountID).Scan(
		&t.ID,
		&t.AccountID,
		&t.CategoryID,
		&t.Type,
		&t.AmountCents,
		&t.Note,
		&t.OccurredAt,
		&t.CreatedAt,
	)
	if err != nil {
		return domain.Transaction{}, err
	}
	return t, nil
}

func (r *PgTransactionRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT id, account_id, COALESCE(category_id, ''), type, amount_cents, note, occurred_at, created_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(
			&t.ID,
			&t.AccountID,
			&t.CategoryID,
			&t.Type,
			&t.AmountCents,
			&t.Note,
			&t.OccurredAt,
			&t.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PgTransactionRepository) Update(ctx context.Context, tx domain.Transaction) error {
	const query = `
		UPDATE transactions
		SET category_id = NULLIF($3, ''), type = $4, amount_cents = $5, note = $6, occurred_at = $7
		WHERE id = $1 AND account_id = $2
	`
	tag, err := r.pool.Exec(ctx, query,
		tx.ID,
		tx.AccountID,
		tx.CategoryID,
		tx.Type,
		tx.AmountCents,
		tx.Note,
		tx.OccurredAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgTransactionRepository) Delete(ctx context.Context, accountID, id string) error {
	const query = `DELETE FROM transactions WHERE id = $1 AND account_id = $2`
	tag, err := r.pool.Exec(ctx, query, id, accountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgTransactionRepository) Totals(ctx context.Context, accountID string, from, to time.Time) (int64, int64, error) {
	const query = `
		SELECT
			COALESCE(SUM(amount_cents) FILTER (WHERE type = 'income'), 0),
			COALESCE(SUM(amount_cents) FILTER (WHERE type = 'expense'), 0)
		FROM transactions
		WHERE account_id = $1 AND occurred_at >= $2 AND occurred_at < $3
	`
	var income, expense int64
	err := r.pool.QueryRow(ctx, query, accountID, from, to).Scan(&income, &expense)
	return income, expense, err
}

func (r *PgTransactionRepository) SummarizeByCategory(ctx context.Context, accountID string, from, to time.Time) ([]domain.CategorySummary, error) {
	const query = `
		SELECT COALESCE(t.category_id, ''), COALESCE(c.name, 'uncategorized'), t.type, SUM(t.amount_cents)
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.account_id = $1 AND t.occurred_at >= $2 AND t.occurred_at < $3
		GROUP BY t.category_id, c.name, t.type
		ORDER BY SUM(t.amount_cents) DESC
	`
	rows, err := r.pool.Query(ctx, query, accountID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CategorySummary
	for rows.Next() {
		var s domain.CategorySummary
		if err := rows.Scan(&s.CategoryID, &s.CategoryName, &s.Type, &s.TotalCents); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
