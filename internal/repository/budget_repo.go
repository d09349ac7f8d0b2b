package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fintrack/internal/domain"
)

// BudgetRepository define el contrato de persistencia para presupuestos.
type BudgetRepository interface {
	Create(ctx context.Context, b domain.Budget) error
	GetByID(ctx context.Context, accountID, id string) (domain.Budget, error)
	ListByMonth(ctx context.Context, accountID, month string) ([]domain.Budget, error)
	Update(ctx context.Context, b domain.Budget) error
	Delete(ctx context.Context, accountID, id string) error
}

// PgBudgetRepository implementa BudgetRepository usando pgxpool.
type PgBudgetRepository struct {
	pool *pgxpool.Pool
}

func NewPgBudgetRepository(pool *pgxpool.Pool) *PgBudgetRepository {
	return &PgBudgetRepository{pool: pool}
}

func (r *PgBudgetRepository) Create(ctx context.Context, b domain.Budget) error {
	const query = `
		INSERT INTO budgets (id, account_id, category_id, month, amount_cents, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query, b.ID, b.AccountID, b.CategoryID, b.Month, b.AmountCents, b.CreatedAt)
	return err
}

func (r *PgBudgetRepository) GetByID(ctx context.Context, accountID, id string) (domain.Budget, error) {
	const query = `
		SELECT id, account_id, COALESCE(category_id, ''), month, amount_cents, created_at
		FROM budgets
		WHERE id = $1 AND account_id = $2
	`
	var b domain.Budget
	err := r.pool.QueryRow(ctx, query, id, accountID).Scan(
		&b.ID, &b.AccountID, &b.CategoryID, &b.Month, &b.AmountCents, &b.CreatedAt,
	)
	if err != nil {
		return domain.Budget{}, err
	}
	return b, nil
}

func (r *PgBudgetRepository) ListByMonth(ctx context.Context, accountID, month string) ([]domain.Budget, error) {
	const query = `
		SELECT id, account_id, COALESCE(category_id, ''), month, amount_cents, created_at
		FROM budgets
		WHERE account_id = $1 AND month = $2
		ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, accountID, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Budget
	for rows.Next() {
		var b domain.Budget
		if err := rows.Scan(&b.ID, &b.AccountID, &b.CategoryID, &b.Month, &b.AmountCents, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PgBudgetRepository) Update(ctx context.Context, b domain.Budget) error {
	const query = `
		UPDATE budgets
		SET category_id = NULLIF($3, ''), month = $4, amount_cents = $5
		WHERE id = $1 AND account_id = $2
	`
	tag, err := r.pool.Exec(ctx, query, b.ID, b.AccountID, b.CategoryID, b.Month, b.AmountCents)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgBudgetRepository) Delete(ctx context.Context, accountID, id string) error {
	const query = `DELETE FROM budgets WHERE id = $1 AND account_id = $2`
	tag, err := r.pool.Exec(ctx, query, id, accountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
