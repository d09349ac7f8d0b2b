package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fintrack/internal/domain"
)

// CategoryRepository define el contrato de persistencia para categorías.
type CategoryRepository interface {
	Create(ctx context.Context, cat domain.Category) error
	GetByID(ctx context.Context, accountID, id string) (domain.Category, error)
	ListByAccount(ctx context.Context, accountID string) ([]domain.Category, error)
	Delete(ctx context.Context, accountID, id string) error
}

// PgCategoryRepository implementa CategoryRepository usando pgxpool.
type PgCategoryRepository struct {
	pool *pgxpool.Pool
}

func NewPgCategoryRepository(pool *pgxpool.Pool) *PgCategoryRepository {
	return &PgCategoryRepository{pool: pool}
}

func (r *PgCategoryRepository) Create(ctx context.Context, cat domain.Category) error {
	const query = `
		INSERT INTO categories (id, account_id, name, kind, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query, cat.ID, cat.AccountID, cat.Name, cat.Kind, cat.CreatedAt)
	return err
}

func (r *PgCategoryRepository) GetByID(ctx context.Context, accountID, id string) (domain.Category, error) {
	const query = `
		SELECT id, account_id, name, kind, created_at
		FROM categories
		WHERE id = $1 AND account_id = $2
	`
	var c domain.Category
	err := r.pool.QueryRow(ctx, query, id, accountID).Scan(&c.ID, &c.AccountID, &c.Name, &c.Kind, &c.CreatedAt)
	if err != nil {
		return domain.Category{}, err
	}
	return c, nil
}

func (r *PgCategoryRepository) ListByAccount(ctx context.Context, accountID string) ([]domain.Category, error) {
	const query = `
		SELECT id, account_id, name, kind, created_at
		FROM categories
		WHERE account_id = $1
		ORDER BY name
	`
	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.AccountID, &c.Name, &c.Kind, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PgCategoryRepository) Delete(ctx context.Context, accountID, id string) error {
	const query = `DELETE FROM categories WHERE id = $1 AND account_id = $2`
	tag, err := r.pool.Exec(ctx, query, id, accountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
