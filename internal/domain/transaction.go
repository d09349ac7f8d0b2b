package domain

import "time"

// TransactionType distingue ingresos de gastos.
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// Transaction es un movimiento registrado por una cuenta.
type Transaction struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	CategoryID  string          `json:"category_id,omitempty"`
	Type        TransactionType `json:"type"`
	AmountCents int64           `json:"amount_cents"`
	Note        string          `json:"note,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CategorySummary agrega montos por categoría para reportes.
type CategorySummary struct {
	CategoryID   string          `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Type         TransactionType `json:"type"`
	TotalCents   int64           `json:"total_cents"`
}
