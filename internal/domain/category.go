package domain

import "time"

// Category clasifica transacciones de una cuenta.
type Category struct {
	ID        string          `json:"id"`
	AccountID string          `json:"account_id"`
	Name      string          `json:"name"`
	Kind      TransactionType `json:"kind"`
	CreatedAt time.Time       `json:"created_at"`
}
