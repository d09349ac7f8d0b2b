package domain

import "time"

// Budget define un límite mensual de gasto, global o por categoría.
type Budget struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	CategoryID  string    `json:"category_id,omitempty"`
	Month       string    `json:"month"`
	AmountCents int64     `json:"amount_cents"`
	CreatedAt   time.Time `json:"created_at"`
}
