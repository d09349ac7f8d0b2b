package service

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/domain"
	"fintrack/internal/repository"
)

// ReportService arma el dashboard y el reporte mensual a partir de los
// repositorios de movimientos y presupuestos.
type ReportService struct {
	transactions repository.TransactionRepository
	budgets      repository.BudgetRepository
}

func NewReportService(transactions repository.TransactionRepository, budgets repository.BudgetRepository) *ReportService {
	return &ReportService{
		transactions: transactions,
		budgets:      budgets,
	}
}

var ErrInvalidMonth = errors.New("invalid month, expected YYYY-MM")

// DashboardSummary resume el mes en curso.
type DashboardSummary struct {
	Month        string               `json:"month"`
	IncomeCents  int64                `json:"income_cents"`
	ExpenseCents int64                `json:"expense_cents"`
	NetCents     int64                `json:"net_cents"`
	Recent       []domain.Transaction `json:"recent"`
}

// BudgetLine compara presupuesto contra gasto real de una categoría.
type BudgetLine struct {
	CategoryID     string `json:"category_id,omitempty"`
	BudgetCents    int64  `json:"budget_cents"`
	SpentCents     int64  `json:"spent_cents"`
	RemainingCents int64  `json:"remaining_cents"`
}

// MonthlyReport detalla un mes por categoría y presupuesto.
type MonthlyReport struct {
	Month        string                   `json:"month"`
	IncomeCents  int64                    `json:"income_cents"`
	ExpenseCents int64                    `json:"expense_cents"`
	Categories   []domain.CategorySummary `json:"categories"`
	Budgets      []BudgetLine             `json:"budgets"`
}

func (s *ReportService) Dashboard(ctx context.Context, accountID string) (DashboardSummary, error) {
	month := time.Now().UTC().Format("2006-01")
	from, to, err := monthBounds(month)
	if err != nil {
		return DashboardSummary{}, err
	}

	income, expense, err := s.transactions.Totals(ctx, accountID, from, to)
	if err != nil {
		return DashboardSummary{}, err
	}
	recent, err := s.transactions.ListByAccount(ctx, accountID, 10)
	if err != nil {
		return DashboardSummary{}, err
	}

	return DashboardSummary{
		Month:        month,
		IncomeCents:  income,
		ExpenseCents: expense,
		NetCents:     income - expense,
		Recent:       recent,
	}, nil
}

func (s *ReportService) Monthly(ctx context.Context, accountID, month string) (MonthlyReport, error) {
	from, to, err := monthBounds(month)
	if err != nil {
		return MonthlyReport{}, err
	}

	income, expense, err := s.transactions.Totals(ctx, accountID, from, to)
	if err != nil {
		return MonthlyReport{}, err
	}
	summaries, err := s.transactions.SummarizeByCategory(ctx, accountID, from, to)
	if err != nil {
		return MonthlyReport{}, err
	}
	budgets, err := s.budgets.ListByMonth(ctx, accountID, month)
	if err != nil {
		return MonthlyReport{}, err
	}

	spentByCategory := make(map[string]int64)
	for _, sum := range summaries {
		if sum.Type == domain.TransactionExpense {
			spentByCategory[sum.CategoryID] += sum.TotalCents
		}
	}

	lines := make([]BudgetLine, 0, len(budgets))
	for _, b := range budgets {
		spent := spentByCategory[b.CategoryID]
		if b.CategoryID == "" {
			// Presupuesto global: contrasta contra el gasto total del mes.
			spent = expense
		}
		lines = append(lines, BudgetLine{
			CategoryID:     b.CategoryID,
			BudgetCents:    b.AmountCents,
			SpentCents:     spent,
			RemainingCents: b.AmountCents - spent,
		})
	}

	return MonthlyReport{
		Month:        month,
		IncomeCents:  income,
		ExpenseCents: expense,
		Categories:   summaries,
		Budgets:      lines,
	}, nil
}

func monthBounds(month string) (time.Time, time.Time, error) {
	from, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidMonth
	}
	return from, from.AddDate(0, 1, 0), nil
}
