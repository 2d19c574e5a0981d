package services

import (
	"context"
	"fmt"
	"sort"

	"bilancio/internal/core"
)

// CategoryAmount is an expense total aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount core.Money
}

// MonthOverview is a compact summary across all accounts for a
// specific year+month.
type MonthOverview struct {
	Year       int
	Month      int // 1-12
	Income     core.Money
	Expenses   core.Money
	ByCategory []CategoryAmount
}

// MonthOverview aggregates every account's transactions for the given
// month into income/expense totals and per-category expense sums.
func (l *Ledger) MonthOverview(ctx context.Context, year, month int) (MonthOverview, error) {
	overview := MonthOverview{Year: year, Month: month}
	if month < 1 || month > 12 {
		return overview, fmt.Errorf("%w: month %d out of range", core.ErrValidation, month)
	}

	accounts, err := l.store.ListAccounts(ctx)
	if err != nil {
		return overview, fmt.Errorf("month overview: %w", err)
	}

	byCategory := make(map[string]core.Money)
	for _, account := range accounts {
		transactions, err := l.store.ListTransactionsByAccount(ctx, account.ID)
		if err != nil {
			return overview, fmt.Errorf("month overview: %w", err)
		}
		for _, t := range transactions {
			if t.Date.Year() != year || int(t.Date.Month()) != month {
				continue
			}
			switch t.Type {
			case core.TransactionIncome:
				overview.Income = overview.Income.Add(t.Amount)
			case core.TransactionExpense:
				overview.Expenses = overview.Expenses.Add(t.Amount)
				byCategory[t.Category] = byCategory[t.Category].Add(t.Amount)
			}
		}
	}

	for name, amount := range byCategory {
		overview.ByCategory = append(overview.ByCategory, CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(overview.ByCategory, func(i, j int) bool {
		if overview.ByCategory[i].Amount.Cents != overview.ByCategory[j].Amount.Cents {
			return overview.ByCategory[i].Amount.Cents > overview.ByCategory[j].Amount.Cents
		}
		return overview.ByCategory[i].Name < overview.ByCategory[j].Name
	})

	return overview, nil
}
