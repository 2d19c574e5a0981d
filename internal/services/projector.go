package services

import (
	"context"
	"fmt"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// Projector derives a forward-looking balance estimate: the current
// balance plus every recurring payment due before the account's next
// reset boundary. It never mutates stored state; every read recomputes
// from scratch.
type Projector struct {
	store storage.Store
	clock core.Clock
}

func NewProjector(store storage.Store, clock core.Clock) *Projector {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &Projector{store: store, clock: clock}
}

// Projection is the derived view returned to callers.
type Projection struct {
	AccountID  string
	Balance    core.Money // stored balance at read time
	Projected  core.Money // balance + incomeSum - expenseSum
	IncomeSum  core.Money
	ExpenseSum core.Money
	Boundary   time.Time // zero when the account has no reset schedule
}

// Project loads the account and its recurring payments and computes
// the projection to the next reset boundary.
func (p *Projector) Project(ctx context.Context, accountID string) (Projection, error) {
	account, err := p.store.GetAccount(ctx, accountID)
	if err != nil {
		return Projection{}, fmt.Errorf("project balance: %w", err)
	}
	payments, err := p.store.ListRecurringPaymentsByAccount(ctx, accountID)
	if err != nil {
		return Projection{}, fmt.Errorf("project balance: %w", err)
	}
	return ProjectBalance(account, payments, p.clock.Now()), nil
}

// ProjectBalance is the pure projection function. Without a reset
// schedule the projection equals the current balance. Otherwise every
// payment of the account due on or before the boundary counts: income
// adds, expense subtracts.
func ProjectBalance(account core.Account, payments []core.RecurringPayment, now time.Time) Projection {
	proj := Projection{
		AccountID: account.ID,
		Balance:   account.Balance,
		Projected: account.Balance,
	}
	if account.Reset == nil {
		return proj
	}

	proj.Boundary = ResetBoundary(*account.Reset, now)
	for _, payment := range payments {
		if payment.AccountID != account.ID {
			continue
		}
		if payment.NextPaymentDate.After(proj.Boundary) {
			continue
		}
		switch payment.Type {
		case core.TransactionIncome:
			proj.IncomeSum = proj.IncomeSum.Add(payment.Amount)
		case core.TransactionExpense:
			proj.ExpenseSum = proj.ExpenseSum.Add(payment.Amount)
		}
	}

	proj.Projected = account.Balance.Add(proj.IncomeSum).Sub(proj.ExpenseSum)
	return proj
}

// ResetBoundary computes the next reset instant after now.
//
// Daily resets end at 23:59:59 of the current day. Weekly resets use
// Monday-start weeks and end at 23:59:59 of the upcoming Sunday (today
// when now is already Sunday). Monthly resets end at the next
// occurrence of the reset day strictly after now, clamped to the
// target month's length.
func ResetBoundary(reset core.ResetSchedule, now time.Time) time.Time {
	switch reset.Frequency {
	case core.ResetDaily:
		return endOfDay(now)
	case core.ResetWeekly:
		daysUntilSunday := (7 - int(now.Weekday())) % 7
		return endOfDay(now.AddDate(0, 0, daysUntilSunday))
	case core.ResetMonthly:
		day := reset.Day
		clamp := func(year int, month time.Month) time.Time {
			d := day
			if last := daysIn(year, month); d > last {
				d = last
			}
			return time.Date(year, month, d, 0, 0, 0, 0, now.Location())
		}
		candidate := clamp(now.Year(), now.Month())
		if !candidate.After(now) {
			next := now.AddDate(0, 1, -now.Day()+1) // first of next month
			candidate = clamp(next.Year(), next.Month())
		}
		return candidate
	default:
		return now
	}
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
