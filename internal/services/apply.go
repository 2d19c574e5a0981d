// Package services implements the ledger engine on top of a storage
// backend: transaction application with balance maintenance, compound
// operations (transfers, debt payments), recurring payment scheduling
// and balance projection.
package services

import (
	"context"
	"fmt"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// applyTransaction persists a transaction and adjusts the owning
// account's balance in the same store view. Callers run it inside
// InTx so both writes land together.
func applyTransaction(ctx context.Context, st storage.Store, t core.Transaction) (core.Transaction, error) {
	account, err := st.GetAccount(ctx, t.AccountID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load account: %w", err)
	}

	created, err := st.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("persist transaction: %w", err)
	}

	account.Balance = account.Balance.Add(t.Signed())
	if _, err := st.UpdateAccount(ctx, account); err != nil {
		return core.Transaction{}, fmt.Errorf("adjust balance: %w", err)
	}

	return created, nil
}

// revertTransaction applies the inverse balance adjustment of t and
// deletes its record. The inverse of income removal subtracts, of
// expense removal adds back.
func revertTransaction(ctx context.Context, st storage.Store, t core.Transaction) error {
	account, err := st.GetAccount(ctx, t.AccountID)
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}

	account.Balance = account.Balance.Sub(t.Signed())
	if _, err := st.UpdateAccount(ctx, account); err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}

	if err := st.DeleteTransaction(ctx, t.ID); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// advanceSchedule moves a recurring payment's next due date forward by
// one period of its frequency.
func advanceSchedule(ctx context.Context, st storage.Store, id string) (core.RecurringPayment, error) {
	return shiftSchedule(ctx, st, id, core.Advance)
}

// rollbackSchedule moves a recurring payment's next due date back by
// one period, the exact inverse of advanceSchedule.
func rollbackSchedule(ctx context.Context, st storage.Store, id string) (core.RecurringPayment, error) {
	return shiftSchedule(ctx, st, id, core.Rollback)
}

func shiftSchedule(ctx context.Context, st storage.Store, id string,
	shift func(t time.Time, f core.Frequency, anchorDay int) (time.Time, error),
) (core.RecurringPayment, error) {
	payment, err := st.GetRecurringPayment(ctx, id)
	if err != nil {
		return core.RecurringPayment{}, fmt.Errorf("load recurring payment: %w", err)
	}

	next, err := shift(payment.NextPaymentDate, payment.Frequency, payment.AnchorDay)
	if err != nil {
		return core.RecurringPayment{}, err
	}

	payment.NextPaymentDate = next
	updated, err := st.UpdateRecurringPayment(ctx, payment)
	if err != nil {
		return core.RecurringPayment{}, fmt.Errorf("save schedule: %w", err)
	}
	return updated, nil
}
