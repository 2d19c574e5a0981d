package services

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

// CreateAccount validates and persists a new account.
func (l *Ledger) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = l.clock.Now()
	}

	created, err := l.store.CreateAccount(ctx, a)
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	slog.InfoContext(ctx, "Account created",
		"account_id", created.ID, "name", created.Name, "type", created.Type)
	return created, nil
}

// GetAccount returns a single account.
func (l *Ledger) GetAccount(ctx context.Context, id string) (core.Account, error) {
	return l.store.GetAccount(ctx, id)
}

// ListAccounts returns all accounts ordered for display.
func (l *Ledger) ListAccounts(ctx context.Context) ([]core.Account, error) {
	return l.store.ListAccounts(ctx)
}

// UpdateAccount overwrites an account's fields, including manual
// balance overrides. This is the only path that writes balances
// outside transaction application.
func (l *Ledger) UpdateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	existing, err := l.store.GetAccount(ctx, a.ID)
	if err != nil {
		return core.Account{}, fmt.Errorf("update account: %w", err)
	}
	a.CreatedAt = existing.CreatedAt

	updated, err := l.store.UpdateAccount(ctx, a)
	if err != nil {
		return core.Account{}, fmt.Errorf("update account: %w", err)
	}
	return updated, nil
}

// DeleteAccount removes an account together with every transaction and
// recurring payment it owns. No reversal bookkeeping happens; the
// account is gone.
func (l *Ledger) DeleteAccount(ctx context.Context, id string) error {
	err := l.store.InTx(ctx, func(tx storage.Store) error {
		if _, err := tx.GetAccount(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteTransactionsByAccount(ctx, id); err != nil {
			return err
		}
		payments, err := tx.ListRecurringPaymentsByAccount(ctx, id)
		if err != nil {
			return err
		}
		for _, p := range payments {
			if err := tx.DeleteRecurringPayment(ctx, p.ID); err != nil {
				return err
			}
		}
		return tx.DeleteAccount(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	slog.InfoContext(ctx, "Account deleted", "account_id", id)
	return nil
}

// CreateDebt validates and persists a new debt.
func (l *Ledger) CreateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	if err := d.Validate(); err != nil {
		return core.Debt{}, err
	}
	created, err := l.store.CreateDebt(ctx, d)
	if err != nil {
		return core.Debt{}, fmt.Errorf("create debt: %w", err)
	}
	slog.InfoContext(ctx, "Debt created",
		"debt_id", created.ID, "name", created.Name, "type", created.Type)
	return created, nil
}

// GetDebt returns a single debt.
func (l *Ledger) GetDebt(ctx context.Context, id string) (core.Debt, error) {
	return l.store.GetDebt(ctx, id)
}

// ListDebts returns all debts.
func (l *Ledger) ListDebts(ctx context.Context) ([]core.Debt, error) {
	return l.store.ListDebts(ctx)
}

// UpdateDebt overwrites a debt's fields. A balance that would exceed
// the credit limit of a credit_card debt is rejected.
func (l *Ledger) UpdateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	if err := d.Validate(); err != nil {
		return core.Debt{}, err
	}
	if _, err := l.store.GetDebt(ctx, d.ID); err != nil {
		return core.Debt{}, fmt.Errorf("update debt: %w", err)
	}
	updated, err := l.store.UpdateDebt(ctx, d)
	if err != nil {
		return core.Debt{}, fmt.Errorf("update debt: %w", err)
	}
	return updated, nil
}

// DeleteDebt removes a debt.
func (l *Ledger) DeleteDebt(ctx context.Context, id string) error {
	if err := l.store.DeleteDebt(ctx, id); err != nil {
		return fmt.Errorf("delete debt: %w", err)
	}
	slog.InfoContext(ctx, "Debt deleted", "debt_id", id)
	return nil
}
