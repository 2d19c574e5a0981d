package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bilancio/internal/core"
	"bilancio/internal/events"
	"bilancio/internal/storage"
)

// TransferCategory and DebtPaymentCategory label the transactions the
// compound operations generate.
const (
	TransferCategory    = "Transfer"
	DebtPaymentCategory = "Debt Payment"
)

// Ledger owns account, debt and transaction mutation. Every operation
// that touches more than one record runs inside a single store
// transaction; a failure anywhere leaves nothing behind.
type Ledger struct {
	store     storage.Store
	publisher events.Publisher // nil disables eventing
	clock     core.Clock
}

func NewLedger(store storage.Store, publisher events.Publisher, clock core.Clock) *Ledger {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &Ledger{store: store, publisher: publisher, clock: clock}
}

// Transfer is the result of TransferFunds: the two legs that moved the
// money.
type Transfer struct {
	From core.Transaction
	To   core.Transaction
}

// CreateTransaction persists a manual ledger entry and atomically
// adjusts the owning account's balance: +amount for income, -amount
// for expense.
func (l *Ledger) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if t.Type != core.TransactionIncome && t.Type != core.TransactionExpense {
		return core.Transaction{}, fmt.Errorf("%w: direct entries must be income or expense", core.ErrValidation)
	}
	if t.Date.IsZero() {
		t.Date = l.clock.Now()
	}

	var created core.Transaction
	err := l.store.InTx(ctx, func(tx storage.Store) error {
		var err error
		created, err = applyTransaction(ctx, tx, t)
		return err
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"transaction_id", created.ID,
		"account_id", created.AccountID,
		"type", created.Type,
		"amount_cents", created.Amount.Cents)
	l.publish(ctx, events.NewMessage(events.KindTransactionCreated, created.ID, created.AccountID, created.Amount.Cents))

	return created, nil
}

// DeleteTransaction undoes a ledger entry: it applies the inverse
// balance adjustment, rolls the linked recurring payment's schedule
// back one period when the entry came from a settle, and removes the
// record. All three steps are one atomic unit.
func (l *Ledger) DeleteTransaction(ctx context.Context, id string) error {
	var removed core.Transaction
	err := l.store.InTx(ctx, func(tx storage.Store) error {
		t, err := tx.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		if err := revertTransaction(ctx, tx, t); err != nil {
			return err
		}
		if t.RecurringPaymentID != "" {
			// The back-reference does not own the payment: it may have
			// been deleted since the settle, leaving nothing to roll
			// back. The balance undo still goes through.
			if _, err := rollbackSchedule(ctx, tx, t.RecurringPaymentID); err != nil && !errors.Is(err, core.ErrNotFound) {
				return err
			}
		}
		removed = t
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction deleted",
		"transaction_id", removed.ID,
		"account_id", removed.AccountID,
		"recurring_payment_id", removed.RecurringPaymentID)
	l.publish(ctx, events.NewMessage(events.KindTransactionDeleted, removed.ID, removed.AccountID, removed.Amount.Cents))

	return nil
}

// GetTransaction returns a single ledger entry.
func (l *Ledger) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	return l.store.GetTransaction(ctx, id)
}

// ListTransactions returns an account's entries ordered by date.
func (l *Ledger) ListTransactions(ctx context.Context, accountID string) ([]core.Transaction, error) {
	if _, err := l.store.GetAccount(ctx, accountID); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return l.store.ListTransactionsByAccount(ctx, accountID)
}

// TransferFunds atomically moves amount between two accounts as an
// expense leg on the source and an income leg on the destination. The
// source balance check and the debit read the same snapshot, so a
// concurrent debit cannot double-spend.
func (l *Ledger) TransferFunds(ctx context.Context, fromAccountID, toAccountID string, amount core.Money, description string) (Transfer, error) {
	if err := amount.Validate(); err != nil {
		return Transfer{}, err
	}
	if fromAccountID == toAccountID {
		return Transfer{}, fmt.Errorf("%w: cannot transfer to the same account", core.ErrValidation)
	}
	if description == "" {
		description = "Transfer"
	}

	var result Transfer
	err := l.store.InTx(ctx, func(tx storage.Store) error {
		from, err := tx.GetAccount(ctx, fromAccountID)
		if err != nil {
			return fmt.Errorf("load source account: %w", err)
		}
		if _, err := tx.GetAccount(ctx, toAccountID); err != nil {
			return fmt.Errorf("load destination account: %w", err)
		}
		if from.Balance.LessThan(amount) {
			return fmt.Errorf("%w: insufficient funds (balance %s, transfer %s)",
				core.ErrValidation, from.Balance, amount)
		}

		now := l.clock.Now()
		result.From, err = applyTransaction(ctx, tx, core.Transaction{
			AccountID:   fromAccountID,
			Amount:      amount,
			Description: description,
			Category:    TransferCategory,
			Date:        now,
			Type:        core.TransactionExpense,
		})
		if err != nil {
			return fmt.Errorf("debit leg: %w", err)
		}

		result.To, err = applyTransaction(ctx, tx, core.Transaction{
			AccountID:   toAccountID,
			Amount:      amount,
			Description: description,
			Category:    TransferCategory,
			Date:        now,
			Type:        core.TransactionIncome,
		})
		if err != nil {
			return fmt.Errorf("credit leg: %w", err)
		}
		return nil
	})
	if err != nil {
		return Transfer{}, fmt.Errorf("transfer funds: %w", err)
	}

	slog.InfoContext(ctx, "Transfer completed",
		"from_account_id", fromAccountID,
		"to_account_id", toAccountID,
		"amount_cents", amount.Cents)
	l.publish(ctx, events.NewMessage(events.KindTransferCompleted, result.From.ID, fromAccountID, amount.Cents))

	return result, nil
}

// PayDebt atomically records an expense on the paying account and
// decrements the debt balance, floored at zero.
func (l *Ledger) PayDebt(ctx context.Context, debtID, accountID string, amount core.Money) (core.Debt, core.Transaction, error) {
	if err := amount.Validate(); err != nil {
		return core.Debt{}, core.Transaction{}, err
	}

	var (
		debt    core.Debt
		payment core.Transaction
	)
	err := l.store.InTx(ctx, func(tx storage.Store) error {
		account, err := tx.GetAccount(ctx, accountID)
		if err != nil {
			return fmt.Errorf("load account: %w", err)
		}
		if account.Balance.LessThan(amount) {
			return fmt.Errorf("%w: insufficient funds (balance %s, payment %s)",
				core.ErrValidation, account.Balance, amount)
		}

		debt, err = tx.GetDebt(ctx, debtID)
		if err != nil {
			return fmt.Errorf("load debt: %w", err)
		}
		if debt.Balance.LessThan(amount) {
			return fmt.Errorf("%w: payment %s exceeds debt balance %s",
				core.ErrValidation, amount, debt.Balance)
		}

		payment, err = applyTransaction(ctx, tx, core.Transaction{
			AccountID:   accountID,
			Amount:      amount,
			Description: "Payment: " + debt.Name,
			Category:    DebtPaymentCategory,
			Date:        l.clock.Now(),
			Type:        core.TransactionExpense,
		})
		if err != nil {
			return err
		}

		debt.Balance = debt.Balance.Sub(amount)
		if debt.Balance.IsNegative() {
			debt.Balance = core.Money{}
		}
		debt, err = tx.UpdateDebt(ctx, debt)
		if err != nil {
			return fmt.Errorf("decrement debt: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Debt{}, core.Transaction{}, fmt.Errorf("pay debt: %w", err)
	}

	slog.InfoContext(ctx, "Debt payment recorded",
		"debt_id", debtID,
		"account_id", accountID,
		"amount_cents", amount.Cents,
		"remaining_cents", debt.Balance.Cents)
	l.publish(ctx, events.NewMessage(events.KindDebtPaid, debtID, accountID, amount.Cents))

	return debt, payment, nil
}

func (l *Ledger) publish(ctx context.Context, m events.Message) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.Publish(ctx, m); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", m.Kind, "entity_id", m.EntityID, "error", err)
	}
}
