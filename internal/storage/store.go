// Package storage defines the persistent store consumed by the ledger
// services: CRUD over accounts, debts, transactions and recurring
// payments, keyed by opaque string ids, plus the transactional-unit
// primitive every multi-record mutation runs inside.
package storage

import (
	"context"

	"bilancio/internal/core"
)

// Store is the backing store contract. Implementations must serialize
// concurrent mutations to the same record (no lost updates) and map
// their failures onto the core error taxonomy: core.ErrNotFound for
// absent ids, core.ErrConflict for serialization failures that
// survived bounded retries, core.ErrStoreUnavailable for timeouts.
type Store interface {
	// InTx runs fn against a transactional view of the store. Every
	// write made through the view commits atomically when fn returns
	// nil and is discarded when fn returns an error. Nested calls
	// join the enclosing transaction.
	InTx(ctx context.Context, fn func(Store) error) error

	CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
	GetAccount(ctx context.Context, id string) (core.Account, error)
	ListAccounts(ctx context.Context) ([]core.Account, error)
	UpdateAccount(ctx context.Context, a core.Account) (core.Account, error)
	DeleteAccount(ctx context.Context, id string) error

	CreateDebt(ctx context.Context, d core.Debt) (core.Debt, error)
	GetDebt(ctx context.Context, id string) (core.Debt, error)
	ListDebts(ctx context.Context) ([]core.Debt, error)
	UpdateDebt(ctx context.Context, d core.Debt) (core.Debt, error)
	DeleteDebt(ctx context.Context, id string) error

	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	ListTransactionsByAccount(ctx context.Context, accountID string) ([]core.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	DeleteTransactionsByAccount(ctx context.Context, accountID string) error

	CreateRecurringPayment(ctx context.Context, p core.RecurringPayment) (core.RecurringPayment, error)
	GetRecurringPayment(ctx context.Context, id string) (core.RecurringPayment, error)
	ListRecurringPayments(ctx context.Context) ([]core.RecurringPayment, error)
	ListRecurringPaymentsByAccount(ctx context.Context, accountID string) ([]core.RecurringPayment, error)
	UpdateRecurringPayment(ctx context.Context, p core.RecurringPayment) (core.RecurringPayment, error)
	DeleteRecurringPayment(ctx context.Context, id string) error

	Close() error
}
