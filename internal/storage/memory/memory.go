// Package memory is an in-memory Store used for tests and the default
// backend when no database is configured. A single mutex serializes
// all mutations; transactions snapshot the full state and restore it
// on failure, so a failed atomic unit leaves nothing behind.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

type state struct {
	accounts     map[string]core.Account
	debts        map[string]core.Debt
	transactions map[string]core.Transaction
	recurring    map[string]core.RecurringPayment
}

func newState() *state {
	return &state{
		accounts:     make(map[string]core.Account),
		debts:        make(map[string]core.Debt),
		transactions: make(map[string]core.Transaction),
		recurring:    make(map[string]core.RecurringPayment),
	}
}

func (s *state) clone() *state {
	c := newState()
	for id, a := range s.accounts {
		c.accounts[id] = cloneAccount(a)
	}
	for id, d := range s.debts {
		c.debts[id] = cloneDebt(d)
	}
	for id, t := range s.transactions {
		c.transactions[id] = t
	}
	for id, p := range s.recurring {
		c.recurring[id] = p
	}
	return c
}

func cloneAccount(a core.Account) core.Account {
	if a.Brokerage != nil {
		b := *a.Brokerage
		a.Brokerage = &b
	}
	if a.Reset != nil {
		r := *a.Reset
		a.Reset = &r
	}
	if a.ExternalResult != nil {
		e := *a.ExternalResult
		a.ExternalResult = &e
	}
	return a
}

func cloneDebt(d core.Debt) core.Debt {
	if d.CreditLimit != nil {
		l := *d.CreditLimit
		d.CreditLimit = &l
	}
	return d
}

// Store is the in-memory implementation of storage.Store.
type Store struct {
	mu   sync.Mutex
	data *state
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{data: newState()}
}

func (s *Store) Close() error { return nil }

// InTx serializes the whole unit under the store mutex and restores a
// pre-transaction snapshot when fn fails.
func (s *Store) InTx(ctx context.Context, fn func(storage.Store) error) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(&txView{store: s}); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func ctxErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

// txView exposes the store inside an InTx callback without
// re-acquiring the mutex held by InTx. Nested InTx calls join the
// enclosing unit.
type txView struct {
	store *Store
}

var _ storage.Store = (*txView)(nil)

func (v *txView) Close() error { return nil }

func (v *txView) InTx(ctx context.Context, fn func(storage.Store) error) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	return fn(v)
}

// Accounts

func (s *Store) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createAccountLocked(ctx, a)
}

func (s *Store) createAccountLocked(ctx context.Context, a core.Account) (core.Account, error) {
	if err := ctxErr(ctx); err != nil {
		return core.Account{}, err
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	s.data.accounts[a.ID] = cloneAccount(a)
	return a, nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getAccountLocked(ctx, id)
}

func (s *Store) getAccountLocked(ctx context.Context, id string) (core.Account, error) {
	if err := ctxErr(ctx); err != nil {
		return core.Account{}, err
	}
	a, ok := s.data.accounts[id]
	if !ok {
		return core.Account{}, fmt.Errorf("account %s: %w", id, core.ErrNotFound)
	}
	return cloneAccount(a), nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listAccountsLocked(ctx)
}

func (s *Store) listAccountsLocked(ctx context.Context) ([]core.Account, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	out := make([]core.Account, 0, len(s.data.accounts))
	for _, a := range s.data.accounts {
		out = append(out, cloneAccount(a))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) UpdateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateAccountLocked(ctx, a)
}

func (s *Store) updateAccountLocked(ctx context.Context, a core.Account) (core.Account, error) {
	if err := ctxErr(ctx); err != nil {
		return core.Account{}, err
	}
	if _, ok := s.data.accounts[a.ID]; !ok {
		return core.Account{}, fmt.Errorf("account %s: %w", a.ID, core.ErrNotFound)
	}
	s.data.accounts[a.ID] = cloneAccount(a)
	return a, nil
}

func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteAccountLocked(ctx, id)
}

func (s *Store) deleteAccountLocked(ctx context.Context, id string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if _, ok := s.data.accounts[id]; !ok {
		return fmt.Errorf("account %s: %w", id, core.ErrNotFound)
	}
	delete(s.data.accounts, id)
	return nil
}

// Debts

func (s *Store) CreateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createDebtLocked(ctx, d)
}

func (s *Store) createDebtLocked(ctx context.Context, d core.Debt) (core.Debt, error) {
	if err := ctxErr(ctx); err != nil {
		return core.Debt{}, err
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	s.data.debts[d.ID] = cloneDebt(d)
	return d, nil
}

func (s *Store) GetDebt(ctx context.Context, id string) (core.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getDebtLocked(ctx, id)
}

func (s *Store) getDebtLocked(ctx context.Context, id string) (core.Debt, error) {
	if err := ctxErr(ctx); err != nil {
		return core.Debt{}, err
	}
	d, ok := s.data.debts[id]
	if !ok {
		return core.Debt{}, fmt.Errorf("debt %s: %w", id, core.ErrNotFound)
	}
	return cloneDebt(d), nil
}

func (s *Store) ListDebts(ctx context.Context) ([]core.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listDebtsLocked(ctx)
}

func (s *Store) listDebtsLocked(ctx context.Context) ([]core.Debt, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	out := make([]core.Debt, 0, len(s.data.debts))
	for _, d := range s.data.debts {
		out = append(out, cloneDebt(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateDebtLocked(ctx, d)
}

func (s *Store) updateDebtLocked(ctx context.Context, d core.Debt) (core.Debt, error) {
	if err := ctxErr(ctx); err != nil {
		return core.Debt{}, err
	}
	if _, ok := s.data.debts[d.ID]; !ok {
		return core.Debt{}, fmt.Errorf("debt %s: %w", d.ID, core.ErrNotFound)
	}
	s.data.debts[d.ID] = cloneDebt(d)
	return d, nil
}

func (s *Store) DeleteDebt(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteDebtLocked(ctx, id)
}

func (s *Store) deleteDebtLocked(ctx context.Context, id string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if _, ok := s.data.debts[id]; !ok {
		return fmt.Errorf("debt %s: %w", id, core.ErrNotFound)
	}
	delete(s.data.debts, id)
	return nil
}

// Transactions

func (s *Store) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createTransactionLocked(ctx, t)
}

func (s *Store) createTransactionLocked(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := ctxErr(ctx); err != nil {
		return core.Transaction{}, err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	s.data.transactions[t.ID] = t
	return t, nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getTransactionLocked(ctx, id)
}

func (s *Store) getTransactionLocked(ctx context.Context, id string) (core.Transaction, error) {
	if err := ctxErr(ctx); err != nil {
		return core.Transaction{}, err
	}
	t, ok := s.data.transactions[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	return t, nil
}

func (s *Store) ListTransactionsByAccount(ctx context.Context, accountID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listTransactionsByAccountLocked(ctx, accountID)
}

func (s *Store) listTransactionsByAccountLocked(ctx context.Context, accountID string) ([]core.Transaction, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	var out []core.Transaction
	for _, t := range s.data.transactions {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteTransactionLocked(ctx, id)
}

func (s *Store) deleteTransactionLocked(ctx context.Context, id string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if _, ok := s.data.transactions[id]; !ok {
		return fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	delete(s.data.transactions, id)
	return nil
}

func (s *Store) DeleteTransactionsByAccount(ctx context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteTransactionsByAccountLocked(ctx, accountID)
}

func (s *Store) deleteTransactionsByAccountLocked(ctx context.Context, accountID string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	for id, t := range s.data.transactions {
		if t.AccountID == accountID {
			delete(s.data.transactions, id)
		}
	}
	return nil
}

// Recurring payments

func (s *Store) CreateRecurringPayment(ctx context.Context, p core.RecurringPayment) (core.RecurringPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createRecurringLocked(ctx, p)
}

func (s *Store) createRecurringLocked(ctx context.Context, p core.RecurringPayment) (core.RecurringPayment, error) {
	if err := ctxErr(ctx); err != nil {
		return core.RecurringPayment{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	s.data.recurring[p.ID] = p
	return p, nil
}

func (s *Store) GetRecurringPayment(ctx context.Context, id string) (core.RecurringPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getRecurringLocked(ctx, id)
}

func (s *Store) getRecurringLocked(ctx context.Context, id string) (core.RecurringPayment, error) {
	if err := ctxErr(ctx); err != nil {
		return core.RecurringPayment{}, err
	}
	p, ok := s.data.recurring[id]
	if !ok {
		return core.RecurringPayment{}, fmt.Errorf("recurring payment %s: %w", id, core.ErrNotFound)
	}
	return p, nil
}

func (s *Store) ListRecurringPayments(ctx context.Context) ([]core.RecurringPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listRecurringLocked(ctx, "")
}

func (s *Store) ListRecurringPaymentsByAccount(ctx context.Context, accountID string) ([]core.RecurringPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listRecurringLocked(ctx, accountID)
}

func (s *Store) listRecurringLocked(ctx context.Context, accountID string) ([]core.RecurringPayment, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	var out []core.RecurringPayment
	for _, p := range s.data.recurring {
		if accountID == "" || p.AccountID == accountID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].NextPaymentDate.Equal(out[j].NextPaymentDate) {
			return out[i].NextPaymentDate.Before(out[j].NextPaymentDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) UpdateRecurringPayment(ctx context.Context, p core.RecurringPayment) (core.RecurringPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateRecurringLocked(ctx, p)
}

func (s *Store) updateRecurringLocked(ctx context.Context, p core.RecurringPayment) (core.RecurringPayment, error) {
	if err := ctxErr(ctx); err != nil {
		return core.RecurringPayment{}, err
	}
	if _, ok := s.data.recurring[p.ID]; !ok {
		return core.RecurringPayment{}, fmt.Errorf("recurring payment %s: %w", p.ID, core.ErrNotFound)
	}
	s.data.recurring[p.ID] = p
	return p, nil
}

func (s *Store) DeleteRecurringPayment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteRecurringLocked(ctx, id)
}

func (s *Store) deleteRecurringLocked(ctx context.Context, id string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if _, ok := s.data.recurring[id]; !ok {
		return fmt.Errorf("recurring payment %s: %w", id, core.ErrNotFound)
	}
	delete(s.data.recurring, id)
	return nil
}

// txView delegation: every CRUD method forwards to the locked
// implementation on the owning store.

func (v *txView) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	return v.store.createAccountLocked(ctx, a)
}

func (v *txView) GetAccount(ctx context.Context, id string) (core.Account, error) {
	return v.store.getAccountLocked(ctx, id)
}

func (v *txView) ListAccounts(ctx context.Context) ([]core.Account, error) {
	return v.store.listAccountsLocked(ctx)
}

func (v *txView) UpdateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	return v.store.updateAccountLocked(ctx, a)
}

func (v *txView) DeleteAccount(ctx context.Context, id string) error {
	return v.store.deleteAccountLocked(ctx, id)
}

func (v *txView) CreateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	return v.store.createDebtLocked(ctx, d)
}

func (v *txView) GetDebt(ctx context.Context, id string) (core.Debt, error) {
	return v.store.getDebtLocked(ctx, id)
}

func (v *txView) ListDebts(ctx context.Context) ([]core.Debt, error) {
	return v.store.listDebtsLocked(ctx)
}

func (v *txView) UpdateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	return v.store.updateDebtLocked(ctx, d)
}

func (v *txView) DeleteDebt(ctx context.Context, id string) error {
	return v.store.deleteDebtLocked(ctx, id)
}

func (v *txView) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	return v.store.createTransactionLocked(ctx, t)
}

func (v *txView) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	return v.store.getTransactionLocked(ctx, id)
}

func (v *txView) ListTransactionsByAccount(ctx context.Context, accountID string) ([]core.Transaction, error) {
	return v.store.listTransactionsByAccountLocked(ctx, accountID)
}

func (v *txView) DeleteTransaction(ctx context.Context, id string) error {
	return v.store.deleteTransactionLocked(ctx, id)
}

func (v *txView) DeleteTransactionsByAccount(ctx context.Context, accountID string) error {
	return v.store.deleteTransactionsByAccountLocked(ctx, accountID)
}

func (v *txView) CreateRecurringPayment(ctx context.Context, p core.RecurringPayment) (core.RecurringPayment, error) {
	return v.store.createRecurringLocked(ctx, p)
}

func (v *txView) GetRecurringPayment(ctx context.Context, id string) (core.RecurringPayment, error) {
	return v.store.getRecurringLocked(ctx, id)
}

func (v *txView) ListRecurringPayments(ctx context.Context) ([]core.RecurringPayment, error) {
	return v.store.listRecurringLocked(ctx, "")
}

func (v *txView) ListRecurringPaymentsByAccount(ctx context.Context, accountID string) ([]core.RecurringPayment, error) {
	return v.store.listRecurringLocked(ctx, accountID)
}

func (v *txView) UpdateRecurringPayment(ctx context.Context, p core.RecurringPayment) (core.RecurringPayment, error) {
	return v.store.updateRecurringLocked(ctx, p)
}

func (v *txView) DeleteRecurringPayment(ctx context.Context, id string) error {
	return v.store.deleteRecurringLocked(ctx, id)
}
