package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/storage/memory"
)

func newTestScheduler(t *testing.T) (*Scheduler, *Ledger) {
	t.Helper()
	store := memory.New()
	clock := core.FixedClock{T: testNow}
	return NewScheduler(store, nil, clock), NewLedger(store, nil, clock)
}

func TestSettleCreatesLinkedTransactionAndAdvances(t *testing.T) {
	// Scenario: amount 14.99, monthly, due 2024-01-31. Settle writes a
	// linked expense and the leap-year clamp lands on 2024-02-29.
	ctx := context.Background()
	s, l := newTestScheduler(t)
	account := mustCreateAccount(t, l, "Checking", 10000)

	payment, err := s.Create(ctx, core.RecurringPayment{
		Name:            "Netflix",
		Amount:          core.FromCents(1499),
		Frequency:       core.FrequencyMonthly,
		Category:        "Entertainment",
		Type:            core.TransactionExpense,
		NextPaymentDate: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		AccountID:       account.ID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	advanced, settled, err := s.Settle(ctx, payment.ID)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}

	wantNext := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	if !advanced.NextPaymentDate.Equal(wantNext) {
		t.Errorf("nextPaymentDate = %v, want %v", advanced.NextPaymentDate, wantNext)
	}

	if settled.RecurringPaymentID != payment.ID {
		t.Errorf("transaction back-reference = %q, want %q", settled.RecurringPaymentID, payment.ID)
	}
	if settled.Amount.Cents != 1499 || settled.Type != core.TransactionExpense {
		t.Errorf("unexpected settled transaction: %+v", settled)
	}

	gotAccount, _ := l.GetAccount(ctx, account.ID)
	if gotAccount.Balance.Cents != 10000-1499 {
		t.Errorf("account balance = %d, want %d", gotAccount.Balance.Cents, 10000-1499)
	}
}

func TestSkipAdvancesWithoutTransaction(t *testing.T) {
	ctx := context.Background()
	s, l := newTestScheduler(t)
	account := mustCreateAccount(t, l, "Checking", 10000)

	payment, err := s.Create(ctx, core.RecurringPayment{
		Name: "Gym", Amount: core.FromCents(3500),
		Frequency: core.FrequencyWeekly, Type: core.TransactionExpense,
		NextPaymentDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		AccountID:       account.ID,
	})
	if err != nil {
		t.Fatal(err)
	}

	advanced, err := s.Skip(ctx, payment.ID)
	if err != nil {
		t.Fatalf("Skip: %v", err)
	}
	wantNext := time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC)
	if !advanced.NextPaymentDate.Equal(wantNext) {
		t.Errorf("nextPaymentDate = %v, want %v", advanced.NextPaymentDate, wantNext)
	}

	gotAccount, _ := l.GetAccount(ctx, account.ID)
	if gotAccount.Balance.Cents != 10000 {
		t.Errorf("skip must not touch the balance, got %d", gotAccount.Balance.Cents)
	}
	txs, _ := l.ListTransactions(ctx, account.ID)
	if len(txs) != 0 {
		t.Errorf("skip created %d transactions, want 0", len(txs))
	}
}

func TestUndoSettledTransactionRollsScheduleBack(t *testing.T) {
	ctx := context.Background()
	s, l := newTestScheduler(t)
	account := mustCreateAccount(t, l, "Checking", 10000)

	due := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	payment, err := s.Create(ctx, core.RecurringPayment{
		Name: "Rent", Amount: core.FromCents(2500),
		Frequency: core.FrequencyMonthly, Type: core.TransactionExpense,
		NextPaymentDate: due, AccountID: account.ID,
	})
	if err != nil {
		t.Fatal(err)
	}

	_, settled, err := s.Settle(ctx, payment.ID)
	if err != nil {
		t.Fatal(err)
	}

	if err := l.DeleteTransaction(ctx, settled.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}

	restored, err := s.Get(ctx, payment.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !restored.NextPaymentDate.Equal(due) {
		t.Errorf("nextPaymentDate = %v, want restored %v", restored.NextPaymentDate, due)
	}

	gotAccount, _ := l.GetAccount(ctx, account.ID)
	if gotAccount.Balance.Cents != 10000 {
		t.Errorf("balance = %d, want restored 10000", gotAccount.Balance.Cents)
	}
}

func TestSettleKeepsPaymentIdentity(t *testing.T) {
	ctx := context.Background()
	s, l := newTestScheduler(t)
	account := mustCreateAccount(t, l, "Checking", 100000)

	payment, err := s.Create(ctx, core.RecurringPayment{
		Name: "Salary", Amount: core.FromCents(250000),
		Frequency: core.FrequencyMonthly, Type: core.TransactionIncome,
		NextPaymentDate: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		AccountID:       account.ID,
	})
	if err != nil {
		t.Fatal(err)
	}

	// Settle across several clamped months; identity and anchor hold.
	wantDates := []time.Time{
		time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
	}
	for i, want := range wantDates {
		advanced, _, err := s.Settle(ctx, payment.ID)
		if err != nil {
			t.Fatalf("Settle #%d: %v", i+1, err)
		}
		if advanced.ID != payment.ID {
			t.Fatalf("payment identity changed on settle #%d", i+1)
		}
		if !advanced.NextPaymentDate.Equal(want) {
			t.Errorf("settle #%d nextPaymentDate = %v, want %v", i+1, advanced.NextPaymentDate, want)
		}
	}

	all, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("found %d recurring payments, want 1 (advance in place)", len(all))
	}
}

func TestSettleUnknownPayment(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestScheduler(t)

	if _, _, err := s.Settle(ctx, "ghost"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := s.Skip(ctx, "ghost"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateDefaultsAnchorDay(t *testing.T) {
	ctx := context.Background()
	s, l := newTestScheduler(t)
	account := mustCreateAccount(t, l, "Checking", 10000)

	payment, err := s.Create(ctx, core.RecurringPayment{
		Name: "Rent", Amount: core.FromCents(90000),
		Frequency: core.FrequencyMonthly, Type: core.TransactionExpense,
		NextPaymentDate: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		AccountID:       account.ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	if payment.AnchorDay != 31 {
		t.Errorf("anchor day = %d, want 31", payment.AnchorDay)
	}
}

func TestCreateRejectsUnknownAccount(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestScheduler(t)

	_, err := s.Create(ctx, core.RecurringPayment{
		Name: "Rent", Amount: core.FromCents(90000),
		Frequency: core.FrequencyMonthly, Type: core.TransactionExpense,
		NextPaymentDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		AccountID:       "ghost",
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateRejectsUnknownAccount(t *testing.T) {
	ctx := context.Background()
	s, l := newTestScheduler(t)
	account := mustCreateAccount(t, l, "Checking", 10000)

	payment, err := s.Create(ctx, core.RecurringPayment{
		Name: "Rent", Amount: core.FromCents(90000),
		Frequency: core.FrequencyMonthly, Type: core.TransactionExpense,
		NextPaymentDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		AccountID:       account.ID,
	})
	if err != nil {
		t.Fatal(err)
	}

	payment.AccountID = "ghost"
	if _, err := s.Update(ctx, payment); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	// Keeping the account untouched still updates fine.
	payment.AccountID = account.ID
	payment.Amount = core.FromCents(95000)
	updated, err := s.Update(ctx, payment)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Amount.Cents != 95000 {
		t.Errorf("amount = %d, want 95000", updated.Amount.Cents)
	}
}

func TestDeleteSettledTransactionAfterPaymentDeleted(t *testing.T) {
	// The back-reference on a settled transaction does not keep the
	// payment alive: deleting the payment and then undoing the
	// transaction must still restore the balance.
	ctx := context.Background()
	s, l := newTestScheduler(t)
	account := mustCreateAccount(t, l, "Checking", 10000)

	payment, err := s.Create(ctx, core.RecurringPayment{
		Name: "Netflix", Amount: core.FromCents(1499),
		Frequency: core.FrequencyMonthly, Type: core.TransactionExpense,
		NextPaymentDate: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		AccountID:       account.ID,
	})
	if err != nil {
		t.Fatal(err)
	}

	_, settled, err := s.Settle(ctx, payment.ID)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if err := s.Delete(ctx, payment.ID); err != nil {
		t.Fatalf("Delete payment: %v", err)
	}

	if err := l.DeleteTransaction(ctx, settled.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}

	gotAccount, _ := l.GetAccount(ctx, account.ID)
	if gotAccount.Balance.Cents != 10000 {
		t.Errorf("balance = %d, want 10000", gotAccount.Balance.Cents)
	}
	if _, err := l.GetTransaction(ctx, settled.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("transaction still present: err = %v", err)
	}
}
