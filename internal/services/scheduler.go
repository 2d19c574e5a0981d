package services

import (
	"context"
	"fmt"
	"log/slog"

	"bilancio/internal/core"
	"bilancio/internal/events"
	"bilancio/internal/storage"
)

// Scheduler owns recurring payments and their next-due dates. The
// schedule only moves in response to explicit settle, skip or undo
// calls; there is no background advancement.
type Scheduler struct {
	store     storage.Store
	publisher events.Publisher // nil disables eventing
	clock     core.Clock
}

func NewScheduler(store storage.Store, publisher events.Publisher, clock core.Clock) *Scheduler {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &Scheduler{store: store, publisher: publisher, clock: clock}
}

// Create validates and persists a new recurring payment. The anchor
// day defaults to the first due date's day-of-month so clamped
// advancements stay reversible.
func (s *Scheduler) Create(ctx context.Context, p core.RecurringPayment) (core.RecurringPayment, error) {
	if p.AnchorDay == 0 && !p.NextPaymentDate.IsZero() {
		p.AnchorDay = p.NextPaymentDate.Day()
	}
	if err := p.Validate(); err != nil {
		return core.RecurringPayment{}, err
	}
	if _, err := s.store.GetAccount(ctx, p.AccountID); err != nil {
		return core.RecurringPayment{}, fmt.Errorf("create recurring payment: %w", err)
	}

	created, err := s.store.CreateRecurringPayment(ctx, p)
	if err != nil {
		return core.RecurringPayment{}, fmt.Errorf("create recurring payment: %w", err)
	}
	slog.InfoContext(ctx, "Recurring payment created",
		"recurring_payment_id", created.ID,
		"name", created.Name,
		"frequency", created.Frequency,
		"next_payment_date", created.NextPaymentDate.Format("2006-01-02"))
	return created, nil
}

// Get returns a single recurring payment.
func (s *Scheduler) Get(ctx context.Context, id string) (core.RecurringPayment, error) {
	return s.store.GetRecurringPayment(ctx, id)
}

// List returns every recurring payment ordered by due date.
func (s *Scheduler) List(ctx context.Context) ([]core.RecurringPayment, error) {
	return s.store.ListRecurringPayments(ctx)
}

// ListByAccount returns an account's recurring payments.
func (s *Scheduler) ListByAccount(ctx context.Context, accountID string) ([]core.RecurringPayment, error) {
	return s.store.ListRecurringPaymentsByAccount(ctx, accountID)
}

// Update overwrites a recurring payment's fields. Changing the due
// date re-anchors the schedule on the new day-of-month.
func (s *Scheduler) Update(ctx context.Context, p core.RecurringPayment) (core.RecurringPayment, error) {
	existing, err := s.store.GetRecurringPayment(ctx, p.ID)
	if err != nil {
		return core.RecurringPayment{}, fmt.Errorf("update recurring payment: %w", err)
	}
	if !p.NextPaymentDate.Equal(existing.NextPaymentDate) {
		p.AnchorDay = p.NextPaymentDate.Day()
	} else if p.AnchorDay == 0 {
		p.AnchorDay = existing.AnchorDay
	}
	if err := p.Validate(); err != nil {
		return core.RecurringPayment{}, err
	}
	if p.AccountID != existing.AccountID {
		if _, err := s.store.GetAccount(ctx, p.AccountID); err != nil {
			return core.RecurringPayment{}, fmt.Errorf("update recurring payment: %w", err)
		}
	}

	updated, err := s.store.UpdateRecurringPayment(ctx, p)
	if err != nil {
		return core.RecurringPayment{}, fmt.Errorf("update recurring payment: %w", err)
	}
	return updated, nil
}

// Delete removes a recurring payment. Settling and skipping never
// delete; only this explicit call does.
func (s *Scheduler) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteRecurringPayment(ctx, id); err != nil {
		return fmt.Errorf("delete recurring payment: %w", err)
	}
	slog.InfoContext(ctx, "Recurring payment deleted", "recurring_payment_id", id)
	return nil
}

// Settle marks the payment's current occurrence as paid: it writes a
// linked transaction (back-referencing the payment) through the
// balance-adjustment path and advances the schedule one period, all in
// one atomic unit.
func (s *Scheduler) Settle(ctx context.Context, id string) (core.RecurringPayment, core.Transaction, error) {
	var (
		payment core.RecurringPayment
		settled core.Transaction
	)
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		p, err := tx.GetRecurringPayment(ctx, id)
		if err != nil {
			return err
		}

		settled, err = applyTransaction(ctx, tx, core.Transaction{
			AccountID:          p.AccountID,
			Amount:             p.Amount,
			Description:        p.Name,
			Category:           p.Category,
			Date:               p.NextPaymentDate,
			Type:               p.Type,
			RecurringPaymentID: p.ID,
		})
		if err != nil {
			return err
		}

		payment, err = advanceSchedule(ctx, tx, id)
		return err
	})
	if err != nil {
		return core.RecurringPayment{}, core.Transaction{}, fmt.Errorf("settle recurring payment: %w", err)
	}

	slog.InfoContext(ctx, "Recurring payment settled",
		"recurring_payment_id", id,
		"transaction_id", settled.ID,
		"next_payment_date", payment.NextPaymentDate.Format("2006-01-02"))
	s.publish(ctx, events.NewMessage(events.KindRecurringSettled, id, payment.AccountID, payment.Amount.Cents))

	return payment, settled, nil
}

// Skip advances the schedule one period without writing a transaction,
// using the identical arithmetic as Settle.
func (s *Scheduler) Skip(ctx context.Context, id string) (core.RecurringPayment, error) {
	var payment core.RecurringPayment
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		var err error
		payment, err = advanceSchedule(ctx, tx, id)
		return err
	})
	if err != nil {
		return core.RecurringPayment{}, fmt.Errorf("skip recurring payment: %w", err)
	}

	slog.InfoContext(ctx, "Recurring payment skipped",
		"recurring_payment_id", id,
		"next_payment_date", payment.NextPaymentDate.Format("2006-01-02"))
	s.publish(ctx, events.NewMessage(events.KindRecurringSkipped, id, payment.AccountID, payment.Amount.Cents))

	return payment, nil
}

// Rollback moves the schedule back one period, the inverse of
// Settle/Skip advancement. The ledger's undo path uses the same
// arithmetic when deleting a settled occurrence's transaction.
func (s *Scheduler) Rollback(ctx context.Context, id string) (core.RecurringPayment, error) {
	var payment core.RecurringPayment
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		var err error
		payment, err = rollbackSchedule(ctx, tx, id)
		return err
	})
	if err != nil {
		return core.RecurringPayment{}, fmt.Errorf("rollback recurring payment: %w", err)
	}
	return payment, nil
}

func (s *Scheduler) publish(ctx context.Context, m events.Message) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, m); err != nil {
		slog.ErrorContext(ctx, "Failed to publish scheduler event",
			"kind", m.Kind, "entity_id", m.EntityID, "error", err)
	}
}
