package sqlite

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

const recurringColumns = `id, name, amount_cents, frequency, category, type, next_payment_date, anchor_day, account_id`

func (s *Store) CreateRecurringPayment(ctx context.Context, p core.RecurringPayment) (core.RecurringPayment, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO recurring_payments (`+recurringColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Amount.Cents, string(p.Frequency), p.Category,
		string(p.Type), p.NextPaymentDate.UTC().Format(dateFormat),
		p.AnchorDay, p.AccountID)
	if err != nil {
		return core.RecurringPayment{}, mapErr("create recurring payment", err)
	}
	return p, nil
}

func (s *Store) GetRecurringPayment(ctx context.Context, id string) (core.RecurringPayment, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT `+recurringColumns+` FROM recurring_payments WHERE id = ?`, id)
	p, err := scanRecurring(row)
	if err != nil {
		return core.RecurringPayment{}, mapErr("get recurring payment", err)
	}
	return p, nil
}

func (s *Store) ListRecurringPayments(ctx context.Context) ([]core.RecurringPayment, error) {
	return s.listRecurring(ctx, `
		SELECT `+recurringColumns+` FROM recurring_payments
		ORDER BY next_payment_date, id`)
}

func (s *Store) ListRecurringPaymentsByAccount(ctx context.Context, accountID string) ([]core.RecurringPayment, error) {
	return s.listRecurring(ctx, `
		SELECT `+recurringColumns+` FROM recurring_payments
		WHERE account_id = ? ORDER BY next_payment_date, id`, accountID)
}

func (s *Store) listRecurring(ctx context.Context, query string, args ...any) ([]core.RecurringPayment, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr("list recurring payments", err)
	}
	defer rows.Close()

	var out []core.RecurringPayment
	for rows.Next() {
		p, err := scanRecurring(rows)
		if err != nil {
			return nil, mapErr("scan recurring payment", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list recurring payments", err)
	}
	return out, nil
}

func (s *Store) UpdateRecurringPayment(ctx context.Context, p core.RecurringPayment) (core.RecurringPayment, error) {
	res, err := s.q.ExecContext(ctx, `
		UPDATE recurring_payments
		SET name = ?, amount_cents = ?, frequency = ?, category = ?,
		    type = ?, next_payment_date = ?, anchor_day = ?, account_id = ?
		WHERE id = ?`,
		p.Name, p.Amount.Cents, string(p.Frequency), p.Category,
		string(p.Type), p.NextPaymentDate.UTC().Format(dateFormat),
		p.AnchorDay, p.AccountID, p.ID)
	if err != nil {
		return core.RecurringPayment{}, mapErr("update recurring payment", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.RecurringPayment{}, mapErr("update recurring payment", sql.ErrNoRows)
	}
	return p, nil
}

func (s *Store) DeleteRecurringPayment(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM recurring_payments WHERE id = ?`, id)
	if err != nil {
		return mapErr("delete recurring payment", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return mapErr("delete recurring payment", sql.ErrNoRows)
	}
	return nil
}

func scanRecurring(row rowScanner) (core.RecurringPayment, error) {
	var (
		p              core.RecurringPayment
		freq, typ, due string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Amount.Cents, &freq, &p.Category,
		&typ, &due, &p.AnchorDay, &p.AccountID)
	if err != nil {
		return core.RecurringPayment{}, err
	}
	p.Frequency = core.Frequency(freq)
	p.Type = core.TransactionType(typ)
	if p.NextPaymentDate, err = parseDate(due); err != nil {
		return core.RecurringPayment{}, err
	}
	return p, nil
}
