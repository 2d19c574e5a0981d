package sqlite

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

const transactionColumns = `id, account_id, amount_cents, description, category, date, type, recurring_payment_id`

func (s *Store) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.AccountID, t.Amount.Cents, t.Description, t.Category,
		t.Date.UTC().Format(dateFormat), string(t.Type),
		nullString(t.RecurringPaymentID))
	if err != nil {
		return core.Transaction{}, mapErr("create transaction", err)
	}
	return t, nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, mapErr("get transaction", err)
	}
	return t, nil
}

func (s *Store) ListTransactionsByAccount(ctx context.Context, accountID string) ([]core.Transaction, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE account_id = ? ORDER BY date, id`, accountID)
	if err != nil {
		return nil, mapErr("list transactions", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, mapErr("scan transaction", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list transactions", err)
	}
	return out, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return mapErr("delete transaction", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return mapErr("delete transaction", sql.ErrNoRows)
	}
	return nil
}

func (s *Store) DeleteTransactionsByAccount(ctx context.Context, accountID string) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM transactions WHERE account_id = ?`, accountID)
	if err != nil {
		return mapErr("delete transactions by account", err)
	}
	return nil
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t         core.Transaction
		typ, date string
		recurring sql.NullString
	)
	err := row.Scan(&t.ID, &t.AccountID, &t.Amount.Cents, &t.Description,
		&t.Category, &date, &typ, &recurring)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(typ)
	t.RecurringPaymentID = recurring.String
	if t.Date, err = parseDate(date); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}
