package sqlite

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

const debtColumns = `id, name, type, balance_cents, apr, minimum_payment_cents, credit_limit_cents`

func (s *Store) CreateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	var limit sql.NullInt64
	if d.CreditLimit != nil {
		limit = sql.NullInt64{Int64: d.CreditLimit.Cents, Valid: true}
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO debts (`+debtColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Name, string(d.Type), d.Balance.Cents, d.APR,
		d.MinimumPayment.Cents, limit)
	if err != nil {
		return core.Debt{}, mapErr("create debt", err)
	}
	return d, nil
}

func (s *Store) GetDebt(ctx context.Context, id string) (core.Debt, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+debtColumns+` FROM debts WHERE id = ?`, id)
	d, err := scanDebt(row)
	if err != nil {
		return core.Debt{}, mapErr("get debt", err)
	}
	return d, nil
}

func (s *Store) ListDebts(ctx context.Context) ([]core.Debt, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+debtColumns+` FROM debts ORDER BY id`)
	if err != nil {
		return nil, mapErr("list debts", err)
	}
	defer rows.Close()

	var out []core.Debt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, mapErr("scan debt", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list debts", err)
	}
	return out, nil
}

func (s *Store) UpdateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	var limit sql.NullInt64
	if d.CreditLimit != nil {
		limit = sql.NullInt64{Int64: d.CreditLimit.Cents, Valid: true}
	}
	res, err := s.q.ExecContext(ctx, `
		UPDATE debts
		SET name = ?, type = ?, balance_cents = ?, apr = ?,
		    minimum_payment_cents = ?, credit_limit_cents = ?
		WHERE id = ?`,
		d.Name, string(d.Type), d.Balance.Cents, d.APR,
		d.MinimumPayment.Cents, limit, d.ID)
	if err != nil {
		return core.Debt{}, mapErr("update debt", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.Debt{}, mapErr("update debt", sql.ErrNoRows)
	}
	return d, nil
}

func (s *Store) DeleteDebt(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM debts WHERE id = ?`, id)
	if err != nil {
		return mapErr("delete debt", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return mapErr("delete debt", sql.ErrNoRows)
	}
	return nil
}

func scanDebt(row rowScanner) (core.Debt, error) {
	var (
		d     core.Debt
		typ   string
		limit sql.NullInt64
	)
	err := row.Scan(&d.ID, &d.Name, &typ, &d.Balance.Cents, &d.APR,
		&d.MinimumPayment.Cents, &limit)
	if err != nil {
		return core.Debt{}, err
	}
	d.Type = core.DebtType(typ)
	if l := nullInt64(limit); l != nil {
		m := core.FromCents(*l)
		d.CreditLimit = &m
	}
	return d, nil
}
