package sqlite

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

const accountColumns = `id, name, type, balance_cents, interest_rate,
	api_key, pie_id, reset_frequency, reset_day, external_result_cents,
	display_order, created_at`

func (s *Store) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	var (
		apiKey, pieID, resetFreq sql.NullString
		resetDay, external       sql.NullInt64
	)
	if a.Brokerage != nil {
		apiKey = nullString(a.Brokerage.APIKey)
		pieID = nullString(a.Brokerage.PieID)
	}
	if a.Reset != nil {
		resetFreq = nullString(string(a.Reset.Frequency))
		resetDay = sql.NullInt64{Int64: int64(a.Reset.Day), Valid: true}
	}
	if a.ExternalResult != nil {
		external = sql.NullInt64{Int64: a.ExternalResult.Cents, Valid: true}
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, string(a.Type), a.Balance.Cents, a.InterestRate,
		apiKey, pieID, resetFreq, resetDay, external,
		a.DisplayOrder, a.CreatedAt.UTC().Format(dateFormat))
	if err != nil {
		return core.Account{}, mapErr("create account", err)
	}
	return a, nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (core.Account, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if err != nil {
		return core.Account{}, mapErr("get account", err)
	}
	return a, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+accountColumns+` FROM accounts ORDER BY display_order, id`)
	if err != nil {
		return nil, mapErr("list accounts", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, mapErr("scan account", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list accounts", err)
	}
	return out, nil
}

func (s *Store) UpdateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	var (
		apiKey, pieID, resetFreq sql.NullString
		resetDay, external       sql.NullInt64
	)
	if a.Brokerage != nil {
		apiKey = nullString(a.Brokerage.APIKey)
		pieID = nullString(a.Brokerage.PieID)
	}
	if a.Reset != nil {
		resetFreq = nullString(string(a.Reset.Frequency))
		resetDay = sql.NullInt64{Int64: int64(a.Reset.Day), Valid: true}
	}
	if a.ExternalResult != nil {
		external = sql.NullInt64{Int64: a.ExternalResult.Cents, Valid: true}
	}

	res, err := s.q.ExecContext(ctx, `
		UPDATE accounts
		SET name = ?, type = ?, balance_cents = ?, interest_rate = ?,
		    api_key = ?, pie_id = ?, reset_frequency = ?, reset_day = ?,
		    external_result_cents = ?, display_order = ?
		WHERE id = ?`,
		a.Name, string(a.Type), a.Balance.Cents, a.InterestRate,
		apiKey, pieID, resetFreq, resetDay, external, a.DisplayOrder, a.ID)
	if err != nil {
		return core.Account{}, mapErr("update account", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.Account{}, mapErr("update account", sql.ErrNoRows)
	}
	return a, nil
}

func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return mapErr("delete account", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return mapErr("delete account", sql.ErrNoRows)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (core.Account, error) {
	var (
		a                        core.Account
		typ, createdAt           string
		apiKey, pieID, resetFreq sql.NullString
		resetDay, external       sql.NullInt64
	)
	err := row.Scan(&a.ID, &a.Name, &typ, &a.Balance.Cents, &a.InterestRate,
		&apiKey, &pieID, &resetFreq, &resetDay, &external,
		&a.DisplayOrder, &createdAt)
	if err != nil {
		return core.Account{}, err
	}
	a.Type = core.AccountType(typ)
	if apiKey.Valid || pieID.Valid {
		a.Brokerage = &core.BrokerageCredentials{APIKey: apiKey.String, PieID: pieID.String}
	}
	if resetFreq.Valid {
		day := 0
		if d := nullInt64(resetDay); d != nil {
			day = int(*d)
		}
		a.Reset = &core.ResetSchedule{Frequency: core.ResetFrequency(resetFreq.String), Day: day}
	}
	if e := nullInt64(external); e != nil {
		m := core.FromCents(*e)
		a.ExternalResult = &m
	}
	if a.CreatedAt, err = parseDate(createdAt); err != nil {
		return core.Account{}, err
	}
	return a, nil
}
