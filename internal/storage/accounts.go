package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tally/internal/core"
)

// CreateAccount inserts an account with its starting balance. Balances are
// never written directly by callers after this point; only the ledger's
// effect application touches them.
func (r *SQLiteRepository) CreateAccount(ctx context.Context, acc core.Account) (core.Account, error) {
	stamp := nowStamp()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (name, balance, starting_balance, currency, icon, color, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		acc.Name, acc.Balance.Cents, acc.Balance.Cents, acc.Currency, acc.Icon, acc.Color, stamp, stamp)
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	return r.GetAccount(ctx, id)
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, balance, currency, icon, color, created_at, updated_at
		 FROM accounts WHERE id = ?`, id)
	acc, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, fmt.Errorf("account %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %d: %w", id, err)
	}
	return acc, nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, balance, currency, icon, color, created_at, updated_at
		 FROM accounts ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// DeleteAccount removes an account. Deleting while transactions still
// reference the account would silently break the balance invariant, so it
// fails with core.ErrConflict instead.
func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var refs int64
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM transactions WHERE account_id = ? OR to_account_id = ?`,
			id, id).Scan(&refs)
		if err != nil {
			return fmt.Errorf("count account references: %w", err)
		}
		if refs > 0 {
			return fmt.Errorf("account %d has %d transactions: %w", id, refs, core.ErrConflict)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete account %d: %w", id, err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete account %d: %w", id, err)
		}
		if rows == 0 {
			return fmt.Errorf("account %d: %w", id, core.ErrNotFound)
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (core.Account, error) {
	var acc core.Account
	var balance int64
	var icon, color sql.NullString
	var created, updated string
	err := row.Scan(&acc.ID, &acc.Name, &balance, &acc.Currency, &icon, &color, &created, &updated)
	if err != nil {
		return core.Account{}, err
	}
	acc.Balance = core.Money{Cents: balance}
	acc.Icon = icon.String
	acc.Color = color.String
	acc.CreatedAt = parseStamp(created)
	acc.UpdatedAt = parseStamp(updated)
	return acc, nil
}
