package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"tally/internal/core"
)

const transactionColumns = `id, type, amount, description, category_id, account_id, to_account_id,
	transaction_date, is_recurring, recurrence_interval, recurrence_next_date, tags, created_at, updated_at`

// CreateTransaction persists a transaction and applies its balance effect in
// one atomic unit. Account existence is checked before the first balance
// mutation so a bad reference never writes partial state.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, txn core.Transaction) (core.Transaction, error) {
	var created core.Transaction
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		id, err := insertTransactionTx(ctx, tx, txn)
		if err != nil {
			return err
		}
		created, err = getTransactionTx(ctx, tx, id)
		return err
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return created, nil
}

// UpdateTransaction replaces a transaction's fields and rebalances accounts
// with the reverse-then-reapply pattern: the old snapshot (re-read inside the
// same sql.Tx) is reversed, the row is rewritten, and the new state is
// applied. Correct even when amount, type, or the accounts change.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, txn core.Transaction) (core.Transaction, error) {
	var updated core.Transaction
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		old, err := getTransactionTx(ctx, tx, txn.ID)
		if err != nil {
			return err
		}
		if err := checkAccountsExist(ctx, tx, txn); err != nil {
			return err
		}
		if err := applyEffects(ctx, tx, old, -1); err != nil {
			return err
		}

		tags, err := marshalTags(txn.Tags)
		if err != nil {
			return err
		}
		interval, nextDate := recurrenceColumns(txn)
		_, err = tx.ExecContext(ctx,
			`UPDATE transactions SET type = ?, amount = ?, description = ?, category_id = ?,
				account_id = ?, to_account_id = ?, transaction_date = ?, is_recurring = ?,
				recurrence_interval = ?, recurrence_next_date = ?, tags = ?, updated_at = ?
			 WHERE id = ?`,
			txn.Type, txn.Amount.Cents, txn.Description, txn.CategoryID,
			txn.AccountID, txn.ToAccountID, txn.Date.ISO(), txn.IsRecurring,
			interval, nextDate, tags, nowStamp(), txn.ID)
		if err != nil {
			return fmt.Errorf("update transaction %d: %w", txn.ID, err)
		}

		updated, err = getTransactionTx(ctx, tx, txn.ID)
		if err != nil {
			return err
		}
		return applyEffects(ctx, tx, updated, 1)
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return updated, nil
}

// DeleteTransaction reverses the transaction's balance effect and removes the
// row in one atomic unit.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		old, err := getTransactionTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := applyEffects(ctx, tx, old, -1); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete transaction %d: %w", id, err)
		}
		return nil
	})
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return txn, nil
}

// TransactionFilter narrows and paginates ListTransactions. Zero values mean
// "no constraint"; Page and Limit default to 1 and 20.
type TransactionFilter struct {
	Type       core.TransactionType
	CategoryID *int64
	AccountID  *int64
	StartDate  core.Date
	EndDate    core.Date
	Page       int
	Limit      int
}

// ListTransactions returns one page ordered by date descending, then id
// descending as a stable tie-break for same-date entries, plus the unpaged
// total.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, filter TransactionFilter) ([]core.Transaction, int64, error) {
	var conds []string
	var args []any
	if filter.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, filter.Type)
	}
	if filter.CategoryID != nil {
		conds = append(conds, "category_id = ?")
		args = append(args, *filter.CategoryID)
	}
	if filter.AccountID != nil {
		conds = append(conds, "account_id = ?")
		args = append(args, *filter.AccountID)
	}
	if !filter.StartDate.IsZero() {
		conds = append(conds, "transaction_date >= ?")
		args = append(args, filter.StartDate.ISO())
	}
	if !filter.EndDate.IsZero() {
		conds = append(conds, "transaction_date <= ?")
		args = append(args, filter.EndDate.ISO())
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}
	pageArgs := append(args, limit, (page-1)*limit)

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions`+where+
			` ORDER BY transaction_date DESC, id DESC LIMIT ? OFFSET ?`, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []core.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	return txns, total, nil
}

// ListRecentTransactions returns the newest limit transactions for dashboard
// surfaces.
func (r *SQLiteRepository) ListRecentTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	txns, _, err := r.ListTransactions(ctx, TransactionFilter{Page: 1, Limit: limit})
	return txns, err
}

// ListAllTransactions streams the full ledger oldest-first, for exports.
func (r *SQLiteRepository) ListAllTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions ORDER BY transaction_date ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list all transactions: %w", err)
	}
	defer rows.Close()

	var txns []core.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list all transactions: %w", err)
	}
	return txns, nil
}

func insertTransactionTx(ctx context.Context, tx *sql.Tx, txn core.Transaction) (int64, error) {
	if err := checkAccountsExist(ctx, tx, txn); err != nil {
		return 0, err
	}
	tags, err := marshalTags(txn.Tags)
	if err != nil {
		return 0, err
	}
	interval, nextDate := recurrenceColumns(txn)
	stamp := nowStamp()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (type, amount, description, category_id, account_id, to_account_id,
			transaction_date, is_recurring, recurrence_interval, recurrence_next_date, tags, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.Type, txn.Amount.Cents, txn.Description, txn.CategoryID, txn.AccountID, txn.ToAccountID,
		txn.Date.ISO(), txn.IsRecurring, interval, nextDate, tags, stamp, stamp)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	txn.ID = id
	if err := applyEffects(ctx, tx, txn, 1); err != nil {
		return 0, err
	}
	return id, nil
}

func getTransactionTx(ctx context.Context, tx *sql.Tx, id int64) (core.Transaction, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return txn, nil
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var txn core.Transaction
	var amount int64
	var categoryID, toAccountID sql.NullInt64
	var date string
	var interval, nextDate, tags sql.NullString
	var created, updated string
	err := row.Scan(&txn.ID, &txn.Type, &amount, &txn.Description, &categoryID, &txn.AccountID,
		&toAccountID, &date, &txn.IsRecurring, &interval, &nextDate, &tags, &created, &updated)
	if err != nil {
		return core.Transaction{}, err
	}
	txn.Amount = core.Money{Cents: amount}
	if categoryID.Valid {
		txn.CategoryID = &categoryID.Int64
	}
	if toAccountID.Valid {
		txn.ToAccountID = &toAccountID.Int64
	}
	if d, err := core.ParseDate(date); err == nil {
		txn.Date = d
	}
	if interval.Valid && nextDate.Valid {
		if d, err := core.ParseDate(nextDate.String); err == nil {
			txn.Recurrence = &core.Recurrence{
				Interval: core.Interval(interval.String),
				NextDate: d,
			}
		}
	}
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &txn.Tags); err != nil {
			return core.Transaction{}, fmt.Errorf("decode tags: %w", err)
		}
	}
	txn.CreatedAt = parseStamp(created)
	txn.UpdatedAt = parseStamp(updated)
	return txn, nil
}

func marshalTags(tags []string) (any, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

func recurrenceColumns(txn core.Transaction) (any, any) {
	if txn.Recurrence == nil {
		return nil, nil
	}
	return string(txn.Recurrence.Interval), txn.Recurrence.NextDate.ISO()
}
