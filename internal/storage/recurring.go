package storage

import (
	"context"
	"database/sql"
	"fmt"

	"tally/internal/core"
)

// ListRecurring returns every transaction flagged as a recurring definition.
func (r *SQLiteRepository) ListRecurring(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE is_recurring = 1 ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list recurring transactions: %w", err)
	}
	defer rows.Close()

	var txns []core.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list recurring transactions: %w", err)
	}
	return txns, nil
}

// MaterializeRecurring advances one recurring definition by a single period:
// it claims the definition with a conditional write on the stored next date,
// inserts the materialized instance, and applies its balance effect, all in
// one sql.Tx. Returns (created id, true) on success, or false when the guard
// missed because a concurrent invocation already advanced this occurrence.
func (r *SQLiteRepository) MaterializeRecurring(ctx context.Context, def core.Transaction, instance core.Transaction, next core.Date) (int64, bool, error) {
	if def.Recurrence == nil {
		return 0, false, fmt.Errorf("transaction %d is not recurring: %w", def.ID, core.ErrConflict)
	}
	var id int64
	claimed := false
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE transactions SET recurrence_next_date = ?, updated_at = ?
			 WHERE id = ? AND recurrence_next_date = ?`,
			next.ISO(), nowStamp(), def.ID, def.Recurrence.NextDate.ISO())
		if err != nil {
			return fmt.Errorf("advance recurrence of transaction %d: %w", def.ID, err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("advance recurrence of transaction %d: %w", def.ID, err)
		}
		if rows == 0 {
			// Another invocation got here first; nothing to do.
			return nil
		}
		claimed = true

		id, err = insertTransactionTx(ctx, tx, instance)
		return err
	})
	if err != nil {
		return 0, false, err
	}
	return id, claimed, nil
}
