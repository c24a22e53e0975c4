package storage

import (
	"context"
	"fmt"

	"tally/internal/core"
)

// SumAmountByType totals transaction amounts of one type inside a date range,
// in minor units. Missing data sums to zero rather than failing.
func (r *SQLiteRepository) SumAmountByType(ctx context.Context, ttype core.TransactionType, start, end core.Date) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM transactions
		 WHERE type = ? AND transaction_date >= ? AND transaction_date <= ?`,
		ttype, start.ISO(), end.ISO()).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum %s amounts: %w", ttype, err)
	}
	return total, nil
}

// ExpenseTotalsByCategory groups expense-type spend inside a date range by
// category, largest first. Categories with no matching spend are omitted, as
// are transactions whose category reference was nulled out.
func (r *SQLiteRepository) ExpenseTotalsByCategory(ctx context.Context, start, end core.Date) ([]core.CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.name, c.color, SUM(t.amount) AS total
		 FROM transactions t
		 JOIN categories c ON c.id = t.category_id
		 WHERE t.type = 'expense' AND t.transaction_date >= ? AND t.transaction_date <= ?
		 GROUP BY c.id, c.name, c.color
		 ORDER BY total DESC`,
		start.ISO(), end.ISO())
	if err != nil {
		return nil, fmt.Errorf("expense totals by category: %w", err)
	}
	defer rows.Close()

	var totals []core.CategoryTotal
	for rows.Next() {
		var ct core.CategoryTotal
		var total int64
		if err := rows.Scan(&ct.CategoryID, &ct.Name, &ct.Color, &total); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		ct.Total = core.Money{Cents: total}
		totals = append(totals, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("expense totals by category: %w", err)
	}
	return totals, nil
}

// SumCategoryExpenses totals expense-type spend for one category inside a
// date range; used for budget period windows.
func (r *SQLiteRepository) SumCategoryExpenses(ctx context.Context, categoryID int64, start, end core.Date) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM transactions
		 WHERE category_id = ? AND type = 'expense'
		   AND transaction_date >= ? AND transaction_date <= ?`,
		categoryID, start.ISO(), end.ISO()).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum category %d expenses: %w", categoryID, err)
	}
	return total, nil
}
