package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tally/internal/core"
)

func (r *SQLiteRepository) CreateSavingsGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	stamp := nowStamp()
	var deadline any
	if g.Deadline != nil {
		deadline = g.Deadline.ISO()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO savings_goals (name, target, current, deadline, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		g.Name, g.Target.Cents, g.Current.Cents, deadline, stamp, stamp)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("create savings goal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("create savings goal: %w", err)
	}
	return r.GetSavingsGoal(ctx, id)
}

func (r *SQLiteRepository) GetSavingsGoal(ctx context.Context, id int64) (core.SavingsGoal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, target, current, deadline, created_at, updated_at
		 FROM savings_goals WHERE id = ?`, id)
	g, err := scanSavingsGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SavingsGoal{}, fmt.Errorf("savings goal %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("get savings goal %d: %w", id, err)
	}
	return g, nil
}

func (r *SQLiteRepository) ListSavingsGoals(ctx context.Context) ([]core.SavingsGoal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, target, current, deadline, created_at, updated_at
		 FROM savings_goals ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list savings goals: %w", err)
	}
	defer rows.Close()

	var goals []core.SavingsGoal
	for rows.Next() {
		g, err := scanSavingsGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan savings goal: %w", err)
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list savings goals: %w", err)
	}
	return goals, nil
}

func (r *SQLiteRepository) UpdateSavingsGoal(ctx context.Context, g core.SavingsGoal) error {
	var deadline any
	if g.Deadline != nil {
		deadline = g.Deadline.ISO()
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE savings_goals SET name = ?, target = ?, current = ?, deadline = ?, updated_at = ?
		 WHERE id = ?`,
		g.Name, g.Target.Cents, g.Current.Cents, deadline, nowStamp(), g.ID)
	if err != nil {
		return fmt.Errorf("update savings goal %d: %w", g.ID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update savings goal %d: %w", g.ID, err)
	}
	if rows == 0 {
		return fmt.Errorf("savings goal %d: %w", g.ID, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteSavingsGoal(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM savings_goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete savings goal %d: %w", id, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete savings goal %d: %w", id, err)
	}
	if rows == 0 {
		return fmt.Errorf("savings goal %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func scanSavingsGoal(row rowScanner) (core.SavingsGoal, error) {
	var g core.SavingsGoal
	var target, current int64
	var deadline sql.NullString
	var created, updated string
	err := row.Scan(&g.ID, &g.Name, &target, &current, &deadline, &created, &updated)
	if err != nil {
		return core.SavingsGoal{}, err
	}
	g.Target = core.Money{Cents: target}
	g.Current = core.Money{Cents: current}
	if deadline.Valid {
		if d, err := core.ParseDate(deadline.String); err == nil {
			g.Deadline = &d
		}
	}
	g.CreatedAt = parseStamp(created)
	g.UpdatedAt = parseStamp(updated)
	return g, nil
}
