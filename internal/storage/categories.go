package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tally/internal/core"
)

func (r *SQLiteRepository) CreateCategory(ctx context.Context, cat core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, type, color, icon, is_default, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		cat.Name, cat.Type, cat.Color, cat.Icon, cat.IsDefault, nowStamp())
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return r.GetCategory(ctx, id)
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, type, color, icon, is_default, created_at
		 FROM categories WHERE id = ?`, id)
	cat, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, err)
	}
	return cat, nil
}

// ListCategories returns categories ordered by type then name; filtered to a
// single type when ctype is non-empty.
func (r *SQLiteRepository) ListCategories(ctx context.Context, ctype core.CategoryType) ([]core.Category, error) {
	query := `SELECT id, name, type, color, icon, is_default, created_at
		 FROM categories ORDER BY type ASC, name ASC`
	args := []any{}
	if ctype != "" {
		query = `SELECT id, name, type, color, icon, is_default, created_at
		 FROM categories WHERE type = ? ORDER BY name ASC`
		args = append(args, ctype)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, cat core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, type = ?, color = ?, icon = ?, is_default = ? WHERE id = ?`,
		cat.Name, cat.Type, cat.Color, cat.Icon, cat.IsDefault, cat.ID)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category %d: %w", cat.ID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return core.Category{}, fmt.Errorf("update category %d: %w", cat.ID, err)
	}
	if rows == 0 {
		return core.Category{}, fmt.Errorf("category %d: %w", cat.ID, core.ErrNotFound)
	}
	return r.GetCategory(ctx, cat.ID)
}

// DeleteCategory removes a category. Referencing transactions keep existing
// with their category nulled out (ON DELETE SET NULL), never deleted.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	if rows == 0 {
		return fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func scanCategory(row rowScanner) (core.Category, error) {
	var cat core.Category
	var icon sql.NullString
	var created string
	err := row.Scan(&cat.ID, &cat.Name, &cat.Type, &cat.Color, &icon, &cat.IsDefault, &created)
	if err != nil {
		return core.Category{}, err
	}
	cat.Icon = icon.String
	cat.CreatedAt = parseStamp(created)
	return cat, nil
}
