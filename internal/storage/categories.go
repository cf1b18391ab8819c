package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"bilancio/internal/core"
)

const categoryColumns = `id, user_id, name, direction, is_default, created_at`

func (r *SQLiteRepository) CreateCategory(ctx context.Context, ownerID int64, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (user_id, name, direction, is_default, created_at) VALUES (?, ?, ?, 0, ?)`,
		ownerID, strings.TrimSpace(c.Name), string(c.Direction), now())
	if isUniqueViolation(err) {
		return core.Category{}, core.ErrDuplicateCategory
	}
	if isForeignKeyViolation(err) {
		return core.Category{}, core.ErrUserNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category id: %w", err)
	}
	return r.GetCategory(ctx, ownerID, id)
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, ownerID, id int64) (core.Category, error) {
	return getCategory(ctx, r.db, ownerID, id)
}

func getCategory(ctx context.Context, q querier, ownerID, id int64) (core.Category, error) {
	c, err := scanCategory(q.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ? AND user_id = ?`, id, ownerID))
	if err != nil {
		return core.Category{}, notFound(err, core.ErrCategoryNotFound)
	}
	return c, nil
}

// ListCategories returns the owner's categories, optionally restricted to one
// direction when direction is non-empty.
func (r *SQLiteRepository) ListCategories(ctx context.Context, ownerID int64, direction core.Direction) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE user_id = ? AND (? = '' OR direction = ?)
		ORDER BY direction, name`, ownerID, string(direction), string(direction))
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateCategory renames a category or changes its direction. Defaults are
// immutable, and the direction is frozen once anything references the
// category, since existing transactions were validated against it.
func (r *SQLiteRepository) UpdateCategory(ctx context.Context, ownerID int64, c core.Category) (core.Category, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		cur, err := getCategory(ctx, tx, ownerID, c.ID)
		if err != nil {
			return err
		}
		if cur.IsDefault {
			return core.ErrDefaultCategory
		}
		if cur.Direction != c.Direction {
			var refs int
			if err := tx.QueryRowContext(ctx, `
				SELECT (SELECT COUNT(*) FROM transactions WHERE category_id = ?)
				     + (SELECT COUNT(*) FROM budgets WHERE category_id = ?)`, c.ID, c.ID).Scan(&refs); err != nil {
				return fmt.Errorf("count category references: %w", err)
			}
			if refs > 0 {
				return core.ErrDirectionInUse
			}
		}
		_, err = tx.ExecContext(ctx, `UPDATE categories SET name = ?, direction = ? WHERE id = ? AND user_id = ?`,
			strings.TrimSpace(c.Name), string(c.Direction), c.ID, ownerID)
		if isUniqueViolation(err) {
			return core.ErrDuplicateCategory
		}
		if err != nil {
			return fmt.Errorf("update category: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Category{}, err
	}
	return r.GetCategory(ctx, ownerID, c.ID)
}

// DeleteCategory removes a user-defined category that nothing references.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, ownerID, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		cur, err := getCategory(ctx, tx, ownerID, id)
		if err != nil {
			return err
		}
		if cur.IsDefault {
			return core.ErrDefaultCategory
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ? AND user_id = ?`, id, ownerID)
		if isForeignKeyViolation(err) {
			return core.ErrCategoryInUse
		}
		if err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
}

func scanCategory(row scanner) (core.Category, error) {
	var (
		c         core.Category
		direction string
		isDefault int
		created   string
	)
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &direction, &isDefault, &created); err != nil {
		return core.Category{}, err
	}
	c.Direction = core.Direction(direction)
	c.IsDefault = isDefault != 0
	c.CreatedAt = parseTimestamp(created)
	return c, nil
}
