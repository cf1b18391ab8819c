package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"bilancio/internal/core"
)

const budgetColumns = `id, user_id, name, category_id, amount_cents, period, start_date, end_date, active, created_at, updated_at`

// CreateBudget inserts a budget unless its window overlaps another budget
// with the same category scope. The overlap check and the insert share one
// write transaction.
func (r *SQLiteRepository) CreateBudget(ctx context.Context, ownerID int64, b core.Budget) (core.Budget, error) {
	var id int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := checkBudgetCategory(ctx, tx, ownerID, b.CategoryID); err != nil {
			return err
		}
		if err := ensureNoOverlap(ctx, tx, ownerID, b); err != nil {
			return err
		}
		ts := now()
		res, err := tx.ExecContext(ctx, `
			INSERT INTO budgets (user_id, name, category_id, amount_cents, period, start_date, end_date, active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ownerID, strings.TrimSpace(b.Name), nullInt64(b.CategoryID), b.Amount.Cents, string(b.Period),
			b.StartDate.String(), b.EndDate.String(), boolInt(b.Active), ts, ts)
		if err != nil {
			return fmt.Errorf("insert budget: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return core.Budget{}, err
	}
	return r.GetBudget(ctx, ownerID, id)
}

// UpdateBudget replaces a budget's fields, applying the same overlap rule as
// creation while ignoring the budget itself.
func (r *SQLiteRepository) UpdateBudget(ctx context.Context, ownerID int64, b core.Budget) (core.Budget, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getBudget(ctx, tx, ownerID, b.ID); err != nil {
			return err
		}
		if err := checkBudgetCategory(ctx, tx, ownerID, b.CategoryID); err != nil {
			return err
		}
		if err := ensureNoOverlap(ctx, tx, ownerID, b); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE budgets
			SET name = ?, category_id = ?, amount_cents = ?, period = ?, start_date = ?, end_date = ?, active = ?, updated_at = ?
			WHERE id = ? AND user_id = ?`,
			strings.TrimSpace(b.Name), nullInt64(b.CategoryID), b.Amount.Cents, string(b.Period),
			b.StartDate.String(), b.EndDate.String(), boolInt(b.Active), now(), b.ID, ownerID); err != nil {
			return fmt.Errorf("update budget: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Budget{}, err
	}
	return r.GetBudget(ctx, ownerID, b.ID)
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, ownerID, id int64) (core.Budget, error) {
	return getBudget(ctx, r.db, ownerID, id)
}

func getBudget(ctx context.Context, q querier, ownerID, id int64) (core.Budget, error) {
	b, err := scanBudget(q.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE id = ? AND user_id = ?`, id, ownerID))
	if err != nil {
		return core.Budget{}, notFound(err, core.ErrBudgetNotFound)
	}
	return b, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, ownerID int64, f core.BudgetFilter) ([]core.Budget, error) {
	return queryBudgets(ctx, r.db, `
		SELECT `+budgetColumns+` FROM budgets
		WHERE user_id = ? AND (? = 0 OR active = 1) AND (? = '' OR period = ?)
		ORDER BY start_date DESC, id DESC`,
		ownerID, boolInt(f.ActiveOnly), string(f.Period), string(f.Period))
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, ownerID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrBudgetNotFound
	}
	return nil
}

// SumExpenses totals the owner's EXPENSE transactions dated inside window,
// both bounds included. A nil categoryID sums every category.
func (r *SQLiteRepository) SumExpenses(ctx context.Context, ownerID int64, categoryID *int64, window core.DateRange) (core.Money, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
		WHERE user_id = ? AND type = 'EXPENSE'
		  AND date >= ? AND date <= ?
		  AND (? IS NULL OR category_id = ?)`,
		ownerID, window.Start.String(), window.End.String(), nullInt64(categoryID), nullInt64(categoryID)).Scan(&total)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum expenses: %w", err)
	}
	return core.Cents(total), nil
}

// BudgetsCovering returns the owner's active budgets whose window contains
// date and whose scope includes categoryID, unscoped budgets included.
func (r *SQLiteRepository) BudgetsCovering(ctx context.Context, ownerID, categoryID int64, date core.Date) ([]core.Budget, error) {
	return queryBudgets(ctx, r.db, `
		SELECT `+budgetColumns+` FROM budgets
		WHERE user_id = ? AND active = 1
		  AND (category_id IS NULL OR category_id = ?)
		  AND start_date <= ? AND end_date >= ?
		ORDER BY id`,
		ownerID, categoryID, date.String(), date.String())
}

// ListActiveBudgets returns active budgets of every owner whose window
// contains date.
func (r *SQLiteRepository) ListActiveBudgets(ctx context.Context, date core.Date) ([]core.Budget, error) {
	return queryBudgets(ctx, r.db, `
		SELECT `+budgetColumns+` FROM budgets
		WHERE active = 1 AND start_date <= ? AND end_date >= ?
		ORDER BY user_id, id`, date.String(), date.String())
}

func checkBudgetCategory(ctx context.Context, q querier, ownerID int64, categoryID *int64) error {
	if categoryID == nil {
		return nil
	}
	cat, err := getCategory(ctx, q, ownerID, *categoryID)
	if err != nil {
		return err
	}
	if cat.Direction != core.DirectionExpense {
		return core.ErrIncomeBudget
	}
	return nil
}

// ensureNoOverlap rejects b when another budget of the owner with the same
// category scope has an intersecting window. Null scopes only match null.
func ensureNoOverlap(ctx context.Context, q querier, ownerID int64, b core.Budget) error {
	scope := nullInt64(b.CategoryID)
	others, err := queryBudgets(ctx, q, `
		SELECT `+budgetColumns+` FROM budgets
		WHERE user_id = ? AND id != ?
		  AND ((? IS NULL AND category_id IS NULL) OR category_id = ?)`,
		ownerID, b.ID, scope, scope)
	if err != nil {
		return err
	}
	for _, o := range others {
		if core.SameScope(o.CategoryID, b.CategoryID) && o.Window().Overlaps(b.Window()) {
			return fmt.Errorf("%w (budget %d, %s to %s)", core.ErrBudgetOverlap, o.ID, o.StartDate, o.EndDate)
		}
	}
	return nil
}

func queryBudgets(ctx context.Context, q querier, query string, args ...any) ([]core.Budget, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBudget(row scanner) (core.Budget, error) {
	var (
		b                core.Budget
		categoryID       sql.NullInt64
		amount           int64
		period           string
		start, end       string
		active           int
		created, updated string
	)
	if err := row.Scan(&b.ID, &b.OwnerID, &b.Name, &categoryID, &amount, &period, &start, &end, &active, &created, &updated); err != nil {
		return core.Budget{}, err
	}
	var err error
	if b.StartDate, err = parseStoredDate(start); err != nil {
		return core.Budget{}, err
	}
	if b.EndDate, err = parseStoredDate(end); err != nil {
		return core.Budget{}, err
	}
	b.CategoryID = int64Ptr(categoryID)
	b.Amount = core.Cents(amount)
	b.Period = core.BudgetPeriod(period)
	b.Active = active != 0
	b.CreatedAt = parseTimestamp(created)
	b.UpdatedAt = parseTimestamp(updated)
	return b, nil
}
