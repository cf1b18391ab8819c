package storage

import (
	"context"
	"fmt"

	"bilancio/internal/core"

	"github.com/shopspring/decimal"
)

// RecordAlert stores an alert for a budget and status. It reports false when
// an alert for that pair already exists, so each status is raised once.
func (r *SQLiteRepository) RecordAlert(ctx context.Context, a core.BudgetAlert) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO budget_alerts (user_id, budget_id, status, percentage_used, spent_cents, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (budget_id, status) DO NOTHING`,
		a.OwnerID, a.BudgetID, string(a.Status), a.PercentageUsed.String(), a.Spent.Cents, now())
	if isForeignKeyViolation(err) {
		return false, core.ErrBudgetNotFound
	}
	if err != nil {
		return false, fmt.Errorf("insert budget alert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("budget alert rows: %w", err)
	}
	return n > 0, nil
}

// ListAlerts returns the owner's alerts, newest first.
func (r *SQLiteRepository) ListAlerts(ctx context.Context, ownerID int64) ([]core.BudgetAlert, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, budget_id, status, percentage_used, spent_cents, created_at
		FROM budget_alerts WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var out []core.BudgetAlert
	for rows.Next() {
		var (
			a               core.BudgetAlert
			status, pct, ts string
			spent           int64
		)
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.BudgetID, &status, &pct, &spent, &ts); err != nil {
			return nil, err
		}
		a.Status = core.BudgetStatus(status)
		a.PercentageUsed, _ = decimal.NewFromString(pct)
		a.Spent = core.Cents(spent)
		a.CreatedAt = parseTimestamp(ts)
		out = append(out, a)
	}
	return out, rows.Err()
}
