package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"bilancio/internal/core"
)

const goalColumns = `id, user_id, name, target_cents, current_cents, target_date, completed, created_at, updated_at`

func (r *SQLiteRepository) CreateGoal(ctx context.Context, ownerID int64, g core.Goal) (core.Goal, error) {
	ts := now()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO goals (user_id, name, target_cents, current_cents, target_date, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ownerID, strings.TrimSpace(g.Name), g.Target.Cents, g.Current.Cents, nullDate(g.TargetDate), boolInt(g.Completed), ts, ts)
	if isForeignKeyViolation(err) {
		return core.Goal{}, core.ErrUserNotFound
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("insert goal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Goal{}, fmt.Errorf("goal id: %w", err)
	}
	return r.GetGoal(ctx, ownerID, id)
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, ownerID, id int64) (core.Goal, error) {
	g, err := scanGoal(r.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE id = ? AND user_id = ?`, id, ownerID))
	if err != nil {
		return core.Goal{}, notFound(err, core.ErrGoalNotFound)
	}
	return g, nil
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, ownerID int64) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+goalColumns+` FROM goals WHERE user_id = ?
		ORDER BY completed, target_date IS NULL, target_date, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, ownerID int64, g core.Goal) (core.Goal, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE goals SET name = ?, target_cents = ?, current_cents = ?, target_date = ?, completed = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		strings.TrimSpace(g.Name), g.Target.Cents, g.Current.Cents, nullDate(g.TargetDate), boolInt(g.Completed), now(), g.ID, ownerID)
	if err != nil {
		return core.Goal{}, fmt.Errorf("update goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Goal{}, core.ErrGoalNotFound
	}
	return r.GetGoal(ctx, ownerID, g.ID)
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, ownerID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrGoalNotFound
	}
	return nil
}

func nullDate(d *core.Date) sql.NullString {
	if d == nil || d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func scanGoal(row scanner) (core.Goal, error) {
	var (
		g                core.Goal
		target, current  int64
		targetDate       sql.NullString
		completed        int
		created, updated string
	)
	if err := row.Scan(&g.ID, &g.OwnerID, &g.Name, &target, &current, &targetDate, &completed, &created, &updated); err != nil {
		return core.Goal{}, err
	}
	if targetDate.Valid {
		d, err := parseStoredDate(targetDate.String)
		if err != nil {
			return core.Goal{}, err
		}
		g.TargetDate = &d
	}
	g.Target = core.Cents(target)
	g.Current = core.Cents(current)
	g.Completed = completed != 0
	g.CreatedAt = parseTimestamp(created)
	g.UpdatedAt = parseTimestamp(updated)
	return g, nil
}
