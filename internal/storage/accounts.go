package storage

import (
	"context"
	"fmt"
	"strings"

	"bilancio/internal/core"
)

const accountColumns = `id, user_id, name, type, balance_cents, initial_balance_cents, currency, active, created_at, updated_at`

// CreateAccount inserts an account whose balance starts at its initial balance.
// This is the only place a balance is set directly.
func (r *SQLiteRepository) CreateAccount(ctx context.Context, ownerID int64, a core.Account) (core.Account, error) {
	ts := now()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (user_id, name, type, balance_cents, initial_balance_cents, currency, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ownerID, strings.TrimSpace(a.Name), string(a.Type), a.InitialBalance.Cents, a.InitialBalance.Cents,
		a.Currency, boolInt(a.Active), ts, ts)
	if isForeignKeyViolation(err) {
		return core.Account{}, core.ErrUserNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Account{}, fmt.Errorf("account id: %w", err)
	}
	return r.GetAccount(ctx, ownerID, id)
}

// GetAccount returns an owned account. Accounts of other users are reported
// as not found.
func (r *SQLiteRepository) GetAccount(ctx context.Context, ownerID, id int64) (core.Account, error) {
	return getAccount(ctx, r.db, ownerID, id, core.ErrAccountNotFound)
}

func getAccount(ctx context.Context, q querier, ownerID, id int64, missing error) (core.Account, error) {
	a, err := scanAccount(q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ? AND user_id = ?`, id, ownerID))
	if err != nil {
		return core.Account{}, notFound(err, missing)
	}
	return a, nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context, ownerID int64) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = ? ORDER BY name, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateAccount changes account metadata. Balance and currency are not
// writable here.
func (r *SQLiteRepository) UpdateAccount(ctx context.Context, ownerID int64, a core.Account) (core.Account, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET name = ?, type = ?, active = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		strings.TrimSpace(a.Name), string(a.Type), boolInt(a.Active), now(), a.ID, ownerID)
	if err != nil {
		return core.Account{}, fmt.Errorf("update account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Account{}, core.ErrAccountNotFound
	}
	return r.GetAccount(ctx, ownerID, a.ID)
}

// DeleteAccount removes an account that no transaction references.
func (r *SQLiteRepository) DeleteAccount(ctx context.Context, ownerID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ? AND user_id = ?`, id, ownerID)
	if isForeignKeyViolation(err) {
		return core.ErrAccountInUse
	}
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrAccountNotFound
	}
	return nil
}

func scanAccount(row scanner) (core.Account, error) {
	var (
		a                core.Account
		typ              string
		balance, initial int64
		active           int
		created, updated string
	)
	if err := row.Scan(&a.ID, &a.OwnerID, &a.Name, &typ, &balance, &initial, &a.Currency, &active, &created, &updated); err != nil {
		return core.Account{}, err
	}
	a.Type = core.AccountType(typ)
	a.Balance = core.Cents(balance)
	a.InitialBalance = core.Cents(initial)
	a.Active = active != 0
	a.CreatedAt = parseTimestamp(created)
	a.UpdatedAt = parseTimestamp(updated)
	return a, nil
}
