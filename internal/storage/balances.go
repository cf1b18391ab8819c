package storage

import (
	"context"
	"database/sql"
	"fmt"

	"bilancio/internal/core"
)

// expectedBalanceQuery derives every account balance from the transaction
// log: the initial balance, plus income, minus expenses and outgoing
// transfers, plus incoming transfers.
const expectedBalanceQuery = `
	SELECT a.id, a.user_id, a.name, a.balance_cents,
	       a.initial_balance_cents
	       + COALESCE((SELECT SUM(CASE WHEN t.type = 'INCOME' THEN t.amount_cents ELSE -t.amount_cents END)
	                   FROM transactions t WHERE t.account_id = a.id), 0)
	       + COALESCE((SELECT SUM(t.amount_cents)
	                   FROM transactions t WHERE t.transfer_account_id = a.id), 0)
	FROM accounts a
	WHERE (? = 0 OR a.user_id = ?)
	ORDER BY a.user_id, a.id`

// BalanceCheck compares an account's cached balance with the balance derived
// from its transactions.
type BalanceCheck struct {
	AccountID int64
	OwnerID   int64
	Name      string
	Cached    core.Money
	Expected  core.Money
}

func (c BalanceCheck) Drift() core.Money {
	return c.Cached.Sub(c.Expected)
}

// VerifyBalances returns the accounts whose cached balance disagrees with the
// transaction log. ownerID 0 checks every owner.
func (r *SQLiteRepository) VerifyBalances(ctx context.Context, ownerID int64) ([]BalanceCheck, error) {
	checks, err := balanceChecks(ctx, r.db, ownerID)
	if err != nil {
		return nil, err
	}
	var drifted []BalanceCheck
	for _, c := range checks {
		if !c.Drift().IsZero() {
			drifted = append(drifted, c)
		}
	}
	return drifted, nil
}

// RebuildBalances overwrites drifted cached balances with the derived value
// and returns the accounts it corrected.
func (r *SQLiteRepository) RebuildBalances(ctx context.Context, ownerID int64) ([]BalanceCheck, error) {
	var fixed []BalanceCheck
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		checks, err := balanceChecks(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		ts := now()
		for _, c := range checks {
			if c.Drift().IsZero() {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE accounts SET balance_cents = ?, updated_at = ? WHERE id = ?`,
				c.Expected.Cents, ts, c.AccountID); err != nil {
				return fmt.Errorf("rebuild balance of account %d: %w", c.AccountID, err)
			}
			fixed = append(fixed, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fixed, nil
}

func balanceChecks(ctx context.Context, q querier, ownerID int64) ([]BalanceCheck, error) {
	rows, err := q.QueryContext(ctx, expectedBalanceQuery, ownerID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("derive balances: %w", err)
	}
	defer rows.Close()

	var out []BalanceCheck
	for rows.Next() {
		var (
			c                BalanceCheck
			cached, expected int64
		)
		if err := rows.Scan(&c.AccountID, &c.OwnerID, &c.Name, &cached, &expected); err != nil {
			return nil, err
		}
		c.Cached = core.Cents(cached)
		c.Expected = core.Cents(expected)
		out = append(out, c)
	}
	return out, rows.Err()
}
