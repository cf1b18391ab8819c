package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"bilancio/internal/core"
)

const transactionDetailQuery = `
	SELECT t.id, t.user_id, t.account_id, t.transfer_account_id, t.category_id, t.type,
	       t.amount_cents, t.date, t.description, t.notes, t.created_at, t.updated_at,
	       a.name, a.currency, ta.name, ta.currency, c.name, c.direction
	FROM transactions t
	JOIN accounts a ON a.id = t.account_id
	LEFT JOIN accounts ta ON ta.id = t.transfer_account_id
	JOIN categories c ON c.id = t.category_id`

// CreateTransaction inserts a transaction and applies its balance effects in
// one database transaction. References are validated before anything is
// written.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, ownerID int64, t core.Transaction) (core.TransactionDetail, error) {
	var detail core.TransactionDetail
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := checkReferences(ctx, tx, ownerID, t); err != nil {
			return err
		}

		ts := now()
		res, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (user_id, account_id, transfer_account_id, category_id, type,
			                          amount_cents, date, description, notes, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ownerID, t.AccountID, nullInt64(t.TransferAccountID), t.CategoryID, string(t.Type),
			t.Amount.Cents, t.Date.String(), t.Description, t.Notes, ts, ts)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("transaction id: %w", err)
		}

		if err := applyEffects(ctx, tx, ownerID, t.Effects()); err != nil {
			return err
		}

		detail, err = getTransactionDetail(ctx, tx, ownerID, id)
		return err
	})
	if err != nil {
		return core.TransactionDetail{}, err
	}
	return detail, nil
}

// UpdateTransaction replaces every mutable field of a transaction. The old
// effects are reversed on the old accounts and the new effects applied on the
// new ones; adjustments to the same account are merged into one statement.
// It returns the updated transaction and the state it replaced.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, ownerID int64, t core.Transaction) (core.TransactionDetail, core.Transaction, error) {
	var (
		detail core.TransactionDetail
		old    core.Transaction
	)
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		prev, err := getTransactionDetail(ctx, tx, ownerID, t.ID)
		if err != nil {
			return err
		}
		old = prev.Transaction

		if err := checkReferences(ctx, tx, ownerID, t); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE transactions
			SET account_id = ?, transfer_account_id = ?, category_id = ?, type = ?, amount_cents = ?,
			    date = ?, description = ?, notes = ?, updated_at = ?
			WHERE id = ? AND user_id = ?`,
			t.AccountID, nullInt64(t.TransferAccountID), t.CategoryID, string(t.Type), t.Amount.Cents,
			t.Date.String(), t.Description, t.Notes, now(), t.ID, ownerID); err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}

		effects := core.MergeEffects(core.ReverseEffects(old.Effects()), t.Effects())
		if err := applyEffects(ctx, tx, ownerID, effects); err != nil {
			return err
		}

		detail, err = getTransactionDetail(ctx, tx, ownerID, t.ID)
		return err
	})
	if err != nil {
		return core.TransactionDetail{}, core.Transaction{}, err
	}
	return detail, old, nil
}

// DeleteTransaction reverses a transaction's effects and removes it,
// returning the deleted row.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, ownerID, id int64) (core.Transaction, error) {
	var old core.Transaction
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		prev, err := getTransactionDetail(ctx, tx, ownerID, id)
		if err != nil {
			return err
		}
		old = prev.Transaction

		if err := applyEffects(ctx, tx, ownerID, core.ReverseEffects(old.Effects())); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, ownerID); err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return old, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, ownerID, id int64) (core.TransactionDetail, error) {
	return getTransactionDetail(ctx, r.db, ownerID, id)
}

// ListTransactions returns the owner's transactions, newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, ownerID int64, f core.TransactionFilter) ([]core.TransactionDetail, error) {
	var (
		where = []string{"t.user_id = ?"}
		args  = []any{ownerID}
	)
	if f.AccountID != nil {
		where = append(where, "(t.account_id = ? OR t.transfer_account_id = ?)")
		args = append(args, *f.AccountID, *f.AccountID)
	}
	if f.CategoryID != nil {
		where = append(where, "t.category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.Type != "" {
		where = append(where, "t.type = ?")
		args = append(args, string(f.Type))
	}
	if !f.From.IsZero() {
		where = append(where, "t.date >= ?")
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		where = append(where, "t.date <= ?")
		args = append(args, f.To.String())
	}
	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit, max(f.Offset, 0))

	rows, err := r.db.QueryContext(ctx, transactionDetailQuery+`
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY t.date DESC, t.id DESC
		LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.TransactionDetail
	for rows.Next() {
		d, err := scanTransactionDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// checkReferences verifies that every account and category the transaction
// points at exists and belongs to the owner, and that the category direction
// fits the transaction type.
func checkReferences(ctx context.Context, q querier, ownerID int64, t core.Transaction) error {
	acct, err := getAccount(ctx, q, ownerID, t.AccountID, core.ErrAccountNotFound)
	if err != nil {
		return err
	}
	cat, err := getCategory(ctx, q, ownerID, t.CategoryID)
	if err != nil {
		return err
	}
	if !cat.Direction.Matches(t.Type) {
		return core.ErrCategoryMismatch
	}
	if t.Type == core.Transfer && t.TransferAccountID != nil {
		dest, err := getAccount(ctx, q, ownerID, *t.TransferAccountID, core.ErrTransferAccountNotFound)
		if err != nil {
			return err
		}
		if dest.Currency != acct.Currency {
			return core.ErrCurrencyMismatch
		}
	}
	return nil
}

// applyEffects adds each delta to its account's balance server-side.
func applyEffects(ctx context.Context, q querier, ownerID int64, effects []core.Effect) error {
	ts := now()
	for _, e := range effects {
		res, err := q.ExecContext(ctx, `
			UPDATE accounts SET balance_cents = balance_cents + ?, updated_at = ?
			WHERE id = ? AND user_id = ?`, e.Delta.Cents, ts, e.AccountID, ownerID)
		if err != nil {
			return fmt.Errorf("adjust balance of account %d: %w", e.AccountID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return core.ErrAccountNotFound
		}
	}
	return nil
}

func getTransactionDetail(ctx context.Context, q querier, ownerID, id int64) (core.TransactionDetail, error) {
	d, err := scanTransactionDetail(q.QueryRowContext(ctx,
		transactionDetailQuery+` WHERE t.id = ? AND t.user_id = ?`, id, ownerID))
	if err != nil {
		return core.TransactionDetail{}, notFound(err, core.ErrTransactionNotFound)
	}
	return d, nil
}

func scanTransactionDetail(row scanner) (core.TransactionDetail, error) {
	var (
		d                core.TransactionDetail
		transferID       sql.NullInt64
		typ, date        string
		amount           int64
		created, updated string
		transferName     sql.NullString
		transferCurrency sql.NullString
		direction        string
	)
	if err := row.Scan(&d.ID, &d.OwnerID, &d.AccountID, &transferID, &d.CategoryID, &typ,
		&amount, &date, &d.Description, &d.Notes, &created, &updated,
		&d.Account.Name, &d.Account.Currency, &transferName, &transferCurrency,
		&d.Category.Name, &direction); err != nil {
		return core.TransactionDetail{}, err
	}
	parsed, err := parseStoredDate(date)
	if err != nil {
		return core.TransactionDetail{}, err
	}
	d.Type = core.TransactionType(typ)
	d.Amount = core.Cents(amount)
	d.Date = parsed
	d.TransferAccountID = int64Ptr(transferID)
	d.CreatedAt = parseTimestamp(created)
	d.UpdatedAt = parseTimestamp(updated)
	d.Account.ID = d.AccountID
	d.Category.ID = d.CategoryID
	d.Category.Direction = core.Direction(direction)
	if d.TransferAccountID != nil {
		d.TransferAccount = &core.AccountRef{
			ID:       *d.TransferAccountID,
			Name:     transferName.String,
			Currency: transferCurrency.String,
		}
	}
	return d, nil
}
