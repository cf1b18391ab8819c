package storage

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"bilancio/internal/core"
)

// DefaultCategories are seeded for every new user and cannot be edited or
// deleted.
var DefaultCategories = []core.Category{
	{Name: "Salary", Direction: core.DirectionIncome},
	{Name: "Other Income", Direction: core.DirectionIncome},
	{Name: "Groceries", Direction: core.DirectionExpense},
	{Name: "Housing", Direction: core.DirectionExpense},
	{Name: "Utilities", Direction: core.DirectionExpense},
	{Name: "Transportation", Direction: core.DirectionExpense},
	{Name: "Health", Direction: core.DirectionExpense},
	{Name: "Dining Out", Direction: core.DirectionExpense},
	{Name: "Entertainment", Direction: core.DirectionExpense},
	{Name: "Transfers", Direction: core.DirectionExpense},
	{Name: "Other Expenses", Direction: core.DirectionExpense},
}

// CreateUser inserts a user and seeds the default categories in one
// transaction.
func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	u.Email = strings.TrimSpace(u.Email)
	u.Name = strings.TrimSpace(u.Name)
	created := now()
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO users (email, name, created_at) VALUES (?, ?, ?)`,
			u.Email, u.Name, created)
		if isUniqueViolation(err) {
			return core.ErrDuplicateUser
		}
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		if u.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("user id: %w", err)
		}
		for _, c := range DefaultCategories {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO categories (user_id, name, direction, is_default, created_at) VALUES (?, ?, ?, 1, ?)`,
				u.ID, c.Name, string(c.Direction), created); err != nil {
				return fmt.Errorf("seed category %s: %w", c.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return core.User{}, err
	}
	u.CreatedAt = parseTimestamp(created)
	return u, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (core.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, email, name, created_at FROM users WHERE id = ?`, id))
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT id, email, name, created_at FROM users WHERE email = ?`, strings.TrimSpace(email)))
}

// DeleteUser removes a user; every owned row goes with it.
func (r *SQLiteRepository) DeleteUser(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrUserNotFound
	}
	return nil
}

// IssueToken creates a new API token for the user and returns its plaintext.
// Only the SHA-256 hash is stored.
func (r *SQLiteRepository) IssueToken(ctx context.Context, userID int64, label string) (string, error) {
	if _, err := r.GetUser(ctx, userID); err != nil {
		return "", err
	}
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(raw)
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO api_tokens (user_id, token_hash, label, created_at) VALUES (?, ?, ?, ?)`,
		userID, hashToken(token), label, now()); err != nil {
		return "", fmt.Errorf("insert token: %w", err)
	}
	return token, nil
}

// UserByToken resolves a plaintext API token to its owner.
func (r *SQLiteRepository) UserByToken(ctx context.Context, token string) (core.User, error) {
	if token == "" {
		return core.User{}, core.ErrInvalidToken
	}
	hash := hashToken(token)
	u, err := scanUser(r.db.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.name, u.created_at
		FROM api_tokens t JOIN users u ON u.id = t.user_id
		WHERE t.token_hash = ?`, hash))
	if errors.Is(err, core.ErrUserNotFound) {
		return core.User{}, core.ErrInvalidToken
	}
	if err != nil {
		return core.User{}, fmt.Errorf("lookup token: %w", err)
	}
	// Usage tracking only; a failure here must not reject the request.
	_, _ = r.db.ExecContext(ctx, `UPDATE api_tokens SET last_used_at = ? WHERE token_hash = ?`, now(), hash)
	return u, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func scanUser(row scanner) (core.User, error) {
	var u core.User
	var created string
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &created); err != nil {
		return core.User{}, notFound(err, core.ErrUserNotFound)
	}
	u.CreatedAt = parseTimestamp(created)
	return u, nil
}
