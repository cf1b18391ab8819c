package admin

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"bilancio/internal/log"
)

func run(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(db, log.New(log.Config{Output: io.Discard}))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestAdminCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "bilancio.db")

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr string
	}{
		{"migrate up", []string{"migrate", "up"}, "schema version 1 (clean)", ""},
		{"migrate status", []string{"migrate", "status"}, "schema version 1 (clean)", ""},
		{"create user", []string{"user", "create", "--email", "ada@example.com", "--name", "Ada"}, "created user 1 <ada@example.com>", ""},
		{"duplicate user", []string{"user", "create", "--email", "ADA@example.com"}, "", "already"},
		{"missing email", []string{"user", "create"}, "", "required flag"},
		{"issue token bad id", []string{"token", "issue", "abc"}, "", "invalid user id"},
		{"verify balances", []string{"balances", "verify"}, "all balances consistent", ""},
		{"rebuild balances", []string{"balances", "rebuild", "--owner", "1"}, "0 account(s) corrected", ""},
		{"sweep alerts", []string{"alerts", "sweep"}, "0 alert(s) raised", ""},
		{"delete user", []string{"user", "delete", "1"}, "deleted user 1", ""},
		{"delete missing user", []string{"user", "delete", "1"}, "", "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, db, tt.args...)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(strings.ToLower(err.Error()), tt.wantErr) {
					t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Fatalf("output = %q, want containing %q", out, tt.want)
			}
		})
	}
}

func TestIssueToken(t *testing.T) {
	db := filepath.Join(t.TempDir(), "bilancio.db")
	if _, err := run(t, db, "user", "create", "--email", "tok@example.com"); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, db, "token", "issue", "1", "--label", "laptop")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if token := strings.TrimSpace(out); len(token) < 32 {
		t.Fatalf("token too short: %q", token)
	}
	if _, err := run(t, db, "token", "issue", "42"); err == nil {
		t.Fatal("expected error for unknown user")
	}
}
