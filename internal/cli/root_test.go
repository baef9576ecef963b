package cli

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"expenses/internal/core"
)

func runCommand(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("LOG_LEVEL", "error")
	cmd := NewRootCommand(strings.NewReader(input))
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandsShareLedgerFile(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ledger.db")

	if out, err := runCommand(t, "", "--db", db, "admin", "fixed-price", "set", "Rent", "655"); err != nil || !strings.Contains(out, "Rent = 655.00") {
		t.Fatalf("fixed-price set: %q (err=%v)", out, err)
	}
	if out, err := runCommand(t, "", "--db", db, "admin", "fixed-price", "get", "Rent"); err != nil || strings.TrimSpace(out) != "655.00" {
		t.Fatalf("fixed-price get: %q (err=%v)", out, err)
	}

	// interactive entry of a fixed-price expense
	if _, err := runCommand(t, "1\n2024-01-15\n1\nRent\n11\n", "--db", db); err != nil {
		t.Fatalf("menu: %v", err)
	}

	out, err := runCommand(t, "", "--db", db, "report", "by-category")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.Contains(out, "Rent") || !strings.Contains(out, "655") {
		t.Fatalf("expected Rent 655 in report:\n%s", out)
	}

	if out, err := runCommand(t, "", "--db", db, "undo"); err != nil || !strings.Contains(out, "Removed expense Rent 655.00 on 2024-01-15") {
		t.Fatalf("undo: %q (err=%v)", out, err)
	}
	if _, err := runCommand(t, "", "--db", db, "undo"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReportRejectsUnknownKind(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ledger.db")
	if _, err := runCommand(t, "", "--db", db, "report", "weekly"); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestInvalidConfigIsReported(t *testing.T) {
	t.Setenv("RECENT_EXPENSES_LIMIT", "0")
	db := filepath.Join(t.TempDir(), "ledger.db")
	_, err := runCommand(t, "", "--db", db, "report", "income")
	if err == nil || !strings.Contains(err.Error(), "configuration validation failed") {
		t.Fatalf("expected config error, got %v", err)
	}
}
