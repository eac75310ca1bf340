package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCreateSQLMigrationSortsAfterNewestVersion(t *testing.T) {
	dir := t.TempDir()
	latest := filepath.Join(dir, "20260301091500_create_services.sql")
	if err := os.WriteFile(latest, []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("seed migration: %v", err)
	}

	skewed := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	path, err := createSQLMigration(dir, "add vote notes", skewed)
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if got := filepath.Base(path); got != "20260301091501_add_vote_notes.sql" {
		t.Fatalf("expected version bumped past newest, got %s", got)
	}

	later := time.Date(2026, 4, 1, 8, 30, 0, 0, time.UTC)
	path, err = createSQLMigration(dir, "index votes", later)
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "20260401083000_") {
		t.Fatalf("expected clock version, got %s", filepath.Base(path))
	}
}

func TestValidateBody(t *testing.T) {
	cases := []struct {
		name string
		body string
		ok   bool
	}{
		{name: "well formed", body: fmtMigration("SELECT 1;"), ok: true},
		{name: "down before up", body: "-- +goose Down\n-- +goose Up\n"},
		{name: "unbalanced", body: "-- +goose Up\n-- +goose StatementBegin\n-- +goose Down\n"},
		{name: "missing down", body: "-- +goose Up\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateBody(tc.body)
			if tc.ok && err != nil {
				t.Fatalf("expected valid body, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected error for %q", tc.body)
			}
		})
	}
}

func TestMigrationSlug(t *testing.T) {
	if got := migrationSlug("  Add Voting-Window Index!! "); got != "add_voting_window_index" {
		t.Fatalf("unexpected slug %q", got)
	}
}

func fmtMigration(stmt string) string {
	return "-- +goose Up\n-- +goose StatementBegin\n" + stmt + "\n-- +goose StatementEnd\n\n-- +goose Down\n-- +goose StatementBegin\n-- +goose StatementEnd\n"
}
