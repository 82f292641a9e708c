package migrations

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nerrad567/gray-logic-desk/internal/infrastructure/database"
)

func TestEmbeddedMigrationsApply(t *testing.T) {
	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "desk.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck // Test cleanup

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	if _, err := db.ExecContext(ctx,
		"INSERT INTO cue_lists (number, document) VALUES (?, ?)", 1, `{"cue_list_number":1,"cues":[]}`,
	); err != nil {
		t.Fatalf("inserting into cue_lists: %v", err)
	}
	if _, err := db.ExecContext(ctx,
		"INSERT INTO operator_journal (id, action, entity_type, source, created_at) VALUES (?, ?, ?, ?, ?)",
		"jnl-1", "go", "cue", "api", "2026-10-17T20:00:00.000000000Z",
	); err != nil {
		t.Fatalf("inserting into operator_journal: %v", err)
	}

	if err := db.MigrateDown(ctx); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}
}
