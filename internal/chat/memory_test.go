package chat

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/wattson-io/wattson-core/internal/audit"
	"github.com/wattson-io/wattson-core/internal/infrastructure/database"
)

func TestMemory_RingEviction(t *testing.T) {
	m := NewMemory(3)
	for i := 1; i <= 5; i++ {
		m.Append(audit.ChatRecord{Question: fmt.Sprintf("q%d", i)})
	}

	if m.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", m.Len())
	}

	got := m.Last(3)
	for i, want := range []string{"q3", "q4", "q5"} {
		if got[i].Question != want {
			t.Errorf("Last(3)[%d] = %q, want %q", i, got[i].Question, want)
		}
	}
}

func TestMemory_LastClampsToSize(t *testing.T) {
	m := NewMemory(10)
	m.Append(audit.ChatRecord{Question: "only"})

	got := m.Last(5)
	if len(got) != 1 || got[0].Question != "only" {
		t.Errorf("Last(5) = %v, want the single record", got)
	}
}

func TestMemory_LoadRestoresHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(database.Config{
		Path:        dbPath,
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	repo := audit.NewSQLiteRepository(db.DB)

	for i := 1; i <= 4; i++ {
		if err := repo.SaveExchange(ctx, &audit.ChatRecord{
			Question: fmt.Sprintf("q%d", i),
			Answer:   fmt.Sprintf("a%d", i),
			Language: "en",
		}); err != nil {
			t.Fatalf("SaveExchange() error = %v", err)
		}
	}

	m := NewMemory(100)
	if err := m.Load(ctx, repo); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if m.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", m.Len())
	}

	// Chronological order, oldest first
	got := m.Last(2)
	if got[0].Question != "q3" || got[1].Question != "q4" {
		t.Errorf("Last(2) = [%q, %q], want [q3, q4]", got[0].Question, got[1].Question)
	}
}
