package agent

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/wattson-io/wattson-core/internal/audit"
	"github.com/wattson-io/wattson-core/internal/building"
	"github.com/wattson-io/wattson-core/internal/infrastructure/database"
)

func setupOrchestrator(t *testing.T) (*Orchestrator, *audit.SQLiteRepository) {
	t.Helper()

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

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	auditRepo := audit.NewSQLiteRepository(db.DB)
	roster := NewRoster(PolicyDeps{Audit: auditRepo})
	return NewOrchestrator(roster, auditRepo), auditRepo
}

func TestOrchestrator_RosterSize(t *testing.T) {
	o, _ := setupOrchestrator(t)

	infos := o.Agents()
	if len(infos) != 15 {
		t.Fatalf("roster size = %d, want 15", len(infos))
	}

	withPolicy := 0
	for _, info := range infos {
		if info.HasPolicy {
			withPolicy++
		}
	}
	if withPolicy != 5 {
		t.Errorf("agents with policies = %d, want 5", withPolicy)
	}
}

func TestTeach_ByExactName(t *testing.T) {
	o, auditRepo := setupOrchestrator(t)
	ctx := context.Background()

	msg, err := o.Teach(ctx, "Safety Monitoring AI", "check gas sensors hourly")
	if err != nil {
		t.Fatalf("Teach() error = %v", err)
	}
	if msg != "Instruction recorded for Safety Monitoring AI." {
		t.Errorf("message = %q", msg)
	}

	got := o.Instructions("Safety Monitoring AI")
	if len(got) != 1 {
		t.Fatalf("in-memory instructions = %d, want 1", len(got))
	}
	if got[0].Text != "check gas sensors hourly" {
		t.Errorf("instruction text = %q", got[0].Text)
	}

	stored, err := auditRepo.ListInstructions(ctx, "Safety Monitoring AI")
	if err != nil {
		t.Fatalf("ListInstructions() error = %v", err)
	}
	if len(stored) != 1 {
		t.Errorf("persisted instructions = %d, want 1", len(stored))
	}
}

func TestTeach_ByRoleCaseInsensitive(t *testing.T) {
	o, _ := setupOrchestrator(t)

	msg, err := o.Teach(context.Background(), "SAFETY", "prefer evacuation over lockdown")
	if err != nil {
		t.Fatalf("Teach() error = %v", err)
	}
	if msg != "Instruction recorded for Safety Monitoring AI." {
		t.Errorf("message = %q, want attribution to Safety Monitoring AI", msg)
	}
}

func TestTeach_AppendsInOrder(t *testing.T) {
	o, _ := setupOrchestrator(t)
	ctx := context.Background()

	for _, text := range []string{"first", "second", "third"} {
		if _, err := o.Teach(ctx, "Cognitive", text); err != nil {
			t.Fatalf("Teach(%q) error = %v", text, err)
		}
	}

	got := o.Instructions("Self-Learning AI")
	if len(got) != 3 {
		t.Fatalf("instructions = %d, want 3", len(got))
	}
	for i, want := range []string{"first", "second", "third"} {
		if got[i].Text != want {
			t.Errorf("instruction[%d] = %q, want %q", i, got[i].Text, want)
		}
	}
}

func TestTeach_UnknownAgent(t *testing.T) {
	o, _ := setupOrchestrator(t)

	_, err := o.Teach(context.Background(), "Coffee Machine AI", "descale weekly")
	if !errors.Is(err, ErrAgentNotFound) {
		t.Errorf("Teach(unknown) error = %v, want ErrAgentNotFound", err)
	}
}

func TestLoadInstructions_RestoresPersistedTeaching(t *testing.T) {
	o, auditRepo := setupOrchestrator(t)
	ctx := context.Background()

	if err := auditRepo.SaveInstruction(ctx, &audit.Instruction{
		AgentName: "Reporting & Analytics AI",
		Text:      "weekly summaries on Mondays",
	}); err != nil {
		t.Fatalf("SaveInstruction() error = %v", err)
	}

	if err := o.LoadInstructions(ctx); err != nil {
		t.Fatalf("LoadInstructions() error = %v", err)
	}

	got := o.Instructions("Reporting & Analytics AI")
	if len(got) != 1 {
		t.Fatalf("instructions = %d, want 1", len(got))
	}
	if got[0].Text != "weekly summaries on Mondays" {
		t.Errorf("instruction text = %q", got[0].Text)
	}
}

// Teaching is advisory context only; it must never move a policy threshold.
func TestTeach_DoesNotChangePolicyThresholds(t *testing.T) {
	env := setupPolicies(t)
	env.seedRoom(t, "server-room", building.SensorTemperature, 49)

	roster := NewRoster(env.deps)
	o := NewOrchestrator(roster, env.audit)

	if _, err := o.Teach(context.Background(), "Safety Monitoring AI", "lock down above 45 degrees"); err != nil {
		t.Fatalf("Teach() error = %v", err)
	}

	if err := SafetyPolicy(env.deps)(context.Background()); err != nil {
		t.Fatalf("policy error = %v", err)
	}
	if env.actuator.count() != 0 {
		t.Errorf("commands dispatched = %d, want 0 at 49 degrees after teaching", env.actuator.count())
	}
}
