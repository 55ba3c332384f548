package actuation

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wattson-io/wattson-core/internal/building"
	"github.com/wattson-io/wattson-core/internal/infrastructure/database"
	_ "github.com/wattson-io/wattson-core/migrations" // register embedded schema
)

// mockPublisher records published messages behind a mutex.
type mockPublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads [][]byte
	err      error
}

func (m *mockPublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.topics = append(m.topics, topic)
	m.payloads = append(m.payloads, payload)
	return nil
}

func (m *mockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.topics)
}

// setupGateway returns a gateway over a migrated temp database with one
// seeded room and device, plus the repository for assertions.
func setupGateway(t *testing.T, pub Publisher) (*Gateway, *building.SQLiteRepository) {
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

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	repo := building.NewSQLiteRepository(db.DB)
	if err := repo.CreateRoom(ctx, &building.Room{ID: "lab-a", Name: "Lab A", Active: true}); err != nil {
		t.Fatalf("seeding room: %v", err)
	}
	if err := repo.CreateDevice(ctx, &building.Device{
		ID:     "AC_LAB_A",
		RoomID: "lab-a",
		Type:   building.DeviceAC,
		Name:   "AC Lab A",
	}); err != nil {
		t.Fatalf("seeding device: %v", err)
	}

	var opts []Option
	if pub != nil {
		opts = append(opts, WithPublisher(pub, 1))
	}
	return NewGateway(db.DB, opts...), repo
}

func TestApply_TurnsDeviceOn(t *testing.T) {
	pub := &mockPublisher{}
	gw, repo := setupGateway(t, pub)
	ctx := context.Background()

	if err := gw.Apply(ctx, "AC_LAB_A", building.StatusOn, SourceAgent); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	device, err := repo.GetDevice(ctx, "AC_LAB_A")
	if err != nil {
		t.Fatalf("GetDevice() error = %v", err)
	}
	if device.Status != building.StatusOn {
		t.Errorf("status = %q, want ON", device.Status)
	}
	if device.LastCommand == nil || *device.LastCommand != building.StatusOn {
		t.Errorf("last_command = %v, want ON", device.LastCommand)
	}
	if device.LastUpdate == nil {
		t.Error("last_update not set")
	}

	if pub.count() != 1 {
		t.Errorf("published = %d messages, want 1", pub.count())
	}
	if pub.topics[0] != "wattson/command/generic/AC_LAB_A" {
		t.Errorf("topic = %q, want wattson/command/generic/AC_LAB_A", pub.topics[0])
	}
}

func TestApply_Idempotent(t *testing.T) {
	gw, repo := setupGateway(t, nil)
	ctx := context.Background()

	// Same command twice: same end state, two audit rows, no error
	if err := gw.Apply(ctx, "AC_LAB_A", building.StatusOn, SourceAgent); err != nil {
		t.Fatalf("first Apply() error = %v", err)
	}
	if err := gw.Apply(ctx, "AC_LAB_A", building.StatusOn, SourceAgent); err != nil {
		t.Fatalf("second Apply() error = %v", err)
	}

	device, err := repo.GetDevice(ctx, "AC_LAB_A")
	if err != nil {
		t.Fatalf("GetDevice() error = %v", err)
	}
	if device.Status != building.StatusOn {
		t.Errorf("status = %q, want ON", device.Status)
	}

	entries, err := gw.ListLog(ctx, "AC_LAB_A", 10)
	if err != nil {
		t.Fatalf("ListLog() error = %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("audit rows = %d, want 2", len(entries))
	}
}

func TestApply_UnknownDevice(t *testing.T) {
	gw, _ := setupGateway(t, nil)

	err := gw.Apply(context.Background(), "AC_NOWHERE", building.StatusOn, SourceAgent)
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Apply(unknown) error = %v, want ErrDeviceNotFound", err)
	}

	// No orphaned audit row
	entries, err := gw.ListLog(context.Background(), "AC_NOWHERE", 10)
	if err != nil {
		t.Fatalf("ListLog() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("audit rows = %d, want 0", len(entries))
	}
}

func TestApply_InvalidCommand(t *testing.T) {
	gw, _ := setupGateway(t, nil)

	err := gw.Apply(context.Background(), "AC_LAB_A", "TOGGLE", SourceAgent)
	if !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("Apply(TOGGLE) error = %v, want ErrInvalidCommand", err)
	}
}

func TestApply_PublishFailureIsNotFatal(t *testing.T) {
	pub := &mockPublisher{err: errors.New("broker gone")}
	gw, repo := setupGateway(t, pub)
	ctx := context.Background()

	if err := gw.Apply(ctx, "AC_LAB_A", building.StatusOff, SourceOperator); err != nil {
		t.Fatalf("Apply() error = %v, want nil despite publish failure", err)
	}

	device, err := repo.GetDevice(ctx, "AC_LAB_A")
	if err != nil {
		t.Fatalf("GetDevice() error = %v", err)
	}
	if device.Status != building.StatusOff {
		t.Errorf("status = %q, want OFF (repository is source of truth)", device.Status)
	}
}

func TestApply_ConcurrentSameDevice(t *testing.T) {
	gw, _ := setupGateway(t, nil)
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cmd := building.StatusOn
			if i%2 == 0 {
				cmd = building.StatusOff
			}
			errs <- gw.Apply(ctx, "AC_LAB_A", cmd, SourceAgent)
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("concurrent Apply() error = %v", err)
		}
	}

	// Every apply paired with exactly one audit row
	entries, err := gw.ListLog(ctx, "AC_LAB_A", 100)
	if err != nil {
		t.Fatalf("ListLog() error = %v", err)
	}
	if len(entries) != n {
		t.Errorf("audit rows = %d, want %d", len(entries), n)
	}
}
