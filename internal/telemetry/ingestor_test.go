package telemetry

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/wattson-io/wattson-core/internal/building"
	"github.com/wattson-io/wattson-core/internal/infrastructure/database"
	_ "github.com/wattson-io/wattson-core/migrations" // register embedded schema
)

// mockMirror records mirrored readings behind a mutex.
type mockMirror struct {
	mu       sync.Mutex
	readings []mirroredReading
}

type mirroredReading struct {
	sensorID   string
	roomID     string
	sensorType string
	value      float64
}

func (m *mockMirror) WriteSensorReading(sensorID, roomID, sensorType string, value float64, timestamp time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readings = append(m.readings, mirroredReading{
		sensorID:   sensorID,
		roomID:     roomID,
		sensorType: sensorType,
		value:      value,
	})
}

func setupIngestor(t *testing.T) (*Ingestor, *building.SQLiteRepository, *mockMirror) {
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
	if err := repo.CreateSensor(ctx, &building.Sensor{
		ID:     "temp-1",
		RoomID: "lab-a",
		Type:   building.SensorTemperature,
		Unit:   "C",
	}); err != nil {
		t.Fatalf("seeding sensor: %v", err)
	}

	mirror := &mockMirror{}
	return NewIngestor(repo, WithMirror(mirror)), repo, mirror
}

func TestHandle_ValidReading(t *testing.T) {
	ing, repo, mirror := setupIngestor(t)

	err := ing.Handle("wattson/telemetry/lab-a/temp-1", []byte(`{"value": 23.4, "quality": 95}`))
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	value, err := repo.LatestValue(context.Background(), "lab-a", building.SensorTemperature)
	if err != nil {
		t.Fatalf("LatestValue() error = %v", err)
	}
	if value == nil || *value != 23.4 {
		t.Errorf("cached value = %v, want 23.4", value)
	}

	if len(mirror.readings) != 1 {
		t.Fatalf("mirrored readings = %d, want 1", len(mirror.readings))
	}
	m := mirror.readings[0]
	if m.sensorID != "temp-1" || m.roomID != "lab-a" || m.sensorType != building.SensorTemperature || m.value != 23.4 {
		t.Errorf("mirrored reading = %+v", m)
	}
}

func TestHandle_PayloadSensorIDMustMatchTopic(t *testing.T) {
	ing, _, mirror := setupIngestor(t)

	err := ing.Handle("wattson/telemetry/lab-a/temp-1", []byte(`{"sensor_id": "temp-9", "value": 23.4}`))
	if err == nil {
		t.Fatal("Handle() error = nil, want mismatch error")
	}
	if len(mirror.readings) != 0 {
		t.Errorf("mirrored readings = %d, want 0", len(mirror.readings))
	}
}

func TestHandle_MalformedPayload(t *testing.T) {
	ing, repo, _ := setupIngestor(t)

	if err := ing.Handle("wattson/telemetry/lab-a/temp-1", []byte(`{not json`)); err == nil {
		t.Fatal("Handle() error = nil, want decode error")
	}
	if err := ing.Handle("wattson/telemetry/lab-a/temp-1", []byte(`{"quality": 90}`)); err == nil {
		t.Fatal("Handle() error = nil, want missing-value error")
	}

	value, err := repo.LatestValue(context.Background(), "lab-a", building.SensorTemperature)
	if err != nil {
		t.Fatalf("LatestValue() error = %v", err)
	}
	if value != nil {
		t.Errorf("cached value = %v, want nil after dropped messages", value)
	}
}

func TestHandle_UnknownSensor(t *testing.T) {
	ing, _, mirror := setupIngestor(t)

	err := ing.Handle("wattson/telemetry/lab-a/ghost-1", []byte(`{"value": 1}`))
	if !errors.Is(err, building.ErrSensorNotFound) {
		t.Errorf("Handle(unknown sensor) error = %v, want ErrSensorNotFound", err)
	}
	if len(mirror.readings) != 0 {
		t.Errorf("mirrored readings = %d, want 0", len(mirror.readings))
	}
}

func TestHandle_BadTopic(t *testing.T) {
	ing, _, _ := setupIngestor(t)

	for _, topic := range []string{"wattson/telemetry", "wattson/telemetry/lab-a/", "odd"} {
		if err := ing.Handle(topic, []byte(`{"value": 1}`)); err == nil {
			t.Errorf("Handle(%q) error = nil, want topic error", topic)
		}
	}
}

func TestHandle_DefaultsQualityAndTimestamp(t *testing.T) {
	ing, repo, _ := setupIngestor(t)

	if err := ing.Handle("wattson/telemetry/lab-a/temp-1", []byte(`{"value": 20}`)); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	sensor, err := repo.GetSensor(context.Background(), "temp-1")
	if err != nil {
		t.Fatalf("GetSensor() error = %v", err)
	}
	if sensor.LastUpdate == nil {
		t.Error("last_update not set")
	}
}
