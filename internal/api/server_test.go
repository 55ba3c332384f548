package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wattson-io/wattson-core/internal/actuation"
	"github.com/wattson-io/wattson-core/internal/agent"
	"github.com/wattson-io/wattson-core/internal/audit"
	"github.com/wattson-io/wattson-core/internal/building"
	"github.com/wattson-io/wattson-core/internal/chat"
	"github.com/wattson-io/wattson-core/internal/infrastructure/config"
	"github.com/wattson-io/wattson-core/internal/infrastructure/database"
	"github.com/wattson-io/wattson-core/internal/infrastructure/logging"
	_ "github.com/wattson-io/wattson-core/migrations" // register embedded schema
)

// apiEnv bundles the API test fixtures.
type apiEnv struct {
	router   http.Handler
	building *building.SQLiteRepository
	audit    *audit.SQLiteRepository
}

func setupServer(t *testing.T) *apiEnv {
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

	buildingRepo := building.NewSQLiteRepository(db.DB)
	auditRepo := audit.NewSQLiteRepository(db.DB)
	gateway := actuation.NewGateway(db.DB)
	orchestrator := agent.NewOrchestrator(agent.NewRoster(agent.PolicyDeps{
		Building: buildingRepo,
		Audit:    auditRepo,
		Actuator: gateway,
	}), auditRepo)

	// Offline chat: no generator, snapshot-only answers
	chatService := chat.NewService(chat.ServiceConfig{
		Building:           buildingRepo,
		Audit:              auditRepo,
		Dispatcher:         chat.NewDispatcher(buildingRepo, gateway, orchestrator),
		ConfirmDestructive: true,
	})

	logger := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stderr"}, "test")

	server, err := New(Deps{
		Config:       config.APIConfig{Host: "127.0.0.1", Port: 0},
		Logger:       logger,
		Building:     buildingRepo,
		Audit:        auditRepo,
		Actuator:     gateway,
		Chat:         chatService,
		Orchestrator: orchestrator,
		Version:      "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return &apiEnv{
		router:   server.buildRouter(),
		building: buildingRepo,
		audit:    auditRepo,
	}
}

func (e *apiEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *apiEnv) seedRoom(t *testing.T, roomID string) {
	t.Helper()
	ctx := context.Background()
	if err := e.building.CreateRoom(ctx, &building.Room{ID: roomID, Name: roomID, Active: true}); err != nil {
		t.Fatalf("seeding room: %v", err)
	}
	if err := e.building.CreateDevice(ctx, &building.Device{
		ID:     "AC_" + roomID,
		RoomID: roomID,
		Type:   building.DeviceAC,
		Name:   "AC " + roomID,
	}); err != nil {
		t.Fatalf("seeding device: %v", err)
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response body: %v\nbody: %s", err, rec.Body.String())
	}
	return body
}

func TestHandleHealth(t *testing.T) {
	env := setupServer(t)

	rec := env.do(t, http.MethodGet, "/api/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
	if body["version"] != "test" {
		t.Errorf("version field = %v, want test", body["version"])
	}
}

func TestHandleListRooms(t *testing.T) {
	env := setupServer(t)
	env.seedRoom(t, "lab-a")

	rec := env.do(t, http.MethodGet, "/api/v1/rooms/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	rooms, ok := body["rooms"].([]any)
	if !ok || len(rooms) != 1 {
		t.Errorf("rooms = %v, want 1 entry", body["rooms"])
	}
}

func TestHandleGetRoom_NotFound(t *testing.T) {
	env := setupServer(t)

	rec := env.do(t, http.MethodGet, "/api/v1/rooms/ghost", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleDeviceCommand(t *testing.T) {
	env := setupServer(t)
	env.seedRoom(t, "lab-a")

	rec := env.do(t, http.MethodPost, "/api/v1/devices/AC_lab-a/command", `{"command": "ON"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}

	device, err := env.building.GetDevice(context.Background(), "AC_lab-a")
	if err != nil {
		t.Fatalf("GetDevice() error = %v", err)
	}
	if device.Status != building.StatusOn {
		t.Errorf("device status = %q, want ON", device.Status)
	}
}

func TestHandleDeviceCommand_Validation(t *testing.T) {
	env := setupServer(t)
	env.seedRoom(t, "lab-a")

	rec := env.do(t, http.MethodPost, "/api/v1/devices/AC_lab-a/command", `{"command": "TOGGLE"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid command status = %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/devices/AC_ghost/command", `{"command": "ON"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown device status = %d, want 404", rec.Code)
	}
}

func TestHandleChat_OfflineFallback(t *testing.T) {
	env := setupServer(t)
	env.seedRoom(t, "lab-a")

	rec := env.do(t, http.MethodPost, "/api/v1/chat", `{"message": "status?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	reply, _ := body["reply"].(string)
	if !strings.Contains(reply, "basic mode") {
		t.Errorf("reply = %q, want offline fallback", reply)
	}
}

func TestHandleChat_RequiresMessage(t *testing.T) {
	env := setupServer(t)

	rec := env.do(t, http.MethodPost, "/api/v1/chat", `{"actor": "admin"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleListAgents(t *testing.T) {
	env := setupServer(t)

	rec := env.do(t, http.MethodGet, "/api/v1/agents/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	agents, ok := body["agents"].([]any)
	if !ok || len(agents) != 15 {
		t.Errorf("agents = %d entries, want 15", len(agents))
	}
}

func TestHandleTeach(t *testing.T) {
	env := setupServer(t)

	rec := env.do(t, http.MethodPost, "/api/v1/agents/teach",
		`{"agent": "Safety Monitoring AI", "instruction": "check gas sensors hourly"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}

	stored, err := env.audit.ListInstructions(context.Background(), "Safety Monitoring AI")
	if err != nil {
		t.Fatalf("ListInstructions() error = %v", err)
	}
	if len(stored) != 1 {
		t.Errorf("persisted instructions = %d, want 1", len(stored))
	}
}

func TestHandleTeach_UnknownAgent(t *testing.T) {
	env := setupServer(t)

	rec := env.do(t, http.MethodPost, "/api/v1/agents/teach",
		`{"agent": "Coffee Machine AI", "instruction": "descale"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleAlertLifecycle(t *testing.T) {
	env := setupServer(t)
	ctx := context.Background()

	alert := &audit.Alert{
		ID:       "alr-test1",
		Severity: audit.SeverityWarning,
		Title:    "Maintenance due",
		Message:  "Device over runtime",
		Location: "lab-a",
	}
	if err := env.audit.SaveAlert(ctx, alert); err != nil {
		t.Fatalf("SaveAlert() error = %v", err)
	}

	rec := env.do(t, http.MethodGet, "/api/v1/alerts/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if alerts, ok := body["alerts"].([]any); !ok || len(alerts) != 1 {
		t.Errorf("alerts = %v, want 1 entry", body["alerts"])
	}

	rec = env.do(t, http.MethodPost, "/api/v1/alerts/alr-test1/ack", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("ack status = %d, want 200", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/alerts/alr-ghost/ack", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("ack unknown status = %d, want 404", rec.Code)
	}
}

func TestHandleListDecisions_FilterByAgent(t *testing.T) {
	env := setupServer(t)
	ctx := context.Background()

	for _, agentName := range []string{"Scheduling AI", "Energy Optimization AI"} {
		if err := env.audit.LogDecision(ctx, &audit.Decision{
			AgentName:    agentName,
			DecisionType: "AUTO_OFF",
			Target:       "lab-a",
			Action:       "Power Cut",
			Confidence:   0.9,
		}); err != nil {
			t.Fatalf("LogDecision() error = %v", err)
		}
	}

	rec := env.do(t, http.MethodGet, "/api/v1/decisions?agent=Scheduling+AI", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	decisions, ok := body["decisions"].([]any)
	if !ok || len(decisions) != 1 {
		t.Fatalf("decisions = %v, want 1 filtered entry", body["decisions"])
	}
}

func TestHandleSnapshot(t *testing.T) {
	env := setupServer(t)
	env.seedRoom(t, "lab-a")

	rec := env.do(t, http.MethodGet, "/api/v1/snapshot", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["device_count"] != float64(1) {
		t.Errorf("device_count = %v, want 1", body["device_count"])
	}
}
