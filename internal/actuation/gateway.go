package actuation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wattson-io/wattson-core/internal/building"
	wmqtt "github.com/wattson-io/wattson-core/internal/infrastructure/mqtt"
)

// Source values recorded in the actuation log.
const (
	SourceAgent    = "agent"
	SourceOperator = "operator"
	SourceAPI      = "api"
)

// defaultProtocol is the bridge protocol segment used in command topics
// when none is configured.
const defaultProtocol = "generic"

// Publisher sends actuation commands to device bridges.
// Satisfied by the infrastructure mqtt.Client; nil-able for tests and
// deployments without a broker.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Logger is the minimal logging interface the gateway needs.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger discards all log output.
type noopLogger struct{}

func (noopLogger) Info(msg string, args ...any) {}
func (noopLogger) Warn(msg string, args ...any) {}

// Gateway is the single chokepoint through which device state changes.
//
// Every Apply pairs the device status update with exactly one actuation_log
// row in a single SQLite transaction; the MQTT fan-out to the physical
// bridge happens after commit and is best effort. The repository is the
// source of truth for device state.
//
// Thread Safety:
//   - Safe for concurrent use; SQLite's single-writer connection serialises
//     concurrent Apply calls, and each commits atomically with its own
//     audit row.
type Gateway struct {
	db        *sql.DB
	publisher Publisher
	logger    Logger
	protocol  string
	qos       byte
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithPublisher attaches an MQTT publisher for command fan-out.
func WithPublisher(p Publisher, qos byte) Option {
	return func(g *Gateway) {
		g.publisher = p
		g.qos = qos
	}
}

// WithLogger attaches a logger.
func WithLogger(l Logger) Option {
	return func(g *Gateway) {
		g.logger = l
	}
}

// WithProtocol overrides the bridge protocol segment in command topics.
func WithProtocol(protocol string) Option {
	return func(g *Gateway) {
		g.protocol = protocol
	}
}

// NewGateway creates an actuation gateway over the given database.
func NewGateway(db *sql.DB, opts ...Option) *Gateway {
	g := &Gateway{
		db:       db,
		logger:   noopLogger{},
		protocol: defaultProtocol,
		qos:      1,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// commandPayload is the JSON published to the device bridge.
type commandPayload struct {
	DeviceID  string `json:"device_id"`
	Command   string `json:"command"`
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
}

// Apply sets a device to the given command (ON or OFF).
//
// In one transaction it updates the device row and appends an actuation_log
// entry, then publishes the command to the bridge topic. Applying the
// current state again is not an error: the end state is unchanged and a
// second audit row records the repeated command.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - deviceID: Logical device identifier (e.g. "AC_LAB_A")
//   - command: building.StatusOn or building.StatusOff
//   - source: Who initiated the change (agent, operator, api)
//
// Returns:
//   - error: ErrInvalidCommand, ErrDeviceNotFound, or a wrapped storage error
func (g *Gateway) Apply(ctx context.Context, deviceID, command, source string) error {
	if command != building.StatusOn && command != building.StatusOff {
		return fmt.Errorf("%w: %q", ErrInvalidCommand, command)
	}

	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	result, err := tx.ExecContext(ctx,
		"UPDATE devices SET status = ?, last_command = ?, last_update = ? WHERE id = ?",
		command, command, now, deviceID,
	)
	if err != nil {
		return fmt.Errorf("updating device: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
	}

	logID := "act-" + uuid.NewString()[:8]
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO actuation_log (id, device_id, command, source, timestamp) VALUES (?, ?, ?, ?, ?)",
		logID, deviceID, command, source, now,
	); err != nil {
		return fmt.Errorf("inserting actuation log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing actuation: %w", err)
	}

	g.logger.Info("device actuated",
		"device_id", deviceID,
		"command", command,
		"source", source,
	)

	g.publish(deviceID, command, source, now)
	return nil
}

// publish fans the committed command out to the bridge. Failures are logged,
// never returned: the repository already holds the authoritative state and
// bridges reconcile on reconnect.
func (g *Gateway) publish(deviceID, command, source, timestamp string) {
	if g.publisher == nil {
		return
	}

	payload, err := json.Marshal(commandPayload{
		DeviceID:  deviceID,
		Command:   command,
		Source:    source,
		Timestamp: timestamp,
	})
	if err != nil {
		g.logger.Warn("marshalling command payload", "device_id", deviceID, "error", err)
		return
	}

	topic := wmqtt.Topics{}.DeviceCommand(g.protocol, deviceID)
	if err := g.publisher.Publish(topic, payload, g.qos, false); err != nil {
		g.logger.Warn("publishing command", "topic", topic, "error", err)
	}
}

// LogEntry is one row of the actuation audit log.
type LogEntry struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"device_id"`
	Command   string    `json:"command"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// ListLog retrieves recent actuation log entries for a device, newest first.
func (g *Gateway) ListLog(ctx context.Context, deviceID string, limit int) ([]LogEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := g.db.QueryContext(ctx,
		"SELECT id, device_id, command, source, timestamp FROM actuation_log WHERE device_id = ? ORDER BY timestamp DESC, id DESC LIMIT ?",
		deviceID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying actuation log: %w", err)
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var e LogEntry
		var ts string
		if err := rows.Scan(&e.ID, &e.DeviceID, &e.Command, &e.Source, &ts); err != nil {
			return nil, fmt.Errorf("scanning actuation log: %w", err)
		}
		e.Timestamp, _ = time.Parse(time.RFC3339, ts) //nolint:errcheck // Format is controlled
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating actuation log: %w", err)
	}
	return entries, nil
}
