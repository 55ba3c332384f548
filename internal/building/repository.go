package building

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for building state persistence.
// This abstraction allows different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// Rooms
	CreateRoom(ctx context.Context, room *Room) error
	GetRoom(ctx context.Context, id string) (*Room, error)
	GetRoomByName(ctx context.Context, name string) (*Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	DeleteRoom(ctx context.Context, id string) error

	// Sensors
	CreateSensor(ctx context.Context, sensor *Sensor) error
	GetSensor(ctx context.Context, id string) (*Sensor, error)
	ListSensors(ctx context.Context) ([]Sensor, error)
	ListSensorsByRoom(ctx context.Context, roomID string) ([]Sensor, error)
	ListSensorsByType(ctx context.Context, sensorType string) ([]Sensor, error)
	DeleteSensor(ctx context.Context, id string) error

	// Readings (append-only; also refreshes the sensor's cached last value)
	RecordReading(ctx context.Context, reading *SensorReading) error
	LatestValue(ctx context.Context, roomID, sensorType string) (*float64, error)
	AggregatePower(ctx context.Context) (float64, error)

	// Devices
	CreateDevice(ctx context.Context, device *Device) error
	GetDevice(ctx context.Context, id string) (*Device, error)
	ListDevices(ctx context.Context) ([]Device, error)
	ListDevicesByRoom(ctx context.Context, roomID string) ([]Device, error)
	ListDevicesOverRuntime(ctx context.Context, hours float64) ([]Device, error)

	// Schedules
	CreateSchedule(ctx context.Context, entry *ScheduleEntry) error
	ListSchedulesStartingBetween(ctx context.Context, from, to time.Time) ([]ScheduleEntry, error)
	ListSchedulesEndingBetween(ctx context.Context, from, to time.Time) ([]ScheduleEntry, error)
	MarkScheduleCompleted(ctx context.Context, id string) error

	// Snapshot
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// Column lists for SELECT queries.
const (
	roomColumns     = `id, name, area, floor, building, active, created_at`
	sensorColumns   = `id, room_id, type, unit, last_value, last_update, status`
	deviceColumns   = `id, room_id, type, name, status, last_command, runtime_hours, last_update`
	scheduleColumns = `id, room_id, event_name, start_time, end_time, min_temp, max_temp, priority, completed`
)

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// ─── Rooms ──────────────────────────────────────────────────────────────────

// CreateRoom inserts a new room.
func (r *SQLiteRepository) CreateRoom(ctx context.Context, room *Room) error {
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO rooms (id, name, area, floor, building, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		room.ID,
		room.Name,
		room.Area,
		room.Floor,
		room.Building,
		boolToInt(room.Active),
		room.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrRoomExists
		}
		return fmt.Errorf("inserting room: %w", err)
	}
	return nil
}

// GetRoom retrieves a room by its unique identifier.
func (r *SQLiteRepository) GetRoom(ctx context.Context, id string) (*Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = ?`

	room, err := scanRoom(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("querying room by id: %w", err)
	}
	return room, nil
}

// GetRoomByName retrieves a room by its display name (case-insensitive).
func (r *SQLiteRepository) GetRoomByName(ctx context.Context, name string) (*Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE LOWER(name) = LOWER(?)`

	room, err := scanRoom(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("querying room by name: %w", err)
	}
	return room, nil
}

// ListRooms retrieves all rooms ordered by name.
func (r *SQLiteRepository) ListRooms(ctx context.Context) ([]Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying rooms: %w", err)
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		room, scanErr := scanRoom(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scanning room: %w", scanErr)
		}
		rooms = append(rooms, *room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rooms: %w", err)
	}
	return rooms, nil
}

// DeleteRoom removes a room by ID. Sensors, devices, and schedules in the
// room are removed by foreign key cascade.
func (r *SQLiteRepository) DeleteRoom(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM rooms WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting room: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// ─── Sensors ────────────────────────────────────────────────────────────────

// CreateSensor inserts a new sensor.
func (r *SQLiteRepository) CreateSensor(ctx context.Context, sensor *Sensor) error {
	if sensor.Status == "" {
		sensor.Status = "active"
	}

	query := `
		INSERT INTO sensors (id, room_id, type, unit, last_value, last_update, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		sensor.ID,
		sensor.RoomID,
		sensor.Type,
		sensor.Unit,
		sensor.LastValue,
		nullableTime(sensor.LastUpdate),
		sensor.Status,
	)
	if err != nil {
		return fmt.Errorf("inserting sensor: %w", err)
	}
	return nil
}

// GetSensor retrieves a sensor by its unique identifier.
func (r *SQLiteRepository) GetSensor(ctx context.Context, id string) (*Sensor, error) {
	query := `SELECT ` + sensorColumns + ` FROM sensors WHERE id = ?`

	sensor, err := scanSensor(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSensorNotFound
		}
		return nil, fmt.Errorf("querying sensor: %w", err)
	}
	return sensor, nil
}

// ListSensors retrieves all sensors.
func (r *SQLiteRepository) ListSensors(ctx context.Context) ([]Sensor, error) {
	query := `SELECT ` + sensorColumns + ` FROM sensors ORDER BY room_id, id`
	return r.querySensors(ctx, query)
}

// ListSensorsByRoom retrieves all sensors in a room.
func (r *SQLiteRepository) ListSensorsByRoom(ctx context.Context, roomID string) ([]Sensor, error) {
	query := `SELECT ` + sensorColumns + ` FROM sensors WHERE room_id = ? ORDER BY id`
	return r.querySensors(ctx, query, roomID)
}

// ListSensorsByType retrieves all sensors of a given type.
func (r *SQLiteRepository) ListSensorsByType(ctx context.Context, sensorType string) ([]Sensor, error) {
	query := `SELECT ` + sensorColumns + ` FROM sensors WHERE type = ? ORDER BY room_id, id`
	return r.querySensors(ctx, query, sensorType)
}

// DeleteSensor removes a sensor by ID.
func (r *SQLiteRepository) DeleteSensor(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sensors WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting sensor: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrSensorNotFound
	}
	return nil
}

// querySensors executes a query and returns a slice of sensors.
func (r *SQLiteRepository) querySensors(ctx context.Context, query string, args ...any) ([]Sensor, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sensors: %w", err)
	}
	defer rows.Close()

	var sensors []Sensor
	for rows.Next() {
		sensor, scanErr := scanSensor(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scanning sensor: %w", scanErr)
		}
		sensors = append(sensors, *sensor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sensors: %w", err)
	}
	return sensors, nil
}

// ─── Readings ───────────────────────────────────────────────────────────────

// RecordReading appends a sensor reading and refreshes the sensor's cached
// last value. Both writes happen in one transaction so the cache can never
// disagree with the history.
func (r *SQLiteRepository) RecordReading(ctx context.Context, reading *SensorReading) error {
	if reading.Timestamp.IsZero() {
		reading.Timestamp = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	ts := reading.Timestamp.Format(time.RFC3339)

	result, err := tx.ExecContext(ctx,
		"UPDATE sensors SET last_value = ?, last_update = ? WHERE id = ?",
		reading.Value, ts, reading.SensorID,
	)
	if err != nil {
		return fmt.Errorf("updating sensor cache: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrSensorNotFound
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO sensor_readings (id, sensor_id, value, quality, timestamp) VALUES (?, ?, ?, ?, ?)",
		reading.ID, reading.SensorID, reading.Value, reading.Quality, ts,
	); err != nil {
		return fmt.Errorf("inserting reading: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing reading: %w", err)
	}
	return nil
}

// LatestValue returns the most recent cached value for a room's sensor of
// the given type, or nil if the room has no such sensor or no reading yet.
func (r *SQLiteRepository) LatestValue(ctx context.Context, roomID, sensorType string) (*float64, error) {
	query := `
		SELECT last_value FROM sensors
		WHERE room_id = ? AND type = ? AND last_value IS NOT NULL
		ORDER BY last_update DESC
		LIMIT 1`

	var value float64
	err := r.db.QueryRowContext(ctx, query, roomID, sensorType).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest value: %w", err)
	}
	return &value, nil
}

// AggregatePower sums the latest cached values of all power sensors.
func (r *SQLiteRepository) AggregatePower(ctx context.Context) (float64, error) {
	query := `
		SELECT COALESCE(SUM(last_value), 0) FROM sensors
		WHERE type = ? AND last_value IS NOT NULL`

	var total float64
	if err := r.db.QueryRowContext(ctx, query, SensorPower).Scan(&total); err != nil {
		return 0, fmt.Errorf("querying aggregate power: %w", err)
	}
	return total, nil
}

// ─── Devices ────────────────────────────────────────────────────────────────

// CreateDevice inserts a new device.
func (r *SQLiteRepository) CreateDevice(ctx context.Context, device *Device) error {
	if device.Status == "" {
		device.Status = StatusOff
	}
	if device.Status != StatusOn && device.Status != StatusOff {
		return ErrInvalidStatus
	}

	query := `
		INSERT INTO devices (id, room_id, type, name, status, last_command, runtime_hours, last_update)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		device.ID,
		device.RoomID,
		device.Type,
		device.Name,
		device.Status,
		device.LastCommand,
		device.RuntimeHours,
		nullableTime(device.LastUpdate),
	)
	if err != nil {
		return fmt.Errorf("inserting device: %w", err)
	}
	return nil
}

// GetDevice retrieves a device by its unique identifier.
func (r *SQLiteRepository) GetDevice(ctx context.Context, id string) (*Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = ?`

	device, err := scanDevice(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device: %w", err)
	}
	return device, nil
}

// ListDevices retrieves all devices.
func (r *SQLiteRepository) ListDevices(ctx context.Context) ([]Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices ORDER BY room_id, id`
	return r.queryDevices(ctx, query)
}

// ListDevicesByRoom retrieves all devices in a room.
func (r *SQLiteRepository) ListDevicesByRoom(ctx context.Context, roomID string) ([]Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE room_id = ? ORDER BY id`
	return r.queryDevices(ctx, query, roomID)
}

// ListDevicesOverRuntime retrieves devices whose accumulated runtime exceeds
// the given threshold, for maintenance alerting.
func (r *SQLiteRepository) ListDevicesOverRuntime(ctx context.Context, hours float64) ([]Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE runtime_hours > ? ORDER BY runtime_hours DESC`
	return r.queryDevices(ctx, query, hours)
}

// queryDevices executes a query and returns a slice of devices.
func (r *SQLiteRepository) queryDevices(ctx context.Context, query string, args ...any) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		device, scanErr := scanDevice(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scanning device: %w", scanErr)
		}
		devices = append(devices, *device)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}
	return devices, nil
}

// ─── Schedules ──────────────────────────────────────────────────────────────

// CreateSchedule inserts a new schedule entry.
func (r *SQLiteRepository) CreateSchedule(ctx context.Context, entry *ScheduleEntry) error {
	query := `
		INSERT INTO schedules (id, room_id, event_name, start_time, end_time, min_temp, max_temp, priority, completed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.RoomID,
		entry.EventName,
		entry.StartTime.UTC().Format(time.RFC3339),
		entry.EndTime.UTC().Format(time.RFC3339),
		entry.MinTemp,
		entry.MaxTemp,
		entry.Priority,
		boolToInt(entry.Completed),
	)
	if err != nil {
		return fmt.Errorf("inserting schedule: %w", err)
	}
	return nil
}

// ListSchedulesStartingBetween retrieves incomplete entries whose start time
// falls within [from, to).
func (r *SQLiteRepository) ListSchedulesStartingBetween(ctx context.Context, from, to time.Time) ([]ScheduleEntry, error) {
	query := `
		SELECT ` + scheduleColumns + ` FROM schedules
		WHERE completed = 0 AND start_time >= ? AND start_time < ?
		ORDER BY start_time`
	return r.querySchedules(ctx, query,
		from.UTC().Format(time.RFC3339),
		to.UTC().Format(time.RFC3339),
	)
}

// ListSchedulesEndingBetween retrieves incomplete entries whose end time
// falls within [from, to).
func (r *SQLiteRepository) ListSchedulesEndingBetween(ctx context.Context, from, to time.Time) ([]ScheduleEntry, error) {
	query := `
		SELECT ` + scheduleColumns + ` FROM schedules
		WHERE completed = 0 AND end_time >= ? AND end_time < ?
		ORDER BY end_time`
	return r.querySchedules(ctx, query,
		from.UTC().Format(time.RFC3339),
		to.UTC().Format(time.RFC3339),
	)
}

// MarkScheduleCompleted flags a schedule entry as completed.
func (r *SQLiteRepository) MarkScheduleCompleted(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "UPDATE schedules SET completed = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("updating schedule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

// querySchedules executes a query and returns a slice of schedule entries.
func (r *SQLiteRepository) querySchedules(ctx context.Context, query string, args ...any) ([]ScheduleEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying schedules: %w", err)
	}
	defer rows.Close()

	var entries []ScheduleEntry
	for rows.Next() {
		entry, scanErr := scanSchedule(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scanning schedule: %w", scanErr)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating schedules: %w", err)
	}
	return entries, nil
}

// ─── Snapshot ───────────────────────────────────────────────────────────────

// Snapshot assembles the realtime building state: every active room with its
// latest temperature/occupancy/power values and device statuses.
func (r *SQLiteRepository) Snapshot(ctx context.Context) (*Snapshot, error) {
	rooms, err := r.ListRooms(ctx)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{TakenAt: time.Now().UTC()}

	for _, room := range rooms {
		if !room.Active {
			continue
		}

		state := RoomState{Room: room}

		if state.Temperature, err = r.LatestValue(ctx, room.ID, SensorTemperature); err != nil {
			return nil, err
		}
		if state.Occupancy, err = r.LatestValue(ctx, room.ID, SensorOccupancy); err != nil {
			return nil, err
		}
		if state.Power, err = r.LatestValue(ctx, room.ID, SensorPower); err != nil {
			return nil, err
		}
		if state.Devices, err = r.ListDevicesByRoom(ctx, room.ID); err != nil {
			return nil, err
		}

		snap.Rooms = append(snap.Rooms, state)
	}

	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sensors").Scan(&snap.SensorCount); err != nil {
		return nil, fmt.Errorf("counting sensors: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM devices").Scan(&snap.DeviceCount); err != nil {
		return nil, fmt.Errorf("counting devices: %w", err)
	}

	return snap, nil
}

// ─── Row Scanning Helpers ───────────────────────────────────────────────────

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(scanner rowScanner) (*Room, error) {
	var room Room
	var active int
	var createdAt string

	err := scanner.Scan(
		&room.ID,
		&room.Name,
		&room.Area,
		&room.Floor,
		&room.Building,
		&active,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	room.Active = active != 0
	room.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // Format is controlled
	return &room, nil
}

func scanSensor(scanner rowScanner) (*Sensor, error) {
	var sensor Sensor
	var lastValue sql.NullFloat64
	var lastUpdate sql.NullString

	err := scanner.Scan(
		&sensor.ID,
		&sensor.RoomID,
		&sensor.Type,
		&sensor.Unit,
		&lastValue,
		&lastUpdate,
		&sensor.Status,
	)
	if err != nil {
		return nil, err
	}

	if lastValue.Valid {
		sensor.LastValue = &lastValue.Float64
	}
	if lastUpdate.Valid {
		if t, parseErr := time.Parse(time.RFC3339, lastUpdate.String); parseErr == nil {
			sensor.LastUpdate = &t
		}
	}
	return &sensor, nil
}

func scanDevice(scanner rowScanner) (*Device, error) {
	var device Device
	var lastCommand, lastUpdate sql.NullString

	err := scanner.Scan(
		&device.ID,
		&device.RoomID,
		&device.Type,
		&device.Name,
		&device.Status,
		&lastCommand,
		&device.RuntimeHours,
		&lastUpdate,
	)
	if err != nil {
		return nil, err
	}

	if lastCommand.Valid {
		device.LastCommand = &lastCommand.String
	}
	if lastUpdate.Valid {
		if t, parseErr := time.Parse(time.RFC3339, lastUpdate.String); parseErr == nil {
			device.LastUpdate = &t
		}
	}
	return &device, nil
}

func scanSchedule(scanner rowScanner) (*ScheduleEntry, error) {
	var entry ScheduleEntry
	var startTime, endTime string
	var minTemp, maxTemp sql.NullFloat64
	var completed int

	err := scanner.Scan(
		&entry.ID,
		&entry.RoomID,
		&entry.EventName,
		&startTime,
		&endTime,
		&minTemp,
		&maxTemp,
		&entry.Priority,
		&completed,
	)
	if err != nil {
		return nil, err
	}

	entry.StartTime, _ = time.Parse(time.RFC3339, startTime) //nolint:errcheck // Format is controlled
	entry.EndTime, _ = time.Parse(time.RFC3339, endTime)     //nolint:errcheck // Format is controlled
	if minTemp.Valid {
		entry.MinTemp = &minTemp.Float64
	}
	if maxTemp.Valid {
		entry.MaxTemp = &maxTemp.Float64
	}
	entry.Completed = completed != 0
	return &entry, nil
}

// ─── SQL Helpers ────────────────────────────────────────────────────────────

// boolToInt converts a bool to SQLite's integer representation.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nullableTime converts an optional time to a nullable RFC 3339 string.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// isUniqueConstraintError checks if an error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
