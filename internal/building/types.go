package building

import "time"

// Device status values. The actuation gateway is the only writer of
// Device.Status; every transition is paired with an actuation_log row.
const (
	// StatusOn indicates the device is powered on.
	StatusOn = "ON"

	// StatusOff indicates the device is powered off.
	StatusOff = "OFF"
)

// Sensor types observed by the policy agents.
const (
	SensorTemperature = "temperature"
	SensorOccupancy   = "occupancy"
	SensorPower       = "power"
	SensorHumidity    = "humidity"
	SensorCO2         = "co2"
)

// Device type values.
const (
	DeviceAC        = "ac"
	DeviceLighting  = "lighting"
	DeviceMainPower = "main_power"
)

// Device ID prefixes. Devices carry stable logical IDs derived from their
// room: AC_LAB_A, LIGHT_LAB_A, MAIN_POWER_LAB_A.
const (
	DevicePrefixAC        = "AC_"
	DevicePrefixLight     = "LIGHT_"
	DevicePrefixMainPower = "MAIN_POWER_"
)

// Room represents a monitored space in the building.
type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Area      float64   `json:"area"`
	Floor     int       `json:"floor"`
	Building  string    `json:"building"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Sensor represents a telemetry source attached to a room.
//
// LastValue/LastUpdate cache the most recent reading for cheap snapshot
// queries; the full history lives in sensor_readings.
type Sensor struct {
	ID         string     `json:"id"`
	RoomID     string     `json:"room_id"`
	Type       string     `json:"type"`
	Unit       string     `json:"unit"`
	LastValue  *float64   `json:"last_value,omitempty"`
	LastUpdate *time.Time `json:"last_update,omitempty"`
	Status     string     `json:"status"`
}

// SensorReading is a single append-only telemetry sample.
type SensorReading struct {
	ID        string    `json:"id"`
	SensorID  string    `json:"sensor_id"`
	Value     float64   `json:"value"`
	Quality   int       `json:"quality"`
	Timestamp time.Time `json:"timestamp"`
}

// Device represents an actuatable load in a room.
//
// Status is mutated exclusively through the actuation gateway.
type Device struct {
	ID           string     `json:"id"`
	RoomID       string     `json:"room_id"`
	Type         string     `json:"type"`
	Name         string     `json:"name"`
	Status       string     `json:"status"`
	LastCommand  *string    `json:"last_command,omitempty"`
	RuntimeHours float64    `json:"runtime_hours"`
	LastUpdate   *time.Time `json:"last_update,omitempty"`
}

// ScheduleEntry represents a planned room occupancy window.
type ScheduleEntry struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	EventName string    `json:"event_name"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	MinTemp   *float64  `json:"min_temp,omitempty"`
	MaxTemp   *float64  `json:"max_temp,omitempty"`
	Priority  int       `json:"priority"`
	Completed bool      `json:"completed"`
}

// RoomState is a point-in-time view of one room used in snapshots.
type RoomState struct {
	Room        Room     `json:"room"`
	Temperature *float64 `json:"temperature,omitempty"`
	Occupancy   *float64 `json:"occupancy,omitempty"`
	Power       *float64 `json:"power,omitempty"`
	Devices     []Device `json:"devices"`
}

// Snapshot is the realtime building state assembled for the command
// interpreter prompt and the offline fallback answer.
type Snapshot struct {
	Rooms       []RoomState `json:"rooms"`
	SensorCount int         `json:"sensor_count"`
	DeviceCount int         `json:"device_count"`
	TakenAt     time.Time   `json:"taken_at"`
}
