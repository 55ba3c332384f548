package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/wattson-io/wattson-core/internal/audit"
	"github.com/wattson-io/wattson-core/internal/building"
)

// Actuator dispatches a command to a device. Satisfied by the actuation
// gateway.
type Actuator interface {
	Apply(ctx context.Context, deviceID, command, source string) error
}

// PowerMirror receives the site-wide power aggregate each optimisation
// cycle. Satisfied by the InfluxDB client; nil-able when time-series
// export is disabled.
type PowerMirror interface {
	WriteAggregatePower(siteID string, powerWatts float64)
}

// Logger is the minimal logging interface the policies need.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger discards all log output.
type noopLogger struct{}

func (noopLogger) Info(msg string, args ...any)  {}
func (noopLogger) Warn(msg string, args ...any)  {}
func (noopLogger) Error(msg string, args ...any) {}

// actuationSource tags gateway calls that originated from a policy cycle.
const actuationSource = "agent"

// scheduleWindow is how far ahead the schedule policy looks for events
// starting or ending.
const scheduleWindow = 15 * time.Minute

// PolicyDeps carries the shared dependencies of all policies.
type PolicyDeps struct {
	Building building.Repository
	Audit    audit.Repository
	Actuator Actuator
	Mirror   PowerMirror
	Logger   Logger

	// Thresholds; zero values fall back to the defaults below.
	HighTempThreshold float64
	LoadShedThreshold float64
	MaintenanceHours  float64

	// SiteID labels the aggregate power series.
	SiteID string

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// Default thresholds.
const (
	defaultHighTempThreshold = 50.0
	defaultLoadShedThreshold = 1000.0
	defaultMaintenanceHours  = 5000.0
)

func (d *PolicyDeps) normalise() {
	if d.Logger == nil {
		d.Logger = noopLogger{}
	}
	if d.HighTempThreshold == 0 {
		d.HighTempThreshold = defaultHighTempThreshold
	}
	if d.LoadShedThreshold == 0 {
		d.LoadShedThreshold = defaultLoadShedThreshold
	}
	if d.MaintenanceHours == 0 {
		d.MaintenanceHours = defaultMaintenanceHours
	}
	if d.Now == nil {
		d.Now = time.Now
	}
}

// dispatchDecision logs a decision, applies the given device commands, and
// marks the decision completed once at least one command was dispatched.
func dispatchDecision(ctx context.Context, d *PolicyDeps, decision *audit.Decision, commands map[string]string) error {
	if err := d.Audit.LogDecision(ctx, decision); err != nil {
		return fmt.Errorf("logging decision: %w", err)
	}

	dispatched := 0
	for deviceID, command := range commands {
		if err := d.Actuator.Apply(ctx, deviceID, command, actuationSource); err != nil {
			d.Logger.Warn("actuation failed",
				"device_id", deviceID,
				"command", command,
				"decision_id", decision.ID,
				"error", err,
			)
			continue
		}
		dispatched++
	}
	if dispatched == 0 {
		return nil
	}

	if err := d.Audit.MarkDecisionCompleted(ctx, decision.ID); err != nil {
		return fmt.Errorf("completing decision %s: %w", decision.ID, err)
	}
	return nil
}

// ─── Scheduling ───

// SchedulePolicy pre-conditions rooms before planned events and winds them
// down as events end.
//
// Within fifteen minutes of an event start it turns the room's AC and
// lighting on under a PRE_CONDITION decision. Within fifteen minutes of an
// event end it turns the AC off under a PRE_SHUTDOWN decision and marks the
// entry completed; lighting stays on for occupants packing up.
func SchedulePolicy(d PolicyDeps) PolicyFunc {
	d.normalise()
	return func(ctx context.Context) error {
		now := d.Now().UTC()
		horizon := now.Add(scheduleWindow)

		starting, err := d.Building.ListSchedulesStartingBetween(ctx, now, horizon)
		if err != nil {
			return fmt.Errorf("listing starting schedules: %w", err)
		}
		for _, entry := range starting {
			decision := &audit.Decision{
				ID:           audit.NewID("dec"),
				AgentName:    "Scheduling AI",
				DecisionType: DecisionPreCondition,
				Target:       entry.RoomID,
				Action:       "Prepare Environment",
				Reasoning:    fmt.Sprintf("Event '%s' starts in under 15 minutes", entry.EventName),
				Confidence:   0.95,
			}
			err := dispatchDecision(ctx, &d, decision, map[string]string{
				building.DevicePrefixAC + entry.RoomID:    building.StatusOn,
				building.DevicePrefixLight + entry.RoomID: building.StatusOn,
			})
			if err != nil {
				return err
			}
			d.Logger.Info("pre-conditioning room", "room_id", entry.RoomID, "event", entry.EventName)
		}

		ending, err := d.Building.ListSchedulesEndingBetween(ctx, now, horizon)
		if err != nil {
			return fmt.Errorf("listing ending schedules: %w", err)
		}
		for _, entry := range ending {
			decision := &audit.Decision{
				ID:           audit.NewID("dec"),
				AgentName:    "Scheduling AI",
				DecisionType: DecisionPreShutdown,
				Target:       entry.RoomID,
				Action:       "Efficiency Mode",
				Reasoning:    fmt.Sprintf("Event '%s' ends in under 15 minutes", entry.EventName),
				Confidence:   0.9,
			}
			err := dispatchDecision(ctx, &d, decision, map[string]string{
				building.DevicePrefixAC + entry.RoomID: building.StatusOff,
			})
			if err != nil {
				return err
			}
			if err := d.Building.MarkScheduleCompleted(ctx, entry.ID); err != nil {
				return fmt.Errorf("completing schedule %s: %w", entry.ID, err)
			}
			d.Logger.Info("winding down room", "room_id", entry.RoomID, "event", entry.EventName)
		}

		return nil
	}
}

// ─── Energy Optimization ───

// OccupancyPolicy cuts lighting and AC in any active room whose occupancy
// sensor reads zero, under an AUTO_OFF decision. Rooms without an occupancy
// reading are left alone.
func OccupancyPolicy(d PolicyDeps) PolicyFunc {
	d.normalise()
	return func(ctx context.Context) error {
		rooms, err := d.Building.ListRooms(ctx)
		if err != nil {
			return fmt.Errorf("listing rooms: %w", err)
		}

		for _, room := range rooms {
			if !room.Active {
				continue
			}
			occupancy, err := d.Building.LatestValue(ctx, room.ID, building.SensorOccupancy)
			if err != nil {
				return fmt.Errorf("reading occupancy for %s: %w", room.ID, err)
			}
			if occupancy == nil || *occupancy != 0 {
				continue
			}

			decision := &audit.Decision{
				ID:           audit.NewID("dec"),
				AgentName:    "Energy Optimization AI",
				DecisionType: DecisionAutoOff,
				Target:       room.ID,
				Action:       "Power Cut",
				Reasoning:    "No occupancy detected",
				Confidence:   0.99,
			}
			err = dispatchDecision(ctx, &d, decision, map[string]string{
				building.DevicePrefixLight + room.ID: building.StatusOff,
				building.DevicePrefixAC + room.ID:    building.StatusOff,
			})
			if err != nil {
				return err
			}
			d.Logger.Info("auto-off for empty room", "room_id", room.ID)
		}

		return nil
	}
}

// ─── Safety ───

// SafetyPolicy locks a room down when its temperature exceeds the fire-risk
// threshold: it records a CRITICAL safety event, raises a CRITICAL alert,
// and cuts the room's main power feed. Lockdown is not confirmation gated.
func SafetyPolicy(d PolicyDeps) PolicyFunc {
	d.normalise()
	return func(ctx context.Context) error {
		sensors, err := d.Building.ListSensorsByType(ctx, building.SensorTemperature)
		if err != nil {
			return fmt.Errorf("listing temperature sensors: %w", err)
		}

		for _, sensor := range sensors {
			if sensor.LastValue == nil || *sensor.LastValue <= d.HighTempThreshold {
				continue
			}

			event := &audit.SafetyEvent{
				ID:              audit.NewID("sfe"),
				Location:        sensor.RoomID,
				RiskLevel:       audit.SeverityCritical,
				EventType:       "FIRE_RISK",
				Description:     fmt.Sprintf("Temperature %.1f exceeds safe limit %.1f", *sensor.LastValue, d.HighTempThreshold),
				AutomatedAction: "SYSTEM_LOCKDOWN",
			}
			if err := d.Audit.LogSafetyEvent(ctx, event); err != nil {
				return fmt.Errorf("logging safety event: %w", err)
			}

			alert := &audit.Alert{
				ID:       audit.NewID("alr"),
				Severity: audit.SeverityCritical,
				Title:    "Fire risk lockdown",
				Message:  fmt.Sprintf("Sensor %s reported %.1f; main power cut", sensor.ID, *sensor.LastValue),
				Location: sensor.RoomID,
			}
			if err := d.Audit.SaveAlert(ctx, alert); err != nil {
				return fmt.Errorf("saving safety alert: %w", err)
			}

			deviceID := building.DevicePrefixMainPower + sensor.RoomID
			if err := d.Actuator.Apply(ctx, deviceID, building.StatusOff, actuationSource); err != nil {
				d.Logger.Error("lockdown actuation failed",
					"device_id", deviceID,
					"room_id", sensor.RoomID,
					"error", err,
				)
				continue
			}
			d.Logger.Error("room locked down",
				"room_id", sensor.RoomID,
				"sensor_id", sensor.ID,
				"temperature", *sensor.LastValue,
			)
		}

		return nil
	}
}

// ─── Predictive Maintenance ───

// MaintenancePolicy raises a WARNING alert for every device whose
// accumulated runtime exceeds the service interval.
func MaintenancePolicy(d PolicyDeps) PolicyFunc {
	d.normalise()
	return func(ctx context.Context) error {
		devices, err := d.Building.ListDevicesOverRuntime(ctx, d.MaintenanceHours)
		if err != nil {
			return fmt.Errorf("listing over-runtime devices: %w", err)
		}

		for _, device := range devices {
			alert := &audit.Alert{
				ID:       audit.NewID("alr"),
				Severity: audit.SeverityWarning,
				Title:    "Maintenance due",
				Message:  fmt.Sprintf("Device %s has run %.0f hours, over the %.0f hour service interval", device.ID, device.RuntimeHours, d.MaintenanceHours),
				Location: device.RoomID,
			}
			if err := d.Audit.SaveAlert(ctx, alert); err != nil {
				return fmt.Errorf("saving maintenance alert: %w", err)
			}
			d.Logger.Warn("maintenance due", "device_id", device.ID, "runtime_hours", device.RuntimeHours)
		}

		return nil
	}
}

// ─── Global Optimization ───

// LoadShedPolicy watches the site-wide power aggregate. When it exceeds the
// cap it records a GLOBAL_CAP decision against the SYSTEM target; the
// shedding itself is advisory and dispatches no commands. The aggregate is
// mirrored to the time-series store every cycle when a mirror is attached.
func LoadShedPolicy(d PolicyDeps) PolicyFunc {
	d.normalise()
	return func(ctx context.Context) error {
		total, err := d.Building.AggregatePower(ctx)
		if err != nil {
			return fmt.Errorf("aggregating power: %w", err)
		}

		if d.Mirror != nil {
			d.Mirror.WriteAggregatePower(d.SiteID, total)
		}

		if total <= d.LoadShedThreshold {
			return nil
		}

		decision := &audit.Decision{
			ID:           audit.NewID("dec"),
			AgentName:    "Global Optimization AI",
			DecisionType: DecisionGlobalCap,
			Target:       "SYSTEM",
			Action:       "Load Shedding",
			Reasoning:    fmt.Sprintf("Total load %.0fW exceeds cap %.0fW", total, d.LoadShedThreshold),
			Confidence:   0.9,
		}
		if err := d.Audit.LogDecision(ctx, decision); err != nil {
			return fmt.Errorf("logging load shed decision: %w", err)
		}
		d.Logger.Warn("load cap exceeded", "total_watts", total, "cap_watts", d.LoadShedThreshold)

		return nil
	}
}
