package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/wattson-io/wattson-core/internal/building"
)

// Actuator dispatches device commands. Satisfied by the actuation gateway.
type Actuator interface {
	Apply(ctx context.Context, deviceID, command, source string) error
}

// Teacher routes teaching instructions to an agent. Satisfied by the agent
// orchestrator.
type Teacher interface {
	Teach(ctx context.Context, nameOrRole, text string) (string, error)
}

// operatorSource tags actuations that originated from the chat surface.
const operatorSource = "operator"

// Dispatcher executes parsed actions against the building repository, the
// actuation gateway, and the agent orchestrator.
type Dispatcher struct {
	building building.Repository
	actuator Actuator
	teacher  Teacher
}

// NewDispatcher creates an action dispatcher.
func NewDispatcher(repo building.Repository, actuator Actuator, teacher Teacher) *Dispatcher {
	return &Dispatcher{
		building: repo,
		actuator: actuator,
		teacher:  teacher,
	}
}

// Execute runs one action and returns an operator-facing result message.
func (d *Dispatcher) Execute(ctx context.Context, action *Action) (string, error) {
	switch action.Name {
	case ActionAddRoom:
		return d.addRoom(ctx, action)
	case ActionDeleteRoom:
		return d.deleteRoom(ctx, action)
	case ActionAddSensor:
		return d.addSensor(ctx, action)
	case ActionDeleteSensor:
		return d.deleteSensor(ctx, action)
	case ActionControlDevice:
		return d.controlDevice(ctx, action)
	case ActionTeachAgent:
		return d.teachAgent(ctx, action)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, action.Name)
	}
}

func (d *Dispatcher) addRoom(ctx context.Context, action *Action) (string, error) {
	room := &building.Room{
		ID:       action.StringParam("id", "R"+strings.ToUpper(uuid.NewString()[:4])),
		Name:     action.StringParam("name", "New Room"),
		Area:     action.FloatParam("area", 30),
		Floor:    int(action.FloatParam("floor", 1)),
		Building: action.StringParam("building", "A"),
		Active:   true,
	}
	if err := d.building.CreateRoom(ctx, room); err != nil {
		return "", fmt.Errorf("creating room: %w", err)
	}
	return fmt.Sprintf("Room %s (%s) created.", room.ID, room.Name), nil
}

func (d *Dispatcher) deleteRoom(ctx context.Context, action *Action) (string, error) {
	id := action.StringParam("id", "")
	if id == "" {
		return "", fmt.Errorf("%w: id", ErrMissingParam)
	}
	if err := d.building.DeleteRoom(ctx, id); err != nil {
		return "", fmt.Errorf("deleting room: %w", err)
	}
	return fmt.Sprintf("Room %s and its sensors, devices and schedules deleted.", id), nil
}

func (d *Dispatcher) addSensor(ctx context.Context, action *Action) (string, error) {
	roomID := action.StringParam("room_id", "")
	if roomID == "" {
		return "", fmt.Errorf("%w: room_id", ErrMissingParam)
	}
	sensor := &building.Sensor{
		ID:     action.StringParam("id", "S"+strings.ToUpper(uuid.NewString()[:4])),
		RoomID: roomID,
		Type:   action.StringParam("type", building.SensorPower),
		Unit:   action.StringParam("unit", "W"),
	}
	if err := d.building.CreateSensor(ctx, sensor); err != nil {
		return "", fmt.Errorf("creating sensor: %w", err)
	}
	return fmt.Sprintf("Sensor %s (%s) attached to room %s.", sensor.ID, sensor.Type, roomID), nil
}

func (d *Dispatcher) deleteSensor(ctx context.Context, action *Action) (string, error) {
	id := action.StringParam("id", "")
	if id == "" {
		return "", fmt.Errorf("%w: id", ErrMissingParam)
	}
	if err := d.building.DeleteSensor(ctx, id); err != nil {
		return "", fmt.Errorf("deleting sensor: %w", err)
	}
	return fmt.Sprintf("Sensor %s deleted.", id), nil
}

func (d *Dispatcher) controlDevice(ctx context.Context, action *Action) (string, error) {
	id := action.StringParam("id", "")
	if id == "" {
		return "", fmt.Errorf("%w: id", ErrMissingParam)
	}
	command := strings.ToUpper(action.StringParam("command", building.StatusOff))
	if err := d.actuator.Apply(ctx, id, command, operatorSource); err != nil {
		return "", fmt.Errorf("controlling device: %w", err)
	}
	return fmt.Sprintf("Device %s switched %s.", id, command), nil
}

func (d *Dispatcher) teachAgent(ctx context.Context, action *Action) (string, error) {
	agentName := action.StringParam("agent_name", "")
	instruction := action.StringParam("instruction", "")
	if agentName == "" || instruction == "" {
		return "", fmt.Errorf("%w: agent_name and instruction", ErrMissingParam)
	}
	msg, err := d.teacher.Teach(ctx, agentName, instruction)
	if err != nil {
		return "", fmt.Errorf("teaching agent: %w", err)
	}
	return msg, nil
}
