package chat

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Action names the dispatcher understands.
const (
	ActionAddRoom       = "add_room"
	ActionDeleteRoom    = "delete_room"
	ActionAddSensor     = "add_sensor"
	ActionDeleteSensor  = "delete_sensor"
	ActionControlDevice = "control_device"
	ActionTeachAgent    = "teach_agent"
)

// Action is a structured intent extracted from a model reply.
type Action struct {
	Name   string         `json:"action"`
	Params map[string]any `json:"params"`
}

// Destructive reports whether executing this action removes data, and so
// is subject to the confirmation gate.
func (a *Action) Destructive() bool {
	return a.Name == ActionDeleteRoom || a.Name == ActionDeleteSensor
}

// StringParam returns the named parameter as a string, or fallback when
// absent or not a string.
func (a *Action) StringParam(key, fallback string) string {
	if v, ok := a.Params[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// FloatParam returns the named parameter as a float64, or fallback.
// JSON numbers decode as float64, so this covers integers too.
func (a *Action) FloatParam(key string, fallback float64) float64 {
	if v, ok := a.Params[key].(float64); ok {
		return v
	}
	return fallback
}

// actionBlockRe matches a fenced JSON block anywhere in the reply.
var actionBlockRe = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")

// ParseAction splits a model reply into the conversational text and an
// optional action block.
//
// The model is prompted to append a fenced JSON block when it wants a CRUD
// operation performed. Anything that does not parse cleanly is treated as
// plain prose: a malformed block stays in the visible text and no action is
// returned.
func ParseAction(text string) (string, *Action) {
	match := actionBlockRe.FindStringSubmatch(text)
	if match == nil {
		return text, nil
	}

	var action Action
	if err := json.Unmarshal([]byte(match[1]), &action); err != nil || action.Name == "" {
		return text, nil
	}

	clean := strings.TrimSpace(strings.Replace(text, match[0], "", 1))
	return clean, &action
}
