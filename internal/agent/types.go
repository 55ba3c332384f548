package agent

import (
	"context"
	"sync"
	"time"
)

// Decision types produced by the policies.
const (
	DecisionPreCondition = "PRE_CONDITION"
	DecisionPreShutdown  = "PRE_SHUTDOWN"
	DecisionAutoOff      = "AUTO_OFF"
	DecisionGlobalCap    = "GLOBAL_CAP"
)

// Agent status values.
const (
	StatusIdle    = "idle"
	StatusRunning = "running"
	StatusError   = "error"
	StatusStopped = "stopped"
)

// Policy is the duty an agent executes on each cycle.
//
// Policies must be safe to run repeatedly: every duty re-evaluates current
// state rather than carrying memory between ticks. An error fails this
// cycle only; the scheduler backs off and tries again.
type Policy interface {
	Execute(ctx context.Context) error
}

// PolicyFunc adapts a function to the Policy interface.
type PolicyFunc func(ctx context.Context) error

// Execute implements Policy.
func (f PolicyFunc) Execute(ctx context.Context) error { return f(ctx) }

// Agent is one specialist in the roster. An agent with a nil policy is a
// named placeholder: it appears in status listings and can be taught, but
// its duty cycle is a no-op.
type Agent struct {
	Name        string
	Role        string
	Description string

	policy Policy

	mu        sync.RWMutex
	active    bool
	status    string
	lastRun   time.Time
	lastError string
	runs      uint64
}

// NewAgent creates an agent with the given identity and policy (nil for a
// placeholder role).
func NewAgent(name, role, description string, policy Policy) *Agent {
	return &Agent{
		Name:        name,
		Role:        role,
		Description: description,
		policy:      policy,
		active:      true,
		status:      StatusIdle,
	}
}

// IsActive reports whether the agent's duty loop should keep running.
func (a *Agent) IsActive() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.active
}

// Deactivate asks the agent's duty loop to stop after the current cycle.
func (a *Agent) Deactivate() {
	a.mu.Lock()
	a.active = false
	a.status = StatusStopped
	a.mu.Unlock()
}

// executeDuty runs one policy cycle and records the outcome.
func (a *Agent) executeDuty(ctx context.Context) error {
	a.mu.Lock()
	a.status = StatusRunning
	a.mu.Unlock()

	var err error
	if a.policy != nil {
		err = a.policy.Execute(ctx)
	}

	a.mu.Lock()
	a.lastRun = time.Now().UTC()
	a.runs++
	if err != nil {
		a.status = StatusError
		a.lastError = err.Error()
	} else {
		a.status = StatusIdle
		a.lastError = ""
	}
	a.mu.Unlock()

	return err
}

// Info is a point-in-time copy of an agent's state for status listings.
type Info struct {
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	Status      string    `json:"status"`
	LastRun     time.Time `json:"last_run"`
	LastError   string    `json:"last_error,omitempty"`
	Runs        uint64    `json:"runs"`
	HasPolicy   bool      `json:"has_policy"`
}

// Snapshot returns a copy of the agent's current state.
func (a *Agent) Snapshot() Info {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Info{
		Name:        a.Name,
		Role:        a.Role,
		Description: a.Description,
		Active:      a.active,
		Status:      a.status,
		LastRun:     a.lastRun,
		LastError:   a.lastError,
		Runs:        a.runs,
		HasPolicy:   a.policy != nil,
	}
}
