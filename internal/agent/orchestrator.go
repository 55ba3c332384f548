package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wattson-io/wattson-core/internal/audit"
)

// Orchestrator owns the roster: it answers status queries and routes
// operator teaching to the right agent.
//
// Teaching is append-only. Instructions are held in memory for prompt
// assembly and persisted through the audit repository so they survive
// restarts; they never alter policy thresholds or behaviour.
type Orchestrator struct {
	agents []*Agent
	audit  audit.Repository

	mu           sync.RWMutex
	instructions map[string][]audit.Instruction
}

// NewOrchestrator creates an orchestrator over the given roster.
func NewOrchestrator(agents []*Agent, auditRepo audit.Repository) *Orchestrator {
	return &Orchestrator{
		agents:       agents,
		audit:        auditRepo,
		instructions: make(map[string][]audit.Instruction),
	}
}

// LoadInstructions restores each agent's persisted teaching from the audit
// store. Called once at startup.
func (o *Orchestrator) LoadInstructions(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, a := range o.agents {
		stored, err := o.audit.ListInstructions(ctx, a.Name)
		if err != nil {
			return fmt.Errorf("loading instructions for %s: %w", a.Name, err)
		}
		if len(stored) > 0 {
			o.instructions[a.Name] = stored
		}
	}
	return nil
}

// Agents returns a point-in-time snapshot of every agent in roster order.
func (o *Orchestrator) Agents() []Info {
	infos := make([]Info, 0, len(o.agents))
	for _, a := range o.agents {
		infos = append(infos, a.Snapshot())
	}
	return infos
}

// Find returns the agent matching nameOrRole, compared case-insensitively
// against both the agent name and its role.
func (o *Orchestrator) Find(nameOrRole string) (*Agent, error) {
	needle := strings.ToLower(strings.TrimSpace(nameOrRole))
	if needle == "" {
		return nil, fmt.Errorf("%w: empty name", ErrAgentNotFound)
	}
	for _, a := range o.agents {
		if strings.ToLower(a.Name) == needle || strings.ToLower(a.Role) == needle {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrAgentNotFound, nameOrRole)
}

// Teach appends an instruction to the matching agent's teaching store and
// persists it. Returns a confirmation message naming the agent, or
// ErrAgentNotFound when nothing matches.
func (o *Orchestrator) Teach(ctx context.Context, nameOrRole, text string) (string, error) {
	a, err := o.Find(nameOrRole)
	if err != nil {
		return "", err
	}

	instruction := audit.Instruction{
		AgentName: a.Name,
		Timestamp: time.Now().UTC(),
		Text:      text,
	}
	if err := o.audit.SaveInstruction(ctx, &instruction); err != nil {
		return "", fmt.Errorf("persisting instruction: %w", err)
	}

	o.mu.Lock()
	o.instructions[a.Name] = append(o.instructions[a.Name], instruction)
	o.mu.Unlock()

	return fmt.Sprintf("Instruction recorded for %s.", a.Name), nil
}

// Instructions returns the in-memory teaching for one agent, oldest first.
func (o *Orchestrator) Instructions(agentName string) []audit.Instruction {
	o.mu.RLock()
	defer o.mu.RUnlock()

	stored := o.instructions[agentName]
	out := make([]audit.Instruction, len(stored))
	copy(out, stored)
	return out
}
