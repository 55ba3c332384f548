package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wattson-io/wattson-core/internal/audit"
	"github.com/wattson-io/wattson-core/internal/building"
	"github.com/wattson-io/wattson-core/internal/llm"
)

// Logger is the minimal logging interface the service needs.
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

// ServiceConfig carries the service dependencies and settings.
type ServiceConfig struct {
	// Generator produces completions; nil runs the service in offline
	// mode with snapshot-only answers.
	Generator llm.Generator

	Building   building.Repository
	Audit      audit.Repository
	Dispatcher *Dispatcher
	Gate       *Gate
	Memory     *Memory
	Logger     Logger

	// ConfirmDestructive parks delete actions in the gate instead of
	// executing them immediately.
	ConfirmDestructive bool

	// SiteName labels the assistant in the prompt.
	SiteName string

	// RosterLines describe the agents, one "Name: Role" line each.
	RosterLines []string
}

// Service is the natural-language command surface.
//
// It turns operator questions into answers and, when the model emits an
// action block, into executed operations. Destructive operations pass
// through the confirmation gate first.
type Service struct {
	cfg ServiceConfig
}

// NewService creates the chat service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = noopLogger{}
	}
	if cfg.Memory == nil {
		cfg.Memory = NewMemory(100)
	}
	if cfg.Gate == nil {
		cfg.Gate = NewGate(10*time.Minute, defaultAffirmWords, defaultRejectWords)
	}
	return &Service{cfg: cfg}
}

// Default reply vocabularies, used when no gate is supplied.
var (
	defaultAffirmWords = []string{"yes", "yeah", "ok", "okay", "sure", "confirm", "có", "được", "đồng ý", "xác nhận", "duyệt"}
	defaultRejectWords = []string{"no", "cancel", "stop", "không", "hủy", "đừng"}
)

// chatAgentName attributes operator-driven decisions in the audit trail.
// It matches the conversational agent's roster name.
const chatAgentName = "User Experience & Personalization AI"

// Process answers one operator message.
//
// A message from an actor with a pending confirmation is first classified
// against the gate vocabularies: an affirmative executes the parked action
// exactly once, a rejection discards it, and anything else leaves it parked
// and is processed as a fresh question.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - actor: Stable identity of the speaker; scopes pending confirmations
//   - question: The operator's message
//   - language: Language tag persisted with the exchange
//
// Returns:
//   - string: The reply to show the operator
//   - error: Only on storage failures; model failures degrade to fallbacks
func (s *Service) Process(ctx context.Context, actor, question, language string) (string, error) {
	if outcome, action := s.cfg.Gate.Resolve(actor, question); outcome != OutcomeNone {
		var answer string
		switch outcome {
		case OutcomeAffirmed:
			result, err := s.cfg.Dispatcher.Execute(ctx, action)
			if err != nil {
				s.cfg.Logger.Error("confirmed action failed", "actor", actor, "action", action.Name, "error", err)
				answer = "Confirmed, but the action failed: " + err.Error()
			} else {
				answer = "Confirmed: " + result
				s.recordActionDecision(ctx, actor, action)
			}
		case OutcomeRejected:
			answer = "Action cancelled."
		}
		s.remember(ctx, question, answer, language)
		return answer, nil
	}

	snapshot, err := s.cfg.Building.Snapshot(ctx)
	if err != nil {
		return "", fmt.Errorf("taking building snapshot: %w", err)
	}

	if s.cfg.Generator == nil {
		answer := s.offlineAnswer(snapshot)
		s.remember(ctx, question, answer, language)
		return answer, nil
	}

	raw, err := s.cfg.Generator.Generate(ctx, s.buildPrompt(snapshot, question))
	if err != nil {
		answer := s.degradedAnswer(err, snapshot)
		s.remember(ctx, question, answer, language)
		return answer, nil
	}

	clean, action := ParseAction(raw)
	answer := clean
	if action != nil {
		answer = s.handleAction(ctx, actor, clean, action)
	}

	s.remember(ctx, question, answer, language)
	return answer, nil
}

// handleAction executes or parks the extracted action and extends the
// visible reply accordingly.
func (s *Service) handleAction(ctx context.Context, actor, clean string, action *Action) string {
	if action.Destructive() && s.cfg.ConfirmDestructive {
		s.cfg.Gate.Park(actor, action)
		s.cfg.Logger.Info("destructive action parked", "actor", actor, "action", action.Name)
		return joinReply(clean, fmt.Sprintf(
			"This %s operation removes data permanently. Reply 'yes' to proceed or 'no' to cancel.",
			action.Name,
		))
	}

	result, err := s.cfg.Dispatcher.Execute(ctx, action)
	if err != nil {
		s.cfg.Logger.Error("action failed", "actor", actor, "action", action.Name, "error", err)
		return joinReply(clean, "SYSTEM: action failed: "+err.Error())
	}
	s.cfg.Logger.Info("action executed", "actor", actor, "action", action.Name)
	s.recordActionDecision(ctx, actor, action)
	return joinReply(clean, "SYSTEM: "+result)
}

// recordActionDecision writes a completed decision for an executed chat
// action. Losing the audit row does not undo the action, so failures are
// only logged.
func (s *Service) recordActionDecision(ctx context.Context, actor string, action *Action) {
	decision := audit.Decision{
		AgentName:    chatAgentName,
		DecisionType: "OPERATOR_ACTION",
		Target:       action.StringParam("id", action.StringParam("room_id", "system")),
		Action:       action.Name,
		Reasoning:    "requested by " + actor + " via chat",
		Confidence:   1.0,
		Status:       audit.DecisionCompleted,
		ApprovedBy:   &actor,
	}
	if err := s.cfg.Audit.LogDecision(ctx, &decision); err != nil {
		s.cfg.Logger.Error("recording chat decision", "action", action.Name, "error", err)
	}
}

// remember appends the exchange to the ring buffer and persists it. A
// persistence failure loses history, not the reply, so it is only logged.
func (s *Service) remember(ctx context.Context, question, answer, language string) {
	record := audit.ChatRecord{
		Question:  question,
		Answer:    answer,
		Language:  language,
		Timestamp: time.Now().UTC(),
	}
	s.cfg.Memory.Append(record)
	if err := s.cfg.Audit.SaveExchange(ctx, &record); err != nil {
		s.cfg.Logger.Error("persisting exchange", "error", err)
	}
}

// buildPrompt assembles the single-turn prompt: assistant role, roster,
// live snapshot, recent transcript, and the action block contract.
func (s *Service) buildPrompt(snapshot *building.Snapshot, question string) string {
	var b strings.Builder

	site := s.cfg.SiteName
	if site == "" {
		site = "this site"
	}
	fmt.Fprintf(&b, "You are Wattson, the building energy management assistant for %s.\n", site)
	b.WriteString("You coordinate a roster of specialist agents:\n")
	for _, line := range s.cfg.RosterLines {
		b.WriteString("- " + line + "\n")
	}

	b.WriteString("\nCURRENT BUILDING STATE:\n")
	b.WriteString(describeSnapshot(snapshot))

	b.WriteString("\nRULES:\n")
	b.WriteString("- Answer as a professional energy-management expert.\n")
	b.WriteString("- Report 0 when data is missing; never invent figures.\n")
	b.WriteString("- To perform an operation, append exactly one fenced ```json block with\n")
	b.WriteString(`  {"action": "<name>", "params": {...}}. Supported actions: add_room,` + "\n")
	b.WriteString("  delete_room, add_sensor, delete_sensor, control_device, teach_agent.\n")
	b.WriteString("- Destructive operations are confirmed with the operator before they run.\n")

	if transcript := s.cfg.Memory.Last(5); len(transcript) > 0 {
		b.WriteString("\nRECENT CONVERSATION:\n")
		for _, r := range transcript {
			fmt.Fprintf(&b, "User: %s\nAssistant: %s\n", r.Question, r.Answer)
		}
	}

	fmt.Fprintf(&b, "\nQUESTION: %q\n", question)
	return b.String()
}

// describeSnapshot renders the snapshot as compact prompt lines.
func describeSnapshot(snapshot *building.Snapshot) string {
	if len(snapshot.Rooms) == 0 {
		return "No rooms registered yet.\n"
	}

	var b strings.Builder
	for _, state := range snapshot.Rooms {
		fmt.Fprintf(&b, "- %s (%s):", state.Room.ID, state.Room.Name)
		if state.Temperature != nil {
			fmt.Fprintf(&b, " temp=%.1f", *state.Temperature)
		}
		if state.Occupancy != nil {
			fmt.Fprintf(&b, " occupancy=%.0f", *state.Occupancy)
		}
		if state.Power != nil {
			fmt.Fprintf(&b, " power=%.0fW", *state.Power)
		}
		for _, device := range state.Devices {
			fmt.Fprintf(&b, " %s=%s", device.ID, device.Status)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Totals: %d rooms, %d sensors, %d devices.\n",
		len(snapshot.Rooms), snapshot.SensorCount, snapshot.DeviceCount)
	return b.String()
}

// offlineAnswer is returned when no generator is configured.
func (s *Service) offlineAnswer(snapshot *building.Snapshot) string {
	return fmt.Sprintf(
		"Running in basic mode without a language model. Currently monitoring %d rooms, %d sensors and %d devices. Configure an API key to enable full analysis.",
		len(snapshot.Rooms), snapshot.SensorCount, snapshot.DeviceCount,
	)
}

// degradedAnswer maps a generation failure to an operator-facing reply.
func (s *Service) degradedAnswer(err error, snapshot *building.Snapshot) string {
	if errors.Is(err, llm.ErrQuotaExceeded) {
		s.cfg.Logger.Warn("llm quota exceeded", "error", err)
		return "The language model is resting (daily quota exhausted). Monitoring continues; please try again later."
	}
	s.cfg.Logger.Error("llm generation failed", "error", err)
	return s.offlineAnswer(snapshot)
}

// joinReply appends a system line to the conversational text.
func joinReply(clean, extra string) string {
	if clean == "" {
		return extra
	}
	return clean + "\n\n" + extra
}
