package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for audit trail persistence.
// Decisions, alerts, and safety events are append-only; alerts additionally
// carry an acknowledged flag the operator can set.
type Repository interface {
	// Decisions
	LogDecision(ctx context.Context, decision *Decision) error
	MarkDecisionCompleted(ctx context.Context, id string) error
	ListDecisions(ctx context.Context, limit int) ([]Decision, error)
	ListDecisionsByAgent(ctx context.Context, agentName string, limit int) ([]Decision, error)

	// Alerts
	SaveAlert(ctx context.Context, alert *Alert) error
	AcknowledgeAlert(ctx context.Context, id string) error
	ListAlerts(ctx context.Context, limit int) ([]Alert, error)

	// Safety events
	LogSafetyEvent(ctx context.Context, event *SafetyEvent) error
	ListSafetyEvents(ctx context.Context, limit int) ([]SafetyEvent, error)

	// Chat history
	SaveExchange(ctx context.Context, record *ChatRecord) error
	RecentExchanges(ctx context.Context, limit int) ([]ChatRecord, error)

	// Teaching instructions
	SaveInstruction(ctx context.Context, instruction *Instruction) error
	ListInstructions(ctx context.Context, agentName string) ([]Instruction, error)
}

// Default and maximum list limits.
const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// NewID returns a short prefixed identifier for audit rows,
// e.g. NewID("dec") -> "dec-1b9f3a42".
func NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

// ─── Decisions ──────────────────────────────────────────────────────────────

// LogDecision appends a decision record. Confidence must be within [0, 1].
// Missing ID, timestamp, and status are filled in (status defaults to PENDING).
func (r *SQLiteRepository) LogDecision(ctx context.Context, decision *Decision) error {
	if decision.Confidence < 0 || decision.Confidence > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidConfidence, decision.Confidence)
	}
	if decision.ID == "" {
		decision.ID = NewID("dec")
	}
	if decision.Timestamp.IsZero() {
		decision.Timestamp = time.Now().UTC()
	}
	if decision.Status == "" {
		decision.Status = DecisionPending
	}

	query := `
		INSERT INTO decisions (id, agent_name, decision_type, target, action, reasoning, confidence, timestamp, status, approved_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		decision.ID,
		decision.AgentName,
		decision.DecisionType,
		decision.Target,
		decision.Action,
		decision.Reasoning,
		decision.Confidence,
		decision.Timestamp.Format(time.RFC3339),
		decision.Status,
		decision.ApprovedBy,
	)
	if err != nil {
		return fmt.Errorf("inserting decision: %w", err)
	}
	return nil
}

// MarkDecisionCompleted transitions a decision to COMPLETED after its action
// was dispatched to the actuation gateway.
func (r *SQLiteRepository) MarkDecisionCompleted(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE decisions SET status = ? WHERE id = ?",
		DecisionCompleted, id,
	)
	if err != nil {
		return fmt.Errorf("updating decision: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrDecisionNotFound
	}
	return nil
}

// ListDecisions retrieves the most recent decisions, newest first.
func (r *SQLiteRepository) ListDecisions(ctx context.Context, limit int) ([]Decision, error) {
	query := `
		SELECT id, agent_name, decision_type, target, action, reasoning, confidence, timestamp, status, approved_by
		FROM decisions ORDER BY timestamp DESC LIMIT ?`
	return r.queryDecisions(ctx, query, clampLimit(limit))
}

// ListDecisionsByAgent retrieves the most recent decisions for one agent.
func (r *SQLiteRepository) ListDecisionsByAgent(ctx context.Context, agentName string, limit int) ([]Decision, error) {
	query := `
		SELECT id, agent_name, decision_type, target, action, reasoning, confidence, timestamp, status, approved_by
		FROM decisions WHERE agent_name = ? ORDER BY timestamp DESC LIMIT ?`
	return r.queryDecisions(ctx, query, agentName, clampLimit(limit))
}

func (r *SQLiteRepository) queryDecisions(ctx context.Context, query string, args ...any) ([]Decision, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying decisions: %w", err)
	}
	defer rows.Close()

	var decisions []Decision
	for rows.Next() {
		var d Decision
		var ts string
		var approvedBy sql.NullString

		if err := rows.Scan(
			&d.ID, &d.AgentName, &d.DecisionType, &d.Target, &d.Action,
			&d.Reasoning, &d.Confidence, &ts, &d.Status, &approvedBy,
		); err != nil {
			return nil, fmt.Errorf("scanning decision: %w", err)
		}

		d.Timestamp, _ = time.Parse(time.RFC3339, ts) //nolint:errcheck // Format is controlled
		if approvedBy.Valid {
			d.ApprovedBy = &approvedBy.String
		}
		decisions = append(decisions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating decisions: %w", err)
	}
	return decisions, nil
}

// ─── Alerts ─────────────────────────────────────────────────────────────────

// SaveAlert appends an alert. Missing ID and timestamp are filled in.
func (r *SQLiteRepository) SaveAlert(ctx context.Context, alert *Alert) error {
	if alert.ID == "" {
		alert.ID = NewID("alr")
	}
	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now().UTC()
	}

	query := `
		INSERT INTO alerts (id, severity, title, message, location, timestamp, acknowledged, resolved)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		alert.ID,
		alert.Severity,
		alert.Title,
		alert.Message,
		alert.Location,
		alert.Timestamp.Format(time.RFC3339),
		boolToInt(alert.Acknowledged),
		boolToInt(alert.Resolved),
	)
	if err != nil {
		return fmt.Errorf("inserting alert: %w", err)
	}
	return nil
}

// AcknowledgeAlert marks an alert as acknowledged by the operator.
func (r *SQLiteRepository) AcknowledgeAlert(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "UPDATE alerts SET acknowledged = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("updating alert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrAlertNotFound
	}
	return nil
}

// ListAlerts retrieves the most recent alerts, newest first.
func (r *SQLiteRepository) ListAlerts(ctx context.Context, limit int) ([]Alert, error) {
	query := `
		SELECT id, severity, title, message, location, timestamp, acknowledged, resolved
		FROM alerts ORDER BY timestamp DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying alerts: %w", err)
	}
	defer rows.Close()

	var alerts []Alert
	for rows.Next() {
		var a Alert
		var ts string
		var acknowledged, resolved int

		if err := rows.Scan(&a.ID, &a.Severity, &a.Title, &a.Message, &a.Location, &ts, &acknowledged, &resolved); err != nil {
			return nil, fmt.Errorf("scanning alert: %w", err)
		}

		a.Timestamp, _ = time.Parse(time.RFC3339, ts) //nolint:errcheck // Format is controlled
		a.Acknowledged = acknowledged != 0
		a.Resolved = resolved != 0
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating alerts: %w", err)
	}
	return alerts, nil
}

// ─── Safety Events ──────────────────────────────────────────────────────────

// LogSafetyEvent appends a safety event. Missing ID and timestamp are filled in.
func (r *SQLiteRepository) LogSafetyEvent(ctx context.Context, event *SafetyEvent) error {
	if event.ID == "" {
		event.ID = NewID("sfe")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	query := `
		INSERT INTO safety_events (id, location, risk_level, event_type, description, automated_action, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.Location,
		event.RiskLevel,
		event.EventType,
		event.Description,
		event.AutomatedAction,
		event.Timestamp.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting safety event: %w", err)
	}
	return nil
}

// ListSafetyEvents retrieves the most recent safety events, newest first.
func (r *SQLiteRepository) ListSafetyEvents(ctx context.Context, limit int) ([]SafetyEvent, error) {
	query := `
		SELECT id, location, risk_level, event_type, description, automated_action, timestamp
		FROM safety_events ORDER BY timestamp DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying safety events: %w", err)
	}
	defer rows.Close()

	var events []SafetyEvent
	for rows.Next() {
		var e SafetyEvent
		var ts string

		if err := rows.Scan(&e.ID, &e.Location, &e.RiskLevel, &e.EventType, &e.Description, &e.AutomatedAction, &ts); err != nil {
			return nil, fmt.Errorf("scanning safety event: %w", err)
		}

		e.Timestamp, _ = time.Parse(time.RFC3339, ts) //nolint:errcheck // Format is controlled
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating safety events: %w", err)
	}
	return events, nil
}

// ─── Chat History ───────────────────────────────────────────────────────────

// SaveExchange persists one question/answer exchange.
func (r *SQLiteRepository) SaveExchange(ctx context.Context, record *ChatRecord) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO chat_history (question, answer, language, timestamp) VALUES (?, ?, ?, ?)",
		record.Question,
		record.Answer,
		record.Language,
		record.Timestamp.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting chat record: %w", err)
	}
	return nil
}

// RecentExchanges retrieves the last N exchanges in chronological order
// (oldest first), suitable for replaying into conversation memory.
func (r *SQLiteRepository) RecentExchanges(ctx context.Context, limit int) ([]ChatRecord, error) {
	query := `
		SELECT question, answer, language, timestamp FROM (
			SELECT id, question, answer, language, timestamp
			FROM chat_history ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying chat history: %w", err)
	}
	defer rows.Close()

	var records []ChatRecord
	for rows.Next() {
		var rec ChatRecord
		var ts string

		if err := rows.Scan(&rec.Question, &rec.Answer, &rec.Language, &ts); err != nil {
			return nil, fmt.Errorf("scanning chat record: %w", err)
		}

		rec.Timestamp, _ = time.Parse(time.RFC3339, ts) //nolint:errcheck // Format is controlled
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chat history: %w", err)
	}
	return records, nil
}

// ─── Teaching Instructions ──────────────────────────────────────────────────

// SaveInstruction persists one teaching instruction for an agent.
func (r *SQLiteRepository) SaveInstruction(ctx context.Context, instruction *Instruction) error {
	if instruction.Timestamp.IsZero() {
		instruction.Timestamp = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO agent_instructions (agent_name, timestamp, text) VALUES (?, ?, ?)",
		instruction.AgentName,
		instruction.Timestamp.Format(time.RFC3339),
		instruction.Text,
	)
	if err != nil {
		return fmt.Errorf("inserting instruction: %w", err)
	}
	return nil
}

// ListInstructions retrieves all instructions for an agent in the order they
// were taught.
func (r *SQLiteRepository) ListInstructions(ctx context.Context, agentName string) ([]Instruction, error) {
	query := `
		SELECT agent_name, timestamp, text FROM agent_instructions
		WHERE agent_name = ? ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, agentName)
	if err != nil {
		return nil, fmt.Errorf("querying instructions: %w", err)
	}
	defer rows.Close()

	var instructions []Instruction
	for rows.Next() {
		var ins Instruction
		var ts string

		if err := rows.Scan(&ins.AgentName, &ts, &ins.Text); err != nil {
			return nil, fmt.Errorf("scanning instruction: %w", err)
		}

		ins.Timestamp, _ = time.Parse(time.RFC3339, ts) //nolint:errcheck // Format is controlled
		instructions = append(instructions, ins)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating instructions: %w", err)
	}
	return instructions, nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// clampLimit bounds a caller-supplied limit to sane values.
func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// boolToInt converts a bool to SQLite's integer representation.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
