package audit

import "time"

// Decision status values. A decision is COMPLETED iff its action was
// dispatched to the actuation gateway.
const (
	DecisionPending   = "PENDING"
	DecisionCompleted = "COMPLETED"
)

// Alert severity levels.
const (
	SeverityInfo     = "INFO"
	SeverityWarning  = "WARNING"
	SeverityCritical = "CRITICAL"
)

// Decision is an immutable record of an autonomous (or operator-attributed)
// decision: what was decided, about which target, with what confidence.
type Decision struct {
	ID           string    `json:"id"`
	AgentName    string    `json:"agent_name"`
	DecisionType string    `json:"decision_type"`
	Target       string    `json:"target"`
	Action       string    `json:"action"`
	Reasoning    string    `json:"reasoning"`
	Confidence   float64   `json:"confidence"`
	Timestamp    time.Time `json:"timestamp"`
	Status       string    `json:"status"`
	ApprovedBy   *string   `json:"approved_by,omitempty"`
}

// Alert is an operator-facing notification.
type Alert struct {
	ID           string    `json:"id"`
	Severity     string    `json:"severity"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	Location     string    `json:"location"`
	Timestamp    time.Time `json:"timestamp"`
	Acknowledged bool      `json:"acknowledged"`
	Resolved     bool      `json:"resolved"`
}

// SafetyEvent records a safety-policy intervention. Written exclusively by
// the safety lockdown policy.
type SafetyEvent struct {
	ID              string    `json:"id"`
	Location        string    `json:"location"`
	RiskLevel       string    `json:"risk_level"`
	EventType       string    `json:"event_type"`
	Description     string    `json:"description"`
	AutomatedAction string    `json:"automated_action"`
	Timestamp       time.Time `json:"timestamp"`
}

// ChatRecord is one persisted question/answer exchange.
type ChatRecord struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Language  string    `json:"language"`
	Timestamp time.Time `json:"timestamp"`
}

// Instruction is one appended teaching note for an agent.
type Instruction struct {
	AgentName string    `json:"agent_name"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
}
