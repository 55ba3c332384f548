// Package audit is the append-only audit trail for Wattson Core.
//
// It records:
//   - Decisions: what a policy agent (or an operator through the command
//     channel) decided, with confidence and completion status
//   - Alerts: operator-facing notifications with severity
//   - SafetyEvents: safety-policy interventions
//   - Chat history: the persisted conversation log
//   - Instructions: the teaching log per agent
//
// Rows are never updated once written, except the narrow status transitions
// (decision PENDING -> COMPLETED, alert acknowledged).
package audit
