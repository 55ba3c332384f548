// Package agent runs the autonomous policy roster.
//
// Fifteen named agents each own a narrow duty; five carry live policies
// (scheduling, occupancy auto-off, safety lockdown, predictive maintenance,
// load capping) and execute them on independent goroutines under the
// Scheduler. Every autonomous action flows through the actuation gateway
// and leaves a decision, alert, or safety event in the audit store.
//
// The Orchestrator fronts the roster for status queries and operator
// teaching; taught instructions are advisory context, never threshold
// overrides.
package agent
