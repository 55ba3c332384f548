// Package logging provides structured logging for Wattson Core.
//
// Built on log/slog, it adds:
//   - JSON or text output selected by configuration
//   - Level filtering (debug, info, warn, error)
//   - Default service/version attributes on every record
//   - Child loggers via With() for per-component context
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	agentLog := logger.With("component", "agent")
//	agentLog.Info("duty cycle complete", "agent", name)
package logging
