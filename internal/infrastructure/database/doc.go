// Package database manages the Wattson Core SQLite state store.
//
// This package provides:
//   - Connection lifecycle with WAL mode and busy-timeout pragmas
//   - Embedded schema migrations applied at startup
//   - Health checks for readiness probes
//
// Concurrency model:
//   - SQLite supports a single writer; the pool is capped at one connection
//     so concurrent callers serialise at the pool instead of hitting
//     SQLITE_BUSY
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
