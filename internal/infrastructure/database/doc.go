// Package database provides SQLite connection management for Ordos Core.
//
// It wraps database/sql with:
//   - Connection setup (WAL mode, busy timeout, foreign keys enforced)
//   - Embedded schema migrations applied at startup
//   - Health checks for the API surface
//
// Foreign key enforcement matters here: device history (recordings and
// files) is declared with ON DELETE CASCADE, so removing a device removes
// its entire retrieved-file history in one statement.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
