// Package database provides SQLite connectivity for the desk.
//
// The desk persists its show (cue lists) in a single SQLite file. This
// package opens that file with WAL mode and a busy timeout, and applies the
// embedded schema migrations registered by the migrations package.
//
// Usage:
//
//	db, err := database.Open(database.Config{
//	    Path:        cfg.Database.Path,
//	    WALMode:     cfg.Database.WALMode,
//	    BusyTimeout: cfg.Database.BusyTimeout,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with a
// matching .down.sql, and each one runs in its own transaction.
package database
