package kv

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"seasontrack/internal/logging"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is recorded in PRAGMA user_version. A fresh file reports 0.
const schemaVersion = 1

// ErrSchemaMismatch means the database was written by a newer seasontrack,
// or by something else entirely.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// initSchema creates kv_entries on a fresh database and refuses files whose
// user_version it does not recognise. The check and the create share one
// transaction so two first runs racing on a new file both end up at
// schemaVersion.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var version int
	if err := tx.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	switch version {
	case schemaVersion:
		return nil
	case 0:
	default:
		return fmt.Errorf("%w: %s has version %d, this build reads %d (move the file aside to start a new watch list)",
			ErrSchemaMismatch, s.path, version, schemaVersion)
	}

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create kv_entries: %w", err)
	}
	// PRAGMA does not accept bound parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	s.logger.Debug("initialized sqlite schema", logging.Int("schema_version", schemaVersion))
	return nil
}
