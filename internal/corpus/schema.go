package corpus

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// corpusSchemaVersion is recorded in schema_version when a corpus is
// created. Bump it whenever schema.sql changes shape.
const corpusSchemaVersion = 1

// ErrSchemaMismatch reports a corpus database written by a different
// version of kari. Segments are never migrated in place.
var ErrSchemaMismatch = errors.New("corpus schema version mismatch")

// initSchema creates an empty corpus on first open and otherwise checks the
// recorded version.
func (s *Store) initSchema(ctx context.Context) error {
	var hasVersion, hasCorpus int
	err := s.db.QueryRowContext(ctx, `SELECT
		COALESCE(SUM(name = 'schema_version'), 0),
		COALESCE(SUM(name = 'corpus'), 0)
		FROM sqlite_master WHERE type = 'table'`).Scan(&hasVersion, &hasCorpus)
	if err != nil {
		return fmt.Errorf("inspect corpus tables: %w", err)
	}

	switch {
	case hasVersion == 0 && hasCorpus == 0:
		return s.createSchema(ctx)
	case hasVersion == 0:
		return s.mismatch("a corpus table without a schema version")
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return s.mismatch("an empty schema_version table")
	case err != nil:
		return fmt.Errorf("read corpus schema version: %w", err)
	case version != corpusSchemaVersion:
		return s.mismatch(fmt.Sprintf("schema version %d", version))
	}
	return nil
}

// mismatch explains how to recover. The store cannot open the file, so the
// only way forward is a fresh database.
func (s *Store) mismatch(found string) error {
	return fmt.Errorf("%w: %s has %s, expected version %d; move or delete that file to start a new corpus",
		ErrSchemaMismatch, s.path, found, corpusSchemaVersion)
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin corpus schema: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create corpus tables: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", corpusSchemaVersion); err != nil {
		return fmt.Errorf("record corpus schema version: %w", err)
	}
	return tx.Commit()
}
