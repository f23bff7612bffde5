package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for Ariadne's ScopeGraph and
// ResolutionCache tables.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode, foreign keys,
// and a busy timeout suitable for a single-writer/many-reader workload.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
-- Extraction tables (ScopeGraph, spec.md §3.2)

CREATE TABLE IF NOT EXISTS files (
  id              INTEGER PRIMARY KEY,
  path            TEXT NOT NULL UNIQUE,
  language        TEXT NOT NULL,
  hash            TEXT,
  line_count      INTEGER DEFAULT 0,
  last_indexed    TIMESTAMP
);

CREATE TABLE IF NOT EXISTS scopes (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id),
  parent_scope_id INTEGER REFERENCES scopes(id),
  kind            TEXT NOT NULL,
  start_line      INTEGER,
  start_col       INTEGER,
  end_line        INTEGER,
  end_col         INTEGER
);

CREATE TABLE IF NOT EXISTS definitions (
  id                   INTEGER PRIMARY KEY,
  symbol_id            TEXT NOT NULL UNIQUE,
  file_id              INTEGER NOT NULL REFERENCES files(id),
  scope_id             INTEGER NOT NULL REFERENCES scopes(id),
  name                 TEXT NOT NULL,
  kind                 TEXT NOT NULL,
  visibility           TEXT,
  start_line           INTEGER,
  start_col            INTEGER,
  end_line             INTEGER,
  end_col              INTEGER,
  enc_start_line       INTEGER DEFAULT 0,
  enc_start_col        INTEGER DEFAULT 0,
  enc_end_line         INTEGER DEFAULT 0,
  enc_end_col          INTEGER DEFAULT 0,
  exported             BOOLEAN DEFAULT FALSE,
  is_test              BOOLEAN DEFAULT FALSE,
  docstring            TEXT,
  signature_hash       TEXT,
  parent_definition_id INTEGER REFERENCES definitions(id)
);

CREATE TABLE IF NOT EXISTS def_params (
  id              INTEGER PRIMARY KEY,
  definition_id   INTEGER NOT NULL REFERENCES definitions(id),
  name            TEXT,
  ordinal         INTEGER NOT NULL,
  type_expr       TEXT,
  is_receiver     BOOLEAN DEFAULT FALSE,
  is_return       BOOLEAN DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS def_type_params (
  id              INTEGER PRIMARY KEY,
  definition_id   INTEGER NOT NULL REFERENCES definitions(id),
  name            TEXT NOT NULL,
  ordinal         INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS def_decorators (
  id              INTEGER PRIMARY KEY,
  definition_id   INTEGER NOT NULL REFERENCES definitions(id),
  name            TEXT NOT NULL,
  arguments       TEXT
);

CREATE TABLE IF NOT EXISTS references_tbl (
  id              INTEGER PRIMARY KEY,
  reference_id    TEXT NOT NULL UNIQUE,
  file_id         INTEGER NOT NULL REFERENCES files(id),
  scope_id        INTEGER NOT NULL REFERENCES scopes(id),
  name            TEXT NOT NULL,
  kind            TEXT NOT NULL,
  start_line      INTEGER,
  start_col       INTEGER,
  end_line        INTEGER,
  end_col         INTEGER
);

CREATE TABLE IF NOT EXISTS imports (
  id                INTEGER PRIMARY KEY,
  file_id           INTEGER NOT NULL REFERENCES files(id),
  local_name        TEXT NOT NULL,
  source_name       TEXT,
  source_module     TEXT NOT NULL,
  kind              TEXT NOT NULL,
  start_line        INTEGER,
  start_col         INTEGER,
  end_line          INTEGER,
  end_col           INTEGER,
  resolved_file_id  INTEGER REFERENCES files(id)
);

-- Resolution tables (ResolutionCache, spec.md §4.6)

CREATE TABLE IF NOT EXISTS resolutions (
  id              INTEGER PRIMARY KEY,
  reference_id    INTEGER NOT NULL REFERENCES references_tbl(id),
  definition_id   INTEGER NOT NULL REFERENCES definitions(id),
  confidence      TEXT NOT NULL DEFAULT 'exact'
);

CREATE TABLE IF NOT EXISTS call_edges (
  id                     INTEGER PRIMARY KEY,
  caller_definition_id   INTEGER NOT NULL REFERENCES definitions(id),
  callee_definition_id   INTEGER NOT NULL REFERENCES definitions(id),
  file_id                INTEGER REFERENCES files(id),
  line                   INTEGER,
  col                    INTEGER,
  call_type              TEXT NOT NULL,
  is_callback_invocation BOOLEAN DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS indirect_reachability (
  id               INTEGER PRIMARY KEY,
  definition_id    INTEGER NOT NULL REFERENCES definitions(id),
  kind             TEXT NOT NULL,
  collection_name  TEXT,
  file_id          INTEGER REFERENCES files(id),
  line             INTEGER,
  col              INTEGER,
  consumed_later   BOOLEAN DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS reexports (
  id                  INTEGER PRIMARY KEY,
  file_id             INTEGER NOT NULL REFERENCES files(id),
  original_symbol_id  INTEGER NOT NULL REFERENCES definitions(id),
  exported_name       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS metadata (
  key   TEXT PRIMARY KEY,
  value TEXT
);

-- Indexes

CREATE INDEX IF NOT EXISTS idx_files_language ON files(language);
CREATE INDEX IF NOT EXISTS idx_scopes_file ON scopes(file_id);
CREATE INDEX IF NOT EXISTS idx_scopes_parent ON scopes(parent_scope_id);
CREATE INDEX IF NOT EXISTS idx_definitions_file ON definitions(file_id);
CREATE INDEX IF NOT EXISTS idx_definitions_name ON definitions(name);
CREATE INDEX IF NOT EXISTS idx_definitions_kind ON definitions(kind);
CREATE INDEX IF NOT EXISTS idx_definitions_parent ON definitions(parent_definition_id);
CREATE INDEX IF NOT EXISTS idx_definitions_hash ON definitions(signature_hash);
CREATE INDEX IF NOT EXISTS idx_def_params_def ON def_params(definition_id);
CREATE INDEX IF NOT EXISTS idx_def_type_params_def ON def_type_params(definition_id);
CREATE INDEX IF NOT EXISTS idx_def_decorators_def ON def_decorators(definition_id);
CREATE INDEX IF NOT EXISTS idx_references_file ON references_tbl(file_id);
CREATE INDEX IF NOT EXISTS idx_references_name ON references_tbl(name);
CREATE INDEX IF NOT EXISTS idx_references_scope ON references_tbl(scope_id);
CREATE INDEX IF NOT EXISTS idx_imports_file ON imports(file_id);
CREATE INDEX IF NOT EXISTS idx_imports_source ON imports(source_module);
CREATE INDEX IF NOT EXISTS idx_imports_resolved ON imports(resolved_file_id);
CREATE INDEX IF NOT EXISTS idx_resolutions_reference ON resolutions(reference_id);
CREATE INDEX IF NOT EXISTS idx_resolutions_target ON resolutions(definition_id);
CREATE INDEX IF NOT EXISTS idx_call_edges_caller ON call_edges(caller_definition_id);
CREATE INDEX IF NOT EXISTS idx_call_edges_callee ON call_edges(callee_definition_id);
CREATE INDEX IF NOT EXISTS idx_indirect_def ON indirect_reachability(definition_id);
CREATE INDEX IF NOT EXISTS idx_reexports_file ON reexports(file_id);
CREATE INDEX IF NOT EXISTS idx_reexports_original ON reexports(original_symbol_id);
`

// DeleteFileData transactionally removes all data for a file across every
// table, in reverse-dependency order (spec.md §4.6 re-indexing semantics:
// a changed file's own ScopeGraph is fully replaced before re-extraction).
func (s *Store) DeleteFileData(fileID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	defIDs, err := queryIDs(tx, "SELECT id FROM definitions WHERE file_id = ?", fileID)
	if err != nil {
		return fmt.Errorf("query definitions: %w", err)
	}
	refIDs, err := queryIDs(tx, "SELECT id FROM references_tbl WHERE file_id = ?", fileID)
	if err != nil {
		return fmt.Errorf("query references: %w", err)
	}

	if len(defIDs) > 0 {
		placeholders := placeholderList(len(defIDs))
		args := int64sToArgs(defIDs)
		for _, q := range []string{
			"DELETE FROM call_edges WHERE caller_definition_id IN (" + placeholders + ") OR callee_definition_id IN (" + placeholders + ")",
			"DELETE FROM indirect_reachability WHERE definition_id IN (" + placeholders + ")",
			"DELETE FROM reexports WHERE original_symbol_id IN (" + placeholders + ")",
			"DELETE FROM resolutions WHERE definition_id IN (" + placeholders + ")",
		} {
			count := countSubstring(q, "("+placeholders+")")
			execArgs := args
			if count > 1 {
				execArgs = repeatArgs(args, count)
			}
			if _, err := tx.Exec(q, execArgs...); err != nil {
				return fmt.Errorf("delete resolution data for definitions: %w", err)
			}
		}
	}

	if len(refIDs) > 0 {
		placeholders := placeholderList(len(refIDs))
		if _, err := tx.Exec("DELETE FROM resolutions WHERE reference_id IN ("+placeholders+")", int64sToArgs(refIDs)...); err != nil {
			return fmt.Errorf("delete resolutions by reference: %w", err)
		}
	}

	for _, q := range []string{
		"DELETE FROM call_edges WHERE file_id = ?",
		"DELETE FROM indirect_reachability WHERE file_id = ?",
		"DELETE FROM reexports WHERE file_id = ?",
	} {
		if _, err := tx.Exec(q, fileID); err != nil {
			return fmt.Errorf("delete resolution data for file: %w", err)
		}
	}

	if len(defIDs) > 0 {
		placeholders := placeholderList(len(defIDs))
		args := int64sToArgs(defIDs)
		for _, q := range []string{
			"DELETE FROM def_decorators WHERE definition_id IN (" + placeholders + ")",
			"DELETE FROM def_type_params WHERE definition_id IN (" + placeholders + ")",
			"DELETE FROM def_params WHERE definition_id IN (" + placeholders + ")",
		} {
			if _, err := tx.Exec(q, args...); err != nil {
				return fmt.Errorf("delete definition child data: %w", err)
			}
		}
	}

	// Imports elsewhere pointing at this file as their resolved target must
	// be unresolved, not deleted — the importing file still exists.
	if _, err := tx.Exec("UPDATE imports SET resolved_file_id = NULL WHERE resolved_file_id = ?", fileID); err != nil {
		return fmt.Errorf("unresolve imports targeting file: %w", err)
	}

	for _, q := range []string{
		"DELETE FROM references_tbl WHERE file_id = ?",
		"DELETE FROM imports WHERE file_id = ?",
		"DELETE FROM definitions WHERE file_id = ?",
		"DELETE FROM scopes WHERE file_id = ?",
	} {
		if _, err := tx.Exec(q, fileID); err != nil {
			return fmt.Errorf("delete extraction data: %w", err)
		}
	}

	return tx.Commit()
}

func queryIDs(tx *sql.Tx, query string, args ...any) ([]int64, error) {
	rows, err := tx.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
