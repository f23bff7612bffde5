package store

import "fmt"

// FilesReferencingDefinitions returns file IDs holding a resolution that
// targets any of the given definitions (spec.md §4.6 blast radius: files
// whose references must be re-resolved after a dependency changed).
func (s *Store) FilesReferencingDefinitions(definitionIDs []int64) ([]int64, error) {
	if len(definitionIDs) == 0 {
		return nil, nil
	}
	placeholders := placeholderList(len(definitionIDs))
	query := `SELECT DISTINCT r.file_id
		FROM resolutions res
		JOIN references_tbl r ON r.id = res.reference_id
		WHERE res.definition_id IN (` + placeholders + `)`
	rows, err := s.db.Query(query, int64sToArgs(definitionIDs)...)
	if err != nil {
		return nil, fmt.Errorf("files referencing definitions: %w", err)
	}
	defer rows.Close()
	var fileIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan file id: %w", err)
		}
		fileIDs = append(fileIDs, id)
	}
	return fileIDs, rows.Err()
}

// FilesImportingSource returns file IDs that import the given module/path
// specifier, used when a file is renamed or removed (its importers' module
// resolution must be redone even if no symbol signature changed).
func (s *Store) FilesImportingSource(source string) ([]int64, error) {
	rows, err := s.db.Query("SELECT DISTINCT file_id FROM imports WHERE source_module = ?", source)
	if err != nil {
		return nil, fmt.Errorf("files importing source: %w", err)
	}
	defer rows.Close()
	var fileIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan file id: %w", err)
		}
		fileIDs = append(fileIDs, id)
	}
	return fileIDs, rows.Err()
}

// DeleteResolutionDataForDefinitions removes resolutions, call edges, and
// indirect-reachability rows targeting the given definitions, ahead of
// re-resolving the files that depend on them.
func (s *Store) DeleteResolutionDataForDefinitions(definitionIDs []int64) error {
	if len(definitionIDs) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	placeholders := placeholderList(len(definitionIDs))
	args := int64sToArgs(definitionIDs)

	queries := []struct {
		sql  string
		args []any
	}{
		{"DELETE FROM resolutions WHERE definition_id IN (" + placeholders + ")", args},
		{"DELETE FROM call_edges WHERE caller_definition_id IN (" + placeholders + ") OR callee_definition_id IN (" + placeholders + ")", repeatArgs(args, 2)},
		{"DELETE FROM indirect_reachability WHERE definition_id IN (" + placeholders + ")", args},
		{"DELETE FROM reexports WHERE original_symbol_id IN (" + placeholders + ")", args},
	}
	for _, q := range queries {
		if _, err := tx.Exec(q.sql, q.args...); err != nil {
			return fmt.Errorf("delete resolution data for definitions: %w", err)
		}
	}
	return tx.Commit()
}

// DeleteResolutionDataForFiles removes resolution data originating from
// the given files (their references' resolutions, their call edges, their
// reexports), ahead of re-resolving them from a fresh ScopeGraph.
func (s *Store) DeleteResolutionDataForFiles(fileIDs []int64) error {
	if len(fileIDs) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	placeholders := placeholderList(len(fileIDs))
	args := int64sToArgs(fileIDs)

	if _, err := tx.Exec(
		`DELETE FROM resolutions WHERE reference_id IN (
			SELECT id FROM references_tbl WHERE file_id IN (`+placeholders+`)
		)`, args...); err != nil {
		return fmt.Errorf("delete resolutions for files: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM call_edges WHERE file_id IN ("+placeholders+")", args...); err != nil {
		return fmt.Errorf("delete call edges for files: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM reexports WHERE file_id IN ("+placeholders+")", args...); err != nil {
		return fmt.Errorf("delete reexports for files: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM indirect_reachability WHERE file_id IN ("+placeholders+")", args...); err != nil {
		return fmt.Errorf("delete indirect reachability for files: %w", err)
	}
	return tx.Commit()
}

// ChangedSignatures matches old and new definitions by name and kind and
// returns the SymbolIDs of the new definitions whose signature hash
// differs from the old one's or that have no old counterpart, for the
// blast-radius computation run after a file is re-indexed (spec.md §4.6).
func ChangedSignatures(old, new []*Definition) []string {
	oldBySymbol := make(map[string]string, len(old))
	for _, d := range old {
		oldBySymbol[d.Name+":"+d.Kind] = d.SignatureHash
	}
	var changed []string
	for _, d := range new {
		key := d.Name + ":" + d.Kind
		if prev, ok := oldBySymbol[key]; !ok || prev != d.SignatureHash {
			changed = append(changed, d.SymbolID)
		}
	}
	return changed
}
