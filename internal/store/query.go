package store

import "database/sql"

// FileByPath looks up a file by its path. Returns (nil, nil) if absent.
func (s *Store) FileByPath(path string) (*File, error) {
	row := s.db.QueryRow(
		`SELECT id, path, language, hash, line_count, last_indexed FROM files WHERE path = ?`, path)
	f := &File{}
	if err := row.Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &f.LineCount, &f.LastIndexed); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return f, nil
}

// FileByID looks up a file by its row id. Returns (nil, nil) if absent.
func (s *Store) FileByID(id int64) (*File, error) {
	row := s.db.QueryRow(
		`SELECT id, path, language, hash, line_count, last_indexed FROM files WHERE id = ?`, id)
	f := &File{}
	if err := row.Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &f.LineCount, &f.LastIndexed); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return f, nil
}

// AllFiles returns every indexed file.
func (s *Store) AllFiles() ([]*File, error) {
	rows, err := s.db.Query(`SELECT id, path, language, hash, line_count, last_indexed FROM files`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*File
	for rows.Next() {
		f := &File{}
		if err := rows.Scan(&f.ID, &f.Path, &f.Language, &f.Hash, &f.LineCount, &f.LastIndexed); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// DefinitionByID looks up a definition by its row id. Returns (nil, nil)
// if absent.
func (s *Store) DefinitionByID(id int64) (*Definition, error) {
	out, err := s.queryDefinitions("WHERE id = ?", id)
	if err != nil || len(out) == 0 {
		return nil, err
	}
	return out[0], nil
}

// DefinitionBySymbolID looks up a definition by its opaque SymbolId.
// Returns (nil, nil) if absent.
func (s *Store) DefinitionBySymbolID(symbolID string) (*Definition, error) {
	out, err := s.queryDefinitions("WHERE symbol_id = ?", symbolID)
	if err != nil || len(out) == 0 {
		return nil, err
	}
	return out[0], nil
}

// DefinitionsByParent returns every definition whose ParentDefinitionID is
// parentID (class/interface/namespace members), used to build the
// Resolver's ClassMembers table for method-call resolution (spec.md §4.3
// step 4).
func (s *Store) DefinitionsByParent(parentID int64) ([]*Definition, error) {
	return s.queryDefinitions("WHERE parent_definition_id = ?", parentID)
}

// AllDefinitions returns every definition in the project.
func (s *Store) AllDefinitions() ([]*Definition, error) {
	return s.queryDefinitions("")
}

// ReferencesByFile returns every reference recorded in a file.
func (s *Store) ReferencesByFile(fileID int64) ([]*Reference, error) {
	rows, err := s.db.Query(
		`SELECT id, reference_id, file_id, scope_id, name, kind, start_line, start_col, end_line, end_col
		 FROM references_tbl WHERE file_id = ?`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Reference
	for rows.Next() {
		r := &Reference{}
		if err := rows.Scan(&r.ID, &r.ReferenceID, &r.FileID, &r.ScopeID, &r.Name, &r.Kind,
			&r.StartLine, &r.StartCol, &r.EndLine, &r.EndCol); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReferenceAt returns the reference in file fileID whose span contains
// (line, col), preferring the narrowest match. Returns (nil, nil) if none.
func (s *Store) ReferenceAt(fileID int64, line, col int) (*Reference, error) {
	row := s.db.QueryRow(
		`SELECT id, reference_id, file_id, scope_id, name, kind, start_line, start_col, end_line, end_col
		 FROM references_tbl
		 WHERE file_id = ?
		   AND (start_line < ? OR (start_line = ? AND start_col <= ?))
		   AND (end_line > ? OR (end_line = ? AND end_col >= ?))
		 ORDER BY (end_line - start_line) ASC, (end_col - start_col) ASC
		 LIMIT 1`,
		fileID, line, line, col, line, line, col)
	r := &Reference{}
	if err := row.Scan(&r.ID, &r.ReferenceID, &r.FileID, &r.ScopeID, &r.Name, &r.Kind,
		&r.StartLine, &r.StartCol, &r.EndLine, &r.EndCol); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return r, nil
}

// ParamsByDefinition returns a definition's parameters, ordered.
func (s *Store) ParamsByDefinition(definitionID int64) ([]*Param, error) {
	rows, err := s.db.Query(
		`SELECT id, definition_id, name, ordinal, type_expr, is_receiver, is_return
		 FROM def_params WHERE definition_id = ? ORDER BY ordinal`, definitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Param
	for rows.Next() {
		p := &Param{}
		if err := rows.Scan(&p.ID, &p.DefinitionID, &p.Name, &p.Ordinal, &p.TypeExpr, &p.IsReceiver, &p.IsReturn); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DecoratorsByDefinition returns a definition's decorators/annotations.
func (s *Store) DecoratorsByDefinition(definitionID int64) ([]*Decorator, error) {
	rows, err := s.db.Query(
		`SELECT id, definition_id, name, arguments FROM def_decorators WHERE definition_id = ?`, definitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Decorator
	for rows.Next() {
		d := &Decorator{}
		if err := rows.Scan(&d.ID, &d.DefinitionID, &d.Name, &d.Arguments); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ImportsByFile returns every import recorded in a file.
func (s *Store) ImportsByFile(fileID int64) ([]*Import, error) {
	rows, err := s.db.Query(
		`SELECT id, file_id, local_name, source_name, source_module, kind,
		   start_line, start_col, end_line, end_col, resolved_file_id
		 FROM imports WHERE file_id = ?`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Import
	for rows.Next() {
		im := &Import{}
		if err := rows.Scan(&im.ID, &im.FileID, &im.LocalName, &im.SourceName, &im.SourceModule, &im.Kind,
			&im.StartLine, &im.StartCol, &im.EndLine, &im.EndCol, &im.ResolvedFileID); err != nil {
			return nil, err
		}
		out = append(out, im)
	}
	return out, rows.Err()
}

// SetMetadata upserts a key/value pair in the metadata table.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// GetMetadata reads a key from the metadata table. Returns "" if absent.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}
