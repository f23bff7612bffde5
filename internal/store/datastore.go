package store

// DataStore is the interface for extraction-phase data access. Both Store
// (direct SQLite) and BatchedStore (in-memory buffering of one file's
// extraction output, written in one transaction by Store.CommitBatch)
// implement this interface so indexing code never needs to know whether it
// is writing straight to disk or into a per-file buffer.
type DataStore interface {
	InsertFile(f *File) (int64, error)
	InsertScope(sc *Scope) (int64, error)
	InsertDefinition(d *Definition) (int64, error)
	InsertParam(p *Param) (int64, error)
	InsertTypeParam(tp *Param) (int64, error)
	InsertDecorator(dec *Decorator) (int64, error)
	InsertReference(r *Reference) (int64, error)
	InsertImport(im *Import) (int64, error)

	// Queries needed during extraction/resolution for cross-file lookups.
	DefinitionsByName(name string) ([]*Definition, error)
	DefinitionsByFile(fileID int64) ([]*Definition, error)
}

// Compile-time check: *Store satisfies DataStore.
var _ DataStore = (*Store)(nil)

// InsertFile inserts or replaces a file row and returns its id.
func (s *Store) InsertFile(f *File) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO files (path, language, hash, line_count, last_indexed)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET language=excluded.language,
		   hash=excluded.hash, line_count=excluded.line_count,
		   last_indexed=excluded.last_indexed`,
		f.Path, f.Language, f.Hash, f.LineCount, f.LastIndexed)
	if err != nil {
		return 0, err
	}
	if id, err := res.LastInsertId(); err == nil && id != 0 {
		return id, nil
	}
	var id int64
	err = s.db.QueryRow("SELECT id FROM files WHERE path = ?", f.Path).Scan(&id)
	return id, err
}

// InsertScope inserts a scope row and returns its id.
func (s *Store) InsertScope(sc *Scope) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO scopes (file_id, parent_scope_id, kind, start_line, start_col, end_line, end_col)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sc.FileID, sc.ParentScopeID, sc.Kind, sc.StartLine, sc.StartCol, sc.EndLine, sc.EndCol)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// InsertDefinition inserts a definition row and returns its id.
func (s *Store) InsertDefinition(d *Definition) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO definitions (symbol_id, file_id, scope_id, name, kind, visibility,
		   start_line, start_col, end_line, end_col,
		   enc_start_line, enc_start_col, enc_end_line, enc_end_col,
		   exported, is_test, docstring, signature_hash, parent_definition_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.SymbolID, d.FileID, d.ScopeID, d.Name, d.Kind, d.Visibility,
		d.StartLine, d.StartCol, d.EndLine, d.EndCol,
		d.EncStartLine, d.EncStartCol, d.EncEndLine, d.EncEndCol,
		d.Exported, d.IsTest, d.Docstring, d.SignatureHash, d.ParentDefinitionID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// InsertParam inserts a function/method parameter row and returns its id.
func (s *Store) InsertParam(p *Param) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO def_params (definition_id, name, ordinal, type_expr, is_receiver, is_return)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.DefinitionID, p.Name, p.Ordinal, p.TypeExpr, p.IsReceiver, p.IsReturn)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// InsertTypeParam inserts a generic type-parameter row and returns its id.
func (s *Store) InsertTypeParam(tp *Param) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO def_type_params (definition_id, name, ordinal) VALUES (?, ?, ?)`,
		tp.DefinitionID, tp.Name, tp.Ordinal)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// InsertDecorator inserts a decorator/annotation row and returns its id.
func (s *Store) InsertDecorator(dec *Decorator) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO def_decorators (definition_id, name, arguments) VALUES (?, ?, ?)`,
		dec.DefinitionID, dec.Name, dec.Arguments)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// InsertReference inserts a reference row and returns its id.
func (s *Store) InsertReference(r *Reference) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO references_tbl (reference_id, file_id, scope_id, name, kind, start_line, start_col, end_line, end_col)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ReferenceID, r.FileID, r.ScopeID, r.Name, r.Kind, r.StartLine, r.StartCol, r.EndLine, r.EndCol)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// InsertImport inserts an import row and returns its id.
func (s *Store) InsertImport(im *Import) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO imports (file_id, local_name, source_name, source_module, kind,
		   start_line, start_col, end_line, end_col, resolved_file_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		im.FileID, im.LocalName, im.SourceName, im.SourceModule, im.Kind,
		im.StartLine, im.StartCol, im.EndLine, im.EndCol, im.ResolvedFileID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// DefinitionsByName returns every definition across the project with the
// given name, used by the Resolver to build per-name candidate sets.
func (s *Store) DefinitionsByName(name string) ([]*Definition, error) {
	return s.queryDefinitions("WHERE name = ?", name)
}

// DefinitionsByFile returns every definition declared directly in a file,
// used by the Resolver for import-following (§4.3 step 2) and the
// ModuleResolver's exported-symbol-table lookups.
func (s *Store) DefinitionsByFile(fileID int64) ([]*Definition, error) {
	return s.queryDefinitions("WHERE file_id = ?", fileID)
}

func (s *Store) queryDefinitions(where string, args ...any) ([]*Definition, error) {
	rows, err := s.db.Query(`SELECT id, symbol_id, file_id, scope_id, name, kind, visibility,
		start_line, start_col, end_line, end_col,
		enc_start_line, enc_start_col, enc_end_line, enc_end_col,
		exported, is_test, docstring, signature_hash, parent_definition_id
		FROM definitions `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Definition
	for rows.Next() {
		d := &Definition{}
		if err := rows.Scan(&d.ID, &d.SymbolID, &d.FileID, &d.ScopeID, &d.Name, &d.Kind, &d.Visibility,
			&d.StartLine, &d.StartCol, &d.EndLine, &d.EndCol,
			&d.EncStartLine, &d.EncStartCol, &d.EncEndLine, &d.EncEndCol,
			&d.Exported, &d.IsTest, &d.Docstring, &d.SignatureHash, &d.ParentDefinitionID); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
