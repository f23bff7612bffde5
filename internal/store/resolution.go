package store

import "fmt"

// --- Resolution operations (ResolutionCache, spec.md §3.2/§4.6) ---

func (s *Store) InsertResolution(r *Resolution) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO resolutions (reference_id, definition_id, confidence) VALUES (?, ?, ?)`,
		r.ReferenceID, r.DefinitionID, r.Confidence,
	)
	if err != nil {
		return 0, fmt.Errorf("insert resolution: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	r.ID = id
	return id, nil
}

const resolutionCols = `id, reference_id, definition_id, confidence`

func (s *Store) queryResolutions(query string, args ...any) ([]*Resolution, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Resolution
	for rows.Next() {
		r := &Resolution{}
		if err := rows.Scan(&r.ID, &r.ReferenceID, &r.DefinitionID, &r.Confidence); err != nil {
			return nil, fmt.Errorf("scan resolution: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ResolutionsByReference returns every candidate Resolution for a Reference
// — more than one row means the Reference is ambiguous (spec.md §3.2).
func (s *Store) ResolutionsByReference(referenceID int64) ([]*Resolution, error) {
	return s.queryResolutions("SELECT "+resolutionCols+" FROM resolutions WHERE reference_id = ?", referenceID)
}

// ResolutionsByTarget returns every Resolution pointing at a Definition —
// this is find_references' primary query (spec.md §6).
func (s *Store) ResolutionsByTarget(definitionID int64) ([]*Resolution, error) {
	return s.queryResolutions("SELECT "+resolutionCols+" FROM resolutions WHERE definition_id = ?", definitionID)
}

// --- CallEdge operations (§4.5) ---

func (s *Store) InsertCallEdge(ce *CallEdge) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO call_edges (caller_definition_id, callee_definition_id, file_id, line, col, call_type, is_callback_invocation)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ce.CallerDefinitionID, ce.CalleeDefinitionID, ce.FileID, ce.Line, ce.Col, ce.CallType, ce.IsCallbackInvocation,
	)
	if err != nil {
		return 0, fmt.Errorf("insert call edge: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	ce.ID = id
	return id, nil
}

const callEdgeCols = `id, caller_definition_id, callee_definition_id, file_id, line, col, call_type, is_callback_invocation`

func (s *Store) queryCallEdges(query string, args ...any) ([]*CallEdge, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*CallEdge
	for rows.Next() {
		ce := &CallEdge{}
		if err := rows.Scan(&ce.ID, &ce.CallerDefinitionID, &ce.CalleeDefinitionID, &ce.FileID, &ce.Line, &ce.Col, &ce.CallType, &ce.IsCallbackInvocation); err != nil {
			return nil, fmt.Errorf("scan call edge: %w", err)
		}
		out = append(out, ce)
	}
	return out, rows.Err()
}

// CallEdgesByCaller returns every outgoing edge from a definition.
func (s *Store) CallEdgesByCaller(definitionID int64) ([]*CallEdge, error) {
	return s.queryCallEdges("SELECT "+callEdgeCols+" FROM call_edges WHERE caller_definition_id = ?", definitionID)
}

// CallEdgesByCallee returns every incoming edge to a definition (the
// reverse caller index used by entry-point detection, §4.5 step 1).
func (s *Store) CallEdgesByCallee(definitionID int64) ([]*CallEdge, error) {
	return s.queryCallEdges("SELECT "+callEdgeCols+" FROM call_edges WHERE callee_definition_id = ?", definitionID)
}

// AllCallEdges returns the full project call graph.
func (s *Store) AllCallEdges() ([]*CallEdge, error) {
	return s.queryCallEdges("SELECT " + callEdgeCols + " FROM call_edges")
}

// --- IndirectReachability operations (§4.4/§4.5) ---

func (s *Store) InsertIndirectReachability(ir *IndirectReachability) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO indirect_reachability (definition_id, kind, collection_name, file_id, line, col, consumed_later)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ir.DefinitionID, ir.Kind, ir.CollectionName, ir.FileID, ir.Line, ir.Col, ir.ConsumedLater,
	)
	if err != nil {
		return 0, fmt.Errorf("insert indirect reachability: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	ir.ID = id
	return id, nil
}

// IndirectlyReachableDefinitionIDs returns the set of definitions that are
// reachable without a direct call edge (stored in a consumed collection,
// or passed as a callback) and therefore must be excluded from entry-point
// detection (spec.md §4.5 step 2).
func (s *Store) IndirectlyReachableDefinitionIDs() (map[int64]bool, error) {
	rows, err := s.db.Query(`SELECT DISTINCT definition_id FROM indirect_reachability WHERE consumed_later = TRUE`)
	if err != nil {
		return nil, fmt.Errorf("query indirect reachability: %w", err)
	}
	defer rows.Close()
	out := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan definition id: %w", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}

// --- Reexport operations (§4.3 step 2, barrel files) ---

func (s *Store) InsertReexport(re *Reexport) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO reexports (file_id, original_symbol_id, exported_name) VALUES (?, ?, ?)`,
		re.FileID, re.OriginalSymbolID, re.ExportedName,
	)
	if err != nil {
		return 0, fmt.Errorf("insert reexport: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	re.ID = id
	return id, nil
}

// ReexportsByFile returns every reexport declared in a barrel file, keyed
// by its public exported name.
func (s *Store) ReexportsByFile(fileID int64) ([]*Reexport, error) {
	rows, err := s.db.Query(
		`SELECT id, file_id, original_symbol_id, exported_name FROM reexports WHERE file_id = ?`, fileID)
	if err != nil {
		return nil, fmt.Errorf("query reexports: %w", err)
	}
	defer rows.Close()
	var out []*Reexport
	for rows.Next() {
		re := &Reexport{}
		if err := rows.Scan(&re.ID, &re.FileID, &re.OriginalSymbolID, &re.ExportedName); err != nil {
			return nil, fmt.Errorf("scan reexport: %w", err)
		}
		out = append(out, re)
	}
	return out, rows.Err()
}
