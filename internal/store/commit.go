package store

import (
	"database/sql"
	"fmt"
)

// CommitBatch inserts all buffered data from a BatchedStore into SQLite
// within a single transaction. Fake (negative) IDs are remapped to real
// (positive, AUTOINCREMENT) IDs, and FK references within the batch are
// rewritten using the fakeToReal mapping as each row is inserted.
//
// Insert order respects FK dependencies:
//  1. Scopes (parent_scope_id may be fake, intra-file)
//  2. Definitions (scope_id, parent_definition_id may be fake)
//  3. Params / TypeParams / Decorators (definition_id may be fake)
//  4. References (scope_id may be fake)
//  5. Imports (file_id already real; resolved_file_id is always real,
//     filled in later by the module resolver pass)
func (s *Store) CommitBatch(batch *BatchedStore) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	fakeToReal := make(map[int64]int64)

	for _, sc := range batch.Scopes {
		if sc.ParentScopeID != nil && *sc.ParentScopeID < 0 {
			realID := fakeToReal[*sc.ParentScopeID]
			sc.ParentScopeID = &realID
		}
		realID, err := insertScopeTx(tx, &sc)
		if err != nil {
			return fmt.Errorf("commit batch: scope: %w", err)
		}
		fakeToReal[sc.ID] = realID
	}

	for _, d := range batch.Definitions {
		if d.ScopeID < 0 {
			d.ScopeID = fakeToReal[d.ScopeID]
		}
		if d.ParentDefinitionID != nil && *d.ParentDefinitionID < 0 {
			realID := fakeToReal[*d.ParentDefinitionID]
			d.ParentDefinitionID = &realID
		}
		realID, err := insertDefinitionTx(tx, &d)
		if err != nil {
			return fmt.Errorf("commit batch: definition %q: %w", d.Name, err)
		}
		fakeToReal[d.ID] = realID
	}

	for _, p := range batch.Params {
		if p.DefinitionID < 0 {
			p.DefinitionID = fakeToReal[p.DefinitionID]
		}
		if _, err := insertParamTx(tx, &p); err != nil {
			return fmt.Errorf("commit batch: param %q: %w", p.Name, err)
		}
	}

	for _, tp := range batch.TypeParams {
		if tp.DefinitionID < 0 {
			tp.DefinitionID = fakeToReal[tp.DefinitionID]
		}
		if _, err := insertTypeParamTx(tx, &tp); err != nil {
			return fmt.Errorf("commit batch: type param %q: %w", tp.Name, err)
		}
	}

	for _, dec := range batch.Decorators {
		if dec.DefinitionID < 0 {
			dec.DefinitionID = fakeToReal[dec.DefinitionID]
		}
		if _, err := insertDecoratorTx(tx, &dec); err != nil {
			return fmt.Errorf("commit batch: decorator %q: %w", dec.Name, err)
		}
	}

	for _, r := range batch.References {
		if r.ScopeID < 0 {
			r.ScopeID = fakeToReal[r.ScopeID]
		}
		if _, err := insertReferenceTx(tx, &r); err != nil {
			return fmt.Errorf("commit batch: reference %q: %w", r.Name, err)
		}
	}

	for _, im := range batch.Imports {
		if _, err := insertImportTx(tx, &im); err != nil {
			return fmt.Errorf("commit batch: import %q: %w", im.SourceModule, err)
		}
	}

	return tx.Commit()
}

// --- Transaction-scoped insert helpers, mirroring the Store methods in
// datastore.go but accepting *sql.Tx for use inside CommitBatch. ---

func insertScopeTx(tx *sql.Tx, sc *Scope) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO scopes (file_id, parent_scope_id, kind, start_line, start_col, end_line, end_col)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sc.FileID, sc.ParentScopeID, sc.Kind, sc.StartLine, sc.StartCol, sc.EndLine, sc.EndCol)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertDefinitionTx(tx *sql.Tx, d *Definition) (int64, error) {
	res, err := tx.Exec(
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

func insertParamTx(tx *sql.Tx, p *Param) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO def_params (definition_id, name, ordinal, type_expr, is_receiver, is_return)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.DefinitionID, p.Name, p.Ordinal, p.TypeExpr, p.IsReceiver, p.IsReturn)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertTypeParamTx(tx *sql.Tx, tp *Param) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO def_type_params (definition_id, name, ordinal) VALUES (?, ?, ?)`,
		tp.DefinitionID, tp.Name, tp.Ordinal)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertDecoratorTx(tx *sql.Tx, dec *Decorator) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO def_decorators (definition_id, name, arguments) VALUES (?, ?, ?)`,
		dec.DefinitionID, dec.Name, dec.Arguments)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertReferenceTx(tx *sql.Tx, r *Reference) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO references_tbl (reference_id, file_id, scope_id, name, kind, start_line, start_col, end_line, end_col)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ReferenceID, r.FileID, r.ScopeID, r.Name, r.Kind, r.StartLine, r.StartCol, r.EndLine, r.EndCol)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertImportTx(tx *sql.Tx, im *Import) (int64, error) {
	res, err := tx.Exec(
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
