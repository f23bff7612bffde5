package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchedStore_DefinitionsByFile_ReturnsBufferedDefinitions(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/main.ts", "typescript")

	batch := NewBatchedStore(s)

	id1, err := batch.InsertDefinition(&Definition{SymbolID: "foo", FileID: f.ID, Name: "Foo", Kind: "function"})
	require.NoError(t, err)
	assert.Negative(t, id1, "batched IDs should be negative")

	id2, err := batch.InsertDefinition(&Definition{SymbolID: "bar", FileID: f.ID, Name: "Bar", Kind: "class"})
	require.NoError(t, err)
	assert.Negative(t, id2)

	defs, err := batch.DefinitionsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, defs, 2)

	names := []string{defs[0].Name, defs[1].Name}
	assert.Contains(t, names, "Foo")
	assert.Contains(t, names, "Bar")
	for _, d := range defs {
		assert.Negative(t, d.ID, "buffered definitions should have negative IDs")
	}
}

func TestBatchedStore_DefinitionsByFile_MergesWithDatabase(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/main.ts", "typescript")
	insertTestDefinition(t, s, f.ID, "Existing", "function")

	batch := NewBatchedStore(s)
	_, err := batch.InsertDefinition(&Definition{SymbolID: "new", FileID: f.ID, Name: "New", Kind: "class"})
	require.NoError(t, err)

	defs, err := batch.DefinitionsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, defs, 2)

	names := []string{defs[0].Name, defs[1].Name}
	assert.Contains(t, names, "Existing")
	assert.Contains(t, names, "New")
}

func TestBatchedStore_DefinitionsByFile_DoesNotReturnOtherFiles(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f1 := insertTestFile(t, s, "/a.ts", "typescript")
	f2 := insertTestFile(t, s, "/b.ts", "typescript")

	batch := NewBatchedStore(s)
	_, err := batch.InsertDefinition(&Definition{SymbolID: "a", FileID: f1.ID, Name: "InFileA", Kind: "function"})
	require.NoError(t, err)
	_, err = batch.InsertDefinition(&Definition{SymbolID: "b", FileID: f2.ID, Name: "InFileB", Kind: "function"})
	require.NoError(t, err)

	defs, err := batch.DefinitionsByFile(f1.ID)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "InFileA", defs[0].Name)
}

func TestBatchedStore_DefinitionsByName_PassesThrough(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/main.ts", "typescript")
	insertTestDefinition(t, s, f.ID, "Shared", "function")

	batch := NewBatchedStore(s)
	got, err := batch.DefinitionsByName("Shared")
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestBatchedStore_FakeIDsDecrementAcrossKinds(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/main.ts", "typescript")

	batch := NewBatchedStore(s)
	scopeID, err := batch.InsertScope(&Scope{FileID: f.ID, Kind: "file"})
	require.NoError(t, err)
	defID, err := batch.InsertDefinition(&Definition{SymbolID: "x", FileID: f.ID, ScopeID: scopeID, Name: "x", Kind: "function"})
	require.NoError(t, err)

	assert.NotEqual(t, scopeID, defID, "fake IDs share one counter across row kinds")
	assert.Negative(t, scopeID)
	assert.Negative(t, defID)
}

// =============================================================================
// CommitBatch
// =============================================================================

func TestCommitBatch_RemapsFakeIDsAndInsertsAll(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/main.ts", "typescript")

	batch := NewBatchedStore(s)
	fileScope := &Scope{FileID: f.ID, Kind: "file", StartLine: 0, EndLine: 99}
	fileScopeID, err := batch.InsertScope(fileScope)
	require.NoError(t, err)

	funcScope := &Scope{FileID: f.ID, Kind: "function", ParentScopeID: &fileScopeID, StartLine: 2, EndLine: 10}
	funcScopeID, err := batch.InsertScope(funcScope)
	require.NoError(t, err)

	classDef := &Definition{SymbolID: "Handler", FileID: f.ID, ScopeID: fileScopeID, Name: "Handler", Kind: "class"}
	classID, err := batch.InsertDefinition(classDef)
	require.NoError(t, err)

	methodDef := &Definition{
		SymbolID: "Handler.process", FileID: f.ID, ScopeID: funcScopeID,
		Name: "process", Kind: "method", ParentDefinitionID: &classID,
	}
	methodID, err := batch.InsertDefinition(methodDef)
	require.NoError(t, err)

	_, err = batch.InsertParam(&Param{DefinitionID: methodID, Name: "input", Ordinal: 0})
	require.NoError(t, err)

	ref := &Reference{ReferenceID: "ref-1", FileID: f.ID, ScopeID: funcScopeID, Name: "process", Kind: "call", StartLine: 5, EndLine: 5}
	_, err = batch.InsertReference(ref)
	require.NoError(t, err)

	require.NoError(t, s.CommitBatch(batch))

	defs, err := s.DefinitionsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, defs, 2)

	var committedClass, committedMethod *Definition
	for _, d := range defs {
		if d.Name == "Handler" {
			committedClass = d
		} else {
			committedMethod = d
		}
	}
	require.NotNil(t, committedClass)
	require.NotNil(t, committedMethod)
	assert.Positive(t, committedClass.ID, "committed rows get real positive IDs")
	assert.Positive(t, committedMethod.ID)
	require.NotNil(t, committedMethod.ParentDefinitionID)
	assert.Equal(t, committedClass.ID, *committedMethod.ParentDefinitionID, "fake parent ID remapped to the real committed ID")

	params, err := s.ParamsByDefinition(committedMethod.ID)
	require.NoError(t, err)
	require.Len(t, params, 1)
	assert.Equal(t, "input", params[0].Name)

	refs, err := s.ReferencesByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, funcScopeID < 0, true, "sanity: in-memory scope ID was fake before commit")
}

func TestCommitBatch_EmptyBatchSucceeds(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	batch := NewBatchedStore(s)
	assert.NoError(t, s.CommitBatch(batch))
}

func TestCommitBatch_RemapsScopeParentChain(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/main.ts", "typescript")

	batch := NewBatchedStore(s)
	fileScopeID, err := batch.InsertScope(&Scope{FileID: f.ID, Kind: "file", StartLine: 0, EndLine: 99})
	require.NoError(t, err)
	blockScopeID, err := batch.InsertScope(&Scope{FileID: f.ID, Kind: "block", ParentScopeID: &fileScopeID, StartLine: 2, EndLine: 8})
	require.NoError(t, err)
	_ = blockScopeID

	require.NoError(t, s.CommitBatch(batch))

	var count int
	require.NoError(t, s.db.QueryRow(
		`SELECT COUNT(*) FROM scopes child
		 JOIN scopes parent ON child.parent_scope_id = parent.id
		 WHERE parent.kind = 'file' AND child.kind = 'block'`).Scan(&count))
	assert.Equal(t, 1, count, "the block scope's parent_scope_id resolves to the committed file scope's real id")
}
