package ariadne

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CRJFisher/ariadne-sub020/internal/store"
)

// writeTestSource writes lines to a real file under dir, so readLines and
// GetSourceWithContext have real bytes to read back.
func writeTestSource(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := ""
	for i, l := range lines {
		if i > 0 {
			content += "\n"
		}
		content += l
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGetScopeGraph_ReturnsNilForUnindexedFile(t *testing.T) {
	t.Parallel()
	p := newTestProject(t)
	graph, err := p.GetScopeGraph(filepath.Join(t.TempDir(), "nope.ts"))
	require.NoError(t, err)
	assert.Nil(t, graph)
}

func TestGetScopeGraph_ReturnsCachedGraph(t *testing.T) {
	t.Parallel()
	p := newTestProject(t)
	dir := t.TempDir()
	path := writeTestSource(t, dir, "handler.ts", "class Handler {}")

	graph, _, _ := handlerGraph(path)
	fileID, err := p.store.InsertFile(&store.File{Path: path, Language: "typescript"})
	require.NoError(t, err)
	require.NoError(t, p.commitGraph(fileID, path, graph))
	p.cacheGraph(path, graph)

	got, err := p.GetScopeGraph(path)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, path, got.Path)
	assert.Len(t, got.Defs, 4)
}

func TestFindReferences_ReturnsResolvedUseSites(t *testing.T) {
	t.Parallel()
	p := newTestProject(t)
	dir := t.TempDir()
	path := writeTestSource(t, dir, "handler.ts",
		"class Handler {",
		"  onClick() {}",
		"}",
		"",
		"const h = new Handler()",
		"h.onClick()")

	graph, _, methodDef := handlerGraph(path)
	fileID, err := p.store.InsertFile(&store.File{Path: path, Language: "typescript"})
	require.NoError(t, err)
	require.NoError(t, p.commitGraph(fileID, path, graph))
	p.cacheGraph(path, graph)
	require.NoError(t, p.Resolve(context.Background()))

	methodRow, err := p.store.DefinitionsByName(methodDef.Name)
	require.NoError(t, err)
	require.NotEmpty(t, methodRow)

	refs, err := p.FindReferences(methodRow[0].SymbolID)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, path, refs[0].File)
	assert.Equal(t, store.ConfidenceExact, refs[0].Confidence)
}

func TestFindReferences_UnknownSymbolReturnsNil(t *testing.T) {
	t.Parallel()
	p := newTestProject(t)
	refs, err := p.FindReferences("method:/nope.ts:0:0:0:0:missing")
	require.NoError(t, err)
	assert.Nil(t, refs)
}

func TestGoToDefinition_ResolvesConstructorCall(t *testing.T) {
	t.Parallel()
	p := newTestProject(t)
	dir := t.TempDir()
	path := writeTestSource(t, dir, "handler.ts",
		"class Handler {",
		"  onClick() {}",
		"}",
		"",
		"const h = new Handler()",
		"h.onClick()")

	graph, classDef, _ := handlerGraph(path)
	fileID, err := p.store.InsertFile(&store.File{Path: path, Language: "typescript"})
	require.NoError(t, err)
	require.NoError(t, p.commitGraph(fileID, path, graph))
	p.cacheGraph(path, graph)
	require.NoError(t, p.Resolve(context.Background()))

	defs, err := p.GoToDefinition(path, 11, 10)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, classDef.Name, defs[0].Name)
}

func TestGoToDefinition_NoReferenceAtPositionReturnsNil(t *testing.T) {
	t.Parallel()
	p := newTestProject(t)
	dir := t.TempDir()
	path := writeTestSource(t, dir, "handler.ts", "class Handler {}")

	graph, _, _ := handlerGraph(path)
	fileID, err := p.store.InsertFile(&store.File{Path: path, Language: "typescript"})
	require.NoError(t, err)
	require.NoError(t, p.commitGraph(fileID, path, graph))

	defs, err := p.GoToDefinition(path, 999, 999)
	require.NoError(t, err)
	assert.Nil(t, defs)
}

func TestGetCallGraph_SerializesNodesAndEntryPoints(t *testing.T) {
	t.Parallel()
	p := newTestProject(t)
	dir := t.TempDir()
	path := writeTestSource(t, dir, "handler.ts",
		"class Handler {",
		"  onClick() {}",
		"}",
		"",
		"function main() {",
		"  const h = new Handler()",
		"  h.onClick()",
		"}")

	graph, _, methodDef := handlerGraph(path)
	fileID, err := p.store.InsertFile(&store.File{Path: path, Language: "typescript"})
	require.NoError(t, err)
	require.NoError(t, p.commitGraph(fileID, path, graph))
	p.cacheGraph(path, graph)
	require.NoError(t, p.Resolve(context.Background()))

	sg, err := p.GetCallGraph(&CallGraphOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, sg.Nodes)

	var methodNode *CallGraphNode
	for i := range sg.Nodes {
		if sg.Nodes[i].Definition.Name == methodDef.Name {
			methodNode = &sg.Nodes[i]
		}
	}
	require.NotNil(t, methodNode)
	assert.NotEmpty(t, methodNode.Callers, "onClick has a caller")

	require.NotEmpty(t, sg.EntryPoints)
	foundMain := false
	for _, ep := range sg.EntryPoints {
		if def, lookupErr := p.store.DefinitionBySymbolID(ep); lookupErr == nil && def != nil && def.Name == "main" {
			foundMain = true
		}
	}
	assert.True(t, foundMain)
}

func TestGetCallGraph_FileFilterNarrowsNodes(t *testing.T) {
	t.Parallel()
	p := newTestProject(t)
	dir := t.TempDir()
	path := writeTestSource(t, dir, "handler.ts", "class Handler {\n  onClick() {}\n}")

	graph, _, _ := handlerGraph(path)
	fileID, err := p.store.InsertFile(&store.File{Path: path, Language: "typescript"})
	require.NoError(t, err)
	require.NoError(t, p.commitGraph(fileID, path, graph))
	p.cacheGraph(path, graph)
	require.NoError(t, p.Resolve(context.Background()))

	sg, err := p.GetCallGraph(&CallGraphOptions{FileFilter: "/does/not/match.ts"})
	require.NoError(t, err)
	assert.Empty(t, sg.Nodes)
}

func TestGetSourceWithContext_UsesEnclosingRangeWhenPresent(t *testing.T) {
	t.Parallel()
	p := newTestProject(t)
	dir := t.TempDir()
	path := writeTestSource(t, dir, "handler.ts",
		"class Handler {",
		"  onClick() {",
		"    doStuff()",
		"  }",
		"}")

	graph, _, methodDef := handlerGraph(path)
	fileID, err := p.store.InsertFile(&store.File{Path: path, Language: "typescript"})
	require.NoError(t, err)
	require.NoError(t, p.commitGraph(fileID, path, graph))

	defs, err := p.store.DefinitionsByName(methodDef.Name)
	require.NoError(t, err)
	require.NotEmpty(t, defs)

	ctx, err := p.GetSourceWithContext(defs[0])
	require.NoError(t, err)
	require.NotNil(t, ctx)
	assert.Contains(t, ctx.Source, "onClick")
	assert.Contains(t, ctx.Source, "doStuff")
}

func TestGetSourceWithContext_UnknownFileReturnsNil(t *testing.T) {
	t.Parallel()
	p := newTestProject(t)
	def := &store.Definition{FileID: 9999}
	ctx, err := p.GetSourceWithContext(def)
	require.NoError(t, err)
	assert.Nil(t, ctx)
}
