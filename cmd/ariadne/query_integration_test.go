package main_test

import (
	"bytes"
	"encoding/json"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// indexFixture builds the binary and indexes a TypeScript fixture, returning
// the binary path and fixture directory, ready for query commands.
func indexFixture(t *testing.T) (bin, fixtureDir, dbPath string) {
	t.Helper()
	bin = buildBinary(t)
	fixtureDir = createTSFixture(t)
	dbPath = filepath.Join(fixtureDir, ".ariadne", "index.db")

	cmd := exec.Command(bin, "index", fixtureDir)
	cmd.Dir = fixtureDir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "index failed: %s", string(out))
	require.FileExists(t, dbPath)

	return bin, fixtureDir, dbPath
}

// runQuery executes an `ariadne query` command and decodes its JSON stdout.
func runQuery(t *testing.T, bin, fixtureDir string, args ...string) any {
	t.Helper()
	fullArgs := append([]string{"query"}, args...)
	cmd := exec.Command(bin, fullArgs...)
	cmd.Dir = fixtureDir
	stdout, err := cmd.Output()
	require.NoError(t, err, "query command failed")

	var result any
	require.NoError(t, json.Unmarshal(stdout, &result), "invalid JSON output: %s", string(stdout))
	return result
}

// runQueryRaw executes an `ariadne query` command and returns raw stdout/stderr.
func runQueryRaw(t *testing.T, bin, fixtureDir string, args ...string) (stdout, stderr string) {
	t.Helper()
	fullArgs := append([]string{"query"}, args...)
	cmd := exec.Command(bin, fullArgs...)
	cmd.Dir = fixtureDir
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	_ = cmd.Run()
	return stdoutBuf.String(), stderrBuf.String()
}

func TestQuery_ScopeGraph(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin, fixtureDir, _ := indexFixture(t)

	result := runQuery(t, bin, fixtureDir, "scope-graph", "handler.ts")
	graph, ok := result.(map[string]any)
	require.True(t, ok, "scope-graph should print a single object")
	assert.Contains(t, graph["Path"], "handler.ts")

	defs, ok := graph["Defs"].([]any)
	require.True(t, ok, "Defs should be an array")
	assert.GreaterOrEqual(t, len(defs), 2, "should find Handler and main")
}

func TestQuery_ScopeGraph_UnindexedFile(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin, fixtureDir, _ := indexFixture(t)

	cmd := exec.Command(bin, "query", "scope-graph", "nope.ts")
	cmd.Dir = fixtureDir
	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf
	err := cmd.Run()
	require.Error(t, err, "unindexed file should fail")
	assert.Contains(t, stderrBuf.String(), "not indexed")
}

func TestQuery_Definition_ResolvesConstructorCall(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin, fixtureDir, _ := indexFixture(t)

	// "new Handler()" is on line 7 (0-based) of the fixture.
	result := runQuery(t, bin, fixtureDir, "definition", "handler.ts", "7", "16")
	defs, ok := result.([]any)
	require.True(t, ok, "definition should print an array")
	require.GreaterOrEqual(t, len(defs), 1, "should resolve to the Handler class")

	first := defs[0].(map[string]any)
	assert.Equal(t, "Handler", first["Name"])
}

func TestQuery_References(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin, fixtureDir, _ := indexFixture(t)

	// Resolve the method-call reference on line 8 ("h.onClick()") to get
	// onClick's real symbol id, then list its references.
	defResult := runQuery(t, bin, fixtureDir, "definition", "handler.ts", "8", "4")
	resolved, ok := defResult.([]any)
	require.True(t, ok)
	require.GreaterOrEqual(t, len(resolved), 1)
	method := resolved[0].(map[string]any)
	symbolID, ok := method["SymbolID"].(string)
	require.True(t, ok, "resolved definition should carry a SymbolID")

	refResult := runQuery(t, bin, fixtureDir, "references", symbolID)
	refs, ok := refResult.([]any)
	require.True(t, ok, "references should print an array")
	assert.GreaterOrEqual(t, len(refs), 1, "onClick is called once")
}

func TestQuery_CallGraph(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin, fixtureDir, _ := indexFixture(t)

	result := runQuery(t, bin, fixtureDir, "call-graph")
	graph, ok := result.(map[string]any)
	require.True(t, ok, "call-graph should print a single object")

	nodes, ok := graph["Nodes"].([]any)
	require.True(t, ok)
	assert.GreaterOrEqual(t, len(nodes), 1)

	entryPoints, ok := graph["EntryPoints"].([]any)
	require.True(t, ok)
	assert.GreaterOrEqual(t, len(entryPoints), 1, "main is never called")
}

func TestQuery_CallGraph_FileFilter(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin, fixtureDir, _ := indexFixture(t)

	result := runQuery(t, bin, fixtureDir, "call-graph", "--file", "/does/not/exist.ts")
	graph := result.(map[string]any)
	nodes, _ := graph["Nodes"].([]any)
	assert.Empty(t, nodes)
}

func TestQuery_Source(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin, fixtureDir, _ := indexFixture(t)

	defResult := runQuery(t, bin, fixtureDir, "definition", "handler.ts", "7", "16")
	defs := defResult.([]any)
	first := defs[0].(map[string]any)
	symbolID := first["SymbolID"].(string)

	result := runQuery(t, bin, fixtureDir, "source", symbolID)
	ctx, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, ctx["Source"], "Handler")
}

func TestQuery_Source_UnknownSymbol(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin, fixtureDir, _ := indexFixture(t)

	cmd := exec.Command(bin, "query", "source", "class:/nope.ts:0:0:0:0:Missing")
	cmd.Dir = fixtureDir
	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf
	err := cmd.Run()
	require.Error(t, err)
	assert.Contains(t, stderrBuf.String(), "unknown symbol")
}

func TestQuery_FormatText_ScopeGraph(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin, fixtureDir, _ := indexFixture(t)

	stdout, _ := runQueryRaw(t, bin, fixtureDir, "--format", "text", "scope-graph", "handler.ts")
	assert.False(t, strings.HasPrefix(strings.TrimSpace(stdout), "{"), "text format should not be JSON")
	assert.Contains(t, stdout, "KIND")
	assert.Contains(t, stdout, "Handler")
}

func TestQuery_FormatJSON_IsValidJSON(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin, fixtureDir, _ := indexFixture(t)

	stdout, _ := runQueryRaw(t, bin, fixtureDir, "--format", "json", "scope-graph", "handler.ts")
	var v any
	require.NoError(t, json.Unmarshal([]byte(stdout), &v))
}

func TestQuery_FormatText_ErrorGoesToStderr(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createTSFixture(t)
	// No index run, so the database doesn't exist yet.

	stdout, stderr := runQueryRaw(t, bin, fixture, "--format", "text", "scope-graph", "handler.ts")
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Error:")
}

func TestQuery_InvalidFormatFlag(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createTSFixture(t)

	cmd := exec.Command(bin, "--format", "xml", "query", "scope-graph", "handler.ts")
	cmd.Dir = fixture
	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf
	err := cmd.Run()
	require.Error(t, err)
	assert.Contains(t, stderrBuf.String(), "invalid")
}

func TestQuery_NoDatabase(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	fixture := createTSFixture(t)

	cmd := exec.Command(bin, "query", "scope-graph", "handler.ts")
	cmd.Dir = fixture
	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf
	err := cmd.Run()
	require.Error(t, err)
	assert.Contains(t, stderrBuf.String(), "database not found")
}

func TestQuery_DefinitionMissingArgs(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin, fixtureDir, _ := indexFixture(t)

	cmd := exec.Command(bin, "query", "definition", "handler.ts")
	cmd.Dir = fixtureDir
	err := cmd.Run()
	require.Error(t, err, "cobra enforces ExactArgs(3)")
}
