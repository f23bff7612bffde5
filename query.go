package ariadne

import (
	"bufio"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/CRJFisher/ariadne-sub020/internal/callgraph"
	"github.com/CRJFisher/ariadne-sub020/internal/indexing"
	"github.com/CRJFisher/ariadne-sub020/internal/store"
)

// Location is a source range in one file (spec.md §6).
type Location struct {
	File      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// GetScopeGraph returns the file's in-memory ScopeGraph, re-parsing from
// disk if it has been evicted from the cache. Returns nil with no error
// if the file was never indexed.
func (p *Project) GetScopeGraph(path string) (*indexing.ScopeGraph, error) {
	f, err := p.store.FileByPath(path)
	if err != nil {
		return nil, fmt.Errorf("get scope graph: lookup file: %w", err)
	}
	if f == nil {
		return nil, nil
	}
	graph, err := p.graphFor(f)
	if err != nil {
		return nil, fmt.Errorf("get scope graph: %w", err)
	}
	return graph, nil
}

// ReferenceLocation is one use site of a resolved Definition, returned by
// FindReferences (spec.md §6).
type ReferenceLocation struct {
	File       string
	Location   Location
	Confidence string
}

// FindReferences returns every reference resolved to symbolID, across
// every indexed file.
func (p *Project) FindReferences(symbolID string) ([]ReferenceLocation, error) {
	def, err := p.store.DefinitionBySymbolID(symbolID)
	if err != nil {
		return nil, fmt.Errorf("find references: lookup definition: %w", err)
	}
	if def == nil {
		return nil, nil
	}

	resolutions, err := p.store.ResolutionsByTarget(def.ID)
	if err != nil {
		return nil, fmt.Errorf("find references: lookup resolutions: %w", err)
	}

	fileCache := make(map[int64]*store.File)
	var out []ReferenceLocation
	for _, res := range resolutions {
		ref, err := p.referenceByID(res.ReferenceID)
		if err != nil {
			return nil, fmt.Errorf("find references: lookup reference: %w", err)
		}
		if ref == nil {
			continue
		}
		f, ok := fileCache[ref.FileID]
		if !ok {
			f, err = p.store.FileByID(ref.FileID)
			if err != nil {
				return nil, fmt.Errorf("find references: lookup file: %w", err)
			}
			fileCache[ref.FileID] = f
		}
		if f == nil {
			continue
		}
		out = append(out, ReferenceLocation{
			File: f.Path,
			Location: Location{
				File: f.Path, StartLine: ref.StartLine, StartCol: ref.StartCol,
				EndLine: ref.EndLine, EndCol: ref.EndCol,
			},
			Confidence: res.Confidence,
		})
	}
	return out, nil
}

func (p *Project) referenceByID(id int64) (*store.Reference, error) {
	row := p.store.DB().QueryRow(
		`SELECT id, reference_id, file_id, scope_id, name, kind, start_line, start_col, end_line, end_col
		 FROM references_tbl WHERE id = ?`, id)
	r := &store.Reference{}
	if err := row.Scan(&r.ID, &r.ReferenceID, &r.FileID, &r.ScopeID, &r.Name, &r.Kind,
		&r.StartLine, &r.StartCol, &r.EndLine, &r.EndCol); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return r, nil
}

// readLines returns the (inclusive, 0-based) line range [startLine,
// endLine] of path, joined with newlines.
func readLines(path string, startLine, endLine int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		if line >= startLine && line <= endLine {
			out = append(out, scanner.Text())
		}
		if line > endLine {
			break
		}
		line++
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return strings.Join(out, "\n"), nil
}

// GoToDefinition finds the reference at (row, col) in path and returns
// every Definition it resolves to (more than one means an unresolved
// ambiguity, per spec.md §3.2).
func (p *Project) GoToDefinition(path string, row, col int) ([]*store.Definition, error) {
	f, err := p.store.FileByPath(path)
	if err != nil {
		return nil, fmt.Errorf("go to definition: lookup file: %w", err)
	}
	if f == nil {
		return nil, nil
	}

	ref, err := p.store.ReferenceAt(f.ID, row, col)
	if err != nil {
		return nil, fmt.Errorf("go to definition: lookup reference: %w", err)
	}
	if ref == nil {
		return nil, nil
	}

	resolutions, err := p.store.ResolutionsByReference(ref.ID)
	if err != nil {
		return nil, fmt.Errorf("go to definition: lookup resolutions: %w", err)
	}

	var out []*store.Definition
	for _, res := range resolutions {
		def, err := p.store.DefinitionByID(res.DefinitionID)
		if err != nil {
			return nil, fmt.Errorf("go to definition: lookup definition: %w", err)
		}
		if def != nil {
			out = append(out, def)
		}
	}
	return out, nil
}

// CallGraphOptions narrows GetCallGraph's output (spec.md §6).
type CallGraphOptions struct {
	// IncludeExternal has no effect: CallGraph nodes are only ever
	// resolved, in-project Definitions, so there is never an external
	// node to include or exclude. Kept for interface parity with §6.
	IncludeExternal bool
	MaxDepth        int // 0 means unbounded
	FileFilter      string
}

// CallGraphNode is one node of the serialized CallGraph (spec.md §6's
// canonical `{symbol_id, definition, calls, callers}` shape).
type CallGraphNode struct {
	SymbolID   string
	Definition *store.Definition
	Calls      []string
	Callers    []string
}

// SerializedCallGraph is the externally observable CallGraph shape (spec.md
// §6): `{nodes: [...], entry_points: [...]}`.
type SerializedCallGraph struct {
	Nodes       []CallGraphNode
	EntryPoints []string
}

// GetCallGraph rebuilds the project's CallGraph and serializes it to the
// canonical external shape, applying the optional file_filter and
// max_depth narrowing.
func (p *Project) GetCallGraph(opts *CallGraphOptions) (*SerializedCallGraph, error) {
	var filters []callgraph.EntryPointFilter
	graph, entryPoints, err := p.CallGraph(filters...)
	if err != nil {
		return nil, fmt.Errorf("get call graph: %w", err)
	}

	out := &SerializedCallGraph{}
	for _, ep := range entryPoints {
		out.EntryPoints = append(out.EntryPoints, ep.Definition.SymbolID)
	}

	included := graph.Nodes
	if opts != nil && opts.FileFilter != "" {
		included = make(map[string]*callgraph.CallableNode)
		for id, n := range graph.Nodes {
			if n.FilePath == opts.FileFilter {
				included[id] = n
			}
		}
	}

	maxDepth := 0
	if opts != nil {
		maxDepth = opts.MaxDepth
	}
	if maxDepth > 0 {
		included = trimToDepth(graph, included, entryPoints, maxDepth)
	}

	for id, n := range included {
		node := CallGraphNode{SymbolID: id, Definition: n.Definition}
		for _, e := range n.Outgoing {
			if callee, ok := findCalleeSymbolID(graph, e.CalleeDefinitionID); ok {
				node.Calls = append(node.Calls, callee)
			}
		}
		for caller := range n.Callers {
			node.Callers = append(node.Callers, caller)
		}
		out.Nodes = append(out.Nodes, node)
	}
	return out, nil
}

func findCalleeSymbolID(graph *callgraph.CallGraph, defID int64) (string, bool) {
	for id, n := range graph.Nodes {
		if n.Definition.ID == defID {
			return id, true
		}
	}
	return "", false
}

// trimToDepth restricts included to nodes reachable from the entry points
// within maxDepth call-graph hops (spec.md §6's `max_depth` option).
func trimToDepth(graph *callgraph.CallGraph, included map[string]*callgraph.CallableNode, entryPoints []*callgraph.CallableNode, maxDepth int) map[string]*callgraph.CallableNode {
	depth := make(map[string]int)
	queue := make([]string, 0, len(entryPoints))
	for _, ep := range entryPoints {
		depth[ep.Definition.SymbolID] = 0
		queue = append(queue, ep.Definition.SymbolID)
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n, ok := graph.Nodes[id]
		if !ok || depth[id] >= maxDepth {
			continue
		}
		for _, e := range n.Outgoing {
			calleeID, ok := findCalleeSymbolID(graph, e.CalleeDefinitionID)
			if !ok {
				continue
			}
			if _, seen := depth[calleeID]; !seen {
				depth[calleeID] = depth[id] + 1
				queue = append(queue, calleeID)
			}
		}
	}

	out := make(map[string]*callgraph.CallableNode, len(depth))
	for id := range depth {
		if n, ok := included[id]; ok {
			out[id] = n
		}
	}
	return out
}

// SourceWithContext is get_source_with_context's result (spec.md §6).
type SourceWithContext struct {
	Source     string
	Docstring  string
	Decorators []*store.Decorator
}

// GetSourceWithContext reads the definition's enclosing source text
// straight from disk (the store never retains file content, spec.md §3.3
// "the only durable record is the ScopeGraph... source text is read back
// from disk on demand").
func (p *Project) GetSourceWithContext(def *store.Definition) (*SourceWithContext, error) {
	f, err := p.store.FileByID(def.FileID)
	if err != nil {
		return nil, fmt.Errorf("get source with context: lookup file: %w", err)
	}
	if f == nil {
		return nil, nil
	}

	startLine, endLine := def.StartLine, def.EndLine
	if def.HasEnclosingRange() {
		startLine, endLine = def.EncStartLine, def.EncEndLine
	}
	source, err := readLines(f.Path, startLine, endLine)
	if err != nil {
		return nil, fmt.Errorf("get source with context: read source: %w", err)
	}

	decorators, err := p.store.DecoratorsByDefinition(def.ID)
	if err != nil {
		return nil, fmt.Errorf("get source with context: lookup decorators: %w", err)
	}

	return &SourceWithContext{Source: source, Docstring: def.Docstring, Decorators: decorators}, nil
}
