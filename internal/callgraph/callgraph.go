// Package callgraph builds the project-wide CallGraph (spec.md §4.5) from
// resolved call edges: one CallableNode per function/method/constructor
// Definition, a reverse caller index, and deterministic entry-point
// detection.
package callgraph

import (
	"sort"

	"github.com/CRJFisher/ariadne-sub020/internal/store"
)

// callableKinds are the Definition kinds eligible for their own
// CallableNode (spec.md §4.5 step 1).
var callableKinds = map[string]bool{
	"function":    true,
	"method":      true,
	"constructor": true,
}

// callableCallTypes are the CallEdge.CallType values the graph tracks
// (spec.md §4.5 step 1's filter).
var callableCallTypes = map[string]bool{
	"function":             true,
	"method":                true,
	"constructor":           true,
	"callback-invocation":   true,
}

// CallableNode is one function/method/constructor in the graph.
type CallableNode struct {
	Definition *store.Definition
	FilePath   string

	// Callers is the reverse index: SymbolIds of every Definition with a
	// resolved CallEdge into this node (spec.md §4.5 step 2).
	Callers map[string]bool

	// Outgoing is this node's own resolved call edges.
	Outgoing []*store.CallEdge
}

// EntryPointFilter applies a language-specific exclusion (spec.md §4.5
// step 3's "language-specific filters", e.g. Python's
// `if __name__ == "__main__"` guard). It returns false to exclude def
// from entry-point status despite having no callers.
type EntryPointFilter func(def *store.Definition) bool

// Builder assembles a CallGraph from the project's Definitions, resolved
// CallEdges, and indirect-reachability table.
type Builder struct {
	// FilePaths maps a Definition's FileID to its source path, used only
	// for the deterministic entry-point ordering (spec.md §4.5 step 4).
	FilePaths map[int64]string
	// IndirectlyReachable holds the DefinitionIDs that IndirectReachability
	// marks consumed (store.Store.IndirectlyReachableDefinitionIDs):
	// these are excluded from entry-point status even with zero callers.
	IndirectlyReachable map[int64]bool
	// Filters run, in order, over every zero-caller, not-indirectly-
	// reachable candidate; any filter returning false excludes it.
	Filters []EntryPointFilter
}

// NewBuilder creates a Builder. filePaths and indirectlyReachable may be
// nil, treated as empty.
func NewBuilder(filePaths map[int64]string, indirectlyReachable map[int64]bool) *Builder {
	if filePaths == nil {
		filePaths = map[int64]string{}
	}
	if indirectlyReachable == nil {
		indirectlyReachable = map[int64]bool{}
	}
	return &Builder{FilePaths: filePaths, IndirectlyReachable: indirectlyReachable}
}

// CallGraph is the complete single-pass output of a Build (spec.md §4.5).
type CallGraph struct {
	Nodes map[string]*CallableNode // keyed by Definition.SymbolID
}

// Build implements spec.md §4.5 steps 1-2: one CallableNode per eligible
// Definition, with outgoing edges attached and the reverse caller index
// populated from resolved edges. An edge repeating an earlier edge's
// caller, callee, position and call type is dropped, so duplicate
// captures of one call site yield a single edge.
func (b *Builder) Build(defs []*store.Definition, edges []*store.CallEdge) *CallGraph {
	nodesByDefID := make(map[int64]*CallableNode, len(defs))
	g := &CallGraph{Nodes: make(map[string]*CallableNode, len(defs))}

	for _, d := range defs {
		if !callableKinds[d.Kind] {
			continue
		}
		n := &CallableNode{
			Definition: d,
			FilePath:   b.FilePaths[d.FileID],
			Callers:    make(map[string]bool),
		}
		nodesByDefID[d.ID] = n
		g.Nodes[d.SymbolID] = n
	}

	type edgeKey struct {
		caller, callee, file int64
		line, col            int
		callType             string
	}
	seen := make(map[edgeKey]bool, len(edges))
	for _, e := range edges {
		if !callableCallTypes[e.CallType] {
			continue
		}
		k := edgeKey{e.CallerDefinitionID, e.CalleeDefinitionID, e.FileID, e.Line, e.Col, e.CallType}
		if seen[k] {
			continue
		}
		seen[k] = true
		// Unresolved references never reach here (the Resolver only emits
		// a CallEdge once a target is bound), so an edge whose callee
		// isn't a tracked node means the callee wasn't a callable kind;
		// skip rather than panic.
		callee, ok := nodesByDefID[e.CalleeDefinitionID]
		if !ok {
			continue
		}
		caller, ok := nodesByDefID[e.CallerDefinitionID]
		if !ok {
			continue
		}
		caller.Outgoing = append(caller.Outgoing, e)
		callee.Callers[caller.Definition.SymbolID] = true
	}

	return g
}

// EntryPoints implements spec.md §4.5 steps 3-4: every node with no
// callers, not indirectly reachable, and passing every filter, ordered
// deterministically by (file path, line).
func (g *CallGraph) EntryPoints(b *Builder) []*CallableNode {
	var out []*CallableNode
	for _, n := range g.Nodes {
		if len(n.Callers) > 0 {
			continue
		}
		if b.IndirectlyReachable[n.Definition.ID] {
			continue
		}
		if !passesFilters(n.Definition, b.Filters) {
			continue
		}
		out = append(out, n)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].FilePath != out[j].FilePath {
			return out[i].FilePath < out[j].FilePath
		}
		if out[i].Definition.StartLine != out[j].Definition.StartLine {
			return out[i].Definition.StartLine < out[j].Definition.StartLine
		}
		return out[i].Definition.SymbolID < out[j].Definition.SymbolID
	})
	return out
}

func passesFilters(def *store.Definition, filters []EntryPointFilter) bool {
	for _, f := range filters {
		if !f(def) {
			return false
		}
	}
	return true
}

// PythonMainGuardFilter is the Python entry-point filter: a
// `if __name__ == "__main__":` block is indexed as plain top-level
// statements with no enclosing Definition, so a function called only from
// inside that guard already has a resolved caller edge and needs no extra
// exclusion here. Kept for API symmetry with other languages' filters.
func PythonMainGuardFilter(def *store.Definition) bool {
	return true
}
