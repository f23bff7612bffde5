// Package indexing implements the ScopeIndexer (spec.md §4.1): given a
// parsed syntax tree and a language query set, it produces a complete
// in-memory ScopeGraph for one file — nested scopes, the definitions and
// references each one holds, and its unresolved imports.
package indexing

// Range is a half-open [Start, End) source range in 0-based line/column
// coordinates, matching tree-sitter's convention used throughout the
// pipeline.
type Range struct {
	StartLine, StartCol int
	EndLine, EndCol     int
}

// Contains reports whether r fully contains other.
func (r Range) Contains(other Range) bool {
	if r.StartLine > other.StartLine || (r.StartLine == other.StartLine && r.StartCol > other.StartCol) {
		return false
	}
	if r.EndLine < other.EndLine || (r.EndLine == other.EndLine && r.EndCol < other.EndCol) {
		return false
	}
	return true
}

// size returns a rough ordering key (line span then column span) used to
// pick the smallest (innermost) containing scope.
func (r Range) size() (int, int) {
	return r.EndLine - r.StartLine, r.EndCol - r.StartCol
}

// Def is a definition discovered during indexing, not yet assigned a
// database scope id.
type Def struct {
	Name       string
	Kind       string
	Visibility string
	Range      Range
	Enclosing  Range // zero value means "same as Range"
	Exported   bool
	IsTest     bool
	Docstring  string
	Decorators []Decorator
	Params     []Param
	TypeParams []string

	ParentDef *Def // enclosing class/namespace definition, if any

	// Scope is excluded from JSON: it points back up the tree, which
	// forward-serializes through Scope.Defs already and would otherwise
	// recurse forever (Scope.Defs -> Def.Scope -> Scope.Defs -> ...).
	Scope *Scope `json:"-"`
}

// Param is a function/method parameter captured during indexing.
type Param struct {
	Name       string
	Ordinal    int
	TypeExpr   string
	IsReceiver bool
	IsReturn   bool
}

// Decorator is a decorator/annotation attached to a Def.
type Decorator struct {
	Name      string
	Arguments string
}

// Ref is a reference discovered during indexing.
type Ref struct {
	Name  string
	Kind  string // read, write, type, call, method-call, constructor-call, namespace-member, callback-arg, jsx_component, ...
	Range Range
	Scope *Scope `json:"-"` // see Def.Scope: excluded to avoid the back-edge JSON cycle
}

// CollectionEntry records a function value stored into an object literal
// assigned to a variable (spec.md §4.4, "collection of handlers").
type CollectionEntry struct {
	CollectionName string
	FunctionName   string
	Range          Range
}

// CollectionMerge records a spread-merge of one object-literal variable
// into another, e.g. `EXTENDED = { ...BASE, extended: f }` (spec.md §4.4,
// "spread-merged collection").
type CollectionMerge struct {
	DestName string
	SrcName  string
	Range    Range
}

// Import is an unresolved import discovered during indexing.
type Import struct {
	LocalName    string
	SourceName   string
	SourceModule string
	Kind         string // named, default, namespace, re-export
	Range        Range
}

// Scope is one lexical scope node in the ScopeGraph.
type Scope struct {
	Kind     string // file, function, class-body, for, catch (other block scopes are labelled function)
	Range    Range
	Parent   *Scope `json:"-"` // excluded: Children already serializes the tree forward
	Children []*Scope

	Defs []*Def
	Refs []*Ref
}

// ScopeGraph is the complete per-file output of the ScopeIndexer.
type ScopeGraph struct {
	Path    string
	Root    *Scope
	Defs    []*Def
	Refs    []*Ref
	Imports []Import

	// CollectionEntries and CollectionMerges feed TypeTracker seeding
	// (spec.md §4.4); they are not Refs since nothing resolves them
	// directly.
	CollectionEntries []CollectionEntry
	CollectionMerges  []CollectionMerge
}

// Walk calls fn for the root scope and every descendant, pre-order.
func (g *ScopeGraph) Walk(fn func(*Scope)) {
	var visit func(*Scope)
	visit = func(s *Scope) {
		fn(s)
		for _, c := range s.Children {
			visit(c)
		}
	}
	visit(g.Root)
}

// Lookup implements spec.md §4.1's intra-file lookup rule: starting at
// scope, walk outward (current -> enclosing -> file) looking for a
// visible definition named `name`. Hoisted definitions (function, class,
// interface, enum, type_alias and namespace kinds) are visible throughout
// their scope; others only when they start at or before (atLine, atCol) —
// callers resolving a reference always pass the reference's own position.
func Lookup(scope *Scope, name string, atLine, atCol int) *Def {
	for s := scope; s != nil; s = s.Parent {
		var best *Def
		for _, d := range s.Defs {
			if d.Name != name {
				continue
			}
			if !isHoisted(d.Kind) && !startsBefore(d.Range, atLine, atCol) {
				continue
			}
			// Last matching definition in source order wins (shadowing
			// within the same scope, e.g. reassigned `let`).
			best = d
		}
		if best != nil {
			return best
		}
	}
	return nil
}

func startsBefore(r Range, line, col int) bool {
	if r.StartLine != line {
		return r.StartLine < line
	}
	return r.StartCol <= col
}

func isHoisted(kind string) bool {
	switch kind {
	case "function", "class", "interface", "enum", "type_alias", "namespace":
		return true
	default:
		return false
	}
}
