// Package typetrack implements the file-local TypeTracker (spec.md §4.4):
// a bounded, single-file mapping from variable names to the class
// Definitions they were constructed from or copied from, plus the
// indirect-reachability bookkeeping (collection membership, callback
// passing) consumed by the CallGraphBuilder's entry-point detection
// (spec.md §4.5). Bindings never cross file boundaries.
package typetrack

import "sort"

// Binding records that a variable was bound to an instance of a class,
// either directly (constructor/factory call) or by copying another
// variable's binding (one assignment hop).
type Binding struct {
	VariableName   string
	ClassSymbolID  string
	FactoryHop     bool // true if bound via a single factory-function return
}

// CollectionEntry records that a function value was stored into a
// collection (object/array/map literal, including spread-merges).
type CollectionEntry struct {
	CollectionName   string
	FunctionSymbolID string
}

// CallbackPass records that a named function was passed as a bare value
// (no call parentheses) at a call site.
type CallbackPass struct {
	FunctionSymbolID string
	CallSiteLine     int
	CallSiteCol      int
}

// CollectionReachability records one function made indirectly reachable by
// being stored in a collection that was later consumed (spec.md §4.4
// scenarios "collection of handlers" and "spread-merged collection").
type CollectionReachability struct {
	CollectionName   string
	FunctionSymbolID string
}

// Tracker accumulates bindings for exactly one file. Construct one per file
// being resolved; discard it once resolution of that file is done.
type Tracker struct {
	bindings      map[string]*Binding
	collections   map[string][]string // collection name -> function SymbolIds stored in it
	consumed      map[string]bool     // collection names observed being read/iterated/passed-on
	callbackPasses []CallbackPass
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		bindings:    make(map[string]*Binding),
		collections: make(map[string][]string),
		consumed:    make(map[string]bool),
	}
}

// BindConstructor records `variable = new ClassSymbolID(...)` or an
// equivalent constructor/typed-parameter declaration.
func (t *Tracker) BindConstructor(variable, classSymbolID string) {
	t.bindings[variable] = &Binding{VariableName: variable, ClassSymbolID: classSymbolID}
}

// BindFactory records a single-hop factory-return binding: `variable =
// factory()` where factory is known (by the Resolver, from a prior pass)
// to return instances of classSymbolID. FactoryHop marks it so a second
// hop through another factory call is not chased (§4.4: "a single
// assignment chain").
func (t *Tracker) BindFactory(variable, classSymbolID string) {
	t.bindings[variable] = &Binding{VariableName: variable, ClassSymbolID: classSymbolID, FactoryHop: true}
}

// Propagate records `dst = src`, copying src's binding to dst if src has
// one. A no-op if src has no known binding.
func (t *Tracker) Propagate(dst, src string) {
	if b, ok := t.bindings[src]; ok {
		copied := *b
		copied.VariableName = dst
		t.bindings[dst] = &copied
	}
}

// Lookup returns the class SymbolId bound to variable, if any.
func (t *Tracker) Lookup(variable string) (string, bool) {
	b, ok := t.bindings[variable]
	if !ok {
		return "", false
	}
	return b.ClassSymbolID, true
}

// StoreInCollection records that functionSymbolID was assigned into
// collection (an object/array/map literal, including as part of a
// spread-merge of another collection already tracked here).
func (t *Tracker) StoreInCollection(collection, functionSymbolID string) {
	t.collections[collection] = append(t.collections[collection], functionSymbolID)
}

// MergeCollections records a spread-merge: every function stored in src is
// now also considered stored in dst (`{...src, ...}` style literals).
func (t *Tracker) MergeCollections(dst, src string) {
	t.collections[dst] = append(t.collections[dst], t.collections[src]...)
}

// MarkConsumed records that collection was read, iterated, or passed as an
// argument that is itself read — the trigger condition in §4.4 that makes
// every function stored in it indirectly reachable.
func (t *Tracker) MarkConsumed(collection string) {
	t.consumed[collection] = true
}

// PassCallback records that functionSymbolID was passed as a bare value
// (no call parentheses) at the given call site.
func (t *Tracker) PassCallback(functionSymbolID string, line, col int) {
	t.callbackPasses = append(t.callbackPasses, CallbackPass{
		FunctionSymbolID: functionSymbolID,
		CallSiteLine:     line,
		CallSiteCol:      col,
	})
}

// IndirectlyReachable returns the SymbolIds of every function made
// reachable without a direct call edge: functions in a consumed
// collection, plus every function passed as a callback value.
func (t *Tracker) IndirectlyReachable() []string {
	seen := make(map[string]bool)
	var out []string
	for collection, fns := range t.collections {
		if !t.consumed[collection] {
			continue
		}
		for _, fn := range fns {
			if !seen[fn] {
				seen[fn] = true
				out = append(out, fn)
			}
		}
	}
	for _, cp := range t.callbackPasses {
		if !seen[cp.FunctionSymbolID] {
			seen[cp.FunctionSymbolID] = true
			out = append(out, cp.FunctionSymbolID)
		}
	}
	return out
}

// ConsumedCollections returns one CollectionReachability per function
// stored in a collection that has been marked consumed, in a stable order
// (collection name, then insertion order within it) so repeated resolution
// of the same file produces the same IndirectReachability rows.
func (t *Tracker) ConsumedCollections() []CollectionReachability {
	names := make([]string, 0, len(t.collections))
	for name := range t.collections {
		if t.consumed[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var out []CollectionReachability
	for _, name := range names {
		for _, fn := range t.collections[name] {
			out = append(out, CollectionReachability{CollectionName: name, FunctionSymbolID: fn})
		}
	}
	return out
}

// CallbackPasses returns every recorded callback-passing call site, for
// building IndirectReachability rows with call-site location (spec.md
// §4.4 "F is passed as a value at call site S").
func (t *Tracker) CallbackPasses() []CallbackPass {
	return t.callbackPasses
}
