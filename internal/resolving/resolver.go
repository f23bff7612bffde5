// Package resolving implements the cross-file Resolver (spec.md §4.3): for
// every Reference in a project, compute zero or more candidate
// Definitions, consulting the ModuleResolver for import-following and the
// TypeTracker for method/constructor/factory binding.
package resolving

import (
	"sort"

	"github.com/CRJFisher/ariadne-sub020/internal/indexing"
	"github.com/CRJFisher/ariadne-sub020/internal/modpath"
	"github.com/CRJFisher/ariadne-sub020/internal/store"
	"github.com/CRJFisher/ariadne-sub020/internal/typetrack"
)

// DefaultPolymorphicExpansionLimit bounds the number of candidates §4.3
// step 4's polymorphic fan-out may return when a receiver's type is
// unknown.
const DefaultPolymorphicExpansionLimit = 64

// Candidate is one resolved target for a Reference, with the confidence
// tag spec.md §3.2 defines.
type Candidate struct {
	Definition *store.Definition
	Confidence string
}

// ProjectIndex is the read-only view over every indexed file's
// ScopeGraph and exported-definition table that the Resolver needs. The
// caller (the root ariadne package) owns populating it from the store.
type ProjectIndex struct {
	// Graphs maps file path -> that file's ScopeGraph.
	Graphs map[string]*indexing.ScopeGraph
	// DefsByFile maps file path -> every Definition declared in that file.
	DefsByFile map[string][]*store.Definition
	// ReexportsByFile maps file path -> its barrel re-export table
	// (exported name -> original Definition, resolved in another file).
	ReexportsByFile map[string]map[string]*store.Definition
	// ClassMembers maps a class SymbolId -> its direct method/property
	// Definitions, for inheritance-chain search (step 4).
	ClassMembers map[string][]*store.Definition
	// Supertypes maps a class SymbolId -> its immediate supertypes'
	// SymbolIds, in declaration order (extends/implements, depth-first
	// left-to-right per §4.3).
	Supertypes map[string][]string
	// AllByName maps a definition name -> every Definition in the project
	// with that name, for polymorphic fan-out (step 4) and tie-breaking.
	AllByName map[string][]*store.Definition
}

// Resolver resolves references within one project snapshot.
type Resolver struct {
	idx                         *ProjectIndex
	modules                     *modpath.Resolver
	PolymorphicExpansionLimit   int
}

// NewResolver creates a Resolver over idx, resolving module paths rooted
// at projectRoot.
func NewResolver(idx *ProjectIndex, projectRoot string) *Resolver {
	return &Resolver{
		idx:                       idx,
		modules:                   modpath.NewResolver(projectRoot),
		PolymorphicExpansionLimit: DefaultPolymorphicExpansionLimit,
	}
}

// SetModuleStat overrides the filesystem existence check the underlying
// modpath.Resolver uses, letting tests substitute an in-memory project
// layout instead of touching disk.
func (r *Resolver) SetModuleStat(stat modpath.StatFunc) {
	r.modules.Stat = stat
}

// visitKey is a (file, name) pair used for cycle detection while walking
// import/re-export chains (spec.md §4.3 "Cycles").
type visitKey struct {
	file string
	name string
}

// Resolve computes the candidate set for one reference, given the file
// it occurs in, the language, and a file-scoped TypeTracker already
// populated for that file's preceding statements.
func (r *Resolver) Resolve(lang, filePath string, ref *indexing.Ref, tracker *typetrack.Tracker) []Candidate {
	switch ref.Kind {
	case "method-call":
		return r.resolveMethodCall(lang, filePath, ref, tracker)
	case "constructor-call":
		return r.resolveConstructorCall(lang, filePath, ref, tracker)
	case "namespace-member":
		return r.resolveNamespaceMember(lang, filePath, ref)
	default:
		return r.resolveSimpleName(lang, filePath, ref, make(map[visitKey]bool))
	}
}

// resolveSimpleName implements steps 1-2: intra-file scope lookup, then
// import-following if the name resolves locally to an Import.
func (r *Resolver) resolveSimpleName(lang, filePath string, ref *indexing.Ref, visited map[visitKey]bool) []Candidate {
	graph := r.idx.Graphs[filePath]
	if graph == nil {
		return nil
	}

	if def := indexing.Lookup(ref.Scope, ref.Name, ref.Range.StartLine, ref.Range.StartCol); def != nil {
		// Local definition shadows any import of the same name (§4.3
		// "Shadowing invariant").
		return []Candidate{{Definition: r.storeDefFor(filePath, def), Confidence: store.ConfidenceExact}}
	}

	imp := findImport(graph, ref.Name)
	if imp == nil {
		return nil
	}
	return r.followImport(lang, filePath, imp, visited)
}

// followImport walks an import to its exporting file (barrel/re-export
// chains included), returning the resolved definitions under the
// original (aliased-remapped) name. Cycle-safe via the visited set.
func (r *Resolver) followImport(lang, filePath string, imp *indexing.Import, visited map[visitKey]bool) []Candidate {
	lookupName := imp.LocalName
	if imp.SourceName != "" {
		lookupName = imp.SourceName
	}

	targetPath, ok := r.modules.Resolve(lang, filePath, imp.SourceModule)
	if !ok {
		return nil // external/unresolved import: kept with null target, no error
	}

	key := visitKey{file: targetPath, name: lookupName}
	if visited[key] {
		return nil // cycle: return what's already been collected by the caller
	}
	visited[key] = true

	if defs, ok := r.idx.DefsByFile[targetPath]; ok {
		for _, d := range defs {
			if d.Name == lookupName && d.Exported {
				return []Candidate{{Definition: d, Confidence: store.ConfidenceExact}}
			}
		}
	}

	if reexports, ok := r.idx.ReexportsByFile[targetPath]; ok {
		if def, ok := reexports[lookupName]; ok {
			return []Candidate{{Definition: def, Confidence: store.ConfidenceExact}}
		}
	}

	// Barrel file: lookupName might itself be an import in targetPath,
	// re-exported onward.
	if targetGraph, ok := r.idx.Graphs[targetPath]; ok {
		if nextImp := findImport(targetGraph, lookupName); nextImp != nil {
			return r.followImport(lang, targetPath, nextImp, visited)
		}
	}
	return nil
}

// resolveNamespaceMember implements step 3: `ns.member` where ns is a
// namespace import, consults the target module's exported-definition
// table under `member`.
func (r *Resolver) resolveNamespaceMember(lang, filePath string, ref *indexing.Ref) []Candidate {
	graph := r.idx.Graphs[filePath]
	if graph == nil {
		return nil
	}
	nsName, member := splitNamespaceMember(ref.Name)
	var nsImport *indexing.Import
	for _, imp := range graph.Imports {
		if imp.Kind == "namespace" && imp.LocalName == nsName {
			nsImport = &imp
			break
		}
	}
	if nsImport == nil {
		return nil
	}
	targetPath, ok := r.modules.Resolve(lang, filePath, nsImport.SourceModule)
	if !ok {
		return nil
	}
	var out []Candidate
	for _, d := range r.idx.DefsByFile[targetPath] {
		if d.Name == member && d.Exported {
			out = append(out, Candidate{Definition: d, Confidence: store.ConfidenceExact})
		}
	}
	return out
}

// resolveMethodCall implements step 4: if the receiver's type is known
// (via TypeTracker), search the class and its inheritance chain
// depth-first left-to-right; otherwise fan out to every class in the
// project defining a method of that name, capped at
// PolymorphicExpansionLimit.
func (r *Resolver) resolveMethodCall(lang, filePath string, ref *indexing.Ref, tracker *typetrack.Tracker) []Candidate {
	receiver, method := splitNamespaceMember(ref.Name)
	if classID, ok := tracker.Lookup(receiver); ok {
		if def := r.searchInheritanceChain(classID, method, make(map[string]bool)); def != nil {
			return []Candidate{{Definition: def, Confidence: store.ConfidenceExact}}
		}
		return nil
	}
	return r.polymorphicFanOut(method)
}

func (r *Resolver) searchInheritanceChain(classID, method string, visited map[string]bool) *store.Definition {
	if visited[classID] {
		return nil
	}
	visited[classID] = true

	for _, m := range r.idx.ClassMembers[classID] {
		if m.Name == method {
			return m
		}
	}
	for _, super := range r.idx.Supertypes[classID] {
		if def := r.searchInheritanceChain(super, method, visited); def != nil {
			return def
		}
	}
	return nil
}

func (r *Resolver) polymorphicFanOut(method string) []Candidate {
	candidates := r.idx.AllByName[method]
	out := make([]Candidate, 0, len(candidates))
	for i, d := range candidates {
		if i >= r.PolymorphicExpansionLimit {
			break
		}
		if d.Kind != "method" {
			continue
		}
		out = append(out, Candidate{Definition: d, Confidence: store.ConfidenceAmbiguous})
	}
	return TieBreak(out, 0)
}

// resolveConstructorCall implements step 5: `new X(...)` resolves X as a
// class; the target is its constructor. Binding is recorded by the
// caller via tracker.BindConstructor once the receiving variable name is
// known (the Resolver itself only returns the candidate).
func (r *Resolver) resolveConstructorCall(lang, filePath string, ref *indexing.Ref, tracker *typetrack.Tracker) []Candidate {
	for _, d := range r.idx.AllByName[ref.Name] {
		if d.Kind != "class" {
			continue
		}
		for _, ctor := range r.idx.ClassMembers[d.SymbolID] {
			if ctor.Kind == "constructor" {
				return []Candidate{{Definition: ctor, Confidence: store.ConfidenceExact}}
			}
		}
		// No explicit constructor: the class definition itself stands in
		// for its implicit default constructor.
		return []Candidate{{Definition: d, Confidence: store.ConfidenceExact}}
	}
	return nil
}

func (r *Resolver) storeDefFor(filePath string, d *indexing.Def) *store.Definition {
	for _, sd := range r.idx.DefsByFile[filePath] {
		if sd.Name == d.Name && sd.StartLine == d.Range.StartLine && sd.StartCol == d.Range.StartCol {
			return sd
		}
	}
	return nil
}

func findImport(graph *indexing.ScopeGraph, name string) *indexing.Import {
	for i := range graph.Imports {
		if graph.Imports[i].LocalName == name {
			return &graph.Imports[i]
		}
	}
	return nil
}

func splitNamespaceMember(name string) (receiver, member string) {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[:i], name[i+1:]
		}
	}
	return "", name
}

// TieBreak orders candidates per spec.md §4.3: same-file > alphabetical by
// SymbolId. preferFileID is the FileID of the reference's own file (0 when
// the caller has no same-file preference to apply, e.g. polymorphic
// fan-out, where "same file" isn't a meaningful tie-breaker). The
// exact-name-in-inferred-type and same-package tiers collapse to this
// same-file check at this layer: a known inferred type already short-
// circuits to a single exact candidate before TieBreak is ever called
// (see resolveMethodCall), and source layout maps one file to one package
// throughout the supported languages.
func TieBreak(candidates []Candidate, preferFileID int64) []Candidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i].Definition, candidates[j].Definition
		if preferFileID != 0 {
			ai := a.FileID == preferFileID
			bi := b.FileID == preferFileID
			if ai != bi {
				return ai
			}
		}
		return a.SymbolID < b.SymbolID
	})
	return candidates
}
