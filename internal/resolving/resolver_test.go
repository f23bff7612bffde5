package resolving_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CRJFisher/ariadne-sub020/internal/indexing"
	"github.com/CRJFisher/ariadne-sub020/internal/resolving"
	"github.com/CRJFisher/ariadne-sub020/internal/store"
	"github.com/CRJFisher/ariadne-sub020/internal/typetrack"
)

func TestResolveSimpleNameSameFile(t *testing.T) {
	graph := &indexing.ScopeGraph{Path: "a.ts"}
	fileScope := &indexing.Scope{Kind: "file"}
	graph.Root = fileScope

	greetDef := &indexing.Def{Name: "greet", Kind: "function", Scope: fileScope, Range: indexing.Range{StartLine: 1, StartCol: 0}}
	fileScope.Defs = append(fileScope.Defs, greetDef)

	ref := &indexing.Ref{Name: "greet", Kind: "call", Scope: fileScope, Range: indexing.Range{StartLine: 5, StartCol: 0}}

	storeDef := &store.Definition{SymbolID: "function:a.ts:1:0:1:0:greet", Name: "greet", Kind: "function", StartLine: 1, StartCol: 0}

	idx := &resolving.ProjectIndex{
		Graphs:     map[string]*indexing.ScopeGraph{"a.ts": graph},
		DefsByFile: map[string][]*store.Definition{"a.ts": {storeDef}},
		AllByName:  map[string][]*store.Definition{"greet": {storeDef}},
	}

	r := resolving.NewResolver(idx, "/proj")
	got := r.Resolve("typescript", "a.ts", ref, typetrack.NewTracker())
	require.Len(t, got, 1)
	assert.Equal(t, store.ConfidenceExact, got[0].Confidence)
	assert.Same(t, storeDef, got[0].Definition)
}

func TestResolveImportFollowing(t *testing.T) {
	consumerScope := &indexing.Scope{Kind: "file"}
	consumerGraph := &indexing.ScopeGraph{
		Path: "/proj/consumer.ts",
		Root: consumerScope,
		Imports: []indexing.Import{
			{LocalName: "helper", SourceModule: "./util", Kind: "named"},
		},
	}

	utilScope := &indexing.Scope{Kind: "file"}
	utilGraph := &indexing.ScopeGraph{Path: "/proj/util.ts", Root: utilScope}

	helperDef := &store.Definition{SymbolID: "function:util.ts:1:0:1:0:helper", Name: "helper", Kind: "function", Exported: true}

	ref := &indexing.Ref{Name: "helper", Kind: "call", Scope: consumerScope, Range: indexing.Range{StartLine: 3, StartCol: 0}}

	idx := &resolving.ProjectIndex{
		Graphs: map[string]*indexing.ScopeGraph{
			"/proj/consumer.ts": consumerGraph,
			"/proj/util.ts":     utilGraph,
		},
		DefsByFile: map[string][]*store.Definition{
			"/proj/util.ts": {helperDef},
		},
	}

	r := resolving.NewResolver(idx, "/proj")
	r.SetModuleStat(func(path string) bool { return path == "/proj/util.ts" })

	got := r.Resolve("typescript", "/proj/consumer.ts", ref, typetrack.NewTracker())
	require.Len(t, got, 1)
	assert.Same(t, helperDef, got[0].Definition)
}

func TestResolveMethodCallWithKnownReceiver(t *testing.T) {
	scope := &indexing.Scope{Kind: "file"}
	ref := &indexing.Ref{Name: "handler.onClick", Kind: "method-call", Scope: scope, Range: indexing.Range{StartLine: 10, StartCol: 0}}

	onClick := &store.Definition{SymbolID: "method:h.ts:2:2:2:10:onClick", Name: "onClick", Kind: "method"}

	idx := &resolving.ProjectIndex{
		Graphs:       map[string]*indexing.ScopeGraph{"h.ts": {Path: "h.ts", Root: scope}},
		ClassMembers: map[string][]*store.Definition{"class:h.ts:1:0:3:0:Handler": {onClick}},
	}

	tracker := typetrack.NewTracker()
	tracker.BindConstructor("handler", "class:h.ts:1:0:3:0:Handler")

	r := resolving.NewResolver(idx, "/proj")
	got := r.Resolve("typescript", "h.ts", ref, tracker)
	require.Len(t, got, 1)
	assert.Same(t, onClick, got[0].Definition)
	assert.Equal(t, store.ConfidenceExact, got[0].Confidence)
}

func TestResolveMethodCallInheritanceChain(t *testing.T) {
	scope := &indexing.Scope{Kind: "file"}
	ref := &indexing.Ref{Name: "handler.onClick", Kind: "method-call", Scope: scope}

	baseOnClick := &store.Definition{SymbolID: "method:base.ts:2:2:2:10:onClick", Name: "onClick", Kind: "method"}

	idx := &resolving.ProjectIndex{
		Graphs: map[string]*indexing.ScopeGraph{"h.ts": {Path: "h.ts", Root: scope}},
		ClassMembers: map[string][]*store.Definition{
			"class:h.ts:1:0:3:0:Handler": {},
			"class:base.ts:1:0:3:0:Base": {baseOnClick},
		},
		Supertypes: map[string][]string{
			"class:h.ts:1:0:3:0:Handler": {"class:base.ts:1:0:3:0:Base"},
		},
	}

	tracker := typetrack.NewTracker()
	tracker.BindConstructor("handler", "class:h.ts:1:0:3:0:Handler")

	r := resolving.NewResolver(idx, "/proj")
	got := r.Resolve("typescript", "h.ts", ref, tracker)
	require.Len(t, got, 1)
	assert.Same(t, baseOnClick, got[0].Definition)
}

func TestResolveMethodCallPolymorphicFanOutCapped(t *testing.T) {
	scope := &indexing.Scope{Kind: "file"}
	ref := &indexing.Ref{Name: "handler.onClick", Kind: "method-call", Scope: scope}

	var all []*store.Definition
	for i := 0; i < 10; i++ {
		all = append(all, &store.Definition{
			SymbolID: string(rune('a' + i)) + ":onClick",
			Name:     "onClick",
			Kind:     "method",
		})
	}

	idx := &resolving.ProjectIndex{
		Graphs:    map[string]*indexing.ScopeGraph{"h.ts": {Path: "h.ts", Root: scope}},
		AllByName: map[string][]*store.Definition{"onClick": all},
	}

	r := resolving.NewResolver(idx, "/proj")
	r.PolymorphicExpansionLimit = 3

	got := r.Resolve("typescript", "h.ts", ref, typetrack.NewTracker())
	assert.Len(t, got, 3)
	for _, c := range got {
		assert.Equal(t, store.ConfidenceAmbiguous, c.Confidence)
	}
}

func TestResolveConstructorCall(t *testing.T) {
	scope := &indexing.Scope{Kind: "file"}
	ref := &indexing.Ref{Name: "Handler", Kind: "constructor-call", Scope: scope}

	ctor := &store.Definition{SymbolID: "constructor:h.ts:2:2:2:20:constructor", Name: "constructor", Kind: "constructor"}
	class := &store.Definition{SymbolID: "class:h.ts:1:0:5:0:Handler", Name: "Handler", Kind: "class"}

	idx := &resolving.ProjectIndex{
		Graphs:       map[string]*indexing.ScopeGraph{"h.ts": {Path: "h.ts", Root: scope}},
		AllByName:    map[string][]*store.Definition{"Handler": {class}},
		ClassMembers: map[string][]*store.Definition{"class:h.ts:1:0:5:0:Handler": {ctor}},
	}

	r := resolving.NewResolver(idx, "/proj")
	got := r.Resolve("typescript", "h.ts", ref, typetrack.NewTracker())
	require.Len(t, got, 1)
	assert.Same(t, ctor, got[0].Definition)
}

func TestResolveUnresolvedReferenceReturnsNoCandidates(t *testing.T) {
	scope := &indexing.Scope{Kind: "file"}
	ref := &indexing.Ref{Name: "missing", Kind: "read", Scope: scope}

	idx := &resolving.ProjectIndex{
		Graphs: map[string]*indexing.ScopeGraph{"h.ts": {Path: "h.ts", Root: scope}},
	}

	r := resolving.NewResolver(idx, "/proj")
	got := r.Resolve("typescript", "h.ts", ref, typetrack.NewTracker())
	assert.Empty(t, got)
}

func TestTieBreakPrefersSameFile(t *testing.T) {
	a := &store.Definition{SymbolID: "b:sym", FileID: 2}
	b := &store.Definition{SymbolID: "a:sym", FileID: 1}

	out := resolving.TieBreak([]resolving.Candidate{{Definition: a}, {Definition: b}}, 1)
	require.Len(t, out, 2)
	assert.Same(t, b, out[0].Definition, "same-file candidate should sort first despite losing alphabetically")
}

func TestTieBreakAlphabeticalFallback(t *testing.T) {
	a := &store.Definition{SymbolID: "z:sym"}
	b := &store.Definition{SymbolID: "a:sym"}

	out := resolving.TieBreak([]resolving.Candidate{{Definition: a}, {Definition: b}}, 0)
	require.Len(t, out, 2)
	assert.Same(t, b, out[0].Definition)
}
