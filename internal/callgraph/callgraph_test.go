package callgraph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CRJFisher/ariadne-sub020/internal/callgraph"
	"github.com/CRJFisher/ariadne-sub020/internal/store"
)

func TestBuildSimpleChainAndEntryPoint(t *testing.T) {
	main := &store.Definition{ID: 1, SymbolID: "function:a.ts:5:0:7:0:main", Kind: "function", FileID: 1, StartLine: 5}
	helper := &store.Definition{ID: 2, SymbolID: "function:a.ts:1:0:3:0:helper", Kind: "function", FileID: 1, StartLine: 1}

	edges := []*store.CallEdge{
		{CallerDefinitionID: 1, CalleeDefinitionID: 2, CallType: "function"},
	}

	b := callgraph.NewBuilder(map[int64]string{1: "a.ts"}, nil)
	g := b.Build([]*store.Definition{main, helper}, edges)

	require.Len(t, g.Nodes, 2)
	assert.True(t, g.Nodes["function:a.ts:1:0:3:0:helper"].Callers["function:a.ts:5:0:7:0:main"])

	entries := g.EntryPoints(b)
	require.Len(t, entries, 1)
	assert.Equal(t, "main", entries[0].Definition.Name)
}

func TestEntryPointExcludesIndirectlyReachable(t *testing.T) {
	handler := &store.Definition{ID: 1, SymbolID: "function:a.ts:1:0:3:0:onClick", Kind: "function", FileID: 1, Name: "onClick"}

	b := callgraph.NewBuilder(map[int64]string{1: "a.ts"}, map[int64]bool{1: true})
	g := b.Build([]*store.Definition{handler}, nil)

	assert.Empty(t, g.EntryPoints(b))
}

func TestEntryPointOrderingDeterministicByFileThenLine(t *testing.T) {
	a := &store.Definition{ID: 1, SymbolID: "function:b.ts:1:0:1:0:a", Kind: "function", FileID: 2, StartLine: 1}
	b2 := &store.Definition{ID: 2, SymbolID: "function:a.ts:5:0:5:0:b", Kind: "function", FileID: 1, StartLine: 5}
	c := &store.Definition{ID: 3, SymbolID: "function:a.ts:1:0:1:0:c", Kind: "function", FileID: 1, StartLine: 1}

	b := callgraph.NewBuilder(map[int64]string{1: "a.ts", 2: "b.ts"}, nil)
	g := b.Build([]*store.Definition{a, b2, c}, nil)

	entries := g.EntryPoints(b)
	require.Len(t, entries, 3)
	assert.Equal(t, "c", entries[0].Definition.Name)
	assert.Equal(t, "b", entries[1].Definition.Name)
	assert.Equal(t, "a", entries[2].Definition.Name)
}

func TestEntryPointFilterExcludesCandidate(t *testing.T) {
	def := &store.Definition{ID: 1, SymbolID: "function:a.ts:1:0:1:0:run", Kind: "function", FileID: 1, Name: "run"}

	b := callgraph.NewBuilder(map[int64]string{1: "a.ts"}, nil)
	b.Filters = append(b.Filters, func(d *store.Definition) bool { return d.Name != "run" })

	g := b.Build([]*store.Definition{def}, nil)
	assert.Empty(t, g.EntryPoints(b))
}

func TestBuildIgnoresNonCallableKinds(t *testing.T) {
	class := &store.Definition{ID: 1, SymbolID: "class:a.ts:1:0:1:0:Foo", Kind: "class", FileID: 1}
	method := &store.Definition{ID: 2, SymbolID: "method:a.ts:2:0:2:0:bar", Kind: "method", FileID: 1}

	b := callgraph.NewBuilder(nil, nil)
	g := b.Build([]*store.Definition{class, method}, nil)

	require.Len(t, g.Nodes, 1)
	_, hasMethod := g.Nodes["method:a.ts:2:0:2:0:bar"]
	assert.True(t, hasMethod)
}

func TestBuildDropsEdgesToUntrackedCallees(t *testing.T) {
	main := &store.Definition{ID: 1, SymbolID: "function:a.ts:1:0:1:0:main", Kind: "function", FileID: 1}

	edges := []*store.CallEdge{
		{CallerDefinitionID: 1, CalleeDefinitionID: 99, CallType: "function"},
	}

	b := callgraph.NewBuilder(nil, nil)
	g := b.Build([]*store.Definition{main}, edges)

	assert.Empty(t, g.Nodes["function:a.ts:1:0:1:0:main"].Outgoing)
}
