package typetrack_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/CRJFisher/ariadne-sub020/internal/typetrack"
)

func TestBindConstructorAndLookup(t *testing.T) {
	tr := typetrack.NewTracker()
	tr.BindConstructor("handler", "class:svc.ts:1:0:1:10:Handler")
	got, ok := tr.Lookup("handler")
	assert.True(t, ok)
	assert.Equal(t, "class:svc.ts:1:0:1:10:Handler", got)
}

func TestPropagateSingleHop(t *testing.T) {
	tr := typetrack.NewTracker()
	tr.BindConstructor("a", "class:x.ts:1:0:1:5:Foo")
	tr.Propagate("b", "a")
	got, ok := tr.Lookup("b")
	assert.True(t, ok)
	assert.Equal(t, "class:x.ts:1:0:1:5:Foo", got)
}

func TestPropagateNoBindingIsNoop(t *testing.T) {
	tr := typetrack.NewTracker()
	tr.Propagate("b", "unbound")
	_, ok := tr.Lookup("b")
	assert.False(t, ok)
}

func TestCollectionMembershipRequiresConsumption(t *testing.T) {
	tr := typetrack.NewTracker()
	tr.StoreInCollection("handlers", "fn:h.ts:1:0:1:5:onClick")
	assert.Empty(t, tr.IndirectlyReachable())

	tr.MarkConsumed("handlers")
	assert.Equal(t, []string{"fn:h.ts:1:0:1:5:onClick"}, tr.IndirectlyReachable())
}

func TestMergeCollectionsSpreadCarriesMembership(t *testing.T) {
	tr := typetrack.NewTracker()
	tr.StoreInCollection("base", "fn:h.ts:1:0:1:5:onClick")
	tr.MergeCollections("merged", "base")
	tr.MarkConsumed("merged")
	assert.Equal(t, []string{"fn:h.ts:1:0:1:5:onClick"}, tr.IndirectlyReachable())
}

func TestConsumedCollectionsOnlyReportsConsumed(t *testing.T) {
	tr := typetrack.NewTracker()
	tr.StoreInCollection("handlers", "fn:h.ts:1:0:1:5:handleAdd")
	tr.StoreInCollection("unused", "fn:h.ts:2:0:2:5:neverConsumed")
	tr.MarkConsumed("handlers")

	got := tr.ConsumedCollections()
	assert.Equal(t, []typetrack.CollectionReachability{
		{CollectionName: "handlers", FunctionSymbolID: "fn:h.ts:1:0:1:5:handleAdd"},
	}, got)
}

func TestConsumedCollectionsSortedByCollectionName(t *testing.T) {
	tr := typetrack.NewTracker()
	tr.StoreInCollection("zeta", "fn:h.ts:1:0:1:5:z")
	tr.StoreInCollection("alpha", "fn:h.ts:2:0:2:5:a")
	tr.MarkConsumed("zeta")
	tr.MarkConsumed("alpha")

	got := tr.ConsumedCollections()
	assert.Equal(t, []typetrack.CollectionReachability{
		{CollectionName: "alpha", FunctionSymbolID: "fn:h.ts:2:0:2:5:a"},
		{CollectionName: "zeta", FunctionSymbolID: "fn:h.ts:1:0:1:5:z"},
	}, got)
}

func TestPassCallbackIsIndirectlyReachable(t *testing.T) {
	tr := typetrack.NewTracker()
	tr.PassCallback("fn:h.ts:1:0:1:5:onClick", 10, 4)
	assert.Equal(t, []string{"fn:h.ts:1:0:1:5:onClick"}, tr.IndirectlyReachable())
	assert.Len(t, tr.CallbackPasses(), 1)
	assert.Equal(t, 10, tr.CallbackPasses()[0].CallSiteLine)
}
