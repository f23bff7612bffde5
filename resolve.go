package ariadne

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/CRJFisher/ariadne-sub020/internal/callgraph"
	"github.com/CRJFisher/ariadne-sub020/internal/indexing"
	"github.com/CRJFisher/ariadne-sub020/internal/resolving"
	"github.com/CRJFisher/ariadne-sub020/internal/store"
	"github.com/CRJFisher/ariadne-sub020/internal/symbolid"
	"github.com/CRJFisher/ariadne-sub020/internal/typetrack"
)

// commitGraph translates one file's in-memory ScopeGraph into store rows
// and writes them through a BatchedStore in a single transaction (the
// same fake-ID batching internal/store.BatchedStore uses for parallel
// per-file extraction, applied here to one file at a time).
func (p *Project) commitGraph(fileID int64, path string, graph *indexing.ScopeGraph) error {
	batch := store.NewBatchedStore(p.store)

	scopeIDs := make(map[*indexing.Scope]int64)
	graph.Walk(func(s *indexing.Scope) {
		var parentID *int64
		if s.Parent != nil {
			if pid, ok := scopeIDs[s.Parent]; ok {
				parentID = &pid
			}
		}
		id, _ := batch.InsertScope(&store.Scope{
			FileID: fileID, ParentScopeID: parentID, Kind: s.Kind,
			StartLine: s.Range.StartLine, StartCol: s.Range.StartCol,
			EndLine: s.Range.EndLine, EndCol: s.Range.EndCol,
		})
		scopeIDs[s] = id
	})

	defIDs := make(map[*indexing.Def]int64)
	for _, d := range graph.Defs {
		var scopeID int64
		if d.Scope != nil {
			scopeID = scopeIDs[d.Scope]
		}
		var parentDefID *int64
		if d.ParentDef != nil {
			if pid, ok := defIDs[d.ParentDef]; ok {
				parentDefID = &pid
			}
		}

		row := &store.Definition{
			SymbolID:   symbolid.Format(d.Kind, path, d.Range.StartLine, d.Range.StartCol, d.Range.EndLine, d.Range.EndCol, d.Name),
			FileID:     fileID,
			ScopeID:    scopeID,
			Name:       d.Name,
			Kind:       d.Kind,
			Visibility: d.Visibility,
			StartLine:  d.Range.StartLine, StartCol: d.Range.StartCol,
			EndLine: d.Range.EndLine, EndCol: d.Range.EndCol,
			Exported:           d.Exported,
			IsTest:             isTestDefinition(d),
			Docstring:          d.Docstring,
			ParentDefinitionID: parentDefID,
		}
		if d.Enclosing != (indexing.Range{}) {
			row.EncStartLine, row.EncStartCol = d.Enclosing.StartLine, d.Enclosing.StartCol
			row.EncEndLine, row.EncEndCol = d.Enclosing.EndLine, d.Enclosing.EndCol
		}
		row.SignatureHash = store.ComputeSignatureHash(row.Name, row.Kind, row.Visibility, toStoreParams(d.Params), toStoreTypeParams(d.TypeParams))

		id, _ := batch.InsertDefinition(row)
		defIDs[d] = id

		for _, param := range d.Params {
			batch.InsertParam(&store.Param{
				DefinitionID: id, Name: param.Name, Ordinal: param.Ordinal,
				TypeExpr: param.TypeExpr, IsReceiver: param.IsReceiver, IsReturn: param.IsReturn,
			})
		}
		for i, tp := range d.TypeParams {
			batch.InsertTypeParam(&store.Param{DefinitionID: id, Name: tp, Ordinal: i})
		}
		for _, dec := range d.Decorators {
			batch.InsertDecorator(&store.Decorator{DefinitionID: id, Name: dec.Name, Arguments: dec.Arguments})
		}
	}

	for _, r := range graph.Refs {
		var scopeID int64
		if r.Scope != nil {
			scopeID = scopeIDs[r.Scope]
		}
		batch.InsertReference(&store.Reference{
			ReferenceID: symbolid.Reference(path, r.Range.StartLine, r.Range.StartCol, r.Range.EndLine, r.Range.EndCol, r.Name),
			FileID:      fileID,
			ScopeID:     scopeID,
			Name:        r.Name,
			Kind:        r.Kind,
			StartLine:   r.Range.StartLine, StartCol: r.Range.StartCol,
			EndLine: r.Range.EndLine, EndCol: r.Range.EndCol,
		})
	}

	for _, im := range graph.Imports {
		batch.InsertImport(&store.Import{
			FileID: fileID, LocalName: im.LocalName, SourceName: im.SourceName,
			SourceModule: im.SourceModule, Kind: im.Kind,
			StartLine: im.Range.StartLine, StartCol: im.Range.StartCol,
			EndLine: im.Range.EndLine, EndCol: im.Range.EndCol,
		})
	}

	return p.store.CommitBatch(batch)
}

// isTestDefinition tags functions recognizable as test cases across the
// supported languages (pytest/unittest's test_ prefix, a test-ish
// decorator/attribute, or a Test-prefixed name). Never used to exclude
// anything — entry-point detection retains test functions, it only
// carries the tag.
func isTestDefinition(d *indexing.Def) bool {
	for _, dec := range d.Decorators {
		if strings.Contains(dec.Name, "test") {
			return true
		}
	}
	return strings.HasPrefix(d.Name, "test_") || strings.HasPrefix(d.Name, "Test")
}

func toStoreParams(params []indexing.Param) []*store.Param {
	out := make([]*store.Param, 0, len(params))
	for _, p := range params {
		out = append(out, &store.Param{Name: p.Name, Ordinal: p.Ordinal, TypeExpr: p.TypeExpr, IsReceiver: p.IsReceiver, IsReturn: p.IsReturn})
	}
	return out
}

func toStoreTypeParams(names []string) []*store.Param {
	out := make([]*store.Param, 0, len(names))
	for i, n := range names {
		out = append(out, &store.Param{Name: n, Ordinal: i})
	}
	return out
}

// Resolve runs the Resolver and CallGraphBuilder over every file in the
// blast radius (or every file, on the first run), producing Resolution
// and CallEdge rows. Call after one or more AddOrUpdateFile/RemoveFile
// calls.
func (p *Project) Resolve(ctx context.Context) error {
	targetsOnly := p.blastRadius != nil
	defer func() { p.blastRadius = nil }()

	if targetsOnly && len(p.blastRadius) == 0 {
		return nil
	}

	files, err := p.store.AllFiles()
	if err != nil {
		return fmt.Errorf("ariadne: list files: %w", err)
	}

	idx, err := p.buildProjectIndex(files)
	if err != nil {
		return fmt.Errorf("ariadne: build project index: %w", err)
	}
	resolver := resolving.NewResolver(idx, p.root)

	targets := files
	if targetsOnly {
		targets = nil
		for _, f := range files {
			if p.blastRadius[f.ID] {
				targets = append(targets, f)
			}
		}
	}

	var targetIDs []int64
	for _, f := range targets {
		targetIDs = append(targetIDs, f.ID)
	}
	if err := p.store.DeleteResolutionDataForFiles(targetIDs); err != nil {
		return fmt.Errorf("ariadne: delete stale resolutions: %w", err)
	}

	for _, f := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.resolveFile(resolver, f, idx); err != nil {
			return fmt.Errorf("ariadne: resolve %s: %w", f.Path, err)
		}
	}

	return nil
}

func (p *Project) resolveFile(resolver *resolving.Resolver, f *store.File, idx *resolving.ProjectIndex) error {
	graph := idx.Graphs[f.Path]
	if graph == nil {
		return nil
	}
	refs, err := p.store.ReferencesByFile(f.ID)
	if err != nil {
		return err
	}

	tracker := typetrack.NewTracker()
	seedTracker(tracker, graph)
	if err := p.recordIndirectReachability(f, graph, tracker, idx); err != nil {
		return err
	}

	for _, refRow := range refs {
		gref := matchGraphRef(graph, refRow)
		if gref == nil {
			continue
		}
		candidates := resolver.Resolve(f.Language, f.Path, gref, tracker)
		candidates = resolving.TieBreak(candidates, f.ID)
		for i, c := range candidates {
			if c.Definition == nil {
				continue
			}
			if _, err := p.store.InsertResolution(&store.Resolution{
				ReferenceID: refRow.ID, DefinitionID: c.Definition.ID, Confidence: c.Confidence,
			}); err != nil {
				return err
			}
			// A single unambiguous (exact) candidate becomes a call edge
			// when the reference is itself a call site (spec.md §4.5).
			if i == 0 && len(candidates) == 1 && c.Confidence == store.ConfidenceExact {
				if err := p.recordCallEdge(f, refRow, c.Definition); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// recordIndirectReachability writes one IndirectReachability row per
// function the TypeTracker found stored in a consumed collection or passed
// as a bare callback value (spec.md §4.4 scenarios "collection of
// handlers" and "spread-merged collection"), so CallGraph's entry-point
// detection can exclude them.
func (p *Project) recordIndirectReachability(f *store.File, graph *indexing.ScopeGraph, tracker *typetrack.Tracker, idx *resolving.ProjectIndex) error {
	bySymbolID := make(map[string]*store.Definition, len(idx.DefsByFile[f.Path]))
	for _, d := range idx.DefsByFile[f.Path] {
		bySymbolID[d.SymbolID] = d
	}

	for _, cr := range tracker.ConsumedCollections() {
		def, ok := bySymbolID[cr.FunctionSymbolID]
		if !ok {
			continue
		}
		if _, err := p.store.InsertIndirectReachability(&store.IndirectReachability{
			DefinitionID: def.ID, Kind: "collection", CollectionName: cr.CollectionName,
			FileID: f.ID, Line: def.StartLine, Col: def.StartCol, ConsumedLater: true,
		}); err != nil {
			return err
		}
	}
	for _, cp := range tracker.CallbackPasses() {
		def, ok := bySymbolID[cp.FunctionSymbolID]
		if !ok {
			continue
		}
		if _, err := p.store.InsertIndirectReachability(&store.IndirectReachability{
			DefinitionID: def.ID, Kind: "callback", FileID: f.ID,
			Line: cp.CallSiteLine, Col: cp.CallSiteCol, ConsumedLater: true,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (p *Project) recordCallEdge(f *store.File, refRow *store.Reference, callee *store.Definition) error {
	callType := callEdgeType(refRow.Kind)
	if callType == "" {
		return nil
	}
	callerDef := enclosingCallable(p, f, refRow)
	if callerDef == nil {
		return nil
	}
	_, err := p.store.InsertCallEdge(&store.CallEdge{
		CallerDefinitionID: callerDef.ID, CalleeDefinitionID: callee.ID,
		FileID: f.ID, Line: refRow.StartLine, Col: refRow.StartCol,
		CallType: callType, IsCallbackInvocation: callType == "callback-invocation",
	})
	return err
}

func callEdgeType(refKind string) string {
	switch refKind {
	case "call":
		return "function"
	case "method-call":
		return "method"
	case "constructor-call":
		return "constructor"
	case "callback-invocation":
		return "callback-invocation"
	default:
		return ""
	}
}

// enclosingCallable finds the innermost function/method/constructor
// Definition in f whose range contains refRow — the caller of that
// reference.
func enclosingCallable(p *Project, f *store.File, refRow *store.Reference) *store.Definition {
	defs, err := p.store.DefinitionsByFile(f.ID)
	if err != nil {
		return nil
	}
	var best *store.Definition
	for _, d := range defs {
		if d.Kind != "function" && d.Kind != "method" && d.Kind != "constructor" {
			continue
		}
		startL, startC, endL, endC := d.StartLine, d.StartCol, d.EndLine, d.EndCol
		if d.HasEnclosingRange() {
			startL, startC, endL, endC = d.EncStartLine, d.EncStartCol, d.EncEndLine, d.EncEndCol
		}
		if !rangeContains(startL, startC, endL, endC, refRow.StartLine, refRow.StartCol) {
			continue
		}
		if best == nil || smallerRange(startL, endL, best) {
			best = d
		}
	}
	return best
}

func rangeContains(startL, startC, endL, endC, line, col int) bool {
	if startL > line || (startL == line && startC > col) {
		return false
	}
	if endL < line || (endL == line && endC < col) {
		return false
	}
	return true
}

func smallerRange(startL, endL int, than *store.Definition) bool {
	thanStart, thanEnd := than.StartLine, than.EndLine
	if than.HasEnclosingRange() {
		thanStart, thanEnd = than.EncStartLine, than.EncEndLine
	}
	return (endL - startL) < (thanEnd - thanStart)
}

// matchGraphRef finds the in-memory indexing.Ref that a persisted
// store.Reference row was derived from, by exact position+name match.
func matchGraphRef(graph *indexing.ScopeGraph, row *store.Reference) *indexing.Ref {
	for _, r := range graph.Refs {
		if r.Name == row.Name && r.Range.StartLine == row.StartLine && r.Range.StartCol == row.StartCol {
			return r
		}
	}
	return nil
}

// seedTracker primes a file-scoped TypeTracker from every `x = new
// Y(...)`-shaped binding in the file (a constructor-call Ref on the same
// line as a variable Definition's start), every function value stored into
// or spread-merged between collections, and every bare identifier passed as
// a call argument (spec.md §4.4).
func seedTracker(tracker *typetrack.Tracker, graph *indexing.ScopeGraph) {
	for _, ctorRef := range graph.Refs {
		if ctorRef.Kind != "constructor-call" {
			continue
		}
		classDef := findClassDef(graph, ctorRef.Name)
		if classDef == nil {
			continue
		}
		classSymbolID := symbolid.Format(classDef.Kind, graph.Path,
			classDef.Range.StartLine, classDef.Range.StartCol, classDef.Range.EndLine, classDef.Range.EndCol, classDef.Name)
		for _, d := range graph.Defs {
			if d.Kind != "variable" && d.Kind != "constant" {
				continue
			}
			if d.Range.StartLine == ctorRef.Range.StartLine {
				tracker.BindConstructor(d.Name, classSymbolID)
			}
		}
	}

	for _, entry := range graph.CollectionEntries {
		if symID, ok := funcSymbolIDByName(graph, entry.FunctionName); ok {
			tracker.StoreInCollection(entry.CollectionName, symID)
		}
	}
	for _, merge := range graph.CollectionMerges {
		tracker.MergeCollections(merge.DestName, merge.SrcName)
	}
	for _, ref := range graph.Refs {
		if ref.Kind != "callback-arg" {
			continue
		}
		// Either a known function passed as a bare callback value, or a
		// collection variable being consumed — both are recorded; which
		// one actually applies falls out of whether ref.Name names a
		// function Def or a tracked collection.
		if symID, ok := funcSymbolIDByName(graph, ref.Name); ok {
			tracker.PassCallback(symID, ref.Range.StartLine, ref.Range.StartCol)
		}
		tracker.MarkConsumed(ref.Name)
	}
}

// funcSymbolIDByName returns the SymbolID of the function/method Def named
// name in graph, if one exists.
func funcSymbolIDByName(graph *indexing.ScopeGraph, name string) (string, bool) {
	for _, d := range graph.Defs {
		if d.Name != name || (d.Kind != "function" && d.Kind != "method") {
			continue
		}
		return symbolid.Format(d.Kind, graph.Path, d.Range.StartLine, d.Range.StartCol, d.Range.EndLine, d.Range.EndCol, d.Name), true
	}
	return "", false
}

func findClassDef(graph *indexing.ScopeGraph, name string) *indexing.Def {
	for _, d := range graph.Defs {
		if d.Name == name && d.Kind == "class" {
			return d
		}
	}
	return nil
}

// buildProjectIndex assembles a resolving.ProjectIndex snapshot from
// every file's persisted data plus its cached (or freshly re-indexed)
// ScopeGraph.
func (p *Project) buildProjectIndex(files []*store.File) (*resolving.ProjectIndex, error) {
	idx := &resolving.ProjectIndex{
		Graphs:          make(map[string]*indexing.ScopeGraph),
		DefsByFile:      make(map[string][]*store.Definition),
		ReexportsByFile: make(map[string]map[string]*store.Definition),
		ClassMembers:    make(map[string][]*store.Definition),
		Supertypes:      make(map[string][]string),
		AllByName:       make(map[string][]*store.Definition),
	}

	allDefs, err := p.store.AllDefinitions()
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*store.Definition, len(allDefs))
	for _, d := range allDefs {
		byID[d.ID] = d
		idx.AllByName[d.Name] = append(idx.AllByName[d.Name], d)
	}
	for _, d := range allDefs {
		if d.ParentDefinitionID == nil {
			continue
		}
		if parent, ok := byID[*d.ParentDefinitionID]; ok {
			idx.ClassMembers[parent.SymbolID] = append(idx.ClassMembers[parent.SymbolID], d)
		}
	}

	for _, f := range files {
		defs, err := p.store.DefinitionsByFile(f.ID)
		if err != nil {
			return nil, err
		}
		idx.DefsByFile[f.Path] = defs

		reexports, err := p.store.ReexportsByFile(f.ID)
		if err != nil {
			return nil, err
		}
		if len(reexports) > 0 {
			byName := make(map[string]*store.Definition, len(reexports))
			for _, re := range reexports {
				if d, ok := byID[re.OriginalSymbolID]; ok {
					byName[re.ExportedName] = d
				}
			}
			idx.ReexportsByFile[f.Path] = byName
		}

		graph, err := p.graphFor(f)
		if err != nil {
			return nil, err
		}
		idx.Graphs[f.Path] = graph

		for _, d := range defs {
			if d.Kind != "class" && d.Kind != "interface" {
				continue
			}
			for _, name := range superNamesFor(graph, d) {
				if target := findDefinitionByName(idx.AllByName[name], "class", "interface"); target != nil {
					idx.Supertypes[d.SymbolID] = append(idx.Supertypes[d.SymbolID], target.SymbolID)
				}
			}
		}
	}
	return idx, nil
}

func findDefinitionByName(candidates []*store.Definition, kinds ...string) *store.Definition {
	for _, d := range candidates {
		for _, k := range kinds {
			if d.Kind == k {
				return d
			}
		}
	}
	return nil
}

// graphFor returns the file's cached ScopeGraph, re-parsing from disk if
// it has been evicted from the LRU cache.
func (p *Project) graphFor(f *store.File) (*indexing.ScopeGraph, error) {
	p.graphsMu.Lock()
	if g, ok := p.graphs.Get(f.Path); ok {
		p.graphsMu.Unlock()
		return g, nil
	}
	p.graphsMu.Unlock()

	content, err := os.ReadFile(f.Path)
	if err != nil {
		return &indexing.ScopeGraph{Path: f.Path, Root: &indexing.Scope{Kind: "file"}}, nil
	}
	parsed, err := p.parser.Parse(context.Background(), f.Language, content)
	if err != nil {
		return &indexing.ScopeGraph{Path: f.Path, Root: &indexing.Scope{Kind: "file"}}, nil
	}
	defer parsed.Close()

	graph, err := p.index.Index(f.Path, parsed)
	if err != nil {
		return nil, err
	}
	p.cacheGraph(f.Path, graph)
	return graph, nil
}

// superNamesFor returns the textual names a class/interface Definition
// extends or implements: "type"-kind references positioned in its header,
// between its own declaration start and its class-body scope.
func superNamesFor(graph *indexing.ScopeGraph, d *store.Definition) []string {
	bodyStart := d.EndLine
	if d.HasEnclosingRange() {
		bodyStart = d.EncEndLine
	}
	graph.Walk(func(s *indexing.Scope) {
		if s.Kind == "class-body" && s.Range.StartLine >= d.StartLine && s.Range.StartLine < bodyStart {
			bodyStart = s.Range.StartLine
		}
	})

	var names []string
	for _, r := range graph.Refs {
		if r.Kind != "type" {
			continue
		}
		if r.Range.StartLine >= d.StartLine && r.Range.StartLine < bodyStart {
			names = append(names, r.Name)
		}
	}
	return names
}

// CallGraph rebuilds the project's CallGraph and entry-point set from
// persisted definitions and call edges (spec.md §4.5). Call after
// Resolve.
func (p *Project) CallGraph(filters ...callgraph.EntryPointFilter) (*callgraph.CallGraph, []*callgraph.CallableNode, error) {
	files, err := p.store.AllFiles()
	if err != nil {
		return nil, nil, fmt.Errorf("ariadne: list files: %w", err)
	}
	filePaths := make(map[int64]string, len(files))
	for _, f := range files {
		filePaths[f.ID] = f.Path
	}

	defs, err := p.store.AllDefinitions()
	if err != nil {
		return nil, nil, fmt.Errorf("ariadne: list definitions: %w", err)
	}
	edges, err := p.store.AllCallEdges()
	if err != nil {
		return nil, nil, fmt.Errorf("ariadne: list call edges: %w", err)
	}
	indirect, err := p.store.IndirectlyReachableDefinitionIDs()
	if err != nil {
		return nil, nil, fmt.Errorf("ariadne: list indirectly reachable definitions: %w", err)
	}

	builder := callgraph.NewBuilder(filePaths, indirect)
	builder.Filters = append(builder.Filters, filters...)
	graph := builder.Build(defs, edges)
	entryPoints := graph.EntryPoints(builder)
	return graph, entryPoints, nil
}
