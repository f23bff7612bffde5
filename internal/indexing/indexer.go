package indexing

import (
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/CRJFisher/ariadne-sub020/internal/queryset"
	"github.com/CRJFisher/ariadne-sub020/internal/tsparse"
)

// Indexer runs one language's compiled query set over a parsed file and
// assembles the resulting ScopeGraph.
type Indexer struct {
	compiled map[string]*queryset.Compiled
}

// NewIndexer compiles every supported language's query set once, for reuse
// across every file indexed in the project.
func NewIndexer() (*Indexer, error) {
	compiled, err := queryset.Compile()
	if err != nil {
		return nil, err
	}
	return &Indexer{compiled: compiled}, nil
}

type capture struct {
	name  string
	node  *sitter.Node
	start Range
}

// Index builds the ScopeGraph for one parsed file. Malformed subtrees (a
// capture whose node is an ERROR node) are skipped, not fatal — indexing
// proceeds for the remainder of the file (spec.md §4.1 "Failure
// semantics"). A file whose root node reports a parse error still yields
// whatever partial ScopeGraph the valid portions produce.
func (ix *Indexer) Index(path string, parsed *tsparse.Parsed) (*ScopeGraph, error) {
	compiled, ok := ix.compiled[parsed.Language]
	if !ok {
		return &ScopeGraph{Path: path, Root: &Scope{Kind: "file"}}, nil
	}

	root := parsed.Tree.RootNode()
	caps := collectCaptures(compiled.Query, root, parsed.Source)

	graph := &ScopeGraph{Path: path}
	graph.Root = buildScopeTree(caps, root, parsed.Source)

	assignDefsAndRefs(graph, caps, parsed.Source)
	graph.Imports = collectImports(caps, parsed.Source)

	for _, s := range collectAllScopes(graph.Root) {
		graph.Defs = append(graph.Defs, s.Defs...)
		graph.Refs = append(graph.Refs, s.Refs...)
	}

	reclassifyMethods(graph)
	attachDocstringsAndDecorators(graph, caps, parsed.Source)

	return graph, nil
}

func collectCaptures(query *sitter.Query, root *sitter.Node, source []byte) []capture {
	cursor := sitter.NewQueryCursor()
	cursor.Exec(query, root)

	var out []capture
	for {
		m, ok := cursor.NextMatch()
		if !ok {
			break
		}
		m = cursor.FilterPredicates(m, source)
		for _, c := range m.Captures {
			if c.Node.IsError() || c.Node.IsMissing() {
				continue // malformed subtree: skip, keep going
			}
			name := query.CaptureNameForId(c.Index)
			out = append(out, capture{
				name: name,
				node: c.Node,
				start: Range{
					StartLine: int(c.Node.StartPoint().Row),
					StartCol:  int(c.Node.StartPoint().Column),
					EndLine:   int(c.Node.EndPoint().Row),
					EndCol:    int(c.Node.EndPoint().Column),
				},
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].start.StartLine != out[j].start.StartLine {
			return out[i].start.StartLine < out[j].start.StartLine
		}
		return out[i].start.StartCol < out[j].start.StartCol
	})
	return out
}

// buildScopeTree assembles the nesting of @scope captures by range
// containment (every scope capture's range nests inside exactly one
// enclosing scope, since tree-sitter node ranges never partially
// overlap). This produces the same nested-scope structure as a
// source-order push/pop walk (spec.md §4.1 step 1) while being robust to
// a query engine that doesn't guarantee matches arrive in a strict
// open/close-paired order.
func buildScopeTree(caps []capture, root *sitter.Node, source []byte) *Scope {
	fileScope := &Scope{
		Kind: "file",
		Range: Range{
			StartLine: int(root.StartPoint().Row), StartCol: int(root.StartPoint().Column),
			EndLine: int(root.EndPoint().Row), EndCol: int(root.EndPoint().Column),
		},
	}

	type scopeCap struct {
		r    Range
		kind string
	}
	var scopeCaps []scopeCap
	for _, c := range caps {
		if c.name == "scope" {
			scopeCaps = append(scopeCaps, scopeCap{r: rangeOf(c.node), kind: scopeKindFor(c.node)})
		}
	}
	sort.Slice(scopeCaps, func(i, j int) bool {
		si, sj := scopeCaps[i].r.size()
		oi, oj := scopeCaps[j].r.size()
		if si != oi {
			return si > oi // largest first, so file/outer scopes insert before nested ones
		}
		return sj > oj
	})

	nodes := []*Scope{fileScope}
	for _, sc := range scopeCaps {
		if sc.r == fileScope.Range {
			continue // the file/program node itself, already represented
		}
		parent := findSmallestContaining(nodes, sc.r)
		s := &Scope{Kind: sc.kind, Range: sc.r, Parent: parent}
		parent.Children = append(parent.Children, s)
		nodes = append(nodes, s)
	}
	return fileScope
}

func findSmallestContaining(nodes []*Scope, r Range) *Scope {
	var best *Scope
	for _, n := range nodes {
		if n.Range == r {
			continue
		}
		if n.Range.Contains(r) {
			if best == nil || isSmaller(n.Range, best.Range) {
				best = n
			}
		}
	}
	return best
}

func isSmaller(a, b Range) bool {
	al, ac := a.size()
	bl, bc := b.size()
	if al != bl {
		return al < bl
	}
	return ac < bc
}

func scopeKindFor(n *sitter.Node) string {
	switch n.Type() {
	case "class_body", "declaration_list":
		return "class-body"
	case "for_statement", "for_in_statement", "for_expression":
		return "for"
	case "catch_clause":
		return "catch"
	case "program", "module", "source_file":
		return "file"
	default:
		return "function"
	}
}

// findEnclosingScope returns the smallest scope in the graph whose range
// contains r.
func findEnclosingScope(root *Scope, r Range) *Scope {
	best := root
	var search func(*Scope)
	search = func(s *Scope) {
		for _, c := range s.Children {
			if c.Range.Contains(r) {
				if isSmaller(c.Range, best.Range) || best == root {
					best = c
				}
				search(c)
			}
		}
	}
	search(root)
	return best
}

func assignDefsAndRefs(graph *ScopeGraph, caps []capture, source []byte) {
	classStack := map[Range]*Def{}

	for _, c := range caps {
		prefix, kind := queryset.CaptureKind(c.name)
		r := rangeOf(c.node)
		scope := findEnclosingScope(graph.Root, r)

		switch prefix {
		case "definition":
			switch kind {
			case "decorator", "docstring":
				continue // handled separately, attached to the next definition
			}
			d := &Def{
				Name:     textOf(c.node, source),
				Kind:     normalizeDefKind(kind),
				Range:    r,
				Exported: isExported(c.node, source),
				Scope:    scope,
			}
			if d.Kind == "parameter" {
				d.Visibility = ""
			}
			if enclosing := enclosingDeclRange(c.node); enclosing != nil {
				d.Enclosing = *enclosing
			}
			if d.Kind == "class" || d.Kind == "interface" || d.Kind == "namespace" {
				classStack[r] = d
			}
			if parent := containingClassDef(classStack, r); parent != nil && parent != d {
				d.ParentDef = parent
			}
			scope.Defs = append(scope.Defs, d)

		case "reference":
			switch kind {
			case "collection_entry":
				// c.node is an object-literal pair's value identifier
				// (spec.md §4.4 "collection of handlers"); this doesn't
				// become an ordinary Ref (the blanket @reference.read
				// pattern already captures the same node for normal
				// resolution) — it feeds TypeTracker seeding instead.
				if pair := c.node.Parent(); pair != nil {
					if collName, ok := collectionNameFor(pair.Parent(), source); ok {
						graph.CollectionEntries = append(graph.CollectionEntries, CollectionEntry{
							CollectionName: collName,
							FunctionName:   textOf(c.node, source),
							Range:          r,
						})
					}
				}
				continue
			case "collection_merge":
				// c.node is the identifier spread into an object literal
				// (`{...BASE, ...}`, spec.md §4.4 "spread-merged collection").
				if spread := c.node.Parent(); spread != nil {
					if collName, ok := collectionNameFor(spread.Parent(), source); ok {
						graph.CollectionMerges = append(graph.CollectionMerges, CollectionMerge{
							DestName: collName,
							SrcName:  textOf(c.node, source),
							Range:    r,
						})
					}
				}
				continue
			}

			name := textOf(c.node, source)
			if kind == "method_call" || kind == "namespace_member" {
				// The query only captures one side of the member
				// expression (the property for a method call, the object
				// for a namespace member); the Resolver needs the full
				// "receiver.member" text, which the enclosing member/
				// attribute/field expression spans verbatim. r stays the
				// narrower captured node's position so GoToDefinition
				// still lands on the name the user actually clicked.
				name = qualifiedMemberName(c.node, source)
			}
			ref := &Ref{Name: name, Kind: normalizeRefKind(kind), Range: r, Scope: scope}
			scope.Refs = append(scope.Refs, ref)

		case "":
			switch kind {
			case "write":
				ref := &Ref{Name: textOf(c.node, source), Kind: "write", Range: r, Scope: scope}
				scope.Refs = append(scope.Refs, ref)
			case "type":
				ref := &Ref{Name: textOf(c.node, source), Kind: "type", Range: r, Scope: scope}
				scope.Refs = append(scope.Refs, ref)
			}

		case "type":
			// @type.none (Python's "None" in a type position, spec.md
			// §4.1): the suffix only distinguishes the matched grammar
			// shape, not the Ref's own kind.
			ref := &Ref{Name: textOf(c.node, source), Kind: "type", Range: r, Scope: scope}
			scope.Refs = append(scope.Refs, ref)
		}
	}
}

// containingClassDef returns the innermost class/interface/namespace Def
// whose range strictly contains r, used to set ParentDef for nested
// members (methods, properties, enum members).
func containingClassDef(classStack map[Range]*Def, r Range) *Def {
	var best *Def
	for cr, d := range classStack {
		if cr == r {
			continue
		}
		if cr.Contains(r) {
			if best == nil || isSmaller(cr, best.Range) {
				best = d
			}
		}
	}
	return best
}

func collectImports(caps []capture, source []byte) []Import {
	var out []Import
	var pendingSource string
	var pendingAlias string
	for _, c := range caps {
		prefix, kind := queryset.CaptureKind(c.name)
		if prefix != "import" {
			continue
		}
		switch kind {
		case "source", "reexport_source":
			pendingSource = textOf(c.node, source)
		case "alias", "reexport_alias":
			pendingAlias = textOf(c.node, source)
		case "named", "default", "namespace", "reexport_named":
			// JS/TS import/export statements put their source string after
			// the specifiers, so read it from the enclosing statement.
			src := pendingSource
			for p := c.node.Parent(); p != nil; p = p.Parent() {
				if p.Type() == "import_statement" || p.Type() == "export_statement" {
					src = ""
					if s := p.ChildByFieldName("source"); s != nil {
						src = textOf(s, source)
					}
					break
				}
			}
			im := Import{
				LocalName:    textOf(c.node, source),
				SourceModule: strings.Trim(src, "\"'"),
				Kind:         importKind(kind),
				Range:        rangeOf(c.node),
			}
			if pendingAlias != "" {
				im.SourceName = im.LocalName
				im.LocalName = pendingAlias
				pendingAlias = ""
			}
			out = append(out, im)
		}
	}
	return out
}

func importKind(captureKind string) string {
	switch captureKind {
	case "reexport_named":
		return "re-export"
	default:
		return captureKind
	}
}

func collectAllScopes(root *Scope) []*Scope {
	var out []*Scope
	var visit func(*Scope)
	visit = func(s *Scope) {
		out = append(out, s)
		for _, c := range s.Children {
			visit(c)
		}
	}
	visit(root)
	return out
}

// reclassifyMethods implements the scope-aware half of spec.md §4.1's
// method/function distinction: a "function" definition whose enclosing
// scope is a class-body scope is reclassified as a "method" (Python's
// query set in particular relies on this rather than a query predicate).
func reclassifyMethods(graph *ScopeGraph) {
	for _, d := range graph.Defs {
		if d.Kind == "function" && d.Scope != nil && d.Scope.Kind == "class-body" {
			d.Kind = "method"
		}
	}
}

func attachDocstringsAndDecorators(graph *ScopeGraph, caps []capture, source []byte) {
	defsByLine := map[int][]*Def{}
	for _, d := range graph.Defs {
		defsByLine[d.Range.StartLine] = append(defsByLine[d.Range.StartLine], d)
	}

	var pendingDecorators []Decorator
	var pendingDoc string
	var pendingDocLine = -1

	for _, c := range caps {
		prefix, kind := queryset.CaptureKind(c.name)
		if prefix != "definition" {
			continue
		}
		switch kind {
		case "decorator":
			pendingDecorators = append(pendingDecorators, Decorator{Name: textOf(c.node, source)})
			continue
		case "docstring":
			pendingDoc = textOf(c.node, source)
			pendingDocLine = c.start.StartLine
			continue
		}
		// The nearest following definition on/after the pending context's
		// line absorbs the accumulated decorators/docstring.
		if len(pendingDecorators) == 0 && pendingDoc == "" {
			continue
		}
		for _, d := range defsByLine[c.start.StartLine] {
			if d.Range != c.start {
				continue
			}
			if len(pendingDecorators) > 0 {
				d.Decorators = append(d.Decorators, pendingDecorators...)
			}
			if pendingDoc != "" && pendingDocLine < d.Range.StartLine {
				d.Docstring = pendingDoc
			}
		}
		pendingDecorators = nil
		pendingDoc = ""
	}
}

func rangeOf(n *sitter.Node) Range {
	return Range{
		StartLine: int(n.StartPoint().Row), StartCol: int(n.StartPoint().Column),
		EndLine: int(n.EndPoint().Row), EndCol: int(n.EndPoint().Column),
	}
}

func textOf(n *sitter.Node, source []byte) string {
	return n.Content(source)
}

// qualifiedMemberName returns the "receiver.member" text of the member/
// attribute/field expression enclosing n, one of the two nodes a
// method-call or namespace-member capture tags (the other side is
// present in the same parent but left untagged by the query). Falls back
// to n's own text if n isn't nested in a recognized member expression.
func qualifiedMemberName(n *sitter.Node, source []byte) string {
	parent := n.Parent()
	if parent == nil {
		return textOf(n, source)
	}
	switch parent.Type() {
	case "member_expression", "attribute", "field_expression":
		return textOf(parent, source)
	default:
		return textOf(n, source)
	}
}

// collectionNameFor returns the variable name a `{...}` object literal is
// being assigned to, given that literal's own parent node. Used to
// correlate a collection_entry/collection_merge capture (captured deep
// inside the literal, with no direct link back to the other captures from
// the same literal) to the collection it belongs to, by walking up from
// the literal itself rather than relying on query match grouping.
func collectionNameFor(object *sitter.Node, source []byte) (string, bool) {
	if object == nil || object.Type() != "object" {
		return "", false
	}
	parent := object.Parent()
	if parent == nil {
		return "", false
	}
	switch parent.Type() {
	case "variable_declarator":
		if name := parent.ChildByFieldName("name"); name != nil {
			return textOf(name, source), true
		}
	case "assignment_expression":
		if left := parent.ChildByFieldName("left"); left != nil {
			return textOf(left, source), true
		}
	}
	return "", false
}

func isExported(n *sitter.Node, source []byte) bool {
	// A definition is exported when its nearest statement ancestor is an
	// export_statement (JS/TS) or, for Python (and Rust, which uses the
	// same check), when its name does not start with an underscore
	// (spec.md doesn't prescribe Python's rule explicitly; this follows
	// the language's own convention).
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "export_statement", "export_clause":
			return true
		case "program":
			return false
		case "module", "source_file":
			name := textOf(n, source)
			return len(name) == 0 || name[0] != '_'
		}
	}
	return false
}

// enclosingDeclRange returns the range of the nearest ancestor node that
// represents the full declaration (function/class/etc.) rather than just
// the name identifier, used to populate a Def's Enclosing range.
func enclosingDeclRange(n *sitter.Node) *Range {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "function_declaration", "function_definition", "function_item",
			"class_declaration", "class_definition", "struct_item",
			"method_definition", "interface_declaration", "trait_item",
			"enum_declaration", "enum_item", "impl_item":
			r := rangeOf(p)
			return &r
		}
	}
	return nil
}

func normalizeDefKind(captureKind string) string {
	return captureKind
}

func normalizeRefKind(captureKind string) string {
	switch captureKind {
	case "call":
		return "call"
	case "method_call":
		return "method-call"
	case "constructor_call":
		return "constructor-call"
	case "namespace_member":
		return "namespace-member"
	case "callback_arg":
		return "callback-arg"
	default:
		return captureKind
	}
}
