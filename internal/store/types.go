// Package store is the SQLite-backed persistence layer for Ariadne's
// per-file cache and project-wide ResolutionCache (spec.md §3, §4.6).
package store

import "time"

// File is one indexed source file.
type File struct {
	ID          int64
	Path        string
	Language    string
	Hash        string // sha256 of content, for change detection
	LineCount   int
	LastIndexed time.Time
}

// Scope is one lexical scope in a file's ScopeGraph (spec.md §3.2).
type Scope struct {
	ID            int64
	FileID        int64
	ParentScopeID *int64
	Kind          string // file, function, block, class-body, for, catch
	StartLine     int
	StartCol      int
	EndLine       int
	EndCol        int
}

// Definition is the declaring occurrence of a named entity.
type Definition struct {
	ID         int64
	SymbolID   string // opaque token, spec.md §3.1
	FileID     int64
	ScopeID    int64 // enclosing scope this definition lives in
	Name       string
	Kind       string // function, method, constructor, class, interface, enum, enum_member, type_alias, namespace, property, parameter, variable, constant, module
	Visibility string // public, private, protected (access modifier)

	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int

	// EncEndLine/EncEndCol close out the enclosing range for scoped
	// definitions (functions, classes, ...). Zero value means "not scoped".
	EncStartLine int
	EncStartCol  int
	EncEndLine   int
	EncEndCol    int

	Exported      bool
	IsTest        bool
	Docstring     string
	SignatureHash string

	ParentDefinitionID *int64 // enclosing class/namespace definition, if any
}

// HasEnclosingRange reports whether this definition carries a distinct
// enclosing range (as opposed to a bare declaration range).
func (d *Definition) HasEnclosingRange() bool {
	return d.EncEndLine != 0 || d.EncEndCol != 0 || d.EncStartLine != 0 || d.EncStartCol != 0
}

// Param is a function/method parameter or return-type slot.
type Param struct {
	ID           int64
	DefinitionID int64
	Name         string
	Ordinal      int
	TypeExpr     string
	IsReceiver   bool
	IsReturn     bool
}

// Decorator is a decorator/annotation attached to a Definition.
type Decorator struct {
	ID           int64
	DefinitionID int64
	Name         string
	Arguments    string
}

// Reference is an occurrence of an identifier that must resolve to a
// Definition (spec.md §3.2).
type Reference struct {
	ID          int64
	ReferenceID string // opaque token, spec.md §3.1
	FileID      int64
	ScopeID     int64
	Name        string
	Kind        string // read, write, type, call, method-call, constructor-call, namespace-member, callback-arg, jsx_component, ...

	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// Import is an unresolved (at extraction time) import statement.
type Import struct {
	ID           int64
	FileID       int64
	LocalName    string
	SourceName   string // original exported name, if aliased ("" otherwise)
	SourceModule string // unresolved textual module path
	Kind         string // named, default, namespace, re-export

	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int

	ResolvedFileID *int64 // filled in by ModuleResolver; nil means unresolved/external
}

// Resolution is one candidate binding of a Reference to a Definition
// (spec.md §3.2). A Reference with N candidates produces N rows.
type Resolution struct {
	ID           int64
	ReferenceID  int64 // store row id of the Reference
	DefinitionID int64 // store row id of the target Definition
	Confidence   string // exact, inferred, ambiguous
}

// Confidence tag values (spec.md §3.2).
const (
	ConfidenceExact     = "exact"
	ConfidenceInferred  = "inferred"
	ConfidenceAmbiguous = "ambiguous"
)

// CallEdge is one resolved call-graph edge (spec.md §4.5).
type CallEdge struct {
	ID                   int64
	CallerDefinitionID   int64
	CalleeDefinitionID   int64
	FileID               int64
	Line                 int
	Col                  int
	CallType             string // function, method, constructor, callback-invocation
	IsCallbackInvocation bool
}

// IndirectReachability records a function made callable without a direct
// call edge (spec.md §4.4/§4.5): stored in a collection that is later read,
// or passed as a value.
type IndirectReachability struct {
	ID             int64
	DefinitionID   int64
	Kind           string // "collection" or "callback"
	CollectionName string // populated for "collection"
	FileID         int64
	Line           int
	Col            int
	// ConsumedLater is set once the collection/value is observed being
	// read, iterated, or passed to something that reads it.
	ConsumedLater bool
}

// Reexport records a barrel/re-export binding (spec.md §4.3 step 2).
type Reexport struct {
	ID               int64
	FileID           int64
	OriginalSymbolID int64
	ExportedName     string
}
