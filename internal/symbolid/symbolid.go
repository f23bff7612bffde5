// Package symbolid formats the opaque SymbolId/ReferenceId tokens used to
// identify definitions and references across the project.
//
// Format: kind:path:sLine:sCol:eLine:eCol:name
package symbolid

import "fmt"

// Format builds the opaque identifier described in spec.md §3.1. Line and
// column numbers are 0-based, matching tree-sitter's convention throughout
// the pipeline.
func Format(kind, path string, startLine, startCol, endLine, endCol int, name string) string {
	return fmt.Sprintf("%s:%s:%d:%d:%d:%d:%s", kind, path, startLine, startCol, endLine, endCol, name)
}

// Reference formats a ReferenceId. References share the token format but are
// never confused with a Definition's SymbolId because the kind segment is
// always "ref".
func Reference(path string, startLine, startCol, endLine, endCol int, name string) string {
	return Format("ref", path, startLine, startCol, endLine, endCol, name)
}
