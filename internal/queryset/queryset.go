// Package queryset holds the declarative, per-language tagged-capture
// query sets described in spec.md §4.1: one tree-sitter query string per
// supported language, using the fixed capture vocabulary
// @definition.<kind>, @reference.<kind>, @scope, @import.<kind>, @write,
// @type. ScopeIndexer compiles and executes these; this package defines
// what they capture, not how they run.
package queryset

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/CRJFisher/ariadne-sub020/internal/tsparse"
)

// Source maps canonical language names to their raw query text.
var Source = map[string]string{
	tsparse.TypeScript: typescriptQuery,
	tsparse.TSX:         tsxQuery,
	tsparse.JavaScript:  javascriptQuery,
	tsparse.Python:      pythonQuery,
	tsparse.Rust:        rustQuery,
}

// Compiled is a language's query string compiled against its grammar,
// ready for repeated execution by sitter.QueryCursor.
type Compiled struct {
	Language string
	Query    *sitter.Query
}

// Compile builds every language's Compiled query set, failing fast if any
// language's query text doesn't parse against its own grammar — a
// malformed query is a programming error, never a per-file runtime
// condition.
func Compile() (map[string]*Compiled, error) {
	out := make(map[string]*Compiled, len(Source))
	for lang, src := range Source {
		grammar, ok := tsparse.GrammarFor(lang)
		if !ok {
			return nil, fmt.Errorf("queryset: no grammar registered for %q", lang)
		}
		q, err := sitter.NewQuery([]byte(src), grammar)
		if err != nil {
			return nil, fmt.Errorf("queryset: compile %s query: %w", lang, err)
		}
		out[lang] = &Compiled{Language: lang, Query: q}
	}
	return out, nil
}

// CaptureKind splits a capture name like "definition.function" or
// "reference.call" into its prefix ("definition"/"reference"/"import") and
// the kind suffix used to tag the resulting Definition/Reference/Import
// row. Captures with no dot ("scope", "write", "type") return ("", name).
func CaptureKind(captureName string) (prefix, kind string) {
	for i := 0; i < len(captureName); i++ {
		if captureName[i] == '.' {
			return captureName[:i], captureName[i+1:]
		}
	}
	return "", captureName
}
