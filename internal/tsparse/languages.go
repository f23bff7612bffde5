// Package tsparse wraps github.com/smacker/go-tree-sitter for the five
// grammars Ariadne supports, and provides incremental re-parse support
// (spec.md §5 "Suspension points", §6 add_or_update_file).
package tsparse

import (
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Canonical language names, matching spec.md §1's supported-language list.
const (
	TypeScript = "typescript"
	TSX        = "tsx"
	JavaScript = "javascript"
	Python     = "python"
	Rust       = "rust"
)

// extToLanguage maps recognized file extensions to canonical language
// names. JSX files parse with the JavaScript grammar's JSX support; TSX
// files need the dedicated tsx grammar since plain TypeScript's grammar
// rejects JSX syntax.
var extToLanguage = map[string]string{
	".ts":  TypeScript,
	".mts": TypeScript,
	".cts": TypeScript,
	".tsx": TSX,
	".js":  JavaScript,
	".jsx": JavaScript,
	".mjs": JavaScript,
	".cjs": JavaScript,
	".py":  Python,
	".pyi": Python,
	".rs":  Rust,
}

var (
	grammarsOnce  sync.Once
	langToGrammar map[string]*sitter.Language
)

func initGrammars() {
	grammarsOnce.Do(func() {
		langToGrammar = map[string]*sitter.Language{
			TypeScript: typescript.GetLanguage(),
			TSX:        tsx.GetLanguage(),
			JavaScript: javascript.GetLanguage(),
			Python:     python.GetLanguage(),
			Rust:       rust.GetLanguage(),
		}
	})
}

// LanguageForPath returns the canonical language name for a file path based
// on its extension. Returns ("", false) for unrecognized extensions.
func LanguageForPath(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	lang, ok := extToLanguage[ext]
	return lang, ok
}

// GrammarFor returns the tree-sitter Language for a canonical language name.
func GrammarFor(lang string) (*sitter.Language, bool) {
	initGrammars()
	g, ok := langToGrammar[lang]
	return g, ok
}

// SupportedLanguages returns the canonical names of every language Ariadne
// can parse, in a fixed order, for CLI help text and diagnostics.
func SupportedLanguages() []string {
	return []string{TypeScript, TSX, JavaScript, Python, Rust}
}
