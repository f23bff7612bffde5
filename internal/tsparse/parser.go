package tsparse

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

// Parsed holds the result of parsing one file version: its syntax tree and
// the source bytes the tree's byte ranges index into. Source must be kept
// alive alongside Tree since tree-sitter nodes are range pointers into it.
type Parsed struct {
	Tree     *sitter.Tree
	Source   []byte
	Language string
}

// Close releases the underlying tree-sitter tree. Safe to call on a zero
// value.
func (p *Parsed) Close() {
	if p != nil && p.Tree != nil {
		p.Tree.Close()
	}
}

// Edit describes a single text-replacement applied to a previously parsed
// file, used to drive tree-sitter's incremental re-parse (spec.md §5).
// Offsets and points are all in the OLD source's coordinate space, as
// tree-sitter requires.
type Edit struct {
	StartByte   uint32
	OldEndByte  uint32
	NewEndByte  uint32
	StartPoint  sitter.Point
	OldEndPoint sitter.Point
	NewEndPoint sitter.Point
}

// Parser parses source files with the grammar selected by language or file
// extension. One Parser may be shared by multiple goroutines: each Parse
// call borrows a fresh *sitter.Parser from an internal pool keyed by
// language so concurrent per-file workers (spec.md §5) never contend on a
// single grammar's internal state.
type Parser struct {
	mu   sync.Mutex
	pool map[string][]*sitter.Parser
}

// NewParser creates a Parser ready to parse any of SupportedLanguages.
func NewParser() *Parser {
	return &Parser{pool: make(map[string][]*sitter.Parser)}
}

func (p *Parser) borrow(lang string) (*sitter.Parser, error) {
	grammar, ok := GrammarFor(lang)
	if !ok {
		return nil, fmt.Errorf("tsparse: unsupported language %q", lang)
	}
	p.mu.Lock()
	if stack := p.pool[lang]; len(stack) > 0 {
		sp := stack[len(stack)-1]
		p.pool[lang] = stack[:len(stack)-1]
		p.mu.Unlock()
		return sp, nil
	}
	p.mu.Unlock()
	sp := sitter.NewParser()
	sp.SetLanguage(grammar)
	return sp, nil
}

func (p *Parser) release(lang string, sp *sitter.Parser) {
	p.mu.Lock()
	p.pool[lang] = append(p.pool[lang], sp)
	p.mu.Unlock()
}

// ParseFile parses source under the language inferred from path's
// extension. Returns an error for unrecognized extensions (spec.md §7
// "unsupported language" disposition — callers skip the file).
func (p *Parser) ParseFile(ctx context.Context, path string, source []byte) (*Parsed, error) {
	lang, ok := LanguageForPath(path)
	if !ok {
		return nil, fmt.Errorf("tsparse: %s: unrecognized extension", path)
	}
	return p.Parse(ctx, lang, source)
}

// Parse parses source under the given canonical language name.
func (p *Parser) Parse(ctx context.Context, lang string, source []byte) (*Parsed, error) {
	sp, err := p.borrow(lang)
	if err != nil {
		return nil, err
	}
	defer p.release(lang, sp)

	tree, err := sp.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("tsparse: parse %s: %w", lang, err)
	}
	return &Parsed{Tree: tree, Source: source, Language: lang}, nil
}

// Reparse applies edits to prev's tree and parses newSource incrementally,
// reusing unchanged subtrees (spec.md §5). prev is consumed: callers must
// not use prev after this call and should not call prev.Close().
func (p *Parser) Reparse(ctx context.Context, prev *Parsed, edits []Edit, newSource []byte) (*Parsed, error) {
	for _, e := range edits {
		prev.Tree.Edit(sitter.EditInput{
			StartIndex:  e.StartByte,
			OldEndIndex: e.OldEndByte,
			NewEndIndex: e.NewEndByte,
			StartPoint:  e.StartPoint,
			OldEndPoint: e.OldEndPoint,
			NewEndPoint: e.NewEndPoint,
		})
	}

	sp, err := p.borrow(prev.Language)
	if err != nil {
		return nil, err
	}
	defer p.release(prev.Language, sp)

	tree, err := sp.ParseCtx(ctx, prev.Tree, newSource)
	if err != nil {
		return nil, fmt.Errorf("tsparse: reparse %s: %w", prev.Language, err)
	}
	prev.Tree.Close()
	return &Parsed{Tree: tree, Source: newSource, Language: prev.Language}, nil
}
