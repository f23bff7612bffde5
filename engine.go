// Package ariadne resolves identifiers to their definitions across a
// multi-language project (TypeScript, TSX, JavaScript, Python, Rust),
// building per-file ScopeGraphs and a project-wide CallGraph with
// entry-point detection.
package ariadne

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	lru "github.com/hashicorp/golang-lru/v2"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/CRJFisher/ariadne-sub020/internal/indexing"
	"github.com/CRJFisher/ariadne-sub020/internal/store"
	"github.com/CRJFisher/ariadne-sub020/internal/symbolid"
	"github.com/CRJFisher/ariadne-sub020/internal/tsparse"
)

// graphCacheSize bounds the in-memory ScopeGraph cache so a large project
// doesn't hold every file's parsed tree resident at once (spec.md §5's
// "per-file cache is owned exclusively by the project instance").
const graphCacheSize = 2048

// Project is one indexed codebase: the SQLite-backed per-file cache plus
// an in-memory ScopeGraph cache for the files most recently touched.
type Project struct {
	store  *store.Store
	parser *tsparse.Parser
	index  *indexing.Indexer

	root        string
	skipGlobs   []string
	graphs      *lru.Cache[string, *indexing.ScopeGraph]
	graphsMu    sync.Mutex
	trees       *lru.Cache[string, *tsparse.Parsed] // prior syntax tree per file, for incremental reparse (spec.md §4.6)
	treesMu     sync.Mutex
	blastRadius map[int64]bool // nil means "resolve everything"
}

// Option configures a Project.
type Option func(*Project)

// WithSkipGlobs sets doublestar glob patterns (matched against paths
// relative to root) that IndexDirectory's filesystem-walk fallback
// excludes, in addition to its built-in node_modules/vendor/__pycache__/
// dot-directory skips.
func WithSkipGlobs(globs ...string) Option {
	return func(p *Project) { p.skipGlobs = globs }
}

// NewProject creates a Project backed by a SQLite database at dbPath,
// rooted at root for module-path resolution (spec.md §4.2).
func NewProject(dbPath, root string, opts ...Option) (*Project, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("ariadne: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("ariadne: migrate: %w", err)
	}

	ix, err := indexing.NewIndexer()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("ariadne: compile query sets: %w", err) // fatal at project init, spec.md §7
	}

	cache, err := lru.New[string, *indexing.ScopeGraph](graphCacheSize)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("ariadne: create graph cache: %w", err)
	}

	// No eviction callback: Reparse itself closes the prior tree it
	// consumes (see takeTree), so an evict-on-remove callback here would
	// double-close it. Capacity-pressure evictions of a tree still
	// resident for an unedited file simply fall back to a full parse
	// next time (same outcome as never having cached it).
	trees, err := lru.New[string, *tsparse.Parsed](graphCacheSize)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("ariadne: create tree cache: %w", err)
	}

	p := &Project{
		store:  s,
		parser: tsparse.NewParser(),
		index:  ix,
		root:   root,
		graphs: cache,
		trees:  trees,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Close releases the Project's database resources.
func (p *Project) Close() error {
	p.treesMu.Lock()
	for _, path := range p.trees.Keys() {
		if parsed, ok := p.trees.Peek(path); ok {
			parsed.Close()
		}
	}
	p.trees.Purge()
	p.treesMu.Unlock()
	return p.store.Close()
}

// Store exposes the underlying store for the discovery/query supplement.
func (p *Project) Store() *store.Store {
	return p.store
}

// Point is a zero-based (row, column) source position (spec.md §6).
type Point struct {
	Row    int
	Column int
}

// Edit describes an incremental source edit, used to reparse a file
// in-place instead of from scratch (spec.md §6).
type Edit struct {
	StartByte    uint32
	OldEndByte   uint32
	NewEndByte   uint32
	StartPoint   Point
	OldEndPoint  Point
	NewEndPoint  Point
}

// AddOrUpdateFile indexes (or re-indexes) one file's content, persisting
// its ScopeGraph to the store and accumulating the blast radius of other
// files that need re-resolution (spec.md §6, §4.6). It does not itself
// resolve references; call Resolve afterward.
func (p *Project) AddOrUpdateFile(ctx context.Context, path, content string, edit *Edit) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	lang, ok := tsparse.LanguageForPath(path)
	if !ok {
		return nil // unsupported extension: not an error (spec.md §6 language gate)
	}

	hash := fmt.Sprintf("%x", sha256.Sum256([]byte(content)))
	existing, err := p.store.FileByPath(path)
	if err != nil {
		return fmt.Errorf("ariadne: lookup file: %w", err)
	}
	if existing != nil && existing.Hash == hash {
		return nil // unchanged (spec.md §4.6 change detection)
	}

	var oldDefs []*store.Definition
	if existing != nil {
		oldDefs, err = p.store.DefinitionsByFile(existing.ID)
		if err != nil {
			return fmt.Errorf("ariadne: capture old definitions: %w", err)
		}
		if err := p.store.DeleteFileData(existing.ID); err != nil {
			return fmt.Errorf("ariadne: delete old data: %w", err)
		}
	}

	parsed, err := p.parseFile(ctx, path, lang, content, edit)
	if err != nil {
		return fmt.Errorf("ariadne: parse: %w", err)
	}
	keepTree := false
	defer func() {
		if !keepTree {
			parsed.Close()
		}
	}()

	graph, err := p.index.Index(path, parsed)
	if err != nil {
		return fmt.Errorf("ariadne: index: %w", err) // internal invariant violation, spec.md §7
	}

	lineCount := bytes.Count([]byte(content), []byte{'\n'}) + 1
	fileID, err := p.store.InsertFile(&store.File{
		Path: path, Language: lang, Hash: hash, LineCount: lineCount,
	})
	if err != nil {
		return fmt.Errorf("ariadne: insert file: %w", err)
	}

	if err := p.commitGraph(fileID, path, graph); err != nil {
		return fmt.Errorf("ariadne: commit graph: %w", err)
	}

	p.cacheGraph(path, graph)
	p.cacheTree(path, parsed)
	keepTree = true

	newDefs, err := p.store.DefinitionsByFile(fileID)
	if err != nil {
		return fmt.Errorf("ariadne: capture new definitions: %w", err)
	}
	p.accumulateBlastRadius(fileID, oldDefs, newDefs)

	return nil
}

// parseFile reparses incrementally when edit and a cached prior tree for
// path are both available; otherwise parses from scratch (spec.md §4.6:
// "the parser is re-invoked with the old tree for incremental re-parsing").
func (p *Project) parseFile(ctx context.Context, path, lang, content string, edit *Edit) (*tsparse.Parsed, error) {
	if edit != nil {
		if prev, ok := p.takeTree(path); ok {
			tsEdit := tsparse.Edit{
				StartByte:   edit.StartByte,
				OldEndByte:  edit.OldEndByte,
				NewEndByte:  edit.NewEndByte,
				StartPoint:  sitter.Point{Row: uint32(edit.StartPoint.Row), Column: uint32(edit.StartPoint.Column)},
				OldEndPoint: sitter.Point{Row: uint32(edit.OldEndPoint.Row), Column: uint32(edit.OldEndPoint.Column)},
				NewEndPoint: sitter.Point{Row: uint32(edit.NewEndPoint.Row), Column: uint32(edit.NewEndPoint.Column)},
			}
			parsed, err := p.parser.Reparse(ctx, prev, []tsparse.Edit{tsEdit}, []byte(content))
			if err != nil {
				return nil, err
			}
			return parsed, nil
		}
		// No cached prior tree for this path (first index, or evicted from
		// the bounded tree cache): fall back to a full parse.
	}
	return p.parser.Parse(ctx, lang, []byte(content))
}

func (p *Project) cacheGraph(path string, graph *indexing.ScopeGraph) {
	p.graphsMu.Lock()
	defer p.graphsMu.Unlock()
	p.graphs.Add(path, graph)
}

// cacheTree retains parsed as path's prior tree for a future incremental
// reparse, closing whatever tree it replaces.
func (p *Project) cacheTree(path string, parsed *tsparse.Parsed) {
	p.treesMu.Lock()
	defer p.treesMu.Unlock()
	if old, ok := p.trees.Peek(path); ok {
		old.Close()
	}
	p.trees.Add(path, parsed)
}

// takeTree removes and returns path's cached prior tree, if any. Reparse
// consumes its prev argument, so the entry must leave the cache before
// being handed off.
func (p *Project) takeTree(path string) (*tsparse.Parsed, bool) {
	p.treesMu.Lock()
	defer p.treesMu.Unlock()
	prev, ok := p.trees.Get(path)
	if ok {
		p.trees.Remove(path)
	}
	return prev, ok
}

// RemoveFile deletes a file's indexed data entirely (spec.md §6).
func (p *Project) RemoveFile(path string) error {
	existing, err := p.store.FileByPath(path)
	if err != nil {
		return fmt.Errorf("ariadne: lookup file: %w", err)
	}
	if existing == nil {
		return nil
	}

	oldDefs, err := p.store.DefinitionsByFile(existing.ID)
	if err != nil {
		return fmt.Errorf("ariadne: capture old definitions: %w", err)
	}

	if err := p.store.DeleteFileData(existing.ID); err != nil {
		return fmt.Errorf("ariadne: delete file data: %w", err)
	}
	if _, err := p.store.DB().Exec("DELETE FROM files WHERE id = ?", existing.ID); err != nil {
		return fmt.Errorf("ariadne: delete file record: %w", err)
	}

	p.graphsMu.Lock()
	p.graphs.Remove(path)
	p.graphsMu.Unlock()

	p.treesMu.Lock()
	if parsed, ok := p.trees.Peek(path); ok {
		parsed.Close()
	}
	p.trees.Remove(path)
	p.treesMu.Unlock()

	var oldIDs []int64
	for _, d := range oldDefs {
		oldIDs = append(oldIDs, d.ID)
	}
	affected, err := p.store.FilesReferencingDefinitions(oldIDs)
	if err == nil {
		p.markBlast(existing.ID)
		for _, fid := range affected {
			p.markBlast(fid)
		}
	}
	_ = p.store.DeleteResolutionDataForDefinitions(oldIDs)

	return nil
}

func (p *Project) markBlast(fileID int64) {
	if p.blastRadius == nil {
		p.blastRadius = make(map[int64]bool)
	}
	p.blastRadius[fileID] = true
}

// accumulateBlastRadius implements the conservative over-approximation of
// spec.md §4.6: the changed file itself, plus every file referencing a
// definition whose signature changed or that was removed. Added
// definitions mark no other file; files importing this file's module are
// not marked on that account.
func (p *Project) accumulateBlastRadius(fileID int64, oldDefs, newDefs []*store.Definition) {
	p.markBlast(fileID)

	changedIDs := make(map[string]bool)
	for _, id := range store.ChangedSignatures(oldDefs, newDefs) {
		changedIDs[id] = true
	}

	newByKey := make(map[string]bool, len(newDefs))
	changedSet := make(map[string]bool)
	for _, d := range newDefs {
		newByKey[d.Name+":"+d.Kind] = true
		if changedIDs[d.SymbolID] {
			changedSet[d.Name+":"+d.Kind] = true
		}
	}

	var affectedIDs []int64
	for _, d := range oldDefs {
		key := d.Name + ":" + d.Kind
		if changedSet[key] || !newByKey[key] {
			affectedIDs = append(affectedIDs, d.ID)
		}
	}
	if len(affectedIDs) > 0 {
		if fids, err := p.store.FilesReferencingDefinitions(affectedIDs); err == nil {
			for _, fid := range fids {
				p.markBlast(fid)
			}
		}
		_ = p.store.DeleteResolutionDataForDefinitions(affectedIDs)
	}
}

// skipDirs are excluded from the filesystem-walk discovery fallback.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
}

// IndexDirectory discovers every source file under root and indexes it.
// When root is inside a git repository, git ls-files is used (respecting
// .gitignore); otherwise a filesystem walk is used, skipping hidden
// directories, node_modules, vendor, __pycache__, and any WithSkipGlobs
// pattern.
func (p *Project) IndexDirectory(ctx context.Context, root string) error {
	paths, err := p.gitListFiles(root)
	if err != nil {
		paths, err = p.walkListFiles(root)
		if err != nil {
			return err
		}
	}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err // cancellation: no partial output surfaced beyond files already committed
		}
		content, err := os.ReadFile(path)
		if err != nil {
			continue // diagnostic-worthy but non-fatal: file disappeared between discovery and read
		}
		if err := p.AddOrUpdateFile(ctx, path, string(content), nil); err != nil {
			continue
		}
	}
	return nil
}

func (p *Project) gitListFiles(root string) ([]string, error) {
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		absPath := filepath.Join(root, line)
		if _, ok := tsparse.LanguageForPath(absPath); ok && !p.isSkipped(root, absPath) {
			paths = append(paths, absPath)
		}
	}
	return paths, nil
}

func (p *Project) walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if strings.HasPrefix(name, ".") || skipDirs[name] {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := tsparse.LanguageForPath(path); ok && !p.isSkipped(root, path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}

func (p *Project) isSkipped(root, path string) bool {
	if len(p.skipGlobs) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	for _, g := range p.skipGlobs {
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
	}
	return false
}
