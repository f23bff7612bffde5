// Package modpath translates an import's textual module path to a concrete
// file path, per language (spec.md §4.2). Resolution never errors: an
// import that cannot be resolved is simply reported as external/unresolved
// so the caller can record a null target (spec.md: "they never raise
// errors").
package modpath

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/CRJFisher/ariadne-sub020/internal/tsparse"
)

// StatFunc abstracts filesystem existence checks so tests can substitute an
// in-memory project layout without touching disk.
type StatFunc func(path string) bool

// osStat is the default StatFunc, backed by os.Stat.
func osStat(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Resolver resolves import module paths to absolute file paths within a
// project rooted at Root.
type Resolver struct {
	Root string
	Stat StatFunc
}

// NewResolver creates a Resolver rooted at root, using the real filesystem.
func NewResolver(root string) *Resolver {
	return &Resolver{Root: root, Stat: osStat}
}

func (r *Resolver) stat(path string) bool {
	if r.Stat != nil {
		return r.Stat(path)
	}
	return osStat(path)
}

// Resolve resolves sourceModule, imported from a file at importingFile
// written in language lang, to an absolute path. Returns ("", false) when
// the import is external or otherwise cannot be resolved.
func (r *Resolver) Resolve(lang, importingFile, sourceModule string) (string, bool) {
	switch lang {
	case tsparse.TypeScript, tsparse.TSX, tsparse.JavaScript:
		return r.resolveJS(importingFile, sourceModule)
	case tsparse.Python:
		return r.resolvePython(importingFile, sourceModule)
	case tsparse.Rust:
		return r.resolveRust(importingFile, sourceModule)
	default:
		return "", false
	}
}

// jsExtensions is the fixed try-order from spec.md §4.2.
var jsExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}

func (r *Resolver) resolveJS(importingFile, source string) (string, bool) {
	if !strings.HasPrefix(source, "./") && !strings.HasPrefix(source, "../") {
		return r.resolveJSPackageBoundary(importingFile, source)
	}

	base := filepath.Join(filepath.Dir(importingFile), source)

	// Already has a recognized extension.
	if hasAnyExt(base, jsExtensions) && r.stat(base) {
		return base, true
	}

	for _, ext := range jsExtensions {
		candidate := base + ext
		if r.stat(candidate) {
			return candidate, true
		}
	}
	for _, ext := range jsExtensions {
		candidate := filepath.Join(base, "index"+ext)
		if r.stat(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// resolveJSPackageBoundary resolves a bare specifier ("react", "@scope/pkg")
// by walking up from importingFile looking for a node_modules/<specifier>
// directory — the "package boundary" spec.md §4.2 refers to. Anything not
// found this way is external.
func (r *Resolver) resolveJSPackageBoundary(importingFile, source string) (string, bool) {
	dir := filepath.Dir(importingFile)
	for {
		candidateDir := filepath.Join(dir, "node_modules", source)
		for _, ext := range jsExtensions {
			candidate := filepath.Join(candidateDir, "index"+ext)
			if r.stat(candidate) {
				return candidate, true
			}
		}
		if dir == r.Root || dir == filepath.Dir(dir) {
			break
		}
		dir = filepath.Dir(dir)
	}
	return "", false
}

func hasAnyExt(path string, exts []string) bool {
	ext := filepath.Ext(path)
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// resolvePython implements spec.md §4.2's Python rule: leading-dot count N
// means "go up N-1 directories from the importing file's package"; dotted
// tails map to directory segments; the final segment matches either
// "<seg>.py" or "<seg>/__init__.py"; an absolute import (no leading dot)
// resolves relative to the project root.
func (r *Resolver) resolvePython(importingFile, module string) (string, bool) {
	dots := 0
	for dots < len(module) && module[dots] == '.' {
		dots++
	}
	tail := module[dots:]

	var baseDir string
	if dots == 0 {
		baseDir = r.Root
	} else {
		baseDir = filepath.Dir(importingFile)
		for i := 1; i < dots; i++ {
			baseDir = filepath.Dir(baseDir)
		}
	}

	if tail == "" {
		return r.pythonPackageDir(baseDir)
	}

	segments := strings.Split(tail, ".")
	dir := baseDir
	for _, seg := range segments[:len(segments)-1] {
		dir = filepath.Join(dir, seg)
	}
	last := segments[len(segments)-1]

	if candidate := filepath.Join(dir, last+".py"); r.stat(candidate) {
		return candidate, true
	}
	if candidate := filepath.Join(dir, last, "__init__.py"); r.stat(candidate) {
		return candidate, true
	}
	return "", false
}

func (r *Resolver) pythonPackageDir(dir string) (string, bool) {
	candidate := filepath.Join(dir, "__init__.py")
	if r.stat(candidate) {
		return candidate, true
	}
	return "", false
}

// resolveRust implements spec.md §4.2's Rust rule: crate:: anchors at the
// crate root (the directory containing Cargo.toml, then src/); super::
// moves up one module; a segment resolves to "<seg>.rs" or "<seg>/mod.rs".
func (r *Resolver) resolveRust(importingFile, path string) (string, bool) {
	segments := strings.Split(path, "::")
	if len(segments) == 0 {
		return "", false
	}

	var dir string
	start := 0
	switch segments[0] {
	case "crate":
		root, ok := r.findCrateRoot(importingFile)
		if !ok {
			return "", false
		}
		dir = filepath.Join(root, "src")
		start = 1
	case "super":
		dir = filepath.Dir(filepath.Dir(importingFile))
		start = 1
		for start < len(segments) && segments[start] == "super" {
			dir = filepath.Dir(dir)
			start++
		}
	case "self":
		dir = filepath.Dir(importingFile)
		start = 1
	default:
		dir = filepath.Dir(importingFile)
	}

	for start < len(segments)-1 {
		dir = filepath.Join(dir, segments[start])
		start++
	}
	if start >= len(segments) {
		return r.rustModuleFile(dir)
	}
	last := segments[start]
	if candidate := filepath.Join(dir, last+".rs"); r.stat(candidate) {
		return candidate, true
	}
	if candidate := filepath.Join(dir, last, "mod.rs"); r.stat(candidate) {
		return candidate, true
	}
	return "", false
}

func (r *Resolver) rustModuleFile(dir string) (string, bool) {
	if candidate := filepath.Join(dir, "mod.rs"); r.stat(candidate) {
		return candidate, true
	}
	return "", false
}

// findCrateRoot walks up from importingFile looking for a Cargo.toml.
func (r *Resolver) findCrateRoot(importingFile string) (string, bool) {
	dir := filepath.Dir(importingFile)
	for {
		if r.stat(filepath.Join(dir, "Cargo.toml")) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
