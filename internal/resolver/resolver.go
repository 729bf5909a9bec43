// Package resolver is the Module Graph Resolver (C4): it canonicalizes
// symbolic "uses:" imports, detects cycles with an explicit recursion
// stack, and rewrites each Define(string) import into a Hash(u64)
// reference once the imported module is fully parsed and stored. Grounded
// on lib/qwxl/src/pipeline/resolver.rs's resolve_module and spec.md §4.4.
package resolver

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/qwexsh/qwex/internal/ast"
	"github.com/qwexsh/qwex/internal/errs"
	"github.com/qwexsh/qwex/internal/hashing"
	"github.com/qwexsh/qwex/internal/loader"
	"github.com/qwexsh/qwex/internal/parser"
	"github.com/qwexsh/qwex/internal/store"
)

// Resolver drives import resolution into the shared Stores, per spec.md
// §3's metamodules/aliases/sources stores.
type Resolver struct {
	Loader      *loader.Loader
	MetaModules *store.Store[uint64, *ast.MetaModule]
	Aliases     *store.Store[string, uint64]
	Sources     *store.Store[uint64, string]

	features string
	stack    []uint64
	onStack  map[uint64]bool
}

// New returns a Resolver that applies the given comma-delimited feature
// string when merging the root source file (spec.md §4.3, §6).
func New(l *loader.Loader, features string) *Resolver {
	return &Resolver{
		Loader:      l,
		MetaModules: store.New[uint64, *ast.MetaModule](),
		Aliases:     store.New[string, uint64](),
		Sources:     store.New[uint64, string](),
		features:    features,
		onStack:     make(map[uint64]bool),
	}
}

// ResolveRoot resolves the root source file, registering it under
// rootAlias, per spec.md §4.4's entry point.
func (r *Resolver) ResolveRoot(path, rootAlias string) (*ast.MetaModule, error) {
	return r.resolve(path, &rootAlias, nil)
}

// resolve implements one resolution job (path, alias?, parent_alias?).
func (r *Resolver) resolve(path string, alias *string, parentAlias *string) (*ast.MetaModule, error) {
	canonical, kind, err := canonicalize(path)
	if err != nil {
		return nil, err
	}
	if kind == ast.ResourceRemote {
		return nil, &errs.UnsupportedFormatError{Path: path}
	}

	text, err := r.Loader.Load(canonical)
	if err != nil {
		return nil, err
	}
	hash := hashing.ContentHash(text)

	if alias != nil {
		if err := r.registerAlias(*alias, hash); err != nil {
			return nil, err
		}
	}
	r.Sources.Insert(hash, canonical)

	if mm, ok := r.MetaModules.Get(hash); ok {
		return mm, nil
	}

	if r.onStack[hash] {
		return nil, &errs.CyclicDependencyError{Cycle: r.cycleFrom(hash)}
	}
	r.stack = append(r.stack, hash)
	r.onStack[hash] = true
	defer func() {
		delete(r.onStack, hash)
		r.stack = r.stack[:len(r.stack)-1]
	}()

	mod, err := parser.LoadSource(text, canonical)
	if err != nil {
		return nil, err
	}

	// Features apply only to the entry point: a resolution job has a nil
	// parent_alias exactly when it is the root call (spec.md §4.3, §4.4).
	isRoot := parentAlias == nil
	merged := parser.MergeFeatures(mod, isRoot, r.features)

	var curAlias *string
	switch {
	case alias != nil:
		curAlias = alias
	default:
		curAlias = parentAlias
	}

	if err := r.resolveUsesRecursive(merged, canonical, curAlias); err != nil {
		return nil, err
	}

	mm := &ast.MetaModule{Module: merged, Hash: hash}
	r.MetaModules.Insert(hash, mm)
	return mm, nil
}

// resolveUsesRecursive rewrites m's own "uses:", every one of m's tasks'
// "uses:" sugar (spec.md §4.5.2), and then walks every nested submodule (to
// any depth) doing the same, so a "uses:" on a submodule-of-a-submodule or
// on a task buried in one resolves exactly like one on the top-level
// module.
func (r *Resolver) resolveUsesRecursive(m *ast.Module, importingPath string, parentAlias *string) error {
	resolved, err := r.resolveUseRef(m.Uses, importingPath, parentAlias)
	if err != nil {
		return err
	}
	m.Uses = resolved

	for _, k := range m.Tasks.Keys() {
		task, _ := m.Tasks.Get(k)
		resolved, err := r.resolveUseRef(task.Uses, importingPath, parentAlias)
		if err != nil {
			return err
		}
		task.Uses = resolved
	}

	for _, k := range m.Modules.Keys() {
		sub, _ := m.Modules.Get(k)
		if err := r.resolveUsesRecursive(sub, importingPath, parentAlias); err != nil {
			return err
		}
	}
	return nil
}

// resolveUseRef rewrites ref from Define to Hash, if set; a nil ref or one
// already in Hash form is returned unchanged.
func (r *Resolver) resolveUseRef(ref *ast.UseRef, importingPath string, parentAlias *string) (*ast.UseRef, error) {
	if ref == nil || ref.Kind != ast.RefDefine {
		return ref, nil
	}
	importPath, err := r.resolveImportString(ref.Define, importingPath)
	if err != nil {
		return nil, err
	}
	imported, err := r.resolve(importPath, nil, parentAlias)
	if err != nil {
		return nil, err
	}
	return ast.NewHash(imported.Hash), nil
}

// resolveImportString resolves an import string against the importing
// file's directory for local paths, per spec.md §4.4 step 6; @std/
// references are kept literal.
func (r *Resolver) resolveImportString(importStr, importingPath string) (string, error) {
	kind, _ := ast.ClassifyResource(importStr)
	switch kind {
	case ast.ResourceBuiltIn:
		return importStr, nil
	case ast.ResourceRemote:
		return "", &errs.UnsupportedFormatError{Path: importStr}
	default:
		dir := filepath.Dir(importingPath)
		joined := filepath.Join(dir, importStr)
		abs, err := filepath.Abs(joined)
		if err != nil {
			return "", &errs.ImportNotFoundError{Reference: importStr}
		}
		return abs, nil
	}
}

// registerAlias binds alias -> hash, per spec.md §7's AliasAlreadyExists /
// InvalidAliasFormat kinds: an alias may not contain '.', and may not be
// re-bound to a different hash than the one it already holds (re-binding
// to the same hash is a no-op, since the root alias is allowed to be set
// once on entry and submodule aliases are set once per spec.md §3).
func (r *Resolver) registerAlias(alias string, hash uint64) error {
	if strings.Contains(alias, ".") {
		return &errs.InvalidAliasFormatError{Alias: alias, Reason: "alias must not contain '.'"}
	}
	if existing, ok := r.Aliases.Get(alias); ok {
		if existing != hash {
			return &errs.AliasAlreadyExistsError{Alias: alias}
		}
		return nil
	}
	r.Aliases.Insert(alias, hash)
	return nil
}

// cycleFrom builds the human-readable cycle path (source paths, in walk
// order) for the CyclicDependencyError, using the resolution stack and the
// sources reverse lookup.
func (r *Resolver) cycleFrom(hash uint64) []string {
	idx := -1
	for i, h := range r.stack {
		if h == hash {
			idx = i
			break
		}
	}
	var cycle []string
	pathOf := func(h uint64) string {
		if p, ok := r.Sources.Get(h); ok {
			return p
		}
		return fmt.Sprintf("0x%x", h)
	}
	if idx >= 0 {
		for _, h := range r.stack[idx:] {
			cycle = append(cycle, pathOf(h))
		}
	}
	cycle = append(cycle, pathOf(hash))
	return cycle
}

// canonicalize resolves a local path to its absolute form; @std/ and
// remote references are returned literally alongside their classification.
func canonicalize(path string) (string, ast.ResourceKind, error) {
	kind, _ := ast.ClassifyResource(path)
	if kind != ast.ResourceLocal {
		return path, kind, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", kind, &errs.ImportNotFoundError{Reference: path}
	}
	return abs, kind, nil
}
