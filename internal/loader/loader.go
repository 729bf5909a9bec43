// Package loader is the Source Loader (C2): it turns a path string into
// raw module text, either from the embedded "@std/" builtin set or from
// the local filesystem. Grounded on lib/qwxl/src/pipeline/loader.rs and
// spec.md §4.2. Loader results are memoized through an internal/store.Store
// so repeated loads of the same path share one string (spec.md §3
// "Content strings are created on first load and never mutated").
package loader

import (
	"embed"
	"os"
	"path/filepath"

	"github.com/qwexsh/qwex/internal/ast"
	"github.com/qwexsh/qwex/internal/errs"
	"github.com/qwexsh/qwex/internal/store"
)

//go:embed std/*.yaml
var stdFS embed.FS

// stdBuiltins is the closed set of "@std/" names, per spec.md §4.2.
var stdBuiltins = map[string]string{
	"log":   "std/log.yaml",
	"steps": "std/steps.yaml",
	"test":  "std/test.yaml",
	"utils": "std/utils.yaml",
}

// bareName strips an optional ".yaml"/".yml" suffix, per spec.md §4.2
// ("accepting the bare name or a .yaml / .yml suffix").
func bareName(name string) string {
	switch filepath.Ext(name) {
	case ".yaml", ".yml":
		return name[:len(name)-len(filepath.Ext(name))]
	default:
		return name
	}
}

// Loader reads raw module text for local paths and "@std/" builtins.
type Loader struct {
	content *store.Store[string, string]
}

// New returns a Loader backed by a fresh content store.
func New() *Loader {
	return &Loader{content: store.New[string, string]()}
}

// Load returns the raw text for path, memoized across calls.
func (l *Loader) Load(path string) (string, error) {
	return store.QueryOrCompute(l.content, path, func() (string, error) {
		kind, rest := ast.ClassifyResource(path)
		switch kind {
		case ast.ResourceBuiltIn:
			return loadBuiltin(rest)
		case ast.ResourceRemote:
			return "", &errs.UnsupportedFormatError{Path: path}
		default:
			return loadLocal(path)
		}
	})
}

func loadBuiltin(name string) (string, error) {
	embedPath, ok := stdBuiltins[bareName(name)]
	if !ok {
		return "", &errs.ImportNotFoundError{Reference: ast.StdPrefix + name}
	}
	b, err := stdFS.ReadFile(embedPath)
	if err != nil {
		return "", &errs.InternalError{Invariant: "embedded builtin missing: " + embedPath}
	}
	return string(b), nil
}

func loadLocal(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", &errs.IOError{Path: path, Err: err}
	}
	return string(b), nil
}
