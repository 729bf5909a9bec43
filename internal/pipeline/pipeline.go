// Package pipeline is the Pipeline Orchestrator (C7): it owns the Config
// and every shared store, and exposes Compile, which drives parse ->
// resolve -> render-all -> emit and returns the final script as a string.
// Grounded on lib/qwxl/src/pipeline.rs's Pipeline struct.
package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/qwexsh/qwex/internal/ast"
	"github.com/qwexsh/qwex/internal/config"
	"github.com/qwexsh/qwex/internal/emitter"
	"github.com/qwexsh/qwex/internal/errs"
	"github.com/qwexsh/qwex/internal/loader"
	"github.com/qwexsh/qwex/internal/renderer"
	"github.com/qwexsh/qwex/internal/resolver"
	"github.com/qwexsh/qwex/internal/store"
)

// Pipeline wires the Content Store, Loader, Resolver, Renderer, and
// Emitter into one compile() call over a Config.
type Pipeline struct {
	Config   *config.Config
	Loader   *loader.Loader
	Resolver *resolver.Resolver
	Renderer *renderer.Renderer
	Emitter  *emitter.Emitter
	Tasks    *store.Store[uint64, *ast.TaskNode]
}

// New wires a fresh Pipeline from cfg. Every stage shares the same
// content/metamodule/alias/task stores for the lifetime of this instance.
func New(cfg *config.Config) *Pipeline {
	l := loader.New()
	res := resolver.New(l, cfg.Features)
	tasks := store.New[uint64, *ast.TaskNode]()
	rnd := renderer.New(res.MetaModules, tasks)
	rnd.MaxUsesChainDepth = cfg.MaxUsesChainDepth
	em := emitter.New(rnd, res.Aliases, res.MetaModules, tasks)

	return &Pipeline{
		Config:   cfg,
		Loader:   l,
		Resolver: res,
		Renderer: rnd,
		Emitter:  em,
		Tasks:    tasks,
	}
}

// Compile resolves sourcePath into the root module under Config.RootAlias,
// renders every reachable task, and emits the final shell script.
func (p *Pipeline) Compile(sourcePath string) (string, error) {
	if _, err := p.Resolver.ResolveRoot(sourcePath, p.Config.RootAlias); err != nil {
		return "", err
	}
	return p.Emitter.Emit(p.Config.RootAlias)
}

// diagnosticDump is the shape written to <build_dir>/cache/<hex>-<uuid>.ron
// (see WriteDiagnostics; the file is not named <hex>.ron alone):
// informational only, never read back by the
// pipeline. No Go RON encoder exists anywhere in the example corpus, so
// this uses encoding/json while keeping the ".ron" extension for interface
// parity with spec.md -- see DESIGN.md.
type diagnosticDump struct {
	RootAlias   string            `json:"root_alias"`
	Aliases     map[string]uint64 `json:"aliases"`
	MetaModules []metaModuleDump  `json:"metamodules"`
	Tasks       []taskNodeDump    `json:"tasks"`
}

type metaModuleDump struct {
	Hash  uint64 `json:"hash"`
	Tasks int    `json:"task_count"`
}

type taskNodeDump struct {
	Hash  uint64   `json:"hash"`
	Alias string   `json:"alias"`
	Cmd   string   `json:"cmd"`
	Deps  []uint64 `json:"deps"`
}

// WriteDiagnostics writes the informational store dump named after the
// root MetaModule's content hash and a random suffix (google/uuid),
// mirroring turborepo's own per-run cache-dump naming scheme.
func (p *Pipeline) WriteDiagnostics() (string, error) {
	rootHash, ok := p.Resolver.Aliases.Get(p.Config.RootAlias)
	if !ok {
		return "", &errs.ModuleNotFoundError{Reference: p.Config.RootAlias}
	}

	dump := diagnosticDump{RootAlias: p.Config.RootAlias, Aliases: map[string]uint64{}}
	for _, alias := range p.Resolver.Aliases.Keys() {
		hash, _ := p.Resolver.Aliases.Get(alias)
		dump.Aliases[alias] = hash
	}
	for _, hash := range p.Resolver.MetaModules.Keys() {
		mm, _ := p.Resolver.MetaModules.Get(hash)
		dump.MetaModules = append(dump.MetaModules, metaModuleDump{Hash: hash, Tasks: mm.Module.Tasks.Len()})
	}
	for _, hash := range p.Tasks.Keys() {
		node, _ := p.Tasks.Get(hash)
		var deps []uint64
		deps = append(deps, node.DepOrder...)
		dump.Tasks = append(dump.Tasks, taskNodeDump{Hash: hash, Alias: node.Alias, Cmd: node.Cmd, Deps: deps})
	}

	if err := os.MkdirAll(p.Config.CacheDir(), 0o755); err != nil {
		return "", &errs.IOError{Path: p.Config.CacheDir(), Err: err}
	}

	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return "", &errs.InternalError{Invariant: fmt.Sprintf("diagnostic dump serialization: %v", err)}
	}

	name := fmt.Sprintf("%x-%s.ron", rootHash, uuid.New().String())
	path := filepath.Join(p.Config.CacheDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", &errs.IOError{Path: path, Err: err}
	}
	return path, nil
}

// Clean removes the qwex home directory recursively, per SPEC_FULL.md §7.2
// porting Pipeline::clean() from lib/qwxl/src/pipeline.rs.
func (p *Pipeline) Clean() error {
	if err := os.RemoveAll(p.Config.Home); err != nil {
		return &errs.IOError{Path: p.Config.Home, Err: err}
	}
	return nil
}
