// Package emitter is the Emitter (C6): it drives the renderer over every
// entry-point task reachable from a root alias, expands their transitive
// dependencies breadth-first with content-hash dedup, and fills the
// shell-script template. Grounded on lib/qwxl/src/pipeline/emitter.rs's
// Emitter::emit and spec.md §4.6.
package emitter

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/qwexsh/qwex/internal/ast"
	"github.com/qwexsh/qwex/internal/errs"
	"github.com/qwexsh/qwex/internal/renderer"
	"github.com/qwexsh/qwex/internal/store"
)

//go:embed templates/script.sh.tmpl
var scriptTemplateSource string

// Entry is one rendered template entry, either a namespaced entry point or
// a hash-derived dependency (spec.md §4.6's naming discipline). Name is the
// human-readable diagnostic alias ("root:hello" / "task_1a2b3c"); ShellName
// is the same string with ':' replaced by '__' so it is always a valid
// POSIX shell function identifier.
type Entry struct {
	Name      string
	ShellName string
	Body      string
}

// entryPointView is the dispatcher row for one root-level task.
type entryPointView struct {
	Command   string
	ShellName string
}

// shellName sanitizes a diagnostic name into a valid shell function
// identifier.
func shellName(name string) string { return strings.ReplaceAll(name, ":", "__") }

// Emitter traverses the root module's tasks and their transitive
// dependencies into a single shell script.
type Emitter struct {
	Renderer    *renderer.Renderer
	Aliases     *store.Store[string, uint64]
	MetaModules *store.Store[uint64, *ast.MetaModule]
	Tasks       *store.Store[uint64, *ast.TaskNode]
}

// New returns an Emitter over the given shared stores and renderer.
func New(rnd *renderer.Renderer, aliases *store.Store[string, uint64], metamodules *store.Store[uint64, *ast.MetaModule], tasks *store.Store[uint64, *ast.TaskNode]) *Emitter {
	return &Emitter{Renderer: rnd, Aliases: aliases, MetaModules: metamodules, Tasks: tasks}
}

// Emit produces the final shell script for rootAlias (spec.md §4.6 step 4).
func (e *Emitter) Emit(rootAlias string) (string, error) {
	hash, ok := e.Aliases.Get(rootAlias)
	if !ok {
		return "", &errs.ModuleNotFoundError{Reference: rootAlias}
	}
	mm, ok := e.MetaModules.Get(hash)
	if !ok {
		return "", &errs.InternalError{Invariant: "alias registered without a corresponding MetaModule"}
	}
	rootCtx := renderer.RootContext(mm, rootAlias)

	emitted := map[uint64]bool{}
	delegated := map[uint64]bool{}
	canonicalShellName := map[uint64]string{}
	var entries []Entry
	var entryPoints []entryPointView
	var queue []*ast.TaskNode

	// Step 2: compile every direct entry-point task in module insertion
	// order and register its hash into the visited set. Open Question #2
	// (spec.md §9) specifies dedup by hash regardless of origin: when two
	// entry points (or an entry point and a transitive dependency) share a
	// hash, only the first-seen body is substantive -- every later name for
	// that hash still needs a dispatcher target, so it gets a thin
	// delegating function rather than silently pointing at an undefined one.
	for _, name := range mm.Module.Tasks.Keys() {
		node, err := e.Renderer.Render(rootCtx, name, nil)
		if err != nil {
			return "", err
		}
		entryName := fmt.Sprintf("%s:%s", rootAlias, name)
		entryShellName := shellName(entryName)
		entryPoints = append(entryPoints, entryPointView{Command: name, ShellName: entryShellName})

		if canonical, ok := canonicalShellName[node.Hash]; ok {
			entries = append(entries, Entry{Name: entryName, ShellName: entryShellName, Body: canonical + " \"$@\""})
			continue
		}
		canonicalShellName[node.Hash] = entryShellName
		emitted[node.Hash] = true
		entries = append(entries, Entry{
			Name:      entryName,
			ShellName: entryShellName,
			Body:      node.Cmd,
		})
		queue = append(queue, node)
	}

	// Step 3: breadth-first expansion of transitive dependencies, named by
	// their content hash so dedup is syntactically manifest.
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, depHash := range cur.DepOrder {
			depName := renderer.TaskIdentifier(depHash)
			if emitted[depHash] {
				// A dependency whose body was emitted under an entry-point
				// name still needs its task_<hex> function.
				if canonical, ok := canonicalShellName[depHash]; ok && !delegated[depHash] {
					delegated[depHash] = true
					entries = append(entries, Entry{Name: depName, ShellName: depName, Body: canonical + " \"$@\""})
				}
				continue
			}
			depNode, ok := e.Tasks.Get(depHash)
			if !ok {
				return "", &errs.InternalError{Invariant: "task dependency hash missing from tasks store"}
			}
			emitted[depHash] = true
			entries = append(entries, Entry{
				Name:      depName,
				ShellName: depName,
				Body:      depNode.Cmd,
			})
			queue = append(queue, depNode)
		}
	}

	return render(rootAlias, entries, entryPoints)
}

func render(rootAlias string, entries []Entry, entryPoints []entryPointView) (string, error) {
	commands := make([]string, len(entryPoints))
	for i, ep := range entryPoints {
		commands[i] = ep.Command
	}

	tmpl, err := template.New("script.sh").Funcs(sprig.TxtFuncMap()).Parse(scriptTemplateSource)
	if err != nil {
		return "", &errs.TemplateError{Task: "<emitter>", Err: err}
	}

	var buf bytes.Buffer
	data := struct {
		RootAlias   string
		Entries     []Entry
		EntryPoints []entryPointView
		CommandList string
	}{
		RootAlias:   rootAlias,
		Entries:     entries,
		EntryPoints: entryPoints,
		CommandList: strings.Join(commands, "|"),
	}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", &errs.TemplateError{Task: "<emitter>", Err: err}
	}
	return buf.String(), nil
}
