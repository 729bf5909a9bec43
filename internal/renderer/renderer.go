// Package renderer is the Renderer (C5): it compiles one task invocation
// into a TaskNode by walking the "uses:" chain to find the task's
// definition, layering props at the four precedences spec.md §4.5.3
// defines, evaluating the command template (internal/tmpl), and
// deduplicating by the task-node hash (spec.md §4.5.5). Grounded on
// lib/qwxl/src/pipeline/renderer.rs's Renderer::render/compile_task.
package renderer

import (
	"fmt"

	"github.com/qwexsh/qwex/internal/ast"
	"github.com/qwexsh/qwex/internal/errs"
	"github.com/qwexsh/qwex/internal/hashing"
	"github.com/qwexsh/qwex/internal/store"
	"github.com/qwexsh/qwex/internal/tmpl"
)

// DefaultMaxUsesChainDepth is the bound spec.md §4.5.1 names as "e.g. 100",
// surfaced on Renderer instead of hidden as a constant (SPEC_FULL.md §7.4).
const DefaultMaxUsesChainDepth = 100

// ModuleContext is the module a task is being compiled against: either a
// real MetaModule's Module, a nested inline submodule, or the virtual
// Module synthesized for "uses:" sugar (spec.md §4.5.2).
type ModuleContext struct {
	Module *ast.Module
	Alias  string
}

// RootContext builds the ModuleContext for a MetaModule registered under
// alias (e.g. the root module, or a freshly resolved import).
func RootContext(mm *ast.MetaModule, alias string) ModuleContext {
	return ModuleContext{Module: mm.Module, Alias: alias}
}

// Renderer compiles tasks against the shared MetaModule and TaskNode
// stores. The TaskNode store is the "Global" cache of spec.md §4.5.5,
// surviving across top-level Render calls within the same pipeline
// instance.
type Renderer struct {
	MetaModules       *store.Store[uint64, *ast.MetaModule]
	Tasks             *store.Store[uint64, *ast.TaskNode]
	MaxUsesChainDepth int
}

// New returns a Renderer backed by the given shared stores.
func New(metamodules *store.Store[uint64, *ast.MetaModule], tasks *store.Store[uint64, *ast.TaskNode]) *Renderer {
	return &Renderer{MetaModules: metamodules, Tasks: tasks, MaxUsesChainDepth: DefaultMaxUsesChainDepth}
}

// session is the per-render()-call cache (spec.md §4.5.5's "Session"): it
// guards against unbounded self-recursion when a task's template calls
// itself during compilation, by handing back the same in-progress
// *ast.TaskNode pointer instead of recompiling.
type session struct {
	building map[uint64]*ast.TaskNode
}

func newSession() *session { return &session{building: map[uint64]*ast.TaskNode{}} }

// Render compiles taskName against ctx with the given call-site props,
// starting a fresh session. This is the emitter's entry point; a task's own
// "tasks.foo" / "tasks.foo(...)" references call compileTask directly and
// share the session of the render that evaluates them.
func (r *Renderer) Render(ctx ModuleContext, taskName string, callProps ast.Props) (*ast.TaskNode, error) {
	if callProps == nil {
		callProps = ast.NewOrderedMap[ast.PropValue]()
	}
	return r.compileTask(ctx, taskName, callProps, newSession(), 0)
}

// compileTask runs the state machine of spec.md §4.5.6: lookup ->
// (sugar-redirect)? -> props-merge -> hash -> cache-probe ->
// template-render -> commit.
func (r *Renderer) compileTask(ctx ModuleContext, taskName string, callProps ast.Props, sess *session, depth int) (*ast.TaskNode, error) {
	if depth > r.MaxUsesChainDepth {
		return nil, &errs.TaskNotFoundError{Task: taskName, Module: ctx.Alias}
	}

	foundCtx, task, err := r.lookupTask(ctx, taskName)
	if err != nil {
		return nil, err
	}

	if task.IsUsesSugar() {
		virtual := sugarContext(task, callProps, foundCtx.Alias)
		return r.compileTask(virtual, "main", ast.NewOrderedMap[ast.PropValue](), sess, depth+1)
	}

	// Props layer from the calling module (ctx), whose "uses:" chain reaches
	// foundCtx: a sugar task's virtual module props must not be dropped.
	effective, err := r.effectiveProps(ctx.Module, task.Props, callProps)
	if err != nil {
		return nil, err
	}

	hash, err := hashing.TaskNodeHash(task.Cmd, effective)
	if err != nil {
		return nil, err
	}

	if node, ok := r.Tasks.Get(hash); ok {
		return node, nil
	}
	if node, ok := sess.building[hash]; ok {
		return node, nil
	}

	node := ast.NewTaskNode("", foundCtx.Alias+":"+taskName, hash)
	sess.building[hash] = node

	resolver := &taskResolver{
		renderer: r,
		ctx:      foundCtx,
		session:  sess,
		depth:    depth,
		props:    effective,
		current:  node,
	}
	cmd, err := tmpl.Render(taskName, task.Cmd, resolver)
	if err != nil {
		return nil, err
	}
	node.Cmd = cmd

	committed, err := store.QueryOrCompute(r.Tasks, hash, func() (*ast.TaskNode, error) { return node, nil })
	if err != nil {
		return nil, err
	}
	return committed, nil
}

// lookupTask walks the "uses:" chain (spec.md §4.5.1) looking for
// taskName's definition, bounded by MaxUsesChainDepth.
func (r *Renderer) lookupTask(ctx ModuleContext, taskName string) (ModuleContext, *ast.Task, error) {
	cur := ctx
	for i := 0; i <= r.MaxUsesChainDepth; i++ {
		if t, ok := cur.Module.Tasks.Get(taskName); ok {
			return cur, t, nil
		}
		if cur.Module.Uses == nil || !cur.Module.Uses.IsHash() {
			break
		}
		mm, ok := r.MetaModules.Get(cur.Module.Uses.Hash)
		if !ok {
			return ModuleContext{}, nil, &errs.InternalError{Invariant: "uses: hash missing from metamodules store"}
		}
		cur = ModuleContext{Module: mm.Module, Alias: cur.Alias}
	}
	return ModuleContext{}, nil, &errs.TaskNotFoundError{Task: taskName, Module: ctx.Alias}
}

// sugarContext builds the virtual module context for "uses:" sugar
// (spec.md §4.5.2): a fresh Module with the task's Uses and
// props = task.props ∪ call_props (call overrides task).
func sugarContext(task *ast.Task, callProps ast.Props, alias string) ModuleContext {
	merged := task.Props.Clone()
	merged.Merge(callProps)
	vm := &ast.Module{
		Uses:    task.Uses,
		Props:   merged,
		Tasks:   ast.NewOrderedMap[*ast.Task](),
		Modules: ast.NewOrderedMap[*ast.Module](),
	}
	return ModuleContext{Module: vm, Alias: alias}
}

// inheritedChain walks the "uses:" chain base-most first, collecting each
// level's own Props, ending with mod's own Props last (spec.md §4.5.3
// items 1+2 combined).
func (r *Renderer) inheritedChain(mod *ast.Module, depth int) ([]ast.Props, error) {
	if depth > r.MaxUsesChainDepth {
		return nil, &errs.InternalError{Invariant: "uses: chain exceeds max depth while collecting props"}
	}
	var chain []ast.Props
	if mod.Uses != nil && mod.Uses.IsHash() {
		mm, ok := r.MetaModules.Get(mod.Uses.Hash)
		if !ok {
			return nil, &errs.InternalError{Invariant: "uses: hash missing from metamodules store"}
		}
		parent, err := r.inheritedChain(mm.Module, depth+1)
		if err != nil {
			return nil, err
		}
		chain = append(chain, parent...)
	}
	chain = append(chain, mod.Props)
	return chain, nil
}

// effectiveProps computes the union of spec.md §4.5.3's four precedence
// layers, later overwriting earlier: inherited+module props, task props,
// call-site props.
func (r *Renderer) effectiveProps(mod *ast.Module, taskProps, callProps ast.Props) (ast.Props, error) {
	chain, err := r.inheritedChain(mod, 0)
	if err != nil {
		return nil, err
	}
	merged := ast.NewOrderedMap[ast.PropValue]()
	for _, p := range chain {
		merged.Merge(p)
	}
	merged.Merge(taskProps)
	merged.Merge(callProps)
	return merged, nil
}

// navigateSubmodules walks a dotted submodule path from ctx, per spec.md
// §4.5.4's "<submodule_name> for every nested submodule" proxy.
func navigateSubmodules(ctx ModuleContext, path []string) (ModuleContext, error) {
	cur := ctx
	for _, name := range path {
		sub, ok := cur.Module.Modules.Get(name)
		if !ok {
			return ModuleContext{}, &errs.ModuleNotFoundError{Reference: name}
		}
		cur = ModuleContext{Module: sub, Alias: cur.Alias + "." + name}
	}
	return cur, nil
}

// TaskIdentifier formats the stable shell-function name the emitter uses
// for a dependency, per spec.md §4.5.4: "task_<hex(hash)>".
func TaskIdentifier(hash uint64) string { return fmt.Sprintf("task_%x", hash) }

// taskResolver implements tmpl.Resolver for a single task's template
// evaluation, tracking dependencies on the in-progress TaskNode ("current")
// per spec.md §4.5.5.
type taskResolver struct {
	renderer *Renderer
	ctx      ModuleContext
	session  *session
	depth    int
	props    ast.Props
	current  *ast.TaskNode
}

func (tr *taskResolver) ResolveProp(modulePath []string, name string) (ast.PropValue, bool, error) {
	if len(modulePath) == 0 {
		v, ok := tr.props.Get(name)
		return v, ok, nil
	}
	subCtx, err := navigateSubmodules(tr.ctx, modulePath)
	if err != nil {
		return nil, false, err
	}
	chain, err := tr.renderer.inheritedChain(subCtx.Module, 0)
	if err != nil {
		return nil, false, err
	}
	merged := ast.NewOrderedMap[ast.PropValue]()
	for _, p := range chain {
		merged.Merge(p)
	}
	v, ok := merged.Get(name)
	return v, ok, nil
}

func (tr *taskResolver) ResolveTaskString(modulePath []string, name string) (string, error) {
	subCtx, err := navigateSubmodules(tr.ctx, modulePath)
	if err != nil {
		return "", err
	}
	node, err := tr.renderer.compileTask(subCtx, name, ast.NewOrderedMap[ast.PropValue](), tr.session, tr.depth+1)
	if err != nil {
		return "", err
	}
	tr.current.AddDep(node.Hash)
	return TaskIdentifier(node.Hash), nil
}

func (tr *taskResolver) ResolveTaskCall(modulePath []string, name string, args map[string]ast.PropValue) (string, error) {
	subCtx, err := navigateSubmodules(tr.ctx, modulePath)
	if err != nil {
		return "", err
	}
	callProps := ast.NewOrderedMap[ast.PropValue]()
	for k, v := range args {
		callProps.Set(k, v)
	}
	node, err := tr.renderer.compileTask(subCtx, name, callProps, tr.session, tr.depth+1)
	if err != nil {
		return "", err
	}
	// The call form (spec.md §4.5.4) inlines node.Cmd at the call site and
	// nothing else; it is not recorded as a dependency of tr.current, since
	// no standalone shell function will ever be emitted for it. Only the
	// string form (ResolveTaskString) produces a task_<hex> reference that
	// the emitter must walk and materialize.
	return node.Cmd, nil
}
