// Package ast defines the parsed data model shared by every pipeline stage:
// Module, Task, the Uses variant, and the resolved MetaModule/TaskNode
// artifacts. Grounded on lib/qwxl/src/pipeline/ast.rs and
// lib/qwxl/src/pipeline/renderer.rs in the original_source reference.
package ast

const (
	// TaskPrefix is the reserved submodule key that merges into the
	// enclosing module's tasks instead of becoming a nested module.
	TaskPrefix = "tasks"
	// PropPrefix is the reserved submodule key that merges into the
	// enclosing module's props instead of becoming a nested module.
	PropPrefix = "props"
	// CmdKeyword is the key holding a task's command template.
	CmdKeyword = "cmd"
)

// RefKind distinguishes an unresolved symbolic import from a resolved
// content-hash reference.
type RefKind int

const (
	// RefDefine is an unresolved "uses: <string>" import.
	RefDefine RefKind = iota
	// RefHash is a resolved content-hash reference.
	RefHash
)

// UseRef is the "uses:" variant: either an unresolved import string or a
// resolved 64-bit content hash. Only one of Define/Hash is meaningful,
// selected by Kind.
type UseRef struct {
	Kind   RefKind
	Define string
	Hash   uint64
}

// NewDefine constructs an unresolved import reference.
func NewDefine(path string) *UseRef { return &UseRef{Kind: RefDefine, Define: path} }

// NewHash constructs a resolved content-hash reference.
func NewHash(hash uint64) *UseRef { return &UseRef{Kind: RefHash, Hash: hash} }

// IsHash reports whether this reference has been resolved.
func (u *UseRef) IsHash() bool { return u != nil && u.Kind == RefHash }

// PropValue is a structured prop value: string, int64, float64, bool,
// []interface{}, or map[string]interface{} -- exactly what yaml.v3 and
// encoding/json natively decode to. It must round-trip deterministically
// through encoding/json for task-hash computation (Go's json.Marshal sorts
// map[string]interface{} keys, giving us the "sorted keys for inner
// mappings" requirement for free).
type PropValue = interface{}

// Props is an ordered name -> value mapping.
type Props = *OrderedMap[PropValue]

// Task is a command definition: either Uses is set (delegation via "uses:"
// sugar) or Cmd is a (possibly empty) renderable template string.
type Task struct {
	Uses  *UseRef
	Props Props
	Cmd   string
}

// IsUsesSugar reports whether this task delegates to another module's main
// task instead of rendering its own Cmd.
func (t *Task) IsUsesSugar() bool { return t != nil && t.Uses != nil }

// Module is the parsed unit: an optional import, its own props/tasks, and
// nested submodules (submodule keys may still carry a "name[feature]" box
// prior to feature merging).
type Module struct {
	Uses    *UseRef
	Props   Props
	Tasks   *OrderedMap[*Task]
	Modules *OrderedMap[*Module]
}

// NewModule returns an empty, fully initialized Module.
func NewModule() *Module {
	return &Module{
		Props:   NewOrderedMap[PropValue](),
		Tasks:   NewOrderedMap[*Task](),
		Modules: NewOrderedMap[*Module](),
	}
}

// MetaModule is a Module after import resolution, content-hash identified.
type MetaModule struct {
	Module *Module
	Hash   uint64
}

// TaskNode is a fully rendered task: final command text, the set of task
// hashes it depends on, its own stable hash, and a human-readable alias
// (e.g. "root.lib:deploy") used for diagnostics.
type TaskNode struct {
	Cmd   string
	Deps  map[uint64]struct{}
	// DepOrder preserves the order dependencies were first discovered
	// during template evaluation, so the emitter's breadth-first
	// expansion (spec.md §4.6, §5) is deterministic rather than at the
	// mercy of Go's randomized map iteration.
	DepOrder []uint64
	Hash     uint64
	Alias    string
}

// NewTaskNode returns a TaskNode with an initialized dependency set.
func NewTaskNode(cmd, alias string, hash uint64) *TaskNode {
	return &TaskNode{Cmd: cmd, Alias: alias, Hash: hash, Deps: make(map[uint64]struct{})}
}

// AddDep records dep as a dependency of this node, preserving first-seen
// order and ignoring duplicates.
func (n *TaskNode) AddDep(hash uint64) {
	if _, exists := n.Deps[hash]; exists {
		return
	}
	n.Deps[hash] = struct{}{}
	n.DepOrder = append(n.DepOrder, hash)
}
