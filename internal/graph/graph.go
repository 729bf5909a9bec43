// Package graph renders the resolved task dependency graph as a Graphviz
// dot document for "qwex build --graph", using github.com/pyr-sh/dag the
// way internal/core/engine.go builds its TaskGraph and
// internal/graphvisualizer/graphvisualizer.go renders it. Grounded on those
// two files; qwex has no package-task/workspace model, so vertices here are
// rendered task aliases rather than "package#task" ids.
package graph

import (
	"fmt"

	"github.com/pyr-sh/dag"

	"github.com/qwexsh/qwex/internal/ast"
	"github.com/qwexsh/qwex/internal/store"
)

// vertex identifies a TaskNode by its hash -- the same identity the emitter
// dedups on -- and renders as its human-readable alias followed by the hex
// hash. Two
// TaskNodes can legitimately share an Alias (the same task name, called
// with different props at different call sites), so the alias alone cannot
// be the vertex identity without silently merging them in the graph.
type vertex struct {
	alias string
	hash  uint64
}

func (v vertex) String() string { return fmt.Sprintf("%s (%x)", v.alias, v.hash) }

// syntheticRoot connects every independent entry point in the task graph,
// so dag.AcyclicGraph.Validate's single-root requirement holds even when
// the task store has more than one task with no dependents. Grounded on
// internal/context/transform_root.go's RootTransformer and its
// ROOT_NODE_NAME sibling in internal/core/engine.go; its own type (rather
// than a vertex value) keeps it from ever colliding with a real TaskNode.
type syntheticRoot struct{}

func (syntheticRoot) String() string { return "___ROOT___" }

// FromTasks builds a dag.AcyclicGraph over every task in tasks, with an
// edge from each dependent to its dependency, mirroring the direction
// internal/core/engine.go connects TaskGraph edges in (DownEdges walk from
// a task to what it depends on).
func FromTasks(tasks *store.Store[uint64, *ast.TaskNode]) (*dag.AcyclicGraph, error) {
	g := &dag.AcyclicGraph{}
	for _, hash := range tasks.Keys() {
		node, _ := tasks.Get(hash)
		g.Add(vertex{alias: node.Alias, hash: node.Hash})
	}
	for _, hash := range tasks.Keys() {
		node, _ := tasks.Get(hash)
		for _, depHash := range node.DepOrder {
			dep, ok := tasks.Get(depHash)
			if !ok {
				continue
			}
			g.Connect(dag.BasicEdge(vertex{alias: node.Alias, hash: node.Hash}, vertex{alias: dep.Alias, hash: dep.Hash}))
		}
	}
	if _, err := g.Root(); err != nil {
		g.Add(syntheticRoot{})
		for _, v := range g.Vertices() {
			if _, ok := v.(syntheticRoot); ok {
				continue
			}
			if g.UpEdges(v).Len() == 0 {
				g.Connect(dag.BasicEdge(syntheticRoot{}, v))
			}
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Dot renders g as a Graphviz dot document, per
// graphvisualizer.generateDotString.
func Dot(g *dag.AcyclicGraph) string {
	return string(g.Dot(&dag.DotOpts{
		Verbose:    true,
		DrawCycles: true,
	}))
}
