package graph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qwexsh/qwex/internal/ast"
	"github.com/qwexsh/qwex/internal/store"
)

func TestFromTasks_ConnectsDependentToDependency(t *testing.T) {
	tasks := store.New[uint64, *ast.TaskNode]()
	dep := ast.NewTaskNode("echo dep", "root:dep", 1)
	top := ast.NewTaskNode("echo top", "root:top", 2)
	top.AddDep(dep.Hash)
	tasks.Insert(dep.Hash, dep)
	tasks.Insert(top.Hash, top)

	g, err := FromTasks(tasks)
	require.NoError(t, err)

	down := g.DownEdges(vertex{alias: "root:top", hash: top.Hash})
	require.True(t, down.Include(vertex{alias: "root:dep", hash: dep.Hash}))
}

// Two TaskNodes sharing an Alias but not a Hash (the same task name called
// with different props) must remain distinct vertices.
func TestFromTasks_SameAliasDifferentHashStayDistinct(t *testing.T) {
	tasks := store.New[uint64, *ast.TaskNode]()
	a := ast.NewTaskNode("echo a", "root:foo", 1)
	b := ast.NewTaskNode("echo b", "root:foo", 2)
	tasks.Insert(a.Hash, a)
	tasks.Insert(b.Hash, b)

	g, err := FromTasks(tasks)
	require.NoError(t, err)

	var taskVertices int
	for _, v := range g.Vertices() {
		if _, ok := v.(vertex); ok {
			taskVertices++
		}
	}
	require.Equal(t, 2, taskVertices)
}

// A task store with more than one task that nothing else depends on (two
// independent entry points) must still produce a valid graph: FromTasks
// grafts a synthetic root onto every such entry point rather than letting
// dag.AcyclicGraph.Validate's single-root requirement reject the graph.
func TestFromTasks_MultipleIndependentRootsValidate(t *testing.T) {
	tasks := store.New[uint64, *ast.TaskNode]()
	lint := ast.NewTaskNode("echo lint", "root:lint", 1)
	test := ast.NewTaskNode("echo test", "root:test", 2)
	tasks.Insert(lint.Hash, lint)
	tasks.Insert(test.Hash, test)

	g, err := FromTasks(tasks)
	require.NoError(t, err)

	down := g.DownEdges(syntheticRoot{})
	require.True(t, down.Include(vertex{alias: "root:lint", hash: lint.Hash}))
	require.True(t, down.Include(vertex{alias: "root:test", hash: test.Hash}))
}

func TestDot_RendersDigraph(t *testing.T) {
	tasks := store.New[uint64, *ast.TaskNode]()
	node := ast.NewTaskNode("echo hi", "root:hello", 1)
	tasks.Insert(node.Hash, node)

	g, err := FromTasks(tasks)
	require.NoError(t, err)
	require.Contains(t, Dot(g), "digraph")
}
