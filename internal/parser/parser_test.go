package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Grounded on lib/qwxl/src/pipeline/parser.rs's test_load_yaml.
func TestLoadYAML_SimpleTask(t *testing.T) {
	input := `
tasks:
  task1:
    props:
      foo: "bar"
      nested:
        - 1
        - 2
        - 3
    cmd: |
      echo "Hello, World!"
`
	m, err := LoadYAML(input)
	require.NoError(t, err)

	task, ok := m.Tasks.Get("task1")
	require.True(t, ok)
	assert.Equal(t, "echo \"Hello, World!\"\n", task.Cmd)
	foo, ok := task.Props.Get("foo")
	require.True(t, ok)
	assert.Equal(t, "bar", foo)
}

// Grounded on parser.rs's test_load_multi_modules.
func TestLoadYAML_Submodule(t *testing.T) {
	input := `
tasks:
  task1:
    cmd: echo "Hello, World!"
module1:
  tasks:
    task2:
      cmd: echo "Feature 1"
`
	m, err := LoadYAML(input)
	require.NoError(t, err)
	assert.True(t, m.Modules.Has("module1"))
}

func TestLoadYAML_TaskAliases(t *testing.T) {
	input := `
tasks:
  a:
    with: { x: "1" }
    run: echo a
`
	m, err := LoadYAML(input)
	require.NoError(t, err)
	task, _ := m.Tasks.Get("a")
	assert.Equal(t, "echo a", task.Cmd)
	x, _ := task.Props.Get("x")
	assert.Equal(t, "1", x)
}

func TestParseFeatureKey(t *testing.T) {
	name, feature, has := ParseFeatureKey("module1[featureA]")
	assert.Equal(t, "module1", name)
	assert.Equal(t, "featureA", feature)
	assert.True(t, has)

	name, _, has = ParseFeatureKey("module1")
	assert.Equal(t, "module1", name)
	assert.False(t, has)
}

// Spec.md §8 invariant 3: a task only present inside m[feat] is in the
// merged root iff feat is active.
func TestMergeFeatures_Gating(t *testing.T) {
	input := `
tasks[featureA]:
  tasks:
    extra:
      cmd: echo "from A"
`
	m, err := LoadYAML(input)
	require.NoError(t, err)

	withFeature := MergeFeatures(m, true, "featureA")
	assert.True(t, withFeature.Tasks.Has("extra"))

	withoutFeature := MergeFeatures(m, true, "default")
	assert.False(t, withoutFeature.Tasks.Has("extra"))
}

// Spec.md §9 Open Question #1: features overwrite base.
func TestMergeFeatures_FeatureOverwritesBase(t *testing.T) {
	input := `
utils:
  props:
    prefix: "BASE"
utils[prod]:
  props:
    prefix: "PROD"
`
	m, err := LoadYAML(input)
	require.NoError(t, err)

	merged := MergeFeatures(m, true, "prod")
	utils, ok := merged.Modules.Get("utils")
	require.True(t, ok)
	prefix, _ := utils.Props.Get("prefix")
	assert.Equal(t, "PROD", prefix)
}

// Spec.md §4.3: a subtree keyed tasks[feat] merges into the enclosing
// tasks, never into modules.
func TestMergeFeatures_ReservedNeverBecomesModule(t *testing.T) {
	input := `
tasks[featureA]:
  tasks:
    extra:
      cmd: echo hi
`
	m, err := LoadYAML(input)
	require.NoError(t, err)
	merged := MergeFeatures(m, true, "featureA")
	assert.False(t, merged.Modules.Has("tasks"))
	assert.False(t, merged.Modules.Has("tasks[featureA]"))
}
