package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qwexsh/qwex/internal/errs"
	"github.com/qwexsh/qwex/internal/loader"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestResolveRoot_Simple(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "root.yaml", "tasks:\n  hello:\n    cmd: \"echo hi\"\n")

	r := New(loader.New(), "")
	mm, err := r.ResolveRoot(root, "root")
	require.NoError(t, err)
	require.True(t, mm.Module.Tasks.Has("hello"))

	hash, ok := r.Aliases.Get("root")
	require.True(t, ok)
	require.Equal(t, mm.Hash, hash)
}

func TestResolveRoot_ImportRewritesUsesToHash(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib.yaml", "tasks:\n  main:\n    cmd: \"lib main\"\n")
	root := writeFile(t, dir, "root.yaml", "uses: \"./lib.yaml\"\n")

	r := New(loader.New(), "")
	mm, err := r.ResolveRoot(root, "root")
	require.NoError(t, err)
	require.True(t, mm.Module.Uses.IsHash())
	require.True(t, r.MetaModules.Has(mm.Module.Uses.Hash))
}

func TestResolveRoot_SharedImportSamePointer(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "shared.yaml", "props:\n  x: 1\n")
	writeFile(t, dir, "a.yaml", "uses: \"./shared.yaml\"\n")
	writeFile(t, dir, "b.yaml", "uses: \"./shared.yaml\"\n")
	root := writeFile(t, dir, "root.yaml", "a:\n  uses: \"./a.yaml\"\nb:\n  uses: \"./b.yaml\"\n")

	r := New(loader.New(), "")
	mm, err := r.ResolveRoot(root, "root")
	require.NoError(t, err)

	aSub, _ := mm.Module.Modules.Get("a")
	bSub, _ := mm.Module.Modules.Get("b")
	require.True(t, aSub.Uses.IsHash())
	require.True(t, bSub.Uses.IsHash())

	// Invariant 5 (spec.md §8 item 5): two importers naming the same
	// absolute file resolve to the identical shared MetaModule instance.
	aMM, _ := r.MetaModules.Get(aSub.Uses.Hash)
	bMM, _ := r.MetaModules.Get(bSub.Uses.Hash)
	sharedA, _ := aMM.Module.Uses, aMM
	_ = sharedA
	aShared, okA := r.MetaModules.Get(aMM.Module.Uses.Hash)
	bShared, okB := r.MetaModules.Get(bMM.Module.Uses.Hash)
	require.True(t, okA)
	require.True(t, okB)
	require.Same(t, aShared.Module, bShared.Module)
}

func TestResolveRoot_CycleFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "uses: \"./b.yaml\"\n")
	writeFile(t, dir, "b.yaml", "uses: \"./a.yaml\"\n")
	root := filepath.Join(dir, "a.yaml")

	r := New(loader.New(), "")
	_, err := r.ResolveRoot(root, "root")
	require.Error(t, err)
	var cycleErr *errs.CyclicDependencyError
	require.ErrorAs(t, err, &cycleErr)
	require.NotEmpty(t, cycleErr.Cycle)
}

func TestResolveRoot_RemoteImportUnsupported(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "root.yaml", "uses: \"https://example.com/mod.yaml\"\n")

	r := New(loader.New(), "")
	_, err := r.ResolveRoot(root, "root")
	require.Error(t, err)
	var unsupported *errs.UnsupportedFormatError
	require.ErrorAs(t, err, &unsupported)
}

func TestResolveRoot_StdBuiltin(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "root.yaml", "uses: \"@std/log\"\n")

	r := New(loader.New(), "")
	mm, err := r.ResolveRoot(root, "root")
	require.NoError(t, err)
	require.True(t, mm.Module.Uses.IsHash())
	lib, ok := r.MetaModules.Get(mm.Module.Uses.Hash)
	require.True(t, ok)
	require.True(t, lib.Module.Tasks.Has("info"))
}

func TestResolveRoot_AliasCollisionDifferentHash(t *testing.T) {
	dir := t.TempDir()
	rootA := writeFile(t, dir, "a.yaml", "props:\n  x: 1\n")
	rootB := writeFile(t, dir, "b.yaml", "props:\n  x: 2\n")

	r := New(loader.New(), "")
	_, err := r.resolve(rootA, strptr("shared"), nil)
	require.NoError(t, err)
	_, err = r.resolve(rootB, strptr("shared"), nil)
	require.Error(t, err)
	var aliasErr *errs.AliasAlreadyExistsError
	require.ErrorAs(t, err, &aliasErr)
}

func TestResolveRoot_FeatureGatingOnlyAtRoot(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib.yaml", "tasks[beta]:\n  hidden:\n    cmd: \"x\"\n")
	root := writeFile(t, dir, "root.yaml", "uses: \"./lib.yaml\"\n")

	r := New(loader.New(), "beta")
	mm, err := r.ResolveRoot(root, "root")
	require.NoError(t, err)
	lib, _ := r.MetaModules.Get(mm.Module.Uses.Hash)
	// Imported modules are taken as-is; features never apply to them.
	require.False(t, lib.Module.Tasks.Has("hidden"))
	require.True(t, lib.Module.Modules.Has("tasks[beta]"))
}

// A "uses:" on a submodule nested two levels deep (a submodule of a
// submodule) must be rewritten from Define to Hash exactly like one on the
// root module or a direct submodule.
func TestResolveRoot_NestedSubmoduleImportRewritesUsesToHash(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib.yaml", "tasks:\n  main:\n    cmd: \"lib main\"\n")
	root := writeFile(t, dir, "root.yaml", "foo:\n  bar:\n    uses: \"./lib.yaml\"\n")

	r := New(loader.New(), "")
	mm, err := r.ResolveRoot(root, "root")
	require.NoError(t, err)

	foo, ok := mm.Module.Modules.Get("foo")
	require.True(t, ok)
	bar, ok := foo.Modules.Get("bar")
	require.True(t, ok)
	require.True(t, bar.Uses.IsHash())
	require.True(t, r.MetaModules.Has(bar.Uses.Hash))
}

// A task's own "uses:" sugar (spec.md §4.5.2) must be rewritten from
// Define to Hash exactly like a module's "uses:", or the renderer's
// sugar-redirect can never find the delegated module.
func TestResolveRoot_TaskUsesSugarRewrittenToHash(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib.yaml", "tasks:\n  main:\n    cmd: \"lib main\"\n")
	root := writeFile(t, dir, "root.yaml", "tasks:\n  deploy:\n    uses: \"./lib.yaml\"\n")

	r := New(loader.New(), "")
	mm, err := r.ResolveRoot(root, "root")
	require.NoError(t, err)

	deploy, ok := mm.Module.Tasks.Get("deploy")
	require.True(t, ok)
	require.True(t, deploy.Uses.IsHash())
	require.True(t, r.MetaModules.Has(deploy.Uses.Hash))
}

func strptr(s string) *string { return &s }
