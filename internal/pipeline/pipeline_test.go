package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qwexsh/qwex/internal/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// S1 -- Hello world end to end through the orchestrator.
func TestCompile_HelloWorld(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "root.yaml", `
tasks:
  hello:
    cmd: "echo {{ props.msg }}"
props:
  msg: "World"
`)

	cfg := config.Default()
	cfg.Home = filepath.Join(dir, ".qwex")
	p := New(cfg)

	script, err := p.Compile(root)
	require.NoError(t, err)
	require.Contains(t, script, "root__hello() {")
	require.Contains(t, script, "echo World")
}

func TestCompile_UnknownImportFails(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "root.yaml", `
uses: "./missing.yaml"
tasks:
  t:
    cmd: "x"
`)

	cfg := config.Default()
	cfg.Home = filepath.Join(dir, ".qwex")
	p := New(cfg)

	_, err := p.Compile(root)
	require.Error(t, err)
}

func TestWriteDiagnostics_WritesUnderCacheDir(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "root.yaml", `
tasks:
  hello:
    cmd: "echo hi"
`)

	cfg := config.Default()
	cfg.Home = filepath.Join(dir, ".qwex")
	p := New(cfg)

	_, err := p.Compile(root)
	require.NoError(t, err)

	path, err := p.WriteDiagnostics()
	require.NoError(t, err)
	require.FileExists(t, path)
	require.Equal(t, cfg.CacheDir(), filepath.Dir(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "root_alias")
}

func TestClean_RemovesHomeDir(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Home = filepath.Join(dir, ".qwex")
	require.NoError(t, os.MkdirAll(cfg.CacheDir(), 0o755))

	p := New(cfg)
	require.NoError(t, p.Clean())

	_, err := os.Stat(cfg.Home)
	require.True(t, os.IsNotExist(err))
}
