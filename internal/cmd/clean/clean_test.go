package clean

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qwexsh/qwex/internal/cmdutil"
)

func TestClean_RemovesHomeDir(t *testing.T) {
	dir := t.TempDir()
	home := filepath.Join(dir, ".qwex")
	require.NoError(t, os.MkdirAll(home, 0o755))

	helper := cmdutil.NewHelper("test")
	cmd := GetCmd(helper)
	helper.AddFlags(cmd.Flags())
	require.NoError(t, cmd.Flags().Set("qwex-home", home))

	require.NoError(t, cmd.Execute())
	_, err := os.Stat(home)
	require.True(t, os.IsNotExist(err))
}
