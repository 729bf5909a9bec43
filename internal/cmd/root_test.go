package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qwexsh/qwex/internal/cmdutil"
)

func TestGetCmd_RegistersBuildRunClean(t *testing.T) {
	helper := cmdutil.NewHelper("test-version")
	root := getCmd(helper)

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	require.True(t, names["build"])
	require.True(t, names["run"])
	require.True(t, names["clean"])
}
