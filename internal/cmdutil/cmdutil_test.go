package cmdutil

import (
	"errors"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestGetCmdBase_DefaultsWhenNoFlagsSet(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	h := NewHelper("test-version")
	h.AddFlags(flags)

	base, err := h.GetCmdBase()
	require.NoError(t, err)
	require.Equal(t, "./.qwex", base.Config.Home)
	require.Equal(t, "", base.Config.Features)
}

func TestGetCmdBase_HomeAndFeaturesFlagsApply(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	h := NewHelper("test-version")
	h.AddFlags(flags)
	require.NoError(t, flags.Set("qwex-home", "/tmp/custom"))
	require.NoError(t, flags.Set("features", "beta"))

	base, err := h.GetCmdBase()
	require.NoError(t, err)
	require.Equal(t, "/tmp/custom", base.Config.Home)
	require.Equal(t, "beta", base.Config.Features)
}

func TestGetCmdBase_VerbosityRaisesLogLevel(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	h := NewHelper("test-version")
	h.AddFlags(flags)
	require.NoError(t, flags.Set("verbosity", "+1"))
	require.NoError(t, flags.Set("verbosity", "+1"))

	base, err := h.GetCmdBase()
	require.NoError(t, err)
	require.True(t, base.Logger.IsDebug())
}

func TestLogPipelineError_WrapsAndFormatsMessage(t *testing.T) {
	base := mustBase(t)

	wrapped := base.LogPipelineError(errors.New("boom"), "compile failed")
	require.Contains(t, wrapped.Error(), "compile failed")
	require.Contains(t, wrapped.Error(), "boom")
}

func mustBase(t *testing.T) *CmdBase {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	h := NewHelper("test-version")
	h.AddFlags(flags)
	base, err := h.GetCmdBase()
	require.NoError(t, err)
	return base
}
