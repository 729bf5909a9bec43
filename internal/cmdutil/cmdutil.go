// Package cmdutil bootstraps the flag/env/config layering shared by every
// qwex subcommand: verbosity counting into an hclog.Logger, the
// --qwex-home/--features persistent flags into a config.Config, and a
// logger.Logger for user-facing output. Grounded on
// internal/cmdutil/cmdutil.go's Helper -> CmdBase split, trimmed of the
// client/repo-config/user-config machinery qwex has no analogue for.
package cmdutil

import (
	"fmt"
	"io/ioutil"
	"os"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/qwexsh/qwex/internal/config"
	"github.com/qwexsh/qwex/internal/logger"
)

// Helper accumulates flag-bound values for the root command and produces a
// CmdBase once flags have been parsed.
type Helper struct {
	// Version is the qwex version string reported by "--version".
	Version string

	verbosity int
	qwexHome  string
	features  string

	cleanupsMu sync.Mutex
	cleanups   []func() error
}

// NewHelper returns a Helper for the given version string.
func NewHelper(version string) *Helper {
	return &Helper{Version: version}
}

// AddFlags registers the persistent flags common to every subcommand.
func (h *Helper) AddFlags(flags *pflag.FlagSet) {
	flags.StringVar(&h.qwexHome, "qwex-home", "", "Directory qwex persists its target/cache state under (default \"./.qwex\")")
	flags.StringVar(&h.features, "features", "", "Comma-delimited active feature set")
	flags.CountVarP(&h.verbosity, "verbosity", "v", "increase logging verbosity (-v, -vv, -vvv)")
}

// RegisterCleanup saves a function to run after command execution, even if
// the command returned an error.
func (h *Helper) RegisterCleanup(cleanup func() error) {
	h.cleanupsMu.Lock()
	defer h.cleanupsMu.Unlock()
	h.cleanups = append(h.cleanups, cleanup)
}

// Cleanup runs every registered cleanup, logging (rather than returning) any
// failure, since cleanup runs during unwind where there is no longer an
// error path to report through.
func (h *Helper) Cleanup() {
	h.cleanupsMu.Lock()
	defer h.cleanupsMu.Unlock()
	l := logger.New()
	for _, cleanup := range h.cleanups {
		if err := cleanup(); err != nil {
			fmt.Fprintln(os.Stderr, l.Warnf("cleanup failed: %v", err))
		}
	}
}

func (h *Helper) getHCLogger() (hclog.Logger, error) {
	var level hclog.Level
	switch h.verbosity {
	case 0:
		if v := config.LogLevel(); v != "" {
			level = hclog.LevelFromString(v)
			if level == hclog.NoLevel {
				return nil, fmt.Errorf("%s value %q is not a valid log level", config.EnvLogLevel, v)
			}
		} else {
			level = hclog.NoLevel
		}
	case 1:
		level = hclog.Info
	case 2:
		level = hclog.Debug
	default:
		level = hclog.Trace
	}

	output := ioutil.Discard
	color := hclog.ColorOff
	if level != hclog.NoLevel {
		output = os.Stderr
		color = hclog.AutoColor
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   "qwex",
		Level:  level,
		Color:  color,
		Output: output,
	}), nil
}

// CmdBase holds everything a subcommand's RunE needs: the resolved Config,
// a debug hclog.Logger, and a user-facing logger.Logger.
type CmdBase struct {
	Config *config.Config
	Logger hclog.Logger
	UI     *logger.Logger
}

// GetCmdBase resolves flags into a Config and constructs the loggers, per
// Helper.AddFlags's persistent flag set.
func (h *Helper) GetCmdBase() (*CmdBase, error) {
	hcLogger, err := h.getHCLogger()
	if err != nil {
		return nil, err
	}

	cfg := config.Default()
	if h.qwexHome != "" {
		cfg.Home = h.qwexHome
	}
	cfg.Features = h.features

	return &CmdBase{
		Config: cfg,
		Logger: hcLogger,
		UI:     logger.New(),
	}, nil
}

// LogError formats an error through the UI logger and returns it, for use at
// the boundary between a RunE and cobra's error reporting.
func (b *CmdBase) LogError(format string, args ...interface{}) error {
	return b.UI.Errorf(format, args...)
}

// LogPipelineError wraps a pipeline-stage failure with a short message
// (pkg/errors.Wrap, the way internal/cmd/root.go wraps child errors before
// they cross the RunE boundary) and logs it through the UI.
func (b *CmdBase) LogPipelineError(err error, msg string) error {
	wrapped := errors.Wrap(err, msg)
	return b.UI.Errorf("%v", wrapped)
}
