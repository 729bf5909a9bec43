// Package config holds the qwex pipeline's tunables: the home directory
// persisted state lives under, the active feature set, the root alias,
// and the "uses:" chain depth bound. Grounded on lib/qwxl/src/pipeline.rs's
// Config::default() and on internal/config/config.go's flag/env/default
// layering pattern (flags > env > default), simplified since qwex has no
// repo/user config files or remote cache to layer in.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxUsesChainDepth is the bound spec.md §4.5.1 names as "e.g. 100",
// surfaced here as a tunable per SPEC_FULL.md §7.4 rather than a hidden
// constant.
const DefaultMaxUsesChainDepth = 100

// DefaultRootAlias is the symbolic name the entry-point module is
// registered under when none is configured (spec.md §4.6, glossary).
const DefaultRootAlias = "root"

// EnvLogLevel is the environment variable internal/cmdutil consults (when no
// -v flag is given) for the debug log level, the qwex analogue of
// turborepo's TURBO_LOG_LEVEL.
const EnvLogLevel = "QWEX_LOG_LEVEL"

// Config holds every pipeline-wide tunable.
type Config struct {
	// Home is the qwex home directory ("--qwex-home", default "./.qwex").
	Home string
	// Features is the comma-delimited active feature set (spec.md §6).
	Features string
	// RootAlias is the symbolic name the entry point is registered under.
	RootAlias string
	// MaxUsesChainDepth bounds the "uses:" chain walk (spec.md §4.5.1).
	MaxUsesChainDepth int
}

// Default returns a Config with cwd-relative home dir, no active features,
// and the default root alias, mirroring Config::default() in
// lib/qwxl/src/pipeline.rs.
func Default() *Config {
	return &Config{
		Home:              "./.qwex",
		RootAlias:         DefaultRootAlias,
		MaxUsesChainDepth: DefaultMaxUsesChainDepth,
	}
}

// FeatureDir is Features with ',' replaced by '-', the directory-safe form
// spec.md §6 describes for the target path segment.
func (c *Config) FeatureDir() string {
	if c.Features == "" {
		return "default"
	}
	return strings.ReplaceAll(c.Features, ",", "-")
}

// TargetDir is "<home>/target/<features>" (spec.md §6).
func (c *Config) TargetDir() string {
	return filepath.Join(c.Home, "target", c.FeatureDir())
}

// CacheDir is "<home>/target/<features>/cache", where the diagnostic store
// dump is written (spec.md §4.7, §6).
func (c *Config) CacheDir() string {
	return filepath.Join(c.TargetDir(), "cache")
}

// ScriptPath is the default emitted-script location, "<target>/qwex.sh"
// (spec.md §6).
func (c *Config) ScriptPath() string {
	return filepath.Join(c.TargetDir(), "qwex.sh")
}

// LogLevel reads QWEX_LOG_LEVEL, returning "" if unset.
func LogLevel() string { return os.Getenv(EnvLogLevel) }
