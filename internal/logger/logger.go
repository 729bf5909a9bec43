// Package logger is the user-facing (non-debug) output layer: colored
// Sucessf/Warnf/Errorf prefixes over github.com/fatih/color, gated by
// github.com/mattn/go-isatty the way a terminal UI decides whether to
// colorize. Debug/trace logging is a separate concern, handled by
// github.com/hashicorp/go-hclog in internal/cmdutil. Grounded on
// internal/logger/logger.go.
package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// IsTTY reports whether stdout is attached to an interactive terminal.
var IsTTY = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

var successPrefix = color.New(color.Bold, color.FgGreen, color.ReverseVideo).Sprint(" OK ")
var warningPrefix = color.New(color.Bold, color.FgYellow, color.ReverseVideo).Sprint(" WARN ")
var errorPrefix = color.New(color.Bold, color.FgRed, color.ReverseVideo).Sprint(" ERROR ")

// Logger prints build-status messages to Out (stdout by default).
type Logger struct {
	Out io.Writer
}

// New returns a Logger writing to stdout.
func New() *Logger {
	return &Logger{Out: os.Stdout}
}

// Printf writes a plain message followed by a newline.
func (l *Logger) Printf(format string, args ...interface{}) {
	fmt.Fprintln(l.Out, fmt.Sprintf(format, args...))
}

// Sucessf formats a success-prefixed message for display.
func (l *Logger) Sucessf(format string, args ...interface{}) string {
	msg := fmt.Sprintf(format, args...)
	return successPrefix + color.GreenString(" %s", msg)
}

// Warnf formats a warning-prefixed error for display.
func (l *Logger) Warnf(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s%s", warningPrefix, color.YellowString(" %s", msg))
}

// Errorf formats an error-prefixed error for display.
func (l *Logger) Errorf(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s%s", errorPrefix, color.RedString(" %s", msg))
}

// Compiledf formats the message printed when a module compiles cleanly into
// a shell script, the one status line every "qwex build" run ends with.
func (l *Logger) Compiledf(source, out string) string {
	return l.Sucessf("compiled %s -> %s", source, out)
}
