// Package errs defines the typed pipeline error kinds described by the
// qwex compiler specification. Every stage of the pipeline returns one of
// these so a caller of a pipeline stage can recover the kind with errors.As
// without parsing error strings.
package errs

import "fmt"

// ParseError wraps a decoder failure for a given source path.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse %s: %v", e.Path, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// UnsupportedFormatError is returned when a file extension is unrecognized
// and the structured-format fallback decode also fails.
type UnsupportedFormatError struct {
	Path string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format: %s", e.Path)
}

// ImportNotFoundError covers an unknown @std/ builtin or a path that fails
// to canonicalize.
type ImportNotFoundError struct {
	Reference string
}

func (e *ImportNotFoundError) Error() string {
	return fmt.Sprintf("import not found: %s", e.Reference)
}

// InvalidAliasFormatError is returned when an alias contains '.' or is
// otherwise malformed.
type InvalidAliasFormatError struct {
	Alias  string
	Reason string
}

func (e *InvalidAliasFormatError) Error() string {
	return fmt.Sprintf("invalid alias %q: %s", e.Alias, e.Reason)
}

// AliasAlreadyExistsError is returned when an alias is re-bound to a
// different content hash than the one it already holds.
type AliasAlreadyExistsError struct {
	Alias string
}

func (e *AliasAlreadyExistsError) Error() string {
	return fmt.Sprintf("alias already exists: %s", e.Alias)
}

// CyclicDependencyError carries the cycle discovered during module
// resolution, in the order the cycle was walked.
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency detected: %v", e.Cycle)
}

// ModuleNotFoundError is returned when a module lookup (alias or hash)
// fails.
type ModuleNotFoundError struct {
	Reference string
}

func (e *ModuleNotFoundError) Error() string {
	return fmt.Sprintf("module not found: %s", e.Reference)
}

// TaskNotFoundError is returned when task lookup exhausts the uses: chain
// without finding a definition.
type TaskNotFoundError struct {
	Task   string
	Module string
}

func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s (in %s)", e.Task, e.Module)
}

// TemplateError wraps a failure from the command-template evaluator.
type TemplateError struct {
	Task string
	Err  error
}

func (e *TemplateError) Error() string { return fmt.Sprintf("template error in %s: %v", e.Task, e.Err) }
func (e *TemplateError) Unwrap() error { return e.Err }

// IOError wraps a filesystem failure.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("io error on %s: %v", e.Path, e.Err) }
func (e *IOError) Unwrap() error { return e.Err }

// InternalError signals a broken invariant, e.g. an alias registered
// without a corresponding MetaModule.
type InternalError struct {
	Invariant string
}

func (e *InternalError) Error() string { return fmt.Sprintf("internal error: %s", e.Invariant) }
