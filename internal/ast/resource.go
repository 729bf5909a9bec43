package ast

import "strings"

// ResourceKind classifies an import string, grounded on ast.rs's Resource
// enum (Local/Remote/BuiltIn).
type ResourceKind int

const (
	// ResourceLocal is a filesystem path, resolved relative to the
	// importing file's directory.
	ResourceLocal ResourceKind = iota
	// ResourceRemote is an http(s):// URL. Per spec.md Open Question #3,
	// remote imports are not supported and always fail UnsupportedFormat.
	ResourceRemote
	// ResourceBuiltIn is an "@std/<name>" reference.
	ResourceBuiltIn
)

// StdPrefix is the namespace prefix for embedded builtin modules.
const StdPrefix = "@std/"

// ClassifyResource inspects an import string the way Resource::from(String)
// does in ast.rs, recognizing the "@std/" builtin prefix (spec.md §4.2) in
// place of the original's "builtin://" scheme and http(s):// remote URLs.
func ClassifyResource(s string) (ResourceKind, string) {
	switch {
	case strings.HasPrefix(s, "http://"), strings.HasPrefix(s, "https://"):
		return ResourceRemote, s
	case strings.HasPrefix(s, StdPrefix):
		return ResourceBuiltIn, strings.TrimPrefix(s, StdPrefix)
	default:
		return ResourceLocal, s
	}
}
