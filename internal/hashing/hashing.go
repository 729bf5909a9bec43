// Package hashing provides the seeded, deterministic 64-bit content and
// task-node hashing the pipeline depends on for dedup (spec.md §3, §4.5.5,
// §8 invariant 1). The original Rust prototype uses
// ahash::RandomState::with_seed(0); github.com/cespare/xxhash/v2 gives the
// same property in Go (a fixed, seedless algorithm is itself a "fixed
// seed" the way spec.md §5 wants: identical across runs for the same
// bytes).
package hashing

import (
	"encoding/json"

	"github.com/cespare/xxhash/v2"

	"github.com/qwexsh/qwex/internal/ast"
)

// Bytes hashes raw bytes.
func Bytes(b []byte) uint64 { return xxhash.Sum64(b) }

// String hashes a string without an extra copy.
func String(s string) uint64 { return xxhash.Sum64String(s) }

// ContentHash hashes a module's raw source text, per spec.md §3's
// "64-bit content hash of the raw source text".
func ContentHash(source string) uint64 { return String(source) }

// CanonicalizeProps serializes an effective-props map deterministically:
// encoding/json sorts map[string]interface{} keys, satisfying spec.md §9's
// "sorted keys for inner mappings" requirement without a bespoke canonical
// serializer.
func CanonicalizeProps(props ast.Props) ([]byte, error) {
	flat := make(map[string]ast.PropValue, props.Len())
	for _, k := range props.Keys() {
		v, _ := props.Get(k)
		flat[k] = v
	}
	return json.Marshal(flat)
}

// TaskNodeHash computes a TaskNode's stable hash from its command template
// and its serialized effective props, per spec.md §4.5.5.
func TaskNodeHash(cmdTemplate string, props ast.Props) (uint64, error) {
	serialized, err := CanonicalizeProps(props)
	if err != nil {
		return 0, err
	}
	buf := make([]byte, 0, len(cmdTemplate)+1+len(serialized))
	buf = append(buf, cmdTemplate...)
	buf = append(buf, 0) // separator: a cmd/props byte-boundary collision is astronomically unlikely but free to avoid
	buf = append(buf, serialized...)
	return Bytes(buf), nil
}
