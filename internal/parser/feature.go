package parser

import "github.com/qwexsh/qwex/internal/ast"

// ParseFeatureKey splits a submodule key of the form "name[feature]" into
// its unsuffixed name and the feature (if any), grounded on
// parser.rs's parse_feature.
func ParseFeatureKey(fullKey string) (name string, feature string, hasFeature bool) {
	for i := 0; i < len(fullKey); i++ {
		if fullKey[i] == '[' && len(fullKey) > 0 && fullKey[len(fullKey)-1] == ']' {
			return fullKey[:i], fullKey[i+1 : len(fullKey)-1], true
		}
	}
	return fullKey, "", false
}

// featureSet builds a lookup set from a comma-delimited feature string.
func featureSet(features string) map[string]struct{} {
	set := map[string]struct{}{}
	start := 0
	for i := 0; i <= len(features); i++ {
		if i == len(features) || features[i] == ',' {
			if i > start {
				set[features[start:i]] = struct{}{}
			}
			start = i + 1
		}
	}
	return set
}

// mergeReserved merges addition's tasks and props into base, in addition's
// order, overwriting on key conflicts. Used for the "tasks[feat]"/"props[feat]"
// reserved-word merge path; grounded on parser.rs's merge_module_in_place,
// which -- per the original implementation -- folds in both collections
// regardless of which reserved word triggered the merge.
func mergeReserved(base, addition *ast.Module) {
	base.Tasks.Merge(addition.Tasks)
	base.Props.Merge(addition.Props)
}

// mergeSubmodule merges addition into base for a plain (non-reserved)
// submodule name: tasks and props are overwritten key-by-key, and nested
// modules are unioned with addition winning on conflict. This is spec.md
// §4.3's explicit rule, which is a stricter guarantee than parser.rs's
// merge_module_in_place (which leaves base.modules untouched); spec.md is
// authoritative here, see DESIGN.md.
func mergeSubmodule(base, addition *ast.Module) {
	mergeReserved(base, addition)
	for _, k := range addition.Modules.Keys() {
		sub, _ := addition.Modules.Get(k)
		base.Modules.Set(k, sub)
	}
}

// MergeFeatures folds feature-suffixed submodule keys into the base module
// when isRoot is true, per spec.md §4.3: feature merging is applied only to
// the entry point, never to imported modules. Open Question #1 (spec.md
// §9) is resolved as "features overwrite base": when both an unsuffixed
// base and an active feature sibling exist for the same name, the feature
// subtree's tasks/props win per key.
func MergeFeatures(mf *ast.Module, isRoot bool, features string) *ast.Module {
	out := &ast.Module{
		Uses:    mf.Uses,
		Props:   mf.Props.Clone(),
		Tasks:   mf.Tasks.Clone(),
		Modules: ast.NewOrderedMap[*ast.Module](),
	}

	if !isRoot {
		// Imported modules are taken as-is: carry their submodules through
		// unmerged so later uses:-chain lookups still see them.
		for _, k := range mf.Modules.Keys() {
			sub, _ := mf.Modules.Get(k)
			out.Modules.Set(k, sub)
		}
		return out
	}

	active := featureSet(features)

	for _, fullKey := range mf.Modules.Keys() {
		sub, _ := mf.Modules.Get(fullKey)
		name, feature, hasFeature := ParseFeatureKey(fullKey)

		if hasFeature {
			if _, ok := active[feature]; !ok {
				continue
			}
		}

		if name == ast.TaskPrefix || name == ast.PropPrefix {
			mergeReserved(out, sub)
			continue
		}

		if existing, ok := out.Modules.Get(name); ok {
			mergeSubmodule(existing, sub)
			out.Modules.Set(name, existing)
		} else {
			out.Modules.Set(name, sub)
		}
	}

	return out
}
