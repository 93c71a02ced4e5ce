package resolver

import "strings"

// exportsStatus mirrors the three outcomes spec §4.1 "exports resolution"
// can reach: a concrete target, "this tree has no match" (Ambiguous), or
// "this tree doesn't apply" (fall through to the next array alternative).
type exportsStatus uint8

const (
	exportsFound exportsStatus = iota
	exportsNotFound
	exportsUndefined // no subpath/condition matched; caller should fail closed
)

// resolveExports walks the parsed "exports" tree for subpath (e.g. "."
// for the package root, "./sub" for pkg/sub) under the given condition
// priority list, per spec §4.1.
func resolveExports(node ExportsNode, subpath string, conditions []string) (string, exportsStatus) {
	if node == nil {
		return "", exportsUndefined
	}

	// A root object whose keys are all subpaths (begin with ".") is keyed
	// by subpath; everything else is a single target tree for subpath ".".
	if obj, ok := node.(map[string]interface{}); ok && isSubpathMap(obj) {
		if target, ok := obj[subpath]; ok {
			return resolveTarget(target, "", conditions)
		}
		// Pattern subpath keys: "./lib/*" -> try longest-prefix match.
		if best, capture, ok := bestPatternSubpathKey(obj, subpath); ok {
			return resolveTarget(obj[best], capture, conditions)
		}
		return "", exportsNotFound
	}

	if subpath != "." {
		// Root is a single target tree (not a subpath map) but a non-root
		// subpath was requested: only "." is servable.
		return "", exportsNotFound
	}
	return resolveTarget(node, "", conditions)
}

// resolveTarget resolves a single exports tree value (string, array, or
// condition object) against an already-chosen subpath, substituting
// capture into any "*" the target string contains.
func resolveTarget(value ExportsNode, capture string, conditions []string) (string, exportsStatus) {
	switch v := value.(type) {
	case nil:
		return "", exportsNotFound
	case string:
		return substituteCapture(v, capture), exportsFound
	case []interface{}:
		for _, item := range v {
			if target, status := resolveTarget(item, capture, conditions); status == exportsFound {
				return target, exportsFound
			}
		}
		return "", exportsNotFound
	case map[string]interface{}:
		if isSubpathMap(v) {
			// Nested subpath map inside a condition branch: re-dispatch
			// using the already-resolved subpath ".".
			return resolveExports(v, ".", conditions)
		}
		for _, cond := range conditions {
			if next, ok := v[cond]; ok {
				if target, status := resolveTarget(next, capture, conditions); status == exportsFound {
					return target, exportsFound
				}
			}
		}
		if next, ok := v["default"]; ok {
			return resolveTarget(next, capture, conditions)
		}
		return "", exportsUndefined
	default:
		return "", exportsNotFound
	}
}

func substituteCapture(target, capture string) string {
	if capture == "" || !strings.Contains(target, "*") {
		return target
	}
	return strings.Replace(target, "*", capture, 1)
}

func isSubpathMap(obj map[string]interface{}) bool {
	if len(obj) == 0 {
		return false
	}
	for key := range obj {
		if !strings.HasPrefix(key, ".") {
			return false
		}
	}
	return true
}

// bestPatternSubpathKey finds the pattern key ("./lib/*") whose literal
// prefix/suffix around "*" both match subpath, preferring the longest
// prefix (Node's actual tie-break; spec §4.1 only requires "the wildcard
// captures greedily", which this satisfies for the single-"*" case).
func bestPatternSubpathKey(obj map[string]interface{}, subpath string) (string, string, bool) {
	bestKey := ""
	bestCapture := ""
	bestPrefixLen := -1
	for key := range obj {
		idx := strings.Index(key, "*")
		if idx < 0 {
			continue
		}
		prefix, suffix := key[:idx], key[idx+1:]
		if !strings.HasPrefix(subpath, prefix) || !strings.HasSuffix(subpath, suffix) {
			continue
		}
		if len(subpath) < len(prefix)+len(suffix) {
			continue
		}
		capture := subpath[len(prefix) : len(subpath)-len(suffix)]
		if len(prefix) > bestPrefixLen {
			bestPrefixLen = len(prefix)
			bestKey = key
			bestCapture = capture
		}
	}
	if bestPrefixLen < 0 {
		return "", "", false
	}
	return bestKey, bestCapture, true
}

// subpathFor turns a bare package import ("pkg/sub/path" with name "pkg")
// into the exports-map subpath key ("./sub/path"), and the package root
// import ("pkg") into ".".
func subpathFor(importPath, pkgName string) string {
	rest := strings.TrimPrefix(importPath, pkgName)
	if rest == "" {
		return "."
	}
	rest = strings.TrimPrefix(rest, "/")
	return "./" + rest
}
