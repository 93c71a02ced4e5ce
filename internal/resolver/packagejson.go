package resolver

import (
	"encoding/json"
	"strings"

	"github.com/gobundle/gobundle/internal/vfs"
)

// ExportsNode is the parsed shape of a package.json "exports"/"imports"
// field: a string (final target), a []interface{} (try-in-order fallback
// chain), or a map[string]interface{} (subpath keys or condition keys).
type ExportsNode = interface{}

// SideEffects captures the package.json "sideEffects" field (spec §3):
// absent means "assume side effects present"; false means "none"; a glob
// list means "only these paths have side effects".
type SideEffects struct {
	Defined  bool
	AllFalse bool
	Globs    []string
}

// Matches reports whether pkgRelPath (slash-separated, relative to the
// package root) is covered by this SideEffects declaration.
func (se SideEffects) Matches(pkgRelPath string) bool {
	if !se.Defined {
		return true // no declaration: assume side effects present
	}
	if se.AllFalse {
		return false
	}
	for _, g := range se.Globs {
		if globMatch(g, pkgRelPath) {
			return true
		}
	}
	return false
}

// PackageJSON is the parsed, cached contents of one package.json file.
type PackageJSON struct {
	AbsDir      string // directory containing this package.json
	AbsPath     string
	Name        string
	Version     string
	Main        string
	Module      string
	Browser     string // string form only, per spec §3
	Exports     ExportsNode
	Imports     ExportsNode
	HasExports  bool
	HasImports  bool
	SideEffects SideEffects
}

type rawPackageJSON struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Main        string          `json:"main"`
	Module      string          `json:"module"`
	Browser     json.RawMessage `json:"browser"`
	Exports     json.RawMessage `json:"exports"`
	Imports     json.RawMessage `json:"imports"`
	SideEffects json.RawMessage `json:"sideEffects"`
}

// parsePackageJSON reads and parses path, returning nil if it doesn't
// exist or fails to parse (a malformed package.json is not fatal on its
// own; it simply can't contribute an entry point).
func parsePackageJSON(fs vfs.FS, path string) *PackageJSON {
	contents, err := fs.ReadFile(path)
	if err != nil {
		return nil
	}
	var raw rawPackageJSON
	if err := json.Unmarshal([]byte(contents), &raw); err != nil {
		return nil
	}

	pkg := &PackageJSON{
		AbsDir:  fs.Dir(path),
		AbsPath: path,
		Name:    raw.Name,
		Version: raw.Version,
		Main:    raw.Main,
		Module:  raw.Module,
	}

	if len(raw.Browser) > 0 {
		var s string
		if json.Unmarshal(raw.Browser, &s) == nil {
			pkg.Browser = s
		}
		// An object-form "browser" map (per-module remapping) is not part
		// of this spec's data model (§3 says "browser (string form)");
		// silently ignored here rather than partially supported.
	}

	if len(raw.Exports) > 0 {
		var node ExportsNode
		if json.Unmarshal(raw.Exports, &node) == nil {
			pkg.Exports = node
			pkg.HasExports = true
		}
	}
	if len(raw.Imports) > 0 {
		var node ExportsNode
		if json.Unmarshal(raw.Imports, &node) == nil {
			pkg.Imports = node
			pkg.HasImports = true
		}
	}

	if len(raw.SideEffects) > 0 {
		var b bool
		if json.Unmarshal(raw.SideEffects, &b) == nil {
			pkg.SideEffects = SideEffects{Defined: true, AllFalse: !b}
		} else {
			var globs []string
			if json.Unmarshal(raw.SideEffects, &globs) == nil {
				pkg.SideEffects = SideEffects{Defined: true, Globs: globs}
			}
		}
	}

	return pkg
}

// globMatch implements the small glob subset package.json "sideEffects"
// lists use: "*" matches any run of non-separator characters, "**" matches
// anything including separators, everything else is literal.
func globMatch(pattern, path string) bool {
	pattern = strings.TrimPrefix(pattern, "./")
	path = strings.TrimPrefix(path, "./")
	return matchGlobSegments(pattern, path)
}

func matchGlobSegments(pattern, path string) bool {
	if pattern == path {
		return true
	}
	if strings.Contains(pattern, "**") {
		parts := strings.SplitN(pattern, "**", 2)
		return strings.HasPrefix(path, strings.TrimSuffix(parts[0], "/")) &&
			(parts[1] == "" || strings.HasSuffix(path, strings.TrimPrefix(parts[1], "/")))
	}
	pp := strings.Split(pattern, "/")
	pv := strings.Split(path, "/")
	if len(pp) != len(pv) {
		return false
	}
	for i := range pp {
		if !matchGlobSegment(pp[i], pv[i]) {
			return false
		}
	}
	return true
}

func matchGlobSegment(pattern, segment string) bool {
	if pattern == "*" {
		return true
	}
	if !strings.Contains(pattern, "*") {
		return pattern == segment
	}
	idx := strings.Index(pattern, "*")
	prefix, suffix := pattern[:idx], pattern[idx+1:]
	return strings.HasPrefix(segment, prefix) && strings.HasSuffix(segment, suffix) && len(segment) >= len(prefix)+len(suffix)
}
