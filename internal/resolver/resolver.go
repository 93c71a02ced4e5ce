// Package resolver implements component A of the bundle pipeline: mapping
// (specifier, importing file) to an absolute on-disk path or "external",
// per spec.md §4.1. Grounded on evanw-esbuild's internal/resolver
// (resolverQuery method-per-step shape, PathPair/DebugMeta result types).
package resolver

import (
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/gobundle/gobundle/internal/config"
	"github.com/gobundle/gobundle/internal/vfs"
)

type ResultKind uint8

const (
	ResultFile ResultKind = iota
	ResultExternal
	ResultNotFound
)

type Resolved struct {
	Kind    ResultKind
	AbsPath string
	Package *PackageJSON
	// Specifier is only set for ResultExternal, so the emitter can write
	// the original specifier back out untouched.
	Specifier string
}

type NotFoundError struct {
	Specifier string
	Importer  string
}

func (e *NotFoundError) Error() string {
	return "could not resolve \"" + e.Specifier + "\" from \"" + e.Importer + "\""
}

type AmbiguousError struct {
	Specifier string
	Candidate string
}

func (e *AmbiguousError) Error() string {
	return "\"exports\" in package.json has no matching condition for \"" + e.Specifier + "\" (tried " + e.Candidate + ")"
}

// builtinModules are the runtime builtins that are external without any
// configuration, per spec §4.1 step 1.
var builtinModules = map[string]bool{
	"fs": true, "path": true, "crypto": true, "os": true, "http": true,
	"https": true, "net": true, "tls": true, "zlib": true, "stream": true,
	"util": true, "buffer": true, "events": true, "assert": true,
	"querystring": true, "url": true, "dns": true, "dgram": true,
	"cluster": true, "readline": true, "repl": true, "vm": true,
	"worker_threads": true, "perf_hooks": true, "async_hooks": true,
	"child_process": true, "module": true, "process": true,
}

type cacheKey struct {
	dir        string
	specifier  string
}

type Resolver struct {
	fs      vfs.FS
	options config.Options
	hooks   config.Hooks

	mu          sync.Mutex
	resultCache map[cacheKey]Resolved
	pkgCache    map[string]*PackageJSON // by absolute package.json path
	dirPkgCache map[string]*PackageJSON // by directory -> nearest package.json walking up

	group singleflight.Group
}

func New(fs vfs.FS, options config.Options) *Resolver {
	return NewWithHooks(fs, options, config.CompileHooks(options.Plugins))
}

// NewWithHooks lets a caller share one compiled Hooks value (from
// buildctx.BuildEnv) across the resolver and the rest of the pipeline,
// instead of every package re-running plugin Setup callbacks on its own.
func NewWithHooks(fs vfs.FS, options config.Options, hooks config.Hooks) *Resolver {
	return &Resolver{
		fs:          fs,
		options:     options,
		hooks:       hooks,
		resultCache: make(map[cacheKey]Resolved),
		pkgCache:    make(map[string]*PackageJSON),
		dirPkgCache: make(map[string]*PackageJSON),
	}
}

// InvalidateDir drops every cache entry keyed on dir, for when a
// package.json inside dir changes (spec §3).
func (r *Resolver) InvalidateDir(dir string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.resultCache {
		if k.dir == dir {
			delete(r.resultCache, k)
		}
	}
	delete(r.dirPkgCache, dir)
	for path, pkg := range r.pkgCache {
		if pkg.AbsDir == dir {
			delete(r.pkgCache, path)
		}
	}
}

// Resolve is the resolver's public contract: resolve(specifier,
// importing-file) -> Resolved, per spec §4.1.
//
// Concurrent calls for the same (dir, specifier) are coalesced through
// singleflight so two workers racing to resolve the same bare import don't
// duplicate the directory-walk and package.json parse work (spec §5
// "Resolution and graph mutation run on the driver thread", relaxed here
// since resolution itself has no mutable shared state beyond the cache).
func (r *Resolver) Resolve(specifier, importingFile string) (Resolved, error) {
	dir := r.fs.Dir(importingFile)
	return r.resolveFromDir(specifier, dir)
}

func (r *Resolver) resolveFromDir(specifier, dir string) (Resolved, error) {
	key := cacheKey{dir: dir, specifier: specifier}

	r.mu.Lock()
	if cached, ok := r.resultCache[key]; ok {
		r.mu.Unlock()
		if cached.Kind == ResultNotFound {
			return cached, &NotFoundError{Specifier: specifier, Importer: dir}
		}
		return cached, nil
	}
	r.mu.Unlock()

	groupKey := dir + "\x00" + specifier
	v, err, _ := r.group.Do(groupKey, func() (interface{}, error) {
		resolved, resolveErr := r.resolveUncached(specifier, dir)
		r.mu.Lock()
		r.resultCache[key] = resolved
		r.mu.Unlock()
		return resolved, resolveErr
	})
	if err != nil {
		return v.(Resolved), err
	}
	return v.(Resolved), nil
}

func (r *Resolver) resolveUncached(specifier, dir string) (Resolved, error) {
	// Step 0: plugin onResolve hooks run before any built-in resolution
	// step, per spec §6 "intercepts resolution when the specifier matches
	// the filter" — a plugin is meant to be able to override anything,
	// including what would otherwise resolve to a builtin or an alias.
	if len(r.hooks.OnResolve) > 0 {
		res, matched, err := r.hooks.RunOnResolve(config.OnResolveArgs{Path: specifier, Importer: dir, ResolveDir: dir})
		if err != nil {
			return Resolved{Kind: ResultNotFound}, err
		}
		if matched {
			if res.External {
				return Resolved{Kind: ResultExternal, Specifier: specifier}, nil
			}
			if path, pkg, ok := r.fileProbe(res.Path); ok {
				return Resolved{Kind: ResultFile, AbsPath: path, Package: pkg}, nil
			}
			return Resolved{Kind: ResultNotFound}, &NotFoundError{Specifier: specifier, Importer: dir}
		}
	}

	// Step 1: externals.
	if r.isExternal(specifier) {
		return Resolved{Kind: ResultExternal, Specifier: specifier}, nil
	}

	// Step 2: alias.
	if target, rest, ok := r.matchAlias(specifier); ok {
		return r.resolveUncached(target+rest, dir)
	}

	// Step 3: path-mapping.
	if path, ok := r.matchPathMap(specifier, dir); ok {
		return Resolved{Kind: ResultFile, AbsPath: path}, nil
	}

	// Step 4: relative / absolute.
	if strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") || strings.HasPrefix(specifier, "/") {
		var candidate string
		if strings.HasPrefix(specifier, "/") {
			candidate = specifier
		} else {
			candidate = r.fs.Join(dir, specifier)
		}
		if path, pkg, ok := r.fileProbe(candidate); ok {
			return Resolved{Kind: ResultFile, AbsPath: path, Package: pkg}, nil
		}
		return Resolved{Kind: ResultNotFound}, &NotFoundError{Specifier: specifier, Importer: dir}
	}

	// Step 5: bare specifier, walk node_modules upward.
	if path, pkg, ok := r.resolveBare(specifier, dir); ok {
		return Resolved{Kind: ResultFile, AbsPath: path, Package: pkg}, nil
	}
	return Resolved{Kind: ResultNotFound}, &NotFoundError{Specifier: specifier, Importer: dir}
}

func (r *Resolver) isExternal(specifier string) bool {
	if strings.HasPrefix(specifier, "node:") {
		return true
	}
	firstSegment := specifier
	if idx := strings.IndexByte(specifier, '/'); idx >= 0 && !strings.HasPrefix(specifier, "@") {
		firstSegment = specifier[:idx]
	}
	if builtinModules[firstSegment] {
		return true
	}
	for _, pattern := range r.options.External {
		if pattern.Matches(specifier) {
			return true
		}
	}
	return false
}

func (r *Resolver) matchAlias(specifier string) (target string, rest string, ok bool) {
	if direct, ok := r.options.Alias[specifier]; ok {
		return direct, "", true
	}
	for key, value := range r.options.Alias {
		if strings.HasPrefix(specifier, key+"/") {
			return value, specifier[len(key):], true
		}
	}
	return "", "", false
}

func (r *Resolver) matchPathMap(specifier, dir string) (string, bool) {
	for _, entry := range r.options.PathMaps {
		capture, ok := matchStarPattern(entry.Pattern, specifier)
		if !ok {
			continue
		}
		for _, target := range entry.Targets {
			candidate := strings.Replace(target, "*", capture, 1)
			if !strings.HasPrefix(candidate, "/") {
				candidate = r.fs.Join(dir, candidate)
			}
			if path, _, ok := r.fileProbe(candidate); ok {
				return path, true
			}
		}
	}
	return "", false
}

func matchStarPattern(pattern, specifier string) (string, bool) {
	idx := strings.Index(pattern, "*")
	if idx < 0 {
		if pattern == specifier {
			return "", true
		}
		return "", false
	}
	prefix, suffix := pattern[:idx], pattern[idx+1:]
	if !strings.HasPrefix(specifier, prefix) || !strings.HasSuffix(specifier, suffix) {
		return "", false
	}
	if len(specifier) < len(prefix)+len(suffix) {
		return "", false
	}
	capture := specifier[len(prefix) : len(specifier)-len(suffix)]
	if capture == "" {
		return "", false // "*" captures one segment-or-more, per spec §4.1 step 3
	}
	return capture, true
}

// resolveBare walks upward from dir checking node_modules/<pkg-name>/ at
// each level, per spec §4.1 step 5.
func (r *Resolver) resolveBare(specifier, dir string) (string, *PackageJSON, bool) {
	pkgName, subpath, ok := splitPackageSpecifier(specifier)
	if !ok {
		return "", nil, false
	}

	current := dir
	seen := map[string]bool{}
	for {
		if seen[current] {
			break // cyclic symlink guard, per spec §4.1 "the walk must terminate"
		}
		seen[current] = true

		pkgDir := r.fs.Join(current, "node_modules", pkgName)
		if kind, ok := r.fs.Stat(pkgDir); ok && kind == vfs.EntryDir {
			if path, pkg, ok := r.packageProbe(pkgDir, subpath); ok {
				return path, pkg, true
			}
		}

		parent := r.fs.Dir(current)
		if parent == current {
			break // reached the filesystem root
		}
		current = parent
	}
	return "", nil, false
}

// splitPackageSpecifier splits "pkg/sub/path" into ("pkg", "sub/path") and
// "@scope/pkg/sub" into ("@scope/pkg", "sub"), per spec §3 bare specifiers.
func splitPackageSpecifier(specifier string) (name, subpath string, ok bool) {
	if specifier == "" {
		return "", "", false
	}
	parts := strings.SplitN(specifier, "/", 3)
	if strings.HasPrefix(specifier, "@") {
		if len(parts) < 2 {
			return "", "", false
		}
		name = parts[0] + "/" + parts[1]
		if len(parts) == 3 {
			subpath = parts[2]
		}
		return name, subpath, true
	}
	name = parts[0]
	if len(parts) > 1 {
		subpath = strings.Join(parts[1:], "/")
	}
	return name, subpath, true
}

// packageProbe resolves pkgDir's package.json entry point for the given
// subpath ("" means the package root), per spec §4.1 "Package probe".
func (r *Resolver) packageProbe(pkgDir, subpath string) (string, *PackageJSON, bool) {
	pkg := r.packageJSONCached(r.fs.Join(pkgDir, "package.json"))

	if pkg != nil && pkg.HasExports {
		exportsSubpath := "."
		if subpath != "" {
			exportsSubpath = "./" + subpath
		}
		target, status := resolveExports(pkg.Exports, exportsSubpath, r.options.ConditionPriority())
		if status != exportsFound {
			// "exports is authoritative -- if it exists and does not
			// match, fail with NotFound" (spec §4.1).
			return "", nil, false
		}
		abs := r.fs.Join(pkgDir, target)
		if path, _, ok := r.fileProbe(abs); ok {
			return path, pkg, true
		}
		return "", nil, false
	}

	if subpath != "" {
		// No "exports": a deep import just joins onto the package dir and
		// runs the normal file probe.
		abs := r.fs.Join(pkgDir, subpath)
		if path, _, ok := r.fileProbe(abs); ok {
			return path, pkg, true
		}
		return "", nil, false
	}

	if pkg == nil {
		// No package.json at all: fall back to index.* in the file probe.
		if path, _, ok := r.fileProbe(pkgDir); ok {
			return path, nil, true
		}
		return "", nil, false
	}

	var entry string
	if r.options.Target == config.TargetBrowser && pkg.Browser != "" {
		entry = pkg.Browser
	} else if pkg.Module != "" {
		entry = pkg.Module
	} else if pkg.Main != "" {
		entry = pkg.Main
	} else {
		entry = "index"
	}

	abs := r.fs.Join(pkgDir, entry)
	if path, _, ok := r.fileProbe(abs); ok {
		return path, pkg, true
	}
	return "", nil, false
}

// fileProbe implements spec §4.1 "File probe": exact file, then each
// configured extension, then directory index, then delegate to the
// package probe if a package.json exists at that directory.
func (r *Resolver) fileProbe(candidate string) (string, *PackageJSON, bool) {
	if kind, ok := r.fs.Stat(candidate); ok && kind == vfs.EntryFile {
		return candidate, nil, true
	}

	for _, ext := range r.options.ExtensionOrder {
		withExt := candidate + ext
		if kind, ok := r.fs.Stat(withExt); ok && kind == vfs.EntryFile {
			return withExt, nil, true
		}
	}

	if kind, ok := r.fs.Stat(candidate); ok && kind == vfs.EntryDir {
		for _, ext := range r.options.ExtensionOrder {
			indexPath := r.fs.Join(candidate, "index"+ext)
			if kind, ok := r.fs.Stat(indexPath); ok && kind == vfs.EntryFile {
				return indexPath, nil, true
			}
		}
		pkgJSONPath := r.fs.Join(candidate, "package.json")
		if _, ok := r.fs.Stat(pkgJSONPath); ok {
			return r.packageProbe(candidate, "")
		}
	}

	return "", nil, false
}

// packageJSONCached reads and memoises one package.json file by absolute
// path, per spec §4.1 "Caching".
func (r *Resolver) packageJSONCached(path string) *PackageJSON {
	r.mu.Lock()
	if pkg, ok := r.pkgCache[path]; ok {
		r.mu.Unlock()
		return pkg
	}
	r.mu.Unlock()

	pkg := parsePackageJSON(r.fs, path)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pkgCache[path] = pkg // nil is cached too: "doesn't exist" is stable within a build
	return pkg
}

// OwningPackage walks upward from a resolved file's directory to find the
// nearest package.json, used by graphbuild to set Module.SideEffects from
// the package's sideEffects field (spec §4.5).
func (r *Resolver) OwningPackage(absFilePath string) *PackageJSON {
	dir := r.fs.Dir(absFilePath)
	r.mu.Lock()
	if pkg, ok := r.dirPkgCache[dir]; ok {
		r.mu.Unlock()
		return pkg
	}
	r.mu.Unlock()

	current := dir
	seen := map[string]bool{}
	var found *PackageJSON
	for {
		if seen[current] {
			break
		}
		seen[current] = true
		candidate := r.fs.Join(current, "package.json")
		if _, ok := r.fs.Stat(candidate); ok {
			found = r.packageJSONCached(candidate)
			break
		}
		parent := r.fs.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	r.mu.Lock()
	r.dirPkgCache[dir] = found
	r.mu.Unlock()
	return found
}

// IsPackagePath reports whether path looks like a bare package specifier
// rather than a relative/absolute one.
func IsPackagePath(path string) bool {
	return path != "" && !strings.HasPrefix(path, "/") && !strings.HasPrefix(path, "./") && !strings.HasPrefix(path, "../")
}
