// Package graphbuild implements component D of the bundle pipeline: it
// discovers every module reachable from the entry points, in parallel,
// and assembles them into an arena addressed by small integer id, per
// spec §9's explicit redesign note away from the teacher's/tain335's
// path-keyed maps and mutable package-level scan state.
package graphbuild

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/gobundle/gobundle/internal/buildctx"
	"github.com/gobundle/gobundle/internal/cache"
	"github.com/gobundle/gobundle/internal/config"
	"github.com/gobundle/gobundle/internal/jsscan"
	"github.com/gobundle/gobundle/internal/resolver"
	"github.com/gobundle/gobundle/internal/transform"
	"github.com/gobundle/gobundle/internal/vfs"
)

// ModuleID indexes into Graph.Modules. Zero is a valid id (the first
// module discovered); callers that need a sentinel use -1.
type ModuleID int

type ImportEdge struct {
	Specifier  string
	Kind       jsscan.ImportKind
	Bindings   []jsscan.Binding
	Target     ModuleID // -1 when External or unresolved
	External   bool
	Unresolved bool
	TypeOnly   bool
	Range      jsscan.Range
}

// Module is one arena slot: a fully loaded, transformed file plus its
// outgoing edges. Edges are resolved to other arena slots by id, never by
// path, so the shaker/chunker never re-touch the filesystem or resolver.
type Module struct {
	ID          ModuleID
	AbsPath     string
	Source      string
	ContentHash string
	Loader      config.Loader
	Parsed      jsscan.ParseOutput
	Transformed transform.Result
	Imports     []ImportEdge
	IsEntry     bool
	SideEffects bool
}

// Graph is the arena plus the lookup table used only during discovery
// (the shaker/chunker that consume a finished Graph index Modules by
// ModuleID, never by path).
type Graph struct {
	Modules     []*Module
	EntryPoints []ModuleID

	mu     sync.Mutex
	byPath map[string]ModuleID
}

func newGraph() *Graph {
	return &Graph{byPath: make(map[string]ModuleID)}
}

// reserve either returns the existing slot for absPath, or allocates a new
// one and reports that the caller must populate and schedule it. This is
// the single synchronization point serializing concurrent discovery of
// the same file reached through two different import edges.
func (g *Graph) reserve(absPath string) (id ModuleID, isNew bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id, ok := g.byPath[absPath]; ok {
		return id, false
	}
	id = ModuleID(len(g.Modules))
	g.Modules = append(g.Modules, nil)
	g.byPath[absPath] = id
	return id, true
}

func (g *Graph) set(id ModuleID, m *Module) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Modules[id] = m
}

// maxWorkers bounds the discovery worker pool; discovery is I/O- and
// scan-bound per file, so this scales with CPU count the way the
// teacher's own parallel scan phase does.
func maxWorkers() int {
	n := runtime.NumCPU()
	if n < 2 {
		return 2
	}
	return n
}

// Build walks every entry point and its transitive imports, loading,
// parsing, and transforming each discovered file exactly once. Errors from
// individual files are recorded on env.Log rather than aborting the whole
// walk, so a single bad module doesn't prevent reporting problems in the
// rest of the graph; an entry point that fails to resolve, or a file that
// can't be read, is the exception that does abort (spec §4.4: "a missing
// entry point is fatal"). An import that fails to resolve is logged and
// its edge marked Unresolved.
func Build(ctx context.Context, env *buildctx.BuildEnv, fs vfs.FS, res *resolver.Resolver, caches *cache.Set) (*Graph, error) {
	if err := env.Hooks.RunOnStart(); err != nil {
		return nil, fmt.Errorf("plugin onStart: %w", err)
	}

	g := newGraph()
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(maxWorkers())

	for _, entry := range env.Options.EntryPoints {
		entry := entry
		resolved, err := res.Resolve(entry, fs.Join(".", "entry"))
		if err != nil {
			return nil, fmt.Errorf("entry point %q: %w", entry, err)
		}
		if resolved.Kind != resolver.ResultFile {
			return nil, fmt.Errorf("entry point %q did not resolve to a file", entry)
		}
		id, isNew := g.reserve(resolved.AbsPath)
		g.mu.Lock()
		g.EntryPoints = append(g.EntryPoints, id)
		g.mu.Unlock()
		if isNew {
			scheduleLoad(group, gctx, g, env, fs, res, caches, id, resolved.AbsPath, true)
		}
	}

	waitErr := group.Wait()
	if endErr := env.Hooks.RunOnEnd(waitErr != nil || env.Log.HasErrors()); endErr != nil && waitErr == nil {
		waitErr = fmt.Errorf("plugin onEnd: %w", endErr)
	}
	if waitErr != nil {
		return nil, waitErr
	}
	return g, nil
}

func scheduleLoad(group *errgroup.Group, ctx context.Context, g *Graph, env *buildctx.BuildEnv, fs vfs.FS, res *resolver.Resolver, caches *cache.Set, id ModuleID, absPath string, isEntry bool) {
	group.Go(func() error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		return loadModule(group, ctx, g, env, fs, res, caches, id, absPath, isEntry)
	})
}

func loadModule(group *errgroup.Group, ctx context.Context, g *Graph, env *buildctx.BuildEnv, fs vfs.FS, res *resolver.Resolver, caches *cache.Set, id ModuleID, absPath string, isEntry bool) error {
	loader := loaderForPath(env.Options, absPath)

	var source string
	if loaded, matched, err := env.Hooks.RunOnLoad(config.OnLoadArgs{Path: absPath}); err != nil {
		return fmt.Errorf("plugin onLoad %q: %w", absPath, err)
	} else if matched {
		source = *loaded.Contents
		if loaded.Loader != config.LoaderDefault {
			loader = loaded.Loader
		}
	} else {
		var err error
		source, err = fs.ReadFile(absPath)
		if err != nil {
			return fmt.Errorf("reading %q: %w", absPath, err)
		}
	}

	if loader == config.LoaderJSON {
		// "JSON handled upstream": a .json file has no import/export syntax
		// of its own, so it is given one here, before jsscan ever sees it,
		// by wrapping its contents in the default-export statement a JS
		// consumer's "import data from './x.json'" expects.
		source = "export default " + source + ";"
	}

	contentHash := cache.ContentHash([]byte(source))

	parsed := jsscan.Parse(source, absPath)
	if len(parsed.SyntaxErrors) > 0 {
		for _, se := range parsed.SyntaxErrors {
			env.Log.AddError(nil, fmt.Sprintf("%s: %s", absPath, se.Text))
		}
	}

	tOpts := transformOptionsFor(env.Options, loader)
	fingerprint := cache.OptionsFingerprint(tOpts)

	var result transform.Result
	if cached, ok := caches.Transform.Get(contentHash, fingerprint); ok {
		result = cached
	} else {
		var err error
		result, err = transform.Transform(source, tOpts)
		if err != nil {
			env.Log.AddError(nil, fmt.Sprintf("%s: %s", absPath, err))
			result = transform.Result{Code: source}
		}
		caches.Transform.Put(contentHash, fingerprint, result)
	}

	if len(env.Hooks.OnTransform) > 0 {
		transformedCode, err := env.Hooks.RunOnTransform(absPath, result.Code, loader)
		if err != nil {
			return fmt.Errorf("plugin onTransform %q: %w", absPath, err)
		}
		result.Code = transformedCode
	}

	pkg := res.OwningPackage(absPath)
	sideEffects := true
	if pkg != nil {
		rel, ok := fs.Rel(pkg.AbsDir, absPath)
		if ok {
			sideEffects = pkg.SideEffects.Matches(rel)
		}
	}

	m := &Module{
		ID:          id,
		AbsPath:     absPath,
		Source:      source,
		ContentHash: contentHash,
		Loader:      loader,
		Parsed:      parsed,
		Transformed: result,
		IsEntry:     isEntry,
		SideEffects: sideEffects,
	}

	for _, imp := range parsed.Imports {
		// A bare side-effect-only import is never pruned by the shaker even
		// if the target package declares sideEffects:false, per spec §5's
		// explicit precedence rule; that decision happens in the shaker,
		// not here, so the edge just carries enough information to act on.
		edge := ImportEdge{Specifier: imp.Specifier, Kind: imp.Kind, Bindings: imp.Bindings, Target: -1, TypeOnly: imp.TypeOnly, Range: imp.Range}

		resolved, err := res.Resolve(imp.Specifier, absPath)
		if err != nil {
			edge.Unresolved = true
			env.Log.AddError(nil, fmt.Sprintf("%s: %s", absPath, err))
			m.Imports = append(m.Imports, edge)
			continue
		}
		switch resolved.Kind {
		case resolver.ResultExternal:
			edge.External = true
		case resolver.ResultFile:
			childID, isNew := g.reserve(resolved.AbsPath)
			edge.Target = childID
			if isNew {
				scheduleLoad(group, ctx, g, env, fs, res, caches, childID, resolved.AbsPath, false)
			}
		default:
			edge.Unresolved = true
		}
		m.Imports = append(m.Imports, edge)
	}

	g.set(id, m)
	return nil
}

func loaderForPath(opts config.Options, absPath string) config.Loader {
	switch ext(absPath) {
	case ".tsx":
		return config.LoaderTSX
	case ".ts":
		return config.LoaderTS
	case ".jsx":
		return config.LoaderJSX
	case ".json":
		return config.LoaderJSON
	case ".mjs", ".cjs", ".js":
		return config.LoaderJS
	default:
		return config.LoaderText
	}
}

func ext(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[i:]
		}
	}
	return ""
}

func transformOptionsFor(opts config.Options, loader config.Loader) transform.Options {
	return transform.Options{
		Loader:        loader,
		JSXAutomatic:  opts.JSX == config.JSXAutomatic,
		JSXFactory:    opts.JSXFactory,
		JSXFragment:   opts.JSXFragment,
		JSXImportFrom: opts.JSXImportFrom,
		Define:        opts.Define,
	}
}
