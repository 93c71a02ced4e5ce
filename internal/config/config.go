// Package config holds the typed build configuration (spec.md §6), the
// fixed plugin-hook interface, and the small helpers that act on them
// (filter and pattern matching, default condition lists, and compiling and
// running plugin hooks in plugins.go). Every other package takes an
// *Options (or a narrower per-phase view of it) by value or pointer rather
// than reaching for a global.
package config

import "github.com/gobundle/gobundle/internal/logger"

type Target uint8

const (
	TargetBrowser Target = iota
	TargetServer
)

type Format uint8

const (
	FormatIIFE Format = iota
	FormatCJS
	FormatESM
)

type SourceMapMode uint8

const (
	SourceMapNone SourceMapMode = iota
	SourceMapInline
	SourceMapExternal
)

// JSXMode selects the lowering strategy the Transformer applies.
type JSXMode uint8

const (
	JSXClassic JSXMode = iota
	JSXAutomatic
)

type ExternalPattern struct {
	// Literal is a plain specifier match ("react"). Prefix, when non-empty,
	// matches any specifier with this prefix ("@internal/*" -> "@internal/").
	Literal string
	Prefix  string
}

func (p ExternalPattern) Matches(specifier string) bool {
	if p.Prefix != "" {
		return len(specifier) >= len(p.Prefix) && specifier[:len(p.Prefix)] == p.Prefix
	}
	return specifier == p.Literal
}

type PathMapEntry struct {
	Pattern string   // contains exactly one "*"
	Targets []string // tried in order, substituting the capture for "*"
}

// MinifyFunc is the pluggable post-processor every chunk's bytes are run
// through before being written out. nil means "no minification".
type MinifyFunc func(chunkPath string, code []byte) []byte

type Options struct {
	EntryPoints []string
	AbsOutdir   string
	Target      Target
	Format      Format
	Splitting   bool
	TreeShake   bool
	SourceMap   SourceMapMode
	Minify      MinifyFunc

	External []ExternalPattern
	Alias    map[string]string
	PathMaps []PathMapEntry
	Define   map[string]string

	JSX           JSXMode
	JSXFactory    string // default "h" / classic
	JSXFragment   string
	JSXImportFrom string // automatic runtime import source

	ExtensionOrder []string // e.g. [".tsx", ".ts", ".jsx", ".js", ".mjs", ".cjs", ".json"]

	Plugins []Plugin

	// Conditions appended to the target's default condition-name priority
	// list (spec §4.1 "exports resolution").
	ExtraConditions []string
}

func DefaultOptions() Options {
	return Options{
		Target:         TargetBrowser,
		Format:         FormatIIFE,
		Splitting:      true,
		TreeShake:      true,
		SourceMap:      SourceMapNone,
		Alias:          map[string]string{},
		Define:         map[string]string{},
		JSX:            JSXClassic,
		JSXFactory:     "h",
		JSXFragment:    "Fragment",
		ExtensionOrder: []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".json"},
	}
}

// ConditionPriority returns the package.json "exports" condition walk order
// for this target, per spec §4.1.
func (o Options) ConditionPriority() []string {
	var base []string
	if o.Target == TargetBrowser {
		base = []string{"browser", "import", "module", "default", "require"}
	} else {
		base = []string{"node", "import", "module", "require", "default"}
	}
	return append(base, o.ExtraConditions...)
}

// ---- Plugin interface (spec §6) ----
//
// A fixed, enumerated set of hooks with tagged-variant results, per the
// design note in spec §9: unknown hook names have no way to be registered
// at all, since registration is a typed method call rather than a
// duck-typed map lookup.

type OnResolveArgs struct {
	Path       string
	Importer   string
	ResolveDir string
	Kind       ImportKind
	PluginData interface{}
}

type OnResolveResult struct {
	Path       string
	Namespace  string
	External   bool
	PluginData interface{}
	Errors     []Msg
	Warnings   []Msg
}

type OnLoadArgs struct {
	Path       string
	Namespace  string
	PluginData interface{}
}

type Loader uint8

const (
	LoaderDefault Loader = iota
	LoaderJS
	LoaderJSX
	LoaderTS
	LoaderTSX
	LoaderJSON
	LoaderText
)

type OnLoadResult struct {
	Contents   *string
	Loader     Loader
	PluginData interface{}
	Errors     []Msg
	Warnings   []Msg
}

type OnTransformArgs struct {
	Path     string
	Code     string
	Loader   Loader
}

type OnTransformResult struct {
	Code     string
	Errors   []Msg
	Warnings []Msg
}

type Msg struct {
	Text string
}

type Filter struct {
	// Filter is matched against the specifier (OnResolve) or the resolved
	// path (OnLoad/OnTransform). Empty means "match everything".
	Pattern string
	match   func(string) bool
}

func (f *Filter) Matches(s string) bool {
	if f.match == nil {
		f.match = compileFilter(f.Pattern)
	}
	return f.match(s)
}

type ImportKind uint8

const (
	ImportStatic ImportKind = iota
	ImportDynamic
	ImportRequire
	ImportEntryPoint
)

type OnResolveCallback func(OnResolveArgs) (OnResolveResult, error)
type OnLoadCallback func(OnLoadArgs) (OnLoadResult, error)
type OnTransformCallback func(OnTransformArgs) (OnTransformResult, error)
type OnStartCallback func() error
type OnEndCallback func(hadErrors bool) error

type Plugin struct {
	Name  string
	Setup func(build PluginBuild)
}

// PluginBuild is handed to a plugin's Setup callback; it is the only way to
// register hooks, so unregistered hook *names* cannot exist.
type PluginBuild struct {
	OnResolve  func(Filter, OnResolveCallback)
	OnLoad     func(Filter, OnLoadCallback)
	OnTransform func(Filter, OnTransformCallback)
	OnStart    func(OnStartCallback)
	OnEnd      func(OnEndCallback)
}

// Log is implemented by internal/logger.Log; kept as a narrow interface so
// config never imports logger's concrete type into APIs that don't need it.
type Log interface {
	AddError(loc *logger.MsgLocation, text string)
	AddWarning(loc *logger.MsgLocation, text string)
	HasErrors() bool
}
