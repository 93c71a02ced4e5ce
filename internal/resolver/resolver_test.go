package resolver

import (
	"testing"

	"github.com/gobundle/gobundle/internal/config"
	"github.com/gobundle/gobundle/internal/vfs"
)

func TestResolveRelativeImport(t *testing.T) {
	fs := vfs.NewMockFS(map[string]string{
		"/src/entry.js": `import {b} from "./b"`,
		"/src/b.js":     `export const b = 1`,
	})
	res := New(fs, config.DefaultOptions())

	resolved, err := res.Resolve("./b", "/src/entry.js")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Kind != ResultFile || resolved.AbsPath != "/src/b.js" {
		t.Fatalf("unexpected resolution %+v", resolved)
	}
}

func TestResolveBuiltinIsExternal(t *testing.T) {
	fs := vfs.NewMockFS(map[string]string{"/src/entry.js": ``})
	res := New(fs, config.DefaultOptions())

	resolved, err := res.Resolve("fs", "/src/entry.js")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Kind != ResultExternal {
		t.Fatalf("expected fs to resolve external, got %+v", resolved)
	}
}

func TestResolveMissingFileIsNotFound(t *testing.T) {
	fs := vfs.NewMockFS(map[string]string{"/src/entry.js": ``})
	res := New(fs, config.DefaultOptions())

	if _, err := res.Resolve("./missing", "/src/entry.js"); err == nil {
		t.Fatal("expected an error resolving a missing relative import")
	}
}

// TestOnResolveHookOverridesBeforeBuiltinSteps exercises the plugin wiring
// added to resolveUncached: a hook matching everything must run, and win,
// before relative/bare resolution is ever attempted.
func TestOnResolveHookOverridesBeforeBuiltinSteps(t *testing.T) {
	fs := vfs.NewMockFS(map[string]string{
		"/src/entry.js":     ``,
		"/virtual/inject.js": `export const injected = 1`,
	})
	opts := config.DefaultOptions()
	opts.Plugins = []config.Plugin{
		{Name: "virtualize", Setup: func(b config.PluginBuild) {
			b.OnResolve(config.Filter{Pattern: `^virtual:`}, func(args config.OnResolveArgs) (config.OnResolveResult, error) {
				return config.OnResolveResult{Path: "/virtual/inject.js"}, nil
			})
		}},
	}
	res := New(fs, opts)

	resolved, err := res.Resolve("virtual:thing", "/src/entry.js")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Kind != ResultFile || resolved.AbsPath != "/virtual/inject.js" {
		t.Fatalf("expected the onResolve hook's path to win, got %+v", resolved)
	}
}

func TestOnResolveHookCanMarkExternal(t *testing.T) {
	fs := vfs.NewMockFS(map[string]string{"/src/entry.js": ``})
	opts := config.DefaultOptions()
	opts.Plugins = []config.Plugin{
		{Name: "externalize", Setup: func(b config.PluginBuild) {
			b.OnResolve(config.Filter{Pattern: `^some-cdn-lib$`}, func(args config.OnResolveArgs) (config.OnResolveResult, error) {
				return config.OnResolveResult{External: true}, nil
			})
		}},
	}
	res := New(fs, opts)

	resolved, err := res.Resolve("some-cdn-lib", "/src/entry.js")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Kind != ResultExternal {
		t.Fatalf("expected hook to externalize, got %+v", resolved)
	}
}

func TestOnResolveHookNotMatchingFallsThroughToBuiltins(t *testing.T) {
	fs := vfs.NewMockFS(map[string]string{
		"/src/entry.js": `import {b} from "./b"`,
		"/src/b.js":     `export const b = 1`,
	})
	opts := config.DefaultOptions()
	opts.Plugins = []config.Plugin{
		{Name: "virtualize", Setup: func(b config.PluginBuild) {
			b.OnResolve(config.Filter{Pattern: `^virtual:`}, func(args config.OnResolveArgs) (config.OnResolveResult, error) {
				return config.OnResolveResult{Path: "/virtual/inject.js"}, nil
			})
		}},
	}
	res := New(fs, opts)

	resolved, err := res.Resolve("./b", "/src/entry.js")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Kind != ResultFile || resolved.AbsPath != "/src/b.js" {
		t.Fatalf("expected built-in relative resolution to still run, got %+v", resolved)
	}
}
