package graphbuild

import (
	"context"
	"testing"

	"github.com/gobundle/gobundle/internal/buildctx"
	"github.com/gobundle/gobundle/internal/cache"
	"github.com/gobundle/gobundle/internal/config"
	"github.com/gobundle/gobundle/internal/logger"
	"github.com/gobundle/gobundle/internal/resolver"
	"github.com/gobundle/gobundle/internal/vfs"
)

func TestBuildDiscoversTransitiveImports(t *testing.T) {
	fs := vfs.NewMockFS(map[string]string{
		"/src/entry.js": `import {b} from "./b"; console.log(b)`,
		"/src/b.js":     `import {c} from "./c"; export const b = c`,
		"/src/c.js":     `export const c = 1`,
	})

	opts := config.DefaultOptions()
	opts.EntryPoints = []string{"/src/entry.js"}
	env := &buildctx.BuildEnv{Options: opts, Log: &logger.Log{}}
	res := resolver.New(fs, opts)
	caches := cache.NewSet()

	g, err := Build(context.Background(), env, fs, res, caches)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(g.Modules) != 3 {
		t.Fatalf("expected 3 modules, got %d", len(g.Modules))
	}
	if len(g.EntryPoints) != 1 {
		t.Fatalf("expected 1 entry point, got %d", len(g.EntryPoints))
	}
	entry := g.Modules[g.EntryPoints[0]]
	if entry.AbsPath != "/src/entry.js" {
		t.Fatalf("unexpected entry path %q", entry.AbsPath)
	}
	if len(entry.Imports) != 1 || entry.Imports[0].Target < 0 {
		t.Fatalf("expected entry to resolve its one import, got %+v", entry.Imports)
	}
}

func TestBuildDeduplicatesDiamondImport(t *testing.T) {
	fs := vfs.NewMockFS(map[string]string{
		"/src/entry.js": `import "./a"; import "./b"`,
		"/src/a.js":     `import "./shared"`,
		"/src/b.js":     `import "./shared"`,
		"/src/shared.js": `export const x = 1`,
	})

	opts := config.DefaultOptions()
	opts.EntryPoints = []string{"/src/entry.js"}
	env := &buildctx.BuildEnv{Options: opts, Log: &logger.Log{}}
	res := resolver.New(fs, opts)
	caches := cache.NewSet()

	g, err := Build(context.Background(), env, fs, res, caches)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(g.Modules) != 4 {
		t.Fatalf("expected 4 distinct modules (diamond dedup), got %d", len(g.Modules))
	}
}

func TestBuildMissingEntryPointIsFatal(t *testing.T) {
	fs := vfs.NewMockFS(map[string]string{})
	opts := config.DefaultOptions()
	opts.EntryPoints = []string{"/src/missing.js"}
	env := &buildctx.BuildEnv{Options: opts, Log: &logger.Log{}}
	res := resolver.New(fs, opts)
	caches := cache.NewSet()

	if _, err := Build(context.Background(), env, fs, res, caches); err == nil {
		t.Fatal("expected error for missing entry point")
	}
}
