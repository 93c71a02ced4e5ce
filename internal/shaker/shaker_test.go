package shaker

import (
	"context"
	"testing"

	"github.com/gobundle/gobundle/internal/buildctx"
	"github.com/gobundle/gobundle/internal/cache"
	"github.com/gobundle/gobundle/internal/config"
	"github.com/gobundle/gobundle/internal/graphbuild"
	"github.com/gobundle/gobundle/internal/logger"
	"github.com/gobundle/gobundle/internal/resolver"
	"github.com/gobundle/gobundle/internal/vfs"
)

func buildGraph(t *testing.T, files map[string]string, entry string) *graphbuild.Graph {
	t.Helper()
	fs := vfs.NewMockFS(files)
	opts := config.DefaultOptions()
	opts.EntryPoints = []string{entry}
	env := &buildctx.BuildEnv{Options: opts, Log: &logger.Log{}}
	res := resolver.New(fs, opts)
	g, err := graphbuild.Build(context.Background(), env, fs, res, cache.NewSet())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func TestShakeKeepsOnlyReachableModules(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"/src/entry.js": `import {x} from "./used"; console.log(x)`,
		"/src/used.js":  `export const x = 1`,
	}, "/src/entry.js")

	shaken := Shake(g, true)
	if len(shaken.Survivors) != 2 {
		t.Fatalf("expected 2 survivors, got %d", len(shaken.Survivors))
	}
	for _, id := range shaken.Survivors {
		if !shaken.IsLive(id) {
			t.Errorf("module %d in Survivors but not marked live", id)
		}
	}
}

func TestShakeDisabledKeepsEverything(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"/src/entry.js": `import "./a"`,
		"/src/a.js":     `export const a = 1`,
	}, "/src/entry.js")

	shaken := Shake(g, false)
	if len(shaken.Survivors) != len(g.Modules) {
		t.Fatalf("expected all %d modules to survive, got %d", len(g.Modules), len(shaken.Survivors))
	}
}

func TestShakeDoesNotKeepTypeOnlyImportTargetAlive(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"/src/entry.js": `import type {T} from "./types"; console.log("hi")`,
		"/src/types.js": `export const T = 1`,
	}, "/src/entry.js")

	shaken := Shake(g, true)
	for _, id := range shaken.Survivors {
		if g.Modules[id].AbsPath == "/src/types.js" {
			t.Fatal("a module reached only through a type-only import must not survive shaking (spec §3)")
		}
	}
	if len(shaken.Survivors) != 1 {
		t.Fatalf("expected only entry.js to survive, got %d survivors", len(shaken.Survivors))
	}
}

func TestShakeStillKeepsTargetAliveViaAnyOtherEdge(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"/src/entry.js":  `import type {T} from "./shared"; import {v} from "./shared"; console.log(v)`,
		"/src/shared.js": `export const v = 1`,
	}, "/src/entry.js")

	shaken := Shake(g, true)
	found := false
	for _, id := range shaken.Survivors {
		if g.Modules[id].AbsPath == "/src/shared.js" {
			found = true
		}
	}
	if !found {
		t.Fatal("a module reached by both a type-only edge and a real import must still survive")
	}
}

func TestReferencedExportsRecordsBindingNames(t *testing.T) {
	g := buildGraph(t, map[string]string{
		"/src/entry.js": `import {a, b as renamed} from "./lib"`,
		"/src/lib.js":   `export const a = 1; export const b = 2`,
	}, "/src/entry.js")

	shaken := Shake(g, true)
	var libID graphbuild.ModuleID
	for _, id := range shaken.Survivors {
		if g.Modules[id].AbsPath == "/src/lib.js" {
			libID = id
		}
	}
	refs := shaken.ReferencedExports[libID]
	if !refs["a"] || !refs["b"] {
		t.Fatalf("expected both a and b referenced, got %+v", refs)
	}
}
