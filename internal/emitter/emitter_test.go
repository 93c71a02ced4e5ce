package emitter

import (
	"context"
	"strings"
	"testing"

	"github.com/gobundle/gobundle/internal/buildctx"
	"github.com/gobundle/gobundle/internal/cache"
	"github.com/gobundle/gobundle/internal/chunker"
	"github.com/gobundle/gobundle/internal/config"
	"github.com/gobundle/gobundle/internal/graphbuild"
	"github.com/gobundle/gobundle/internal/logger"
	"github.com/gobundle/gobundle/internal/resolver"
	"github.com/gobundle/gobundle/internal/shaker"
	"github.com/gobundle/gobundle/internal/vfs"
)

func build(t *testing.T, files map[string]string, entries []string, configure func(*config.Options)) ([]Output, *graphbuild.Graph) {
	t.Helper()
	fs := vfs.NewMockFS(files)
	opts := config.DefaultOptions()
	opts.EntryPoints = entries
	opts.AbsOutdir = "/out"
	if configure != nil {
		configure(&opts)
	}
	benv := &buildctx.BuildEnv{Options: opts, Log: &logger.Log{}}
	res := resolver.New(fs, opts)
	g, err := graphbuild.Build(context.Background(), benv, fs, res, cache.NewSet())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	shaken := shaker.Shake(g, opts.TreeShake)
	assigned := chunker.Assign(g, shaken, opts.Splitting)

	eenv := buildctx.NewEmitEnv(benv)
	outputs, err := Emit(&eenv, fs, g, assigned)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	return outputs, g
}

func contentsFor(t *testing.T, outputs []Output, suffix string) string {
	t.Helper()
	for _, o := range outputs {
		if strings.HasSuffix(o.AbsPath, suffix) {
			return string(o.Contents)
		}
	}
	t.Fatalf("no output ending in %q among %d outputs", suffix, len(outputs))
	return ""
}

func TestEmitNamedAndDefaultExports(t *testing.T) {
	outputs, _ := build(t, map[string]string{
		"/src/entry.js": `
import value, { helper } from "./lib"
console.log(value, helper())
`,
		"/src/lib.js": `
export function helper() { return 1 }
export default 42
`,
	}, []string{"/src/entry.js"}, nil)

	out := contentsFor(t, outputs, "entry.js")
	if !strings.Contains(out, "__esm(") {
		t.Fatalf("expected registry factories in output:\n%s", out)
	}
	if !strings.Contains(out, "__require(") {
		t.Fatalf("expected a __require call wiring the import, got:\n%s", out)
	}
	if !strings.Contains(out, "module.exports.default = (42);") {
		t.Fatalf("expected default export rewritten to an assignment, got:\n%s", out)
	}
	if !strings.Contains(out, `Object.defineProperty(module.exports, "helper"`) {
		t.Fatalf("expected a named export getter for helper, got:\n%s", out)
	}
}

func TestEmitSideEffectAndNamespaceImport(t *testing.T) {
	outputs, _ := build(t, map[string]string{
		"/src/entry.js": `
import "./polyfill"
import * as ns from "./lib"
ns.run()
`,
		"/src/polyfill.js": `globalThis.x = 1`,
		"/src/lib.js":      `export function run() {}`,
	}, []string{"/src/entry.js"}, nil)

	out := contentsFor(t, outputs, "entry.js")
	if !strings.Contains(out, "var ns = __m") {
		t.Fatalf("expected a namespace binding rewritten to the require result, got:\n%s", out)
	}
}

func TestEmitExternalImportCJS(t *testing.T) {
	outputs, _ := build(t, map[string]string{
		"/src/entry.js": `import { render } from "react"`,
	}, []string{"/src/entry.js"}, func(o *config.Options) {
		o.Format = config.FormatCJS
		o.External = []config.ExternalPattern{{Literal: "react"}}
	})

	out := contentsFor(t, outputs, "entry.js")
	if !strings.Contains(out, `__requireExternal("react")`) {
		t.Fatalf("expected an external require for react, got:\n%s", out)
	}
}

func TestEmitDynamicImportGetsLoadChunkCall(t *testing.T) {
	outputs, _ := build(t, map[string]string{
		"/src/entry.js": `async function go() { return (await import("./lazy")).value }`,
		"/src/lazy.js":  `export const value = 1`,
	}, []string{"/src/entry.js"}, nil)

	out := contentsFor(t, outputs, "entry.js")
	if !strings.Contains(out, "__loadChunk(") {
		t.Fatalf("expected the dynamic import rewritten to __loadChunk, got:\n%s", out)
	}

	var sawDynamicChunk bool
	for _, o := range outputs {
		if !strings.HasSuffix(o.AbsPath, "entry.js") && strings.Contains(string(o.Contents), "value") {
			sawDynamicChunk = true
		}
	}
	if !sawDynamicChunk {
		t.Fatalf("expected a separate chunk file containing the lazily-imported module")
	}
}

func TestEmitReExportStar(t *testing.T) {
	outputs, _ := build(t, map[string]string{
		"/src/entry.js": `export * from "./lib"`,
		"/src/lib.js":   `export const a = 1`,
	}, []string{"/src/entry.js"}, nil)

	out := contentsFor(t, outputs, "entry.js")
	if !strings.Contains(out, "__exportStar(module.exports, __require(") {
		t.Fatalf("expected export * rewritten to __exportStar, got:\n%s", out)
	}
}

func TestEmitIIFEWrapsOutput(t *testing.T) {
	outputs, _ := build(t, map[string]string{
		"/src/entry.js": `console.log("hi")`,
	}, []string{"/src/entry.js"}, nil)

	out := contentsFor(t, outputs, "entry.js")
	if !strings.HasPrefix(out, "(function () {") || !strings.Contains(out, "})();") {
		t.Fatalf("expected IIFE wrapping (the default format), got:\n%s", out)
	}
}
