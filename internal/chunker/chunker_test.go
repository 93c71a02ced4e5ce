package chunker

import (
	"context"
	"testing"

	"github.com/gobundle/gobundle/internal/buildctx"
	"github.com/gobundle/gobundle/internal/cache"
	"github.com/gobundle/gobundle/internal/config"
	"github.com/gobundle/gobundle/internal/graphbuild"
	"github.com/gobundle/gobundle/internal/logger"
	"github.com/gobundle/gobundle/internal/resolver"
	"github.com/gobundle/gobundle/internal/shaker"
	"github.com/gobundle/gobundle/internal/vfs"
)

func buildAndShake(t *testing.T, files map[string]string, entries []string) (*graphbuild.Graph, *shaker.Shaken) {
	t.Helper()
	fs := vfs.NewMockFS(files)
	opts := config.DefaultOptions()
	opts.EntryPoints = entries
	env := &buildctx.BuildEnv{Options: opts, Log: &logger.Log{}}
	res := resolver.New(fs, opts)
	g, err := graphbuild.Build(context.Background(), env, fs, res, cache.NewSet())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g, shaker.Shake(g, true)
}

func TestAssignSharedChunkForDiamond(t *testing.T) {
	g, shaken := buildAndShake(t, map[string]string{
		"/src/one.js":    `import "./shared"`,
		"/src/two.js":    `import "./shared"`,
		"/src/shared.js": `export const x = 1`,
	}, []string{"/src/one.js", "/src/two.js"})

	result := Assign(g, shaken, true)

	var sharedCount int
	for _, c := range result.Chunks {
		if c.Kind == ChunkShared {
			sharedCount++
			if len(c.Modules) != 1 {
				t.Fatalf("expected shared chunk to own exactly the shared module, got %d", len(c.Modules))
			}
		}
	}
	if sharedCount != 1 {
		t.Fatalf("expected exactly one shared chunk, got %d", sharedCount)
	}

	for _, entryPath := range []string{"/src/one.js", "/src/two.js"} {
		var found bool
		for _, c := range result.Chunks {
			if c.Kind != ChunkEntry {
				continue
			}
			if g.Modules[c.EntryModule].AbsPath == entryPath {
				found = true
				if len(c.Dependencies) != 1 {
					t.Errorf("expected entry chunk for %s to depend on the shared chunk", entryPath)
				}
			}
		}
		if !found {
			t.Errorf("missing entry chunk for %s", entryPath)
		}
	}
}

func TestAssignDynamicImportGetsOwnChunk(t *testing.T) {
	g, shaken := buildAndShake(t, map[string]string{
		"/src/entry.js": `async function go() { await import("./lazy") }`,
		"/src/lazy.js":  `export const x = 1`,
	}, []string{"/src/entry.js"})

	result := Assign(g, shaken, true)

	var hasDynamic bool
	for _, c := range result.Chunks {
		if c.Kind == ChunkDynamic {
			hasDynamic = true
		}
	}
	if !hasDynamic {
		t.Fatal("expected a dynamic chunk for the lazily-imported module")
	}
}

func TestAssignWithoutSplittingInlinesEverything(t *testing.T) {
	g, shaken := buildAndShake(t, map[string]string{
		"/src/entry.js": `import "./a"`,
		"/src/a.js":     `export const a = 1`,
	}, []string{"/src/entry.js"})

	result := Assign(g, shaken, false)
	if len(result.Chunks) != 1 {
		t.Fatalf("expected a single inlined chunk, got %d", len(result.Chunks))
	}
	if len(result.Chunks[0].Modules) != 2 {
		t.Fatalf("expected both modules inlined into the one chunk, got %d", len(result.Chunks[0].Modules))
	}
}
