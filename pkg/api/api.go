// Package api is the public surface of the bundler: the small set of
// entry points an external caller (the CLI in cmd/gobundle, or a Go
// program embedding the bundler directly) uses to drive a build, grounded
// on the teacher's own pkg/api.Build/BuildOptions/BuildResult shape.
//
// Unlike the teacher, this package's Options type is exactly
// internal/config.Options rather than a separate, field-for-field-mirrored
// public struct: this bundler is consumed as a Go library first (the CLI
// is explicitly named an external collaborator, spec §1), so there is no
// process-boundary JSON/wire format forcing a second copy of every option
// to exist. Plugins (config.Plugin) are constructed directly against the
// same config types a caller's onResolve/onLoad hooks already use.
package api

import (
	"context"
	"fmt"

	"github.com/gobundle/gobundle/internal/buildctx"
	"github.com/gobundle/gobundle/internal/cache"
	"github.com/gobundle/gobundle/internal/chunker"
	"github.com/gobundle/gobundle/internal/config"
	"github.com/gobundle/gobundle/internal/emitter"
	"github.com/gobundle/gobundle/internal/graphbuild"
	"github.com/gobundle/gobundle/internal/logger"
	"github.com/gobundle/gobundle/internal/resolver"
	"github.com/gobundle/gobundle/internal/shaker"
	"github.com/gobundle/gobundle/internal/vfs"
)

type BuildResult struct {
	Errors      []logger.Msg
	Warnings    []logger.Msg
	OutputFiles []emitter.Output
	Manifest    Manifest
}

// Build runs the full pipeline once: resolve, parse+transform, build the
// module graph, shake, chunk, and emit. It never touches disk on its own
// beyond reading source files — writing OutputFiles out is left to the
// caller (cmd/gobundle does so; the dev server instead serves them from
// memory).
func Build(options config.Options) BuildResult {
	fs := vfs.Real()
	full := buildFull(context.Background(), fs, options)
	return full.BuildResult
}

// fullBuild carries everything a one-shot Build discards once it has its
// BuildResult: the graph and chunk assignment the dev server needs to
// compute its watch set and per-chunk module ids on every rebuild.
type fullBuild struct {
	BuildResult
	Graph  *graphbuild.Graph
	Chunks *chunker.Result
}

func buildFull(ctx context.Context, fs vfs.FS, options config.Options) fullBuild {
	log := logger.NewLog()
	hooks := config.CompileHooks(options.Plugins)
	benv := &buildctx.BuildEnv{Options: options, Log: log, Hooks: hooks}

	res := resolver.NewWithHooks(fs, options, hooks)
	g, err := graphbuild.Build(ctx, benv, fs, res, cache.NewSet())
	if err != nil {
		log.AddError(nil, err.Error())
		return fullBuild{BuildResult: doneResult(log, nil, nil)}
	}

	shaken := shaker.Shake(g, options.TreeShake)
	assigned := chunker.Assign(g, shaken, options.Splitting)

	eenv := buildctx.NewEmitEnv(benv)
	outputs, err := emitter.Emit(&eenv, fs, g, assigned)
	if err != nil {
		log.AddError(nil, fmt.Sprintf("emit: %s", err))
		return fullBuild{BuildResult: doneResult(log, nil, nil), Graph: g, Chunks: assigned}
	}

	return fullBuild{
		BuildResult: doneResult(log, outputs, BuildManifest(assigned)),
		Graph:       g,
		Chunks:      assigned,
	}
}

func doneResult(log *logger.Log, outputs []emitter.Output, manifest Manifest) BuildResult {
	msgs := log.Done()
	result := BuildResult{OutputFiles: outputs, Manifest: manifest}
	for _, m := range msgs {
		if m.Kind == logger.Error {
			result.Errors = append(result.Errors, m)
		} else {
			result.Warnings = append(result.Warnings, m)
		}
	}
	return result
}

// Manifest is the code-splitting manifest co-emitted alongside the chunk
// files (spec §6): chunk id maps to where the runtime's dynamic loader can
// fetch it and, when one exists, its CSS side asset.
type Manifest map[string]ManifestEntry

type ManifestEntry struct {
	Path string `json:"path"`
	CSS  string `json:"css,omitempty"`
}

// BuildManifest derives the manifest directly from the chunker's result: a
// chunk's Name is also the path it's emitted under (internal/emitter joins
// it against AbsOutdir), and this bundler has no separate CSS loader
// wired in-core (spec §1 keeps CSS loaders out-of-tree), so every entry's
// CSS field is left empty: BuildManifest never sets it, and an OnEnd hook
// receives only whether the build had errors, not the manifest.
func BuildManifest(assigned *chunker.Result) Manifest {
	m := make(Manifest, len(assigned.Chunks))
	for _, c := range assigned.Chunks {
		m[c.Name] = ManifestEntry{Path: c.Name}
	}
	return m
}
