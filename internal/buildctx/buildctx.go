// Package buildctx defines the per-phase environment structs that replace
// the mutable global "context" object the teacher's fork (tain335-esbuild)
// threads through package-level vars like lastBundle/lastScanner. Every
// phase receives exactly the slice of state it needs, passed explicitly.
package buildctx

import (
	"github.com/gobundle/gobundle/internal/config"
	"github.com/gobundle/gobundle/internal/logger"
)

// BuildEnv is shared read-only state for a single build: configuration,
// the log every phase writes into, the compiled plugin hooks, and a
// UniqueID key (mirroring esbuild's uniqueKeyPrefix) that nothing in this
// repository reads: runtime helper names are fixed identifiers.
type BuildEnv struct {
	Options  config.Options
	Log      *logger.Log
	UniqueID string
	Hooks    config.Hooks
}

// ResolveEnv is what the Resolver needs: just the target-specific
// condition priority, externals/alias/path-map tables, and the log.
type ResolveEnv struct {
	Options config.Options
	Log     *logger.Log
	Hooks   config.Hooks
}

func NewResolveEnv(env *BuildEnv) ResolveEnv {
	return ResolveEnv{Options: env.Options, Log: env.Log, Hooks: env.Hooks}
}

// EmitEnv is what the Emitter needs: format/target/sourcemap settings and
// the log, plus a copy of BuildEnv.UniqueID, which is not read (runtime
// helper names are fixed "__"-prefixed identifiers).
type EmitEnv struct {
	Options  config.Options
	Log      *logger.Log
	UniqueID string
}

func NewEmitEnv(env *BuildEnv) EmitEnv {
	return EmitEnv{Options: env.Options, Log: env.Log, UniqueID: env.UniqueID}
}
