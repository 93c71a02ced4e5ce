package api

import (
	"context"
	"encoding/json"

	"github.com/gobundle/gobundle/internal/config"
	"github.com/gobundle/gobundle/internal/devserver"
	"github.com/gobundle/gobundle/internal/logger"
	"github.com/gobundle/gobundle/internal/vfs"
)

// ServeOptions configures the dev server started by Context.Serve,
// mirroring the teacher's own DevServeOptions (host/port) plus the one
// extra this bundler's HMR protocol needs: an index.html to fall back to
// for client-side-routed apps.
type ServeOptions struct {
	Addr      string // e.g. "127.0.0.1:8000"
	IndexHTML []byte
}

// Context is a reusable build session: unlike Build, it keeps the resolved
// filesystem and options around so Rebuild and Serve don't need to be
// re-told them, mirroring the teacher's api.Context minus its incremental
// AST cache: a Context keeps no cache between builds, and each build
// creates its own internal/cache.Set.
type Context struct {
	fs      vfs.FS
	options config.Options
	server  *devserver.Server
}

func NewContext(options config.Options) *Context {
	return &Context{fs: vfs.Real(), options: options}
}

// Rebuild runs the pipeline once against this Context's options, identical
// to the package-level Build but reusing the same Context across repeated
// calls (a CLI "watch without serving" mode would call this in a loop).
func (c *Context) Rebuild() BuildResult {
	return buildFull(context.Background(), c.fs, c.options).BuildResult
}

// Serve starts the dev server (spec §6): it runs an initial build, then
// rebuilds on every filesystem change the previous build's modules
// touched, pushing typed HMR messages to every connected client. It
// blocks until the listener is up, then returns; the server keeps running
// until Dispose.
func (c *Context) Serve(opts ServeOptions) (*Context, error) {
	c.server = devserver.New(devserver.Options{Addr: opts.Addr, IndexHTML: opts.IndexHTML}, c.buildOutcome)
	if err := c.server.Start(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Context) Dispose() error {
	if c.server != nil {
		return c.server.Close()
	}
	return nil
}

// buildOutcome runs one full build and reshapes the result into what
// internal/devserver needs: per-chunk module ids (for HMR update
// messages), the manifest as pre-marshaled JSON, and the list of absolute
// source paths to watch next.
func (c *Context) buildOutcome() devserver.BuildOutcome {
	full := buildFull(context.Background(), c.fs, c.options)

	var errs []logger.Msg
	for _, m := range full.Errors {
		errs = append(errs, m)
	}
	if full.Chunks == nil {
		return devserver.BuildOutcome{Errors: errs}
	}

	manifestJSON, _ := json.Marshal(full.Manifest)

	chunks := make([]devserver.ChunkInfo, 0, len(full.Chunks.Chunks))
	for _, ch := range full.Chunks.Chunks {
		ids := make([]int, len(ch.Modules))
		for i, id := range ch.Modules {
			ids[i] = int(id)
		}
		chunks = append(chunks, devserver.ChunkInfo{Name: ch.Name, ModuleIDs: ids})
	}

	watchPaths := make([]string, 0, len(full.Graph.Modules))
	for _, m := range full.Graph.Modules {
		watchPaths = append(watchPaths, m.AbsPath)
	}

	return devserver.BuildOutcome{
		Outputs:      full.OutputFiles,
		Chunks:       chunks,
		ManifestJSON: manifestJSON,
		Errors:       errs,
		WatchPaths:   watchPaths,
	}
}
