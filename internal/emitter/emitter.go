package emitter

import (
	"fmt"
	"strings"

	"github.com/gobundle/gobundle/internal/buildctx"
	"github.com/gobundle/gobundle/internal/chunker"
	"github.com/gobundle/gobundle/internal/config"
	"github.com/gobundle/gobundle/internal/graphbuild"
	"github.com/gobundle/gobundle/internal/runtime"
	"github.com/gobundle/gobundle/internal/vfs"
)

type Output struct {
	AbsPath  string
	Contents []byte
}

// Emit renders every chunk to its final output bytes: the runtime
// preamble, one registry factory per module (order doesn't matter since
// __esm only registers a factory, it never runs one), and a format-
// specific bootstrap that kicks off the entry module's require call.
func Emit(env *buildctx.EmitEnv, fs vfs.FS, g *graphbuild.Graph, chunks *chunker.Result) ([]Output, error) {
	var outputs []Output
	for _, c := range chunks.Chunks {
		var b strings.Builder
		writePrologue(&b, env.Options.Format)
		b.WriteString(runtime.Code)

		for _, id := range c.Modules {
			mod := g.Modules[id]
			body := rewriteModule(mod, chunks.ChunkOfModule, env.Options.Format)
			b.WriteString(factoryWrapper(mod, body))
		}

		writeBootstrap(&b, c, env.Options.Format)
		writeEpilogue(&b, env.Options.Format)

		absPath := fs.Join(env.Options.AbsOutdir, c.Name)
		contents := []byte(b.String())
		if env.Options.Minify != nil {
			contents = env.Options.Minify(absPath, contents)
		}

		outputs = append(outputs, Output{
			AbsPath:  absPath,
			Contents: contents,
		})
	}
	return outputs, nil
}

func writePrologue(b *strings.Builder, format config.Format) {
	switch format {
	case config.FormatIIFE:
		b.WriteString("(function () {\n\"use strict\";\n")
	case config.FormatCJS:
		b.WriteString("\"use strict\";\n")
	case config.FormatESM:
		// no wrapper: the file is itself a module
	}
}

func writeEpilogue(b *strings.Builder, format config.Format) {
	if format == config.FormatIIFE {
		b.WriteString("})();\n")
	}
}

// writeBootstrap runs the entry module once all factories in this chunk
// have registered. Shared and dynamic chunks register their modules and
// stop there: a shared chunk's modules are pulled in lazily by whichever
// entry/dynamic chunk __require()s them, and a dynamic chunk's own entry
// module is required by the __loadChunk call site once the chunk script
// finishes loading.
func writeBootstrap(b *strings.Builder, c *chunker.Chunk, format config.Format) {
	if c.Kind != chunker.ChunkEntry {
		return
	}
	fmt.Fprintf(b, "var __entry = __require(%d);\n", int(c.EntryModule))
	switch format {
	case config.FormatCJS:
		b.WriteString("module.exports = __entry;\n")
	case config.FormatESM:
		b.WriteString("export default (__entry && __entry.default);\n")
	}
}
