// Package emitter implements component F: it wraps every surviving module
// in a registry factory, rewrites its import/export statements into calls
// against the runtime preamble, and concatenates the result per chunk.
package emitter

import (
	"fmt"

	"github.com/gobundle/gobundle/internal/config"
	"github.com/gobundle/gobundle/internal/graphbuild"
	"github.com/gobundle/gobundle/internal/jsscan"
)

// rewriteModule rewrites mod's transformed source into the body of its
// registry factory. It re-parses the transformed code (rather than
// reusing mod.Parsed, whose byte ranges describe the pre-transform
// source) because the Transformer can change every offset after it:
// TS erasure in particular rejoins surviving tokens with single spaces.
// The transformed code is always plain JS, so jsscan.Parse applies to it
// unchanged.
func rewriteModule(mod *graphbuild.Module, chunkOfModule map[graphbuild.ModuleID]string, format config.Format) string {
	code := mod.Transformed.Code
	fresh := jsscan.Parse(code, mod.AbsPath)

	var edits []edit
	edits = append(edits, buildImportEdits(code, fresh, mod, chunkOfModule, format)...)
	edits = append(edits, buildExportEdits(code, fresh, mod, format)...)

	return applyEdits(code, edits)
}

func factoryWrapper(mod *graphbuild.Module, body string) string {
	return fmt.Sprintf("__esm(%d, function (exports, module) {\n%s\n});\n", int(mod.ID), body)
}
