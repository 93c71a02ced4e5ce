package emitter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gobundle/gobundle/internal/config"
	"github.com/gobundle/gobundle/internal/graphbuild"
	"github.com/gobundle/gobundle/internal/jsscan"
)

// importEdges returns mod's graphbuild edges in the order their matching
// import statements will reappear in a fresh parse of the transformed
// source: type-only imports were erased by the Transformer entirely, and
// re-export-from edges have no statement range of their own (the export
// pass rewrites those), so both are excluded here.
func importEdges(mod *graphbuild.Module) []graphbuild.ImportEdge {
	var out []graphbuild.ImportEdge
	for _, e := range mod.Imports {
		if e.TypeOnly {
			continue
		}
		if e.Kind == jsscan.ImportReExport || e.Kind == jsscan.ImportReExportAll {
			continue
		}
		out = append(out, e)
	}
	return out
}

func importStatements(fresh jsscan.ParseOutput) []jsscan.ImportEntry {
	var out []jsscan.ImportEntry
	for _, imp := range fresh.Imports {
		if imp.Kind == jsscan.ImportReExport || imp.Kind == jsscan.ImportReExportAll {
			continue
		}
		out = append(out, imp)
	}
	return out
}

// buildImportEdits pairs each surviving import statement in the freshly
// re-parsed transformed source with the graphbuild edge discovered from
// the same statement in the pre-transform source, matching by position
// in source order (the Transformer never reorders or duplicates import
// statements, only deletes type-only ones, so the two filtered lists stay
// in lockstep).
func buildImportEdits(code string, fresh jsscan.ParseOutput, mod *graphbuild.Module, chunkOfModule map[graphbuild.ModuleID]string, format config.Format) []edit {
	edges := importEdges(mod)
	stmts := importStatements(fresh)

	n := len(edges)
	if len(stmts) < n {
		n = len(stmts)
	}

	var edits []edit
	for i := 0; i < n; i++ {
		text, ok := importReplacement(stmts[i], edges[i], chunkOfModule, format)
		if !ok {
			continue
		}
		edits = append(edits, edit{start: stmts[i].Range.Start, end: stmts[i].Range.End, text: text})
	}
	return edits
}

func importReplacement(stmt jsscan.ImportEntry, edge graphbuild.ImportEdge, chunkOfModule map[graphbuild.ModuleID]string, format config.Format) (string, bool) {
	switch stmt.Kind {
	case jsscan.ImportDynamicCall:
		if edge.Target < 0 {
			return "", false // external or unresolved: leave the native import() call alone
		}
		chunkName := chunkOfModule[edge.Target]
		// The recorded Range stops right after the specifier string, before
		// the call's closing ")"; that ")" stays in the source untouched
		// and closes this replacement's own argument list.
		return fmt.Sprintf(`__loadChunk(%s, %d`, strconv.Quote(chunkName), int(edge.Target)), true

	case jsscan.ImportSideEffect:
		if edge.External {
			if format == config.FormatESM {
				return "", false
			}
			return fmt.Sprintf("__requireExternal(%s);", strconv.Quote(stmt.Specifier)), true
		}
		if edge.Target < 0 {
			return "", false
		}
		return fmt.Sprintf("__require(%d);", int(edge.Target)), true

	case jsscan.ImportStaticFrom:
		var requireExpr string
		switch {
		case edge.External:
			if format == config.FormatESM {
				return "", false
			}
			requireExpr = fmt.Sprintf("__requireExternal(%s)", strconv.Quote(stmt.Specifier))
		case edge.Target >= 0:
			requireExpr = fmt.Sprintf("__require(%d)", int(edge.Target))
		default:
			return "", false
		}
		tmp := fmt.Sprintf("__m%d", stmt.Range.Start)
		var b strings.Builder
		fmt.Fprintf(&b, "var %s = %s;", tmp, requireExpr)
		for _, bind := range stmt.Bindings {
			switch bind.Imported {
			case "default":
				fmt.Fprintf(&b, " var %s = %s.default;", bind.Local, tmp)
			case "":
				fmt.Fprintf(&b, " var %s = %s;", bind.Local, tmp)
			default:
				fmt.Fprintf(&b, " var %s = %s.%s;", bind.Local, tmp, bind.Imported)
			}
		}
		return b.String(), true
	}
	return "", false
}
