package emitter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gobundle/gobundle/internal/config"
	"github.com/gobundle/gobundle/internal/graphbuild"
	"github.com/gobundle/gobundle/internal/jsscan"
)

type exportGroup struct {
	rng     jsscan.Range
	entries []jsscan.ExportEntry
}

// groupExports collects the (possibly several) ExportEntry records that
// share one statement's Range, in the order their statements first appear
// in source, dropping type-only entries (the statement text behind them
// no longer exists post-Transform).
func groupExports(fresh jsscan.ParseOutput) []exportGroup {
	var groups []exportGroup
	pos := map[jsscan.Range]int{}
	for _, e := range fresh.Exports {
		if e.TypeOnly {
			continue
		}
		if i, ok := pos[e.Range]; ok {
			groups[i].entries = append(groups[i].entries, e)
			continue
		}
		pos[e.Range] = len(groups)
		groups = append(groups, exportGroup{rng: e.Range, entries: []jsscan.ExportEntry{e}})
	}
	return groups
}

func reExportEdges(mod *graphbuild.Module) []graphbuild.ImportEdge {
	var out []graphbuild.ImportEdge
	for _, e := range mod.Imports {
		if e.Kind == jsscan.ImportReExport || e.Kind == jsscan.ImportReExportAll {
			out = append(out, e)
		}
	}
	return out
}

func buildExportEdits(code string, fresh jsscan.ParseOutput, mod *graphbuild.Module, format config.Format) []edit {
	groups := groupExports(fresh)
	reExports := reExportEdges(mod)
	reExportIdx := 0

	var edits []edit
	for _, g := range groups {
		first := g.entries[0]
		var text string
		var ok bool
		if first.IsReExport {
			if reExportIdx >= len(reExports) {
				continue // no matching edge found; leave the statement as-is rather than guess
			}
			edge := reExports[reExportIdx]
			reExportIdx++
			text, ok = reExportReplacement(g, edge, format)
		} else {
			text, ok = localExportReplacement(code, g)
		}
		if !ok {
			continue
		}
		edits = append(edits, edit{start: g.rng.Start, end: g.rng.End, text: text})
	}
	return edits
}

func reExportReplacement(g exportGroup, edge graphbuild.ImportEdge, format config.Format) (string, bool) {
	var requireExpr string
	switch {
	case edge.External:
		if format == config.FormatESM {
			return "", false // native "export ... from" stays, external ESM packages resolve on their own
		}
		requireExpr = fmt.Sprintf("__requireExternal(%s)", strconv.Quote(edge.Specifier))
	case edge.Target >= 0:
		requireExpr = fmt.Sprintf("__require(%d)", int(edge.Target))
	default:
		return "", false
	}

	first := g.entries[0]
	if first.Name == "*" && first.ReExportAs == "*" {
		return fmt.Sprintf("__exportStar(module.exports, %s);", requireExpr), true
	}

	tmp := fmt.Sprintf("__re%d", g.rng.Start)
	var b strings.Builder
	fmt.Fprintf(&b, "var %s = %s;", tmp, requireExpr)
	for _, e := range g.entries {
		from := e.ReExportAs
		if from == "" {
			from = e.Name
		}
		fmt.Fprintf(&b, " Object.defineProperty(module.exports, %s, { get: function () { return %s.%s; }, enumerable: true });",
			strconv.Quote(e.Name), tmp, from)
	}
	return b.String(), true
}

// localExportReplacement handles every export form backed by a local
// binding: a declaration ("export const/let/var/function/class/async"), a
// rename of existing locals ("export { a as b }"), and "export default".
func localExportReplacement(code string, g exportGroup) (string, bool) {
	stmt := strings.TrimSpace(code[g.rng.Start:g.rng.End])

	switch {
	case strings.HasPrefix(stmt, "export default"):
		return rewriteDefaultExport(stmt), true

	case strings.HasPrefix(stmt, "export {") || strings.HasPrefix(stmt, "export{"):
		var b strings.Builder
		for _, e := range g.entries {
			local := e.ReExportAs
			if local == "" {
				local = e.Name
			}
			fmt.Fprintf(&b, "Object.defineProperty(module.exports, %s, { get: function () { return %s; }, enumerable: true }); ",
				strconv.Quote(e.Name), local)
		}
		return b.String(), true

	default:
		decl := strings.TrimPrefix(stmt, "export ")
		var b strings.Builder
		b.WriteString(decl)
		for _, e := range g.entries {
			fmt.Fprintf(&b, "\nObject.defineProperty(module.exports, %s, { get: function () { return %s; }, enumerable: true });",
				strconv.Quote(e.Name), e.Name)
		}
		return b.String(), true
	}
}

// rewriteDefaultExport turns "export default <expr>" into an assignment to
// module.exports.default, and "export default function/class [Name] ..."
// into the bare declaration (naming it if anonymous) plus a trailing
// assignment, so the declared name keeps working for any local reference
// to it elsewhere in the module.
func rewriteDefaultExport(stmt string) string {
	toks := jsscan.Tokenize(stmt)
	i := 2 // past "export" "default"
	if i < len(toks) && toks[i].Text == "async" {
		i++
	}
	if i < len(toks) && (toks[i].Text == "function" || toks[i].Text == "class") {
		j := i + 1
		if toks[i].Text == "function" && j < len(toks) && toks[j].Text == "*" {
			j++
		}
		name := ""
		if j < len(toks) && toks[j].Kind == "ident" {
			name = toks[j].Text
		}
		restStart := toks[i].Start
		rest := stmt[restStart:]
		if name == "" {
			name = "__defaultExport"
			if j < len(toks) {
				insertAt := toks[j].Start - restStart
				rest = rest[:insertAt] + name + " " + rest[insertAt:]
			} else {
				rest = rest + " " + name
			}
		}
		return rest + "\nmodule.exports.default = " + name + ";"
	}

	exprStart := 0
	if len(toks) > 2 {
		exprStart = toks[2].Start
	}
	expr := strings.TrimSpace(stmt[exprStart:])
	expr = strings.TrimSuffix(expr, ";")
	return "module.exports.default = (" + expr + ");"
}
