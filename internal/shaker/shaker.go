// Package shaker implements the first half of component E: deciding which
// discovered modules survive into the output, by reachability from the
// entry points. Per spec §4.5's explicit optionality and the Open
// Question decision recorded in DESIGN.md, this is module-level shaking
// only — no per-export elimination — so a surviving module is emitted
// whole, and the chunker decides which chunk it lands in.
package shaker

import (
	"sort"

	"github.com/gobundle/gobundle/internal/graphbuild"
	"github.com/gobundle/gobundle/internal/jsscan"
)

// Shaken is the shaker's verdict: which modules survive, in a stable sort
// order the chunker and emitter both rely on, plus which export names of
// each surviving module are actually imported by name anywhere in the
// graph (recorded, not acted on — see the package doc).
type Shaken struct {
	Survivors         []graphbuild.ModuleID
	surviving         map[graphbuild.ModuleID]bool
	ReferencedExports map[graphbuild.ModuleID]map[string]bool
}

func (s *Shaken) IsLive(id graphbuild.ModuleID) bool { return s.surviving[id] }

// Shake marks every module reachable from an entry point as live. When
// treeShake is false every discovered module survives unconditionally.
// graphbuild only adds modules reached through an import edge, so the two
// modes differ only for modules reached solely through type-only imports,
// which survive only when treeShake is false; it's also the seam a future
// dead-branch-elimination pass (spec §9 Open Questions) would tighten
// without touching the chunker or emitter.
func Shake(g *graphbuild.Graph, treeShake bool) *Shaken {
	s := &Shaken{
		surviving:         make(map[graphbuild.ModuleID]bool),
		ReferencedExports: make(map[graphbuild.ModuleID]map[string]bool),
	}

	if !treeShake {
		for _, m := range g.Modules {
			s.surviving[m.ID] = true
		}
	} else {
		queue := append([]graphbuild.ModuleID(nil), g.EntryPoints...)
		for _, id := range queue {
			s.surviving[id] = true
		}
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			m := g.Modules[id]
			for _, edge := range m.Imports {
				if edge.Target < 0 {
					continue // external or unresolved: nothing to mark
				}
				if edge.TypeOnly {
					continue // spec §3: type-only edges are recorded but don't keep their target alive
				}
				if s.surviving[edge.Target] {
					continue
				}
				// A bare side-effect import always keeps its target alive
				// regardless of the target package's sideEffects:false
				// declaration (spec §9: import-kind takes precedence).
				// Every other edge kind marks liveness the same way, since
				// without per-export usage data we can't tell a "used"
				// named import from an "unused" one.
				s.surviving[edge.Target] = true
				queue = append(queue, edge.Target)
			}
		}
	}

	for id := range s.surviving {
		s.Survivors = append(s.Survivors, id)
	}
	sort.Slice(s.Survivors, func(i, j int) bool {
		return g.Modules[s.Survivors[i]].AbsPath < g.Modules[s.Survivors[j]].AbsPath
	})

	recordReferencedExports(g, s)
	return s
}

// recordReferencedExports walks every edge in the (whole, not just
// surviving) graph and notes which export name of the target module each
// named/re-export binding asks for, keyed by the target's ModuleID.
func recordReferencedExports(g *graphbuild.Graph, s *Shaken) {
	for _, m := range g.Modules {
		for _, edge := range m.Imports {
			if edge.Target < 0 {
				continue
			}
			if edge.Kind != jsscan.ImportStaticFrom && edge.Kind != jsscan.ImportReExport {
				continue
			}
			set := s.ReferencedExports[edge.Target]
			if set == nil {
				set = make(map[string]bool)
				s.ReferencedExports[edge.Target] = set
			}
			for _, b := range edge.Bindings {
				name := b.Imported
				if name == "" {
					name = "*" // namespace binding: conservatively references everything
				}
				set[name] = true
			}
		}
	}
}
