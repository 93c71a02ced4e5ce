// Package chunker implements the second half of component E: assigning
// surviving modules to output chunks. Grounded on tain335-esbuild's
// internal/code_spliting.ChunkNode shape (Name/Kind/Async/Dependencies),
// redesigned to walk this module's ModuleID arena rather than a
// name-keyed slice.
package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/gobundle/gobundle/internal/graphbuild"
	"github.com/gobundle/gobundle/internal/jsscan"
	"github.com/gobundle/gobundle/internal/shaker"
)

type ChunkKind uint8

const (
	ChunkEntry ChunkKind = iota
	ChunkDynamic
	ChunkShared
)

// Chunk is one output file's worth of modules. Modules is sorted by
// AbsPath (spec's determinism requirement: chunk membership and ordering
// must not depend on map/goroutine iteration order).
type Chunk struct {
	Name         string
	Kind         ChunkKind
	EntryModule  graphbuild.ModuleID // valid only when Kind == ChunkEntry or ChunkDynamic
	Modules      []graphbuild.ModuleID
	Dependencies []string // chunk names this chunk's runtime must load first
}

type Result struct {
	Chunks []*Chunk
	// ChunkOfModule maps every surviving module to the chunk that owns its
	// definition (for ChunkShared members, the shared chunk; otherwise the
	// single root chunk it's private to).
	ChunkOfModule map[graphbuild.ModuleID]string
}

// Assign walks from every entry point and every live dynamic-import target
// (when splitting is enabled) as an independent chunk root, groups modules
// reachable from exactly one root into that root's chunk, and modules
// reachable from more than one root into a shared chunk. When splitting is
// disabled, dynamic-import edges are treated as ordinary static edges (no
// separate async chunk), so a build with one entry point gets one chunk.
// With several entry points, modules reachable from more than one of them
// still go to the shared chunk: entries are not merged into a single chunk
// and no module's code is duplicated across entry chunks.
func Assign(g *graphbuild.Graph, shaken *shaker.Shaken, splitting bool) *Result {
	live := func(id graphbuild.ModuleID) bool { return shaken.IsLive(id) }

	roots := append([]graphbuild.ModuleID(nil), g.EntryPoints...)
	if splitting {
		roots = append(roots, dynamicImportTargets(g, live)...)
	}
	roots = dedupModuleIDs(roots)

	reachableFrom := computeReachability(g, roots, live, splitting)

	chunkOfModule := make(map[graphbuild.ModuleID]string)
	sharedMembers := []graphbuild.ModuleID{}
	rootMembers := make(map[graphbuild.ModuleID][]graphbuild.ModuleID, len(roots))

	for id := range reachableFrom {
		if !live(id) {
			continue
		}
		owners := reachableFrom[id]
		if len(owners) == 1 {
			for owner := range owners {
				rootMembers[owner] = append(rootMembers[owner], id)
			}
		} else if len(owners) > 1 {
			sharedMembers = append(sharedMembers, id)
		}
	}

	var sharedChunk *Chunk
	if len(sharedMembers) > 0 {
		sort.Slice(sharedMembers, func(i, j int) bool {
			return g.Modules[sharedMembers[i]].AbsPath < g.Modules[sharedMembers[j]].AbsPath
		})
		sharedChunk = &Chunk{
			Name:    "chunk-" + hashOfModules(g, sharedMembers) + ".js",
			Kind:    ChunkShared,
			Modules: sharedMembers,
		}
		for _, id := range sharedMembers {
			chunkOfModule[id] = sharedChunk.Name
		}
	}

	var chunks []*Chunk
	entrySet := make(map[graphbuild.ModuleID]bool, len(g.EntryPoints))
	for _, e := range g.EntryPoints {
		entrySet[e] = true
	}

	for _, root := range roots {
		if !live(root) {
			continue
		}
		members := rootMembers[root]
		sort.Slice(members, func(i, j int) bool {
			return g.Modules[members[i]].AbsPath < g.Modules[members[j]].AbsPath
		})
		kind := ChunkDynamic
		name := "chunk-" + g.Modules[root].ContentHash[:12] + ".js"
		if entrySet[root] {
			kind = ChunkEntry
			name = entryChunkName(g.Modules[root].AbsPath)
		}
		chunk := &Chunk{Name: name, Kind: kind, EntryModule: root, Modules: members}
		if sharedChunk != nil && referencesShared(g, members, sharedMembers) {
			chunk.Dependencies = append(chunk.Dependencies, sharedChunk.Name)
		}
		chunks = append(chunks, chunk)
		for _, id := range members {
			chunkOfModule[id] = chunk.Name
		}
	}

	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Name < chunks[j].Name })
	if sharedChunk != nil {
		chunks = append(chunks, sharedChunk)
	}

	return &Result{Chunks: chunks, ChunkOfModule: chunkOfModule}
}

func dynamicImportTargets(g *graphbuild.Graph, live func(graphbuild.ModuleID) bool) []graphbuild.ModuleID {
	seen := map[graphbuild.ModuleID]bool{}
	var out []graphbuild.ModuleID
	for _, m := range g.Modules {
		if !live(m.ID) {
			continue
		}
		for _, edge := range m.Imports {
			if edge.Kind == jsscan.ImportDynamicCall && edge.Target >= 0 && !seen[edge.Target] {
				seen[edge.Target] = true
				out = append(out, edge.Target)
			}
		}
	}
	return out
}

func dedupModuleIDs(ids []graphbuild.ModuleID) []graphbuild.ModuleID {
	seen := map[graphbuild.ModuleID]bool{}
	var out []graphbuild.ModuleID
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// computeReachability runs one BFS per root over static edges only
// (dynamic edges end a traversal there, becoming a separate root instead),
// recording which roots can reach each module. When splitting is
// disabled, dynamic edges are followed too, so everything collapses
// toward the entry roots.
func computeReachability(g *graphbuild.Graph, roots []graphbuild.ModuleID, live func(graphbuild.ModuleID) bool, splitting bool) map[graphbuild.ModuleID]map[graphbuild.ModuleID]bool {
	reachableFrom := make(map[graphbuild.ModuleID]map[graphbuild.ModuleID]bool)
	for _, root := range roots {
		if !live(root) {
			continue
		}
		visited := map[graphbuild.ModuleID]bool{root: true}
		queue := []graphbuild.ModuleID{root}
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			if reachableFrom[id] == nil {
				reachableFrom[id] = map[graphbuild.ModuleID]bool{}
			}
			reachableFrom[id][root] = true
			for _, edge := range g.Modules[id].Imports {
				if edge.Target < 0 || !live(edge.Target) {
					continue
				}
				if edge.Kind == jsscan.ImportDynamicCall && splitting {
					continue // a new chunk root, not a member of this one
				}
				if !visited[edge.Target] {
					visited[edge.Target] = true
					queue = append(queue, edge.Target)
				}
			}
		}
	}
	return reachableFrom
}

func referencesShared(g *graphbuild.Graph, members, shared []graphbuild.ModuleID) bool {
	sharedSet := make(map[graphbuild.ModuleID]bool, len(shared))
	for _, id := range shared {
		sharedSet[id] = true
	}
	for _, id := range members {
		for _, edge := range g.Modules[id].Imports {
			if sharedSet[edge.Target] {
				return true
			}
		}
	}
	return false
}

func hashOfModules(g *graphbuild.Graph, ids []graphbuild.ModuleID) string {
	h := sha256.New()
	for _, id := range ids {
		h.Write([]byte(g.Modules[id].AbsPath))
		h.Write([]byte{0})
		h.Write([]byte(g.Modules[id].ContentHash))
	}
	return hex.EncodeToString(h.Sum(nil))[:12]
}

func entryChunkName(absPath string) string {
	base := absPath
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '/' {
			base = base[i+1:]
			break
		}
	}
	dot := -1
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '.' {
			dot = i
			break
		}
	}
	if dot > 0 {
		base = base[:dot]
	}
	return base + ".js"
}
