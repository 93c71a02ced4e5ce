package devserver

import (
	"testing"
	"time"

	"github.com/gobundle/gobundle/internal/emitter"
	"github.com/gobundle/gobundle/internal/logger"
)

func TestChunkTopologyChangedFirstBuildNeverReloads(t *testing.T) {
	if chunkTopologyChanged(nil, map[string][]byte{"entry.js": []byte("x")}) {
		t.Fatal("first build (empty prev) should never report a topology change")
	}
}

func TestChunkTopologyChangedDetectsAddedOrRemovedChunk(t *testing.T) {
	prev := map[string][]byte{"entry.js": []byte("a")}
	nextAdded := map[string][]byte{"entry.js": []byte("a"), "shared.js": []byte("b")}
	if !chunkTopologyChanged(prev, nextAdded) {
		t.Fatal("expected a newly added chunk to be a topology change")
	}

	nextRenamed := map[string][]byte{"entry2.js": []byte("a")}
	if !chunkTopologyChanged(prev, nextRenamed) {
		t.Fatal("expected a renamed chunk (same count, different name) to be a topology change")
	}
}

func TestChunkTopologyChangedFalseWhenSameChunkSet(t *testing.T) {
	prev := map[string][]byte{"entry.js": []byte("a"), "shared.js": []byte("b")}
	next := map[string][]byte{"entry.js": []byte("a-changed"), "shared.js": []byte("b")}
	if chunkTopologyChanged(prev, next) {
		t.Fatal("content changes within the same chunk set should not count as a topology change")
	}
}

func TestChunkKindOf(t *testing.T) {
	if chunkKindOf("entry.css") != "css" {
		t.Fatal("expected .css chunk to report kind css")
	}
	if chunkKindOf("entry.js") != "js" {
		t.Fatal("expected .js chunk to report kind js")
	}
}

func newTestServer(build BuildFunc) *Server {
	s := &Server{
		opts:    Options{Debounce: time.Millisecond, AckTimeout: time.Second},
		build:   build,
		hub:     newHub(),
		files:   map[string][]byte{},
		watcher: newWatcher(time.Millisecond, func(string) {}),
	}
	return s
}

func TestServerRebuildFirstBuildGoesIdleWithoutBroadcast(t *testing.T) {
	s := newTestServer(func() BuildOutcome {
		return BuildOutcome{
			Outputs: []emitter.Output{{AbsPath: "/dist/entry.js", Contents: []byte("console.log(1)")}},
			Chunks:  []ChunkInfo{{Name: "entry.js", ModuleIDs: []int{0}}},
		}
	})

	s.rebuild(false)

	if s.State() != StateIdle {
		t.Fatalf("expected StateIdle after first build, got %v", s.State())
	}
	if string(s.files["entry.js"]) != "console.log(1)" {
		t.Fatalf("expected the built file to be cached, got %q", s.files["entry.js"])
	}
}

func TestServerRebuildFailedBuildKeepsPriorGoodFiles(t *testing.T) {
	good := BuildOutcome{
		Outputs: []emitter.Output{{AbsPath: "/dist/entry.js", Contents: []byte("v1")}},
		Chunks:  []ChunkInfo{{Name: "entry.js", ModuleIDs: []int{0}}},
	}
	calls := 0
	s := newTestServer(func() BuildOutcome {
		calls++
		if calls == 1 {
			return good
		}
		return BuildOutcome{Errors: []logger.Msg{{Kind: logger.Error, Text: "entry.js: syntax error"}}}
	})

	s.rebuild(false)
	s.rebuild(true)

	if s.State() != StateIdle {
		t.Fatalf("expected a failed rebuild to return to StateIdle, got %v", s.State())
	}
	if string(s.files["entry.js"]) != "v1" {
		t.Fatalf("expected the last good build's files to still be served, got %q", s.files["entry.js"])
	}
}
