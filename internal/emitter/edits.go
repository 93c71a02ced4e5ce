package emitter

import "sort"

// edit replaces the byte range [start,end) of a module's source with text.
// The per-module and per-chunk passes both produce non-overlapping edits
// (every rewritten construct is its own top-level statement), so applying
// them is a single sorted left-to-right walk.
type edit struct {
	start, end int
	text       string
}

func applyEdits(src string, edits []edit) string {
	if len(edits) == 0 {
		return src
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	var b []byte
	pos := 0
	for _, e := range edits {
		if e.start < pos {
			continue // overlapping edit from a best-effort match miss; skip rather than corrupt output
		}
		b = append(b, src[pos:e.start]...)
		b = append(b, e.text...)
		pos = e.end
	}
	b = append(b, src[pos:]...)
	return string(b)
}
