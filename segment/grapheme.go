package segment

import (
	"unicode/utf8"

	"github.com/rivo/uniseg"

	"github.com/dshills/textrope/rope"
)

// lookahead is the minimum window kept ahead of the segmentation point so
// clusters spanning chunk boundaries are seen whole. Clusters longer than
// this (unbounded combining-mark runs) widen the window on demand.
const lookahead = 64

// GraphemeIterator iterates over the grapheme clusters of a rope in
// document order, carrying segmentation state across chunk boundaries so
// clusters that straddle chunks are never split.
type GraphemeIterator struct {
	chunks  *rope.ChunkIterator
	window  string
	winOff  rope.ByteOffset // absolute offset of window start
	state   int
	cluster string
	width   int
	drained bool
}

// Graphemes returns a grapheme-cluster iterator over the rope.
func Graphemes(r rope.Rope) *GraphemeIterator {
	return &GraphemeIterator{
		chunks: r.Chunks(),
		state:  -1,
	}
}

// refill tops the window up from the chunk stream.
func (it *GraphemeIterator) refill() {
	for len(it.window) < lookahead && !it.drained {
		if !it.chunks.Next() {
			it.drained = true
			return
		}
		it.window += it.chunks.Chunk().String()
	}
}

// Next advances to the next grapheme cluster.
// Returns false when iteration is complete.
func (it *GraphemeIterator) Next() bool {
	it.refill()
	if len(it.window) == 0 {
		return false
	}

	cluster, rest, width, state := uniseg.FirstGraphemeClusterInString(it.window, it.state)
	for len(rest) == 0 && !it.drained {
		// The cluster reached the window edge and may continue into the
		// next chunk; widen the window and re-segment.
		if !it.chunks.Next() {
			it.drained = true
			break
		}
		it.window += it.chunks.Chunk().String()
		cluster, rest, width, state = uniseg.FirstGraphemeClusterInString(it.window, it.state)
	}
	it.cluster = cluster
	it.width = width
	it.window = rest
	it.state = state
	it.winOff += rope.ByteOffset(len(cluster))
	return true
}

// Cluster returns the current grapheme cluster.
func (it *GraphemeIterator) Cluster() string {
	return it.cluster
}

// Width returns the monospace display width of the current cluster.
func (it *GraphemeIterator) Width() int {
	return it.width
}

// Offset returns the byte offset where the current cluster starts.
func (it *GraphemeIterator) Offset() rope.ByteOffset {
	return it.winOff - rope.ByteOffset(len(it.cluster))
}

// Count returns the number of grapheme clusters in the rope.
func Count(r rope.Rope) int {
	// ASCII documents have one cluster per byte.
	if r.Summary().IsASCII() {
		return int(r.Len())
	}

	count := 0
	for it := Graphemes(r); it.Next(); {
		count++
	}
	return count
}

// ClusterAt returns the grapheme cluster starting at the given byte
// offset, or false when the offset is past the document. The offset must
// lie on a cluster boundary for the result to be a complete cluster.
func ClusterAt(r rope.Rope, offset rope.ByteOffset) (string, bool) {
	if offset >= r.Len() {
		return "", false
	}

	end := snapForward(r, offset+lookahead)
	window, err := r.Slice(offset, end)
	if err != nil || len(window) == 0 {
		return "", false
	}

	cluster, rest, _, _ := uniseg.FirstGraphemeClusterInString(window, -1)
	for len(rest) == 0 && end < r.Len() {
		// The cluster filled the window; widen and re-segment.
		end = snapForward(r, end+lookahead)
		window, err = r.Slice(offset, end)
		if err != nil {
			return "", false
		}
		cluster, rest, _, _ = uniseg.FirstGraphemeClusterInString(window, -1)
	}
	return cluster, true
}

// snapForward clamps end to the document and advances it off any codepoint
// interior so it can serve as a slice bound.
func snapForward(r rope.Rope, end rope.ByteOffset) rope.ByteOffset {
	for end < r.Len() {
		b, ok := r.ByteAt(end)
		if !ok || utf8.RuneStart(b) {
			break
		}
		end++
	}
	if end > r.Len() {
		end = r.Len()
	}
	return end
}

// NextBoundary returns the byte offset of the next grapheme boundary
// strictly after offset, clamped to the document length.
func NextBoundary(r rope.Rope, offset rope.ByteOffset) rope.ByteOffset {
	cluster, ok := ClusterAt(r, offset)
	if !ok {
		return r.Len()
	}
	return offset + rope.ByteOffset(len(cluster))
}

// PrevBoundary returns the byte offset of the last grapheme boundary
// strictly before offset, or 0 at the start. The scan re-segments from
// the start of the containing line: boundaries cannot be found by reading
// backward, and a line is the natural bounded context.
func PrevBoundary(r rope.Rope, offset rope.ByteOffset) rope.ByteOffset {
	if offset == 0 {
		return 0
	}
	if offset > r.Len() {
		offset = r.Len()
	}

	p, err := r.OffsetToPoint(offset)
	if err != nil {
		return 0
	}
	lineStart := r.LineStartOffset(p.Line)
	if offset == lineStart {
		// The cluster ending here is the previous line's terminator:
		// either a lone "\n" or a "\r\n" pair, which UAX #29 (GB3)
		// treats as a single cluster.
		if offset >= 2 {
			if b, ok := r.ByteAt(offset - 2); ok && b == '\r' {
				return offset - 2
			}
		}
		return offset - 1
	}

	text, err := r.Slice(lineStart, offset)
	if err != nil {
		return lineStart
	}
	last := lineStart
	state := -1
	for len(text) > 0 {
		cluster, rest, _, newState := uniseg.FirstGraphemeClusterInString(text, state)
		next := last + rope.ByteOffset(len(cluster))
		if next >= offset {
			return last
		}
		last = next
		text = rest
		state = newState
	}
	return last
}
