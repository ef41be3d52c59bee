package rope

import "unicode/utf8"

// Cursor enables efficient sequential traversal of a rope. It records the
// root-to-leaf path taken by the last seek, so stepping forward or backward
// is O(1) amortized: movement stays inside the current chunk until a
// boundary is crossed, and boundary crossings resume from the recorded path
// instead of re-descending from the root.
//
// A cursor holds the Rope value it was created from (a structural share),
// so it remains valid for that snapshot regardless of later edits to
// derived ropes. It never holds mutable references into chunks.
type Cursor struct {
	rope     Rope
	path     []cursorFrame
	offset   ByteOffset
	point    Point
	pointSet bool // point is maintained lazily; movement may invalidate it

	leafNode *Node // current leaf, nil only when past the last leaf
	chunkIdx int
	chunkOff int
}

// cursorFrame records one step of the root-to-leaf descent.
type cursorFrame struct {
	node     *Node
	childIdx int        // child we descended into
	offset   ByteOffset // absolute byte offset where that child starts
	line     uint32     // line number where that child starts
}

// NewCursor creates a cursor at the start of the rope.
func NewCursor(r Rope) *Cursor {
	c := &Cursor{
		rope: r,
		path: make([]cursorFrame, 0, 16),
	}
	c.seekToStart()
	return c
}

// seekToStart positions the cursor at the beginning of the rope.
func (c *Cursor) seekToStart() {
	c.path = c.path[:0]
	c.offset = 0
	c.point = Point{}
	c.pointSet = true

	if c.rope.root == nil {
		c.leafNode = nil
		return
	}

	node := c.rope.root
	for !node.IsLeaf() {
		c.path = append(c.path, cursorFrame{node: node})
		node = node.children[0]
	}
	c.leafNode = node
	c.chunkIdx = 0
	c.chunkOff = 0
}

// Offset returns the current byte offset.
func (c *Cursor) Offset() ByteOffset {
	return c.offset
}

// AtStart returns true if the cursor is at the start of the rope.
func (c *Cursor) AtStart() bool {
	return c.offset == 0
}

// AtEnd returns true if the cursor is at the end of the rope.
func (c *Cursor) AtEnd() bool {
	return c.offset >= c.rope.Len()
}

// Point returns the current line/column position, computing it from the
// recorded path if a backward step invalidated the cached value.
func (c *Cursor) Point() Point {
	if !c.pointSet {
		c.computePoint()
	}
	return c.point
}

// computePoint derives line/column from the path and the current chunk.
func (c *Cursor) computePoint() {
	c.point = Point{}

	for _, frame := range c.path {
		for i := 0; i < frame.childIdx; i++ {
			c.point.Line += frame.node.childSummaries[i].Lines
		}
	}

	if c.leafNode != nil {
		for i := 0; i < c.chunkIdx; i++ {
			c.point.Line += c.leafNode.chunks[i].Summary().Lines
		}
		if c.chunkIdx < len(c.leafNode.chunks) {
			chunk := c.leafNode.chunks[c.chunkIdx]
			idx := chunk.Newlines()
			// Newlines strictly before the in-chunk offset.
			for i := uint32(0); i < idx.Count(); i++ {
				if idx.Position(i) < c.chunkOff {
					c.point.Line++
				} else {
					break
				}
			}
		}
	}

	c.point.Column = uint32(c.offset - c.lineStartOffset())
	c.pointSet = true
}

// LineStartOffset returns the byte offset of the start of the current line.
func (c *Cursor) LineStartOffset() ByteOffset {
	return c.lineStartOffset()
}

// lineStartOffset finds the last newline at or before the cursor using the
// chunk newline indexes, walking leaves backward through the path when the
// current leaf has none.
func (c *Cursor) lineStartOffset() ByteOffset {
	if c.offset == 0 {
		return 0
	}

	if c.leafNode == nil || c.chunkIdx >= len(c.leafNode.chunks) {
		// Past the last leaf; scan from a clone positioned at the end.
		clone := c.Clone()
		clone.seekToEnd()
		if clone.leafNode == nil {
			return 0
		}
		return clone.lineStartOffset()
	}

	// Current chunk, before the in-chunk offset.
	chunk := c.leafNode.chunks[c.chunkIdx]
	if pos := chunk.Newlines().NewlineBefore(c.chunkOff); pos >= 0 {
		chunkStart := c.offset - ByteOffset(c.chunkOff)
		return chunkStart + ByteOffset(pos) + 1
	}

	// Earlier chunks in the current leaf. After the loop, at is the
	// absolute offset of the current leaf's start.
	at := c.offset - ByteOffset(c.chunkOff)
	for i := c.chunkIdx - 1; i >= 0; i-- {
		prev := c.leafNode.chunks[i]
		at -= ByteOffset(prev.Len())
		if pos := prev.Newlines().LastNewlinePosition(); pos >= 0 {
			return at + ByteOffset(pos) + 1
		}
	}

	// Walk leaves backward via a cloned path. Each retreated leaf ends
	// where the previous scan stopped.
	clone := c.Clone()
	for clone.retreatLeaf() {
		for i := len(clone.leafNode.chunks) - 1; i >= 0; i-- {
			chunk := clone.leafNode.chunks[i]
			at -= ByteOffset(chunk.Len())
			if pos := chunk.Newlines().LastNewlinePosition(); pos >= 0 {
				return at + ByteOffset(pos) + 1
			}
		}
	}
	return 0
}

// LineEndOffset returns the byte offset of the end of the current line,
// excluding its newline. Returns the document length on the last line.
func (c *Cursor) LineEndOffset() ByteOffset {
	if c.leafNode == nil || c.chunkIdx >= len(c.leafNode.chunks) {
		return c.rope.Len()
	}

	// Current chunk, at or after the in-chunk offset.
	chunk := c.leafNode.chunks[c.chunkIdx]
	if pos := chunk.Newlines().NewlineAfter(c.chunkOff); pos >= 0 {
		chunkStart := c.offset - ByteOffset(c.chunkOff)
		return chunkStart + ByteOffset(pos)
	}

	// Later chunks in the current leaf. After the loop, at is the
	// absolute offset just past the current leaf.
	at := c.offset - ByteOffset(c.chunkOff) + ByteOffset(chunk.Len())
	for i := c.chunkIdx + 1; i < len(c.leafNode.chunks); i++ {
		next := c.leafNode.chunks[i]
		if pos := next.Newlines().NewlineAfter(0); pos >= 0 {
			return at + ByteOffset(pos)
		}
		at += ByteOffset(next.Len())
	}

	// Walk leaves forward via a cloned path. Each advanced leaf starts
	// where the previous scan stopped.
	clone := c.Clone()
	for {
		clone.advanceLeaf()
		if clone.leafNode == nil {
			return c.rope.Len()
		}
		for _, next := range clone.leafNode.chunks {
			if pos := next.Newlines().NewlineAfter(0); pos >= 0 {
				return at + ByteOffset(pos)
			}
			at += ByteOffset(next.Len())
		}
	}
}

// SeekOffset moves the cursor to the given byte offset with one descent.
// Offsets inside a multi-byte codepoint are adjusted back to the start of
// that codepoint. Returns false if the offset is past the document.
func (c *Cursor) SeekOffset(offset ByteOffset) bool {
	if c.rope.root == nil {
		return offset == 0
	}
	ropeLen := c.rope.Len()
	if offset > ropeLen {
		return false
	}

	c.path = c.path[:0]
	c.offset = offset
	c.pointSet = false

	if offset == ropeLen {
		c.seekToEnd()
		return true
	}

	node := c.rope.root
	nodeStart := ByteOffset(0)
	nodeLine := uint32(0)

	for !node.IsLeaf() {
		childStart := nodeStart
		childLine := nodeLine
		found := false
		for i, summary := range node.childSummaries {
			if childStart+summary.Bytes > offset {
				c.path = append(c.path, cursorFrame{
					node:     node,
					childIdx: i,
					offset:   childStart,
					line:     childLine,
				})
				node = node.children[i]
				nodeStart = childStart
				nodeLine = childLine
				found = true
				break
			}
			childStart += summary.Bytes
			childLine += summary.Lines
		}
		if !found {
			return false
		}
	}

	c.leafNode = node
	chunkStart := nodeStart
	for i, chunk := range node.chunks {
		chunkEnd := chunkStart + ByteOffset(chunk.Len())
		if chunkEnd > offset {
			c.chunkIdx = i
			c.chunkOff = int(offset - chunkStart)

			// Land on a codepoint boundary.
			text := chunk.String()
			for c.chunkOff > 0 && !isUTF8Start(text[c.chunkOff]) {
				c.chunkOff--
				c.offset--
			}
			return true
		}
		chunkStart = chunkEnd
	}

	c.chunkIdx = len(node.chunks) - 1
	if c.chunkIdx >= 0 {
		c.chunkOff = node.chunks[c.chunkIdx].Len()
	} else {
		c.chunkIdx = 0
		c.chunkOff = 0
	}
	return true
}

// seekToEnd positions the cursor at the end of the rope with a rightmost
// descent.
func (c *Cursor) seekToEnd() {
	c.path = c.path[:0]
	c.offset = c.rope.Len()
	c.pointSet = false

	if c.rope.root == nil {
		c.leafNode = nil
		return
	}

	node := c.rope.root
	at := ByteOffset(0)
	line := uint32(0)
	for !node.IsLeaf() {
		last := len(node.children) - 1
		for i := 0; i < last; i++ {
			at += node.childSummaries[i].Bytes
			line += node.childSummaries[i].Lines
		}
		c.path = append(c.path, cursorFrame{
			node:     node,
			childIdx: last,
			offset:   at,
			line:     line,
		})
		node = node.children[last]
	}

	c.leafNode = node
	if len(node.chunks) > 0 {
		c.chunkIdx = len(node.chunks) - 1
		c.chunkOff = node.chunks[c.chunkIdx].Len()
	} else {
		c.chunkIdx = 0
		c.chunkOff = 0
	}
}

// SeekLine moves the cursor to the start of the given line with one
// descent over the line aggregates. Returns false if the line is past the
// document.
func (c *Cursor) SeekLine(line uint32) bool {
	if c.rope.root == nil {
		return line == 0
	}
	if line == 0 {
		c.seekToStart()
		return true
	}
	if line >= c.rope.LineCount() {
		return false
	}

	c.path = c.path[:0]
	c.pointSet = false

	node := c.rope.root
	at := ByteOffset(0)
	atLine := uint32(0)

	for !node.IsLeaf() {
		found := false
		for i, summary := range node.childSummaries {
			if atLine+summary.Lines >= line {
				c.path = append(c.path, cursorFrame{
					node:     node,
					childIdx: i,
					offset:   at,
					line:     atLine,
				})
				node = node.children[i]
				found = true
				break
			}
			at += summary.Bytes
			atLine += summary.Lines
		}
		if !found {
			return false
		}
	}

	c.leafNode = node
	remaining := line - atLine
	for i, chunk := range node.chunks {
		summary := chunk.Summary()
		if summary.Lines >= remaining {
			pos := chunk.Newlines().FindNthNewline(remaining)
			if pos < 0 {
				return false
			}
			c.chunkIdx = i
			c.chunkOff = pos + 1
			c.offset = at + ByteOffset(c.chunkOff)
			c.point = Point{Line: line}
			c.pointSet = true
			return true
		}
		remaining -= summary.Lines
		at += ByteOffset(chunk.Len())
	}
	return false
}

// Rune returns the rune at the current position without advancing.
// Returns (0, 0) at the end of the rope.
func (c *Cursor) Rune() (rune, int) {
	if c.leafNode == nil || c.chunkIdx >= len(c.leafNode.chunks) {
		return 0, 0
	}
	chunk := c.leafNode.chunks[c.chunkIdx]
	if c.chunkOff >= chunk.Len() {
		return 0, 0
	}
	return utf8.DecodeRuneInString(chunk.String()[c.chunkOff:])
}

// Byte returns the byte at the current position without advancing.
// Returns (0, false) at the end of the rope.
func (c *Cursor) Byte() (byte, bool) {
	if c.leafNode == nil || c.chunkIdx >= len(c.leafNode.chunks) {
		return 0, false
	}
	chunk := c.leafNode.chunks[c.chunkIdx]
	if c.chunkOff >= chunk.Len() {
		return 0, false
	}
	return chunk.String()[c.chunkOff], true
}

// Next advances the cursor by one rune.
// Returns false if already at the end.
func (c *Cursor) Next() bool {
	if c.offset >= c.rope.Len() {
		return false
	}

	r, size := c.Rune()
	if size == 0 {
		return false
	}

	c.offset += ByteOffset(size)
	c.chunkOff += size

	if c.pointSet {
		if r == '\n' {
			c.point.Line++
			c.point.Column = 0
		} else {
			c.point.Column += uint32(size)
		}
	}

	if c.leafNode != nil && c.chunkIdx < len(c.leafNode.chunks) {
		if c.chunkOff >= c.leafNode.chunks[c.chunkIdx].Len() {
			c.advanceChunk()
		}
	}
	return true
}

// advanceChunk moves to the start of the next chunk.
func (c *Cursor) advanceChunk() {
	c.chunkIdx++
	c.chunkOff = 0
	if c.chunkIdx >= len(c.leafNode.chunks) {
		c.advanceLeaf()
	}
}

// advanceLeaf moves to the next leaf using the recorded path.
func (c *Cursor) advanceLeaf() {
	for len(c.path) > 0 {
		frame := c.path[len(c.path)-1]
		c.path = c.path[:len(c.path)-1]

		nextIdx := frame.childIdx + 1
		if nextIdx >= len(frame.node.children) {
			continue
		}

		siblingOffset := frame.offset + frame.node.childSummaries[frame.childIdx].Bytes
		siblingLine := frame.line + frame.node.childSummaries[frame.childIdx].Lines
		c.path = append(c.path, cursorFrame{
			node:     frame.node,
			childIdx: nextIdx,
			offset:   siblingOffset,
			line:     siblingLine,
		})

		node := frame.node.children[nextIdx]
		for !node.IsLeaf() {
			c.path = append(c.path, cursorFrame{
				node:   node,
				offset: siblingOffset,
				line:   siblingLine,
			})
			node = node.children[0]
		}

		c.leafNode = node
		c.chunkIdx = 0
		c.chunkOff = 0
		return
	}

	// Past the last leaf.
	c.leafNode = nil
	c.chunkIdx = 0
	c.chunkOff = 0
}

// Prev moves the cursor back by one rune. The step stays inside the
// current chunk when possible and otherwise retreats through the recorded
// path, so backward iteration costs the same as forward iteration.
// Returns false if already at the start.
func (c *Cursor) Prev() bool {
	if c.offset == 0 {
		return false
	}

	if c.chunkOff == 0 {
		if !c.retreatChunk() {
			return false
		}
	}

	text := c.leafNode.chunks[c.chunkIdx].String()
	start := c.chunkOff - 1
	for start > 0 && !isUTF8Start(text[start]) {
		start--
	}
	r, size := utf8.DecodeRuneInString(text[start:c.chunkOff])

	c.offset -= ByteOffset(c.chunkOff - start)
	c.chunkOff = start

	if c.pointSet {
		// Crossing a newline backward lands at an unknown column; let
		// Point() recompute lazily if asked.
		if r == '\n' || c.point.Column < uint32(size) {
			c.pointSet = false
		} else {
			c.point.Column -= uint32(size)
		}
	}
	return true
}

// retreatChunk moves to the end of the previous chunk, crossing to the
// previous leaf when the cursor sits at the start of its leaf.
func (c *Cursor) retreatChunk() bool {
	if c.leafNode == nil {
		// Past the last leaf; re-anchor at the rightmost one.
		c.seekToEnd()
		return c.leafNode != nil && c.chunkOff > 0
	}
	if c.chunkIdx > 0 {
		c.chunkIdx--
		c.chunkOff = c.leafNode.chunks[c.chunkIdx].Len()
		return true
	}
	return c.retreatLeaf()
}

// retreatLeaf moves to the end of the previous leaf using the recorded
// path. Returns false at the first leaf.
func (c *Cursor) retreatLeaf() bool {
	for len(c.path) > 0 {
		frame := c.path[len(c.path)-1]
		c.path = c.path[:len(c.path)-1]

		if frame.childIdx == 0 {
			continue
		}

		prevIdx := frame.childIdx - 1
		prevOffset := frame.offset - frame.node.childSummaries[prevIdx].Bytes
		prevLine := frame.line - frame.node.childSummaries[prevIdx].Lines
		c.path = append(c.path, cursorFrame{
			node:     frame.node,
			childIdx: prevIdx,
			offset:   prevOffset,
			line:     prevLine,
		})

		node := frame.node.children[prevIdx]
		at := prevOffset
		line := prevLine
		for !node.IsLeaf() {
			last := len(node.children) - 1
			childStart := at
			childLine := line
			for i := 0; i < last; i++ {
				childStart += node.childSummaries[i].Bytes
				childLine += node.childSummaries[i].Lines
			}
			c.path = append(c.path, cursorFrame{
				node:     node,
				childIdx: last,
				offset:   childStart,
				line:     childLine,
			})
			node = node.children[last]
			at = childStart
			line = childLine
		}

		c.leafNode = node
		c.chunkIdx = len(node.chunks) - 1
		if c.chunkIdx < 0 {
			c.chunkIdx = 0
			c.chunkOff = 0
			return false
		}
		c.chunkOff = node.chunks[c.chunkIdx].Len()
		return true
	}
	return false
}

// Clone creates an independent copy of the cursor at the same position.
func (c *Cursor) Clone() *Cursor {
	out := &Cursor{
		rope:     c.rope,
		path:     make([]cursorFrame, len(c.path)),
		offset:   c.offset,
		point:    c.point,
		pointSet: c.pointSet,
		leafNode: c.leafNode,
		chunkIdx: c.chunkIdx,
		chunkOff: c.chunkOff,
	}
	copy(out.path, c.path)
	return out
}
