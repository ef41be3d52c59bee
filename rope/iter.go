package rope

// Iterators reflect the rope value they were created from; because ropes
// are immutable, iteration is always over a consistent snapshot. Restart
// by creating a new iterator.

// chunkIterFrame is one level of the chunk iterator's traversal stack.
type chunkIterFrame struct {
	node     *Node
	childIdx int
	chunkIdx int
	offset   ByteOffset // absolute byte offset at the start of this node
}

// ChunkIterator iterates over the chunks of a rope in document order.
type ChunkIterator struct {
	rope       Rope
	stack      []chunkIterFrame
	started    bool
	chunk      Chunk
	chunkStart ByteOffset
}

// Chunks returns an iterator over all chunks in the rope.
func (r Rope) Chunks() *ChunkIterator {
	return &ChunkIterator{
		rope:  r,
		stack: make([]chunkIterFrame, 0, 16),
	}
}

// Next advances to the next chunk.
// Returns false when iteration is complete.
func (it *ChunkIterator) Next() bool {
	if !it.started {
		it.started = true
		if it.rope.root == nil {
			return false
		}
		it.stack = append(it.stack, chunkIterFrame{node: it.rope.root})
		return it.findNextChunk()
	}

	if len(it.stack) > 0 {
		frame := &it.stack[len(it.stack)-1]
		if frame.node.IsLeaf() {
			frame.chunkIdx++
		}
	}
	return it.findNextChunk()
}

// findNextChunk walks the stack to the next available chunk.
func (it *ChunkIterator) findNextChunk() bool {
	for len(it.stack) > 0 {
		frame := &it.stack[len(it.stack)-1]
		node := frame.node

		if node.IsLeaf() {
			if frame.chunkIdx < len(node.chunks) {
				chunkOffset := frame.offset
				for i := 0; i < frame.chunkIdx; i++ {
					chunkOffset += ByteOffset(node.chunks[i].Len())
				}
				it.chunk = node.chunks[frame.chunkIdx]
				it.chunkStart = chunkOffset
				return true
			}
			it.pop()
			continue
		}

		if frame.childIdx < len(node.children) {
			childOffset := frame.offset
			for i := 0; i < frame.childIdx; i++ {
				childOffset += node.childSummaries[i].Bytes
			}
			it.stack = append(it.stack, chunkIterFrame{
				node:   node.children[frame.childIdx],
				offset: childOffset,
			})
			continue
		}

		it.pop()
	}
	return false
}

// pop discards the top frame and advances the parent to its next child.
func (it *ChunkIterator) pop() {
	it.stack = it.stack[:len(it.stack)-1]
	if len(it.stack) > 0 {
		it.stack[len(it.stack)-1].childIdx++
	}
}

// Chunk returns the current chunk.
func (it *ChunkIterator) Chunk() Chunk {
	return it.chunk
}

// Offset returns the byte offset where the current chunk starts.
func (it *ChunkIterator) Offset() ByteOffset {
	return it.chunkStart
}

// LineIterator iterates over the lines of a rope.
type LineIterator struct {
	rope      Rope
	lineNum   uint32
	lineStart ByteOffset
	lineEnd   ByteOffset
	text      string
	done      bool
	started   bool
}

// Lines returns an iterator over all lines in the rope. An empty rope
// yields a single empty line, matching LineCount.
func (r Rope) Lines() *LineIterator {
	return &LineIterator{rope: r}
}

// Next advances to the next line.
// Returns false when iteration is complete.
func (it *LineIterator) Next() bool {
	if it.done {
		return false
	}

	if !it.started {
		it.started = true
		if it.rope.IsEmpty() {
			it.text = ""
			it.done = true
			return true
		}
	} else {
		it.lineNum++
		if it.lineNum >= it.rope.LineCount() {
			it.done = true
			return false
		}
	}

	it.lineStart = it.rope.LineStartOffset(it.lineNum)
	it.lineEnd = it.rope.LineEndOffset(it.lineNum)
	it.text = it.rope.sliceUnchecked(it.lineStart, it.lineEnd)
	return true
}

// Text returns the current line without its trailing newline.
func (it *LineIterator) Text() string {
	return it.text
}

// Line returns the current line number (0-indexed).
func (it *LineIterator) Line() uint32 {
	return it.lineNum
}

// StartOffset returns the byte offset where the current line starts.
func (it *LineIterator) StartOffset() ByteOffset {
	return it.lineStart
}

// EndOffset returns the byte offset where the current line ends.
func (it *LineIterator) EndOffset() ByteOffset {
	return it.lineEnd
}

// RuneIterator iterates over the runes of a rope.
type RuneIterator struct {
	cursor  *Cursor
	current rune
	size    int
	offset  ByteOffset
	started bool
}

// Runes returns an iterator over all runes in the rope.
func (r Rope) Runes() *RuneIterator {
	return &RuneIterator{cursor: NewCursor(r)}
}

// Next advances to the next rune.
// Returns false when iteration is complete.
func (it *RuneIterator) Next() bool {
	if !it.started {
		it.started = true
	} else if !it.cursor.Next() {
		return false
	}

	if it.cursor.AtEnd() {
		return false
	}
	it.offset = it.cursor.Offset()
	it.current, it.size = it.cursor.Rune()
	return it.size > 0
}

// Rune returns the current rune.
func (it *RuneIterator) Rune() rune {
	return it.current
}

// Size returns the byte size of the current rune.
func (it *RuneIterator) Size() int {
	return it.size
}

// Offset returns the byte offset of the current rune.
func (it *RuneIterator) Offset() ByteOffset {
	return it.offset
}

// ByteIterator iterates over the bytes of a rope.
type ByteIterator struct {
	chunkIter *ChunkIterator
	chunkData string
	idx       int
	offset    ByteOffset
	started   bool
}

// Bytes returns an iterator over all bytes in the rope.
func (r Rope) Bytes() *ByteIterator {
	return &ByteIterator{chunkIter: r.Chunks()}
}

// Next advances to the next byte.
// Returns false when iteration is complete.
func (it *ByteIterator) Next() bool {
	if !it.started {
		it.started = true
		if !it.nextChunk() {
			return false
		}
		return len(it.chunkData) > 0
	}

	it.idx++
	it.offset++
	if it.idx >= len(it.chunkData) {
		if !it.nextChunk() {
			return false
		}
	}
	return true
}

// nextChunk loads the next non-empty chunk.
func (it *ByteIterator) nextChunk() bool {
	for it.chunkIter.Next() {
		if it.chunkIter.Chunk().Len() > 0 {
			it.chunkData = it.chunkIter.Chunk().String()
			it.idx = 0
			it.offset = it.chunkIter.Offset()
			return true
		}
	}
	return false
}

// Byte returns the current byte.
func (it *ByteIterator) Byte() byte {
	if it.idx < len(it.chunkData) {
		return it.chunkData[it.idx]
	}
	return 0
}

// Offset returns the byte offset of the current byte.
func (it *ByteIterator) Offset() ByteOffset {
	return it.offset
}

// ReverseRuneIterator iterates over the runes of a rope from the end to
// the start, using cursor path retreat rather than per-step descents.
type ReverseRuneIterator struct {
	cursor  *Cursor
	current rune
	size    int
}

// ReverseRunes returns an iterator over the rope's runes in reverse order.
func (r Rope) ReverseRunes() *ReverseRuneIterator {
	c := NewCursor(r)
	c.SeekOffset(r.Len())
	return &ReverseRuneIterator{cursor: c}
}

// Next moves to the previous rune (advancing the reverse iteration).
// Returns false when iteration is complete.
func (it *ReverseRuneIterator) Next() bool {
	if !it.cursor.Prev() {
		return false
	}
	it.current, it.size = it.cursor.Rune()
	return it.size > 0
}

// Rune returns the current rune.
func (it *ReverseRuneIterator) Rune() rune {
	return it.current
}

// Size returns the byte size of the current rune.
func (it *ReverseRuneIterator) Size() int {
	return it.size
}

// Offset returns the byte offset of the current rune.
func (it *ReverseRuneIterator) Offset() ByteOffset {
	return it.cursor.Offset()
}
