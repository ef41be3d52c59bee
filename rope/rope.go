package rope

import (
	"strings"
	"unicode/utf8"
)

// Rope is an immutable rope value. Operations return new Rope values
// sharing every untouched subtree with the original, so keeping older
// values around (diff bases, undo layers) costs nothing and concurrent
// readers need no synchronization.
//
// The zero value is an empty rope with default geometry.
type Rope struct {
	root *Node
	cfg  *config
}

// New creates an empty rope.
func New(opts ...Option) Rope {
	return Rope{root: newLeafNode(), cfg: newConfig(opts)}
}

// FromString creates a rope from a string.
// Returns ErrInvalidUTF8 if s is not valid UTF-8; there is no lossy
// conversion path.
func FromString(s string, opts ...Option) (Rope, error) {
	if !utf8.ValidString(s) {
		return Rope{}, ErrInvalidUTF8
	}
	cfg := newConfig(opts)
	return fromValidString(s, cfg), nil
}

// fromValidString builds a rope from text already known to be valid UTF-8.
func fromValidString(s string, cfg *config) Rope {
	if len(s) == 0 {
		return Rope{root: newLeafNode(), cfg: cfg}
	}
	return buildFromChunks(splitChunks(s, cfg), cfg)
}

// buildFromChunks stacks chunks into leaves and leaves into a tree.
func buildFromChunks(chunks []Chunk, cfg *config) Rope {
	if len(chunks) == 0 {
		return Rope{root: newLeafNode(), cfg: cfg}
	}

	var leaves []*Node
	for i := 0; i < len(chunks); i += cfg.leafFanout {
		end := i + cfg.leafFanout
		if end > len(chunks) {
			end = len(chunks)
		}
		leafChunks := make([]Chunk, end-i)
		copy(leafChunks, chunks[i:end])
		leaves = append(leaves, newLeafNodeWithChunks(leafChunks))
	}

	return Rope{root: buildNodeFromChildren(leaves, cfg), cfg: cfg}
}

// config returns the rope's geometry, falling back to the default for
// zero-value ropes.
func (r Rope) config() *config {
	if r.cfg == nil {
		return defaultConfig
	}
	return r.cfg
}

// withRoot derives a rope with the same geometry and a new root.
func (r Rope) withRoot(root *Node) Rope {
	return Rope{root: root, cfg: r.config()}
}

// Len returns the total byte length.
func (r Rope) Len() ByteOffset {
	if r.root == nil {
		return 0
	}
	return r.root.Len()
}

// IsEmpty returns true if the rope contains no text.
func (r Rope) IsEmpty() bool {
	return r.Len() == 0
}

// LineCount returns the number of lines (newlines + 1).
func (r Rope) LineCount() uint32 {
	if r.root == nil {
		return 1
	}
	return r.root.LineCount()
}

// Summary returns the aggregated metrics for the entire rope.
func (r Rope) Summary() TextSummary {
	if r.root == nil {
		return TextSummary{}.Zero()
	}
	return r.root.summary
}

// String returns the full text as a string.
// Use sparingly for large ropes; iteration avoids the full copy.
func (r Rope) String() string {
	if r.root == nil {
		return ""
	}
	var sb strings.Builder
	sb.Grow(int(r.Len()))
	r.root.appendTo(&sb)
	return sb.String()
}

// ByteAt returns the byte at the given offset.
// Returns 0 and false if offset is out of range.
func (r Rope) ByteAt(offset ByteOffset) (byte, bool) {
	if r.root == nil || offset >= r.Len() {
		return 0, false
	}

	node := r.root
	for !node.IsLeaf() {
		idx, childOffset := node.findChildByOffset(offset)
		node = node.children[idx]
		offset = childOffset
	}

	for _, chunk := range node.chunks {
		chunkLen := ByteOffset(chunk.Len())
		if offset < chunkLen {
			return chunk.String()[offset], true
		}
		offset -= chunkLen
	}
	return 0, false
}

// checkBoundary verifies that offset lies on a UTF-8 codepoint boundary.
func (r Rope) checkBoundary(offset ByteOffset) error {
	if offset == 0 || offset == r.Len() {
		return nil
	}
	b, ok := r.ByteAt(offset)
	if !ok {
		return ErrOffsetOutOfRange
	}
	if !isUTF8Start(b) {
		return ErrInvalidBoundary
	}
	return nil
}

// checkRange validates [start, end) against the document, clamping end to
// the document length. Both bounds must land on codepoint boundaries.
func (r Rope) checkRange(start, end ByteOffset) (ByteOffset, error) {
	if start > r.Len() {
		return end, ErrOffsetOutOfRange
	}
	if end < start {
		return end, ErrInvalidRange
	}
	if end > r.Len() {
		end = r.Len()
	}
	if err := r.checkBoundary(start); err != nil {
		return end, err
	}
	if err := r.checkBoundary(end); err != nil {
		return end, err
	}
	return end, nil
}

// Insert inserts text at the given byte offset and returns the new rope;
// the original is unchanged. The offset must lie within the document and
// on a codepoint boundary, and text must be valid UTF-8; offsets arrive
// from untrusted sources (LSP, paste, collaboration), so both are checked.
func (r Rope) Insert(offset ByteOffset, text string) (Rope, error) {
	if offset > r.Len() {
		return r, ErrOffsetOutOfRange
	}
	if err := r.checkBoundary(offset); err != nil {
		return r, err
	}
	if !utf8.ValidString(text) {
		return r, ErrInvalidUTF8
	}
	if len(text) == 0 {
		return r, nil
	}

	cfg := r.config()
	if r.root == nil || r.Len() == 0 {
		return fromValidString(text, cfg), nil
	}
	if offset == 0 {
		return fromValidString(text, cfg).Concat(r), nil
	}
	if offset == r.Len() {
		return r.Concat(fromValidString(text, cfg)), nil
	}

	left, right := r.Split(offset)
	return left.Concat(fromValidString(text, cfg)).Concat(right), nil
}

// Delete removes text in the byte range [start, end) and returns the new
// rope; the original is unchanged. The end bound is clamped to the
// document length; both bounds must land on codepoint boundaries.
func (r Rope) Delete(start, end ByteOffset) (Rope, error) {
	end, err := r.checkRange(start, end)
	if err != nil {
		return r, err
	}
	if start == end {
		return r, nil
	}

	if start == 0 && end == r.Len() {
		return New().withConfig(r.config()), nil
	}
	if start == 0 {
		_, right := r.Split(end)
		return right, nil
	}
	if end == r.Len() {
		left, _ := r.Split(start)
		return left, nil
	}

	left, rest := r.Split(start)
	_, right := rest.Split(end - start)
	return left.Concat(right), nil
}

// withConfig returns the rope with its geometry replaced. Only used when
// deriving fresh empty ropes so geometry survives a full delete.
func (r Rope) withConfig(cfg *config) Rope {
	r.cfg = cfg
	return r
}

// Replace replaces the byte range [start, end) with new text, with the
// same validation as Delete followed by Insert.
func (r Rope) Replace(start, end ByteOffset, text string) (Rope, error) {
	deleted, err := r.Delete(start, end)
	if err != nil {
		return r, err
	}
	out, err := deleted.Insert(start, text)
	if err != nil {
		return r, err
	}
	return out, nil
}

// Slice returns the text in the byte range [start, end). The end bound is
// clamped; both bounds must land on codepoint boundaries. Only chunks
// overlapping the range are visited.
func (r Rope) Slice(start, end ByteOffset) (string, error) {
	end, err := r.checkRange(start, end)
	if err != nil {
		return "", err
	}
	if r.root == nil || start >= end {
		return "", nil
	}
	return r.root.textInRange(start, end), nil
}

// sliceUnchecked extracts a range already known to be valid.
func (r Rope) sliceUnchecked(start, end ByteOffset) string {
	if r.root == nil || start >= end {
		return ""
	}
	return r.root.textInRange(start, end)
}

// Split splits the rope at offset: left holds [0, offset), right holds
// [offset, len). Offsets beyond the document are clamped.
func (r Rope) Split(offset ByteOffset) (Rope, Rope) {
	if r.root == nil || offset == 0 {
		return New().withConfig(r.config()), r
	}
	if offset >= r.Len() {
		return r, New().withConfig(r.config())
	}

	leftRoot, rightRoot := r.root.split(offset, r.config())
	return r.withRoot(leftRoot), r.withRoot(rightRoot)
}

// Concat concatenates two ropes. The receiver's geometry wins when the
// two differ.
func (r Rope) Concat(other Rope) Rope {
	if r.root == nil || r.Len() == 0 {
		return other.withConfig(r.config())
	}
	if other.root == nil || other.Len() == 0 {
		return r
	}
	return r.withRoot(concat(r.root, other.root, r.config()))
}

// LineStartOffset returns the byte offset of the start of the given line.
// Lines past the document return the document length.
func (r Rope) LineStartOffset(line uint32) ByteOffset {
	if r.root == nil || line == 0 {
		return 0
	}
	if line >= r.LineCount() {
		return r.Len()
	}

	cursor := NewCursor(r)
	if cursor.SeekLine(line) {
		return cursor.Offset()
	}
	return r.Len()
}

// LineEndOffset returns the byte offset of the end of the given line,
// excluding the newline character.
func (r Rope) LineEndOffset(line uint32) ByteOffset {
	if r.root == nil {
		return 0
	}
	if line >= r.LineCount()-1 {
		return r.Len()
	}

	cursor := NewCursor(r)
	if !cursor.SeekLine(line) {
		return r.Len()
	}
	return cursor.LineEndOffset()
}

// Line returns the text of the given line without its trailing newline.
// The second result is false if the line index is past the document.
func (r Rope) Line(line uint32) (string, bool) {
	if line >= r.LineCount() {
		return "", false
	}
	start := r.LineStartOffset(line)
	end := r.LineEndOffset(line)
	return r.sliceUnchecked(start, end), true
}

// LineToOffset returns the byte offset where the given line starts.
// The second result is false if the line index is past the document.
func (r Rope) LineToOffset(line uint32) (ByteOffset, bool) {
	if line >= r.LineCount() {
		return 0, false
	}
	return r.LineStartOffset(line), true
}

// OffsetToPoint converts a byte offset to a line/column position.
// The descent uses line aggregates, so unrelated subtrees are never
// visited. The offset must lie within the document on a codepoint
// boundary.
func (r Rope) OffsetToPoint(offset ByteOffset) (Point, error) {
	if offset > r.Len() {
		return Point{}, ErrOffsetOutOfRange
	}
	if err := r.checkBoundary(offset); err != nil {
		return Point{}, err
	}
	if r.root == nil || offset == 0 {
		return Point{}, nil
	}

	if offset == r.Len() {
		lastLine := r.LineCount() - 1
		return Point{
			Line:   lastLine,
			Column: uint32(r.Len() - r.LineStartOffset(lastLine)),
		}, nil
	}

	cursor := NewCursor(r)
	cursor.SeekOffset(offset)
	return cursor.Point(), nil
}

// PointToOffset converts a line/column position to a byte offset.
// Out-of-range points are clamped to the document, never rejected: stale
// points from earlier snapshots resolve to the nearest valid position.
func (r Rope) PointToOffset(point Point) ByteOffset {
	if r.root == nil {
		return 0
	}
	if point.Line >= r.LineCount() {
		return r.Len()
	}

	lineStart := r.LineStartOffset(point.Line)
	lineEnd := r.LineEndOffset(point.Line)
	if ByteOffset(point.Column) >= lineEnd-lineStart {
		return lineEnd
	}
	return lineStart + ByteOffset(point.Column)
}

// OffsetToPointUTF16 converts a byte offset to a line/column position with
// the column in UTF-16 code units, matching LSP's position encoding.
func (r Rope) OffsetToPointUTF16(offset ByteOffset) (PointUTF16, error) {
	p, err := r.OffsetToPoint(offset)
	if err != nil {
		return PointUTF16{}, err
	}

	// ASCII documents need no conversion: byte columns are UTF-16 columns.
	if r.Summary().IsASCII() {
		return PointUTF16{Line: p.Line, Column: p.Column}, nil
	}

	lineStart := r.LineStartOffset(p.Line)
	prefix := r.sliceUnchecked(lineStart, offset)
	return PointUTF16{Line: p.Line, Column: uint32(utf16Length(prefix))}, nil
}

// PointUTF16ToOffset converts a UTF-16 line/column position to a byte
// offset, clamped to the document like PointToOffset. A column landing
// inside a surrogate pair resolves to the following codepoint boundary.
func (r Rope) PointUTF16ToOffset(point PointUTF16) ByteOffset {
	if r.root == nil {
		return 0
	}
	if point.Line >= r.LineCount() {
		return r.Len()
	}

	lineStart := r.LineStartOffset(point.Line)
	lineEnd := r.LineEndOffset(point.Line)

	if r.Summary().IsASCII() {
		if ByteOffset(point.Column) >= lineEnd-lineStart {
			return lineEnd
		}
		return lineStart + ByteOffset(point.Column)
	}

	line := r.sliceUnchecked(lineStart, lineEnd)
	var units uint64
	for i, ch := range line {
		if units >= uint64(point.Column) {
			return lineStart + ByteOffset(i)
		}
		if ch <= 0xFFFF {
			units++
		} else {
			units += 2
		}
	}
	return lineEnd
}

// CursorAt creates a cursor positioned at the given offset. The offset
// must lie within the document on a codepoint boundary.
func (r Rope) CursorAt(offset ByteOffset) (*Cursor, error) {
	if offset > r.Len() {
		return nil, ErrOffsetOutOfRange
	}
	if err := r.checkBoundary(offset); err != nil {
		return nil, err
	}
	c := NewCursor(r)
	c.SeekOffset(offset)
	return c, nil
}

// Height returns the height of the rope tree.
// Useful for balance assertions in tests.
func (r Rope) Height() int {
	if r.root == nil {
		return 0
	}
	return int(r.root.height) + 1
}

// ChunkCount returns the total number of chunks in the rope.
func (r Rope) ChunkCount() int {
	if r.root == nil {
		return 0
	}
	return countChunks(r.root)
}

func countChunks(n *Node) int {
	if n.IsLeaf() {
		return len(n.chunks)
	}
	count := 0
	for _, child := range n.children {
		count += countChunks(child)
	}
	return count
}

// Equals returns true if two ropes contain the same text.
// Content comparison, not structural.
func (r Rope) Equals(other Rope) bool {
	if r.Len() != other.Len() {
		return false
	}

	// Compare chunk by chunk without materializing either rope. Chunk
	// boundaries rarely align, so walk both with independent windows.
	a, b := r.Chunks(), other.Chunks()
	var aText, bText string
	for {
		if len(aText) == 0 {
			if !a.Next() {
				return len(bText) == 0 && !b.Next()
			}
			aText = a.Chunk().String()
		}
		if len(bText) == 0 {
			if !b.Next() {
				return false
			}
			bText = b.Chunk().String()
		}

		n := len(aText)
		if len(bText) < n {
			n = len(bText)
		}
		if aText[:n] != bText[:n] {
			return false
		}
		aText, bText = aText[n:], bText[n:]
	}
}
