package rope

import "strings"

// Node is a node in the rope B+ tree. Leaf nodes (height == 0) hold text
// chunks; internal nodes hold child references plus a cached per-child
// summary used to route offset and line queries without descending.
//
// Aggregate invariant: node.summary always equals the sum of its children
// (or chunks). Nodes are rebuilt, never mutated in place, once they are
// reachable from a Rope, so the invariant is re-established by construction
// before any node escapes to a caller.
type Node struct {
	height  uint8
	summary TextSummary

	// Internal node fields (height > 0).
	children       []*Node
	childSummaries []TextSummary

	// Leaf node fields (height == 0).
	chunks []Chunk
}

// newLeafNode creates an empty leaf node.
func newLeafNode() *Node {
	return &Node{height: 0}
}

// newLeafNodeWithChunks creates a leaf node holding the given chunks.
func newLeafNodeWithChunks(chunks []Chunk) *Node {
	n := &Node{height: 0, chunks: chunks}
	n.summary = TextSummary{}.Zero()
	for _, chunk := range chunks {
		n.summary = n.summary.Add(chunk.Summary())
	}
	return n
}

// newInternalNode creates an internal node over the given children, which
// must share a common height.
func newInternalNode(children []*Node) *Node {
	if len(children) == 0 {
		return newLeafNode()
	}

	summaries := make([]TextSummary, len(children))
	total := TextSummary{}.Zero()
	for i, child := range children {
		summaries[i] = child.summary
		total = total.Add(child.summary)
	}

	return &Node{
		height:         children[0].height + 1,
		summary:        total,
		children:       children,
		childSummaries: summaries,
	}
}

// IsLeaf returns true if this is a leaf node.
func (n *Node) IsLeaf() bool {
	return n.height == 0
}

// Len returns the byte length of text in this subtree.
func (n *Node) Len() ByteOffset {
	return n.summary.Bytes
}

// LineCount returns the number of lines in this subtree (newlines + 1).
func (n *Node) LineCount() uint32 {
	return n.summary.Lines + 1
}

// clone creates a shallow copy sharing chunk data and child subtrees.
func (n *Node) clone() *Node {
	if n.IsLeaf() {
		chunks := make([]Chunk, len(n.chunks))
		copy(chunks, n.chunks)
		return &Node{height: 0, summary: n.summary, chunks: chunks}
	}

	children := make([]*Node, len(n.children))
	copy(children, n.children)
	summaries := make([]TextSummary, len(n.childSummaries))
	copy(summaries, n.childSummaries)
	return &Node{
		height:         n.height,
		summary:        n.summary,
		children:       children,
		childSummaries: summaries,
	}
}

// appendTo appends all text in this subtree to the builder.
func (n *Node) appendTo(sb *strings.Builder) {
	if n.IsLeaf() {
		for _, chunk := range n.chunks {
			sb.WriteString(chunk.String())
		}
		return
	}
	for _, child := range n.children {
		child.appendTo(sb)
	}
}

// textInRange extracts text in the byte range [start, end), visiting only
// the subtrees that overlap the range.
func (n *Node) textInRange(start, end ByteOffset) string {
	if start >= end || start >= n.Len() {
		return ""
	}
	if end > n.Len() {
		end = n.Len()
	}

	buf := getScratch(int(end - start))
	n.appendRange(buf, start, end)
	s := buf.String()
	putScratch(buf)
	return s
}

// appendRange appends text in [start, end) (node-relative) to buf.
func (n *Node) appendRange(buf *scratchBuffer, start, end ByteOffset) {
	if start >= end {
		return
	}

	if n.IsLeaf() {
		offset := ByteOffset(0)
		for _, chunk := range n.chunks {
			chunkEnd := offset + ByteOffset(chunk.Len())
			if chunkEnd <= start {
				offset = chunkEnd
				continue
			}
			if offset >= end {
				break
			}

			from := 0
			if start > offset {
				from = int(start - offset)
			}
			to := chunk.Len()
			if end < chunkEnd {
				to = int(end - offset)
			}
			buf.WriteString(chunk.String()[from:to])
			offset = chunkEnd
		}
		return
	}

	offset := ByteOffset(0)
	for i, child := range n.children {
		childEnd := offset + n.childSummaries[i].Bytes
		if childEnd <= start {
			offset = childEnd
			continue
		}
		if offset >= end {
			break
		}

		childStart := ByteOffset(0)
		if start > offset {
			childStart = start - offset
		}
		childStop := n.childSummaries[i].Bytes
		if end < childEnd {
			childStop = end - offset
		}
		child.appendRange(buf, childStart, childStop)
		offset = childEnd
	}
}

// split divides the subtree at offset into two independent trees.
func (n *Node) split(offset ByteOffset, cfg *config) (*Node, *Node) {
	if offset == 0 {
		return newLeafNode(), n.clone()
	}
	if offset >= n.Len() {
		return n.clone(), newLeafNode()
	}
	if n.IsLeaf() {
		return n.splitLeaf(offset)
	}
	return n.splitInternal(offset, cfg)
}

// splitLeaf splits a leaf node at the given offset.
func (n *Node) splitLeaf(offset ByteOffset) (*Node, *Node) {
	var leftChunks, rightChunks []Chunk
	at := ByteOffset(0)

	for _, chunk := range n.chunks {
		chunkLen := ByteOffset(chunk.Len())
		switch {
		case at+chunkLen <= offset:
			leftChunks = append(leftChunks, chunk)
		case at >= offset:
			rightChunks = append(rightChunks, chunk)
		default:
			left, right := chunk.Split(int(offset - at))
			if !left.IsEmpty() {
				leftChunks = append(leftChunks, left)
			}
			if !right.IsEmpty() {
				rightChunks = append(rightChunks, right)
			}
		}
		at += chunkLen
	}

	return newLeafNodeWithChunks(leftChunks), newLeafNodeWithChunks(rightChunks)
}

// splitInternal splits an internal node at the given offset. The whole
// siblings on each side form uniform-height subtrees; the boundary child
// is split recursively and its halves joined onto those subtrees, so the
// results keep correct heights even when a half collapses to a shallower
// tree.
func (n *Node) splitInternal(offset ByteOffset, cfg *config) (*Node, *Node) {
	idx, childOffset := n.findChildByOffset(offset)

	leftSiblings := buildNodeFromChildren(copyNodes(n.children[:idx]), cfg)
	rightSiblings := buildNodeFromChildren(copyNodes(n.children[idx+1:]), cfg)
	childLeft, childRight := n.children[idx].split(childOffset, cfg)

	return concat(leftSiblings, childLeft, cfg), concat(childRight, rightSiblings, cfg)
}

// copyNodes copies a child slice so derived trees never alias the
// original node's backing array.
func copyNodes(nodes []*Node) []*Node {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]*Node, len(nodes))
	copy(out, nodes)
	return out
}

// buildNodeFromChildren stacks a list of same-height nodes into a tree that
// respects the branch fanout, adding levels as needed.
func buildNodeFromChildren(children []*Node, cfg *config) *Node {
	if len(children) == 0 {
		return newLeafNode()
	}
	if len(children) == 1 {
		return children[0]
	}
	if len(children) <= cfg.branchFanout {
		return newInternalNode(children)
	}

	var parents []*Node
	for i := 0; i < len(children); i += cfg.branchFanout {
		end := i + cfg.branchFanout
		if end > len(children) {
			end = len(children)
		}
		parents = append(parents, newInternalNode(children[i:end]))
	}
	return buildNodeFromChildren(parents, cfg)
}

// concat joins two trees of any heights. The join grafts the shorter tree
// into the taller one's spine at matching height, splitting overfull nodes
// upward the way a B-tree insert does. Tree height therefore grows only
// when the root itself splits, which keeps height logarithmic in chunk
// count no matter the edit pattern; repeated prepends or appends cannot
// build a degenerate spine.
func concat(left, right *Node, cfg *config) *Node {
	if left == nil || left.Len() == 0 {
		if right == nil {
			return newLeafNode()
		}
		return right
	}
	if right == nil || right.Len() == 0 {
		return left
	}

	nodes := join(left, right, cfg)
	if len(nodes) == 1 {
		return nodes[0]
	}
	return newInternalNode(nodes)
}

// join merges two non-empty trees, returning one or two nodes whose height
// is the taller input's height.
func join(left, right *Node, cfg *config) []*Node {
	switch {
	case left.height == right.height:
		if left.IsLeaf() {
			return joinLeaves(left, right, cfg)
		}
		children := make([]*Node, 0, len(left.children)+len(right.children))
		children = append(children, left.children...)
		children = append(children, right.children...)
		return packChildren(children, cfg)

	case left.height > right.height:
		last := len(left.children) - 1
		merged := join(left.children[last], right, cfg)
		children := make([]*Node, 0, last+len(merged))
		children = append(children, left.children[:last]...)
		children = append(children, merged...)
		return packChildren(children, cfg)

	default:
		merged := join(left, right.children[0], cfg)
		children := make([]*Node, 0, len(merged)+len(right.children)-1)
		children = append(children, merged...)
		children = append(children, right.children[1:]...)
		return packChildren(children, cfg)
	}
}

// packChildren wraps same-height children into one node, or splits them
// evenly into two when they exceed the branch fanout. Inputs never exceed
// twice the fanout, so two nodes always suffice.
func packChildren(children []*Node, cfg *config) []*Node {
	if len(children) <= cfg.branchFanout {
		return []*Node{newInternalNode(children)}
	}
	mid := (len(children) + 1) / 2
	return []*Node{
		newInternalNode(children[:mid:mid]),
		newInternalNode(children[mid:]),
	}
}

// joinLeaves merges two leaf nodes, compacting undersized boundary chunks
// so repeated small edits do not accumulate fragment chunks.
func joinLeaves(left, right *Node, cfg *config) []*Node {
	chunks := make([]Chunk, 0, len(left.chunks)+len(right.chunks))
	chunks = append(chunks, left.chunks...)
	chunks = append(chunks, right.chunks...)
	chunks = compactChunks(chunks, cfg)

	if len(chunks) <= cfg.leafFanout {
		return []*Node{newLeafNodeWithChunks(chunks)}
	}
	mid := (len(chunks) + 1) / 2
	return []*Node{
		newLeafNodeWithChunks(chunks[:mid:mid]),
		newLeafNodeWithChunks(chunks[mid:]),
	}
}

// compactChunks merges adjacent chunks when one side is undersized and the
// combined text still fits a single chunk.
func compactChunks(chunks []Chunk, cfg *config) []Chunk {
	if len(chunks) < 2 {
		return chunks
	}

	out := chunks[:0]
	current := chunks[0]
	for _, next := range chunks[1:] {
		undersized := current.Len() < cfg.minChunk || next.Len() < cfg.minChunk
		if undersized && current.Len()+next.Len() <= cfg.maxChunk {
			merged := current.Append(next, cfg)
			// Append may only return a single chunk here since the
			// combined length fits maxChunk.
			current = merged[0]
			continue
		}
		out = append(out, current)
		current = next
	}
	return append(out, current)
}

// findChildByOffset returns the index of the child containing the given
// byte offset plus the offset translated into that child.
func (n *Node) findChildByOffset(offset ByteOffset) (int, ByteOffset) {
	if n.IsLeaf() {
		return -1, 0
	}

	at := ByteOffset(0)
	for i, summary := range n.childSummaries {
		if at+summary.Bytes > offset {
			return i, offset - at
		}
		at += summary.Bytes
	}

	// Offset is at or past the end; land in the last child.
	last := len(n.children) - 1
	return last, offset - (n.summary.Bytes - n.childSummaries[last].Bytes)
}

