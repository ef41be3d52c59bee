package rope

// Chunk represents a bounded span of contiguous UTF-8 text stored in leaf
// nodes. Chunks are immutable once created; edits replace chunks rather
// than mutating them. Each chunk carries its summary metrics and newline
// index, both computed exactly once at construction.
type Chunk struct {
	data     string
	summary  TextSummary
	newlines NewlineIndex
}

// NewChunk creates a chunk from a string, computing metrics eagerly.
// The string must be valid UTF-8; callers validate at the rope boundary.
func NewChunk(s string) Chunk {
	return Chunk{
		data:     s,
		summary:  ComputeSummary(s),
		newlines: ComputeNewlineIndex(s),
	}
}

// String returns the chunk's text.
func (c Chunk) String() string {
	return c.data
}

// Summary returns the chunk's precomputed metrics.
func (c Chunk) Summary() TextSummary {
	return c.summary
}

// Newlines returns the chunk's newline index.
func (c Chunk) Newlines() *NewlineIndex {
	return &c.newlines
}

// Len returns the byte length of the chunk.
func (c Chunk) Len() int {
	return len(c.data)
}

// IsEmpty returns true if the chunk contains no text.
func (c Chunk) IsEmpty() bool {
	return len(c.data) == 0
}

// Split splits the chunk at the nearest UTF-8 boundary at or after offset.
// Both halves are valid, independently owned chunks; a split never lands
// inside a multi-byte codepoint.
func (c Chunk) Split(offset int) (Chunk, Chunk) {
	if offset <= 0 {
		return Chunk{}, c
	}
	if offset >= len(c.data) {
		return c, Chunk{}
	}

	for offset < len(c.data) && !isUTF8Start(c.data[offset]) {
		offset++
	}
	if offset >= len(c.data) {
		return c, Chunk{}
	}

	return NewChunk(c.data[:offset]), NewChunk(c.data[offset:])
}

// Append concatenates another chunk onto this one. The result is a single
// merged chunk when the combined size fits cfg.maxChunk, otherwise the
// combined text is re-carved into several bounded chunks.
func (c Chunk) Append(other Chunk, cfg *config) []Chunk {
	if c.IsEmpty() {
		if other.IsEmpty() {
			return nil
		}
		return []Chunk{other}
	}
	if other.IsEmpty() {
		return []Chunk{c}
	}

	combined := c.data + other.data
	if len(combined) <= cfg.maxChunk {
		return []Chunk{NewChunk(combined)}
	}
	return splitChunks(combined, cfg)
}

// splitChunks carves a string into chunks within the configured size
// bounds, splitting only at UTF-8 boundaries and preferring to break just
// after a newline so that lines tend not to straddle chunks.
func splitChunks(s string, cfg *config) []Chunk {
	if len(s) == 0 {
		return nil
	}
	if len(s) <= cfg.maxChunk {
		return []Chunk{NewChunk(s)}
	}

	var chunks []Chunk
	remaining := s
	for len(remaining) > 0 {
		if len(remaining) <= cfg.maxChunk {
			chunks = append(chunks, NewChunk(remaining))
			break
		}
		split := findSplitBoundary(remaining, cfg.targetChunk, cfg)
		chunks = append(chunks, NewChunk(remaining[:split]))
		remaining = remaining[split:]
	}
	return chunks
}

// findSplitBoundary picks a split position near target that is a valid
// UTF-8 boundary, steering toward a nearby newline when one exists.
func findSplitBoundary(s string, target int, cfg *config) int {
	if target >= len(s) {
		return len(s)
	}
	if target <= 0 {
		return 0
	}

	window := cfg.minChunk / 4
	searchStart := target - window
	if searchStart < 0 {
		searchStart = 0
	}
	searchEnd := target + window
	if searchEnd > len(s) {
		searchEnd = len(s)
	}

	for i := target; i < searchEnd; i++ {
		if s[i] == '\n' {
			return i + 1
		}
	}
	for i := target - 1; i >= searchStart; i-- {
		if s[i] == '\n' {
			return i + 1
		}
	}

	// No newline nearby; settle for the closest codepoint boundary.
	pos := target
	for pos < len(s) && !isUTF8Start(s[pos]) {
		pos++
	}
	if pos > target+utf8MaxBytes || pos >= len(s) {
		pos = target
		for pos > 0 && !isUTF8Start(s[pos]) {
			pos--
		}
	}
	return pos
}

// utf8MaxBytes is the maximum encoded length of a single codepoint.
const utf8MaxBytes = 4

// isUTF8Start reports whether b begins a UTF-8 sequence. Continuation
// bytes are 10xxxxxx; everything else starts a codepoint.
func isUTF8Start(b byte) bool {
	return b&0xC0 != 0x80
}
