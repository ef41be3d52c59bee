package rope

import (
	"io"
	"strings"
	"unicode/utf8"
)

// Builder provides efficient incremental construction of a rope. It
// buffers writes, carves them into chunks as they accumulate, and builds
// the tree once when Build is called.
//
// Input is validated as it arrives: writes may split a multi-byte
// codepoint anywhere (reads from a file or socket usually do), so
// validation carries incomplete tail bytes across writes instead of
// rejecting them at the write boundary.
type Builder struct {
	cfg      *config
	chunks   []Chunk
	buffer   []byte // pending bytes; may end mid-codepoint
	totalLen int
	err      error
}

// NewBuilder creates a rope builder.
func NewBuilder(opts ...Option) *Builder {
	return &Builder{
		cfg:    newConfig(opts),
		chunks: make([]Chunk, 0, 64),
	}
}

// WriteString appends a string to the builder.
func (b *Builder) WriteString(s string) {
	if len(s) == 0 || b.err != nil {
		return
	}
	b.totalLen += len(s)
	b.buffer = append(b.buffer, s...)
	if len(b.buffer) >= b.cfg.maxChunk*2 {
		b.flush()
	}
}

// Write implements io.Writer.
func (b *Builder) Write(p []byte) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	b.totalLen += len(p)
	b.buffer = append(b.buffer, p...)
	if len(b.buffer) >= b.cfg.maxChunk*2 {
		b.flush()
	}
	if b.err != nil {
		return len(p), b.err
	}
	return len(p), nil
}

// WriteByte appends a single byte.
func (b *Builder) WriteByte(c byte) error {
	if b.err != nil {
		return b.err
	}
	b.totalLen++
	b.buffer = append(b.buffer, c)
	if len(b.buffer) >= b.cfg.maxChunk*2 {
		b.flush()
	}
	return nil
}

// WriteRune appends a single rune.
func (b *Builder) WriteRune(r rune) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	n := utf8.RuneLen(r)
	if n < 0 {
		b.err = ErrInvalidUTF8
		return 0, b.err
	}
	b.buffer = utf8.AppendRune(b.buffer, r)
	b.totalLen += n
	return n, nil
}

// flush carves the buffered bytes into chunks, holding back any trailing
// incomplete codepoint for the next write.
func (b *Builder) flush() {
	complete := completePrefix(b.buffer)
	if complete == 0 {
		return
	}

	s := string(b.buffer[:complete])
	if !utf8.ValidString(s) {
		b.err = ErrInvalidUTF8
		return
	}

	b.chunks = append(b.chunks, splitChunks(s, b.cfg)...)
	b.buffer = append(b.buffer[:0], b.buffer[complete:]...)
}

// completePrefix returns the length of the longest prefix of p that does
// not end inside a multi-byte codepoint. At most 3 bytes are held back.
func completePrefix(p []byte) int {
	if len(p) == 0 {
		return 0
	}

	// Find the start byte of the final codepoint within the last 4 bytes.
	start := len(p) - 1
	lowest := len(p) - utf8MaxBytes
	if lowest < 0 {
		lowest = 0
	}
	for start > lowest && !isUTF8Start(p[start]) {
		start--
	}

	first := p[start]
	var need int
	switch {
	case first < 0x80:
		need = 1
	case first&0xE0 == 0xC0:
		need = 2
	case first&0xF0 == 0xE0:
		need = 3
	case first&0xF8 == 0xF0:
		need = 4
	default:
		// Continuation or invalid start byte; nothing to hold back, let
		// validation reject it.
		return len(p)
	}

	if start+need > len(p) {
		return start
	}
	return len(p)
}

// Len returns the total number of bytes written.
func (b *Builder) Len() int {
	return b.totalLen
}

// Reset clears the builder for reuse, keeping its configuration.
func (b *Builder) Reset() {
	b.chunks = b.chunks[:0]
	b.buffer = b.buffer[:0]
	b.totalLen = 0
	b.err = nil
}

// Build creates the rope from the accumulated data and resets the builder.
// Returns ErrInvalidUTF8 if any write carried invalid UTF-8, including a
// final truncated codepoint.
func (b *Builder) Build() (Rope, error) {
	if b.err == nil && len(b.buffer) > 0 {
		s := string(b.buffer)
		if !utf8.ValidString(s) {
			b.err = ErrInvalidUTF8
		} else {
			b.chunks = append(b.chunks, splitChunks(s, b.cfg)...)
			b.buffer = b.buffer[:0]
		}
	}

	if b.err != nil {
		err := b.err
		b.Reset()
		return Rope{}, err
	}

	chunks := b.chunks
	cfg := b.cfg
	b.chunks = nil
	b.Reset()

	return buildFromChunks(chunks, cfg), nil
}

// String returns the accumulated text so far. Primarily for debugging;
// prefer Build for creating ropes.
func (b *Builder) String() string {
	var sb strings.Builder
	sb.Grow(b.totalLen)
	for _, chunk := range b.chunks {
		sb.WriteString(chunk.String())
	}
	sb.Write(b.buffer)
	return sb.String()
}

// ReadFrom implements io.ReaderFrom.
func (b *Builder) ReadFrom(r io.Reader) (int64, error) {
	buf := getReadBuf()
	defer putReadBuf(buf)

	var total int64
	for {
		n, err := r.Read(*buf)
		if n > 0 {
			if _, werr := b.Write((*buf)[:n]); werr != nil {
				return total, werr
			}
			total += int64(n)
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// FromReader creates a rope by consuming a reader. The stream must be
// valid UTF-8; codepoints may straddle read boundaries.
func FromReader(r io.Reader, opts ...Option) (Rope, error) {
	b := NewBuilder(opts...)
	if _, err := b.ReadFrom(r); err != nil {
		return Rope{}, err
	}
	return b.Build()
}

// FromLines creates a rope from a slice of lines, joining them with
// newlines (none after the last).
func FromLines(lines []string, opts ...Option) (Rope, error) {
	if len(lines) == 0 {
		return New(opts...), nil
	}

	b := NewBuilder(opts...)
	for i, line := range lines {
		b.WriteString(line)
		if i < len(lines)-1 {
			b.WriteByte('\n')
		}
	}
	return b.Build()
}

// Join concatenates multiple ropes with a separator.
func Join(ropes []Rope, sep string) (Rope, error) {
	if !utf8.ValidString(sep) {
		return Rope{}, ErrInvalidUTF8
	}
	if len(ropes) == 0 {
		return New(), nil
	}

	result := ropes[0]
	sepRope := fromValidString(sep, result.config())
	for _, r := range ropes[1:] {
		if len(sep) > 0 {
			result = result.Concat(sepRope)
		}
		result = result.Concat(r)
	}
	return result, nil
}

// Repeat creates a rope by repeating a string n times.
func Repeat(s string, n int, opts ...Option) (Rope, error) {
	if !utf8.ValidString(s) {
		return Rope{}, ErrInvalidUTF8
	}
	if n <= 0 || len(s) == 0 {
		return New(opts...), nil
	}

	cfg := newConfig(opts)
	if len(s)*n <= cfg.maxChunk*4 {
		return buildFromChunks(splitChunks(strings.Repeat(s, n), cfg), cfg), nil
	}

	b := NewBuilder(opts...)
	for i := 0; i < n; i++ {
		b.WriteString(s)
	}
	return b.Build()
}
