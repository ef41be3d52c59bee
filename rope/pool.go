package rope

import "sync"

// Scratch pooling keeps the hot extraction paths (Slice, line text, reader
// ingestion) from allocating a fresh buffer per call. Interactive editors
// issue these constantly while rendering, so the GC savings are real.

// scratchBuffer is a poolable append buffer. strings.Builder cannot be
// pooled (it forbids reuse after String), so a plain byte slice wrapper is
// used instead.
type scratchBuffer struct {
	buf []byte
}

// WriteString appends a string to the buffer.
func (b *scratchBuffer) WriteString(s string) {
	b.buf = append(b.buf, s...)
}

// Write appends bytes to the buffer.
func (b *scratchBuffer) Write(p []byte) {
	b.buf = append(b.buf, p...)
}

// String returns a copy of the accumulated bytes.
func (b *scratchBuffer) String() string {
	return string(b.buf)
}

// Len returns the current length.
func (b *scratchBuffer) Len() int {
	return len(b.buf)
}

// Reset clears the buffer, keeping capacity.
func (b *scratchBuffer) Reset() {
	b.buf = b.buf[:0]
}

// maxPooledScratch bounds the capacity retained by the pool so one huge
// slice request does not pin a large buffer forever.
const maxPooledScratch = 64 * 1024

var scratchPool = sync.Pool{
	New: func() any {
		return &scratchBuffer{}
	},
}

// getScratch retrieves a scratch buffer with at least the given capacity.
func getScratch(capacity int) *scratchBuffer {
	b := scratchPool.Get().(*scratchBuffer)
	if cap(b.buf) < capacity {
		b.buf = make([]byte, 0, capacity)
	} else {
		b.buf = b.buf[:0]
	}
	return b
}

// putScratch returns a scratch buffer to the pool.
func putScratch(b *scratchBuffer) {
	if b == nil || cap(b.buf) > maxPooledScratch {
		return
	}
	b.Reset()
	scratchPool.Put(b)
}

// readBufSize is the transfer buffer size used when ingesting readers.
const readBufSize = 64 * 1024

var readBufPool = sync.Pool{
	New: func() any {
		b := make([]byte, readBufSize)
		return &b
	},
}

// getReadBuf retrieves a reader transfer buffer.
func getReadBuf() *[]byte {
	return readBufPool.Get().(*[]byte)
}

// putReadBuf returns a reader transfer buffer to the pool.
func putReadBuf(b *[]byte) {
	if b != nil {
		readBufPool.Put(b)
	}
}
