// Package rope provides an immutable rope data structure for efficient text
// storage and manipulation.
//
// A rope is a tree whose leaf nodes hold bounded text chunks and whose
// internal nodes cache aggregated metrics (byte count, newline count, etc.).
// This implementation uses a B+ tree variant for better cache locality and
// worst-case performance: the bounded fanout keeps tree height logarithmic in
// document size regardless of edit pattern.
//
// Key features:
//   - O(log n) insertion, deletion, and access operations
//   - Immutable operations return new ropes; originals are never modified
//   - Efficient line/column indexing via aggregated metrics
//   - Copy-on-write structural sharing makes snapshots O(1)
//   - Thread-safe for concurrent read access
//
// All offsets are byte indices into UTF-8 text, never code-point or UTF-16
// indices. Point columns are likewise byte offsets within their line.
// Positions that routinely originate outside the process (LSP responses,
// pasted text) are validated, never trusted: operations return an error for
// out-of-range offsets and for offsets that land inside a multi-byte
// codepoint, and construction rejects invalid UTF-8 outright.
//
// Basic usage:
//
//	r, _ := rope.FromString("hello world")
//	r, _ = r.Insert(5, ",")        // "hello, world"
//	r, _ = r.Delete(0, 6)          // " world" removed prefix
//	text := r.String()
//
// Because every operation returns a new Rope sharing unmodified subtrees
// with its predecessor, callers can keep earlier values around as cheap
// snapshots (for diff bases, undo layers, or concurrent readers) without
// copying the document.
package rope
