package rope

// MaxInlineNewlines is the number of newline positions stored inline.
const MaxInlineNewlines = 4

// NewlineIndex caches the byte positions of newlines within one chunk,
// giving O(1) line lookups without rescanning chunk text per query.
//
// Most source-code chunks hold only a handful of newlines, so up to four
// positions live in an inline array with no allocation; denser chunks spill
// to a heap slice. Positions are uint16, which comfortably covers any
// configurable chunk size a leaf will actually hold.
type NewlineIndex struct {
	inline    [MaxInlineNewlines]uint16
	count     uint16
	positions []uint16 // allocated only when count > MaxInlineNewlines
}

// ComputeNewlineIndex scans a string and builds its newline index.
// Called once per chunk construction; queries never rescan the text.
func ComputeNewlineIndex(s string) NewlineIndex {
	var idx NewlineIndex

	count := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			count++
		}
	}
	if count == 0 {
		return idx
	}
	idx.count = uint16(count)

	if count > MaxInlineNewlines {
		idx.positions = make([]uint16, 0, count)
	}

	recorded := 0
	for i := 0; i < len(s) && recorded < count; i++ {
		if s[i] != '\n' {
			continue
		}
		pos := uint16(i)
		if recorded < MaxInlineNewlines {
			idx.inline[recorded] = pos
		}
		if count > MaxInlineNewlines {
			idx.positions = append(idx.positions, pos)
		}
		recorded++
	}

	return idx
}

// Count returns the number of newlines.
func (idx *NewlineIndex) Count() uint32 {
	return uint32(idx.count)
}

// Position returns the byte offset of the nth newline (0-indexed).
// Returns -1 if n is out of range.
func (idx *NewlineIndex) Position(n uint32) int {
	if n >= uint32(idx.count) {
		return -1
	}
	if idx.count <= MaxInlineNewlines {
		return int(idx.inline[n])
	}
	return int(idx.positions[n])
}

// FindNthNewline returns the byte position of the nth newline (1-indexed).
// Returns -1 if n is 0 or out of range.
func (idx *NewlineIndex) FindNthNewline(n uint32) int {
	if n == 0 || n > uint32(idx.count) {
		return -1
	}
	return idx.Position(n - 1)
}

// SearchLine returns the byte offset where line `line` starts within the
// chunk: 0 for line 0, the position after the line-th newline otherwise.
// Returns -1 if the chunk does not contain that many newlines.
func (idx *NewlineIndex) SearchLine(line uint32) int {
	if line == 0 {
		return 0
	}
	pos := idx.FindNthNewline(line)
	if pos < 0 {
		return -1
	}
	return pos + 1
}

// LastNewlinePosition returns the position of the last newline, or -1 if none.
func (idx *NewlineIndex) LastNewlinePosition() int {
	if idx.count == 0 {
		return -1
	}
	return idx.Position(uint32(idx.count) - 1)
}

// NewlineBefore returns the position of the last newline strictly before
// the given offset, or -1 if there is none.
func (idx *NewlineIndex) NewlineBefore(offset int) int {
	positions := idx.all()

	// Counts are small enough that linear scan usually beats binary search,
	// but dense chunks (e.g. blank-line runs) still get the log path.
	if len(positions) <= 8 {
		for i := len(positions) - 1; i >= 0; i-- {
			if int(positions[i]) < offset {
				return int(positions[i])
			}
		}
		return -1
	}

	lo, hi, result := 0, len(positions)-1, -1
	for lo <= hi {
		mid := (lo + hi) / 2
		if int(positions[mid]) < offset {
			result = int(positions[mid])
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return result
}

// NewlineAfter returns the position of the first newline at or after the
// given offset, or -1 if there is none.
func (idx *NewlineIndex) NewlineAfter(offset int) int {
	positions := idx.all()

	if len(positions) <= 8 {
		for _, pos := range positions {
			if int(pos) >= offset {
				return int(pos)
			}
		}
		return -1
	}

	lo, hi, result := 0, len(positions)-1, -1
	for lo <= hi {
		mid := (lo + hi) / 2
		if int(positions[mid]) >= offset {
			result = int(positions[mid])
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}
	return result
}

// all returns the positions as a slice regardless of storage mode.
func (idx *NewlineIndex) all() []uint16 {
	if idx.count == 0 {
		return nil
	}
	if idx.count <= MaxInlineNewlines {
		return idx.inline[:idx.count]
	}
	return idx.positions
}
