package rope

import (
	"fmt"
	"unicode/utf8"
)

// ByteOffset represents an absolute byte position in the rope.
type ByteOffset uint64

// Point represents a line/column position.
// Line and Column are both 0-indexed; Column is a byte offset within the
// line, not a character count or visual column.
type Point struct {
	Line   uint32
	Column uint32
}

// String returns a human-readable representation of the point.
func (p Point) String() string {
	return fmt.Sprintf("(%d:%d)", p.Line, p.Column)
}

// Compare returns -1 if p < other, 0 if p == other, 1 if p > other.
func (p Point) Compare(other Point) int {
	if p.Line != other.Line {
		if p.Line < other.Line {
			return -1
		}
		return 1
	}
	if p.Column != other.Column {
		if p.Column < other.Column {
			return -1
		}
		return 1
	}
	return 0
}

// Before returns true if p comes before other.
func (p Point) Before(other Point) bool {
	return p.Compare(other) < 0
}

// After returns true if p comes after other.
func (p Point) After(other Point) bool {
	return p.Compare(other) > 0
}

// IsZero returns true if this is the zero point (0:0).
func (p Point) IsZero() bool {
	return p.Line == 0 && p.Column == 0
}

// PointUTF16 represents a line/column position where the column is measured
// in UTF-16 code units. Language-server positions use this encoding.
type PointUTF16 struct {
	Line   uint32
	Column uint32
}

// String returns a human-readable representation of the point.
func (p PointUTF16) String() string {
	return fmt.Sprintf("(%d:%d utf16)", p.Line, p.Column)
}

// Compare returns -1 if p < other, 0 if p == other, 1 if p > other.
func (p PointUTF16) Compare(other PointUTF16) int {
	if p.Line != other.Line {
		if p.Line < other.Line {
			return -1
		}
		return 1
	}
	if p.Column != other.Column {
		if p.Column < other.Column {
			return -1
		}
		return 1
	}
	return 0
}

// Before returns true if p comes before other.
func (p PointUTF16) Before(other PointUTF16) bool {
	return p.Compare(other) < 0
}

// TextFlags indicate text properties used for optimization fast paths.
type TextFlags uint8

const (
	// FlagASCII indicates all bytes are ASCII (< 128).
	FlagASCII TextFlags = 1 << iota

	// FlagHasNewlines indicates the text contains newline characters.
	FlagHasNewlines

	// FlagHasTabs indicates the text contains tab characters.
	FlagHasTabs
)

// TextSummary holds aggregated metrics for a text span. Summaries form a
// monoid under Add; every branch node caches the sum of its children.
type TextSummary struct {
	// Bytes is the UTF-8 byte count.
	Bytes ByteOffset

	// UTF16Units is the UTF-16 code unit count (for LSP positions).
	UTF16Units uint64

	// Lines is the number of newline characters.
	Lines uint32

	// FirstLineLen is the byte length of the first line (excluding newline).
	FirstLineLen uint32

	// LastLineLen is the byte length of the last line (excluding newline).
	LastLineLen uint32

	// Flags indicate text properties for fast paths.
	Flags TextFlags
}

// Zero returns the identity element for the summary monoid.
func (TextSummary) Zero() TextSummary {
	return TextSummary{Flags: FlagASCII}
}

// IsZero returns true if this is the zero/identity summary.
func (s TextSummary) IsZero() bool {
	return s.Bytes == 0
}

// Add combines two adjacent summaries (monoid operation).
func (s TextSummary) Add(other TextSummary) TextSummary {
	if s.Bytes == 0 {
		return other
	}
	if other.Bytes == 0 {
		return s
	}

	result := TextSummary{
		Bytes:      s.Bytes + other.Bytes,
		UTF16Units: s.UTF16Units + other.UTF16Units,
		Lines:      s.Lines + other.Lines,
	}

	if other.Lines > 0 {
		result.FirstLineLen = s.FirstLineLen
		result.LastLineLen = other.LastLineLen
	} else {
		// other extends the last line of s
		combined := s.LastLineLen + other.LastLineLen
		if s.Lines == 0 {
			result.FirstLineLen = combined
		} else {
			result.FirstLineLen = s.FirstLineLen
		}
		result.LastLineLen = combined
	}

	// ASCII survives only if both sides are ASCII; the other flags are sticky.
	if s.Flags&FlagASCII != 0 && other.Flags&FlagASCII != 0 {
		result.Flags |= FlagASCII
	}
	result.Flags |= (s.Flags | other.Flags) & (FlagHasNewlines | FlagHasTabs)

	return result
}

// IsASCII returns true if the summarized text is all ASCII.
func (s TextSummary) IsASCII() bool {
	return s.Flags&FlagASCII != 0
}

// ComputeSummary calculates metrics for a string.
func ComputeSummary(s string) TextSummary {
	if len(s) == 0 {
		return TextSummary{Flags: FlagASCII}
	}

	sum := TextSummary{
		Bytes: ByteOffset(len(s)),
		Flags: FlagASCII,
	}

	var lineLen uint32
	for _, r := range s {
		if r <= 0xFFFF {
			sum.UTF16Units++
		} else {
			sum.UTF16Units += 2 // surrogate pair
		}

		if r > 127 {
			sum.Flags &^= FlagASCII
		}

		switch r {
		case '\n':
			sum.Lines++
			if sum.Lines == 1 {
				sum.FirstLineLen = lineLen
			}
			lineLen = 0
			sum.Flags |= FlagHasNewlines
		case '\t':
			sum.Flags |= FlagHasTabs
			lineLen++
		default:
			lineLen += uint32(utf8.RuneLen(r))
		}
	}

	sum.LastLineLen = lineLen
	if sum.Lines == 0 {
		sum.FirstLineLen = lineLen
	}

	return sum
}

// CountLines returns the number of newlines in a string.
func CountLines(s string) uint32 {
	var count uint32
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			count++
		}
	}
	return count
}


// utf16Length returns the UTF-16 code unit count of a string.
func utf16Length(s string) uint64 {
	var units uint64
	for _, r := range s {
		if r <= 0xFFFF {
			units++
		} else {
			units += 2
		}
	}
	return units
}
