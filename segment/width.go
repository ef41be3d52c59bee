package segment

import (
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/dshills/textrope/rope"
)

// DefaultTabWidth is used when a caller passes a non-positive tab width.
const DefaultTabWidth = 4

// VisualColumn converts a byte-column Point into a visual column: the
// screen cell where the pointed-at character starts, with tabs expanded to
// fixed stops and wide/combining characters measured by display width.
func VisualColumn(r rope.Rope, p rope.Point, tabWidth int) (int, error) {
	start, ok := r.LineToOffset(p.Line)
	if !ok {
		return 0, rope.ErrLineOutOfRange
	}

	end := start + rope.ByteOffset(p.Column)
	if lineEnd := r.LineEndOffset(p.Line); end > lineEnd {
		end = lineEnd
	}

	prefix, err := r.Slice(start, end)
	if err != nil {
		return 0, err
	}
	return expandedWidth(prefix, tabWidth), nil
}

// LineWidth returns the visual width of a line with tab expansion.
// The second result is false if the line index is past the document.
func LineWidth(r rope.Rope, line uint32, tabWidth int) (int, bool) {
	text, ok := r.Line(line)
	if !ok {
		return 0, false
	}
	return expandedWidth(text, tabWidth), true
}

// StringWidth returns the display width of a flat string, without tab
// expansion. Thin wrapper so callers need not import runewidth directly.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// NextTabStop returns the visual column of the tab stop after col.
func NextTabStop(col, tabWidth int) int {
	if tabWidth < 1 {
		tabWidth = DefaultTabWidth
	}
	return col + tabWidth - col%tabWidth
}

// expandedWidth walks a line's grapheme clusters accumulating display
// width, expanding tabs at fixed stops.
func expandedWidth(s string, tabWidth int) int {
	if tabWidth < 1 {
		tabWidth = DefaultTabWidth
	}

	col := 0
	state := -1
	for len(s) > 0 {
		cluster, rest, _, newState := uniseg.FirstGraphemeClusterInString(s, state)
		if cluster == "\t" {
			col = NextTabStop(col, tabWidth)
		} else {
			col += runewidth.StringWidth(cluster)
		}
		s = rest
		state = newState
	}
	return col
}
