// Package segment layers Unicode segmentation and display-width helpers on
// top of the rope core.
//
// The rope itself deals exclusively in bytes: offsets are byte indices and
// Point columns are byte columns. Anything user-facing, such as moving a
// caret by one "character" or aligning a column on screen, needs grapheme
// clusters and visual widths, and that logic deliberately lives here
// rather than in the rope, where it would tax every byte-level operation.
//
// Grapheme segmentation follows Unicode UAX #29 via github.com/rivo/uniseg;
// display widths (wide CJK, combining marks, emoji) come from
// github.com/mattn/go-runewidth. Tab expansion uses fixed tab stops in the
// editor convention: a tab advances to the next multiple of the tab width.
package segment
