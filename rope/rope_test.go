package rope

import (
	"errors"
	"math/bits"
	"strings"
	"testing"
	"testing/quick"
)

func mustFromString(t *testing.T, s string, opts ...Option) Rope {
	t.Helper()
	r, err := FromString(s, opts...)
	if err != nil {
		t.Fatalf("FromString(%q) failed: %v", s, err)
	}
	return r
}

func TestNew(t *testing.T) {
	r := New()
	if r.Len() != 0 {
		t.Errorf("new rope should have length 0, got %d", r.Len())
	}
	if !r.IsEmpty() {
		t.Error("new rope should be empty")
	}
	if r.String() != "" {
		t.Errorf("new rope String() should be empty, got %q", r.String())
	}
	if r.LineCount() != 1 {
		t.Errorf("new rope should have 1 line, got %d", r.LineCount())
	}
}

func TestFromString(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"single char", "a"},
		{"short string", "hello"},
		{"with newline", "hello\nworld"},
		{"multiple newlines", "a\nb\nc\nd"},
		{"unicode", "hello 世界 🌍"},
		{"long string", strings.Repeat("abcdefghij", 100)},
		{"very long string", strings.Repeat("x", 10000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mustFromString(t, tt.input)
			if r.String() != tt.input {
				t.Errorf("String() = %q, want %q", r.String(), tt.input)
			}
			if r.Len() != ByteOffset(len(tt.input)) {
				t.Errorf("Len() = %d, want %d", r.Len(), len(tt.input))
			}
		})
	}
}

func TestFromStringInvalidUTF8(t *testing.T) {
	inputs := []string{"\xff", "a\x80b", "tr\xc3", "\xed\xa0\x80"}
	for _, input := range inputs {
		if _, err := FromString(input); !errors.Is(err, ErrInvalidUTF8) {
			t.Errorf("FromString(%q) error = %v, want ErrInvalidUTF8", input, err)
		}
	}
}

func TestInsert(t *testing.T) {
	tests := []struct {
		name     string
		initial  string
		offset   ByteOffset
		text     string
		expected string
	}{
		{"insert comma", "hello world", 5, ",", "hello, world"},
		{"insert at start", "world", 0, "hello ", "hello world"},
		{"insert at end", "hello", 5, " world", "hello world"},
		{"insert in middle", "helloworld", 5, " ", "hello world"},
		{"insert into empty", "", 0, "hello", "hello"},
		{"insert empty string", "hello", 3, "", "hello"},
		{"insert unicode", "hello", 5, " 世界", "hello 世界"},
		{"insert at unicode boundary", "世界", 3, "!", "世!界"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mustFromString(t, tt.initial)
			r, err := r.Insert(tt.offset, tt.text)
			if err != nil {
				t.Fatalf("Insert failed: %v", err)
			}
			if got := r.String(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestInsertErrors(t *testing.T) {
	tests := []struct {
		name    string
		initial string
		offset  ByteOffset
		text    string
		wantErr error
	}{
		{"offset past end", "hello", 6, "x", ErrOffsetOutOfRange},
		{"inside two-byte rune", "héllo", 2, "!", ErrInvalidBoundary},
		{"inside three-byte rune", "日本語", 1, "x", ErrInvalidBoundary},
		{"invalid utf8 text", "hello", 0, "\xff", ErrInvalidUTF8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mustFromString(t, tt.initial)
			got, err := r.Insert(tt.offset, tt.text)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if got.String() != tt.initial {
				t.Errorf("rope changed on failed insert: %q", got.String())
			}
		})
	}
}

func TestInsertAtUTF8Boundary(t *testing.T) {
	r := mustFromString(t, "héllo")

	if _, err := r.Insert(2, "!"); !errors.Is(err, ErrInvalidBoundary) {
		t.Fatalf("Insert(2) error = %v, want ErrInvalidBoundary", err)
	}

	r2, err := r.Insert(3, "!")
	if err != nil {
		t.Fatalf("Insert(3) failed: %v", err)
	}
	if got := r2.String(); got != "hé!llo" {
		t.Errorf("got %q, want %q", got, "hé!llo")
	}
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name     string
		initial  string
		start    ByteOffset
		end      ByteOffset
		expected string
	}{
		{"delete suffix", "hello world", 5, 11, "hello"},
		{"delete prefix", "hello world", 0, 6, "world"},
		{"delete middle", "hello world", 5, 6, "helloworld"},
		{"delete all", "hello", 0, 5, ""},
		{"delete nothing", "hello", 3, 3, "hello"},
		{"end clamped", "hello", 2, 100, "he"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mustFromString(t, tt.initial)
			r, err := r.Delete(tt.start, tt.end)
			if err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if got := r.String(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDeleteErrors(t *testing.T) {
	tests := []struct {
		name    string
		initial string
		start   ByteOffset
		end     ByteOffset
		wantErr error
	}{
		{"start past end", "hello", 6, 8, ErrOffsetOutOfRange},
		{"end before start", "hello", 3, 2, ErrInvalidRange},
		{"start mid-codepoint", "héllo", 2, 4, ErrInvalidBoundary},
		{"end mid-codepoint", "héllo", 0, 2, ErrInvalidBoundary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mustFromString(t, tt.initial)
			got, err := r.Delete(tt.start, tt.end)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if got.String() != tt.initial {
				t.Errorf("rope changed on failed delete: %q", got.String())
			}
		})
	}
}

func TestReplace(t *testing.T) {
	tests := []struct {
		name     string
		initial  string
		start    ByteOffset
		end      ByteOffset
		text     string
		expected string
	}{
		{"replace word", "hello world", 6, 11, "universe", "hello universe"},
		{"replace with shorter", "hello world", 0, 5, "hi", "hi world"},
		{"replace with longer", "hi world", 0, 2, "hello", "hello world"},
		{"replace all", "hello", 0, 5, "world", "world"},
		{"empty range is insert", "hello", 5, 5, " world", "hello world"},
		{"empty text is delete", "hello world", 5, 11, "", "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mustFromString(t, tt.initial)
			r, err := r.Replace(tt.start, tt.end, tt.text)
			if err != nil {
				t.Fatalf("Replace failed: %v", err)
			}
			if got := r.String(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSlice(t *testing.T) {
	text := "hello world"
	r := mustFromString(t, text)

	tests := []struct {
		name     string
		start    ByteOffset
		end      ByteOffset
		expected string
	}{
		{"full slice", 0, 11, "hello world"},
		{"first word", 0, 5, "hello"},
		{"second word", 6, 11, "world"},
		{"middle", 3, 8, "lo wo"},
		{"empty range", 5, 5, ""},
		{"end clamped", 6, 100, "world"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Slice(tt.start, tt.end)
			if err != nil {
				t.Fatalf("Slice failed: %v", err)
			}
			if got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSliceTotality(t *testing.T) {
	texts := []string{
		"",
		"hello",
		"hello\nworld\n",
		strings.Repeat("line with some text\n", 500),
		strings.Repeat("日本語テキスト\n", 300),
	}
	for _, text := range texts {
		r := mustFromString(t, text)
		got, err := r.Slice(0, r.Len())
		if err != nil {
			t.Fatalf("Slice(0, len) failed: %v", err)
		}
		if got != text {
			t.Errorf("Slice(0, len) != String() for %d-byte text", len(text))
		}
	}
}

func TestSliceBoundaryError(t *testing.T) {
	r := mustFromString(t, "héllo")
	if _, err := r.Slice(0, 2); !errors.Is(err, ErrInvalidBoundary) {
		t.Errorf("Slice ending mid-codepoint: error = %v, want ErrInvalidBoundary", err)
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		offset        ByteOffset
		expectedLeft  string
		expectedRight string
	}{
		{"split at start", "hello", 0, "", "hello"},
		{"split at end", "hello", 5, "hello", ""},
		{"split in middle", "hello", 3, "hel", "lo"},
		{"split empty", "", 0, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mustFromString(t, tt.input)
			left, right := r.Split(tt.offset)
			if left.String() != tt.expectedLeft {
				t.Errorf("left = %q, want %q", left.String(), tt.expectedLeft)
			}
			if right.String() != tt.expectedRight {
				t.Errorf("right = %q, want %q", right.String(), tt.expectedRight)
			}
		})
	}
}

func TestConcat(t *testing.T) {
	tests := []struct {
		name  string
		left  string
		right string
	}{
		{"two words", "hello ", "world"},
		{"empty left", "", "hello"},
		{"empty right", "hello", ""},
		{"both empty", "", ""},
		{"long strings", strings.Repeat("a", 1000), strings.Repeat("b", 1000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			left := mustFromString(t, tt.left)
			right := mustFromString(t, tt.right)
			result := left.Concat(right)
			if got, want := result.String(), tt.left+tt.right; got != want {
				t.Errorf("got %q, want %q", got, want)
			}
		})
	}
}

func TestLineCount(t *testing.T) {
	tests := []struct {
		input string
		want  uint32
	}{
		{"", 1},
		{"hello", 1},
		{"a\nb\nc", 3},
		{"a\nb\nc\n", 4},
		{"\n\n\n", 4},
	}

	for _, tt := range tests {
		r := mustFromString(t, tt.input)
		if got := r.LineCount(); got != tt.want {
			t.Errorf("LineCount(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestLine(t *testing.T) {
	r := mustFromString(t, "a\nb\nc")

	tests := []struct {
		line uint32
		want string
		ok   bool
	}{
		{0, "a", true},
		{1, "b", true},
		{2, "c", true},
		{3, "", false},
	}

	for _, tt := range tests {
		got, ok := r.Line(tt.line)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Line(%d) = (%q, %v), want (%q, %v)", tt.line, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLineToOffset(t *testing.T) {
	r := mustFromString(t, "line1\nline2\nline3")

	tests := []struct {
		line uint32
		want ByteOffset
		ok   bool
	}{
		{0, 0, true},
		{1, 6, true},
		{2, 12, true},
		{3, 0, false},
	}

	for _, tt := range tests {
		got, ok := r.LineToOffset(tt.line)
		if ok != tt.ok || got != tt.want {
			t.Errorf("LineToOffset(%d) = (%d, %v), want (%d, %v)", tt.line, got, ok, tt.want, tt.ok)
		}
	}
}

func TestOffsetToPoint(t *testing.T) {
	r := mustFromString(t, "hello\nworld\nfoo")

	tests := []struct {
		offset ByteOffset
		want   Point
	}{
		{0, Point{0, 0}},
		{3, Point{0, 3}},
		{5, Point{0, 5}},
		{6, Point{1, 0}},
		{8, Point{1, 2}},
		{12, Point{2, 0}},
		{15, Point{2, 3}},
	}

	for _, tt := range tests {
		got, err := r.OffsetToPoint(tt.offset)
		if err != nil {
			t.Fatalf("OffsetToPoint(%d) failed: %v", tt.offset, err)
		}
		if got != tt.want {
			t.Errorf("OffsetToPoint(%d) = %v, want %v", tt.offset, got, tt.want)
		}
	}

	if _, err := r.OffsetToPoint(100); !errors.Is(err, ErrOffsetOutOfRange) {
		t.Errorf("OffsetToPoint(100) error = %v, want ErrOffsetOutOfRange", err)
	}
}

func TestPointOffsetInverse(t *testing.T) {
	texts := []string{
		"hello\nworld",
		strings.Repeat("some longer line of text here\n", 200),
		"日本語\nテキスト\n混in\n",
	}
	for _, text := range texts {
		r := mustFromString(t, text)
		for o := ByteOffset(0); o <= r.Len(); o++ {
			if b, ok := r.ByteAt(o); ok && !isUTF8Start(b) {
				continue
			}
			p, err := r.OffsetToPoint(o)
			if err != nil {
				t.Fatalf("OffsetToPoint(%d) failed: %v", o, err)
			}
			if back := r.PointToOffset(p); back != o {
				t.Fatalf("PointToOffset(OffsetToPoint(%d)) = %d (point %v)", o, back, p)
			}
		}
	}
}

func TestPointToOffsetClamped(t *testing.T) {
	r := mustFromString(t, "ab\ncd")

	tests := []struct {
		point Point
		want  ByteOffset
	}{
		{Point{0, 0}, 0},
		{Point{0, 99}, 2},  // clamped to line end
		{Point{1, 1}, 4},
		{Point{9, 0}, 5},   // clamped to document end
	}

	for _, tt := range tests {
		if got := r.PointToOffset(tt.point); got != tt.want {
			t.Errorf("PointToOffset(%v) = %d, want %d", tt.point, got, tt.want)
		}
	}
}

func TestUTF16Points(t *testing.T) {
	r := mustFromString(t, "a𐍈b\nhé")

	tests := []struct {
		offset ByteOffset
		want   PointUTF16
	}{
		{0, PointUTF16{0, 0}},
		{1, PointUTF16{0, 1}},  // after 'a'
		{5, PointUTF16{0, 3}},  // after the surrogate pair
		{6, PointUTF16{0, 4}},  // after 'b'
		{7, PointUTF16{1, 0}},
		{8, PointUTF16{1, 1}},
		{10, PointUTF16{1, 2}},
	}

	for _, tt := range tests {
		got, err := r.OffsetToPointUTF16(tt.offset)
		if err != nil {
			t.Fatalf("OffsetToPointUTF16(%d) failed: %v", tt.offset, err)
		}
		if got != tt.want {
			t.Errorf("OffsetToPointUTF16(%d) = %v, want %v", tt.offset, got, tt.want)
		}
		if back := r.PointUTF16ToOffset(got); back != tt.offset {
			t.Errorf("PointUTF16ToOffset(%v) = %d, want %d", got, back, tt.offset)
		}
	}
}

func TestInsertDeleteRoundTrip(t *testing.T) {
	base := strings.Repeat("the quick brown fox\n", 100)
	r := mustFromString(t, base)

	inserts := []struct {
		offset ByteOffset
		text   string
	}{
		{0, "prefix "},
		{500, "middle 文字 text"},
		{r.Len(), " suffix"},
	}

	for _, ins := range inserts {
		r2, err := r.Insert(ins.offset, ins.text)
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		r3, err := r2.Delete(ins.offset, ins.offset+ByteOffset(len(ins.text)))
		if err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if r3.String() != base {
			t.Errorf("round trip at %d did not restore original", ins.offset)
		}
	}
}

func TestStructuralSharing(t *testing.T) {
	original := mustFromString(t, strings.Repeat("snapshot line\n", 200))
	want := original.String()

	edited := original
	var err error
	for i := 0; i < 50; i++ {
		edited, err = edited.Insert(edited.Len()/2, "edit")
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	if original.String() != want {
		t.Error("earlier snapshot changed after edits to a derived rope")
	}
	if edited.Len() != original.Len()+ByteOffset(50*len("edit")) {
		t.Errorf("edited length = %d", edited.Len())
	}
}

func TestChunkSizeOption(t *testing.T) {
	text := strings.Repeat("abcdefgh", 64) // 512 bytes
	r := mustFromString(t, text, WithChunkSize(16, 32))

	if r.String() != text {
		t.Fatal("content mismatch with custom chunk size")
	}
	if r.ChunkCount() < 512/32 {
		t.Errorf("expected at least %d chunks, got %d", 512/32, r.ChunkCount())
	}

	// Geometry survives edits.
	r2, err := r.Insert(100, strings.Repeat("y", 100))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if got, want := r2.String(), text[:100]+strings.Repeat("y", 100)+text[100:]; got != want {
		t.Error("content mismatch after insert with custom chunk size")
	}
}

func TestHeightBoundedUnderAdversarialEdits(t *testing.T) {
	r := mustFromString(t, strings.Repeat("x", 10*DefaultMaxChunkSize))

	// Alternate single-character inserts at both ends: the pattern that
	// degenerates a rope without height rebalancing.
	var err error
	for i := 0; i < 2000; i++ {
		if i%2 == 0 {
			r, err = r.Insert(0, "a")
		} else {
			r, err = r.Insert(r.Len(), "b")
		}
		if err != nil {
			t.Fatalf("Insert %d failed: %v", i, err)
		}
	}

	chunks := r.ChunkCount()
	bound := 2*bits.Len(uint(chunks)) + 4
	if r.Height() > bound {
		t.Errorf("height %d exceeds O(log n) bound %d for %d chunks", r.Height(), bound, chunks)
	}

	if got := r.Len(); got != ByteOffset(10*DefaultMaxChunkSize+2000) {
		t.Errorf("length = %d after edits", got)
	}
}

func TestEquals(t *testing.T) {
	a := mustFromString(t, strings.Repeat("content\n", 100))
	b := mustFromString(t, strings.Repeat("content\n", 100), WithChunkSize(16, 32))
	if !a.Equals(b) {
		t.Error("ropes with same content but different structure should be equal")
	}

	c, err := b.Insert(0, "x")
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if a.Equals(c) {
		t.Error("ropes with different content should not be equal")
	}
}

func TestByteAt(t *testing.T) {
	r := mustFromString(t, "hello")
	if b, ok := r.ByteAt(1); !ok || b != 'e' {
		t.Errorf("ByteAt(1) = (%c, %v)", b, ok)
	}
	if _, ok := r.ByteAt(5); ok {
		t.Error("ByteAt(5) should be out of range")
	}
}

func TestQuickProperties(t *testing.T) {
	// Length invariant under insert at a clamped boundary offset.
	insertLen := func(base string, at uint16, ins string) bool {
		r, err := FromString(base)
		if err != nil {
			return true // only valid UTF-8 inputs are in scope
		}
		if _, err := FromString(ins); err != nil {
			return true
		}
		offset := ByteOffset(at) % (r.Len() + 1)
		for offset > 0 {
			if b, ok := r.ByteAt(offset); !ok || isUTF8Start(b) {
				break
			}
			offset--
		}
		r2, err := r.Insert(offset, ins)
		if err != nil {
			return false
		}
		return r2.Len() == r.Len()+ByteOffset(len(ins))
	}
	if err := quick.Check(insertLen, nil); err != nil {
		t.Error(err)
	}

	// Line count matches newline count + 1.
	lineCount := func(s string) bool {
		r, err := FromString(s)
		if err != nil {
			return true
		}
		return r.LineCount() == CountLines(s)+1
	}
	if err := quick.Check(lineCount, nil); err != nil {
		t.Error(err)
	}
}
