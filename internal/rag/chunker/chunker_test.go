package chunker

import (
	"strings"
	"testing"
)

func TestChunk_CoversTextInOrder(t *testing.T) {
	text := strings.Repeat("abcdefghij", 30) // 300 chars, no whitespace trimming effects
	window := 100
	overlap := 20

	chunks := Chunk(text, window, overlap)

	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > window {
			t.Errorf("chunk %d longer than window: %d", i, len(c))
		}
	}
	// consecutive chunks share the overlap region
	for i := 1; i < len(chunks); i++ {
		tail := chunks[i-1][len(chunks[i-1])-overlap:]
		if !strings.HasPrefix(chunks[i], tail) {
			t.Errorf("chunk %d does not continue the overlap of chunk %d", i, i-1)
		}
	}
}

func TestChunk_EmptyInput(t *testing.T) {
	if got := Chunk("", 100, 10); got != nil {
		t.Errorf("empty input should produce no chunks, got %v", got)
	}
	if got := Chunk("   \n\n  ", 100, 10); got != nil {
		t.Errorf("blank input should produce no chunks, got %v", got)
	}
}

func TestChunk_WindowNotLargerThanOverlap(t *testing.T) {
	// window <= overlap must still advance and terminate
	text := strings.Repeat("x", 50)
	chunks := Chunk(text, 10, 10)
	if len(chunks) == 0 {
		t.Fatal("expected chunks despite degenerate overlap")
	}
	chunks = Chunk(text, 10, 25)
	if len(chunks) == 0 {
		t.Fatal("expected chunks despite overlap > window")
	}
}

func TestNormalize(t *testing.T) {
	// Only runs of two or more spaces/tabs collapse; a lone tab is kept,
	// it may be meaningful column separation in extracted tables.
	in := "a  b\tc\r\nline two   \n\n\n\n\nlast"
	want := "a b\tc\nline two\n\nlast"
	if got := normalize(in); got != want {
		t.Errorf("normalize mismatch:\ngot  %q\nwant %q", got, want)
	}
}

func TestNormalize_CollapsesMixedWhitespaceRuns(t *testing.T) {
	if got := normalize("a \t b"); got != "a b" {
		t.Errorf("normalize(%q) = %q, want %q", "a \t b", got, "a b")
	}
}

func TestLooksLikeTable(t *testing.T) {
	tests := []struct {
		name     string
		block    string
		expected bool
	}{
		{
			name: "numeric_rows",
			block: "Revenue 5,661 6,507\n" +
				"Gaming 2,760 3,061\n" +
				"Data Center 2,048 2,366\n" +
				"Auto 138 152\n" +
				"TOTAL 10,607 12,086",
			expected: true,
		},
		{
			name: "prose_no_digits",
			block: "The quick brown fox jumps over the lazy dog.\n" +
				"A second sentence of plain prose follows here.\n" +
				"Yet another line without any numbers at all.\n" +
				"And one more to get past the minimum line count.\n" +
				"Closing thoughts on the matter.",
			expected: false,
		},
		{
			name:     "too_few_lines",
			block:    "1 2\n3 4\n5 6",
			expected: false,
		},
		{
			name: "dollar_amounts",
			block: "Q1 $5,661 $1,200\n" +
				"Q2 $6,507 $1,310\n" +
				"Q3 $7,103 $1,454\n" +
				"Q4 $7,643 $1,567",
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := looksLikeTable(tt.block); got != tt.expected {
				t.Errorf("looksLikeTable = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCountNumericTokens(t *testing.T) {
	tests := []struct {
		line     string
		expected int
	}{
		{"Revenue 5,661 6,507", 2},
		{"$1,234.56 plain -42", 2},
		{"no numbers here", 0},
		{"v1.2.3 is not numeric", 0},
	}
	for _, tt := range tests {
		if got := countNumericTokens(tt.line); got != tt.expected {
			t.Errorf("countNumericTokens(%q) = %d, want %d", tt.line, got, tt.expected)
		}
	}
}

func TestSplitBlocks_TableSwallowsBlankLines(t *testing.T) {
	// Once a block has turned table-ish, blank lines stop ending it, so
	// the trailing prose after the rows stays merged into the same block.
	text := "Header prose paragraph.\n\n" +
		"Q1 5,661 1,200\n\nQ2 6,507 1,310\n\nQ3 7,103 1,454\n\nQ4 7,643 1,567\n\n" +
		"Trailing prose paragraph."
	blocks := splitBlocks(normalize(text))

	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks (prose, table), got %d: %q", len(blocks), blocks)
	}
	if !strings.Contains(blocks[1], "Q1") || !strings.Contains(blocks[1], "Q4") {
		t.Errorf("table block should contain all rows, got %q", blocks[1])
	}
	if !strings.Contains(blocks[1], "Trailing prose paragraph.") {
		t.Errorf("table block keeps merging past blank lines, got %q", blocks[1])
	}
}

func TestSmartChunk_Dedupes(t *testing.T) {
	text := "Repeated paragraph.\n\nUnique paragraph.\n\nRepeated paragraph."
	chunks := SmartChunk(text)

	seen := make(map[string]bool)
	for _, c := range chunks {
		if seen[c] {
			t.Errorf("duplicate chunk survived dedupe: %q", c)
		}
		seen[c] = true
	}
	if len(chunks) != 2 {
		t.Errorf("expected 2 unique chunks, got %d", len(chunks))
	}
}

func TestSmartChunk_EmptyInput(t *testing.T) {
	if got := SmartChunk(""); len(got) != 0 {
		t.Errorf("expected no chunks for empty input, got %v", got)
	}
}

func TestSmartChunk_LongProseIsWindowed(t *testing.T) {
	text := strings.Repeat("This is a sentence of reasonable length. ", 60)
	chunks := SmartChunk(text)

	if len(chunks) < 2 {
		t.Fatalf("expected long prose to be split, got %d chunk(s)", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > proseMaxChars {
			t.Errorf("chunk %d exceeds prose cap: %d chars", i, len(c))
		}
	}
}

func TestChunkByLines_Overlap(t *testing.T) {
	var lines []string
	for i := 0; i < 120; i++ {
		lines = append(lines, strings.Repeat("row", 3))
	}
	text := strings.Join(lines, "\n")

	chunks := chunkByLines(text, 50, 6)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 line windows over 120 rows, got %d", len(chunks))
	}
}
