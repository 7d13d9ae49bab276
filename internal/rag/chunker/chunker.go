package chunker

import (
	"regexp"
	"strings"
)

// Chunking tuned for text that comes out of PDF extraction: prose blocks are
// windowed by characters, table-like blocks by lines so row groups survive.

const (
	proseMaxChars     = 700
	proseOverlap      = 120
	tableMaxLines     = 50
	tableOverlapLines = 6
)

var (
	multiSpace   = regexp.MustCompile(`[ \t]{2,}`)
	manyNewlines = regexp.MustCompile(`\n{3,}`)
	numericToken = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
	hasDigit     = regexp.MustCompile(`\d`)
)

// Chunk is plain character-window chunking with overlap, no block or table
// awareness. Step is clamped so window <= overlap can never stall the loop.
func Chunk(text string, maxChars int, overlapChars int) []string {
	t := normalize(text)
	if t == "" {
		return nil
	}

	step := maxChars - overlapChars
	if step < 1 {
		step = 1
	}

	var out []string
	start := 0
	for start < len(t) {
		end := start + maxChars
		if end > len(t) {
			end = len(t)
		}
		piece := strings.TrimSpace(t[start:end])
		if piece != "" {
			out = append(out, piece)
		}
		if end == len(t) {
			break
		}
		start += step
	}
	return out
}

// SmartChunk is the default for ingested documents: split into blocks,
// detect tables, chunk each block accordingly, then trim and dedupe.
func SmartChunk(text string) []string {
	t := normalize(text)
	if t == "" {
		return nil
	}

	var out []string
	for _, block := range splitBlocks(t) {
		if strings.TrimSpace(block) == "" {
			continue
		}
		if looksLikeTable(block) {
			out = append(out, chunkByLines(block, tableMaxLines, tableOverlapLines)...)
		} else {
			out = append(out, chunkProse(block)...)
		}
	}

	var trimmed []string
	for _, c := range out {
		c = strings.TrimSpace(c)
		if c != "" {
			trimmed = append(trimmed, c)
		}
	}
	return dedupePreserveOrder(trimmed)
}

// normalize cleans common extraction noise while keeping newlines, which
// matter for table alignment.
func normalize(text string) string {
	if text == "" {
		return ""
	}
	t := strings.ReplaceAll(text, "\r", "")
	t = multiSpace.ReplaceAllString(t, " ")
	t = manyNewlines.ReplaceAllString(t, "\n\n")

	lines := strings.Split(t, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// splitBlocks splits on blank lines, except that once a block has turned
// table-ish, blank lines no longer end it. PDF table extraction tends to
// slip stray blank lines between rows.
func splitBlocks(t string) []string {
	var blocks []string
	var cur strings.Builder
	curIsTable := false

	flush := func() {
		b := strings.TrimSpace(cur.String())
		if b != "" {
			blocks = append(blocks, b)
		}
		cur.Reset()
		curIsTable = false
	}

	for _, raw := range strings.Split(t, "\n") {
		line := strings.TrimSpace(raw)
		blank := line == ""
		tableishLine := !blank && (countNumericTokens(line) >= 2 || (hasDigit.MatchString(line) && len(line) < 140))

		if cur.Len() == 0 {
			if !blank {
				cur.WriteString(line)
				curIsTable = tableishLine
			}
			continue
		}

		if blank {
			if !curIsTable {
				flush()
			}
			continue
		}

		cur.WriteString("\n")
		cur.WriteString(line)
		if tableishLine {
			curIsTable = true
		}
	}
	flush()

	return blocks
}

// looksLikeTable needs at least 4 non-blank lines and either several rows
// with multiple numeric tokens, or many digit-bearing short lines.
func looksLikeTable(block string) bool {
	var lines []string
	for _, l := range strings.Split(block, "\n") {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) < 4 {
		return false
	}

	numericRowLike := 0
	linesWithDigits := 0
	totalLen := 0
	for _, l := range lines {
		if countNumericTokens(l) >= 2 {
			numericRowLike++
		}
		if hasDigit.MatchString(l) {
			linesWithDigits++
		}
		totalLen += len(l)
	}

	if numericRowLike >= 3 {
		return true
	}

	avgLen := float64(totalLen) / float64(len(lines))
	return linesWithDigits >= 4 && avgLen < 120
}

// countNumericTokens counts whitespace-delimited tokens that are numbers
// after stripping commas and a leading dollar sign.
func countNumericTokens(line string) int {
	count := 0
	for _, p := range strings.Fields(line) {
		x := strings.ReplaceAll(p, ",", "")
		x = strings.TrimPrefix(x, "$")
		x = strings.TrimSpace(x)
		if x != "" && numericToken.MatchString(x) {
			count++
		}
	}
	return count
}

// chunkByLines windows over lines, keeping row groups intact.
func chunkByLines(text string, maxLines int, overlapLines int) []string {
	t := normalize(text)
	if t == "" {
		return nil
	}

	var lines []string
	for _, l := range strings.Split(t, "\n") {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return nil
	}

	if overlapLines < 0 {
		overlapLines = 0
	}
	step := maxLines - overlapLines
	if step < 1 {
		step = 1
	}

	var out []string
	start := 0
	for start < len(lines) {
		end := start + maxLines
		if end > len(lines) {
			end = len(lines)
		}
		chunk := strings.TrimSpace(strings.Join(lines[start:end], "\n"))
		if chunk != "" {
			out = append(out, chunk)
		}
		if end == len(lines) {
			break
		}
		start += step
	}
	return out
}

// chunkProse keeps small paragraphs whole and windows the rest by chars.
func chunkProse(block string) []string {
	if len(block) <= proseMaxChars {
		return []string{block}
	}
	return Chunk(block, proseMaxChars, proseOverlap)
}

func dedupePreserveOrder(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
