package diagnostic

import (
	"sort"
	"unicode/utf8"
)

// LineIndex provides efficient byte offset to line/column conversion.
// It pre-computes line start positions for O(log n) lookups.
type LineIndex struct {
	source     string
	lineStarts []int // byte offset of each line start
}

// NewLineIndex creates a LineIndex for the given source.
func NewLineIndex(source string) *LineIndex {
	idx := &LineIndex{
		source:     source,
		lineStarts: []int{0},
	}

	for i := 0; i < len(source); i++ {
		next := -1
		switch source[i] {
		case '\n':
			next = i + 1
		case '\r':
			// CRLF counts as one terminator
			if i+1 < len(source) && source[i+1] == '\n' {
				i++
			}
			next = i + 1
		}
		if next > 0 && next < len(source) {
			idx.lineStarts = append(idx.lineStarts, next)
		}
	}

	return idx
}

// LineCount returns the number of lines in the source.
func (idx *LineIndex) LineCount() int {
	return len(idx.lineStarts)
}

func (idx *LineIndex) clamp(offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > len(idx.source) {
		return len(idx.source)
	}
	return offset
}

func (idx *LineIndex) lineOf(offset int) int {
	line := sort.Search(len(idx.lineStarts), func(i int) bool {
		return idx.lineStarts[i] > offset
	}) - 1
	if line < 0 {
		return 0
	}
	return line
}

// ByteOffsetToLineColumn converts a byte offset to 0-indexed line and column.
// The column is in bytes.
func (idx *LineIndex) ByteOffsetToLineColumn(offset int) (line, col int) {
	offset = idx.clamp(offset)
	line = idx.lineOf(offset)
	return line, offset - idx.lineStarts[line]
}

// ByteOffsetToLineColumnUTF16 converts a byte offset to 0-indexed line and
// column, counting the column in UTF-16 code units like JavaScript tools do.
func (idx *LineIndex) ByteOffsetToLineColumnUTF16(offset int) (line, col int) {
	offset = idx.clamp(offset)
	line = idx.lineOf(offset)
	lineStart := idx.lineStarts[line]
	return line, utf16Column(idx.source[lineStart:], offset-lineStart)
}

// Line returns the text of a 0-indexed line without its terminator.
func (idx *LineIndex) Line(line int) string {
	if line < 0 || line >= len(idx.lineStarts) {
		return ""
	}
	start := idx.lineStarts[line]
	end := len(idx.source)
	if line+1 < len(idx.lineStarts) {
		end = idx.lineStarts[line+1]
	}
	text := idx.source[start:end]
	for len(text) > 0 && (text[len(text)-1] == '\n' || text[len(text)-1] == '\r') {
		text = text[:len(text)-1]
	}
	return text
}

func utf16Column(s string, byteOffset int) int {
	if byteOffset > len(s) {
		byteOffset = len(s)
	}
	col := 0
	for i := 0; i < byteOffset; {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r >= 0x10000 {
			// Surrogate pair
			col += 2
		} else {
			col++
		}
		i += size
	}
	return col
}
