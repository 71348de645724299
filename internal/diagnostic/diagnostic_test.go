package diagnostic

import (
	"strings"
	"testing"

	"github.com/HugoDaniel/treeshaker/internal/test"
)

func TestLineIndex(t *testing.T) {
	tests := []struct {
		name   string
		source string
		offset int
		line   int
		col    int
	}{
		{"start", "abc\ndef", 0, 0, 0},
		{"second line", "abc\ndef", 5, 1, 1},
		{"crlf", "a\r\nb", 3, 1, 0},
		{"lone cr", "a\rb", 2, 1, 0},
		{"past end", "abc", 10, 0, 3},
		{"negative", "abc", -1, 0, 0},
		{"empty", "", 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, col := NewLineIndex(tt.source).ByteOffsetToLineColumn(tt.offset)
			test.AssertEqual(t, line, tt.line)
			test.AssertEqual(t, col, tt.col)
		})
	}
}

func TestLineIndexUTF16(t *testing.T) {
	// "é" is two bytes and one code unit, the emoji four bytes and two.
	source := "é😀x"
	_, col := NewLineIndex(source).ByteOffsetToLineColumnUTF16(len(source) - 1)
	test.AssertEqual(t, col, 3)
}

func TestLineText(t *testing.T) {
	idx := NewLineIndex("first\r\nsecond\nthird")
	test.AssertEqual(t, idx.LineCount(), 3)
	test.AssertEqual(t, idx.Line(0), "first")
	test.AssertEqual(t, idx.Line(1), "second")
	test.AssertEqual(t, idx.Line(2), "third")
	test.AssertEqual(t, idx.Line(3), "")
}

func TestListPositionsAndFormat(t *testing.T) {
	l := NewList(nil)
	l.AddSource("main.js", "const a = 1;\nthis.x = a;\n")
	l.Warn("main.js", CodeThisIsUndefined, "this is undefined", 13)
	l.Warn("", CodeEmptyBundle, "generated an empty bundle", 0)

	warnings := l.Warnings()
	test.AssertEqual(t, len(warnings), 2)
	test.AssertEqual(t, warnings[0].Position, Position{Offset: 13, Line: 2, Column: 1})
	test.AssertEqual(t, warnings[0].Error(), "main.js:2:1: warning: this is undefined [THIS_IS_UNDEFINED]")
	test.AssertEqual(t, warnings[1].Error(), "warning: generated an empty bundle [EMPTY_BUNDLE]")

	formatted := l.Format()
	if !strings.Contains(formatted, "    this.x = a;\n    ^\n") {
		t.Errorf("missing source context:\n%s", formatted)
	}
	test.AssertDeepEqual(t, l.Codes(), []Code{CodeEmptyBundle, CodeThisIsUndefined})
	test.AssertEqual(t, l.HasErrors(), false)
}

func TestFilterSilencesWarningsOnly(t *testing.T) {
	l := NewList(NewFilter("this_is_undefined", " MISSING_EXPORT "))
	l.Warn("", CodeThisIsUndefined, "silenced", 0)
	l.Warn("", CodeMissingExport, "silenced", 0)
	l.Warn("", CodeCircularDependency, "kept", 0)
	l.AddError("", CodeMissingExport, "errors are never silenced", 0)

	test.AssertEqual(t, l.Count(), 2)
	test.AssertEqual(t, len(l.Errors()), 1)
	test.AssertEqual(t, l.HasErrors(), true)

	l.Clear()
	test.AssertEqual(t, l.Count(), 0)
	test.AssertEqual(t, l.HasErrors(), false)
}
