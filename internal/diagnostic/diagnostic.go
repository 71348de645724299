// Package diagnostic provides the warnings and errors reported while
// bundling, with source locations resolved per module.
//
// Codes follow the names bundler users already know, such as
// MISSING_EXPORT or CIRCULAR_DEPENDENCY, so that they can be silenced
// individually from the configuration file.
package diagnostic

import (
	"fmt"
	"sort"
	"strings"
)

// Severity represents the severity level of a diagnostic.
type Severity uint8

const (
	// Error stops the build.
	Error Severity = iota
	// Warning is a non-blocking issue.
	Warning
	// Info is an informational message.
	Info
	// Note provides additional context for another diagnostic.
	Note
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	case Note:
		return "note"
	default:
		return "unknown"
	}
}

// Code identifies a kind of diagnostic.
type Code string

const (
	CodeParseError         Code = "PARSE_ERROR"
	CodeUnresolvedEntry    Code = "UNRESOLVED_ENTRY"
	CodeMissingExport      Code = "MISSING_EXPORT"
	CodeNamespaceConflict  Code = "NAMESPACE_CONFLICT"
	CodeThisIsUndefined    Code = "THIS_IS_UNDEFINED"
	CodeCircularDependency Code = "CIRCULAR_DEPENDENCY"
	CodeEmptyBundle        Code = "EMPTY_BUNDLE"
	CodeUnresolvedImport   Code = "UNRESOLVED_IMPORT"
)

// Position represents a position in source code.
type Position struct {
	Offset int // Byte offset (0-based)
	Line   int // Line number (1-based)
	Column int // Column number (1-based)
}

// RelatedInfo points at another location involved in a diagnostic.
type RelatedInfo struct {
	File     string
	Position Position
	Message  string
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	File     string   // Module ID, empty for bundle-wide diagnostics
	Position Position // Zero when File is empty
	Related  []RelatedInfo
}

// Error returns a formatted error string.
func (d *Diagnostic) Error() string {
	if d.File == "" {
		return fmt.Sprintf("%s: %s [%s]", d.Severity, d.Message, d.Code)
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s [%s]", d.File, d.Position.Line, d.Position.Column, d.Severity, d.Message, d.Code)
}

// ----------------------------------------------------------------------------
// List
// ----------------------------------------------------------------------------

// List collects diagnostics for all modules of a build.
type List struct {
	diagnostics []Diagnostic
	sources     map[string]*LineIndex
	filter      *Filter
	hasErrors   bool
}

// NewList creates an empty list. A nil filter keeps everything.
func NewList(filter *Filter) *List {
	return &List{
		sources: make(map[string]*LineIndex),
		filter:  filter,
	}
}

// AddSource registers the source of a module so that offsets in it can be
// turned into lines and columns.
func (l *List) AddSource(file string, source string) {
	l.sources[file] = NewLineIndex(source)
}

// MakePosition converts a byte offset in file to a Position.
func (l *List) MakePosition(file string, offset int) Position {
	idx, ok := l.sources[file]
	if !ok {
		return Position{Offset: offset}
	}
	line, col := idx.ByteOffsetToLineColumnUTF16(offset)
	return Position{
		Offset: offset,
		Line:   line + 1, // Convert to 1-based
		Column: col + 1,
	}
}

// Add adds a diagnostic unless the filter silences its code. Errors are
// never silenced.
func (l *List) Add(d Diagnostic) {
	if d.Severity != Error && l.filter.IsDisabled(d.Code) {
		return
	}
	l.diagnostics = append(l.diagnostics, d)
	if d.Severity == Error {
		l.hasErrors = true
	}
}

// Warn adds a warning at a byte offset of file. An empty file makes it a
// bundle-wide warning.
func (l *List) Warn(file string, code Code, message string, offset int) {
	d := Diagnostic{Severity: Warning, Code: code, Message: message, File: file}
	if file != "" {
		d.Position = l.MakePosition(file, offset)
	}
	l.Add(d)
}

// AddError adds an error at a byte offset of file.
func (l *List) AddError(file string, code Code, message string, offset int) {
	d := Diagnostic{Severity: Error, Code: code, Message: message, File: file}
	if file != "" {
		d.Position = l.MakePosition(file, offset)
	}
	l.Add(d)
}

// HasErrors returns true if there are any error-level diagnostics.
func (l *List) HasErrors() bool {
	return l.hasErrors
}

// Diagnostics returns all collected diagnostics in the order they were
// reported.
func (l *List) Diagnostics() []Diagnostic {
	return l.diagnostics
}

// Errors returns only error-level diagnostics.
func (l *List) Errors() []Diagnostic {
	return l.bySeverity(Error)
}

// Warnings returns only warning-level diagnostics.
func (l *List) Warnings() []Diagnostic {
	return l.bySeverity(Warning)
}

func (l *List) bySeverity(severity Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range l.diagnostics {
		if d.Severity == severity {
			out = append(out, d)
		}
	}
	return out
}

// Count returns the total number of diagnostics.
func (l *List) Count() int {
	return len(l.diagnostics)
}

// Codes returns the distinct codes reported, sorted.
func (l *List) Codes() []Code {
	seen := make(map[Code]bool)
	var codes []Code
	for _, d := range l.diagnostics {
		if !seen[d.Code] {
			seen[d.Code] = true
			codes = append(codes, d.Code)
		}
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// Format formats all diagnostics as a human-readable string.
func (l *List) Format() string {
	var sb strings.Builder
	for i := range l.diagnostics {
		sb.WriteString(l.FormatDiagnostic(&l.diagnostics[i]))
	}
	return sb.String()
}

// FormatDiagnostic formats a single diagnostic with source context.
func (l *List) FormatDiagnostic(d *Diagnostic) string {
	var sb strings.Builder
	sb.WriteString(d.Error())
	sb.WriteByte('\n')

	if idx, ok := l.sources[d.File]; ok && d.Position.Line > 0 {
		if sourceLine := idx.Line(d.Position.Line - 1); sourceLine != "" {
			sb.WriteString(fmt.Sprintf("    %s\n", sourceLine))
			sb.WriteString(strings.Repeat(" ", d.Position.Column-1+4))
			sb.WriteString("^\n")
		}
	}

	for _, rel := range d.Related {
		sb.WriteString(fmt.Sprintf("  %s:%d:%d: note: %s\n",
			rel.File, rel.Position.Line, rel.Position.Column, rel.Message))
	}

	return sb.String()
}

// Clear removes all diagnostics.
func (l *List) Clear() {
	l.diagnostics = l.diagnostics[:0]
	l.hasErrors = false
}

// ----------------------------------------------------------------------------
// Filter
// ----------------------------------------------------------------------------

// Filter silences diagnostic codes.
type Filter struct {
	disabled map[Code]bool
}

// NewFilter creates a filter that silences the given codes.
func NewFilter(codes ...string) *Filter {
	f := &Filter{disabled: make(map[Code]bool)}
	for _, code := range codes {
		f.DisableRule(Code(strings.ToUpper(strings.TrimSpace(code))))
	}
	return f
}

// DisableRule silences a code.
func (f *Filter) DisableRule(code Code) {
	f.disabled[code] = true
}

// IsDisabled returns true if the code is silenced. A nil filter silences
// nothing.
func (f *Filter) IsDisabled(code Code) bool {
	return f != nil && f.disabled[code]
}
