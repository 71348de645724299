package main

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/HugoDaniel/treeshaker/internal/diagnostic"
)

const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorYellow = "\x1b[33m"
)

// useColor reports whether f is a terminal that should get ANSI colors.
func useColor(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// printDiagnostics writes every diagnostic with its source excerpt. With
// color set, the headline is red for errors and yellow for warnings. The
// --quiet flag drops everything but errors.
func printDiagnostics(w io.Writer, list *diagnostic.List, color bool) {
	if list == nil {
		return
	}
	for _, d := range list.Diagnostics() {
		if quiet && d.Severity != diagnostic.Error {
			continue
		}
		text := list.FormatDiagnostic(&d)
		if color {
			headline, rest, _ := strings.Cut(text, "\n")
			c := colorYellow
			if d.Severity == diagnostic.Error {
				c = colorRed
			}
			text = c + headline + colorReset + "\n" + rest
		}
		io.WriteString(w, text)
	}
}
