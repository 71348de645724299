// Package bundler provides the main tree-shaking API.
//
// It coordinates loading, linking, inclusion, renaming and printing to
// produce a single ES module from a set of entry modules.
package bundler

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"github.com/HugoDaniel/treeshaker/internal/ast"
	"github.com/HugoDaniel/treeshaker/internal/dce"
	"github.com/HugoDaniel/treeshaker/internal/diagnostic"
	"github.com/HugoDaniel/treeshaker/internal/graph"
	"github.com/HugoDaniel/treeshaker/internal/logging"
	"github.com/HugoDaniel/treeshaker/internal/printer"
	"github.com/HugoDaniel/treeshaker/internal/renamer"
)

// Options controls bundling behavior.
type Options struct {
	// Treeshake removes unused code. When false every statement of every
	// reachable module is kept.
	Treeshake bool

	// UnknownGlobalSideEffects treats reading an undeclared global as an
	// effect.
	UnknownGlobalSideEffects bool

	// PropertyReadSideEffects treats reading properties of unknown values
	// as an effect.
	PropertyReadSideEffects bool

	// Freeze wraps namespace objects in Object.freeze
	Freeze bool

	// NamespaceToStringTag adds Symbol.toStringTag to namespace objects
	NamespaceToStringTag bool

	// MinifyWhitespace removes unnecessary whitespace and newlines
	MinifyWhitespace bool

	// MaxPasses bounds the inclusion fixpoint. Zero uses the default.
	MaxPasses int

	// Silence lists diagnostic codes that are not reported.
	Silence []string

	// External lists import specifiers that are never loaded.
	External []string

	Logger *slog.Logger
}

// DefaultOptions returns options matching a default production build.
func DefaultOptions() Options {
	return Options{
		Treeshake:                true,
		UnknownGlobalSideEffects: true,
		PropertyReadSideEffects:  true,
		Freeze:                   true,
		NamespaceToStringTag:     false,
		MaxPasses:                dce.DefaultMaxPasses,
	}
}

// Result contains the bundle output.
type Result struct {
	// Code is the bundled ES module.
	Code string

	// BuildID identifies this build in log output.
	BuildID string

	// Graph is the linked module graph, nil if linking failed.
	Graph *graph.Graph

	// Diagnostics holds the warnings and errors of the build.
	Diagnostics *diagnostic.List

	// Statistics about the build
	Stats Stats
}

// Warnings returns the warnings of the build.
func (r *Result) Warnings() []diagnostic.Diagnostic {
	if r.Diagnostics == nil {
		return nil
	}
	return r.Diagnostics.Warnings()
}

// Stats provides build statistics.
type Stats struct {
	Modules            int
	ExternalModules    int
	Passes             int
	Statements         int
	IncludedStatements int
	Renamed            int
	InputSize          int
	OutputSize         int
	GzipSize           int
	Duration           time.Duration
}

// Bundler performs tree-shaking builds.
type Bundler struct {
	options Options
}

// New creates a new bundler with the given options.
func New(options Options) *Bundler {
	return &Bundler{options: options}
}

// Bundle builds the given entries, loading modules through loader. The
// returned error wraps one of the graph sentinel errors; the diagnostics in
// the result say which module and position caused it.
func (b *Bundler) Bundle(loader graph.Loader, entries []string) (Result, error) {
	start := time.Now()
	result := Result{
		BuildID:     uuid.NewString(),
		Diagnostics: diagnostic.NewList(diagnostic.NewFilter(b.options.Silence...)),
	}
	logger := logging.OrDiscard(b.options.Logger).With("build", result.BuildID)

	// 1. Load, parse and link
	g, err := graph.Build(loader, entries, graph.Options{
		Analysis: &ast.Options{
			UnknownGlobalSideEffects: b.options.UnknownGlobalSideEffects,
			PropertyReadSideEffects:  b.options.PropertyReadSideEffects,
		},
		Diagnostics: result.Diagnostics,
		External:    b.options.External,
		Logger:      logger,
	})
	if err != nil {
		logger.Debug("build failed", "error", err)
		return result, fmt.Errorf("bundle %v: %w", entries, err)
	}
	result.Graph = g

	// 2. Include what the entries need
	marked := dce.Mark(g, dce.Options{
		Treeshake: b.options.Treeshake,
		MaxPasses: b.options.MaxPasses,
		Logger:    logger,
	})

	// 3. Give every kept binding a unique name
	renamed := renamer.Deconflict(g, logger)

	// 4. Print
	bundle := NewPrinterBundle(g)
	result.Code = printer.New(printer.Options{
		MinifyWhitespace:     b.options.MinifyWhitespace,
		Freeze:               b.options.Freeze,
		NamespaceToStringTag: b.options.NamespaceToStringTag,
	}).PrintBundle(bundle)

	if marked.IncludedStatements == 0 && len(bundle.Exports) == 0 && len(bundle.ExternalReexports) == 0 {
		name := "bundle"
		if len(g.Entries) > 0 {
			name = g.Entries[0].ModuleName()
		}
		result.Diagnostics.Warn("", diagnostic.CodeEmptyBundle,
			fmt.Sprintf("Generated an empty chunk: %q", name), 0)
	}

	result.Stats = Stats{
		Modules:            len(g.Modules),
		ExternalModules:    len(g.ExternalSources),
		Passes:             marked.Passes,
		Statements:         marked.Statements,
		IncludedStatements: marked.IncludedStatements,
		Renamed:            renamed,
		OutputSize:         len(result.Code),
		GzipSize:           GzipSize(result.Code),
		Duration:           time.Since(start),
	}
	for _, m := range g.Modules {
		result.Stats.InputSize += len(m.Source)
	}

	logger.Info("bundle written",
		"modules", result.Stats.Modules,
		"passes", result.Stats.Passes,
		"removed", marked.Removed(),
		"bytes", result.Stats.OutputSize)
	return result, nil
}

// NewPrinterBundle collects what the printer needs from a marked and
// renamed graph. Only the first entry's exports are printed.
func NewPrinterBundle(g *graph.Graph) *printer.Bundle {
	bundle := &printer.Bundle{ExternalSources: g.ExternalSources}
	for _, m := range g.Modules {
		pm := printer.Module{Program: m.Program}
		if m.HasNamespace() {
			pm.Namespace = m.Namespace()
		}
		bundle.Modules = append(bundle.Modules, pm)
	}
	if len(g.Entries) > 0 {
		entry := g.Entries[0]
		for _, export := range g.EntryExports(entry) {
			bundle.Exports = append(bundle.Exports, printer.Export{Name: export.Name, Variable: export.Variable})
		}
		bundle.ExternalReexports = g.ExternalReexports(entry)
	}
	return bundle
}

// GzipSize returns the size of code after gzip compression.
func GzipSize(code string) int {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return 0
	}
	if _, err := w.Write([]byte(code)); err != nil {
		return 0
	}
	if err := w.Close(); err != nil {
		return 0
	}
	return buf.Len()
}

// Bundle is a convenience function for one-off builds.
func Bundle(loader graph.Loader, entries []string, opts ...Options) (Result, error) {
	options := DefaultOptions()
	if len(opts) > 0 {
		options = opts[0]
	}
	return New(options).Bundle(loader, entries)
}
