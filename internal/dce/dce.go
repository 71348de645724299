// Package dce decides which parts of a module graph end up in the bundle.
//
// Marking works by:
// 1. Including every variable exported by an entry module
// 2. Walking all modules in execution order, including statements that have
//    effects or declare something already included
// 3. Repeating the walk while any module requested another pass, since
//    including a variable or invalidating a resolved branch can make more
//    code live
//
// The printer then emits included nodes only.
package dce

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/HugoDaniel/treeshaker/internal/ast"
	"github.com/HugoDaniel/treeshaker/internal/graph"
	"github.com/HugoDaniel/treeshaker/internal/logging"
	"github.com/HugoDaniel/treeshaker/internal/objpath"
)

// DefaultMaxPasses bounds the inclusion fixpoint. Real graphs settle in a
// handful of passes.
const DefaultMaxPasses = 100

// Options controls marking.
type Options struct {
	// Treeshake removes code that is unused and free of effects. When false
	// every node of every module is kept.
	Treeshake bool

	// MaxPasses bounds the number of inclusion passes. Zero uses
	// DefaultMaxPasses.
	MaxPasses int

	Logger *slog.Logger
}

// DefaultOptions returns options with tree-shaking enabled.
func DefaultOptions() Options {
	return Options{Treeshake: true, MaxPasses: DefaultMaxPasses}
}

// Stats summarises one marking run.
type Stats struct {
	Passes             int
	Statements         int
	IncludedStatements int
}

// Removed returns the number of top-level statements left out.
func (s Stats) Removed() int {
	return s.Statements - s.IncludedStatements
}

// Mark includes everything the entries of g need. It panics if inclusion
// does not settle within the pass bound, which means some node keeps
// requesting passes without including anything new.
func Mark(g *graph.Graph, opts Options) Stats {
	logger := logging.OrDiscard(opts.Logger)
	maxPasses := opts.MaxPasses
	if maxPasses <= 0 {
		maxPasses = DefaultMaxPasses
	}

	var stats Stats
	if !opts.Treeshake {
		for _, m := range g.Modules {
			ast.IncludeAll(m.Program)
		}
		includeEntryExports(g)
		stats.Passes = 1
		countStatements(g, &stats)
		logger.Debug("tree-shaking disabled", "statements", stats.Statements)
		return stats
	}

	includeEntryExports(g)
	for {
		if stats.Passes == maxPasses {
			panic(fmt.Sprintf("dce: inclusion did not settle after %d passes", maxPasses))
		}
		stats.Passes++
		g.ResetPass()
		for _, m := range g.Modules {
			m.Program.Include(ast.NewInclusionContext(), false)
		}
		if logger.Enabled(context.Background(), slog.LevelDebug) {
			var pass Stats
			countStatements(g, &pass)
			logger.Debug("inclusion pass", "pass", stats.Passes, "included", pass.IncludedStatements)
		}
		if !g.NeedsPass() {
			break
		}
	}

	countStatements(g, &stats)
	return stats
}

// includeEntryExports includes the variables behind every entry export.
// Modules referenced by those variables are walked in the next pass.
// Importers of the bundle may mutate exported values, so nothing is assumed
// about their properties.
func includeEntryExports(g *graph.Graph) {
	for _, entry := range g.Entries {
		for _, export := range g.EntryExports(entry) {
			entry.IncludeVariable(export.Variable)
			export.Variable.DeoptimizePath(objpath.UnknownPath)
		}
	}
}

func countStatements(g *graph.Graph, stats *Stats) {
	stats.Statements = 0
	stats.IncludedStatements = 0
	for _, m := range g.Modules {
		total, included := CountStatements(m.Program)
		stats.Statements += total
		stats.IncludedStatements += included
	}
}

// CountStatements returns the number of top-level statements of program and
// how many of them are included.
func CountStatements(program *ast.Program) (total int, included int) {
	for _, stmt := range program.Body {
		total++
		if stmt.Included() {
			included++
		}
	}
	return total, included
}
