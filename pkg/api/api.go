// Package api provides the public API for the tree-shaker.
//
// This package is intended for programmatic use of the bundler.
// For CLI usage, see cmd/treeshaker.
package api

import (
	"github.com/HugoDaniel/treeshaker/internal/bundler"
	"github.com/HugoDaniel/treeshaker/internal/diagnostic"
	"github.com/HugoDaniel/treeshaker/internal/graph"
	"github.com/HugoDaniel/treeshaker/internal/report"
)

// BundleOptions controls bundling behavior.
type BundleOptions struct {
	// Treeshake removes statements that are unused and free of side
	// effects. When false every statement of every module is kept.
	Treeshake bool

	// UnknownGlobalSideEffects treats reading a global the bundler knows
	// nothing about as a side effect, since it may throw.
	UnknownGlobalSideEffects bool

	// PropertyReadSideEffects treats reading a property of an unknown value
	// as a side effect, since it may run a getter.
	PropertyReadSideEffects bool

	// Freeze wraps namespace objects in Object.freeze.
	Freeze bool

	// NamespaceToStringTag adds Symbol.toStringTag to namespace objects.
	NamespaceToStringTag bool

	// MinifyWhitespace removes unnecessary whitespace and newlines.
	MinifyWhitespace bool

	// MaxPasses bounds the number of inclusion passes. Zero uses the
	// default.
	MaxPasses int

	// External lists import specifiers that are never loaded, even when
	// they are relative. Bare specifiers are always external.
	External []string

	// Silence lists warning codes that are not reported, such as
	// "THIS_IS_UNDEFINED".
	Silence []string
}

// DefaultBundleOptions returns the options of a default production build.
func DefaultBundleOptions() BundleOptions {
	opts := bundler.DefaultOptions()
	return BundleOptions{
		Treeshake:                opts.Treeshake,
		UnknownGlobalSideEffects: opts.UnknownGlobalSideEffects,
		PropertyReadSideEffects:  opts.PropertyReadSideEffects,
		Freeze:                   opts.Freeze,
		NamespaceToStringTag:     opts.NamespaceToStringTag,
		MaxPasses:                opts.MaxPasses,
	}
}

// Message is a warning or error of a build.
type Message struct {
	// Code identifies the kind of message, e.g. "MISSING_EXPORT".
	Code string `json:"code"`

	Message string `json:"message"`

	// File is the module ID, empty for bundle-wide messages.
	File string `json:"file,omitempty"`

	// Line and Column are 1-based, zero when File is empty.
	Line   int `json:"line"`
	Column int `json:"column"`
}

// BundleResult contains the bundle output.
type BundleResult struct {
	// Code is the bundled ES module.
	Code string `json:"code"`

	// Errors contains the errors that stopped the build.
	// If non-empty, Code is empty.
	Errors []Message `json:"errors"`

	// Warnings contains non-fatal messages.
	Warnings []Message `json:"warnings"`

	// OriginalSize is the combined size of all bundled modules in bytes.
	OriginalSize int `json:"originalSize"`

	// BundledSize is the size of the output in bytes.
	BundledSize int `json:"bundledSize"`

	// GzipSize is the size of the output after gzip compression.
	GzipSize int `json:"gzipSize"`

	// Passes is the number of inclusion passes the build needed.
	Passes int `json:"passes"`

	// Statements and IncludedStatements count top-level statements of all
	// modules before and after tree-shaking.
	Statements         int `json:"statements"`
	IncludedStatements int `json:"includedStatements"`
}

// Bundle bundles in-memory modules, keyed by module ID, starting from the
// given entries. Relative imports are resolved against the importing
// module's ID.
func Bundle(modules map[string]string, entries []string, opts BundleOptions) BundleResult {
	result, err := bundler.New(toBundlerOptions(opts)).Bundle(graph.MapLoader(modules), entries)

	apiResult := BundleResult{
		Errors:   convertMessages(errorsOf(result, err)),
		Warnings: convertMessages(result.Warnings()),
	}
	if err != nil {
		return apiResult
	}

	apiResult.Code = result.Code
	apiResult.OriginalSize = result.Stats.InputSize
	apiResult.BundledSize = result.Stats.OutputSize
	apiResult.GzipSize = result.Stats.GzipSize
	apiResult.Passes = result.Stats.Passes
	apiResult.Statements = result.Stats.Statements
	apiResult.IncludedStatements = result.Stats.IncludedStatements
	return apiResult
}

func toBundlerOptions(opts BundleOptions) bundler.Options {
	return bundler.Options{
		Treeshake:                opts.Treeshake,
		UnknownGlobalSideEffects: opts.UnknownGlobalSideEffects,
		PropertyReadSideEffects:  opts.PropertyReadSideEffects,
		Freeze:                   opts.Freeze,
		NamespaceToStringTag:     opts.NamespaceToStringTag,
		MinifyWhitespace:         opts.MinifyWhitespace,
		MaxPasses:                opts.MaxPasses,
		External:                 opts.External,
		Silence:                  opts.Silence,
	}
}

// errorsOf returns the error diagnostics of a failed build. Failures that
// left no diagnostic, such as an empty entry list, become a single message.
func errorsOf(result bundler.Result, err error) []diagnostic.Diagnostic {
	if err == nil {
		return nil
	}
	if result.Diagnostics != nil && result.Diagnostics.HasErrors() {
		return result.Diagnostics.Errors()
	}
	return []diagnostic.Diagnostic{{Severity: diagnostic.Error, Message: err.Error()}}
}

// convertMessages converts diagnostics to API messages.
func convertMessages(diags []diagnostic.Diagnostic) []Message {
	result := make([]Message, len(diags))
	for i, d := range diags {
		result[i] = Message{
			Code:    string(d.Code),
			Message: d.Message,
			File:    d.File,
			Line:    d.Position.Line,
			Column:  d.Position.Column,
		}
	}
	return result
}

// ----------------------------------------------------------------------------
// Analysis API
// ----------------------------------------------------------------------------

// AnalyzeResult describes what a build kept and dropped.
type AnalyzeResult struct {
	// Modules contains one entry per bundled module, in execution order.
	Modules []ModuleInfo `json:"modules"`

	// External lists the external modules the bundle imports.
	External []string `json:"external"`

	// Passes is the number of inclusion passes the build needed.
	Passes int `json:"passes"`

	// Errors contains any errors that stopped the build.
	Errors []Message `json:"errors,omitempty"`
}

// ModuleInfo describes one module of a build.
type ModuleInfo struct {
	// ID is the module ID.
	ID string `json:"id"`

	// Entry is true for entry modules.
	Entry bool `json:"entry"`

	// Statements is the number of top-level statements.
	Statements int `json:"statements"`

	// IncludedStatements is the number of top-level statements kept.
	IncludedStatements int `json:"includedStatements"`

	// Kept lists the top-level bindings in the output, by original name.
	Kept []string `json:"kept"`

	// Renamed maps original names to output names where they differ.
	Renamed map[string]string `json:"renamed,omitempty"`

	// Dropped lists the top-level bindings left out.
	Dropped []string `json:"dropped"`

	// Branches lists conditionals whose outcome was known at build time.
	Branches []BranchInfo `json:"branches"`
}

// BranchInfo describes a conditional resolved at build time.
type BranchInfo struct {
	// Kind is "if", "conditional" or "logical".
	Kind string `json:"kind"`

	Line   int `json:"line"`
	Column int `json:"column"`

	// Taken is "consequent" or "alternate". For logical expressions the
	// consequent is the left operand.
	Taken string `json:"taken"`
}

// Analyze builds the modules like Bundle and reports, per module, what was
// kept and what was dropped. This is useful for finding out why code ends
// up in a bundle.
func Analyze(modules map[string]string, entries []string, opts BundleOptions) AnalyzeResult {
	result, err := bundler.New(toBundlerOptions(opts)).Bundle(graph.MapLoader(modules), entries)
	if err != nil {
		return AnalyzeResult{Errors: convertMessages(errorsOf(result, err))}
	}

	r, err := report.New(result)
	if err != nil {
		return AnalyzeResult{Errors: []Message{{Message: err.Error()}}}
	}

	return AnalyzeResult{
		Modules:  convertModules(r.Modules),
		External: r.External,
		Passes:   r.Passes,
	}
}

// convertModules converts report modules to API types.
func convertModules(modules []report.Module) []ModuleInfo {
	result := make([]ModuleInfo, len(modules))
	for i, m := range modules {
		info := ModuleInfo{
			ID:                 m.ID,
			Entry:              m.Entry,
			Statements:         m.Statements,
			IncludedStatements: m.IncludedStatements,
			Kept:               make([]string, len(m.Kept)),
			Dropped:            m.Dropped,
			Branches:           convertBranches(m.Branches),
		}
		for j, b := range m.Kept {
			info.Kept[j] = b.Name
			if b.Rendered != "" {
				if info.Renamed == nil {
					info.Renamed = make(map[string]string)
				}
				info.Renamed[b.Name] = b.Rendered
			}
		}
		result[i] = info
	}
	return result
}

// convertBranches converts resolved branches to API types.
func convertBranches(branches []report.Branch) []BranchInfo {
	result := make([]BranchInfo, len(branches))
	for i, b := range branches {
		result[i] = BranchInfo{
			Kind:   b.Kind,
			Line:   b.Line,
			Column: b.Column,
			Taken:  b.Taken,
		}
	}
	return result
}
