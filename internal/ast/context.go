package ast

import "github.com/HugoDaniel/treeshaker/internal/objpath"

// ----------------------------------------------------------------------------
// Effect and Inclusion Contexts
// ----------------------------------------------------------------------------

// HasEffectsContext carries the state of one side-effect query.
type HasEffectsContext struct {
	// Entity sets record what this query has already examined. A repeated
	// question about the same entity and path is answered "no additional
	// effect", which makes mutually recursive functions terminate.
	Accessed     objpath.EntitySet
	Assigned     objpath.EntitySet
	Called       objpath.EntitySet
	Instantiated objpath.EntitySet

	// BrokenFlow is set once a return or throw has been seen. Statements
	// after it in the same block cannot run.
	BrokenFlow bool

	// IgnoreReturn is set while examining a function body on behalf of a
	// call: returning is then just the end of the call.
	IgnoreReturn bool

	// receivers holds the known receiver of each function whose body is
	// being examined on behalf of a call. Outside a call the receiver of a
	// body is unknown.
	receivers map[*ThisVariable]Entity
}

// NewHasEffectsContext returns a fresh effect-query context.
func NewHasEffectsContext() *HasEffectsContext {
	return &HasEffectsContext{}
}

// replaceReceiver binds the receiver of a body while a call is analysed and
// returns a function restoring the previous binding.
func (ctx *HasEffectsContext) replaceReceiver(v *ThisVariable, receiver Entity) func() {
	if v == nil {
		return func() {}
	}
	if ctx.receivers == nil {
		ctx.receivers = make(map[*ThisVariable]Entity)
	}
	previous, had := ctx.receivers[v]
	ctx.receivers[v] = receiver
	return func() {
		if had {
			ctx.receivers[v] = previous
		} else {
			delete(ctx.receivers, v)
		}
	}
}

// InclusionContext carries the state of one inclusion walk.
type InclusionContext struct {
	BrokenFlow bool
}

// NewInclusionContext returns a fresh inclusion context.
func NewInclusionContext() *InclusionContext {
	return &InclusionContext{}
}

// ----------------------------------------------------------------------------
// Options
// ----------------------------------------------------------------------------

// Options tune how conservative the analysis is.
type Options struct {
	// UnknownGlobalSideEffects treats reading an undeclared global as an
	// effect, since it may throw a ReferenceError.
	UnknownGlobalSideEffects bool

	// PropertyReadSideEffects treats reading properties of unknown values as
	// an effect, since getters may run or the value may be nullish.
	PropertyReadSideEffects bool
}

// DefaultOptions returns the most conservative analysis options.
func DefaultOptions() *Options {
	return &Options{
		UnknownGlobalSideEffects: true,
		PropertyReadSideEffects:  true,
	}
}

// ----------------------------------------------------------------------------
// Module Context
// ----------------------------------------------------------------------------

// ModuleContext is what nodes and variables need to know about the module
// that contains them. It is implemented by the module graph.
type ModuleContext interface {
	// ID is the resolved module identifier.
	ID() string

	// ExecIndex is the module's position in execution order.
	ExecIndex() int

	// ModuleName is the default name for the module's namespace object.
	ModuleName() string

	// Exports lists names exported by the module itself, in source order.
	Exports() []string

	// Reexports lists names made visible through export-all declarations.
	// External wildcard sources appear as "*" followed by their ID.
	Reexports() []string

	// TraceExport resolves an exported name to the variable behind it, or nil.
	TraceExport(name string) Variable

	// TraceImport resolves an imported local name to the variable behind it.
	// ok is false if name is not an import binding of this module.
	TraceImport(name string) (v Variable, ok bool)

	// IncludeAllExports includes every export of the module and of its
	// export-all sources.
	IncludeAllExports()

	// IncludeVariable includes v, requesting another pass if it was new.
	IncludeVariable(v Variable)

	// RequestTreeshakingPass asks the driver for one more inclusion pass.
	RequestTreeshakingPass()

	// Tracker is the recursion tracker shared by this analysis.
	Tracker() *objpath.Tracker

	// Options returns the analysis options.
	Options() *Options

	// SyntheticNamedExports names the export that supplies synthetic named
	// exports, or "" if the module has none.
	SyntheticNamedExports() string

	// Warn records a diagnostic at a byte offset of this module's source.
	Warn(code string, message string, pos int)
}
