// Package builtins describes the JavaScript globals the tree-shaker knows
// about and which accesses, calls and constructions of them are free of
// side effects.
//
// Lookups take a key chain such as ["Math", "max"]. A chain that does not
// resolve to a registered entry is never considered pure.
package builtins

import "math"

// GlobalKind identifies categories of globals.
type GlobalKind uint8

const (
	GlobalValue       GlobalKind = iota // Plain values such as NaN
	GlobalFunction                      // Callable, not constructible
	GlobalConstructor                   // Constructible classes
	GlobalNamespace                     // Objects grouping members, like Math
)

// Global is a known global or a member of one.
type Global struct {
	Name string
	Kind GlobalKind

	// PureCall is set when calling the value has no side effects beyond
	// possibly throwing on invalid arguments.
	PureCall bool

	// PureConstruct is set when new on the value has no side effects.
	PureConstruct bool

	Members map[string]*Global
}

// Table maps global names to their definitions.
var Table = make(map[string]*Global)

func init() {
	registerValues()
	registerFunctions()
	registerConstructors()
	registerNamespaces()
}

// Lookup resolves a key chain starting at a global name.
func Lookup(keys []string) *Global {
	if len(keys) == 0 {
		return nil
	}
	g := Table[keys[0]]
	for _, key := range keys[1:] {
		if g == nil {
			return nil
		}
		g = g.Members[key]
	}
	return g
}

// IsKnownGlobal returns true if reading name never throws.
func IsKnownGlobal(name string) bool {
	_, ok := Table[name]
	return ok
}

// IsPureAccess returns true if reading the key chain has no side effects.
func IsPureAccess(keys []string) bool {
	return Lookup(keys) != nil
}

// IsPureCall returns true if calling the key chain has no side effects.
func IsPureCall(keys []string) bool {
	g := Lookup(keys)
	return g != nil && g.PureCall
}

// IsPureConstructor returns true if new on the key chain has no side
// effects.
func IsPureConstructor(keys []string) bool {
	g := Lookup(keys)
	return g != nil && g.PureConstruct
}

// NumberConstant returns the value of the numeric globals NaN and Infinity.
func NumberConstant(name string) (float64, bool) {
	switch name {
	case "NaN":
		return math.NaN(), true
	case "Infinity":
		return math.Inf(1), true
	}
	return 0, false
}

func register(g *Global) *Global {
	Table[g.Name] = g
	return g
}

func member(parent *Global, g *Global) {
	if parent.Members == nil {
		parent.Members = make(map[string]*Global)
	}
	parent.Members[g.Name] = g
}

func values(parent *Global, names ...string) {
	for _, name := range names {
		member(parent, &Global{Name: name, Kind: GlobalValue})
	}
}

func pureFunctions(parent *Global, names ...string) {
	for _, name := range names {
		member(parent, &Global{Name: name, Kind: GlobalFunction, PureCall: true})
	}
}

// ----------------------------------------------------------------------------
// Values
// ----------------------------------------------------------------------------

func registerValues() {
	for _, name := range []string{"undefined", "NaN", "Infinity", "globalThis"} {
		register(&Global{Name: name, Kind: GlobalValue})
	}
}

// ----------------------------------------------------------------------------
// Functions
// ----------------------------------------------------------------------------

func registerFunctions() {
	for _, name := range []string{
		"decodeURI", "decodeURIComponent", "encodeURI", "encodeURIComponent",
		"escape", "unescape", "isFinite", "isNaN", "parseFloat", "parseInt",
	} {
		register(&Global{Name: name, Kind: GlobalFunction, PureCall: true})
	}

	// Known to exist but may run arbitrary code.
	for _, name := range []string{"eval", "setTimeout", "clearTimeout", "setInterval", "clearInterval", "queueMicrotask"} {
		register(&Global{Name: name, Kind: GlobalFunction})
	}
}

// ----------------------------------------------------------------------------
// Constructors
// ----------------------------------------------------------------------------

func registerConstructors() {
	// Calling or constructing these is side-effect free.
	for _, name := range []string{
		"Array", "Boolean", "Date", "Error", "EvalError", "Function", "Map",
		"Number", "Object", "RangeError", "ReferenceError", "RegExp", "Set",
		"String", "SyntaxError", "TypeError", "URIError", "WeakMap", "WeakSet",
		"ArrayBuffer", "DataView", "Float32Array", "Float64Array", "Int8Array",
		"Int16Array", "Int32Array", "Uint8Array", "Uint8ClampedArray",
		"Uint16Array", "Uint32Array",
	} {
		register(&Global{Name: name, Kind: GlobalConstructor, PureCall: true, PureConstruct: true})
	}

	// Symbol and BigInt throw on new; Promise runs its executor.
	register(&Global{Name: "Symbol", Kind: GlobalFunction, PureCall: true})
	register(&Global{Name: "BigInt", Kind: GlobalFunction, PureCall: true})
	register(&Global{Name: "Promise", Kind: GlobalConstructor})
	register(&Global{Name: "Proxy", Kind: GlobalConstructor})

	pureFunctions(Table["Array"], "isArray", "of", "from")
	pureFunctions(Table["Number"], "isFinite", "isInteger", "isNaN", "isSafeInteger", "parseFloat", "parseInt")
	values(Table["Number"], "EPSILON", "MAX_SAFE_INTEGER", "MAX_VALUE", "MIN_SAFE_INTEGER", "MIN_VALUE", "NaN", "NEGATIVE_INFINITY", "POSITIVE_INFINITY")
	pureFunctions(Table["String"], "fromCharCode", "fromCodePoint", "raw")
	pureFunctions(Table["Date"], "now", "parse", "UTC")
	pureFunctions(Table["Symbol"], "for", "keyFor")
	values(Table["Symbol"], "asyncIterator", "hasInstance", "iterator", "toPrimitive", "toStringTag")
	pureFunctions(Table["Object"],
		"create", "entries", "getOwnPropertyDescriptor", "getOwnPropertyDescriptors",
		"getOwnPropertyNames", "getOwnPropertySymbols", "getPrototypeOf", "is",
		"isExtensible", "isFrozen", "isSealed", "keys", "values",
	)

	// These mutate their first argument.
	for _, name := range []string{"assign", "defineProperty", "defineProperties", "freeze", "preventExtensions", "seal", "setPrototypeOf"} {
		member(Table["Object"], &Global{Name: name, Kind: GlobalFunction})
	}

	pureFunctions(Table["Promise"], "resolve", "reject", "all", "allSettled", "any", "race")
}

// ----------------------------------------------------------------------------
// Namespaces
// ----------------------------------------------------------------------------

func registerNamespaces() {
	m := register(&Global{Name: "Math", Kind: GlobalNamespace})
	values(m, "E", "LN10", "LN2", "LOG10E", "LOG2E", "PI", "SQRT1_2", "SQRT2")
	pureFunctions(m,
		"abs", "acos", "acosh", "asin", "asinh", "atan", "atan2", "atanh",
		"cbrt", "ceil", "clz32", "cos", "cosh", "exp", "expm1", "floor",
		"fround", "hypot", "imul", "log", "log10", "log1p", "log2", "max",
		"min", "pow", "random", "round", "sign", "sin", "sinh", "sqrt", "tan",
		"tanh", "trunc",
	)

	j := register(&Global{Name: "JSON", Kind: GlobalNamespace})
	pureFunctions(j, "parse", "stringify")

	r := register(&Global{Name: "Reflect", Kind: GlobalNamespace})
	pureFunctions(r, "getOwnPropertyDescriptor", "getPrototypeOf", "has", "isExtensible", "ownKeys")
	for _, name := range []string{"apply", "construct", "defineProperty", "deleteProperty", "get", "set", "setPrototypeOf", "preventExtensions"} {
		member(r, &Global{Name: name, Kind: GlobalFunction})
	}

	// console is known to exist, but every method is observable output.
	c := register(&Global{Name: "console", Kind: GlobalNamespace})
	for _, name := range []string{"log", "info", "warn", "error", "debug", "trace", "table", "assert"} {
		member(c, &Global{Name: name, Kind: GlobalFunction})
	}
}
