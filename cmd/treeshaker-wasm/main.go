//go:build js && wasm

// Command treeshaker-wasm is the WebAssembly build of the tree-shaker.
// It exposes bundling functions to JavaScript via syscall/js.
package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/HugoDaniel/treeshaker/pkg/api"
)

var version = "0.1.0"

// jsOptions mirrors the JavaScript options object.
type jsOptions struct {
	Treeshake                *bool    `json:"treeshake"`
	UnknownGlobalSideEffects *bool    `json:"unknownGlobalSideEffects"`
	PropertyReadSideEffects  *bool    `json:"propertyReadSideEffects"`
	Freeze                   *bool    `json:"freeze"`
	NamespaceToStringTag     *bool    `json:"namespaceToStringTag"`
	MinifyWhitespace         *bool    `json:"minifyWhitespace"`
	MaxPasses                *int     `json:"maxPasses"`
	External                 []string `json:"external"`
	Silence                  []string `json:"silence"`
}

func main() {
	// Export functions to JavaScript
	js.Global().Set("__treeshaker", js.ValueOf(map[string]interface{}{
		"bundle":  js.FuncOf(bundleJS),
		"analyze": js.FuncOf(analyzeJS),
		"version": version,
	}))

	// Keep the Go runtime alive
	select {}
}

// bundleJS is the JavaScript-callable bundle function.
// Signature: __treeshaker.bundle(modules: object, entries: string[], options?: object) => object
func bundleJS(this js.Value, args []js.Value) interface{} {
	modules, entries, opts, msg := parseArgs("bundle", args)
	if msg != "" {
		return makeError(msg)
	}
	return toJS(api.Bundle(modules, entries, opts))
}

// analyzeJS is the JavaScript-callable analyze function.
// Signature: __treeshaker.analyze(modules: object, entries: string[], options?: object) => object
func analyzeJS(this js.Value, args []js.Value) interface{} {
	modules, entries, opts, msg := parseArgs("analyze", args)
	if msg != "" {
		return makeError(msg)
	}
	return toJS(api.Analyze(modules, entries, opts))
}

func parseArgs(name string, args []js.Value) (map[string]string, []string, api.BundleOptions, string) {
	opts := api.DefaultBundleOptions()
	if len(args) < 2 {
		return nil, nil, opts, name + " requires at least 2 arguments (modules, entries)"
	}

	var modules map[string]string
	if err := json.Unmarshal([]byte(stringify(args[0])), &modules); err != nil {
		return nil, nil, opts, "modules must map module IDs to source strings"
	}

	var entries []string
	if args[1].Type() == js.TypeString {
		entries = []string{args[1].String()}
	} else if err := json.Unmarshal([]byte(stringify(args[1])), &entries); err != nil {
		return nil, nil, opts, "entries must be a string or an array of strings"
	}

	if len(args) > 2 && !args[2].IsUndefined() && !args[2].IsNull() {
		var jsOpts jsOptions
		if err := json.Unmarshal([]byte(stringify(args[2])), &jsOpts); err != nil {
			return nil, nil, opts, "invalid options: " + err.Error()
		}
		applyOptions(&opts, jsOpts)
	}
	return modules, entries, opts, ""
}

func applyOptions(opts *api.BundleOptions, jsOpts jsOptions) {
	if jsOpts.Treeshake != nil {
		opts.Treeshake = *jsOpts.Treeshake
	}
	if jsOpts.UnknownGlobalSideEffects != nil {
		opts.UnknownGlobalSideEffects = *jsOpts.UnknownGlobalSideEffects
	}
	if jsOpts.PropertyReadSideEffects != nil {
		opts.PropertyReadSideEffects = *jsOpts.PropertyReadSideEffects
	}
	if jsOpts.Freeze != nil {
		opts.Freeze = *jsOpts.Freeze
	}
	if jsOpts.NamespaceToStringTag != nil {
		opts.NamespaceToStringTag = *jsOpts.NamespaceToStringTag
	}
	if jsOpts.MinifyWhitespace != nil {
		opts.MinifyWhitespace = *jsOpts.MinifyWhitespace
	}
	if jsOpts.MaxPasses != nil {
		opts.MaxPasses = *jsOpts.MaxPasses
	}
	if jsOpts.External != nil {
		opts.External = jsOpts.External
	}
	if jsOpts.Silence != nil {
		opts.Silence = jsOpts.Silence
	}
}

func stringify(v js.Value) string {
	return js.Global().Get("JSON").Call("stringify", v).String()
}

// toJS hands a result to JavaScript as a plain object, going through JSON
// so nested slices and maps keep their field names.
func toJS(result interface{}) interface{} {
	data, err := json.Marshal(result)
	if err != nil {
		return makeError(err.Error())
	}
	return js.Global().Get("JSON").Call("parse", string(data))
}

// makeError creates a result object with an error.
func makeError(msg string) interface{} {
	return map[string]interface{}{
		"code": "",
		"errors": []interface{}{
			map[string]interface{}{
				"message": msg,
				"line":    0,
				"column":  0,
			},
		},
		"warnings": []interface{}{},
	}
}
