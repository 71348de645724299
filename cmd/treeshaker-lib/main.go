// Package main provides a C-callable static library for bundling and
// tree-shaking ES modules.
//
// This is built with -buildmode=c-archive to produce libtreeshaker.a
// that can be linked into Zig/C/Rust programs.
//
// Build:
//
//	CGO_ENABLED=1 go build -buildmode=c-archive -o build/libtreeshaker.a ./cmd/treeshaker-lib
//
// Requests are JSON objects:
//
//	{"modules": {"main.js": "..."}, "entries": ["main.js"], "options": {"minifyWhitespace": true}}
//
// Exported functions:
//
//	treeshaker_bundle(request_json, request_len, out_json, out_json_len) -> error_code
//	treeshaker_analyze(request_json, request_len, out_json, out_json_len) -> error_code
//	treeshaker_free(ptr) -> void
//	treeshaker_version() -> *char
package main

/*
#include <stdlib.h>
*/
import "C"
import (
	"encoding/json"
	"unsafe"

	"github.com/HugoDaniel/treeshaker/pkg/api"
)

// Version should match the release version
const version = "0.1.0"

// Error codes
const (
	TREESHAKER_OK              = 0
	TREESHAKER_ERR_JSON_ENCODE = 1
	TREESHAKER_ERR_NULL_INPUT  = 2
	TREESHAKER_ERR_JSON_DECODE = 3
)

// Options mirrors api.BundleOptions for JSON parsing. Missing fields keep
// their defaults.
type Options struct {
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

// Request is the JSON input of every entry point.
type Request struct {
	Modules map[string]string `json:"modules"`
	Entries []string          `json:"entries"`
	Options Options           `json:"options"`
}

func (o Options) bundleOptions() api.BundleOptions {
	opts := api.DefaultBundleOptions()
	if o.Treeshake != nil {
		opts.Treeshake = *o.Treeshake
	}
	if o.UnknownGlobalSideEffects != nil {
		opts.UnknownGlobalSideEffects = *o.UnknownGlobalSideEffects
	}
	if o.PropertyReadSideEffects != nil {
		opts.PropertyReadSideEffects = *o.PropertyReadSideEffects
	}
	if o.Freeze != nil {
		opts.Freeze = *o.Freeze
	}
	if o.NamespaceToStringTag != nil {
		opts.NamespaceToStringTag = *o.NamespaceToStringTag
	}
	if o.MinifyWhitespace != nil {
		opts.MinifyWhitespace = *o.MinifyWhitespace
	}
	if o.MaxPasses != nil {
		opts.MaxPasses = *o.MaxPasses
	}
	opts.External = o.External
	opts.Silence = o.Silence
	return opts
}

func decodeRequest(request *C.char, request_len C.int) (Request, bool) {
	var req Request
	err := json.Unmarshal([]byte(C.GoStringN(request, request_len)), &req)
	return req, err == nil
}

func writeJSON(v interface{}, out_json **C.char, out_json_len *C.int) C.int {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return TREESHAKER_ERR_JSON_ENCODE
	}
	*out_json = C.CString(string(jsonBytes))
	*out_json_len = C.int(len(jsonBytes))
	return TREESHAKER_OK
}

// treeshaker_bundle bundles the modules of a request.
//
// Parameters:
//   - request_json: pointer to the JSON request (UTF-8)
//   - request_len: length of the request in bytes
//   - out_json: pointer to receive the JSON result holding code, errors,
//     warnings and sizes (caller must free with treeshaker_free)
//   - out_json_len: pointer to receive JSON length
//
// Returns:
//   - 0 on success, including builds that failed with errors in the result
//   - non-zero error code on failure
//
//export treeshaker_bundle
func treeshaker_bundle(request_json *C.char, request_len C.int, out_json **C.char, out_json_len *C.int) C.int {
	if request_json == nil || out_json == nil || out_json_len == nil {
		return TREESHAKER_ERR_NULL_INPUT
	}
	req, ok := decodeRequest(request_json, request_len)
	if !ok {
		return TREESHAKER_ERR_JSON_DECODE
	}
	result := api.Bundle(req.Modules, req.Entries, req.Options.bundleOptions())
	return writeJSON(result, out_json, out_json_len)
}

// treeshaker_analyze reports what a build of the request keeps and drops.
//
// Parameters and return values are those of treeshaker_bundle.
//
//export treeshaker_analyze
func treeshaker_analyze(request_json *C.char, request_len C.int, out_json **C.char, out_json_len *C.int) C.int {
	if request_json == nil || out_json == nil || out_json_len == nil {
		return TREESHAKER_ERR_NULL_INPUT
	}
	req, ok := decodeRequest(request_json, request_len)
	if !ok {
		return TREESHAKER_ERR_JSON_DECODE
	}
	result := api.Analyze(req.Modules, req.Entries, req.Options.bundleOptions())
	return writeJSON(result, out_json, out_json_len)
}

// treeshaker_free frees memory allocated by treeshaker functions.
//
//export treeshaker_free
func treeshaker_free(ptr *C.char) {
	if ptr != nil {
		C.free(unsafe.Pointer(ptr))
	}
}

// treeshaker_version returns the library version string.
// The returned pointer is allocated once and must NOT be freed.
//
//export treeshaker_version
func treeshaker_version() *C.char {
	return versionString
}

var versionString = C.CString(version)

// Required for c-archive build mode
func main() {}
