// Package transform implements component C of the bundle pipeline: it
// takes one module's raw source and lowers TypeScript and JSX down to plain JavaScript, then applies the
// build's define-map substitutions. It never re-derives the import/export
// table; jsscan already owns that and the caller re-scans the transformed
// output if it needs fresh positions.
package transform

import (
	"fmt"

	"github.com/gobundle/gobundle/internal/config"
)

// Result is the transformer's output for one module.
type Result struct {
	Code string
	Map  []SourceMapping // sorted by Generated offset
}

// SourceMapping ties one byte offset in Code back to a byte offset in the
// original source, so the emitter can build a chain mapping without
// re-diffing text.
type SourceMapping struct {
	Generated int
	Original  int
}

// Options configures one Transform call. JSXFactory/JSXFragment are used
// only when Automatic is false.
type Options struct {
	Loader        config.Loader
	JSXAutomatic  bool
	JSXFactory    string // default "h"
	JSXFragment   string // default "Fragment"
	JSXImportFrom string // used only when JSXAutomatic; e.g. "react/jsx-runtime"
	Define        map[string]string
}

// Transform runs the lowering passes this module's loader calls for. JS and
// JSON loaders pass through (JSON handled upstream, by the loader dispatch
// the graph builder does before calling Transform at all).
func Transform(source string, opts Options) (Result, error) {
	code := source
	var err error

	if opts.Loader == config.LoaderJSX || opts.Loader == config.LoaderTSX {
		code, err = lowerJSX(code, opts)
		if err != nil {
			return Result{}, fmt.Errorf("jsx lowering: %w", err)
		}
	}

	if opts.Loader == config.LoaderTS || opts.Loader == config.LoaderTSX {
		code, err = eraseTypeScript(code)
		if err != nil {
			return Result{}, fmt.Errorf("typescript erasure: %w", err)
		}
	}

	if len(opts.Define) > 0 {
		code = substituteDefines(code, opts.Define)
	}

	return Result{Code: code}, nil
}
