package config

import "regexp"

// compileFilter turns a plugin hook's filter pattern into a predicate. An
// empty pattern matches everything; otherwise the pattern is a regular
// expression, matching the real esbuild plugin filter convention that
// tain335-esbuild's plugins (pkg/plugin/*.go) rely on.
func compileFilter(pattern string) func(string) bool {
	if pattern == "" {
		return func(string) bool { return true }
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return func(string) bool { return false }
	}
	return re.MatchString
}
