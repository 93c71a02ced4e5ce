package jsscan

import "testing"

func TestParseStaticImportsAndExports(t *testing.T) {
	out := Parse(`
import def, { a, b as bAlias } from "./mod"
import * as ns from "./ns"
import "./side-effect"
export const x = 1
export default function foo() {}
export { a as aliasedOut }
export * from "./reexport-all"
`, "file.js")

	if len(out.Imports) != 4 {
		t.Fatalf("expected 4 import entries, got %d: %+v", len(out.Imports), out.Imports)
	}
	first := out.Imports[0]
	if first.Specifier != "./mod" || len(first.Bindings) != 3 {
		t.Fatalf("unexpected first import: %+v", first)
	}
	if first.Bindings[0].Imported != "default" {
		t.Fatalf("unexpected default binding: %+v", first.Bindings[0])
	}
	if first.Bindings[1].Imported != "a" || first.Bindings[1].Local != "a" {
		t.Fatalf("unexpected second binding: %+v", first.Bindings[1])
	}
	if first.Bindings[2].Imported != "b" || first.Bindings[2].Local != "bAlias" {
		t.Fatalf("unexpected third binding: %+v", first.Bindings[2])
	}

	var sawDefault, sawNamed, sawReexportAll bool
	for _, e := range out.Exports {
		switch {
		case e.Name == "default":
			sawDefault = true
		case e.Name == "aliasedOut":
			sawNamed = true
		case e.Name == "*" && e.ReExportFrom == "./reexport-all":
			sawReexportAll = true
		}
	}
	if !sawDefault || !sawNamed || !sawReexportAll {
		t.Fatalf("missing expected export entries: %+v", out.Exports)
	}
}

func TestParseTopLevelAwaitDetected(t *testing.T) {
	out := Parse(`const data = await fetch("/x")`, "file.js")
	if !out.HasTopLevelAwait {
		t.Fatal("expected HasTopLevelAwait for an await in a var initializer")
	}
}

func TestParseAwaitInsideFunctionIsNotTopLevel(t *testing.T) {
	out := Parse(`
async function load() {
  const data = await fetch("/x")
  return data
}
`, "file.js")
	if out.HasTopLevelAwait {
		t.Fatal("await inside a function body must not count as top-level")
	}
}

func TestParseAwaitInsideArrowIsNotTopLevel(t *testing.T) {
	out := Parse(`const load = async () => await fetch("/x")`, "file.js")
	if out.HasTopLevelAwait {
		t.Fatal("await inside an expression-bodied arrow must not count as top-level")
	}
}

func TestParseAwaitAfterNestedParenIsTopLevel(t *testing.T) {
	out := Parse(`
if (ready(check)) {
  await init()
}
`, "file.js")
	if !out.HasTopLevelAwait {
		t.Fatal("await inside an if-block at module scope is still top-level")
	}
}

func TestParseDynamicImportInsideFunctionBodyIsRecorded(t *testing.T) {
	out := Parse(`
function loadLater() {
  return import("./lazy")
}
`, "file.js")
	if !out.HasDynamicImport {
		t.Fatal("expected HasDynamicImport")
	}
	var found bool
	for _, imp := range out.Imports {
		if imp.Kind == ImportDynamicCall && imp.Specifier == "./lazy" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a dynamic import edge for ./lazy, got %+v", out.Imports)
	}
}

func TestParseDynamicImportDoesNotBreakFollowingScopeTracking(t *testing.T) {
	out := Parse(`
function loadLater() {
  return import("./lazy")
}
const x = await ready()
`, "file.js")
	if !out.HasTopLevelAwait {
		t.Fatal("scope tracking after a dynamic import call must stay correct")
	}
}

func TestParseTypeScriptAndJSXFlags(t *testing.T) {
	out := Parse(`interface Props { name: string }`, "file.ts")
	if !out.HasTypeScript {
		t.Fatal("expected HasTypeScript from filename hint")
	}

	out2 := Parse(`const el = <div>hi</div>`, "file.jsx")
	if !out2.HasJSX {
		t.Fatal("expected HasJSX from filename hint")
	}
}

func TestParseCommonJSRequireDetected(t *testing.T) {
	out := Parse(`const fs = require("fs")`, "file.js")
	if !out.HasCommonJSRequire {
		t.Fatal("expected HasCommonJSRequire")
	}
}
