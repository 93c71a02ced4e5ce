package jsscan

import "strings"

func unquote(s string) string {
	if len(s) >= 2 {
		return s[1 : len(s)-1]
	}
	return s
}

// parseImport handles every import statement form listed in spec §4.2:
// side-effect, default, named, namespace, and "import type" (type-only).
func (s *scanner) parseImport() {
	start := s.cur().start
	s.advance() // consume "import"

	if s.cur().kind == tString {
		specifier := unquote(s.text())
		end := s.cur().end
		s.out.Imports = append(s.out.Imports, ImportEntry{
			Specifier: specifier,
			Kind:      ImportSideEffect,
			Range:     Range{start, end},
		})
		s.advance()
		s.consumeStatementTail()
		return
	}

	typeOnly := false
	if s.cur().kind == tKeyword && s.text() == "type" {
		n := s.peekAfter()
		if !(n.kind == tKeyword && n.text == "from") { // "import type from './type'" is itself a default import named "type"
			typeOnly = true
			s.advance()
		}
	}

	var bindings []Binding

	if s.cur().kind == tIdent || (s.cur().kind == tKeyword && s.text() == "default") {
		bindings = append(bindings, Binding{Local: s.text(), Imported: "default"})
		s.advance()
		if s.cur().kind == tPunct && s.text() == "," {
			s.advance()
		}
	}

	if s.cur().kind == tPunct && s.text() == "*" {
		s.advance()
		if s.cur().kind == tKeyword && s.text() == "as" {
			s.advance()
		}
		bindings = append(bindings, Binding{Local: s.text()})
		s.advance()
	} else if s.cur().kind == tPunct && s.text() == "{" {
		s.advance()
		for !(s.cur().kind == tPunct && s.text() == "}") && s.cur().kind != tEOF {
			if s.cur().kind == tIdent || s.cur().kind == tKeyword {
				imported := s.text()
				local := imported
				s.advance()
				if s.cur().kind == tKeyword && s.text() == "as" {
					s.advance()
					local = s.text()
					s.advance()
				}
				bindings = append(bindings, Binding{Local: local, Imported: imported})
			} else {
				s.advance()
			}
			if s.cur().kind == tPunct && s.text() == "," {
				s.advance()
			}
		}
		if s.cur().kind == tPunct && s.text() == "}" {
			s.advance()
		}
	}

	if s.cur().kind == tKeyword && s.text() == "from" {
		s.advance()
	}

	specifier := ""
	if s.cur().kind == tString {
		specifier = unquote(s.text())
		s.advance()
	}

	s.out.Imports = append(s.out.Imports, ImportEntry{
		Specifier: specifier,
		Kind:      ImportStaticFrom,
		Bindings:  bindings,
		TypeOnly:  typeOnly,
		Range:     Range{start, s.cur().start},
	})
	s.consumeStatementTail()
}

// parseDynamicImportCall handles "import(...)" used as an expression,
// which can appear at any nesting depth (inside a function body, a
// callback, a ternary), unlike the statement-level import forms. It
// records an edge if the argument is a literal string, then consumes
// tokens through the matching ")" while still feeding them to the normal
// classification/scope tracking so groupDepth/funcDepth stay correct for
// whatever comes next.
func (s *scanner) parseDynamicImportCall() {
	start := s.cur().start
	s.advance() // consume "import"

	s.detectClassificationAtToken()
	s.trackScopesAtToken()
	startDepth := s.groupDepth // depth inside the call's parens
	s.advance()                // consume "("

	if s.cur().kind == tString {
		specifier := unquote(s.text())
		end := s.cur().end
		s.out.Imports = append(s.out.Imports, ImportEntry{
			Specifier: specifier,
			Kind:      ImportDynamicCall,
			Range:     Range{start, end},
		})
	}

	for {
		if s.cur().kind == tEOF {
			return
		}
		s.detectClassificationAtToken()
		s.trackScopesAtToken()
		closing := s.groupDepth < startDepth
		s.advance()
		if closing {
			return
		}
	}
}

// parseExport handles every export form listed in spec §4.2.
func (s *scanner) parseExport() {
	start := s.cur().start
	entriesFrom := len(s.out.Exports)
	finish := func() {
		end := s.lex.prev.end
		for i := entriesFrom; i < len(s.out.Exports); i++ {
			s.out.Exports[i].Range = Range{start, end}
		}
	}
	defer finish()

	s.advance() // consume "export"

	if s.cur().kind == tKeyword && s.text() == "default" {
		s.advance()
		// A following identifier naming a function/class declaration is the
		// exported name's *value*; for "export default <expr>" generally
		// there's no declared name at all, so "default" is both the
		// exported name and the local binding esbuild-style emission uses.
		s.out.Exports = append(s.out.Exports, ExportEntry{Name: "default", HasLocalValue: true})
		s.consumeStatementTail()
		return
	}

	if s.cur().kind == tPunct && s.text() == "*" {
		s.advance()
		alias := ""
		if s.cur().kind == tKeyword && s.text() == "as" {
			s.advance()
			alias = s.text()
			s.advance()
		}
		if s.cur().kind == tKeyword && s.text() == "from" {
			s.advance()
		}
		specifier := ""
		if s.cur().kind == tString {
			specifier = unquote(s.text())
			s.advance()
		}
		kind := ImportReExportAll
		local := "*"
		if alias != "" {
			kind = ImportReExport
			local = alias
		}
		s.out.Imports = append(s.out.Imports, ImportEntry{
			Specifier: specifier,
			Kind:      kind,
			Bindings:  []Binding{{Local: local, Imported: "*"}},
		})
		name := "*"
		if alias != "" {
			name = alias
		}
		s.out.Exports = append(s.out.Exports, ExportEntry{
			Name: name, IsReExport: true, ReExportFrom: specifier, ReExportAs: "*",
		})
		s.consumeStatementTail()
		return
	}

	if s.cur().kind == tPunct && s.text() == "{" {
		s.advance()
		type namedItem struct{ local, exported string }
		var items []namedItem
		for !(s.cur().kind == tPunct && s.text() == "}") && s.cur().kind != tEOF {
			if s.cur().kind == tIdent || s.cur().kind == tKeyword {
				local := s.text()
				exported := local
				s.advance()
				if s.cur().kind == tKeyword && s.text() == "as" {
					s.advance()
					exported = s.text()
					s.advance()
				}
				items = append(items, namedItem{local: local, exported: exported})
			} else {
				s.advance()
			}
			if s.cur().kind == tPunct && s.text() == "," {
				s.advance()
			}
		}
		if s.cur().kind == tPunct && s.text() == "}" {
			s.advance()
		}

		specifier := ""
		isReExport := false
		if s.cur().kind == tKeyword && s.text() == "from" {
			isReExport = true
			s.advance()
			if s.cur().kind == tString {
				specifier = unquote(s.text())
				s.advance()
			}
		}

		for _, item := range items {
			s.out.Exports = append(s.out.Exports, ExportEntry{
				Name:          item.exported,
				IsReExport:    isReExport,
				ReExportFrom:  specifier,
				ReExportAs:    item.local,
				HasLocalValue: !isReExport,
			})
		}
		if isReExport && len(items) > 0 {
			bindings := make([]Binding, len(items))
			for i, item := range items {
				bindings[i] = Binding{Local: item.exported, Imported: item.local}
			}
			s.out.Imports = append(s.out.Imports, ImportEntry{
				Specifier: specifier,
				Kind:      ImportReExport,
				Bindings:  bindings,
			})
		}
		s.consumeStatementTail()
		return
	}

	typeOnly := false
	if s.cur().kind == tKeyword && s.text() == "type" {
		typeOnly = true
	}
	if s.cur().kind == tKeyword && (s.text() == "interface" || s.text() == "type") {
		s.advance()
		if s.cur().kind == tIdent {
			s.out.Exports = append(s.out.Exports, ExportEntry{Name: s.text(), TypeOnly: true})
			s.advance()
		}
		s.consumeStatementTail()
		return
	}
	_ = typeOnly

	if s.cur().kind == tKeyword && (s.text() == "const" || s.text() == "let" || s.text() == "var") {
		s.advance()
		for {
			names := s.collectBindingNames()
			for _, n := range names {
				s.out.Exports = append(s.out.Exports, ExportEntry{Name: n, HasLocalValue: true})
			}
			// Skip any initializer up to the next top-level "," or ";".
			s.skipInitializer()
			if s.cur().kind == tPunct && s.text() == "," {
				s.advance()
				continue
			}
			break
		}
		s.consumeStatementTail()
		return
	}

	if s.cur().kind == tKeyword && (s.text() == "async" || s.text() == "function" || s.text() == "class") {
		for s.cur().kind == tKeyword && s.text() == "async" {
			s.advance()
		}
		if s.cur().kind == tKeyword && (s.text() == "function" || s.text() == "class") {
			s.advance()
			if s.cur().kind == tPunct && s.text() == "*" {
				s.advance()
			}
			if s.cur().kind == tIdent {
				s.out.Exports = append(s.out.Exports, ExportEntry{Name: s.text(), HasLocalValue: true})
				s.advance()
			}
		}
		s.consumeStatementTail()
		return
	}

	// Unrecognized export form (e.g. "export enum", "export namespace", or
	// a re-export of an "=" assignment): skip to the statement boundary
	// rather than mis-parsing it.
	s.consumeStatementTail()
}

// collectBindingNames reads one declarator target: a plain identifier, or
// a best-effort walk of a destructuring pattern collecting binding names
// (keys immediately followed by ":" are treated as the source key of a
// renamed destructure, not a binding, so only the token after ":" or a
// bare identifier counts as a local name).
func (s *scanner) collectBindingNames() []string {
	if s.cur().kind == tIdent {
		name := s.text()
		s.advance()
		return []string{name}
	}
	if !(s.cur().kind == tPunct && (s.text() == "{" || s.text() == "[")) {
		return nil
	}
	var names []string
	depth := 0
	for {
		t := s.cur()
		if t.kind == tEOF {
			break
		}
		if t.kind == tPunct && (t.text == "{" || t.text == "[") {
			depth++
			s.advance()
			continue
		}
		if t.kind == tPunct && (t.text == "}" || t.text == "]") {
			depth--
			s.advance()
			if depth == 0 {
				break
			}
			continue
		}
		if t.kind == tIdent {
			next := s.peekAfter()
			if next.kind == tPunct && next.text == ":" {
				s.advance() // this was a key, not a binding
				continue
			}
			names = append(names, t.text)
		}
		s.advance()
	}
	return names
}

// skipInitializer consumes tokens up to (but not including) the next
// top-level "," or ";" that terminates a variable declarator, tracking
// nested groups so commas inside call arguments/object literals don't
// prematurely end the declarator. Like consumeStatementTail, it also stops
// at the next top-level import|export keyword when automatic semicolon
// insertion means there is no ";".
func (s *scanner) skipInitializer() {
	depth := 0
	for {
		t := s.cur()
		if t.kind == tEOF {
			return
		}
		if depth == 0 && t.kind == tKeyword && (t.text == "import" || t.text == "export") {
			return
		}
		if t.kind == tPunct {
			switch t.text {
			case "(", "[", "{":
				depth++
			case ")", "]", "}":
				depth--
			case ",", ";":
				if depth == 0 {
					return
				}
			}
		}
		s.detectClassificationAtToken()
		s.trackScopesAtToken()
		s.advance()
	}
}

// consumeStatementTail skips to (and past) the statement-terminating ";",
// or stops cleanly at EOF / the next top-level import|export keyword if
// automatic semicolon insertion means there isn't one.
func (s *scanner) consumeStatementTail() {
	depth := 0
	for {
		t := s.cur()
		if t.kind == tEOF {
			return
		}
		if depth == 0 && t.kind == tKeyword && (t.text == "import" || t.text == "export") {
			return
		}
		if t.kind == tPunct {
			switch t.text {
			case "(", "[", "{":
				depth++
			case ")", "]", "}":
				depth--
			case ";":
				if depth == 0 {
					s.detectClassificationAtToken()
					s.trackScopesAtToken()
					s.advance()
					return
				}
			}
		}
		s.detectClassificationAtToken()
		s.trackScopesAtToken()
		s.advance()
	}
}

var _ = strings.TrimSpace
