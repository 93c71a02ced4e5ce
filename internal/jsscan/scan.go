package jsscan

import (
	"fmt"
	"strings"
)

type ImportKind uint8

const (
	ImportStaticFrom ImportKind = iota
	ImportSideEffect
	ImportDynamicCall
	ImportRequireCall
	ImportReExport
	ImportReExportAll
)

type Range struct{ Start, End int }

type Binding struct {
	Local    string
	Imported string // "" for a namespace binding; "default" for default import
}

type ImportEntry struct {
	Specifier string
	Kind      ImportKind
	Bindings  []Binding
	TypeOnly  bool
	Range     Range
}

type ExportEntry struct {
	Name          string // "default" for a default export
	IsReExport    bool
	ReExportFrom  string
	ReExportAs    string // source-side name being re-exported, "" means same as Name
	HasLocalValue bool
	TypeOnly      bool
	Range         Range // the whole "export ..." statement, for codegen rewrites
}

type SyntaxError struct {
	Line, Column int
	Text         string
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Text)
}

type ParseOutput struct {
	Imports             []ImportEntry
	Exports             []ExportEntry
	HasJSX              bool
	HasTypeScript       bool
	HasDynamicImport    bool
	HasTopLevelAwait    bool
	HasCommonJSRequire  bool
	SyntaxErrors        []SyntaxError
}

// Parse extracts the import/export tables and classification flags from
// source, per spec.md §4.2. filenameHint (e.g. "foo.tsx") seeds the
// TS/JSX flags but does not gate the scan itself: a .js file containing
// TS/JSX syntax still sets the flags, so the Transformer knows to run the
// corresponding lowering pass regardless of extension.
func Parse(source, filenameHint string) ParseOutput {
	out := ParseOutput{}
	if strings.HasSuffix(filenameHint, ".ts") || strings.HasSuffix(filenameHint, ".tsx") {
		out.HasTypeScript = true
	}
	if strings.HasSuffix(filenameHint, ".jsx") || strings.HasSuffix(filenameHint, ".tsx") {
		out.HasJSX = true
	}

	s := &scanner{lex: newLexer(source), src: source, out: &out}
	s.run()
	return out
}

type braceFrame struct {
	isFunction bool
}

type pendingExprArrow struct {
	groupDepth int
}

type scanner struct {
	lex *lexer
	src string
	out *ParseOutput

	groupDepth int
	braces     []braceFrame
	exprArrows []pendingExprArrow
	funcDepth  int

	expectBraceAtDepth   int
	expectBracePending   bool
	skippingReturnType   bool
	returnTypeStartDepth int
	parenWasControlFlow  []bool
}

var controlFlowKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true, "with": true,
}

func (s *scanner) cur() token  { return s.lex.cur }
func (s *scanner) text() string { return s.lex.cur.text }

func (s *scanner) advance() { s.lex.advance() }

func (s *scanner) run() {
	for s.cur().kind != tEOF {
		s.detectClassificationAtToken()
		s.trackScopesAtToken()

		if s.cur().kind == tKeyword && s.text() == "import" {
			if n := s.peekAfter(); n.kind == tPunct && n.text == "(" {
				// A dynamic import() call is an expression, not a statement,
				// so it's recognized at any nesting depth, not just depth 0.
				s.parseDynamicImportCall()
				continue
			}
		}

		if s.groupDepth == 0 && len(s.braces) == 0 {
			if s.cur().kind == tKeyword && s.text() == "import" {
				s.parseImport()
				continue
			}
			if s.cur().kind == tKeyword && s.text() == "export" {
				s.parseExport()
				continue
			}
		}

		s.advance()
	}
}

// detectClassificationAtToken updates HasTypeScript/HasJSX/HasDynamicImport
// /HasCommonJSRequire flags from the current token, independent of scope
// tracking below.
func (s *scanner) detectClassificationAtToken() {
	t := s.cur()
	if t.kind == tKeyword {
		switch t.text {
		case "interface":
			s.out.HasTypeScript = true
		case "type":
			// "type" as a statement keyword ("type X = ...") rather than a
			// property name is a TS-only construct; a following identifier
			// then "=" confirms it without a full parse.
			if n := s.peekAfter(); n.kind == tIdent {
				s.out.HasTypeScript = true
			}
		case "import":
			if n := s.peekAfter(); n.kind == tPunct && n.text == "(" {
				s.out.HasDynamicImport = true
			}
		}
	}
	if (t.kind == tIdent || t.kind == tKeyword) && t.text == "require" {
		if n := s.peekAfter(); n.kind == tPunct && n.text == "(" {
			s.out.HasCommonJSRequire = true
		}
	}
	if t.kind == tPunct && t.text == "<" && !s.out.HasJSX {
		if looksLikeJSXOpenTag(s.src, t.start) {
			s.out.HasJSX = true
		}
	}
	if t.kind == tPunct && t.text == ":" {
		// A colon right after an identifier/")"/"]" outside of an object
		// literal/ternary context is most often a TS type annotation; this
		// is a secondary signal only (filename hint and "interface"/"type"
		// are the strong ones).
	}
}

// peekAfter returns the next token without consuming the current one,
// by lexing a throwaway copy starting at the lexer's current position.
func (s *scanner) peekAfter() token {
	clone := &lexer{src: s.lex.src, pos: s.lex.cur.end, prev: s.lex.cur}
	clone.advance()
	return clone.cur
}

func looksLikeJSXOpenTag(src string, at int) bool {
	i := at + 1
	if i >= len(src) {
		return false
	}
	if src[i] == '/' || src[i] == '>' {
		return true // fragment "<>" or a closing tag "</"
	}
	if !(src[i] == '_' || (src[i] >= 'a' && src[i] <= 'z') || (src[i] >= 'A' && src[i] <= 'Z')) {
		return false
	}
	// Scan ahead for a plausible tag close on the same logical element,
	// bounded so we don't walk the whole file for a stray "<".
	limit := i + 400
	if limit > len(src) {
		limit = len(src)
	}
	depth := 0
	for j := i; j < limit; j++ {
		switch src[j] {
		case '<':
			depth++
		case '>':
			if depth == 0 {
				return j > i && (src[j-1] == '/' || true)
			}
			depth--
		case ';':
			if depth == 0 {
				return false
			}
		}
	}
	return false
}

// trackScopesAtToken maintains groupDepth/braces/funcDepth so that
// HasTopLevelAwait can be decided correctly at each "await" token, per
// spec §4.2's requirement for a real scope walk.
func (s *scanner) trackScopesAtToken() {
	t := s.cur()

	if t.kind == tKeyword && t.text == "await" && s.funcDepth == 0 {
		s.out.HasTopLevelAwait = true
	}

	if t.kind != tPunct {
		return
	}

	switch t.text {
	case "(", "[", "{":
		if t.text == "(" {
			isControl := s.lex.prev.kind == tKeyword && controlFlowKeywords[s.lex.prev.text]
			s.parenWasControlFlow = append(s.parenWasControlFlow, isControl)
		}
		if t.text == "{" {
			isFunc := s.expectBracePending && s.expectBraceAtDepth == s.groupDepth
			s.braces = append(s.braces, braceFrame{isFunction: isFunc})
			if isFunc {
				s.funcDepth++
			}
			s.expectBracePending = false
			s.skippingReturnType = false
		}
		s.groupDepth++
	case ")", "]", "}":
		s.groupDepth--
		if t.text == "}" && len(s.braces) > 0 {
			top := s.braces[len(s.braces)-1]
			s.braces = s.braces[:len(s.braces)-1]
			if top.isFunction {
				s.funcDepth--
			}
		}
		s.popExprArrowsAt(s.groupDepth, false)
		if t.text == ")" {
			s.maybeMarkFunctionParen()
		}
	case ",", ";":
		s.popExprArrowsAt(s.groupDepth, true)
	case "=>":
		n := s.peekAfter()
		if n.kind == tPunct && n.text == "{" {
			s.expectBracePending = true
			s.expectBraceAtDepth = s.groupDepth
		} else {
			s.exprArrows = append(s.exprArrows, pendingExprArrow{groupDepth: s.groupDepth})
			s.funcDepth++
		}
	case ":":
		if s.expectBracePending == false {
			// Could be the start of a TS return-type annotation right
			// after a parameter list; tracked by maybeMarkFunctionParen
			// setting skippingReturnType instead, so nothing to do here.
		}
	}

	if s.skippingReturnType && t.text == "{" {
		s.skippingReturnType = false
	}
}

// maybeMarkFunctionParen runs right after a ")" closes: if the ")" was not
// part of a control-flow construct (if/for/while/switch/catch/with) and the
// next significant token is "{" (directly, or after a TS return-type
// annotation), the brace that opens next is a function body.
func (s *scanner) maybeMarkFunctionParen() {
	wasControlFlow := false
	if n := len(s.parenWasControlFlow); n > 0 {
		wasControlFlow = s.parenWasControlFlow[n-1]
		s.parenWasControlFlow = s.parenWasControlFlow[:n-1]
	}
	if wasControlFlow {
		return
	}
	n := s.peekAfter()
	switch {
	case n.kind == tPunct && n.text == "{":
		s.expectBracePending = true
		s.expectBraceAtDepth = s.groupDepth
	case n.kind == tPunct && n.text == ":":
		s.skippingReturnType = true
		s.returnTypeStartDepth = s.groupDepth
		s.expectBracePending = true
		s.expectBraceAtDepth = s.groupDepth
	}
}

func (s *scanner) popExprArrowsAt(depth int, onlyExact bool) {
	for len(s.exprArrows) > 0 {
		top := s.exprArrows[len(s.exprArrows)-1]
		shouldPop := false
		if onlyExact {
			shouldPop = top.groupDepth == depth
		} else {
			shouldPop = top.groupDepth > depth || top.groupDepth >= depth
		}
		if !shouldPop {
			break
		}
		s.exprArrows = s.exprArrows[:len(s.exprArrows)-1]
		s.funcDepth--
	}
}
