package transform

import (
	"github.com/gobundle/gobundle/internal/jsscan"
)

// eraseTypeScript strips TypeScript-only syntax down to the JavaScript it
// describes, token-boundary-safe via jsscan.Tokenize so string/template/
// regexp contents are never touched. It does not type-check; it erases.
//
// Handled: interface declarations, type-alias statements, "declare"
// statements, access modifiers on class members (public/private/protected/
// readonly/abstract/override), "as"/"satisfies" assertions, parameter and
// variable type annotations, function return-type annotations, and
// generic parameter lists on function/class declarations. Call-site
// generics ("foo<T>(x)") and non-null assertions ("x!.y") are left alone:
// both are ambiguous with comparison/logical-not operators without a real
// expression parser, so erasing them is out of scope for a token-rewrite
// transformer (documented as a known limit, not attempted here).
func eraseTypeScript(source string) (string, error) {
	toks := jsscan.Tokenize(source)
	del := make([]bool, len(toks))

	modifiers := map[string]bool{
		"public": true, "private": true, "protected": true,
		"readonly": true, "abstract": true, "override": true,
	}

	for idx := 0; idx < len(toks); idx++ {
		t := toks[idx]

		switch {
		case t.Text == "interface":
			end := skipBalancedBlock(toks, idx)
			markDeleted(del, idx, end)
			idx = end - 1

		case t.Text == "declare":
			end := skipStatementOrBlock(toks, idx+1)
			markDeleted(del, idx, end)
			idx = end - 1

		case t.Text == "export" && idx+1 < len(toks) && toks[idx+1].Text == "interface":
			// "export" alone has nothing to delete; the "interface" branch
			// above deletes the rest on the next loop iteration.
			del[idx] = true

		case t.Text == "type" && idx+1 < len(toks) && toks[idx+1].Kind == "ident":
			end := skipTypeAliasStatement(toks, idx)
			markDeleted(del, idx, end)
			idx = end - 1

		case t.Text == "import" && idx+1 < len(toks) && toks[idx+1].Text == "type" &&
			!(idx+2 < len(toks) && toks[idx+2].Text == "from"):
			// "import type {...} from '...'" has no runtime effect at all;
			// "import type from '...'" (no "{") is itself a default import
			// named "type" and must not hit this branch, hence the lookahead.
			end := skipStatementOrBlock(toks, idx+1)
			markDeleted(del, idx, end)
			idx = end - 1

		case t.Text == "export" && idx+1 < len(toks) && toks[idx+1].Text == "type" &&
			idx+2 < len(toks) && toks[idx+2].Text == "{":
			// "export type {...} [from '...'];" — a type-only re-export.
			end := skipStatementOrBlock(toks, idx+1)
			markDeleted(del, idx, end)
			idx = end - 1

		case t.Text == "export" && idx+1 < len(toks) && toks[idx+1].Text == "type" &&
			idx+2 < len(toks) && toks[idx+2].Kind == "ident":
			// "export type Name = ...;" — only the "export" needs marking
			// here; the "type Name = ..." branch above deletes the rest
			// on the next loop iteration.
			del[idx] = true

		case modifiers[t.Text] && t.Kind == "ident":
			del[idx] = true

		case t.Text == "as" || t.Text == "satisfies":
			del[idx] = true
			end := skipTypeExpression(toks, idx+1, false)
			markDeleted(del, idx+1, end)
			idx = end - 1

		case t.Text == ":" && idx > 0 && precedesParamOrVarAnnotation(toks, idx):
			end := skipTypeExpression(toks, idx+1, false)
			markDeleted(del, idx, end)
			idx = end - 1

		case t.Text == ")" && followsReturnTypeColon(toks, idx):
			colonIdx := idx + 1
			end := skipTypeExpression(toks, colonIdx+1, true)
			markDeleted(del, colonIdx, end)
			idx = end - 1

		case t.Text == "<" && precedesDeclarationGenerics(toks, idx):
			end := skipAngleBalanced(toks, idx)
			markDeleted(del, idx, end)
			idx = end - 1
		}
	}

	var out []byte
	for i, t := range toks {
		if del[i] {
			continue
		}
		out = append(out, t.Text...)
		out = append(out, ' ')
	}
	return string(out), nil
}

func markDeleted(del []bool, from, to int) {
	for i := from; i < to && i < len(del); i++ {
		del[i] = true
	}
}

// skipBalancedBlock deletes an "interface Name<T> extends Base { ... }"
// declaration, returning the index just past its closing brace (and a
// trailing ";" if ASI didn't already end it).
func skipBalancedBlock(toks []jsscan.PublicToken, start int) int {
	i := start + 1
	depth := 0
	seenBrace := false
	for i < len(toks) {
		switch toks[i].Text {
		case "{":
			depth++
			seenBrace = true
		case "}":
			depth--
			if seenBrace && depth == 0 {
				i++
				if i < len(toks) && toks[i].Text == ";" {
					i++
				}
				return i
			}
		}
		i++
	}
	return len(toks)
}

// skipStatementOrBlock handles "declare ..." forms: either a block-bodied
// declaration ("declare namespace X { ... }") or a statement terminated by
// ";" at depth 0.
func skipStatementOrBlock(toks []jsscan.PublicToken, start int) int {
	depth := 0
	for i := start; i < len(toks); i++ {
		switch toks[i].Text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
			if depth == 0 && toks[i].Text == "}" {
				return i + 1
			}
		case ";":
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(toks)
}

// skipTypeAliasStatement deletes "type Name<T> = ... ;" through the
// terminating top-level ";", or the next statement-starting keyword if ASI
// omitted it.
func skipTypeAliasStatement(toks []jsscan.PublicToken, start int) int {
	depth := 0
	for i := start + 1; i < len(toks); i++ {
		switch toks[i].Text {
		case "(", "[", "{", "<":
			depth++
		case ")", "]", "}", ">":
			if depth > 0 {
				depth--
			}
		case ";":
			if depth == 0 {
				return i + 1
			}
		}
		if depth == 0 && (toks[i].Text == "import" || toks[i].Text == "export") {
			return i
		}
	}
	return len(toks)
}

// precedesParamOrVarAnnotation reports whether the ":" at idx is a TS type
// annotation rather than an object-literal key separator or a ternary's
// ":". It's a type annotation whenever the previous significant token is
// an identifier, "]", ")" or "?" immediately following one of those, and
// the nearest unmatched enclosing bracket is "(", "[", or a class body
// "{" (a class field annotation) rather than an object literal/block "{".
// An identifier directly declared by "const"/"let"/"var" is always
// annotated, wherever the declaration sits.
func precedesParamOrVarAnnotation(toks []jsscan.PublicToken, idx int) bool {
	prev := toks[idx-1]
	if !(prev.Kind == "ident" || prev.Kind == "keyword" || prev.Text == "]" || prev.Text == "?") {
		return false
	}
	if idx >= 2 && prev.Kind == "ident" {
		switch toks[idx-2].Text {
		case "const", "let", "var":
			return true
		}
	}
	var pending []string
	for i := idx - 1; i >= 0; i-- {
		switch toks[i].Text {
		case ")", "]", "}":
			pending = append(pending, toks[i].Text)
		case "(":
			if len(pending) > 0 && pending[len(pending)-1] == ")" {
				pending = pending[:len(pending)-1]
			} else if len(pending) == 0 {
				return true
			}
		case "[":
			if len(pending) > 0 && pending[len(pending)-1] == "]" {
				pending = pending[:len(pending)-1]
			} else if len(pending) == 0 {
				return true
			}
		case "{":
			if len(pending) > 0 && pending[len(pending)-1] == "}" {
				pending = pending[:len(pending)-1]
			} else if len(pending) == 0 {
				return isClassBodyBrace(toks, i)
			}
		}
	}
	return false
}

// isClassBodyBrace reports whether the "{" at braceIdx opens a class body,
// by scanning back over an optional "extends Base implements A, B" clause
// to check for a preceding "class" keyword.
func isClassBodyBrace(toks []jsscan.PublicToken, braceIdx int) bool {
	j := braceIdx - 1
	for j >= 0 {
		t := toks[j]
		if t.Text == "extends" || t.Text == "implements" || t.Text == "," || t.Text == "." || t.Kind == "ident" {
			j--
			continue
		}
		break
	}
	return j >= 0 && toks[j].Text == "class"
}

// followsReturnTypeColon reports whether idx (pointing at a ")") is
// immediately followed by a return-type colon, i.e. "): Type {" or
// "): Type => ".
func followsReturnTypeColon(toks []jsscan.PublicToken, idx int) bool {
	return idx+1 < len(toks) && toks[idx+1].Text == ":"
}

// skipTypeExpression walks forward from idx (just past a ":"/"as") over a
// type expression, balancing (), [], {}, and <>, stopping at the first
// depth-0 terminator. When forReturnType is true, an unparenthesized "{" or
// "=>" at depth 0 also terminates (the function body/arrow follows).
func skipTypeExpression(toks []jsscan.PublicToken, start int, forReturnType bool) int {
	paren, bracket, brace, angle := 0, 0, 0, 0
	for i := start; i < len(toks); i++ {
		t := toks[i].Text
		if paren == 0 && bracket == 0 && brace == 0 && angle == 0 {
			switch t {
			case ",", ";", ")", "]", "=":
				return i
			case "=>":
				if forReturnType {
					return i
				}
			case "{":
				if forReturnType {
					return i
				}
			}
		}
		switch t {
		case "(":
			paren++
		case ")":
			if paren == 0 {
				return i
			}
			paren--
		case "[":
			bracket++
		case "]":
			if bracket == 0 {
				return i
			}
			bracket--
		case "{":
			brace++
		case "}":
			if brace == 0 {
				return i
			}
			brace--
		case "<":
			angle++
		case ">":
			if angle > 0 {
				angle--
			}
		}
	}
	return len(toks)
}

// precedesDeclarationGenerics reports whether the "<" at idx opens a
// generic parameter list on a function/class declaration, the only
// generics this pass erases (call-site type arguments are kept): the
// previous token is the name immediately following "function"/"class".
func precedesDeclarationGenerics(toks []jsscan.PublicToken, idx int) bool {
	if idx < 2 {
		return false
	}
	prev := toks[idx-1]
	if prev.Kind != "ident" {
		return false
	}
	kw := toks[idx-2]
	return kw.Text == "function" || kw.Text == "class"
}

func skipAngleBalanced(toks []jsscan.PublicToken, start int) int {
	depth := 0
	for i := start; i < len(toks); i++ {
		switch toks[i].Text {
		case "<":
			depth++
		case ">":
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(toks)
}
