package transform

import (
	"fmt"
	"strings"
)

// lowerJSX rewrites JSX element expressions into h(...)/jsx(...) calls. It
// is a single recursive-descent pass over raw source rather than a token
// rewrite: JSX text children aren't JS tokens at all, so jsscan's lexer
// can't drive this the way it drives the TS erasure pass.
func lowerJSX(src string, opts Options) (string, error) {
	var out strings.Builder
	i := 0
	lastSignificant := byte(0)
	for i < len(src) {
		c := src[i]

		switch {
		case c == '"' || c == '\'':
			j := skipString(src, i)
			out.WriteString(src[i:j])
			lastSignificant = '"'
			i = j
			continue
		case c == '`':
			j := skipTemplate(src, i)
			out.WriteString(src[i:j])
			lastSignificant = '`'
			i = j
			continue
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			j := i
			for j < len(src) && src[j] != '\n' {
				j++
			}
			out.WriteString(src[i:j])
			i = j
			continue
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			j := strings.Index(src[i+2:], "*/")
			if j < 0 {
				out.WriteString(src[i:])
				i = len(src)
				continue
			}
			end := i + 2 + j + 2
			out.WriteString(src[i:end])
			i = end
			continue
		case c == '<' && jsxStartAllowed(src, i, lastSignificant):
			expr, next, err := parseJSXElement(src, i, opts)
			if err != nil {
				return "", err
			}
			out.WriteString(expr)
			i = next
			lastSignificant = ')'
			continue
		}

		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			lastSignificant = c
		}
		out.WriteByte(c)
		i++
	}
	return out.String(), nil
}

// jsxStartAllowed guards against reading a "<" comparison/generic operator
// as a JSX element open tag. It requires both a tag-shaped lookahead and an
// expression-position lookbehind.
func jsxStartAllowed(src string, i int, lastSignificant byte) bool {
	if i+1 >= len(src) {
		return false
	}
	n := src[i+1]
	if !(n == '/' || n == '>' || isJSXNameStart(n)) {
		return false
	}
	switch lastSignificant {
	case 0, '(', ',', '=', ':', '?', '{', '[', '&', '|', '!', ';', '>':
		return true
	default:
		return false
	}
}

func isJSXNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isJSXNamePart(c byte) bool {
	return isJSXNameStart(c) || (c >= '0' && c <= '9') || c == '-' || c == '.' || c == ':'
}

func skipString(src string, i int) int {
	quote := src[i]
	j := i + 1
	for j < len(src) {
		if src[j] == '\\' {
			j += 2
			continue
		}
		if src[j] == quote {
			return j + 1
		}
		j++
	}
	return len(src)
}

func skipTemplate(src string, i int) int {
	j := i + 1
	depth := 0
	for j < len(src) {
		if src[j] == '\\' {
			j += 2
			continue
		}
		if src[j] == '$' && j+1 < len(src) && src[j+1] == '{' {
			depth++
			j += 2
			continue
		}
		if src[j] == '}' && depth > 0 {
			depth--
			j++
			continue
		}
		if src[j] == '`' && depth == 0 {
			return j + 1
		}
		j++
	}
	return len(src)
}

type jsxAttr struct {
	name   string
	value  string // Go-source JS expression text, "" for spread
	spread bool
}

// parseJSXElement parses one element (or fragment) starting at src[i]=='<'
// and returns its h(...)/jsx(...) lowering plus the index just past the
// element's closing tag.
func parseJSXElement(src string, i int, opts Options) (string, int, error) {
	if i+1 >= len(src) {
		return "", i, fmt.Errorf("unterminated JSX at offset %d", i)
	}
	i++ // consume "<"

	if src[i] == '>' {
		// Fragment: <>...</>
		i++
		children, next, err := parseJSXChildren(src, i, "", opts)
		if err != nil {
			return "", i, err
		}
		return buildCall(opts, opts.JSXFragment, nil, children), next, nil
	}

	nameStart := i
	for i < len(src) && isJSXNamePart(src[i]) {
		i++
	}
	name := src[nameStart:i]

	var attrs []jsxAttr
	for i < len(src) {
		i = skipWS(src, i)
		if i >= len(src) {
			break
		}
		if src[i] == '/' || src[i] == '>' {
			break
		}
		if strings.HasPrefix(src[i:], "{...") {
			depth := 0
			j := i + 1
			for j < len(src) {
				if src[j] == '{' {
					depth++
				} else if src[j] == '}' {
					depth--
					if depth == 0 {
						j++
						break
					}
				}
				j++
			}
			expr := strings.TrimSpace(src[i+4 : j-1])
			lowered, err := lowerJSX(expr, opts)
			if err != nil {
				return "", i, err
			}
			attrs = append(attrs, jsxAttr{spread: true, value: lowered})
			i = j
			continue
		}

		attrStart := i
		for i < len(src) && isJSXNamePart(src[i]) {
			i++
		}
		attrName := src[attrStart:i]
		if attrName == "" {
			return "", i, fmt.Errorf("malformed JSX attribute near offset %d", i)
		}
		i = skipWS(src, i)
		if i < len(src) && src[i] == '=' {
			i++
			i = skipWS(src, i)
			if i < len(src) && (src[i] == '"' || src[i] == '\'') {
				end := skipString(src, i)
				attrs = append(attrs, jsxAttr{name: attrName, value: src[i:end]})
				i = end
			} else if i < len(src) && src[i] == '{' {
				depth := 0
				j := i
				for j < len(src) {
					if src[j] == '{' {
						depth++
					} else if src[j] == '}' {
						depth--
						if depth == 0 {
							j++
							break
						}
					}
					j++
				}
				expr := strings.TrimSpace(src[i+1 : j-1])
				lowered, err := lowerJSX(expr, opts)
				if err != nil {
					return "", i, err
				}
				attrs = append(attrs, jsxAttr{name: attrName, value: lowered})
				i = j
			}
		} else {
			attrs = append(attrs, jsxAttr{name: attrName, value: "true"})
		}
	}

	i = skipWS(src, i)
	if i < len(src) && src[i] == '/' && i+1 < len(src) && src[i+1] == '>' {
		return buildCall(opts, name, attrs, nil), i + 2, nil
	}
	if i >= len(src) || src[i] != '>' {
		return "", i, fmt.Errorf("malformed JSX open tag %q at offset %d", name, i)
	}
	i++ // consume ">"

	children, next, err := parseJSXChildren(src, i, name, opts)
	if err != nil {
		return "", i, err
	}
	return buildCall(opts, name, attrs, children), next, nil
}

func skipWS(src string, i int) int {
	for i < len(src) {
		c := src[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			i++
			continue
		}
		break
	}
	return i
}

// parseJSXChildren reads children up to (and past) the matching closing
// tag </tagName> or </>.
func parseJSXChildren(src string, i int, tagName string, opts Options) ([]string, int, error) {
	var children []string
	var textBuf strings.Builder

	flushText := func() {
		text := normalizeJSXText(textBuf.String())
		textBuf.Reset()
		if text != "" {
			children = append(children, fmt.Sprintf("%q", text))
		}
	}

	for i < len(src) {
		if strings.HasPrefix(src[i:], "</") {
			flushText()
			j := i + 2
			for j < len(src) && isJSXNamePart(src[j]) {
				j++
			}
			j = skipWS(src, j)
			if j >= len(src) || src[j] != '>' {
				return nil, i, fmt.Errorf("malformed JSX close tag near offset %d", i)
			}
			return children, j + 1, nil
		}
		if src[i] == '<' {
			flushText()
			expr, next, err := parseJSXElement(src, i, opts)
			if err != nil {
				return nil, i, err
			}
			children = append(children, expr)
			i = next
			continue
		}
		if src[i] == '{' {
			flushText()
			depth := 0
			j := i
			for j < len(src) {
				if src[j] == '{' {
					depth++
				} else if src[j] == '}' {
					depth--
					if depth == 0 {
						j++
						break
					}
				}
				j++
			}
			expr := strings.TrimSpace(src[i+1 : j-1])
			if expr != "" {
				lowered, err := lowerJSX(expr, opts)
				if err != nil {
					return nil, i, err
				}
				children = append(children, lowered)
			}
			i = j
			continue
		}
		textBuf.WriteByte(src[i])
		i++
	}
	return nil, i, fmt.Errorf("unterminated JSX children for <%s>", tagName)
}

// normalizeJSXText collapses JSX's whitespace-significance rules down to
// the common case: lines that are pure whitespace are dropped, remaining
// lines are joined with a single space, matching how JSX text nodes render
// in practice.
func normalizeJSXText(s string) string {
	lines := strings.Split(s, "\n")
	var kept []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, " ")
}

func buildCall(opts Options, tagOrName string, attrs []jsxAttr, children []string) string {
	var tagExpr string
	if tagOrName == "" {
		tagExpr = opts.JSXFragment
	} else if len(tagOrName) > 0 && tagOrName[0] >= 'a' && tagOrName[0] <= 'z' && !strings.Contains(tagOrName, ".") {
		tagExpr = fmt.Sprintf("%q", tagOrName)
	} else {
		tagExpr = tagOrName
	}

	var props strings.Builder
	props.WriteString("{")
	for idx, a := range attrs {
		if idx > 0 {
			props.WriteString(", ")
		}
		if a.spread {
			props.WriteString("...(" + a.value + ")")
		} else {
			props.WriteString(fmt.Sprintf("%q: %s", a.name, a.value))
		}
	}

	if opts.JSXAutomatic {
		if len(children) > 0 {
			if len(attrs) > 0 {
				props.WriteString(", ")
			}
			if len(children) == 1 {
				props.WriteString("children: " + children[0])
			} else {
				props.WriteString("children: [" + strings.Join(children, ", ") + "]")
			}
		}
		props.WriteString("}")
		fn := "jsx"
		if len(children) > 1 {
			fn = "jsxs"
		}
		return fmt.Sprintf("%s(%s, %s)", fn, tagExpr, props.String())
	}

	props.WriteString("}")
	factory := opts.JSXFactory
	if factory == "" {
		factory = "h"
	}
	propsArg := props.String()
	if len(attrs) == 0 {
		propsArg = "null"
	}
	args := []string{tagExpr, propsArg}
	args = append(args, children...)
	return fmt.Sprintf("%s(%s)", factory, strings.Join(args, ", "))
}
