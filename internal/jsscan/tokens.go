package jsscan

// PublicToken is the subset of the internal lexer's token shape the
// Transformer needs to do token-boundary-safe rewrites (spec §4.3:
// "Substitutions are textual on token boundaries only").
type PublicToken struct {
	Kind  string // "ident", "keyword", "string", "template", "number", "punct", "regexp"
	Text  string
	Start int
	End   int
}

func (k tokenKind) String() string {
	switch k {
	case tIdent:
		return "ident"
	case tKeyword:
		return "keyword"
	case tString:
		return "string"
	case tTemplate:
		return "template"
	case tNumber:
		return "number"
	case tPunct:
		return "punct"
	case tRegexp:
		return "regexp"
	default:
		return "eof"
	}
}

// Tokenize runs the same lexer Parse uses and returns every token,
// excluding EOF, so other packages rewrite source without duplicating the
// comment/string/template/regexp-skipping logic.
func Tokenize(source string) []PublicToken {
	l := newLexer(source)
	var out []PublicToken
	for l.cur.kind != tEOF {
		out = append(out, PublicToken{
			Kind:  l.cur.kind.String(),
			Text:  l.cur.text,
			Start: l.cur.start,
			End:   l.cur.end,
		})
		l.advance()
	}
	return out
}
