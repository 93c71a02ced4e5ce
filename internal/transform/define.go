package transform

import (
	"strings"

	"github.com/gobundle/gobundle/internal/jsscan"
)

// substituteDefines replaces every read occurrence of a configured dotted
// identifier path (e.g. "process.env.NODE_ENV") with its literal
// replacement text, token-boundary-safe via jsscan.Tokenize. A chain is
// substituted only when it's read in full: not assigned to, and not
// itself a prefix of a longer member chain (so a "process.env" define
// doesn't clip "process.env.NODE_ENV" in half).
func substituteDefines(source string, defines map[string]string) string {
	if len(defines) == 0 {
		return source
	}
	toks := jsscan.Tokenize(source)

	paths := make(map[string]string, len(defines))
	for k, v := range defines {
		paths[k] = v
	}

	// Every kept/replaced token is followed by a space, mirroring ts.go's
	// eraseTypeScript: jsscan's lexer has already stripped the original
	// trivia between tokens, so writing tokens back to back with nothing
	// re-inserted between them would merge adjacent tokens together.
	var out strings.Builder
	i := 0
	for i < len(toks) {
		if toks[i].Kind != "ident" && toks[i].Kind != "keyword" {
			out.WriteString(toks[i].Text)
			out.WriteByte(' ')
			i++
			continue
		}

		matchLen, replacement := matchDefinePath(toks, i, paths)
		if matchLen == 0 {
			out.WriteString(toks[i].Text)
			out.WriteByte(' ')
			i++
			continue
		}

		out.WriteString(replacement)
		out.WriteByte(' ')
		i += matchLen
	}
	return out.String()
}

// matchDefinePath tries every configured path against the dotted chain
// starting at toks[idx], preferring the longest match, and refuses a match
// that's immediately assigned to ("=" not "==="/"=>") or is a strict prefix
// of a longer chain continuing past the matched path.
func matchDefinePath(toks []jsscan.PublicToken, idx int, paths map[string]string) (int, string) {
	bestLen := 0
	bestRepl := ""

	for path, repl := range paths {
		segs := strings.Split(path, ".")
		end := idx
		ok := true
		for si, seg := range segs {
			if end >= len(toks) || toks[end].Text != seg {
				ok = false
				break
			}
			end++
			if si < len(segs)-1 {
				if end >= len(toks) || toks[end].Text != "." {
					ok = false
					break
				}
				end++
			}
		}
		if !ok {
			continue
		}
		if end < len(toks) && toks[end].Text == "." {
			continue // chain continues past the configured path; not a match
		}
		if end < len(toks) && toks[end].Text == "=" {
			if !(end+1 < len(toks) && toks[end+1].Text == "=") {
				continue // plain assignment target, not a read
			}
		}
		if end-idx > bestLen {
			bestLen = end - idx
			bestRepl = repl
		}
	}
	return bestLen, bestRepl
}
