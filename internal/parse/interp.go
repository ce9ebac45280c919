package parse

import "roguec/internal/token"

// formatPart is one segment of a string literal that may contain
// $(...)  inline-expression markers (spec §4.1, §4.3): either literal
// text or the raw source text of an embedded expression.
type formatPart struct {
	text   string
	isExpr bool
}

// splitFormatMarkers scans a string literal's payload for $(...) markers,
// tracking paren depth so a nested call inside the marker doesn't end it
// early. hasExpr is false when no marker is present, in which case the
// caller should treat the whole literal as a plain LiteralString.
func splitFormatMarkers(s string) (parts []formatPart, hasExpr bool) {
	var lit []byte
	i := 0
	for i < len(s) {
		if s[i] == '$' && i+1 < len(s) && s[i+1] == '(' {
			if len(lit) > 0 {
				parts = append(parts, formatPart{text: string(lit)})
				lit = lit[:0]
			}
			depth := 1
			j := i + 2
			for j < len(s) && depth > 0 {
				switch s[j] {
				case '(':
					depth++
				case ')':
					depth--
				}
				if depth > 0 {
					j++
				}
			}
			parts = append(parts, formatPart{text: s[i+2 : j], isExpr: true})
			hasExpr = true
			i = j + 1
			continue
		}
		lit = append(lit, s[i])
		i++
	}
	if len(lit) > 0 {
		parts = append(parts, formatPart{text: string(lit)})
	}
	return parts, hasExpr
}

// lexExprTokens tokenizes the raw text of one $(...) marker so it can be
// parsed as an ordinary expression; errors are surfaced as a single
// zero-token slice so the caller's Expression() naturally reports
// "unexpected token EOF", which is precise enough for a malformed
// interpolation (a rare hand-authoring mistake).
func lexExprTokens(src string, at token.Token) []token.Token {
	tk := token.New(at.Filepath, src)
	toks, err := tk.Scan()
	if err != nil || len(toks) == 0 {
		return []token.Token{{Type: token.EOF, Filepath: at.Filepath, Line: at.Line, Column: at.Column}}
	}
	if toks[len(toks)-1].Type != token.EOF {
		toks = append(toks, token.Token{Type: token.EOF, Filepath: at.Filepath, Line: at.Line, Column: at.Column})
	}
	return toks
}
