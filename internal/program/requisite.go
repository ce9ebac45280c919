package program

import (
	"strings"

	"roguec/internal/diag"
	"roguec/internal/parse"
	"roguec/internal/token"
)

// parseAugmentBody reuses parse.ParseBody's section grammar for an
// augment's token span: ParseBody only ever reads tmpl.Tokens, so an
// Augment (which carries the same flat token list as a Template, minus
// the class-only fields) parses the same way under a throwaway
// Template wrapper.
func parseAugmentBody(aug *parse.Augment) (*parse.Body, *diag.Diagnostic) {
	wrapper := &parse.Template{Name: aug.TargetName, Tokens: aug.Tokens, DeclToken: aug.DeclToken}
	return parse.ParseBody(wrapper, aug.DeclToken.Filepath)
}

// parseRequisiteFlags turns --requisite CLI values ("Name" or
// "Name.signature") into parse.Requisite entries, matching the
// $requisite directive's own shape (spec §6).
func parseRequisiteFlags(flags []string) []parse.Requisite {
	var out []parse.Requisite
	for _, f := range flags {
		name, sig := f, ""
		if i := strings.IndexByte(f, '.'); i >= 0 {
			name, sig = f[:i], f[i+1:]
		}
		out = append(out, parse.Requisite{Name: name, Signature: sig, Token: token.Token{}})
	}
	return out
}
