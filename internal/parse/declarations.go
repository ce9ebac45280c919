package parse

import (
	"strings"

	"roguec/internal/ast"
	"roguec/internal/diag"
	"roguec/internal/token"
)

// Param is one method/routine parameter (spec §3 Method.parameters).
type Param struct {
	Name         string
	TypeName     string
	DefaultValue *ast.Cmd
}

// MethodDecl is a parsed method or routine declaration, not yet attached
// to a Type (that happens in the types package's organize pass).
type MethodDecl struct {
	Name       string
	Modifiers  []string // subset of "dynamic","macro","native","operator"
	Params     []Param
	ReturnType string
	Body       []*ast.Cmd
	NativeText string // populated when a "native"/"macro" modifier is present
	Token      token.Token
}

func (m *MethodDecl) hasModifier(name string) bool {
	for _, mod := range m.Modifiers {
		if mod == name {
			return true
		}
	}
	return false
}

// PropertyDecl covers both PROPERTIES and GLOBALS entries; the section
// they were read from determines which slice of Body they land in.
type PropertyDecl struct {
	Name         string
	TypeName     string
	InitialValue *ast.Cmd
	Token        token.Token
}

// DefinitionDecl is a DEFINITIONS-section named compile-time constant.
type DefinitionDecl struct {
	Name     string
	TypeName string
	Value    *ast.Cmd
	Token    token.Token
}

// EnumerateValue is one ENUMERATE-section entry; Value is nil unless an
// explicit `= N` override was given.
type EnumerateValue struct {
	Name  string
	Value *ast.Cmd
	Token token.Token
}

// Body is everything ParseBody extracts from one template's token span,
// ready for the types package to fold into a Type (spec §3 Type).
type Body struct {
	Enumerate   []EnumerateValue
	Definitions []DefinitionDecl
	Properties  []PropertyDecl
	Globals     []PropertyDecl
	Routines    []MethodDecl
	Methods     []MethodDecl
}

// ParseBody runs the full statement/expression grammar over one
// template's token span, dispatching on the ENUMERATE/DEFINITIONS/
// PROPERTIES/GLOBALS/METHODS/ROUTINES section headers (spec §4.4).
// Sections may repeat and appear in any order; whichever was seen last
// governs until the next header.
func ParseBody(tmpl *Template, file string) (*Body, *diag.Diagnostic) {
	tokens := tmpl.Tokens
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != token.EOF {
		tokens = append(append([]token.Token{}, tokens...), token.Token{Type: token.EOF, Filepath: file})
	}
	p := NewParser(tokens, file)
	body := &Body{}
	p.skipEOLs()
	for !p.isAtEnd() {
		switch p.peek().Type {
		case token.KwEnumerate:
			p.advance()
			p.skipEOLs()
			if err := p.parseEnumerateSection(body); err != nil {
				return nil, err
			}
		case token.KwDefs:
			p.advance()
			p.skipEOLs()
			if err := p.parseDefinitionsSection(body); err != nil {
				return nil, err
			}
		case token.KwProps:
			p.advance()
			p.skipEOLs()
			if err := p.parsePropertySection(&body.Properties); err != nil {
				return nil, err
			}
		case token.KwGlobals:
			p.advance()
			p.skipEOLs()
			if err := p.parsePropertySection(&body.Globals); err != nil {
				return nil, err
			}
		case token.KwMethods:
			p.advance()
			p.skipEOLs()
			if err := p.parseMethodSection(&body.Methods); err != nil {
				return nil, err
			}
		case token.KwRoutines:
			p.advance()
			p.skipEOLs()
			if err := p.parseMethodSection(&body.Routines); err != nil {
				return nil, err
			}
		default:
			tok := p.peek()
			return nil, p.errAt(tok, "expected a section header (ENUMERATE/DEFINITIONS/PROPERTIES/GLOBALS/METHODS/ROUTINES), got %s", tok.Type)
		}
		p.skipEOLs()
	}
	return body, nil
}

func (p *Parser) atSectionHeader() bool {
	return p.atAny(token.KwEnumerate, token.KwDefs, token.KwProps, token.KwGlobals, token.KwMethods, token.KwRoutines)
}

func (p *Parser) parseEnumerateSection(body *Body) *diag.Diagnostic {
	for !p.isAtEnd() && !p.atSectionHeader() {
		nameTok, err := p.consume(token.Identifier, "expected enumerate value name")
		if err != nil {
			return err
		}
		ev := EnumerateValue{Name: nameTok.Text(), Token: nameTok}
		if p.match(token.Equal) {
			v, err := p.Expression()
			if err != nil {
				return err
			}
			ev.Value = v
		}
		body.Enumerate = append(body.Enumerate, ev)
		if !p.match(token.Comma) {
			p.skipEOLs()
		}
	}
	return nil
}

func (p *Parser) parseDefinitionsSection(body *Body) *diag.Diagnostic {
	for !p.isAtEnd() && !p.atSectionHeader() {
		nameTok, err := p.consume(token.Identifier, "expected definition name")
		if err != nil {
			return err
		}
		def := DefinitionDecl{Name: nameTok.Text(), Token: nameTok}
		if p.match(token.Colon) {
			tt, err := p.consume(token.TypeIdentifier, "expected type name")
			if err != nil {
				return err
			}
			def.TypeName = tt.Text()
		}
		if _, err := p.consume(token.Equal, "expected '=' in DEFINITIONS entry"); err != nil {
			return err
		}
		v, err := p.Expression()
		if err != nil {
			return err
		}
		def.Value = v
		body.Definitions = append(body.Definitions, def)
		p.skipEOLs()
	}
	return nil
}

// parsePropertySection handles both PROPERTIES and GLOBALS (identical
// grammar): one or more comma-separated names sharing a type, an
// optional initial value, one declaration per line (spec §3 Type
// properties/globals).
func (p *Parser) parsePropertySection(out *[]PropertyDecl) *diag.Diagnostic {
	for !p.isAtEnd() && !p.atSectionHeader() {
		var names []token.Token
		for {
			nameTok, err := p.consume(token.Identifier, "expected property name")
			if err != nil {
				return err
			}
			names = append(names, nameTok)
			if !p.match(token.Comma) {
				break
			}
		}
		typeName := ""
		if p.match(token.Colon) {
			tt, err := p.consume(token.TypeIdentifier, "expected type name")
			if err != nil {
				return err
			}
			typeName = tt.Text()
		}
		var initVal *ast.Cmd
		if p.match(token.Equal) {
			v, err := p.Expression()
			if err != nil {
				return err
			}
			initVal = v
		}
		for _, nameTok := range names {
			*out = append(*out, PropertyDecl{Name: nameTok.Text(), TypeName: typeName, InitialValue: initVal, Token: nameTok})
		}
		p.skipEOLs()
	}
	return nil
}

func (p *Parser) parseMethodSection(out *[]MethodDecl) *diag.Diagnostic {
	for !p.isAtEnd() && !p.atSectionHeader() {
		m, err := p.methodDecl()
		if err != nil {
			return err
		}
		*out = append(*out, *m)
		p.skipEOLs()
	}
	return nil
}

var modifierKeywords = map[token.Type]string{
	token.KwDynamic: "dynamic", token.KwMacro: "macro",
	token.KwNative: "native", token.KwOperator: "operator",
}

// methodDecl parses one `[modifiers] method|routine Name ( params )
// [:ReturnType] body endMethod` declaration (spec §3 Method, §4.3).
func (p *Parser) methodDecl() (*MethodDecl, *diag.Diagnostic) {
	var modifiers []string
	for {
		mod, ok := modifierKeywords[p.peek().Type]
		if !ok {
			break
		}
		p.advance()
		modifiers = append(modifiers, mod)
	}
	declTok := p.peek()
	if !p.check(token.KwMethod) && !p.check(token.KwRoutine) {
		return nil, p.errAt(declTok, "expected 'method' or 'routine', got %s", declTok.Type)
	}
	p.advance()

	var nameTok token.Token
	var err *diag.Diagnostic
	if p.check(token.Identifier) || p.check(token.TypeIdentifier) {
		nameTok = p.advance()
	} else if contains(modifiers, "operator") {
		nameTok, err = p.operatorSymbolName()
		if err != nil {
			return nil, err
		}
	} else {
		nameTok, err = p.consume(token.Identifier, "expected method name")
		if err != nil {
			return nil, err
		}
	}

	m := &MethodDecl{Name: nameTok.Text(), Modifiers: modifiers, Token: declTok}

	if p.check(token.LParen) {
		p.advance()
		for !p.check(token.RParen) {
			pNameTok, err := p.consume(token.Identifier, "expected parameter name")
			if err != nil {
				return nil, err
			}
			param := Param{Name: pNameTok.Text()}
			if p.match(token.Colon) {
				tt, err := p.consume(token.TypeIdentifier, "expected parameter type")
				if err != nil {
					return nil, err
				}
				param.TypeName = tt.Text()
			}
			if p.match(token.Equal) {
				v, err := p.Expression()
				if err != nil {
					return nil, err
				}
				param.DefaultValue = v
			}
			m.Params = append(m.Params, param)
			if !p.match(token.Comma) {
				break
			}
		}
		if _, err := p.consume(token.RParen, "expected ')' after parameter list"); err != nil {
			return nil, err
		}
	}

	if p.match(token.Colon) {
		tt, err := p.consume(token.TypeIdentifier, "expected return type after ':'")
		if err != nil {
			return nil, err
		}
		m.ReturnType = tt.Text()
	}

	if m.hasModifier("native") || m.hasModifier("macro") {
		if p.check(token.LBracket) {
			text, err := p.rawNativeSplice()
			if err != nil {
				return nil, err
			}
			m.NativeText = text
		}
		p.skipEOLs()
		p.match(token.KwEndMethod)
		return m, nil
	}

	if p.check(token.Equal) {
		p.advance()
		e, err := p.Expression()
		if err != nil {
			return nil, err
		}
		m.Body = []*ast.Cmd{{Kind: ast.KindReturn, Token: declTok, A: e}}
		return m, nil
	}

	body, err := p.statementsUntil(token.KwEndMethod)
	if err != nil {
		return nil, err
	}
	m.Body = body
	if _, err := p.consume(token.KwEndMethod, "expected 'endMethod'"); err != nil {
		return nil, err
	}
	return m, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// operatorSymbolName lets `operator method + (...)` name itself after an
// operator symbol rather than an identifier (spec §3 "operator overload
// declarations"); the symbol's token text becomes the method's Name so
// CandidateMethods can match it by the same spelling the resolver uses
// for primitive operators (spec §4.5).
func (p *Parser) operatorSymbolName() (token.Token, *diag.Diagnostic) {
	tok := p.peek()
	switch tok.Type {
	case token.Plus, token.Minus, token.Star, token.Slash, token.Percent, token.Power,
		token.Tilde, token.Pipe, token.Amp, token.EqualEqual, token.NotEqual,
		token.LT, token.LE, token.GT, token.GE:
		p.advance()
		return token.Token{Type: token.Identifier, Filepath: tok.Filepath, Line: tok.Line, Column: tok.Column,
			Payload: token.Payload{Kind: token.PayloadString, String: string(tok.Type)}}, nil
	}
	return token.Token{}, p.errAt(tok, "expected operator symbol after 'operator method'")
}

// rawNativeSplice reconstructs the source text of a `[ ... ]` native
// code block from its tokens. Formatting is not preserved exactly (the
// tokenizer already discarded whitespace), but NativeCode markers like
// $this/$param0/$property_name survive as identifiers the emitter
// recognizes verbatim (spec §5 NativeCode substitution).
func (p *Parser) rawNativeSplice() (string, *diag.Diagnostic) {
	open := p.advance() // [
	var sb strings.Builder
	depth := 1
	for !p.isAtEnd() {
		tok := p.peek()
		switch tok.Type {
		case token.LBracket:
			depth++
		case token.RBracket:
			depth--
			if depth == 0 {
				p.advance()
				return sb.String(), nil
			}
		}
		if tok.Type == token.EOL {
			sb.WriteByte('\n')
		} else {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(tok.Text())
			if tok.Text() == "" {
				sb.WriteString(string(tok.Type))
			}
		}
		p.advance()
	}
	return "", p.errAt(open, "unterminated native code splice: missing ']'")
}
