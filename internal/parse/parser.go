// Package parse is the recursive-descent parser (spec §4.3). It runs in
// two passes, mirroring spec §4.4's "defined lazily... specializer slots
// resolved, parse tokens expanded": ScanTemplates does a single shallow
// pass collecting Template/Augment token blocks and top-level
// $requisite items without parsing their bodies (a class body may
// reference a type-parameter name that isn't resolvable until
// instantiation substitutes it); ParseBody runs the full expression/
// statement grammar over one template's (possibly substituted) token
// list to produce concrete Definitions/Properties/Globals/Routines/
// Methods. Grounded on the teacher's internal/parser/parser.go
// (current-index walk over a flat token slice, match/check/consume
// helpers, expr()/statement() recursive structure).
package parse

import (
	"roguec/internal/diag"
	"roguec/internal/token"
)

// Template is a parsed-but-not-instantiated class/aspect/compound/
// primitive blueprint (spec §3 Template).
type Template struct {
	Name       string
	Kind       string // "class" | "aspect" | "compound" | "primitive"
	TypeParams []string
	Attributes []string
	BaseTypes  []string // declared base class/aspects, as written (may reference TypeParams)
	Tokens     []token.Token
	DeclToken  token.Token
}

// Augment is a parsed-but-not-applied method/property injection
// (spec §3 Augment).
type Augment struct {
	TargetName string
	BaseTypes  []string
	Tokens     []token.Token
	DeclToken  token.Token
}

// Requisite is a top-level `$requisite Name.signature` pin (spec §4.3).
type Requisite struct {
	Name      string
	Signature string
	Token     token.Token
}

// Unit is everything ScanTemplates collects from one token stream.
type Unit struct {
	Templates  []*Template
	Augments   []*Augment
	Requisites []Requisite
}

// Parser walks a flat token slice with a single cursor, like the
// teacher's Parser.
type Parser struct {
	tokens  []token.Token
	current int
	file    string
}

func NewParser(tokens []token.Token, file string) *Parser {
	return &Parser{tokens: tokens, file: file}
}

func (p *Parser) peek() token.Token {
	return p.tokens[p.current]
}

func (p *Parser) peekAt(n int) token.Token {
	idx := p.current + n
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[idx]
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == token.EOF
}

func (p *Parser) advance() token.Token {
	t := p.peek()
	if !p.isAtEnd() {
		p.current++
	}
	return t
}

func (p *Parser) check(typ token.Type) bool {
	return p.peek().Type == typ
}

func (p *Parser) match(typ token.Type) bool {
	if p.check(typ) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) skipEOLs() {
	for p.check(token.EOL) {
		p.advance()
	}
}

func (p *Parser) consume(typ token.Type, msg string) (token.Token, *diag.Diagnostic) {
	if p.check(typ) {
		return p.advance(), nil
	}
	tok := p.peek()
	return tok, p.errAt(tok, "%s (got %s)", msg, tok.Type)
}

func (p *Parser) errAt(tok token.Token, format string, args ...interface{}) *diag.Diagnostic {
	return diag.New(diag.Syntax, diag.Location{Filepath: tok.Filepath, Line: tok.Line, Column: tok.Column}, format, args...)
}

// ScanTemplates performs the outer pass described above.
func ScanTemplates(tokens []token.Token, file string) (*Unit, *diag.Diagnostic) {
	p := NewParser(tokens, file)
	u := &Unit{}
	p.skipEOLs()
	for !p.isAtEnd() {
		switch p.peek().Type {
		case token.KwClass, token.KwAspect, token.KwCompound, token.KwPrimitive:
			tmpl, err := p.scanTemplate()
			if err != nil {
				return nil, err
			}
			u.Templates = append(u.Templates, tmpl)
		case token.KwAugment:
			aug, err := p.scanAugment()
			if err != nil {
				return nil, err
			}
			u.Augments = append(u.Augments, aug)
		case token.KwRequisite:
			tok := p.advance()
			nameTok, err := p.consume(token.TypeIdentifier, "expected type name after $requisite")
			if err != nil {
				if idTok, err2 := p.consume(token.Identifier, "expected name after $requisite"); err2 == nil {
					nameTok = idTok
				} else {
					return nil, err
				}
			}
			sig := ""
			if p.match(token.Dot) {
				sigTok, err := p.consume(token.Identifier, "expected method name after '.'")
				if err != nil {
					return nil, err
				}
				sig = sigTok.Text()
			}
			u.Requisites = append(u.Requisites, Requisite{Name: nameTok.Text(), Signature: sig, Token: tok})
			p.skipEOLs()
		default:
			tok := p.peek()
			return nil, p.errAt(tok, "expected class/aspect/compound/primitive/augment/$requisite, got %s", tok.Type)
		}
		p.skipEOLs()
	}
	return u, nil
}

func (p *Parser) scanTemplate() (*Template, *diag.Diagnostic) {
	declTok := p.advance()
	kind := string(declTok.Type)
	nameTok, err := p.consume(token.TypeIdentifier, "expected type name")
	if err != nil {
		return nil, err
	}
	tmpl := &Template{Name: nameTok.Text(), Kind: kind, DeclToken: declTok}

	if p.match(token.LSpec) {
		for {
			tp, err := p.consume(token.TypeIdentifier, "expected type parameter name")
			if err != nil {
				return nil, err
			}
			tmpl.TypeParams = append(tmpl.TypeParams, tp.Text())
			if !p.match(token.Comma) {
				break
			}
		}
		if _, err := p.consume(token.RSpec, "expected '>>' closing type parameter list"); err != nil {
			return nil, err
		}
	}

	if p.match(token.KwIs) {
		for {
			bt, err := p.consume(token.TypeIdentifier, "expected base type name")
			if err != nil {
				return nil, err
			}
			tmpl.BaseTypes = append(tmpl.BaseTypes, bt.Text())
			if !p.match(token.Comma) {
				break
			}
		}
	}
	p.skipEOLs()

	endKind := map[string]token.Type{
		"class": token.KwEndClass, "aspect": token.KwEndClass,
		"compound": token.KwEndClass, "primitive": token.KwEndClass,
	}[kind]
	start := p.current
	depth := 0
	for !p.isAtEnd() {
		switch p.peek().Type {
		case token.KwClass, token.KwAspect, token.KwCompound, token.KwPrimitive:
			depth++
		case endKind:
			if depth == 0 {
				tmpl.Tokens = p.tokens[start:p.current]
				p.advance()
				return tmpl, nil
			}
			depth--
		}
		p.advance()
	}
	return nil, p.errAt(declTok, "unterminated %s %s: missing endClass", kind, tmpl.Name)
}

func (p *Parser) scanAugment() (*Augment, *diag.Diagnostic) {
	declTok := p.advance()
	nameTok, err := p.consume(token.TypeIdentifier, "expected type name after augment")
	if err != nil {
		return nil, err
	}
	aug := &Augment{TargetName: nameTok.Text(), DeclToken: declTok}
	if p.match(token.KwIs) {
		for {
			bt, err := p.consume(token.TypeIdentifier, "expected base type name")
			if err != nil {
				return nil, err
			}
			aug.BaseTypes = append(aug.BaseTypes, bt.Text())
			if !p.match(token.Comma) {
				break
			}
		}
	}
	p.skipEOLs()
	start := p.current
	for !p.isAtEnd() {
		if p.peek().Type == token.KwEndAugment {
			aug.Tokens = p.tokens[start:p.current]
			p.advance()
			return aug, nil
		}
		p.advance()
	}
	return nil, p.errAt(declTok, "unterminated augment %s: missing endAugment", aug.TargetName)
}
