package parse

import (
	"roguec/internal/ast"
	"roguec/internal/diag"
	"roguec/internal/token"
)

// Expression precedence, lowest to highest (spec §4.3):
//   range -> xor -> or -> and -> comparison -> bitwise_xor -> bitwise_or
//   -> bitwise_and -> shift -> add/sub -> mul/div/mod -> power (right-assoc)
//   -> pre-unary -> post-unary -> member-access -> term
func (p *Parser) Expression() (*ast.Cmd, *diag.Diagnostic) {
	return p.rangeExpr()
}

func (p *Parser) rangeExpr() (*ast.Cmd, *diag.Diagnostic) {
	left, err := p.xorExpr()
	if err != nil {
		return nil, err
	}
	for p.check(token.Range) || p.check(token.RangeUpTo) || p.check(token.RangeDownT) {
		op := p.advance()
		right, err := p.xorExpr()
		if err != nil {
			return nil, err
		}
		kind := ast.KindRange
		if op.Type != token.Range {
			kind = ast.KindRangeUpTo
		}
		left = &ast.Cmd{Kind: kind, Token: op, A: left, B: right}
	}
	return left, nil
}

func (p *Parser) xorExpr() (*ast.Cmd, *diag.Diagnostic) {
	return p.leftAssocBinary(p.orExpr, map[token.Type]ast.Kind{token.Xor: ast.KindLogicalXor})
}

func (p *Parser) orExpr() (*ast.Cmd, *diag.Diagnostic) {
	return p.leftAssocBinary(p.andExpr, map[token.Type]ast.Kind{token.OrOr: ast.KindLogicalOr})
}

func (p *Parser) andExpr() (*ast.Cmd, *diag.Diagnostic) {
	return p.leftAssocBinary(p.comparisonExpr, map[token.Type]ast.Kind{token.AndAnd: ast.KindLogicalAnd})
}

var comparisonOps = map[token.Type]ast.Kind{
	token.EqualEqual: ast.KindCompareEQ, token.NotEqual: ast.KindCompareNE,
	token.LT: ast.KindCompareLT, token.LE: ast.KindCompareLE,
	token.GT: ast.KindCompareGT, token.GE: ast.KindCompareGE,
	token.KwIs: ast.KindCompareIs, token.KwIsNot: ast.KindCompareIsNot,
	token.KwInstanceOf: ast.KindInstanceOf,
}

// comparisonExpr is non-associative: at most one comparison operator per
// expression (spec §4.3).
func (p *Parser) comparisonExpr() (*ast.Cmd, *diag.Diagnostic) {
	left, err := p.bitwiseXorExpr()
	if err != nil {
		return nil, err
	}
	if kind, ok := comparisonOps[p.peek().Type]; ok {
		op := p.advance()
		right, err := p.bitwiseXorExpr()
		if err != nil {
			return nil, err
		}
		if kind == ast.KindInstanceOf && op.Type == token.KwNotInstanceOf {
			n := &ast.Cmd{Kind: ast.KindLogicalNot, Token: op}
			n.A = &ast.Cmd{Kind: ast.KindInstanceOf, Token: op, A: left, B: right}
			return n, nil
		}
		return &ast.Cmd{Kind: kind, Token: op, A: left, B: right}, nil
	}
	if p.check(token.KwNotInstanceOf) {
		op := p.advance()
		right, err := p.bitwiseXorExpr()
		if err != nil {
			return nil, err
		}
		n := &ast.Cmd{Kind: ast.KindLogicalNot, Token: op}
		n.A = &ast.Cmd{Kind: ast.KindInstanceOf, Token: op, A: left, B: right}
		return n, nil
	}
	return left, nil
}

func (p *Parser) bitwiseXorExpr() (*ast.Cmd, *diag.Diagnostic) {
	return p.leftAssocBinary(p.bitwiseOrExpr, map[token.Type]ast.Kind{token.Tilde: ast.KindBitwiseXor})
}

func (p *Parser) bitwiseOrExpr() (*ast.Cmd, *diag.Diagnostic) {
	return p.leftAssocBinary(p.bitwiseAndExpr, map[token.Type]ast.Kind{token.Pipe: ast.KindBitwiseOr})
}

func (p *Parser) bitwiseAndExpr() (*ast.Cmd, *diag.Diagnostic) {
	return p.leftAssocBinary(p.shiftExpr, map[token.Type]ast.Kind{token.Amp: ast.KindBitwiseAnd})
}

func (p *Parser) shiftExpr() (*ast.Cmd, *diag.Diagnostic) {
	return p.leftAssocBinary(p.addExpr, map[token.Type]ast.Kind{
		token.ShiftLeft: ast.KindShiftLeft, token.ShiftRight: ast.KindShiftRight,
		token.ShiftRightX: ast.KindShiftRightX,
	})
}

func (p *Parser) addExpr() (*ast.Cmd, *diag.Diagnostic) {
	return p.leftAssocBinary(p.mulExpr, map[token.Type]ast.Kind{
		token.Plus: ast.KindAdd, token.Minus: ast.KindSubtract,
	})
}

func (p *Parser) mulExpr() (*ast.Cmd, *diag.Diagnostic) {
	return p.leftAssocBinary(p.powerExpr, map[token.Type]ast.Kind{
		token.Star: ast.KindMultiply, token.Slash: ast.KindDivide, token.Percent: ast.KindMod,
	})
}

// powerExpr is right-associative (spec §4.3).
func (p *Parser) powerExpr() (*ast.Cmd, *diag.Diagnostic) {
	left, err := p.preUnaryExpr()
	if err != nil {
		return nil, err
	}
	if p.check(token.Power) {
		op := p.advance()
		right, err := p.powerExpr()
		if err != nil {
			return nil, err
		}
		return &ast.Cmd{Kind: ast.KindPower, Token: op, A: left, B: right}, nil
	}
	return left, nil
}

func (p *Parser) leftAssocBinary(next func() (*ast.Cmd, *diag.Diagnostic), ops map[token.Type]ast.Kind) (*ast.Cmd, *diag.Diagnostic) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		kind, ok := ops[p.peek().Type]
		if !ok {
			return left, nil
		}
		op := p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &ast.Cmd{Kind: kind, Token: op, A: left, B: right}
	}
}

func (p *Parser) preUnaryExpr() (*ast.Cmd, *diag.Diagnostic) {
	switch p.peek().Type {
	case token.Minus:
		op := p.advance()
		operand, err := p.preUnaryExpr()
		if err != nil {
			return nil, err
		}
		return &ast.Cmd{Kind: ast.KindNegate, Token: op, A: operand}, nil
	case token.Bang, token.Not:
		op := p.advance()
		operand, err := p.preUnaryExpr()
		if err != nil {
			return nil, err
		}
		return &ast.Cmd{Kind: ast.KindLogicalNot, Token: op, A: operand}, nil
	case token.Tilde:
		op := p.advance()
		operand, err := p.preUnaryExpr()
		if err != nil {
			return nil, err
		}
		return &ast.Cmd{Kind: ast.KindBitwiseNot, Token: op, A: operand}, nil
	default:
		return p.postUnaryExpr()
	}
}

func (p *Parser) postUnaryExpr() (*ast.Cmd, *diag.Diagnostic) {
	operand, err := p.memberAccessExpr()
	if err != nil {
		return nil, err
	}
	for p.check(token.PlusPlus) || p.check(token.MinusMinus) {
		op := p.advance()
		delta := int32(1)
		if op.Type == token.MinusMinus {
			delta = -1
		}
		rhs := &ast.Cmd{Kind: ast.KindAdd, Token: op, A: operand, B: &ast.Cmd{Kind: ast.KindLiteralInteger, Token: op, IntegerValue: delta}}
		operand = &ast.Cmd{Kind: ast.KindAssign, Token: op, A: operand, B: rhs}
	}
	return operand, nil
}

// memberAccessExpr handles `.`, `(...)` calls, and `[...]` indexing, left
// to right. `<<...>>` specializers directly after a name are read by
// termExpr.
func (p *Parser) memberAccessExpr() (*ast.Cmd, *diag.Diagnostic) {
	expr, err := p.termExpr()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().Type {
		case token.Dot:
			dot := p.advance()
			nameTok, err := p.consumeName()
			if err != nil {
				return nil, err
			}
			access := &ast.Cmd{Kind: ast.KindAccess, Token: dot, A: expr, Name: nameTok.Text()}
			if p.check(token.LParen) {
				args, err := p.callArgs()
				if err != nil {
					return nil, err
				}
				access.List = args
			}
			expr = access
		case token.LParen:
			if expr.Kind == ast.KindAccess {
				args, err := p.callArgs()
				if err != nil {
					return nil, err
				}
				expr.List = args
				continue
			}
			args, err := p.callArgs()
			if err != nil {
				return nil, err
			}
			expr = &ast.Cmd{Kind: ast.KindAccess, Token: expr.Token, A: expr, List: args}
		case token.LBracket:
			lb := p.advance()
			idx, err := p.Expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.consume(token.RBracket, "expected ']'"); err != nil {
				return nil, err
			}
			expr = &ast.Cmd{Kind: ast.KindElementAccess, Token: lb, A: expr, B: idx}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) consumeName() (token.Token, *diag.Diagnostic) {
	if p.check(token.Identifier) || p.check(token.TypeIdentifier) {
		return p.advance(), nil
	}
	return p.consume(token.Identifier, "expected a name after '.'")
}

func (p *Parser) callArgs() ([]*ast.Cmd, *diag.Diagnostic) {
	if _, err := p.consume(token.LParen, "expected '('"); err != nil {
		return nil, err
	}
	var args []*ast.Cmd
	for !p.check(token.RParen) {
		a, err := p.Expression()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if !p.match(token.Comma) {
			break
		}
	}
	if _, err := p.consume(token.RParen, "expected ')' after argument list"); err != nil {
		return nil, err
	}
	return args, nil
}

// termExpr parses literals, `this`, `prior`, `null`, `pi`, grouped
// `(...)`, identifiers, `function`, list `[...]`, compound `{...}`, and
// bare type-name terms (spec §4.3).
func (p *Parser) termExpr() (*ast.Cmd, *diag.Diagnostic) {
	tok := p.peek()
	switch tok.Type {
	case token.LiteralInteger:
		p.advance()
		return &ast.Cmd{Kind: ast.KindLiteralInteger, Token: tok, IntegerValue: tok.Payload.Integer}, nil
	case token.LiteralLong:
		p.advance()
		return &ast.Cmd{Kind: ast.KindLiteralLong, Token: tok, LongValue: tok.Payload.Long}, nil
	case token.LiteralReal:
		p.advance()
		return &ast.Cmd{Kind: ast.KindLiteralReal, Token: tok, RealValue: tok.Payload.Real}, nil
	case token.LiteralCharacter:
		p.advance()
		return &ast.Cmd{Kind: ast.KindLiteralCharacter, Token: tok, CharValue: tok.Payload.Character}, nil
	case token.LiteralString:
		p.advance()
		return p.formattedOrPlainString(tok)
	case token.KwTrue:
		p.advance()
		return &ast.Cmd{Kind: ast.KindLiteralLogical, Token: tok, BoolValue: true}, nil
	case token.KwFalse:
		p.advance()
		return &ast.Cmd{Kind: ast.KindLiteralLogical, Token: tok, BoolValue: false}, nil
	case token.KwNull:
		p.advance()
		return &ast.Cmd{Kind: ast.KindLiteralNull, Token: tok}, nil
	case token.KwPi:
		p.advance()
		return &ast.Cmd{Kind: ast.KindLiteralReal, Token: tok, RealValue: 3.14159265358979323846}, nil
	case token.KwThis:
		p.advance()
		return &ast.Cmd{Kind: ast.KindAccess, Token: tok, Name: "this"}, nil
	case token.KwPrior:
		p.advance()
		nameTok, err := p.consumeName()
		if err != nil {
			return nil, err
		}
		args, err := p.callArgs()
		if err != nil {
			return nil, err
		}
		return &ast.Cmd{Kind: ast.KindCallPriorMethod, Token: tok, Name: nameTok.Text(), List: args}, nil
	case token.LParen:
		p.advance()
		e, err := p.Expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.RParen, "expected ')'"); err != nil {
			return nil, err
		}
		return e, nil
	case token.LBracket:
		return p.listLiteral(tok)
	case token.LBrace:
		return p.compoundLiteral(tok)
	case token.KwFunction:
		return p.lambdaLiteral(tok)
	case token.Identifier, token.TypeIdentifier:
		p.advance()
		name := tok.Text()
		node := &ast.Cmd{Kind: ast.KindAccess, Token: tok, Name: name}
		if tok.Type == token.TypeIdentifier {
			node.TypeName = name
		}
		if p.check(token.LSpec) && p.looksLikeSpecializerList() {
			specs, err := p.specializerList()
			if err != nil {
				return nil, err
			}
			node.List = specs
		}
		if p.check(token.LParen) {
			args, err := p.callArgs()
			if err != nil {
				return nil, err
			}
			node.List = append(node.List, args...)
		}
		return node, nil
	default:
		return nil, p.errAt(tok, "unexpected token %s in expression", tok.Type)
	}
}

// looksLikeSpecializerList reports whether the next token is `<<`. It is
// called right after an Identifier or TypeIdentifier term; the tokenizer
// lexes left shift as `<<<`, so a `<<` token there always opens a
// specializer list.
func (p *Parser) looksLikeSpecializerList() bool {
	return p.peek().Type == token.LSpec
}

func (p *Parser) specializerList() ([]*ast.Cmd, *diag.Diagnostic) {
	p.advance() // <<
	var specs []*ast.Cmd
	for {
		tp, err := p.consume(token.TypeIdentifier, "expected specializer type name")
		if err != nil {
			return nil, err
		}
		specs = append(specs, &ast.Cmd{Kind: ast.KindAccess, Token: tp, TypeName: tp.Text()})
		if !p.match(token.Comma) {
			break
		}
	}
	if _, err := p.consume(token.RSpec, "expected '>>' closing specializer list"); err != nil {
		return nil, err
	}
	return specs, nil
}

func (p *Parser) listLiteral(tok token.Token) (*ast.Cmd, *diag.Diagnostic) {
	p.advance()
	var elems []*ast.Cmd
	for !p.check(token.RBracket) {
		e, err := p.Expression()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if !p.match(token.Comma) {
			break
		}
	}
	if _, err := p.consume(token.RBracket, "expected ']'"); err != nil {
		return nil, err
	}
	return &ast.Cmd{Kind: ast.KindCreateList, Token: tok, List: elems}, nil
}

func (p *Parser) compoundLiteral(tok token.Token) (*ast.Cmd, *diag.Diagnostic) {
	p.advance()
	var fields []*ast.Cmd
	for !p.check(token.RBrace) {
		fieldTok, err := p.consumeName()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.Colon, "expected ':' in compound literal"); err != nil {
			return nil, err
		}
		val, err := p.Expression()
		if err != nil {
			return nil, err
		}
		fields = append(fields, &ast.Cmd{Kind: ast.KindAssign, Token: fieldTok, Name: fieldTok.Text(), A: val})
		if !p.match(token.Comma) {
			break
		}
	}
	if _, err := p.consume(token.RBrace, "expected '}'"); err != nil {
		return nil, err
	}
	return &ast.Cmd{Kind: ast.KindCreateCompound, Token: tok, List: fields}, nil
}

func (p *Parser) lambdaLiteral(tok token.Token) (*ast.Cmd, *diag.Diagnostic) {
	p.advance()
	var params []*ast.Cmd
	if p.check(token.LParen) {
		p.advance()
		for !p.check(token.RParen) {
			nameTok, err := p.consume(token.Identifier, "expected parameter name")
			if err != nil {
				return nil, err
			}
			typeName := ""
			if p.match(token.Colon) {
				tt, err := p.consume(token.TypeIdentifier, "expected parameter type")
				if err != nil {
					return nil, err
				}
				typeName = tt.Text()
			}
			params = append(params, &ast.Cmd{Kind: ast.KindLocalDeclaration, Token: nameTok, Name: nameTok.Text(), TypeName: typeName})
			if !p.match(token.Comma) {
				break
			}
		}
		if _, err := p.consume(token.RParen, "expected ')' after lambda parameters"); err != nil {
			return nil, err
		}
	}
	var body *ast.Cmd
	var err *diag.Diagnostic
	if p.check(token.LBrace) {
		body, err = p.blockStatement()
	} else {
		e, e2 := p.Expression()
		if e2 != nil {
			return nil, e2
		}
		body = &ast.Cmd{Kind: ast.KindReturn, Token: tok, A: e}
	}
	if err != nil {
		return nil, err
	}
	fn := &ast.Cmd{Kind: ast.KindCreateFunction, Token: tok, List: params}
	fn.A = body
	return fn, nil
}

// formattedOrPlainString rebuilds a FormattedString node from the raw
// `$(...)`-marked payload the tokenizer retained (spec §4.1, §4.3).
func (p *Parser) formattedOrPlainString(tok token.Token) (*ast.Cmd, *diag.Diagnostic) {
	text := tok.Text()
	parts, hasExpr := splitFormatMarkers(text)
	if !hasExpr {
		return &ast.Cmd{Kind: ast.KindLiteralString, Token: tok, StringValue: text}, nil
	}
	node := &ast.Cmd{Kind: ast.KindFormattedString, Token: tok}
	for _, part := range parts {
		if part.isExpr {
			sub := NewParser(lexExprTokens(part.text, tok), p.file)
			e, err := sub.Expression()
			if err != nil {
				return nil, err
			}
			node.List = append(node.List, e)
		} else {
			node.List = append(node.List, &ast.Cmd{Kind: ast.KindLiteralString, Token: tok, StringValue: part.text})
		}
	}
	return node, nil
}
