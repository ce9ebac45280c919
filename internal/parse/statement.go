package parse

import (
	"roguec/internal/ast"
	"roguec/internal/diag"
	"roguec/internal/token"
)

// blockStatement parses a brace-delimited `{ ... }` statement list, used
// by lambda bodies (spec §4.3 `function` literal).
func (p *Parser) blockStatement() (*ast.Cmd, *diag.Diagnostic) {
	open := p.advance() // {
	p.skipEOLs()
	var stmts []*ast.Cmd
	for !p.check(token.RBrace) && !p.isAtEnd() {
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
		p.skipEOLs()
	}
	if _, err := p.consume(token.RBrace, "expected '}'"); err != nil {
		return nil, err
	}
	return &ast.Cmd{Kind: ast.KindBlock, Token: open, List: stmts}, nil
}

// statementsUntil parses statements until the cursor sits on one of the
// given terminator keywords (not consumed), skipping blank lines between
// them. Used by every `end*`-terminated construct (spec §4.3 control
// flow family).
func (p *Parser) statementsUntil(terminators ...token.Type) ([]*ast.Cmd, *diag.Diagnostic) {
	var stmts []*ast.Cmd
	p.skipEOLs()
	for !p.isAtEnd() && !p.atAny(terminators...) {
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
		p.skipEOLs()
	}
	return stmts, nil
}

func (p *Parser) atAny(types ...token.Type) bool {
	for _, t := range types {
		if p.check(t) {
			return true
		}
	}
	return false
}

// statement parses one statement (spec §4.3). Bare expressions are
// wrapped verbatim; assignment is recognized via a trailing `=` or
// op-with-assign operator after an access/element-access expression.
func (p *Parser) statement() (*ast.Cmd, *diag.Diagnostic) {
	switch p.peek().Type {
	case token.KwLocal:
		return p.localDeclaration()
	case token.KwIf:
		return p.ifStatement()
	case token.KwWhich:
		return p.whichStatement()
	case token.KwSwitch:
		return p.switchStatement()
	case token.KwContingent:
		return p.contingentStatement()
	case token.KwTry:
		return p.tryStatement()
	case token.KwForEach:
		return p.forEachStatement()
	case token.KwLoop:
		return p.loopStatement()
	case token.KwWhile:
		return p.whileStatement()
	case token.KwReturn:
		return p.simpleUnary(ast.KindReturn)
	case token.KwThrow:
		return p.simpleUnary(ast.KindThrow)
	case token.KwYield:
		tok := p.advance()
		e, err := p.Expression()
		if err != nil {
			return nil, err
		}
		return &ast.Cmd{Kind: ast.KindYield, Token: tok, A: e}, nil
	case token.KwAwait:
		tok := p.advance()
		e, err := p.Expression()
		if err != nil {
			return nil, err
		}
		return &ast.Cmd{Kind: ast.KindAwait, Token: tok, A: e}, nil
	case token.KwEscape:
		tok := p.advance()
		label := p.optionalLabel()
		return &ast.Cmd{Kind: ast.KindEscape, Token: tok, Label: label}, nil
	case token.KwNextIteration:
		tok := p.advance()
		label := p.optionalLabel()
		return &ast.Cmd{Kind: ast.KindNextIteration, Token: tok, Label: label}, nil
	case token.KwTrace:
		tok := p.advance()
		e, err := p.Expression()
		if err != nil {
			return nil, err
		}
		return &ast.Cmd{Kind: ast.KindTrace, Token: tok, A: e}, nil
	default:
		return p.expressionOrAssignStatement()
	}
}

func (p *Parser) optionalLabel() string {
	if p.check(token.Identifier) {
		t := p.advance()
		return t.Text()
	}
	return ""
}

func (p *Parser) simpleUnary(kind ast.Kind) (*ast.Cmd, *diag.Diagnostic) {
	tok := p.advance()
	if p.check(token.EOL) || p.check(token.EOF) || p.isBlockTerminator() {
		return &ast.Cmd{Kind: kind, Token: tok}, nil
	}
	e, err := p.Expression()
	if err != nil {
		return nil, err
	}
	return &ast.Cmd{Kind: kind, Token: tok, A: e}, nil
}

func (p *Parser) isBlockTerminator() bool {
	switch p.peek().Type {
	case token.KwEndIf, token.KwEndWhich, token.KwEndSwitch, token.KwEndContingent,
		token.KwEndTry, token.KwEndLoop, token.KwEndWhile, token.KwEndForEach,
		token.KwElse, token.KwElseIf, token.KwCase, token.KwOthers,
		token.KwCatch, token.KwNecessary, token.KwSufficient, token.KwEndMethod:
		return true
	}
	return false
}

// expressionOrAssignStatement parses an expression, then checks for a
// trailing `=` or op-with-assign operator to build the corresponding
// Assign/OpWithAssign node (spec §4.3, §3 Cmd "assignment" family).
func (p *Parser) expressionOrAssignStatement() (*ast.Cmd, *diag.Diagnostic) {
	lhs, err := p.Expression()
	if err != nil {
		return nil, err
	}
	if p.check(token.Equal) {
		op := p.advance()
		rhs, err := p.Expression()
		if err != nil {
			return nil, err
		}
		return &ast.Cmd{Kind: ast.KindAssign, Token: op, A: lhs, B: rhs}, nil
	}
	if token.IsOpWithAssign(p.peek().Type) {
		op := p.advance()
		rhs, err := p.Expression()
		if err != nil {
			return nil, err
		}
		underlying := opKindFor(token.UnderlyingOp(op.Type))
		return &ast.Cmd{Kind: ast.KindOpWithAssign, Token: op, A: lhs, B: rhs, ResolvedMethodIndex: int(underlying)}, nil
	}
	return lhs, nil
}

// opKindFor maps a bare binary-operator token type to the Kind used when
// desugaring `a += b` into an OpWithAssign; the mapped Kind is stashed in
// ResolvedMethodIndex purely as a carrier int until resolve rewrites the
// node into a concrete WriteLocal/WriteProperty/WriteGlobal wrapping an
// Add/Subtract/... of the read-back value (spec §4.5 operator resolution).
func opKindFor(t token.Type) ast.Kind {
	switch t {
	case token.Plus:
		return ast.KindAdd
	case token.Minus:
		return ast.KindSubtract
	case token.Star:
		return ast.KindMultiply
	case token.Slash:
		return ast.KindDivide
	case token.Percent:
		return ast.KindMod
	case token.Power:
		return ast.KindPower
	case token.Pipe:
		return ast.KindBitwiseOr
	case token.Amp:
		return ast.KindBitwiseAnd
	case token.Tilde:
		return ast.KindBitwiseXor
	}
	return ast.KindInvalid
}

func (p *Parser) localDeclaration() (*ast.Cmd, *diag.Diagnostic) {
	tok := p.advance()
	nameTok, err := p.consume(token.Identifier, "expected local name")
	if err != nil {
		return nil, err
	}
	decl := &ast.Cmd{Kind: ast.KindLocalDeclaration, Token: tok, Name: nameTok.Text()}
	if p.match(token.Colon) {
		tt, err := p.consume(token.TypeIdentifier, "expected type name after ':'")
		if err != nil {
			return nil, err
		}
		decl.TypeName = tt.Text()
	}
	if p.match(token.Equal) {
		v, err := p.Expression()
		if err != nil {
			return nil, err
		}
		decl.A = v
	}
	return decl, nil
}

func (p *Parser) ifStatement() (*ast.Cmd, *diag.Diagnostic) {
	tok := p.advance()
	cond, err := p.Expression()
	if err != nil {
		return nil, err
	}
	thenBody, err := p.statementsUntil(token.KwElseIf, token.KwElse, token.KwEndIf)
	if err != nil {
		return nil, err
	}
	node := &ast.Cmd{Kind: ast.KindIf, Token: tok, A: cond, List: thenBody}
	switch p.peek().Type {
	case token.KwElseIf:
		elseIfTok := p.advance()
		_ = elseIfTok
		// Desugar `elseIf` into a nested If in the else slot.
		inner, err := p.ifStatementTail()
		if err != nil {
			return nil, err
		}
		node.C = inner
	case token.KwElse:
		p.advance()
		elseBody, err := p.statementsUntil(token.KwEndIf)
		if err != nil {
			return nil, err
		}
		node.C = &ast.Cmd{Kind: ast.KindBlock, Token: tok, List: elseBody}
	}
	if _, err := p.consume(token.KwEndIf, "expected 'endIf'"); err != nil {
		return nil, err
	}
	return node, nil
}

// ifStatementTail parses the condition/body/else-chain of an `elseIf`
// already past its keyword, reusing ifStatement's shape but stopping at
// the outer `endIf` rather than consuming its own.
func (p *Parser) ifStatementTail() (*ast.Cmd, *diag.Diagnostic) {
	tok := p.peekAt(-1)
	cond, err := p.Expression()
	if err != nil {
		return nil, err
	}
	thenBody, err := p.statementsUntil(token.KwElseIf, token.KwElse, token.KwEndIf)
	if err != nil {
		return nil, err
	}
	node := &ast.Cmd{Kind: ast.KindIf, Token: tok, A: cond, List: thenBody}
	switch p.peek().Type {
	case token.KwElseIf:
		p.advance()
		inner, err := p.ifStatementTail()
		if err != nil {
			return nil, err
		}
		node.C = inner
	case token.KwElse:
		p.advance()
		elseBody, err := p.statementsUntil(token.KwEndIf)
		if err != nil {
			return nil, err
		}
		node.C = &ast.Cmd{Kind: ast.KindBlock, Token: tok, List: elseBody}
	}
	return node, nil
}

// whichStatement parses `which(expr)` ... `case v1,v2: ...` ... `others:
// ...` `endWhich` (value-dispatch switch, spec §3 CmdWhich/CmdSwitch).
func (p *Parser) whichStatement() (*ast.Cmd, *diag.Diagnostic) {
	return p.valueDispatch(ast.KindWhich, token.KwEndWhich)
}

func (p *Parser) switchStatement() (*ast.Cmd, *diag.Diagnostic) {
	return p.valueDispatch(ast.KindSwitch, token.KwEndSwitch)
}

func (p *Parser) valueDispatch(kind ast.Kind, endTok token.Type) (*ast.Cmd, *diag.Diagnostic) {
	tok := p.advance()
	if _, err := p.consume(token.LParen, "expected '(' after "+string(tok.Type)); err != nil {
		return nil, err
	}
	subject, err := p.Expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RParen, "expected ')'"); err != nil {
		return nil, err
	}
	node := &ast.Cmd{Kind: kind, Token: tok, A: subject}
	p.skipEOLs()
	for p.check(token.KwCase) {
		p.advance()
		var values []*ast.Cmd
		for {
			v, err := p.Expression()
			if err != nil {
				return nil, err
			}
			values = append(values, v)
			if !p.match(token.Comma) {
				break
			}
		}
		if _, err := p.consume(token.Colon, "expected ':' after case values"); err != nil {
			return nil, err
		}
		body, err := p.statementsUntil(token.KwCase, token.KwOthers, endTok)
		if err != nil {
			return nil, err
		}
		node.CaseValues = append(node.CaseValues, values)
		node.CaseBodies = append(node.CaseBodies, body)
	}
	if p.check(token.KwOthers) {
		p.advance()
		p.match(token.Colon)
		body, err := p.statementsUntil(endTok)
		if err != nil {
			return nil, err
		}
		node.OthersBody = body
	}
	if _, err := p.consume(endTok, "expected '"+string(endTok)+"'"); err != nil {
		return nil, err
	}
	return node, nil
}

// contingentStatement parses `contingent ... necessary(cond) ...
// sufficient(cond) ... endContingent` (spec §3 CmdContingent), a
// short-circuit precondition chain. An `unsatisfied` section is not
// parsed.
func (p *Parser) contingentStatement() (*ast.Cmd, *diag.Diagnostic) {
	tok := p.advance()
	body, err := p.statementsUntil(token.KwNecessary, token.KwSufficient, token.KwEndContingent)
	if err != nil {
		return nil, err
	}
	node := &ast.Cmd{Kind: ast.KindContingent, Token: tok, List: body}
	for p.check(token.KwNecessary) || p.check(token.KwSufficient) {
		clauseTok := p.advance()
		if _, err := p.consume(token.LParen, "expected '(' after "+string(clauseTok.Type)); err != nil {
			return nil, err
		}
		cond, err := p.Expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.RParen, "expected ')'"); err != nil {
			return nil, err
		}
		clauseBody, err := p.statementsUntil(token.KwNecessary, token.KwSufficient, token.KwEndContingent)
		if err != nil {
			return nil, err
		}
		kind := ast.KindNecessary
		if clauseTok.Type == token.KwSufficient {
			kind = ast.KindSufficient
		}
		node.List = append(node.List, &ast.Cmd{Kind: kind, Token: clauseTok, A: cond, List: clauseBody})
	}
	if _, err := p.consume(token.KwEndContingent, "expected 'endContingent'"); err != nil {
		return nil, err
	}
	return node, nil
}

// tryStatement parses `try ... catch (name:Type) ... endTry` (spec §3
// CmdTry/CmdCatch).
func (p *Parser) tryStatement() (*ast.Cmd, *diag.Diagnostic) {
	tok := p.advance()
	body, err := p.statementsUntil(token.KwCatch, token.KwEndTry)
	if err != nil {
		return nil, err
	}
	node := &ast.Cmd{Kind: ast.KindTry, Token: tok, List: body}
	for p.check(token.KwCatch) {
		catchTok := p.advance()
		if _, err := p.consume(token.LParen, "expected '(' after catch"); err != nil {
			return nil, err
		}
		nameTok, err := p.consume(token.Identifier, "expected catch variable name")
		if err != nil {
			return nil, err
		}
		typeName := ""
		if p.match(token.Colon) {
			tt, err := p.consume(token.TypeIdentifier, "expected caught type")
			if err != nil {
				return nil, err
			}
			typeName = tt.Text()
		}
		if _, err := p.consume(token.RParen, "expected ')'"); err != nil {
			return nil, err
		}
		catchBody, err := p.statementsUntil(token.KwCatch, token.KwEndTry)
		if err != nil {
			return nil, err
		}
		catchDecl := &ast.Cmd{Kind: ast.KindCatch, Token: catchTok, Name: nameTok.Text(), TypeName: typeName}
		node.CaseValues = append(node.CaseValues, []*ast.Cmd{catchDecl})
		node.CaseBodies = append(node.CaseBodies, catchBody)
	}
	if _, err := p.consume(token.KwEndTry, "expected 'endTry'"); err != nil {
		return nil, err
	}
	return node, nil
}

// forEachStatement parses `forEach (name[,index] in iterable) ...
// endForEach` (spec §3 CmdForEach).
func (p *Parser) forEachStatement() (*ast.Cmd, *diag.Diagnostic) {
	tok := p.advance()
	label := p.precedingLabel(tok)
	if _, err := p.consume(token.LParen, "expected '(' after forEach"); err != nil {
		return nil, err
	}
	nameTok, err := p.consume(token.Identifier, "expected loop variable name")
	if err != nil {
		return nil, err
	}
	indexName := ""
	if p.match(token.Comma) {
		idxTok, err := p.consume(token.Identifier, "expected index variable name")
		if err != nil {
			return nil, err
		}
		indexName = idxTok.Text()
	}
	if _, err := p.consume(token.KwIn, "expected 'in'"); err != nil {
		return nil, err
	}
	iterable, err := p.Expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RParen, "expected ')'"); err != nil {
		return nil, err
	}
	body, err := p.statementsUntil(token.KwEndForEach)
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.KwEndForEach, "expected 'endForEach'"); err != nil {
		return nil, err
	}
	return &ast.Cmd{Kind: ast.KindForEach, Token: tok, Name: nameTok.Text(), Label: label, TypeName: indexName, A: iterable, List: body}, nil
}

func (p *Parser) loopStatement() (*ast.Cmd, *diag.Diagnostic) {
	tok := p.advance()
	label := p.precedingLabel(tok)
	var count *ast.Cmd
	if p.check(token.LParen) {
		p.advance()
		c, err := p.Expression()
		if err != nil {
			return nil, err
		}
		count = c
		if _, err := p.consume(token.RParen, "expected ')'"); err != nil {
			return nil, err
		}
	}
	body, err := p.statementsUntil(token.KwEndLoop)
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.KwEndLoop, "expected 'endLoop'"); err != nil {
		return nil, err
	}
	return &ast.Cmd{Kind: ast.KindGenericLoop, Token: tok, Label: label, A: count, List: body}, nil
}

func (p *Parser) whileStatement() (*ast.Cmd, *diag.Diagnostic) {
	tok := p.advance()
	label := p.precedingLabel(tok)
	if _, err := p.consume(token.LParen, "expected '(' after while"); err != nil {
		return nil, err
	}
	cond, err := p.Expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RParen, "expected ')'"); err != nil {
		return nil, err
	}
	body, err := p.statementsUntil(token.KwEndWhile)
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.KwEndWhile, "expected 'endWhile'"); err != nil {
		return nil, err
	}
	return &ast.Cmd{Kind: ast.KindGenericLoop, Token: tok, Label: label, A: cond, List: body}, nil
}

// precedingLabel looks for `label: loop`-style prefixes, which the
// caller already consumed as a bare Identifier/Colon pair immediately
// before the loop keyword; since statement() dispatches on the loop
// keyword directly, labels are instead written `loop label: ...` — read
// an optional `name:` pair right after the keyword.
func (p *Parser) precedingLabel(tok token.Token) string {
	_ = tok
	if p.check(token.Identifier) && p.peekAt(1).Type == token.Colon {
		name := p.advance().Text()
		p.advance() // :
		return name
	}
	return ""
}
