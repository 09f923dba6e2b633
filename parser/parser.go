/*
Copyright 2020 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package parser turns a token stream into a raw AST by recursive descent
// with precedence climbing for binary operators. It performs the syntactic
// checks a context-free grammar can express (balanced brackets, required
// tokens, no trailing commas in argument lists) and rejects a duplicate or
// misplaced offset/@ modifier, which the AST cannot represent; label-matcher
// legality, the remaining modifier legality and type checking belong to
// package checker.
package parser

import (
	"time"

	"sigs.k8s.io/promqlint/ast"
	"sigs.k8s.io/promqlint/errors"
	"sigs.k8s.io/promqlint/internal/debug"
	"sigs.k8s.io/promqlint/lexer"
)

// precedence mirrors the table in the grammar design: higher binds tighter.
// Set operators sit below the comparison tier: `or` binds loosest, `and`
// and `unless` one level tighter.
var binPrec = map[lexer.ItemType]int{
	lexer.LOR:     1,
	lexer.LAND:    2,
	lexer.LUNLESS: 2,

	lexer.EQLC: 3,
	lexer.NEQ:  3,
	lexer.LTE:  3,
	lexer.LSS:  3,
	lexer.GTE:  3,
	lexer.GTR:  3,

	lexer.ADD: 4,
	lexer.SUB: 4,

	lexer.MUL:   5,
	lexer.DIV:   5,
	lexer.MOD:   5,
	lexer.ATAN2: 5,

	lexer.POW: 6,
}

// parser holds the lookahead token and panics a *errors.ParseError on
// failure; Parse recovers it. This mirrors how the real grammar driver
// threads errors through reductions without plumbing an error return
// through every production.
type parser struct {
	lx  *lexer.Lexer
	tok lexer.Item
	log *debug.Logger
}

// Parse lexes and parses query into a raw AST. Apart from the offset/@
// modifier checks above it performs no semantic checking; callers typically
// follow with checker.Check.
func Parse(query string) (expr ast.Expr, perr *errors.ParseError) {
	p := &parser{lx: lexer.Lex(query), log: debug.New("parser.log")}
	p.advance()

	defer func() {
		if r := recover(); r != nil {
			pe, ok := r.(*errors.ParseError)
			if !ok {
				panic(r)
			}
			expr, perr = nil, pe
		}
	}()

	if p.tok.Typ == lexer.EOF {
		return nil, errors.SyntaxNoSpan("no expression found in input")
	}

	e := p.parseExpr(0)
	p.expectEOF()
	return e, nil
}

func (p *parser) advance() {
	var it lexer.Item
	p.lx.NextItem(&it)
	p.tok = it
	p.log.Printf("token %v", it)
	if it.Typ == lexer.ERROR {
		panic(errors.Lex(it.Span(), "%s", it.Val))
	}
}

// next returns the current token and advances past it.
func (p *parser) next() lexer.Item {
	t := p.tok
	p.advance()
	return t
}

func (p *parser) expect(t lexer.ItemType) lexer.Item {
	if p.tok.Typ != t {
		panic(errors.Syntax(p.tok.Span(), "unexpected %s, expected %s", p.tok, t.Desc()))
	}
	return p.next()
}

func (p *parser) expectEOF() {
	if p.tok.Typ != lexer.EOF {
		panic(errors.Syntax(p.tok.Span(), "unexpected %s", p.tok))
	}
}

// parseExpr implements precedence climbing: operators with precedence below
// minPrec are left for an enclosing call to consume.
func (p *parser) parseExpr(minPrec int) ast.Expr {
	lhs := p.parseUnaryExpr()
	for {
		op := p.tok.Typ
		prec, ok := binPrec[op]
		if !ok || prec < minPrec {
			return lhs
		}
		p.advance()
		mod := p.parseBinModifier()
		// POW is the only right-associative operator; every other level
		// left-associates, so the recursive call raises minPrec by one.
		nextMin := prec + 1
		if op == lexer.POW {
			nextMin = prec
		}
		rhs := p.parseExpr(nextMin)
		lhs = &ast.BinaryExpr{
			Op:       op,
			LHS:      lhs,
			RHS:      rhs,
			Modifier: mod,
			PosRange: lexer.Span{Start: lhs.Span().Start, End: rhs.Span().End},
		}
	}
}

func (p *parser) parseUnaryExpr() ast.Expr {
	switch p.tok.Typ {
	case lexer.ADD:
		// Unary plus is absorbed per the reference behavior noted for
		// ambiguous cases like `+1 == bool 2`.
		p.advance()
		return p.parseUnaryExpr()
	case lexer.SUB:
		pos := p.tok.Pos
		p.advance()
		inner := p.parseUnaryExpr()
		return &ast.UnaryExpr{Op: lexer.SUB, Expr: inner, PosRange: lexer.Span{Start: pos, End: inner.Span().End}}
	default:
		return p.parsePostfixExpr()
	}
}

// parsePostfixExpr attaches offset/@/range-bracket modifiers, which the
// grammar admits after any expr; legality per expression kind is checked
// by package checker (duplicate offset/@ is flagged here, since the AST
// has no room to carry more than one).
func (p *parser) parsePostfixExpr() ast.Expr {
	e := p.parsePrimaryExpr()
	for {
		switch p.tok.Typ {
		case lexer.OFFSET:
			e = p.parseOffset(e)
		case lexer.AT:
			e = p.parseAt(e)
		case lexer.LEFT_BRACKET:
			e = p.parseBracket(e)
		default:
			return e
		}
	}
}

func (p *parser) parsePrimaryExpr() ast.Expr {
	tok := p.tok
	switch {
	case tok.Typ.IsAggregator():
		return p.parseAggregateExpr()
	case tok.Typ == lexer.LEFT_PAREN:
		return p.parseParenExpr()
	case tok.Typ == lexer.LEFT_BRACE:
		return p.parseVectorSelectorRest("", tok.Span())
	case tok.Typ == lexer.NUMBER:
		p.advance()
		v, err := lexer.ParseNumber(tok.Val)
		if err != nil {
			panic(errors.Lex(tok.Span(), "bad number literal %q: %s", tok.Val, err))
		}
		return &ast.NumberLiteral{Val: v, PosRange: tok.Span()}
	case tok.Typ == lexer.DURATION:
		p.advance()
		d, err := lexer.ParseDuration(tok.Val)
		if err != nil {
			panic(errors.Lex(tok.Span(), "bad duration literal %q: %s", tok.Val, err))
		}
		return &ast.NumberLiteral{Val: d.Seconds(), PosRange: tok.Span()}
	case tok.Typ == lexer.STRING:
		p.advance()
		v, err := lexer.Unquote(tok.Val)
		if err != nil {
			panic(errors.Lex(tok.Span(), "bad string literal: %s", err))
		}
		return &ast.StringLiteral{Val: v, PosRange: tok.Span()}
	case tok.Typ == lexer.IDENTIFIER || tok.Typ == lexer.METRIC_IDENTIFIER:
		p.advance()
		if p.tok.Typ == lexer.LEFT_PAREN {
			return p.parseCall(tok)
		}
		return p.parseVectorSelectorRest(tok.Val, tok.Span())
	default:
		panic(errors.Syntax(tok.Span(), "unexpected %s", tok))
	}
}

func (p *parser) parseParenExpr() ast.Expr {
	start := p.tok.Pos
	p.expect(lexer.LEFT_PAREN)
	inner := p.parseExpr(0)
	end := p.tok.Pos + len(p.tok.Val)
	p.expect(lexer.RIGHT_PAREN)
	return &ast.ParenExpr{Expr: inner, PosRange: lexer.Span{Start: start, End: end}}
}

func (p *parser) parseCall(name lexer.Item) ast.Expr {
	p.expect(lexer.LEFT_PAREN)
	var args []ast.Expr
	if p.tok.Typ != lexer.RIGHT_PAREN {
		args = p.parseExprList()
	}
	end := p.tok.Pos + len(p.tok.Val)
	p.expect(lexer.RIGHT_PAREN)
	return &ast.Call{
		FuncName: name.Val,
		Args:     args,
		PosRange: lexer.Span{Start: name.Pos, End: end},
	}
}

// parseExprList parses a comma-separated, non-empty argument list; a
// trailing comma is a syntax error.
func (p *parser) parseExprList() []ast.Expr {
	var out []ast.Expr
	for {
		out = append(out, p.parseExpr(0))
		if p.tok.Typ != lexer.COMMA {
			return out
		}
		p.advance()
		if p.tok.Typ == lexer.RIGHT_PAREN {
			panic(errors.Syntax(p.tok.Span(), "trailing comma before %s", p.tok))
		}
	}
}

func (p *parser) parseAggregateExpr() ast.Expr {
	opTok := p.next()
	op, ok := ast.AggregatorFromItem(opTok.Typ)
	if !ok {
		panic(errors.Syntax(opTok.Span(), "unknown aggregator %s", opTok))
	}

	var mod *ast.AggModifier
	if p.tok.Typ == lexer.BY || p.tok.Typ == lexer.WITHOUT {
		mod = p.parseAggModifier()
	}

	p.expect(lexer.LEFT_PAREN)
	args := p.parseExprList()
	end := p.tok.Pos + len(p.tok.Val)
	p.expect(lexer.RIGHT_PAREN)

	if mod == nil && (p.tok.Typ == lexer.BY || p.tok.Typ == lexer.WITHOUT) {
		mod = p.parseAggModifier()
		end = mod.PosRange.End
	}

	e := &ast.AggregateExpr{
		Op:       op,
		Modifier: mod,
		PosRange: lexer.Span{Start: opTok.Pos, End: end},
	}
	switch len(args) {
	case 1:
		e.Expr = args[0]
	case 2:
		e.Param = args[0]
		e.Expr = args[1]
	default:
		panic(errors.Syntax(opTok.Span(), "aggregation %s takes 1 or 2 arguments, got %d", op, len(args)))
	}
	return e
}

func (p *parser) parseAggModifier() *ast.AggModifier {
	start := p.tok.Pos
	without := p.tok.Typ == lexer.WITHOUT
	p.advance()
	p.expect(lexer.LEFT_PAREN)
	labels := p.parseLabelNameList()
	end := p.tok.Pos + len(p.tok.Val)
	p.expect(lexer.RIGHT_PAREN)
	return &ast.AggModifier{Without: without, Labels: labels, PosRange: lexer.Span{Start: start, End: end}}
}

// parseLabelNameList accepts identifiers and any keyword/aggregator/set-
// operator spelling as a label name, per the grammar's maybe_label rule.
func (p *parser) parseLabelNameList() []string {
	var out []string
	if p.tok.Typ == lexer.RIGHT_PAREN {
		return out
	}
	for {
		out = append(out, p.expectLabelName())
		if p.tok.Typ != lexer.COMMA {
			return out
		}
		p.advance()
	}
}

func (p *parser) expectLabelName() string {
	t := p.tok
	switch {
	case t.Typ == lexer.IDENTIFIER || t.Typ == lexer.METRIC_IDENTIFIER:
	case t.Typ.IsKeyword() || t.Typ.IsAggregator() || t.Typ.IsSetOperator():
	case t.Typ == lexer.ATAN2:
	default:
		panic(errors.Syntax(t.Span(), "unexpected %s, expected label name", t))
	}
	p.advance()
	return t.Val
}

func (p *parser) parseBinModifier() *ast.BinModifier {
	start := p.tok.Pos
	mod := &ast.BinModifier{}
	any := false

	if p.tok.Typ == lexer.BOOL {
		mod.ReturnBool = true
		any = true
		p.advance()
	}
	if p.tok.Typ == lexer.ON || p.tok.Typ == lexer.IGNORING {
		include := p.tok.Typ == lexer.ON
		p.advance()
		p.expect(lexer.LEFT_PAREN)
		labels := p.parseLabelNameList()
		p.expect(lexer.RIGHT_PAREN)
		mod.Matching = &ast.LabelModifier{Include: include, Labels: labels}
		any = true
	}
	if p.tok.Typ == lexer.GROUP_LEFT || p.tok.Typ == lexer.GROUP_RIGHT {
		if p.tok.Typ == lexer.GROUP_LEFT {
			mod.Card = ast.CardManyToOne
		} else {
			mod.Card = ast.CardOneToMany
		}
		p.advance()
		if p.tok.Typ == lexer.LEFT_PAREN {
			p.advance()
			mod.Include = p.parseLabelNameList()
			p.expect(lexer.RIGHT_PAREN)
		}
		any = true
	}
	if !any {
		return nil
	}
	mod.PosRange = lexer.Span{Start: start, End: p.tok.Pos}
	return mod
}

func (p *parser) parseOffset(e ast.Expr) ast.Expr {
	offPos := p.tok.Pos
	p.advance()
	dir := ast.OffsetPos
	switch p.tok.Typ {
	case lexer.SUB:
		dir = ast.OffsetNeg
		p.advance()
	case lexer.ADD:
		p.advance()
	}
	durTok := p.expect(lexer.DURATION)
	d, err := lexer.ParseDuration(durTok.Val)
	if err != nil {
		panic(errors.Lex(durTok.Span(), "bad duration literal %q: %s", durTok.Val, err))
	}
	off := &ast.Offset{Duration: d, Dir: dir, PosRange: lexer.Span{Start: offPos, End: durTok.Span().End}}
	return attachOffset(e, off)
}

func attachOffset(e ast.Expr, off *ast.Offset) ast.Expr {
	switch x := e.(type) {
	case *ast.VectorSelector:
		if x.Offset != nil {
			panic(errors.Semantic(off.PosRange, "offset may not be set multiple times"))
		}
		x.Offset = off
		x.PosRange.End = off.PosRange.End
		return x
	case *ast.MatrixSelector:
		return attachOffsetToMatrix(x, off)
	case *ast.SubqueryExpr:
		if x.Offset != nil {
			panic(errors.Semantic(off.PosRange, "offset may not be set multiple times"))
		}
		x.Offset = off
		x.PosRange.End = off.PosRange.End
		return x
	default:
		panic(errors.Semantic(off.PosRange, "offset modifier must be preceded by an instant or range vector selector"))
	}
}

func attachOffsetToMatrix(m *ast.MatrixSelector, off *ast.Offset) ast.Expr {
	if m.VectorSelector.Offset != nil {
		panic(errors.Semantic(off.PosRange, "offset may not be set multiple times"))
	}
	m.VectorSelector.Offset = off
	m.PosRange.End = off.PosRange.End
	return m
}

func (p *parser) parseAt(e ast.Expr) ast.Expr {
	atPos := p.tok.Pos
	p.advance()

	var at *ast.AtModifier
	switch {
	case p.tok.Typ == lexer.START:
		end := p.parseAtFuncCall()
		at = &ast.AtModifier{Kind: ast.AtStart, PosRange: lexer.Span{Start: atPos, End: end}}
	case p.tok.Typ == lexer.END:
		end := p.parseAtFuncCall()
		at = &ast.AtModifier{Kind: ast.AtEnd, PosRange: lexer.Span{Start: atPos, End: end}}
	default:
		sign := 1.0
		if p.tok.Typ == lexer.SUB {
			sign = -1
			p.advance()
		} else if p.tok.Typ == lexer.ADD {
			p.advance()
		}
		numTok := p.expect(lexer.NUMBER)
		v, err := lexer.ParseNumber(numTok.Val)
		if err != nil {
			panic(errors.Lex(numTok.Span(), "bad number literal %q: %s", numTok.Val, err))
		}
		at = &ast.AtModifier{Kind: ast.AtTimestamp, Timestamp: sign * v, PosRange: lexer.Span{Start: atPos, End: numTok.Span().End}}
	}
	return attachAt(e, at)
}

func (p *parser) parseAtFuncCall() int {
	p.advance() // START / END keyword
	p.expect(lexer.LEFT_PAREN)
	end := p.tok.Pos + len(p.tok.Val)
	p.expect(lexer.RIGHT_PAREN)
	return end
}

func attachAt(e ast.Expr, at *ast.AtModifier) ast.Expr {
	switch x := e.(type) {
	case *ast.VectorSelector:
		if x.At != nil {
			panic(errors.Semantic(at.PosRange, "@ may not be set multiple times"))
		}
		x.At = at
		x.PosRange.End = at.PosRange.End
		return x
	case *ast.MatrixSelector:
		if x.VectorSelector.At != nil {
			panic(errors.Semantic(at.PosRange, "@ may not be set multiple times"))
		}
		x.VectorSelector.At = at
		x.PosRange.End = at.PosRange.End
		return x
	case *ast.SubqueryExpr:
		if x.At != nil {
			panic(errors.Semantic(at.PosRange, "@ may not be set multiple times"))
		}
		x.At = at
		x.PosRange.End = at.PosRange.End
		return x
	default:
		panic(errors.Semantic(at.PosRange, "@ modifier must be preceded by an instant or range vector selector"))
	}
}

// parseBracket parses `[range]` (matrix selector) or `[range:step?]`
// (subquery). The inner expression must reduce to a *ast.VectorSelector for
// the matrix form; that structural requirement is enforced here since the
// AST's MatrixSelector field is typed, not deferred to the checker.
func (p *parser) parseBracket(e ast.Expr) ast.Expr {
	start := p.tok.Pos
	p.expect(lexer.LEFT_BRACKET)

	rangeTok := p.expect(lexer.DURATION)
	rng, err := lexer.ParseDuration(rangeTok.Val)
	if err != nil {
		panic(errors.Lex(rangeTok.Span(), "bad duration literal %q: %s", rangeTok.Val, err))
	}

	if p.tok.Typ == lexer.COLON {
		p.advance()
		var step *time.Duration
		if p.tok.Typ != lexer.RIGHT_BRACKET {
			stepTok := p.expect(lexer.DURATION)
			s, err := lexer.ParseDuration(stepTok.Val)
			if err != nil {
				panic(errors.Lex(stepTok.Span(), "bad duration literal %q: %s", stepTok.Val, err))
			}
			step = &s
		}
		end := p.tok.Pos + len(p.tok.Val)
		p.expect(lexer.RIGHT_BRACKET)
		return &ast.SubqueryExpr{
			Expr:     e,
			Range:    rng,
			Step:     step,
			PosRange: lexer.Span{Start: start, End: end},
		}
	}

	end := p.tok.Pos + len(p.tok.Val)
	p.expect(lexer.RIGHT_BRACKET)

	vs, ok := unwrapParen(e).(*ast.VectorSelector)
	if !ok {
		panic(errors.Syntax(lexer.Span{Start: start, End: end}, "range vector selector must be applied to an instant vector selector"))
	}
	return &ast.MatrixSelector{VectorSelector: vs, Range: rng, PosRange: lexer.Span{Start: e.Span().Start, End: end}}
}

func unwrapParen(e ast.Expr) ast.Expr {
	for {
		p, ok := e.(*ast.ParenExpr)
		if !ok {
			return e
		}
		e = p.Expr
	}
}

// parseVectorSelectorRest parses the optional `{...}` label-matcher block
// following a metric name (name == "" when braces stood alone).
func (p *parser) parseVectorSelectorRest(name string, namePos lexer.Span) ast.Expr {
	matchers := &ast.Matchers{}
	end := namePos.End
	if p.tok.Typ == lexer.LEFT_BRACE {
		var m *ast.Matchers
		m, end = p.parseLabelMatchers()
		matchers = m
	} else if name == "" {
		panic(errors.Syntax(p.tok.Span(), "unexpected %s, expected label matchers", p.tok))
	}
	return &ast.VectorSelector{
		Name:     name,
		Matchers: matchers,
		PosRange: lexer.Span{Start: namePos.Start, End: end},
	}
}

func (p *parser) parseLabelMatchers() (*ast.Matchers, int) {
	p.expect(lexer.LEFT_BRACE)
	ms := &ast.Matchers{}
	if p.tok.Typ != lexer.RIGHT_BRACE {
		group := p.parseMatcherGroup()
		ms.Items = append(ms.Items, group...)
		for p.tok.Typ == lexer.IDENTIFIER && p.tok.Val == "or" {
			p.advance()
			ms.Or = append(ms.Or, p.parseMatcherGroup())
		}
	}
	end := p.tok.Pos + len(p.tok.Val)
	p.expect(lexer.RIGHT_BRACE)
	return ms, end
}

// parseMatcherGroup parses a comma-separated run of matchers, stopping at
// `}` or the `or` separator; a trailing comma before either is accepted.
func (p *parser) parseMatcherGroup() []*ast.Matcher {
	var out []*ast.Matcher
	for {
		out = append(out, p.parseMatcher())
		if p.tok.Typ != lexer.COMMA {
			return out
		}
		p.advance()
		if p.tok.Typ == lexer.RIGHT_BRACE || (p.tok.Typ == lexer.IDENTIFIER && p.tok.Val == "or") {
			return out
		}
	}
}

func (p *parser) parseMatcher() *ast.Matcher {
	tok := p.tok
	if tok.Typ == lexer.STRING {
		p.advance()
		nameVal, err := lexer.Unquote(tok.Val)
		if err != nil {
			panic(errors.Lex(tok.Span(), "bad string literal: %s", err))
		}
		if op, ok := matchOpOf(p.tok.Typ); ok {
			p.advance()
			valTok := p.expect(lexer.STRING)
			val, err := lexer.Unquote(valTok.Val)
			if err != nil {
				panic(errors.Lex(valTok.Span(), "bad string literal: %s", err))
			}
			return ast.NewMatcher(op, nameVal, val, lexer.Span{Start: tok.Pos, End: valTok.Span().End})
		}
		return ast.NewMatcher(ast.MatchEqual, "__name__", nameVal, tok.Span())
	}

	switch {
	case tok.Typ == lexer.IDENTIFIER || tok.Typ == lexer.METRIC_IDENTIFIER:
	case tok.Typ.IsKeyword() || tok.Typ.IsAggregator() || tok.Typ.IsSetOperator():
	default:
		panic(errors.Syntax(tok.Span(), "unexpected %s, expected label matcher", tok))
	}
	p.advance()
	op, ok := matchOpOf(p.tok.Typ)
	if !ok {
		panic(errors.Syntax(p.tok.Span(), "unexpected %s, expected one of =, !=, =~, !~", p.tok))
	}
	p.advance()
	valTok := p.expect(lexer.STRING)
	val, err := lexer.Unquote(valTok.Val)
	if err != nil {
		panic(errors.Lex(valTok.Span(), "bad string literal: %s", err))
	}
	return ast.NewMatcher(op, tok.Val, val, lexer.Span{Start: tok.Pos, End: valTok.Span().End})
}

func matchOpOf(t lexer.ItemType) (ast.MatchOp, bool) {
	switch t {
	case lexer.EQL:
		return ast.MatchEqual, true
	case lexer.NEQ:
		return ast.MatchNotEqual, true
	case lexer.EQL_REGEX:
		return ast.MatchRegexp, true
	case lexer.NEQ_REGEX:
		return ast.MatchNotRegexp, true
	default:
		return 0, false
	}
}
