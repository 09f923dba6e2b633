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

// Package printer renders an AST back to canonical PromQL text. Unlike the
// source project's column-aware multi-line prettifier, this is a
// single-line canonical form: the goal is round-trip stability
// (parse(pretty(parse(q))) ≡ parse(q)), not readability-oriented line
// splitting.
package printer

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"sigs.k8s.io/promqlint/ast"
	"sigs.k8s.io/promqlint/lexer"
)

// binPrec mirrors package parser's precedence table; duplicated rather than
// exported from parser to keep printer import-independent of the grammar
// driver.
var binPrec = map[lexer.ItemType]int{
	lexer.LOR:     1,
	lexer.LAND:    2,
	lexer.LUNLESS: 2,
	lexer.EQLC:    3,
	lexer.NEQ:     3,
	lexer.LTE:     3,
	lexer.LSS:     3,
	lexer.GTE:     3,
	lexer.GTR:     3,
	lexer.ADD:     4,
	lexer.SUB:     4,
	lexer.MUL:     5,
	lexer.DIV:     5,
	lexer.MOD:     5,
	lexer.ATAN2:   5,
	lexer.POW:     6,
}

// Pretty renders e in canonical single-line form.
func Pretty(e ast.Expr) string {
	return printExpr(e)
}

func printExpr(e ast.Expr) string {
	switch x := e.(type) {
	case *ast.NumberLiteral:
		return printNumber(x.Val)
	case *ast.StringLiteral:
		return strconv.Quote(x.Val)
	case *ast.ParenExpr:
		return "(" + printExpr(x.Expr) + ")"
	case *ast.UnaryExpr:
		if n, ok := x.Expr.(*ast.NumberLiteral); ok && math.IsInf(n.Val, 1) {
			return "-Inf"
		}
		return "-" + printExpr(x.Expr)
	case *ast.VectorSelector:
		return printSelectorCore(x) + printOffset(x.Offset) + printAt(x.At)
	case *ast.MatrixSelector:
		return printSelectorCore(x.VectorSelector) + "[" + lexer.FormatDuration(x.Range) + "]" +
			printOffset(x.VectorSelector.Offset) + printAt(x.VectorSelector.At)
	case *ast.SubqueryExpr:
		step := ""
		if x.Step != nil {
			step = lexer.FormatDuration(*x.Step)
		}
		return printExpr(x.Expr) + "[" + lexer.FormatDuration(x.Range) + ":" + step + "]" +
			printOffset(x.Offset) + printAt(x.At)
	case *ast.Call:
		args := make([]string, len(x.Args))
		for i, a := range x.Args {
			args[i] = printExpr(a)
		}
		return x.FuncName + "(" + strings.Join(args, ", ") + ")"
	case *ast.AggregateExpr:
		return printAggregate(x)
	case *ast.BinaryExpr:
		return printBinary(x)
	default:
		return fmt.Sprintf("<unprintable %T>", e)
	}
}

func printNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	default:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
}

func printSelectorCore(v *ast.VectorSelector) string {
	var b strings.Builder
	b.WriteString(v.Name)
	if len(v.Matchers.Items) == 0 && len(v.Matchers.Or) == 0 {
		return b.String()
	}
	b.WriteByte('{')
	b.WriteString(printMatcherList(v.Matchers.Sorted()))
	for _, group := range v.Matchers.Or {
		b.WriteString(" or ")
		b.WriteString(printMatcherList(sortedMatchers(group)))
	}
	b.WriteByte('}')
	return b.String()
}

func sortedMatchers(ms []*ast.Matcher) []*ast.Matcher {
	out := make([]*ast.Matcher, len(ms))
	copy(out, ms)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		if out[i].Op != out[j].Op {
			return out[i].Op < out[j].Op
		}
		return out[i].Value < out[j].Value
	})
	return out
}

func printMatcherList(ms []*ast.Matcher) string {
	parts := make([]string, len(ms))
	for i, m := range ms {
		parts[i] = m.Name + m.Op.String() + strconv.Quote(m.Value)
	}
	return strings.Join(parts, ", ")
}

func printOffset(o *ast.Offset) string {
	if o == nil {
		return ""
	}
	sign := ""
	if o.Dir == ast.OffsetNeg {
		sign = "-"
	}
	return " offset " + sign + lexer.FormatDuration(o.Duration)
}

func printAt(a *ast.AtModifier) string {
	if a == nil {
		return ""
	}
	switch a.Kind {
	case ast.AtStart:
		return " @ start()"
	case ast.AtEnd:
		return " @ end()"
	default:
		return " @ " + strconv.FormatFloat(a.Timestamp, 'f', -1, 64)
	}
}

func printAggregate(agg *ast.AggregateExpr) string {
	var b strings.Builder
	b.WriteString(agg.Op.String())
	if agg.Modifier != nil {
		b.WriteByte(' ')
		if agg.Modifier.Without {
			b.WriteString("without")
		} else {
			b.WriteString("by")
		}
		b.WriteByte('(')
		b.WriteString(strings.Join(agg.Modifier.Labels, ", "))
		b.WriteByte(')')
	}
	b.WriteString(" (")
	if agg.Param != nil {
		b.WriteString(printExpr(agg.Param))
		b.WriteString(", ")
	}
	b.WriteString(printExpr(agg.Expr))
	b.WriteByte(')')
	return b.String()
}

func printBinary(b *ast.BinaryExpr) string {
	prec := binPrec[b.Op]
	lhs := printChild(b.LHS, prec, false)
	rhs := printChild(b.RHS, prec, true)

	var mod strings.Builder
	if m := b.Modifier; m != nil {
		if m.ReturnBool {
			mod.WriteString(" bool")
		}
		if m.Matching != nil {
			mod.WriteByte(' ')
			if m.Matching.Include {
				mod.WriteString("on")
			} else {
				mod.WriteString("ignoring")
			}
			mod.WriteByte('(')
			mod.WriteString(strings.Join(m.Matching.Labels, ", "))
			mod.WriteByte(')')
		}
		switch m.Card {
		case ast.CardManyToOne:
			mod.WriteString(" group_left(" + strings.Join(m.Include, ", ") + ")")
		case ast.CardOneToMany:
			mod.WriteString(" group_right(" + strings.Join(m.Include, ", ") + ")")
		}
	}
	return lhs + " " + b.Op.String() + mod.String() + " " + rhs
}

// printChild wraps a binary child in parens exactly when omitting them
// would change how it re-parses: lower precedence always needs parens;
// equal precedence needs parens on the side that associativity would
// otherwise misplace (the right operand for every left-associative level,
// the left operand for POW, PromQL's only right-associative operator).
func printChild(e ast.Expr, parentPrec int, isRHS bool) string {
	s := printExpr(e)
	be, ok := e.(*ast.BinaryExpr)
	if !ok {
		return s
	}
	childPrec := binPrec[be.Op]
	needParens := childPrec < parentPrec
	if childPrec == parentPrec {
		if be.Op == lexer.POW {
			needParens = !isRHS
		} else {
			needParens = isRHS
		}
	}
	if needParens {
		return "(" + s + ")"
	}
	return s
}
