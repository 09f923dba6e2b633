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

package parser

import (
	"math"
	"testing"
	"time"

	"sigs.k8s.io/promqlint/ast"
	"sigs.k8s.io/promqlint/errors"
	"sigs.k8s.io/promqlint/lexer"
)

func TestParseVectorSelector(t *testing.T) {
	expr, perr := Parse(`http_requests_total{code="200", job="prometheus"}`)
	if perr != nil {
		t.Fatalf("unexpected error: %v", perr)
	}
	v, ok := expr.(*ast.VectorSelector)
	if !ok {
		t.Fatalf("got %T, want *ast.VectorSelector", expr)
	}
	if v.Name != "http_requests_total" {
		t.Errorf("Name = %q", v.Name)
	}
	if len(v.Matchers.Items) != 2 {
		t.Fatalf("got %d matchers, want 2", len(v.Matchers.Items))
	}
}

func TestParseBinaryPrecedence(t *testing.T) {
	// 1 + 2 * 3 must bind as 1 + (2 * 3).
	expr, perr := Parse(`1 + 2 * 3`)
	if perr != nil {
		t.Fatalf("unexpected error: %v", perr)
	}
	add, ok := expr.(*ast.BinaryExpr)
	if !ok || add.Op != lexer.ADD {
		t.Fatalf("got %#v, want top-level ADD", expr)
	}
	mul, ok := add.RHS.(*ast.BinaryExpr)
	if !ok || mul.Op != lexer.MUL {
		t.Fatalf("RHS = %#v, want MUL", add.RHS)
	}
}

func TestParsePowRightAssociative(t *testing.T) {
	// 2 ^ 3 ^ 4 must bind as 2 ^ (3 ^ 4).
	expr, perr := Parse(`2 ^ 3 ^ 4`)
	if perr != nil {
		t.Fatalf("unexpected error: %v", perr)
	}
	outer, ok := expr.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("got %T", expr)
	}
	if _, ok := outer.LHS.(*ast.NumberLiteral); !ok {
		t.Fatalf("LHS = %#v, want NumberLiteral", outer.LHS)
	}
	if _, ok := outer.RHS.(*ast.BinaryExpr); !ok {
		t.Fatalf("RHS = %#v, want nested BinaryExpr", outer.RHS)
	}
}

func TestParseUnaryPlusAbsorbed(t *testing.T) {
	expr, perr := Parse(`+5`)
	if perr != nil {
		t.Fatalf("unexpected error: %v", perr)
	}
	if _, ok := expr.(*ast.UnaryExpr); ok {
		t.Fatal("unary plus should not produce a UnaryExpr node")
	}
	n, ok := expr.(*ast.NumberLiteral)
	if !ok || n.Val != 5 {
		t.Fatalf("got %#v, want NumberLiteral{5}", expr)
	}
}

func TestParseUnaryMinus(t *testing.T) {
	expr, perr := Parse(`-foo`)
	if perr != nil {
		t.Fatalf("unexpected error: %v", perr)
	}
	u, ok := expr.(*ast.UnaryExpr)
	if !ok {
		t.Fatalf("got %T, want *ast.UnaryExpr", expr)
	}
	if _, ok := u.Expr.(*ast.VectorSelector); !ok {
		t.Fatalf("inner = %T, want *ast.VectorSelector", u.Expr)
	}
}

func TestParseOffsetAndAt(t *testing.T) {
	expr, perr := Parse(`foo @ 1609746000 offset 5m`)
	if perr != nil {
		t.Fatalf("unexpected error: %v", perr)
	}
	v, ok := expr.(*ast.VectorSelector)
	if !ok {
		t.Fatalf("got %T", expr)
	}
	if v.At == nil || v.At.Kind != ast.AtTimestamp || v.At.Timestamp != 1609746000 {
		t.Errorf("At = %#v", v.At)
	}
	if v.Offset == nil || v.Offset.Duration != 5*time.Minute {
		t.Errorf("Offset = %#v", v.Offset)
	}
}

func TestParseAtStartEnd(t *testing.T) {
	expr, perr := Parse(`foo @ start()`)
	if perr != nil {
		t.Fatalf("unexpected error: %v", perr)
	}
	v := expr.(*ast.VectorSelector)
	if v.At == nil || v.At.Kind != ast.AtStart {
		t.Fatalf("At = %#v, want AtStart", v.At)
	}
}

func TestParseAtEnd(t *testing.T) {
	expr, perr := Parse(`foo @ end()`)
	if perr != nil {
		t.Fatalf("unexpected error: %v", perr)
	}
	v := expr.(*ast.VectorSelector)
	if v.At == nil || v.At.Kind != ast.AtEnd {
		t.Fatalf("At = %#v, want AtEnd", v.At)
	}
}

func TestParseNonFiniteNumberLiteral(t *testing.T) {
	expr, perr := Parse(`foo > Inf`)
	if perr != nil {
		t.Fatalf("unexpected error: %v", perr)
	}
	cmp, ok := expr.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("got %T, want *ast.BinaryExpr", expr)
	}
	n, ok := cmp.RHS.(*ast.NumberLiteral)
	if !ok || !math.IsInf(n.Val, 1) {
		t.Fatalf("RHS = %#v, want +Inf NumberLiteral", cmp.RHS)
	}
}

func TestParseDuplicateOffsetIsSemanticError(t *testing.T) {
	_, perr := Parse(`foo offset 5m offset 10m`)
	if perr == nil || perr.Kind != errors.SemanticError {
		t.Fatalf("got %v, want SemanticError", perr)
	}
}

func TestParseMatrixSelector(t *testing.T) {
	expr, perr := Parse(`rate(foo[5m])`)
	if perr != nil {
		t.Fatalf("unexpected error: %v", perr)
	}
	call, ok := expr.(*ast.Call)
	if !ok {
		t.Fatalf("got %T", expr)
	}
	if _, ok := call.Args[0].(*ast.MatrixSelector); !ok {
		t.Fatalf("arg = %T, want *ast.MatrixSelector", call.Args[0])
	}
}

func TestParseMatrixOnNonSelectorIsSyntaxError(t *testing.T) {
	_, perr := Parse(`(1 + 1)[5m]`)
	if perr == nil || perr.Kind != errors.SyntaxError {
		t.Fatalf("got %v, want SyntaxError", perr)
	}
}

func TestParseSubqueryWithAndWithoutStep(t *testing.T) {
	expr, perr := Parse(`foo[5m:1m]`)
	if perr != nil {
		t.Fatalf("unexpected error: %v", perr)
	}
	sq, ok := expr.(*ast.SubqueryExpr)
	if !ok {
		t.Fatalf("got %T", expr)
	}
	if sq.Step == nil || *sq.Step != time.Minute {
		t.Fatalf("Step = %#v, want 1m", sq.Step)
	}

	expr, perr = Parse(`foo[5m:]`)
	if perr != nil {
		t.Fatalf("unexpected error: %v", perr)
	}
	sq = expr.(*ast.SubqueryExpr)
	if sq.Step != nil {
		t.Fatalf("Step = %v, want nil", *sq.Step)
	}
}

func TestParseAggregateModifierBeforeAndAfterParens(t *testing.T) {
	before, perr := Parse(`sum by (job) (foo)`)
	if perr != nil {
		t.Fatalf("unexpected error: %v", perr)
	}
	after, perr := Parse(`sum (foo) by (job)`)
	if perr != nil {
		t.Fatalf("unexpected error: %v", perr)
	}
	if !ast.Equal(before, after) {
		t.Fatal("modifier before/after the arg list should parse to equal ASTs")
	}
}

func TestParseAggregateWithParam(t *testing.T) {
	expr, perr := Parse(`topk(5, foo)`)
	if perr != nil {
		t.Fatalf("unexpected error: %v", perr)
	}
	agg, ok := expr.(*ast.AggregateExpr)
	if !ok {
		t.Fatalf("got %T", expr)
	}
	if agg.Param == nil {
		t.Fatal("expected Param to be set")
	}
	if n, ok := agg.Param.(*ast.NumberLiteral); !ok || n.Val != 5 {
		t.Fatalf("Param = %#v, want NumberLiteral{5}", agg.Param)
	}
}

func TestParseLabelListAcceptsKeywordSpellings(t *testing.T) {
	expr, perr := Parse(`sum by (count, sum) (foo)`)
	if perr != nil {
		t.Fatalf("unexpected error: %v", perr)
	}
	agg := expr.(*ast.AggregateExpr)
	if len(agg.Modifier.Labels) != 2 {
		t.Fatalf("Labels = %v", agg.Modifier.Labels)
	}
}

func TestParseOrGroupInMatchers(t *testing.T) {
	expr, perr := Parse(`{__name__=~"foo|bar" or job="x"}`)
	if perr != nil {
		t.Fatalf("unexpected error: %v", perr)
	}
	v := expr.(*ast.VectorSelector)
	if len(v.Matchers.Or) != 1 {
		t.Fatalf("Or groups = %d, want 1", len(v.Matchers.Or))
	}
}

func TestParseStringAsLabelName(t *testing.T) {
	expr, perr := Parse(`{"job"="x"}`)
	if perr != nil {
		t.Fatalf("unexpected error: %v", perr)
	}
	v := expr.(*ast.VectorSelector)
	if len(v.Matchers.Items) != 1 || v.Matchers.Items[0].Name != "job" {
		t.Fatalf("matchers = %#v", v.Matchers.Items)
	}
}

func TestParseBareStringIsNameShorthand(t *testing.T) {
	expr, perr := Parse(`{"foo"}`)
	if perr != nil {
		t.Fatalf("unexpected error: %v", perr)
	}
	v := expr.(*ast.VectorSelector)
	if len(v.Matchers.Items) != 1 || v.Matchers.Items[0].Name != "__name__" || v.Matchers.Items[0].Value != "foo" {
		t.Fatalf("matchers = %#v", v.Matchers.Items)
	}
}

func TestParseEmptyInputIsSyntaxError(t *testing.T) {
	_, perr := Parse(``)
	if perr == nil || perr.Kind != errors.SyntaxError {
		t.Fatalf("got %v, want SyntaxError", perr)
	}
}

func TestParseTrailingCommaIsSyntaxError(t *testing.T) {
	_, perr := Parse(`foo(bar,)`)
	if perr == nil || perr.Kind != errors.SyntaxError {
		t.Fatalf("got %v, want SyntaxError", perr)
	}
}
