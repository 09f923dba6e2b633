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

package ast

import "math"

// Equal implements the structural-equality relation from spec §8: matcher-
// set commutativity, label-set equality, and indifference to modifier
// ordering. Spans are deliberately ignored.
func Equal(a, b Expr) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch x := a.(type) {
	case *AggregateExpr:
		y, ok := b.(*AggregateExpr)
		return ok && x.Op == y.Op &&
			Equal(x.Expr, y.Expr) &&
			Equal(x.Param, y.Param) &&
			aggModifierEqual(x.Modifier, y.Modifier)
	case *UnaryExpr:
		y, ok := b.(*UnaryExpr)
		return ok && x.Op == y.Op && Equal(x.Expr, y.Expr)
	case *BinaryExpr:
		y, ok := b.(*BinaryExpr)
		return ok && x.Op == y.Op &&
			Equal(x.LHS, y.LHS) && Equal(x.RHS, y.RHS) &&
			binModifierEqual(x.Modifier, y.Modifier)
	case *ParenExpr:
		y, ok := b.(*ParenExpr)
		return ok && Equal(x.Expr, y.Expr)
	case *SubqueryExpr:
		y, ok := b.(*SubqueryExpr)
		if !ok || x.Range != y.Range || !offsetEqual(x.Offset, y.Offset) || !atEqual(x.At, y.At) {
			return false
		}
		switch {
		case x.Step == nil && y.Step == nil:
		case x.Step != nil && y.Step != nil && *x.Step == *y.Step:
		default:
			return false
		}
		return Equal(x.Expr, y.Expr)
	case *NumberLiteral:
		y, ok := b.(*NumberLiteral)
		if !ok {
			return false
		}
		if math.IsNaN(x.Val) || math.IsNaN(y.Val) {
			return math.IsNaN(x.Val) && math.IsNaN(y.Val)
		}
		return x.Val == y.Val
	case *StringLiteral:
		y, ok := b.(*StringLiteral)
		return ok && x.Val == y.Val
	case *VectorSelector:
		y, ok := b.(*VectorSelector)
		return ok && x.Name == y.Name &&
			x.Matchers.Equal(y.Matchers) &&
			offsetEqual(x.Offset, y.Offset) &&
			atEqual(x.At, y.At)
	case *MatrixSelector:
		y, ok := b.(*MatrixSelector)
		return ok && x.Range == y.Range && Equal(x.VectorSelector, y.VectorSelector)
	case *Call:
		y, ok := b.(*Call)
		if !ok || x.FuncName != y.FuncName || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !Equal(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func stringSetEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	counts := map[string]int{}
	for _, s := range a {
		counts[s]++
	}
	for _, s := range b {
		counts[s]--
	}
	for _, c := range counts {
		if c != 0 {
			return false
		}
	}
	return true
}

func aggModifierEqual(a, b *AggModifier) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Without == b.Without && stringSetEqual(a.Labels, b.Labels)
}

func labelModifierEqual(a, b *LabelModifier) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Include == b.Include && stringSetEqual(a.Labels, b.Labels)
}

func binModifierEqual(a, b *BinModifier) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Card == b.Card && a.ReturnBool == b.ReturnBool &&
		labelModifierEqual(a.Matching, b.Matching) &&
		stringSetEqual(a.Include, b.Include)
}

func offsetEqual(a, b *Offset) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Signed() == b.Signed()
}

func atEqual(a, b *AtModifier) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == AtTimestamp {
		return a.Timestamp == b.Timestamp
	}
	return true
}
