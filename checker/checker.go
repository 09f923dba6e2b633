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

// Package checker runs the post-order semantic walk a context-free grammar
// cannot express: label-matcher consistency, modifier legality,
// scalar/vector type compatibility, and function arity/argument checks.
package checker

import (
	"math"
	"strconv"

	"github.com/grafana/regexp"
	"github.com/prometheus/common/model"

	"sigs.k8s.io/promqlint/ast"
	"sigs.k8s.io/promqlint/config"
	"sigs.k8s.io/promqlint/errors"
	"sigs.k8s.io/promqlint/functions"
)

type checker struct {
	flags config.Flags
}

// Check walks e bottom-up, validating every node and resolving Call.Func,
// and returns the first failing check as a *errors.ParseError, or nil if e
// is a fully legal query. e must come from package parser; Check does not
// re-verify structural invariants the parser already guarantees.
func Check(e ast.Expr, flags config.Flags) (perr *errors.ParseError) {
	c := &checker{flags: flags}
	defer func() {
		if r := recover(); r != nil {
			pe, ok := r.(*errors.ParseError)
			if !ok {
				panic(r)
			}
			perr = pe
		}
	}()
	c.check(e)
	return nil
}

func (c *checker) check(e ast.Expr) ast.ValueType {
	switch x := e.(type) {
	case *ast.NumberLiteral:
		return ast.ValueScalar
	case *ast.StringLiteral:
		return ast.ValueString
	case *ast.ParenExpr:
		return c.check(x.Expr)
	case *ast.UnaryExpr:
		t := c.check(x.Expr)
		if t != ast.ValueScalar && t != ast.ValueVector {
			panic(errors.Semantic(x.Span(), "unary expression requires a scalar or instant vector operand, got %s", t))
		}
		return t
	case *ast.VectorSelector:
		c.checkVectorSelector(x)
		return ast.ValueVector
	case *ast.MatrixSelector:
		c.checkVectorSelector(x.VectorSelector)
		if x.Range <= 0 {
			panic(errors.Semantic(x.Span(), "range must be greater than 0"))
		}
		return ast.ValueMatrix
	case *ast.SubqueryExpr:
		t := c.check(x.Expr)
		if t != ast.ValueVector {
			panic(errors.Semantic(x.Span(), "subquery is only allowed on instant vector expressions, got %s", t))
		}
		if x.Range <= 0 {
			panic(errors.Semantic(x.Span(), "range must be greater than 0"))
		}
		if x.Step != nil && *x.Step < 0 {
			panic(errors.Semantic(x.Span(), "subquery step must be non-negative"))
		}
		if x.At != nil {
			c.checkAtModifier(x.At)
		}
		return ast.ValueMatrix
	case *ast.Call:
		return c.checkCall(x)
	case *ast.AggregateExpr:
		return c.checkAggregate(x)
	case *ast.BinaryExpr:
		return c.checkBinary(x)
	default:
		panic(errors.SemanticNoSpan("unhandled expression type %T", e))
	}
}

func (c *checker) checkAtModifier(at *ast.AtModifier) {
	if at.Kind != ast.AtTimestamp {
		return
	}
	if math.IsNaN(at.Timestamp) || math.IsInf(at.Timestamp, 0) {
		panic(errors.Semantic(at.PosRange, "@ timestamp must be a finite number"))
	}
}

func (c *checker) checkVectorSelector(v *ast.VectorSelector) {
	for _, m := range v.Matchers.Items {
		c.checkMatcher(m)
	}
	for _, group := range v.Matchers.Or {
		for _, m := range group {
			c.checkMatcher(m)
		}
	}

	c.checkNameConsistency(v)
	c.checkNonEmpty(v)

	if v.At != nil {
		c.checkAtModifier(v.At)
	}
}

func (c *checker) checkMatcher(m *ast.Matcher) {
	if !c.isValidLabelName(m.Name) {
		panic(errors.Semantic(m.Span(), "invalid label name %q", m.Name))
	}
	if m.Op != ast.MatchRegexp && m.Op != ast.MatchNotRegexp {
		return
	}
	re, err := regexp.Compile("^(?:" + m.Value + ")$")
	if err != nil {
		panic(errors.Semantic(m.Span(), "invalid regular expression %q: %s", m.Value, err))
	}
	m.SetRegexp(re)
}

// isValidLabelName enforces the legacy ASCII label-name grammar only when
// config.Flags.StrictLabelNames targets the strict v2.45 consumer; the
// default accepts any non-empty UTF-8 name, matching the post-v2.45 label
// scheme this module targets otherwise.
func (c *checker) isValidLabelName(name string) bool {
	if c.flags.StrictLabelNames {
		return model.LabelName(name).IsValid()
	}
	return name != ""
}

// checkNameConsistency rejects a metric-identifier name that conflicts with
// an explicit __name__ matcher in braces.
func (c *checker) checkNameConsistency(v *ast.VectorSelector) {
	var explicit []string
	for _, m := range v.Matchers.Items {
		if m.Name == model.MetricNameLabel && m.Op == ast.MatchEqual {
			explicit = append(explicit, m.Value)
		}
	}
	for i := 1; i < len(explicit); i++ {
		if explicit[i] != explicit[0] {
			panic(errors.Semantic(v.Span(), "conflicting __name__ matchers: %q and %q", explicit[0], explicit[i]))
		}
	}
	if v.Name != "" {
		for _, e := range explicit {
			if e != v.Name {
				panic(errors.Semantic(v.Span(), "metric name %q conflicts with __name__ matcher %q", v.Name, e))
			}
		}
	}
}

// checkNonEmpty rejects a selector that, lacking a metric name, has a
// matcher group (the first group or any OR-group) that matches every series
// unconditionally.
func (c *checker) checkNonEmpty(v *ast.VectorSelector) {
	if v.Name != "" {
		return
	}
	if !anyRestricts(v.Matchers.Items) {
		panic(errors.Semantic(v.Span(), "vector selector must contain at least one non-empty matcher"))
	}
	for _, group := range v.Matchers.Or {
		if !anyRestricts(group) {
			panic(errors.Semantic(v.Span(), "vector selector must contain at least one non-empty matcher"))
		}
	}
}

func anyRestricts(ms []*ast.Matcher) bool {
	for _, m := range ms {
		restricts := true
		if (m.Op == ast.MatchEqual || m.Op == ast.MatchRegexp) && m.Matches("") {
			restricts = false
		}
		if restricts {
			return true
		}
	}
	return false
}

func (c *checker) checkCall(call *ast.Call) ast.ValueType {
	sig, ok := functions.Lookup(call.FuncName)
	if !ok {
		panic(errors.Semantic(call.Span(), "unknown function %q", call.FuncName))
	}
	if sig.Reserved {
		panic(errors.Semantic(call.Span(), "%q is a reserved name and is not a supported function", call.FuncName))
	}
	if sig.Experimental && !c.flags.EnableExperimentalFunctions {
		panic(errors.Semantic(call.Span(), "%q is an experimental function, not enabled", call.FuncName))
	}

	n := len(call.Args)
	if n < sig.MinArgs || (!sig.Variadic() && n > sig.MaxArgs) {
		panic(errors.Semantic(call.Span(), "%q expects %s, got %d", call.FuncName, arityDesc(sig), n))
	}

	for i, arg := range call.Args {
		got := c.check(arg)
		want := sig.ArgTypeAt(i)
		if want != ast.ValueNone && got != want {
			panic(errors.Semantic(arg.Span(), "%q argument %d: expected %s, got %s", call.FuncName, i+1, want, got))
		}
	}

	call.Func = sig
	return sig.ReturnType
}

func arityDesc(sig *ast.FuncSig) string {
	if sig.Variadic() {
		if sig.MinArgs == 0 {
			return "any number of arguments"
		}
		return "at least " + strconv.Itoa(sig.MinArgs) + " argument(s)"
	}
	if sig.MinArgs == sig.MaxArgs {
		return strconv.Itoa(sig.MinArgs) + " argument(s)"
	}
	return "between " + strconv.Itoa(sig.MinArgs) + " and " + strconv.Itoa(sig.MaxArgs) + " arguments"
}

func (c *checker) checkAggregate(agg *ast.AggregateExpr) ast.ValueType {
	t := c.check(agg.Expr)
	if t != ast.ValueVector {
		panic(errors.Semantic(agg.Expr.Span(), "aggregation operand must be an instant vector, got %s", t))
	}

	if agg.Op == ast.AggLimitK || agg.Op == ast.AggLimitRatio {
		if !c.flags.EnableExperimentalFunctions {
			panic(errors.Semantic(agg.Span(), "%s is an experimental aggregator, not enabled", agg.Op))
		}
	}

	if agg.Op.HasParam() {
		if agg.Param == nil {
			panic(errors.Semantic(agg.Span(), "%s requires a parameter", agg.Op))
		}
		pt := c.check(agg.Param)
		switch agg.Op {
		case ast.AggCountValues:
			if pt != ast.ValueString {
				panic(errors.Semantic(agg.Param.Span(), "%s parameter must be a string, got %s", agg.Op, pt))
			}
		default:
			if pt != ast.ValueScalar {
				panic(errors.Semantic(agg.Param.Span(), "%s parameter must be a scalar, got %s", agg.Op, pt))
			}
			if agg.Op == ast.AggTopK || agg.Op == ast.AggBottomK || agg.Op == ast.AggLimitK {
				if n, ok := agg.Param.(*ast.NumberLiteral); ok && n.Val != math.Trunc(n.Val) {
					panic(errors.Semantic(agg.Param.Span(), "%s parameter must be an integer", agg.Op))
				}
			}
		}
	} else if agg.Param != nil {
		panic(errors.Semantic(agg.Param.Span(), "%s does not take a parameter", agg.Op))
	}

	if agg.Modifier != nil {
		checkUniqueLabels(agg.Span(), agg.Modifier.Labels)
	}
	return ast.ValueVector
}

func checkUniqueLabels(span ast.Span, labels []string) {
	seen := map[string]bool{}
	for _, l := range labels {
		if seen[l] {
			panic(errors.Semantic(span, "duplicate label name %q", l))
		}
		seen[l] = true
	}
}

func (c *checker) checkBinary(b *ast.BinaryExpr) ast.ValueType {
	lt := c.check(b.LHS)
	rt := c.check(b.RHS)

	lok := lt == ast.ValueScalar || lt == ast.ValueVector
	rok := rt == ast.ValueScalar || rt == ast.ValueVector
	if !lok || !rok {
		panic(errors.Semantic(b.Span(), "binary expression operands must be scalar or instant vector"))
	}

	if b.Modifier != nil && b.Modifier.ReturnBool && !b.Op.IsComparisonOperator() {
		panic(errors.Semantic(b.Span(), "bool modifier is only valid on comparison operators"))
	}

	switch {
	case lt == ast.ValueScalar && rt == ast.ValueScalar:
		if b.Op.IsSetOperator() {
			panic(errors.Semantic(b.Span(), "set operators not allowed in binary scalar expression"))
		}
		if b.Modifier != nil && (b.Modifier.Matching != nil || b.Modifier.Card != ast.CardOneToOne) {
			panic(errors.Semantic(b.Span(), "vector matching not allowed between two scalars"))
		}
		return ast.ValueScalar

	case lt == ast.ValueScalar || rt == ast.ValueScalar:
		if b.Op.IsSetOperator() {
			panic(errors.Semantic(b.Span(), "set operators not allowed between a vector and a scalar"))
		}
		if b.Modifier != nil && b.Modifier.Matching != nil {
			panic(errors.Semantic(b.Span(), "vector matching not allowed between a vector and a scalar"))
		}
		return ast.ValueVector

	default: // vector op vector
		if b.Op.IsSetOperator() && b.Modifier != nil && b.Modifier.Card != ast.CardOneToOne {
			panic(errors.Semantic(b.Span(), "group_left/group_right not allowed for and/or/unless"))
		}
		if b.Modifier != nil {
			if b.Modifier.Matching != nil {
				checkUniqueLabels(b.Span(), b.Modifier.Matching.Labels)
			}
			if b.Modifier.Card != ast.CardOneToOne {
				if b.Modifier.Matching == nil {
					panic(errors.Semantic(b.Span(), "must specify on() or ignoring() when using group_left/group_right"))
				}
				checkUniqueLabels(b.Span(), b.Modifier.Include)
				matching := map[string]bool{}
				for _, l := range b.Modifier.Matching.Labels {
					matching[l] = true
				}
				for _, l := range b.Modifier.Include {
					if matching[l] {
						panic(errors.Semantic(b.Span(), "label %q must not appear in both the matching and group labels", l))
					}
				}
			}
		}
		return ast.ValueVector
	}
}
