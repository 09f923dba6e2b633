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

// Package ast defines the PromQL abstract syntax tree: a sum type over
// roughly a dozen expression variants plus the modifier records attached to
// selectors and binary expressions. Nodes are built bottom-up by the
// parser and are not mutated once the semantic checker has accepted them,
// aside from the checker itself resolving Call.Func and Matcher's compiled
// regexp as the very last step before returning.
package ast

import (
	"time"

	"sigs.k8s.io/promqlint/lexer"
)

// Span is a byte-offset range in the original query; re-exported from lexer
// so consumers of this package never need to import lexer directly.
type Span = lexer.Span

// ValueType classifies the value an expression evaluates to.
type ValueType int

const (
	ValueNone ValueType = iota
	ValueVector
	ValueScalar
	ValueMatrix
	ValueString
)

func (v ValueType) String() string {
	switch v {
	case ValueVector:
		return "instant vector"
	case ValueScalar:
		return "scalar"
	case ValueMatrix:
		return "range vector"
	case ValueString:
		return "string"
	default:
		return "none"
	}
}

// Node is the common interface for every AST node, including modifiers that
// are not themselves expressions.
type Node interface {
	Span() Span
}

// Expr is the sum type over AggregateExpr, UnaryExpr, BinaryExpr, ParenExpr,
// SubqueryExpr, NumberLiteral, StringLiteral, VectorSelector, MatrixSelector
// and Call.
type Expr interface {
	Node
	exprNode()
}

// FuncSig is a function-catalog entry: the static signature the checker
// validates Call arguments against. Declared here (rather than in package
// functions) so ast.Call can reference a resolved signature without an
// import cycle; package functions only builds the table of these values.
type FuncSig struct {
	Name string
	// ArgTypes gives the type expected at each position. When MaxArgs
	// exceeds len(ArgTypes) (variadic), positions beyond the slice reuse
	// its last element.
	ArgTypes []ValueType
	MinArgs  int
	// MaxArgs of -1 means unbounded (variadic).
	MaxArgs      int
	ReturnType   ValueType
	Experimental bool
	Reserved     bool
}

// Variadic reports whether the signature accepts an unbounded tail of
// trailing arguments.
func (f *FuncSig) Variadic() bool { return f.MaxArgs < 0 }

// ArgTypeAt returns the expected type for the argument at position i
// (0-based), honoring variadic tails.
func (f *FuncSig) ArgTypeAt(i int) ValueType {
	if i < len(f.ArgTypes) {
		return f.ArgTypes[i]
	}
	if len(f.ArgTypes) == 0 {
		return ValueNone
	}
	return f.ArgTypes[len(f.ArgTypes)-1]
}

// AggregatorOp identifies an aggregation operator.
type AggregatorOp int

const (
	AggSum AggregatorOp = iota
	AggAvg
	AggCount
	AggMin
	AggMax
	AggGroup
	AggStddev
	AggStdvar
	AggTopK
	AggBottomK
	AggCountValues
	AggQuantile
	AggLimitK
	AggLimitRatio
)

var aggregatorNames = map[AggregatorOp]string{
	AggSum:         "sum",
	AggAvg:         "avg",
	AggCount:       "count",
	AggMin:         "min",
	AggMax:         "max",
	AggGroup:       "group",
	AggStddev:      "stddev",
	AggStdvar:      "stdvar",
	AggTopK:        "topk",
	AggBottomK:     "bottomk",
	AggCountValues: "count_values",
	AggQuantile:    "quantile",
	AggLimitK:      "limitk",
	AggLimitRatio:  "limit_ratio",
}

func (a AggregatorOp) String() string {
	if s, ok := aggregatorNames[a]; ok {
		return s
	}
	return "unknown"
}

// HasParam reports whether the aggregator takes a parameter expression
// ahead of the aggregated vector.
func (a AggregatorOp) HasParam() bool {
	switch a {
	case AggTopK, AggBottomK, AggCountValues, AggQuantile, AggLimitK, AggLimitRatio:
		return true
	default:
		return false
	}
}

// AggregatorFromItem maps a lexer aggregator ItemType to an AggregatorOp.
func AggregatorFromItem(t lexer.ItemType) (AggregatorOp, bool) {
	switch t {
	case lexer.SUM:
		return AggSum, true
	case lexer.AVG:
		return AggAvg, true
	case lexer.COUNT:
		return AggCount, true
	case lexer.MIN:
		return AggMin, true
	case lexer.MAX:
		return AggMax, true
	case lexer.GROUP:
		return AggGroup, true
	case lexer.STDDEV:
		return AggStddev, true
	case lexer.STDVAR:
		return AggStdvar, true
	case lexer.TOPK:
		return AggTopK, true
	case lexer.BOTTOMK:
		return AggBottomK, true
	case lexer.COUNT_VALUES:
		return AggCountValues, true
	case lexer.QUANTILE:
		return AggQuantile, true
	case lexer.LIMITK:
		return AggLimitK, true
	case lexer.LIMIT_RATIO:
		return AggLimitRatio, true
	default:
		return 0, false
	}
}

// AggModifier is the `by(...)`/`without(...)` decoration on an AggregateExpr.
type AggModifier struct {
	Without  bool
	Labels   []string
	PosRange Span
}

// AggregateExpr aggregates Expr over the label dimensions named (or
// complemented) by Modifier, optionally taking Param (topk/bottomk/quantile/
// count_values and the experimental limitk/limit_ratio only).
type AggregateExpr struct {
	Op       AggregatorOp
	Expr     Expr
	Param    Expr
	Modifier *AggModifier
	PosRange Span
}

func (e *AggregateExpr) exprNode()  {}
func (e *AggregateExpr) Span() Span { return e.PosRange }

// UnaryExpr is a negation; unary plus is folded away by the parser and never
// produces a node.
type UnaryExpr struct {
	Op       lexer.ItemType // always SUB
	Expr     Expr
	PosRange Span
}

func (e *UnaryExpr) exprNode()  {}
func (e *UnaryExpr) Span() Span { return e.PosRange }

// VectorMatchCardinality classifies how a BinaryExpr pairs series between
// its two vector operands.
type VectorMatchCardinality int

const (
	CardOneToOne VectorMatchCardinality = iota
	CardManyToOne
	CardOneToMany
	CardManyToMany
)

func (c VectorMatchCardinality) String() string {
	switch c {
	case CardOneToOne:
		return "one-to-one"
	case CardManyToOne:
		return "many-to-one"
	case CardOneToMany:
		return "one-to-many"
	case CardManyToMany:
		return "many-to-many"
	default:
		return "unknown"
	}
}

// LabelModifier tags a label set as included (on/by) or excluded
// (ignoring/without).
type LabelModifier struct {
	Include bool // true = on/by, false = ignoring/without
	Labels  []string
}

// BinModifier decorates a BinaryExpr with its label-matching and grouping
// behavior.
type BinModifier struct {
	Matching   *LabelModifier // nil if neither on() nor ignoring() was given
	Card       VectorMatchCardinality
	Include    []string // group_left()/group_right() labels to copy across
	ReturnBool bool
	PosRange   Span
}

// BinaryExpr is `LHS Op[Modifier] RHS`.
type BinaryExpr struct {
	Op       lexer.ItemType
	LHS      Expr
	RHS      Expr
	Modifier *BinModifier
	PosRange Span
}

func (e *BinaryExpr) exprNode()  {}
func (e *BinaryExpr) Span() Span { return e.PosRange }

// ParenExpr is a parenthesized expression; it exists so the printer can
// round-trip explicit grouping the author wrote.
type ParenExpr struct {
	Expr     Expr
	PosRange Span
}

func (e *ParenExpr) exprNode()  {}
func (e *ParenExpr) Span() Span { return e.PosRange }

// OffsetDir is the direction an Offset shifts the evaluation timestamp.
type OffsetDir int

const (
	OffsetPos OffsetDir = iota
	OffsetNeg
)

// Offset is a signed duration: `offset 5m` is {5m, OffsetPos}; `offset -5m`
// is {5m, OffsetNeg}.
type Offset struct {
	Duration time.Duration // non-negative magnitude
	Dir      OffsetDir
	PosRange Span
}

// Signed returns the offset as a single signed duration (positive offsets
// shift evaluation backward in time).
func (o Offset) Signed() time.Duration {
	if o.Dir == OffsetNeg {
		return -o.Duration
	}
	return o.Duration
}

// AtKind identifies which form of `@` modifier is present.
type AtKind int

const (
	AtTimestamp AtKind = iota
	AtStart
	AtEnd
)

// AtModifier fixes the evaluation timestamp of a selector.
type AtModifier struct {
	Kind      AtKind
	Timestamp float64 // only meaningful when Kind == AtTimestamp
	PosRange  Span
}

// SubqueryExpr turns an instant-vector expression into a range vector by
// re-evaluating it at Step intervals over Range. Step == nil means the step
// was omitted (`[5m:]`), which defers to the evaluator's default step.
type SubqueryExpr struct {
	Expr     Expr
	Range    time.Duration
	Step     *time.Duration
	Offset   *Offset
	At       *AtModifier
	PosRange Span
}

func (e *SubqueryExpr) exprNode()  {}
func (e *SubqueryExpr) Span() Span { return e.PosRange }

// NumberLiteral is a 64-bit float; NaN and ±Inf are legal values.
type NumberLiteral struct {
	Val      float64
	PosRange Span
}

func (e *NumberLiteral) exprNode()  {}
func (e *NumberLiteral) Span() Span { return e.PosRange }

// StringLiteral holds an already-decoded string value.
type StringLiteral struct {
	Val      string
	PosRange Span
}

func (e *StringLiteral) exprNode()  {}
func (e *StringLiteral) Span() Span { return e.PosRange }

// VectorSelector identifies a subset of series by label matching, optionally
// anchored to a specific metric name.
type VectorSelector struct {
	Name     string // "" if no metric name was given
	Matchers *Matchers
	Offset   *Offset
	At       *AtModifier
	PosRange Span
}

func (e *VectorSelector) exprNode()  {}
func (e *VectorSelector) Span() Span { return e.PosRange }

// MatrixSelector wraps a VectorSelector with a range duration, yielding a
// range vector.
type MatrixSelector struct {
	VectorSelector *VectorSelector
	Range          time.Duration
	PosRange       Span
}

func (e *MatrixSelector) exprNode()  {}
func (e *MatrixSelector) Span() Span { return e.PosRange }

// Call invokes a catalog function. Func is nil until the checker resolves
// it; FuncName is always populated by the parser.
type Call struct {
	FuncName string
	Func     *FuncSig
	Args     []Expr
	PosRange Span
}

func (e *Call) exprNode()  {}
func (e *Call) Span() Span { return e.PosRange }
