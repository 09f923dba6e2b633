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

// Package promqlint is the public entry point: lex, parse and
// semantically check a PromQL query string, returning a validated AST or
// the first diagnostic encountered.
package promqlint

import (
	"time"

	"sigs.k8s.io/promqlint/ast"
	"sigs.k8s.io/promqlint/checker"
	"sigs.k8s.io/promqlint/config"
	"sigs.k8s.io/promqlint/errors"
	"sigs.k8s.io/promqlint/internal/metrics"
	"sigs.k8s.io/promqlint/parser"
	"sigs.k8s.io/promqlint/printer"
)

// Option configures a Parse call.
type Option func(*options)

type options struct {
	flags     config.Flags
	collector *metrics.Collector
	now       func() time.Time
}

// WithFlags overrides the default feature flags (experimental functions
// disabled, post-v2.45 label names accepted).
func WithFlags(f config.Flags) Option {
	return func(o *options) { o.flags = f }
}

// WithCollector attaches a metrics.Collector that every Parse call reports
// its outcome and duration to.
func WithCollector(c *metrics.Collector) Option {
	return func(o *options) { o.collector = c }
}

// Parse lexes, parses and semantically checks query, returning the
// validated AST or the first ParseError encountered. Equal queries
// evaluated by package ast's Equal produce ASTs that compare equal.
func Parse(query string, opts ...Option) (ast.Expr, *errors.ParseError) {
	o := &options{flags: config.Default(), now: time.Now}
	for _, opt := range opts {
		opt(o)
	}

	start := o.now()
	expr, perr := parser.Parse(query)
	if perr == nil {
		perr = checker.Check(expr, o.flags)
	}
	if perr != nil {
		expr = nil
	}
	o.report(perr, query, start)
	return expr, perr
}

func (o *options) report(perr *errors.ParseError, query string, start time.Time) {
	if o.collector == nil {
		return
	}
	outcome := metrics.OutcomeSuccess
	if perr != nil {
		switch perr.Kind {
		case errors.LexError:
			outcome = metrics.OutcomeLexError
		case errors.SyntaxError:
			outcome = metrics.OutcomeSyntax
		case errors.SemanticError:
			outcome = metrics.OutcomeSemantic
		}
	}
	o.collector.ObserveParse(outcome, len(query), o.now().Sub(start).Seconds())
}

// Pretty renders e in canonical form; feeding the result back through Parse
// yields an AST equal to e under ast.Equal.
func Pretty(e ast.Expr) string {
	return printer.Pretty(e)
}
