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

// Package errors defines the single error type returned by this module: a
// span-carrying, kind-tagged ParseError. There is no partial-AST recovery —
// the parser returns at the first failure.
package errors

import (
	"fmt"

	"sigs.k8s.io/promqlint/lexer"
)

// Kind tags why a query failed to parse.
type Kind int

const (
	// LexError: unterminated string/comment, illegal byte, malformed
	// number/duration, invalid escape sequence.
	LexError Kind = iota
	// SyntaxError: grammar reduction failed.
	SyntaxError
	// SemanticError: type mismatch, invalid modifier, unknown function,
	// bad arity, duplicate label, duplicate offset/@, empty vector
	// selector, invalid regex, invalid duration, @ on a disallowed
	// expression.
	SemanticError
)

func (k Kind) String() string {
	switch k {
	case LexError:
		return "lex error"
	case SyntaxError:
		return "syntax error"
	case SemanticError:
		return "semantic error"
	default:
		return "error"
	}
}

// ParseError is returned by Parse on any failure. Span is present whenever
// the offending token's position is known.
type ParseError struct {
	Kind    Kind
	Message string
	Span    *lexer.Span
}

func (e *ParseError) Error() string {
	if e.Span != nil {
		return fmt.Sprintf("%s: %s (at %d:%d)", e.Kind, e.Message, e.Span.Start, e.Span.End)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func Lex(span lexer.Span, format string, args ...interface{}) *ParseError {
	return &ParseError{Kind: LexError, Message: fmt.Sprintf(format, args...), Span: &span}
}

func Syntax(span lexer.Span, format string, args ...interface{}) *ParseError {
	return &ParseError{Kind: SyntaxError, Message: fmt.Sprintf(format, args...), Span: &span}
}

func SyntaxNoSpan(format string, args ...interface{}) *ParseError {
	return &ParseError{Kind: SyntaxError, Message: fmt.Sprintf(format, args...)}
}

func Semantic(span lexer.Span, format string, args ...interface{}) *ParseError {
	return &ParseError{Kind: SemanticError, Message: fmt.Sprintf(format, args...), Span: &span}
}

func SemanticNoSpan(format string, args ...interface{}) *ParseError {
	return &ParseError{Kind: SemanticError, Message: fmt.Sprintf(format, args...)}
}
