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

package printer_test

import (
	"testing"

	"sigs.k8s.io/promqlint/ast"
	"sigs.k8s.io/promqlint/checker"
	"sigs.k8s.io/promqlint/config"
	"sigs.k8s.io/promqlint/parser"
	"sigs.k8s.io/promqlint/printer"
)

func mustParse(t *testing.T, q string) ast.Expr {
	t.Helper()
	expr, perr := parser.Parse(q)
	if perr != nil {
		t.Fatalf("parse %q: %v", q, perr)
	}
	if cerr := checker.Check(expr, config.Default()); cerr != nil {
		t.Fatalf("check %q: %v", q, cerr)
	}
	return expr
}

func TestRoundTrip(t *testing.T) {
	cases := []string{
		`http_requests_total`,
		`http_requests_total{code="200", job="prometheus"}`,
		`http_requests_total{environment=~"staging|testing|development",method!="GET"}`,
		`rate(http_requests_total[5m])`,
		`sum by (job) (rate(http_requests_total[5m]))`,
		`sum without (instance) (rate(http_requests_total[5m]))`,
		`topk(5, http_requests_total)`,
		`foo / on(instance) group_left(version) bar`,
		`foo * bar - baz`,
		`foo - (bar - baz)`,
		`(foo - bar) - baz`,
		`2 ^ 3 ^ 4`,
		`(2 ^ 3) ^ 4`,
		`-foo`,
		`1 + -2`,
		`foo offset 5m`,
		`foo offset -5m`,
		`foo[5m:1m]`,
		`foo[5m:]`,
		`count_values("version", build_info)`,
		`foo == bool bar`,
	}
	for _, q := range cases {
		q := q
		t.Run(q, func(t *testing.T) {
			first := mustParse(t, q)
			pretty := printer.Pretty(first)

			second := mustParse(t, pretty)
			if !ast.Equal(first, second) {
				t.Fatalf("round trip mismatch: %q -> %q -> not equal", q, pretty)
			}

			prettyAgain := printer.Pretty(second)
			if pretty != prettyAgain {
				t.Fatalf("pretty not idempotent: %q vs %q", pretty, prettyAgain)
			}
		})
	}
}

func TestPrettyLabelsSorted(t *testing.T) {
	expr := mustParse(t, `foo{z="1",a="2",m="3"}`)
	got := printer.Pretty(expr)
	want := `foo{a="2", m="3", z="1"}`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPrettyNumberForms(t *testing.T) {
	cases := map[string]string{
		`1`:    "1",
		`1.5`:  "1.5",
		`-1`:   "-1",
		`NaN`:  "NaN",
		`+Inf`: "+Inf",
		`-Inf`: "-Inf",
	}
	for in, want := range cases {
		expr := mustParse(t, in)
		if got := printer.Pretty(expr); got != want {
			t.Errorf("Pretty(%q) = %q, want %q", in, got, want)
		}
	}
}
