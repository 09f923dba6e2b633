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

package checker

import (
	"testing"

	"sigs.k8s.io/promqlint/config"
	"sigs.k8s.io/promqlint/errors"
	"sigs.k8s.io/promqlint/parser"
)

func checkQuery(t *testing.T, q string, flags config.Flags) *errors.ParseError {
	t.Helper()
	expr, perr := parser.Parse(q)
	if perr != nil {
		t.Fatalf("parse %q: %v", q, perr)
	}
	return Check(expr, flags)
}

func TestCheckValidQueries(t *testing.T) {
	cases := []string{
		`http_requests_total{code="200"}`,
		`rate(http_requests_total[5m])`,
		`sum by (job) (rate(http_requests_total[5m]))`,
		`topk(5, http_requests_total)`,
		`count_values("version", build_info)`,
		`foo / on(instance) group_left(version) bar`,
		`foo and on(instance) bar`,
		`1 + 1`,
		`1 == bool 2`,
		`histogram_quantile(0.9, rate(latency_bucket[5m]))`,
		`foo[5m:1m]`,
	}
	for _, q := range cases {
		if perr := checkQuery(t, q, config.Default()); perr != nil {
			t.Errorf("Check(%q) = %v, want nil", q, perr)
		}
	}
}

func TestCheckRejectsEmptySelector(t *testing.T) {
	perr := checkQuery(t, `{job=""}`, config.Default())
	if perr == nil {
		t.Fatal("expected error for selector matching every series")
	}
	if perr.Kind != errors.SemanticError {
		t.Errorf("Kind = %s, want SemanticError", perr.Kind)
	}
}

func TestCheckAllowsSelectorWithMetricName(t *testing.T) {
	if perr := checkQuery(t, `foo{job=""}`, config.Default()); perr != nil {
		t.Errorf("Check(%q) = %v, want nil", `foo{job=""}`, perr)
	}
}

func TestCheckRejectsInvalidRegex(t *testing.T) {
	perr := checkQuery(t, `foo{bar=~"("}`, config.Default())
	if perr == nil || perr.Kind != errors.SemanticError {
		t.Fatalf("got %v, want SemanticError", perr)
	}
}

func TestCheckRejectsRateOnInstantVector(t *testing.T) {
	perr := checkQuery(t, `rate(foo)`, config.Default())
	if perr == nil || perr.Kind != errors.SemanticError {
		t.Fatalf("got %v, want SemanticError", perr)
	}
}

func TestCheckRejectsUnknownFunction(t *testing.T) {
	perr := checkQuery(t, `bogus_fn(foo)`, config.Default())
	if perr == nil || perr.Kind != errors.SemanticError {
		t.Fatalf("got %v, want SemanticError", perr)
	}
}

func TestCheckRejectsWrongArity(t *testing.T) {
	perr := checkQuery(t, `abs(foo, bar)`, config.Default())
	if perr == nil || perr.Kind != errors.SemanticError {
		t.Fatalf("got %v, want SemanticError", perr)
	}
}

func TestCheckRejectsReservedFunctionName(t *testing.T) {
	perr := checkQuery(t, `smoothed(foo)`, config.Default())
	if perr == nil || perr.Kind != errors.SemanticError {
		t.Fatalf("got %v, want SemanticError", perr)
	}
}

func TestCheckExperimentalFunctionGating(t *testing.T) {
	q := `limitk(5, foo)`
	if perr := checkQuery(t, q, config.Default()); perr == nil {
		t.Fatal("expected limitk to be rejected by default")
	}
	flags := config.Default()
	flags.EnableExperimentalFunctions = true
	if perr := checkQuery(t, q, flags); perr != nil {
		t.Fatalf("expected limitk to be accepted when enabled, got %v", perr)
	}
}

func TestCheckTopKRequiresScalarParam(t *testing.T) {
	perr := checkQuery(t, `topk(foo, bar)`, config.Default())
	if perr == nil || perr.Kind != errors.SemanticError {
		t.Fatalf("got %v, want SemanticError", perr)
	}
}

func TestCheckCountValuesRequiresStringParam(t *testing.T) {
	perr := checkQuery(t, `count_values(5, foo)`, config.Default())
	if perr == nil || perr.Kind != errors.SemanticError {
		t.Fatalf("got %v, want SemanticError", perr)
	}
}

func TestCheckRejectsDuplicateGroupingLabels(t *testing.T) {
	perr := checkQuery(t, `sum by (job, job) (foo)`, config.Default())
	if perr == nil || perr.Kind != errors.SemanticError {
		t.Fatalf("got %v, want SemanticError", perr)
	}
}

func TestCheckRejectsSetOperatorBetweenScalars(t *testing.T) {
	perr := checkQuery(t, `1 and 2`, config.Default())
	if perr == nil || perr.Kind != errors.SemanticError {
		t.Fatalf("got %v, want SemanticError", perr)
	}
}

func TestCheckRejectsGroupModifierOnSetOperator(t *testing.T) {
	perr := checkQuery(t, `foo and on(instance) group_left() bar`, config.Default())
	if perr == nil || perr.Kind != errors.SemanticError {
		t.Fatalf("got %v, want SemanticError", perr)
	}
}

func TestCheckRejectsGroupLeftWithoutMatching(t *testing.T) {
	perr := checkQuery(t, `foo * group_left() bar`, config.Default())
	if perr == nil || perr.Kind != errors.SemanticError {
		t.Fatalf("got %v, want SemanticError", perr)
	}
}

func TestCheckRejectsOverlappingMatchingAndIncludeLabels(t *testing.T) {
	perr := checkQuery(t, `foo * on(instance) group_left(instance) bar`, config.Default())
	if perr == nil || perr.Kind != errors.SemanticError {
		t.Fatalf("got %v, want SemanticError", perr)
	}
}

func TestCheckRejectsBoolOnNonComparison(t *testing.T) {
	perr := checkQuery(t, `foo + bool bar`, config.Default())
	if perr == nil || perr.Kind != errors.SemanticError {
		t.Fatalf("got %v, want SemanticError", perr)
	}
}

func TestCheckRejectsNonFiniteAtTimestamp(t *testing.T) {
	perr := checkQuery(t, `foo @ NaN`, config.Default())
	if perr == nil || perr.Kind != errors.SemanticError {
		t.Fatalf("got %v, want SemanticError", perr)
	}
}

func TestCheckStrictLabelNamesFlag(t *testing.T) {
	q := `{"not.valid"="x"}`
	if perr := checkQuery(t, q, config.Default()); perr != nil {
		t.Fatalf("default flags should accept: %v", perr)
	}
	strict := config.Flags{StrictLabelNames: true}
	if perr := checkQuery(t, q, strict); perr == nil {
		t.Fatal("strict flags should reject a non-legacy label name")
	}
}
