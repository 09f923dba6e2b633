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

package functions

import (
	"testing"

	"sigs.k8s.io/promqlint/ast"
)

func TestLookupArity(t *testing.T) {
	tests := []struct {
		name       string
		fn         string
		wantMin    int
		wantMax    int
		wantReturn ast.ValueType
	}{
		{"fixed arity vector func", "abs", 1, 1, ast.ValueVector},
		{"zero-arg func", "time", 0, 0, ast.ValueScalar},
		{"optional single arg", "day_of_month", 0, 1, ast.ValueVector},
		{"round optional scalar", "round", 1, 2, ast.ValueVector},
		{"variadic label_join", "label_join", 4, -1, ast.ValueVector},
		{"fixed 5-arg label_replace", "label_replace", 5, 5, ast.ValueVector},
		{"range-vector arg", "rate", 1, 1, ast.ValueVector},
		{"two range/scalar args", "predict_linear", 2, 2, ast.ValueVector},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, ok := Lookup(tt.fn)
			if !ok {
				t.Fatalf("Lookup(%q) not found", tt.fn)
			}
			if sig.MinArgs != tt.wantMin || sig.MaxArgs != tt.wantMax {
				t.Errorf("Lookup(%q) arity = [%d,%d], want [%d,%d]", tt.fn, sig.MinArgs, sig.MaxArgs, tt.wantMin, tt.wantMax)
			}
			if sig.ReturnType != tt.wantReturn {
				t.Errorf("Lookup(%q) return = %v, want %v", tt.fn, sig.ReturnType, tt.wantReturn)
			}
		})
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, ok := Lookup("not_a_real_function"); ok {
		t.Fatal("Lookup of unknown function should fail")
	}
}

func TestReservedAlwaysRejected(t *testing.T) {
	for _, name := range []string{"smoothed", "anchored"} {
		sig, ok := Lookup(name)
		if !ok {
			t.Fatalf("Lookup(%q) not found", name)
		}
		if !sig.Reserved {
			t.Errorf("Lookup(%q).Reserved = false, want true", name)
		}
	}
}

func TestVariadicArgTypeAt(t *testing.T) {
	sig, ok := Lookup("label_join")
	if !ok {
		t.Fatal("label_join not found")
	}
	if !sig.Variadic() {
		t.Fatal("label_join should be variadic")
	}
	// Positions beyond the declared ArgTypes reuse the last (string) type.
	for i := len(sig.ArgTypes); i < len(sig.ArgTypes)+3; i++ {
		if got := sig.ArgTypeAt(i); got != ast.ValueString {
			t.Errorf("ArgTypeAt(%d) = %v, want string", i, got)
		}
	}
}

func TestNamesCoversOverTimeFamily(t *testing.T) {
	want := []string{
		"avg_over_time", "min_over_time", "max_over_time", "sum_over_time",
		"count_over_time", "quantile_over_time", "stddev_over_time",
		"stdvar_over_time", "last_over_time", "present_over_time",
		"absent_over_time", "mad_over_time",
	}
	names := map[string]bool{}
	for _, n := range Names() {
		names[n] = true
	}
	for _, w := range want {
		if !names[w] {
			t.Errorf("catalog missing %q", w)
		}
	}
}
