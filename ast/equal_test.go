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

import "testing"

func matcher(name string, op MatchOp, value string) *Matcher {
	return NewMatcher(op, name, value, Span{})
}

func TestMatchersEqualIgnoresOrder(t *testing.T) {
	a := &Matchers{Items: []*Matcher{
		matcher("job", MatchEqual, "a"),
		matcher("code", MatchEqual, "200"),
	}}
	b := &Matchers{Items: []*Matcher{
		matcher("code", MatchEqual, "200"),
		matcher("job", MatchEqual, "a"),
	}}
	if !a.Equal(b) {
		t.Fatal("expected matcher sets to compare equal regardless of order")
	}
}

func TestMatchersEqualDetectsDifference(t *testing.T) {
	a := &Matchers{Items: []*Matcher{matcher("job", MatchEqual, "a")}}
	b := &Matchers{Items: []*Matcher{matcher("job", MatchEqual, "b")}}
	if a.Equal(b) {
		t.Fatal("expected matcher sets with different values to differ")
	}
}

func TestMatchersEqualOrGroupsCommutative(t *testing.T) {
	g1 := []*Matcher{matcher("a", MatchEqual, "1")}
	g2 := []*Matcher{matcher("b", MatchEqual, "2")}
	a := &Matchers{Or: [][]*Matcher{g1, g2}}
	b := &Matchers{Or: [][]*Matcher{g2, g1}}
	if !a.Equal(b) {
		t.Fatal("expected OR-groups to compare equal regardless of group order")
	}
}

func TestEqualVectorSelector(t *testing.T) {
	x := &VectorSelector{Name: "foo", Matchers: &Matchers{Items: []*Matcher{matcher("job", MatchEqual, "a")}}}
	y := &VectorSelector{Name: "foo", Matchers: &Matchers{Items: []*Matcher{matcher("job", MatchEqual, "a")}}}
	if !Equal(x, y) {
		t.Fatal("expected equal vector selectors to compare equal")
	}
	y.Name = "bar"
	if Equal(x, y) {
		t.Fatal("expected different names to compare unequal")
	}
}

func TestEqualNumberLiteralNaN(t *testing.T) {
	nan := &NumberLiteral{Val: nanFloat()}
	if !Equal(nan, &NumberLiteral{Val: nanFloat()}) {
		t.Fatal("expected NaN to equal NaN under Equal")
	}
}

func nanFloat() float64 {
	var zero float64
	return zero / zero
}

func TestEqualBinaryExprIgnoresModifierLabelOrder(t *testing.T) {
	lhs := &VectorSelector{Name: "foo", Matchers: &Matchers{}}
	rhs := &VectorSelector{Name: "bar", Matchers: &Matchers{}}
	a := &BinaryExpr{Op: 0, LHS: lhs, RHS: rhs, Modifier: &BinModifier{
		Matching: &LabelModifier{Include: true, Labels: []string{"a", "b"}},
	}}
	b := &BinaryExpr{Op: 0, LHS: lhs, RHS: rhs, Modifier: &BinModifier{
		Matching: &LabelModifier{Include: true, Labels: []string{"b", "a"}},
	}}
	if !Equal(a, b) {
		t.Fatal("expected label order within a modifier to be irrelevant")
	}
}

func TestSortedStableOrdering(t *testing.T) {
	ms := &Matchers{Items: []*Matcher{
		matcher("z", MatchEqual, "1"),
		matcher("a", MatchEqual, "2"),
		matcher("m", MatchEqual, "3"),
	}}
	sorted := ms.Sorted()
	names := []string{sorted[0].Name, sorted[1].Name, sorted[2].Name}
	want := []string{"a", "m", "z"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Sorted() order = %v, want %v", names, want)
		}
	}
}
