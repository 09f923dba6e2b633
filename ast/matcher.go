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

import (
	"sort"

	"github.com/grafana/regexp"
)

// MatchOp is the comparison a label Matcher performs.
type MatchOp int

const (
	MatchEqual MatchOp = iota
	MatchNotEqual
	MatchRegexp
	MatchNotRegexp
)

func (op MatchOp) String() string {
	switch op {
	case MatchEqual:
		return "="
	case MatchNotEqual:
		return "!="
	case MatchRegexp:
		return "=~"
	case MatchNotRegexp:
		return "!~"
	default:
		return "?"
	}
}

// Matcher is a single label constraint. For the two regexp operators, re is
// populated by the checker from the anchored pattern `^(?:Value)$`.
type Matcher struct {
	Op       MatchOp
	Name     string
	Value    string
	re       *regexp.Regexp
	PosRange Span
}

func NewMatcher(op MatchOp, name, value string, pos Span) *Matcher {
	return &Matcher{Op: op, Name: name, Value: value, PosRange: pos}
}

func (m *Matcher) Span() Span { return m.PosRange }

// SetRegexp installs the compiled, anchored regexp for a regex matcher. Only
// the checker calls this, exactly once, before the AST is returned.
func (m *Matcher) SetRegexp(re *regexp.Regexp) { m.re = re }

// Regexp returns the compiled anchored pattern, or nil if this matcher is
// not a regexp matcher or hasn't been checked yet.
func (m *Matcher) Regexp() *regexp.Regexp { return m.re }

// Matches reports whether v satisfies this matcher.
func (m *Matcher) Matches(v string) bool {
	switch m.Op {
	case MatchEqual:
		return v == m.Value
	case MatchNotEqual:
		return v != m.Value
	case MatchRegexp:
		return m.re != nil && m.re.MatchString(v)
	case MatchNotRegexp:
		return m.re == nil || !m.re.MatchString(v)
	default:
		return false
	}
}

func (m *Matcher) equals(o *Matcher) bool {
	return m.Op == o.Op && m.Name == o.Name && m.Value == o.Value
}

// Matchers is a commutative multiset of label matchers. Items preserves
// insertion order for canonical printing; equality and membership are
// set-based. Groups beyond the first are alternative OR-groups (the
// post-2.45 label-list extension): a selector matches if any one group's
// matchers are all satisfied.
type Matchers struct {
	Items []*Matcher
	Or    [][]*Matcher
}

// LabelNames returns the distinct label names referenced across every
// matcher, including OR-groups.
func (ms *Matchers) LabelNames() []string {
	seen := map[string]bool{}
	var names []string
	add := func(list []*Matcher) {
		for _, m := range list {
			if !seen[m.Name] {
				seen[m.Name] = true
				names = append(names, m.Name)
			}
		}
	}
	add(ms.Items)
	for _, g := range ms.Or {
		add(g)
	}
	sort.Strings(names)
	return names
}

// Equal compares two matcher sets under set semantics (order-independent),
// including OR-groups compared as an unordered set of unordered groups.
func (ms *Matchers) Equal(other *Matchers) bool {
	if ms == nil || other == nil {
		return ms == other
	}
	if !matcherSetEqual(ms.Items, other.Items) {
		return false
	}
	if len(ms.Or) != len(other.Or) {
		return false
	}
	used := make([]bool, len(other.Or))
	for _, g := range ms.Or {
		found := false
		for j, og := range other.Or {
			if used[j] {
				continue
			}
			if matcherSetEqual(g, og) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func matcherSetEqual(a, b []*Matcher) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, m := range a {
		found := false
		for j, o := range b {
			if used[j] {
				continue
			}
			if m.equals(o) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Sorted returns a copy of Items sorted by label name then operator then
// value, for deterministic canonical printing.
func (ms *Matchers) Sorted() []*Matcher {
	out := make([]*Matcher, len(ms.Items))
	copy(out, ms.Items)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		if out[i].Op != out[j].Op {
			return out[i].Op < out[j].Op
		}
		return out[i].Value < out[j].Value
	})
	return out
}
