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

package lexer

import (
	"fmt"
	"strconv"
	"time"
)

// durationUnits lists the legal units in the order they must appear in a
// duration literal, each at most once.
var durationUnits = []struct {
	suffix string
	unit   time.Duration
}{
	{"y", 365 * 24 * time.Hour},
	{"w", 7 * 24 * time.Hour},
	{"d", 24 * time.Hour},
	{"h", time.Hour},
	{"m", time.Minute},
	{"s", time.Second},
	{"ms", time.Millisecond},
}

// ParseDuration parses a PromQL duration literal such as "1h30m" or "5m" into
// a time.Duration. Units must appear in descending order (y,w,d,h,m,s,ms),
// each at most once, and every component's numeric value must be an
// unsigned integer — fractional components ("1.5h") are rejected.
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	orig := s
	var total time.Duration
	unitIdx := 0
	for len(s) > 0 {
		i := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == 0 {
			return 0, fmt.Errorf("bad duration syntax: %q", orig)
		}
		numStr := s[:i]
		s = s[i:]

		matched := -1
		for idx := unitIdx; idx < len(durationUnits); idx++ {
			suf := durationUnits[idx].suffix
			if len(s) >= len(suf) && s[:len(suf)] == suf {
				// "m" must not match the start of "ms"; prefer the longer
				// match by checking "ms" before "m" via unit ordering
				// (durationUnits lists "s" before "ms", so an explicit
				// look-ahead is needed for the "m"/"ms" ambiguity).
				if suf == "m" && len(s) >= 2 && s[1] == 's' {
					continue
				}
				matched = idx
				break
			}
		}
		if matched == -1 {
			return 0, fmt.Errorf("bad duration syntax: %q", orig)
		}
		n, err := strconv.ParseUint(numStr, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("bad duration syntax: %q: %w", orig, err)
		}
		total += time.Duration(n) * durationUnits[matched].unit
		s = s[len(durationUnits[matched].suffix):]
		unitIdx = matched + 1
	}
	return total, nil
}

// FormatDuration renders d in descending-unit order, omitting zero
// components, printing a lone "0s" for the zero duration. This is the
// canonical form the printer package emits.
func FormatDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	var out string
	remaining := d
	for _, u := range durationUnits {
		if remaining < u.unit {
			continue
		}
		n := remaining / u.unit
		remaining -= n * u.unit
		out += fmt.Sprintf("%d%s", n, u.suffix)
	}
	return out
}
