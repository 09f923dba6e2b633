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
	"math"
	"strconv"
	"strings"
)

// ParseNumber parses the text of a NUMBER token: decimal integers, decimal
// floats with optional exponent, 0x/0X hex, 0o/0O octal, 0b/0B binary
// integers, and the case-insensitive literals nan, inf, +inf, -inf.
func ParseNumber(s string) (float64, error) {
	lower := strings.ToLower(s)
	switch lower {
	case "nan":
		return math.NaN(), nil
	case "inf", "+inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	}
	if len(lower) > 1 && (lower[0] == '0') {
		switch {
		case len(lower) > 2 && (lower[1] == 'x'):
			n, err := strconv.ParseInt(strings.Replace(s[2:], "_", "", -1), 16, 64)
			if err == nil {
				return float64(n), nil
			}
			u, err2 := strconv.ParseUint(strings.Replace(s[2:], "_", "", -1), 16, 64)
			if err2 != nil {
				return 0, err
			}
			return float64(u), nil
		case len(lower) > 2 && lower[1] == 'o':
			n, err := strconv.ParseUint(s[2:], 8, 64)
			if err != nil {
				return 0, err
			}
			return float64(n), nil
		case len(lower) > 2 && lower[1] == 'b':
			n, err := strconv.ParseUint(s[2:], 2, 64)
			if err != nil {
				return 0, err
			}
			return float64(n), nil
		case isAllDigits(lower[1:]):
			// legacy "0755"-style octal, no "o" prefix.
			n, err := strconv.ParseUint(s[1:], 8, 64)
			if err != nil {
				return 0, err
			}
			return float64(n), nil
		}
	}
	return strconv.ParseFloat(s, 64)
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '7' {
			return false
		}
	}
	return true
}
