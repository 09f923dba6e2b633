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

// Package functions holds the PromQL built-in function catalog as a static
// data table, mirroring the real Prometheus v2.45 signatures. New releases
// update this table; the checker never special-cases a function by name.
package functions

import "sigs.k8s.io/promqlint/ast"

var (
	vector = ast.ValueVector
	scalar = ast.ValueScalar
	matrix = ast.ValueMatrix
	str    = ast.ValueString
)

func sig(argTypes []ast.ValueType, min, max int, ret ast.ValueType) *ast.FuncSig {
	return &ast.FuncSig{ArgTypes: argTypes, MinArgs: min, MaxArgs: max, ReturnType: ret}
}

// catalog is keyed by lowercase function name; function names are matched
// case-sensitively by the checker (it looks up the exact Call.FuncName).
var catalog = map[string]*ast.FuncSig{
	"abs":                sig([]ast.ValueType{vector}, 1, 1, vector),
	"absent":             sig([]ast.ValueType{vector}, 1, 1, vector),
	"absent_over_time":   sig([]ast.ValueType{matrix}, 1, 1, vector),
	"ceil":               sig([]ast.ValueType{vector}, 1, 1, vector),
	"changes":            sig([]ast.ValueType{matrix}, 1, 1, vector),
	"clamp":              sig([]ast.ValueType{vector, scalar, scalar}, 3, 3, vector),
	"clamp_max":          sig([]ast.ValueType{vector, scalar}, 2, 2, vector),
	"clamp_min":          sig([]ast.ValueType{vector, scalar}, 2, 2, vector),
	"day_of_month":       sig([]ast.ValueType{vector}, 0, 1, vector),
	"day_of_week":        sig([]ast.ValueType{vector}, 0, 1, vector),
	"day_of_year":        sig([]ast.ValueType{vector}, 0, 1, vector),
	"days_in_month":      sig([]ast.ValueType{vector}, 0, 1, vector),
	"delta":              sig([]ast.ValueType{matrix}, 1, 1, vector),
	"deriv":              sig([]ast.ValueType{matrix}, 1, 1, vector),
	"exp":                sig([]ast.ValueType{vector}, 1, 1, vector),
	"floor":              sig([]ast.ValueType{vector}, 1, 1, vector),
	"histogram_quantile": sig([]ast.ValueType{scalar, vector}, 2, 2, vector),
	"holt_winters":       sig([]ast.ValueType{matrix, scalar, scalar}, 3, 3, vector),
	"hour":               sig([]ast.ValueType{vector}, 0, 1, vector),
	"idelta":             sig([]ast.ValueType{matrix}, 1, 1, vector),
	"increase":           sig([]ast.ValueType{matrix}, 1, 1, vector),
	"irate":              sig([]ast.ValueType{matrix}, 1, 1, vector),
	"label_join": sig(
		[]ast.ValueType{vector, str, str, str}, 4, -1, vector,
	), // (v, dst, sep, src...) — variadic tail of src labels, all strings.
	"label_replace": sig([]ast.ValueType{vector, str, str, str, str}, 5, 5, vector),
	"ln":            sig([]ast.ValueType{vector}, 1, 1, vector),
	"log2":          sig([]ast.ValueType{vector}, 1, 1, vector),
	"log10":         sig([]ast.ValueType{vector}, 1, 1, vector),
	"minute":        sig([]ast.ValueType{vector}, 0, 1, vector),
	"month":         sig([]ast.ValueType{vector}, 0, 1, vector),
	"predict_linear": sig([]ast.ValueType{matrix, scalar}, 2, 2, vector),
	"rate":           sig([]ast.ValueType{matrix}, 1, 1, vector),
	"resets":         sig([]ast.ValueType{matrix}, 1, 1, vector),
	"round":          sig([]ast.ValueType{vector, scalar}, 1, 2, vector),
	"scalar":         sig([]ast.ValueType{vector}, 1, 1, scalar),
	"sgn":            sig([]ast.ValueType{vector}, 1, 1, vector),
	"sort":           sig([]ast.ValueType{vector}, 1, 1, vector),
	"sort_desc":      sig([]ast.ValueType{vector}, 1, 1, vector),
	"sqrt":           sig([]ast.ValueType{vector}, 1, 1, vector),
	"time":           sig(nil, 0, 0, scalar),
	"timestamp":      sig([]ast.ValueType{vector}, 1, 1, vector),
	"vector":         sig([]ast.ValueType{scalar}, 1, 1, vector),
	"year":           sig([]ast.ValueType{vector}, 0, 1, vector),

	"avg_over_time":      sig([]ast.ValueType{matrix}, 1, 1, vector),
	"min_over_time":      sig([]ast.ValueType{matrix}, 1, 1, vector),
	"max_over_time":      sig([]ast.ValueType{matrix}, 1, 1, vector),
	"sum_over_time":      sig([]ast.ValueType{matrix}, 1, 1, vector),
	"count_over_time":    sig([]ast.ValueType{matrix}, 1, 1, vector),
	"quantile_over_time": sig([]ast.ValueType{scalar, matrix}, 2, 2, vector),
	"stddev_over_time":   sig([]ast.ValueType{matrix}, 1, 1, vector),
	"stdvar_over_time":   sig([]ast.ValueType{matrix}, 1, 1, vector),
	"last_over_time":     sig([]ast.ValueType{matrix}, 1, 1, vector),
	"present_over_time":  sig([]ast.ValueType{matrix}, 1, 1, vector),
	"mad_over_time":      sig([]ast.ValueType{matrix}, 1, 1, vector),

	// Reserved tokens spec.md explicitly rejects, always — regardless of
	// config.Flags.EnableExperimentalFunctions.
	"smoothed": {Name: "smoothed", Reserved: true},
	"anchored": {Name: "anchored", Reserved: true},
}

// Lookup returns the catalog entry for name, matched case-sensitively.
func Lookup(name string) (*ast.FuncSig, bool) {
	f, ok := catalog[name]
	if !ok {
		return nil, false
	}
	cp := *f
	cp.Name = name
	return &cp, true
}

// Names returns every catalog entry name, for completion/diagnostic use.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for n := range catalog {
		names = append(names, n)
	}
	return names
}
