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

// Package config holds the feature flags that change what the checker
// accepts. It is ambient, not domain, logic — grammar and semantics never
// consult the filesystem or environment directly; callers load a Flags
// value and thread it through.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Flags toggles checker behavior that is not load-bearing for the default
// (strict, current-Prometheus) grammar.
type Flags struct {
	// EnableExperimentalFunctions allows the limitk/limit_ratio
	// aggregators, gated the same way upstream Prometheus gates them.
	EnableExperimentalFunctions bool `yaml:"enableExperimentalFunctions"`
	// StrictLabelNames rejects matcher label names that are not valid
	// legacy (ASCII) Prometheus label names, such as `{"not.valid"="x"}`.
	// A quoted name that is a valid legacy name (`{"job"="x"}`) is still
	// accepted.
	StrictLabelNames bool `yaml:"strictLabelNames"`
}

// Default returns the zero-value Flags: no experimental functions, the
// post-v2.45 string-label-name extension accepted.
func Default() Flags {
	return Flags{}
}

// Load reads a YAML file into a Flags value, starting from Default().
func Load(path string) (Flags, error) {
	f := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &f); err != nil {
		return f, fmt.Errorf("parse config %s: %w", path, err)
	}
	return f, nil
}
