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

// Package metrics instruments Parse without owning an HTTP transport: a
// caller that already runs a registry wires Collector in; one that doesn't
// pays nothing beyond the atomic counters.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector reports counts of parses by outcome and a histogram of query
// lengths. It is safe for concurrent use from multiple Parse callers.
type Collector struct {
	parsesTotal   *prometheus.CounterVec
	parseDuration prometheus.Histogram
	queryLength   prometheus.Histogram

	lexErrors      uint64
	syntaxErrors   uint64
	semanticErrors uint64
	successes      uint64
}

// NewCollector builds a Collector. Register it with a prometheus.Registerer
// to expose it; an unregistered Collector still accumulates counts that
// Snapshot can read back, which is handy in tests.
func NewCollector() *Collector {
	return &Collector{
		parsesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "promqlint",
			Name:      "parses_total",
			Help:      "Number of Parse calls by outcome.",
		}, []string{"outcome"}),
		parseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "promqlint",
			Name:      "parse_duration_seconds",
			Help:      "Time spent in Parse.",
			Buckets:   prometheus.DefBuckets,
		}),
		queryLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "promqlint",
			Name:      "query_length_bytes",
			Help:      "Length in bytes of parsed queries.",
			Buckets:   prometheus.ExponentialBuckets(8, 2, 10),
		}),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.parsesTotal.Describe(ch)
	c.parseDuration.Describe(ch)
	c.queryLength.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.parsesTotal.Collect(ch)
	c.parseDuration.Collect(ch)
	c.queryLength.Collect(ch)
}

// Outcome tags a completed Parse call for ObserveParse.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeLexError Outcome = "lex_error"
	OutcomeSyntax   Outcome = "syntax_error"
	OutcomeSemantic Outcome = "semantic_error"
)

// ObserveParse records one completed Parse call.
func (c *Collector) ObserveParse(outcome Outcome, queryLen int, seconds float64) {
	if c == nil {
		return
	}
	c.parsesTotal.WithLabelValues(string(outcome)).Inc()
	c.parseDuration.Observe(seconds)
	c.queryLength.Observe(float64(queryLen))

	switch outcome {
	case OutcomeSuccess:
		atomic.AddUint64(&c.successes, 1)
	case OutcomeLexError:
		atomic.AddUint64(&c.lexErrors, 1)
	case OutcomeSyntax:
		atomic.AddUint64(&c.syntaxErrors, 1)
	case OutcomeSemantic:
		atomic.AddUint64(&c.semanticErrors, 1)
	}
}

// Snapshot is a point-in-time read of the plain counters, useful for tests
// and for callers that don't want to scrape a registry.
type Snapshot struct {
	Successes      uint64
	LexErrors      uint64
	SyntaxErrors   uint64
	SemanticErrors uint64
}

func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		Successes:      atomic.LoadUint64(&c.successes),
		LexErrors:      atomic.LoadUint64(&c.lexErrors),
		SyntaxErrors:   atomic.LoadUint64(&c.syntaxErrors),
		SemanticErrors: atomic.LoadUint64(&c.semanticErrors),
	}
}
