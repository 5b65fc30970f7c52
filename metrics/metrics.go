// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes Prometheus collectors for the calls this module
// makes to external services.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tradingagents"

var (
	EmbeddingRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "embedding_requests_total",
		Help:      "Embedding requests sent to an upstream provider.",
	}, []string{"provider", "outcome"})

	ModelCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "model_calls_total",
		Help:      "Chat model invocations.",
	}, []string{"provider", "outcome"})

	ToolInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tool_invocations_total",
		Help:      "Tool calls executed on behalf of a model.",
	}, []string{"tool", "outcome"})

	VendorRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "vendor_requests_total",
		Help:      "Requests sent to a market data vendor, cache hits excluded.",
	}, []string{"vendor", "function", "outcome"})

	StoreQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "vector_store_query_seconds",
		Help:      "Latency of nearest-neighbour queries against the vector store.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"backend"})
)

// Outcome maps an error to the "outcome" label value.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveSince records the time elapsed since start for the given backend.
func ObserveSince(backend string, start time.Time) {
	StoreQueryDuration.WithLabelValues(backend).Observe(time.Since(start).Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
