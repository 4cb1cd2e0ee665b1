// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package observability

import (
	"context"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusTracer exports agent metrics and event counts to a Prometheus
// registry. Spans are timed into a duration histogram keyed by span name.
type PrometheusTracer struct {
	registerer prometheus.Registerer

	spanDuration *prometheus.HistogramVec
	events       *prometheus.CounterVec

	mu       sync.Mutex
	counters map[string]*prometheus.CounterVec
}

// NewPrometheusTracer registers the tracer's collectors on reg.
// Passing nil uses prometheus.DefaultRegisterer.
func NewPrometheusTracer(reg prometheus.Registerer) (*PrometheusTracer, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	t := &PrometheusTracer{
		registerer: reg,
		spanDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "matchpoint",
			Name:      "span_duration_seconds",
			Help:      "Duration of instrumented operations by span name",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"span", "status"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "matchpoint",
			Name:      "events_total",
			Help:      "Standalone events such as tool usage and reminder injection",
		}, []string{"event"}),
		counters: make(map[string]*prometheus.CounterVec),
	}
	if err := reg.Register(t.spanDuration); err != nil {
		return nil, err
	}
	if err := reg.Register(t.events); err != nil {
		return nil, err
	}
	return t, nil
}

// StartSpan creates a span linked to any parent in ctx.
func (t *PrometheusTracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, *Span) {
	span := newSpan(ctx, name, opts)
	return ContextWithSpan(ctx, span), span
}

// EndSpan observes the span duration.
func (t *PrometheusTracer) EndSpan(span *Span) {
	if span == nil {
		return
	}
	finishSpan(span)
	t.spanDuration.WithLabelValues(span.Name, string(span.Status.Code)).Observe(span.Duration.Seconds())
}

// RecordMetric adds value to a counter named after the metric. Label keys
// must stay stable per metric name; samples with a different key set are dropped.
func (t *PrometheusTracer) RecordMetric(name string, value float64, labels map[string]string) {
	if value < 0 {
		return
	}
	vec, ok := t.counterFor(name, labels)
	if !ok {
		return
	}
	c, err := vec.GetMetricWith(sanitizeLabels(labels))
	if err != nil {
		return
	}
	c.Add(value)
}

// RecordEvent counts the event.
func (t *PrometheusTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {
	t.events.WithLabelValues(name).Inc()
}

// Flush is a no-op; Prometheus pulls.
func (t *PrometheusTracer) Flush(ctx context.Context) error {
	return nil
}

func (t *PrometheusTracer) counterFor(name string, labels map[string]string) (*prometheus.CounterVec, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if vec, ok := t.counters[name]; ok {
		return vec, true
	}

	keys := make([]string, 0, len(labels))
	for k := range sanitizeLabels(labels) {
		keys = append(keys, k)
	}
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "matchpoint",
		Name:      metricName(name),
		Help:      "Agent metric " + name,
	}, keys)
	if err := t.registerer.Register(vec); err != nil {
		return nil, false
	}
	t.counters[name] = vec
	return vec, true
}

// metricName maps dotted names such as "tool.executions.total" to
// Prometheus form ("tool_executions_total").
func metricName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}

func sanitizeLabels(labels map[string]string) prometheus.Labels {
	out := make(prometheus.Labels, len(labels))
	for k, v := range labels {
		out[metricName(k)] = v
	}
	return out
}

var _ Tracer = (*PrometheusTracer)(nil)
