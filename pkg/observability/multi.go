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
	"errors"
)

// MultiTracer fans every call out to a list of tracers. The span returned by
// StartSpan belongs to the first tracer; the others receive the same span on
// EndSpan.
type MultiTracer struct {
	tracers []Tracer
}

// NewMultiTracer combines tracers. Nil entries are skipped.
func NewMultiTracer(tracers ...Tracer) Tracer {
	kept := make([]Tracer, 0, len(tracers))
	for _, t := range tracers {
		if t != nil {
			kept = append(kept, t)
		}
	}
	switch len(kept) {
	case 0:
		return NewNoOpTracer()
	case 1:
		return kept[0]
	}
	return &MultiTracer{tracers: kept}
}

func (m *MultiTracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, *Span) {
	return m.tracers[0].StartSpan(ctx, name, opts...)
}

func (m *MultiTracer) EndSpan(span *Span) {
	if span == nil {
		return
	}
	m.tracers[0].EndSpan(span)
	for _, t := range m.tracers[1:] {
		t.EndSpan(span)
	}
}

func (m *MultiTracer) RecordMetric(name string, value float64, labels map[string]string) {
	for _, t := range m.tracers {
		t.RecordMetric(name, value, labels)
	}
}

func (m *MultiTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {
	for _, t := range m.tracers {
		t.RecordEvent(ctx, name, attributes)
	}
}

func (m *MultiTracer) Flush(ctx context.Context) error {
	var errs []error
	for _, t := range m.tracers {
		if err := t.Flush(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
