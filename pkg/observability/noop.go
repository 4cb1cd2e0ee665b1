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

import "context"

// NoOpTracer discards everything. Spans still carry timing and parent
// links so code that reads them behaves the same with any tracer.
type NoOpTracer struct{}

func NewNoOpTracer() *NoOpTracer { return &NoOpTracer{} }

func (*NoOpTracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, *Span) {
	span := newSpan(ctx, name, opts)
	return ContextWithSpan(ctx, span), span
}

func (*NoOpTracer) EndSpan(span *Span) {
	if span != nil {
		finishSpan(span)
	}
}

func (*NoOpTracer) RecordMetric(string, float64, map[string]string) {}

func (*NoOpTracer) RecordEvent(context.Context, string, map[string]interface{}) {}

func (*NoOpTracer) Flush(context.Context) error { return nil }

var _ Tracer = (*NoOpTracer)(nil)
