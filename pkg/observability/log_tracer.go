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
	"fmt"

	"go.uber.org/zap"
)

// LogTracer writes ended spans and standalone events to a zap logger.
// Metrics are logged at debug level only.
type LogTracer struct {
	logger *zap.Logger
}

// NewLogTracer creates a tracer backed by logger. A nil logger yields a no-op logger.
func NewLogTracer(logger *zap.Logger) *LogTracer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogTracer{logger: logger.Named("trace")}
}

// StartSpan creates a span linked to any parent in ctx.
func (t *LogTracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, *Span) {
	span := newSpan(ctx, name, opts)
	return ContextWithSpan(ctx, span), span
}

// EndSpan logs the completed span.
func (t *LogTracer) EndSpan(span *Span) {
	if span == nil {
		return
	}
	finishSpan(span)

	fields := []zap.Field{
		zap.String("span", span.Name),
		zap.String("trace_id", span.TraceID),
		zap.String("span_id", span.SpanID),
		zap.Duration("duration", span.Duration),
		zap.String("status", string(span.Status.Code)),
	}
	if span.ParentID != "" {
		fields = append(fields, zap.String("parent_id", span.ParentID))
	}
	fields = append(fields, attributeFields(span.Attributes)...)

	if span.Status.Code == StatusError {
		t.logger.Warn("span ended with error", append(fields, zap.String("error", span.Status.Message))...)
		return
	}
	t.logger.Debug("span ended", fields...)
}

// RecordMetric logs the sample at debug level.
func (t *LogTracer) RecordMetric(name string, value float64, labels map[string]string) {
	t.logger.Debug("metric",
		zap.String("name", name),
		zap.Float64("value", value),
		zap.Any("labels", labels),
	)
}

// RecordEvent logs a standalone event at info level.
func (t *LogTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {
	fields := []zap.Field{zap.String("event", name)}
	if span := SpanFromContext(ctx); span != nil {
		fields = append(fields, zap.String("trace_id", span.TraceID))
	}
	fields = append(fields, attributeFields(attributes)...)
	t.logger.Info("event", fields...)
}

// Flush syncs the underlying logger.
func (t *LogTracer) Flush(ctx context.Context) error {
	if err := t.logger.Sync(); err != nil {
		return fmt.Errorf("sync trace logger: %w", err)
	}
	return nil
}

func attributeFields(attrs map[string]interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(attrs))
	for k, v := range attrs {
		fields = append(fields, zap.Any(k, v))
	}
	return fields
}

var _ Tracer = (*LogTracer)(nil)
