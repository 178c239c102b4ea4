// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package otrespool

import (
	"context"
	"sync"

	"github.com/petenewcomb/respool-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// CheckoutSpanName names the span that covers one checkout, from take to
// release.
const CheckoutSpanName = "respool.checkout"

// A TracingObserver records a span per checkout. Diagnostics that concern a
// checked-out instance are added to its span as errors; others get a span of
// their own.
type TracingObserver struct {
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[string]trace.Span
}

// NewTracingObserver creates a TracingObserver that starts spans with tracer.
func NewTracingObserver(tracer trace.Tracer) *TracingObserver {
	if tracer == nil {
		panic("tracer must be non-nil")
	}
	return &TracingObserver{
		tracer: tracer,
		spans:  make(map[string]trace.Span),
	}
}

func (o *TracingObserver) Observe(e respool.Event) {
	switch e.Kind {
	case respool.EventTaken:
		_, span := o.tracer.Start(context.Background(), CheckoutSpanName, trace.WithAttributes(
			attribute.String("respool.pool", e.Pool),
			attribute.String("respool.handle", e.Handle),
			attribute.Bool("respool.reused", e.Reused),
		))
		o.mu.Lock()
		if prev, ok := o.spans[e.Handle]; ok {
			prev.End()
		}
		o.spans[e.Handle] = span
		o.mu.Unlock()

	case respool.EventReleased:
		o.mu.Lock()
		span, ok := o.spans[e.Handle]
		delete(o.spans, e.Handle)
		o.mu.Unlock()
		if ok {
			span.SetAttributes(attribute.Bool("respool.retained", e.Retained))
			span.End()
		}

	case respool.EventConstructionFailed, respool.EventDoubleRelease,
		respool.EventMissingCapability, respool.EventReclaimFailed:
		o.mu.Lock()
		span, ok := o.spans[e.Handle]
		o.mu.Unlock()
		if !ok {
			_, span = o.tracer.Start(context.Background(), "respool."+e.Kind.String(), trace.WithAttributes(
				attribute.String("respool.pool", e.Pool),
				attribute.String("respool.handle", e.Handle),
			))
			defer span.End()
		}
		span.RecordError(e.Err)
		if e.Kind != respool.EventMissingCapability {
			span.SetStatus(codes.Error, e.Err.Error())
		}
	}
}

// Open returns the number of checkout spans that have not yet ended.
func (o *TracingObserver) Open() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.spans)
}
