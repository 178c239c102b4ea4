// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package otrespool

import (
	"context"

	"github.com/petenewcomb/respool-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsObserver counts pool events with meter. It records:
//
//   - respool.events: every event, by pool and kind
//   - respool.outstanding: checked-out instances, by pool
func MetricsObserver(meter metric.Meter) (respool.Observer, error) {
	events, err := meter.Int64Counter("respool.events",
		metric.WithDescription("Pool events by kind"))
	if err != nil {
		return nil, err
	}
	outstanding, err := meter.Int64UpDownCounter("respool.outstanding",
		metric.WithDescription("Instances currently checked out"))
	if err != nil {
		return nil, err
	}

	return respool.ObserverFunc(func(e respool.Event) {
		ctx := context.Background()
		pool := metric.WithAttributes(attribute.String("pool", e.Pool))
		events.Add(ctx, 1, metric.WithAttributes(
			attribute.String("pool", e.Pool),
			attribute.String("kind", e.Kind.String()),
		))
		switch e.Kind {
		case respool.EventTaken:
			outstanding.Add(ctx, 1, pool)
		case respool.EventReleased:
			outstanding.Add(ctx, -1, pool)
		}
	}), nil
}
