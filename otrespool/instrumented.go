// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package otrespool

import (
	"github.com/petenewcomb/respool-go"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// Instrument combines logging, metrics and tracing into a single observer,
// using zap.L() and the global OpenTelemetry meter and tracer providers.
// Metrics are skipped, with a warning, if the instruments cannot be created.
func Instrument() respool.Observer {
	logging := LoggingObserver(nil)
	tracing := NewTracingObserver(otel.Tracer("otrespool"))
	metrics, err := MetricsObserver(otel.GetMeterProvider().Meter("otrespool"))
	if err != nil {
		zap.L().Warn("Failed to create pool metrics",
			zap.String("component", "otrespool"),
			zap.Error(err))
	}
	return respool.Observers(logging, metrics, tracing)
}
