// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package otrespool_test

import (
	"context"
	"errors"
	"testing"

	"github.com/petenewcomb/respool-go"
	"github.com/petenewcomb/respool-go/otrespool"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type lamp struct {
	on bool
}

func (l *lamp) Bind(*respool.Handle[*lamp]) {}
func (l *lamp) OnConfigured()               {}
func (l *lamp) Reset()                      {}
func (l *lamp) SetActive(on bool)           { l.on = on }

// exercise takes two lamps, releases both into a pool that keeps one, takes
// one again and double-releases it.
func exercise(t *testing.T, o respool.Observer) {
	chk := require.New(t)
	p := respool.New(
		func() (*lamp, error) { return &lamp{}, nil },
		respool.WithName[*lamp]("lamps"),
		respool.WithCapacity[*lamp](1),
		respool.WithObserver[*lamp](o),
		respool.WithLogger[*lamp](zap.NewNop()),
	)
	a, err := p.Take()
	chk.NoError(err)
	b, err := p.Take()
	chk.NoError(err)
	chk.NoError(a.Release())
	chk.NoError(b.Release())
	c, err := p.Take()
	chk.NoError(err)
	chk.NoError(c.Release())
	chk.Error(c.Release())
}

func TestLoggingObserver(t *testing.T) {
	chk := require.New(t)
	core, logs := observer.New(zapcore.DebugLevel)
	exercise(t, otrespool.LoggingObserver(zap.New(core)))

	chk.Equal(2, logs.FilterMessage("Resource constructed").Len())
	chk.Equal(3, logs.FilterMessage("Resource taken").Len())
	chk.Equal(3, logs.FilterMessage("Resource released").Len())
	chk.Equal(1, logs.FilterMessage("Resource destroyed").Len())

	diag := logs.FilterMessage("Pool diagnostic").All()
	chk.Len(diag, 1)
	chk.Equal(zapcore.WarnLevel, diag[0].Level)
	ctx := diag[0].ContextMap()
	chk.Equal("double_release", ctx["operation"])
	chk.Equal("otrespool", ctx["component"])
	chk.Equal("lamps", ctx["pool"])
}

func TestLoggingObserverConstructionFailure(t *testing.T) {
	chk := require.New(t)
	core, logs := observer.New(zapcore.ErrorLevel)
	p := respool.New(
		func() (*lamp, error) { return nil, errors.New("no bulbs") },
		respool.WithObserver[*lamp](otrespool.LoggingObserver(zap.New(core))),
		respool.WithLogger[*lamp](zap.NewNop()),
	)
	_, err := p.Take()
	chk.Error(err)
	chk.Equal(1, logs.FilterMessage("Resource construction failed").Len())
}

func sumByAttr(t *testing.T, rm metricdata.ResourceMetrics, name, key, value string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			var total int64
			for _, dp := range sum.DataPoints {
				if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
					total += dp.Value
				}
			}
			return total
		}
	}
	return 0
}

func TestMetricsObserver(t *testing.T) {
	chk := require.New(t)
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	o, err := otrespool.MetricsObserver(provider.Meter("test"))
	chk.NoError(err)
	exercise(t, o)

	var rm metricdata.ResourceMetrics
	chk.NoError(reader.Collect(context.Background(), &rm))
	chk.Equal(int64(3), sumByAttr(t, rm, "respool.events", "kind", "taken"))
	chk.Equal(int64(1), sumByAttr(t, rm, "respool.events", "kind", "double_release"))
	chk.Equal(int64(0), sumByAttr(t, rm, "respool.outstanding", "pool", "lamps"))
	chk.Equal(int64(2), sumByAttr(t, rm, "respool.events", "kind", "constructed"))
}

func TestTracingObserver(t *testing.T) {
	chk := require.New(t)
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer provider.Shutdown(context.Background())

	o := otrespool.NewTracingObserver(provider.Tracer("test"))
	exercise(t, o)
	chk.Zero(o.Open())

	var checkouts, diagnostics int
	for _, span := range recorder.Ended() {
		switch span.Name() {
		case otrespool.CheckoutSpanName:
			checkouts++
		case "respool.double_release":
			diagnostics++
			chk.Equal(codes.Error, span.Status().Code)
		}
	}
	chk.Equal(3, checkouts)
	chk.Equal(1, diagnostics)
}

func TestInstrumentUsesGlobals(t *testing.T) {
	chk := require.New(t)
	core, logs := observer.New(zapcore.DebugLevel)
	defer zap.ReplaceGlobals(zap.New(core))()

	exercise(t, otrespool.Instrument())
	chk.Equal(3, logs.FilterMessage("Resource taken").Len())
}
