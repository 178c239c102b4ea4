// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package otrespool

import (
	"github.com/petenewcomb/respool-go"
	"go.uber.org/zap"
)

// LoggingObserver logs every pool event to logger, or to zap.L() if logger
// is nil. Routine transitions are logged at debug level, diagnostics at warn
// level and construction failures at error level.
func LoggingObserver(logger *zap.Logger) respool.Observer {
	return respool.ObserverFunc(func(e respool.Event) {
		l := logger
		if l == nil {
			l = zap.L()
		}
		fields := []zap.Field{
			zap.String("operation", e.Kind.String()),
			zap.String("component", "otrespool"),
			zap.String("pool", e.Pool),
		}
		if e.Handle != "" {
			fields = append(fields, zap.String("handle", e.Handle))
		}

		switch e.Kind {
		case respool.EventTaken:
			l.Debug("Resource taken", append(fields, zap.Bool("reused", e.Reused))...)
		case respool.EventReleased:
			l.Debug("Resource released", append(fields, zap.Bool("retained", e.Retained))...)
		case respool.EventConstructed:
			l.Debug("Resource constructed", fields...)
		case respool.EventDestroyed:
			l.Debug("Resource destroyed", fields...)
		case respool.EventConstructionFailed:
			l.Error("Resource construction failed", append(fields, zap.Error(e.Err))...)
		default:
			l.Warn("Pool diagnostic", append(fields, zap.Error(e.Err))...)
		}
	})
}
