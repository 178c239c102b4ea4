// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package otrespool provides observability for respool pools: structured
// logging with zap, and OpenTelemetry metrics and checkout traces. Each is a
// [respool.Observer]; [Instrument] combines all three using the global zap
// logger and OpenTelemetry providers.
package otrespool
