// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Command respoolsim runs a scripted sound and particle scenario against
// respool pools on a simulated frame loop and reports what the pools did.
//
//	respoolsim run --scenario arcade.yaml --capacity 8 --metrics-addr :9090
//
// Every flag can also be set with a RESPOOLSIM_ environment variable (for
// example RESPOOLSIM_LOG_LEVEL=debug) or in a config file given with
// --config.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "respoolsim:", err)
		os.Exit(1)
	}
}
