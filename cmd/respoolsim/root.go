// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/petenewcomb/respool-go"
	"github.com/petenewcomb/respool-go/internal/sim"
	"github.com/petenewcomb/respool-go/otrespool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

func newRootCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("RESPOOLSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "respoolsim",
		Short:         "Run pooled sound and particle scenarios on a simulated clock",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "config file with flag values (yaml, json or toml)")
	root.PersistentFlags().String("log-level", "info", "log level: debug, info, warn or error")

	run := &cobra.Command{
		Use:   "run",
		Short: "Run a scenario file",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			if path := v.GetString("config"); path != "" {
				v.SetConfigFile(path)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("reading config: %w", err)
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScenario(cmd, v)
		},
	}
	flags := run.Flags()
	flags.String("scenario", "", "scenario file to run (required)")
	flags.Duration("frame", sim.DefaultFrame, "virtual time per frame")
	flags.Duration("tail", time.Second, "virtual time to keep running after the last scheduled event")
	flags.Duration("pace", 0, "real time per frame; zero runs as fast as possible")
	flags.Int("capacity", respool.DefaultCapacity, "idle capacity of each pool")
	flags.String("ordering", respool.Stack.String(), "reuse order of idle instances: stack or ring")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address while running")
	flags.Duration("linger", 0, "keep serving metrics this long after the scenario finishes")
	flags.Bool("trace", false, "write checkout spans to stderr")
	root.AddCommand(run)
	return root
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func runScenario(cmd *cobra.Command, v *viper.Viper) error {
	logger, err := newLogger(v.GetString("log-level"))
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	defer zap.ReplaceGlobals(logger)()

	path := v.GetString("scenario")
	if path == "" {
		return errors.New("--scenario is required")
	}
	sc, err := sim.LoadFile(path)
	if err != nil {
		return err
	}
	ordering, err := respool.ParseOrdering(v.GetString("ordering"))
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	observers := []respool.Observer{otrespool.LoggingObserver(logger)}

	if v.GetBool("trace") {
		exporter, err := stdouttrace.New(
			stdouttrace.WithPrettyPrint(),
			stdouttrace.WithWriter(cmd.ErrOrStderr()),
		)
		if err != nil {
			return err
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
			sdktrace.WithBatcher(exporter),
		)
		defer tp.Shutdown(context.WithoutCancel(ctx)) //nolint:errcheck
		otel.SetTracerProvider(tp)
		observers = append(observers, otrespool.NewTracingObserver(tp.Tracer("respoolsim")))
	}

	reg := prometheus.NewRegistry()
	prom, err := sim.NewPrometheusObserver(reg)
	if err != nil {
		return err
	}
	observers = append(observers, prom)

	cfg := sim.Config{
		Frame:    v.GetDuration("frame"),
		Tail:     v.GetDuration("tail"),
		Pace:     v.GetDuration("pace"),
		Capacity: v.GetInt("capacity"),
		Ordering: ordering,
		Logger:   logger,
		Observer: respool.Observers(observers...),
	}

	g, gctx := errgroup.WithContext(ctx)
	var server *http.Server
	if addr := v.GetString("metrics-addr"); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			logger.Info("serving metrics", zap.String("addr", addr))
			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	var results *sim.Results
	g.Go(func() error {
		if server != nil {
			defer server.Shutdown(context.WithoutCancel(gctx)) //nolint:errcheck
		}
		var err error
		results, err = sim.Run(gctx, sc, cfg)
		if err != nil {
			return err
		}
		if linger := v.GetDuration("linger"); server != nil && linger > 0 {
			select {
			case <-time.After(linger):
			case <-gctx.Done():
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	defer enc.Close()
	return enc.Encode(results)
}
