// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package sim

import (
	"github.com/petenewcomb/respool-go"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusObserver exports pool events as Prometheus metrics.
type PrometheusObserver struct {
	events      *prometheus.CounterVec
	outstanding *prometheus.GaugeVec
}

// NewPrometheusObserver creates the observer's collectors and registers them
// with reg.
func NewPrometheusObserver(reg prometheus.Registerer) (*PrometheusObserver, error) {
	o := &PrometheusObserver{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "respool",
			Name:      "events_total",
			Help:      "Number of pool events by pool and kind.",
		}, []string{"pool", "kind"}),
		outstanding: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "respool",
			Name:      "outstanding",
			Help:      "Number of instances currently checked out.",
		}, []string{"pool"}),
	}
	for _, c := range []prometheus.Collector{o.events, o.outstanding} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (o *PrometheusObserver) Observe(e respool.Event) {
	o.events.WithLabelValues(e.Pool, e.Kind.String()).Inc()
	switch e.Kind {
	case respool.EventTaken:
		o.outstanding.WithLabelValues(e.Pool).Inc()
	case respool.EventReleased:
		o.outstanding.WithLabelValues(e.Pool).Dec()
	}
}
