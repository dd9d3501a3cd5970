// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics exposes signal engine counters and gauges on a
// dedicated Prometheus registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pdiddy/signal-engine/pkg/types"
)

// Drop reasons used with SignalsDropped.
const (
	ReasonUnclassified = "unclassified"
	ReasonCategoryCap  = "category_cap"
	ReasonDuplicate    = "duplicate"
)

// Recorder holds the engine's collectors. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	registry *prometheus.Registry

	LoopPressure      prometheus.Gauge
	SignalsStored     prometheus.Gauge
	FetchRuns         *prometheus.CounterVec
	FeedsFailed       prometheus.Counter
	SignalsClassified *prometheus.CounterVec
	SignalsDropped    *prometheus.CounterVec
}

// New registers the collectors, plus the Go and process collectors, on a
// fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		LoopPressure: factory.NewGauge(prometheus.GaugeOpts{
			Name: "signal_engine_loop_pressure",
			Help: "Current synthesized loop pressure in [0, 1]",
		}),
		SignalsStored: factory.NewGauge(prometheus.GaugeOpts{
			Name: "signal_engine_signals_stored",
			Help: "Number of signals in the live store",
		}),
		FetchRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "signal_engine_fetch_runs_total",
			Help: "Fetch passes by result (success/failure)",
		}, []string{"result"}),
		FeedsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "signal_engine_feeds_failed_total",
			Help: "Feed sources that failed to respond across all passes",
		}),
		SignalsClassified: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "signal_engine_signals_classified_total",
			Help: "Signals produced by classification, by category",
		}, []string{"category"}),
		SignalsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "signal_engine_signals_dropped_total",
			Help: "Items or signals dropped before storage, by reason",
		}, []string{"reason"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// FetchOutcome summarizes one fetch pass for ObserveFetch.
type FetchOutcome struct {
	Success      bool
	FeedsFailed  int
	Signals      []types.Signal
	Unclassified int
	CategoryCap  int
	Duplicates   int
}

// ObserveFetch records the counters for one pass.
func (r *Recorder) ObserveFetch(o FetchOutcome) {
	if r == nil {
		return
	}
	if !o.Success {
		r.FetchRuns.WithLabelValues("failure").Inc()
		return
	}
	r.FetchRuns.WithLabelValues("success").Inc()
	r.FeedsFailed.Add(float64(o.FeedsFailed))
	for _, s := range o.Signals {
		r.SignalsClassified.WithLabelValues(string(s.Category)).Inc()
	}
	r.SignalsDropped.WithLabelValues(ReasonUnclassified).Add(float64(o.Unclassified))
	r.SignalsDropped.WithLabelValues(ReasonCategoryCap).Add(float64(o.CategoryCap))
	r.SignalsDropped.WithLabelValues(ReasonDuplicate).Add(float64(o.Duplicates))
}

// ObserveState sets the gauges from the current state.
func (r *Recorder) ObserveState(pressure float64, stored int) {
	if r == nil {
		return
	}
	r.LoopPressure.Set(pressure)
	r.SignalsStored.Set(float64(stored))
}
