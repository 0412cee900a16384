/*
Copyright (C) 2026 Castmetrics

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package telemetry exposes prometheus metrics for batch runs. Runs over
// the full history take hours; the metrics listener lets operators watch
// progress without tailing logs.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Metrics bundles the batch run instruments on a private registry so
// tests can create independent instances.
type Metrics struct {
	registry *prometheus.Registry

	SpotsEvaluated prometheus.Counter
	SpotsAssigned  prometheus.Counter
	SpotsErrored   prometheus.Counter
	SpotsFlagged   *prometheus.CounterVec
	RuleFired      *prometheus.CounterVec
	CommitDuration prometheus.Histogram
}

// NewMetrics builds and registers the batch instruments.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		SpotsEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "langblock_spots_evaluated_total",
			Help: "Spots run through the precedence rule engine.",
		}),
		SpotsAssigned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "langblock_spots_assigned_total",
			Help: "Spot decisions persisted successfully.",
		}),
		SpotsErrored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "langblock_spots_errored_total",
			Help: "Spots whose decision failed to persist.",
		}),
		SpotsFlagged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "langblock_spots_flagged_total",
			Help: "Spots flagged for manual review, by the rule that flagged them.",
		}, []string{"method"}),
		RuleFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "langblock_rule_fired_total",
			Help: "Decisions by the precedence rule that produced them.",
		}, []string{"method"}),
		CommitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "langblock_commit_group_duration_seconds",
			Help:    "Wall time per commit group.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.SpotsEvaluated,
		m.SpotsAssigned,
		m.SpotsErrored,
		m.SpotsFlagged,
		m.RuleFired,
		m.CommitDuration,
	)

	return m
}

// Handler serves the registry for prometheus scrapes.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts the metrics listener on bind. It returns immediately;
// listener errors are logged, not fatal, since metrics are best-effort.
func (m *Metrics) Serve(bind string, logger zerolog.Logger) {
	if bind == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	go func() {
		logger.Info().Str("bind", bind).Msg("metrics listener starting")
		if err := http.ListenAndServe(bind, mux); err != nil {
			logger.Error().Err(err).Msg("metrics listener stopped")
		}
	}()
}
