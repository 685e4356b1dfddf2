package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_decisions_total",
			Help: "Gateway authorization decisions by outcome and reason",
		},
		[]string{"decision", "reason"},
	)

	cacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_cache_requests_total",
			Help: "Context cache lookups by result",
		},
		[]string{"result"},
	)

	lifecycleActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_lifecycle_actions_total",
			Help: "Credential lifecycle actions taken on the request path",
		},
		[]string{"action"},
	)

	decisionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gateway_decision_duration_seconds",
			Help:    "End-to-end authorization decision latency",
			Buckets: prometheus.DefBuckets,
		},
	)
)
