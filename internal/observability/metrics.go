package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TurnsTotal counts handled turns by channel and outcome
	// (reply, empty, fallback, paused, gate_error, fixed_reply).
	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tur_turns_total",
		Help: "Total number of inbound turns handled by outcome",
	}, []string{"channel", "outcome"})

	// EventsDropped counts inbound payloads that never became a message.
	EventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tur_events_dropped_total",
		Help: "Inbound events dropped before processing by reason",
	}, []string{"provider", "reason"})

	GenerationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tur_generation_duration_seconds",
		Help:    "Latency of the generation call in seconds",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
	})

	RetrievalFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tur_retrieval_fallbacks_total",
		Help: "Turns that proceeded without retrieved records by reason",
	}, []string{"reason"})

	// DeliveredUnits counts outbound sends by channel, kind (text, image) and result (ok, failed, skipped).
	DeliveredUnits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tur_delivery_units_total",
		Help: "Outbound units by channel, kind and result",
	}, []string{"channel", "kind", "result"})
)
