// Package metrics 定義服務對外公開的 Prometheus 指標。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RoomsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wikirace_rooms_created_total",
		Help: "Number of rooms created.",
	})

	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikirace_room_status_transitions_total",
		Help: "Room status changes by target status and whether the change was forced.",
	}, []string{"status", "forced"})

	GamesArchived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wikirace_games_archived_total",
		Help: "Number of game results written.",
	})

	PathValidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikirace_path_validations_total",
		Help: "Path validations by outcome (valid, invalid, rejected, error).",
	}, []string{"outcome"})

	PageFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wikirace_page_fetch_duration_seconds",
		Help:    "Latency of article page fetches.",
		Buckets: prometheus.DefBuckets,
	})
)
