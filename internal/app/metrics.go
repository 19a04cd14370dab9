package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gamesStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "liaofan_games_started_total",
		Help: "Total number of games started, including restarts.",
	})

	turnsResolvedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "liaofan_turns_resolved_total",
		Help: "Total number of turns with an applied resolution.",
	})

	gamesCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liaofan_games_completed_total",
			Help: "Total number of finished games by ending tier.",
		},
		[]string{"ending"},
	)

	generationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liaofan_generation_failures_total",
			Help: "Total number of failed generator calls by operation.",
		},
		[]string{"op"},
	)

	staleGenerationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "liaofan_stale_generations_total",
		Help: "Total number of generation results discarded as stale.",
	})
)
