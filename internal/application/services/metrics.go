package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pollCyclesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "indexer_poll_cycles_total",
			Help: "Total number of completed poll cycles",
		},
	)

	pollCycleErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "indexer_poll_cycle_errors_total",
			Help: "Total number of poll cycles aborted by transport errors",
		},
	)

	eventsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indexer_events_processed_total",
			Help: "Total number of Transfer events processed, by type",
		},
		[]string{"type"},
	)

	eventSyncFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "indexer_sync_failures_total",
			Help: "Total number of events skipped due to synchronization failures",
		},
	)

	lastProcessedBlockGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "indexer_last_processed_block",
			Help: "Highest block number fully scanned for Transfer events",
		},
	)
)
