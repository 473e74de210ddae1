package autosave

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Both metrics are written only from worker goroutines.
var (
	flushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "worktime",
			Subsystem: "autosave",
			Name:      "flushes_total",
			Help:      "Snapshot saves attempted by autosave workers, by result.",
		},
		[]string{"result"},
	)

	flushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "worktime",
			Subsystem: "autosave",
			Name:      "flush_duration_seconds",
			Help:      "Latency of one snapshot save.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	dirtyGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "worktime",
			Subsystem: "autosave",
			Name:      "dirty",
			Help:      "Number of trackers holding unsaved changes.",
		},
	)
)

const (
	resultOK      = "ok"
	resultOffline = "offline"
	resultError   = "error"
)
