package sync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 同步引擎指标
var (
	metricActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "collab_note",
		Subsystem: "sync",
		Name:      "active_sessions",
		Help:      "Number of live note sync sessions.",
	})

	metricCommits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "collab_note",
		Subsystem: "sync",
		Name:      "commits_total",
		Help:      "Debounced note commits by result.",
	}, []string{"result"})

	metricEditsCoalesced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "collab_note",
		Subsystem: "sync",
		Name:      "edits_coalesced_total",
		Help:      "Local edits absorbed into a pending debounce window.",
	})

	metricDiscardedEdits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "collab_note",
		Subsystem: "sync",
		Name:      "discarded_edits_total",
		Help:      "Working copies overwritten by a foreign commit (last-writer-wins losses).",
	})

	metricFeedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "collab_note",
		Subsystem: "sync",
		Name:      "feed_events_total",
		Help:      "Change feed events by outcome.",
	}, []string{"outcome"})
)
