package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trackline_ws_connections",
		Help: "Number of live websocket connections.",
	})

	subscriptionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trackline_ws_subscriptions",
		Help: "Number of active channel subscriptions.",
	})

	eventsDeliveredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trackline_events_delivered_total",
		Help: "Events enqueued to subscriber connections.",
	}, []string{"type"})

	eventsDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trackline_events_dropped_total",
		Help: "Events dropped because the subscriber queue was full or closed.",
	}, []string{"type"})

	presenceEntriesGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trackline_presence_entries",
		Help: "Live presence entries across all resources.",
	})
)
