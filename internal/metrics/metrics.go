// Package metrics defines the Prometheus instruments exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "iris_event_connections",
		Help: "Currently registered event stream connections by role.",
	}, []string{"role"})

	EventsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iris_events_delivered_total",
		Help: "Events enqueued to connections, labelled by event name.",
	}, []string{"event"})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "iris_dropped_connections_total",
		Help: "Connections evicted because their event queue stayed full.",
	})

	Assignments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iris_assignments_total",
		Help: "Completed slideshow assignment operations by action.",
	}, []string{"action"})

	Heartbeats = promauto.NewCounter(prometheus.CounterOpts{
		Name: "iris_display_heartbeats_total",
		Help: "Heartbeat check-ins received from display clients.",
	})
)
