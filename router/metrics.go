package router

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	packetsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dronecore",
			Subsystem: "router",
			Name:      "packets_sent_total",
			Help:      "Total packets successfully handed to a neighbour, by kind.",
		},
		[]string{"kind"},
	)

	controllerShortcutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dronecore",
			Subsystem: "router",
			Name:      "controller_shortcuts_total",
			Help:      "Total packets handed to the supervisory controller because overlay delivery failed.",
		},
		[]string{"kind"},
	)

	nacksReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dronecore",
			Subsystem: "router",
			Name:      "nacks_received_total",
			Help:      "Total nacks received, by reason.",
		},
		[]string{"reason"},
	)

	floodsInitiatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dronecore",
			Subsystem: "router",
			Name:      "floods_initiated_total",
			Help:      "Total flood discoveries initiated by this node.",
		},
	)

	floodResponsesDiscardedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dronecore",
			Subsystem: "router",
			Name:      "flood_responses_discarded_total",
			Help:      "Total flood responses discarded for carrying a stale flood epoch.",
		},
	)

	pendingSessionsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dronecore",
			Subsystem: "router",
			Name:      "pending_sessions",
			Help:      "Current number of sessions with unacked fragments in flight.",
		},
	)
)
