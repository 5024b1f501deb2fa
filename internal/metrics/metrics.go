package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RoomsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "watchparty_rooms_active",
			Help: "Number of live rooms",
		},
	)

	SessionsConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "watchparty_sessions_connected",
			Help: "Number of open websocket sessions",
		},
	)

	InboundEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchparty_inbound_events_total",
			Help: "Client events received, by type",
		},
		[]string{"type"},
	)

	RejectedCommands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchparty_rejected_commands_total",
			Help: "Client events rejected, by reason",
		},
		[]string{"reason"},
	)

	RoomsDestroyed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watchparty_rooms_destroyed_total",
			Help: "Rooms destroyed, by reason",
		},
		[]string{"reason"}, // "grace_expired", "empty", "max_age"
	)

	DroppedMessages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "watchparty_dropped_messages_total",
			Help: "Outbound messages dropped because a session send buffer was full",
		},
	)
)

const (
	DestroyReasonGraceExpired = "grace_expired"
	DestroyReasonEmpty        = "empty"
	DestroyReasonMaxAge       = "max_age"
)
