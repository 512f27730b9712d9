// Package observability provides Prometheus metrics for the live channel.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebSocketRoomConnections is the gauge of subscribers per chat room.
	WebSocketRoomConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pawhome_websocket_room_connections",
		Help: "Number of WebSocket subscribers per chat room",
	}, []string{"room_id"})

	// MessageThroughput counts live-channel messages processed per event type.
	MessageThroughput = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pawhome_message_throughput_total",
		Help: "Total number of live-channel events processed",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pawhome_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)
