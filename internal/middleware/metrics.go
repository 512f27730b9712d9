package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ActiveWebSockets tracks the number of currently open websocket connections.
var ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "pawhome_active_websockets",
	Help: "Number of currently active WebSocket connections",
})

// RedisErrors counts Redis command failures by command name.
var RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pawhome_redis_errors_total",
	Help: "Total number of Redis command errors",
}, []string{"command"})

// InitMetrics creates the Prometheus middleware for HTTP request metrics.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware wraps the Prometheus middleware as a fiber.Handler.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
