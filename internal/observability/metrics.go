package observability

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_http_requests_total",
			Help: "Total number of HTTP requests processed by the realtime service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "realtime_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	grpcServerHandledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grpc_server_handled_total",
			Help: "Total number of gRPC requests handled by the server.",
		},
		[]string{"grpc_service", "grpc_method", "grpc_code"},
	)
	wsActiveConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "realtime_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
		[]string{"kind"},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_ws_events_total",
			Help: "Total number of websocket events.",
		},
		[]string{"kind", "event"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "realtime_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
	inboundEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_inbound_events_total",
			Help: "Total number of signaling events handled.",
		},
		[]string{"event"},
	)
	droppedEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_dropped_events_total",
			Help: "Signaling events dropped without effect, by reason.",
		},
		[]string{"event", "reason"},
	)
	eventHandleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "realtime_event_handle_duration_seconds",
			Help:    "Time spent handling one signaling event.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"event"},
	)
	eventQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_event_queue_depth",
			Help: "Events waiting for the dispatcher loop.",
		},
	)
	onlineUsers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_online_users",
			Help: "Users with at least one live connection.",
		},
	)
	activeCalls = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_active_calls",
			Help: "Call sessions currently tracked in memory.",
		},
	)
	callsEndedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_calls_ended_total",
			Help: "Calls torn down, by chat type and durable outcome.",
		},
		[]string{"chat_type", "outcome"},
	)
	deliveryTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_delivery_transitions_total",
			Help: "Message status rows advanced, by target status.",
		},
		[]string{"status"},
	)
	pushDispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_push_dispatch_total",
			Help: "Push notification dispatch attempts, by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		grpcServerHandledTotal,
		wsActiveConnections,
		wsEventsTotal,
		amqpPublishErrorsTotal,
		inboundEventsTotal,
		droppedEventsTotal,
		eventHandleDuration,
		eventQueueDepth,
		onlineUsers,
		activeCalls,
		callsEndedTotal,
		deliveryTransitionsTotal,
		pushDispatchTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func GRPCServerMetricsUnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		statusInfo := status.Convert(err)
		service, method := splitFullMethod(info.FullMethod)
		grpcServerHandledTotal.WithLabelValues(service, method, statusInfo.Code().String()).Inc()
		return resp, err
	}
}

func splitFullMethod(fullMethod string) (string, string) {
	parts := strings.Split(fullMethod, "/")
	if len(parts) < 3 {
		return "unknown", "unknown"
	}
	return parts[1], parts[2]
}

func IncWSActive(kind string) {
	wsActiveConnections.WithLabelValues(kind).Inc()
}

func DecWSActive(kind string) {
	wsActiveConnections.WithLabelValues(kind).Dec()
}

func IncWSEvent(kind, event string) {
	wsEventsTotal.WithLabelValues(kind, event).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}

func ObserveEvent(event string, elapsed time.Duration) {
	inboundEventsTotal.WithLabelValues(event).Inc()
	eventHandleDuration.WithLabelValues(event).Observe(elapsed.Seconds())
}

func IncDroppedEvent(event, reason string) {
	droppedEventsTotal.WithLabelValues(event, reason).Inc()
}

func SetQueueDepth(n int) {
	eventQueueDepth.Set(float64(n))
}

func IncOnlineUsers() {
	onlineUsers.Inc()
}

func DecOnlineUsers() {
	onlineUsers.Dec()
}

func SetActiveCalls(n int) {
	activeCalls.Set(float64(n))
}

func IncCallEnded(chatType, outcome string) {
	callsEndedTotal.WithLabelValues(chatType, outcome).Inc()
}

func AddDeliveryTransitions(status string, n int) {
	deliveryTransitionsTotal.WithLabelValues(status).Add(float64(n))
}

func IncPushDispatch(result string) {
	pushDispatchTotal.WithLabelValues(result).Inc()
}
