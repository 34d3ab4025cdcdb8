package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_http_requests_total",
			Help: "Total number of HTTP requests processed by the messaging service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "messaging_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	sendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_sends_total",
			Help: "Total number of single-message send attempts.",
		},
		[]string{"outcome"},
	)
	broadcastRecipientsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messaging_broadcast_recipients_total",
			Help: "Total number of broadcast recipient deliveries.",
		},
		[]string{"outcome"},
	)
	mediaProcessedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "messaging_media_processed_total",
			Help: "Total number of media items moved to permanent storage.",
		},
	)
	mediaFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "messaging_media_failures_total",
			Help: "Total number of media items that failed processing.",
		},
	)
	compensationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "messaging_compensations_total",
			Help: "Total number of send attempts rolled back by compensation.",
		},
	)
	cleanupFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "messaging_cleanup_failures_total",
			Help: "Total number of best-effort storage cleanups that failed.",
		},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "messaging_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		sendsTotal,
		broadcastRecipientsTotal,
		mediaProcessedTotal,
		mediaFailuresTotal,
		compensationsTotal,
		cleanupFailuresTotal,
		amqpPublishErrorsTotal,
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

func IncSend(outcome string) {
	sendsTotal.WithLabelValues(outcome).Inc()
}

func IncBroadcastRecipient(outcome string) {
	broadcastRecipientsTotal.WithLabelValues(outcome).Inc()
}

func IncMediaProcessed() {
	mediaProcessedTotal.Inc()
}

func IncMediaFailure() {
	mediaFailuresTotal.Inc()
}

func IncCompensation() {
	compensationsTotal.Inc()
}

func IncCleanupFailure() {
	cleanupFailuresTotal.Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
