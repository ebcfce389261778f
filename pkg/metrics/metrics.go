package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the chat service's Prometheus collectors on a private
// registry so tests can run side by side without collisions.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	messagesSent      prometheus.Counter
	messagesQueued    prometheus.Counter
	offlineQueueDepth prometheus.Gauge
	wsConnections     prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flexchat_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flexchat_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		messagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flexchat_messages_sent_total",
			Help: "Messages accepted by the store.",
		}),
		messagesQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flexchat_messages_queued_total",
			Help: "Messages diverted to the offline queue.",
		}),
		offlineQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flexchat_offline_queue_depth",
			Help: "Messages currently waiting for sync.",
		}),
		wsConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flexchat_websocket_connections",
			Help: "Open websocket connections.",
		}),
	}

	m.registry.MustRegister(
		m.httpRequestsTotal,
		m.httpDuration,
		m.messagesSent,
		m.messagesQueued,
		m.offlineQueueDepth,
		m.wsConnections,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) MessageSent()            { m.messagesSent.Inc() }
func (m *Metrics) MessageQueued()          { m.messagesQueued.Inc() }
func (m *Metrics) SetOfflineDepth(n int)   { m.offlineQueueDepth.Set(float64(n)) }
func (m *Metrics) WebSocketOpened()        { m.wsConnections.Inc() }
func (m *Metrics) WebSocketClosed()        { m.wsConnections.Dec() }
