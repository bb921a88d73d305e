package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector implements the gateway and persistence metrics hooks on Prometheus
type Collector struct {
	activeConnections prometheus.Gauge
	eventsTotal       *prometheus.CounterVec
	eventDuration     *prometheus.HistogramVec
	broadcastsTotal   *prometheus.CounterVec
	deliveriesTotal   *prometheus.CounterVec
	droppedTotal      prometheus.Counter
	savesTotal        *prometheus.CounterVec
	saveDuration      *prometheus.HistogramVec
}

// NewCollector registers the session metrics on reg under namespace
func NewCollector(reg prometheus.Registerer, namespace string) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		activeConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Number of connected websocket clients",
		}),

		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Inbound events processed by event name and status",
		}, []string{"event", "status"}),

		eventDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_duration_seconds",
			Help:      "Time spent applying an inbound event",
			Buckets:   prometheus.DefBuckets,
		}, []string{"event"}),

		broadcastsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcasts_total",
			Help:      "Broadcasts issued by event name and delivery mode",
		}, []string{"event", "mode"}),

		deliveriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Frames queued to individual connections by delivery mode",
		}, []string{"mode"}),

		droppedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_connections_total",
			Help:      "Connections closed because their send buffer was full",
		}),

		savesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_saves_total",
			Help:      "Persistence writes by collection and status",
		}, []string{"collection", "status"}),

		saveDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_save_duration_seconds",
			Help:      "Persistence write duration including retries",
			Buckets:   prometheus.DefBuckets,
		}, []string{"collection"}),
	}
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

func (c *Collector) ConnectionOpened() { c.activeConnections.Inc() }
func (c *Collector) ConnectionClosed() { c.activeConnections.Dec() }
func (c *Collector) ConnectionDropped() { c.droppedTotal.Inc() }

func (c *Collector) RecordEvent(event string, success bool, duration time.Duration) {
	c.eventsTotal.WithLabelValues(event, status(success)).Inc()
	c.eventDuration.WithLabelValues(event).Observe(duration.Seconds())
}

func (c *Collector) RecordBroadcast(event, mode string, recipients int) {
	c.broadcastsTotal.WithLabelValues(event, mode).Inc()
	c.deliveriesTotal.WithLabelValues(mode).Add(float64(recipients))
}

func (c *Collector) RecordSave(collection string, success bool, duration time.Duration) {
	c.savesTotal.WithLabelValues(collection, status(success)).Inc()
	c.saveDuration.WithLabelValues(collection).Observe(duration.Seconds())
}
