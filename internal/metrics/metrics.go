package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskboard",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests received",
	}, []string{"service", "method", "path", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "taskboard",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"service", "method", "path", "status"})

	httpInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "taskboard",
		Name:      "http_in_flight_requests",
		Help:      "Current number of in-flight HTTP requests",
	}, []string{"service"})

	wsConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "taskboard",
		Name:      "realtime_websocket_connections",
		Help:      "Current number of live collaboration websocket connections",
	})

	collabEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskboard",
		Name:      "realtime_collab_events_total",
		Help:      "Total inbound collaboration events by type",
	}, []string{"event"})

	presenceBroadcasts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taskboard",
		Name:      "realtime_presence_broadcasts_total",
		Help:      "Total presence update fan-outs",
	})

	notificationsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taskboard",
		Name:      "realtime_notifications_delivered_total",
		Help:      "Total cross-service notifications fanned out to rooms",
	})
)

// ConnOpened / ConnClosed track the websocket connection gauge.
func ConnOpened() { wsConnections.Inc() }
func ConnClosed() { wsConnections.Dec() }

// CollabEvent counts one inbound collaboration event.
func CollabEvent(event string) { collabEvents.WithLabelValues(event).Inc() }

// PresenceBroadcast counts one viewer-list fan-out.
func PresenceBroadcast() { presenceBroadcasts.Inc() }

// NotificationDelivered counts one notification fan-out.
func NotificationDelivered() { notificationsDelivered.Inc() }

type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := r.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, fmt.Errorf("realtime metrics: underlying ResponseWriter does not support hijacking")
}

// Middleware records request metrics with Prometheus labels.
func Middleware(service string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			httpInFlight.WithLabelValues(service).Inc()
			defer httpInFlight.WithLabelValues(service).Dec()

			next.ServeHTTP(rec, r)

			labels := prometheus.Labels{
				"service": service,
				"method":  r.Method,
				"path":    r.URL.Path,
				"status":  strconv.Itoa(rec.status),
			}

			httpRequests.With(labels).Inc()
			httpLatency.With(labels).Observe(time.Since(start).Seconds())
		})
	}
}

// Handler exposes the default Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
