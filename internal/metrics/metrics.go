package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "league"

// Recorder owns the service's prometheus collectors. A nil *Recorder is valid
// and records nothing, so tests and tools can skip metrics entirely.
type Recorder struct {
	registry    *prometheus.Registry
	connections prometheus.Gauge
	rooms       prometheus.Gauge
	published   *prometheus.CounterVec
	dropped     prometheus.Counter
	actions     *prometheus.CounterVec
	requests    *prometheus.HistogramVec
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "socket_connections",
			Help: "Open realtime socket connections.",
		}),
		rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "rooms_active",
			Help: "Rooms with at least one member.",
		}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "updates_published_total",
			Help: "Updates handed to rooms, by update type.",
		}, []string{"type"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "slow_members_dropped_total",
			Help: "Room members disconnected because their outbox was full.",
		}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "actions_total",
			Help: "Client actions handled, by action type and outcome.",
		}, []string{"type", "outcome"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency by method, route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		r.connections, r.rooms, r.published, r.dropped, r.actions, r.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Handler serves the registry in the prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) ConnectionOpened() {
	if r == nil {
		return
	}
	r.connections.Inc()
}

func (r *Recorder) ConnectionClosed() {
	if r == nil {
		return
	}
	r.connections.Dec()
}

func (r *Recorder) SetRooms(n int) {
	if r == nil {
		return
	}
	r.rooms.Set(float64(n))
}

func (r *Recorder) UpdatePublished(typ string) {
	if r == nil {
		return
	}
	r.published.WithLabelValues(typ).Inc()
}

func (r *Recorder) MemberDropped() {
	if r == nil {
		return
	}
	r.dropped.Inc()
}

func (r *Recorder) ActionHandled(typ string, err error) {
	if r == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.actions.WithLabelValues(typ, outcome).Inc()
}

func (r *Recorder) ObserveRequest(method, route string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
