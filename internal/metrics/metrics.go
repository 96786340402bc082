package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	ServersCreated  prometheus.Counter
	ServersDeleted  prometheus.Counter
	MessagesSent    *prometheus.CounterVec
	DMRoomsOpened   prometheus.Counter
	Unauthorized    *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chatcord_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		ServersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatcord_servers_created_total",
			Help: "Servers created.",
		}),
		ServersDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatcord_servers_deleted_total",
			Help: "Servers deleted by their owner.",
		}),
		MessagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chatcord_messages_sent_total",
			Help: "Messages stored, by target kind.",
		}, []string{"kind"}),
		DMRoomsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatcord_dm_rooms_opened_total",
			Help: "Direct message rooms requested.",
		}),
		Unauthorized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chatcord_unauthorized_total",
			Help: "Operations refused because the caller isn't the owner or a member.",
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestDuration,
		m.ServersCreated,
		m.ServersDeleted,
		m.MessagesSent,
		m.DMRoomsOpened,
		m.Unauthorized,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Instrument observes request durations labelled with the chi route
// pattern, so ids in query strings or paths don't explode cardinality.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unknown"
		if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
			if pattern := routeCtx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.requestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
