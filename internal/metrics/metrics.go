package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HammerMeetNail/pacebook/internal/models"
)

const namespace = "pacebook"

// Collector holds the Prometheus metrics for the server. Each collector owns
// its registry so tests can create as many as they like.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	FriendTransitions  *prometheus.CounterVec
	MessagesSent       *prometheus.CounterVec
	IdempotencyReplays *prometheus.CounterVec
}

func New() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		FriendTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "friend_transitions_total",
				Help:      "Relationship state transitions by operation and result",
			},
			[]string{"operation", "result"},
		),
		MessagesSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_sent_total",
				Help:      "Messages appended by conversation type",
			},
			[]string{"type"},
		),
		IdempotencyReplays: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "idempotency_outcomes_total",
				Help:      "Idempotency-Key lookups by outcome",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.FriendTransitions,
		c.MessagesSent,
		c.IdempotencyReplays,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// ObserveHTTP records one completed request. route should be the mux pattern,
// not the raw path, to keep label cardinality bounded.
func (c *Collector) ObserveHTTP(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (c *Collector) FriendTransition(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.FriendTransitions.WithLabelValues(op, result).Inc()
}

func (c *Collector) MessageSent(kind models.ConversationType) {
	c.MessagesSent.WithLabelValues(string(kind)).Inc()
}

// IdempotencyOutcome counts one of "stored", "replayed", "in_flight" or "unavailable".
func (c *Collector) IdempotencyOutcome(outcome string) {
	c.IdempotencyReplays.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
