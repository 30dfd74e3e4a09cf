package middleware

import (
	"net/http"
	"time"
)

// HTTPObserver records completed requests.
type HTTPObserver interface {
	ObserveHTTP(method, route string, status int, duration time.Duration)
}

// Metrics reports every request to an HTTPObserver, labelled by the matched
// mux pattern rather than the raw path.
type Metrics struct {
	observer HTTPObserver
}

func NewMetrics(observer HTTPObserver) *Metrics {
	return &Metrics{observer: observer}
}

func (m *Metrics) Apply(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(recorder, r)

		m.observer.ObserveHTTP(r.Method, r.Pattern, recorder.statusCode, time.Since(start))
	})
}
