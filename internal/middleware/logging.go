package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/pacebook/internal/logging"
)

type requestLogKey struct{}

// requestLog collects fields learned deeper in the chain. The logger owns it;
// inner middleware only writes to it.
type requestLog struct {
	callerID uuid.UUID
}

// noteCaller records the authenticated caller for the access log line.
func noteCaller(ctx context.Context, userID uuid.UUID) {
	if entry, ok := ctx.Value(requestLogKey{}).(*requestLog); ok {
		entry.callerID = userID
	}
}

// statusRecorder captures the status code and body size of a response.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

// RequestLogger writes one access log line per request, tagged with the
// matched route and the authenticated caller.
type RequestLogger struct {
	logger *logging.Logger
}

func NewRequestLogger(logger *logging.Logger) *RequestLogger {
	if logger == nil {
		logger = logging.Default
	}
	return &RequestLogger{logger: logger}
}

func (l *RequestLogger) Apply(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		entry := &requestLog{}
		r = r.WithContext(context.WithValue(r.Context(), requestLogKey{}, entry))
		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(recorder, r)

		fields := map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      recorder.statusCode,
			"size":        recorder.size,
			"duration_ms": time.Since(start).Milliseconds(),
			"remote_addr": r.RemoteAddr,
		}
		// The mux sets Pattern on the request it was handed, which is r.
		if r.Pattern != "" {
			fields["route"] = r.Pattern
		}
		if r.URL.RawQuery != "" {
			fields["query"] = r.URL.RawQuery
		}
		if entry.callerID != uuid.Nil {
			fields["user_id"] = entry.callerID.String()
		}
		if recorder.Header().Get(ReplayedHeader) != "" {
			fields["idempotent_replay"] = true
		}

		switch {
		case recorder.statusCode >= 500:
			l.logger.Error("HTTP request", fields)
		case recorder.statusCode >= 400:
			l.logger.Warn("HTTP request", fields)
		default:
			l.logger.Info("HTTP request", fields)
		}
	})
}
