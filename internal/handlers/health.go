package handlers

import (
	"context"
	"net/http"
	"time"
)

type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthHandler reports dependency health. A Redis failure only degrades the
// service; a Postgres failure makes it unhealthy.
type HealthHandler struct {
	db    HealthChecker
	redis HealthChecker
}

func NewHealthHandler(db, redis HealthChecker) *HealthHandler {
	return &HealthHandler{
		db:    db,
		redis: redis,
	}
}

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    statusHealthy,
		Checks:    make(map[string]string),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if err := h.db.Health(ctx); err != nil {
		response.Status = statusUnhealthy
		response.Checks["postgres"] = "unhealthy: " + err.Error()
	} else {
		response.Checks["postgres"] = statusHealthy
	}

	if err := h.redis.Health(ctx); err != nil {
		if response.Status == statusHealthy {
			response.Status = statusDegraded
		}
		response.Checks["redis"] = "unhealthy: " + err.Error()
	} else {
		response.Checks["redis"] = statusHealthy
	}

	status := http.StatusOK
	if response.Status == statusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

// Ready only depends on Postgres.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.db.Health(ctx); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("alive"))
}
