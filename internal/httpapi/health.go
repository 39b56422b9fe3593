package httpapi

import (
	"context"
	"net/http"
	"time"

	"task-manager/internal/model"
)

const pingTimeout = 1 * time.Second

// Pinger reports whether the task store answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Timestamp string `json:"timestamp"`
}

// HealthHandler always answers 200; the body says whether the store is
// reachable.
func HealthHandler(p Pinger, now func() time.Time) http.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{
			Status:    "UP",
			Database:  "Connected",
			Timestamp: now().UTC().Format(model.TimeLayout),
		}
		if err := ping(r.Context(), p); err != nil {
			resp.Status = "DEGRADED"
			resp.Database = "Disconnected"
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HealthzHandler reports process liveness only.
func HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

func ReadyzHandler(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ping(r.Context(), p); err != nil {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	}
}

func ping(ctx context.Context, p Pinger) error {
	if p == nil {
		return model.ErrStoreUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return p.Ping(ctx)
}
