package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Invalidator is the administrative surface of the cache: entries can be
// removed by tool-name pattern, forcing re-execution on the next call.
type Invalidator interface {
	Invalidate(pattern string) int
}

// StatsHandler returns an HTTP handler that serves the cache statistics as
// JSON, for hit-rate telemetry panels.
func StatsHandler(source StatsSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(source.Stats())
	}
}

// InvalidateResponse is the JSON response for an invalidation request.
type InvalidateResponse struct {
	Pattern string `json:"pattern"`
	Removed int    `json:"removed"`
}

// InvalidateHandler returns an HTTP handler that removes cache entries by
// tool-name pattern. POST with an optional "pattern" query parameter; an
// absent pattern clears the whole store.
func InvalidateHandler(inv Invalidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		pattern := r.URL.Query().Get("pattern")
		removed := inv.Invalidate(pattern)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(InvalidateResponse{
			Pattern: pattern,
			Removed: removed,
		})
	}
}

// CheckResponse is the JSON response for the health endpoint.
type CheckResponse struct {
	Status    string         `json:"status"`
	Message   string         `json:"message,omitempty"`
	Timestamp string         `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}

// CheckHandler returns an HTTP handler that runs the given checker.
// Healthy and degraded report 200; unhealthy reports 503.
func CheckHandler(checker Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		result := checker.Check(ctx)

		response := CheckResponse{
			Status:    result.Status.String(),
			Message:   result.Message,
			Timestamp: result.Timestamp.UTC().Format(time.RFC3339),
			Details:   result.Details,
		}

		w.Header().Set("Content-Type", "application/json")
		if result.Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_ = json.NewEncoder(w).Encode(response)
	}
}
