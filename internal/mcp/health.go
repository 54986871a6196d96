package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const healthCheckTimeout = 3 * time.Second

// HealthResponse is the JSON body of the /health endpoint.
type HealthResponse struct {
	Status      string `json:"status"`
	VectorStore string `json:"vector_store"`
	Timestamp   string `json:"timestamp"`
}

// HealthChecker reports whether the vector store is reachable.
// The vectorstore package implements this via its Health method.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// NewHealthHandler creates the /health endpoint handler. It returns 200
// when the vector store responds within the timeout and 503 otherwise.
func NewHealthHandler(store HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		resp := HealthResponse{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}

		w.Header().Set("Content-Type", "application/json")

		if err := store.Health(ctx); err != nil {
			resp.Status = "unhealthy"
			resp.VectorStore = "disconnected"
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(resp)
			return
		}

		resp.Status = "healthy"
		resp.VectorStore = "connected"
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	}
}
