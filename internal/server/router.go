package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eventgate-io/eventgate/internal/handlers"
	"github.com/eventgate-io/eventgate/internal/middleware"
)

// NewRouter constructs a ServeMux with the gateway routes registered.
func NewRouter(h *handlers.PublishHandler) http.Handler {
	mux := http.NewServeMux()

	// Client-facing entry point: single method at the service root.
	mux.HandleFunc("/", h.HandlePublish)

	// Health endpoints
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/readyz", h.Ready)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}
