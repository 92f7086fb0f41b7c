package handlers

import (
	"net/http"
	"os"
	"runtime"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-listings/pkg/config"
	"github.com/ekaya-inc/ekaya-listings/pkg/services"
)

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	// Stores is the number of configured stores; Detected how many of them
	// have a cached layout decision.
	Stores   int `json:"stores"`
	Detected int `json:"detected"`
}

// PingResponse describes the running service and what it knows about each store.
type PingResponse struct {
	Status      string                 `json:"status"`
	Version     string                 `json:"version"`
	Service     string                 `json:"service"`
	GoVersion   string                 `json:"go_version"`
	Hostname    string                 `json:"hostname"`
	Environment string                 `json:"environment"`
	Stores      []services.StoreStatus `json:"stores"`
}

// HealthHandler serves liveness and status endpoints. Neither touches a store;
// store reachability is reported by /api/diagnostics.
type HealthHandler struct {
	cfg    *config.Config
	stores *services.StoreSet
	logger *zap.Logger
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(cfg *config.Config, stores *services.StoreSet, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, stores: stores, logger: logger}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ping", h.Ping)
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	for _, st := range h.stores.Status() {
		resp.Stores++
		if st.Detected {
			resp.Detected++
		}
	}
	if err := WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("Failed to encode health response", zap.Error(err))
	}
}

// Ping handles GET /ping with version, environment and cached store layouts.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	resp := PingResponse{
		Status:      "ok",
		Version:     h.cfg.Version,
		Service:     "ekaya-listings",
		GoVersion:   runtime.Version(),
		Hostname:    hostname,
		Environment: h.cfg.Env,
		Stores:      h.stores.Status(),
	}
	if err := WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}
