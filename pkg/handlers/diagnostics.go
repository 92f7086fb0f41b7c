package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-listings/pkg/services"
)

// DiagnosticsResponse is returned by GET /api/diagnostics.
type DiagnosticsResponse struct {
	Stores []services.StoreDiagnostics `json:"stores"`
}

// DiagnosticsHandler reports per-store detection and sampling results.
type DiagnosticsHandler struct {
	diagnostics services.DiagnosticsService
	logger      *zap.Logger
}

// NewDiagnosticsHandler creates a DiagnosticsHandler.
func NewDiagnosticsHandler(diagnostics services.DiagnosticsService, logger *zap.Logger) *DiagnosticsHandler {
	return &DiagnosticsHandler{diagnostics: diagnostics, logger: logger}
}

// RegisterRoutes registers the diagnostics route on the given mux.
func (h *DiagnosticsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/diagnostics", h.Diagnose)
}

// Diagnose handles GET /api/diagnostics?refresh=true.
func (h *DiagnosticsHandler) Diagnose(w http.ResponseWriter, r *http.Request) {
	refresh := parseBool(r.URL.Query().Get("refresh"))
	resp := DiagnosticsResponse{Stores: h.diagnostics.Diagnose(r.Context(), refresh)}
	if err := WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("Failed to encode diagnostics response", zap.Error(err))
	}
}
