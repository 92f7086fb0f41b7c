package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-listings/pkg/services"
)

// AgencyHandler serves agency lookups.
type AgencyHandler struct {
	lookup services.AgencyLookupService
	logger *zap.Logger
}

// NewAgencyHandler creates an AgencyHandler.
func NewAgencyHandler(lookup services.AgencyLookupService, logger *zap.Logger) *AgencyHandler {
	return &AgencyHandler{lookup: lookup, logger: logger}
}

// RegisterRoutes registers the agency routes on the given mux.
func (h *AgencyHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/agencies/lookup", h.Lookup)
}

// Lookup handles GET /api/agencies/lookup?name=.
// Feed keys are always masked in the response.
func (h *AgencyHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	result, err := h.lookup.Lookup(r.Context(), r.URL.Query().Get("name"))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	result.APIKeys = result.APIKeys.Masked()
	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to encode agency lookup response", zap.Error(err))
	}
}
