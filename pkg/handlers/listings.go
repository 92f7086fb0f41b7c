package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-listings/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-listings/pkg/audit"
	"github.com/ekaya-inc/ekaya-listings/pkg/middleware"
	"github.com/ekaya-inc/ekaya-listings/pkg/models"
	"github.com/ekaya-inc/ekaya-listings/pkg/normalize"
	"github.com/ekaya-inc/ekaya-listings/pkg/services"
)

// maxDeltaBody caps the POST /api/deltas request body.
const maxDeltaBody = 1 << 20

// DeltasResponse is returned by POST /api/deltas.
type DeltasResponse struct {
	Deltas []models.PropertyDelta `json:"deltas"`
}

// ListingsHandler serves search and delta endpoints.
type ListingsHandler struct {
	search  services.SearchService
	auditor *audit.SecurityAuditor
	logger  *zap.Logger
}

// NewListingsHandler creates a ListingsHandler.
func NewListingsHandler(search services.SearchService, auditor *audit.SecurityAuditor, logger *zap.Logger) *ListingsHandler {
	return &ListingsHandler{search: search, auditor: auditor, logger: logger}
}

// RegisterRoutes registers the listings routes on the given mux.
func (h *ListingsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/search", h.Search)
	mux.HandleFunc("POST /api/deltas", h.Deltas)
}

// Search handles GET /api/search.
// Suspicious parameters are audited but still searched: every value is bound
// as a query parameter by the store adapters.
func (h *ListingsHandler) Search(w http.ResponseWriter, r *http.Request) {
	filters, err := ParseSearchFilters(r)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	requestID := middleware.RequestIDFromContext(r.Context())
	q := r.URL.Query().Get(paramQuery)
	h.auditor.AuditParameters(requestID, r.URL.Path, r.RemoteAddr, searchParams(r))
	h.auditor.LogSearch(requestID, q, r.RemoteAddr)

	results := h.search.Search(r.Context(), q, filters)
	if err := WriteJSON(w, http.StatusOK, results); err != nil {
		h.logger.Error("Failed to encode search response", zap.Error(err))
	}
}

// Deltas handles POST /api/deltas with a body of {"sources": [...]}.
// Source entries use the same keys the normalizer accepts from stores.
func (h *ListingsHandler) Deltas(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDeltaBody)

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeServiceError(w, fmt.Errorf("%w: invalid JSON body: %v", apperrors.ErrInvalidArgument, err), h.logger)
		return
	}
	raw, ok := body["sources"]
	if !ok {
		writeServiceError(w, fmt.Errorf("%w: sources is required", apperrors.ErrInvalidArgument), h.logger)
		return
	}

	resp := DeltasResponse{Deltas: services.CalculatePropertyDeltas(normalize.Sources(raw))}
	if err := WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("Failed to encode deltas response", zap.Error(err))
	}
}
