package api

import (
	"net/http"
)

// GraphHandler handles vendor graph reads.
type GraphHandler struct {
	deps Dependencies
}

// NewGraphHandler creates a new graph handler.
func NewGraphHandler(deps Dependencies) *GraphHandler {
	return &GraphHandler{deps: deps}
}

// HandleGetGraph handles GET /api/events/graph/{vendorId}. The response
// always carries whatever graph exists; the live score degrades to an
// empty object when the oracle is unreachable.
func (h *GraphHandler) HandleGetGraph(w http.ResponseWriter, r *http.Request) {
	g, err := h.deps.VendorGraph(r.Context(), r.PathValue("vendorId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}
