package api

import (
	"net/http"

	"github.com/Gaganvinay/vendortrail/internal/domain/types"
)

// AnalyticsHandler handles score-series reads.
type AnalyticsHandler struct {
	deps Dependencies
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(deps Dependencies) *AnalyticsHandler {
	return &AnalyticsHandler{deps: deps}
}

type seriesResponse struct {
	VendorID string             `json:"vendorId"`
	Series   []types.ScorePoint `json:"series"`
}

// HandleGetSeries handles GET /api/analytics/gnn/{vendorId}.
func (h *AnalyticsHandler) HandleGetSeries(w http.ResponseWriter, r *http.Request) {
	vendorID := r.PathValue("vendorId")
	points, err := h.deps.ScoreSeries(r.Context(), vendorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, seriesResponse{VendorID: vendorID, Series: points})
}
